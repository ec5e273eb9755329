// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tenantcore/tenantcore/internal/config"
)

// ErrUnknownEngine is returned for a db.engine value that is not supported.
var ErrUnknownEngine = fmt.Errorf("unknown db engine")

// Dialector builds the gorm dialector selected by the configured engine.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DB.Engine {
	case "sqlite":
		path := cfg.DB.Path
		if path == "" {
			path = cfg.DB.Name
		}

		return sqlite.Open(path), nil
	case "mysql":
		return mysql.Open(createMySQL(cfg)), nil
	case "postgres":
		return postgres.Open(createPostgres(cfg)), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEngine, cfg.DB.Engine)
	}
}

// createMySQL builds the MySQL Data Source Name from the configuration.
func createMySQL(dbCfg *config.Config) string {
	out := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		dbCfg.DB.User,
		dbCfg.DB.Password,
		dbCfg.DB.Host,
		dbCfg.DB.Port,
		dbCfg.DB.Name,
		dbCfg.DB.Extras,
	)

	return out
}

// createPostgres builds the PostgreSQL Data Source Name from the configuration.
func createPostgres(dbCfg *config.Config) string {
	out := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s %s",
		dbCfg.DB.Host,
		dbCfg.DB.Port,
		dbCfg.DB.User,
		dbCfg.DB.Password,
		dbCfg.DB.Name,
		dbCfg.DB.Extras,
	)

	return out
}
