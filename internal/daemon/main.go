// Package daemon wires the service together: database, settings, directory
// backends and the identity manager.
package daemon

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tenantcore/tenantcore/internal/config"
	"github.com/tenantcore/tenantcore/internal/db/dsn"
	"github.com/tenantcore/tenantcore/internal/db/models"
	"github.com/tenantcore/tenantcore/internal/directory"
	"github.com/tenantcore/tenantcore/internal/identity"
	"github.com/tenantcore/tenantcore/internal/logger"
	"github.com/tenantcore/tenantcore/internal/settings"
)

// ErrConfigNil is returned when constructing a Daemon without configuration.
var ErrConfigNil = errors.New("config is nil")

// Daemon is the assembled service.
type Daemon struct {
	cfg     *config.Config
	db      *gorm.DB
	manager *identity.Manager
}

// New builds a Daemon: it initializes logging, opens the database, migrates
// the schema, seeds bootstrap data and loads the identity caches.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	if err := logger.Init(cfg.Log); err != nil {
		return nil, err
	}

	dialector, err := dsn.Dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err = db.AutoMigrate(
		&models.Domain{},
		&models.User{},
		&models.UserInfo{},
		&models.Group{},
		&models.Role{},
		&models.UserAssociation{},
		&models.RoleAssociation{},
		&models.RolePermission{},
		&models.DomainSetting{},
		&models.UserSetting{},
		&models.Sequence{},
		&models.LocalEntry{},
		&models.Activity{},
		&models.AuditEntry{},
		&models.StoreEntry{},
	); err != nil {
		return nil, err
	}

	svc, err := settings.New(db, cfg.Domain.DefaultLanguageTag, cfg.Domain.DefaultTimezone)
	if err != nil {
		return nil, err
	}

	manager, err := identity.New(db, svc, directory.NewRegistry(db))
	if err != nil {
		return nil, err
	}

	if err = manager.Init(); err != nil {
		return nil, err
	}

	if err = seed(cfg, db, manager); err != nil {
		return nil, err
	}

	return &Daemon{
		cfg:     cfg,
		db:      db,
		manager: manager,
	}, nil
}

// Manager exposes the identity core.
func (d *Daemon) Manager() *identity.Manager {
	return d.manager
}

// Run blocks until the process receives an interrupt or termination signal,
// then releases the daemon's resources.
func (d *Daemon) Run() error {
	log.Info().Str("engine", d.cfg.DB.Engine).Msg("tenantcore started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info().Str("signal", sig.String()).Msg("shutting down")

	return d.Close()
}

// Close releases the daemon's resources.
func (d *Daemon) Close() error {
	d.manager.Close()

	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
