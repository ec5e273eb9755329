package config

// DB holds the database configuration settings.
type DB struct {
	Engine   string // gorm engine: sqlite, mysql or postgres
	Extras   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	Path     string // sqlite only: database file path (":memory:" for in-memory)
}
