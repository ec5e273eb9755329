package config

import (
	"github.com/tenantcore/tenantcore/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode bool // enable dev mode for development
	DB      DB
	Log     logger.Log
	Title   string
	Domain  Domain
}

// Domain implements default settings applied to newly created domains.
type Domain struct {
	BootstrapID        string // domain seeded on an empty database; empty disables seeding
	DefaultLanguageTag string // BCP 47 tag seeded into new user settings (e.g. "en-US")
	DefaultTimezone    string // IANA zone name seeded into new user settings (e.g. "Europe/Rome")
}
