package daemon

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tenantcore/tenantcore/internal/config"
	"github.com/tenantcore/tenantcore/internal/db/models"
	"github.com/tenantcore/tenantcore/internal/identity"
)

// seedAdminPassword is the bootstrap administrator password.
// Change it after first login.
const seedAdminPassword = "Changeme1"

// seed creates the bootstrap domain with its built-in groups and
// administrator when the domain table is empty.
func seed(cfg *config.Config, _ *gorm.DB, manager *identity.Manager) error {
	domains, err := manager.ListDomains(false)
	if err != nil {
		return err
	}
	if len(domains) > 0 {
		return nil
	}

	domainID := cfg.Domain.BootstrapID
	if domainID == "" {
		return nil
	}

	entity := identity.DomainEntity{
		DomainID:          domainID,
		Enabled:           true,
		Description:       "Bootstrap domain",
		DirURI:            "local://default",
		DirPasswordPolicy: true,
	}
	if _, err = manager.AddDomain(&entity); err != nil {
		return err
	}

	if err = manager.InitDomainWithDefaults(domainID, seedAdminPassword); err != nil {
		return err
	}

	log.Info().
		Str("domain", domainID).
		Str("admin", identity.DefaultAdminUserID+"@"+domainID).
		Str("group", models.GroupIDAdmins).
		Msg("bootstrap domain seeded")

	return nil
}
