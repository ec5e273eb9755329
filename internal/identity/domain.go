package identity

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	contentdb "github.com/tenantcore/tenantcore/internal/db/controller/content"
	domaindb "github.com/tenantcore/tenantcore/internal/db/controller/domain"
	groupdb "github.com/tenantcore/tenantcore/internal/db/controller/group"
	localdb "github.com/tenantcore/tenantcore/internal/db/controller/local"
	roledb "github.com/tenantcore/tenantcore/internal/db/controller/role"
	settingdb "github.com/tenantcore/tenantcore/internal/db/controller/setting"
	userdb "github.com/tenantcore/tenantcore/internal/db/controller/user"
	"github.com/tenantcore/tenantcore/internal/db/models"
	"github.com/tenantcore/tenantcore/internal/directory"
)

// DefaultAdminUserID is the administrator seeded by InitDomainWithDefaults.
const DefaultAdminUserID = "admin"

// GetDomain retrieves a domain as an entity.
func (m *Manager) GetDomain(domainID string) (*DomainEntity, error) {
	d, err := domaindb.Get(m.db, domainID)
	if err != nil {
		if errors.Is(err, domaindb.ErrDomainNotFound) {
			return nil, fmt.Errorf("%w: domain %s", ErrNotFound, domainID)
		}

		return nil, err
	}

	return domainToEntity(d), nil
}

// ListDomains retrieves all domains, optionally enabled ones only.
func (m *Manager) ListDomains(enabledOnly bool) ([]DomainEntity, error) {
	rows, err := domaindb.List(m.db, enabledOnly)
	if err != nil {
		return nil, err
	}

	out := make([]DomainEntity, len(rows))
	for i := range rows {
		out[i] = *domainToEntity(&rows[i])
	}

	return out, nil
}

// DomainInternetName reports the internet name of a domain.
func (m *Manager) DomainInternetName(domainID string) (string, error) {
	d, err := m.GetDomain(domainID)
	if err != nil {
		return "", err
	}

	return d.InternetName, nil
}

// InternetUserID renders a user's internet-facing address, built from the
// user ID and the domain's internet name.
func (m *Manager) InternetUserID(pid ProfileID) (string, error) {
	name, err := m.DomainInternetName(pid.DomainID)
	if err != nil {
		return "", err
	}
	if name == "" {
		return pid.String(), nil
	}

	return pid.UserID + "@" + name, nil
}

// AddDomain creates a domain. Connection parameters that do not apply to the
// directory kind are blanked before the row is written. Default settings are
// seeded after commit; a seeding failure is logged, not returned.
func (m *Manager) AddDomain(entity *DomainEntity) (*DomainEntity, error) {
	if err := m.validateEntity(entity); err != nil {
		return nil, err
	}

	filled, err := fillDomain(entity)
	if err != nil {
		return nil, err
	}

	row := entityToDomain(filled)
	if err := domaindb.Insert(m.db, row); err != nil {
		if errors.Is(err, domaindb.ErrDomainAlreadyExists) {
			return nil, fmt.Errorf("%w: domain %s", ErrAlreadyExists, filled.DomainID)
		}

		return nil, err
	}

	if m.settings != nil {
		if errSeed := m.settings.SetDomainDefaults(filled.DomainID, "", ""); errSeed != nil {
			log.Warn().Err(errSeed).
				Str("domain", filled.DomainID).
				Msg("failed to seed domain settings")
		}
	}

	m.audit(filled.DomainID, "", "domain.create", filled.DirURI)

	log.Info().Str("domain", filled.DomainID).Msg("domain created")

	return filled, nil
}

// UpdateDomain rewrites a domain's mutable fields. The directory kind follows
// the URI; inapplicable parameters are blanked the same way AddDomain does.
func (m *Manager) UpdateDomain(entity *DomainEntity) (*DomainEntity, error) {
	if err := m.validateEntity(entity); err != nil {
		return nil, err
	}

	filled, err := fillDomain(entity)
	if err != nil {
		return nil, err
	}

	if err := domaindb.Update(m.db, entityToDomain(filled)); err != nil {
		if errors.Is(err, domaindb.ErrDomainNotFound) {
			return nil, fmt.Errorf("%w: domain %s", ErrNotFound, filled.DomainID)
		}

		return nil, err
	}

	m.audit(filled.DomainID, "", "domain.update", filled.DirURI)

	log.Info().Str("domain", filled.DomainID).Msg("domain updated")

	return filled, nil
}

// DeleteDomain removes a domain and everything hanging off it, in dependency
// order inside one transaction. After commit both identity caches are rebuilt
// and the profile caches cleared. With cleanupDirectory set, writable backends
// are asked to drop their entries as well; backend failures are logged only.
func (m *Manager) DeleteDomain(domainID string, cleanupDirectory bool) error {
	entity, err := m.GetDomain(domainID)
	if err != nil {
		return err
	}

	var dirUsers []string
	if cleanupDirectory {
		users, errList := userdb.ListByDomain(m.db, domainID, false)
		if errList != nil {
			return errList
		}
		for _, u := range users {
			dirUsers = append(dirUsers, u.UserID)
		}
	}

	err = m.db.Transaction(func(tx *gorm.DB) error {
		if errTx := contentdb.DeleteByDomain(tx, domainID); errTx != nil {
			return errTx
		}
		if errTx := settingdb.DeleteUserAllByDomain(tx, domainID); errTx != nil {
			return errTx
		}
		if errTx := settingdb.DeleteDomainAll(tx, domainID); errTx != nil {
			return errTx
		}
		if errTx := roledb.DeleteAssociationsByDomain(tx, domainID); errTx != nil {
			return errTx
		}
		if errTx := roledb.DeleteAssociationsByDomainSubjects(tx, domainID); errTx != nil {
			return errTx
		}
		if errTx := roledb.DeletePermissionsByDomain(tx, domainID); errTx != nil {
			return errTx
		}
		if errTx := roledb.DeletePermissionsByDomainPrincipals(tx, domainID); errTx != nil {
			return errTx
		}
		if errTx := roledb.DeleteByDomain(tx, domainID); errTx != nil {
			return errTx
		}
		if errTx := userdb.DeleteAssociationsByDomain(tx, domainID); errTx != nil {
			return errTx
		}
		if errTx := userdb.DeleteInfoByDomain(tx, domainID); errTx != nil {
			return errTx
		}
		if errTx := userdb.DeleteByDomain(tx, domainID); errTx != nil {
			return errTx
		}
		if errTx := groupdb.DeleteByDomain(tx, domainID); errTx != nil {
			return errTx
		}
		if errTx := localdb.DeleteByDomain(tx, domainID); errTx != nil {
			return errTx
		}

		return domaindb.Delete(tx, domainID)
	})
	if err != nil {
		return err
	}

	if errRebuild := m.rebuildUserCache(); errRebuild != nil {
		return errRebuild
	}
	if errRebuild := m.rebuildGroupCache(); errRebuild != nil {
		return errRebuild
	}
	m.profiles.removeDomain(domainID)

	if cleanupDirectory {
		m.cleanupDomainDirectory(entity, dirUsers)
	}

	m.audit(domainID, "", "domain.delete", "")

	log.Info().Str("domain", domainID).Msg("domain deleted")

	return nil
}

// cleanupDomainDirectory asks the domain's backend to drop its entries.
// Best effort; the rows are already gone.
func (m *Manager) cleanupDomainDirectory(entity *DomainEntity, userIDs []string) {
	dir, opts, err := m.directoryFor(entity)
	if err != nil {
		log.Warn().Err(err).Str("domain", entity.DomainID).
			Msg("skipping directory cleanup")

		return
	}
	if !directory.Has(dir, directory.CapUsersWrite) {
		return
	}
	if dir.Kind() == directory.KindLocal {
		// Local entries were removed inside the delete transaction.
		return
	}

	for _, userID := range userIDs {
		if errDel := dir.DeleteUser(opts, userID); errDel != nil &&
			!errors.Is(errDel, directory.ErrEntryNotFound) {
			log.Warn().Err(errDel).
				Str("domain", entity.DomainID).
				Str("user", userID).
				Msg("failed to delete directory entry")
		}
	}
}

// InitDomainWithDefaults seeds a fresh domain with its built-in groups and an
// enabled administrator account holding wildcard admin permission.
func (m *Manager) InitDomainWithDefaults(domainID, adminPassword string) error {
	if _, err := m.GetDomain(domainID); err != nil {
		return err
	}

	for _, groupID := range []string{models.GroupIDAdmins, models.GroupIDUsers} {
		_, err := m.AddGroup(&GroupEntity{
			DomainID:    domainID,
			GroupID:     groupID,
			DisplayName: groupID,
		})
		if err != nil && !errors.Is(err, ErrAlreadyExists) {
			return err
		}
	}

	admin := &UserEntity{
		DomainID:       domainID,
		UserID:         DefaultAdminUserID,
		Enabled:        true,
		DisplayName:    "Administrator",
		AssignedGroups: []string{models.GroupIDAdmins},
		Permissions: []Permission{
			{ServiceID: models.CoreServiceID, Key: "ADMIN", Action: "ACCESS", Instance: models.InstanceWildcard},
		},
	}

	var password *string
	if adminPassword != "" {
		password = &adminPassword
	}

	if _, err := m.AddUser(true, admin, password); err != nil && !errors.Is(err, ErrAlreadyExists) {
		return err
	}

	return nil
}

// fillDomain normalizes the directory-dependent fields of a domain entity:
// parameters the kind does not use are blanked so stale values never linger
// across a URI change.
func fillDomain(entity *DomainEntity) (*DomainEntity, error) {
	kind, err := directory.KindOfURI(entity.DirURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	out := *entity
	fields := directory.FieldsOf(kind)
	if !fields.ConnSecurity {
		out.DirConnSecurity = ""
	}
	if !fields.Credentials {
		out.DirUsername = ""
		out.DirPassword = ""
	}
	if !fields.PasswordPolicy {
		out.DirPasswordPolicy = false
	}

	return &out, nil
}

func domainToEntity(d *models.Domain) *DomainEntity {
	return &DomainEntity{
		DomainID:          d.DomainID,
		InternetName:      d.InternetName,
		Enabled:           d.Enabled,
		Description:       d.Description,
		UserAutoCreation:  d.UserAutoCreation,
		DirURI:            d.DirURI,
		DirUsername:       d.DirUsername,
		DirPassword:       d.DirPassword,
		DirConnSecurity:   d.DirConnSecurity,
		DirCaseSensitive:  d.DirCaseSensitive,
		DirPasswordPolicy: d.DirPasswordPolicy,
	}
}

func entityToDomain(e *DomainEntity) *models.Domain {
	return &models.Domain{
		DomainID:          e.DomainID,
		InternetName:      e.InternetName,
		Enabled:           e.Enabled,
		Description:       e.Description,
		UserAutoCreation:  e.UserAutoCreation,
		DirURI:            e.DirURI,
		DirUsername:       e.DirUsername,
		DirPassword:       e.DirPassword,
		DirConnSecurity:   e.DirConnSecurity,
		DirCaseSensitive:  e.DirCaseSensitive,
		DirPasswordPolicy: e.DirPasswordPolicy,
	}
}
