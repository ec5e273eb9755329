// Package identity is the multi-tenant identity core: domains, users, groups,
// roles and permissions, backed by the database and fronted by in-memory
// identity caches.
package identity

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tenantcore/tenantcore/internal/db/controller/content"
	"github.com/tenantcore/tenantcore/internal/db/controller/group"
	"github.com/tenantcore/tenantcore/internal/db/controller/user"
	"github.com/tenantcore/tenantcore/internal/db/models"
	"github.com/tenantcore/tenantcore/internal/directory"
	"github.com/tenantcore/tenantcore/internal/settings"
)

// Manager owns the identity state of the service. All reads of UID identity
// go through the in-memory caches; all mutations go through the database in
// one transaction and update the caches after commit.
type Manager struct {
	db       *gorm.DB
	settings *settings.Service
	registry *directory.Registry
	validate *validator.Validate

	users    *uidCache
	groups   *uidCache
	profiles *profileCache
}

// ErrDBNil is returned when constructing a Manager without a database.
var ErrDBNil = fmt.Errorf("database connection is nil")

// New builds a Manager. Init must be called before serving lookups.
func New(db *gorm.DB, svc *settings.Service, registry *directory.Registry) (*Manager, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	return &Manager{
		db:       db,
		settings: svc,
		registry: registry,
		validate: validator.New(),
		users:    newUIDCache(),
		groups:   newUIDCache(),
		profiles: newProfileCache(),
	}, nil
}

// Init loads both identity caches from the principal tables.
func (m *Manager) Init() error {
	if err := m.rebuildUserCache(); err != nil {
		return err
	}
	if err := m.rebuildGroupCache(); err != nil {
		return err
	}

	log.Info().
		Int("users", m.users.len()).
		Int("groups", m.groups.len()).
		Msg("identity caches initialized")

	return nil
}

// Close drops the cached state.
func (m *Manager) Close() {
	m.users.replaceAll(nil)
	m.groups.replaceAll(nil)
	m.profiles.purge()
}

// rebuildUserCache reloads the user identity cache from the users table.
func (m *Manager) rebuildUserCache() error {
	rows, err := user.AllUIDs(m.db)
	if err != nil {
		return fmt.Errorf("failed to load user uids: %w", err)
	}

	entries := make(map[ProfileID]string, len(rows))
	for _, row := range rows {
		entries[NewProfileID(row.DomainID, row.UserID)] = row.UserUID
	}
	m.users.replaceAll(entries)

	return nil
}

// rebuildGroupCache reloads the group identity cache from the groups table.
func (m *Manager) rebuildGroupCache() error {
	rows, err := group.AllUIDs(m.db)
	if err != nil {
		return fmt.Errorf("failed to load group uids: %w", err)
	}

	entries := make(map[ProfileID]string, len(rows))
	for _, row := range rows {
		entries[NewProfileID(row.DomainID, row.GroupID)] = row.UserUID
	}
	m.groups.replaceAll(entries)

	return nil
}

// UserUID resolves a user's profile ID to its UID.
func (m *Manager) UserUID(pid ProfileID) (string, error) {
	return m.users.uid(pid)
}

// UserProfile resolves a user UID back to its profile ID.
func (m *Manager) UserProfile(userUID string) (ProfileID, error) {
	return m.users.profile(userUID)
}

// GroupUID resolves a group's (domain, group) pair to its UID.
func (m *Manager) GroupUID(domainID, groupID string) (string, error) {
	return m.groups.uid(NewProfileID(domainID, groupID))
}

// GroupProfile resolves a group UID back to its (domain, group) pair.
func (m *Manager) GroupProfile(groupUID string) (ProfileID, error) {
	return m.groups.profile(groupUID)
}

// validateEntity runs struct validation, mapping failures to ErrValidation.
func (m *Manager) validateEntity(entity interface{}) error {
	if err := m.validate.Struct(entity); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	return nil
}

// audit appends an audit row for a lifecycle mutation. Failures are logged,
// never returned; the mutation itself has already committed.
func (m *Manager) audit(domainID, userID, action, data string) {
	entry := models.AuditEntry{
		DomainID:  domainID,
		UserID:    userID,
		ServiceID: models.CoreServiceID,
		Action:    action,
		Data:      data,
	}
	if err := content.AppendAudit(m.db, &entry); err != nil {
		log.Warn().Err(err).Str("action", action).Msg("failed to append audit entry")
	}
}

// directoryFor resolves the backend and connection options of a domain.
// The password policy is enforced when either the domain row or the domain's
// settings ask for it.
func (m *Manager) directoryFor(d *DomainEntity) (directory.Directory, *directory.Options, error) {
	dir, err := m.registry.ByURI(d.DirURI)
	if err != nil {
		return nil, nil, err
	}

	policy := d.DirPasswordPolicy
	if !policy && m.settings != nil {
		enabled, errPolicy := m.settings.PasswordPolicy(d.DomainID)
		if errPolicy != nil {
			return nil, nil, errPolicy
		}
		policy = enabled
	}

	opts := &directory.Options{
		DomainID:       d.DomainID,
		URI:            d.DirURI,
		AdminUsername:  d.DirUsername,
		AdminPassword:  d.DirPassword,
		ConnSecurity:   d.DirConnSecurity,
		CaseSensitive:  d.DirCaseSensitive,
		PasswordPolicy: policy,
	}

	return dir, opts, nil
}
