package identity

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	roledb "github.com/tenantcore/tenantcore/internal/db/controller/role"
	"github.com/tenantcore/tenantcore/internal/db/models"
)

// GetRole loads a standalone role with its permissions.
func (m *Manager) GetRole(roleUID string) (*RoleEntity, error) {
	r, err := roledb.Get(m.db, roleUID)
	if err != nil {
		if errors.Is(err, roledb.ErrRoleNotFound) {
			return nil, fmt.Errorf("%w: role %s", ErrNotFound, roleUID)
		}

		return nil, err
	}

	entity := &RoleEntity{
		RoleUID:     r.RoleUID,
		DomainID:    r.DomainID,
		Name:        r.Name,
		Description: r.Description,
	}

	perms, err := roledb.ListPermissions(m.db, roleUID)
	if err != nil {
		return nil, err
	}
	for _, p := range perms {
		entity.Permissions = append(entity.Permissions, Permission{
			ServiceID: p.ServiceID,
			Key:       p.Key,
			Action:    p.Action,
			Instance:  p.Instance,
		})
	}

	return entity, nil
}

// RoleDomain reports the domain a role UID belongs to. The UID may name a
// standalone role, a user or a group; all three namespaces are consulted.
func (m *Manager) RoleDomain(roleUID string) (string, error) {
	if pid, err := m.users.profile(roleUID); err == nil {
		return pid.DomainID, nil
	}
	if pid, err := m.groups.profile(roleUID); err == nil {
		return pid.DomainID, nil
	}

	r, err := roledb.Get(m.db, roleUID)
	if err != nil {
		if errors.Is(err, roledb.ErrRoleNotFound) {
			return "", fmt.Errorf("%w: role %s", ErrNotFound, roleUID)
		}

		return "", err
	}

	return r.DomainID, nil
}

// ListRoles retrieves the standalone roles of a domain.
func (m *Manager) ListRoles(domainID string) ([]RoleEntity, error) {
	rows, err := roledb.ListByDomain(m.db, domainID)
	if err != nil {
		return nil, err
	}

	out := make([]RoleEntity, len(rows))
	for i, r := range rows {
		out[i] = RoleEntity{
			RoleUID:     r.RoleUID,
			DomainID:    r.DomainID,
			Name:        r.Name,
			Description: r.Description,
		}
	}

	return out, nil
}

// ListUsersRoles lists the users of a domain in their role form: each user's
// UID acting as a role named after the user.
func (m *Manager) ListUsersRoles(domainID string) ([]RoleEntity, error) {
	users, err := m.ListUsers(domainID, false)
	if err != nil {
		return nil, err
	}

	out := make([]RoleEntity, 0, len(users))
	for _, u := range users {
		uid, errUID := m.users.uid(NewProfileID(u.DomainID, u.UserID))
		if errUID != nil {
			return nil, errUID
		}
		out = append(out, RoleEntity{
			RoleUID:     uid,
			DomainID:    u.DomainID,
			Name:        u.UserID,
			Description: u.DisplayName,
		})
	}

	return out, nil
}

// ListGroupsRoles lists the groups of a domain in their role form.
func (m *Manager) ListGroupsRoles(domainID string) ([]RoleEntity, error) {
	groups, err := m.ListGroups(domainID)
	if err != nil {
		return nil, err
	}

	out := make([]RoleEntity, 0, len(groups))
	for _, g := range groups {
		uid, errUID := m.groups.uid(NewProfileID(g.DomainID, g.GroupID))
		if errUID != nil {
			return nil, errUID
		}
		out = append(out, RoleEntity{
			RoleUID:     uid,
			DomainID:    g.DomainID,
			Name:        g.GroupID,
			Description: g.DisplayName,
		})
	}

	return out, nil
}

// ListAssignedRoles lists the direct role grants of a subject UID.
func (m *Manager) ListAssignedRoles(subjectUID string) ([]RoleEntity, error) {
	rows, err := roledb.AssignedRoles(m.db, subjectUID)
	if err != nil {
		return nil, err
	}

	out := make([]RoleEntity, len(rows))
	for i, r := range rows {
		out[i] = RoleEntity{RoleUID: r.RoleUID, Name: r.Name}
	}

	return out, nil
}

// AddRole creates a standalone role with its permissions.
func (m *Manager) AddRole(entity *RoleEntity) (*RoleEntity, error) {
	if err := m.validateEntity(entity); err != nil {
		return nil, err
	}

	roleUID := uuid.NewString()

	err := m.db.Transaction(func(tx *gorm.DB) error {
		row := models.Role{
			RoleUID:     roleUID,
			DomainID:    entity.DomainID,
			Name:        entity.Name,
			Description: entity.Description,
		}
		if errTx := roledb.Insert(tx, &row); errTx != nil {
			if errors.Is(errTx, roledb.ErrRoleAlreadyExists) {
				return fmt.Errorf("%w: role %s@%s", ErrAlreadyExists, entity.Name, entity.DomainID)
			}

			return errTx
		}

		return insertPermissions(tx, roleUID, entity.Permissions)
	})
	if err != nil {
		return nil, err
	}

	out := *entity
	out.RoleUID = roleUID

	m.audit(entity.DomainID, "", "role.create", entity.Name)

	log.Info().Str("role", entity.Name).Str("domain", entity.DomainID).Msg("role created")

	return &out, nil
}

// UpdateRole rewrites a role's name and description and reconciles its
// permissions against the stored state.
func (m *Manager) UpdateRole(entity *RoleEntity) error {
	if err := m.validateEntity(entity); err != nil {
		return err
	}

	current, err := m.GetRole(entity.RoleUID)
	if err != nil {
		return err
	}

	permChanges := Changes(current.Permissions, entity.Permissions, keyOfPermission)

	err = m.db.Transaction(func(tx *gorm.DB) error {
		row := models.Role{
			RoleUID:     entity.RoleUID,
			Name:        entity.Name,
			Description: entity.Description,
		}
		if errTx := roledb.Update(tx, &row); errTx != nil {
			return errTx
		}

		for _, p := range permChanges.Deleted {
			permRow := models.RolePermission{
				RoleUID:   entity.RoleUID,
				ServiceID: p.ServiceID,
				Key:       p.Key,
				Action:    p.Action,
				Instance:  p.Instance,
			}
			if errTx := roledb.DeletePermission(tx, &permRow); errTx != nil {
				return errTx
			}
		}

		return insertPermissions(tx, entity.RoleUID, permChanges.Inserted)
	})
	if err != nil {
		if errors.Is(err, roledb.ErrRoleNotFound) {
			return fmt.Errorf("%w: role %s", ErrNotFound, entity.RoleUID)
		}

		return err
	}

	m.audit(entity.DomainID, "", "role.update", entity.Name)

	log.Info().Str("role", entity.Name).Str("domain", entity.DomainID).Msg("role updated")

	return nil
}

// DeleteRole removes a standalone role with its grants and permissions.
func (m *Manager) DeleteRole(roleUID string) error {
	err := m.db.Transaction(func(tx *gorm.DB) error {
		if errTx := roledb.DeleteAssociationsByRole(tx, roleUID); errTx != nil {
			return errTx
		}
		if errTx := roledb.DeletePermissionsByRole(tx, roleUID); errTx != nil {
			return errTx
		}

		return roledb.Delete(tx, roleUID)
	})
	if err != nil {
		if errors.Is(err, roledb.ErrRoleNotFound) {
			return fmt.Errorf("%w: role %s", ErrNotFound, roleUID)
		}

		return err
	}

	log.Info().Str("role_uid", roleUID).Msg("role deleted")

	return nil
}
