package identity

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	groupdb "github.com/tenantcore/tenantcore/internal/db/controller/group"
	roledb "github.com/tenantcore/tenantcore/internal/db/controller/role"
	userdb "github.com/tenantcore/tenantcore/internal/db/controller/user"
	"github.com/tenantcore/tenantcore/internal/db/models"
)

// GetGroupEntity loads a group with its members, role grants and own-UID
// permissions.
func (m *Manager) GetGroupEntity(domainID, groupID string) (*GroupEntity, error) {
	g, err := groupdb.Get(m.db, domainID, groupID)
	if err != nil {
		if errors.Is(err, groupdb.ErrGroupNotFound) {
			return nil, fmt.Errorf("%w: group %s@%s", ErrNotFound, groupID, domainID)
		}

		return nil, err
	}

	entity := &GroupEntity{
		DomainID:    g.DomainID,
		GroupID:     g.GroupID,
		DisplayName: g.DisplayName,
	}

	members, err := m.groupMemberUserIDs(g.UserUID)
	if err != nil {
		return nil, err
	}
	entity.AssignedUsers = members

	roles, err := roledb.AssignedRoles(m.db, g.UserUID)
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		entity.AssignedRoles = append(entity.AssignedRoles, r.RoleUID)
	}

	perms, err := roledb.ListPermissions(m.db, g.UserUID)
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

// ListGroups retrieves the groups of a domain without memberships.
func (m *Manager) ListGroups(domainID string) ([]GroupEntity, error) {
	rows, err := groupdb.ListByDomain(m.db, domainID)
	if err != nil {
		return nil, err
	}

	out := make([]GroupEntity, len(rows))
	for i, g := range rows {
		out[i] = GroupEntity{
			DomainID:    g.DomainID,
			GroupID:     g.GroupID,
			DisplayName: g.DisplayName,
		}
	}

	return out, nil
}

// AddGroup creates a group with its members, role grants and own-UID
// permissions in one transaction, then records its identity in the cache.
func (m *Manager) AddGroup(entity *GroupEntity) (*GroupEntity, error) {
	if err := m.validateEntity(entity); err != nil {
		return nil, err
	}

	memberUIDs, err := m.userUIDsOf(entity.DomainID, entity.AssignedUsers)
	if err != nil {
		return nil, err
	}

	groupUID := uuid.NewString()
	pid := NewProfileID(entity.DomainID, entity.GroupID)

	err = m.db.Transaction(func(tx *gorm.DB) error {
		row := models.Group{
			DomainID:    entity.DomainID,
			GroupID:     entity.GroupID,
			Enabled:     true,
			UserUID:     groupUID,
			DisplayName: entity.DisplayName,
		}
		if errTx := groupdb.Insert(tx, &row); errTx != nil {
			if errors.Is(errTx, groupdb.ErrGroupAlreadyExists) {
				return fmt.Errorf("%w: group %s", ErrAlreadyExists, pid)
			}

			return errTx
		}

		for _, memberUID := range memberUIDs {
			if _, errTx := userdb.InsertAssociation(tx, memberUID, groupUID); errTx != nil {
				return errTx
			}
		}

		for _, roleUID := range entity.AssignedRoles {
			if _, errTx := roledb.InsertAssociation(tx, groupUID, roleUID); errTx != nil {
				return errTx
			}
		}

		return insertPermissions(tx, groupUID, entity.Permissions)
	})
	if err != nil {
		return nil, err
	}

	m.groups.put(pid, groupUID)

	m.audit(entity.DomainID, "", "group.create", entity.GroupID)

	log.Info().Str("group", pid.String()).Msg("group created")

	return entity, nil
}

// UpdateGroup rewrites a group's display name and reconciles its members,
// role grants and permissions against the stored state.
func (m *Manager) UpdateGroup(entity *GroupEntity) error {
	if err := m.validateEntity(entity); err != nil {
		return err
	}

	pid := NewProfileID(entity.DomainID, entity.GroupID)
	groupUID, err := m.groups.uid(pid)
	if err != nil {
		return err
	}

	current, err := m.GetGroupEntity(entity.DomainID, entity.GroupID)
	if err != nil {
		return err
	}

	memberChanges := Changes(current.AssignedUsers, entity.AssignedUsers,
		func(u string) string { return u })
	roleChanges := Changes(current.AssignedRoles, entity.AssignedRoles,
		func(r string) string { return r })
	permChanges := Changes(current.Permissions, entity.Permissions, keyOfPermission)

	insertedMemberUIDs, err := m.userUIDsOf(entity.DomainID, memberChanges.Inserted)
	if err != nil {
		return err
	}
	deletedMemberUIDs, err := m.userUIDsOf(entity.DomainID, memberChanges.Deleted)
	if err != nil {
		return err
	}

	err = m.db.Transaction(func(tx *gorm.DB) error {
		if errTx := groupdb.UpdateDisplayName(tx, entity.DomainID, entity.GroupID,
			entity.DisplayName); errTx != nil {
			return errTx
		}

		for _, memberUID := range deletedMemberUIDs {
			if errTx := deleteAssociation(tx, memberUID, groupUID); errTx != nil {
				return errTx
			}
		}
		for _, memberUID := range insertedMemberUIDs {
			if _, errTx := userdb.InsertAssociation(tx, memberUID, groupUID); errTx != nil {
				return errTx
			}
		}

		for _, roleUID := range roleChanges.Deleted {
			if errTx := deleteRoleGrant(tx, groupUID, roleUID); errTx != nil {
				return errTx
			}
		}
		for _, roleUID := range roleChanges.Inserted {
			if _, errTx := roledb.InsertAssociation(tx, groupUID, roleUID); errTx != nil {
				return errTx
			}
		}

		for _, p := range permChanges.Deleted {
			row := models.RolePermission{
				RoleUID:   groupUID,
				ServiceID: p.ServiceID,
				Key:       p.Key,
				Action:    p.Action,
				Instance:  p.Instance,
			}
			if errTx := roledb.DeletePermission(tx, &row); errTx != nil {
				return errTx
			}
		}

		return insertPermissions(tx, groupUID, permChanges.Inserted)
	})
	if err != nil {
		if errors.Is(err, groupdb.ErrGroupNotFound) {
			return fmt.Errorf("%w: group %s", ErrNotFound, pid)
		}

		return err
	}

	m.audit(entity.DomainID, "", "group.update", entity.GroupID)

	log.Info().Str("group", pid.String()).Msg("group updated")

	return nil
}

// DeleteGroup removes a group with its memberships, role grants and own-UID
// permissions. The built-in groups are refused.
func (m *Manager) DeleteGroup(domainID, groupID string) error {
	if groupID == models.GroupIDAdmins || groupID == models.GroupIDUsers {
		return fmt.Errorf("%w: %s", ErrReservedGroup, groupID)
	}

	pid := NewProfileID(domainID, groupID)
	groupUID, err := m.groups.uid(pid)
	if err != nil {
		return err
	}

	err = m.db.Transaction(func(tx *gorm.DB) error {
		if errTx := userdb.DeleteAssociationsByGroup(tx, groupUID); errTx != nil {
			return errTx
		}
		if errTx := roledb.DeleteAssociationsBySubject(tx, groupUID); errTx != nil {
			return errTx
		}
		if errTx := roledb.DeletePermissionsByRole(tx, groupUID); errTx != nil {
			return errTx
		}

		return groupdb.Delete(tx, domainID, groupID)
	})
	if err != nil {
		if errors.Is(err, groupdb.ErrGroupNotFound) {
			return fmt.Errorf("%w: group %s", ErrNotFound, pid)
		}

		return err
	}

	m.groups.removeByProfile(pid)

	m.audit(domainID, "", "group.delete", groupID)

	log.Info().Str("group", pid.String()).Msg("group deleted")

	return nil
}

// groupMemberUserIDs lists the user IDs holding a membership in the group.
func (m *Manager) groupMemberUserIDs(groupUID string) ([]string, error) {
	var rows []struct {
		UserUID string
	}
	err := m.db.Model(&models.UserAssociation{}).
		Select("user_uid").
		Where("group_uid = ?", groupUID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	var out []string
	for _, row := range rows {
		pid, errProfile := m.users.profile(row.UserUID)
		if errProfile != nil {
			// Membership of a nested group; it is not a user member.
			continue
		}
		out = append(out, pid.UserID)
	}

	return out, nil
}

// userUIDsOf maps user IDs to UIDs through the user cache.
func (m *Manager) userUIDsOf(domainID string, userIDs []string) ([]string, error) {
	uids := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		uid, err := m.users.uid(NewProfileID(domainID, userID))
		if err != nil {
			return nil, err
		}
		uids = append(uids, uid)
	}

	return uids, nil
}
