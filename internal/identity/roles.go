package identity

import (
	"fmt"

	"github.com/tenantcore/tenantcore/internal/db/controller/role"
	userdb "github.com/tenantcore/tenantcore/internal/db/controller/user"
	"github.com/tenantcore/tenantcore/internal/db/models"
)

// ComputedRolesByUser resolves the effective role set of a user. Sources are
// visited in priority order: the synthetic self role (when includeSelf is
// set), roles reaching the user through group membership, roles granted
// directly, then roles reached through nested groups. The first source to
// yield a role UID wins; later sources never overwrite it.
func (m *Manager) ComputedRolesByUser(pid ProfileID, includeSelf, withTransitive bool) ([]RoleWithSource, error) {
	uid, err := m.users.uid(pid)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	out := make([]RoleWithSource, 0, 8)

	add := func(r RoleWithSource) {
		if _, ok := seen[r.RoleUID]; ok {
			return
		}
		seen[r.RoleUID] = struct{}{}
		out = append(out, r)
	}

	if includeSelf {
		u, errUser := userdb.Get(m.db, pid.DomainID, pid.UserID)
		if errUser != nil {
			return nil, fmt.Errorf("failed to load user row: %w", errUser)
		}
		add(RoleWithSource{
			RoleUID:     uid,
			DomainID:    pid.DomainID,
			Name:        pid.UserID,
			Description: u.DisplayName,
			Source:      RoleSourceSelf,
		})
	}

	groupRoles, errGroups := role.FromGroupsByUser(m.db, uid)
	if errGroups != nil {
		return nil, fmt.Errorf("failed to resolve group roles: %w", errGroups)
	}
	for _, r := range groupRoles {
		add(roleWithSource(r, RoleSourceGroup))
	}

	directRoles, errDirect := role.DirectByUser(m.db, uid)
	if errDirect != nil {
		return nil, fmt.Errorf("failed to resolve direct roles: %w", errDirect)
	}
	for _, r := range directRoles {
		add(roleWithSource(r, RoleSourceDirect))
	}

	if withTransitive {
		transitiveRoles, errTransitive := role.TransitiveFromGroupsByUser(m.db, uid)
		if errTransitive != nil {
			return nil, fmt.Errorf("failed to resolve transitive roles: %w", errTransitive)
		}
		for _, r := range transitiveRoles {
			add(roleWithSource(r, RoleSourceTransitive))
		}
	}

	return out, nil
}

// ComputedRoleUIDsByUser resolves the effective role set as bare UIDs.
func (m *Manager) ComputedRoleUIDsByUser(pid ProfileID, includeSelf, withTransitive bool) ([]string, error) {
	roles, err := m.ComputedRolesByUser(pid, includeSelf, withTransitive)
	if err != nil {
		return nil, err
	}

	uids := make([]string, len(roles))
	for i, r := range roles {
		uids[i] = r.RoleUID
	}

	return uids, nil
}

// ComputedPermissionsByUser resolves the effective permission set of a user:
// the permissions attached to every effective role UID, split into plain
// grants and allowed service IDs.
func (m *Manager) ComputedPermissionsByUser(pid ProfileID) ([]Permission, []string, error) {
	uids, err := m.ComputedRoleUIDsByUser(pid, true, true)
	if err != nil {
		return nil, nil, err
	}

	rows, err := role.ListPermissionsByRoles(m.db, uids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load permissions: %w", err)
	}

	perms, services := SplitPermissions(rows)

	return perms, services, nil
}

func roleWithSource(r models.Role, source string) RoleWithSource {
	return RoleWithSource{
		RoleUID:     r.RoleUID,
		DomainID:    r.DomainID,
		Name:        r.Name,
		Description: r.Description,
		Source:      source,
	}
}
