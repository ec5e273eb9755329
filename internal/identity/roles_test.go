package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	userdb "github.com/tenantcore/tenantcore/internal/db/controller/user"
	"github.com/tenantcore/tenantcore/internal/db/models"
)

func TestComputedRolesSelfFirst(t *testing.T) {
	m, _ := newTestManager(t)
	addTestDomain(t, m, "acme")

	_, err := m.AddUser(false, &UserEntity{DomainID: "acme", UserID: "alice", Enabled: true}, nil)
	require.NoError(t, err)

	pid := NewProfileID("acme", "alice")
	uid, err := m.UserUID(pid)
	require.NoError(t, err)

	roles, err := m.ComputedRolesByUser(pid, true, true)
	require.NoError(t, err)
	require.NotEmpty(t, roles)

	assert.Equal(t, RoleSourceSelf, roles[0].Source)
	assert.Equal(t, uid, roles[0].RoleUID)
	assert.Equal(t, "alice", roles[0].Name)
}

func TestComputedRolesGroupBeatsDirect(t *testing.T) {
	m, _ := newTestManager(t)
	addTestDomain(t, m, "acme")

	editor, err := m.AddRole(&RoleEntity{DomainID: "acme", Name: "editor"})
	require.NoError(t, err)

	_, err = m.AddGroup(&GroupEntity{
		DomainID:      "acme",
		GroupID:       "staff",
		AssignedRoles: []string{editor.RoleUID},
	})
	require.NoError(t, err)

	// The same role reaches alice through the group and directly.
	_, err = m.AddUser(false, &UserEntity{
		DomainID:       "acme",
		UserID:         "alice",
		Enabled:        true,
		AssignedGroups: []string{"staff"},
		AssignedRoles:  []string{editor.RoleUID},
	}, nil)
	require.NoError(t, err)

	roles, err := m.ComputedRolesByUser(NewProfileID("acme", "alice"), true, true)
	require.NoError(t, err)

	var hits []RoleWithSource
	for _, r := range roles {
		if r.RoleUID == editor.RoleUID {
			hits = append(hits, r)
		}
	}
	require.Len(t, hits, 1, "role must be reported once")
	assert.Equal(t, RoleSourceGroup, hits[0].Source)
}

func TestComputedRolesDirect(t *testing.T) {
	m, _ := newTestManager(t)
	addTestDomain(t, m, "acme")

	editor, err := m.AddRole(&RoleEntity{DomainID: "acme", Name: "editor"})
	require.NoError(t, err)

	_, err = m.AddUser(false, &UserEntity{
		DomainID:      "acme",
		UserID:        "alice",
		Enabled:       true,
		AssignedRoles: []string{editor.RoleUID},
	}, nil)
	require.NoError(t, err)

	roles, err := m.ComputedRolesByUser(NewProfileID("acme", "alice"), true, true)
	require.NoError(t, err)

	found := false
	for _, r := range roles {
		if r.RoleUID == editor.RoleUID {
			found = true
			assert.Equal(t, RoleSourceDirect, r.Source)
			assert.Equal(t, "editor", r.Name)
		}
	}
	assert.True(t, found)
}

func TestComputedRolesTransitive(t *testing.T) {
	m, db := newTestManager(t)
	addTestDomain(t, m, "acme")

	editor, err := m.AddRole(&RoleEntity{DomainID: "acme", Name: "editor"})
	require.NoError(t, err)

	_, err = m.AddGroup(&GroupEntity{DomainID: "acme", GroupID: "inner"})
	require.NoError(t, err)
	_, err = m.AddGroup(&GroupEntity{
		DomainID:      "acme",
		GroupID:       "outer",
		AssignedRoles: []string{editor.RoleUID},
	})
	require.NoError(t, err)

	_, err = m.AddUser(false, &UserEntity{
		DomainID:       "acme",
		UserID:         "alice",
		Enabled:        true,
		AssignedGroups: []string{"inner"},
	}, nil)
	require.NoError(t, err)

	// Nest inner inside outer through the shared UID namespace.
	innerUID, err := m.GroupUID("acme", "inner")
	require.NoError(t, err)
	outerUID, err := m.GroupUID("acme", "outer")
	require.NoError(t, err)
	_, err = userdb.InsertAssociation(db, innerUID, outerUID)
	require.NoError(t, err)

	pid := NewProfileID("acme", "alice")

	roles, err := m.ComputedRolesByUser(pid, true, true)
	require.NoError(t, err)

	found := false
	for _, r := range roles {
		if r.RoleUID == editor.RoleUID {
			found = true
			assert.Equal(t, RoleSourceTransitive, r.Source)
		}
	}
	assert.True(t, found, "role granted to the outer group must reach alice")

	// Without the transitive pass the role is invisible.
	roles, err = m.ComputedRolesByUser(pid, true, false)
	require.NoError(t, err)
	for _, r := range roles {
		assert.NotEqual(t, editor.RoleUID, r.RoleUID)
	}
}

func TestComputedRolesWithoutSelf(t *testing.T) {
	m, _ := newTestManager(t)
	addTestDomain(t, m, "acme")

	editor, err := m.AddRole(&RoleEntity{DomainID: "acme", Name: "editor"})
	require.NoError(t, err)

	_, err = m.AddGroup(&GroupEntity{
		DomainID:      "acme",
		GroupID:       "staff",
		AssignedRoles: []string{editor.RoleUID},
	})
	require.NoError(t, err)

	_, err = m.AddUser(false, &UserEntity{
		DomainID:       "acme",
		UserID:         "alice",
		Enabled:        true,
		AssignedGroups: []string{"staff"},
	}, nil)
	require.NoError(t, err)

	pid := NewProfileID("acme", "alice")
	uid, err := m.UserUID(pid)
	require.NoError(t, err)

	// Group-derived roles are resolved regardless of the self flag.
	roles, err := m.ComputedRolesByUser(pid, false, false)
	require.NoError(t, err)

	var uids []string
	for _, r := range roles {
		uids = append(uids, r.RoleUID)
	}
	assert.Contains(t, uids, editor.RoleUID)
	assert.NotContains(t, uids, uid, "self role must be omitted")
}

func TestComputedRolesSelfDisplayName(t *testing.T) {
	m, _ := newTestManager(t)
	addTestDomain(t, m, "acme")

	_, err := m.AddUser(false, &UserEntity{
		DomainID:    "acme",
		UserID:      "alice",
		Enabled:     true,
		DisplayName: "Alice Smith",
	}, nil)
	require.NoError(t, err)

	roles, err := m.ComputedRolesByUser(NewProfileID("acme", "alice"), true, false)
	require.NoError(t, err)
	require.NotEmpty(t, roles)

	assert.Equal(t, RoleSourceSelf, roles[0].Source)
	assert.Equal(t, "alice", roles[0].Name)
	assert.Equal(t, "Alice Smith", roles[0].Description)
}

func TestComputedRolesUnknownUser(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.ComputedRolesByUser(NewProfileID("acme", "ghost"), true, true)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestComputedPermissionsByUser(t *testing.T) {
	m, _ := newTestManager(t)
	addTestDomain(t, m, "acme")

	role, err := m.AddRole(&RoleEntity{
		DomainID: "acme",
		Name:     "mailer",
		Permissions: []Permission{
			{ServiceID: "mail", Key: "INBOX", Action: "READ", Instance: models.InstanceWildcard},
			servicePermission("mail"),
		},
	})
	require.NoError(t, err)

	_, err = m.AddUser(false, &UserEntity{
		DomainID:      "acme",
		UserID:        "alice",
		Enabled:       true,
		AssignedRoles: []string{role.RoleUID},
	}, nil)
	require.NoError(t, err)

	perms, services, err := m.ComputedPermissionsByUser(NewProfileID("acme", "alice"))
	require.NoError(t, err)

	assert.Contains(t, perms, Permission{
		ServiceID: "mail", Key: "INBOX", Action: "READ", Instance: models.InstanceWildcard,
	})
	assert.Contains(t, services, "mail")
}
