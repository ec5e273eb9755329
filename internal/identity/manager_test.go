package identity

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	userdb "github.com/tenantcore/tenantcore/internal/db/controller/user"
	"github.com/tenantcore/tenantcore/internal/db/models"
	"github.com/tenantcore/tenantcore/internal/directory"
	"github.com/tenantcore/tenantcore/internal/settings"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(
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
	)
	require.NoError(t, err, "failed to migrate test database")

	return db
}

// newTestManager builds an initialized Manager over a fresh database.
func newTestManager(t *testing.T) (*Manager, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)

	svc, err := settings.New(db, "en-US", "UTC")
	require.NoError(t, err)

	m, err := New(db, svc, directory.NewRegistry(db))
	require.NoError(t, err)
	require.NoError(t, m.Init())

	return m, db
}

func testDomain(domainID string) *DomainEntity {
	return &DomainEntity{
		DomainID:          domainID,
		Enabled:           true,
		DirURI:            "local://" + domainID,
		DirPasswordPolicy: true,
	}
}

// addTestDomain creates a domain together with its built-in groups.
func addTestDomain(t *testing.T, m *Manager, domainID string) {
	t.Helper()

	_, err := m.AddDomain(testDomain(domainID))
	require.NoError(t, err)
	require.NoError(t, m.InitDomainWithDefaults(domainID, "Changeme1"))
}

func strPtr(s string) *string {
	return &s
}

func TestNewRequiresDB(t *testing.T) {
	_, err := New(nil, nil, nil)
	assert.ErrorIs(t, err, ErrDBNil)
}

func TestAddDomainBlanksInapplicableFields(t *testing.T) {
	m, _ := newTestManager(t)

	entity := testDomain("acme")
	entity.DirUsername = "cn=admin"
	entity.DirPassword = "secret"
	entity.DirConnSecurity = "ssl"

	created, err := m.AddDomain(entity)
	require.NoError(t, err)

	// The local kind carries no connection security or admin credentials.
	assert.Empty(t, created.DirUsername)
	assert.Empty(t, created.DirPassword)
	assert.Empty(t, created.DirConnSecurity)
	assert.True(t, created.DirPasswordPolicy)

	stored, err := m.GetDomain("acme")
	require.NoError(t, err)
	assert.Empty(t, stored.DirUsername)
}

func TestAddDomainDuplicate(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.AddDomain(testDomain("acme"))
	require.NoError(t, err)

	_, err = m.AddDomain(testDomain("acme"))
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestAddDomainValidation(t *testing.T) {
	m, _ := newTestManager(t)

	testCases := []struct {
		name   string
		entity *DomainEntity
	}{
		{
			name:   "missing domain id",
			entity: &DomainEntity{DirURI: "local://x"},
		},
		{
			name:   "missing directory uri",
			entity: &DomainEntity{DomainID: "acme"},
		},
		{
			name:   "unknown directory kind",
			entity: &DomainEntity{DomainID: "acme", DirURI: "carrierpigeon://x"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.AddDomain(tc.entity)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestInitDomainWithDefaults(t *testing.T) {
	m, _ := newTestManager(t)
	addTestDomain(t, m, "acme")

	groups, err := m.ListGroups("acme")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, models.GroupIDAdmins, groups[0].GroupID)
	assert.Equal(t, models.GroupIDUsers, groups[1].GroupID)

	admin, err := m.GetUserEntity(NewProfileID("acme", DefaultAdminUserID))
	require.NoError(t, err)
	assert.True(t, admin.Enabled)
	assert.Equal(t, []string{models.GroupIDAdmins}, admin.AssignedGroups)
	require.Len(t, admin.Permissions, 1)
	assert.Equal(t, "ADMIN", admin.Permissions[0].Key)

	// Seeding twice is benign.
	require.NoError(t, m.InitDomainWithDefaults("acme", "Changeme1"))
}

func TestAddUserRecordsIdentity(t *testing.T) {
	m, _ := newTestManager(t)
	addTestDomain(t, m, "acme")

	_, err := m.AddUser(true, &UserEntity{
		DomainID:       "acme",
		UserID:         "Alice",
		Enabled:        true,
		DisplayName:    "Alice Smith",
		FirstName:      "Alice",
		LastName:       "Smith",
		Email:          "alice@acme.example",
		AssignedGroups: []string{models.GroupIDUsers},
	}, strPtr("Secret123"))
	require.NoError(t, err)

	// The local backend is case-insensitive; the stored ID is lowercase.
	pid := NewProfileID("acme", "alice")
	uid, err := m.UserUID(pid)
	require.NoError(t, err)
	assert.NotEmpty(t, uid)

	back, err := m.UserProfile(uid)
	require.NoError(t, err)
	assert.Equal(t, pid, back)

	entity, err := m.GetUserEntity(pid)
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", entity.DisplayName)
	assert.Equal(t, "Smith", entity.LastName)
	assert.Equal(t, []string{models.GroupIDUsers}, entity.AssignedGroups)

	require.NoError(t, m.AuthenticateUser(pid, "Secret123"))
	assert.ErrorIs(t, m.AuthenticateUser(pid, "WrongPass1"), directory.ErrBadCredentials)
}

func TestAddUserDuplicate(t *testing.T) {
	m, _ := newTestManager(t)
	addTestDomain(t, m, "acme")

	entity := &UserEntity{DomainID: "acme", UserID: "alice", Enabled: true}
	_, err := m.AddUser(false, entity, nil)
	require.NoError(t, err)

	_, err = m.AddUser(false, entity, nil)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestAddUserWeakPasswordRejected(t *testing.T) {
	m, _ := newTestManager(t)
	addTestDomain(t, m, "acme")

	_, err := m.AddUser(true, &UserEntity{
		DomainID: "acme",
		UserID:   "alice",
		Enabled:  true,
	}, strPtr("weak"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAddUserGeneratesPassword(t *testing.T) {
	m, db := newTestManager(t)
	addTestDomain(t, m, "acme")

	_, err := m.AddUser(true, &UserEntity{
		DomainID: "acme",
		UserID:   "alice",
		Enabled:  true,
	}, nil)
	require.NoError(t, err)

	// A credential row exists even though no password was supplied.
	var count int64
	require.NoError(t, db.Model(&models.LocalEntry{}).
		Where("domain_id = ? AND user_id = ?", "acme", "alice").
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAddUserSecretFollowsOTPFlag(t *testing.T) {
	m, db := newTestManager(t)
	addTestDomain(t, m, "acme")

	_, err := m.AddUser(false, &UserEntity{DomainID: "acme", UserID: "alice", Enabled: true}, nil)
	require.NoError(t, err)

	u, err := userdb.Get(db, "acme", "alice")
	require.NoError(t, err)
	assert.Empty(t, u.Secret, "no secret is minted while enrollment is off")

	require.NoError(t, m.settings.SetOTPEnabled("acme", true))

	_, err = m.AddUser(false, &UserEntity{DomainID: "acme", UserID: "bob", Enabled: true}, nil)
	require.NoError(t, err)

	u, err = userdb.Get(db, "acme", "bob")
	require.NoError(t, err)
	assert.NotEmpty(t, u.Secret)
}

func TestPasswordPolicyFromSettings(t *testing.T) {
	m, _ := newTestManager(t)

	entity := testDomain("acme")
	entity.DirPasswordPolicy = false
	_, err := m.AddDomain(entity)
	require.NoError(t, err)
	require.NoError(t, m.InitDomainWithDefaults("acme", "Changeme1"))

	// With neither the domain flag nor the setting, weak passwords pass.
	_, err = m.AddUser(true, &UserEntity{DomainID: "acme", UserID: "alice", Enabled: true},
		strPtr("weak"))
	require.NoError(t, err)

	require.NoError(t, m.settings.SetPasswordPolicy("acme", true))

	_, err = m.AddUser(true, &UserEntity{DomainID: "acme", UserID: "bob", Enabled: true},
		strPtr("weak"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCheckUser(t *testing.T) {
	m, _ := newTestManager(t)
	addTestDomain(t, m, "acme")

	_, err := m.AddUser(false, &UserEntity{DomainID: "acme", UserID: "alice", Enabled: true}, nil)
	require.NoError(t, err)

	ok, err := m.CheckUser(NewProfileID("acme", "alice"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.CheckUser(NewProfileID("acme", "ghost"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.UpdateUserEnabled(NewProfileID("acme", "alice"), false))

	ok, err = m.CheckUser(NewProfileID("acme", "alice"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.CheckUser(NewProfileID("ghostdomain", "alice"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateUserDiff(t *testing.T) {
	m, db := newTestManager(t)
	addTestDomain(t, m, "acme")

	editor, err := m.AddRole(&RoleEntity{DomainID: "acme", Name: "editor"})
	require.NoError(t, err)
	reviewer, err := m.AddRole(&RoleEntity{DomainID: "acme", Name: "reviewer"})
	require.NoError(t, err)

	_, err = m.AddUser(false, &UserEntity{
		DomainID:       "acme",
		UserID:         "alice",
		Enabled:        true,
		AssignedGroups: []string{models.GroupIDUsers},
		AssignedRoles:  []string{editor.RoleUID},
		Permissions: []Permission{
			{ServiceID: "mail", Key: "INBOX", Action: "READ", Instance: "*"},
		},
	}, nil)
	require.NoError(t, err)

	pid := NewProfileID("acme", "alice")
	err = m.UpdateUser(&UserEntity{
		DomainID:       "acme",
		UserID:         "alice",
		Enabled:        true,
		DisplayName:    "Alice",
		AssignedGroups: []string{models.GroupIDAdmins},
		AssignedRoles:  []string{reviewer.RoleUID},
		Permissions: []Permission{
			{ServiceID: "mail", Key: "INBOX", Action: "UPDATE", Instance: "*"},
		},
	})
	require.NoError(t, err)

	entity, err := m.GetUserEntity(pid)
	require.NoError(t, err)
	assert.Equal(t, "Alice", entity.DisplayName)
	assert.Equal(t, []string{models.GroupIDAdmins}, entity.AssignedGroups)
	assert.Equal(t, []string{reviewer.RoleUID}, entity.AssignedRoles)
	require.Len(t, entity.Permissions, 1)
	assert.Equal(t, "UPDATE", entity.Permissions[0].Action)

	// The replaced membership row is gone, not just superseded.
	uid, err := m.UserUID(pid)
	require.NoError(t, err)
	var count int64
	require.NoError(t, db.Model(&models.UserAssociation{}).
		Where("user_uid = ?", uid).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestDeleteUser(t *testing.T) {
	m, db := newTestManager(t)
	addTestDomain(t, m, "acme")

	_, err := m.AddUser(true, &UserEntity{
		DomainID:       "acme",
		UserID:         "alice",
		Enabled:        true,
		AssignedGroups: []string{models.GroupIDUsers},
	}, strPtr("Secret123"))
	require.NoError(t, err)

	pid := NewProfileID("acme", "alice")
	require.NoError(t, m.DeleteUser(pid, true))

	_, err = m.UserUID(pid)
	assert.ErrorIs(t, err, ErrCacheMiss)

	_, err = userdb.Get(db, "acme", "alice")
	assert.ErrorIs(t, err, userdb.ErrUserNotFound)

	var count int64
	require.NoError(t, db.Model(&models.LocalEntry{}).
		Where("domain_id = ?", "acme").Count(&count).Error)
	assert.EqualValues(t, 1, count, "only the seeded admin credential remains")

	assert.ErrorIs(t, m.DeleteUser(pid, false), ErrCacheMiss)
}

func TestDeleteDomainCascade(t *testing.T) {
	m, db := newTestManager(t)
	addTestDomain(t, m, "acme")
	addTestDomain(t, m, "other")

	role, err := m.AddRole(&RoleEntity{
		DomainID: "acme",
		Name:     "editor",
		Permissions: []Permission{
			{ServiceID: "mail", Key: "INBOX", Action: "READ", Instance: "*"},
		},
	})
	require.NoError(t, err)

	_, err = m.AddUser(false, &UserEntity{
		DomainID:       "acme",
		UserID:         "alice",
		Enabled:        true,
		AssignedGroups: []string{models.GroupIDUsers},
		AssignedRoles:  []string{role.RoleUID},
	}, nil)
	require.NoError(t, err)

	adminUID, err := m.UserUID(NewProfileID("acme", DefaultAdminUserID))
	require.NoError(t, err)

	require.NoError(t, m.DeleteDomain("acme", true))

	_, err = m.GetDomain("acme")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.UserUID(NewProfileID("acme", "alice"))
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = m.GroupUID("acme", models.GroupIDUsers)
	assert.ErrorIs(t, err, ErrCacheMiss)

	for name, model := range map[string]interface{}{
		"users":           &models.User{},
		"user info":       &models.UserInfo{},
		"groups":          &models.Group{},
		"roles":           &models.Role{},
		"local entries":   &models.LocalEntry{},
		"domain settings": &models.DomainSetting{},
		"user settings":   &models.UserSetting{},
	} {
		var count int64
		require.NoError(t, db.Model(model).Where("domain_id = ?", "acme").Count(&count).Error)
		assert.Zero(t, count, "%s of the deleted domain must be gone", name)
	}

	// Association and permission rows of the deleted domain are gone too;
	// only the surviving domain's rows remain.
	var assocCount int64
	require.NoError(t, db.Model(&models.UserAssociation{}).Count(&assocCount).Error)
	assert.EqualValues(t, 1, assocCount, "only other/admin membership remains")

	// Permission rows held through principal UIDs die with their owners.
	var permCount int64
	require.NoError(t, db.Model(&models.RolePermission{}).
		Where("role_uid = ?", adminUID).Count(&permCount).Error)
	assert.Zero(t, permCount, "own-UID permissions of deleted principals must be gone")

	require.NoError(t, db.Model(&models.RolePermission{}).Count(&permCount).Error)
	assert.EqualValues(t, 1, permCount, "only the surviving admin's permission remains")

	var grantCount int64
	require.NoError(t, db.Model(&models.RoleAssociation{}).Count(&grantCount).Error)
	assert.Zero(t, grantCount, "role grants of deleted principals must be gone")

	// The surviving domain still resolves.
	_, err = m.UserUID(NewProfileID("other", DefaultAdminUserID))
	assert.NoError(t, err)
}

func TestInternetUserID(t *testing.T) {
	m, _ := newTestManager(t)

	entity := testDomain("acme")
	entity.InternetName = "acme.example.com"
	_, err := m.AddDomain(entity)
	require.NoError(t, err)

	addr, err := m.InternetUserID(NewProfileID("acme", "alice"))
	require.NoError(t, err)
	assert.Equal(t, "alice@acme.example.com", addr)

	_, err = m.AddDomain(testDomain("bare"))
	require.NoError(t, err)

	addr, err = m.InternetUserID(NewProfileID("bare", "bob"))
	require.NoError(t, err)
	assert.Equal(t, "bob@bare", addr)
}

func TestUserData(t *testing.T) {
	m, _ := newTestManager(t)
	addTestDomain(t, m, "acme")

	_, err := m.AddUser(false, &UserEntity{
		DomainID:    "acme",
		UserID:      "alice",
		Enabled:     true,
		DisplayName: "Alice Smith",
		Email:       "alice@acme.example",
	}, nil)
	require.NoError(t, err)

	pid := NewProfileID("acme", "alice")
	data, err := m.UserData(pid)
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", data.DisplayName)
	assert.Equal(t, "alice@acme.example", data.Email)
	assert.Equal(t, "en-US", data.LanguageTag)
	assert.Equal(t, "UTC", data.Timezone)

	// Served from cache until invalidated by a mutation.
	require.NoError(t, m.UpdateUserDisplayName(pid, "A. Smith"))

	data, err = m.UserData(pid)
	require.NoError(t, err)
	assert.Equal(t, "A. Smith", data.DisplayName)
}

func TestUserPersonalInfo(t *testing.T) {
	m, _ := newTestManager(t)
	addTestDomain(t, m, "acme")

	_, err := m.AddUser(false, &UserEntity{
		DomainID:  "acme",
		UserID:    "alice",
		Enabled:   true,
		FirstName: "Alice",
		LastName:  "Smith",
	}, nil)
	require.NoError(t, err)

	pid := NewProfileID("acme", "alice")
	info, err := m.UserPersonalInfo(pid)
	require.NoError(t, err)
	assert.Equal(t, "Alice", info.FirstName)

	update := *info
	update.City = "Turin"
	require.NoError(t, m.UpdateUserPersonalInfo(pid, &update))

	info, err = m.UserPersonalInfo(pid)
	require.NoError(t, err)
	assert.Equal(t, "Turin", info.City)
}

func TestUpdateUserPassword(t *testing.T) {
	m, _ := newTestManager(t)
	addTestDomain(t, m, "acme")

	pid := NewProfileID("acme", "alice")
	_, err := m.AddUser(true, &UserEntity{
		DomainID: "acme",
		UserID:   "alice",
		Enabled:  true,
	}, strPtr("Secret123"))
	require.NoError(t, err)

	// Wrong old password is refused.
	err = m.UpdateUserPassword(pid, strPtr("Nope12345"), strPtr("Fresh1234"))
	assert.ErrorIs(t, err, directory.ErrBadCredentials)

	require.NoError(t, m.UpdateUserPassword(pid, strPtr("Secret123"), strPtr("Fresh1234")))
	require.NoError(t, m.AuthenticateUser(pid, "Fresh1234"))
}
