package directory

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tenantcore/tenantcore/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.LocalEntry{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func localOpts() *Options {
	return &Options{
		DomainID:       "acme",
		URI:            "local://acme",
		PasswordPolicy: true,
	}
}

func TestRegistryByKind(t *testing.T) {
	r := NewRegistry(nil)

	testCases := []struct {
		name     string
		kind     Kind
		expected Kind
	}{
		{name: "local", kind: KindLocal, expected: KindLocal},
		{name: "ldap", kind: KindLDAP, expected: KindLDAP},
		{name: "ad", kind: KindAD, expected: KindAD},
		{name: "imap", kind: KindIMAP, expected: KindIMAP},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := r.ByKind(tc.kind)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, d.Kind())
		})
	}

	_, err := r.ByKind(Kind("bogus"))
	assert.ErrorIs(t, err, ErrKindUnknown)
}

func TestRegistryByURI(t *testing.T) {
	r := NewRegistry(nil)

	d, err := r.ByURI("local://acme")
	require.NoError(t, err)
	assert.Equal(t, KindLocal, d.Kind())

	_, err = r.ByURI("bogus://acme")
	assert.ErrorIs(t, err, ErrKindUnknown)
}

func TestLocalDirectoryLifecycle(t *testing.T) {
	db := setupTestDB(t)
	d, err := NewRegistry(db).ByKind(KindLocal)
	require.NoError(t, err)

	opts := localOpts()

	assert.True(t, Has(d, CapUsersRead))
	assert.True(t, Has(d, CapUsersWrite))
	assert.True(t, Has(d, CapPasswordWrite))

	err = d.AddUser(opts, &AuthUser{UserID: "Alice"}, "Secret123")
	require.NoError(t, err)

	// Duplicate entries are reported, case-insensitively.
	err = d.AddUser(opts, &AuthUser{UserID: "alice"}, "Secret123")
	assert.ErrorIs(t, err, ErrEntryExists)

	users, err := d.ListUsers(opts)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].UserID)

	auth, ok := d.(Authenticator)
	require.True(t, ok)
	require.NoError(t, auth.CheckPassword(opts, "alice", "Secret123"))
	assert.ErrorIs(t, auth.CheckPassword(opts, "alice", "Wrong1234"), ErrBadCredentials)
	assert.ErrorIs(t, auth.CheckPassword(opts, "ghost", "Secret123"), ErrBadCredentials)

	require.NoError(t, d.UpdateUserPassword(opts, "alice", "Fresh1234"))
	require.NoError(t, auth.CheckPassword(opts, "alice", "Fresh1234"))

	require.NoError(t, d.DeleteUser(opts, "alice"))
	assert.ErrorIs(t, d.DeleteUser(opts, "alice"), ErrEntryNotFound)
}

func TestLocalDirectoryPasswordPolicy(t *testing.T) {
	db := setupTestDB(t)
	d, err := NewRegistry(db).ByKind(KindLocal)
	require.NoError(t, err)

	opts := localOpts()

	err = d.AddUser(opts, &AuthUser{UserID: "alice"}, "weak")
	assert.ErrorIs(t, err, ErrWeakPassword)

	// Without the policy flag anything goes.
	opts.PasswordPolicy = false
	require.NoError(t, d.AddUser(opts, &AuthUser{UserID: "alice"}, "weak"))

	err = d.UpdateUserPassword(opts, "alice", "x")
	assert.NoError(t, err)
}

func TestPassiveDirectory(t *testing.T) {
	d, err := NewRegistry(nil).ByKind(KindSMB)
	require.NoError(t, err)

	assert.Empty(t, d.Capabilities())
	assert.NoError(t, d.ValidateUsername(nil, "alice"))

	_, err = d.ListUsers(localOpts())
	assert.ErrorIs(t, err, ErrCapabilityUnsupported)
	assert.ErrorIs(t, d.AddUser(localOpts(), &AuthUser{UserID: "a"}, "x"), ErrCapabilityUnsupported)
	assert.ErrorIs(t, d.DeleteUser(localOpts(), "a"), ErrCapabilityUnsupported)
	assert.ErrorIs(t, d.UpdateUserPassword(localOpts(), "a", "x"), ErrCapabilityUnsupported)
}

func TestLDAPDirectoryProfiles(t *testing.T) {
	r := NewRegistry(nil)

	ldapDir, err := r.ByKind(KindLDAP)
	require.NoError(t, err)
	assert.True(t, Has(ldapDir, CapUsersWrite))

	adDir, err := r.ByKind(KindAD)
	require.NoError(t, err)
	assert.True(t, Has(adDir, CapUsersRead))
	assert.False(t, Has(adDir, CapUsersWrite))

	// Read-only profiles refuse writes before dialing anything.
	assert.ErrorIs(t, adDir.AddUser(localOpts(), &AuthUser{UserID: "a"}, "Secret123"),
		ErrCapabilityUnsupported)
	assert.ErrorIs(t, adDir.UpdateUserPassword(localOpts(), "a", "Secret123"),
		ErrCapabilityUnsupported)
}
