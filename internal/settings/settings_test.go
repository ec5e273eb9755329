package settings

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

	err = db.AutoMigrate(&models.DomainSetting{}, &models.UserSetting{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)
	svc, err := New(db, "en-US", "UTC")
	require.NoError(t, err)

	return svc, db
}

func TestNewValidation(t *testing.T) {
	db := setupTestDB(t)

	_, err := New(nil, "en-US", "UTC")
	assert.ErrorIs(t, err, ErrDBNil)

	_, err = New(db, "not a tag", "UTC")
	assert.ErrorIs(t, err, ErrBadLanguageTag)

	_, err = New(db, "", "")
	assert.NoError(t, err)
}

func TestLanguageTagLayering(t *testing.T) {
	svc, _ := newTestService(t)

	// No rows anywhere: configured fallback.
	tag, err := svc.LanguageTag("acme", "alice")
	require.NoError(t, err)
	assert.Equal(t, "en-US", tag)

	// Domain row overrides the fallback.
	require.NoError(t, svc.SetDomainDefaults("acme", "it-IT", "Europe/Rome"))

	tag, err = svc.LanguageTag("acme", "alice")
	require.NoError(t, err)
	assert.Equal(t, "it-IT", tag)

	// User row overrides the domain row.
	require.NoError(t, svc.SetUserLanguageTag("acme", "alice", "de-DE"))

	tag, err = svc.LanguageTag("acme", "alice")
	require.NoError(t, err)
	assert.Equal(t, "de-DE", tag)

	// Other users still see the domain row.
	tag, err = svc.LanguageTag("acme", "bob")
	require.NoError(t, err)
	assert.Equal(t, "it-IT", tag)
}

func TestSetUserLanguageTagRejectsBadTag(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.SetUserLanguageTag("acme", "alice", "!!!")
	assert.ErrorIs(t, err, ErrBadLanguageTag)
}

func TestTimezoneLayering(t *testing.T) {
	svc, _ := newTestService(t)

	tz, err := svc.Timezone("acme", "alice")
	require.NoError(t, err)
	assert.Equal(t, "UTC", tz)

	require.NoError(t, svc.SetUserTimezone("acme", "alice", "Europe/Rome"))

	tz, err = svc.Timezone("acme", "alice")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Rome", tz)
}

func TestOTPEnabled(t *testing.T) {
	svc, _ := newTestService(t)

	enabled, err := svc.OTPEnabled("acme")
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, svc.SetOTPEnabled("acme", true))

	enabled, err = svc.OTPEnabled("acme")
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestPasswordPolicy(t *testing.T) {
	svc, _ := newTestService(t)

	enabled, err := svc.PasswordPolicy("acme")
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, svc.SetPasswordPolicy("acme", true))

	enabled, err = svc.PasswordPolicy("acme")
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestClearDomainAndUser(t *testing.T) {
	svc, db := newTestService(t)

	require.NoError(t, svc.SetDomainDefaults("acme", "it-IT", "Europe/Rome"))
	require.NoError(t, svc.SetUserLanguageTag("acme", "alice", "de-DE"))
	require.NoError(t, svc.SetUserTimezone("acme", "bob", "Europe/Rome"))

	require.NoError(t, svc.ClearUser("acme", "alice"))

	var count int64
	require.NoError(t, db.Model(&models.UserSetting{}).
		Where("domain_id = ? AND user_id = ?", "acme", "alice").Count(&count).Error)
	assert.Zero(t, count)

	require.NoError(t, svc.ClearDomain("acme"))

	require.NoError(t, db.Model(&models.UserSetting{}).Where("domain_id = ?", "acme").
		Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.DomainSetting{}).Where("domain_id = ?", "acme").
		Count(&count).Error)
	assert.Zero(t, count)
}
