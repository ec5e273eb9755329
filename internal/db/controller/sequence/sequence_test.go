package sequence

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

	err = db.AutoMigrate(&models.Sequence{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func TestNext(t *testing.T) {
	db := setupTestDB(t)

	// First use creates the counter at 1.
	v, err := Next(db, models.SequenceUserAssociations)
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)

	// Subsequent calls increment.
	v, err = Next(db, models.SequenceUserAssociations)
	require.NoError(t, err)
	assert.EqualValues(t, 2, v)

	// Sequences are independent.
	v, err = Next(db, models.SequenceRolePermissions)
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)
}

func TestNextIncrementsStoredCounter(t *testing.T) {
	db := setupTestDB(t)

	var last int64
	for range 5 {
		v, err := Next(db, models.SequenceRoleAssociations)
		require.NoError(t, err)
		assert.Equal(t, last+1, v, "values must be allocated gaplessly")
		last = v
	}

	// The counter lives in the database row, not in process memory.
	var seq models.Sequence
	require.NoError(t, db.Where("name = ?", models.SequenceRoleAssociations).First(&seq).Error)
	assert.Equal(t, last, seq.Value)
}

func TestNextValidation(t *testing.T) {
	db := setupTestDB(t)

	_, err := Next(nil, "x")
	assert.ErrorIs(t, err, ErrDBNil)

	_, err = Next(db, "")
	assert.ErrorIs(t, err, ErrNameEmpty)
}
