// Package sequence provides explicit ID allocation from named counter rows.
// Association and permission tables use externally-assigned integer primary
// keys, requested inside the owning transaction, instead of auto-increment.
package sequence

import (
	"errors"

	"gorm.io/gorm"

	"github.com/tenantcore/tenantcore/internal/db/models"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrNameEmpty is returned when requesting a sequence without a name.
	ErrNameEmpty = errors.New("sequence name cannot be empty")
)

// Next allocates the next value of the named sequence.
// The counter row is created on first use. Callers are expected to pass the
// transaction handle of the surrounding mutation so the allocation commits
// or rolls back with it.
func Next(tx *gorm.DB, name string) (int64, error) {
	if tx == nil {
		return 0, ErrDBNil
	}
	if name == "" {
		return 0, ErrNameEmpty
	}

	// The in-place increment takes the row lock, so concurrent transactions
	// serialize on the counter instead of reading the same value.
	result := tx.Model(&models.Sequence{}).Where("name = ?", name).
		UpdateColumn("value", gorm.Expr("value + ?", 1))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		seq := models.Sequence{Name: name, Value: 1}
		if err := tx.Create(&seq).Error; err != nil {
			return 0, err
		}

		return seq.Value, nil
	}

	var seq models.Sequence
	if err := tx.Where("name = ?", name).First(&seq).Error; err != nil {
		return 0, err
	}

	return seq.Value, nil
}
