// Package local provides row-level operations on the local directory's
// credential table.
package local

import (
	"errors"

	"gorm.io/gorm"

	"github.com/tenantcore/tenantcore/internal/db/models"
)

const byDomainUser = "domain_id = ? AND user_id = ?"

var (
	// ErrEntryNotFound is returned when a credential row is not found.
	ErrEntryNotFound = errors.New("local entry not found")
	// ErrEntryAlreadyExists is returned when inserting a row that already exists.
	ErrEntryAlreadyExists = errors.New("local entry already exists")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get retrieves the credential row of a user.
func Get(db *gorm.DB, domainID, userID string) (*models.LocalEntry, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var e models.LocalEntry
	result := db.Where(byDomainUser, domainID, userID).First(&e)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, result.Error
	}

	return &e, nil
}

// ListByDomain retrieves the credential rows of a domain.
func ListByDomain(db *gorm.DB, domainID string) ([]models.LocalEntry, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var entries []models.LocalEntry
	err := db.Where("domain_id = ?", domainID).Order("user_id").Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// Insert creates a credential row.
func Insert(db *gorm.DB, e *models.LocalEntry) error {
	if db == nil {
		return ErrDBNil
	}

	var existing models.LocalEntry
	result := db.Where(byDomainUser, e.DomainID, e.UserID).First(&existing)
	if result.Error == nil {
		return ErrEntryAlreadyExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	return db.Create(e).Error
}

// UpdateHash rewrites the password hash of a credential row.
func UpdateHash(db *gorm.DB, domainID, userID, passwordHash string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Model(&models.LocalEntry{}).
		Where(byDomainUser, domainID, userID).
		Update("password_hash", passwordHash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEntryNotFound
	}

	return nil
}

// Delete removes the credential row of a user.
func Delete(db *gorm.DB, domainID, userID string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Where(byDomainUser, domainID, userID).Delete(&models.LocalEntry{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEntryNotFound
	}

	return nil
}

// DeleteByDomain removes every credential row of a domain.
func DeleteByDomain(db *gorm.DB, domainID string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where("domain_id = ?", domainID).Delete(&models.LocalEntry{}).Error
}
