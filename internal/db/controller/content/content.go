// Package content provides row-level operations on the per-domain content
// tables: activities, audit entries and store entries.
package content

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tenantcore/tenantcore/internal/db/models"
)

const byDomainID = "domain_id = ?"

// ErrDBNil is returned when the database connection is nil.
var ErrDBNil = errors.New("database connection is nil")

// AppendAudit writes an audit log row, stamping it with the current time.
func AppendAudit(db *gorm.DB, entry *models.AuditEntry) error {
	if db == nil {
		return ErrDBNil
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	return db.Create(entry).Error
}

// ListAuditByDomain retrieves the audit rows of a domain, newest first.
func ListAuditByDomain(db *gorm.DB, domainID string, limit int) ([]models.AuditEntry, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	query := db.Where(byDomainID, domainID).Order("timestamp DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entries []models.AuditEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}

// DeleteByDomain removes every content row of a domain.
func DeleteByDomain(db *gorm.DB, domainID string) error {
	if db == nil {
		return ErrDBNil
	}

	if err := db.Where(byDomainID, domainID).Delete(&models.Activity{}).Error; err != nil {
		return err
	}
	if err := db.Where(byDomainID, domainID).Delete(&models.AuditEntry{}).Error; err != nil {
		return err
	}

	return db.Where(byDomainID, domainID).Delete(&models.StoreEntry{}).Error
}

// DeleteByUser removes every content row of a user.
func DeleteByUser(db *gorm.DB, domainID, userID string) error {
	if db == nil {
		return ErrDBNil
	}

	byUser := "domain_id = ? AND user_id = ?"
	if err := db.Where(byUser, domainID, userID).Delete(&models.Activity{}).Error; err != nil {
		return err
	}
	if err := db.Where(byUser, domainID, userID).Delete(&models.AuditEntry{}).Error; err != nil {
		return err
	}

	return db.Where(byUser, domainID, userID).Delete(&models.StoreEntry{}).Error
}
