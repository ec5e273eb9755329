// Package domain provides row-level operations on the domains table.
package domain

import (
	"errors"

	"gorm.io/gorm"

	"github.com/tenantcore/tenantcore/internal/db/models"
)

const byDomainID = "domain_id = ?"

var (
	// ErrDomainNotFound is returned when a domain is not found.
	ErrDomainNotFound = errors.New("domain not found")
	// ErrDomainIDEmpty is returned for operations with an empty domain ID.
	ErrDomainIDEmpty = errors.New("domain id cannot be empty")
	// ErrDomainAlreadyExists is returned when inserting a domain that already exists.
	ErrDomainAlreadyExists = errors.New("domain already exists")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get retrieves a domain by its ID.
func Get(db *gorm.DB, domainID string) (*models.Domain, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if domainID == "" {
		return nil, ErrDomainIDEmpty
	}

	var d models.Domain
	result := db.Where(byDomainID, domainID).First(&d)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrDomainNotFound
		}
		return nil, result.Error
	}

	return &d, nil
}

// List retrieves all domains, optionally restricted to enabled ones.
func List(db *gorm.DB, enabledOnly bool) ([]models.Domain, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	query := db.Model(&models.Domain{})
	if enabledOnly {
		query = query.Where("enabled = ?", true)
	}

	var domains []models.Domain
	if err := query.Order("domain_id").Find(&domains).Error; err != nil {
		return nil, err
	}

	return domains, nil
}

// ListByInternetName retrieves the enabled domains carrying the given internet name.
func ListByInternetName(db *gorm.DB, internetName string) ([]models.Domain, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var domains []models.Domain
	err := db.Where("internet_name = ? AND enabled = ?", internetName, true).
		Order("domain_id").Find(&domains).Error
	if err != nil {
		return nil, err
	}

	return domains, nil
}

// Insert creates a new domain row.
func Insert(db *gorm.DB, d *models.Domain) error {
	if db == nil {
		return ErrDBNil
	}
	if d.DomainID == "" {
		return ErrDomainIDEmpty
	}

	var existing models.Domain
	result := db.Where(byDomainID, d.DomainID).First(&existing)
	if result.Error == nil {
		return ErrDomainAlreadyExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	return db.Create(d).Error
}

// Update rewrites the mutable columns of an existing domain row.
// DomainID itself is immutable and only used for addressing.
func Update(db *gorm.DB, d *models.Domain) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Model(&models.Domain{}).Where(byDomainID, d.DomainID).
		Updates(map[string]interface{}{
			"internet_name":       d.InternetName,
			"enabled":             d.Enabled,
			"description":         d.Description,
			"user_auto_creation":  d.UserAutoCreation,
			"dir_uri":             d.DirURI,
			"dir_username":        d.DirUsername,
			"dir_password":        d.DirPassword,
			"dir_conn_security":   d.DirConnSecurity,
			"dir_case_sensitive":  d.DirCaseSensitive,
			"dir_password_policy": d.DirPasswordPolicy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDomainNotFound
	}

	return nil
}

// Delete removes a domain row by ID.
func Delete(db *gorm.DB, domainID string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Where(byDomainID, domainID).Delete(&models.Domain{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDomainNotFound
	}

	return nil
}
