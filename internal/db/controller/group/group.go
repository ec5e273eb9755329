// Package group provides row-level operations on the groups table.
package group

import (
	"errors"

	"gorm.io/gorm"

	"github.com/tenantcore/tenantcore/internal/db/models"
)

const byDomainGroup = "domain_id = ? AND group_id = ?"

var (
	// ErrGroupNotFound is returned when a group is not found.
	ErrGroupNotFound = errors.New("group not found")
	// ErrGroupAlreadyExists is returned when inserting a group that already exists.
	ErrGroupAlreadyExists = errors.New("group already exists")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// UIDRow is one (domainID, groupID, userUID) triple of the UID view.
type UIDRow struct {
	DomainID string
	GroupID  string
	UserUID  string
}

// Get retrieves a group by its (domain, group) pair.
func Get(db *gorm.DB, domainID, groupID string) (*models.Group, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var g models.Group
	result := db.Where(byDomainGroup, domainID, groupID).First(&g)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, result.Error
	}

	return &g, nil
}

// GetByUID retrieves a group by its UID.
func GetByUID(db *gorm.DB, groupUID string) (*models.Group, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var g models.Group
	result := db.Where("user_uid = ?", groupUID).First(&g)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, result.Error
	}

	return &g, nil
}

// ListByDomain retrieves the groups of a domain.
func ListByDomain(db *gorm.DB, domainID string) ([]models.Group, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var groups []models.Group
	err := db.Where("domain_id = ?", domainID).Order("group_id").Find(&groups).Error
	if err != nil {
		return nil, err
	}

	return groups, nil
}

// AllUIDs retrieves the full (domainID, groupID, userUID) triple set.
// This is the rebuild source of the group identity cache.
func AllUIDs(db *gorm.DB) ([]UIDRow, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var rows []UIDRow
	err := db.Model(&models.Group{}).
		Select("domain_id, group_id, user_uid").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// Insert creates a new group row.
func Insert(db *gorm.DB, g *models.Group) error {
	if db == nil {
		return ErrDBNil
	}

	var existing models.Group
	result := db.Where(byDomainGroup, g.DomainID, g.GroupID).First(&existing)
	if result.Error == nil {
		return ErrGroupAlreadyExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	return db.Create(g).Error
}

// UpdateDisplayName sets the display name of a group.
func UpdateDisplayName(db *gorm.DB, domainID, groupID, displayName string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Model(&models.Group{}).
		Where(byDomainGroup, domainID, groupID).
		Update("display_name", displayName)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrGroupNotFound
	}

	return nil
}

// Delete removes a group row by its (domain, group) pair.
func Delete(db *gorm.DB, domainID, groupID string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Where(byDomainGroup, domainID, groupID).Delete(&models.Group{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrGroupNotFound
	}

	return nil
}

// DeleteByDomain removes all group rows of a domain.
func DeleteByDomain(db *gorm.DB, domainID string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where("domain_id = ?", domainID).Delete(&models.Group{}).Error
}
