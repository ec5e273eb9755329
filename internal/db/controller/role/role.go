// Package role provides row-level operations on the roles, role_associations
// and role_permissions tables, including the membership-resolution queries.
package role

import (
	"errors"

	"gorm.io/gorm"

	"github.com/tenantcore/tenantcore/internal/db/models"
)

const byRoleUID = "role_uid = ?"

var (
	// ErrRoleNotFound is returned when a role is not found.
	ErrRoleNotFound = errors.New("role not found")
	// ErrRoleAlreadyExists is returned when inserting a role whose name is taken.
	ErrRoleAlreadyExists = errors.New("role already exists")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get retrieves a role by its UID.
func Get(db *gorm.DB, roleUID string) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var r models.Role
	result := db.Where(byRoleUID, roleUID).First(&r)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, result.Error
	}

	return &r, nil
}

// GetByName retrieves a role by its (domain, name) pair.
func GetByName(db *gorm.DB, domainID, name string) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var r models.Role
	result := db.Where("domain_id = ? AND name = ?", domainID, name).First(&r)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, result.Error
	}

	return &r, nil
}

// ListByDomain retrieves the standalone roles of a domain.
func ListByDomain(db *gorm.DB, domainID string) ([]models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var roles []models.Role
	err := db.Where("domain_id = ?", domainID).Order("name").Find(&roles).Error
	if err != nil {
		return nil, err
	}

	return roles, nil
}

// Insert creates a new role row.
func Insert(db *gorm.DB, r *models.Role) error {
	if db == nil {
		return ErrDBNil
	}

	var existing models.Role
	result := db.Where("domain_id = ? AND name = ?", r.DomainID, r.Name).First(&existing)
	if result.Error == nil {
		return ErrRoleAlreadyExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	return db.Create(r).Error
}

// Update rewrites the name and description of a role.
func Update(db *gorm.DB, r *models.Role) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Model(&models.Role{}).Where(byRoleUID, r.RoleUID).
		Updates(map[string]interface{}{
			"name":        r.Name,
			"description": r.Description,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRoleNotFound
	}

	return nil
}

// Delete removes a role row by UID.
func Delete(db *gorm.DB, roleUID string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Where(byRoleUID, roleUID).Delete(&models.Role{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRoleNotFound
	}

	return nil
}

// DeleteByDomain removes all role rows of a domain.
func DeleteByDomain(db *gorm.DB, domainID string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where("domain_id = ?", domainID).Delete(&models.Role{}).Error
}
