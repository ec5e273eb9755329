package role

import (
	"errors"

	"gorm.io/gorm"

	"github.com/tenantcore/tenantcore/internal/db/controller/sequence"
	"github.com/tenantcore/tenantcore/internal/db/models"
)

// ErrPermissionNotFound is returned when a role permission is not found.
var ErrPermissionNotFound = errors.New("role permission not found")

// InsertPermission attaches a permission to a role, allocating the row ID from
// the role_permissions sequence inside the caller's transaction.
func InsertPermission(tx *gorm.DB, p *models.RolePermission) error {
	if tx == nil {
		return ErrDBNil
	}

	id, err := sequence.Next(tx, models.SequenceRolePermissions)
	if err != nil {
		return err
	}

	p.RolePermissionID = id

	return tx.Create(p).Error
}

// ListPermissions retrieves the permissions attached to a role UID.
func ListPermissions(db *gorm.DB, roleUID string) ([]models.RolePermission, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var perms []models.RolePermission
	err := db.Where(byRoleUID, roleUID).
		Order("role_permission_id").Find(&perms).Error
	if err != nil {
		return nil, err
	}

	return perms, nil
}

// ListPermissionsByRoles retrieves the permissions attached to any of the
// given role UIDs.
func ListPermissionsByRoles(db *gorm.DB, roleUIDs []string) ([]models.RolePermission, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if len(roleUIDs) == 0 {
		return nil, nil
	}

	var perms []models.RolePermission
	err := db.Where("role_uid IN ?", roleUIDs).
		Order("role_permission_id").Find(&perms).Error
	if err != nil {
		return nil, err
	}

	return perms, nil
}

// DeletePermissionByID removes a single permission row.
func DeletePermissionByID(db *gorm.DB, rolePermissionID int64) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Where("role_permission_id = ?", rolePermissionID).
		Delete(&models.RolePermission{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPermissionNotFound
	}

	return nil
}

// DeletePermission removes the permission row matching every field of p.
// A map condition keeps the key column quoted on every engine.
func DeletePermission(db *gorm.DB, p *models.RolePermission) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where(map[string]interface{}{
		"role_uid":   p.RoleUID,
		"service_id": p.ServiceID,
		"key":        p.Key,
		"action":     p.Action,
		"instance":   p.Instance,
	}).Delete(&models.RolePermission{}).Error
}

// DeletePermissionsByRole removes all permissions attached to a role UID.
func DeletePermissionsByRole(db *gorm.DB, roleUID string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where(byRoleUID, roleUID).Delete(&models.RolePermission{}).Error
}

// DeletePermissionsByDomain removes every permission whose role belongs to
// the given domain.
func DeletePermissionsByDomain(db *gorm.DB, domainID string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where("role_uid IN (?)",
		db.Model(&models.Role{}).Select("role_uid").Where("domain_id = ?", domainID),
	).Delete(&models.RolePermission{}).Error
}

// DeletePermissionsByDomainPrincipals removes every permission held through
// the own UID of a user or group of the given domain. Must run while the
// principal rows still exist.
func DeletePermissionsByDomainPrincipals(db *gorm.DB, domainID string) error {
	if db == nil {
		return ErrDBNil
	}

	err := db.Where("role_uid IN (?)",
		db.Model(&models.User{}).Select("user_uid").Where("domain_id = ?", domainID),
	).Delete(&models.RolePermission{}).Error
	if err != nil {
		return err
	}

	return db.Where("role_uid IN (?)",
		db.Model(&models.Group{}).Select("user_uid").Where("domain_id = ?", domainID),
	).Delete(&models.RolePermission{}).Error
}
