package role

import (
	"gorm.io/gorm"

	"github.com/tenantcore/tenantcore/internal/db/models"
)

// Resolution queries for the effective role set of a user. Groups and users
// share one UID namespace, so a grant's subject UID may be either. Each query
// returns distinct role rows; the caller merges the three sources in order.

// DirectByUser retrieves the roles granted directly to a user UID.
func DirectByUser(db *gorm.DB, userUID string) ([]models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var roles []models.Role
	err := db.Model(&models.Role{}).
		Distinct("roles.role_uid, roles.domain_id, roles.name, roles.description").
		Joins("JOIN role_associations ra ON ra.role_uid = roles.role_uid").
		Where("ra.user_uid = ?", userUID).
		Order("roles.role_uid").
		Find(&roles).Error
	if err != nil {
		return nil, err
	}

	return roles, nil
}

// FromGroupsByUser retrieves the roles granted to groups the user is a
// member of.
func FromGroupsByUser(db *gorm.DB, userUID string) ([]models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var roles []models.Role
	err := db.Model(&models.Role{}).
		Distinct("roles.role_uid, roles.domain_id, roles.name, roles.description").
		Joins("JOIN role_associations ra ON ra.role_uid = roles.role_uid").
		Joins("JOIN user_associations ua ON ua.group_uid = ra.user_uid").
		Where("ua.user_uid = ?", userUID).
		Order("roles.role_uid").
		Find(&roles).Error
	if err != nil {
		return nil, err
	}

	return roles, nil
}

// TransitiveFromGroupsByUser retrieves the roles reached through one extra
// level of group nesting: the user's groups are themselves members of other
// groups, and those carry the grant.
func TransitiveFromGroupsByUser(db *gorm.DB, userUID string) ([]models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var roles []models.Role
	err := db.Model(&models.Role{}).
		Distinct("roles.role_uid, roles.domain_id, roles.name, roles.description").
		Joins("JOIN role_associations ra ON ra.role_uid = roles.role_uid").
		Joins("JOIN user_associations ua2 ON ua2.group_uid = ra.user_uid").
		Joins("JOIN user_associations ua1 ON ua1.group_uid = ua2.user_uid").
		Where("ua1.user_uid = ?", userUID).
		Order("roles.role_uid").
		Find(&roles).Error
	if err != nil {
		return nil, err
	}

	return roles, nil
}
