package role

import (
	"errors"

	"gorm.io/gorm"

	"github.com/tenantcore/tenantcore/internal/db/controller/sequence"
	"github.com/tenantcore/tenantcore/internal/db/models"
)

// ErrRoleAssociationNotFound is returned when a role association is not found.
var ErrRoleAssociationNotFound = errors.New("role association not found")

// AssignedRoleRow is one row of the assigned-roles view: the association
// primary key plus the role it grants.
type AssignedRoleRow struct {
	RoleAssociationID int64
	RoleUID           string
	Name              string
}

// InsertAssociation grants a role to a subject UID, allocating the association
// ID from the role_associations sequence inside the caller's transaction.
func InsertAssociation(tx *gorm.DB, userUID, roleUID string) (*models.RoleAssociation, error) {
	if tx == nil {
		return nil, ErrDBNil
	}

	id, err := sequence.Next(tx, models.SequenceRoleAssociations)
	if err != nil {
		return nil, err
	}

	assoc := models.RoleAssociation{
		RoleAssociationID: id,
		UserUID:           userUID,
		RoleUID:           roleUID,
	}
	if err := tx.Create(&assoc).Error; err != nil {
		return nil, err
	}

	return &assoc, nil
}

// AssignedRoles retrieves the direct role grants of a subject UID as
// association rows joined with the role names they grant.
func AssignedRoles(db *gorm.DB, userUID string) ([]AssignedRoleRow, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var rows []AssignedRoleRow
	err := db.Model(&models.RoleAssociation{}).
		Select("role_associations.role_association_id, roles.role_uid, roles.name").
		Joins("JOIN roles ON roles.role_uid = role_associations.role_uid").
		Where("role_associations.user_uid = ?", userUID).
		Order("roles.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// DeleteAssociationByID removes a single role association row.
func DeleteAssociationByID(db *gorm.DB, roleAssociationID int64) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Where("role_association_id = ?", roleAssociationID).
		Delete(&models.RoleAssociation{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRoleAssociationNotFound
	}

	return nil
}

// DeleteAssociationsBySubject removes all role grants held by a subject UID.
func DeleteAssociationsBySubject(db *gorm.DB, userUID string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where("user_uid = ?", userUID).Delete(&models.RoleAssociation{}).Error
}

// DeleteAssociationsByRole removes all grants of a role UID.
func DeleteAssociationsByRole(db *gorm.DB, roleUID string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where(byRoleUID, roleUID).Delete(&models.RoleAssociation{}).Error
}

// DeleteAssociationsByDomain removes every role grant whose role belongs to
// the given domain.
func DeleteAssociationsByDomain(db *gorm.DB, domainID string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where("role_uid IN (?)",
		db.Model(&models.Role{}).Select("role_uid").Where("domain_id = ?", domainID),
	).Delete(&models.RoleAssociation{}).Error
}

// DeleteAssociationsByDomainSubjects removes every role grant held by a user
// or group of the given domain. Must run while the principal rows still exist.
func DeleteAssociationsByDomainSubjects(db *gorm.DB, domainID string) error {
	if db == nil {
		return ErrDBNil
	}

	err := db.Where("user_uid IN (?)",
		db.Model(&models.User{}).Select("user_uid").Where("domain_id = ?", domainID),
	).Delete(&models.RoleAssociation{}).Error
	if err != nil {
		return err
	}

	return db.Where("user_uid IN (?)",
		db.Model(&models.Group{}).Select("user_uid").Where("domain_id = ?", domainID),
	).Delete(&models.RoleAssociation{}).Error
}
