package user

import (
	"errors"

	"gorm.io/gorm"

	"github.com/tenantcore/tenantcore/internal/db/controller/sequence"
	"github.com/tenantcore/tenantcore/internal/db/models"
)

// ErrAssociationNotFound is returned when a user-group association is not found.
var ErrAssociationNotFound = errors.New("user association not found")

// InsertAssociation creates a user-group association, allocating its ID from
// the user_associations sequence inside the caller's transaction.
func InsertAssociation(tx *gorm.DB, userUID, groupUID string) (*models.UserAssociation, error) {
	if tx == nil {
		return nil, ErrDBNil
	}

	id, err := sequence.Next(tx, models.SequenceUserAssociations)
	if err != nil {
		return nil, err
	}

	assoc := models.UserAssociation{
		UserAssociationID: id,
		UserUID:           userUID,
		GroupUID:          groupUID,
	}
	if err := tx.Create(&assoc).Error; err != nil {
		return nil, err
	}

	return &assoc, nil
}

// AssignedGroups retrieves the group memberships of a user as association rows
// joined with the group names they point at.
func AssignedGroups(db *gorm.DB, userUID string) ([]AssignedGroupRow, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var rows []AssignedGroupRow
	err := db.Model(&models.UserAssociation{}).
		Select("user_associations.user_association_id, groups.group_id, groups.user_uid AS group_uid").
		Joins("JOIN groups ON groups.user_uid = user_associations.group_uid").
		Where("user_associations.user_uid = ?", userUID).
		Order("groups.group_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// DeleteAssociationByID removes a single association row.
func DeleteAssociationByID(db *gorm.DB, userAssociationID int64) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Where("user_association_id = ?", userAssociationID).
		Delete(&models.UserAssociation{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAssociationNotFound
	}

	return nil
}

// DeleteAssociationsByUser removes all memberships held by a user UID.
func DeleteAssociationsByUser(db *gorm.DB, userUID string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where("user_uid = ?", userUID).Delete(&models.UserAssociation{}).Error
}

// DeleteAssociationsByGroup removes all memberships pointing at a group UID.
func DeleteAssociationsByGroup(db *gorm.DB, groupUID string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where("group_uid = ?", groupUID).Delete(&models.UserAssociation{}).Error
}

// DeleteAssociationsByDomain removes every membership whose subject belongs to
// the given domain. Both sides of an association live in the same domain, so
// matching the subject UID against the domain's users and groups is enough.
func DeleteAssociationsByDomain(db *gorm.DB, domainID string) error {
	if db == nil {
		return ErrDBNil
	}

	err := db.Where("user_uid IN (?)",
		db.Model(&models.User{}).Select("user_uid").Where("domain_id = ?", domainID),
	).Delete(&models.UserAssociation{}).Error
	if err != nil {
		return err
	}

	return db.Where("user_uid IN (?)",
		db.Model(&models.Group{}).Select("user_uid").Where("domain_id = ?", domainID),
	).Delete(&models.UserAssociation{}).Error
}
