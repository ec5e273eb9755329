// Package user provides row-level operations on the users, user_info and
// user_associations tables.
package user

import (
	"errors"

	"gorm.io/gorm"

	"github.com/tenantcore/tenantcore/internal/db/models"
)

const (
	byDomainUser = "domain_id = ? AND user_id = ?"
	byUserUID    = "user_uid = ?"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserInfoNotFound is returned when a user's personal-info row is not found.
	ErrUserInfoNotFound = errors.New("user info not found")
	// ErrUserAlreadyExists is returned when inserting a user that already exists.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// UIDRow is one (domainID, userID, userUID) triple of the UID view.
type UIDRow struct {
	DomainID string
	UserID   string
	UserUID  string
}

// AssignedGroupRow is one row of the assigned-groups view: the association
// primary key plus the human-readable group name it points at.
type AssignedGroupRow struct {
	UserAssociationID int64
	GroupID           string
	GroupUID          string
}

// Get retrieves a user by its (domain, user) pair.
func Get(db *gorm.DB, domainID, userID string) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var u models.User
	result := db.Where(byDomainUser, domainID, userID).First(&u)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}

	return &u, nil
}

// GetByUID retrieves a user by its UID.
func GetByUID(db *gorm.DB, userUID string) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var u models.User
	result := db.Where(byUserUID, userUID).First(&u)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}

	return &u, nil
}

// ListByDomain retrieves the users of a domain, optionally enabled ones only.
func ListByDomain(db *gorm.DB, domainID string, enabledOnly bool) ([]models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	query := db.Where("domain_id = ?", domainID)
	if enabledOnly {
		query = query.Where("enabled = ?", true)
	}

	var users []models.User
	if err := query.Order("user_id").Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

// MapByDomain retrieves the users of a domain keyed by user ID.
func MapByDomain(db *gorm.DB, domainID string) (map[string]models.User, error) {
	users, err := ListByDomain(db, domainID, false)
	if err != nil {
		return nil, err
	}

	out := make(map[string]models.User, len(users))
	for _, u := range users {
		out[u.UserID] = u
	}

	return out, nil
}

// AllUIDs retrieves the full (domainID, userID, userUID) triple set.
// This is the rebuild source of the user identity cache.
func AllUIDs(db *gorm.DB) ([]UIDRow, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var rows []UIDRow
	err := db.Model(&models.User{}).
		Select("domain_id, user_id, user_uid").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// Insert creates a new user row.
func Insert(db *gorm.DB, u *models.User) error {
	if db == nil {
		return ErrDBNil
	}

	var existing models.User
	result := db.Where(byDomainUser, u.DomainID, u.UserID).First(&existing)
	if result.Error == nil {
		return ErrUserAlreadyExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	return db.Create(u).Error
}

// UpdateEnabledDisplayName rewrites the enabled flag and display name of a user.
func UpdateEnabledDisplayName(db *gorm.DB, u *models.User) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Model(&models.User{}).
		Where(byDomainUser, u.DomainID, u.UserID).
		Updates(map[string]interface{}{
			"enabled":      u.Enabled,
			"display_name": u.DisplayName,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// UpdateEnabled sets the enabled flag of a user.
func UpdateEnabled(db *gorm.DB, domainID, userID string, enabled bool) (bool, error) {
	if db == nil {
		return false, ErrDBNil
	}

	result := db.Model(&models.User{}).
		Where(byDomainUser, domainID, userID).
		Update("enabled", enabled)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

// UpdateDisplayName sets the display name of a user.
func UpdateDisplayName(db *gorm.DB, domainID, userID, displayName string) (bool, error) {
	if db == nil {
		return false, ErrDBNil
	}

	result := db.Model(&models.User{}).
		Where(byDomainUser, domainID, userID).
		Update("display_name", displayName)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

// Delete removes a user row by its (domain, user) pair.
func Delete(db *gorm.DB, domainID, userID string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Where(byDomainUser, domainID, userID).Delete(&models.User{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// DeleteByDomain removes all user rows of a domain.
func DeleteByDomain(db *gorm.DB, domainID string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where("domain_id = ?", domainID).Delete(&models.User{}).Error
}
