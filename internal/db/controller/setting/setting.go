// Package setting provides row-level operations on the domain and user
// settings tables.
package setting

import (
	"errors"

	"gorm.io/gorm"

	"github.com/tenantcore/tenantcore/internal/db/models"
)

var (
	// ErrSettingNotFound is returned when a setting row is not found.
	ErrSettingNotFound = errors.New("setting not found")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Map conditions are used throughout so the key column gets quoted on every
// engine.

func domainWhere(domainID, serviceID, key string) map[string]interface{} {
	return map[string]interface{}{
		"domain_id":  domainID,
		"service_id": serviceID,
		"key":        key,
	}
}

func userWhere(domainID, userID, serviceID, key string) map[string]interface{} {
	return map[string]interface{}{
		"domain_id":  domainID,
		"user_id":    userID,
		"service_id": serviceID,
		"key":        key,
	}
}

// GetDomain retrieves one domain setting value.
func GetDomain(db *gorm.DB, domainID, serviceID, key string) (string, error) {
	if db == nil {
		return "", ErrDBNil
	}

	var s models.DomainSetting
	result := db.Where(domainWhere(domainID, serviceID, key)).First(&s)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", ErrSettingNotFound
		}
		return "", result.Error
	}

	return s.Value, nil
}

// SetDomain writes one domain setting, creating or overwriting the row.
func SetDomain(db *gorm.DB, domainID, serviceID, key, value string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Model(&models.DomainSetting{}).
		Where(domainWhere(domainID, serviceID, key)).
		Update("value", value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		s := models.DomainSetting{
			DomainID:  domainID,
			ServiceID: serviceID,
			Key:       key,
			Value:     value,
		}

		return db.Create(&s).Error
	}

	return nil
}

// DeleteDomain removes one domain setting row.
func DeleteDomain(db *gorm.DB, domainID, serviceID, key string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where(domainWhere(domainID, serviceID, key)).
		Delete(&models.DomainSetting{}).Error
}

// DeleteDomainAll removes every domain setting row of a domain.
func DeleteDomainAll(db *gorm.DB, domainID string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where("domain_id = ?", domainID).Delete(&models.DomainSetting{}).Error
}

// GetUser retrieves one user setting value.
func GetUser(db *gorm.DB, domainID, userID, serviceID, key string) (string, error) {
	if db == nil {
		return "", ErrDBNil
	}

	var s models.UserSetting
	result := db.Where(userWhere(domainID, userID, serviceID, key)).First(&s)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", ErrSettingNotFound
		}
		return "", result.Error
	}

	return s.Value, nil
}

// SetUser writes one user setting, creating or overwriting the row.
func SetUser(db *gorm.DB, domainID, userID, serviceID, key, value string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Model(&models.UserSetting{}).
		Where(userWhere(domainID, userID, serviceID, key)).
		Update("value", value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		s := models.UserSetting{
			DomainID:  domainID,
			UserID:    userID,
			ServiceID: serviceID,
			Key:       key,
			Value:     value,
		}

		return db.Create(&s).Error
	}

	return nil
}

// DeleteUser removes one user setting row.
func DeleteUser(db *gorm.DB, domainID, userID, serviceID, key string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where(userWhere(domainID, userID, serviceID, key)).
		Delete(&models.UserSetting{}).Error
}

// DeleteUserAll removes every setting row of a user.
func DeleteUserAll(db *gorm.DB, domainID, userID string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where("domain_id = ? AND user_id = ?", domainID, userID).
		Delete(&models.UserSetting{}).Error
}

// DeleteUserAllByDomain removes every user setting row of a domain.
func DeleteUserAllByDomain(db *gorm.DB, domainID string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where("domain_id = ?", domainID).Delete(&models.UserSetting{}).Error
}
