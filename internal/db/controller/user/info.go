package user

import (
	"errors"

	"gorm.io/gorm"

	"github.com/tenantcore/tenantcore/internal/db/models"
)

// GetInfo retrieves the personal-info row of a user.
func GetInfo(db *gorm.DB, domainID, userID string) (*models.UserInfo, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var info models.UserInfo
	result := db.Where(byDomainUser, domainID, userID).First(&info)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserInfoNotFound
		}
		return nil, result.Error
	}

	return &info, nil
}

// InsertInfo creates a personal-info row.
func InsertInfo(db *gorm.DB, info *models.UserInfo) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Create(info).Error
}

// UpdateInfoNames rewrites only the first and last name of a personal-info row.
func UpdateInfoNames(db *gorm.DB, info *models.UserInfo) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Model(&models.UserInfo{}).
		Where(byDomainUser, info.DomainID, info.UserID).
		Updates(map[string]interface{}{
			"first_name": info.FirstName,
			"last_name":  info.LastName,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserInfoNotFound
	}

	return nil
}

// UpdateInfo rewrites the full personal-info row.
func UpdateInfo(db *gorm.DB, info *models.UserInfo) (bool, error) {
	if db == nil {
		return false, ErrDBNil
	}

	result := db.Model(&models.UserInfo{}).
		Where(byDomainUser, info.DomainID, info.UserID).
		Updates(map[string]interface{}{
			"first_name": info.FirstName,
			"last_name":  info.LastName,
			"email":      info.Email,
			"title":      info.Title,
			"nickname":   info.Nickname,
			"telephone":  info.Telephone,
			"mobile":     info.Mobile,
			"address":    info.Address,
			"city":       info.City,
			"country":    info.Country,
			"company":    info.Company,
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

// DeleteInfo removes the personal-info row of a user.
func DeleteInfo(db *gorm.DB, domainID, userID string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where(byDomainUser, domainID, userID).Delete(&models.UserInfo{}).Error
}

// DeleteInfoByDomain removes all personal-info rows of a domain.
func DeleteInfoByDomain(db *gorm.DB, domainID string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where("domain_id = ?", domainID).Delete(&models.UserInfo{}).Error
}
