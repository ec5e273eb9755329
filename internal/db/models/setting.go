package models

// DomainSetting is a key/value setting scoped to (domain, service).
type DomainSetting struct {
	DomainID  string `gorm:"primaryKey;size:20;column:domain_id"`
	ServiceID string `gorm:"primaryKey;size:100;column:service_id"`
	Key       string `gorm:"primaryKey;size:100;column:key"`
	Value     string `gorm:"size:255"`
}

// TableName specifies the database table name for the DomainSetting model.
func (DomainSetting) TableName() string {
	return "domain_settings"
}

// UserSetting is a key/value setting scoped to (domain, user, service).
type UserSetting struct {
	DomainID  string `gorm:"primaryKey;size:20;column:domain_id"`
	UserID    string `gorm:"primaryKey;size:100;column:user_id"`
	ServiceID string `gorm:"primaryKey;size:100;column:service_id"`
	Key       string `gorm:"primaryKey;size:100;column:key"`
	Value     string `gorm:"size:255"`
}

// TableName specifies the database table name for the UserSetting model.
func (UserSetting) TableName() string {
	return "user_settings"
}
