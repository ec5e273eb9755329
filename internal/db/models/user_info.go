package models

// UserInfo is the personal-info record paired with a User row.
// It holds contact attributes that are not needed on the authorization path
// and is loaded lazily through the profile cache.
type UserInfo struct {
	// DomainID is the owning domain.
	DomainID string `gorm:"primaryKey;size:20;column:domain_id"`
	// UserID is the login name of the owning user.
	UserID string `gorm:"primaryKey;size:100;column:user_id"`
	// FirstName is the user's first or given name.
	FirstName string `gorm:"size:100"`
	// LastName is the user's last or family name.
	LastName string `gorm:"size:100"`
	// Email is the user's primary email address.
	Email     string `gorm:"size:255"`
	Title     string `gorm:"size:30"`
	Nickname  string `gorm:"size:100"`
	Telephone string `gorm:"size:50"`
	Mobile    string `gorm:"size:50"`
	Address   string `gorm:"size:255"`
	City      string `gorm:"size:100"`
	Country   string `gorm:"size:100"`
	Company   string `gorm:"size:100"`
}

// TableName specifies the database table name for the UserInfo model.
// This overrides GORM's default pluralized table naming.
func (UserInfo) TableName() string {
	return "user_info"
}
