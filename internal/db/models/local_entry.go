package models

// LocalEntry is a credential row of the built-in local directory.
// It exists only for domains whose directory URI uses the local scheme;
// external directories (LDAP, AD) keep credentials on their side.
type LocalEntry struct {
	DomainID string `gorm:"primaryKey;size:20;column:domain_id"`
	UserID   string `gorm:"primaryKey;size:100;column:user_id"`
	// PasswordHash is the Argon2id hash of the entry's password.
	PasswordHash string `gorm:"size:255;not null"`
}

// TableName specifies the database table name for the LocalEntry model.
func (LocalEntry) TableName() string {
	return "local_entries"
}
