package models

// User represents a user account scoped to a domain.
// A user is addressed two ways: by the human-assigned (DomainID, UserID) pair,
// unique within the domain, and by UserUID, a system-generated identifier that
// never changes and is the foreign-key target for every association and
// permission row. The pair may be reused only after the prior user's dependent
// rows are fully deleted; the UID is never reused.
type User struct {
	// DomainID is the owning domain.
	DomainID string `gorm:"primaryKey;size:20;column:domain_id"`
	// UserID is the human-assigned login name, unique within the domain.
	UserID string `gorm:"primaryKey;size:100;column:user_id"`
	// Enabled indicates whether the account is active and can log in.
	Enabled bool
	// UserUID is the globally unique, immutable identifier of this principal.
	UserUID string `gorm:"uniqueIndex;size:36;not null;column:user_uid"`
	// DisplayName is the name shown for this user across the system.
	DisplayName string `gorm:"size:100"`
	// Secret is the per-user key material (TOTP secret) minted at creation.
	Secret string `gorm:"size:255"`
}

// TableName specifies the database table name for the User model.
// This overrides GORM's default pluralized table naming.
func (User) TableName() string {
	return "users"
}
