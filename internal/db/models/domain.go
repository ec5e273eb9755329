package models

// Domain represents a tenant boundary.
// Every user, group, role and setting row belongs to exactly one domain.
// The domain also carries the connection parameters of the external
// authentication directory its accounts are validated against.
type Domain struct {
	// DomainID is the stable primary key of the domain. It is immutable once created.
	DomainID string `gorm:"primaryKey;size:20;column:domain_id"`
	// InternetName is the public DNS-style name of the domain, used to derive
	// canonical email and login identifiers. It should be unique among enabled domains.
	InternetName string `gorm:"size:255;not null"`
	// Enabled indicates whether accounts of this domain may authenticate.
	Enabled bool
	// Description provides a human-readable description of the domain.
	Description string `gorm:"size:255"`
	// UserAutoCreation enables automatic local user creation on first successful
	// directory authentication.
	UserAutoCreation bool
	// DirURI is the directory URI; its scheme selects the directory kind.
	DirURI string `gorm:"column:dir_uri;size:255;not null"`
	// DirUsername is the admin principal used to bind to the directory, when applicable.
	DirUsername string `gorm:"size:255"`
	// DirPassword is the admin credential used to bind to the directory, when applicable.
	DirPassword string `gorm:"size:255"`
	// DirConnSecurity is the connection security mode (e.g. "SSL", "STARTTLS"), when applicable.
	DirConnSecurity string `gorm:"size:20"`
	// DirCaseSensitive indicates whether the directory treats user names case-sensitively.
	DirCaseSensitive bool
	// DirPasswordPolicy enables password-policy enforcement on directory writes,
	// for kinds that support it.
	DirPasswordPolicy bool
}

// TableName specifies the database table name for the Domain model.
// This overrides GORM's default pluralized table naming.
func (Domain) TableName() string {
	return "domains"
}
