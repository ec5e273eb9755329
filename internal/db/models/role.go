package models

// Role represents an independently defined named principal scoped to a domain.
// Unlike a group, a role has no membership of its own; it is assigned to users
// or groups through role associations and carries permission rows.
type Role struct {
	// RoleUID is the globally unique, immutable identifier of the role.
	RoleUID string `gorm:"primaryKey;size:36;column:role_uid"`
	// DomainID is the owning domain.
	DomainID string `gorm:"size:20;not null;index;column:domain_id"`
	// Name is the human-readable role name.
	Name string `gorm:"size:100;not null"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255"`
}

// TableName specifies the database table name for the Role model.
// This overrides GORM's default pluralized table naming.
func (Role) TableName() string {
	return "roles"
}
