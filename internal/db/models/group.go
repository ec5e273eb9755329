package models

// Built-in groups seeded into every new domain.
const (
	// GroupIDAdmins is the seeded administrators group of a domain.
	GroupIDAdmins = "admins"
	// GroupIDUsers is the seeded default users group of a domain.
	GroupIDUsers = "users"
)

// Group represents a collection principal scoped to a domain.
// Groups share the UID namespace with users: a group's UserUID may appear on
// either side of an association row, which is what makes nested groups and
// group-held roles expressible without extra tables.
type Group struct {
	// DomainID is the owning domain.
	DomainID string `gorm:"primaryKey;size:20;column:domain_id"`
	// GroupID is the human-assigned group name, unique within the domain.
	GroupID string `gorm:"primaryKey;size:100;column:group_id"`
	// Enabled indicates whether the group participates in role resolution.
	Enabled bool
	// UserUID is the globally unique identifier of this principal, drawn from
	// the same namespace as user UIDs.
	UserUID string `gorm:"uniqueIndex;size:36;not null;column:user_uid"`
	// DisplayName is the name shown for this group across the system.
	DisplayName string `gorm:"size:100"`
}

// TableName specifies the database table name for the Group model.
// This overrides GORM's default pluralized table naming.
func (Group) TableName() string {
	return "groups"
}
