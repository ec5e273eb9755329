package models

// RoleAssociation assigns a role to a principal (userUID -> roleUID).
// The principal side may be a user UID or a group UID; both draw from the
// shared UID namespace.
type RoleAssociation struct {
	// RoleAssociationID is the externally-assigned integer primary key.
	RoleAssociationID int64 `gorm:"primaryKey;autoIncrement:false;column:role_association_id"`
	// UserUID is the principal the role is assigned to.
	UserUID string `gorm:"size:36;not null;index;column:user_uid"`
	// RoleUID is the assigned role.
	RoleUID string `gorm:"size:36;not null;index;column:role_uid"`
}

// TableName specifies the database table name for the RoleAssociation model.
// This overrides GORM's default pluralized table naming.
func (RoleAssociation) TableName() string {
	return "role_associations"
}
