package models

// UserAssociation places a principal inside a group (userUID -> groupUID).
// The member side is usually a user UID but may itself be a group UID, which
// is how group nesting (and therefore transitive roles) is represented.
// The primary key is allocated explicitly from the sequence table so that
// batches inserted within one transaction share one ID horizon.
type UserAssociation struct {
	// UserAssociationID is the externally-assigned integer primary key.
	UserAssociationID int64 `gorm:"primaryKey;autoIncrement:false;column:user_association_id"`
	// UserUID is the member principal.
	UserUID string `gorm:"size:36;not null;index;column:user_uid"`
	// GroupUID is the containing group principal.
	GroupUID string `gorm:"size:36;not null;index;column:group_uid"`
}

// TableName specifies the database table name for the UserAssociation model.
// This overrides GORM's default pluralized table naming.
func (UserAssociation) TableName() string {
	return "user_associations"
}
