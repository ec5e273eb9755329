package models

// Sequence names used by the association and permission tables.
const (
	SequenceUserAssociations = "user_associations"
	SequenceRoleAssociations = "role_associations"
	SequenceRolePermissions  = "role_permissions"
)

// Sequence is a named counter row used for explicit ID allocation.
// Association rows take an externally-assigned primary key so that insert
// batches within one transaction share a single ID horizon instead of
// relying on driver-specific auto-increment behavior.
type Sequence struct {
	Name  string `gorm:"primaryKey;size:50"`
	Value int64  `gorm:"not null"`
}

// TableName specifies the database table name for the Sequence model.
func (Sequence) TableName() string {
	return "sequences"
}
