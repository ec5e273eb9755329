package models

// Sanctioned permission row shapes. A generic permission carries
// Instance == InstanceWildcard; a service-access permission carries the fixed
// (CoreServiceID, PermissionKeyService, PermissionActionAccess) triple with a
// concrete instance. Rows matching neither shape are ignored by extraction.
const (
	// CoreServiceID is the service ID reserved for the identity core itself.
	CoreServiceID = "core"
	// PermissionKeyService marks a service-access grant.
	PermissionKeyService = "SERVICE"
	// PermissionActionAccess is the action of a service-access grant.
	PermissionActionAccess = "ACCESS"
	// InstanceWildcard marks a generic (non service-access) permission row.
	InstanceWildcard = "*"
)

// RolePermission is a permission grant row owned by a principal UID.
// The owner may be a role UID, a user UID or a group UID; permissions granted
// directly to users rely on the synthetic self role during resolution.
type RolePermission struct {
	// RolePermissionID is the externally-assigned integer primary key.
	RolePermissionID int64 `gorm:"primaryKey;autoIncrement:false;column:role_permission_id"`
	// RoleUID is the owning principal UID.
	RoleUID string `gorm:"size:36;not null;index;column:role_uid"`
	// ServiceID identifies the service the permission belongs to.
	ServiceID string `gorm:"size:100;not null;column:service_id"`
	// Key is the permission key within the service.
	Key string `gorm:"size:100;not null;column:key"`
	// Action is the action allowed on the key (e.g. "READ", "UPDATE", "ACCESS").
	Action string `gorm:"size:50;not null"`
	// Instance is the object instance, or InstanceWildcard for generic grants.
	Instance string `gorm:"size:100;not null"`
}

// TableName specifies the database table name for the RolePermission model.
// This overrides GORM's default pluralized table naming.
func (RolePermission) TableName() string {
	return "role_permissions"
}

// IsWildcard reports whether the row is a generic permission.
func (p RolePermission) IsWildcard() bool {
	return p.Instance == InstanceWildcard
}

// IsServiceAccess reports whether the row is a service-access grant.
func (p RolePermission) IsServiceAccess() bool {
	return p.ServiceID == CoreServiceID &&
		p.Key == PermissionKeyService &&
		p.Action == PermissionActionAccess &&
		p.Instance != InstanceWildcard
}
