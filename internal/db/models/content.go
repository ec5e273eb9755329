package models

import "time"

// Content and activity tables. These hang off a domain (and optionally a
// user) and must be deleted before settings, associations and principal rows
// when a domain or user is removed.

// Activity is a per-domain activity record.
type Activity struct {
	ActivityID  uint64 `gorm:"primaryKey"`
	DomainID    string `gorm:"size:20;not null;index;column:domain_id"`
	UserID      string `gorm:"size:100;index;column:user_id"`
	Description string `gorm:"size:255"`
	ReadOnly    bool
}

// TableName specifies the database table name for the Activity model.
func (Activity) TableName() string {
	return "activities"
}

// AuditEntry is an append-only audit log row.
type AuditEntry struct {
	AuditEntryID uint64    `gorm:"primaryKey"`
	Timestamp    time.Time `gorm:"not null"`
	DomainID     string    `gorm:"size:20;not null;index;column:domain_id"`
	UserID       string    `gorm:"size:100;index;column:user_id"`
	ServiceID    string    `gorm:"size:100;column:service_id"`
	Action       string    `gorm:"size:50"`
	Data         string    `gorm:"type:text"`
}

// TableName specifies the database table name for the AuditEntry model.
func (AuditEntry) TableName() string {
	return "audit_entries"
}

// StoreEntry is an opaque per-user service storage row.
type StoreEntry struct {
	DomainID  string `gorm:"primaryKey;size:20;column:domain_id"`
	UserID    string `gorm:"primaryKey;size:100;column:user_id"`
	ServiceID string `gorm:"primaryKey;size:100;column:service_id"`
	Context   string `gorm:"primaryKey;size:50"`
	Key       string `gorm:"primaryKey;size:100;column:key"`
	Value     []byte `gorm:"type:blob"`
}

// TableName specifies the database table name for the StoreEntry model.
func (StoreEntry) TableName() string {
	return "store_entries"
}
