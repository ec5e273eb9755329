package identity

import (
	"fmt"
	"strings"
)

// ProfileID addresses a user (or group subject) as a (domain, user) pair.
type ProfileID struct {
	DomainID string
	UserID   string
}

// NewProfileID builds a ProfileID from its parts.
func NewProfileID(domainID, userID string) ProfileID {
	return ProfileID{DomainID: domainID, UserID: userID}
}

// ParseProfileID parses the "user@domain" wire form.
func ParseProfileID(s string) (ProfileID, error) {
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return ProfileID{}, fmt.Errorf("%w: %q", ErrBadProfileID, s)
	}

	return ProfileID{DomainID: s[at+1:], UserID: s[:at]}, nil
}

// String renders the "user@domain" wire form.
func (p ProfileID) String() string {
	return p.UserID + "@" + p.DomainID
}

// Role sources, in resolution priority order.
const (
	RoleSourceSelf       = "SELF"
	RoleSourceGroup      = "GROUP"
	RoleSourceDirect     = "DIRECT"
	RoleSourceTransitive = "TRANSITIVE"
)

// RoleWithSource is a resolved role tagged with the source it was reached
// through. When a role is reachable through several sources only the highest
// priority one is reported.
type RoleWithSource struct {
	RoleUID     string
	DomainID    string
	Name        string
	Description string
	Source      string
}

// Permission is one backend-neutral permission grant.
type Permission struct {
	ServiceID string
	Key       string
	Action    string
	Instance  string
}

// DomainEntity is the caller-facing shape of a domain.
type DomainEntity struct {
	DomainID          string `validate:"required,max=20,alphanum"`
	InternetName      string `validate:"omitempty,fqdn"`
	Enabled           bool
	Description       string
	UserAutoCreation  bool
	DirURI            string `validate:"required,uri"`
	DirUsername       string
	DirPassword       string
	DirConnSecurity   string `validate:"omitempty,oneof=ssl starttls"`
	DirCaseSensitive  bool
	DirPasswordPolicy bool
}

// UserEntity is the caller-facing shape of a user, memberships included.
type UserEntity struct {
	DomainID    string `validate:"required,max=20"`
	UserID      string `validate:"required,max=100"`
	Enabled     bool
	DisplayName string `validate:"max=100"`
	FirstName   string
	LastName    string
	Email       string `validate:"omitempty,email"`

	// AssignedGroups holds group IDs within the same domain.
	AssignedGroups []string
	// AssignedRoles holds role UIDs granted directly to the user.
	AssignedRoles []string
	// Permissions are granted through the user's own UID acting as a role.
	Permissions []Permission
}

// GroupEntity is the caller-facing shape of a group, memberships included.
type GroupEntity struct {
	DomainID    string `validate:"required,max=20"`
	GroupID     string `validate:"required,max=100"`
	DisplayName string `validate:"max=100"`

	// AssignedUsers holds user IDs within the same domain.
	AssignedUsers []string
	// AssignedRoles holds role UIDs granted to the group.
	AssignedRoles []string
	// Permissions are granted through the group's own UID acting as a role.
	Permissions []Permission
}

// RoleEntity is the caller-facing shape of a standalone role.
type RoleEntity struct {
	RoleUID     string
	DomainID    string `validate:"required,max=20"`
	Name        string `validate:"required,max=100"`
	Description string

	Permissions []Permission
}

// PersonalInfo is the personal-info sheet of a user.
type PersonalInfo struct {
	FirstName string
	LastName  string
	Email     string
	Title     string
	Nickname  string
	Telephone string
	Mobile    string
	Address   string
	City      string
	Country   string
	Company   string
}

// ProfileData is the derived per-user lookup sheet served from cache.
type ProfileData struct {
	DisplayName string
	LanguageTag string
	Timezone    string
	Email       string
}
