// Package directory abstracts the authentication backends a domain can bind
// to. Each backend kind declares its capabilities; callers must check a
// capability before invoking the matching operation.
package directory

import (
	"strings"

	"gorm.io/gorm"

	"github.com/tenantcore/tenantcore/internal/uniuri"
)

// Capabilities a backend may declare.
const (
	CapUsersRead     = "USERS_READ"
	CapUsersWrite    = "USERS_WRITE"
	CapPasswordWrite = "PASSWORD_WRITE"
)

// GeneratedPasswordLength is the length of passwords minted by GeneratePassword.
const GeneratedPasswordLength = 12

// AuthUser is a backend user entry in backend-neutral form.
type AuthUser struct {
	UserID      string
	FirstName   string
	LastName    string
	DisplayName string
	Email       string
}

// Options carries the per-domain connection parameters of a backend.
// They come from the domain row; a backend reads only the fields that apply
// to its kind.
type Options struct {
	DomainID       string
	URI            string
	AdminUsername  string
	AdminPassword  string
	ConnSecurity   string
	CaseSensitive  bool
	PasswordPolicy bool
}

// Directory is one authentication backend implementation.
type Directory interface {
	// Kind reports the backend kind this implementation serves.
	Kind() Kind

	// Capabilities lists the operations the backend supports.
	Capabilities() []string

	// ValidateUsername checks a candidate username against backend rules.
	ValidateUsername(opts *Options, username string) error

	// ListUsers enumerates the backend's users. Requires CapUsersRead.
	ListUsers(opts *Options) ([]AuthUser, error)

	// AddUser creates a backend entry. Requires CapUsersWrite.
	AddUser(opts *Options, user *AuthUser, password string) error

	// DeleteUser removes a backend entry. Requires CapUsersWrite.
	DeleteUser(opts *Options, userID string) error

	// UpdateUserPassword overwrites an entry's password. Requires CapPasswordWrite.
	UpdateUserPassword(opts *Options, userID, newPassword string) error
}

// Authenticator is implemented by backends able to verify credentials.
type Authenticator interface {
	CheckPassword(opts *Options, userID, password string) error
}

// Has reports whether the directory declares the given capability.
func Has(d Directory, capability string) bool {
	for _, c := range d.Capabilities() {
		if c == capability {
			return true
		}
	}

	return false
}

// SanitizeUsername normalizes a username according to the backend's case
// sensitivity. Case-insensitive backends store and compare lowercase.
func SanitizeUsername(opts *Options, username string) string {
	if opts != nil && opts.CaseSensitive {
		return username
	}

	return strings.ToLower(username)
}

// GeneratePassword mints a random password satisfying the strong policy.
func GeneratePassword() string {
	for {
		candidate := uniuri.NewLen(GeneratedPasswordLength)
		if ValidatePasswordPolicy(candidate) == nil {
			return candidate
		}
	}
}

// Registry resolves backend implementations by kind. The local backend keeps
// its credential rows in the service database, so the registry carries the
// connection.
type Registry struct {
	db *gorm.DB
}

// NewRegistry builds a Registry over the given database connection.
func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// ByKind returns the backend implementation serving the given kind.
func (r *Registry) ByKind(kind Kind) (Directory, error) {
	switch kind {
	case KindLocal:
		return &localDirectory{db: r.db}, nil
	case KindLDAP, KindLDAPWebTop, KindLDAPNeth, KindAD:
		return &ldapDirectory{kind: kind}, nil
	case KindIMAP, KindSMB, KindSFTP:
		return &passiveDirectory{kind: kind}, nil
	default:
		return nil, ErrKindUnknown
	}
}

// ByURI resolves the backend serving the given directory URI.
func (r *Registry) ByURI(uri string) (Directory, error) {
	kind, err := KindOfURI(uri)
	if err != nil {
		return nil, err
	}

	return r.ByKind(kind)
}
