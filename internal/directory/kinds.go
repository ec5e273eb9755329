package directory

import (
	"net/url"
	"strings"
	"unicode"
)

// Kind identifies a directory backend family. The value doubles as the URI
// scheme stored in a domain's directory URI.
type Kind string

// Supported backend kinds.
const (
	KindLocal      Kind = "local"
	KindLDAP       Kind = "ldap"
	KindLDAPWebTop Kind = "ldapwebtop"
	KindLDAPNeth   Kind = "ldapneth"
	KindAD         Kind = "ad"
	KindIMAP       Kind = "imap"
	KindSMB        Kind = "smb"
	KindSFTP       Kind = "sftp"
)

// Fields declares which connection parameters apply to a kind. Parameters
// outside the declared set are blanked before a domain row is written.
type Fields struct {
	ConnSecurity   bool
	Credentials    bool
	PasswordPolicy bool
}

// kindFields maps each kind to its applicable parameter set.
var kindFields = map[Kind]Fields{
	KindLocal:      {ConnSecurity: false, Credentials: false, PasswordPolicy: true},
	KindLDAP:       {ConnSecurity: true, Credentials: true, PasswordPolicy: true},
	KindLDAPWebTop: {ConnSecurity: true, Credentials: true, PasswordPolicy: true},
	KindLDAPNeth:   {ConnSecurity: true, Credentials: true, PasswordPolicy: false},
	KindAD:         {ConnSecurity: true, Credentials: true, PasswordPolicy: false},
	KindIMAP:       {ConnSecurity: true, Credentials: false, PasswordPolicy: false},
	KindSMB:        {ConnSecurity: false, Credentials: false, PasswordPolicy: false},
	KindSFTP:       {ConnSecurity: false, Credentials: false, PasswordPolicy: false},
}

// ParseKind maps a URI scheme to its backend kind.
func ParseKind(scheme string) (Kind, error) {
	k := Kind(strings.ToLower(scheme))
	if _, ok := kindFields[k]; !ok {
		return "", ErrKindUnknown
	}

	return k, nil
}

// KindOfURI extracts and parses the scheme of a directory URI.
func KindOfURI(uri string) (Kind, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", ErrKindUnknown
	}

	return ParseKind(u.Scheme)
}

// FieldsOf reports the applicable parameter set of a kind.
func FieldsOf(kind Kind) Fields {
	return kindFields[kind]
}

// minPasswordLength is the floor enforced by the strong password policy.
const minPasswordLength = 8

// ValidatePasswordPolicy checks a candidate password against the strong
// policy: minimum length plus at least one lowercase letter, one uppercase
// letter and one digit.
func ValidatePasswordPolicy(password string) error {
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}

	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	if !lower || !upper || !digit {
		return ErrWeakPassword
	}

	return nil
}

// validateUsername checks the character set shared by all backends. Usernames
// are non-empty, start with a letter or digit and contain only letters,
// digits, dots, dashes and underscores.
func validateUsername(username string) error {
	if username == "" {
		return ErrBadUsername
	}

	for i, r := range username {
		switch {
		case unicode.IsLetter(r) && r < unicode.MaxASCII, unicode.IsDigit(r):
		case r == '.' || r == '-' || r == '_':
			if i == 0 {
				return ErrBadUsername
			}
		default:
			return ErrBadUsername
		}
	}

	return nil
}
