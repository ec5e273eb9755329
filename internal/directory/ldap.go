package directory

import (
	"crypto/tls"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"
)

// Connection security modes accepted in Options.ConnSecurity.
const (
	ConnSecurityNone     = ""
	ConnSecuritySSL      = "ssl"
	ConnSecurityStartTLS = "starttls"
)

const ldapTimeout = 10 * time.Second

// ldapDirectory serves the LDAP family of backends. The kind selects the
// attribute and entry conventions; the wire handling is shared.
type ldapDirectory struct {
	kind Kind
}

// ldapProfile holds the per-kind schema conventions.
type ldapProfile struct {
	usernameAttr string
	firstAttr    string
	lastAttr     string
	emailAttr    string
	userClass    string
	userFilter   string
	writable     bool
}

func (d *ldapDirectory) profile() ldapProfile {
	switch d.kind {
	case KindAD:
		return ldapProfile{
			usernameAttr: "sAMAccountName",
			firstAttr:    "givenName",
			lastAttr:     "sn",
			emailAttr:    "mail",
			userClass:    "user",
			userFilter:   "(&(objectClass=user)(objectCategory=person))",
			writable:     false,
		}
	case KindLDAPNeth:
		return ldapProfile{
			usernameAttr: "uid",
			firstAttr:    "givenName",
			lastAttr:     "sn",
			emailAttr:    "mail",
			userClass:    "inetOrgPerson",
			userFilter:   "(objectClass=inetOrgPerson)",
			writable:     false,
		}
	default:
		return ldapProfile{
			usernameAttr: "uid",
			firstAttr:    "givenName",
			lastAttr:     "sn",
			emailAttr:    "mail",
			userClass:    "inetOrgPerson",
			userFilter:   "(objectClass=inetOrgPerson)",
			writable:     true,
		}
	}
}

func (d *ldapDirectory) Kind() Kind {
	return d.kind
}

func (d *ldapDirectory) Capabilities() []string {
	if d.profile().writable {
		return []string{CapUsersRead, CapUsersWrite, CapPasswordWrite}
	}

	return []string{CapUsersRead}
}

func (d *ldapDirectory) ValidateUsername(_ *Options, username string) error {
	return validateUsername(username)
}

// target is the parsed form of a domain's directory URI: host, port and the
// base DN carried in the path.
type target struct {
	host   string
	port   string
	baseDN string
}

func (d *ldapDirectory) parseURI(opts *Options) (*target, error) {
	u, err := url.Parse(opts.URI)
	if err != nil {
		return nil, fmt.Errorf("malformed directory uri: %w", err)
	}

	port := u.Port()
	if port == "" {
		if opts.ConnSecurity == ConnSecuritySSL {
			port = "636"
		} else {
			port = "389"
		}
	}

	return &target{
		host:   u.Hostname(),
		port:   port,
		baseDN: strings.TrimPrefix(u.Path, "/"),
	}, nil
}

// connect dials the backend and binds with the domain's admin credentials.
func (d *ldapDirectory) connect(opts *Options) (*ldap.Conn, *target, error) {
	t, err := d.parseURI(opts)
	if err != nil {
		return nil, nil, err
	}

	scheme := "ldap"
	if opts.ConnSecurity == ConnSecuritySSL {
		scheme = "ldaps"
	}

	ldapURL := fmt.Sprintf("%s://%s:%s", scheme, t.host, t.port)

	var tlsConfig *tls.Config
	if opts.ConnSecurity != ConnSecurityNone {
		tlsConfig = &tls.Config{ServerName: t.host, MinVersion: tls.VersionTLS12}
	}

	conn, err := ldap.DialURL(ldapURL, ldap.DialWithTLSConfig(tlsConfig))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to LDAP server: %w", err)
	}

	if opts.ConnSecurity == ConnSecurityStartTLS {
		if errStartTLS := conn.StartTLS(tlsConfig); errStartTLS != nil {
			closeConn(conn)

			return nil, nil, fmt.Errorf("failed to start TLS: %w", errStartTLS)
		}
	}

	conn.SetTimeout(ldapTimeout)

	if opts.AdminUsername != "" {
		if errBind := conn.Bind(opts.AdminUsername, opts.AdminPassword); errBind != nil {
			closeConn(conn)

			return nil, nil, fmt.Errorf("failed to bind with admin account: %w", errBind)
		}
	}

	return conn, t, nil
}

func closeConn(conn *ldap.Conn) {
	if err := conn.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close LDAP connection")
	}
}

func (d *ldapDirectory) userDN(t *target, p ldapProfile, userID string) string {
	return fmt.Sprintf("%s=%s,%s", p.usernameAttr, ldap.EscapeDN(userID), t.baseDN)
}

func (d *ldapDirectory) ListUsers(opts *Options) ([]AuthUser, error) {
	conn, t, err := d.connect(opts)
	if err != nil {
		return nil, err
	}
	defer closeConn(conn)

	p := d.profile()
	searchRequest := ldap.NewSearchRequest(
		t.baseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0,
		int(ldapTimeout.Seconds()),
		false,
		p.userFilter,
		[]string{p.usernameAttr, p.firstAttr, p.lastAttr, p.emailAttr, "dn"},
		nil,
	)

	searchResult, err := conn.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to search for users: %w", err)
	}

	users := make([]AuthUser, 0, len(searchResult.Entries))
	for _, entry := range searchResult.Entries {
		userID := entry.GetAttributeValue(p.usernameAttr)
		if userID == "" {
			continue
		}

		first := entry.GetAttributeValue(p.firstAttr)
		last := entry.GetAttributeValue(p.lastAttr)
		users = append(users, AuthUser{
			UserID:      SanitizeUsername(opts, userID),
			FirstName:   first,
			LastName:    last,
			DisplayName: strings.TrimSpace(first + " " + last),
			Email:       entry.GetAttributeValue(p.emailAttr),
		})
	}

	return users, nil
}

func (d *ldapDirectory) AddUser(opts *Options, user *AuthUser, password string) error {
	p := d.profile()
	if !p.writable {
		return ErrCapabilityUnsupported
	}
	if opts.PasswordPolicy {
		if err := ValidatePasswordPolicy(password); err != nil {
			return err
		}
	}

	conn, t, err := d.connect(opts)
	if err != nil {
		return err
	}
	defer closeConn(conn)

	userID := SanitizeUsername(opts, user.UserID)
	addRequest := ldap.NewAddRequest(d.userDN(t, p, userID), nil)
	addRequest.Attribute("objectClass", []string{"top", p.userClass})
	addRequest.Attribute(p.usernameAttr, []string{userID})
	addRequest.Attribute("cn", []string{displayNameOrID(user, userID)})
	addRequest.Attribute(p.lastAttr, []string{lastNameOrID(user, userID)})

	if user.FirstName != "" {
		addRequest.Attribute(p.firstAttr, []string{user.FirstName})
	}
	if user.Email != "" {
		addRequest.Attribute(p.emailAttr, []string{user.Email})
	}
	if password != "" {
		addRequest.Attribute("userPassword", []string{password})
	}

	if err := conn.Add(addRequest); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultEntryAlreadyExists) {
			return ErrEntryExists
		}

		return fmt.Errorf("failed to add entry: %w", err)
	}

	return nil
}

func (d *ldapDirectory) DeleteUser(opts *Options, userID string) error {
	p := d.profile()
	if !p.writable {
		return ErrCapabilityUnsupported
	}

	conn, t, err := d.connect(opts)
	if err != nil {
		return err
	}
	defer closeConn(conn)

	delRequest := ldap.NewDelRequest(d.userDN(t, p, SanitizeUsername(opts, userID)), nil)
	if err := conn.Del(delRequest); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) {
			return ErrEntryNotFound
		}

		return fmt.Errorf("failed to delete entry: %w", err)
	}

	return nil
}

func (d *ldapDirectory) UpdateUserPassword(opts *Options, userID, newPassword string) error {
	p := d.profile()
	if !p.writable {
		return ErrCapabilityUnsupported
	}
	if opts.PasswordPolicy {
		if err := ValidatePasswordPolicy(newPassword); err != nil {
			return err
		}
	}

	conn, t, err := d.connect(opts)
	if err != nil {
		return err
	}
	defer closeConn(conn)

	dn := d.userDN(t, p, SanitizeUsername(opts, userID))
	modifyRequest := ldap.NewPasswordModifyRequest(dn, "", newPassword)
	if _, err := conn.PasswordModify(modifyRequest); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) {
			return ErrEntryNotFound
		}

		return fmt.Errorf("failed to modify password: %w", err)
	}

	return nil
}

// CheckPassword verifies credentials by binding as the user.
func (d *ldapDirectory) CheckPassword(opts *Options, userID, password string) error {
	conn, t, err := d.connect(opts)
	if err != nil {
		return err
	}
	defer closeConn(conn)

	dn := d.userDN(t, d.profile(), SanitizeUsername(opts, userID))
	if err := conn.Bind(dn, password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return ErrBadCredentials
		}

		return fmt.Errorf("failed to bind as user: %w", err)
	}

	return nil
}

func displayNameOrID(user *AuthUser, userID string) string {
	if user.DisplayName != "" {
		return user.DisplayName
	}

	return userID
}

func lastNameOrID(user *AuthUser, userID string) string {
	if user.LastName != "" {
		return user.LastName
	}

	return userID
}
