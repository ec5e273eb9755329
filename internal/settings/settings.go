// Package settings reads and writes the layered service settings that the
// identity core depends on. Domain-level rows provide defaults, user-level
// rows override them.
package settings

import (
	"errors"
	"strconv"

	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tenantcore/tenantcore/internal/db/controller/setting"
	"github.com/tenantcore/tenantcore/internal/db/models"
)

// Core service setting keys.
const (
	KeyLanguageTag    = "i18n.language.tag"
	KeyTimezone       = "i18n.timezone"
	KeyOTPEnabled     = "otp.enabled"
	KeyPasswordPolicy = "password.policy.strong"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrBadLanguageTag is returned for a language tag that does not parse.
	ErrBadLanguageTag = errors.New("malformed language tag")
)

// Service resolves settings against the database with configured fallbacks.
type Service struct {
	db               *gorm.DB
	fallbackLangTag  string
	fallbackTimezone string
}

// New builds a Service. The fallback values are used when neither a user nor
// a domain row exists; they come from the static configuration.
func New(db *gorm.DB, fallbackLangTag, fallbackTimezone string) (*Service, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if fallbackLangTag != "" {
		if _, err := language.Parse(fallbackLangTag); err != nil {
			return nil, ErrBadLanguageTag
		}
	}

	return &Service{
		db:               db,
		fallbackLangTag:  fallbackLangTag,
		fallbackTimezone: fallbackTimezone,
	}, nil
}

// lookup resolves a core key user-first, then domain, then fallback.
func (s *Service) lookup(domainID, userID, key, fallback string) (string, error) {
	if userID != "" {
		v, err := setting.GetUser(s.db, domainID, userID, models.CoreServiceID, key)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, setting.ErrSettingNotFound) {
			return "", err
		}
	}

	v, err := setting.GetDomain(s.db, domainID, models.CoreServiceID, key)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, setting.ErrSettingNotFound) {
		return "", err
	}

	return fallback, nil
}

// LanguageTag resolves the effective language tag of a user.
func (s *Service) LanguageTag(domainID, userID string) (string, error) {
	return s.lookup(domainID, userID, KeyLanguageTag, s.fallbackLangTag)
}

// Timezone resolves the effective timezone name of a user.
func (s *Service) Timezone(domainID, userID string) (string, error) {
	return s.lookup(domainID, userID, KeyTimezone, s.fallbackTimezone)
}

// SetUserLanguageTag writes a user's language tag override after validating it.
func (s *Service) SetUserLanguageTag(domainID, userID, tag string) error {
	if _, err := language.Parse(tag); err != nil {
		return ErrBadLanguageTag
	}

	return setting.SetUser(s.db, domainID, userID, models.CoreServiceID, KeyLanguageTag, tag)
}

// SetUserTimezone writes a user's timezone override.
func (s *Service) SetUserTimezone(domainID, userID, tz string) error {
	return setting.SetUser(s.db, domainID, userID, models.CoreServiceID, KeyTimezone, tz)
}

// SetDomainDefaults seeds the domain-level language and timezone rows.
func (s *Service) SetDomainDefaults(domainID, langTag, tz string) error {
	if langTag != "" {
		if _, err := language.Parse(langTag); err != nil {
			return ErrBadLanguageTag
		}
		err := setting.SetDomain(s.db, domainID, models.CoreServiceID, KeyLanguageTag, langTag)
		if err != nil {
			return err
		}
	}
	if tz != "" {
		err := setting.SetDomain(s.db, domainID, models.CoreServiceID, KeyTimezone, tz)
		if err != nil {
			return err
		}
	}

	return nil
}

// OTPEnabled reports whether two-factor enrollment is enabled for the domain.
func (s *Service) OTPEnabled(domainID string) (bool, error) {
	v, err := s.lookup(domainID, "", KeyOTPEnabled, "false")
	if err != nil {
		return false, err
	}

	out, err := strconv.ParseBool(v)
	if err != nil {
		return false, nil
	}

	return out, nil
}

// SetOTPEnabled writes the domain's two-factor enrollment flag.
func (s *Service) SetOTPEnabled(domainID string, enabled bool) error {
	return setting.SetDomain(s.db, domainID, models.CoreServiceID, KeyOTPEnabled,
		strconv.FormatBool(enabled))
}

// PasswordPolicy reports whether the domain enforces the strong password
// policy through its settings, on top of the directory-level flag.
func (s *Service) PasswordPolicy(domainID string) (bool, error) {
	v, err := s.lookup(domainID, "", KeyPasswordPolicy, "false")
	if err != nil {
		return false, err
	}

	out, err := strconv.ParseBool(v)
	if err != nil {
		return false, nil
	}

	return out, nil
}

// SetPasswordPolicy writes the domain's strong password policy flag.
func (s *Service) SetPasswordPolicy(domainID string, enabled bool) error {
	return setting.SetDomain(s.db, domainID, models.CoreServiceID, KeyPasswordPolicy,
		strconv.FormatBool(enabled))
}

// ClearDomain removes every setting row of a domain, user rows included.
func (s *Service) ClearDomain(domainID string) error {
	if err := setting.DeleteUserAllByDomain(s.db, domainID); err != nil {
		return err
	}

	return setting.DeleteDomainAll(s.db, domainID)
}

// ClearUser removes every setting row of a user.
func (s *Service) ClearUser(domainID, userID string) error {
	return setting.DeleteUserAll(s.db, domainID, userID)
}
