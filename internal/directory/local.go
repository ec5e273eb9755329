package directory

import (
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"
	"gorm.io/gorm"

	"github.com/tenantcore/tenantcore/internal/db/controller/local"
	"github.com/tenantcore/tenantcore/internal/db/models"
)

// localDirectory is the built-in backend storing Argon2id credential rows in
// the service database. It is fully writable.
type localDirectory struct {
	db *gorm.DB
}

func (d *localDirectory) Kind() Kind {
	return KindLocal
}

func (d *localDirectory) Capabilities() []string {
	return []string{CapUsersRead, CapUsersWrite, CapPasswordWrite}
}

func (d *localDirectory) ValidateUsername(_ *Options, username string) error {
	return validateUsername(username)
}

func (d *localDirectory) ListUsers(opts *Options) ([]AuthUser, error) {
	entries, err := local.ListByDomain(d.db, opts.DomainID)
	if err != nil {
		return nil, fmt.Errorf("failed to list local entries: %w", err)
	}

	users := make([]AuthUser, len(entries))
	for i, e := range entries {
		users[i] = AuthUser{UserID: e.UserID}
	}

	return users, nil
}

func (d *localDirectory) AddUser(opts *Options, user *AuthUser, password string) error {
	if opts.PasswordPolicy {
		if err := ValidatePasswordPolicy(password); err != nil {
			return err
		}
	}

	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	entry := models.LocalEntry{
		DomainID:     opts.DomainID,
		UserID:       SanitizeUsername(opts, user.UserID),
		PasswordHash: hash,
	}
	if err := local.Insert(d.db, &entry); err != nil {
		if errors.Is(err, local.ErrEntryAlreadyExists) {
			return ErrEntryExists
		}

		return err
	}

	return nil
}

func (d *localDirectory) DeleteUser(opts *Options, userID string) error {
	err := local.Delete(d.db, opts.DomainID, SanitizeUsername(opts, userID))
	if errors.Is(err, local.ErrEntryNotFound) {
		return ErrEntryNotFound
	}

	return err
}

func (d *localDirectory) UpdateUserPassword(opts *Options, userID, newPassword string) error {
	if opts.PasswordPolicy {
		if err := ValidatePasswordPolicy(newPassword); err != nil {
			return err
		}
	}

	hash, err := argon2id.CreateHash(newPassword, argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = local.UpdateHash(d.db, opts.DomainID, SanitizeUsername(opts, userID), hash)
	if errors.Is(err, local.ErrEntryNotFound) {
		return ErrEntryNotFound
	}

	return err
}

// CheckPassword verifies a password against the stored Argon2id hash.
func (d *localDirectory) CheckPassword(opts *Options, userID, password string) error {
	entry, err := local.Get(d.db, opts.DomainID, SanitizeUsername(opts, userID))
	if err != nil {
		if errors.Is(err, local.ErrEntryNotFound) {
			return ErrBadCredentials
		}

		return err
	}

	match, err := argon2id.ComparePasswordAndHash(password, entry.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to compare password: %w", err)
	}
	if !match {
		return ErrBadCredentials
	}

	return nil
}
