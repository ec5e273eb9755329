package identity

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	contentdb "github.com/tenantcore/tenantcore/internal/db/controller/content"
	roledb "github.com/tenantcore/tenantcore/internal/db/controller/role"
	userdb "github.com/tenantcore/tenantcore/internal/db/controller/user"
	"github.com/tenantcore/tenantcore/internal/db/models"
	"github.com/tenantcore/tenantcore/internal/directory"
)

// otpIssuer is the issuer stamped on minted two-factor secrets.
const otpIssuer = "tenantcore"

// GetUserEntity loads a user with its memberships, direct role grants and
// own-UID permissions.
func (m *Manager) GetUserEntity(pid ProfileID) (*UserEntity, error) {
	u, err := userdb.Get(m.db, pid.DomainID, pid.UserID)
	if err != nil {
		if errors.Is(err, userdb.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, pid)
		}

		return nil, err
	}

	entity := &UserEntity{
		DomainID:    u.DomainID,
		UserID:      u.UserID,
		Enabled:     u.Enabled,
		DisplayName: u.DisplayName,
	}

	if info, errInfo := userdb.GetInfo(m.db, pid.DomainID, pid.UserID); errInfo == nil {
		entity.FirstName = info.FirstName
		entity.LastName = info.LastName
		entity.Email = info.Email
	} else if !errors.Is(errInfo, userdb.ErrUserInfoNotFound) {
		return nil, errInfo
	}

	groups, err := userdb.AssignedGroups(m.db, u.UserUID)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		entity.AssignedGroups = append(entity.AssignedGroups, g.GroupID)
	}

	roles, err := roledb.AssignedRoles(m.db, u.UserUID)
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		entity.AssignedRoles = append(entity.AssignedRoles, r.RoleUID)
	}

	perms, err := roledb.ListPermissions(m.db, u.UserUID)
	if err != nil {
		return nil, err
	}
	for _, p := range perms {
		entity.Permissions = append(entity.Permissions, Permission{
			ServiceID: p.ServiceID,
			Key:       p.Key,
			Action:    p.Action,
			Instance:  p.Instance,
		})
	}

	return entity, nil
}

// ListUsers retrieves the users of a domain as entities without memberships.
func (m *Manager) ListUsers(domainID string, enabledOnly bool) ([]UserEntity, error) {
	rows, err := userdb.ListByDomain(m.db, domainID, enabledOnly)
	if err != nil {
		return nil, err
	}

	out := make([]UserEntity, len(rows))
	for i, u := range rows {
		out[i] = UserEntity{
			DomainID:    u.DomainID,
			UserID:      u.UserID,
			Enabled:     u.Enabled,
			DisplayName: u.DisplayName,
		}
	}

	return out, nil
}

// ListDirectoryUsers enumerates the entries of the domain's backend. Backends
// that cannot be read fall back to the stored user rows.
func (m *Manager) ListDirectoryUsers(domainID string) ([]directory.AuthUser, error) {
	entity, err := m.GetDomain(domainID)
	if err != nil {
		return nil, err
	}

	dir, opts, err := m.directoryFor(entity)
	if err != nil {
		return nil, err
	}
	if directory.Has(dir, directory.CapUsersRead) {
		return dir.ListUsers(opts)
	}

	users, err := m.ListUsers(domainID, false)
	if err != nil {
		return nil, err
	}

	out := make([]directory.AuthUser, len(users))
	for i, u := range users {
		out[i] = directory.AuthUser{
			UserID:      u.UserID,
			FirstName:   u.FirstName,
			LastName:    u.LastName,
			DisplayName: u.DisplayName,
			Email:       u.Email,
		}
	}

	return out, nil
}

// CheckUser reports whether a user exists and both the user and its domain
// are enabled.
func (m *Manager) CheckUser(pid ProfileID) (bool, error) {
	d, err := m.GetDomain(pid.DomainID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}

		return false, err
	}
	if !d.Enabled {
		return false, nil
	}

	u, err := userdb.Get(m.db, pid.DomainID, pid.UserID)
	if err != nil {
		if errors.Is(err, userdb.ErrUserNotFound) {
			return false, nil
		}

		return false, err
	}

	return u.Enabled, nil
}

// AddUser creates a user with its personal info, memberships, direct role
// grants and own-UID permissions in one transaction. With updateDirectory set
// the domain's backend is provisioned too: the username is validated first,
// a password is minted when none is given and the backend can store one, and
// an entry already present on the backend is treated as benign.
func (m *Manager) AddUser(updateDirectory bool, entity *UserEntity, password *string) (*UserEntity, error) {
	if err := m.validateEntity(entity); err != nil {
		return nil, err
	}

	domainEntity, err := m.GetDomain(entity.DomainID)
	if err != nil {
		return nil, err
	}

	dir, opts, err := m.directoryFor(domainEntity)
	if err != nil {
		return nil, err
	}

	entity.UserID = directory.SanitizeUsername(opts, entity.UserID)
	pid := NewProfileID(entity.DomainID, entity.UserID)

	var userPassword string
	if updateDirectory && directory.Has(dir, directory.CapUsersWrite) {
		if errName := dir.ValidateUsername(opts, entity.UserID); errName != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, errName)
		}

		if directory.Has(dir, directory.CapPasswordWrite) {
			if password == nil {
				userPassword = directory.GeneratePassword()
			} else {
				userPassword = *password
				if opts.PasswordPolicy {
					if errPolicy := directory.ValidatePasswordPolicy(userPassword); errPolicy != nil {
						return nil, fmt.Errorf("%w: %v", ErrValidation, errPolicy)
					}
				}
			}
		}
	}

	userUID := uuid.NewString()

	// Two-factor secret material is minted only for domains with enrollment
	// enabled; everyone else starts without a secret.
	var secret string
	if m.settings != nil {
		otpEnabled, errOTP := m.settings.OTPEnabled(entity.DomainID)
		if errOTP != nil {
			return nil, errOTP
		}
		if otpEnabled {
			if secret, err = mintSecret(pid); err != nil {
				return nil, err
			}
		}
	}

	groupUIDs, err := m.groupUIDsOf(entity.DomainID, entity.AssignedGroups)
	if err != nil {
		return nil, err
	}

	err = m.db.Transaction(func(tx *gorm.DB) error {
		row := models.User{
			DomainID:    entity.DomainID,
			UserID:      entity.UserID,
			Enabled:     entity.Enabled,
			UserUID:     userUID,
			DisplayName: entity.DisplayName,
			Secret:      secret,
		}
		if errTx := userdb.Insert(tx, &row); errTx != nil {
			if errors.Is(errTx, userdb.ErrUserAlreadyExists) {
				return fmt.Errorf("%w: user %s", ErrAlreadyExists, pid)
			}

			return errTx
		}

		info := models.UserInfo{
			DomainID:  entity.DomainID,
			UserID:    entity.UserID,
			FirstName: entity.FirstName,
			LastName:  entity.LastName,
			Email:     entity.Email,
		}
		if errTx := userdb.InsertInfo(tx, &info); errTx != nil {
			return errTx
		}

		for _, groupUID := range groupUIDs {
			if _, errTx := userdb.InsertAssociation(tx, userUID, groupUID); errTx != nil {
				return errTx
			}
		}

		for _, roleUID := range entity.AssignedRoles {
			if _, errTx := roledb.InsertAssociation(tx, userUID, roleUID); errTx != nil {
				return errTx
			}
		}

		return insertPermissions(tx, userUID, entity.Permissions)
	})
	if err != nil {
		return nil, err
	}

	m.users.put(pid, userUID)

	if updateDirectory && directory.Has(dir, directory.CapUsersWrite) {
		authUser := directory.AuthUser{
			UserID:      entity.UserID,
			FirstName:   entity.FirstName,
			LastName:    entity.LastName,
			DisplayName: entity.DisplayName,
			Email:       entity.Email,
		}
		if errDir := dir.AddUser(opts, &authUser, userPassword); errDir != nil {
			if !errors.Is(errDir, directory.ErrEntryExists) {
				return nil, fmt.Errorf("failed to provision directory entry: %w", errDir)
			}
			log.Debug().Str("user", pid.String()).Msg("directory entry already present")
		}
	}

	m.seedUserSettings(pid)

	m.audit(pid.DomainID, pid.UserID, "user.create", "")

	log.Info().Str("user", pid.String()).Msg("user created")

	return entity, nil
}

// seedUserSettings writes the user's initial setting rows. Failures are
// logged, never returned.
func (m *Manager) seedUserSettings(pid ProfileID) {
	if m.settings == nil {
		return
	}

	lang, err := m.settings.LanguageTag(pid.DomainID, "")
	if err == nil && lang != "" {
		if errSet := m.settings.SetUserLanguageTag(pid.DomainID, pid.UserID, lang); errSet != nil {
			log.Warn().Err(errSet).Str("user", pid.String()).Msg("failed to seed language tag")
		}
	}

	tz, err := m.settings.Timezone(pid.DomainID, "")
	if err == nil && tz != "" {
		if errSet := m.settings.SetUserTimezone(pid.DomainID, pid.UserID, tz); errSet != nil {
			log.Warn().Err(errSet).Str("user", pid.String()).Msg("failed to seed timezone")
		}
	}
}

// UpdateUser rewrites a user's core fields and reconciles its memberships,
// role grants and permissions against the stored state. Unchanged rows stay
// untouched; the diff deletes and inserts the rest inside one transaction.
func (m *Manager) UpdateUser(entity *UserEntity) error {
	if err := m.validateEntity(entity); err != nil {
		return err
	}

	pid := NewProfileID(entity.DomainID, entity.UserID)
	userUID, err := m.users.uid(pid)
	if err != nil {
		return err
	}

	current, err := m.GetUserEntity(pid)
	if err != nil {
		return err
	}

	groupChanges := Changes(current.AssignedGroups, entity.AssignedGroups,
		func(g string) string { return g })
	roleChanges := Changes(current.AssignedRoles, entity.AssignedRoles,
		func(r string) string { return r })
	permChanges := Changes(current.Permissions, entity.Permissions, keyOfPermission)

	insertedGroupUIDs, err := m.groupUIDsOf(entity.DomainID, groupChanges.Inserted)
	if err != nil {
		return err
	}
	deletedGroupUIDs, err := m.groupUIDsOf(entity.DomainID, groupChanges.Deleted)
	if err != nil {
		return err
	}

	err = m.db.Transaction(func(tx *gorm.DB) error {
		row := models.User{
			DomainID:    entity.DomainID,
			UserID:      entity.UserID,
			Enabled:     entity.Enabled,
			DisplayName: entity.DisplayName,
		}
		if errTx := userdb.UpdateEnabledDisplayName(tx, &row); errTx != nil {
			return errTx
		}

		info := models.UserInfo{
			DomainID:  entity.DomainID,
			UserID:    entity.UserID,
			FirstName: entity.FirstName,
			LastName:  entity.LastName,
		}
		if errTx := userdb.UpdateInfoNames(tx, &info); errTx != nil &&
			!errors.Is(errTx, userdb.ErrUserInfoNotFound) {
			return errTx
		}

		for _, groupUID := range deletedGroupUIDs {
			if errTx := deleteAssociation(tx, userUID, groupUID); errTx != nil {
				return errTx
			}
		}
		for _, groupUID := range insertedGroupUIDs {
			if _, errTx := userdb.InsertAssociation(tx, userUID, groupUID); errTx != nil {
				return errTx
			}
		}

		for _, roleUID := range roleChanges.Deleted {
			if errTx := deleteRoleGrant(tx, userUID, roleUID); errTx != nil {
				return errTx
			}
		}
		for _, roleUID := range roleChanges.Inserted {
			if _, errTx := roledb.InsertAssociation(tx, userUID, roleUID); errTx != nil {
				return errTx
			}
		}

		for _, p := range permChanges.Deleted {
			row := models.RolePermission{
				RoleUID:   userUID,
				ServiceID: p.ServiceID,
				Key:       p.Key,
				Action:    p.Action,
				Instance:  p.Instance,
			}
			if errTx := roledb.DeletePermission(tx, &row); errTx != nil {
				return errTx
			}
		}

		return insertPermissions(tx, userUID, permChanges.Inserted)
	})
	if err != nil {
		return err
	}

	m.profiles.remove(pid)

	m.audit(pid.DomainID, pid.UserID, "user.update", "")

	log.Info().Str("user", pid.String()).Msg("user updated")

	return nil
}

// UpdateUserEnabled flips a user's enabled flag.
func (m *Manager) UpdateUserEnabled(pid ProfileID, enabled bool) error {
	ok, err := userdb.UpdateEnabled(m.db, pid.DomainID, pid.UserID, enabled)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: user %s", ErrNotFound, pid)
	}

	m.profiles.remove(pid)

	return nil
}

// UpdateUserDisplayName rewrites a user's display name.
func (m *Manager) UpdateUserDisplayName(pid ProfileID, displayName string) error {
	ok, err := userdb.UpdateDisplayName(m.db, pid.DomainID, pid.UserID, displayName)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: user %s", ErrNotFound, pid)
	}

	m.profiles.remove(pid)

	return nil
}

// DeleteUser removes a user with its info, settings, memberships, grants and
// own-UID permissions in one transaction. With cleanupDirectory set the
// backend entry is dropped afterwards; a backend failure is logged only.
func (m *Manager) DeleteUser(pid ProfileID, cleanupDirectory bool) error {
	userUID, err := m.users.uid(pid)
	if err != nil {
		return err
	}

	err = m.db.Transaction(func(tx *gorm.DB) error {
		if errTx := contentdb.DeleteByUser(tx, pid.DomainID, pid.UserID); errTx != nil {
			return errTx
		}
		if errTx := userdb.DeleteAssociationsByUser(tx, userUID); errTx != nil {
			return errTx
		}
		if errTx := roledb.DeleteAssociationsBySubject(tx, userUID); errTx != nil {
			return errTx
		}
		if errTx := roledb.DeletePermissionsByRole(tx, userUID); errTx != nil {
			return errTx
		}
		if errTx := userdb.DeleteInfo(tx, pid.DomainID, pid.UserID); errTx != nil {
			return errTx
		}

		return userdb.Delete(tx, pid.DomainID, pid.UserID)
	})
	if err != nil {
		if errors.Is(err, userdb.ErrUserNotFound) {
			return fmt.Errorf("%w: user %s", ErrNotFound, pid)
		}

		return err
	}

	if m.settings != nil {
		if errClear := m.settings.ClearUser(pid.DomainID, pid.UserID); errClear != nil {
			log.Warn().Err(errClear).Str("user", pid.String()).Msg("failed to clear user settings")
		}
	}

	m.users.removeByProfile(pid)
	m.profiles.remove(pid)

	if cleanupDirectory {
		m.cleanupUserDirectory(pid)
	}

	m.audit(pid.DomainID, pid.UserID, "user.delete", "")

	log.Info().Str("user", pid.String()).Msg("user deleted")

	return nil
}

// cleanupUserDirectory drops one backend entry. Best effort.
func (m *Manager) cleanupUserDirectory(pid ProfileID) {
	entity, err := m.GetDomain(pid.DomainID)
	if err != nil {
		log.Warn().Err(err).Str("user", pid.String()).Msg("skipping directory cleanup")

		return
	}

	dir, opts, err := m.directoryFor(entity)
	if err != nil || !directory.Has(dir, directory.CapUsersWrite) {
		return
	}

	if errDel := dir.DeleteUser(opts, pid.UserID); errDel != nil &&
		!errors.Is(errDel, directory.ErrEntryNotFound) {
		log.Warn().Err(errDel).Str("user", pid.String()).Msg("failed to delete directory entry")
	}
}

// UpdateUserPassword overwrites a user's backend password. With oldPassword
// set the current credentials are verified first.
func (m *Manager) UpdateUserPassword(pid ProfileID, oldPassword, newPassword *string) error {
	entity, err := m.GetDomain(pid.DomainID)
	if err != nil {
		return err
	}

	dir, opts, err := m.directoryFor(entity)
	if err != nil {
		return err
	}
	if !directory.Has(dir, directory.CapPasswordWrite) {
		return ErrDirUnsupported
	}
	if newPassword == nil {
		return fmt.Errorf("%w: new password required", ErrValidation)
	}

	if oldPassword != nil {
		auth, ok := dir.(directory.Authenticator)
		if !ok {
			return ErrDirUnsupported
		}
		if errCheck := auth.CheckPassword(opts, pid.UserID, *oldPassword); errCheck != nil {
			return errCheck
		}
	}

	return dir.UpdateUserPassword(opts, pid.UserID, *newPassword)
}

// AuthenticateUser verifies a user's credentials against the domain backend.
// The user and domain must both be enabled.
func (m *Manager) AuthenticateUser(pid ProfileID, password string) error {
	ok, err := m.CheckUser(pid)
	if err != nil {
		return err
	}
	if !ok {
		return directory.ErrBadCredentials
	}

	entity, err := m.GetDomain(pid.DomainID)
	if err != nil {
		return err
	}

	dir, opts, err := m.directoryFor(entity)
	if err != nil {
		return err
	}

	auth, okAuth := dir.(directory.Authenticator)
	if !okAuth {
		return ErrDirUnsupported
	}

	return auth.CheckPassword(opts, pid.UserID, password)
}

// UserPersonalInfo serves a user's personal-info sheet from cache, loading it
// on first access.
func (m *Manager) UserPersonalInfo(pid ProfileID) (*PersonalInfo, error) {
	return m.profiles.personalInfo(pid, func() (*PersonalInfo, error) {
		info, err := userdb.GetInfo(m.db, pid.DomainID, pid.UserID)
		if err != nil {
			if errors.Is(err, userdb.ErrUserInfoNotFound) {
				return nil, fmt.Errorf("%w: user %s", ErrNotFound, pid)
			}

			return nil, err
		}

		return &PersonalInfo{
			FirstName: info.FirstName,
			LastName:  info.LastName,
			Email:     info.Email,
			Title:     info.Title,
			Nickname:  info.Nickname,
			Telephone: info.Telephone,
			Mobile:    info.Mobile,
			Address:   info.Address,
			City:      info.City,
			Country:   info.Country,
			Company:   info.Company,
		}, nil
	})
}

// UpdateUserPersonalInfo rewrites a user's personal-info sheet and drops the
// cached copies.
func (m *Manager) UpdateUserPersonalInfo(pid ProfileID, info *PersonalInfo) error {
	row := models.UserInfo{
		DomainID:  pid.DomainID,
		UserID:    pid.UserID,
		FirstName: info.FirstName,
		LastName:  info.LastName,
		Email:     info.Email,
		Title:     info.Title,
		Nickname:  info.Nickname,
		Telephone: info.Telephone,
		Mobile:    info.Mobile,
		Address:   info.Address,
		City:      info.City,
		Country:   info.Country,
		Company:   info.Company,
	}

	ok, err := userdb.UpdateInfo(m.db, &row)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: user %s", ErrNotFound, pid)
	}

	m.profiles.remove(pid)

	return nil
}

// UserData serves the derived per-user sheet from cache: display name, the
// resolved language tag and timezone, and the contact email.
func (m *Manager) UserData(pid ProfileID) (*ProfileData, error) {
	return m.profiles.profileData(pid, func() (*ProfileData, error) {
		u, err := userdb.Get(m.db, pid.DomainID, pid.UserID)
		if err != nil {
			if errors.Is(err, userdb.ErrUserNotFound) {
				return nil, fmt.Errorf("%w: user %s", ErrNotFound, pid)
			}

			return nil, err
		}

		data := &ProfileData{DisplayName: u.DisplayName}

		if info, errInfo := userdb.GetInfo(m.db, pid.DomainID, pid.UserID); errInfo == nil {
			data.Email = info.Email
		} else if !errors.Is(errInfo, userdb.ErrUserInfoNotFound) {
			return nil, errInfo
		}

		if m.settings != nil {
			if lang, errLang := m.settings.LanguageTag(pid.DomainID, pid.UserID); errLang == nil {
				data.LanguageTag = lang
			}
			if tz, errTz := m.settings.Timezone(pid.DomainID, pid.UserID); errTz == nil {
				data.Timezone = tz
			}
		}

		return data, nil
	})
}

// groupUIDsOf maps group IDs to UIDs through the group cache.
func (m *Manager) groupUIDsOf(domainID string, groupIDs []string) ([]string, error) {
	uids := make([]string, 0, len(groupIDs))
	for _, groupID := range groupIDs {
		uid, err := m.groups.uid(NewProfileID(domainID, groupID))
		if err != nil {
			return nil, err
		}
		uids = append(uids, uid)
	}

	return uids, nil
}

// insertPermissions attaches permission rows to a principal UID.
func insertPermissions(tx *gorm.DB, ownerUID string, perms []Permission) error {
	for _, p := range perms {
		row := models.RolePermission{
			RoleUID:   ownerUID,
			ServiceID: p.ServiceID,
			Key:       p.Key,
			Action:    p.Action,
			Instance:  p.Instance,
		}
		if err := roledb.InsertPermission(tx, &row); err != nil {
			return err
		}
	}

	return nil
}

// deleteAssociation removes one user-group membership addressed by UIDs.
func deleteAssociation(tx *gorm.DB, userUID, groupUID string) error {
	return tx.Where("user_uid = ? AND group_uid = ?", userUID, groupUID).
		Delete(&models.UserAssociation{}).Error
}

// deleteRoleGrant removes one direct role grant addressed by UIDs.
func deleteRoleGrant(tx *gorm.DB, userUID, roleUID string) error {
	return tx.Where("user_uid = ? AND role_uid = ?", userUID, roleUID).
		Delete(&models.RoleAssociation{}).Error
}

// mintSecret generates the per-user two-factor secret.
func mintSecret(pid ProfileID) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      otpIssuer,
		AccountName: pid.String(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to mint secret: %w", err)
	}

	return key.Secret(), nil
}
