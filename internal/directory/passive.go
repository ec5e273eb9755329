package directory

// passiveDirectory covers backends used only as external authentication
// endpoints (IMAP, SMB, SFTP). They expose no enumeration or provisioning;
// every operation beyond username validation reports the missing capability.
type passiveDirectory struct {
	kind Kind
}

func (d *passiveDirectory) Kind() Kind {
	return d.kind
}

func (d *passiveDirectory) Capabilities() []string {
	return nil
}

func (d *passiveDirectory) ValidateUsername(_ *Options, username string) error {
	return validateUsername(username)
}

func (d *passiveDirectory) ListUsers(_ *Options) ([]AuthUser, error) {
	return nil, ErrCapabilityUnsupported
}

func (d *passiveDirectory) AddUser(_ *Options, _ *AuthUser, _ string) error {
	return ErrCapabilityUnsupported
}

func (d *passiveDirectory) DeleteUser(_ *Options, _ string) error {
	return ErrCapabilityUnsupported
}

func (d *passiveDirectory) UpdateUserPassword(_ *Options, _, _ string) error {
	return ErrCapabilityUnsupported
}
