package directory

import "errors"

var (
	// ErrKindUnknown is returned for a directory URI scheme no backend serves.
	ErrKindUnknown = errors.New("unknown directory kind")
	// ErrEntryExists is returned when adding an entry that is already present.
	ErrEntryExists = errors.New("directory entry already exists")
	// ErrEntryNotFound is returned when an entry is not present.
	ErrEntryNotFound = errors.New("directory entry not found")
	// ErrCapabilityUnsupported is returned when an operation requires a
	// capability the backend does not declare.
	ErrCapabilityUnsupported = errors.New("capability not supported by directory")
	// ErrBadUsername is returned for a username the backend rejects.
	ErrBadUsername = errors.New("malformed username")
	// ErrWeakPassword is returned for a password failing the strong policy.
	ErrWeakPassword = errors.New("password does not satisfy policy")
	// ErrBadCredentials is returned when a password check fails.
	ErrBadCredentials = errors.New("bad credentials")
)
