package identity

import "errors"

var (
	// ErrNotFound is returned when an addressed entity does not exist.
	ErrNotFound = errors.New("entity not found")
	// ErrAlreadyExists is returned when creating an entity that exists.
	ErrAlreadyExists = errors.New("entity already exists")
	// ErrValidation is returned when an entity fails field validation.
	ErrValidation = errors.New("entity validation failed")
	// ErrBadProfileID is returned for a profile ID that does not parse.
	ErrBadProfileID = errors.New("malformed profile id")
	// ErrCacheMiss is returned when an identity is absent from the UID cache.
	// The caches mirror the principal tables completely, so a miss means the
	// addressed identity does not exist or the caches are stale.
	ErrCacheMiss = errors.New("identity not present in cache")
	// ErrReservedGroup is returned when deleting one of the built-in groups.
	ErrReservedGroup = errors.New("group is reserved")
	// ErrDirUnsupported is returned when an operation needs a directory
	// capability the domain's backend does not declare.
	ErrDirUnsupported = errors.New("operation not supported by domain directory")
)
