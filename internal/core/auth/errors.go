package auth

import "errors"

// Missing, malformed and unknown keys all map to UNAUTHENTICATED so the
// response never confirms that a key exists. Revoked keys map to
// PERMISSION_DENIED. ErrStoreUnavailable maps to UNAVAILABLE.
var (
	ErrMissingKey       = errors.New("API key required in x-api-key metadata")
	ErrInvalidKeyFormat = errors.New("invalid API key format")
	ErrUnknownKey       = errors.New("unknown secret ID")
	ErrInvalidKey       = errors.New("invalid API key")
	ErrKeyRevoked       = errors.New("API key has been revoked")
	ErrStoreUnavailable = errors.New("key store unavailable")
)
