package auth

import "errors"

var (
	// ErrInvalidArgument marks a request rejected before any storage access.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTokenMalformed marks a refresh token failing the format check.
	ErrTokenMalformed = errors.New("refresh token malformed")
	// ErrTokenNotFound marks a refresh token with no stored record.
	ErrTokenNotFound = errors.New("refresh token not found")
	// ErrTokenExpired marks a refresh token past its expiry.
	ErrTokenExpired = errors.New("refresh token expired")
	// ErrTokenRevoked marks a refresh token that has been revoked.
	ErrTokenRevoked = errors.New("refresh token revoked")
	// ErrSessionLimitExceeded marks an issue attempt at the active-token cap.
	ErrSessionLimitExceeded = errors.New("active session limit exceeded")
	// ErrUserNotFound marks a missing user account.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserDisabled marks a deactivated user account.
	ErrUserDisabled = errors.New("account is deactivated")
	// ErrUserExists marks a registration with a taken username or email.
	ErrUserExists = errors.New("username or email already exists")
	// ErrInvalidCredentials marks a failed username/password check.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidAccessToken marks an access token failing validation.
	ErrInvalidAccessToken = errors.New("invalid access token")
	// ErrNoExpiryClaim marks an access token without an exp claim.
	ErrNoExpiryClaim = errors.New("access token has no expiry claim")
	// ErrOperationFailed hides storage and signing failures from callers.
	// Details are logged, never returned.
	ErrOperationFailed = errors.New("operation failed")
)

// RevokeStatus distinguishes a fresh revocation from an idempotent repeat.
type RevokeStatus int

const (
	RevokeStatusRevoked RevokeStatus = iota
	RevokeStatusAlreadyRevoked
)

func (s RevokeStatus) String() string {
	if s == RevokeStatusAlreadyRevoked {
		return "already revoked"
	}
	return "revoked"
}

// isDomainError reports whether err is one of the tagged outcomes above,
// as opposed to an unexpected storage or signing failure.
func isDomainError(err error) bool {
	for _, domain := range []error{
		ErrInvalidArgument,
		ErrTokenMalformed,
		ErrTokenNotFound,
		ErrTokenExpired,
		ErrTokenRevoked,
		ErrSessionLimitExceeded,
		ErrUserNotFound,
		ErrUserDisabled,
		ErrUserExists,
		ErrInvalidCredentials,
		ErrInvalidAccessToken,
		ErrNoExpiryClaim,
	} {
		if errors.Is(err, domain) {
			return true
		}
	}
	return false
}
