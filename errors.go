package authflow

import "errors"

var (
	// ErrInvalidCredentials is an exported constant or variable used by the login engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLegacyTwoFactorRequired is an exported constant or variable used by the login engine.
	ErrLegacyTwoFactorRequired = errors.New("legacy two-factor code required")
	// ErrInvalidPhone is an exported constant or variable used by the login engine.
	ErrInvalidPhone = errors.New("invalid phone number")
	// ErrPendingUserNotFound is an exported constant or variable used by the login engine.
	ErrPendingUserNotFound = errors.New("pending user not found")
	// ErrInvalidCode is an exported constant or variable used by the login engine.
	ErrInvalidCode = errors.New("invalid verification code")
	// ErrOtpSessionExpired is an exported constant or variable used by the login engine.
	ErrOtpSessionExpired = errors.New("otp session expired")
	// ErrUnauthorized is an exported constant or variable used by the login engine.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNetworkUnavailable is an exported constant or variable used by the login engine.
	ErrNetworkUnavailable = errors.New("verification service unavailable")
	// ErrInvalidState is a caller protocol violation: the operation does not
	// apply to the engine's current state. It is raised before any network
	// call and indicates a host bug (for example a stale UI callback firing
	// after Cancel), not a user input error.
	ErrInvalidState = errors.New("operation invalid in current login state")
	// ErrEngineNotReady is an exported constant or variable used by the login engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
