package authflow

import (
	"context"

	"github.com/wardline/authflow/session"
)

// FlowState represents the login state machine position.
//
// The zero value is [StateIdle].
type FlowState uint8

const (
	// StateIdle is an exported constant or variable used by the login engine.
	StateIdle FlowState = iota
	// StateOtpPhoneRequired is an exported constant or variable used by the login engine.
	StateOtpPhoneRequired
	// StateOtpPending is an exported constant or variable used by the login engine.
	StateOtpPending
	// StateLegacyCodeRequired is an exported constant or variable used by the login engine.
	StateLegacyCodeRequired
	// StateAuthenticated is an exported constant or variable used by the login engine.
	StateAuthenticated
)

// String describes the string operation and its observable behavior.
func (s FlowState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOtpPhoneRequired:
		return "otp_phone_required"
	case StateOtpPending:
		return "otp_pending"
	case StateLegacyCodeRequired:
		return "legacy_code_required"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// OtpChallenge is the server-held passcode challenge created by init-login
// or submit-phone: the opaque session id the code is bound to and the masked
// phone number the code was delivered to.
type OtpChallenge struct {
	SessionID   string
	MaskedPhone string
}

// InitLoginResult is the variant response of the init-login operation.
// Exactly one branch is populated, checked in priority order: PendingUserID
// (phone collection required), then Challenge (passcode already sent), then
// Session (login completed directly).
type InitLoginResult struct {
	PendingUserID string
	Challenge     *OtpChallenge
	Session       *session.Session
}

// Verifier is the request/response contract with the remote verification
// service. Implementations are stateless and carry no retry logic; every
// distinguishable failure maps to one of the package sentinels so the
// engine can route on errors.Is.
//
// The production implementation is [remote.Client]; tests substitute fakes.
type Verifier interface {
	InitLogin(ctx context.Context, email, password string) (*InitLoginResult, error)
	SubmitPhone(ctx context.Context, pendingUserID, phone string) (*OtpChallenge, error)
	VerifyOtp(ctx context.Context, sessionID, code string) (*session.Session, error)
	ResendOtp(ctx context.Context, sessionID string) error
	LegacyVerify(ctx context.Context, email, password, code string) (*session.Session, error)
	FetchCurrentUser(ctx context.Context, token string) (*session.User, error)
}

// LoginSnapshot is a consistent read of the engine's observable state,
// taken under the engine lock.
type LoginSnapshot struct {
	State       FlowState
	MaskedPhone string
	LastError   error
	User        *session.User
}

type pendingKind uint8

const (
	pendingNone pendingKind = iota
	pendingPhone
	pendingOtp
	pendingLegacy
)

// pendingVerification is the engine's record of an in-progress, not yet
// completed login challenge. At most one exists; it is owned exclusively by
// the engine and destroyed on success, cancellation, or supersession.
type pendingVerification struct {
	kind          pendingKind
	attemptID     string
	sessionID     string
	maskedPhone   string
	pendingUserID string
}

// credentials are held only while an attempt needs them and are never
// persisted.
type credentials struct {
	email    string
	password string
}
