package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	authflow "github.com/wardline/authflow"
	"github.com/wardline/authflow/session"
)

const (
	pathInitLogin    = "/auth/login"
	pathSubmitPhone  = "/auth/otp/phone"
	pathVerifyOtp    = "/auth/otp/verify"
	pathResendOtp    = "/auth/otp/resend"
	pathLegacyVerify = "/auth/totp/verify"
	pathCurrentUser  = "/auth/me"
)

// Backend error envelope codes. Codes take precedence over HTTP status so
// the backend can evolve status usage without breaking clients.
const (
	codeInvalidCredentials  = "invalid_credentials"
	codeLegacyTotpRequired  = "legacy_totp_required"
	codeInvalidPhone        = "invalid_phone"
	codePendingUserNotFound = "pending_user_not_found"
	codeInvalidCode         = "invalid_code"
	codeOtpSessionExpired   = "otp_session_expired"
	codeUnauthorized        = "unauthorized"
)

// ErrNilClient is returned when the client was not constructed with NewClient.
var ErrNilClient = errors.New("nil remote client")

// Client implements [authflow.Verifier] over HTTP/JSON.
//
// Client instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewClient creates a client for the backend at cfg.BaseURL. When
// httpClient is nil a client with cfg.Timeout is constructed.
func NewClient(cfg authflow.HTTPConfig, httpClient *http.Client) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("BaseURL required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		http:      httpClient,
	}, nil
}

var _ authflow.Verifier = (*Client)(nil)

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type initLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type initLoginResponse struct {
	Token         string        `json:"token,omitempty"`
	User          *session.User `json:"user,omitempty"`
	PendingUserID string        `json:"pending_user_id,omitempty"`
	OtpSessionID  string        `json:"otp_session_id,omitempty"`
	MaskedPhone   string        `json:"masked_phone,omitempty"`
}

type submitPhoneRequest struct {
	PendingUserID string `json:"pending_user_id"`
	Phone         string `json:"phone"`
}

type otpChallengeResponse struct {
	OtpSessionID string `json:"otp_session_id"`
	MaskedPhone  string `json:"masked_phone"`
}

type verifyOtpRequest struct {
	OtpSessionID string `json:"otp_session_id"`
	Code         string `json:"code"`
}

type resendOtpRequest struct {
	OtpSessionID string `json:"otp_session_id"`
}

type legacyVerifyRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  session.User `json:"user"`
}

type currentUserResponse struct {
	User session.User `json:"user"`
}

// InitLogin describes the initlogin operation and its observable behavior.
func (c *Client) InitLogin(ctx context.Context, email, password string) (*authflow.InitLoginResult, error) {
	if c == nil {
		return nil, ErrNilClient
	}

	var body initLoginResponse
	if err := c.post(ctx, pathInitLogin, initLoginRequest{Email: email, Password: password}, &body); err != nil {
		return nil, err
	}

	// Routing priority mirrors the engine: phone collection, then an
	// already-issued challenge, else direct completion.
	switch {
	case body.PendingUserID != "":
		return &authflow.InitLoginResult{PendingUserID: body.PendingUserID}, nil
	case body.OtpSessionID != "":
		return &authflow.InitLoginResult{
			Challenge: &authflow.OtpChallenge{
				SessionID:   body.OtpSessionID,
				MaskedPhone: body.MaskedPhone,
			},
		}, nil
	case body.Token != "" && body.User != nil:
		return &authflow.InitLoginResult{
			Session: &session.Session{Token: body.Token, User: *body.User},
		}, nil
	default:
		return nil, fmt.Errorf("%w: unrecognized init-login response", authflow.ErrNetworkUnavailable)
	}
}

// SubmitPhone describes the submitphone operation and its observable behavior.
func (c *Client) SubmitPhone(ctx context.Context, pendingUserID, phone string) (*authflow.OtpChallenge, error) {
	if c == nil {
		return nil, ErrNilClient
	}

	var body otpChallengeResponse
	if err := c.post(ctx, pathSubmitPhone, submitPhoneRequest{PendingUserID: pendingUserID, Phone: phone}, &body); err != nil {
		return nil, err
	}
	if body.OtpSessionID == "" {
		return nil, fmt.Errorf("%w: challenge response missing session id", authflow.ErrNetworkUnavailable)
	}
	return &authflow.OtpChallenge{
		SessionID:   body.OtpSessionID,
		MaskedPhone: body.MaskedPhone,
	}, nil
}

// VerifyOtp describes the verifyotp operation and its observable behavior.
func (c *Client) VerifyOtp(ctx context.Context, sessionID, code string) (*session.Session, error) {
	if c == nil {
		return nil, ErrNilClient
	}

	var body sessionResponse
	if err := c.post(ctx, pathVerifyOtp, verifyOtpRequest{OtpSessionID: sessionID, Code: code}, &body); err != nil {
		return nil, err
	}
	if body.Token == "" {
		return nil, fmt.Errorf("%w: verify response missing token", authflow.ErrNetworkUnavailable)
	}
	return &session.Session{Token: body.Token, User: body.User}, nil
}

// ResendOtp describes the resendotp operation and its observable behavior.
func (c *Client) ResendOtp(ctx context.Context, sessionID string) error {
	if c == nil {
		return ErrNilClient
	}
	return c.post(ctx, pathResendOtp, resendOtpRequest{OtpSessionID: sessionID}, nil)
}

// LegacyVerify describes the legacyverify operation and its observable behavior.
func (c *Client) LegacyVerify(ctx context.Context, email, password, code string) (*session.Session, error) {
	if c == nil {
		return nil, ErrNilClient
	}

	var body sessionResponse
	if err := c.post(ctx, pathLegacyVerify, legacyVerifyRequest{Email: email, Password: password, Code: code}, &body); err != nil {
		return nil, err
	}
	if body.Token == "" {
		return nil, fmt.Errorf("%w: verify response missing token", authflow.ErrNetworkUnavailable)
	}
	return &session.Session{Token: body.Token, User: body.User}, nil
}

// FetchCurrentUser describes the fetchcurrentuser operation and its observable behavior.
func (c *Client) FetchCurrentUser(ctx context.Context, token string) (*session.User, error) {
	if c == nil {
		return nil, ErrNilClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathCurrentUser, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", authflow.ErrNetworkUnavailable, err)
	}
	c.decorate(ctx, req)
	req.Header.Set("Authorization", "Bearer "+token)

	var body currentUserResponse
	if err := c.do(req, &body); err != nil {
		return nil, err
	}
	if body.User.ID == "" {
		return nil, fmt.Errorf("%w: current-user response missing id", authflow.ErrNetworkUnavailable)
	}
	return &body.User, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	blob, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: encode request: %v", authflow.ErrNetworkUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(blob))
	if err != nil {
		return fmt.Errorf("%w: %v", authflow.ErrNetworkUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.decorate(ctx, req)

	return c.do(req, out)
}

func (c *Client) decorate(ctx context.Context, req *http.Request) {
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if deviceID := authflow.DeviceIDFromContext(ctx); deviceID != "" {
		req.Header.Set("X-Device-ID", deviceID)
	}
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", authflow.ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", authflow.ErrNetworkUnavailable, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: decode response: %v", authflow.ErrNetworkUnavailable, err)
		}
		return nil
	}

	return mapFailure(resp.StatusCode, raw)
}

// mapFailure translates a backend failure to a sentinel. The envelope code
// wins; status is the fallback for backends that omit the envelope.
func mapFailure(status int, raw []byte) error {
	var envelope errorEnvelope
	_ = json.Unmarshal(raw, &envelope)

	switch envelope.Code {
	case codeInvalidCredentials:
		return authflow.ErrInvalidCredentials
	case codeLegacyTotpRequired:
		return authflow.ErrLegacyTwoFactorRequired
	case codeInvalidPhone:
		return authflow.ErrInvalidPhone
	case codePendingUserNotFound:
		return authflow.ErrPendingUserNotFound
	case codeInvalidCode:
		return authflow.ErrInvalidCode
	case codeOtpSessionExpired:
		return authflow.ErrOtpSessionExpired
	case codeUnauthorized:
		return authflow.ErrUnauthorized
	}

	switch status {
	case http.StatusPreconditionRequired:
		// The legacy 2FA marker is a distinguished status, not a body flag.
		return authflow.ErrLegacyTwoFactorRequired
	case http.StatusUnauthorized:
		return authflow.ErrUnauthorized
	case http.StatusGone:
		return authflow.ErrOtpSessionExpired
	case http.StatusNotFound:
		return authflow.ErrPendingUserNotFound
	default:
		return fmt.Errorf("%w: status %d", authflow.ErrNetworkUnavailable, status)
	}
}
