package authflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// SubmitCredentials describes the submitcredentials operation and its observable behavior.
//
// SubmitCredentials starts a login attempt. Any previous pending attempt is
// implicitly cancelled first (last-call-wins, no queuing). The init-login
// response routes the machine to [StateOtpPhoneRequired], [StateOtpPending],
// [StateLegacyCodeRequired], or directly to [StateAuthenticated]; for
// challenge transitions the method returns nil and the caller observes the
// new state. Email format is not validated locally; the remote service
// decides. Exactly one network call is made.
func (e *Engine) SubmitCredentials(ctx context.Context, email, password string) error {
	if e == nil || e.verifier == nil || e.store == nil {
		return ErrEngineNotReady
	}
	if email == "" || password == "" {
		e.mu.Lock()
		e.lastErr = ErrInvalidCredentials
		state := e.state
		e.mu.Unlock()
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, state, false, "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"reason": "empty_input",
			}
		})
		return ErrInvalidCredentials
	}

	e.mu.Lock()
	if e.state == StateAuthenticated {
		state := e.state
		e.mu.Unlock()
		return e.stateViolation(ctx, state, "SubmitCredentials")
	}
	// Implicit cancel of any older attempt: the caller forgot to Cancel, the
	// new attempt wins and nothing of the old one may leak into it.
	e.pending = nil
	e.creds = &credentials{email: email, password: password}
	e.state = StateIdle
	e.lastErr = nil
	attempt := uuid.NewString()
	e.attempt = attempt
	e.mu.Unlock()

	start := time.Now()
	result, err := e.verifier.InitLogin(ctx, email, password)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricLoginLatency, time.Since(start))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.attempt != attempt {
		// Superseded or cancelled while in flight; drop the result.
		e.metricInc(MetricStaleResponseDiscarded)
		return ErrInvalidState
	}

	if err != nil {
		if errors.Is(err, ErrLegacyTwoFactorRequired) {
			// Legacy accounts signal through a distinguished failure, not a
			// response body flag. Credentials stay held: legacy-verify
			// resubmits them together with the code.
			e.pending = &pendingVerification{kind: pendingLegacy, attemptID: attempt}
			e.state = StateLegacyCodeRequired
			e.lastErr = nil
			e.metricInc(MetricChallengeStarted)
			e.emitAudit(ctx, auditEventChallengeStarted, StateLegacyCodeRequired, true, "", nil, func() map[string]string {
				return map[string]string{
					"kind": "legacy",
				}
			})
			return nil
		}
		e.creds = nil
		e.state = StateIdle
		e.lastErr = err
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, StateIdle, false, "", err, nil)
		return err
	}
	if result == nil {
		e.creds = nil
		e.state = StateIdle
		e.lastErr = ErrNetworkUnavailable
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, StateIdle, false, "", ErrNetworkUnavailable, func() map[string]string {
			return map[string]string{
				"reason": "empty_init_login_result",
			}
		})
		return ErrNetworkUnavailable
	}

	// Routing priority: phone collection first, then an already-issued
	// challenge, else the response is a completed login.
	switch {
	case result.PendingUserID != "":
		e.creds = nil
		e.pending = &pendingVerification{
			kind:          pendingPhone,
			attemptID:     attempt,
			pendingUserID: result.PendingUserID,
		}
		e.state = StateOtpPhoneRequired
		e.metricInc(MetricChallengeStarted)
		e.emitAudit(ctx, auditEventChallengeStarted, StateOtpPhoneRequired, true, result.PendingUserID, nil, func() map[string]string {
			return map[string]string{
				"kind": "otp_phone",
			}
		})
		return nil

	case result.Challenge != nil:
		e.creds = nil
		e.pending = &pendingVerification{
			kind:        pendingOtp,
			attemptID:   attempt,
			sessionID:   result.Challenge.SessionID,
			maskedPhone: result.Challenge.MaskedPhone,
		}
		e.state = StateOtpPending
		e.metricInc(MetricChallengeStarted)
		e.emitAudit(ctx, auditEventChallengeStarted, StateOtpPending, true, "", nil, func() map[string]string {
			return map[string]string{
				"kind": "otp",
			}
		})
		return nil

	default:
		if result.Session == nil || result.Session.Token == "" {
			e.creds = nil
			e.state = StateIdle
			e.lastErr = ErrNetworkUnavailable
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, StateIdle, false, "", ErrNetworkUnavailable, func() map[string]string {
				return map[string]string{
					"reason": "init_login_result_without_session",
				}
			})
			return ErrNetworkUnavailable
		}
		if err := e.completeLocked(ctx, result.Session); err != nil {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, e.state, false, result.Session.User.ID, err, func() map[string]string {
				return map[string]string{
					"reason": "session_save_failed",
				}
			})
			return err
		}
		e.metricInc(MetricLoginSuccess)
		e.emitAudit(ctx, auditEventLoginSuccess, StateAuthenticated, true, result.Session.User.ID, nil, nil)
		return nil
	}
}
