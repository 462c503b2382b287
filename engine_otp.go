package authflow

import "context"

// SubmitPhone describes the submitphone operation and its observable behavior.
//
// SubmitPhone is valid only in [StateOtpPhoneRequired]. On success the
// service issues a passcode challenge and the machine moves to
// [StateOtpPending]; on failure the machine stays put with the error
// surfaced so the user can correct the number.
func (e *Engine) SubmitPhone(ctx context.Context, phone string) error {
	if e == nil || e.verifier == nil {
		return ErrEngineNotReady
	}

	e.mu.Lock()
	if e.state != StateOtpPhoneRequired || e.pending == nil || e.pending.kind != pendingPhone {
		state := e.state
		e.mu.Unlock()
		return e.stateViolation(ctx, state, "SubmitPhone")
	}
	attempt := e.pending.attemptID
	pendingUserID := e.pending.pendingUserID
	e.mu.Unlock()

	challenge, err := e.verifier.SubmitPhone(ctx, pendingUserID, phone)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil || e.pending.attemptID != attempt {
		e.metricInc(MetricStaleResponseDiscarded)
		return ErrInvalidState
	}
	if err != nil {
		e.lastErr = err
		e.metricInc(MetricChallengeFailure)
		e.emitAudit(ctx, auditEventChallengeFailure, e.state, false, pendingUserID, err, func() map[string]string {
			return map[string]string{
				"operation": "submit_phone",
			}
		})
		return err
	}
	if challenge == nil || challenge.SessionID == "" {
		e.lastErr = ErrNetworkUnavailable
		e.metricInc(MetricChallengeFailure)
		e.emitAudit(ctx, auditEventChallengeFailure, e.state, false, pendingUserID, ErrNetworkUnavailable, func() map[string]string {
			return map[string]string{
				"operation": "submit_phone",
				"reason":    "empty_challenge",
			}
		})
		return ErrNetworkUnavailable
	}

	e.pending = &pendingVerification{
		kind:        pendingOtp,
		attemptID:   attempt,
		sessionID:   challenge.SessionID,
		maskedPhone: challenge.MaskedPhone,
	}
	e.state = StateOtpPending
	e.lastErr = nil
	e.metricInc(MetricChallengeStarted)
	e.emitAudit(ctx, auditEventChallengeStarted, StateOtpPending, true, pendingUserID, nil, func() map[string]string {
		return map[string]string{
			"kind": "otp",
		}
	})
	return nil
}

// SubmitOtp describes the submitotp operation and its observable behavior.
//
// SubmitOtp is valid only in [StateOtpPending]. A wrong code keeps the
// challenge alive ([ErrInvalidCode]); an expired challenge is surfaced
// distinctly ([ErrOtpSessionExpired]) so the host can offer "start over"
// instead of "retype code". Success persists the session and authenticates.
func (e *Engine) SubmitOtp(ctx context.Context, code string) error {
	if e == nil || e.verifier == nil || e.store == nil {
		return ErrEngineNotReady
	}

	e.mu.Lock()
	if e.state != StateOtpPending || e.pending == nil || e.pending.kind != pendingOtp {
		state := e.state
		e.mu.Unlock()
		return e.stateViolation(ctx, state, "SubmitOtp")
	}
	attempt := e.pending.attemptID
	sessionID := e.pending.sessionID
	e.mu.Unlock()

	sess, err := e.verifier.VerifyOtp(ctx, sessionID, code)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil || e.pending.attemptID != attempt {
		// Cancelled or superseded while the verify call was in flight; a
		// late success must not resurrect the flow.
		e.metricInc(MetricStaleResponseDiscarded)
		return ErrInvalidState
	}
	if err != nil {
		e.lastErr = err
		e.metricInc(MetricChallengeFailure)
		e.emitAudit(ctx, auditEventChallengeFailure, e.state, false, "", err, func() map[string]string {
			return map[string]string{
				"operation": "verify_otp",
			}
		})
		return err
	}
	if sess == nil || sess.Token == "" {
		e.lastErr = ErrNetworkUnavailable
		e.metricInc(MetricChallengeFailure)
		e.emitAudit(ctx, auditEventChallengeFailure, e.state, false, "", ErrNetworkUnavailable, func() map[string]string {
			return map[string]string{
				"operation": "verify_otp",
				"reason":    "empty_session",
			}
		})
		return ErrNetworkUnavailable
	}

	if err := e.completeLocked(ctx, sess); err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, e.state, false, sess.User.ID, err, func() map[string]string {
			return map[string]string{
				"reason": "session_save_failed",
			}
		})
		return err
	}
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, StateAuthenticated, true, sess.User.ID, nil, nil)
	return nil
}

// ResendOtp describes the resendotp operation and its observable behavior.
//
// ResendOtp reuses the existing challenge session id. A failed resend does
// not invalidate the pending challenge: a previously delivered code remains
// submittable.
func (e *Engine) ResendOtp(ctx context.Context) error {
	if e == nil || e.verifier == nil {
		return ErrEngineNotReady
	}

	e.mu.Lock()
	if e.state != StateOtpPending || e.pending == nil || e.pending.kind != pendingOtp {
		state := e.state
		e.mu.Unlock()
		return e.stateViolation(ctx, state, "ResendOtp")
	}
	attempt := e.pending.attemptID
	sessionID := e.pending.sessionID
	e.mu.Unlock()

	err := e.verifier.ResendOtp(ctx, sessionID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil || e.pending.attemptID != attempt {
		e.metricInc(MetricStaleResponseDiscarded)
		return ErrInvalidState
	}
	if err != nil {
		e.lastErr = err
		e.metricInc(MetricChallengeFailure)
		e.emitAudit(ctx, auditEventChallengeFailure, e.state, false, "", err, func() map[string]string {
			return map[string]string{
				"operation": "resend_otp",
			}
		})
		return err
	}
	e.lastErr = nil
	e.metricInc(MetricChallengeResend)
	e.emitAudit(ctx, auditEventChallengeResend, e.state, true, "", nil, nil)
	return nil
}
