package authflow

import "context"

// SubmitLegacyCode describes the submitlegacycode operation and its observable behavior.
//
// SubmitLegacyCode is valid only in [StateLegacyCodeRequired]. The held
// credentials are resubmitted together with the authenticator code; a wrong
// code keeps the machine in place with [ErrInvalidCode] surfaced. Success
// discards the credentials, persists the session, and authenticates.
func (e *Engine) SubmitLegacyCode(ctx context.Context, code string) error {
	if e == nil || e.verifier == nil || e.store == nil {
		return ErrEngineNotReady
	}

	e.mu.Lock()
	if e.state != StateLegacyCodeRequired || e.pending == nil || e.pending.kind != pendingLegacy || e.creds == nil {
		state := e.state
		e.mu.Unlock()
		return e.stateViolation(ctx, state, "SubmitLegacyCode")
	}
	attempt := e.pending.attemptID
	email := e.creds.email
	password := e.creds.password
	e.mu.Unlock()

	sess, err := e.verifier.LegacyVerify(ctx, email, password, code)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil || e.pending.attemptID != attempt {
		e.metricInc(MetricStaleResponseDiscarded)
		return ErrInvalidState
	}
	if err != nil {
		e.lastErr = err
		e.metricInc(MetricLegacyVerifyFailure)
		e.emitAudit(ctx, auditEventChallengeFailure, e.state, false, "", err, func() map[string]string {
			return map[string]string{
				"operation": "legacy_verify",
			}
		})
		return err
	}
	if sess == nil || sess.Token == "" {
		e.lastErr = ErrNetworkUnavailable
		e.metricInc(MetricLegacyVerifyFailure)
		e.emitAudit(ctx, auditEventChallengeFailure, e.state, false, "", ErrNetworkUnavailable, func() map[string]string {
			return map[string]string{
				"operation": "legacy_verify",
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
	e.metricInc(MetricLegacyVerifySuccess)
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, StateAuthenticated, true, sess.User.ID, nil, func() map[string]string {
		return map[string]string{
			"kind": "legacy",
		}
	})
	return nil
}
