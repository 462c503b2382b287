package authflow

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/wardline/authflow/session"
)

// Engine defines a public type used by authflow APIs.
//
// Engine owns all transient verification state of a single authentication
// surface and exposes the only mutation API for it. One instance handles at
// most one login flow at a time; hosts that want concurrent flows (multiple
// tabs) construct independent instances sharing only the session store.
type Engine struct {
	config   Config
	verifier Verifier
	store    session.Store
	metrics  *Metrics
	audit    *auditDispatcher

	mu      sync.Mutex
	state   FlowState
	lastErr error
	pending *pendingVerification
	creds   *credentials
	session *session.Session
	// attempt identifies the current flow generation. Every Cancel, Logout,
	// and new SubmitCredentials rotates it; a network response carrying an
	// older attempt id is discarded so a late reply cannot resurrect a
	// cancelled flow.
	attempt string
}

// Close describes the close operation and its observable behavior.
//
// Close flushes and stops the audit dispatcher. The engine must not be used
// after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// CurrentState describes the currentstate operation and its observable behavior.
func (e *Engine) CurrentState() FlowState {
	if e == nil {
		return StateIdle
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// CurrentUser returns the authenticated profile, or nil outside
// [StateAuthenticated]. The returned value is a copy.
func (e *Engine) CurrentUser() *session.User {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	user := e.session.User
	return &user
}

// MaskedPhone returns the masked delivery number of the active passcode
// challenge, or "" when no challenge is pending.
func (e *Engine) MaskedPhone() string {
	if e == nil {
		return ""
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil {
		return ""
	}
	return e.pending.maskedPhone
}

// LastError describes the lasterror operation and its observable behavior.
//
// LastError returns the failure of the most recent operation in the current
// state, or nil. It is cleared by successful transitions, Cancel, and Logout.
func (e *Engine) LastError() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Snapshot returns a consistent read of all observable state.
func (e *Engine) Snapshot() LoginSnapshot {
	if e == nil {
		return LoginSnapshot{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := LoginSnapshot{
		State:     e.state,
		LastError: e.lastErr,
	}
	if e.pending != nil {
		snap.MaskedPhone = e.pending.maskedPhone
	}
	if e.session != nil {
		user := e.session.User
		snap.User = &user
	}
	return snap
}

// Cancel describes the cancel operation and its observable behavior.
//
// Cancel aborts any in-progress verification: pending challenge and held
// credentials are discarded and the machine returns to [StateIdle]. It is
// idempotent, never fails, and does not touch an authenticated session.
// A network request already in flight is not aborted on the wire; its
// eventual response is discarded by attempt-id check.
func (e *Engine) Cancel() {
	if e == nil {
		return
	}
	e.mu.Lock()
	hadFlow := e.pending != nil || e.creds != nil || (e.state != StateIdle && e.state != StateAuthenticated)
	e.pending = nil
	e.creds = nil
	e.attempt = uuid.NewString()
	if e.state != StateAuthenticated {
		e.state = StateIdle
	}
	e.lastErr = nil
	state := e.state
	e.mu.Unlock()

	if !hadFlow {
		return
	}
	e.metricInc(MetricCancel)
	e.emitAudit(context.Background(), auditEventCancel, state, true, "", nil, nil)
}

// Logout describes the logout operation and its observable behavior.
//
// Logout clears the session from memory and from the store and returns the
// machine to [StateIdle]. It never fails: a store clear error is logged and
// the next successful save replaces the stale entry whole.
func (e *Engine) Logout(ctx context.Context) {
	if e == nil {
		return
	}
	e.mu.Lock()
	userID := ""
	if e.session != nil {
		userID = e.session.User.ID
	}
	hadSession := e.session != nil
	e.session = nil
	e.pending = nil
	e.creds = nil
	e.attempt = uuid.NewString()
	e.state = StateIdle
	e.lastErr = nil
	e.mu.Unlock()

	if err := e.store.Clear(ctx); err != nil {
		log.Print("authflow: session store clear failed on logout")
	}
	if !hadSession {
		return
	}
	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, StateIdle, true, userID, nil, nil)
}

// completeLocked persists the session and only then makes the authenticated
// state observable. Callers hold e.mu. On a persistence failure the machine
// stays in its current state with the error surfaced.
func (e *Engine) completeLocked(ctx context.Context, sess *session.Session) error {
	if err := e.store.Save(ctx, sess); err != nil {
		e.lastErr = err
		return err
	}
	e.session = sess.Clone()
	e.state = StateAuthenticated
	e.pending = nil
	e.creds = nil
	e.lastErr = nil
	e.metricInc(MetricSessionPersisted)
	return nil
}

// stateViolation records a caller protocol violation. These are host bugs
// (stale callbacks, missed Cancel), kept distinguishable from user input
// errors in metrics and audit.
func (e *Engine) stateViolation(ctx context.Context, state FlowState, op string) error {
	e.metricInc(MetricStateViolation)
	e.emitAudit(ctx, auditEventStateViolation, state, false, "", ErrInvalidState, func() map[string]string {
		return map[string]string{
			"operation": op,
		}
	})
	return ErrInvalidState
}

// restoreSession seeds the authenticated state from a persisted session
// without writing the store. Used only by the bootstrapper.
func (e *Engine) restoreSession(sess *session.Session) {
	e.mu.Lock()
	e.session = sess.Clone()
	e.state = StateAuthenticated
	e.pending = nil
	e.creds = nil
	e.lastErr = nil
	e.attempt = uuid.NewString()
	e.mu.Unlock()
}
