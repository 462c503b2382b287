package authflow

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/wardline/authflow/jwt"
	"github.com/wardline/authflow/session"
)

// Bootstrapper defines a public type used by authflow APIs.
//
// Bootstrapper restores a persisted session at process start: the cached
// session is adopted optimistically so the UI never flashes a logged-out
// state, then revalidated against the verification service. A rejected
// token logs the user out; a connectivity failure does not.
type Bootstrapper struct {
	engine *Engine
}

// NewBootstrapper describes the newbootstrapper operation and its observable behavior.
func NewBootstrapper(engine *Engine) *Bootstrapper {
	return &Bootstrapper{engine: engine}
}

// Restore describes the restore operation and its observable behavior.
//
// Restore loads the persisted session and, when one exists, moves the
// engine to [StateAuthenticated] immediately. It reports whether a session
// was restored. Corrupt entries are treated as absent and cleared. When
// [BootstrapConfig.PrecheckTokenExpiry] is set and the token is a JWT that
// is already expired, the entry is cleared without a network call.
func (b *Bootstrapper) Restore(ctx context.Context) bool {
	if b == nil || b.engine == nil || b.engine.store == nil {
		return false
	}
	e := b.engine

	sess, err := e.store.Load(ctx)
	if err != nil {
		if errors.Is(err, session.ErrCorruptSession) {
			log.Print("authflow: clearing corrupt persisted session")
			if cerr := e.store.Clear(ctx); cerr != nil {
				log.Print("authflow: corrupt session clear failed")
			}
		}
		return false
	}
	if sess == nil {
		return false
	}

	if e.config.Bootstrap.PrecheckTokenExpiry {
		if info, ierr := jwt.Inspect(sess.Token); ierr == nil && info.ExpiredWithin(time.Now(), e.config.Bootstrap.ExpirySkew) {
			if cerr := e.store.Clear(ctx); cerr != nil {
				log.Print("authflow: expired session clear failed")
			}
			e.metricInc(MetricSessionRejected)
			e.emitAudit(ctx, auditEventSessionRejected, StateIdle, false, sess.User.ID, nil, func() map[string]string {
				return map[string]string{
					"reason": "token_expired",
				}
			})
			return false
		}
	}

	e.restoreSession(sess)
	e.metricInc(MetricSessionRestored)
	e.emitAudit(ctx, auditEventSessionRestored, StateAuthenticated, true, sess.User.ID, nil, nil)
	return true
}

// Revalidate describes the revalidate operation and its observable behavior.
//
// Revalidate reconciles the restored session with the verification service.
// On success the profile is refreshed and re-persisted whole. A rejected
// token ([ErrUnauthorized]) clears the session and returns the error; any
// transient failure is swallowed and the cached session kept (fail open for
// availability, never for invalid tokens). The result is discarded if the
// session changed while the call was in flight.
func (b *Bootstrapper) Revalidate(ctx context.Context) error {
	if b == nil || b.engine == nil || b.engine.verifier == nil {
		return ErrEngineNotReady
	}
	e := b.engine

	e.mu.Lock()
	if e.state != StateAuthenticated || e.session == nil {
		e.mu.Unlock()
		return nil
	}
	token := e.session.Token
	e.mu.Unlock()

	user, err := e.verifier.FetchCurrentUser(ctx, token)

	e.mu.Lock()
	if e.state != StateAuthenticated || e.session == nil || e.session.Token != token {
		// Logout or a fresh login happened mid-flight; this result no
		// longer describes the current session.
		e.mu.Unlock()
		e.metricInc(MetricStaleResponseDiscarded)
		return nil
	}

	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			userID := e.session.User.ID
			e.session = nil
			e.state = StateIdle
			e.mu.Unlock()
			if cerr := e.store.Clear(ctx); cerr != nil {
				log.Print("authflow: rejected session clear failed")
			}
			e.metricInc(MetricSessionRejected)
			e.emitAudit(ctx, auditEventSessionRejected, StateIdle, false, userID, err, nil)
			return ErrUnauthorized
		}
		// Transient failure: keep serving the cached session.
		e.mu.Unlock()
		return nil
	}
	if user == nil {
		e.mu.Unlock()
		return nil
	}

	refreshed := &session.Session{Token: token, User: *user}
	if serr := e.store.Save(ctx, refreshed); serr != nil {
		// Stale profile stays cached; the next successful save replaces it.
		e.mu.Unlock()
		log.Print("authflow: refreshed session save failed")
		return nil
	}
	e.session = refreshed
	e.mu.Unlock()

	e.metricInc(MetricSessionRefreshed)
	e.emitAudit(ctx, auditEventSessionRefreshed, StateAuthenticated, true, user.ID, nil, nil)
	return nil
}

// Run describes the run operation and its observable behavior.
//
// Run restores synchronously, then revalidates in a goroutine. The returned
// channel delivers the revalidation outcome (nil when nothing was restored
// or the failure was transient) and is buffered so it may be ignored.
func (b *Bootstrapper) Run(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	if !b.Restore(ctx) {
		done <- nil
		return done
	}
	go func() {
		done <- b.Revalidate(ctx)
	}()
	return done
}
