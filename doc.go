// Package authflow provides the client-resident login and session
// orchestration engine for the Wardline hospital administration application.
//
// The package drives a user from raw credentials to an authenticated,
// persisted session, routing through one of several verification paths
// (direct success, one-time passcode via phone, legacy time-based code)
// while coordinating a remote verification service, a durable session
// store, and user-cancellable intermediate steps.
//
// # Architecture boundaries
//
// authflow is the public surface. It exposes [Engine], [Builder], [Config],
// [Bootstrapper], and value types (LoginSnapshot, AuditEvent,
// MetricsSnapshot, etc.). Persistence backends live under session/, the
// HTTP verification client under remote/, token inspection under jwt/.
//
// # What this package must NOT do
//
//   - Interpret user roles or authorization policy. The host routes on
//     the delivered profile.
//   - Retry remote login operations. Retrying with stale credentials after
//     a password-change race is unsafe; retries are a caller policy.
//   - Hold more than one pending verification. An overlapping login attempt
//     implicitly cancels the previous one (last-call-wins).
//
// # Consistency contract
//
// A session exists in the store if and only if the engine state is
// [StateAuthenticated]. The store is written before the state transition is
// observable, and sessions are replaced whole, never field-by-field, so a
// caller can never read a token that does not match the verified identity.
package authflow
