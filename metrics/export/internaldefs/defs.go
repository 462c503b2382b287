package internaldefs

import (
	authflow "github.com/wardline/authflow"
)

// CounterDef defines a public type used by authflow APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   authflow.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by authflow APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   authflow.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the login engine.
var CounterDefs = []CounterDef{
	{ID: authflow.MetricLoginSuccess, Name: "authflow_login_success_total", Help: "Completed login flows."},
	{ID: authflow.MetricLoginFailure, Name: "authflow_login_failure_total", Help: "Login flows that failed terminally."},
	{ID: authflow.MetricChallengeStarted, Name: "authflow_challenge_started_total", Help: "Issued passcode challenges."},
	{ID: authflow.MetricChallengeResend, Name: "authflow_challenge_resend_total", Help: "Passcode resend requests."},
	{ID: authflow.MetricChallengeFailure, Name: "authflow_challenge_failure_total", Help: "Failed challenge operations."},
	{ID: authflow.MetricLegacyVerifySuccess, Name: "authflow_legacy_verify_success_total", Help: "Successful authenticator-code verifications."},
	{ID: authflow.MetricLegacyVerifyFailure, Name: "authflow_legacy_verify_failure_total", Help: "Failed authenticator-code verifications."},
	{ID: authflow.MetricCancel, Name: "authflow_cancel_total", Help: "Cancelled login flows."},
	{ID: authflow.MetricLogout, Name: "authflow_logout_total", Help: "Logout operations."},
	{ID: authflow.MetricStateViolation, Name: "authflow_state_violation_total", Help: "Operations rejected as invalid in the current state."},
	{ID: authflow.MetricStaleResponseDiscarded, Name: "authflow_stale_response_discarded_total", Help: "Late verification responses discarded after cancel or supersession."},
	{ID: authflow.MetricSessionPersisted, Name: "authflow_session_persisted_total", Help: "Sessions written to the store."},
	{ID: authflow.MetricSessionRestored, Name: "authflow_session_restored_total", Help: "Sessions restored at bootstrap."},
	{ID: authflow.MetricSessionRefreshed, Name: "authflow_session_refreshed_total", Help: "Sessions re-persisted after revalidation."},
	{ID: authflow.MetricSessionRejected, Name: "authflow_session_rejected_total", Help: "Persisted sessions rejected as expired or unauthorized."},
}

// HistogramDefs is an exported constant or variable used by the login engine.
var HistogramDefs = []HistogramDef{
	{ID: authflow.MetricLoginLatency, Name: "authflow_login_latency_seconds", Help: "Credential submission round-trip latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the login engine.
var HistogramBounds = []string{
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the login engine.
var HistogramBoundSuffix = []string{
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
