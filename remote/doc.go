// Package remote implements the authflow Verifier against the hospital
// backend's HTTP authentication endpoints.
//
// The client is a pure request/response mapping: every distinguishable
// backend failure is translated to one of the authflow sentinel errors so
// the engine routes on errors.Is rather than on transport detail. It
// carries no retry logic; retrying login operations with possibly stale
// credentials is unsafe and left to caller policy.
package remote
