// Package session holds the persisted authenticated session model and the
// pluggable [Store] backends the engine writes it through.
//
// A store persists exactly one session per installation: the token and the
// user profile, written together, read together, cleared together. Save is
// an atomic full replacement; partial writes must never be observable.
//
// Three backends ship with the package: [RedisStore] for hosts with a local
// or shared Redis, [FileStore] for plain on-disk persistence, and
// [MemoryStore] for tests and hosts that opt out of persistence.
package session
