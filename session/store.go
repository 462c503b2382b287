package session

import (
	"context"
	"errors"
)

// ErrStoreUnavailable is returned when the persistence backend cannot be
// reached. It is transient; the engine surfaces it without clearing state.
var ErrStoreUnavailable = errors.New("session store unavailable")

// ErrCorruptSession is returned when a persisted entry cannot be decoded or
// is missing one of its two fields. Callers treat a corrupt entry as absent.
var ErrCorruptSession = errors.New("persisted session corrupt")

// Store is the capability set the engine needs from session persistence.
//
// Save must persist token and user atomically: both or neither, with
// last-writer-wins semantics across engine instances. Load returns
// (nil, nil) when no session is persisted. Clear is idempotent.
type Store interface {
	Save(ctx context.Context, sess *Session) error
	Load(ctx context.Context) (*Session, error)
	Clear(ctx context.Context) error
}
