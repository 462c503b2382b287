package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	fieldToken = "token"
	fieldUser  = "user"
)

// RedisStore persists the session as a single hash with two fields, written
// in one HSET so token and user can never be observed out of step.
//
// The key is prefixed so multiple installations can share an instance; each
// engine instance owning a distinct namespace gets last-writer-wins without
// cross-talk.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a store under the given key prefix. An empty prefix
// defaults to "af".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "af"
	}
	return &RedisStore{
		client: client,
		key:    prefix + ":session",
	}
}

// Save describes the save operation and its observable behavior.
//
// Save persists both session fields in a single command; a failure leaves
// the previously persisted session intact.
func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	if s == nil || s.client == nil {
		return ErrStoreUnavailable
	}
	if sess == nil || sess.Token == "" {
		return ErrCorruptSession
	}

	userBlob, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("%w: encode user: %v", ErrCorruptSession, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key)
	pipe.HSet(ctx, s.key, fieldToken, sess.Token, fieldUser, userBlob)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Load describes the load operation and its observable behavior.
//
// Load returns (nil, nil) when no session is persisted and
// [ErrCorruptSession] when the hash is missing a field or undecodable.
func (s *RedisStore) Load(ctx context.Context) (*Session, error) {
	if s == nil || s.client == nil {
		return nil, ErrStoreUnavailable
	}

	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	token, hasToken := fields[fieldToken]
	userBlob, hasUser := fields[fieldUser]
	if !hasToken || !hasUser || token == "" {
		return nil, ErrCorruptSession
	}

	var user User
	if err := json.Unmarshal([]byte(userBlob), &user); err != nil {
		return nil, fmt.Errorf("%w: decode user: %v", ErrCorruptSession, err)
	}

	return &Session{Token: token, User: user}, nil
}

// Clear describes the clear operation and its observable behavior.
//
// Clear is idempotent; deleting an absent key succeeds.
func (s *RedisStore) Clear(ctx context.Context) error {
	if s == nil || s.client == nil {
		return ErrStoreUnavailable
	}
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
