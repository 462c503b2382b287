package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists the session as one JSON document. Save writes a
// temporary file in the same directory and renames it over the target, so a
// crash or disk-full mid-write leaves the previous session readable.
type FileStore struct {
	path string
	mode os.FileMode
}

// NewFileStore creates a store backed by the file at path. The parent
// directory must exist; the file itself is created on first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, mode: 0o600}
}

// Save describes the save operation and its observable behavior.
func (s *FileStore) Save(ctx context.Context, sess *Session) error {
	if s == nil || s.path == "" {
		return ErrStoreUnavailable
	}
	if sess == nil || sess.Token == "" {
		return ErrCorruptSession
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	blob, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("%w: encode session: %v", ErrCorruptSession, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := os.Chmod(tmpName, s.mode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Load describes the load operation and its observable behavior.
func (s *FileStore) Load(ctx context.Context) (*Session, error) {
	if s == nil || s.path == "" {
		return nil, ErrStoreUnavailable
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blob, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var sess Session
	if err := json.Unmarshal(blob, &sess); err != nil {
		return nil, fmt.Errorf("%w: decode session: %v", ErrCorruptSession, err)
	}
	if sess.Token == "" {
		return nil, ErrCorruptSession
	}
	return &sess, nil
}

// Clear describes the clear operation and its observable behavior.
func (s *FileStore) Clear(ctx context.Context) error {
	if s == nil || s.path == "" {
		return ErrStoreUnavailable
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
