package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists one Session as JSON, with the token age-encrypted under
// a local key that is created on first save.
type FileStore struct {
	mu      sync.Mutex
	path    string
	keyPath string
}

// NewFileStore creates a FileStore writing the session to path and its key to keyPath.
func NewFileStore(path, keyPath string) *FileStore {
	return &FileStore{path: path, keyPath: keyPath}
}

// Load returns the stored session, or ErrNoSession when there is none.
func (fs *FileStore) Load() (*Session, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(fs.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if s.Token == "" {
		return nil, ErrNoSession
	}
	if isSealed(s.Token) {
		id, err := LoadIdentity(fs.keyPath)
		if err != nil {
			return nil, err
		}
		if s.Token, err = openToken(s.Token, id); err != nil {
			return nil, fmt.Errorf("load session: %w", err)
		}
	}
	return &s, nil
}

// Save writes s, replacing any previous session.
func (fs *FileStore) Save(s *Session) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := GenerateIdentity(fs.keyPath); err != nil {
		return err
	}
	id, err := LoadIdentity(fs.keyPath)
	if err != nil {
		return err
	}

	stored := *s
	if stored.Token, err = sealToken(s.Token, id.Recipient()); err != nil {
		return err
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(fs.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return fmt.Errorf("rename session: %w", err)
	}
	return nil
}

// Clear removes the stored session. Clearing an absent session is not an error.
func (fs *FileStore) Clear() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.Remove(fs.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
