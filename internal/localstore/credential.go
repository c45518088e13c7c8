package localstore

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/andresuchdata/driveup/internal/domain"
)

// CredentialStore holds the single credential file at a fixed path. Writing
// overwrites the previous credential; nothing deletes it automatically.
type CredentialStore struct {
	Path string
}

func NewCredentialStore(path string) *CredentialStore {
	return &CredentialStore{Path: path}
}

// Write validates that data is JSON and stores it with owner-only permissions.
func (c *CredentialStore) Write(data []byte) error {
	if !json.Valid(data) {
		return domain.NewInputError("Please upload a valid token file.")
	}
	if dir := filepath.Dir(c.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return &domain.LocalIOError{Op: "mkdir", Path: dir, Err: err}
		}
	}
	if err := os.WriteFile(c.Path, data, 0o600); err != nil {
		return &domain.LocalIOError{Op: "write", Path: c.Path, Err: err}
	}
	return nil
}

func (c *CredentialStore) Read() ([]byte, error) {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, &domain.LocalIOError{Op: "read", Path: c.Path, Err: err}
	}
	return data, nil
}

func (c *CredentialStore) Exists() bool {
	_, err := os.Stat(c.Path)
	return err == nil
}
