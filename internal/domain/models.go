package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// LocalFile is a file inside the download directory.
type LocalFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// RemoteFolder is a provider-side container, enumerated under the configured root.
type RemoteFolder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UploadResult is returned by a successful upload. It is never persisted.
type UploadResult struct {
	RemoteID string `json:"remote_id"`
	Name     string `json:"name"`
	FolderID string `json:"folder_id,omitempty"`
}

// Session is the authenticated handle returned by a provider. Fingerprint
// identifies the credential bytes the session was built from; a session is
// only valid while the stored credential still has the same fingerprint.
type Session interface {
	Provider() string
	Fingerprint() string
}

// Fingerprint hashes credential bytes so a session can be matched to the
// credential it was built from.
func Fingerprint(credential []byte) string {
	sum := sha256.Sum256(credential)
	return hex.EncodeToString(sum[:])
}
