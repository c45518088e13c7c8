package domain

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_Unwrap(t *testing.T) {
	authErr := &AuthError{CredentialPath: "temp_credentials.json", Err: fs.ErrNotExist}
	wrapped := fmt.Errorf("authenticate: %w", authErr)

	var target *AuthError
	assert.True(t, errors.As(wrapped, &target))
	assert.ErrorIs(t, wrapped, fs.ErrNotExist)

	uploadErr := &UploadError{LocalPath: "downloaded-files/clip.mp4", Err: ErrNoSession}
	assert.ErrorIs(t, uploadErr, ErrNoSession)
}

func TestFetchError_Message(t *testing.T) {
	err := &FetchError{URL: "https://example.com/a.zip", StatusCode: 404}
	assert.Equal(t, "fetch https://example.com/a.zip: unexpected status 404", err.Error())

	err = &FetchError{URL: "https://example.com/a.zip", Err: errors.New("connection refused")}
	assert.Equal(t, "fetch https://example.com/a.zip: connection refused", err.Error())
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "Please enter a valid download link.", Message(NewInputError("Please enter a valid download link.")))
	assert.Contains(t, Message(&AuthError{CredentialPath: "c.json", Err: fs.ErrNotExist}), "Failed to authenticate")
	assert.Contains(t, Message(&UploadError{LocalPath: "x", Err: ErrNoSession}), "no authenticated session")
	assert.Contains(t, Message(&LocalIOError{Op: "write", Path: "p", Err: fs.ErrPermission}), "write p")
	assert.Equal(t, "boom", Message(errors.New("boom")))
}

func TestLocalIOError_PathErrorNotRepeated(t *testing.T) {
	pathErr := &fs.PathError{Op: "stat", Path: "/x/clip.mp4", Err: fs.ErrNotExist}
	err := &LocalIOError{Op: "stat", Path: "/x/clip.mp4", Err: pathErr}

	assert.Equal(t, "stat /x/clip.mp4: file does not exist", err.Error())
	assert.ErrorIs(t, err, fs.ErrNotExist)

	var target *fs.PathError
	assert.True(t, errors.As(err, &target))
}
