package domain

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrNoSession is returned when an upload or listing is attempted without an
// authenticated session for the provider.
var ErrNoSession = errors.New("no authenticated session")

// InputError rejects an action because of missing or invalid user input.
type InputError struct {
	Msg string
}

func NewInputError(format string, args ...any) *InputError {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

func (e *InputError) Error() string { return e.Msg }

// FetchError reports a failed download: bad URL, non-2xx status or network failure.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// AuthError reports a missing or invalid credential, or a provider rejection.
type AuthError struct {
	CredentialPath string
	Err            error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authenticate with %s: %v", e.CredentialPath, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// UploadError reports a transport or provider failure while uploading.
type UploadError struct {
	LocalPath string
	Err       error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.LocalPath, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// LocalIOError reports a filesystem failure.
type LocalIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *LocalIOError) Error() string {
	cause := e.Err
	// os errors already carry op and path
	var pathErr *fs.PathError
	if errors.As(cause, &pathErr) {
		cause = pathErr.Err
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, cause)
}

func (e *LocalIOError) Unwrap() error { return e.Err }

// Message turns any workflow error into the text shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var (
		inputErr  *InputError
		fetchErr  *FetchError
		authErr   *AuthError
		uploadErr *UploadError
		ioErr     *LocalIOError
	)
	switch {
	case errors.As(err, &inputErr):
		return inputErr.Msg
	case errors.As(err, &fetchErr):
		return "Download failed: " + fetchErr.Error()
	case errors.As(err, &authErr):
		return "Failed to authenticate: " + authErr.Error()
	case errors.As(err, &uploadErr):
		return "Failed to upload the file: " + uploadErr.Error()
	case errors.As(err, &ioErr):
		return "File operation failed: " + ioErr.Error()
	default:
		return err.Error()
	}
}
