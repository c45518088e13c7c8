package drive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/andresuchdata/driveup/internal/domain"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/drive/v3"
)

var errEmptyID = errors.New("provider returned an empty file id")

// Upload sends localPath to Drive as remoteName inside folderID (the drive
// root when folderID is empty) and returns the new file id.
func (s *Service) Upload(ctx context.Context, session domain.Session, localPath, remoteName, folderID string) (string, error) {
	ds, err := asSession(session)
	if err != nil {
		return "", &domain.UploadError{LocalPath: localPath, Err: err}
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", &domain.UploadError{LocalPath: localPath, Err: err}
	}
	defer f.Close()

	meta := &drive.File{Name: remoteName}
	if folderID = strings.TrimSpace(folderID); folderID != "" {
		meta.Parents = []string{folderID}
	}

	created, err := ds.srv.Files.Create(meta).
		Media(f).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", &domain.UploadError{LocalPath: localPath, Err: fmt.Errorf("unable to upload file: %w", err)}
	}
	if created.Id == "" {
		return "", &domain.UploadError{LocalPath: localPath, Err: errEmptyID}
	}

	log.Info().
		Str("file", localPath).
		Str("name", remoteName).
		Str("folder_id", folderID).
		Str("remote_id", created.Id).
		Msg("file uploaded to Google Drive")

	return created.Id, nil
}
