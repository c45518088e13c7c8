package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/andresuchdata/driveup/internal/domain"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

// Session is an authenticated S3-compatible client bound to one bucket.
type Session struct {
	client      *minio.Client
	bucket      string
	fingerprint string
}

func (s *Session) Provider() string    { return ProviderName }
func (s *Session) Fingerprint() string { return s.fingerprint }

// Client authenticates against S3-compatible storage (MinIO, Sevalla, AWS)
// and exposes folders as common prefixes.
type Client struct{}

func NewClient() *Client {
	return &Client{}
}

// Authenticate builds a client from the credential at credentialPath and
// checks that the bucket is reachable with it.
func (c *Client) Authenticate(ctx context.Context, credentialPath string) (domain.Session, error) {
	data, err := os.ReadFile(credentialPath)
	if err != nil {
		return nil, &domain.AuthError{CredentialPath: credentialPath, Err: err}
	}

	cred, err := ParseCredential(data)
	if err != nil {
		return nil, &domain.AuthError{CredentialPath: credentialPath, Err: err}
	}

	host, secure := cred.hostAndTLS()
	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(cred.AccessKey, cred.SecretKey, ""),
		Secure: secure,
		Region: cred.region(),
	})
	if err != nil {
		return nil, &domain.AuthError{CredentialPath: credentialPath, Err: fmt.Errorf("unable to create s3 client: %w", err)}
	}

	exists, err := client.BucketExists(ctx, cred.Bucket)
	if err != nil {
		return nil, &domain.AuthError{CredentialPath: credentialPath, Err: fmt.Errorf("s3 rejected credential: %w", err)}
	}
	if !exists {
		return nil, &domain.AuthError{CredentialPath: credentialPath, Err: fmt.Errorf("bucket %s does not exist", cred.Bucket)}
	}

	log.Info().Str("endpoint", host).Str("bucket", cred.Bucket).Msg("s3 storage authenticated")

	return &Session{
		client:      client,
		bucket:      cred.Bucket,
		fingerprint: domain.Fingerprint(data),
	}, nil
}

// ListFolders returns the prefixes directly under rootID.
func (c *Client) ListFolders(ctx context.Context, session domain.Session, rootID string) ([]domain.RemoteFolder, error) {
	s, err := asSession(session)
	if err != nil {
		return nil, err
	}

	folders := make([]domain.RemoteFolder, 0)
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    folderPrefix(rootID),
		Recursive: false,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("s3 list failed: %w", object.Err)
		}
		if len(object.Key) == 0 || object.Key[len(object.Key)-1] != '/' {
			continue
		}
		folders = append(folders, domain.RemoteFolder{ID: object.Key, Name: folderName(object.Key)})
	}
	return folders, nil
}

// Upload stores localPath at <folderID>/<remoteName> and returns the key.
func (c *Client) Upload(ctx context.Context, session domain.Session, localPath, remoteName, folderID string) (string, error) {
	s, err := asSession(session)
	if err != nil {
		return "", &domain.UploadError{LocalPath: localPath, Err: err}
	}

	if _, err := os.Stat(localPath); err != nil {
		return "", &domain.UploadError{LocalPath: localPath, Err: err}
	}

	key := objectKey(folderID, remoteName)
	info, err := s.client.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{})
	if err != nil {
		return "", &domain.UploadError{LocalPath: localPath, Err: fmt.Errorf("s3 upload failed: %w", err)}
	}

	log.Info().
		Str("file", localPath).
		Str("bucket", s.bucket).
		Str("key", info.Key).
		Int64("size", info.Size).
		Msg("file uploaded to s3 storage")

	return info.Key, nil
}

func asSession(session domain.Session) (*Session, error) {
	s, ok := session.(*Session)
	if !ok || s == nil || s.client == nil {
		return nil, domain.ErrNoSession
	}
	return s, nil
}
