package drive

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/andresuchdata/driveup/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	ProviderName = "drive"

	folderMimeType = "application/vnd.google-apps.folder"
)

// Session is an authenticated Drive client.
type Session struct {
	srv         *drive.Service
	fingerprint string
	account     string
}

func (s *Session) Provider() string    { return ProviderName }
func (s *Session) Fingerprint() string { return s.fingerprint }

// Account is the service-account email the session was built from.
func (s *Session) Account() string { return s.account }

// Service authenticates with a service-account credential and lists folders.
type Service struct {
	// Endpoint overrides the Drive API base URL. Empty means the public API.
	Endpoint string
	// Scope requested for the service account.
	Scope string
}

func NewService(endpoint string) *Service {
	return &Service{Endpoint: endpoint, Scope: drive.DriveScope}
}

// Authenticate reads the credential at credentialPath and exchanges it for an
// access token. Every call is a fresh attempt.
func (s *Service) Authenticate(ctx context.Context, credentialPath string) (domain.Session, error) {
	credentialsJSON, err := os.ReadFile(credentialPath)
	if err != nil {
		return nil, &domain.AuthError{CredentialPath: credentialPath, Err: err}
	}

	// Parse credentials from JSON
	config, err := google.JWTConfigFromJSON(credentialsJSON, s.scope())
	if err != nil {
		return nil, &domain.AuthError{
			CredentialPath: credentialPath,
			Err:            fmt.Errorf("unable to parse service account credential: %w", err),
		}
	}

	// The session outlives the request that created it.
	tokenCtx := context.WithoutCancel(ctx)
	ts := config.TokenSource(tokenCtx)

	token, err := ts.Token()
	if err != nil {
		return nil, &domain.AuthError{
			CredentialPath: credentialPath,
			Err:            fmt.Errorf("token exchange rejected: %w", err),
		}
	}

	client := oauth2.NewClient(tokenCtx, oauth2.ReuseTokenSource(token, ts))

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if s.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.Endpoint))
	}

	// Create the Drive service
	srv, err := drive.NewService(tokenCtx, opts...)
	if err != nil {
		return nil, &domain.AuthError{
			CredentialPath: credentialPath,
			Err:            fmt.Errorf("unable to create Drive client: %w", err),
		}
	}

	log.Info().Str("account", config.Email).Msg("Google Drive authenticated")

	return &Session{
		srv:         srv,
		fingerprint: domain.Fingerprint(credentialsJSON),
		account:     config.Email,
	}, nil
}

// ListFolders returns the immediate child folders of rootID in provider order.
func (s *Service) ListFolders(ctx context.Context, session domain.Session, rootID string) ([]domain.RemoteFolder, error) {
	ds, err := asSession(session)
	if err != nil {
		return nil, err
	}

	if rootID == "" {
		rootID = "root"
	}

	folders := make([]domain.RemoteFolder, 0)
	err = ds.srv.Files.List().
		Q(fmt.Sprintf("'%s' in parents and mimeType='%s' and trashed=false", escapeQuery(rootID), folderMimeType)).
		Fields("nextPageToken, files(id, name)").
		Context(ctx).
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				folders = append(folders, domain.RemoteFolder{ID: f.Id, Name: f.Name})
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve folders: %w", err)
	}

	return folders, nil
}

func (s *Service) scope() string {
	if s.Scope == "" {
		return drive.DriveScope
	}
	return s.Scope
}

func asSession(session domain.Session) (*Session, error) {
	ds, ok := session.(*Session)
	if !ok || ds == nil || ds.srv == nil {
		return nil, domain.ErrNoSession
	}
	return ds, nil
}

func escapeQuery(v string) string {
	return strings.ReplaceAll(strings.ReplaceAll(v, `\`, `\\`), `'`, `\'`)
}
