package workflow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/andresuchdata/driveup/internal/domain"
	"github.com/rs/zerolog/log"
)

// Fetcher downloads a URL into the download directory.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// FileStore is the download directory.
type FileStore interface {
	List() ([]string, error)
	Path(name string) string
	Stat(name string) (domain.LocalFile, error)
	Delete(name string) bool
}

// CredentialStore holds the credential file.
type CredentialStore interface {
	Write(data []byte) error
	Read() ([]byte, error)
	Exists() bool
}

// SessionManager authenticates and lists folders on the remote provider.
type SessionManager interface {
	Authenticate(ctx context.Context, credentialPath string) (domain.Session, error)
	ListFolders(ctx context.Context, session domain.Session, rootID string) ([]domain.RemoteFolder, error)
}

// Uploader sends a local file to the remote provider.
type Uploader interface {
	Upload(ctx context.Context, session domain.Session, localPath, remoteName, folderID string) (string, error)
}

// Compressor produces the compressed variant of a local file.
type Compressor interface {
	OutputName(name string) string
	Compress(ctx context.Context, src, dst string) error
}

// FolderCache caches folder listings. Optional.
type FolderCache interface {
	Get(ctx context.Context, session domain.Session, rootID string) ([]domain.RemoteFolder, bool)
	Set(ctx context.Context, session domain.Session, rootID string, folders []domain.RemoteFolder)
	Invalidate(ctx context.Context) error
}

// Result is the outcome of a successful action.
type Result struct {
	Message string               `json:"message"`
	File    *domain.LocalFile    `json:"file,omitempty"`
	Upload  *domain.UploadResult `json:"upload,omitempty"`
}

type Options struct {
	Fetcher        Fetcher
	Files          FileStore
	Credentials    CredentialStore
	CredentialPath string
	Sessions       SessionManager
	Uploader       Uploader
	Compressor     Compressor
	Cache          FolderCache
	RootFolderID   string
}

// Orchestrator sequences user actions across the components. It holds no
// interaction state of its own; every action works on the State it is given.
type Orchestrator struct {
	fetcher        Fetcher
	files          FileStore
	credentials    CredentialStore
	credentialPath string
	sessions       SessionManager
	uploader       Uploader
	compressor     Compressor
	cache          FolderCache
	rootFolderID   string
}

func New(opts Options) *Orchestrator {
	return &Orchestrator{
		fetcher:        opts.Fetcher,
		files:          opts.Files,
		credentials:    opts.Credentials,
		credentialPath: opts.CredentialPath,
		sessions:       opts.Sessions,
		uploader:       opts.Uploader,
		compressor:     opts.Compressor,
		cache:          opts.Cache,
		rootFolderID:   opts.RootFolderID,
	}
}

// NewState builds the initial state: current file listing and credential.
func (o *Orchestrator) NewState() *State {
	st := &State{}
	if _, err := o.RefreshFiles(st); err != nil {
		log.Warn().Err(err).Msg("initial file listing failed")
	}
	o.loadCredential(st)
	return st
}

// Download fetches rawURL and refreshes the file listing.
func (o *Orchestrator) Download(ctx context.Context, st *State, rawURL string) (Result, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Result{}, domain.NewInputError("Please enter a valid download link.")
	}

	path, err := o.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return Result{}, err
	}

	if _, err := o.RefreshFiles(st); err != nil {
		return Result{}, err
	}

	res := Result{Message: fmt.Sprintf("File downloaded from %s!", rawURL)}
	if f, err := o.files.Stat(path); err == nil {
		res.File = &f
	}
	return res, nil
}

// Compress runs the compressor on name, or on the selected file when name is
// empty. The new file is not added to the cached listing.
func (o *Orchestrator) Compress(ctx context.Context, st *State, name string) (Result, error) {
	name = o.pick(st, name)
	if name == "" {
		return Result{}, domain.NewInputError("Please select a file to compress.")
	}

	outName := o.compressor.OutputName(name)
	if err := o.compressor.Compress(ctx, o.files.Path(name), o.files.Path(outName)); err != nil {
		return Result{}, err
	}
	st.SelectedFile = name

	log.Info().Str("file", name).Str("output", outName).Msg("file compressed")

	res := Result{Message: fmt.Sprintf("File %s compressed successfully!", outName)}
	if f, err := o.files.Stat(outName); err == nil {
		res.File = &f
	}
	return res, nil
}

// UploadCredential replaces the stored credential. Any existing session was
// built from the old credential and is dropped.
func (o *Orchestrator) UploadCredential(ctx context.Context, st *State, data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{}, domain.NewInputError("Please upload a valid token file.")
	}

	if err := o.credentials.Write(data); err != nil {
		return Result{}, err
	}

	st.Session = nil
	st.Folders = nil
	o.loadCredential(st)

	if o.cache != nil {
		if err := o.cache.Invalidate(ctx); err != nil {
			log.Warn().Err(err).Msg("folder cache invalidation failed")
		}
	}

	return Result{Message: "Token file uploaded successfully!"}, nil
}

// ToggleCredential flips credential visibility.
func (o *Orchestrator) ToggleCredential(st *State) Result {
	st.ShowCredential = !st.ShowCredential
	if st.ShowCredential {
		return Result{Message: "Token file content shown."}
	}
	return Result{Message: "Token file content hidden."}
}

// CredentialView returns the credential content when visibility is on. It
// re-reads the file so the view matches what authentication will use.
func (o *Orchestrator) CredentialView(st *State) (string, error) {
	if !st.ShowCredential {
		return "", nil
	}
	o.loadCredential(st)
	if st.CredentialContent == "" {
		return "", domain.NewInputError("No token file uploaded.")
	}
	return st.CredentialContent, nil
}

// Authenticate performs a fresh authentication and stores the session. On
// failure the previous session is cleared.
func (o *Orchestrator) Authenticate(ctx context.Context, st *State) (Result, error) {
	session, err := o.sessions.Authenticate(ctx, o.credentialPath)
	if err != nil {
		st.Session = nil
		return Result{}, err
	}
	st.Session = session
	o.loadCredential(st)
	return Result{Message: fmt.Sprintf("%s authenticated successfully!", providerLabel(session))}, nil
}

// EnsureSession is the precondition of every remote action. It keeps the
// current session while it matches the stored credential and authenticates
// otherwise.
func (o *Orchestrator) EnsureSession(ctx context.Context, st *State) (domain.Session, error) {
	if st.Session != nil && o.sessionCurrent(st.Session) {
		return st.Session, nil
	}

	log.Info().Msg("no valid session, authenticating")
	if _, err := o.Authenticate(ctx, st); err != nil {
		return nil, err
	}
	return st.Session, nil
}

// RefreshFiles re-reads the download directory. The listing keeps the
// directory's own order.
func (o *Orchestrator) RefreshFiles(st *State) (Result, error) {
	names, err := o.files.List()
	if err != nil {
		return Result{}, err
	}
	st.Files = names
	if st.SelectedFile != "" && !slices.Contains(names, st.SelectedFile) {
		st.SelectedFile = ""
	}
	return Result{Message: "File list refreshed!"}, nil
}

// DeleteFile removes a local file. Deletion is best-effort.
func (o *Orchestrator) DeleteFile(st *State, name string) (Result, error) {
	if strings.TrimSpace(name) == "" {
		return Result{}, domain.NewInputError("Please select a file to delete.")
	}
	if !o.files.Delete(name) {
		return Result{}, &domain.LocalIOError{Op: "delete", Path: o.files.Path(name), Err: errors.New("file could not be deleted")}
	}
	if _, err := o.RefreshFiles(st); err != nil {
		return Result{}, err
	}
	return Result{Message: fmt.Sprintf("File %s deleted.", name)}, nil
}

// SelectFile marks name as the current file.
func (o *Orchestrator) SelectFile(st *State, name string) {
	st.SelectedFile = strings.TrimSpace(name)
}

// SelectFolder marks the destination folder for uploads.
func (o *Orchestrator) SelectFolder(st *State, folderID string) {
	st.SelectedFolderID = strings.TrimSpace(folderID)
}

// ListFolders lists the folders under the configured root. refresh bypasses
// the cache.
func (o *Orchestrator) ListFolders(ctx context.Context, st *State, refresh bool) ([]domain.RemoteFolder, error) {
	session, err := o.EnsureSession(ctx, st)
	if err != nil {
		return nil, err
	}

	var (
		folders []domain.RemoteFolder
		cached  bool
	)
	if o.cache != nil && !refresh {
		folders, cached = o.cache.Get(ctx, session, o.rootFolderID)
	}
	if !cached {
		folders, err = o.sessions.ListFolders(ctx, session, o.rootFolderID)
		if err != nil {
			return nil, err
		}
		if o.cache != nil {
			o.cache.Set(ctx, session, o.rootFolderID, folders)
		}
	}

	st.Folders = folders
	if st.SelectedFolderID != "" && !hasFolder(folders, st.SelectedFolderID) {
		st.SelectedFolderID = ""
	}
	return folders, nil
}

// UploadRequest names the file to upload and an optional folder id that
// overrides the selected folder.
type UploadRequest struct {
	File     string `json:"file"`
	FolderID string `json:"folder_id"`
}

// Upload sends the chosen file to the provider. A valid session is an
// explicit precondition, established by EnsureSession before the local file
// is touched.
func (o *Orchestrator) Upload(ctx context.Context, st *State, req UploadRequest) (Result, error) {
	name := o.pick(st, req.File)
	if name == "" {
		return Result{}, domain.NewInputError("Please select a file to upload.")
	}

	session, err := o.EnsureSession(ctx, st)
	if err != nil {
		return Result{}, err
	}

	local, err := o.files.Stat(name)
	if err != nil {
		return Result{}, err
	}

	folderID := strings.TrimSpace(req.FolderID)
	if folderID == "" {
		folderID = st.SelectedFolderID
	}

	remoteID, err := o.uploader.Upload(ctx, session, local.Path, local.Name, folderID)
	if err != nil {
		return Result{}, err
	}
	st.SelectedFile = local.Name

	return Result{
		Message: fmt.Sprintf("File %s uploaded to %s with ID: %s", local.Name, providerLabel(session), remoteID),
		Upload:  &domain.UploadResult{RemoteID: remoteID, Name: local.Name, FolderID: folderID},
	}, nil
}

func (o *Orchestrator) pick(st *State, name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return st.SelectedFile
}

func (o *Orchestrator) loadCredential(st *State) {
	if !o.credentials.Exists() {
		st.CredentialContent = ""
		return
	}
	data, err := o.credentials.Read()
	if err != nil {
		log.Warn().Err(err).Msg("credential read failed")
		st.CredentialContent = ""
		return
	}
	st.CredentialContent = string(data)
}

func (o *Orchestrator) sessionCurrent(session domain.Session) bool {
	data, err := o.credentials.Read()
	if err != nil {
		return false
	}
	return domain.Fingerprint(data) == session.Fingerprint()
}

func hasFolder(folders []domain.RemoteFolder, id string) bool {
	return slices.ContainsFunc(folders, func(f domain.RemoteFolder) bool { return f.ID == id })
}

func providerLabel(session domain.Session) string {
	switch session.Provider() {
	case "drive":
		return "Google Drive"
	case "s3":
		return "S3 storage"
	default:
		return session.Provider()
	}
}
