package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andresuchdata/driveup/internal/compress"
	"github.com/andresuchdata/driveup/internal/domain"
	"github.com/andresuchdata/driveup/internal/localstore"
	"github.com/andresuchdata/driveup/internal/workflow"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSession struct{ fp string }

func (s *stubSession) Provider() string    { return "drive" }
func (s *stubSession) Fingerprint() string { return s.fp }

type stubRemote struct {
	authCalls int
}

func (r *stubRemote) Authenticate(_ context.Context, credentialPath string) (domain.Session, error) {
	r.authCalls++
	data, err := os.ReadFile(credentialPath)
	if err != nil {
		return nil, &domain.AuthError{CredentialPath: credentialPath, Err: err}
	}
	return &stubSession{fp: domain.Fingerprint(data)}, nil
}

func (r *stubRemote) ListFolders(context.Context, domain.Session, string) ([]domain.RemoteFolder, error) {
	return []domain.RemoteFolder{{ID: "f1", Name: "Clips"}}, nil
}

func (r *stubRemote) Upload(_ context.Context, _ domain.Session, _, remoteName, _ string) (string, error) {
	return "remote-" + remoteName, nil
}

type stubFetcher struct {
	store *localstore.Store
}

func (f *stubFetcher) Fetch(_ context.Context, rawURL string) (string, error) {
	if strings.Contains(rawURL, "missing") {
		return "", &domain.FetchError{URL: rawURL, StatusCode: http.StatusNotFound}
	}
	name := rawURL[strings.LastIndex(rawURL, "/")+1:]
	if err := f.store.Write(name, []byte("0123456789")); err != nil {
		return "", err
	}
	return f.store.Path(name), nil
}

type client struct {
	t       *testing.T
	router  *gin.Engine
	cookies []*http.Cookie
}

func (c *client) do(method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	c.t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)

	if cookies := w.Result().Cookies(); len(cookies) > 0 {
		c.cookies = cookies
	}
	return w
}

func (c *client) json(method, path string, payload any) (*httptest.ResponseRecorder, map[string]any) {
	c.t.Helper()

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(c.t, err)
	}
	w := c.do(method, path, body, "application/json")

	var out map[string]any
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w, out
}

func newTestRouter(t *testing.T) (*gin.Engine, *StateStore, *stubRemote, *localstore.Store) {
	t.Helper()
	return newTestRouterWithOrigins(t, nil)
}

func newTestRouterWithOrigins(t *testing.T, origins []string) (*gin.Engine, *StateStore, *stubRemote, *localstore.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	root := t.TempDir()
	files := localstore.New(filepath.Join(root, "downloaded-files"))
	require.NoError(t, files.EnsureDir())
	creds := localstore.NewCredentialStore(filepath.Join(root, "temp_credentials.json"))
	remote := &stubRemote{}

	orch := workflow.New(workflow.Options{
		Fetcher:        &stubFetcher{store: files},
		Files:          files,
		Credentials:    creds,
		CredentialPath: creds.Path,
		Sessions:       remote,
		Uploader:       remote,
		Compressor:     compress.Placeholder{Size: 16},
		RootFolderID:   "root-folder",
	})
	states := NewStateStore(orch.NewState)
	return NewRouter(orch, states, origins), states, remote, files
}

func TestHealth(t *testing.T) {
	router, _, _, _ := newTestRouter(t)
	c := &client{t: t, router: router}

	w, body := c.json(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestDownloadThenUpload(t *testing.T) {
	router, states, remote, _ := newTestRouter(t)
	c := &client{t: t, router: router}

	w, body := c.json(http.MethodPost, "/api/v1/files/download", map[string]string{"url": "https://example.com/videos/clip.mp4"})
	require.Equal(t, http.StatusOK, w.Code, body)
	assert.Equal(t, "File downloaded from https://example.com/videos/clip.mp4!", body["message"])
	require.Len(t, c.cookies, 1)
	assert.Equal(t, sessionCookie, c.cookies[0].Name)

	w, body = c.json(http.MethodPost, "/api/v1/credential", map[string]string{"type": "service_account"})
	require.Equal(t, http.StatusOK, w.Code, body)

	w, body = c.json(http.MethodPost, "/api/v1/upload", map[string]string{"file": "clip.mp4"})
	require.Equal(t, http.StatusOK, w.Code, body)
	assert.Equal(t, "File clip.mp4 uploaded to Google Drive with ID: remote-clip.mp4", body["message"])
	upload := body["upload"].(map[string]any)
	assert.Equal(t, "remote-clip.mp4", upload["remote_id"])

	assert.Equal(t, 1, remote.authCalls)
	assert.Equal(t, 1, states.Len())
}

func TestErrorStatuses(t *testing.T) {
	router, _, _, _ := newTestRouter(t)
	c := &client{t: t, router: router}

	w, body := c.json(http.MethodPost, "/api/v1/files/download", map[string]string{"url": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please enter a valid download link.", body["error"])

	w, _ = c.json(http.MethodPost, "/api/v1/files/download", map[string]string{"url": "https://example.com/missing.mp4"})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w, body = c.json(http.MethodPost, "/api/v1/auth", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, body["error"], "Failed to authenticate")

	w, _ = c.json(http.MethodPost, "/api/v1/upload", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = c.json(http.MethodDelete, "/api/v1/files/nope.mp4", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = c.do(http.MethodPost, "/api/v1/upload", []byte("{not json"), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCredentialToggle(t *testing.T) {
	router, _, _, _ := newTestRouter(t)
	c := &client{t: t, router: router}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "credentials.json")
	require.NoError(t, err)
	_, err = part.Write([]byte(`{"type":"service_account","client_email":"svc@example.com"}`))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := c.do(http.MethodPost, "/api/v1/credential", buf.Bytes(), mw.FormDataContentType())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	_, body := c.json(http.MethodGet, "/api/v1/credential", nil)
	assert.Equal(t, false, body["show"])
	assert.Equal(t, "", body["content"])

	_, body = c.json(http.MethodPost, "/api/v1/credential/toggle", nil)
	assert.Equal(t, "Token file content shown.", body["message"])

	_, body = c.json(http.MethodGet, "/api/v1/credential", nil)
	assert.Equal(t, true, body["show"])
	assert.Contains(t, body["content"], "svc@example.com")

	_, body = c.json(http.MethodPost, "/api/v1/credential/toggle", nil)
	state := body["state"].(map[string]any)
	assert.Equal(t, false, state["show_credential"])
	assert.NotContains(t, state, "credential_content")
}

func TestInvalidCredential(t *testing.T) {
	router, _, _, _ := newTestRouter(t)
	c := &client{t: t, router: router}

	w := c.do(http.MethodPost, "/api/v1/credential", []byte("not json"), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFoldersAndSelection(t *testing.T) {
	router, _, _, files := newTestRouter(t)
	c := &client{t: t, router: router}
	require.NoError(t, files.Write("clip.mp4", []byte("x")))

	w, _ := c.json(http.MethodGet, "/api/v1/folders", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c.json(http.MethodPost, "/api/v1/credential", map[string]string{"type": "service_account"})

	w, body := c.json(http.MethodGet, "/api/v1/folders?refresh=true", nil)
	require.Equal(t, http.StatusOK, w.Code, body)
	folders := body["folders"].([]any)
	require.Len(t, folders, 1)
	assert.Equal(t, "Clips", folders[0].(map[string]any)["name"])

	c.json(http.MethodPost, "/api/v1/folders/select", map[string]string{"folder_id": "f1"})
	c.json(http.MethodPost, "/api/v1/files/select", map[string]string{"file": "clip.mp4"})

	_, body = c.json(http.MethodPost, "/api/v1/upload", nil)
	upload := body["upload"].(map[string]any)
	assert.Equal(t, "f1", upload["folder_id"])
}

func TestSessionsAreIsolated(t *testing.T) {
	router, states, _, _ := newTestRouter(t)
	alice := &client{t: t, router: router}
	bob := &client{t: t, router: router}

	alice.json(http.MethodPost, "/api/v1/credential/toggle", nil)

	_, aliceState := alice.json(http.MethodGet, "/api/v1/state", nil)
	_, bobState := bob.json(http.MethodGet, "/api/v1/state", nil)

	assert.Equal(t, true, aliceState["show_credential"])
	assert.Equal(t, false, bobState["show_credential"])
	assert.Equal(t, 2, states.Len())
}

func corsRequest(router *gin.Engine, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/credential", nil)
	req.Header.Set("Origin", origin)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCORS_DefaultOriginsOnly(t *testing.T) {
	router, _, _, _ := newTestRouterWithOrigins(t, nil)

	w := corsRequest(router, "http://localhost:3000")
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = corsRequest(router, "https://evil.example")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_WildcardDropsCredentials(t *testing.T) {
	router, _, _, _ := newTestRouterWithOrigins(t, []string{"*"})

	w := corsRequest(router, "https://evil.example")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"http://a.test, http://b.test", " "})
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, origins)
	assert.False(t, all)

	_, all = normalizeAllowedOrigins([]string{"http://a.test,*"})
	assert.True(t, all)
}
