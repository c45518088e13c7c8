// internal/api/handlers/workflow_handler.go
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/andresuchdata/driveup/internal/api/middleware"
	"github.com/andresuchdata/driveup/internal/domain"
	"github.com/andresuchdata/driveup/internal/workflow"
	"github.com/gin-gonic/gin"
)

const maxCredentialSize = 1 << 20

// StateSource hands out the interaction state of the calling session.
type StateSource interface {
	Acquire(c *gin.Context) (*workflow.State, func())
}

// WorkflowHandler exposes each user action as an endpoint.
type WorkflowHandler struct {
	orchestrator *workflow.Orchestrator
	states       StateSource
}

func NewWorkflowHandler(orchestrator *workflow.Orchestrator, states StateSource) *WorkflowHandler {
	return &WorkflowHandler{orchestrator: orchestrator, states: states}
}

type downloadRequest struct {
	URL string `json:"url"`
}

type fileRequest struct {
	File string `json:"file"`
}

type selectFolderRequest struct {
	FolderID string `json:"folder_id"`
}

// Download handles the "Download" button.
func (h *WorkflowHandler) Download(c *gin.Context) {
	var req downloadRequest
	if !bindJSON(c, &req) {
		return
	}

	st, release := h.states.Acquire(c)
	defer release()

	res, err := h.orchestrator.Download(c.Request.Context(), st, req.URL)
	respond(c, st, res, err)
}

// Compress handles the "Compress Video" button.
func (h *WorkflowHandler) Compress(c *gin.Context) {
	var req fileRequest
	if !bindJSON(c, &req) {
		return
	}

	st, release := h.states.Acquire(c)
	defer release()

	res, err := h.orchestrator.Compress(c.Request.Context(), st, req.File)
	respond(c, st, res, err)
}

// ListFiles handles the "Refresh File List" button.
func (h *WorkflowHandler) ListFiles(c *gin.Context) {
	st, release := h.states.Acquire(c)
	defer release()

	res, err := h.orchestrator.RefreshFiles(st)
	respond(c, st, res, err)
}

// SelectFile sets the file the next compress or upload acts on.
func (h *WorkflowHandler) SelectFile(c *gin.Context) {
	var req fileRequest
	if !bindJSON(c, &req) {
		return
	}

	st, release := h.states.Acquire(c)
	defer release()

	h.orchestrator.SelectFile(st, req.File)
	respond(c, st, workflow.Result{Message: "File selected."}, nil)
}

// DeleteFile removes a downloaded file.
func (h *WorkflowHandler) DeleteFile(c *gin.Context) {
	st, release := h.states.Acquire(c)
	defer release()

	res, err := h.orchestrator.DeleteFile(st, c.Param("name"))
	respond(c, st, res, err)
}

// UploadCredential handles the "Upload Token File" button. It accepts a
// multipart "file" field or a raw JSON body.
func (h *WorkflowHandler) UploadCredential(c *gin.Context) {
	data, err := readCredential(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please upload a valid token file."})
		return
	}

	st, release := h.states.Acquire(c)
	defer release()

	res, err := h.orchestrator.UploadCredential(c.Request.Context(), st, data)
	respond(c, st, res, err)
}

// ToggleCredential handles the "Show/Hide Token File Content" button.
func (h *WorkflowHandler) ToggleCredential(c *gin.Context) {
	st, release := h.states.Acquire(c)
	defer release()

	res := h.orchestrator.ToggleCredential(st)
	respond(c, st, res, nil)
}

// GetCredential returns the credential content while it is shown.
func (h *WorkflowHandler) GetCredential(c *gin.Context) {
	st, release := h.states.Acquire(c)
	defer release()

	content, err := h.orchestrator.CredentialView(st)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"show": st.ShowCredential, "content": content})
}

// Authenticate handles the "Authenticate Google Drive" button.
func (h *WorkflowHandler) Authenticate(c *gin.Context) {
	st, release := h.states.Acquire(c)
	defer release()

	res, err := h.orchestrator.Authenticate(c.Request.Context(), st)
	respond(c, st, res, err)
}

// ListFolders lists the folders under the configured root.
func (h *WorkflowHandler) ListFolders(c *gin.Context) {
	refresh, _ := strconv.ParseBool(c.Query("refresh"))

	st, release := h.states.Acquire(c)
	defer release()

	folders, err := h.orchestrator.ListFolders(c.Request.Context(), st, refresh)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"folders": folders, "selected_folder_id": st.SelectedFolderID})
}

// SelectFolder sets the destination folder for uploads.
func (h *WorkflowHandler) SelectFolder(c *gin.Context) {
	var req selectFolderRequest
	if !bindJSON(c, &req) {
		return
	}

	st, release := h.states.Acquire(c)
	defer release()

	h.orchestrator.SelectFolder(st, req.FolderID)
	respond(c, st, workflow.Result{Message: "Folder selected."}, nil)
}

// Upload handles the "Upload File" button.
func (h *WorkflowHandler) Upload(c *gin.Context) {
	var req workflow.UploadRequest
	if !bindJSON(c, &req) {
		return
	}

	st, release := h.states.Acquire(c)
	defer release()

	res, err := h.orchestrator.Upload(c.Request.Context(), st, req)
	respond(c, st, res, err)
}

// GetState returns the session's interaction state.
func (h *WorkflowHandler) GetState(c *gin.Context) {
	st, release := h.states.Acquire(c)
	defer release()

	c.JSON(http.StatusOK, st.Snapshot())
}

func bindJSON(c *gin.Context, v any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

func readCredential(c *gin.Context) ([]byte, error) {
	if fh, err := c.FormFile("file"); err == nil {
		if fh.Size > maxCredentialSize {
			return nil, errors.New("credential file too large")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	return io.ReadAll(io.LimitReader(c.Request.Body, maxCredentialSize))
}

func respond(c *gin.Context, st *workflow.State, res workflow.Result, err error) {
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": res.Message,
		"file":    res.File,
		"upload":  res.Upload,
		"state":   st.Snapshot(),
	})
}

func fail(c *gin.Context, err error) {
	status := statusFor(err)
	logger := middleware.RequestLogger(c)
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).Str("path", c.Request.URL.Path).Msg("action failed")
	c.JSON(status, gin.H{"error": domain.Message(err)})
}

func statusFor(err error) int {
	var (
		inputErr  *domain.InputError
		fetchErr  *domain.FetchError
		authErr   *domain.AuthError
		uploadErr *domain.UploadError
	)
	switch {
	case errors.As(err, &inputErr):
		return http.StatusBadRequest
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &fetchErr), errors.As(err, &uploadErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
