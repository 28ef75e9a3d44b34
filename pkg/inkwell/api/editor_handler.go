package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/inkwell-cms/inkwell/pkg/inkwell"
	"github.com/inkwell-cms/inkwell/pkg/inkwell/auth"
)

// EditorHandler handles the authenticated content-editing API endpoints
type EditorHandler struct {
	service inkwell.Service
	auth    *auth.Service
}

func NewEditorHandler(service inkwell.Service, authService *auth.Service) *EditorHandler {
	return &EditorHandler{
		service: service,
		auth:    authService,
	}
}

// Routes returns the router for editor endpoints. Every route requires a
// valid token.
func (h *EditorHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequireUser(h.auth))
	r.Get("/list", h.List)
	r.Get("/get", h.Get)
	r.Post("/save", h.Save)
	r.Delete("/delete", h.Delete)
	r.Post("/upload", h.Upload)
	r.Get("/status", h.Status)
	return r
}

// SaveResponse wraps the pipeline result for the HTTP surface
type SaveResponse struct {
	OK bool `json:"ok"`
	*inkwell.SaveResult
}

// GetResponse is a parsed document plus the store it came from
type GetResponse struct {
	Frontmatter inkwell.Frontmatter `json:"frontmatter"`
	Body        string              `json:"body"`
	Source      string              `json:"source"`
}

// DeleteResponse reports the outcome of a best-effort post deletion
type DeleteResponse struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	DeletedFiles int      `json:"deletedFiles"`
	FailedFiles  int      `json:"failedFiles"`
	DeletedPaths []string `json:"deletedFilePaths"`
	FailedPaths  []string `json:"failedFilePaths"`
}

// UploadRequest stages an image in the object store
type UploadRequest struct {
	Slug     string `json:"slug"`
	Filename string `json:"filename"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
	Base64   string `json:"base64"`
}

// UploadResponse returns the ephemeral staging URL for the editor to embed
type UploadResponse struct {
	OK       bool   `json:"ok"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Message  string `json:"message"`
}

func (h *EditorHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListPosts(r.Context())
	if err != nil {
		h.renderError(w, r, "Failed to fetch posts", err)
		return
	}
	render.JSON(w, r, list)
}

func (h *EditorHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("slug")
	if slug == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]interface{}{"error": "slug parameter is required"})
		return
	}

	post, err := h.service.GetPost(r.Context(), slug)
	if err != nil {
		h.renderError(w, r, "Failed to fetch post", err)
		return
	}
	render.JSON(w, r, GetResponse{
		Frontmatter: post.Frontmatter,
		Body:        post.Body,
		Source:      post.Source,
	})
}

func (h *EditorHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req inkwell.SavePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]interface{}{"error": "Invalid JSON payload"})
		return
	}

	result, err := h.service.SavePost(r.Context(), req)
	if err != nil {
		h.renderError(w, r, "Failed to save post", err)
		return
	}
	render.JSON(w, r, SaveResponse{OK: true, SaveResult: result})
}

func (h *EditorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("slug")
	if slug == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]interface{}{"error": "slug parameter is required"})
		return
	}

	result, err := h.service.DeletePost(r.Context(), slug)
	if err != nil {
		h.renderError(w, r, "Failed to delete post", err)
		return
	}

	message := "Blog post \"" + slug + "\" deleted successfully"
	render.JSON(w, r, DeleteResponse{
		Success:      true,
		Message:      message,
		DeletedFiles: len(result.DeletedPaths),
		FailedFiles:  len(result.FailedPaths),
		DeletedPaths: result.DeletedPaths,
		FailedPaths:  result.FailedPaths,
	})
}

func (h *EditorHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var req UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]interface{}{"error": "Invalid JSON payload"})
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Base64)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]interface{}{"error": "Invalid base64 file data"})
		return
	}

	staged, err := h.service.StageImage(r.Context(), inkwell.StageImageRequest{
		Slug:        req.Slug,
		Filename:    req.Filename,
		ContentType: req.FileType,
		Data:        data,
	})
	if err != nil {
		h.renderError(w, r, "Failed to upload image", err)
		return
	}
	render.JSON(w, r, UploadResponse{
		OK:       true,
		URL:      staged.URL,
		Filename: staged.Filename,
		Message:  "Image staged. It will be committed to the repository when you save the post.",
	})
}

func (h *EditorHandler) Status(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.RepositoryStatus(r.Context()))
}

// renderError maps domain errors onto the HTTP surface: validation -> 400,
// missing -> 404, everything else a generic 500 whose details field carries
// the underlying message.
func (h *EditorHandler) renderError(w http.ResponseWriter, r *http.Request, message string, err error) {
	var verr *inkwell.ValidationError
	switch {
	case errors.As(err, &verr):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]interface{}{"error": verr.Error()})
	case errors.Is(err, inkwell.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]interface{}{"error": "Post not found"})
	default:
		slog.Error(message, "path", r.URL.Path, "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]interface{}{
			"error":   message,
			"details": err.Error(),
		})
	}
}
