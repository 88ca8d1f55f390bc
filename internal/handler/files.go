package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/msomdec/blogapp/internal/domain"
)

// FileSource returns a stored file by key.
type FileSource interface {
	Get(ctx context.Context, key string) (*domain.File, error)
}

// FileHandler serves files kept by the local file store.
type FileHandler struct {
	files FileSource
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(files FileSource) *FileHandler {
	return &FileHandler{files: files}
}

// HandleServe serves file bytes with the stored Content-Type.
// GET /files/{key...}
func (h *FileHandler) HandleServe(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	f, err := h.files.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("failed to load file", "key", key, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
	w.Write(f.Data)
}
