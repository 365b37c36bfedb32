package handlers

import (
	"io"
	"mime"
	"net/http"
	"path"

	"pixshare-backend/internal/authz"
	"pixshare-backend/internal/middleware"
	"pixshare-backend/internal/storage"

	"github.com/go-chi/chi/v5"
)

// FileHandler serves raw photo bytes. Every request is authorized against
// the path itself before the store is touched.
type FileHandler struct {
	engine *authz.Engine
	store  storage.Store
}

// NewFileHandler creates a new file handler
func NewFileHandler(engine *authz.Engine, store storage.Store) *FileHandler {
	return &FileHandler{engine: engine, store: store}
}

// Serve handles GET /uploads/*
func (h *FileHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")

	creds := middleware.GetCredentials(r.Context())
	v := h.engine.AuthorizeFilePath(r.Context(), key, creds)
	if !v.Allowed() {
		deny(w, v)
		return
	}

	f, err := h.store.Open(r.Context(), key)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	defer f.Close()

	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	io.Copy(w, f)
}
