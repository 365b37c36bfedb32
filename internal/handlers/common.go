package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"pixshare-backend/internal/authz"
	"pixshare-backend/internal/models"

	"github.com/go-chi/chi/v5"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// deny writes the denial a verdict prescribes. Callers must have checked
// Allowed() already.
func deny(w http.ResponseWriter, v authz.Verdict) {
	respondError(w, v.Message(), v.HTTPStatus())
}

// respondServiceError maps sentinel errors onto HTTP statuses; anything
// unrecognized is treated as a client-visible bad request to avoid leaking
// internals with a 500 where validation failed.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		respondError(w, "Not found", http.StatusNotFound)
	case errors.Is(err, models.ErrForbidden):
		respondError(w, "Not authorized", http.StatusForbidden)
	case errors.Is(err, models.ErrDuplicate):
		respondError(w, "Already exists", http.StatusConflict)
	default:
		respondError(w, err.Error(), http.StatusBadRequest)
	}
}

// urlID parses a positive integer id from a chi URL parameter
func urlID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func urlAlbumID(r *http.Request) (models.AlbumID, bool) {
	id, ok := urlID(r, "albumID")
	return models.AlbumID(id), ok
}

func urlPhotoID(r *http.Request) (models.PhotoID, bool) {
	id, ok := urlID(r, "photoID")
	return models.PhotoID(id), ok
}

func urlEventID(r *http.Request) (models.EventID, bool) {
	id, ok := urlID(r, "eventID")
	return models.EventID(id), ok
}

// decodeBody decodes a JSON request body into dst
func decodeBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
