package handlers

import (
	"net/http"

	"pixshare-backend/internal/authz"
	"pixshare-backend/internal/middleware"
	"pixshare-backend/internal/models"
	"pixshare-backend/internal/services"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// maxMultipartMemory bounds the in-memory part of multipart parsing.
const maxMultipartMemory = 32 << 20

// AlbumHandler handles album endpoints
type AlbumHandler struct {
	engine       *authz.Engine
	albumService *services.AlbumService
	photoService *services.PhotoService
}

// NewAlbumHandler creates a new album handler
func NewAlbumHandler(engine *authz.Engine, albumService *services.AlbumService, photoService *services.PhotoService) *AlbumHandler {
	return &AlbumHandler{
		engine:       engine,
		albumService: albumService,
		photoService: photoService,
	}
}

type albumRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r albumRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Length(0, 2000)),
	)
}

// Create handles POST /albums
func (h *AlbumHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req albumRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	userID := middleware.GetUserID(r.Context())
	album, err := h.albumService.Create(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, album)
}

// ListMine handles GET /albums
func (h *AlbumHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	albums, err := h.albumService.ListMine(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, albums)
}

// Get handles GET /albums/{albumID}
func (h *AlbumHandler) Get(w http.ResponseWriter, r *http.Request) {
	albumID, ok := urlAlbumID(r)
	if !ok {
		respondError(w, "Invalid album id", http.StatusBadRequest)
		return
	}
	creds := middleware.GetCredentials(r.Context())
	v := h.engine.Authorize(r.Context(), authz.OpViewAlbum, authz.AlbumTarget(albumID), creds)
	if !v.Allowed() {
		deny(w, v)
		return
	}

	album, err := h.albumService.Get(r.Context(), albumID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"album": album,
		"caps":  v.Capabilities,
	})
}

// ListPhotos handles GET /albums/{albumID}/photos
func (h *AlbumHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	albumID, ok := urlAlbumID(r)
	if !ok {
		respondError(w, "Invalid album id", http.StatusBadRequest)
		return
	}
	creds := middleware.GetCredentials(r.Context())
	v := h.engine.Authorize(r.Context(), authz.OpViewAlbum, authz.AlbumTarget(albumID), creds)
	if !v.Allowed() {
		deny(w, v)
		return
	}

	photos, err := h.albumService.ListPhotos(r.Context(), albumID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, photos)
}

// Delete handles DELETE /albums/{albumID}
func (h *AlbumHandler) Delete(w http.ResponseWriter, r *http.Request) {
	albumID, ok := urlAlbumID(r)
	if !ok {
		respondError(w, "Invalid album id", http.StatusBadRequest)
		return
	}
	creds := middleware.GetCredentials(r.Context())
	v := h.engine.Authorize(r.Context(), authz.OpDeleteAlbum, authz.AlbumTarget(albumID), creds)
	if !v.Allowed() {
		deny(w, v)
		return
	}

	album, err := h.albumService.Get(r.Context(), albumID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if err := h.albumService.Delete(r.Context(), album); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// UploadPhoto handles POST /albums/{albumID}/photos (multipart). Multiple
// files may arrive under "photos"; a single "photo" part also works. Files
// are stored in order and the response reports what made it in.
func (h *AlbumHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	albumID, ok := urlAlbumID(r)
	if !ok {
		respondError(w, "Invalid album id", http.StatusBadRequest)
		return
	}
	creds := middleware.GetCredentials(r.Context())
	v := h.engine.Authorize(r.Context(), authz.OpUploadPhoto, authz.AlbumTarget(albumID), creds)
	if !v.Allowed() {
		deny(w, v)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		respondError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	headers := r.MultipartForm.File["photos"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["photo"]
	}
	if len(headers) == 0 {
		respondError(w, "Missing photo file", http.StatusBadRequest)
		return
	}

	album, err := h.albumService.Get(r.Context(), albumID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	var photos []*models.Photo
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			respondError(w, "Unreadable photo file", http.StatusBadRequest)
			return
		}
		photo, err := h.photoService.Upload(
			r.Context(), album, v.Actor,
			creds.GuestKey, r.FormValue("uploader_name"),
			header.Filename, file,
		)
		file.Close()
		if err != nil {
			// Earlier files in the batch stay stored; report the failure
			// along with what succeeded.
			respondJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":  err.Error(),
				"photos": photos,
			})
			return
		}
		photos = append(photos, photo)
	}
	respondJSON(w, http.StatusCreated, photos)
}
