package handlers

import (
	"net/http"
	"time"

	"pixshare-backend/internal/authz"
	"pixshare-backend/internal/middleware"
	"pixshare-backend/internal/models"
	"pixshare-backend/internal/services"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ShareHandler handles share creation, revocation and the public
// token-addressed views
type ShareHandler struct {
	engine       *authz.Engine
	shareService *services.ShareService
	albumService *services.AlbumService
	photoService *services.PhotoService
	eventService *services.EventService
}

// NewShareHandler creates a new share handler
func NewShareHandler(
	engine *authz.Engine,
	shareService *services.ShareService,
	albumService *services.AlbumService,
	photoService *services.PhotoService,
	eventService *services.EventService,
) *ShareHandler {
	return &ShareHandler{
		engine:       engine,
		shareService: shareService,
		albumService: albumService,
		photoService: photoService,
		eventService: eventService,
	}
}

type createShareRequest struct {
	CanComment       bool       `json:"can_comment"`
	CanReact         bool       `json:"can_react"`
	CanUpload        bool       `json:"can_upload"`
	CanCurate        bool       `json:"can_curate"`
	ExpiresAt        *time.Time `json:"expires_at"`
	MaxUploadBytes   *int64     `json:"max_upload_bytes"`
	MaxFilesPerGuest *int       `json:"max_files_per_guest"`
}

func (r createShareRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MaxUploadBytes, validation.Min(int64(1))),
		validation.Field(&r.MaxFilesPerGuest, validation.Min(1)),
	)
}

func (r createShareRequest) options() services.ShareOptions {
	return services.ShareOptions{
		Caps: models.Capabilities{
			CanComment: r.CanComment,
			CanReact:   r.CanReact,
			CanUpload:  r.CanUpload,
			CanCurate:  r.CanCurate,
		},
		ExpiresAt:        r.ExpiresAt,
		MaxUploadBytes:   r.MaxUploadBytes,
		MaxFilesPerGuest: r.MaxFilesPerGuest,
	}
}

// decodeShareRequest parses and validates the share creation body
func decodeShareRequest(w http.ResponseWriter, r *http.Request) (createShareRequest, bool) {
	var req createShareRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return req, false
	}
	if err := req.Validate(); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return req, false
	}
	return req, true
}

// CreateForAlbum handles POST /albums/{albumID}/shares
func (h *ShareHandler) CreateForAlbum(w http.ResponseWriter, r *http.Request) {
	albumID, ok := urlAlbumID(r)
	if !ok {
		respondError(w, "Invalid album id", http.StatusBadRequest)
		return
	}
	req, ok := decodeShareRequest(w, r)
	if !ok {
		return
	}
	creds := middleware.GetCredentials(r.Context())
	v := h.engine.Authorize(r.Context(), authz.OpShareResource, authz.AlbumTarget(albumID), creds)
	if !v.Allowed() {
		deny(w, v)
		return
	}

	share, err := h.shareService.CreateForAlbum(r.Context(), albumID, req.options())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, share)
}

// CreateForPhoto handles POST /photos/{photoID}/shares
func (h *ShareHandler) CreateForPhoto(w http.ResponseWriter, r *http.Request) {
	photoID, ok := urlPhotoID(r)
	if !ok {
		respondError(w, "Invalid photo id", http.StatusBadRequest)
		return
	}
	req, ok := decodeShareRequest(w, r)
	if !ok {
		return
	}
	creds := middleware.GetCredentials(r.Context())
	v := h.engine.Authorize(r.Context(), authz.OpShareResource, authz.PhotoTarget(photoID), creds)
	if !v.Allowed() {
		deny(w, v)
		return
	}

	share, err := h.shareService.CreateForPhoto(r.Context(), photoID, req.options())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, share)
}

// CreateForEvent handles POST /events/{eventID}/shares
func (h *ShareHandler) CreateForEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := urlEventID(r)
	if !ok {
		respondError(w, "Invalid event id", http.StatusBadRequest)
		return
	}
	req, ok := decodeShareRequest(w, r)
	if !ok {
		return
	}
	creds := middleware.GetCredentials(r.Context())
	v := h.engine.Authorize(r.Context(), authz.OpShareResource, authz.EventTarget(eventID), creds)
	if !v.Allowed() {
		deny(w, v)
		return
	}

	share, err := h.shareService.CreateForEvent(r.Context(), eventID, req.options())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, share)
}

// shareTarget maps a share's scope onto the engine target it protects
func shareTarget(share *models.Share) (authz.Target, bool) {
	switch share.Scope() {
	case models.ScopeAlbum:
		return authz.AlbumTarget(*share.AlbumID), true
	case models.ScopePhoto:
		return authz.PhotoTarget(*share.PhotoID), true
	case models.ScopeEvent:
		return authz.EventTarget(*share.EventID), true
	}
	return authz.Target{}, false
}

// Revoke handles DELETE /shares/{shareID}. Revocation needs the same
// authority as creating the share: ownership of the underlying resource.
func (h *ShareHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	shareID, ok := urlID(r, "shareID")
	if !ok {
		respondError(w, "Invalid share id", http.StatusBadRequest)
		return
	}
	share, err := h.shareService.Get(r.Context(), models.ShareID(shareID))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	target, ok := shareTarget(share)
	if !ok {
		respondError(w, "Not found", http.StatusNotFound)
		return
	}

	creds := middleware.GetCredentials(r.Context())
	v := h.engine.Authorize(r.Context(), authz.OpShareResource, target, creds)
	if !v.Allowed() {
		deny(w, v)
		return
	}

	if err := h.shareService.Revoke(r.Context(), share.ID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

type registerGuestRequest struct {
	GuestKey string `json:"guest_key"`
	Name     string `json:"name"`
}

func (r registerGuestRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.GuestKey, validation.Length(0, 64)),
		validation.Field(&r.Name, validation.Length(0, 120)),
	)
}

// RegisterGuest handles POST /s/{token}/guest. It hands anonymous visitors
// a stable identity so their uploads, comments and reactions attribute
// consistently across visits.
func (h *ShareHandler) RegisterGuest(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		respondError(w, "Not found", http.StatusNotFound)
		return
	}
	var req registerGuestRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	guest, err := h.shareService.RegisterGuest(r.Context(), token, req.GuestKey, req.Name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, guest)
}

// Resolve handles GET /s/{token}, the public entry point a share link
// opens. It authorizes through the engine like every other route and
// returns the scoped resource with the capability set the token carries.
func (h *ShareHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		respondError(w, "Not found", http.StatusNotFound)
		return
	}
	share, err := h.shareService.Resolve(r.Context(), token)
	if err != nil {
		respondError(w, "Invalid or expired link", http.StatusNotFound)
		return
	}
	target, ok := shareTarget(share)
	if !ok {
		respondError(w, "Invalid or expired link", http.StatusNotFound)
		return
	}

	creds := authz.Credentials{ShareToken: token}
	var op authz.Operation
	switch share.Scope() {
	case models.ScopeAlbum:
		op = authz.OpViewAlbum
	case models.ScopePhoto:
		op = authz.OpViewPhoto
	default:
		op = authz.OpViewEvent
	}
	v := h.engine.Authorize(r.Context(), op, target, creds)
	if !v.Allowed() {
		deny(w, v)
		return
	}

	switch share.Scope() {
	case models.ScopeAlbum:
		album, err := h.albumService.Get(r.Context(), *share.AlbumID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		photos, err := h.albumService.ListPhotos(r.Context(), *share.AlbumID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"scope":  "album",
			"album":  album,
			"photos": photos,
			"caps":   v.Capabilities,
		})

	case models.ScopePhoto:
		photo, err := h.photoService.Get(r.Context(), *share.PhotoID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"scope": "photo",
			"photo": photo,
			"caps":  v.Capabilities,
		})

	default:
		event, err := h.eventService.Get(r.Context(), *share.EventID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		event.ShareToken = ""
		albums, err := h.eventService.ListAlbums(r.Context(), *share.EventID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"scope":  "event",
			"event":  event,
			"albums": albums,
			"caps":   v.Capabilities,
		})
	}
}
