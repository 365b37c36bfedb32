package handlers

import (
	"net/http"
	"time"

	"pixshare-backend/internal/authz"
	"pixshare-backend/internal/middleware"
	"pixshare-backend/internal/models"
	"pixshare-backend/internal/services"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// EventHandler handles event endpoints
type EventHandler struct {
	engine       *authz.Engine
	eventService *services.EventService
	photoService *services.PhotoService
}

// NewEventHandler creates a new event handler
func NewEventHandler(engine *authz.Engine, eventService *services.EventService, photoService *services.PhotoService) *EventHandler {
	return &EventHandler{
		engine:       engine,
		eventService: eventService,
		photoService: photoService,
	}
}

type eventRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Date        *time.Time `json:"date"`
}

func (r eventRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Length(0, 2000)),
	)
}

// Create handles POST /events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	userID := middleware.GetUserID(r.Context())
	event, err := h.eventService.Create(r.Context(), userID, req.Name, req.Description, req.Date)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, event)
}

// ListMine handles GET /events
func (h *EventHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	events, err := h.eventService.ListMine(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, events)
}

// authorizeEvent runs one engine check against an event target and writes
// the denial on failure.
func (h *EventHandler) authorizeEvent(w http.ResponseWriter, r *http.Request, op authz.Operation) (models.EventID, authz.Verdict, bool) {
	eventID, ok := urlEventID(r)
	if !ok {
		respondError(w, "Invalid event id", http.StatusBadRequest)
		return 0, authz.Verdict{}, false
	}
	creds := middleware.GetCredentials(r.Context())
	v := h.engine.Authorize(r.Context(), op, authz.EventTarget(eventID), creds)
	if !v.Allowed() {
		deny(w, v)
		return 0, authz.Verdict{}, false
	}
	return eventID, v, true
}

// Get handles GET /events/{eventID}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	eventID, v, ok := h.authorizeEvent(w, r, authz.OpViewEvent)
	if !ok {
		return
	}
	event, err := h.eventService.Get(r.Context(), eventID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	// The join link is the host's to hand out.
	if !v.Capabilities.Owner {
		event.ShareToken = ""
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"event": event,
		"caps":  v.Capabilities,
	})
}

// Update handles PUT /events/{eventID}
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	eventID, _, ok := h.authorizeEvent(w, r, authz.OpEditEvent)
	if !ok {
		return
	}
	event, err := h.eventService.Get(r.Context(), eventID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	event, err = h.eventService.Update(r.Context(), event, req.Name, req.Description, req.Date)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, event)
}

// Delete handles DELETE /events/{eventID}
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	eventID, _, ok := h.authorizeEvent(w, r, authz.OpEditEvent)
	if !ok {
		return
	}
	if err := h.eventService.Delete(r.Context(), eventID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type rotateLinkRequest struct {
	RevokeOld bool `json:"revoke_old"`
}

// RotateLink handles POST /events/{eventID}/link
func (h *EventHandler) RotateLink(w http.ResponseWriter, r *http.Request) {
	var req rotateLinkRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	eventID, _, ok := h.authorizeEvent(w, r, authz.OpShareResource)
	if !ok {
		return
	}
	event, err := h.eventService.Get(r.Context(), eventID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	event, err = h.eventService.RotateLink(r.Context(), event, req.RevokeOld)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, event)
}

// ListAlbums handles GET /events/{eventID}/albums
func (h *EventHandler) ListAlbums(w http.ResponseWriter, r *http.Request) {
	eventID, _, ok := h.authorizeEvent(w, r, authz.OpViewEvent)
	if !ok {
		return
	}
	albums, err := h.eventService.ListAlbums(r.Context(), eventID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, albums)
}

// ListPhotos handles GET /events/{eventID}/photos, the combined feed of
// every attached album
func (h *EventHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	eventID, _, ok := h.authorizeEvent(w, r, authz.OpViewEvent)
	if !ok {
		return
	}
	albums, err := h.eventService.ListAlbums(r.Context(), eventID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	ids := make([]models.AlbumID, len(albums))
	for i, a := range albums {
		ids[i] = a.ID
	}
	photos, err := h.photoService.ListAcrossAlbums(r.Context(), ids)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, photos)
}

type attachAlbumRequest struct {
	AlbumID models.AlbumID `json:"album_id"`
}

func (r attachAlbumRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AlbumID, validation.Required),
	)
}

// AttachAlbum handles POST /events/{eventID}/albums. Curation needs the
// curate capability on the event and view access to the album being
// attached, so a curator cannot pull in albums they cannot see.
func (h *EventHandler) AttachAlbum(w http.ResponseWriter, r *http.Request) {
	var req attachAlbumRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	eventID, _, ok := h.authorizeEvent(w, r, authz.OpCurate)
	if !ok {
		return
	}
	creds := middleware.GetCredentials(r.Context())
	av := h.engine.Authorize(r.Context(), authz.OpViewAlbum, authz.AlbumTarget(req.AlbumID), creds)
	if !av.Allowed() {
		deny(w, av)
		return
	}

	if err := h.eventService.AttachAlbum(r.Context(), eventID, req.AlbumID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "attached"})
}

// DetachAlbum handles DELETE /events/{eventID}/albums/{albumID}
func (h *EventHandler) DetachAlbum(w http.ResponseWriter, r *http.Request) {
	albumID, ok := urlAlbumID(r)
	if !ok {
		respondError(w, "Invalid album id", http.StatusBadRequest)
		return
	}
	eventID, _, authOK := h.authorizeEvent(w, r, authz.OpCurate)
	if !authOK {
		return
	}
	if err := h.eventService.DetachAlbum(r.Context(), eventID, albumID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "detached"})
}

// Join handles POST /events/{eventID}/join. The caller must be signed in
// and present a live event share token; the participant row snapshots the
// share's capabilities.
func (h *EventHandler) Join(w http.ResponseWriter, r *http.Request) {
	eventID, v, ok := h.authorizeEvent(w, r, authz.OpJoinEvent)
	if !ok {
		return
	}
	if v.Capabilities.Owner {
		// Hosts are implicit members; joining their own event is a no-op.
		respondJSON(w, http.StatusOK, map[string]string{"status": "owner"})
		return
	}
	if v.Actor.Share == nil {
		// Granted without a share means the membership row already exists.
		respondJSON(w, http.StatusOK, map[string]string{"status": "joined"})
		return
	}
	if err := h.eventService.Join(r.Context(), eventID, v.Actor.UserID, v.Actor.Share); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "joined"})
}

// Leave handles POST /events/{eventID}/leave
func (h *EventHandler) Leave(w http.ResponseWriter, r *http.Request) {
	eventID, ok := urlEventID(r)
	if !ok {
		respondError(w, "Invalid event id", http.StatusBadRequest)
		return
	}
	userID := middleware.GetUserID(r.Context())
	if err := h.eventService.Leave(r.Context(), eventID, userID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

// ListParticipants handles GET /events/{eventID}/participants
func (h *EventHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	eventID, _, ok := h.authorizeEvent(w, r, authz.OpViewEvent)
	if !ok {
		return
	}
	participants, err := h.eventService.ListParticipants(r.Context(), eventID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, participants)
}

// RemoveParticipant handles DELETE /events/{eventID}/participants/{userID}
func (h *EventHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	userID, ok := urlID(r, "userID")
	if !ok {
		respondError(w, "Invalid user id", http.StatusBadRequest)
		return
	}
	eventID, _, authOK := h.authorizeEvent(w, r, authz.OpEditEvent)
	if !authOK {
		return
	}
	if err := h.eventService.RemoveParticipant(r.Context(), eventID, models.UserID(userID)); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
