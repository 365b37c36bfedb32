package handlers

import (
	"net/http"

	"pixshare-backend/internal/authz"
	"pixshare-backend/internal/middleware"
	"pixshare-backend/internal/services"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// PhotoHandler handles photo, comment and reaction endpoints
type PhotoHandler struct {
	engine          *authz.Engine
	photoService    *services.PhotoService
	commentService  *services.CommentService
	reactionService *services.ReactionService
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(
	engine *authz.Engine,
	photoService *services.PhotoService,
	commentService *services.CommentService,
	reactionService *services.ReactionService,
) *PhotoHandler {
	return &PhotoHandler{
		engine:          engine,
		photoService:    photoService,
		commentService:  commentService,
		reactionService: reactionService,
	}
}

// Get handles GET /photos/{photoID}
func (h *PhotoHandler) Get(w http.ResponseWriter, r *http.Request) {
	photoID, ok := urlPhotoID(r)
	if !ok {
		respondError(w, "Invalid photo id", http.StatusBadRequest)
		return
	}
	creds := middleware.GetCredentials(r.Context())
	v := h.engine.Authorize(r.Context(), authz.OpViewPhoto, authz.PhotoTarget(photoID), creds)
	if !v.Allowed() {
		deny(w, v)
		return
	}

	photo, err := h.photoService.Get(r.Context(), photoID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"photo": photo,
		"caps":  v.Capabilities,
	})
}

// Delete handles DELETE /photos/{photoID}
func (h *PhotoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	photoID, ok := urlPhotoID(r)
	if !ok {
		respondError(w, "Invalid photo id", http.StatusBadRequest)
		return
	}
	creds := middleware.GetCredentials(r.Context())
	v := h.engine.Authorize(r.Context(), authz.OpDeletePhoto, authz.PhotoTarget(photoID), creds)
	if !v.Allowed() {
		deny(w, v)
		return
	}

	photo, err := h.photoService.Get(r.Context(), photoID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if err := h.photoService.Delete(r.Context(), photo); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListComments handles GET /photos/{photoID}/comments
func (h *PhotoHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	photoID, ok := urlPhotoID(r)
	if !ok {
		respondError(w, "Invalid photo id", http.StatusBadRequest)
		return
	}
	creds := middleware.GetCredentials(r.Context())
	v := h.engine.Authorize(r.Context(), authz.OpViewPhoto, authz.PhotoTarget(photoID), creds)
	if !v.Allowed() {
		deny(w, v)
		return
	}

	comments, err := h.commentService.List(r.Context(), photoID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, comments)
}

type commentRequest struct {
	Content string `json:"content"`
	Name    string `json:"name"`
}

func (r commentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.Required, validation.Length(1, 2000)),
		validation.Field(&r.Name, validation.Length(0, 120)),
	)
}

// AddComment handles POST /photos/{photoID}/comments
func (h *PhotoHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	photoID, ok := urlPhotoID(r)
	if !ok {
		respondError(w, "Invalid photo id", http.StatusBadRequest)
		return
	}
	var req commentRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	creds := middleware.GetCredentials(r.Context())
	v := h.engine.Authorize(r.Context(), authz.OpComment, authz.PhotoTarget(photoID), creds)
	if !v.Allowed() {
		deny(w, v)
		return
	}

	photo, err := h.photoService.Get(r.Context(), photoID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	comment, err := h.commentService.Add(r.Context(), photo, v.Actor, creds.GuestKey, req.Name, req.Content)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, comment)
}

// DeleteComment handles DELETE /photos/{photoID}/comments/{commentID}
func (h *PhotoHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	photoID, ok := urlPhotoID(r)
	if !ok {
		respondError(w, "Invalid photo id", http.StatusBadRequest)
		return
	}
	commentID, ok := urlID(r, "commentID")
	if !ok {
		respondError(w, "Invalid comment id", http.StatusBadRequest)
		return
	}

	creds := middleware.GetCredentials(r.Context())
	v := h.engine.Authorize(r.Context(), authz.OpComment, authz.PhotoTarget(photoID), creds)
	if !v.Allowed() {
		deny(w, v)
		return
	}

	photo, err := h.photoService.Get(r.Context(), photoID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if err := h.commentService.Delete(r.Context(), photo, commentID, v.Actor, creds.GuestKey); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListReactions handles GET /photos/{photoID}/reactions
func (h *PhotoHandler) ListReactions(w http.ResponseWriter, r *http.Request) {
	photoID, ok := urlPhotoID(r)
	if !ok {
		respondError(w, "Invalid photo id", http.StatusBadRequest)
		return
	}
	creds := middleware.GetCredentials(r.Context())
	v := h.engine.Authorize(r.Context(), authz.OpViewPhoto, authz.PhotoTarget(photoID), creds)
	if !v.Allowed() {
		deny(w, v)
		return
	}

	reactions, err := h.reactionService.List(r.Context(), photoID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, reactions)
}

type reactionRequest struct {
	Emoji string `json:"emoji"`
}

func (r reactionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Emoji, validation.Required, validation.Length(1, 16)),
	)
}

// AddReaction handles POST /photos/{photoID}/reactions
func (h *PhotoHandler) AddReaction(w http.ResponseWriter, r *http.Request) {
	photoID, ok := urlPhotoID(r)
	if !ok {
		respondError(w, "Invalid photo id", http.StatusBadRequest)
		return
	}
	var req reactionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	creds := middleware.GetCredentials(r.Context())
	v := h.engine.Authorize(r.Context(), authz.OpReact, authz.PhotoTarget(photoID), creds)
	if !v.Allowed() {
		deny(w, v)
		return
	}

	photo, err := h.photoService.Get(r.Context(), photoID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	reaction, err := h.reactionService.Add(r.Context(), photo, v.Actor, creds.GuestKey, req.Emoji)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, reaction)
}

// RemoveReaction handles DELETE /photos/{photoID}/reactions
func (h *PhotoHandler) RemoveReaction(w http.ResponseWriter, r *http.Request) {
	photoID, ok := urlPhotoID(r)
	if !ok {
		respondError(w, "Invalid photo id", http.StatusBadRequest)
		return
	}
	var req reactionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	creds := middleware.GetCredentials(r.Context())
	v := h.engine.Authorize(r.Context(), authz.OpReact, authz.PhotoTarget(photoID), creds)
	if !v.Allowed() {
		deny(w, v)
		return
	}

	photo, err := h.photoService.Get(r.Context(), photoID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if err := h.reactionService.Remove(r.Context(), photo, v.Actor, creds.GuestKey, req.Emoji); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
