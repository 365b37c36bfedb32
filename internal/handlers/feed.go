package handlers

import (
	"net/http"

	"pixshare-backend/internal/authz"
	"pixshare-backend/internal/middleware"
	"pixshare-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for MVP
	},
}

// FeedHandler upgrades clients onto an event's live feed
type FeedHandler struct {
	engine *authz.Engine
	hub    *services.FeedHub
}

// NewFeedHandler creates a new feed handler
func NewFeedHandler(engine *authz.Engine, hub *services.FeedHub) *FeedHandler {
	return &FeedHandler{engine: engine, hub: hub}
}

// HandleFeed handles GET /events/{eventID}/feed. Browsers cannot set
// headers on a WebSocket handshake, so the session token may also arrive
// as ?token= and the share token as ?t=.
func (h *FeedHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	eventID, ok := urlEventID(r)
	if !ok {
		respondError(w, "Invalid event id", http.StatusBadRequest)
		return
	}

	creds := middleware.GetCredentials(r.Context())
	if creds.SessionToken == "" {
		creds.SessionToken = r.URL.Query().Get("token")
	}
	v := h.engine.Authorize(r.Context(), authz.OpViewEvent, authz.EventTarget(eventID), creds)
	if !v.Allowed() {
		deny(w, v)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.hub.Subscribe(eventID, conn)
	defer h.hub.Unsubscribe(eventID, conn)

	// The feed is broadcast-only; the read loop just detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
