package services

import (
	"encoding/json"
	"sync"
	"time"

	"pixshare-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// FeedMessage represents a live feed event pushed to event subscribers
type FeedMessage struct {
	Type      string         `json:"type"`
	Timestamp int64          `json:"timestamp"`
	EventID   models.EventID `json:"event_id"`
	AlbumID   models.AlbumID `json:"album_id,omitempty"`
	PhotoID   models.PhotoID `json:"photo_id,omitempty"`
	Author    string         `json:"author,omitempty"`
	Data      interface{}    `json:"data,omitempty"`
}

// FeedHub manages WebSocket subscriptions to event live feeds. A client
// subscribes to one event per connection; broadcasts fan out to every
// connection watching that event.
type FeedHub struct {
	mu   sync.RWMutex
	subs map[models.EventID]map[*websocket.Conn]bool
}

// NewFeedHub creates a new feed hub
func NewFeedHub() *FeedHub {
	return &FeedHub{
		subs: make(map[models.EventID]map[*websocket.Conn]bool),
	}
}

// Subscribe registers a connection for an event's feed
func (h *FeedHub) Subscribe(eventID models.EventID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[eventID] == nil {
		h.subs[eventID] = make(map[*websocket.Conn]bool)
	}
	h.subs[eventID][conn] = true

	log.Info().Int64("event_id", int64(eventID)).Msg("Feed subscriber connected")
}

// Unsubscribe removes a connection and closes it
func (h *FeedHub) Unsubscribe(eventID models.EventID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, exists := h.subs[eventID]; exists {
		if conns[conn] {
			delete(conns, conn)
			conn.Close()
			log.Info().Int64("event_id", int64(eventID)).Msg("Feed subscriber disconnected")
		}
		if len(conns) == 0 {
			delete(h.subs, eventID)
		}
	}
}

// Broadcast sends a message to every subscriber of an event. Dead
// connections are dropped on write failure.
func (h *FeedHub) Broadcast(eventID models.EventID, message FeedMessage) {
	if message.Timestamp == 0 {
		message.Timestamp = time.Now().UnixMilli()
	}
	message.EventID = eventID

	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal feed message")
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.subs[eventID]))
	for conn := range h.subs[eventID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Warn().Err(err).Int64("event_id", int64(eventID)).Msg("Dropping dead feed subscriber")
			h.Unsubscribe(eventID, conn)
		}
	}
}

// SubscriberCount reports how many connections watch an event
func (h *FeedHub) SubscriberCount(eventID models.EventID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[eventID])
}
