package services

import (
	"context"
	"errors"
	"time"

	"pixshare-backend/internal/models"
	"pixshare-backend/internal/repository"
)

// defaultJoinCaps are the capabilities a fresh event join link carries.
var defaultJoinCaps = models.Capabilities{
	CanComment: true,
	CanReact:   true,
	CanUpload:  true,
}

// EventService handles events, their album links, participants and join links
type EventService struct {
	eventRepo *repository.EventRepository
	shareRepo *repository.ShareRepository
}

// NewEventService creates a new event service
func NewEventService(eventRepo *repository.EventRepository, shareRepo *repository.ShareRepository) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		shareRepo: shareRepo,
	}
}

// Create creates an event with a fresh event-scoped join share. The share's
// token is mirrored on the event row so hosts can hand out one link.
func (s *EventService) Create(ctx context.Context, ownerID models.UserID, title, description string, date *time.Time) (*models.Event, error) {
	event := &models.Event{
		Title:       title,
		Description: description,
		Date:        date,
		UserID:      ownerID,
	}
	token, err := newShareToken()
	if err != nil {
		return nil, err
	}
	event.ShareToken = token
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}

	share := &models.Share{
		Token:   token,
		EventID: &event.ID,
		Caps:    defaultJoinCaps,
	}
	if err := s.shareRepo.Create(ctx, share); err != nil {
		return nil, err
	}
	return event, nil
}

// Get retrieves an event by ID
func (s *EventService) Get(ctx context.Context, id models.EventID) (*models.Event, error) {
	return s.eventRepo.GetByID(ctx, id)
}

// ListMine retrieves the caller's events
func (s *EventService) ListMine(ctx context.Context, ownerID models.UserID) ([]*models.Event, error) {
	return s.eventRepo.ListByOwner(ctx, ownerID)
}

// Update stores new event metadata
func (s *EventService) Update(ctx context.Context, event *models.Event, title, description string, date *time.Time) (*models.Event, error) {
	event.Title = title
	event.Description = description
	event.Date = date
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// Delete deletes an event. Album links, participants and event-scoped
// shares cascade; the albums themselves stay with their owners.
func (s *EventService) Delete(ctx context.Context, id models.EventID) error {
	return s.eventRepo.Delete(ctx, id)
}

// RotateLink issues a new join share for the event. With revokeOld set,
// every earlier event-scoped share dies with the rotation and links in the
// wild stop resolving.
func (s *EventService) RotateLink(ctx context.Context, event *models.Event, revokeOld bool) (*models.Event, error) {
	if revokeOld {
		if err := s.shareRepo.DeleteByEvent(ctx, event.ID); err != nil {
			return nil, err
		}
	}
	token, err := newShareToken()
	if err != nil {
		return nil, err
	}
	share := &models.Share{
		Token:   token,
		EventID: &event.ID,
		Caps:    defaultJoinCaps,
	}
	if err := s.shareRepo.Create(ctx, share); err != nil {
		return nil, err
	}

	event.ShareToken = token
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// AttachAlbum links an album to an event
func (s *EventService) AttachAlbum(ctx context.Context, eventID models.EventID, albumID models.AlbumID) error {
	return s.eventRepo.AttachAlbum(ctx, eventID, albumID)
}

// DetachAlbum removes an album link from an event
func (s *EventService) DetachAlbum(ctx context.Context, eventID models.EventID, albumID models.AlbumID) error {
	return s.eventRepo.DetachAlbum(ctx, eventID, albumID)
}

// ListAlbums retrieves the albums attached to an event
func (s *EventService) ListAlbums(ctx context.Context, eventID models.EventID) ([]*models.Album, error) {
	return s.eventRepo.ListAlbums(ctx, eventID)
}

// Join records the user as a participant, snapshotting the capabilities of
// the share they joined through. Joining an event twice keeps the first
// snapshot; capabilities do not escalate on re-join.
func (s *EventService) Join(ctx context.Context, eventID models.EventID, userID models.UserID, share *models.Share) error {
	p := &models.Participant{
		EventID:    eventID,
		UserID:     userID,
		ShareToken: share.Token,
		Caps:       share.Caps,
	}
	return s.eventRepo.AddParticipant(ctx, p)
}

// Leave removes the caller's own participation
func (s *EventService) Leave(ctx context.Context, eventID models.EventID, userID models.UserID) error {
	err := s.eventRepo.RemoveParticipant(ctx, eventID, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	return err
}

// RemoveParticipant lets the event owner force a member out
func (s *EventService) RemoveParticipant(ctx context.Context, eventID models.EventID, userID models.UserID) error {
	return s.eventRepo.RemoveParticipant(ctx, eventID, userID)
}

// ListParticipants retrieves an event's participants
func (s *EventService) ListParticipants(ctx context.Context, eventID models.EventID) ([]*models.Participant, error) {
	return s.eventRepo.ListParticipants(ctx, eventID)
}
