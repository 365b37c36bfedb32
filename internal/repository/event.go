package repository

import (
	"context"
	"errors"
	"fmt"

	"pixshare-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventRepository handles database operations for events, their album
// links and their participants
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Create creates a new event and fills in the generated id
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (title, description, event_date, user_id, share_token)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		event.Title, event.Description, event.Date, event.UserID, event.ShareToken,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id models.EventID) (*models.Event, error) {
	query := `
		SELECT id, title, description, event_date, user_id, share_token, created_at
		FROM events
		WHERE id = $1
	`
	var event models.Event
	err := r.db.QueryRow(ctx, query, id).Scan(
		&event.ID, &event.Title, &event.Description, &event.Date,
		&event.UserID, &event.ShareToken, &event.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("event not found: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

// ListByOwner retrieves all events owned by a user, newest first
func (r *EventRepository) ListByOwner(ctx context.Context, userID models.UserID) ([]*models.Event, error) {
	query := `
		SELECT id, title, description, event_date, user_id, share_token, created_at
		FROM events
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		var event models.Event
		err := rows.Scan(
			&event.ID, &event.Title, &event.Description, &event.Date,
			&event.UserID, &event.ShareToken, &event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

// Update stores new event metadata
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events
		SET title = $1, description = $2, event_date = $3, share_token = $4
		WHERE id = $5
	`
	result, err := r.db.Exec(ctx, query,
		event.Title, event.Description, event.Date, event.ShareToken, event.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete deletes an event; links, participants and shares cascade
func (r *EventRepository) Delete(ctx context.Context, id models.EventID) error {
	query := `DELETE FROM events WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// AttachAlbum links an album to an event; attaching twice is a no-op
func (r *EventRepository) AttachAlbum(ctx context.Context, eventID models.EventID, albumID models.AlbumID) error {
	query := `
		INSERT INTO event_albums (event_id, album_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, eventID, albumID); err != nil {
		return fmt.Errorf("failed to attach album: %w", err)
	}
	return nil
}

// DetachAlbum removes an album link from an event
func (r *EventRepository) DetachAlbum(ctx context.Context, eventID models.EventID, albumID models.AlbumID) error {
	query := `DELETE FROM event_albums WHERE event_id = $1 AND album_id = $2`
	result, err := r.db.Exec(ctx, query, eventID, albumID)
	if err != nil {
		return fmt.Errorf("failed to detach album: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListAlbums retrieves the albums attached to an event in attach order
func (r *EventRepository) ListAlbums(ctx context.Context, eventID models.EventID) ([]*models.Album, error) {
	query := `
		SELECT a.id, a.title, a.description, a.user_id, a.created_at,
		       (SELECT COUNT(*) FROM photos p WHERE p.album_id = a.id)
		FROM albums a
		JOIN event_albums ea ON ea.album_id = a.id
		WHERE ea.event_id = $1
		ORDER BY a.created_at ASC
	`
	rows, err := r.db.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list event albums: %w", err)
	}
	defer rows.Close()

	var albums []*models.Album
	for rows.Next() {
		var album models.Album
		err := rows.Scan(&album.ID, &album.Title, &album.Description, &album.UserID, &album.CreatedAt, &album.PhotoCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan album: %w", err)
		}
		albums = append(albums, &album)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event albums: %w", err)
	}
	return albums, nil
}

// EventIDsForAlbum retrieves the ids of every event an album is attached to
func (r *EventRepository) EventIDsForAlbum(ctx context.Context, albumID models.AlbumID) ([]models.EventID, error) {
	query := `SELECT event_id FROM event_albums WHERE album_id = $1`
	rows, err := r.db.Query(ctx, query, albumID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for album: %w", err)
	}
	defer rows.Close()

	var ids []models.EventID
	for rows.Next() {
		var id models.EventID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan event id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event ids: %w", err)
	}
	return ids, nil
}

// AddParticipant records an event membership with the capability snapshot
// captured from the share used to join. Joining twice keeps the original row.
func (r *EventRepository) AddParticipant(ctx context.Context, p *models.Participant) error {
	query := `
		INSERT INTO event_participants (event_id, user_id, share_token, can_comment, can_react, can_upload, can_curate)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT ON CONSTRAINT uq_event_user DO NOTHING
	`
	_, err := r.db.Exec(ctx, query,
		p.EventID, p.UserID, p.ShareToken,
		p.Caps.CanComment, p.Caps.CanReact, p.Caps.CanUpload, p.Caps.CanCurate,
	)
	if err != nil {
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

// RemoveParticipant deletes an event membership (voluntary leave or
// owner-forced removal)
func (r *EventRepository) RemoveParticipant(ctx context.Context, eventID models.EventID, userID models.UserID) error {
	query := `DELETE FROM event_participants WHERE event_id = $1 AND user_id = $2`
	result, err := r.db.Exec(ctx, query, eventID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListParticipants retrieves an event's participants with their join names
func (r *EventRepository) ListParticipants(ctx context.Context, eventID models.EventID) ([]*models.Participant, error) {
	query := `
		SELECT id, event_id, user_id, share_token, can_comment, can_react, can_upload, can_curate, joined_at
		FROM event_participants
		WHERE event_id = $1
		ORDER BY joined_at ASC
	`
	rows, err := r.db.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*models.Participant
	for rows.Next() {
		var p models.Participant
		err := rows.Scan(
			&p.ID, &p.EventID, &p.UserID, &p.ShareToken,
			&p.Caps.CanComment, &p.Caps.CanReact, &p.Caps.CanUpload, &p.Caps.CanCurate,
			&p.JoinedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participants: %w", err)
	}
	return participants, nil
}
