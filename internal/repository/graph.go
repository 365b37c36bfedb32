package repository

import (
	"context"
	"errors"
	"fmt"

	"pixshare-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Graph answers the read-only ownership and membership queries the
// authorization engine depends on. It deliberately exposes nothing but
// facts: no mutation, no listing beyond id sets.
type Graph struct {
	db *pgxpool.Pool
}

// NewGraph creates a resource graph over the shared pool
func NewGraph(db *pgxpool.Pool) *Graph {
	return &Graph{db: db}
}

// GetAlbumOwner returns the owning user of an album
func (g *Graph) GetAlbumOwner(ctx context.Context, id models.AlbumID) (models.UserID, error) {
	query := `SELECT user_id FROM albums WHERE id = $1`
	var owner models.UserID
	err := g.db.QueryRow(ctx, query, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("album not found: %w", models.ErrNotFound)
		}
		return 0, fmt.Errorf("failed to get album owner: %w", err)
	}
	return owner, nil
}

// GetPhoto returns the ownership facts of a photo
func (g *Graph) GetPhoto(ctx context.Context, id models.PhotoID) (*models.Photo, error) {
	query := `SELECT id, album_id, user_id, filepath FROM photos WHERE id = $1`
	var p models.Photo
	err := g.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.AlbumID, &p.UserID, &p.FilePath)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("photo not found: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return &p, nil
}

// GetEventOwner returns the owning user of an event
func (g *Graph) GetEventOwner(ctx context.Context, id models.EventID) (models.UserID, error) {
	query := `SELECT user_id FROM events WHERE id = $1`
	var owner models.UserID
	err := g.db.QueryRow(ctx, query, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("event not found: %w", models.ErrNotFound)
		}
		return 0, fmt.Errorf("failed to get event owner: %w", err)
	}
	return owner, nil
}

// GetAlbumsForEvent returns the ids of albums currently attached to an event
func (g *Graph) GetAlbumsForEvent(ctx context.Context, id models.EventID) ([]models.AlbumID, error) {
	query := `SELECT album_id FROM event_albums WHERE event_id = $1`
	rows, err := g.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event albums: %w", err)
	}
	defer rows.Close()

	var albums []models.AlbumID
	for rows.Next() {
		var albumID models.AlbumID
		if err := rows.Scan(&albumID); err != nil {
			return nil, fmt.Errorf("failed to scan album id: %w", err)
		}
		albums = append(albums, albumID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating album ids: %w", err)
	}
	return albums, nil
}

// IsParticipant reports whether the user has a membership row for the event
func (g *Graph) IsParticipant(ctx context.Context, event models.EventID, user models.UserID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM event_participants WHERE event_id = $1 AND user_id = $2)`
	var exists bool
	if err := g.db.QueryRow(ctx, query, event, user).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check participant: %w", err)
	}
	return exists, nil
}

// EventParticipant returns the capability snapshot captured when the user
// joined the event, or nil when no membership exists
func (g *Graph) EventParticipant(ctx context.Context, event models.EventID, user models.UserID) (*models.Capabilities, error) {
	query := `
		SELECT can_comment, can_react, can_upload, can_curate
		FROM event_participants
		WHERE event_id = $1 AND user_id = $2
	`
	var caps models.Capabilities
	err := g.db.QueryRow(ctx, query, event, user).Scan(
		&caps.CanComment, &caps.CanReact, &caps.CanUpload, &caps.CanCurate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return &caps, nil
}

// AlbumParticipant returns the combined capability snapshot of the user's
// memberships across every event the album is attached to, or nil when the
// user participates in none of them
func (g *Graph) AlbumParticipant(ctx context.Context, album models.AlbumID, user models.UserID) (*models.Capabilities, error) {
	query := `
		SELECT bool_or(ep.can_comment), bool_or(ep.can_react), bool_or(ep.can_upload), bool_or(ep.can_curate)
		FROM event_participants ep
		JOIN event_albums ea ON ea.event_id = ep.event_id
		WHERE ea.album_id = $1 AND ep.user_id = $2
	`
	var caps struct {
		canComment, canReact, canUpload, canCurate *bool
	}
	err := g.db.QueryRow(ctx, query, album, user).Scan(
		&caps.canComment, &caps.canReact, &caps.canUpload, &caps.canCurate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get album participant: %w", err)
	}
	// bool_or over zero rows yields NULLs: not a participant.
	if caps.canComment == nil {
		return nil, nil
	}
	return &models.Capabilities{
		CanComment: *caps.canComment,
		CanReact:   *caps.canReact,
		CanUpload:  *caps.canUpload,
		CanCurate:  *caps.canCurate,
	}, nil
}

// OwnsAlbumViaEvent reports whether the user owns an event the album is
// currently attached to
func (g *Graph) OwnsAlbumViaEvent(ctx context.Context, album models.AlbumID, user models.UserID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1
			FROM event_albums ea
			JOIN events e ON e.id = ea.event_id
			WHERE ea.album_id = $1 AND e.user_id = $2
		)
	`
	var exists bool
	if err := g.db.QueryRow(ctx, query, album, user).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check event ownership: %w", err)
	}
	return exists, nil
}
