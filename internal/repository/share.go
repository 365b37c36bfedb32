package repository

import (
	"context"
	"errors"
	"fmt"

	"pixshare-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const shareColumns = `id, token, album_id, photo_id, event_id,
	can_comment, can_react, can_upload, can_curate,
	expires_at, max_upload_bytes, max_files_per_guest, created_at`

// ShareRepository handles database operations for shares and their guests
type ShareRepository struct {
	db *pgxpool.Pool
}

// NewShareRepository creates a new share repository
func NewShareRepository(db *pgxpool.Pool) *ShareRepository {
	return &ShareRepository{db: db}
}

func scanShare(row pgx.Row) (*models.Share, error) {
	var s models.Share
	err := row.Scan(
		&s.ID, &s.Token, &s.AlbumID, &s.PhotoID, &s.EventID,
		&s.Caps.CanComment, &s.Caps.CanReact, &s.Caps.CanUpload, &s.Caps.CanCurate,
		&s.ExpiresAt, &s.MaxUploadBytes, &s.MaxFilesPerGuest, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create creates a new share and fills in the generated id
func (r *ShareRepository) Create(ctx context.Context, share *models.Share) error {
	query := `
		INSERT INTO shares (token, album_id, photo_id, event_id, can_comment, can_react, can_upload, can_curate, expires_at, max_upload_bytes, max_files_per_guest)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		share.Token, share.AlbumID, share.PhotoID, share.EventID,
		share.Caps.CanComment, share.Caps.CanReact, share.Caps.CanUpload, share.Caps.CanCurate,
		share.ExpiresAt, share.MaxUploadBytes, share.MaxFilesPerGuest,
	).Scan(&share.ID, &share.CreatedAt)
	if err != nil {
		if isDuplicateError(err) {
			return fmt.Errorf("share token collision: %w", models.ErrDuplicate)
		}
		return fmt.Errorf("failed to create share: %w", err)
	}
	return nil
}

// GetByID retrieves a share by ID
func (r *ShareRepository) GetByID(ctx context.Context, id models.ShareID) (*models.Share, error) {
	query := `SELECT ` + shareColumns + ` FROM shares WHERE id = $1`
	s, err := scanShare(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("share not found: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get share: %w", err)
	}
	return s, nil
}

// GetByToken retrieves a share by its token. Expired shares are returned
// as-is; authorization treats them as absent while owners can still see
// them for revocation.
func (r *ShareRepository) GetByToken(ctx context.Context, token string) (*models.Share, error) {
	query := `SELECT ` + shareColumns + ` FROM shares WHERE token = $1`
	s, err := scanShare(r.db.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("share not found: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get share by token: %w", err)
	}
	return s, nil
}

// Delete revokes a share by ID
func (r *ShareRepository) Delete(ctx context.Context, id models.ShareID) error {
	query := `DELETE FROM shares WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete share: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteByEvent revokes every share scoped to an event (link rotation)
func (r *ShareRepository) DeleteByEvent(ctx context.Context, eventID models.EventID) error {
	query := `DELETE FROM shares WHERE event_id = $1`
	if _, err := r.db.Exec(ctx, query, eventID); err != nil {
		return fmt.Errorf("failed to delete event shares: %w", err)
	}
	return nil
}

// EnsureGuest returns the guest bound to (share, guest_key), creating the
// row on first contact and refreshing last_seen_at on every call.
func (r *ShareRepository) EnsureGuest(ctx context.Context, shareID models.ShareID, guestKey, displayName string) (*models.Guest, error) {
	query := `
		INSERT INTO guests (share_id, guest_key, display_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (guest_key) DO UPDATE SET last_seen_at = now()
		RETURNING id, share_id, guest_key, display_name, created_at, last_seen_at
	`
	var g models.Guest
	err := r.db.QueryRow(ctx, query, shareID, guestKey, displayName).Scan(
		&g.ID, &g.ShareID, &g.GuestKey, &g.DisplayName, &g.CreatedAt, &g.LastSeenAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure guest: %w", err)
	}
	return &g, nil
}
