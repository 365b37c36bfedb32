package repository

import (
	"context"
	"errors"
	"fmt"

	"pixshare-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PhotoRepository handles database operations for photos
type PhotoRepository struct {
	db *pgxpool.Pool
}

// NewPhotoRepository creates a new photo repository
func NewPhotoRepository(db *pgxpool.Pool) *PhotoRepository {
	return &PhotoRepository{db: db}
}

// Create creates a new photo and fills in the generated id
func (r *PhotoRepository) Create(ctx context.Context, photo *models.Photo) error {
	query := `
		INSERT INTO photos (filename, filepath, size, album_id, user_id, uploaded_via_share_id, uploaded_by_guest_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, uploaded_at
	`
	err := r.db.QueryRow(ctx, query,
		photo.Filename, photo.FilePath, photo.Size, photo.AlbumID, photo.UserID,
		photo.ViaShareID, photo.GuestID,
	).Scan(&photo.ID, &photo.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}
	return nil
}

// GetByID retrieves a photo by ID
func (r *PhotoRepository) GetByID(ctx context.Context, id models.PhotoID) (*models.Photo, error) {
	query := `
		SELECT id, filename, filepath, size, album_id, user_id, uploaded_via_share_id, uploaded_by_guest_id, uploaded_at
		FROM photos
		WHERE id = $1
	`
	var photo models.Photo
	err := r.db.QueryRow(ctx, query, id).Scan(
		&photo.ID, &photo.Filename, &photo.FilePath, &photo.Size, &photo.AlbumID,
		&photo.UserID, &photo.ViaShareID, &photo.GuestID, &photo.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("photo not found: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return &photo, nil
}

// ListByAlbum retrieves all photos of an album in upload order
func (r *PhotoRepository) ListByAlbum(ctx context.Context, albumID models.AlbumID) ([]*models.Photo, error) {
	query := `
		SELECT id, filename, filepath, size, album_id, user_id, uploaded_via_share_id, uploaded_by_guest_id, uploaded_at
		FROM photos
		WHERE album_id = $1
		ORDER BY uploaded_at ASC
	`
	rows, err := r.db.Query(ctx, query, albumID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer rows.Close()

	var photos []*models.Photo
	for rows.Next() {
		var photo models.Photo
		err := rows.Scan(
			&photo.ID, &photo.Filename, &photo.FilePath, &photo.Size, &photo.AlbumID,
			&photo.UserID, &photo.ViaShareID, &photo.GuestID, &photo.UploadedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, &photo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating photos: %w", err)
	}
	return photos, nil
}

// ListByAlbums retrieves all photos across a set of albums in upload order
func (r *PhotoRepository) ListByAlbums(ctx context.Context, albumIDs []models.AlbumID) ([]*models.Photo, error) {
	if len(albumIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT id, filename, filepath, size, album_id, user_id, uploaded_via_share_id, uploaded_by_guest_id, uploaded_at
		FROM photos
		WHERE album_id = ANY($1)
		ORDER BY uploaded_at ASC
	`
	ids := make([]int64, len(albumIDs))
	for i, id := range albumIDs {
		ids[i] = int64(id)
	}
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer rows.Close()

	var photos []*models.Photo
	for rows.Next() {
		var photo models.Photo
		err := rows.Scan(
			&photo.ID, &photo.Filename, &photo.FilePath, &photo.Size, &photo.AlbumID,
			&photo.UserID, &photo.ViaShareID, &photo.GuestID, &photo.UploadedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, &photo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating photos: %w", err)
	}
	return photos, nil
}

// Delete deletes a photo row
func (r *PhotoRepository) Delete(ctx context.Context, id models.PhotoID) error {
	query := `DELETE FROM photos WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// StorageUsed sums the stored bytes of every photo the user owns
func (r *PhotoRepository) StorageUsed(ctx context.Context, userID models.UserID) (int64, error) {
	query := `SELECT COALESCE(SUM(size), 0) FROM photos WHERE user_id = $1`
	var total int64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum storage: %w", err)
	}
	return total, nil
}

// CountByGuest counts photos a guest has uploaded through shares
func (r *PhotoRepository) CountByGuest(ctx context.Context, guestID models.GuestID) (int, error) {
	query := `SELECT COUNT(*) FROM photos WHERE uploaded_by_guest_id = $1`
	var count int
	if err := r.db.QueryRow(ctx, query, guestID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count guest uploads: %w", err)
	}
	return count, nil
}
