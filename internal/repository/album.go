package repository

import (
	"context"
	"errors"
	"fmt"

	"pixshare-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AlbumRepository handles database operations for albums
type AlbumRepository struct {
	db *pgxpool.Pool
}

// NewAlbumRepository creates a new album repository
func NewAlbumRepository(db *pgxpool.Pool) *AlbumRepository {
	return &AlbumRepository{db: db}
}

// Create creates a new album and fills in the generated id
func (r *AlbumRepository) Create(ctx context.Context, album *models.Album) error {
	query := `
		INSERT INTO albums (title, description, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, album.Title, album.Description, album.UserID).
		Scan(&album.ID, &album.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create album: %w", err)
	}
	return nil
}

// GetByID retrieves an album by ID, including its photo count
func (r *AlbumRepository) GetByID(ctx context.Context, id models.AlbumID) (*models.Album, error) {
	query := `
		SELECT a.id, a.title, a.description, a.user_id, a.created_at,
		       (SELECT COUNT(*) FROM photos p WHERE p.album_id = a.id)
		FROM albums a
		WHERE a.id = $1
	`
	var album models.Album
	err := r.db.QueryRow(ctx, query, id).Scan(
		&album.ID, &album.Title, &album.Description, &album.UserID, &album.CreatedAt, &album.PhotoCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("album not found: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get album: %w", err)
	}
	return &album, nil
}

// ListByOwner retrieves all albums owned by a user
func (r *AlbumRepository) ListByOwner(ctx context.Context, userID models.UserID) ([]*models.Album, error) {
	query := `
		SELECT a.id, a.title, a.description, a.user_id, a.created_at,
		       (SELECT COUNT(*) FROM photos p WHERE p.album_id = a.id)
		FROM albums a
		WHERE a.user_id = $1
		ORDER BY a.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
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
		return nil, fmt.Errorf("error iterating albums: %w", err)
	}
	return albums, nil
}

// ListRecentByOwner retrieves the user's newest albums, capped at limit
func (r *AlbumRepository) ListRecentByOwner(ctx context.Context, userID models.UserID, limit int) ([]*models.Album, error) {
	query := `
		SELECT a.id, a.title, a.description, a.user_id, a.created_at,
		       (SELECT COUNT(*) FROM photos p WHERE p.album_id = a.id)
		FROM albums a
		WHERE a.user_id = $1
		ORDER BY a.created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent albums: %w", err)
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
		return nil, fmt.Errorf("error iterating albums: %w", err)
	}
	return albums, nil
}

// Delete deletes an album; photos, shares and event links cascade
func (r *AlbumRepository) Delete(ctx context.Context, id models.AlbumID) error {
	query := `DELETE FROM albums WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete album: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
