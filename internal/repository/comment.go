package repository

import (
	"context"
	"errors"
	"fmt"

	"pixshare-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CommentRepository handles database operations for photo comments
type CommentRepository struct {
	db *pgxpool.Pool
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create creates a new comment and fills in the generated id
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (photo_id, content, user_id, guest_id, share_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		comment.PhotoID, comment.Content, comment.UserID, comment.GuestID, comment.ShareID,
	).Scan(&comment.ID, &comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// GetByID retrieves a comment by ID, scoped to a photo
func (r *CommentRepository) GetByID(ctx context.Context, photoID models.PhotoID, id int64) (*models.Comment, error) {
	query := `
		SELECT id, photo_id, content, user_id, guest_id, share_id, created_at
		FROM comments
		WHERE id = $1 AND photo_id = $2
	`
	var c models.Comment
	err := r.db.QueryRow(ctx, query, id, photoID).Scan(
		&c.ID, &c.PhotoID, &c.Content, &c.UserID, &c.GuestID, &c.ShareID, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("comment not found: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &c, nil
}

// ListByPhoto retrieves a photo's comments oldest first, with the author
// display name resolved from either the user or the guest row
func (r *CommentRepository) ListByPhoto(ctx context.Context, photoID models.PhotoID) ([]*models.Comment, error) {
	query := `
		SELECT c.id, c.photo_id, c.content, c.user_id, c.guest_id, c.share_id, c.created_at,
		       COALESCE(u.full_name, NULLIF(g.display_name, ''), 'Guest')
		FROM comments c
		LEFT JOIN users u ON u.id = c.user_id
		LEFT JOIN guests g ON g.id = c.guest_id
		WHERE c.photo_id = $1
		ORDER BY c.created_at ASC
	`
	rows, err := r.db.Query(ctx, query, photoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		var c models.Comment
		err := rows.Scan(&c.ID, &c.PhotoID, &c.Content, &c.UserID, &c.GuestID, &c.ShareID, &c.CreatedAt, &c.Author)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}
	return comments, nil
}

// Delete deletes a comment
func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM comments WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
