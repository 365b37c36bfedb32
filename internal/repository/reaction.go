package repository

import (
	"context"
	"fmt"

	"pixshare-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ReactionRepository handles database operations for photo reactions
type ReactionRepository struct {
	db *pgxpool.Pool
}

// NewReactionRepository creates a new reaction repository
func NewReactionRepository(db *pgxpool.Pool) *ReactionRepository {
	return &ReactionRepository{db: db}
}

// Add records a reaction. The unique constraints keep one row per
// (photo, principal, emoji); re-adding is a no-op.
func (r *ReactionRepository) Add(ctx context.Context, reaction *models.Reaction) error {
	query := `
		INSERT INTO photo_reactions (photo_id, emoji, user_id, guest_id, share_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING
	`
	_, err := r.db.Exec(ctx, query,
		reaction.PhotoID, reaction.Emoji, reaction.UserID, reaction.GuestID, reaction.ShareID,
	)
	if err != nil {
		return fmt.Errorf("failed to add reaction: %w", err)
	}
	return nil
}

// Remove deletes the principal's reaction with the given emoji
func (r *ReactionRepository) Remove(ctx context.Context, photoID models.PhotoID, emoji string, userID *models.UserID, guestID *models.GuestID) error {
	query := `
		DELETE FROM photo_reactions
		WHERE photo_id = $1 AND emoji = $2
		  AND user_id IS NOT DISTINCT FROM $3
		  AND guest_id IS NOT DISTINCT FROM $4
	`
	result, err := r.db.Exec(ctx, query, photoID, emoji, userID, guestID)
	if err != nil {
		return fmt.Errorf("failed to remove reaction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListByPhoto retrieves all reactions on a photo, oldest first
func (r *ReactionRepository) ListByPhoto(ctx context.Context, photoID models.PhotoID) ([]*models.Reaction, error) {
	query := `
		SELECT id, photo_id, emoji, user_id, guest_id, share_id, created_at
		FROM photo_reactions
		WHERE photo_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, photoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}
	defer rows.Close()

	var reactions []*models.Reaction
	for rows.Next() {
		var reaction models.Reaction
		err := rows.Scan(
			&reaction.ID, &reaction.PhotoID, &reaction.Emoji,
			&reaction.UserID, &reaction.GuestID, &reaction.ShareID, &reaction.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reaction: %w", err)
		}
		reactions = append(reactions, &reaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reactions: %w", err)
	}
	return reactions, nil
}
