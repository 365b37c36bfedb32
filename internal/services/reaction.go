package services

import (
	"context"
	"fmt"
	"unicode/utf8"

	"pixshare-backend/internal/authz"
	"pixshare-backend/internal/models"
	"pixshare-backend/internal/repository"
)

// maxEmojiLength bounds the reaction string; a few runes covers any emoji
// sequence with modifiers.
const maxEmojiLength = 16

// ReactionService handles photo reactions
type ReactionService struct {
	reactionRepo *repository.ReactionRepository
	shareRepo    *repository.ShareRepository
}

// NewReactionService creates a new reaction service
func NewReactionService(reactionRepo *repository.ReactionRepository, shareRepo *repository.ShareRepository) *ReactionService {
	return &ReactionService{
		reactionRepo: reactionRepo,
		shareRepo:    shareRepo,
	}
}

// Add records a reaction on a photo; reacting twice with the same emoji is
// a no-op
func (s *ReactionService) Add(ctx context.Context, photo *models.Photo, actor authz.Actor, guestKey, emoji string) (*models.Reaction, error) {
	if emoji == "" || len(emoji) > maxEmojiLength || !utf8.ValidString(emoji) {
		return nil, fmt.Errorf("invalid reaction")
	}
	principal, err := resolvePrincipal(ctx, s.shareRepo, actor, guestKey, "")
	if err != nil {
		return nil, err
	}

	reaction := &models.Reaction{
		PhotoID: photo.ID,
		Emoji:   emoji,
		UserID:  principal.UserID,
		GuestID: principal.GuestID,
		ShareID: principal.ShareID,
	}
	if err := s.reactionRepo.Add(ctx, reaction); err != nil {
		return nil, err
	}
	return reaction, nil
}

// Remove deletes the caller's own reaction with the given emoji
func (s *ReactionService) Remove(ctx context.Context, photo *models.Photo, actor authz.Actor, guestKey, emoji string) error {
	principal, err := resolvePrincipal(ctx, s.shareRepo, actor, guestKey, "")
	if err != nil {
		return err
	}
	return s.reactionRepo.Remove(ctx, photo.ID, emoji, principal.UserID, principal.GuestID)
}

// List retrieves all reactions on a photo
func (s *ReactionService) List(ctx context.Context, photoID models.PhotoID) ([]*models.Reaction, error) {
	return s.reactionRepo.ListByPhoto(ctx, photoID)
}
