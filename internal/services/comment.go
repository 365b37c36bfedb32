package services

import (
	"context"
	"fmt"
	"strings"

	"pixshare-backend/internal/authz"
	"pixshare-backend/internal/models"
	"pixshare-backend/internal/notify"
	"pixshare-backend/internal/repository"
)

// maxCommentLength bounds comment bodies.
const maxCommentLength = 2000

// CommentService handles photo comments
type CommentService struct {
	commentRepo *repository.CommentRepository
	eventRepo   *repository.EventRepository
	shareRepo   *repository.ShareRepository
	userRepo    *repository.UserRepository
	feed        *FeedHub
	notifier    *notify.Client
}

// NewCommentService creates a new comment service
func NewCommentService(
	commentRepo *repository.CommentRepository,
	eventRepo *repository.EventRepository,
	shareRepo *repository.ShareRepository,
	userRepo *repository.UserRepository,
	feed *FeedHub,
	notifier *notify.Client,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		eventRepo:   eventRepo,
		shareRepo:   shareRepo,
		userRepo:    userRepo,
		feed:        feed,
		notifier:    notifier,
	}
}

// Add attaches a comment to a photo on behalf of the authorized actor
func (s *CommentService) Add(ctx context.Context, photo *models.Photo, actor authz.Actor, guestKey, displayName, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("comment cannot be empty")
	}
	if len(content) > maxCommentLength {
		return nil, fmt.Errorf("comment exceeds %d characters", maxCommentLength)
	}

	principal, err := resolvePrincipal(ctx, s.shareRepo, actor, guestKey, displayName)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PhotoID: photo.ID,
		Content: content,
		UserID:  principal.UserID,
		GuestID: principal.GuestID,
		ShareID: principal.ShareID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	comment.Author = "Guest"
	if principal.Guest != nil && principal.Guest.DisplayName != "" {
		comment.Author = principal.Guest.DisplayName
	}
	if principal.UserID != nil {
		if u, err := s.userRepo.GetByID(ctx, *principal.UserID); err == nil {
			comment.Author = u.FullName
		}
	}

	s.announce(ctx, photo, comment, principal)
	return comment, nil
}

func (s *CommentService) announce(ctx context.Context, photo *models.Photo, comment *models.Comment, principal Principal) {
	eventIDs, err := s.eventRepo.EventIDsForAlbum(ctx, photo.AlbumID)
	if err == nil {
		for _, eventID := range eventIDs {
			s.feed.Broadcast(eventID, FeedMessage{
				Type:    "comment_added",
				AlbumID: photo.AlbumID,
				PhotoID: photo.ID,
				Author:  comment.Author,
				Data:    map[string]interface{}{"content": comment.Content},
			})
		}
	}

	if principal.UserID != nil && *principal.UserID == photo.UserID {
		return
	}
	owner, err := s.userRepo.GetByID(ctx, photo.UserID)
	if err != nil || owner.PushToken == nil {
		return
	}
	s.notifier.Push(*owner.PushToken, "New comment", fmt.Sprintf("%s commented on %s", comment.Author, photo.Filename))
}

// List retrieves a photo's comments oldest first
func (s *CommentService) List(ctx context.Context, photoID models.PhotoID) ([]*models.Comment, error) {
	return s.commentRepo.ListByPhoto(ctx, photoID)
}

// Delete removes a comment. Authors delete their own; the photo owner
// moderates everything on their photos.
func (s *CommentService) Delete(ctx context.Context, photo *models.Photo, commentID int64, actor authz.Actor, guestKey string) error {
	comment, err := s.commentRepo.GetByID(ctx, photo.ID, commentID)
	if err != nil {
		return err
	}
	if !s.canDelete(ctx, photo, comment, actor, guestKey) {
		return models.ErrForbidden
	}
	return s.commentRepo.Delete(ctx, comment.ID)
}

func (s *CommentService) canDelete(ctx context.Context, photo *models.Photo, comment *models.Comment, actor authz.Actor, guestKey string) bool {
	if actor.UserID != 0 {
		if actor.UserID == photo.UserID {
			return true
		}
		return comment.UserID != nil && *comment.UserID == actor.UserID
	}
	if actor.Share == nil || guestKey == "" || comment.GuestID == nil {
		return false
	}
	guest, err := s.shareRepo.EnsureGuest(ctx, actor.Share.ID, guestKey, "")
	if err != nil {
		return false
	}
	return guest.ID == *comment.GuestID
}
