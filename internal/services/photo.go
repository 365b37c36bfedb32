package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"pixshare-backend/internal/authz"
	"pixshare-backend/internal/models"
	"pixshare-backend/internal/notify"
	"pixshare-backend/internal/repository"
	"pixshare-backend/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// maxUploadBytes caps a single upload when the share sets no tighter limit.
const maxUploadBytes = 50 << 20

// PhotoService handles photo uploads, retrieval and deletion
type PhotoService struct {
	photoRepo *repository.PhotoRepository
	eventRepo *repository.EventRepository
	shareRepo *repository.ShareRepository
	userRepo  *repository.UserRepository
	store     storage.Store
	feed      *FeedHub
	notifier  *notify.Client
}

// NewPhotoService creates a new photo service
func NewPhotoService(
	photoRepo *repository.PhotoRepository,
	eventRepo *repository.EventRepository,
	shareRepo *repository.ShareRepository,
	userRepo *repository.UserRepository,
	store storage.Store,
	feed *FeedHub,
	notifier *notify.Client,
) *PhotoService {
	return &PhotoService{
		photoRepo: photoRepo,
		eventRepo: eventRepo,
		shareRepo: shareRepo,
		userRepo:  userRepo,
		store:     store,
		feed:      feed,
		notifier:  notifier,
	}
}

// storageFile builds the final path segment for an upload. The original
// name only contributes its extension; the body is a fresh UUID so keys
// never collide and never carry user-controlled path characters.
func storageFile(filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(filename)))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".heic", ".webp":
	default:
		ext = ".jpg"
	}
	return uuid.New().String() + ext
}

// Upload stores a photo in an album on behalf of the authorized actor.
// Guest uploads are attributed to the guest and checked against the
// share's upload quotas before any bytes are stored.
func (s *PhotoService) Upload(ctx context.Context, album *models.Album, actor authz.Actor, guestKey, displayName, filename string, r io.Reader) (*models.Photo, error) {
	principal, err := resolvePrincipal(ctx, s.shareRepo, actor, guestKey, displayName)
	if err != nil {
		return nil, err
	}

	limit := int64(maxUploadBytes)
	if actor.Share != nil && actor.Share.MaxUploadBytes != nil && *actor.Share.MaxUploadBytes < limit {
		limit = *actor.Share.MaxUploadBytes
	}
	if principal.GuestID != nil && actor.Share.MaxFilesPerGuest != nil {
		count, err := s.photoRepo.CountByGuest(ctx, *principal.GuestID)
		if err != nil {
			return nil, err
		}
		if count >= *actor.Share.MaxFilesPerGuest {
			return nil, fmt.Errorf("upload limit of %d files reached for this link", *actor.Share.MaxFilesPerGuest)
		}
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("upload exceeds the %d byte limit", limit)
	}

	key := fmt.Sprintf("photos/%d/%d/%s", album.UserID, album.ID, storageFile(filename))
	size, err := s.store.Save(ctx, key, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to store photo: %w", err)
	}

	photo := &models.Photo{
		Filename:   path.Base(filename),
		FilePath:   key,
		Size:       size,
		AlbumID:    album.ID,
		UserID:     album.UserID,
		ViaShareID: principal.ShareID,
		GuestID:    principal.GuestID,
	}
	if err := s.photoRepo.Create(ctx, photo); err != nil {
		s.store.Remove(ctx, key)
		return nil, err
	}

	if err := storage.SaveThumbnail(ctx, s.store, key, bytes.NewReader(data)); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to generate thumbnail")
	}

	s.announceUpload(ctx, album, photo, principal)
	return photo, nil
}

// announceUpload fans the upload out to event feeds and pushes a
// notification to the album owner for uploads made by someone else.
func (s *PhotoService) announceUpload(ctx context.Context, album *models.Album, photo *models.Photo, principal Principal) {
	author := "Guest"
	if principal.Guest != nil && principal.Guest.DisplayName != "" {
		author = principal.Guest.DisplayName
	}
	if principal.UserID != nil {
		if u, err := s.userRepo.GetByID(ctx, *principal.UserID); err == nil {
			author = u.FullName
		}
	}

	eventIDs, err := s.eventRepo.EventIDsForAlbum(ctx, album.ID)
	if err != nil {
		log.Error().Err(err).Int64("album_id", int64(album.ID)).Msg("Failed to resolve feed events")
	}
	for _, eventID := range eventIDs {
		s.feed.Broadcast(eventID, FeedMessage{
			Type:    "photo_uploaded",
			AlbumID: album.ID,
			PhotoID: photo.ID,
			Author:  author,
		})
	}

	if principal.UserID != nil && *principal.UserID == album.UserID {
		return
	}
	owner, err := s.userRepo.GetByID(ctx, album.UserID)
	if err != nil || owner.PushToken == nil {
		return
	}
	s.notifier.Push(*owner.PushToken, "New photo", fmt.Sprintf("%s added a photo to %s", author, album.Title))
}

// ListAcrossAlbums retrieves photos across a set of albums in upload
// order, the combined view an event page shows
func (s *PhotoService) ListAcrossAlbums(ctx context.Context, albumIDs []models.AlbumID) ([]*models.Photo, error) {
	return s.photoRepo.ListByAlbums(ctx, albumIDs)
}

// Get retrieves a photo by ID
func (s *PhotoService) Get(ctx context.Context, id models.PhotoID) (*models.Photo, error) {
	return s.photoRepo.GetByID(ctx, id)
}

// Delete removes a photo row and its stored bytes, thumbnail included
func (s *PhotoService) Delete(ctx context.Context, photo *models.Photo) error {
	if err := s.photoRepo.Delete(ctx, photo.ID); err != nil {
		return err
	}
	if err := s.store.Remove(ctx, photo.FilePath); err != nil {
		log.Error().Err(err).Str("key", photo.FilePath).Msg("Failed to remove photo file")
	}
	if err := s.store.Remove(ctx, storage.ThumbKey(photo.FilePath)); err != nil {
		log.Error().Err(err).Str("key", photo.FilePath).Msg("Failed to remove thumbnail")
	}
	return nil
}
