package services

import (
	"context"
	"fmt"

	"pixshare-backend/internal/models"
	"pixshare-backend/internal/repository"
	"pixshare-backend/internal/storage"

	"github.com/rs/zerolog/log"
)

// AlbumService handles album lifecycle
type AlbumService struct {
	albumRepo *repository.AlbumRepository
	photoRepo *repository.PhotoRepository
	store     storage.Store
}

// NewAlbumService creates a new album service
func NewAlbumService(albumRepo *repository.AlbumRepository, photoRepo *repository.PhotoRepository, store storage.Store) *AlbumService {
	return &AlbumService{
		albumRepo: albumRepo,
		photoRepo: photoRepo,
		store:     store,
	}
}

// Create creates an album owned by the given user
func (s *AlbumService) Create(ctx context.Context, ownerID models.UserID, title, description string) (*models.Album, error) {
	album := &models.Album{
		Title:       title,
		Description: description,
		UserID:      ownerID,
	}
	if err := s.albumRepo.Create(ctx, album); err != nil {
		return nil, err
	}
	return album, nil
}

// Get retrieves an album with its photo count
func (s *AlbumService) Get(ctx context.Context, id models.AlbumID) (*models.Album, error) {
	return s.albumRepo.GetByID(ctx, id)
}

// ListMine retrieves the caller's albums
func (s *AlbumService) ListMine(ctx context.Context, ownerID models.UserID) ([]*models.Album, error) {
	return s.albumRepo.ListByOwner(ctx, ownerID)
}

// ListPhotos retrieves an album's photos in upload order
func (s *AlbumService) ListPhotos(ctx context.Context, id models.AlbumID) ([]*models.Photo, error) {
	return s.photoRepo.ListByAlbum(ctx, id)
}

// Delete removes an album, its database rows and its stored files. Rows
// cascade; file cleanup is best effort after the delete commits.
func (s *AlbumService) Delete(ctx context.Context, album *models.Album) error {
	if err := s.albumRepo.Delete(ctx, album.ID); err != nil {
		return err
	}
	prefix := fmt.Sprintf("photos/%d/%d", album.UserID, album.ID)
	if err := s.store.RemoveAll(ctx, prefix); err != nil {
		log.Error().Err(err).Str("prefix", prefix).Msg("Failed to remove album files")
	}
	return nil
}
