package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"pixshare-backend/internal/models"
	"pixshare-backend/internal/repository"

	"github.com/google/uuid"
)

// shareTokenBytes sizes the random token. 24 bytes of entropy make tokens
// unguessable; possession of the token is the whole credential.
const shareTokenBytes = 24

// newShareToken returns a fresh URL-safe capability token
func newShareToken() (string, error) {
	buf := make([]byte, shareTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate share token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ShareOptions carries the optional knobs on a new share
type ShareOptions struct {
	Caps             models.Capabilities
	ExpiresAt        *time.Time
	MaxUploadBytes   *int64
	MaxFilesPerGuest *int
}

// ShareService creates and revokes capability links
type ShareService struct {
	shareRepo *repository.ShareRepository
}

// NewShareService creates a new share service
func NewShareService(shareRepo *repository.ShareRepository) *ShareService {
	return &ShareService{shareRepo: shareRepo}
}

func (s *ShareService) create(ctx context.Context, share *models.Share, opts ShareOptions) (*models.Share, error) {
	token, err := newShareToken()
	if err != nil {
		return nil, err
	}
	share.Token = token
	share.Caps = opts.Caps
	share.ExpiresAt = opts.ExpiresAt
	share.MaxUploadBytes = opts.MaxUploadBytes
	share.MaxFilesPerGuest = opts.MaxFilesPerGuest
	if err := s.shareRepo.Create(ctx, share); err != nil {
		return nil, err
	}
	return share, nil
}

// CreateForAlbum issues a share scoped to one album
func (s *ShareService) CreateForAlbum(ctx context.Context, albumID models.AlbumID, opts ShareOptions) (*models.Share, error) {
	return s.create(ctx, &models.Share{AlbumID: &albumID}, opts)
}

// CreateForPhoto issues a share scoped to one photo
func (s *ShareService) CreateForPhoto(ctx context.Context, photoID models.PhotoID, opts ShareOptions) (*models.Share, error) {
	return s.create(ctx, &models.Share{PhotoID: &photoID}, opts)
}

// CreateForEvent issues a share scoped to one event
func (s *ShareService) CreateForEvent(ctx context.Context, eventID models.EventID, opts ShareOptions) (*models.Share, error) {
	return s.create(ctx, &models.Share{EventID: &eventID}, opts)
}

// Get retrieves a share by ID
func (s *ShareService) Get(ctx context.Context, id models.ShareID) (*models.Share, error) {
	return s.shareRepo.GetByID(ctx, id)
}

// Resolve retrieves a share by its token. Expiry is the caller's concern;
// revoked tokens are gone entirely.
func (s *ShareService) Resolve(ctx context.Context, token string) (*models.Share, error) {
	return s.shareRepo.GetByToken(ctx, token)
}

// Revoke deletes a share; its token stops resolving immediately
func (s *ShareService) Revoke(ctx context.Context, id models.ShareID) error {
	return s.shareRepo.Delete(ctx, id)
}

// RegisterGuest bootstraps a guest identity for a live share. A missing
// guest key gets a fresh UUID the client is expected to keep; a key bound
// to another share is rejected.
func (s *ShareService) RegisterGuest(ctx context.Context, token, guestKey, displayName string) (*models.Guest, error) {
	share, err := s.shareRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if share.Expired(time.Now()) || share.Scope() == models.ScopeNone {
		return nil, fmt.Errorf("share is no longer valid: %w", models.ErrNotFound)
	}
	if guestKey == "" {
		guestKey = uuid.New().String()
	}
	guest, err := s.shareRepo.EnsureGuest(ctx, share.ID, guestKey, displayName)
	if err != nil {
		return nil, err
	}
	if guest.ShareID != share.ID {
		return nil, fmt.Errorf("guest key belongs to a different share")
	}
	return guest, nil
}
