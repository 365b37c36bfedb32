package services

import (
	"context"
	"math"

	"pixshare-backend/internal/models"
	"pixshare-backend/internal/repository"
)

// storageLimitGB is the per-account storage allowance reported to clients.
const storageLimitGB = 10.0

// recentAlbumCount caps the dashboard's recent-albums listing.
const recentAlbumCount = 3

// StorageSummary reports an owner's storage consumption in gigabytes.
type StorageSummary struct {
	UsedGB  float64 `json:"used_gb"`
	LimitGB float64 `json:"limit_gb"`
}

// DashboardService aggregates per-owner summaries for the account overview
type DashboardService struct {
	photoRepo *repository.PhotoRepository
	albumRepo *repository.AlbumRepository
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(photoRepo *repository.PhotoRepository, albumRepo *repository.AlbumRepository) *DashboardService {
	return &DashboardService{photoRepo: photoRepo, albumRepo: albumRepo}
}

// Storage sums the user's stored photo bytes against the account allowance
func (s *DashboardService) Storage(ctx context.Context, userID models.UserID) (StorageSummary, error) {
	used, err := s.photoRepo.StorageUsed(ctx, userID)
	if err != nil {
		return StorageSummary{}, err
	}
	return StorageSummary{UsedGB: gigabytes(used), LimitGB: storageLimitGB}, nil
}

// RecentAlbums lists the user's newest albums
func (s *DashboardService) RecentAlbums(ctx context.Context, userID models.UserID) ([]*models.Album, error) {
	return s.albumRepo.ListRecentByOwner(ctx, userID, recentAlbumCount)
}

// gigabytes converts a byte count to gigabytes rounded to two decimals
func gigabytes(n int64) float64 {
	return math.Round(float64(n)/(1<<30)*100) / 100
}
