package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datapilot-labs/datapilot-engine/pkg/dataset"
	"github.com/datapilot-labs/datapilot-engine/pkg/models"
	"github.com/datapilot-labs/datapilot-engine/pkg/repositories"
)

// DatasetService manages the dataset usage history.
type DatasetService interface {
	// RecordUsage notes that a dataset was loaded, creating or refreshing
	// its history entry.
	RecordUsage(ctx context.Context, ds *dataset.Dataset, filename string) (*models.DatasetHistoryEntry, error)
	History(ctx context.Context, limit int) ([]*models.DatasetHistoryEntry, error)
	Favorites(ctx context.Context) ([]*models.DatasetHistoryEntry, error)
	ToggleFavorite(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Cleanup removes non-favorite entries unused for longer than the
	// retention window. olderThanDays overrides the configured window
	// when positive.
	Cleanup(ctx context.Context, olderThanDays int) (int64, error)
	Count(ctx context.Context) (int, error)
}

type datasetService struct {
	repo       repositories.DatasetHistoryRepository
	staleAfter time.Duration
	logger     *zap.Logger
}

// NewDatasetService creates a DatasetService.
func NewDatasetService(repo repositories.DatasetHistoryRepository, staleAfter time.Duration, logger *zap.Logger) DatasetService {
	if staleAfter <= 0 {
		staleAfter = 30 * 24 * time.Hour
	}
	return &datasetService{
		repo:       repo,
		staleAfter: staleAfter,
		logger:     logger.Named("dataset-service"),
	}
}

var _ DatasetService = (*datasetService)(nil)

func (s *datasetService) RecordUsage(ctx context.Context, ds *dataset.Dataset, filename string) (*models.DatasetHistoryEntry, error) {
	if ds == nil {
		return nil, fmt.Errorf("dataset is required")
	}
	if filename == "" {
		filename = ds.Name
	}

	rowCount := ds.RowCount()
	entry := &models.DatasetHistoryEntry{
		Name:     ds.Name,
		Filename: filename,
		Columns:  ds.Columns,
		RowCount: &rowCount,
	}
	if err := s.repo.Upsert(ctx, entry); err != nil {
		return nil, fmt.Errorf("record dataset usage: %w", err)
	}

	s.logger.Debug("Recorded dataset usage",
		zap.String("filename", entry.Filename),
		zap.Int("usage_count", entry.UsageCount))

	return entry, nil
}

func (s *datasetService) History(ctx context.Context, limit int) ([]*models.DatasetHistoryEntry, error) {
	return s.repo.List(ctx, limit)
}

func (s *datasetService) Favorites(ctx context.Context) ([]*models.DatasetHistoryEntry, error) {
	return s.repo.ListFavorites(ctx)
}

func (s *datasetService) ToggleFavorite(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.ToggleFavorite(ctx, id)
}

func (s *datasetService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *datasetService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *datasetService) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	window := s.staleAfter
	if olderThanDays > 0 {
		window = time.Duration(olderThanDays) * 24 * time.Hour
	}
	cutoff := time.Now().Add(-window)
	purged, err := s.repo.PurgeStale(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge stale datasets: %w", err)
	}

	if purged > 0 {
		s.logger.Info("Purged stale dataset history",
			zap.Int64("purged", purged),
			zap.Time("cutoff", cutoff))
	}

	return purged, nil
}
