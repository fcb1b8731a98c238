package services

import (
	"context"
	"fmt"
	"time"

	"github.com/noodles-app/backend/internal/models"
	"go.uber.org/zap"
)

// maxBatchSize bounds a single progress upload
const maxBatchSize = 500

// ProgressRepository is the interface that wraps methods for user_progress table data access
type ProgressRepository interface {
	// UpsertProgress inserts or updates progress rows keyed on (user_id, word_id).
	//
	// "rows" parameter carries the progress records to store.
	// If some error occurs during the upsert, the error will be returned.
	UpsertProgress(ctx context.Context, rows []models.ProgressRow) error
	// FetchProgress retrieves the stored word statuses for a user and category.
	//
	// "userID" parameter is used to identify the user.
	// "categoryID" parameter is used to identify the category.
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	FetchProgress(ctx context.Context, userID, categoryID string) ([]models.WordStatus, error)
	// FetchCategoryAggregates retrieves per-category mastered/learning counts for a user.
	//
	// Please reference FetchProgress method for more information about parameters and error values.
	FetchCategoryAggregates(ctx context.Context, userID string) ([]models.CategoryAggregate, error)
	// DeleteProgress removes every progress row for a user and category.
	//
	// Please reference FetchProgress method for more information about parameters and error values.
	DeleteProgress(ctx context.Context, userID, categoryID string) error
}

// ProgressUpdate is one status change submitted by a client
type ProgressUpdate struct {
	WordID     string        `json:"wordId"`
	CategoryID string        `json:"categoryId"`
	Status     models.Status `json:"status"`
}

// progressService implements ProgressService
type progressService struct {
	progressRepo ProgressRepository
	logger       *zap.Logger
	now          func() time.Time
}

// NewProgressService creates a new progress service
func NewProgressService(progressRepo ProgressRepository, logger *zap.Logger) *progressService {
	return &progressService{
		progressRepo: progressRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// SubmitProgress validates and upserts a batch of status changes
func (s *progressService) SubmitProgress(ctx context.Context, userID string, updates []ProgressUpdate) error {
	if len(updates) == 0 {
		return fmt.Errorf("%w: no progress updates submitted", ErrValidation)
	}
	if len(updates) > maxBatchSize {
		return fmt.Errorf("%w: too many progress updates in one batch (max %d)", ErrValidation, maxBatchSize)
	}

	reviewed := s.now().UTC()
	rows := make([]models.ProgressRow, 0, len(updates))
	for _, u := range updates {
		if u.WordID == "" || u.CategoryID == "" {
			return fmt.Errorf("%w: wordId and categoryId are required", ErrValidation)
		}
		if !u.Status.IsValid() {
			return fmt.Errorf("%w: invalid status: %s", ErrValidation, u.Status)
		}
		rows = append(rows, models.ProgressRow{
			UserID:       userID,
			WordID:       u.WordID,
			CategoryID:   u.CategoryID,
			Status:       u.Status,
			LastReviewed: reviewed,
		})
	}

	if err := s.progressRepo.UpsertProgress(ctx, rows); err != nil {
		s.logger.Error("failed to upsert progress", zap.Error(err))
		return fmt.Errorf("failed to upsert progress: %w", err)
	}

	return nil
}

// GetProgress retrieves the stored statuses for a user and category
func (s *progressService) GetProgress(ctx context.Context, userID, categoryID string) ([]models.WordStatus, error) {
	if categoryID == "" {
		return nil, fmt.Errorf("%w: categoryId is required", ErrValidation)
	}

	statuses, err := s.progressRepo.FetchProgress(ctx, userID, categoryID)
	if err != nil {
		s.logger.Error("failed to fetch progress", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch progress: %w", err)
	}
	if statuses == nil {
		statuses = []models.WordStatus{}
	}

	return statuses, nil
}

// GetCategoryAggregates retrieves per-category progress counts for a user
func (s *progressService) GetCategoryAggregates(ctx context.Context, userID string) ([]models.CategoryAggregate, error) {
	aggregates, err := s.progressRepo.FetchCategoryAggregates(ctx, userID)
	if err != nil {
		s.logger.Error("failed to fetch category aggregates", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch category aggregates: %w", err)
	}
	if aggregates == nil {
		aggregates = []models.CategoryAggregate{}
	}

	return aggregates, nil
}

// ResetProgress removes every stored row for a user and category
func (s *progressService) ResetProgress(ctx context.Context, userID, categoryID string) error {
	if categoryID == "" {
		return fmt.Errorf("%w: categoryId is required", ErrValidation)
	}

	if err := s.progressRepo.DeleteProgress(ctx, userID, categoryID); err != nil {
		s.logger.Error("failed to delete progress", zap.Error(err))
		return fmt.Errorf("failed to delete progress: %w", err)
	}

	return nil
}
