package services

import (
	"context"
	"fmt"
	"time"

	"github.com/noodles-app/backend/internal/leveling"
	"github.com/noodles-app/backend/internal/models"
	"go.uber.org/zap"
)

// dateLayout is the calendar-day format stored in last_study_date
const dateLayout = "2006-01-02"

// LevelRepository is the interface that wraps methods for user_levels table data access
type LevelRepository interface {
	// Get retrieves the level record for a user.
	//
	// "userID" parameter is used to identify the user.
	// Returns (nil, nil) when the user has no record yet.
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	Get(ctx context.Context, userID string) (*models.UserLevel, error)
	// Upsert inserts or updates the level record for a user.
	//
	// "level" parameter carries the record to store.
	// If some error occurs during the upsert, the error will be returned.
	Upsert(ctx context.Context, level *models.UserLevel) error
}

// levelService implements LevelService
type levelService struct {
	levelRepo LevelRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewLevelService creates a new level service
func NewLevelService(levelRepo LevelRepository, logger *zap.Logger) *levelService {
	return &levelService{
		levelRepo: levelRepo,
		logger:    logger,
		now:       time.Now,
	}
}

// GetLevel retrieves the level state for a user, defaulting to a fresh
// level-1 record when none is stored
func (s *levelService) GetLevel(ctx context.Context, userID string) (*models.UserLevel, error) {
	level, err := s.levelRepo.Get(ctx, userID)
	if err != nil {
		s.logger.Error("failed to fetch user level", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch user level: %w", err)
	}
	if level == nil {
		return &models.UserLevel{UserID: userID, Level: 1}, nil
	}

	return level, nil
}

// UpdateLevel recomputes the user's level from a mastered-word count,
// applies the streak rules and upserts the record:
//
// - last study date is today: streak unchanged
//
// - last study date was exactly yesterday: streak increments by 1
//
// - otherwise: streak resets to 1
func (s *levelService) UpdateLevel(ctx context.Context, userID string, masteredCount int) (*models.UserLevel, error) {
	if masteredCount < 0 {
		return nil, fmt.Errorf("%w: masteredCount must not be negative", ErrValidation)
	}

	existing, err := s.levelRepo.Get(ctx, userID)
	if err != nil {
		s.logger.Error("failed to fetch user level", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch user level: %w", err)
	}

	today := s.now().UTC().Format(dateLayout)
	yesterday := s.now().UTC().AddDate(0, 0, -1).Format(dateLayout)

	streak := 1
	xp := 0
	level := leveling.CalculateLevel(masteredCount)
	if existing != nil {
		xp = existing.XP
		// Levels never demote; the repository enforces the same with GREATEST
		if existing.Level > level {
			level = existing.Level
		}
		switch existing.LastStudyDate {
		case today:
			streak = existing.StreakDays
		case yesterday:
			streak = existing.StreakDays + 1
		}
	}

	updated := &models.UserLevel{
		UserID:        userID,
		Level:         level,
		XP:            xp,
		TotalMastered: masteredCount,
		StreakDays:    streak,
		LastStudyDate: today,
	}

	if err := s.levelRepo.Upsert(ctx, updated); err != nil {
		s.logger.Error("failed to upsert user level", zap.Error(err))
		return nil, fmt.Errorf("failed to upsert user level: %w", err)
	}

	return updated, nil
}
