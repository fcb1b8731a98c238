package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/noodles-app/backend/internal/models"
)

// levelRepository implements LevelRepository
type levelRepository struct {
	db *sql.DB
}

// NewLevelRepository creates a new level repository
func NewLevelRepository(db *sql.DB) *levelRepository {
	return &levelRepository{
		db: db,
	}
}

// Get retrieves the level record for a user.
// Returns (nil, nil) when the user has no record yet.
func (r *levelRepository) Get(ctx context.Context, userID string) (*models.UserLevel, error) {
	query := `
		SELECT user_id, current_level, xp_points, total_words_mastered, streak_days, last_study_date
		FROM user_levels
		WHERE user_id = ?
	`

	var level models.UserLevel
	var lastStudyDate sql.NullTime
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&level.UserID,
		&level.Level,
		&level.XP,
		&level.TotalMastered,
		&level.StreakDays,
		&lastStudyDate,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user level: %w", err)
	}
	if lastStudyDate.Valid {
		// The DSN sets parseTime, so the DATE column arrives as time.Time.
		// The streak computation compares calendar days as strings.
		level.LastStudyDate = lastStudyDate.Time.Format("2006-01-02")
	}

	return &level, nil
}

// Upsert inserts or updates the level record for a user. The level and
// lifetime mastered count only move upward so a later un-mastering of
// words cannot demote a user.
func (r *levelRepository) Upsert(ctx context.Context, level *models.UserLevel) error {
	query := `
		INSERT INTO user_levels (user_id, current_level, xp_points, total_words_mastered, streak_days, last_study_date)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			current_level = GREATEST(current_level, VALUES(current_level)),
			xp_points = VALUES(xp_points),
			total_words_mastered = GREATEST(total_words_mastered, VALUES(total_words_mastered)),
			streak_days = VALUES(streak_days),
			last_study_date = VALUES(last_study_date)
	`

	_, err := r.db.ExecContext(ctx, query,
		level.UserID,
		level.Level,
		level.XP,
		level.TotalMastered,
		level.StreakDays,
		level.LastStudyDate,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user level: %w", err)
	}

	return nil
}
