package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/noodles-app/backend/internal/models"
)

// progressRepository implements ProgressRepository
type progressRepository struct {
	db *sql.DB
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *sql.DB) *progressRepository {
	return &progressRepository{
		db: db,
	}
}

// UpsertProgress inserts or updates progress rows keyed on (user_id, word_id).
// Later writes overwrite earlier ones, so retries and concurrent writers
// converge on the last written status.
func (r *progressRepository) UpsertProgress(ctx context.Context, rows []models.ProgressRow) error {
	if len(rows) == 0 {
		return fmt.Errorf("no progress rows to upsert")
	}

	// Build placeholders and args for batch upsert
	placeholders := make([]string, len(rows))
	args := []any{}
	for i, row := range rows {
		placeholders[i] = "(?, ?, ?, ?, ?)"
		args = append(args, row.UserID, row.WordID, row.CategoryID, string(row.Status), row.LastReviewed)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO user_progress (user_id, word_id, category_id, status, last_reviewed)
		VALUES %s
		ON DUPLICATE KEY UPDATE
			category_id = VALUES(category_id),
			status = VALUES(status),
			last_reviewed = VALUES(last_reviewed)
	`, strings.Join(placeholders, ","))

	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert progress rows: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// FetchProgress retrieves the stored word statuses for a user and category
func (r *progressRepository) FetchProgress(ctx context.Context, userID, categoryID string) ([]models.WordStatus, error) {
	query := `
		SELECT word_id, status
		FROM user_progress
		WHERE user_id = ? AND category_id = ?
	`

	rows, err := r.db.QueryContext(ctx, query, userID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	var statuses []models.WordStatus
	for rows.Next() {
		var ws models.WordStatus
		if err := rows.Scan(&ws.WordID, &ws.Status); err != nil {
			return nil, fmt.Errorf("failed to scan progress row: %w", err)
		}
		statuses = append(statuses, ws)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return statuses, nil
}

// FetchCategoryAggregates retrieves per-category mastered/learning counts
// for a user across all categories
func (r *progressRepository) FetchCategoryAggregates(ctx context.Context, userID string) ([]models.CategoryAggregate, error) {
	query := `
		SELECT category_id,
		       SUM(status = 'mastered') AS mastered_count,
		       SUM(status = 'learning') AS learning_count
		FROM user_progress
		WHERE user_id = ?
		GROUP BY category_id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query category aggregates: %w", err)
	}
	defer rows.Close()

	var aggregates []models.CategoryAggregate
	for rows.Next() {
		var agg models.CategoryAggregate
		if err := rows.Scan(&agg.CategoryID, &agg.MasteredCount, &agg.LearningCount); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate row: %w", err)
		}
		aggregates = append(aggregates, agg)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return aggregates, nil
}

// DeleteProgress removes every progress row for a user and category
func (r *progressRepository) DeleteProgress(ctx context.Context, userID, categoryID string) error {
	query := `
		DELETE FROM user_progress
		WHERE user_id = ? AND category_id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, userID, categoryID); err != nil {
		return fmt.Errorf("failed to delete progress: %w", err)
	}

	return nil
}
