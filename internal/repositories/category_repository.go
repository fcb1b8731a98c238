package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/noodles-app/backend/internal/models"
)

// categoryRepository implements CategoryRepository for extended categories
type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *sql.DB) *categoryRepository {
	return &categoryRepository{
		db: db,
	}
}

// GetByMinLevel retrieves extended categories unlocked at or below the
// given level, in sort order
func (r *categoryRepository) GetByMinLevel(ctx context.Context, level int) ([]models.CategoryMeta, error) {
	query := `
		SELECT id, name, name_zh, icon, description, min_level, word_count, sort_order
		FROM categories
		WHERE min_level <= ?
		ORDER BY sort_order ASC
	`

	rows, err := r.db.QueryContext(ctx, query, level)
	if err != nil {
		return nil, fmt.Errorf("failed to query extended categories: %w", err)
	}
	defer rows.Close()

	var categories []models.CategoryMeta
	for rows.Next() {
		var cat models.CategoryMeta
		var nameZh, icon, description sql.NullString
		err := rows.Scan(
			&cat.ID,
			&cat.Name,
			&nameZh,
			&icon,
			&description,
			&cat.MinLevel,
			&cat.WordCount,
			&cat.SortOrder,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		if nameZh.Valid {
			cat.NameZh = nameZh.String
		}
		if icon.Valid {
			cat.Icon = icon.String
		}
		if description.Valid {
			cat.Description = description.String
		}
		cat.Extended = true
		categories = append(categories, cat)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return categories, nil
}

// Upsert inserts or updates a category keyed on its id
func (r *categoryRepository) Upsert(ctx context.Context, cat models.CategoryMeta) error {
	query := `
		INSERT INTO categories (id, name, name_zh, icon, description, min_level, word_count, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			name_zh = VALUES(name_zh),
			icon = VALUES(icon),
			description = VALUES(description),
			min_level = VALUES(min_level),
			word_count = VALUES(word_count),
			sort_order = VALUES(sort_order)
	`

	_, err := r.db.ExecContext(ctx, query,
		cat.ID,
		cat.Name,
		nullable(cat.NameZh),
		nullable(cat.Icon),
		nullable(cat.Description),
		cat.MinLevel,
		cat.WordCount,
		cat.SortOrder,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert category: %w", err)
	}

	return nil
}
