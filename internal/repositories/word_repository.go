package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/noodles-app/backend/internal/models"
)

// wordRepository implements WordRepository for the extended remote catalog
type wordRepository struct {
	db *sql.DB
}

// NewWordRepository creates a new word repository
func NewWordRepository(db *sql.DB) *wordRepository {
	return &wordRepository{
		db: db,
	}
}

const wordColumns = `word_key, chinese, pinyin, english,
	       example_chinese, example_pinyin, example_english,
	       category_id, difficulty_level, hsk_level, frequency_rank`

// GetByCategory retrieves extended words for a category up to the given
// difficulty, ordered by frequency rank, with offset/limit paging
func (r *wordRepository) GetByCategory(ctx context.Context, categoryID string, maxDifficulty, offset, limit int) ([]models.WordRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM words
		WHERE category_id = ? AND difficulty_level <= ?
		ORDER BY frequency_rank ASC
		LIMIT ? OFFSET ?
	`, wordColumns)

	rows, err := r.db.QueryContext(ctx, query, categoryID, maxDifficulty, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query extended words: %w", err)
	}
	defer rows.Close()

	return scanWords(rows)
}

// Search retrieves extended words matching the query in chinese, pinyin
// or english, up to the given difficulty
func (r *wordRepository) Search(ctx context.Context, query string, maxDifficulty, limit int) ([]models.WordRecord, error) {
	pattern := "%" + query + "%"
	stmt := fmt.Sprintf(`
		SELECT %s
		FROM words
		WHERE difficulty_level <= ?
		  AND (chinese LIKE ? OR pinyin LIKE ? OR english LIKE ?)
		ORDER BY frequency_rank ASC
		LIMIT ?
	`, wordColumns)

	rows, err := r.db.QueryContext(ctx, stmt, maxDifficulty, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search extended words: %w", err)
	}
	defer rows.Close()

	return scanWords(rows)
}

// CountByDifficulty returns how many extended words are available up to
// the given difficulty
func (r *wordRepository) CountByDifficulty(ctx context.Context, maxDifficulty int) (int, error) {
	query := `
		SELECT COUNT(*) AS count
		FROM words
		WHERE difficulty_level <= ?
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, maxDifficulty).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count extended words: %w", err)
	}

	return count, nil
}

// UpsertBatch inserts or updates extended words keyed on word_key
func (r *wordRepository) UpsertBatch(ctx context.Context, words []models.WordRecord) error {
	if len(words) == 0 {
		return fmt.Errorf("no words to upsert")
	}

	placeholders := make([]string, len(words))
	args := []any{}
	for i, w := range words {
		placeholders[i] = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
		args = append(args,
			w.ID, w.Chinese, w.Pinyin, w.English,
			nullable(w.ExampleChinese), nullable(w.ExamplePinyin), nullable(w.ExampleEnglish),
			w.Category, w.DifficultyLevel, nullableInt(w.HSKLevel), w.FrequencyRank,
		)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO words (word_key, chinese, pinyin, english,
			example_chinese, example_pinyin, example_english,
			category_id, difficulty_level, hsk_level, frequency_rank)
		VALUES %s
		ON DUPLICATE KEY UPDATE
			chinese = VALUES(chinese),
			pinyin = VALUES(pinyin),
			english = VALUES(english),
			example_chinese = VALUES(example_chinese),
			example_pinyin = VALUES(example_pinyin),
			example_english = VALUES(example_english),
			category_id = VALUES(category_id),
			difficulty_level = VALUES(difficulty_level),
			hsk_level = VALUES(hsk_level),
			frequency_rank = VALUES(frequency_rank)
	`, strings.Join(placeholders, ","))

	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert words: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// scanWords reads word rows into records marked as extended content
func scanWords(rows *sql.Rows) ([]models.WordRecord, error) {
	var words []models.WordRecord
	for rows.Next() {
		var w models.WordRecord
		var exampleChinese, examplePinyin, exampleEnglish sql.NullString
		var hskLevel sql.NullInt64
		err := rows.Scan(
			&w.ID,
			&w.Chinese,
			&w.Pinyin,
			&w.English,
			&exampleChinese,
			&examplePinyin,
			&exampleEnglish,
			&w.Category,
			&w.DifficultyLevel,
			&hskLevel,
			&w.FrequencyRank,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan word: %w", err)
		}
		if exampleChinese.Valid {
			w.ExampleChinese = exampleChinese.String
		}
		if examplePinyin.Valid {
			w.ExamplePinyin = examplePinyin.String
		}
		if exampleEnglish.Valid {
			w.ExampleEnglish = exampleEnglish.String
		}
		if hskLevel.Valid {
			w.HSKLevel = int(hskLevel.Int64)
		}
		w.Status = models.StatusNotSeen
		w.Extended = true
		words = append(words, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return words, nil
}

// nullable maps empty strings to NULL
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullableInt maps zero to NULL
func nullableInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}
