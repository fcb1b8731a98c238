package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/noodles-app/backend/internal/models"
	"go.uber.org/zap"
)

// DefaultBatchSize is how many words go into one upsert statement.
const DefaultBatchSize = 100

// WordWriter is the interface that wraps the word upsert method used by the importer
type WordWriter interface {
	// UpsertBatch inserts or updates extended words keyed on their word key.
	//
	// If some error occurs during data submission, the error will be returned.
	UpsertBatch(ctx context.Context, words []models.WordRecord) error
}

// CategoryWriter is the interface that wraps the category upsert method used by the importer
type CategoryWriter interface {
	// Upsert inserts or updates an extended category keyed on its id.
	//
	// If some error occurs during data submission, the error will be returned.
	Upsert(ctx context.Context, cat models.CategoryMeta) error
}

// sourceWord is one record of the import file
type sourceWord struct {
	Chinese        string `json:"chinese"`
	Pinyin         string `json:"pinyin"`
	English        string `json:"english"`
	ExampleChinese string `json:"exampleChinese"`
	ExamplePinyin  string `json:"examplePinyin"`
	ExampleEnglish string `json:"exampleEnglish"`
	HSKLevel       int    `json:"hskLevel"`
	FrequencyRank  int    `json:"frequencyRank"`
}

// sourceFile is the import file layout: category metadata plus its words
type sourceFile struct {
	Category struct {
		Name        string `json:"name"`
		NameZh      string `json:"nameZh"`
		Icon        string `json:"icon"`
		Description string `json:"description"`
		SortOrder   int    `json:"sortOrder"`
	} `json:"category"`
	Words []sourceWord `json:"words"`
}

// Result reports what an import run did (or would do, for a dry run)
type Result struct {
	CategoryID string
	WordCount  int
	MinLevel   int
	DryRun     bool
	Preview    []models.WordRecord
}

// Importer loads extended vocabulary files into the remote catalog
type Importer struct {
	words      WordWriter
	categories CategoryWriter
	batchSize  int
	logger     *zap.Logger
}

// New creates a new importer
func New(words WordWriter, categories CategoryWriter, batchSize int, logger *zap.Logger) *Importer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Importer{
		words:      words,
		categories: categories,
		batchSize:  batchSize,
		logger:     logger,
	}
}

// ImportFile reads a JSON vocabulary file and imports it under the given
// category id and difficulty level. With dryRun set nothing is written;
// the returned Result carries a preview of the transformed records instead.
func (im *Importer) ImportFile(ctx context.Context, path, categoryID string, difficulty int, dryRun bool) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}
	return im.Import(ctx, data, categoryID, difficulty, dryRun)
}

// Import transforms and uploads one vocabulary file already read into memory
func (im *Importer) Import(ctx context.Context, data []byte, categoryID string, difficulty int, dryRun bool) (*Result, error) {
	if categoryID == "" {
		return nil, fmt.Errorf("category id is required")
	}
	if difficulty < 1 || difficulty > 5 {
		return nil, fmt.Errorf("difficulty level must be between 1 and 5, got %d", difficulty)
	}

	var src sourceFile
	if err := json.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("failed to parse import file: %w", err)
	}
	if len(src.Words) == 0 {
		return nil, fmt.Errorf("import file contains no words")
	}

	records, err := transform(src.Words, categoryID, difficulty)
	if err != nil {
		return nil, err
	}

	// Extended content is locked behind level 3; easier imports open at level 1.
	minLevel := 1
	if difficulty >= 3 {
		minLevel = 3
	}

	result := &Result{
		CategoryID: categoryID,
		WordCount:  len(records),
		MinLevel:   minLevel,
		DryRun:     dryRun,
	}

	if dryRun {
		preview := records
		if len(preview) > 5 {
			preview = preview[:5]
		}
		result.Preview = preview
		im.logger.Info("dry run, nothing written",
			zap.String("category", categoryID),
			zap.Int("words", len(records)),
		)
		return result, nil
	}

	for start := 0; start < len(records); start += im.batchSize {
		end := start + im.batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := im.words.UpsertBatch(ctx, records[start:end]); err != nil {
			return nil, fmt.Errorf("failed to upsert words batch starting at %d: %w", start, err)
		}
		im.logger.Info("uploaded word batch",
			zap.String("category", categoryID),
			zap.Int("from", start),
			zap.Int("to", end),
		)
	}

	name := src.Category.Name
	if name == "" {
		name = categoryID
	}
	cat := models.CategoryMeta{
		ID:          categoryID,
		Name:        name,
		NameZh:      src.Category.NameZh,
		Icon:        src.Category.Icon,
		Description: src.Category.Description,
		MinLevel:    minLevel,
		WordCount:   len(records),
		SortOrder:   src.Category.SortOrder,
		Extended:    true,
	}
	if err := im.categories.Upsert(ctx, cat); err != nil {
		return nil, fmt.Errorf("failed to upsert category: %w", err)
	}

	im.logger.Info("import finished",
		zap.String("category", categoryID),
		zap.Int("words", len(records)),
		zap.Int("minLevel", minLevel),
	)
	return result, nil
}

// transform validates the source records and assigns stable word keys.
// A record missing chinese, pinyin or english aborts the whole import so a
// bad file never lands half-written.
func transform(words []sourceWord, categoryID string, difficulty int) ([]models.WordRecord, error) {
	records := make([]models.WordRecord, 0, len(words))
	for i, w := range words {
		if w.Chinese == "" || w.Pinyin == "" || w.English == "" {
			return nil, fmt.Errorf("record %d is missing a required field (chinese=%q, pinyin=%q, english=%q)",
				i, w.Chinese, w.Pinyin, w.English)
		}

		rank := w.FrequencyRank
		if rank == 0 {
			rank = i + 1
		}

		records = append(records, models.WordRecord{
			ID:              fmt.Sprintf("ext-%s-%04d", categoryID, i+1),
			Chinese:         w.Chinese,
			Pinyin:          w.Pinyin,
			English:         w.English,
			ExampleChinese:  w.ExampleChinese,
			ExamplePinyin:   w.ExamplePinyin,
			ExampleEnglish:  w.ExampleEnglish,
			Category:        categoryID,
			Status:          models.StatusNotSeen,
			HSKLevel:        w.HSKLevel,
			DifficultyLevel: difficulty,
			FrequencyRank:   rank,
			Extended:        true,
		})
	}
	return records, nil
}
