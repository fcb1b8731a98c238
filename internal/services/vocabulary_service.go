package services

import (
	"context"
	"fmt"

	"github.com/noodles-app/backend/internal/catalog"
	"github.com/noodles-app/backend/internal/leveling"
	"github.com/noodles-app/backend/internal/models"
	"go.uber.org/zap"
)

const (
	defaultWordLimit   = 100
	maxWordLimit       = 500
	defaultSearchLimit = 20
)

// WordRepository is the interface that wraps methods for words table data access
type WordRepository interface {
	// GetByCategory retrieves extended words for a category up to the given
	// difficulty, ordered by frequency rank, with offset/limit paging.
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	GetByCategory(ctx context.Context, categoryID string, maxDifficulty, offset, limit int) ([]models.WordRecord, error)
	// Search retrieves extended words matching the query up to the given difficulty.
	//
	// Please reference GetByCategory method for more information about error values.
	Search(ctx context.Context, query string, maxDifficulty, limit int) ([]models.WordRecord, error)
	// CountByDifficulty returns how many extended words exist up to the given difficulty.
	//
	// Please reference GetByCategory method for more information about error values.
	CountByDifficulty(ctx context.Context, maxDifficulty int) (int, error)
}

// CategoryRepository is the interface that wraps methods for categories table data access
type CategoryRepository interface {
	// GetByMinLevel retrieves extended categories unlocked at or below the given level.
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	GetByMinLevel(ctx context.Context, level int) ([]models.CategoryMeta, error)
}

// VocabularyStats summarizes the vocabulary available to a user
type VocabularyStats struct {
	StaticTotal    int `json:"staticTotal"`
	ExtendedTotal  int `json:"extendedTotal"`
	TotalAvailable int `json:"totalAvailable"`
	UnlocksAt      int `json:"unlocksAt,omitempty"`
}

// vocabularyService implements VocabularyService
type vocabularyService struct {
	static       *catalog.Catalog
	wordRepo     WordRepository
	categoryRepo CategoryRepository
	logger       *zap.Logger
}

// NewVocabularyService creates a new vocabulary service
func NewVocabularyService(
	static *catalog.Catalog,
	wordRepo WordRepository,
	categoryRepo CategoryRepository,
	logger *zap.Logger,
) *vocabularyService {
	return &vocabularyService{
		static:       static,
		wordRepo:     wordRepo,
		categoryRepo: categoryRepo,
		logger:       logger,
	}
}

// GetExtendedCategories retrieves extended categories available to the
// user's level. Below the unlock level the list is always empty.
func (s *vocabularyService) GetExtendedCategories(ctx context.Context, userLevel int) ([]models.CategoryMeta, error) {
	if !leveling.HasExtendedAccess(userLevel) {
		return []models.CategoryMeta{}, nil
	}

	categories, err := s.categoryRepo.GetByMinLevel(ctx, userLevel)
	if err != nil {
		s.logger.Error("failed to fetch extended categories", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch extended categories: %w", err)
	}
	if categories == nil {
		categories = []models.CategoryMeta{}
	}

	return categories, nil
}

// GetExtendedWords retrieves extended words for a category, gated by the
// user's level and capped by difficulty
func (s *vocabularyService) GetExtendedWords(ctx context.Context, categoryID string, userLevel, offset, limit int) ([]models.WordRecord, error) {
	if categoryID == "" {
		return nil, fmt.Errorf("%w: categoryId is required", ErrValidation)
	}
	if !leveling.HasExtendedAccess(userLevel) {
		return nil, fmt.Errorf("%w: extended vocabulary unlocks at level %d", ErrValidation, leveling.ExtendedAccessLevel)
	}
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", ErrValidation)
	}
	if limit <= 0 {
		limit = defaultWordLimit
	}
	if limit > maxWordLimit {
		return nil, fmt.Errorf("%w: limit must be at most %d", ErrValidation, maxWordLimit)
	}

	words, err := s.wordRepo.GetByCategory(ctx, categoryID, userLevel, offset, limit)
	if err != nil {
		s.logger.Error("failed to fetch extended words", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch extended words: %w", err)
	}
	if words == nil {
		words = []models.WordRecord{}
	}

	return words, nil
}

// SearchWords searches static words first and tops up with extended words
// when the user's level allows. An extended search failure falls back
// silently to the static results.
func (s *vocabularyService) SearchWords(ctx context.Context, query string, userLevel, limit int) ([]models.WordRecord, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrValidation)
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	results, err := s.static.Search(query, limit)
	if err != nil {
		s.logger.Error("failed to search static catalog", zap.Error(err))
		return nil, fmt.Errorf("failed to search static catalog: %w", err)
	}

	if leveling.HasExtendedAccess(userLevel) && len(results) < limit {
		extended, err := s.wordRepo.Search(ctx, query, userLevel, limit-len(results))
		if err != nil {
			s.logger.Warn("extended search failed, returning static results only", zap.Error(err))
		} else {
			results = append(results, extended...)
		}
	}

	if results == nil {
		results = []models.WordRecord{}
	}
	return results, nil
}

// GetVocabularyStats reports how much vocabulary is available to a user
func (s *vocabularyService) GetVocabularyStats(ctx context.Context, userLevel int) (*VocabularyStats, error) {
	stats := &VocabularyStats{}
	for _, cat := range s.static.Categories() {
		words, err := cat.GetData()
		if err != nil {
			s.logger.Error("failed to load static category", zap.String("category", cat.ID), zap.Error(err))
			return nil, fmt.Errorf("failed to load static category %s: %w", cat.ID, err)
		}
		stats.StaticTotal += len(words)
	}

	if leveling.HasExtendedAccess(userLevel) {
		count, err := s.wordRepo.CountByDifficulty(ctx, userLevel)
		if err != nil {
			// Best-effort: the static totals are still useful on their own
			s.logger.Warn("failed to count extended words", zap.Error(err))
		} else {
			stats.ExtendedTotal = count
		}
	} else {
		stats.UnlocksAt = leveling.ExtendedAccessLevel
	}

	stats.TotalAvailable = stats.StaticTotal + stats.ExtendedTotal
	return stats, nil
}
