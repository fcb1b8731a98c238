package services

import (
	"context"
	"errors"
	"testing"

	"github.com/noodles-app/backend/internal/catalog"
	"github.com/noodles-app/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockWordRepository is a mock implementation of WordRepository
type mockWordRepository struct {
	words     []models.WordRecord
	err       error
	count     int
	countErr  error
	searchHit []models.WordRecord
	searchErr error
}

func (m *mockWordRepository) GetByCategory(ctx context.Context, categoryID string, maxDifficulty, offset, limit int) ([]models.WordRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.words, nil
}

func (m *mockWordRepository) Search(ctx context.Context, query string, maxDifficulty, limit int) ([]models.WordRecord, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if limit < len(m.searchHit) {
		return m.searchHit[:limit], nil
	}
	return m.searchHit, nil
}

func (m *mockWordRepository) CountByDifficulty(ctx context.Context, maxDifficulty int) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.count, nil
}

// mockCategoryRepository is a mock implementation of CategoryRepository
type mockCategoryRepository struct {
	categories []models.CategoryMeta
	err        error
}

func (m *mockCategoryRepository) GetByMinLevel(ctx context.Context, level int) ([]models.CategoryMeta, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.categories, nil
}

func newVocabularyTestService(wordRepo *mockWordRepository, categoryRepo *mockCategoryRepository) *vocabularyService {
	return NewVocabularyService(catalog.New(), wordRepo, categoryRepo, zap.NewNop())
}

func TestVocabularyService_GetExtendedCategories(t *testing.T) {
	extended := []models.CategoryMeta{{ID: "food", Name: "Food & Drink", Extended: true}}

	tests := []struct {
		name          string
		userLevel     int
		categoryRepo  *mockCategoryRepository
		expectedError bool
		expectedCount int
	}{
		{
			name:          "unlocked at level 3",
			userLevel:     3,
			categoryRepo:  &mockCategoryRepository{categories: extended},
			expectedError: false,
			expectedCount: 1,
		},
		{
			name:          "locked below level 3",
			userLevel:     2,
			categoryRepo:  &mockCategoryRepository{categories: extended},
			expectedError: false,
			expectedCount: 0,
		},
		{
			name:          "repository error",
			userLevel:     3,
			categoryRepo:  &mockCategoryRepository{err: errors.New("database error")},
			expectedError: true,
		},
		{
			name:          "nil result becomes empty slice",
			userLevel:     4,
			categoryRepo:  &mockCategoryRepository{},
			expectedError: false,
			expectedCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newVocabularyTestService(&mockWordRepository{}, tt.categoryRepo)

			categories, err := svc.GetExtendedCategories(context.Background(), tt.userLevel)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, categories)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, categories)
				assert.Len(t, categories, tt.expectedCount)
			}
		})
	}
}

func TestVocabularyService_GetExtendedWords(t *testing.T) {
	words := []models.WordRecord{{ID: "ext-food-0001", Chinese: "米饭", Extended: true}}

	tests := []struct {
		name          string
		categoryID    string
		userLevel     int
		offset        int
		limit         int
		wordRepo      *mockWordRepository
		expectedError bool
		expectedCount int
	}{
		{
			name:          "success",
			categoryID:    "food",
			userLevel:     3,
			limit:         10,
			wordRepo:      &mockWordRepository{words: words},
			expectedError: false,
			expectedCount: 1,
		},
		{
			name:          "missing category id",
			categoryID:    "",
			userLevel:     3,
			wordRepo:      &mockWordRepository{},
			expectedError: true,
		},
		{
			name:          "locked below access level",
			categoryID:    "food",
			userLevel:     2,
			wordRepo:      &mockWordRepository{words: words},
			expectedError: true,
		},
		{
			name:          "negative offset",
			categoryID:    "food",
			userLevel:     3,
			offset:        -1,
			wordRepo:      &mockWordRepository{},
			expectedError: true,
		},
		{
			name:          "limit above maximum",
			categoryID:    "food",
			userLevel:     3,
			limit:         maxWordLimit + 1,
			wordRepo:      &mockWordRepository{},
			expectedError: true,
		},
		{
			name:          "repository error",
			categoryID:    "food",
			userLevel:     3,
			limit:         10,
			wordRepo:      &mockWordRepository{err: errors.New("database error")},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newVocabularyTestService(tt.wordRepo, &mockCategoryRepository{})

			result, err := svc.GetExtendedWords(context.Background(), tt.categoryID, tt.userLevel, tt.offset, tt.limit)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Len(t, result, tt.expectedCount)
			}
		})
	}
}

func TestVocabularyService_SearchWords(t *testing.T) {
	t.Run("static results only below access level", func(t *testing.T) {
		wordRepo := &mockWordRepository{
			searchHit: []models.WordRecord{{ID: "ext-1", Extended: true}},
		}
		svc := newVocabularyTestService(wordRepo, &mockCategoryRepository{})

		results, err := svc.SearchWords(context.Background(), "hello", 1, 20)

		require.NoError(t, err)
		for _, w := range results {
			assert.False(t, w.Extended, "locked users never see extended words")
		}
	})

	t.Run("extended words top up static results", func(t *testing.T) {
		wordRepo := &mockWordRepository{
			searchHit: []models.WordRecord{{ID: "ext-1", Extended: true}},
		}
		svc := newVocabularyTestService(wordRepo, &mockCategoryRepository{})

		results, err := svc.SearchWords(context.Background(), "zzz-no-static-match", 3, 20)

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.True(t, results[0].Extended)
	})

	t.Run("extended search failure falls back to static", func(t *testing.T) {
		wordRepo := &mockWordRepository{searchErr: errors.New("database error")}
		svc := newVocabularyTestService(wordRepo, &mockCategoryRepository{})

		results, err := svc.SearchWords(context.Background(), "hello", 3, 20)

		require.NoError(t, err)
		assert.NotEmpty(t, results)
	})

	t.Run("empty query", func(t *testing.T) {
		svc := newVocabularyTestService(&mockWordRepository{}, &mockCategoryRepository{})

		_, err := svc.SearchWords(context.Background(), "", 3, 20)
		assert.Error(t, err)
	})
}

func TestVocabularyService_GetVocabularyStats(t *testing.T) {
	t.Run("locked user sees static totals and unlock level", func(t *testing.T) {
		svc := newVocabularyTestService(&mockWordRepository{count: 500}, &mockCategoryRepository{})

		stats, err := svc.GetVocabularyStats(context.Background(), 1)

		require.NoError(t, err)
		assert.Positive(t, stats.StaticTotal)
		assert.Zero(t, stats.ExtendedTotal)
		assert.Equal(t, 3, stats.UnlocksAt)
		assert.Equal(t, stats.StaticTotal, stats.TotalAvailable)
	})

	t.Run("unlocked user sees extended totals", func(t *testing.T) {
		svc := newVocabularyTestService(&mockWordRepository{count: 500}, &mockCategoryRepository{})

		stats, err := svc.GetVocabularyStats(context.Background(), 3)

		require.NoError(t, err)
		assert.Equal(t, 500, stats.ExtendedTotal)
		assert.Zero(t, stats.UnlocksAt)
		assert.Equal(t, stats.StaticTotal+500, stats.TotalAvailable)
	})

	t.Run("extended count failure is best-effort", func(t *testing.T) {
		svc := newVocabularyTestService(&mockWordRepository{countErr: errors.New("database error")}, &mockCategoryRepository{})

		stats, err := svc.GetVocabularyStats(context.Background(), 3)

		require.NoError(t, err)
		assert.Zero(t, stats.ExtendedTotal)
		assert.Equal(t, stats.StaticTotal, stats.TotalAvailable)
	})
}
