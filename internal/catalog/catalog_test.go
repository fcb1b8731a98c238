package catalog

import (
	"math/rand"
	"testing"

	"github.com/noodles-app/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	c := New()

	categories := c.Categories()
	require.Len(t, categories, 3)
	assert.Equal(t, "greetings", categories[0].ID)
	assert.Equal(t, "pronouns", categories[1].ID)
	assert.Equal(t, "numbers_time", categories[2].ID)

	for _, cat := range categories {
		assert.NotEmpty(t, cat.Name)
		assert.NotNil(t, cat.GetData)
		assert.False(t, cat.Extended)
	}
}

func TestCatalog_Words(t *testing.T) {
	c := New()

	words, err := c.Words("greetings")
	require.NoError(t, err)
	require.NotEmpty(t, words)

	for _, w := range words {
		assert.NotEmpty(t, w.ID)
		assert.NotEmpty(t, w.Chinese)
		assert.NotEmpty(t, w.Pinyin)
		assert.NotEmpty(t, w.English)
		assert.Equal(t, "greetings", w.Category)
		assert.Equal(t, models.StatusNotSeen, w.Status)
	}
}

func TestCatalog_WordsUnknownCategory(t *testing.T) {
	c := New()

	words, err := c.Words("nope")
	assert.Error(t, err)
	assert.Nil(t, words)
}

func TestCatalog_Search(t *testing.T) {
	c := New()

	tests := []struct {
		name       string
		query      string
		limit      int
		expectHits bool
	}{
		{name: "english match case-insensitive", query: "hello", limit: 10, expectHits: true},
		{name: "pinyin match", query: "hǎo", limit: 10, expectHits: true},
		{name: "chinese match", query: "你", limit: 10, expectHits: true},
		{name: "no match", query: "zzzzzz", limit: 10, expectHits: false},
		{name: "zero limit", query: "hello", limit: 0, expectHits: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := c.Search(tt.query, tt.limit)
			require.NoError(t, err)
			if tt.expectHits {
				assert.NotEmpty(t, results)
				assert.LessOrEqual(t, len(results), tt.limit)
			} else {
				assert.Empty(t, results)
			}
		})
	}
}

func TestCatalog_SearchRespectsLimit(t *testing.T) {
	c := New()

	results, err := c.Search("n", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSample(t *testing.T) {
	c := New()
	words, err := c.Words("greetings")
	require.NoError(t, err)

	t.Run("deterministic with fixed seed", func(t *testing.T) {
		first := Sample(words, 5, rand.New(rand.NewSource(42)))
		second := Sample(words, 5, rand.New(rand.NewSource(42)))
		assert.Equal(t, first, second)
	})

	t.Run("no duplicates", func(t *testing.T) {
		sampled := Sample(words, len(words), rand.New(rand.NewSource(7)))
		seen := make(map[string]bool)
		for _, w := range sampled {
			assert.False(t, seen[w.ID], "duplicate id %s", w.ID)
			seen[w.ID] = true
		}
	})

	t.Run("k larger than population", func(t *testing.T) {
		sampled := Sample(words, len(words)+10, rand.New(rand.NewSource(1)))
		assert.Len(t, sampled, len(words))
	})

	t.Run("k zero", func(t *testing.T) {
		assert.Empty(t, Sample(words, 0, rand.New(rand.NewSource(1))))
	})

	t.Run("does not mutate input", func(t *testing.T) {
		original := make([]models.WordRecord, len(words))
		copy(original, words)
		Sample(words, 3, rand.New(rand.NewSource(9)))
		assert.Equal(t, original, words)
	})
}
