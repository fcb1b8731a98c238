package progress

import (
	"errors"
	"testing"

	"github.com/noodles-app/backend/internal/localstore"
	"github.com/noodles-app/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func loaderFor(words []models.WordRecord) models.WordLoader {
	return func() ([]models.WordRecord, error) {
		return words, nil
	}
}

func TestStore_Summarize(t *testing.T) {
	local := localstore.NewStore(t.TempDir())
	store := NewStore(local, zap.NewNop())

	// One category has a local snapshot with progress
	snap := store.Load("greetings", catalogWords(10))
	snap = UpdateStatus(snap, "1", models.StatusMastered)
	snap = UpdateStatus(snap, "2", models.StatusLearning)
	require.NoError(t, store.Persist(snap))

	categories := []models.CategoryMeta{
		{ID: "greetings", GetData: loaderFor(catalogWords(10))},
		{ID: "pronouns", GetData: loaderFor(catalogWords(8))},
		{ID: "broken", GetData: func() ([]models.WordRecord, error) {
			return nil, errors.New("load failed")
		}},
	}

	result := store.Summarize(categories)

	assert.Equal(t, models.ProgressStats{Total: 10, NotSeen: 8, Learning: 1, Mastered: 1}, result["greetings"])
	assert.Equal(t, models.ProgressStats{Total: 8, NotSeen: 8}, result["pronouns"])
	assert.Equal(t, models.ProgressStats{}, result["broken"])
}

func TestApplyAggregates(t *testing.T) {
	perCategory := map[string]models.ProgressStats{
		"greetings": {Total: 10, NotSeen: 10},
		"pronouns":  {Total: 8, NotSeen: 8},
	}
	aggregates := []models.CategoryAggregate{
		{CategoryID: "greetings", MasteredCount: 4, LearningCount: 2},
		{CategoryID: "unknown", MasteredCount: 99},
	}

	result := ApplyAggregates(perCategory, aggregates)

	assert.Equal(t, models.ProgressStats{Total: 10, NotSeen: 4, Learning: 2, Mastered: 4}, result["greetings"])
	// Category without an aggregate keeps its local counts
	assert.Equal(t, models.ProgressStats{Total: 8, NotSeen: 8}, result["pronouns"])
	// Unknown remote categories are ignored
	_, ok := result["unknown"]
	assert.False(t, ok)
	// Input map is untouched
	assert.Equal(t, models.ProgressStats{Total: 10, NotSeen: 10}, perCategory["greetings"])
}

func TestReduceTotals(t *testing.T) {
	perCategory := map[string]models.ProgressStats{
		"a": {Total: 10, NotSeen: 5, Learning: 2, Mastered: 3},
		"b": {Total: 5, NotSeen: 0, Learning: 0, Mastered: 5},
	}

	totals := ReduceTotals(perCategory)

	assert.Equal(t, models.ProgressStats{Total: 15, NotSeen: 5, Learning: 2, Mastered: 8}, totals)
	assert.Equal(t, totals.Total, totals.NotSeen+totals.Learning+totals.Mastered)
}

func TestReduceTotals_Empty(t *testing.T) {
	assert.Equal(t, models.ProgressStats{}, ReduceTotals(nil))
}
