package progress

import (
	"strconv"
	"testing"

	"github.com/noodles-app/backend/internal/localstore"
	"github.com/noodles-app/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) (*Store, *localstore.Store) {
	t.Helper()
	local := localstore.NewStore(t.TempDir())
	return NewStore(local, zap.NewNop()), local
}

func catalogWords(n int) []models.WordRecord {
	words := make([]models.WordRecord, n)
	for i := range words {
		words[i] = models.WordRecord{
			ID:      strconv.Itoa(i + 1),
			Chinese: "字",
			Pinyin:  "zì",
			English: "character",
			Status:  models.StatusNotSeen,
		}
	}
	return words
}

func TestStore_LoadFreshCategory(t *testing.T) {
	store, _ := newTestStore(t)

	snap := store.Load("greetings", catalogWords(10))

	assert.Equal(t, "greetings", snap.CategoryID)
	require.Len(t, snap.Words, 10)
	stats := snap.Stats()
	assert.Equal(t, models.ProgressStats{Total: 10, NotSeen: 10}, stats)
}

func TestStore_PersistLoadRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	words := catalogWords(10)

	snap := store.Load("greetings", words)
	snap = UpdateStatus(snap, "3", models.StatusMastered)
	snap = UpdateStatus(snap, "5", models.StatusLearning)
	require.NoError(t, store.Persist(snap))

	reloaded := store.Load("greetings", words)

	byID := make(map[string]models.Status)
	for _, w := range reloaded.Words {
		byID[w.ID] = w.Status
	}
	assert.Equal(t, models.StatusMastered, byID["3"])
	assert.Equal(t, models.StatusLearning, byID["5"])
	assert.Equal(t, models.StatusNotSeen, byID["1"])

	// Loading again without changes is idempotent
	again := store.Load("greetings", words)
	assert.Equal(t, reloaded.Words, again.Words)
}

func TestStore_LoadDropsOrphanedIDs(t *testing.T) {
	store, local := newTestStore(t)

	// Persisted snapshot references a word no longer in the catalog
	require.NoError(t, local.Set("progress_greetings",
		[]byte(`[{"id":"999","status":"mastered"},{"id":"2","status":"learning"}]`)))
	require.NoError(t, local.Set("progress_greetings_version", []byte(strconv.Itoa(SchemaVersion))))

	snap := store.Load("greetings", catalogWords(5))

	require.Len(t, snap.Words, 5)
	stats := snap.Stats()
	assert.Equal(t, 1, stats.Learning)
	assert.Equal(t, 0, stats.Mastered)
}

func TestStore_LoadMigratesOldSchema(t *testing.T) {
	store, local := newTestStore(t)

	// v4 snapshots used numeric ids and the retired "reviewing" status
	require.NoError(t, local.Set("progress_greetings",
		[]byte(`[{"id":1,"status":"mastered"},{"id":2,"status":"reviewing"}]`)))
	require.NoError(t, local.Set("progress_greetings_version", []byte("4")))

	snap := store.Load("greetings", catalogWords(5))

	byID := make(map[string]models.Status)
	for _, w := range snap.Words {
		byID[w.ID] = w.Status
	}
	assert.Equal(t, models.StatusMastered, byID["1"])
	assert.Equal(t, models.StatusLearning, byID["2"], "reviewing should fold into learning")

	// Storage is rewritten at the current schema version
	raw, ok, err := local.Get("progress_greetings_version")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, strconv.Itoa(SchemaVersion), string(raw))
}

func TestStore_LoadDiscardsCorruptSnapshot(t *testing.T) {
	store, local := newTestStore(t)

	require.NoError(t, local.Set("progress_greetings", []byte("{not json")))

	snap := store.Load("greetings", catalogWords(4))

	assert.Equal(t, models.ProgressStats{Total: 4, NotSeen: 4}, snap.Stats())
}

func TestUpdateStatus(t *testing.T) {
	snap := Snapshot{CategoryID: "greetings", Words: catalogWords(3)}

	updated := UpdateStatus(snap, "2", models.StatusMastered)

	assert.Equal(t, models.StatusMastered, updated.Words[1].Status)
	// Original snapshot is untouched
	assert.Equal(t, models.StatusNotSeen, snap.Words[1].Status)
}

func TestUpdateStatus_UnknownID(t *testing.T) {
	snap := Snapshot{CategoryID: "greetings", Words: catalogWords(3)}

	updated := UpdateStatus(snap, "999", models.StatusMastered)

	assert.Equal(t, snap.Words, updated.Words)
	assert.Equal(t, 3, updated.Stats().Total)
}

func TestStore_Reset(t *testing.T) {
	store, _ := newTestStore(t)
	words := catalogWords(6)

	snap := store.Load("greetings", words)
	snap = UpdateStatus(snap, "1", models.StatusMastered)
	require.NoError(t, store.Persist(snap))

	reset := store.Reset("greetings", words)
	assert.Equal(t, models.ProgressStats{Total: 6, NotSeen: 6}, reset.Stats())

	reloaded := store.Load("greetings", words)
	assert.Equal(t, models.ProgressStats{Total: 6, NotSeen: 6}, reloaded.Stats())
}

func TestStore_LocalMasteredCount(t *testing.T) {
	store, _ := newTestStore(t)

	first := store.Load("greetings", catalogWords(5))
	first = UpdateStatus(first, "1", models.StatusMastered)
	first = UpdateStatus(first, "2", models.StatusMastered)
	require.NoError(t, store.Persist(first))

	second := store.Load("pronouns", catalogWords(5))
	second = UpdateStatus(second, "3", models.StatusMastered)
	second = UpdateStatus(second, "4", models.StatusLearning)
	require.NoError(t, store.Persist(second))

	assert.Equal(t, 3, store.LocalMasteredCount())
}

func TestStore_StudySessionScenario(t *testing.T) {
	store, _ := newTestStore(t)
	words := catalogWords(10)

	snap := store.Load("greetings", words)
	snap = UpdateStatus(snap, "1", models.StatusLearning)
	snap = UpdateStatus(snap, "1", models.StatusMastered)
	require.NoError(t, store.Persist(snap))

	stats := snap.Stats()
	assert.Equal(t, models.ProgressStats{Total: 10, NotSeen: 9, Learning: 0, Mastered: 1}, stats)
}

func TestSnapshot_StatsSumToTotal(t *testing.T) {
	words := catalogWords(8)
	words[0].Status = models.StatusMastered
	words[1].Status = models.StatusLearning
	words[2].Status = models.StatusLearning
	snap := Snapshot{CategoryID: "x", Words: words}

	stats := snap.Stats()
	assert.Equal(t, stats.Total, stats.NotSeen+stats.Learning+stats.Mastered)
	assert.Equal(t, models.ProgressStats{Total: 8, NotSeen: 5, Learning: 2, Mastered: 1}, stats)
}

func TestDecodeStoredWords(t *testing.T) {
	data := []byte(`[{"id":1,"status":"mastered"},{"id":"2","status":"learning"},{"status":"mastered"}]`)

	words, err := DecodeStoredWords(data)

	require.NoError(t, err)
	require.Len(t, words, 2, "entries without an id are dropped")
	assert.Equal(t, models.WordStatus{WordID: "1", Status: models.StatusMastered}, words[0])
	assert.Equal(t, models.WordStatus{WordID: "2", Status: models.StatusLearning}, words[1])
}

func TestDecodeStoredWords_Invalid(t *testing.T) {
	_, err := DecodeStoredWords([]byte(`{"not":"a list"}`))

	assert.Error(t, err)
}
