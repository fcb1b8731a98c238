package migration

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/noodles-app/backend/internal/localstore"
	"github.com/noodles-app/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// keyedUpserter stores rows keyed on (userID, wordID) the way the real
// remote upsert does, so re-uploads overwrite instead of duplicating
type keyedUpserter struct {
	mu       sync.Mutex
	rows     map[string]models.ProgressRow
	failures int
	calls    int
}

func newKeyedUpserter() *keyedUpserter {
	return &keyedUpserter{rows: make(map[string]models.ProgressRow)}
}

func (u *keyedUpserter) UpsertProgress(ctx context.Context, rows []models.ProgressRow) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	if u.failures > 0 {
		u.failures--
		return errors.New("upload failed")
	}
	for _, row := range rows {
		u.rows[row.UserID+"/"+row.WordID] = row
	}
	return nil
}

func (u *keyedUpserter) stored() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.rows)
}

func (u *keyedUpserter) row(key string) (models.ProgressRow, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	row, ok := u.rows[key]
	return row, ok
}

func seedSnapshot(t *testing.T, local *localstore.Store, categoryID string, words []models.WordRecord) {
	t.Helper()
	data, err := json.Marshal(words)
	require.NoError(t, err)
	require.NoError(t, local.Set("progress_"+categoryID, data))
}

// seedRawSnapshot writes a snapshot as stored by older schema versions,
// which used numeric word ids
func seedRawSnapshot(t *testing.T, local *localstore.Store, categoryID, raw string) {
	t.Helper()
	require.NoError(t, local.Set("progress_"+categoryID, []byte(raw)))
}

func testCategories() []models.CategoryMeta {
	return []models.CategoryMeta{
		{ID: "greetings"},
		{ID: "pronouns"},
	}
}

func TestMigrator_HasPending(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T, local *localstore.Store)
		expected bool
	}{
		{
			name:     "no local data",
			setup:    func(t *testing.T, local *localstore.Store) {},
			expected: false,
		},
		{
			name: "only not_seen words",
			setup: func(t *testing.T, local *localstore.Store) {
				seedSnapshot(t, local, "greetings", []models.WordRecord{
					{ID: "1", Status: models.StatusNotSeen},
				})
			},
			expected: false,
		},
		{
			name: "has learning progress",
			setup: func(t *testing.T, local *localstore.Store) {
				seedSnapshot(t, local, "pronouns", []models.WordRecord{
					{ID: "1", Status: models.StatusLearning},
				})
			},
			expected: true,
		},
		{
			name: "legacy snapshot with numeric ids",
			setup: func(t *testing.T, local *localstore.Store) {
				seedRawSnapshot(t, local, "greetings",
					`[{"id":1,"status":"mastered"},{"id":2,"status":"not_seen"}]`)
			},
			expected: true,
		},
		{
			name: "already migrated",
			setup: func(t *testing.T, local *localstore.Store) {
				seedSnapshot(t, local, "greetings", []models.WordRecord{
					{ID: "1", Status: models.StatusMastered},
				})
				require.NoError(t, local.Set("migrated_user-1", []byte(MarkerMigrated)))
			},
			expected: false,
		},
		{
			name: "previously skipped",
			setup: func(t *testing.T, local *localstore.Store) {
				seedSnapshot(t, local, "greetings", []models.WordRecord{
					{ID: "1", Status: models.StatusMastered},
				})
				require.NoError(t, local.Set("migrated_user-1", []byte(MarkerSkipped)))
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := localstore.NewStore(t.TempDir())
			tt.setup(t, local)
			m := NewMigrator(local, newKeyedUpserter(), testCategories(), 0, zap.NewNop())

			assert.Equal(t, tt.expected, m.HasPending("user-1"))
		})
	}
}

func TestMigrator_Migrate(t *testing.T) {
	local := localstore.NewStore(t.TempDir())
	seedSnapshot(t, local, "greetings", []models.WordRecord{
		{ID: "1", Status: models.StatusMastered},
		{ID: "2", Status: models.StatusLearning},
		{ID: "3", Status: models.StatusNotSeen},
	})
	seedSnapshot(t, local, "pronouns", []models.WordRecord{
		{ID: "101", Status: models.StatusMastered},
	})

	remote := newKeyedUpserter()
	m := NewMigrator(local, remote, testCategories(), 2, zap.NewNop())

	uploaded, err := m.Migrate(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, 3, uploaded, "not_seen words are excluded")
	assert.Equal(t, 3, remote.stored())
	assert.Equal(t, 2, remote.calls, "3 rows at batch size 2 means 2 uploads")
	assert.False(t, m.HasPending("user-1"))
}

func TestMigrator_MigrateLegacySnapshots(t *testing.T) {
	local := localstore.NewStore(t.TempDir())
	seedRawSnapshot(t, local, "greetings",
		`[{"id":1,"status":"mastered"},{"id":2,"status":"learning"},{"id":3,"status":"not_seen"}]`)

	remote := newKeyedUpserter()
	m := NewMigrator(local, remote, testCategories(), 0, zap.NewNop())

	uploaded, err := m.Migrate(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, 2, uploaded)
	row, ok := remote.row("user-1/1")
	require.True(t, ok, "numeric ids upload under their string form")
	assert.Equal(t, models.StatusMastered, row.Status)
	assert.Equal(t, "greetings", row.CategoryID)
	row, ok = remote.row("user-1/2")
	require.True(t, ok)
	assert.Equal(t, models.StatusLearning, row.Status)
}

func TestMigrator_MigrateIsIdempotent(t *testing.T) {
	local := localstore.NewStore(t.TempDir())
	seedSnapshot(t, local, "greetings", []models.WordRecord{
		{ID: "1", Status: models.StatusMastered},
		{ID: "2", Status: models.StatusLearning},
	})

	remote := newKeyedUpserter()
	m := NewMigrator(local, remote, testCategories(), 0, zap.NewNop())

	_, err := m.Migrate(context.Background(), "user-1")
	require.NoError(t, err)
	_, err = m.Migrate(context.Background(), "user-1")
	require.NoError(t, err)

	// The keyed upsert leaves exactly one row per (user, word)
	assert.Equal(t, 2, remote.stored())
}

func TestMigrator_MigrateResumableAfterFailure(t *testing.T) {
	local := localstore.NewStore(t.TempDir())
	seedSnapshot(t, local, "greetings", []models.WordRecord{
		{ID: "1", Status: models.StatusMastered},
		{ID: "2", Status: models.StatusMastered},
		{ID: "3", Status: models.StatusMastered},
	})

	remote := newKeyedUpserter()
	remote.failures = 1
	m := NewMigrator(local, remote, testCategories(), 2, zap.NewNop())

	_, err := m.Migrate(context.Background(), "user-1")
	require.Error(t, err)

	// The marker stays unset, so the prompt fires again
	assert.True(t, m.HasPending("user-1"))

	uploaded, err := m.Migrate(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, uploaded)
	assert.Equal(t, 3, remote.stored())
	assert.False(t, m.HasPending("user-1"))
}

func TestMigrator_Skip(t *testing.T) {
	local := localstore.NewStore(t.TempDir())
	seedSnapshot(t, local, "greetings", []models.WordRecord{
		{ID: "1", Status: models.StatusMastered},
	})

	remote := newKeyedUpserter()
	m := NewMigrator(local, remote, testCategories(), 0, zap.NewNop())

	require.NoError(t, m.Skip("user-1"))

	assert.False(t, m.HasPending("user-1"))
	assert.Equal(t, 0, remote.stored())

	marker, ok, err := local.Get("migrated_user-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, MarkerSkipped, string(marker))
}

func TestMigrator_MigrateEmptyLocalState(t *testing.T) {
	local := localstore.NewStore(t.TempDir())
	remote := newKeyedUpserter()
	m := NewMigrator(local, remote, testCategories(), 0, zap.NewNop())

	uploaded, err := m.Migrate(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, uploaded)

	// The marker is still set so the prompt never fires again
	marker, ok, err := local.Get("migrated_user-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, MarkerMigrated, string(marker))
}
