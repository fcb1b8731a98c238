// Package progress tracks per-category word review state
package progress

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/noodles-app/backend/internal/localstore"
	"github.com/noodles-app/backend/internal/models"
	"go.uber.org/zap"
)

// SchemaVersion is the current local snapshot schema version.
// Snapshots persisted under an older version are migrated on load.
const SchemaVersion = 6

const keyPrefix = "progress_"

// StorageKey returns the local storage key for a category snapshot
func StorageKey(categoryID string) string {
	return keyPrefix + categoryID
}

// Snapshot is the in-memory word status list for one category session
type Snapshot struct {
	CategoryID string
	Words      []models.WordRecord
}

// Stats derives the review-state counts for the snapshot.
// The counts always sum to Total.
func (s Snapshot) Stats() models.ProgressStats {
	stats := models.ProgressStats{Total: len(s.Words)}
	for _, w := range s.Words {
		switch w.Status {
		case models.StatusLearning:
			stats.Learning++
		case models.StatusMastered:
			stats.Mastered++
		default:
			stats.NotSeen++
		}
	}
	return stats
}

// persistedWord is the tolerant on-disk record shape. Old schema versions
// stored numeric IDs, so the ID is decoded manually.
type persistedWord struct {
	ID     json.RawMessage `json:"id"`
	Status models.Status   `json:"status"`
}

// DecodeStoredWords parses a raw persisted snapshot into word statuses.
// String and numeric ids are both accepted since older schema versions
// stored numeric ids; entries with an undecodable id are dropped.
func DecodeStoredWords(data []byte) ([]models.WordStatus, error) {
	var persisted []persistedWord
	if err := json.Unmarshal(data, &persisted); err != nil {
		return nil, err
	}
	words := make([]models.WordStatus, 0, len(persisted))
	for _, p := range persisted {
		id := decodeID(p.ID)
		if id == "" {
			continue
		}
		words = append(words, models.WordStatus{WordID: id, Status: p.Status})
	}
	return words, nil
}

// migrationFunc transforms persisted statuses from one schema version to the next
type migrationFunc func(map[string]models.Status) map[string]models.Status

// migrations maps oldVersion -> migration to oldVersion+1, applied in
// ascending order from the persisted version up to SchemaVersion
var migrations = map[int]migrationFunc{
	// v4 -> v5: the "reviewing" status was folded into "learning"
	4: func(statuses map[string]models.Status) map[string]models.Status {
		for id, st := range statuses {
			if st == "reviewing" {
				statuses[id] = models.StatusLearning
			}
		}
		return statuses
	},
	// v5 -> v6: snapshots became per-category keyed; statuses carry over by id
	5: func(statuses map[string]models.Status) map[string]models.Status {
		return statuses
	},
}

// Store loads, mutates and persists category snapshots
type Store struct {
	local  *localstore.Store
	logger *zap.Logger
}

// NewStore creates a new progress store
func NewStore(local *localstore.Store, logger *zap.Logger) *Store {
	return &Store{
		local:  local,
		logger: logger,
	}
}

// Load reads the persisted snapshot for a category and merges it onto the
// catalog word list. A missing or unreadable snapshot yields a fresh one
// with every word not_seen; a version mismatch runs the migration chain.
// Load never fails: corrupted local data is discarded.
func (s *Store) Load(categoryID string, catalogWords []models.WordRecord) Snapshot {
	statuses, version := s.readPersisted(categoryID)

	if statuses != nil && version != SchemaVersion {
		statuses = s.migrate(statuses, version)
	}

	snap := Snapshot{
		CategoryID: categoryID,
		Words:      mergeStatuses(categoryID, catalogWords, statuses),
	}

	// Rewrite storage so the persisted state reflects the current catalog
	// shape and schema version
	if err := s.Persist(snap); err != nil {
		s.logger.Warn("failed to persist loaded snapshot",
			zap.String("category", categoryID), zap.Error(err))
	}

	return snap
}

// UpdateStatus returns a copy of the snapshot with the matching word's
// status replaced. An unknown wordID leaves every word untouched.
func UpdateStatus(snap Snapshot, wordID string, newStatus models.Status) Snapshot {
	words := make([]models.WordRecord, len(snap.Words))
	copy(words, snap.Words)
	for i := range words {
		if words[i].ID == wordID {
			words[i].Status = newStatus
			break
		}
	}
	return Snapshot{CategoryID: snap.CategoryID, Words: words}
}

// Persist writes the snapshot and its version marker to local storage
func (s *Store) Persist(snap Snapshot) error {
	data, err := json.Marshal(snap.Words)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := s.local.Set(keyPrefix+snap.CategoryID, data); err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}
	if err := s.local.Set(keyPrefix+snap.CategoryID+"_version", []byte(strconv.Itoa(SchemaVersion))); err != nil {
		return fmt.Errorf("failed to persist snapshot version: %w", err)
	}
	return nil
}

// Reset re-initializes every word to not_seen and persists the result.
// Deleting the matching remote rows is the caller's responsibility.
func (s *Store) Reset(categoryID string, catalogWords []models.WordRecord) Snapshot {
	words := make([]models.WordRecord, len(catalogWords))
	copy(words, catalogWords)
	for i := range words {
		words[i].Status = models.StatusNotSeen
	}

	snap := Snapshot{CategoryID: categoryID, Words: words}
	if err := s.Persist(snap); err != nil {
		s.logger.Warn("failed to persist reset snapshot",
			zap.String("category", categoryID), zap.Error(err))
	}
	return snap
}

// LocalMasteredCount counts mastered words across every locally stored
// category snapshot. Unreadable snapshots are skipped.
func (s *Store) LocalMasteredCount() int {
	keys, err := s.local.Keys(keyPrefix)
	if err != nil {
		s.logger.Warn("failed to list local snapshots", zap.Error(err))
		return 0
	}

	count := 0
	for _, key := range keys {
		if strings.HasSuffix(key, "_version") {
			continue
		}
		data, ok, err := s.local.Get(key)
		if err != nil || !ok {
			continue
		}
		var words []persistedWord
		if err := json.Unmarshal(data, &words); err != nil {
			continue
		}
		for _, w := range words {
			if w.Status == models.StatusMastered {
				count++
			}
		}
	}
	return count
}

// readPersisted returns the stored id->status map and its schema version,
// or (nil, 0) when nothing usable is stored
func (s *Store) readPersisted(categoryID string) (map[string]models.Status, int) {
	data, ok, err := s.local.Get(keyPrefix + categoryID)
	if err != nil {
		s.logger.Warn("failed to read snapshot", zap.String("category", categoryID), zap.Error(err))
		return nil, 0
	}
	if !ok {
		return nil, 0
	}

	decoded, err := DecodeStoredWords(data)
	if err != nil {
		// Corrupted snapshot: fall back to a fresh one from the catalog
		s.logger.Warn("discarding unparsable snapshot",
			zap.String("category", categoryID), zap.Error(err))
		return nil, 0
	}

	statuses := make(map[string]models.Status, len(decoded))
	for _, w := range decoded {
		statuses[w.WordID] = w.Status
	}

	version := 0
	if raw, ok, err := s.local.Get(keyPrefix + categoryID + "_version"); err == nil && ok {
		if v, err := strconv.Atoi(strings.TrimSpace(string(raw))); err == nil {
			version = v
		}
	}
	return statuses, version
}

// migrate applies the migration chain from the persisted version up to the
// current schema version. Versions with no registered migration are skipped.
func (s *Store) migrate(statuses map[string]models.Status, fromVersion int) map[string]models.Status {
	for v := fromVersion; v < SchemaVersion; v++ {
		if fn, ok := migrations[v]; ok {
			statuses = fn(statuses)
		}
	}
	s.logger.Info("migrated local snapshot",
		zap.Int("from_version", fromVersion), zap.Int("to_version", SchemaVersion))
	return statuses
}

// mergeStatuses maps persisted statuses onto the catalog shape by id,
// carrying over status only. Catalog words with no persisted entry stay
// not_seen; persisted ids absent from the catalog are dropped.
func mergeStatuses(categoryID string, catalogWords []models.WordRecord, statuses map[string]models.Status) []models.WordRecord {
	words := make([]models.WordRecord, len(catalogWords))
	copy(words, catalogWords)
	for i := range words {
		words[i].Category = categoryID
		if words[i].Status == "" {
			words[i].Status = models.StatusNotSeen
		}
		if st, ok := statuses[words[i].ID]; ok && st.IsValid() {
			words[i].Status = st
		}
	}
	return words
}

// decodeID accepts both string and numeric persisted ids
func decodeID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}
	var asNumber int64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return strconv.FormatInt(asNumber, 10)
	}
	return ""
}
