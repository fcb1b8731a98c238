// Package migration transfers pre-existing local progress to the remote store
package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/noodles-app/backend/internal/localstore"
	"github.com/noodles-app/backend/internal/models"
	"github.com/noodles-app/backend/internal/progress"
	"go.uber.org/zap"
)

// DefaultBatchSize is the number of rows per upload batch
const DefaultBatchSize = 100

const markerPrefix = "migrated_"

// Marker values recorded per user once the migration prompt is resolved
const (
	MarkerMigrated = "true"
	MarkerSkipped  = "skipped"
)

// Upserter uploads progress rows to the remote store, keyed idempotently
// on (userID, wordID)
type Upserter interface {
	// UpsertProgress inserts or updates a batch of progress rows.
	//
	// If some error occurs during the upload, the error will be returned.
	UpsertProgress(ctx context.Context, rows []models.ProgressRow) error
}

// Migrator performs the one-shot transfer of locally accumulated progress
// into the remote store when a previously-offline user first signs in
type Migrator struct {
	local      *localstore.Store
	remote     Upserter
	categories []models.CategoryMeta
	batchSize  int
	logger     *zap.Logger
	now        func() time.Time
}

// NewMigrator creates a migrator over the given categories.
// A non-positive batchSize falls back to DefaultBatchSize.
func NewMigrator(local *localstore.Store, remote Upserter, categories []models.CategoryMeta, batchSize int, logger *zap.Logger) *Migrator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Migrator{
		local:      local,
		remote:     remote,
		categories: categories,
		batchSize:  batchSize,
		logger:     logger,
		now:        time.Now,
	}
}

// HasPending reports whether the user should be prompted to migrate:
// no migrated/skipped marker is set and at least one category snapshot
// contains progress beyond not_seen
func (m *Migrator) HasPending(userID string) bool {
	marker, ok, err := m.local.Get(markerPrefix + userID)
	if err == nil && ok {
		switch string(marker) {
		case MarkerMigrated, MarkerSkipped:
			return false
		}
	}

	for _, cat := range m.categories {
		for _, word := range m.localWords(cat.ID) {
			if word.Status == models.StatusLearning || word.Status == models.StatusMastered {
				return true
			}
		}
	}
	return false
}

// Migrate collects every non-not_seen record across all categories and
// uploads them in fixed-size idempotent batches, then sets the migrated
// marker. Re-running after a partial failure re-uploads rows harmlessly.
func (m *Migrator) Migrate(ctx context.Context, userID string) (int, error) {
	reviewed := m.now().UTC()

	var rows []models.ProgressRow
	for _, cat := range m.categories {
		for _, word := range m.localWords(cat.ID) {
			if word.Status != models.StatusLearning && word.Status != models.StatusMastered {
				continue
			}
			rows = append(rows, models.ProgressRow{
				UserID:       userID,
				WordID:       word.WordID,
				CategoryID:   cat.ID,
				Status:       word.Status,
				LastReviewed: reviewed,
			})
		}
	}

	uploaded := 0
	for start := 0; start < len(rows); start += m.batchSize {
		end := start + m.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := m.remote.UpsertProgress(ctx, rows[start:end]); err != nil {
			// The marker stays unset so the migration remains resumable
			return uploaded, fmt.Errorf("failed to upload migration batch: %w", err)
		}
		uploaded += end - start
	}

	if err := m.local.Set(markerPrefix+userID, []byte(MarkerMigrated)); err != nil {
		return uploaded, fmt.Errorf("failed to record migration marker: %w", err)
	}

	m.logger.Info("migrated local progress",
		zap.String("user_id", userID), zap.Int("uploaded", uploaded))
	return uploaded, nil
}

// Skip records that the user declined migration so future prompts are
// suppressed without uploading anything
func (m *Migrator) Skip(userID string) error {
	if err := m.local.Set(markerPrefix+userID, []byte(MarkerSkipped)); err != nil {
		return fmt.Errorf("failed to record skip marker: %w", err)
	}
	return nil
}

// localWords reads a category's persisted snapshot, skipping unreadable
// data. Snapshots predate the string-id schema for exactly the users this
// migration targets, so the tolerant decode is used rather than the
// current record shape.
func (m *Migrator) localWords(categoryID string) []models.WordStatus {
	data, ok, err := m.local.Get(progress.StorageKey(categoryID))
	if err != nil || !ok {
		return nil
	}
	words, err := progress.DecodeStoredWords(data)
	if err != nil {
		m.logger.Warn("skipping unparsable snapshot during migration",
			zap.String("category", categoryID), zap.Error(err))
		return nil
	}
	return words
}
