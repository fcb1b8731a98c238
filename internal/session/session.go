// Package session wires the progress store, sync coordinator and remote
// store into one explicitly constructed per-category study session
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/noodles-app/backend/internal/leveling"
	"github.com/noodles-app/backend/internal/models"
	"github.com/noodles-app/backend/internal/progress"
	"github.com/noodles-app/backend/internal/syncer"
	"go.uber.org/zap"
)

// Remote is the remote progress store contract consumed by a session.
// All writes are idempotent upserts keyed on (userID, wordID).
type Remote interface {
	// UpsertProgress inserts or updates a batch of progress rows.
	//
	// If some error occurs during the upload, the error will be returned.
	UpsertProgress(ctx context.Context, rows []models.ProgressRow) error
	// FetchProgress retrieves the stored statuses for a user and category.
	//
	// If some error occurs during data retrieve, the error will be returned
	// together with "nil" value.
	FetchProgress(ctx context.Context, userID, categoryID string) ([]models.WordStatus, error)
	// DeleteProgress removes every stored row for a user and category.
	//
	// If some error occurs during the delete, the error will be returned.
	DeleteProgress(ctx context.Context, userID, categoryID string) error
}

// Session owns the in-memory snapshot for one active category. Mutations
// are applied in user-action order, persisted locally after every change,
// and queued for debounced remote sync when a user is signed in.
type Session struct {
	store        *progress.Store
	remote       Remote
	coordinator  *syncer.Coordinator
	leveler      *leveling.Engine
	logger       *zap.Logger
	userID       string
	categoryID   string
	catalogWords []models.WordRecord
	snapshot     progress.Snapshot
	started      bool
}

// Config holds the dependencies for a session
type Config struct {
	Store        *progress.Store
	Remote       Remote           // nil for local-only mode
	Leveler      *leveling.Engine // nil disables level refresh
	UserID       string           // empty for anonymous/offline users
	CategoryID   string
	CatalogWords []models.WordRecord
	Debounce     time.Duration
	Logger       *zap.Logger
}

// New creates a session. Call Start before using it and Close when the
// category is left so pending syncs are flushed rather than discarded.
func New(cfg Config) *Session {
	s := &Session{
		store:        cfg.Store,
		remote:       cfg.Remote,
		leveler:      cfg.Leveler,
		logger:       cfg.Logger,
		userID:       cfg.UserID,
		categoryID:   cfg.CategoryID,
		catalogWords: cfg.CatalogWords,
	}
	if cfg.Remote != nil && cfg.UserID != "" {
		s.coordinator = syncer.NewCoordinator(cfg.Remote, cfg.UserID, cfg.CategoryID, cfg.Debounce, cfg.Logger)
	}
	return s
}

// Start loads the local snapshot and, for signed-in users, merges the
// remote state on top of it (remote wins). A remote read failure degrades
// to local-only state without failing the load.
func (s *Session) Start(ctx context.Context) error {
	if s.started {
		return fmt.Errorf("session already started")
	}

	s.snapshot = s.store.Load(s.categoryID, s.catalogWords)

	if s.remote != nil && s.userID != "" {
		statuses, err := s.remote.FetchProgress(ctx, s.userID, s.categoryID)
		if err != nil {
			s.logger.Warn("failed to fetch remote progress, using local state",
				zap.String("category", s.categoryID), zap.Error(err))
		} else if len(statuses) > 0 {
			remote := make(map[string]models.Status, len(statuses))
			for _, ws := range statuses {
				remote[ws.WordID] = ws.Status
			}
			s.snapshot = syncer.Reconcile(s.snapshot, remote)
			if err := s.store.Persist(s.snapshot); err != nil {
				s.logger.Warn("failed to persist merged snapshot",
					zap.String("category", s.categoryID), zap.Error(err))
			}
		}
	}

	s.started = true
	return nil
}

// Snapshot returns the current in-memory snapshot
func (s *Session) Snapshot() progress.Snapshot {
	return s.snapshot
}

// Stats returns the derived counts for the current snapshot
func (s *Session) Stats() models.ProgressStats {
	return s.snapshot.Stats()
}

// UpdateStatus records a review action. The mutation is applied to the
// snapshot, persisted locally, and queued for remote sync.
func (s *Session) UpdateStatus(wordID string, status models.Status) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid status: %s", status)
	}

	s.snapshot = progress.UpdateStatus(s.snapshot, wordID, status)
	if err := s.store.Persist(s.snapshot); err != nil {
		s.logger.Warn("failed to persist snapshot",
			zap.String("category", s.categoryID), zap.Error(err))
	}

	if s.coordinator != nil {
		s.coordinator.Enqueue(wordID, status)
	}
	return nil
}

// RefreshLevel recomputes the user's level from the mastered count across
// every locally stored category. previousLevel is the last level shown to
// the user, so the caller can surface a level-up celebration.
func (s *Session) RefreshLevel(ctx context.Context, previousLevel int) leveling.RefreshResult {
	mastered := s.store.LocalMasteredCount()
	if s.leveler == nil {
		level := leveling.CalculateLevel(mastered)
		if level < previousLevel {
			level = previousLevel
		}
		return leveling.RefreshResult{
			Level:         level,
			LeveledUp:     level > previousLevel,
			PreviousLevel: previousLevel,
			NewLevel:      level,
		}
	}
	return s.leveler.Refresh(ctx, s.userID, previousLevel, mastered)
}

// Reset clears all progress for the category, locally and remotely
func (s *Session) Reset(ctx context.Context) {
	s.snapshot = s.store.Reset(s.categoryID, s.catalogWords)

	if s.remote != nil && s.userID != "" {
		if err := s.remote.DeleteProgress(ctx, s.userID, s.categoryID); err != nil {
			s.logger.Warn("failed to reset remote progress",
				zap.String("category", s.categoryID), zap.Error(err))
		}
	}
}

// Close flushes any pending sync batch. Pending updates are uploaded
// immediately rather than waiting for the debounce window.
func (s *Session) Close(ctx context.Context) error {
	if s.coordinator == nil {
		return nil
	}
	return s.coordinator.Close(ctx)
}
