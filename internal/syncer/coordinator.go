// Package syncer reconciles local progress with the remote store
package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/noodles-app/backend/internal/models"
	"github.com/noodles-app/backend/internal/progress"
	"go.uber.org/zap"
)

// DefaultDebounce is the batch window applied after the last enqueue
const DefaultDebounce = 5 * time.Second

// Upserter uploads progress rows to the remote store. The upsert is keyed
// on (userID, wordID) and must be idempotent under retries.
type Upserter interface {
	// UpsertProgress inserts or updates a batch of progress rows.
	//
	// If some error occurs during the upload, the error will be returned.
	UpsertProgress(ctx context.Context, rows []models.ProgressRow) error
}

// Coordinator batches outbound status changes for one category session.
// Only the most recent status per word survives the debounce window, and
// at most one flush is in flight at a time.
type Coordinator struct {
	remote     Upserter
	userID     string
	categoryID string
	debounce   time.Duration
	logger     *zap.Logger
	now        func() time.Time

	mu       sync.Mutex
	pending  map[string]models.Status
	timer    *time.Timer
	inFlight bool
	rerun    bool
	closed   bool
	wg       sync.WaitGroup
}

// NewCoordinator creates a sync coordinator for one (user, category) pair.
// A non-positive debounce falls back to DefaultDebounce.
func NewCoordinator(remote Upserter, userID, categoryID string, debounce time.Duration, logger *zap.Logger) *Coordinator {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Coordinator{
		remote:     remote,
		userID:     userID,
		categoryID: categoryID,
		debounce:   debounce,
		logger:     logger,
		now:        time.Now,
		pending:    make(map[string]models.Status),
	}
}

// Enqueue records the latest status for a word and restarts the debounce
// window. Intermediate statuses within the window are never uploaded.
func (c *Coordinator) Enqueue(wordID string, status models.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.pending[wordID] = status
	c.scheduleLocked()
}

// scheduleLocked (re)arms the debounce timer. The waitgroup slot is taken
// here so Close can wait for a callback that has not fired yet.
// Caller holds mu.
func (c *Coordinator) scheduleLocked() {
	c.stopTimerLocked()
	c.wg.Add(1)
	c.timer = time.AfterFunc(c.debounce, func() {
		defer c.wg.Done()
		c.flush(context.Background())
	})
}

// stopTimerLocked cancels a pending timer. When Stop wins the race the
// callback never runs, so its waitgroup slot is released here; otherwise
// the callback releases it itself. Caller holds mu.
func (c *Coordinator) stopTimerLocked() {
	if c.timer == nil {
		return
	}
	if c.timer.Stop() {
		c.wg.Done()
	}
	c.timer = nil
}

// Pending returns the number of queued, not yet uploaded entries
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Flush uploads the pending batch immediately, bypassing the debounce
// window. Used on teardown so queued updates are never discarded.
func (c *Coordinator) Flush(ctx context.Context) error {
	c.mu.Lock()
	c.stopTimerLocked()
	c.mu.Unlock()

	return c.flush(ctx)
}

// Close flushes any pending batch and stops the coordinator
func (c *Coordinator) Close(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.stopTimerLocked()
	c.mu.Unlock()

	c.wg.Wait()
	return c.flush(ctx)
}

// flush uploads the whole pending batch as a single upsert. The batch is
// cleared only after a successful upload; on failure the entries are
// re-queued for the next window without overwriting newer statuses.
func (c *Coordinator) flush(ctx context.Context) error {
	c.mu.Lock()
	if c.inFlight {
		// The window expired mid-upload; the in-flight flush reschedules
		// on completion so the entries are not stranded
		c.rerun = true
		c.mu.Unlock()
		return nil
	}
	if len(c.pending) == 0 {
		c.mu.Unlock()
		return nil
	}
	c.inFlight = true
	batch := c.pending
	c.pending = make(map[string]models.Status)
	c.mu.Unlock()

	rows := make([]models.ProgressRow, 0, len(batch))
	reviewed := c.now().UTC()
	for wordID, status := range batch {
		rows = append(rows, models.ProgressRow{
			UserID:       c.userID,
			WordID:       wordID,
			CategoryID:   c.categoryID,
			Status:       status,
			LastReviewed: reviewed,
		})
	}

	err := c.remote.UpsertProgress(ctx, rows)

	c.mu.Lock()
	c.inFlight = false
	if err != nil {
		// Re-queue failed entries; statuses enqueued during the upload win
		for wordID, status := range batch {
			if _, ok := c.pending[wordID]; !ok {
				c.pending[wordID] = status
			}
		}
	}
	rearm := (err != nil || c.rerun) && !c.closed && len(c.pending) > 0
	c.rerun = false
	if rearm {
		c.scheduleLocked()
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("failed to sync progress batch",
			zap.String("category", c.categoryID),
			zap.Int("batch_size", len(batch)),
			zap.Error(err))
		return err
	}
	return nil
}

// Reconcile merges remote statuses into a local snapshot. For every word
// present in the remote map, the remote status wins; the rest keep their
// local status. This runs once per category session at load time.
func Reconcile(local progress.Snapshot, remote map[string]models.Status) progress.Snapshot {
	if len(remote) == 0 {
		return local
	}

	words := make([]models.WordRecord, len(local.Words))
	copy(words, local.Words)
	for i := range words {
		if status, ok := remote[words[i].ID]; ok && status.IsValid() {
			words[i].Status = status
		}
	}
	return progress.Snapshot{CategoryID: local.CategoryID, Words: words}
}
