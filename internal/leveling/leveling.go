// Package leveling maps mastered-word counts to user levels
package leveling

import (
	"context"

	"github.com/noodles-app/backend/internal/models"
	"go.uber.org/zap"
)

// MaxLevel is the highest attainable level
const MaxLevel = 5

// ExtendedAccessLevel is the level at which extended content unlocks
const ExtendedAccessLevel = 3

// Thresholds holds the mastered-word count required for each level.
// Thresholds[n] is the minimum count for level n.
var Thresholds = map[int]int{
	1: 0,    // Beginner: 0-99 words
	2: 100,  // Elementary: 100-299 words
	3: 300,  // Intermediate: 300-799 words (unlock extended)
	4: 800,  // Advanced: 800-1999 words
	5: 2000, // Expert: 2000+ words
}

// Names maps levels to display names
var Names = map[int]string{
	1: "Beginner",
	2: "Elementary",
	3: "Intermediate",
	4: "Advanced",
	5: "Expert",
}

// CalculateLevel returns the level for a mastered-word count.
// The mapping is a non-decreasing step function over the thresholds.
func CalculateLevel(masteredCount int) int {
	for level := MaxLevel; level > 1; level-- {
		if masteredCount >= Thresholds[level] {
			return level
		}
	}
	return 1
}

// WordsToNextLevel returns how many more mastered words reach the next level
func WordsToNextLevel(masteredCount, currentLevel int) int {
	if currentLevel >= MaxLevel {
		return 0
	}
	return Thresholds[currentLevel+1] - masteredCount
}

// HasExtendedAccess reports whether a level unlocks extended content
func HasExtendedAccess(level int) bool {
	return level >= ExtendedAccessLevel
}

// NextLevelProgress describes progress within the current level band
type NextLevelProgress struct {
	Current   int `json:"current"`
	Target    int `json:"target"`
	Percent   int `json:"percent"`
	Remaining int `json:"remaining"`
}

// ProgressToNextLevel returns progress arithmetic toward the next level.
// At the maximum level the progress is always 100%.
func ProgressToNextLevel(level, totalMastered int) NextLevelProgress {
	if level >= MaxLevel {
		return NextLevelProgress{
			Current: totalMastered,
			Target:  totalMastered,
			Percent: 100,
		}
	}

	current := totalMastered - Thresholds[level]
	target := Thresholds[level+1] - Thresholds[level]
	percent := (current*100 + target/2) / target
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}

	return NextLevelProgress{
		Current:   current,
		Target:    target,
		Percent:   percent,
		Remaining: WordsToNextLevel(totalMastered, level),
	}
}

// RefreshResult reports the outcome of a level recomputation
type RefreshResult struct {
	Level         int  `json:"level"`
	LeveledUp     bool `json:"leveledUp"`
	PreviousLevel int  `json:"previousLevel"`
	NewLevel      int  `json:"newLevel"`
	StreakDays    int  `json:"streakDays,omitempty"`
}

// RemoteUpdater pushes the recomputed level to the remote store and
// returns the updated streak state
type RemoteUpdater interface {
	// UpdateLevel upserts the user's level record for the given mastered
	// count and returns the stored state including the streak counter.
	//
	// If some error occurs during the update, the error will be returned
	// together with "nil" value.
	UpdateLevel(ctx context.Context, userID string, masteredCount int) (*models.UserLevel, error)
}

// Engine recomputes levels and mirrors them to an optional remote store
type Engine struct {
	remote RemoteUpdater
	logger *zap.Logger
}

// NewEngine creates a leveling engine. remote may be nil for local-only mode.
func NewEngine(remote RemoteUpdater, logger *zap.Logger) *Engine {
	return &Engine{
		remote: remote,
		logger: logger,
	}
}

// Refresh recomputes the level from a new mastered count. Levels never
// decrease through this path: a count below the previous level's threshold
// keeps the previous level. The remote update is best-effort and its
// failure never blocks the local computation.
func (e *Engine) Refresh(ctx context.Context, userID string, previousLevel, newMasteredCount int) RefreshResult {
	newLevel := CalculateLevel(newMasteredCount)
	if newLevel < previousLevel {
		newLevel = previousLevel
	}

	result := RefreshResult{
		Level:         newLevel,
		LeveledUp:     newLevel > previousLevel,
		PreviousLevel: previousLevel,
		NewLevel:      newLevel,
	}

	if e.remote != nil && userID != "" {
		state, err := e.remote.UpdateLevel(ctx, userID, newMasteredCount)
		if err != nil {
			e.logger.Warn("failed to update remote level",
				zap.String("user_id", userID), zap.Error(err))
		} else if state != nil {
			result.StreakDays = state.StreakDays
		}
	}

	return result
}
