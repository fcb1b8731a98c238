package progress

import (
	"encoding/json"

	"github.com/noodles-app/backend/internal/models"
	"go.uber.org/zap"
)

// Summarize derives per-category progress counts without loading full
// snapshots into active sessions. Categories with a local snapshot are
// counted from it; the rest fall back to the catalog word count with
// everything not_seen. A category whose data loader fails reports zeros.
func (s *Store) Summarize(categories []models.CategoryMeta) map[string]models.ProgressStats {
	result := make(map[string]models.ProgressStats, len(categories))

	for _, cat := range categories {
		data, ok, err := s.local.Get(keyPrefix + cat.ID)
		if err == nil && ok {
			var words []persistedWord
			if err := json.Unmarshal(data, &words); err == nil {
				stats := models.ProgressStats{Total: len(words)}
				for _, w := range words {
					switch w.Status {
					case models.StatusLearning:
						stats.Learning++
					case models.StatusMastered:
						stats.Mastered++
					default:
						stats.NotSeen++
					}
				}
				result[cat.ID] = stats
				continue
			}
		}

		// No usable snapshot: report the catalog size with zero progress
		if cat.GetData == nil {
			result[cat.ID] = models.ProgressStats{}
			continue
		}
		words, err := cat.GetData()
		if err != nil {
			s.logger.Warn("failed to load category word count",
				zap.String("category", cat.ID), zap.Error(err))
			result[cat.ID] = models.ProgressStats{}
			continue
		}
		result[cat.ID] = models.ProgressStats{Total: len(words), NotSeen: len(words)}
	}

	return result
}

// ApplyAggregates overrides locally derived mastered/learning counts with
// remote per-category aggregates, recomputing notSeen from the local total.
// Categories missing from the aggregate list keep their local counts.
func ApplyAggregates(perCategory map[string]models.ProgressStats, aggregates []models.CategoryAggregate) map[string]models.ProgressStats {
	result := make(map[string]models.ProgressStats, len(perCategory))
	for id, stats := range perCategory {
		result[id] = stats
	}

	for _, agg := range aggregates {
		stats, ok := result[agg.CategoryID]
		if !ok {
			continue
		}
		stats.Mastered = agg.MasteredCount
		stats.Learning = agg.LearningCount
		stats.NotSeen = stats.Total - stats.Mastered - stats.Learning
		result[agg.CategoryID] = stats
	}
	return result
}

// ReduceTotals sums per-category stats field-wise. The sum is associative
// and independent of category order.
func ReduceTotals(perCategory map[string]models.ProgressStats) models.ProgressStats {
	var totals models.ProgressStats
	for _, stats := range perCategory {
		totals.Add(stats)
	}
	return totals
}
