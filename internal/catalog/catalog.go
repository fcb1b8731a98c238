// Package catalog provides the static vocabulary catalog shipped with the app
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"

	"github.com/noodles-app/backend/internal/models"
)

//go:embed data/*.json
var dataFS embed.FS

// categoryFiles maps static category IDs to their embedded data files,
// in display order
var categoryFiles = []struct {
	id          string
	name        string
	nameZh      string
	icon        string
	description string
	file        string
}{
	{"greetings", "Greetings", "问候语", "👋", "Basic greetings and expressions", "data/greetings.json"},
	{"pronouns", "Pronouns & Questions", "代词和疑问词", "❓", "Pronouns and question words", "data/pronouns.json"},
	{"numbers_time", "Numbers & Time", "数字和时间", "🕐", "Numbers, dates and time", "data/numbers_time.json"},
}

// Catalog exposes the static categories and their word lists
type Catalog struct {
	categories []models.CategoryMeta
}

// New builds the static catalog from embedded data
func New() *Catalog {
	c := &Catalog{}
	for _, cf := range categoryFiles {
		file := cf.file
		id := cf.id
		c.categories = append(c.categories, models.CategoryMeta{
			ID:          cf.id,
			Name:        cf.name,
			NameZh:      cf.nameZh,
			Icon:        cf.icon,
			Description: cf.description,
			GetData: func() ([]models.WordRecord, error) {
				return loadWords(file, id)
			},
		})
	}
	return c
}

// Categories returns the static category list
func (c *Catalog) Categories() []models.CategoryMeta {
	return c.categories
}

// Words returns the word list for a static category
func (c *Catalog) Words(categoryID string) ([]models.WordRecord, error) {
	for _, cat := range c.categories {
		if cat.ID == categoryID {
			return cat.GetData()
		}
	}
	return nil, fmt.Errorf("unknown category: %s", categoryID)
}

// Search returns up to limit words whose chinese, pinyin or english
// contains the query (case-insensitive for latin text)
func (c *Catalog) Search(query string, limit int) ([]models.WordRecord, error) {
	if limit <= 0 {
		return []models.WordRecord{}, nil
	}
	lower := strings.ToLower(query)

	var results []models.WordRecord
	for _, cat := range c.categories {
		words, err := cat.GetData()
		if err != nil {
			return nil, fmt.Errorf("failed to load category %s: %w", cat.ID, err)
		}
		for _, w := range words {
			if strings.Contains(w.Chinese, query) ||
				strings.Contains(strings.ToLower(w.Pinyin), lower) ||
				strings.Contains(strings.ToLower(w.English), lower) {
				results = append(results, w)
				if len(results) >= limit {
					return results, nil
				}
			}
		}
	}
	return results, nil
}

// Sample returns a uniform without-replacement sample of k words.
// The random source is injected so selection is deterministic in tests.
func Sample(words []models.WordRecord, k int, rng *rand.Rand) []models.WordRecord {
	if k > len(words) {
		k = len(words)
	}
	if k <= 0 {
		return []models.WordRecord{}
	}

	shuffled := make([]models.WordRecord, len(words))
	copy(shuffled, words)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:k]
}

// loadWords decodes an embedded category data file
func loadWords(file, categoryID string) ([]models.WordRecord, error) {
	raw, err := dataFS.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog data %s: %w", file, err)
	}

	var words []models.WordRecord
	if err := json.Unmarshal(raw, &words); err != nil {
		return nil, fmt.Errorf("failed to parse catalog data %s: %w", file, err)
	}

	// Every word starts unseen; persisted statuses are merged in by the
	// progress store, not the catalog
	for i := range words {
		words[i].Category = categoryID
		if words[i].Status == "" {
			words[i].Status = models.StatusNotSeen
		}
	}
	return words, nil
}
