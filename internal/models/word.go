package models

// Status is the review state of a word
type Status string

const (
	StatusNotSeen  Status = "not_seen"
	StatusLearning Status = "learning"
	StatusMastered Status = "mastered"
)

// IsValid reports whether s is one of the three review states
func (s Status) IsValid() bool {
	return s == StatusNotSeen || s == StatusLearning || s == StatusMastered
}

// WordRecord represents a vocabulary entry within a category
type WordRecord struct {
	ID              string `json:"id"`
	Chinese         string `json:"chinese"`
	Pinyin          string `json:"pinyin"`
	English         string `json:"english"`
	ExampleChinese  string `json:"exampleChinese,omitempty"`
	ExamplePinyin   string `json:"examplePinyin,omitempty"`
	ExampleEnglish  string `json:"exampleEnglish,omitempty"`
	Category        string `json:"category"`
	Status          Status `json:"status"`
	HSKLevel        int    `json:"hskLevel,omitempty"`
	DifficultyLevel int    `json:"difficultyLevel,omitempty"`
	FrequencyRank   int    `json:"frequencyRank,omitempty"`
	Extended        bool   `json:"isExtended,omitempty"`
}

// ProgressStats summarizes the review states of a word list.
// notSeen + learning + mastered always equals total.
type ProgressStats struct {
	Total    int `json:"total"`
	NotSeen  int `json:"notSeen"`
	Learning int `json:"learning"`
	Mastered int `json:"mastered"`
}

// Add accumulates another stats value field-wise
func (s *ProgressStats) Add(other ProgressStats) {
	s.Total += other.Total
	s.NotSeen += other.NotSeen
	s.Learning += other.Learning
	s.Mastered += other.Mastered
}
