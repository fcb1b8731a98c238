package models

// WordLoader produces the word list for a category
type WordLoader func() ([]WordRecord, error)

// CategoryMeta describes a vocabulary category
type CategoryMeta struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	NameZh      string `json:"nameZh,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Description string `json:"description,omitempty"`
	MinLevel    int    `json:"minLevel,omitempty"`
	WordCount   int    `json:"wordCount,omitempty"`
	SortOrder   int    `json:"sortOrder,omitempty"`
	Extended    bool   `json:"isExtended,omitempty"`

	// GetData loads the words for this category; static categories read
	// embedded data, extended categories fetch from the remote catalog
	GetData WordLoader `json:"-"`
}

// CategoryAggregate holds remote per-category progress counts
type CategoryAggregate struct {
	CategoryID    string `json:"categoryId"`
	MasteredCount int    `json:"masteredCount"`
	LearningCount int    `json:"learningCount"`
}
