package models

import "time"

// ProgressRow is one remote progress record, keyed uniquely on (userID, wordID)
type ProgressRow struct {
	UserID       string    `json:"userId"`
	WordID       string    `json:"wordId"`
	CategoryID   string    `json:"categoryId"`
	Status       Status    `json:"status"`
	LastReviewed time.Time `json:"lastReviewed"`
}

// WordStatus is the compact remote representation used for load-time merges
type WordStatus struct {
	WordID string `json:"wordId"`
	Status Status `json:"status"`
}
