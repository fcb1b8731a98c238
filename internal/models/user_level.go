package models

// UserLevel holds the gamification state for a user.
// TotalMastered is a lifetime counter and never decreases.
type UserLevel struct {
	UserID        string `json:"userId"`
	Level         int    `json:"level"`
	XP            int    `json:"xp"`
	TotalMastered int    `json:"totalMastered"`
	StreakDays    int    `json:"streakDays"`
	LastStudyDate string `json:"lastStudyDate,omitempty"` // YYYY-MM-DD
}
