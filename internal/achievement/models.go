package achievement

import "time"

// Achievement is a static goal definition.
type Achievement struct {
	ID               string `json:"id"`
	Category         string `json:"category"`
	RequirementCount int    `json:"requirement_count"`
	Name             string `json:"name"`
	Description      string `json:"description"`
}

// UserAchievement is one user's progress against a definition. completed_at
// is stamped exactly once, on the false-to-true transition, and is never
// cleared even if the backing count later regresses.
type UserAchievement struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	AchievementID string     `json:"achievement_id"`
	Progress      int        `json:"progress"`
	Completed     bool       `json:"completed"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`

	Achievement *Achievement `json:"achievement,omitempty"`
}
