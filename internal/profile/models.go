package profile

import "time"

type Profile struct {
	ID                    string    `json:"id"`
	Username              string    `json:"username"`
	TotalPlantsIdentified int       `json:"total_plants_identified"`
	TotalDistanceKm       float64   `json:"total_distance"`
	StreakCount           int       `json:"streak_count"`
	StreakLastDate        time.Time `json:"streak_last_date"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}
