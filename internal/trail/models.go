package trail

import "time"

// Position is one recorded or planned path sample. Source distinguishes
// genuine GPS fixes from the simulated fallback generator.
type Position struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Timestamp int64   `json:"timestamp"`
	Source    string  `json:"source,omitempty"`
}

const (
	SourceGPS       = "gps"
	SourceSimulated = "simulated"
)

// Marker is a user- or system-placed point of interest along a route.
type Marker struct {
	ID        string   `json:"id"`
	Position  Position `json:"position"`
	Note      string   `json:"note"`
	Type      string   `json:"type"`
	Completed bool     `json:"completed,omitempty"`
}

// PathData is the JSONB payload persisted with every trail.
type PathData struct {
	Positions       []Position `json:"positions"`
	Markers         []Marker   `json:"markers"`
	Planned         bool       `json:"planned"`
	Completed       bool       `json:"completed"`
	OriginalTrailID string     `json:"original_trail_id,omitempty"`
}

// Trail is either a planned route (no real movement yet) or a completed
// walk. distance_km and duration_seconds are derived from the positions at
// save time, never taken from the client as authoritative.
type Trail struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	DistanceKm      float64   `json:"distance_km"`
	DurationSeconds int64     `json:"duration_seconds"`
	DateCompleted   time.Time `json:"date_completed,omitempty"`
	PathData        PathData  `json:"path_data"`
	PlantsFound     int       `json:"plants_found"`
	CreatedAt       time.Time `json:"created_at"`
}
