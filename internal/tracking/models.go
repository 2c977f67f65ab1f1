package tracking

import "github.com/BarjunM/PlantDex/internal/trail"

type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
)

// poiReachedRadiusKm marks a point of interest reached when the walker
// comes within 50 meters of it.
const poiReachedRadiusKm = 0.05

// SessionPOI is a point of interest the walker is expected to visit.
// Reached flips to true at most once.
type SessionPOI struct {
	ID       string  `json:"id"`
	Note     string  `json:"note"`
	Type     string  `json:"type"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Reached  bool    `json:"reached"`
}

// Snapshot is the externally visible view of a session.
type Snapshot struct {
	ID             string           `json:"id"`
	UserID         string           `json:"user_id"`
	TrailID        string           `json:"trail_id,omitempty"`
	State          State            `json:"state"`
	DistanceKm     float64          `json:"distance_km"`
	ElapsedSeconds int64            `json:"elapsed_seconds"`
	Positions      []trail.Position `json:"positions"`
	POIs           []SessionPOI     `json:"pois"`
	Simulated      bool             `json:"simulated"`
}

type startRequest struct {
	TrailID  string       `json:"trail_id"`
	Simulate bool         `json:"simulate"`
	POIs     []SessionPOI `json:"pois"`
}

type positionRequest struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Timestamp int64   `json:"timestamp"`
}

type completeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
