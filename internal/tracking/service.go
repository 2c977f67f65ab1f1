package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/BarjunM/PlantDex/internal/stream"
	"github.com/BarjunM/PlantDex/internal/trail"

	"github.com/google/uuid"
)

const simulatorInterval = 2 * time.Second

var ErrSessionNotFound = errors.New("session not found")

// TrailStore persists completed sessions and resolves planned trails the
// walker is following.
type TrailStore interface {
	Get(ctx context.Context, id string) (trail.Trail, error)
	SaveCompleted(ctx context.Context, input trail.Trail) (trail.Trail, error)
}

// Service owns the live sessions. Sessions are in-memory only until they
// complete; completing one persists a trail record.
type Service struct {
	trails TrailStore
	hub    *stream.Hub

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewService(trails TrailStore, hub *stream.Hub) *Service {
	return &Service{
		trails:   trails,
		hub:      hub,
		sessions: map[string]*Session{},
	}
}

// Start creates a session and begins recording. When following a planned
// trail its markers become the session POIs; explicit POIs are appended.
// With simulate set, a synthetic position generator stands in for GPS.
func (s *Service) Start(ctx context.Context, userID string, req startRequest) (Snapshot, error) {
	pois := req.POIs

	if req.TrailID != "" && s.trails != nil {
		followed, err := s.trails.Get(ctx, req.TrailID)
		if err != nil {
			return Snapshot{}, fmt.Errorf("trail %s: %w", req.TrailID, err)
		}
		for _, m := range followed.PathData.Markers {
			pois = append(pois, SessionPOI{
				ID:   m.ID,
				Note: m.Note,
				Type: m.Type,
				Lat:  m.Position.Lat,
				Lng:  m.Position.Lng,
			})
		}
	}

	session := newSession(uuid.NewString(), userID, req.TrailID, pois, req.Simulate)
	if err := session.start(); err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	if req.Simulate {
		seed := trail.Position{Lat: 43.6532, Lng: -79.3832}
		if len(pois) > 0 {
			seed = trail.Position{Lat: pois[0].Lat, Lng: pois[0].Lng}
		}
		session.startSimulator(seed, simulatorInterval, func(pos trail.Position) {
			s.broadcast(session.ID, pos)
		})
	}

	return session.Snapshot(), nil
}

func (s *Service) session(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// AddPosition appends a live GPS sample and fans it out to watchers.
func (s *Service) AddPosition(id string, pos trail.Position) (Snapshot, []string, error) {
	session, err := s.session(id)
	if err != nil {
		return Snapshot{}, nil, err
	}
	reached, err := session.AddSample(pos)
	if err != nil {
		return Snapshot{}, nil, err
	}
	s.broadcast(id, pos)
	return session.Snapshot(), reached, nil
}

func (s *Service) Pause(id string) (Snapshot, error) {
	session, err := s.session(id)
	if err != nil {
		return Snapshot{}, err
	}
	if err := session.Pause(); err != nil {
		return Snapshot{}, err
	}
	return session.Snapshot(), nil
}

func (s *Service) Resume(id string) (Snapshot, error) {
	session, err := s.session(id)
	if err != nil {
		return Snapshot{}, err
	}
	if err := session.Resume(); err != nil {
		return Snapshot{}, err
	}
	if session.Simulated {
		seed := trail.Position{Lat: 43.6532, Lng: -79.3832}
		if snap := session.Snapshot(); len(snap.Positions) > 0 {
			seed = snap.Positions[len(snap.Positions)-1]
		}
		session.startSimulator(seed, simulatorInterval, func(pos trail.Position) {
			s.broadcast(id, pos)
		})
	}
	return session.Snapshot(), nil
}

func (s *Service) Snapshot(id string) (Snapshot, error) {
	session, err := s.session(id)
	if err != nil {
		return Snapshot{}, err
	}
	return session.Snapshot(), nil
}

// Complete ends the session and persists the final snapshot as a completed
// trail. Following a planned trail spawns a new record referencing it.
func (s *Service) Complete(ctx context.Context, id string, req completeRequest) (trail.Trail, error) {
	session, err := s.session(id)
	if err != nil {
		return trail.Trail{}, err
	}

	snap, err := session.Complete()
	if err != nil {
		return trail.Trail{}, err
	}
	if len(snap.Positions) == 0 {
		return trail.Trail{}, errors.New("no route data to save")
	}

	name := req.Name
	if name == "" {
		name = "Trek on " + time.Now().Format("2006-01-02")
	}

	record := trail.Trail{
		UserID:          snap.UserID,
		Name:            name,
		Description:     req.Description,
		DurationSeconds: snap.ElapsedSeconds,
		PathData: trail.PathData{
			Positions:       snap.Positions,
			Markers:         snapshotMarkers(snap),
			Completed:       true,
			OriginalTrailID: snap.TrailID,
		},
		PlantsFound: session.reachedCount(),
	}

	if s.trails != nil {
		record, err = s.trails.SaveCompleted(ctx, record)
		if err != nil {
			return trail.Trail{}, err
		}
	}

	// the snapshot is persisted; keeping the session around only leaks
	// its position history
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	return record, nil
}

func snapshotMarkers(snap Snapshot) []trail.Marker {
	markers := make([]trail.Marker, len(snap.POIs))
	for i, p := range snap.POIs {
		markers[i] = trail.Marker{
			ID:        p.ID,
			Position:  trail.Position{Lat: p.Lat, Lng: p.Lng},
			Note:      p.Note,
			Type:      p.Type,
			Completed: p.Reached,
		}
	}
	return markers
}

func (s *Service) broadcast(sessionID string, pos trail.Position) {
	if s.hub == nil {
		return
	}
	payload, _ := json.Marshal(pos)
	s.hub.Broadcast(sessionID, payload)
}
