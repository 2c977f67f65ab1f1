package tracking

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/BarjunM/PlantDex/internal/geo"
	"github.com/BarjunM/PlantDex/internal/trail"
)

var nowFn = time.Now

var (
	ErrNotRecording = errors.New("session is not recording")
	ErrNotPaused    = errors.New("session is not paused")
	ErrCompleted    = errors.New("session already completed")
)

// Session is one live tracking recording. State moves idle -> recording ->
// {paused, completed}; paused -> recording resumes with the elapsed base
// adjusted so duration continues where it was frozen. Nothing transitions
// out of completed.
type Session struct {
	ID        string
	UserID    string
	TrailID   string
	Simulated bool

	mu        sync.Mutex
	state     State
	path      geo.Path
	positions []trail.Position
	pois      []SessionPOI
	frozen    time.Duration
	resumedAt time.Time
	startedAt time.Time
	stopSim   chan struct{}
}

func newSession(id, userID, trailID string, pois []SessionPOI, simulated bool) *Session {
	return &Session{
		ID:        id,
		UserID:    userID,
		TrailID:   trailID,
		Simulated: simulated,
		state:     StateIdle,
		pois:      pois,
	}
}

// start clears any accumulated state and begins recording.
func (s *Session) start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCompleted {
		return ErrCompleted
	}
	s.path = geo.Path{}
	s.positions = nil
	s.frozen = 0
	now := nowFn()
	s.startedAt = now
	s.resumedAt = now
	s.state = StateRecording
	return nil
}

// AddSample appends a position while recording and returns the IDs of any
// points of interest newly reached within 50 meters. Re-entering the
// radius of an already reached POI does not re-trigger it.
func (s *Session) AddSample(pos trail.Position) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRecording {
		return nil, ErrNotRecording
	}
	if pos.Source == "" {
		pos.Source = trail.SourceGPS
	}
	if pos.Timestamp == 0 {
		pos.Timestamp = nowFn().UnixMilli()
	}

	s.path.Append(geo.Point{Lat: pos.Lat, Lng: pos.Lng})
	s.positions = append(s.positions, pos)

	var reached []string
	for i := range s.pois {
		if s.pois[i].Reached {
			continue
		}
		d := geo.HaversineKm(pos.Lat, pos.Lng, s.pois[i].Lat, s.pois[i].Lng)
		if d <= poiReachedRadiusKm {
			s.pois[i].Reached = true
			reached = append(reached, s.pois[i].ID)
		}
	}
	return reached, nil
}

// Pause freezes the elapsed duration and suspends sampling.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRecording {
		return ErrNotRecording
	}
	s.frozen += nowFn().Sub(s.resumedAt)
	s.state = StatePaused
	s.stopSimulatorLocked()
	return nil
}

// Resume restarts sampling; the elapsed base is rebased so total duration
// continues from where it was frozen.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePaused {
		return ErrNotPaused
	}
	s.resumedAt = nowFn()
	s.state = StateRecording
	return nil
}

// Complete ends the session permanently and returns its final snapshot.
func (s *Session) Complete() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateRecording:
		s.frozen += nowFn().Sub(s.resumedAt)
	case StatePaused:
	default:
		return Snapshot{}, ErrCompleted
	}
	s.state = StateCompleted
	s.stopSimulatorLocked()
	return s.snapshotLocked(), nil
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	elapsed := s.frozen
	if s.state == StateRecording {
		elapsed += nowFn().Sub(s.resumedAt)
	}
	positions := append([]trail.Position(nil), s.positions...)
	pois := append([]SessionPOI(nil), s.pois...)
	return Snapshot{
		ID:             s.ID,
		UserID:         s.UserID,
		TrailID:        s.TrailID,
		State:          s.state,
		DistanceKm:     s.path.TotalKm(),
		ElapsedSeconds: int64(elapsed.Seconds()),
		Positions:      positions,
		POIs:           pois,
		Simulated:      s.Simulated,
	}
}

func (s *Session) reachedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.pois {
		if p.Reached {
			n++
		}
	}
	return n
}

// startSimulator perturbs the last known position on a fixed interval so
// the session remains exercisable without geolocation hardware. Samples
// are tagged simulated so persisted trails can tell them apart from GPS.
func (s *Session) startSimulator(seed trail.Position, interval time.Duration, onSample func(trail.Position)) {
	s.mu.Lock()
	if s.stopSim != nil {
		s.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	s.stopSim = stop
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		last := seed
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				last = trail.Position{
					Lat:       last.Lat + (rand.Float64()-0.5)*0.0004,
					Lng:       last.Lng + (rand.Float64()-0.5)*0.0004,
					Timestamp: nowFn().UnixMilli(),
					Source:    trail.SourceSimulated,
				}
				if _, err := s.AddSample(last); err != nil {
					return
				}
				if onSample != nil {
					onSample(last)
				}
			}
		}
	}()
}

func (s *Session) stopSimulatorLocked() {
	if s.stopSim != nil {
		close(s.stopSim)
		s.stopSim = nil
	}
}
