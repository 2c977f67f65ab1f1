package trail

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/BarjunM/PlantDex/internal/db"
	"github.com/BarjunM/PlantDex/internal/geo"

	"github.com/google/uuid"
)

var nowFn = time.Now

// Effects are the best-effort side effects that run after a trail save.
// Their failures are logged and swallowed; the save itself stands.
type Effects interface {
	RecountDistance(ctx context.Context, userID string) error
	Recompute(ctx context.Context, userID, category string) error
}

type Service struct {
	db      db.Querier
	effects Effects
}

func NewService(querier db.Querier, effects Effects) *Service {
	return &Service{db: querier, effects: effects}
}

// SavePlanned stores a route with no real movement. Distance is derived
// from the planned positions and duration is a walking estimate.
func (s *Service) SavePlanned(ctx context.Context, input Trail) (Trail, error) {
	if len(input.PathData.Positions) == 0 {
		return Trail{}, errors.New("planned route needs at least one position")
	}
	input.PathData.Planned = true
	input.PathData.Completed = false
	input.DistanceKm = pathDistance(input.PathData.Positions)
	input.DurationSeconds = geo.EstimateDurationSec(input.DistanceKm)
	input.DateCompleted = time.Time{}
	return s.insert(ctx, input)
}

// SaveCompleted stores a finished walk. Distance is recomputed from the
// recorded positions; duration is the caller's wall-clock elapsed time.
func (s *Service) SaveCompleted(ctx context.Context, input Trail) (Trail, error) {
	if len(input.PathData.Positions) == 0 {
		return Trail{}, errors.New("no route data to save")
	}
	input.PathData.Planned = false
	input.PathData.Completed = true
	input.DistanceKm = pathDistance(input.PathData.Positions)
	if input.DateCompleted.IsZero() {
		input.DateCompleted = nowFn()
	}

	saved, err := s.insert(ctx, input)
	if err != nil {
		return Trail{}, err
	}

	s.runEffects(ctx, saved.UserID)
	return saved, nil
}

func (s *Service) runEffects(ctx context.Context, userID string) {
	if s.effects == nil {
		return
	}
	if err := s.effects.RecountDistance(ctx, userID); err != nil {
		log.Printf("distance recount failed for %s: %v", userID, err)
	}
	if err := s.effects.Recompute(ctx, userID, "trails"); err != nil {
		log.Printf("trail achievement recompute failed for %s: %v", userID, err)
	}
}

func (s *Service) insert(ctx context.Context, input Trail) (Trail, error) {
	input.ID = uuid.NewString()
	pathJSON, err := json.Marshal(input.PathData)
	if err != nil {
		return Trail{}, err
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO trails (id, user_id, name, description, distance_km, duration_seconds, date_completed, path_data, plants_found)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at
	`, input.ID, input.UserID, input.Name, input.Description, input.DistanceKm,
		input.DurationSeconds, timePtr(input.DateCompleted), pathJSON, input.PlantsFound)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Trail{}, err
	}
	return input, nil
}

func (s *Service) Get(ctx context.Context, id string) (Trail, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, name, description, distance_km, duration_seconds,
		       COALESCE(date_completed, 'epoch'::timestamptz), path_data, plants_found, created_at
		FROM trails WHERE id=$1
	`, id)
	return scanTrail(row)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Trail, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, name, description, distance_km, duration_seconds,
		       COALESCE(date_completed, 'epoch'::timestamptz), path_data, plants_found, created_at
		FROM trails WHERE user_id=$1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trails []Trail
	for rows.Next() {
		t, err := scanTrail(rows)
		if err != nil {
			return nil, err
		}
		trails = append(trails, t)
	}
	return trails, nil
}

func (s *Service) Delete(ctx context.Context, id, userID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM trails WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	s.runEffects(ctx, userID)
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTrail(row scannable) (Trail, error) {
	var t Trail
	var pathJSON []byte
	if err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.Description, &t.DistanceKm,
		&t.DurationSeconds, &t.DateCompleted, &pathJSON, &t.PlantsFound, &t.CreatedAt); err != nil {
		return Trail{}, err
	}
	if len(pathJSON) > 0 {
		if err := json.Unmarshal(pathJSON, &t.PathData); err != nil {
			return Trail{}, err
		}
	}
	return t, nil
}

func pathDistance(positions []Position) float64 {
	points := make([]geo.Point, len(positions))
	for i, p := range positions {
		points[i] = geo.Point{Lat: p.Lat, Lng: p.Lng}
	}
	return geo.PathDistanceKm(points)
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
