package trail

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
)

type recordingEffects struct {
	recounts   []string
	recomputes []string
	err        error
}

func (e *recordingEffects) RecountDistance(_ context.Context, userID string) error {
	e.recounts = append(e.recounts, userID)
	return e.err
}

func (e *recordingEffects) Recompute(_ context.Context, userID, category string) error {
	e.recomputes = append(e.recomputes, userID+":"+category)
	return e.err
}

// ~1 km apart along a meridian
func kmApartPositions(n int) []Position {
	positions := make([]Position, n)
	for i := range positions {
		positions[i] = Position{Lat: 43.0 + float64(i)*0.008994, Lng: -79.0, Source: SourceGPS}
	}
	return positions
}

func TestSavePlannedDerivesDistanceAndDuration(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO trails`).
		WithArgs(pgxmock.AnyArg(), "user-1", "Morning loop", "", pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), 0).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	svc := NewService(mock, nil)
	saved, err := svc.SavePlanned(context.Background(), Trail{
		UserID: "user-1",
		Name:   "Morning loop",
		PathData: PathData{
			Positions: kmApartPositions(4),
		},
		DistanceKm:      999, // client values are ignored
		DurationSeconds: 999,
	})
	if err != nil {
		t.Fatalf("save planned: %v", err)
	}
	if math.Abs(saved.DistanceKm-3.0) > 0.01 {
		t.Errorf("expected ~3 km, got %f", saved.DistanceKm)
	}
	// 3 km at 5 km/h
	if saved.DurationSeconds != 2160 {
		t.Errorf("expected 2160 s estimate, got %d", saved.DurationSeconds)
	}
	if !saved.PathData.Planned || saved.PathData.Completed {
		t.Error("expected planned flags")
	}
	if !saved.DateCompleted.IsZero() {
		t.Error("planned trails have no completion date")
	}
}

func TestSavePlannedRequiresPositions(t *testing.T) {
	svc := NewService(nil, nil)
	if _, err := svc.SavePlanned(context.Background(), Trail{UserID: "user-1"}); err == nil {
		t.Fatal("expected error without positions")
	}
}

func TestSaveCompletedRunsEffects(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	oldNow := nowFn
	frozen := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	nowFn = func() time.Time { return frozen }
	defer func() { nowFn = oldNow }()

	mock.ExpectQuery(`INSERT INTO trails`).
		WithArgs(pgxmock.AnyArg(), "user-1", "Trek on 2025-06-10", "", pgxmock.AnyArg(),
			int64(1800), pgxmock.AnyArg(), pgxmock.AnyArg(), 2).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(frozen))

	effects := &recordingEffects{}
	svc := NewService(mock, effects)

	saved, err := svc.SaveCompleted(context.Background(), Trail{
		UserID:          "user-1",
		Name:            "Trek on 2025-06-10",
		DurationSeconds: 1800,
		PlantsFound:     2,
		PathData:        PathData{Positions: kmApartPositions(3)},
	})
	if err != nil {
		t.Fatalf("save completed: %v", err)
	}
	if math.Abs(saved.DistanceKm-2.0) > 0.01 {
		t.Errorf("expected ~2 km, got %f", saved.DistanceKm)
	}
	if !saved.DateCompleted.Equal(frozen) {
		t.Errorf("expected stamped date, got %v", saved.DateCompleted)
	}
	if saved.PathData.Planned || !saved.PathData.Completed {
		t.Error("expected completed flags")
	}
	if len(effects.recounts) != 1 || effects.recounts[0] != "user-1" {
		t.Errorf("expected distance recount, got %v", effects.recounts)
	}
	if len(effects.recomputes) != 1 || effects.recomputes[0] != "user-1:trails" {
		t.Errorf("expected trail recompute, got %v", effects.recomputes)
	}
}

func TestSaveCompletedSurvivesEffectFailure(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO trails`).
		WithArgs(pgxmock.AnyArg(), "user-1", "", "", pgxmock.AnyArg(),
			int64(0), pgxmock.AnyArg(), pgxmock.AnyArg(), 0).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	effects := &recordingEffects{err: errors.New("counters down")}
	svc := NewService(mock, effects)

	if _, err := svc.SaveCompleted(context.Background(), Trail{
		UserID:   "user-1",
		PathData: PathData{Positions: kmApartPositions(2)},
	}); err != nil {
		t.Fatalf("save should tolerate effect failure: %v", err)
	}
}

func TestGetRoundTripsPathData(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	pathJSON, _ := json.Marshal(PathData{
		Positions:       kmApartPositions(2),
		Markers:         []Marker{{ID: "m-1", Note: "trailhead", Type: "start"}},
		Completed:       true,
		OriginalTrailID: "planned-1",
	})

	mock.ExpectQuery(`FROM trails WHERE id`).
		WithArgs("trail-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "name", "description", "distance_km",
			"duration_seconds", "date_completed", "path_data", "plants_found", "created_at"}).
			AddRow("trail-1", "user-1", "River Loop", "", 1.0, int64(900), time.Now(), pathJSON, 1, time.Now()))

	svc := NewService(mock, nil)
	got, err := svc.Get(context.Background(), "trail-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.PathData.Positions) != 2 {
		t.Errorf("expected positions restored, got %d", len(got.PathData.Positions))
	}
	if got.PathData.OriginalTrailID != "planned-1" {
		t.Errorf("expected original trail link, got %q", got.PathData.OriginalTrailID)
	}
	if len(got.PathData.Markers) != 1 || got.PathData.Markers[0].Note != "trailhead" {
		t.Errorf("expected marker restored, got %v", got.PathData.Markers)
	}
}

func TestDeleteRunsEffects(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM trails`).
		WithArgs("trail-1", "user-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	effects := &recordingEffects{}
	svc := NewService(mock, effects)

	if err := svc.Delete(context.Background(), "trail-1", "user-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(effects.recounts) != 1 {
		t.Errorf("expected distance recount after delete, got %v", effects.recounts)
	}
}
