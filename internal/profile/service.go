package profile

import (
	"context"
	"errors"
	"time"

	"github.com/BarjunM/PlantDex/internal/db"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	createAttempts = 3
	createBackoff  = time.Second
)

var sleepFn = time.Sleep
var nowFn = time.Now

type Service struct {
	db db.Querier
}

func NewService(querier db.Querier) *Service {
	return &Service{db: querier}
}

// EnsureProfile creates the profile row if it does not exist yet. A
// concurrent creator can win the race between the existence check and the
// insert, so duplicate-key conflicts are retried with a fixed backoff
// before surfacing.
func (s *Service) EnsureProfile(ctx context.Context, userID, username string) error {
	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		if attempt > 0 {
			sleepFn(createBackoff)
		}

		var exists bool
		if err := s.db.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM user_profiles WHERE id=$1)
		`, userID).Scan(&exists); err != nil {
			lastErr = err
			continue
		}
		if exists {
			return nil
		}

		_, err := s.db.Exec(ctx, `
			INSERT INTO user_profiles (id, username, total_plants_identified, total_distance, streak_count)
			VALUES ($1,$2,0,0,0)
		`, userID, username)
		if err == nil {
			return nil
		}
		if isUniqueViolation(err) {
			// someone else created it between the check and the insert
			return nil
		}
		lastErr = err
	}
	return lastErr
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, username, total_plants_identified, COALESCE(total_distance,0),
		       COALESCE(streak_count,0), COALESCE(streak_last_date, 'epoch'::timestamptz),
		       created_at, updated_at
		FROM user_profiles WHERE id=$1
	`, userID)
	var p Profile
	if err := row.Scan(&p.ID, &p.Username, &p.TotalPlantsIdentified, &p.TotalDistanceKm,
		&p.StreakCount, &p.StreakLastDate, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// RecountPlants re-derives the plant counter from the plants table. The
// counter is never incremented blindly so retried requests stay idempotent.
func (s *Service) RecountPlants(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE user_profiles
		SET total_plants_identified = (SELECT COUNT(*) FROM plants WHERE user_id=$1),
		    updated_at = NOW()
		WHERE id=$1
	`, userID)
	return err
}

// RecountDistance re-derives total walked distance from saved trails.
func (s *Service) RecountDistance(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE user_profiles
		SET total_distance = (SELECT COALESCE(SUM(distance_km),0) FROM trails WHERE user_id=$1),
		    updated_at = NOW()
		WHERE id=$1
	`, userID)
	return err
}

// TouchStreak advances the daily streak: same day is a no-op, a visit the
// day after the last one increments, anything older resets to 1. Returns
// the current streak length.
func (s *Service) TouchStreak(ctx context.Context, userID string) (int, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return 0, err
	}

	now := nowFn()
	today := now.Format("2006-01-02")
	last := ""
	if !p.StreakLastDate.IsZero() && p.StreakLastDate.Unix() > 0 {
		last = p.StreakLastDate.Format("2006-01-02")
	}
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")

	if last == today {
		return p.StreakCount, nil
	}

	newStreak := 1
	if last == yesterday {
		newStreak = p.StreakCount + 1
	}

	_, err = s.db.Exec(ctx, `
		UPDATE user_profiles
		SET streak_count=$2, streak_last_date=$3, updated_at=NOW()
		WHERE id=$1
	`, userID, newStreak, now)
	if err != nil {
		return 0, err
	}
	return newStreak, nil
}
