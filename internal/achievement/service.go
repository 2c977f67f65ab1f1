package achievement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BarjunM/PlantDex/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var nowFn = time.Now

type Service struct {
	db db.Querier
}

func NewService(querier db.Querier) *Service {
	return &Service{db: querier}
}

// Recompute re-derives progress for every achievement in a category from
// the authoritative current count. It is idempotent: running it twice with
// no intervening count change leaves the rows unchanged. Completions are
// permanent; a count regression lowers progress but never clears completed
// or completed_at.
func (s *Service) Recompute(ctx context.Context, userID, category string) error {
	count, err := s.authoritativeCount(ctx, userID, category)
	if err != nil {
		return err
	}

	defs, err := s.definitions(ctx, category)
	if err != nil {
		return err
	}

	for _, def := range defs {
		if err := s.apply(ctx, userID, def, count); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) authoritativeCount(ctx context.Context, userID, category string) (int, error) {
	var count int
	switch category {
	case "plants":
		err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM plants WHERE user_id=$1`, userID).Scan(&count)
		return count, err
	case "trails":
		err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM trails WHERE user_id=$1`, userID).Scan(&count)
		return count, err
	case "streaks":
		err := s.db.QueryRow(ctx, `SELECT COALESCE(streak_count,0) FROM user_profiles WHERE id=$1`, userID).Scan(&count)
		return count, err
	case "distance":
		err := s.db.QueryRow(ctx, `SELECT COALESCE(FLOOR(total_distance),0)::int FROM user_profiles WHERE id=$1`, userID).Scan(&count)
		return count, err
	default:
		return 0, fmt.Errorf("unknown achievement category %q", category)
	}
}

func (s *Service) definitions(ctx context.Context, category string) ([]Achievement, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, category, requirement_count, name, description
		FROM achievements WHERE category=$1
	`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []Achievement
	for rows.Next() {
		var a Achievement
		if err := rows.Scan(&a.ID, &a.Category, &a.RequirementCount, &a.Name, &a.Description); err != nil {
			return nil, err
		}
		defs = append(defs, a)
	}
	return defs, nil
}

func (s *Service) apply(ctx context.Context, userID string, def Achievement, count int) error {
	row := s.db.QueryRow(ctx, `
		SELECT id, progress, completed, completed_at
		FROM user_achievements WHERE user_id=$1 AND achievement_id=$2
	`, userID, def.ID)

	var existing UserAchievement
	err := row.Scan(&existing.ID, &existing.Progress, &existing.Completed, &existing.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		completed := count >= def.RequirementCount
		var completedAt *time.Time
		if completed {
			now := nowFn()
			completedAt = &now
		}
		_, err := s.db.Exec(ctx, `
			INSERT INTO user_achievements (id, user_id, achievement_id, progress, completed, completed_at)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, uuid.NewString(), userID, def.ID, count, completed, completedAt)
		return err
	}
	if err != nil {
		return err
	}

	completed := existing.Completed || count >= def.RequirementCount
	completedAt := existing.CompletedAt
	if completed && existing.CompletedAt == nil {
		now := nowFn()
		completedAt = &now
	}

	if existing.Progress == count && existing.Completed == completed {
		return nil
	}

	_, err = s.db.Exec(ctx, `
		UPDATE user_achievements
		SET progress=$2, completed=$3, completed_at=$4
		WHERE id=$1
	`, existing.ID, count, completed, completedAt)
	return err
}

// List returns the user's progress rows joined with their definitions,
// lazily materializing rows at zero progress on first read.
func (s *Service) List(ctx context.Context, userID string) ([]UserAchievement, error) {
	entries, err := s.listExisting(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(entries) > 0 {
		return entries, nil
	}

	if err := s.materialize(ctx, userID); err != nil {
		return nil, err
	}
	return s.listExisting(ctx, userID)
}

func (s *Service) listExisting(ctx context.Context, userID string) ([]UserAchievement, error) {
	rows, err := s.db.Query(ctx, `
		SELECT ua.id, ua.user_id, ua.achievement_id, ua.progress, ua.completed, ua.completed_at,
		       a.id, a.category, a.requirement_count, a.name, a.description
		FROM user_achievements ua
		JOIN achievements a ON a.id = ua.achievement_id
		WHERE ua.user_id=$1
		ORDER BY a.category, a.requirement_count
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []UserAchievement
	for rows.Next() {
		var ua UserAchievement
		var a Achievement
		if err := rows.Scan(&ua.ID, &ua.UserID, &ua.AchievementID, &ua.Progress, &ua.Completed, &ua.CompletedAt,
			&a.ID, &a.Category, &a.RequirementCount, &a.Name, &a.Description); err != nil {
			return nil, err
		}
		ua.Achievement = &a
		entries = append(entries, ua)
	}
	return entries, nil
}

func (s *Service) materialize(ctx context.Context, userID string) error {
	rows, err := s.db.Query(ctx, `SELECT id FROM achievements`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
	}

	for _, achievementID := range ids {
		_, err := s.db.Exec(ctx, `
			INSERT INTO user_achievements (id, user_id, achievement_id, progress, completed)
			VALUES ($1,$2,$3,0,false)
			ON CONFLICT (user_id, achievement_id) DO NOTHING
		`, uuid.NewString(), userID, achievementID)
		if err != nil {
			return err
		}
	}
	return nil
}
