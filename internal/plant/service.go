package plant

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/BarjunM/PlantDex/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrDuplicate reports that a plant by the same name is already in the
// user's collection.
var ErrDuplicate = errors.New("this plant is already in your collection")

// Effects are the best-effort side effects after a collection mutation:
// the profile counter is re-derived from the plants table and achievement
// progress is recomputed. Failures never fail the mutation itself.
type Effects interface {
	RecountPlants(ctx context.Context, userID string) error
	Recompute(ctx context.Context, userID, category string) error
}

type Service struct {
	db      db.Querier
	effects Effects
}

func NewService(querier db.Querier, effects Effects) *Service {
	return &Service{db: querier, effects: effects}
}

func (s *Service) Add(ctx context.Context, input Plant) (Plant, error) {
	if input.CommonName == "" || input.ScientificName == "" {
		return Plant{}, errors.New("common_name and scientific_name required")
	}

	var existingID string
	err := s.db.QueryRow(ctx, `
		SELECT id FROM plants
		WHERE user_id=$1 AND (common_name ILIKE $2 OR scientific_name ILIKE $3)
		LIMIT 1
	`, input.UserID, input.CommonName, input.ScientificName).Scan(&existingID)
	if err == nil {
		return Plant{}, ErrDuplicate
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		// the duplicate check is advisory; keep going if it fails
		log.Printf("duplicate check failed for %s: %v", input.UserID, err)
	}

	input.ID = uuid.NewString()
	if input.Location == "" {
		input.Location = "Unknown location"
	}
	if lat, lng, ok := parseCoordinates(input.Location); ok && input.LocationLat == nil {
		input.LocationLat, input.LocationLng = &lat, &lng
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO plants (id, user_id, common_name, scientific_name, location, location_lat, location_lng,
		                    image_url, edible, poisonous, medicinal, description)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING date_found
	`, input.ID, input.UserID, input.CommonName, input.ScientificName, input.Location,
		input.LocationLat, input.LocationLng, input.ImageURL, input.Edible, input.Poisonous,
		input.Medicinal, input.Description)
	if err := row.Scan(&input.DateFound); err != nil {
		return Plant{}, err
	}

	s.runEffects(ctx, input.UserID)
	return input, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Plant, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, common_name, scientific_name, location, location_lat, location_lng,
		       image_url, edible, poisonous, medicinal, COALESCE(description,''), date_found
		FROM plants WHERE user_id=$1
		ORDER BY date_found DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plants []Plant
	for rows.Next() {
		var p Plant
		if err := rows.Scan(&p.ID, &p.UserID, &p.CommonName, &p.ScientificName, &p.Location,
			&p.LocationLat, &p.LocationLng, &p.ImageURL, &p.Edible, &p.Poisonous,
			&p.Medicinal, &p.Description, &p.DateFound); err != nil {
			return nil, err
		}
		plants = append(plants, p)
	}
	return plants, nil
}

func (s *Service) Get(ctx context.Context, id string) (Plant, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, common_name, scientific_name, location, location_lat, location_lng,
		       image_url, edible, poisonous, medicinal, COALESCE(description,''), date_found
		FROM plants WHERE id=$1
	`, id)
	var p Plant
	if err := row.Scan(&p.ID, &p.UserID, &p.CommonName, &p.ScientificName, &p.Location,
		&p.LocationLat, &p.LocationLng, &p.ImageURL, &p.Edible, &p.Poisonous,
		&p.Medicinal, &p.Description, &p.DateFound); err != nil {
		return Plant{}, err
	}
	return p, nil
}

// Delete removes a plant the user owns. Completed achievements stay
// completed even when the collection shrinks below their requirement.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	var ownerID string
	if err := s.db.QueryRow(ctx, `SELECT user_id FROM plants WHERE id=$1`, id).Scan(&ownerID); err != nil {
		return err
	}
	if ownerID != userID {
		return errors.New("not allowed to delete this plant")
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM plants WHERE id=$1`, id); err != nil {
		return err
	}

	s.runEffects(ctx, userID)
	return nil
}

func (s *Service) runEffects(ctx context.Context, userID string) {
	if s.effects == nil {
		return
	}
	if err := s.effects.RecountPlants(ctx, userID); err != nil {
		log.Printf("plant recount failed for %s: %v", userID, err)
	}
	if err := s.effects.Recompute(ctx, userID, "plants"); err != nil {
		log.Printf("plant achievement recompute failed for %s: %v", userID, err)
	}
}

// parseCoordinates accepts "lat, lng" strings coming from map clicks.
func parseCoordinates(location string) (float64, float64, bool) {
	parts := strings.Split(location, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lat, lng, true
}
