package geo

import "sort"

// POI is a candidate stop returned by a places search.
type POI struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position Point  `json:"position"`
	Type     string `json:"type"`
}

// Route is an ordered walking route with derived totals.
type Route struct {
	Points      []Point `json:"points"`
	POIs        []POI   `json:"pois"`
	DistanceKm  float64 `json:"distance_km"`
	DurationSec int64   `json:"duration_seconds"`
	LoopBack    bool    `json:"loop_back"`
}

// RouteStrategy orders points of interest into a visiting sequence from a
// start point.
type RouteStrategy interface {
	Order(start Point, pois []POI) []POI
}

// SortByDistanceFromStart sorts candidates once by straight-line distance
// from the start point. This is not tour-optimal: it is a one-shot sort by
// distance from origin, not a nearest-neighbor tour.
type SortByDistanceFromStart struct{}

func (SortByDistanceFromStart) Order(start Point, pois []POI) []POI {
	ordered := append([]POI(nil), pois...)
	sort.Slice(ordered, func(i, j int) bool {
		di := HaversineKm(start.Lat, start.Lng, ordered[i].Position.Lat, ordered[i].Position.Lng)
		dj := HaversineKm(start.Lat, start.Lng, ordered[j].Position.Lat, ordered[j].Position.Lng)
		return di < dj
	})
	return ordered
}

// NearestNeighbor2Opt walks to the nearest unvisited POI from the current
// position, then applies 2-opt passes until no swap shortens the tour.
type NearestNeighbor2Opt struct{}

func (NearestNeighbor2Opt) Order(start Point, pois []POI) []POI {
	remaining := append([]POI(nil), pois...)
	ordered := make([]POI, 0, len(remaining))
	current := start

	for len(remaining) > 0 {
		best := 0
		bestDist := HaversineKm(current.Lat, current.Lng, remaining[0].Position.Lat, remaining[0].Position.Lng)
		for i := 1; i < len(remaining); i++ {
			d := HaversineKm(current.Lat, current.Lng, remaining[i].Position.Lat, remaining[i].Position.Lng)
			if d < bestDist {
				best, bestDist = i, d
			}
		}
		ordered = append(ordered, remaining[best])
		current = remaining[best].Position
		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	improved := true
	for improved {
		improved = false
		for i := 0; i < len(ordered)-1; i++ {
			for j := i + 1; j < len(ordered); j++ {
				if tourLength(start, reversed(ordered, i, j)) < tourLength(start, ordered) {
					ordered = reversed(ordered, i, j)
					improved = true
				}
			}
		}
	}
	return ordered
}

func reversed(pois []POI, i, j int) []POI {
	out := append([]POI(nil), pois...)
	for i < j {
		out[i], out[j] = out[j], out[i]
		i++
		j--
	}
	return out
}

func tourLength(start Point, pois []POI) float64 {
	points := make([]Point, 0, len(pois)+1)
	points = append(points, start)
	for _, p := range pois {
		points = append(points, p.Position)
	}
	return PathDistanceKm(points)
}

// PlanRoute orders the selected POIs with the given strategy, optionally
// closes the loop back to the start, and derives total distance and an
// estimated walking duration over the final sequence.
func PlanRoute(start Point, pois []POI, strategy RouteStrategy, loopBack bool) Route {
	if strategy == nil {
		strategy = SortByDistanceFromStart{}
	}
	ordered := strategy.Order(start, pois)

	points := make([]Point, 0, len(ordered)+2)
	points = append(points, start)
	for _, p := range ordered {
		points = append(points, p.Position)
	}
	if loopBack && len(ordered) > 0 {
		points = append(points, start)
	}

	distance := PathDistanceKm(points)
	return Route{
		Points:      points,
		POIs:        ordered,
		DistanceKm:  distance,
		DurationSec: EstimateDurationSec(distance),
		LoopBack:    loopBack,
	}
}
