package geo

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371

// WalkingSpeedKmh is the assumed pace for planned-route duration estimates.
const WalkingSpeedKmh = 5.0

// Point is a WGS84 coordinate pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// HaversineKm returns the great-circle distance between two coordinates in
// kilometers. Inputs are degrees; no range validation is performed.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := deg2rad(lat2 - lat1)
	dLng := deg2rad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(lat1))*math.Cos(deg2rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func deg2rad(deg float64) float64 {
	return deg * (math.Pi / 180)
}

// PathDistanceKm sums the leg distances over an ordered sequence of points.
// Fewer than two points is zero distance.
func PathDistanceKm(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}
	total := 0.0
	for i := 1; i < len(points); i++ {
		prev, curr := points[i-1], points[i]
		total += HaversineKm(prev.Lat, prev.Lng, curr.Lat, curr.Lng)
	}
	return total
}

// Path accumulates distance incrementally as points are appended or removed.
// The running total always matches PathDistanceKm over the current points.
type Path struct {
	points  []Point
	totalKm float64
}

func (p *Path) Points() []Point {
	return p.points
}

func (p *Path) Len() int {
	return len(p.points)
}

func (p *Path) TotalKm() float64 {
	return p.totalKm
}

// Append adds a point and extends the running total by the new leg.
func (p *Path) Append(pt Point) float64 {
	if n := len(p.points); n > 0 {
		last := p.points[n-1]
		p.totalKm += HaversineKm(last.Lat, last.Lng, pt.Lat, pt.Lng)
	}
	p.points = append(p.points, pt)
	return p.totalKm
}

// Remove deletes the point at index i, subtracting the legs that touched it
// and adding the leg that now bridges its former neighbors. The total is
// clamped so floating-point drift can never leave it negative.
func (p *Path) Remove(i int) float64 {
	if i < 0 || i >= len(p.points) {
		return p.totalKm
	}

	if i > 0 {
		prev := p.points[i-1]
		p.totalKm -= HaversineKm(prev.Lat, prev.Lng, p.points[i].Lat, p.points[i].Lng)
	}
	if i < len(p.points)-1 {
		next := p.points[i+1]
		p.totalKm -= HaversineKm(p.points[i].Lat, p.points[i].Lng, next.Lat, next.Lng)
	}
	if i > 0 && i < len(p.points)-1 {
		prev, next := p.points[i-1], p.points[i+1]
		p.totalKm += HaversineKm(prev.Lat, prev.Lng, next.Lat, next.Lng)
	}

	p.points = append(p.points[:i], p.points[i+1:]...)
	if p.totalKm < 0 || len(p.points) < 2 {
		p.totalKm = 0
	}
	return p.totalKm
}

// EstimateDurationSec converts a planned distance into walking seconds at
// WalkingSpeedKmh. Planned routes have no real elapsed time yet.
func EstimateDurationSec(distanceKm float64) int64 {
	return int64((distanceKm / WalkingSpeedKmh) * 3600)
}

// FormatDistanceKm renders a distance as "X.XX km".
func FormatDistanceKm(km float64) string {
	return fmt.Sprintf("%.2f km", km)
}

// FormatElapsed renders live elapsed seconds as "HH:MM:SS".
func FormatElapsed(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatDuration renders a stored duration as "Xh Ym".
func FormatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	return fmt.Sprintf("%dh %dm", h, m)
}
