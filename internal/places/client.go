package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/BarjunM/PlantDex/internal/geo"

	lru "github.com/hashicorp/golang-lru"
)

// ErrNotConfigured is surfaced when the maps API key is missing.
var ErrNotConfigured = errors.New("maps service is not configured")

const geocodeCacheSize = 256

// Client proxies the mapping provider: nearby POI search, geocoding and
// walking directions. Geocode responses are cached; addresses do not move.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	geocode *lru.Cache
}

func NewClient(apiKey, baseURL string) *Client {
	cache, _ := lru.New(geocodeCacheSize)
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		geocode: cache,
	}
}

// GeocodeResult is a resolved address.
type GeocodeResult struct {
	Position  geo.Point `json:"position"`
	Formatted string    `json:"formatted_address"`
}

// Directions is a walking-route summary between two points.
type Directions struct {
	DistanceM   int    `json:"distance_m"`
	DurationSec int    `json:"duration_seconds"`
	Polyline    string `json:"polyline"`
}

// Nearby returns POI candidates around a location for the route planner.
func (c *Client) Nearby(ctx context.Context, lat, lng float64, radiusM int, poiType, keyword string) ([]geo.POI, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if radiusM == 0 {
		radiusM = 5000
	}
	if poiType == "" {
		poiType = "park"
	}

	query := url.Values{}
	query.Set("location", fmt.Sprintf("%f,%f", lat, lng))
	query.Set("radius", fmt.Sprintf("%d", radiusM))
	query.Set("type", poiType)
	query.Set("key", c.apiKey)
	if keyword != "" {
		query.Set("keyword", keyword)
	}

	var decoded struct {
		Results []struct {
			PlaceID  string `json:"place_id"`
			Name     string `json:"name"`
			Types    []string
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := c.getJSON(ctx, "/place/nearbysearch/json", query, &decoded); err != nil {
		return nil, err
	}

	pois := make([]geo.POI, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		poi := geo.POI{
			ID:       r.PlaceID,
			Name:     r.Name,
			Position: geo.Point{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
			Type:     poiType,
		}
		if len(r.Types) > 0 {
			poi.Type = r.Types[0]
		}
		pois = append(pois, poi)
	}
	return pois, nil
}

// Geocode resolves a free-form address to coordinates.
func (c *Client) Geocode(ctx context.Context, address string) (GeocodeResult, error) {
	if c.apiKey == "" {
		return GeocodeResult{}, ErrNotConfigured
	}
	if cached, ok := c.geocode.Get(address); ok {
		return cached.(GeocodeResult), nil
	}

	query := url.Values{}
	query.Set("address", address)
	query.Set("key", c.apiKey)

	var decoded struct {
		Results []struct {
			FormattedAddress string `json:"formatted_address"`
			Geometry         struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := c.getJSON(ctx, "/geocode/json", query, &decoded); err != nil {
		return GeocodeResult{}, err
	}
	if len(decoded.Results) == 0 {
		return GeocodeResult{}, errors.New("address not found")
	}

	result := GeocodeResult{
		Position:  geo.Point{Lat: decoded.Results[0].Geometry.Location.Lat, Lng: decoded.Results[0].Geometry.Location.Lng},
		Formatted: decoded.Results[0].FormattedAddress,
	}
	c.geocode.Add(address, result)
	return result, nil
}

// WalkingDirections summarizes a walking route between two points.
func (c *Client) WalkingDirections(ctx context.Context, origin, dest geo.Point) (Directions, error) {
	if c.apiKey == "" {
		return Directions{}, ErrNotConfigured
	}

	query := url.Values{}
	query.Set("origin", fmt.Sprintf("%f,%f", origin.Lat, origin.Lng))
	query.Set("destination", fmt.Sprintf("%f,%f", dest.Lat, dest.Lng))
	query.Set("mode", "walking")
	query.Set("key", c.apiKey)

	var decoded struct {
		Routes []struct {
			Legs []struct {
				Distance struct {
					Value int `json:"value"`
				} `json:"distance"`
				Duration struct {
					Value int `json:"value"`
				} `json:"duration"`
			} `json:"legs"`
			OverviewPolyline struct {
				Points string `json:"points"`
			} `json:"overview_polyline"`
		} `json:"routes"`
	}
	if err := c.getJSON(ctx, "/directions/json", query, &decoded); err != nil {
		return Directions{}, err
	}
	if len(decoded.Routes) == 0 {
		return Directions{}, errors.New("no route found")
	}

	var out Directions
	out.Polyline = decoded.Routes[0].OverviewPolyline.Points
	for _, leg := range decoded.Routes[0].Legs {
		out.DistanceM += leg.Distance.Value
		out.DurationSec += leg.Duration.Value
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("maps api error: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}
