package places

import (
	"errors"
	"strconv"

	"github.com/BarjunM/PlantDex/internal/geo"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the mapping proxy endpoints.
func RegisterRoutes(r fiber.Router, client *Client, authMiddleware fiber.Handler) {
	r.Get("/nearby", authMiddleware, func(c *fiber.Ctx) error {
		lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
		lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
		if err1 != nil || err2 != nil {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lng are required")
		}
		radius, _ := strconv.Atoi(c.Query("radius"))

		pois, err := client.Nearby(c.Context(), lat, lng, radius, c.Query("type"), c.Query("keyword"))
		if err != nil {
			return mapsError(err)
		}
		return c.JSON(fiber.Map{"results": pois})
	})

	r.Get("/geocode", authMiddleware, func(c *fiber.Ctx) error {
		address := c.Query("address")
		if address == "" {
			return fiber.NewError(fiber.StatusBadRequest, "address is required")
		}

		result, err := client.Geocode(c.Context(), address)
		if err != nil {
			return mapsError(err)
		}
		return c.JSON(result)
	})

	r.Get("/directions", authMiddleware, func(c *fiber.Ctx) error {
		origin, err := parsePoint(c.Query("origin_lat"), c.Query("origin_lng"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "origin_lat and origin_lng are required")
		}
		dest, err := parsePoint(c.Query("dest_lat"), c.Query("dest_lng"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "dest_lat and dest_lng are required")
		}

		directions, err := client.WalkingDirections(c.Context(), origin, dest)
		if err != nil {
			return mapsError(err)
		}
		return c.JSON(directions)
	})
}

func parsePoint(latStr, lngStr string) (geo.Point, error) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return geo.Point{}, err
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return geo.Point{}, err
	}
	return geo.Point{Lat: lat, Lng: lng}, nil
}

func mapsError(err error) error {
	if errors.Is(err, ErrNotConfigured) {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return fiber.NewError(fiber.StatusBadGateway, err.Error())
}
