package trail

import (
	"github.com/BarjunM/PlantDex/internal/geo"

	"github.com/gofiber/fiber/v2"
)

type planRequest struct {
	Start       geo.Point `json:"start"`
	POIs        []geo.POI `json:"pois"`
	LoopBack    bool      `json:"loop_back"`
	Strategy    string    `json:"strategy"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req Trail
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		req.UserID, _ = c.Locals("user_id").(string)
		if req.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name required")
		}

		var saved Trail
		var err error
		if req.PathData.Completed {
			saved, err = svc.SaveCompleted(c.Context(), req)
		} else {
			saved, err = svc.SavePlanned(c.Context(), req)
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(saved)
	})

	// Plan builds a walking route from a start point and selected POIs.
	// With a name it is also saved as a planned trail.
	r.Post("/plan", authMiddleware, func(c *fiber.Ctx) error {
		var req planRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if len(req.POIs) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "pois required")
		}

		var strategy geo.RouteStrategy = geo.SortByDistanceFromStart{}
		if req.Strategy == "nearest" {
			strategy = geo.NearestNeighbor2Opt{}
		}
		route := geo.PlanRoute(req.Start, req.POIs, strategy, req.LoopBack)

		if req.Name == "" {
			return c.JSON(route)
		}

		planned := Trail{
			UserID:      c.Locals("user_id").(string),
			Name:        req.Name,
			Description: req.Description,
			PathData: PathData{
				Positions: routePositions(route),
				Markers:   routeMarkers(route),
				Planned:   true,
			},
		}
		saved, err := svc.SavePlanned(c.Context(), planned)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"route": route, "trail": saved})
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		trails, err := svc.ListByUser(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(trails)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		t, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "trail not found")
		}
		return c.JSON(t)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if err := svc.Delete(c.Context(), c.Params("id"), userID); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func routePositions(route geo.Route) []Position {
	positions := make([]Position, len(route.Points))
	for i, p := range route.Points {
		positions[i] = Position{Lat: p.Lat, Lng: p.Lng}
	}
	return positions
}

func routeMarkers(route geo.Route) []Marker {
	markers := make([]Marker, len(route.POIs))
	for i, poi := range route.POIs {
		markers[i] = Marker{
			ID:       poi.ID,
			Position: Position{Lat: poi.Position.Lat, Lng: poi.Position.Lng},
			Note:     poi.Name,
			Type:     poi.Type,
		}
	}
	return markers
}
