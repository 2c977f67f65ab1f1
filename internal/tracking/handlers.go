package tracking

import (
	"errors"

	"github.com/BarjunM/PlantDex/internal/trail"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/sessions", authMiddleware, func(c *fiber.Ctx) error {
		var req startRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		userID, _ := c.Locals("user_id").(string)
		snap, err := svc.Start(c.Context(), userID, req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(snap)
	})

	r.Post("/sessions/:id/positions", authMiddleware, func(c *fiber.Ctx) error {
		var req positionRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		snap, reached, err := svc.AddPosition(c.Params("id"), trail.Position{
			Lat:       req.Lat,
			Lng:       req.Lng,
			Timestamp: req.Timestamp,
			Source:    trail.SourceGPS,
		})
		if err != nil {
			return statusError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"distance_km":     snap.DistanceKm,
			"elapsed_seconds": snap.ElapsedSeconds,
			"reached":         reached,
		})
	})

	r.Post("/sessions/:id/pause", authMiddleware, func(c *fiber.Ctx) error {
		snap, err := svc.Pause(c.Params("id"))
		if err != nil {
			return statusError(err)
		}
		return c.JSON(snap)
	})

	r.Post("/sessions/:id/resume", authMiddleware, func(c *fiber.Ctx) error {
		snap, err := svc.Resume(c.Params("id"))
		if err != nil {
			return statusError(err)
		}
		return c.JSON(snap)
	})

	r.Post("/sessions/:id/complete", authMiddleware, func(c *fiber.Ctx) error {
		var req completeRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		saved, err := svc.Complete(c.Context(), c.Params("id"), req)
		if err != nil {
			return statusError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(saved)
	})

	r.Get("/sessions/:id", func(c *fiber.Ctx) error {
		snap, err := svc.Snapshot(c.Params("id"))
		if err != nil {
			return statusError(err)
		}
		return c.JSON(snap)
	})
}

func statusError(err error) error {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotRecording), errors.Is(err, ErrNotPaused), errors.Is(err, ErrCompleted):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
