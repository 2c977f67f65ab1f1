package plant

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, identifier *Identifier, authMiddleware fiber.Handler) {
	r.Post("/identify", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Image string `json:"image"`
		}
		if err := c.BodyParser(&body); err != nil || body.Image == "" {
			return fiber.NewError(fiber.StatusBadRequest, "image required")
		}
		result, err := identifier.Identify(c.Context(), body.Image)
		if errors.Is(err, ErrNotConfigured) {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if errors.Is(err, ErrNoMatch) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return c.JSON(result)
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req Plant
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		req.UserID, _ = c.Locals("user_id").(string)

		saved, err := svc.Add(c.Context(), req)
		if errors.Is(err, ErrDuplicate) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(saved)
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		plants, err := svc.List(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(plants)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		p, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "plant not found")
		}
		return c.JSON(p)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if err := svc.Delete(c.Context(), c.Params("id"), userID); err != nil {
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
