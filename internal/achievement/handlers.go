package achievement

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		entries, err := svc.List(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(entries)
	})

	r.Post("/recompute", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Category string `json:"category"`
		}
		if err := c.BodyParser(&body); err != nil || body.Category == "" {
			return fiber.NewError(fiber.StatusBadRequest, "category required")
		}
		userID, _ := c.Locals("user_id").(string)
		if err := svc.Recompute(c.Context(), userID, body.Category); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
