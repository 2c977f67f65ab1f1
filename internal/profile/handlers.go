package profile

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
)

// AchievementRecomputer re-derives achievement progress for a user and
// category. Recompute failures never fail the primary request.
type AchievementRecomputer interface {
	Recompute(ctx context.Context, userID, category string) error
}

func RegisterRoutes(r fiber.Router, svc *Service, achievements AchievementRecomputer, authMiddleware fiber.Handler) {
	r.Get("/me", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		p, err := svc.Get(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "profile not found")
		}
		return c.JSON(p)
	})

	// visiting the dashboard keeps the daily streak alive
	r.Post("/touch", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		streak, err := svc.TouchStreak(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if achievements != nil {
			if err := achievements.Recompute(c.Context(), userID, "streaks"); err != nil {
				log.Printf("streak achievement recompute failed for %s: %v", userID, err)
			}
		}
		return c.JSON(fiber.Map{"streak_count": streak})
	})
}
