package social

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/friends", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			AddresseeID string `json:"addressee_id"`
		}
		if err := c.BodyParser(&req); err != nil || req.AddresseeID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "addressee_id required")
		}
		userID, _ := c.Locals("user_id").(string)

		friendship, err := svc.SendRequest(c.Context(), userID, req.AddresseeID)
		if err != nil {
			return friendError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(friendship)
	})

	r.Post("/friends/:id/respond", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			Accept bool `json:"accept"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		userID, _ := c.Locals("user_id").(string)

		friendship, err := svc.Respond(c.Context(), c.Params("id"), userID, req.Accept)
		if err != nil {
			return friendError(err)
		}
		return c.JSON(friendship)
	})

	r.Get("/friends", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		entries, err := svc.ListFriends(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(entries)
	})

	r.Get("/friends/requests", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		entries, err := svc.ListPending(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(entries)
	})

	r.Delete("/friends/:id", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if err := svc.RemoveFriend(c.Context(), c.Params("id"), userID); err != nil {
			return friendError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/feed", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		items, err := svc.Feed(c.Context(), userID, c.QueryInt("limit"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(items)
	})

	r.Get("/leaderboard", authMiddleware, func(c *fiber.Ctx) error {
		metric := c.Query("metric", "plants")
		entries, err := svc.Leaderboard(c.Context(), metric, c.QueryInt("limit"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(entries)
	})

	r.Get("/users/search", authMiddleware, func(c *fiber.Ctx) error {
		query := c.Query("q")
		if query == "" {
			return fiber.NewError(fiber.StatusBadRequest, "q required")
		}
		matches, err := svc.SearchUsers(c.Context(), query, c.QueryInt("limit"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(matches)
	})
}

func friendError(err error) error {
	switch {
	case errors.Is(err, ErrSelfFriend):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAlreadyFriends):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrRequestNotFound), errors.Is(err, ErrUserNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
