package server

import (
	"context"

	"github.com/BarjunM/PlantDex/internal/achievement"
	"github.com/BarjunM/PlantDex/internal/auth"
	"github.com/BarjunM/PlantDex/internal/config"
	"github.com/BarjunM/PlantDex/internal/places"
	"github.com/BarjunM/PlantDex/internal/plant"
	"github.com/BarjunM/PlantDex/internal/profile"
	"github.com/BarjunM/PlantDex/internal/social"
	"github.com/BarjunM/PlantDex/internal/stream"
	"github.com/BarjunM/PlantDex/internal/tracking"
	"github.com/BarjunM/PlantDex/internal/trail"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

// gameEffects bridges write paths to the profile counters and the
// achievement recompute, so collections and trails stay in sync.
type gameEffects struct {
	profiles     *profile.Service
	achievements *achievement.Service
}

func (e gameEffects) RecountPlants(ctx context.Context, userID string) error {
	return e.profiles.RecountPlants(ctx, userID)
}

func (e gameEffects) RecountDistance(ctx context.Context, userID string) error {
	return e.profiles.RecountDistance(ctx, userID)
}

func (e gameEffects) Recompute(ctx context.Context, userID, category string) error {
	return e.achievements.Recompute(ctx, userID, category)
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	profiles := profile.NewService(s.DB)
	achievements := achievement.NewService(s.DB)
	effects := gameEffects{profiles: profiles, achievements: achievements}
	trails := trail.NewService(s.DB, effects)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB, profiles))
	profile.RegisterRoutes(s.App.Group("/profile"), profiles, achievements, jwtMiddleware)
	plant.RegisterRoutes(s.App.Group("/plants"), plant.NewService(s.DB, effects),
		plant.NewIdentifier(s.Cfg.PlantIDAPIKey, s.Cfg.PlantIDAPIURL), jwtMiddleware)
	trail.RegisterRoutes(s.App.Group("/trails"), trails, jwtMiddleware)
	tracking.RegisterRoutes(s.App.Group("/tracking"), tracking.NewService(trails, s.Stream), jwtMiddleware)
	achievement.RegisterRoutes(s.App.Group("/achievements"), achievements, jwtMiddleware)
	social.RegisterRoutes(s.App.Group("/social"), social.NewService(s.DB, s.Redis), jwtMiddleware)
	places.RegisterRoutes(s.App.Group("/places"), places.NewClient(s.Cfg.MapsAPIKey, s.Cfg.MapsAPIURL), jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
