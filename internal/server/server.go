package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/config"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/control"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/hub"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/pipeline"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/session"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	Store  *session.Store
	Hub    *hub.Hub
	Driver *pipeline.Driver
}

func NewServer(cfg config.Config, store *session.Store, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	h := hub.New(redisClient)
	s := &Server{
		App:    app,
		Cfg:    cfg,
		Store:  store,
		Hub:    h,
		Driver: pipeline.New(store, h),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":            "healthy",
			"connected_clients": s.Hub.Count(),
			"queue_size":        s.Driver.QueueDepth(),
		})
	})

	control.RegisterRoutes(s.App.Group("/api"), s.Driver)
	hub.RegisterRoutes(s.App.Group("/stream"), s.Hub)

	// Dashboard assets last, as the catch-all.
	if s.Cfg.StaticDir != "" {
		s.App.Static("/", s.Cfg.StaticDir)
	}
}
