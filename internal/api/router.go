package api

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/api/handlers"
	"github.com/maheshrc27/postflow/internal/api/middleware"
	"github.com/maheshrc27/postflow/internal/metrics"
	"github.com/maheshrc27/postflow/internal/repository"
	"github.com/maheshrc27/postflow/internal/service"
	"github.com/prometheus/client_golang/prometheus"
)

type Deps struct {
	Hub         service.HubManager
	Automation  service.AutomationService
	Credentials service.CredentialService
	Actions     repository.AutomatedActionRepository
	DB          handlers.Pinger
	Gatherer    prometheus.Gatherer
}

func NewRouter(cfg config.Config, d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			if code == fiber.StatusInternalServerError {
				slog.Error("request failed", "path", c.Path(), "error", err)
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	health := handlers.NewHealthHandler(d.DB)
	app.Get("/healthz", health.Health)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(d.Gatherer)))

	authMiddleware := middleware.NewAuthMiddleware(cfg)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	post := handlers.NewPostHandler(d.Hub)
	api.Post("/posts", post.CreatePost)
	api.Post("/posts/:id/cancel", post.CancelPost)
	api.Get("/posts/:id/status", post.GetPostStatus)

	actions := handlers.NewActionHandler(d.Actions, d.Automation)
	api.Post("/actions/:id/run", actions.RunAction)

	creds := handlers.NewCredentialHandler(d.Credentials)
	api.Get("/credentials", creds.List)
	api.Post("/credentials/:platform", creds.Connect)
	api.Delete("/credentials/:platform", creds.Disconnect)

	return app
}
