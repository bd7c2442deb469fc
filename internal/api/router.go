package api

import (
	"strings"

	"dealflow/docs"
	"dealflow/internal/api/handlers"
	"dealflow/internal/metrics"
	"dealflow/pkg/auth"
	"dealflow/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Deal     *handlers.DealHandler
	Registry *handlers.RegistryHandler
	Admin    *handlers.AdminHandler
	System   *handlers.SystemHandler
}

// Options carries the router settings that come from configuration.
type Options struct {
	AdminEmail      string
	FrontendOrigins string
	RequestLogging  bool
}

func SetupRouter(h Handlers, jwtManager *auth.JWTManager, opts Options, appLogger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins(opts.FrontendOrigins),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Admin-Email",
	}))
	if opts.RequestLogging {
		app.Use(logger.New())
	}
	app.Use(metrics.Middleware())

	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/health", h.System.Health)

	webhooks := app.Group("/webhooks")
	webhooks.Post("/deal-ingest", h.Deal.Ingest)
	webhooks.Post("/buyer", h.Registry.RegisterBuyer)
	webhooks.Post("/seller", h.Registry.RegisterSeller)
	webhooks.Post("/sms", h.System.InboundSMS)

	admin := app.Group("/admin", middleware.AdminMiddleware(opts.AdminEmail, jwtManager, appLogger))
	admin.Get("/stats", h.Admin.Stats)
	admin.Post("/send-queued", h.Admin.SendQueued)

	return app
}

// allowOrigins turns FRONTEND_URL into a cors origin list; empty means any.
func allowOrigins(raw string) string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			if o == "*" {
				return "*"
			}
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return "*"
	}
	return strings.Join(origins, ",")
}
