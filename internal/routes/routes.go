package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/modelmart/backend/internal/config"
	"github.com/modelmart/backend/internal/handlers"
	"github.com/modelmart/backend/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	modelHandler *handlers.ModelHandler,
	purchaseHandler *handlers.PurchaseHandler,
	healthHandler *handlers.HealthHandler,
) {
	// General rate limiter: 120 req/min per IP
	app.Use(limiter.New(limiter.Config{
		Max:               120,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	app.Get("/health", healthHandler.Check)

	// Public auth endpoints, with a stricter rate limit
	auth := app.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	// Protected auth endpoints
	app.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	app.Get("/auth/me", middleware.JWTProtected(cfg), authHandler.Me)
	app.Patch("/auth/profile", middleware.JWTProtected(cfg), authHandler.UpdateProfile)

	// Public catalog reads. /models/latest must be registered
	// before /models/:id so "latest" is not swallowed as an id.
	app.Get("/models", modelHandler.List)
	app.Get("/models/latest", modelHandler.Latest)
	app.Get("/models/:id", modelHandler.Get)

	// Owner-gated catalog mutations
	app.Post("/models", middleware.JWTProtected(cfg), modelHandler.Create)
	app.Patch("/models/purchase/:id", middleware.JWTProtected(cfg), modelHandler.IncrementPurchase)
	app.Patch("/models/:id", middleware.JWTProtected(cfg), modelHandler.Update)
	app.Delete("/models/:id", middleware.JWTProtected(cfg), modelHandler.Delete)

	// Purchases
	app.Post("/purchase-model", middleware.JWTProtected(cfg), purchaseHandler.Buy)
	app.Get("/purchase-model/:id/status", middleware.JWTOptional(cfg), purchaseHandler.Status)
	app.Get("/purchase-history", middleware.JWTProtected(cfg), purchaseHandler.History)
}
