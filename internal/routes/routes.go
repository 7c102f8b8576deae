package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/crms/internal/apps"
	"github.com/ahmetcoskunkizilkaya/crms/internal/config"
	"github.com/ahmetcoskunkizilkaya/crms/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/crms/internal/middleware"
)

// Handlers groups the core (non-plugin) handlers.
type Handlers struct {
	Auth    *handlers.AuthHandler
	Users   *handlers.UserHandler
	Setting *handlers.SettingHandler
	Health  *handlers.HealthHandler
	Legal   *handlers.LegalHandler
}

func ipLimiter(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return handlers.Fail(c, fiber.StatusTooManyRequests, "Too many requests")
		},
	})
}

func Setup(app *fiber.App, cfg *config.Config, db *gorm.DB, h Handlers, plugins []apps.Plugin) {
	api := app.Group("/api")

	// General API rate limiter: 120 req/min per IP
	api.Use(ipLimiter(120))

	// Public
	api.Get("/health", h.Health.Check)
	api.Get("/legal/privacy", h.Legal.PrivacyNotice)
	api.Get("/settings/public", h.Setting.Public)

	// Public auth endpoints share a stricter limit of 10 req/min per IP.
	// Signed-in /auth routes below only count against the general limit.
	authLimit := ipLimiter(10)
	api.Post("/auth/register", authLimit, h.Auth.Register)
	api.Post("/auth/register/student", authLimit, h.Auth.RegisterStudent)
	api.Post("/auth/login", authLimit, h.Auth.Login)
	api.Post("/auth/refresh", authLimit, h.Auth.Refresh)

	// Admin routes are registered before the generic protected group so
	// they pass through the token check once.
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.NoStore(), middleware.AdminRequired(cfg))
	admin.Get("/users", h.Users.List)
	admin.Get("/users/:id", h.Users.Get)
	admin.Put("/users/:id/role", h.Users.SetRole)
	admin.Put("/users/:id/active", h.Users.SetActive)
	admin.Delete("/users/:id", h.Users.Delete)
	admin.Get("/approvals", h.Users.Approvals)
	admin.Put("/approvals/:user_id", h.Users.Review)
	admin.Get("/settings", h.Setting.List)
	admin.Put("/settings/:key", h.Setting.Set)
	admin.Delete("/settings/:key", h.Setting.Delete)
	for _, p := range plugins {
		if ap, ok := p.(apps.AdminPlugin); ok {
			ap.RegisterAdminRoutes(admin, db, cfg)
		}
	}

	// Everything below requires a valid access token and is never cached.
	protected := api.Group("", middleware.JWTProtected(cfg), middleware.NoStore())
	protected.Post("/auth/logout", h.Auth.Logout)
	protected.Get("/auth/me", h.Auth.Me)
	protected.Put("/auth/me", h.Auth.UpdateMe)
	protected.Put("/auth/me/password", h.Auth.ChangePassword)
	protected.Post("/auth/me/avatar", h.Auth.UploadAvatar)
	protected.Get("/auth/redirect", h.Auth.Redirect)
	protected.Get("/users/:id/avatar", h.Auth.Avatar)
	protected.Get("/roles", h.Auth.Roles)

	for _, p := range plugins {
		p.RegisterRoutes(protected, db, cfg)
	}
}
