package attendance

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/crms/internal/apps/sections"
	"github.com/ahmetcoskunkizilkaya/crms/internal/cache"
	"github.com/ahmetcoskunkizilkaya/crms/internal/config"
	"github.com/ahmetcoskunkizilkaya/crms/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/crms/internal/roles"
)

type Plugin struct {
	cache *cache.Cache
}

func New(c *cache.Cache) *Plugin { return &Plugin{cache: c} }

func (p *Plugin) ID() string { return "attendance" }

func (p *Plugin) Models() []interface{} {
	return []interface{}{&Session{}, &Record{}}
}

func (p *Plugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	h := NewHandler(NewService(db, sections.NewService(db)), p.cache)

	router.Post("/section-courses/:id/attendance", h.RecordSession)
	router.Get("/section-courses/:id/attendance", h.ListSessions)
	router.Get("/section-courses/:id/attendance/summary", h.Summary)
	router.Get("/attendance/sessions/:id", h.GetSession)
	router.Put("/attendance/sessions/:id/records", h.UpdateRecords)
	router.Delete("/attendance/sessions/:id", h.DeleteSession)
	router.Get("/me/attendance", middleware.RoleRequired(cfg, roles.Student), h.Mine)
}
