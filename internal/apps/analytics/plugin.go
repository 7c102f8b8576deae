package analytics

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/crms/internal/apps/grading"
	"github.com/ahmetcoskunkizilkaya/crms/internal/cache"
	"github.com/ahmetcoskunkizilkaya/crms/internal/config"
)

// Plugin serves the role dashboards. It owns no tables.
type Plugin struct {
	cache   *cache.Cache
	passing grading.PassingGrader
}

func New(c *cache.Cache, passing grading.PassingGrader) *Plugin {
	return &Plugin{cache: c, passing: passing}
}

func (p *Plugin) ID() string { return "analytics" }

func (p *Plugin) Models() []interface{} { return nil }

func (p *Plugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	h := NewHandler(NewService(db, p.cache, p.passing))
	router.Get("/analytics/dashboard", h.Dashboard)
}
