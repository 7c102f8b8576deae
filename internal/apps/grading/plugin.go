package grading

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
	cache   *cache.Cache
	passing PassingGrader
}

func New(c *cache.Cache, passing PassingGrader) *Plugin {
	return &Plugin{cache: c, passing: passing}
}

func (p *Plugin) ID() string { return "grading" }

func (p *Plugin) Models() []interface{} {
	return []interface{}{&Assessment{}, &Score{}, &GradeWeight{}, &ILO{}}
}

func (p *Plugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	h := NewHandler(NewService(db, sections.NewService(db), p.passing), p.cache)

	router.Get("/section-courses/:id/assessments", h.ListAssessments)
	router.Post("/section-courses/:id/assessments", h.CreateAssessment)
	router.Put("/assessments/:id", h.UpdateAssessment)
	router.Delete("/assessments/:id", h.DeleteAssessment)
	router.Put("/assessments/:id/scores", h.SaveScores)

	router.Get("/section-courses/:id/weights", h.Weights)
	router.Put("/section-courses/:id/weights", h.ReplaceWeights)
	router.Get("/section-courses/:id/grades", h.ClassRecord)
	router.Get("/me/grades", middleware.RoleRequired(cfg, roles.Student), h.Mine)

	router.Get("/section-courses/:id/ilos", h.ListILOs)
	router.Post("/section-courses/:id/ilos", h.CreateILO)
	router.Put("/ilos/:id", h.UpdateILO)
	router.Delete("/ilos/:id", h.DeleteILO)
}
