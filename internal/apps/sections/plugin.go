package sections

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/crms/internal/cache"
	"github.com/ahmetcoskunkizilkaya/crms/internal/config"
	"github.com/ahmetcoskunkizilkaya/crms/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/crms/internal/roles"
)

// Managers create sections, assign classes and enroll students. Deans and
// program chairs are further limited to their department by the service.
var Managers = []string{roles.Admin, roles.Staff, roles.Dean, roles.ProgramChair}

type Plugin struct {
	cache *cache.Cache
}

func New(c *cache.Cache) *Plugin { return &Plugin{cache: c} }

func (p *Plugin) ID() string { return "sections" }

func (p *Plugin) Models() []interface{} {
	return []interface{}{&Section{}, &SectionCourse{}, &Enrollment{}}
}

func (p *Plugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	h := NewHandler(NewService(db), p.cache)
	manage := middleware.RoleRequired(cfg, Managers...)

	router.Get("/sections", manage, h.ListSections)
	router.Get("/sections/:id", manage, h.GetSection)
	router.Post("/sections", manage, h.CreateSection)
	router.Put("/sections/:id", manage, h.UpdateSection)
	router.Delete("/sections/:id", manage, h.DeleteSection)
	router.Post("/sections/:id/courses", manage, h.AssignCourse)

	router.Get("/section-courses/:id", h.GetClass)
	router.Put("/section-courses/:id", manage, h.UpdateClass)
	router.Delete("/section-courses/:id", manage, h.DeleteClass)
	router.Get("/section-courses/:id/students", h.Students)
	router.Post("/section-courses/:id/enrollments", manage, h.Enroll)
	router.Delete("/section-courses/:id/enrollments/:student_id", manage, h.Drop)

	router.Get("/me/classes", h.MyClasses)
}
