package academics

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/crms/internal/config"
	"github.com/ahmetcoskunkizilkaya/crms/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/crms/internal/roles"
)

// Plugin serves the catalog: departments, programs, courses and terms.
type Plugin struct{}

func New() *Plugin { return &Plugin{} }

func (p *Plugin) ID() string { return "academics" }

// Catalog tables are migrated with the shared models.
func (p *Plugin) Models() []interface{} { return nil }

func (p *Plugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	h := NewHandler(NewService(db))
	catalog := middleware.RoleRequired(cfg, roles.Admin, roles.Dean, roles.ProgramChair)
	registrar := middleware.RoleRequired(cfg, roles.Admin, roles.Staff)

	router.Get("/departments", h.ListDepartments)
	router.Get("/departments/:id", h.GetDepartment)

	router.Get("/programs", h.ListPrograms)
	router.Get("/programs/:id", h.GetProgram)
	router.Post("/programs", catalog, h.CreateProgram)
	router.Put("/programs/:id", catalog, h.UpdateProgram)
	router.Delete("/programs/:id", catalog, h.DeleteProgram)

	router.Get("/courses", h.ListCourses)
	router.Get("/courses/:id", h.GetCourse)
	router.Post("/courses", catalog, h.CreateCourse)
	router.Put("/courses/:id", catalog, h.UpdateCourse)
	router.Delete("/courses/:id", catalog, h.DeleteCourse)

	router.Get("/terms", h.ListTerms)
	router.Get("/terms/current", h.CurrentTerm)
	router.Post("/terms", registrar, h.CreateTerm)
	router.Put("/terms/:id", registrar, h.UpdateTerm)
	router.Put("/terms/:id/current", registrar, h.SetCurrentTerm)
	router.Delete("/terms/:id", registrar, h.DeleteTerm)
}

func (p *Plugin) RegisterAdminRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	h := NewHandler(NewService(db))
	router.Post("/departments", h.CreateDepartment)
	router.Put("/departments/:id", h.UpdateDepartment)
	router.Delete("/departments/:id", h.DeleteDepartment)
}
