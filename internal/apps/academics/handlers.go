package academics

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/crms/internal/apps"
	"github.com/ahmetcoskunkizilkaya/crms/internal/database"
	"github.com/ahmetcoskunkizilkaya/crms/internal/dto"
	"github.com/ahmetcoskunkizilkaya/crms/internal/handlers"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func ok(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(dto.DataResponse{Success: true, Data: data})
}

func deleted(c *fiber.Ctx) error {
	return c.JSON(dto.MessageResponse{Success: true, Message: "Deleted"})
}

// --- Departments ---

func (h *Handler) ListDepartments(c *fiber.Ctx) error {
	items, err := h.service.ListDepartments()
	if err != nil {
		return apps.Respond(c, err)
	}
	return c.JSON(dto.ListResponse{Success: true, Items: items})
}

func (h *Handler) GetDepartment(c *fiber.Ctx) error {
	id, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	d, err := h.service.GetDepartment(id)
	if err != nil {
		return apps.Respond(c, err)
	}
	return ok(c, fiber.StatusOK, d)
}

func (h *Handler) CreateDepartment(c *fiber.Ctx) error {
	var req DepartmentRequest
	if err := handlers.Bind(c, &req); err != nil {
		return handlers.BadRequest(c, err)
	}
	d, err := h.service.CreateDepartment(&req)
	if err != nil {
		return apps.Respond(c, err)
	}
	return ok(c, fiber.StatusCreated, d)
}

func (h *Handler) UpdateDepartment(c *fiber.Ctx) error {
	id, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	var req DepartmentRequest
	if err := handlers.Bind(c, &req); err != nil {
		return handlers.BadRequest(c, err)
	}
	d, err := h.service.UpdateDepartment(id, &req)
	if err != nil {
		return apps.Respond(c, err)
	}
	return ok(c, fiber.StatusOK, d)
}

func (h *Handler) DeleteDepartment(c *fiber.Ctx) error {
	id, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	if err := h.service.DeleteDepartment(id); err != nil {
		return apps.Respond(c, err)
	}
	return deleted(c)
}

// --- Programs ---

func (h *Handler) ListPrograms(c *fiber.Ctx) error {
	dept, err := apps.QueryID(c, "department_id")
	if err != nil {
		return apps.Respond(c, err)
	}
	items, err := h.service.ListPrograms(dept)
	if err != nil {
		return apps.Respond(c, err)
	}
	return c.JSON(dto.ListResponse{Success: true, Items: items})
}

func (h *Handler) GetProgram(c *fiber.Ctx) error {
	id, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	p, err := h.service.GetProgram(id)
	if err != nil {
		return apps.Respond(c, err)
	}
	return ok(c, fiber.StatusOK, p)
}

func (h *Handler) CreateProgram(c *fiber.Ctx) error {
	actor, err := apps.Actor(c)
	if err != nil {
		return err
	}
	var req ProgramRequest
	if err := handlers.Bind(c, &req); err != nil {
		return handlers.BadRequest(c, err)
	}
	p, err := h.service.CreateProgram(actor, &req)
	if err != nil {
		return apps.Respond(c, err)
	}
	return ok(c, fiber.StatusCreated, p)
}

func (h *Handler) UpdateProgram(c *fiber.Ctx) error {
	actor, err := apps.Actor(c)
	if err != nil {
		return err
	}
	id, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	var req ProgramRequest
	if err := handlers.Bind(c, &req); err != nil {
		return handlers.BadRequest(c, err)
	}
	p, err := h.service.UpdateProgram(actor, id, &req)
	if err != nil {
		return apps.Respond(c, err)
	}
	return ok(c, fiber.StatusOK, p)
}

func (h *Handler) DeleteProgram(c *fiber.Ctx) error {
	actor, err := apps.Actor(c)
	if err != nil {
		return err
	}
	id, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	if err := h.service.DeleteProgram(actor, id); err != nil {
		return apps.Respond(c, err)
	}
	return deleted(c)
}

// --- Courses ---

func (h *Handler) ListCourses(c *fiber.Ctx) error {
	dept, err := apps.QueryID(c, "department_id")
	if err != nil {
		return apps.Respond(c, err)
	}
	page, pageSize := database.NormalizePage(c.QueryInt("page", 1), c.QueryInt("page_size", database.DefaultPageSize))
	items, total, err := h.service.ListCourses(dept, c.Query("q"), page, pageSize)
	if err != nil {
		return apps.Respond(c, err)
	}
	return c.JSON(dto.ListResponse{Success: true, Items: items, Pager: dto.NewPager(page, pageSize, total)})
}

func (h *Handler) GetCourse(c *fiber.Ctx) error {
	id, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	course, err := h.service.GetCourse(id)
	if err != nil {
		return apps.Respond(c, err)
	}
	return ok(c, fiber.StatusOK, course)
}

func (h *Handler) CreateCourse(c *fiber.Ctx) error {
	actor, err := apps.Actor(c)
	if err != nil {
		return err
	}
	var req CourseRequest
	if err := handlers.Bind(c, &req); err != nil {
		return handlers.BadRequest(c, err)
	}
	course, err := h.service.CreateCourse(actor, &req)
	if err != nil {
		return apps.Respond(c, err)
	}
	return ok(c, fiber.StatusCreated, course)
}

func (h *Handler) UpdateCourse(c *fiber.Ctx) error {
	actor, err := apps.Actor(c)
	if err != nil {
		return err
	}
	id, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	var req CourseRequest
	if err := handlers.Bind(c, &req); err != nil {
		return handlers.BadRequest(c, err)
	}
	course, err := h.service.UpdateCourse(actor, id, &req)
	if err != nil {
		return apps.Respond(c, err)
	}
	return ok(c, fiber.StatusOK, course)
}

func (h *Handler) DeleteCourse(c *fiber.Ctx) error {
	actor, err := apps.Actor(c)
	if err != nil {
		return err
	}
	id, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	if err := h.service.DeleteCourse(actor, id); err != nil {
		return apps.Respond(c, err)
	}
	return deleted(c)
}

// --- Terms ---

func (h *Handler) ListTerms(c *fiber.Ctx) error {
	items, err := h.service.ListTerms()
	if err != nil {
		return apps.Respond(c, err)
	}
	return c.JSON(dto.ListResponse{Success: true, Items: items})
}

func (h *Handler) CurrentTerm(c *fiber.Ctx) error {
	t, err := h.service.CurrentTerm()
	if err != nil {
		return apps.Respond(c, err)
	}
	return ok(c, fiber.StatusOK, t)
}

func (h *Handler) CreateTerm(c *fiber.Ctx) error {
	var req TermRequest
	if err := handlers.Bind(c, &req); err != nil {
		return handlers.BadRequest(c, err)
	}
	t, err := h.service.CreateTerm(&req)
	if err != nil {
		return apps.Respond(c, err)
	}
	return ok(c, fiber.StatusCreated, t)
}

func (h *Handler) UpdateTerm(c *fiber.Ctx) error {
	id, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	var req TermRequest
	if err := handlers.Bind(c, &req); err != nil {
		return handlers.BadRequest(c, err)
	}
	t, err := h.service.UpdateTerm(id, &req)
	if err != nil {
		return apps.Respond(c, err)
	}
	return ok(c, fiber.StatusOK, t)
}

func (h *Handler) SetCurrentTerm(c *fiber.Ctx) error {
	id, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	t, err := h.service.SetCurrentTerm(id)
	if err != nil {
		return apps.Respond(c, err)
	}
	return ok(c, fiber.StatusOK, t)
}

func (h *Handler) DeleteTerm(c *fiber.Ctx) error {
	id, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	if err := h.service.DeleteTerm(id); err != nil {
		return apps.Respond(c, err)
	}
	return deleted(c)
}
