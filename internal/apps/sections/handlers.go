package sections

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/crms/internal/apps"
	"github.com/ahmetcoskunkizilkaya/crms/internal/cache"
	"github.com/ahmetcoskunkizilkaya/crms/internal/database"
	"github.com/ahmetcoskunkizilkaya/crms/internal/dto"
	"github.com/ahmetcoskunkizilkaya/crms/internal/handlers"
)

type Handler struct {
	service *Service
	cache   *cache.Cache
}

func NewHandler(service *Service, c *cache.Cache) *Handler {
	return &Handler{service: service, cache: c}
}

func (h *Handler) ListSections(c *fiber.Ctx) error {
	a, err := apps.Actor(c)
	if err != nil {
		return err
	}
	page, pageSize := database.NormalizePage(c.QueryInt("page", 1), c.QueryInt("page_size", database.DefaultPageSize))
	f := SectionFilter{Search: c.Query("q"), Page: page, PageSize: pageSize}
	if f.ProgramID, err = apps.QueryID(c, "program_id"); err != nil {
		return apps.Respond(c, err)
	}
	if f.TermID, err = apps.QueryID(c, "term_id"); err != nil {
		return apps.Respond(c, err)
	}
	items, total, err := h.service.ListSections(a, f)
	if err != nil {
		return apps.Respond(c, err)
	}
	return c.JSON(dto.ListResponse{Success: true, Items: items, Pager: dto.NewPager(page, pageSize, total)})
}

func (h *Handler) GetSection(c *fiber.Ctx) error {
	id, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	sec, err := h.service.GetSection(id)
	if err != nil {
		return apps.Respond(c, err)
	}
	classes, err := h.service.SectionClasses(id)
	if err != nil {
		return apps.Respond(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": sec, "classes": classes})
}

func (h *Handler) CreateSection(c *fiber.Ctx) error {
	a, err := apps.Actor(c)
	if err != nil {
		return err
	}
	var req SectionRequest
	if err := handlers.Bind(c, &req); err != nil {
		return handlers.BadRequest(c, err)
	}
	sec, err := h.service.CreateSection(a, &req)
	if err != nil {
		return apps.Respond(c, err)
	}
	h.cache.InvalidateAnalytics(c.UserContext())
	return c.Status(fiber.StatusCreated).JSON(dto.DataResponse{Success: true, Data: sec})
}

func (h *Handler) UpdateSection(c *fiber.Ctx) error {
	a, err := apps.Actor(c)
	if err != nil {
		return err
	}
	id, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	var req SectionRequest
	if err := handlers.Bind(c, &req); err != nil {
		return handlers.BadRequest(c, err)
	}
	sec, err := h.service.UpdateSection(a, id, &req)
	if err != nil {
		return apps.Respond(c, err)
	}
	return c.JSON(dto.DataResponse{Success: true, Data: sec})
}

func (h *Handler) DeleteSection(c *fiber.Ctx) error {
	a, err := apps.Actor(c)
	if err != nil {
		return err
	}
	id, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	if err := h.service.DeleteSection(a, id); err != nil {
		return apps.Respond(c, err)
	}
	h.cache.InvalidateAnalytics(c.UserContext())
	return c.JSON(dto.MessageResponse{Success: true, Message: "Section deleted"})
}

func (h *Handler) AssignCourse(c *fiber.Ctx) error {
	a, err := apps.Actor(c)
	if err != nil {
		return err
	}
	id, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	var req ClassRequest
	if err := handlers.Bind(c, &req); err != nil {
		return handlers.BadRequest(c, err)
	}
	sc, err := h.service.AssignCourse(a, id, &req)
	if err != nil {
		return apps.Respond(c, err)
	}
	h.cache.InvalidateAnalytics(c.UserContext())
	return c.Status(fiber.StatusCreated).JSON(dto.DataResponse{Success: true, Data: sc})
}

func (h *Handler) GetClass(c *fiber.Ctx) error {
	a, err := apps.Actor(c)
	if err != nil {
		return err
	}
	id, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	sc, err := h.service.ViewableClass(a, id)
	if err != nil {
		return apps.Respond(c, err)
	}
	return c.JSON(dto.DataResponse{Success: true, Data: sc})
}

func (h *Handler) UpdateClass(c *fiber.Ctx) error {
	a, err := apps.Actor(c)
	if err != nil {
		return err
	}
	id, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	var req ClassRequest
	if err := handlers.Bind(c, &req); err != nil {
		return handlers.BadRequest(c, err)
	}
	sc, err := h.service.UpdateClass(a, id, &req)
	if err != nil {
		return apps.Respond(c, err)
	}
	h.cache.InvalidateAnalytics(c.UserContext())
	return c.JSON(dto.DataResponse{Success: true, Data: sc})
}

func (h *Handler) DeleteClass(c *fiber.Ctx) error {
	a, err := apps.Actor(c)
	if err != nil {
		return err
	}
	id, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	if err := h.service.DeleteClass(a, id); err != nil {
		return apps.Respond(c, err)
	}
	h.cache.InvalidateAnalytics(c.UserContext())
	return c.JSON(dto.MessageResponse{Success: true, Message: "Class deleted"})
}

func (h *Handler) Students(c *fiber.Ctx) error {
	a, err := apps.Actor(c)
	if err != nil {
		return err
	}
	id, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	if _, err := h.service.TeachableClass(a, id); err != nil {
		return apps.Respond(c, err)
	}
	roster, err := h.service.Roster(id)
	if err != nil {
		return apps.Respond(c, err)
	}
	return c.JSON(dto.ListResponse{Success: true, Items: roster})
}

func (h *Handler) Enroll(c *fiber.Ctx) error {
	a, err := apps.Actor(c)
	if err != nil {
		return err
	}
	id, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	var req EnrollRequest
	if err := handlers.Bind(c, &req); err != nil {
		return handlers.BadRequest(c, err)
	}
	result, err := h.service.Enroll(a, id, req.StudentIDs)
	if err != nil {
		return apps.Respond(c, err)
	}
	h.cache.InvalidateAnalytics(c.UserContext())
	return c.JSON(dto.DataResponse{Success: true, Data: result})
}

func (h *Handler) Drop(c *fiber.Ctx) error {
	a, err := apps.Actor(c)
	if err != nil {
		return err
	}
	id, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	studentID, err := apps.ParamID(c, "student_id")
	if err != nil {
		return apps.Respond(c, err)
	}
	if err := h.service.Drop(a, id, studentID); err != nil {
		return apps.Respond(c, err)
	}
	h.cache.InvalidateAnalytics(c.UserContext())
	return c.JSON(dto.MessageResponse{Success: true, Message: "Student dropped"})
}

func (h *Handler) MyClasses(c *fiber.Ctx) error {
	a, err := apps.Actor(c)
	if err != nil {
		return err
	}
	classes, err := h.service.MyClasses(a)
	if err != nil {
		return apps.Respond(c, err)
	}
	return c.JSON(dto.ListResponse{Success: true, Items: classes})
}
