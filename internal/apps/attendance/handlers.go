package attendance

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/crms/internal/apps"
	"github.com/ahmetcoskunkizilkaya/crms/internal/cache"
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

// RecordSession handles POST /section-courses/:id/attendance.
func (h *Handler) RecordSession(c *fiber.Ctx) error {
	a, err := apps.Actor(c)
	if err != nil {
		return err
	}
	classID, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	var req SessionRequest
	if err := handlers.Bind(c, &req); err != nil {
		return handlers.BadRequest(c, err)
	}
	session, err := h.service.RecordSession(a, classID, &req)
	if err != nil {
		return apps.Respond(c, err)
	}
	h.cache.InvalidateAnalytics(c.UserContext())
	return c.Status(fiber.StatusCreated).JSON(dto.DataResponse{Success: true, Data: session})
}

func (h *Handler) ListSessions(c *fiber.Ctx) error {
	a, err := apps.Actor(c)
	if err != nil {
		return err
	}
	classID, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	sessions, err := h.service.ListSessions(a, classID)
	if err != nil {
		return apps.Respond(c, err)
	}
	return c.JSON(dto.ListResponse{Success: true, Items: sessions})
}

func (h *Handler) GetSession(c *fiber.Ctx) error {
	a, err := apps.Actor(c)
	if err != nil {
		return err
	}
	id, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	session, err := h.service.GetSession(a, id)
	if err != nil {
		return apps.Respond(c, err)
	}
	return c.JSON(dto.DataResponse{Success: true, Data: session})
}

func (h *Handler) UpdateRecords(c *fiber.Ctx) error {
	a, err := apps.Actor(c)
	if err != nil {
		return err
	}
	id, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	var req RecordsRequest
	if err := handlers.Bind(c, &req); err != nil {
		return handlers.BadRequest(c, err)
	}
	session, err := h.service.UpdateRecords(a, id, req.Records)
	if err != nil {
		return apps.Respond(c, err)
	}
	h.cache.InvalidateAnalytics(c.UserContext())
	return c.JSON(dto.DataResponse{Success: true, Data: session})
}

func (h *Handler) DeleteSession(c *fiber.Ctx) error {
	a, err := apps.Actor(c)
	if err != nil {
		return err
	}
	id, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	if err := h.service.DeleteSession(a, id); err != nil {
		return apps.Respond(c, err)
	}
	h.cache.InvalidateAnalytics(c.UserContext())
	return c.JSON(dto.MessageResponse{Success: true, Message: "Session deleted"})
}

func (h *Handler) Summary(c *fiber.Ctx) error {
	a, err := apps.Actor(c)
	if err != nil {
		return err
	}
	classID, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	students, overall, err := h.service.ClassReport(a, classID)
	if err != nil {
		return apps.Respond(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "items": students, "overall": overall})
}

func (h *Handler) Mine(c *fiber.Ctx) error {
	a, err := apps.Actor(c)
	if err != nil {
		return err
	}
	items, err := h.service.MyAttendance(a)
	if err != nil {
		return apps.Respond(c, err)
	}
	return c.JSON(dto.ListResponse{Success: true, Items: items})
}
