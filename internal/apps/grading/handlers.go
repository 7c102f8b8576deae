package grading

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/crms/internal/apps"
	"github.com/ahmetcoskunkizilkaya/crms/internal/authctx"
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

type actorID struct {
	actor authctx.Actor
	id    uuid.UUID
}

// withClass resolves the actor and the :id parameter shared by every
// route of this module.
func withClass(c *fiber.Ctx, fn func(a actorID) error) error {
	a, err := apps.Actor(c)
	if err != nil {
		return err
	}
	id, err := apps.ParamID(c, "id")
	if err != nil {
		return apps.Respond(c, err)
	}
	return fn(actorID{actor: a, id: id})
}

func (h *Handler) ListAssessments(c *fiber.Ctx) error {
	return withClass(c, func(r actorID) error {
		items, err := h.service.ListAssessments(r.actor, r.id)
		if err != nil {
			return apps.Respond(c, err)
		}
		return c.JSON(dto.ListResponse{Success: true, Items: items})
	})
}

func (h *Handler) CreateAssessment(c *fiber.Ctx) error {
	return withClass(c, func(r actorID) error {
		var req AssessmentRequest
		if err := handlers.Bind(c, &req); err != nil {
			return handlers.BadRequest(c, err)
		}
		a, err := h.service.CreateAssessment(r.actor, r.id, &req)
		if err != nil {
			return apps.Respond(c, err)
		}
		h.cache.InvalidateAnalytics(c.UserContext())
		return c.Status(fiber.StatusCreated).JSON(dto.DataResponse{Success: true, Data: a})
	})
}

func (h *Handler) UpdateAssessment(c *fiber.Ctx) error {
	return withClass(c, func(r actorID) error {
		var req AssessmentRequest
		if err := handlers.Bind(c, &req); err != nil {
			return handlers.BadRequest(c, err)
		}
		a, err := h.service.UpdateAssessment(r.actor, r.id, &req)
		if err != nil {
			return apps.Respond(c, err)
		}
		h.cache.InvalidateAnalytics(c.UserContext())
		return c.JSON(dto.DataResponse{Success: true, Data: a})
	})
}

func (h *Handler) DeleteAssessment(c *fiber.Ctx) error {
	return withClass(c, func(r actorID) error {
		if err := h.service.DeleteAssessment(r.actor, r.id); err != nil {
			return apps.Respond(c, err)
		}
		h.cache.InvalidateAnalytics(c.UserContext())
		return c.JSON(dto.MessageResponse{Success: true, Message: "Assessment deleted"})
	})
}

func (h *Handler) SaveScores(c *fiber.Ctx) error {
	return withClass(c, func(r actorID) error {
		var req ScoresRequest
		if err := handlers.Bind(c, &req); err != nil {
			return handlers.BadRequest(c, err)
		}
		scores, err := h.service.SaveScores(r.actor, r.id, req.Scores)
		if err != nil {
			return apps.Respond(c, err)
		}
		h.cache.InvalidateAnalytics(c.UserContext())
		return c.JSON(dto.ListResponse{Success: true, Items: scores})
	})
}

func (h *Handler) Weights(c *fiber.Ctx) error {
	return withClass(c, func(r actorID) error {
		items, err := h.service.Weights(r.actor, r.id)
		if err != nil {
			return apps.Respond(c, err)
		}
		return c.JSON(dto.ListResponse{Success: true, Items: items})
	})
}

func (h *Handler) ReplaceWeights(c *fiber.Ctx) error {
	return withClass(c, func(r actorID) error {
		var req WeightsRequest
		if err := handlers.Bind(c, &req); err != nil {
			return handlers.BadRequest(c, err)
		}
		items, err := h.service.ReplaceWeights(r.actor, r.id, req.Weights)
		if err != nil {
			return apps.Respond(c, err)
		}
		h.cache.InvalidateAnalytics(c.UserContext())
		return c.JSON(dto.ListResponse{Success: true, Items: items})
	})
}

func (h *Handler) ClassRecord(c *fiber.Ctx) error {
	return withClass(c, func(r actorID) error {
		record, err := h.service.ClassRecord(r.actor, r.id)
		if err != nil {
			return apps.Respond(c, err)
		}
		return c.JSON(dto.DataResponse{Success: true, Data: record})
	})
}

func (h *Handler) Mine(c *fiber.Ctx) error {
	a, err := apps.Actor(c)
	if err != nil {
		return err
	}
	items, err := h.service.MyGrades(a)
	if err != nil {
		return apps.Respond(c, err)
	}
	return c.JSON(dto.ListResponse{Success: true, Items: items})
}

func (h *Handler) ListILOs(c *fiber.Ctx) error {
	return withClass(c, func(r actorID) error {
		items, err := h.service.ListILOs(r.actor, r.id)
		if err != nil {
			return apps.Respond(c, err)
		}
		return c.JSON(dto.ListResponse{Success: true, Items: items})
	})
}

func (h *Handler) CreateILO(c *fiber.Ctx) error {
	return withClass(c, func(r actorID) error {
		var req ILORequest
		if err := handlers.Bind(c, &req); err != nil {
			return handlers.BadRequest(c, err)
		}
		ilo, err := h.service.CreateILO(r.actor, r.id, &req)
		if err != nil {
			return apps.Respond(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(dto.DataResponse{Success: true, Data: ilo})
	})
}

func (h *Handler) UpdateILO(c *fiber.Ctx) error {
	return withClass(c, func(r actorID) error {
		var req ILORequest
		if err := handlers.Bind(c, &req); err != nil {
			return handlers.BadRequest(c, err)
		}
		ilo, err := h.service.UpdateILO(r.actor, r.id, &req)
		if err != nil {
			return apps.Respond(c, err)
		}
		return c.JSON(dto.DataResponse{Success: true, Data: ilo})
	})
}

func (h *Handler) DeleteILO(c *fiber.Ctx) error {
	return withClass(c, func(r actorID) error {
		if err := h.service.DeleteILO(r.actor, r.id); err != nil {
			return apps.Respond(c, err)
		}
		return c.JSON(dto.MessageResponse{Success: true, Message: "ILO deleted"})
	})
}
