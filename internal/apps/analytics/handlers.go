package analytics

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/crms/internal/apps"
	"github.com/ahmetcoskunkizilkaya/crms/internal/dto"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Dashboard(c *fiber.Ctx) error {
	a, err := apps.Actor(c)
	if err != nil {
		return err
	}
	d, err := h.service.Dashboard(c.UserContext(), a)
	if err != nil {
		return apps.Respond(c, err)
	}
	return c.JSON(dto.DataResponse{Success: true, Data: d})
}
