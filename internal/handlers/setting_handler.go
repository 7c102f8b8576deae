package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/crms/internal/dto"
	"github.com/ahmetcoskunkizilkaya/crms/internal/services"
)

type SettingHandler struct {
	settingService *services.SettingService
}

func NewSettingHandler(settingService *services.SettingService) *SettingHandler {
	return &SettingHandler{settingService: settingService}
}

// Public returns settings flagged public, decoded by type.
func (h *SettingHandler) Public(c *fiber.Ctx) error {
	settings, err := h.settingService.Public()
	if err != nil {
		return Internal(err)
	}
	return c.JSON(dto.DataResponse{Success: true, Data: settings})
}

func (h *SettingHandler) List(c *fiber.Ctx) error {
	settings, err := h.settingService.All()
	if err != nil {
		return Internal(err)
	}
	return c.JSON(dto.ListResponse{Success: true, Items: settings})
}

func (h *SettingHandler) Set(c *fiber.Ctx) error {
	key := c.Params("key")
	if key == "" {
		return Fail(c, fiber.StatusBadRequest, "Key parameter is required")
	}

	var req dto.SetSettingRequest
	if err := Bind(c, &req); err != nil {
		return BadRequest(c, err)
	}

	setting, err := h.settingService.Set(key, &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidSetting) {
			return Fail(c, fiber.StatusBadRequest, err.Error())
		}
		return Internal(err)
	}
	return c.JSON(dto.DataResponse{Success: true, Data: setting})
}

func (h *SettingHandler) Delete(c *fiber.Ctx) error {
	if err := h.settingService.Delete(c.Params("key")); err != nil {
		if errors.Is(err, services.ErrSettingNotFound) {
			return Fail(c, fiber.StatusNotFound, "Setting not found")
		}
		return Internal(err)
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: "Setting deleted"})
}
