package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/crms/internal/authctx"
	"github.com/ahmetcoskunkizilkaya/crms/internal/cache"
	"github.com/ahmetcoskunkizilkaya/crms/internal/database"
	"github.com/ahmetcoskunkizilkaya/crms/internal/dto"
	"github.com/ahmetcoskunkizilkaya/crms/internal/services"
)

// UserHandler serves the admin user and approval management endpoints.
type UserHandler struct {
	userService *services.UserService
	cache       *cache.Cache
}

func NewUserHandler(userService *services.UserService, c *cache.Cache) *UserHandler {
	return &UserHandler{userService: userService, cache: c}
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	page, pageSize := database.NormalizePage(c.QueryInt("page", 1), c.QueryInt("page_size", database.DefaultPageSize))
	filter := services.UserFilter{
		Role:     c.Query("role"),
		Status:   c.Query("status"),
		Search:   c.Query("q"),
		Page:     page,
		PageSize: pageSize,
	}
	if raw := c.Query("department_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Fail(c, fiber.StatusBadRequest, "Invalid department_id")
		}
		filter.DepartmentID = &id
	}

	users, total, err := h.userService.List(filter)
	if err != nil {
		return Internal(err)
	}

	return c.JSON(dto.ListResponse{
		Success: true,
		Items:   dto.NewUserResponses(users),
		Pager:   dto.NewPager(page, pageSize, total),
	})
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return Fail(c, fiber.StatusBadRequest, "Invalid user id")
	}
	user, err := h.userService.Get(id)
	if err != nil {
		return h.userError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "user": dto.NewUserResponse(user)})
}

func (h *UserHandler) Approvals(c *fiber.Ctx) error {
	page, pageSize := database.NormalizePage(c.QueryInt("page", 1), c.QueryInt("page_size", database.DefaultPageSize))
	users, total, err := h.userService.PendingApprovals(page, pageSize)
	if err != nil {
		return Internal(err)
	}
	return c.JSON(dto.ListResponse{
		Success: true,
		Items:   dto.NewUserResponses(users),
		Pager:   dto.NewPager(page, pageSize, total),
	})
}

func (h *UserHandler) Review(c *fiber.Ctx) error {
	actorID, err := authctx.UserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	userID, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return Fail(c, fiber.StatusBadRequest, "Invalid user id")
	}

	var req dto.ReviewApprovalRequest
	if err := Bind(c, &req); err != nil {
		return BadRequest(c, err)
	}

	user, err := h.userService.Review(actorID, userID, req.Status, req.Note)
	if err != nil {
		return h.userError(c, err)
	}
	h.invalidate(c)
	return c.JSON(fiber.Map{"success": true, "user": dto.NewUserResponse(user)})
}

func (h *UserHandler) SetRole(c *fiber.Ctx) error {
	actorID, err := authctx.UserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return Fail(c, fiber.StatusBadRequest, "Invalid user id")
	}

	var req dto.UpdateRoleRequest
	if err := Bind(c, &req); err != nil {
		return BadRequest(c, err)
	}

	user, err := h.userService.SetRole(actorID, userID, req.Role)
	if err != nil {
		return h.userError(c, err)
	}
	h.invalidate(c)
	return c.JSON(fiber.Map{"success": true, "user": dto.NewUserResponse(user)})
}

func (h *UserHandler) SetActive(c *fiber.Ctx) error {
	actorID, err := authctx.UserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return Fail(c, fiber.StatusBadRequest, "Invalid user id")
	}

	var req dto.SetActiveRequest
	if err := Bind(c, &req); err != nil {
		return BadRequest(c, err)
	}

	user, err := h.userService.SetActive(actorID, userID, *req.Active)
	if err != nil {
		return h.userError(c, err)
	}
	h.invalidate(c)
	return c.JSON(fiber.Map{"success": true, "user": dto.NewUserResponse(user)})
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	actorID, err := authctx.UserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return Fail(c, fiber.StatusBadRequest, "Invalid user id")
	}

	if err := h.userService.Delete(actorID, userID); err != nil {
		return h.userError(c, err)
	}
	h.invalidate(c)
	return c.JSON(dto.MessageResponse{Success: true, Message: "User deleted"})
}

func (h *UserHandler) userError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return Fail(c, fiber.StatusNotFound, "User not found")
	case errors.Is(err, services.ErrSelfAction), errors.Is(err, services.ErrUnknownRole):
		return Fail(c, fiber.StatusBadRequest, err.Error())
	default:
		return Internal(err)
	}
}

func (h *UserHandler) invalidate(c *fiber.Ctx) {
	h.cache.InvalidateAnalytics(c.UserContext())
}
