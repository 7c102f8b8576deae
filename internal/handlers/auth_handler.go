package handlers

import (
	"context"
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/crms/internal/authctx"
	"github.com/ahmetcoskunkizilkaya/crms/internal/dto"
	"github.com/ahmetcoskunkizilkaya/crms/internal/roles"
	"github.com/ahmetcoskunkizilkaya/crms/internal/services"
)

const maxAvatarBytes = 2 * 1024 * 1024

// DashboardInvalidator drops cached dashboard aggregates. *cache.Cache
// implements it.
type DashboardInvalidator interface {
	InvalidateAnalytics(ctx context.Context)
}

type AuthHandler struct {
	authService *services.AuthService
	dashboards  DashboardInvalidator
}

// NewAuthHandler builds the handler. dashboards may be nil.
func NewAuthHandler(authService *services.AuthService, dashboards DashboardInvalidator) *AuthHandler {
	return &AuthHandler{authService: authService, dashboards: dashboards}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := Bind(c, &req); err != nil {
		return BadRequest(c, err)
	}

	user, err := h.authService.Register(&req)
	if err != nil {
		return registrationError(c, err)
	}
	h.pendingChanged(c)

	return c.Status(fiber.StatusCreated).JSON(dto.RegisterResponse{
		Success: true,
		Message: "Registration submitted. Your account is awaiting approval.",
		User:    dto.NewUserResponse(user),
	})
}

func (h *AuthHandler) RegisterStudent(c *fiber.Ctx) error {
	var req dto.StudentRegisterRequest
	if err := Bind(c, &req); err != nil {
		return BadRequest(c, err)
	}

	user, err := h.authService.RegisterStudent(&req)
	if err != nil {
		return registrationError(c, err)
	}
	h.pendingChanged(c)

	return c.Status(fiber.StatusCreated).JSON(dto.RegisterResponse{
		Success: true,
		Message: "Registration submitted. Your account is awaiting approval.",
		User:    dto.NewUserResponse(user),
	})
}

// pendingChanged refreshes the pending approval counts on dashboards.
func (h *AuthHandler) pendingChanged(c *fiber.Ctx) {
	if h.dashboards != nil {
		h.dashboards.InvalidateAnalytics(c.UserContext())
	}
}

func registrationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrStudentNumberTaken),
		errors.Is(err, services.ErrUnknownRole):
		return Fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrRoleNotAllowed):
		return Fail(c, fiber.StatusForbidden, err.Error())
	default:
		return Internal(err)
	}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := Bind(c, &req); err != nil {
		return BadRequest(c, err)
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials),
			errors.Is(err, services.ErrAccountPending),
			errors.Is(err, services.ErrAccountRejected),
			errors.Is(err, services.ErrAccountDisabled):
			return Fail(c, fiber.StatusUnauthorized, err.Error())
		}
		return Internal(err)
	}

	return c.JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := Bind(c, &req); err != nil {
		return BadRequest(c, err)
	}

	resp, err := h.authService.Refresh(&req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			return Fail(c, fiber.StatusUnauthorized, err.Error())
		}
		return Internal(err)
	}

	return c.JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	userID, err := authctx.UserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.LogoutRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return Fail(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}

	if err := h.authService.Logout(userID, req.RefreshToken); err != nil {
		return Internal(err)
	}

	return c.JSON(dto.MessageResponse{Success: true, Message: "Logged out successfully"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := authctx.UserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	user, err := h.authService.Me(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return Fail(c, fiber.StatusNotFound, "User not found")
		}
		return Internal(err)
	}

	return c.JSON(fiber.Map{"success": true, "user": dto.NewUserResponse(user)})
}

func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	userID, err := authctx.UserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.UpdateProfileRequest
	if err := Bind(c, &req); err != nil {
		return BadRequest(c, err)
	}

	user, err := h.authService.UpdateProfile(userID, &req)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return Fail(c, fiber.StatusNotFound, "User not found")
		}
		return Internal(err)
	}

	return c.JSON(fiber.Map{"success": true, "user": dto.NewUserResponse(user)})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	userID, err := authctx.UserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.ChangePasswordRequest
	if err := Bind(c, &req); err != nil {
		return BadRequest(c, err)
	}

	if err := h.authService.ChangePassword(userID, &req); err != nil {
		switch {
		case errors.Is(err, services.ErrWrongPassword):
			return Fail(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrUserNotFound):
			return Fail(c, fiber.StatusNotFound, "User not found")
		}
		return Internal(err)
	}

	return c.JSON(dto.MessageResponse{Success: true, Message: "Password updated"})
}

// UploadAvatar accepts a multipart "avatar" file.
func (h *AuthHandler) UploadAvatar(c *fiber.Ctx) error {
	userID, err := authctx.UserID(c)
	if err != nil {
		return Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		return Fail(c, fiber.StatusBadRequest, "avatar file is required")
	}
	if file.Size > maxAvatarBytes {
		return Fail(c, fiber.StatusRequestEntityTooLarge, "avatar must be at most 2 MB")
	}
	f, err := file.Open()
	if err != nil {
		return Internal(err)
	}
	defer f.Close()

	user, err := h.authService.UploadAvatar(userID, io.LimitReader(f, maxAvatarBytes))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidImage):
			return Fail(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrAvatarNotConfigured):
			return Fail(c, fiber.StatusServiceUnavailable, err.Error())
		}
		return Internal(err)
	}

	return c.JSON(fiber.Map{"success": true, "user": dto.NewUserResponse(user)})
}

func (h *AuthHandler) Avatar(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return Fail(c, fiber.StatusBadRequest, "Invalid user id")
	}

	f, err := h.authService.Avatar(id)
	if err != nil {
		return Fail(c, fiber.StatusNotFound, "Avatar not found")
	}
	defer f.Close()

	body, err := io.ReadAll(f)
	if err != nil {
		return Internal(err)
	}
	c.Set(fiber.HeaderContentType, "image/jpeg")
	return c.Send(body)
}

// Redirect returns the dashboard path for the caller's role.
func (h *AuthHandler) Redirect(c *fiber.Ctx) error {
	role := authctx.Role(c)
	return c.JSON(dto.RedirectResponse{
		Success: true,
		Role:    role,
		Path:    roles.DashboardPath(role),
	})
}

// Roles lists the known roles with their dashboards.
func (h *AuthHandler) Roles(c *fiber.Ctx) error {
	return c.JSON(dto.ListResponse{Success: true, Items: roles.Default().All()})
}
