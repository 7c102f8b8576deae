package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/crms/internal/authctx"
	"github.com/ahmetcoskunkizilkaya/crms/internal/config"
	"github.com/ahmetcoskunkizilkaya/crms/internal/dto"
	"github.com/ahmetcoskunkizilkaya/crms/internal/roles"
	"github.com/ahmetcoskunkizilkaya/crms/internal/services"
)

// RoleRequired lets the request through when the token's role is one of
// allowed. Emails listed in ADMIN_EMAILS always pass.
func RoleRequired(cfg *config.Config, allowed ...string) fiber.Handler {
	adminEmails := services.ParseCSV(cfg.AdminEmails)

	return func(c *fiber.Ctx) error {
		role := authctx.Role(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: "Unauthorized",
			})
		}

		if roles.Is(role, allowed...) {
			return c.Next()
		}
		if services.ContainsFold(adminEmails, authctx.Email(c)) {
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: "You do not have access to this resource",
		})
	}
}

// AdminRequired is RoleRequired(admin).
func AdminRequired(cfg *config.Config) fiber.Handler {
	return RoleRequired(cfg, roles.Admin)
}
