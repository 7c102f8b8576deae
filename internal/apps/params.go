package apps

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/crms/internal/authctx"
)

// ParamID parses a UUID path parameter.
func ParamID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, Invalid("invalid " + name)
	}
	return id, nil
}

// QueryID parses an optional UUID query parameter.
func QueryID(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, Invalid("invalid " + name)
	}
	return &id, nil
}

// Actor returns the authenticated caller, or a 401 fiber error.
func Actor(c *fiber.Ctx) (authctx.Actor, error) {
	a, err := authctx.CurrentActor(c)
	if err != nil {
		return a, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
	return a, nil
}
