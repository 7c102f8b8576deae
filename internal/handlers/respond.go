package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/crms/internal/dto"
	"github.com/ahmetcoskunkizilkaya/crms/internal/validation"
)

var errBadBody = errors.New("invalid request body")

// Bind parses the JSON body into req and validates it.
func Bind(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return errBadBody
	}
	return validation.Struct(req)
}

// BadRequest writes the 400 envelope for a Bind failure.
func BadRequest(c *fiber.Ctx, err error) error {
	var verr *validation.Error
	if errors.As(err, &verr) {
		msg := "Validation failed"
		if len(verr.Fields) > 0 {
			msg = verr.Fields[0].Error
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: msg, Fields: verr.Fields,
		})
	}
	return Fail(c, fiber.StatusBadRequest, "Invalid request body")
}

func Fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: message})
}

// Internal hides err from the client. The error handler logs it.
func Internal(err error) error {
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
