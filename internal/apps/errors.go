package apps

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/crms/internal/database"
	"github.com/ahmetcoskunkizilkaya/crms/internal/handlers"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("you do not have access to this resource")
	ErrConflict  = errors.New("record already exists")
	ErrInvalid   = errors.New("invalid request")
)

// InvalidError carries a client-facing message for ErrInvalid.
type InvalidError struct {
	Msg string
}

func (e *InvalidError) Error() string { return e.Msg }

func (e *InvalidError) Unwrap() error { return ErrInvalid }

func Invalid(msg string) error { return &InvalidError{Msg: msg} }

// Respond maps a module service error to the shared error envelope.
func Respond(c *fiber.Ctx, err error) error {
	var inv *InvalidError
	switch {
	case errors.As(err, &inv):
		return handlers.Fail(c, fiber.StatusBadRequest, inv.Msg)
	case errors.Is(err, ErrNotFound):
		return handlers.Fail(c, fiber.StatusNotFound, "Not found")
	case errors.Is(err, ErrForbidden):
		return handlers.Fail(c, fiber.StatusForbidden, ErrForbidden.Error())
	case errors.Is(err, ErrConflict), database.IsUniqueViolation(err):
		return handlers.Fail(c, fiber.StatusConflict, ErrConflict.Error())
	case errors.Is(err, ErrInvalid), database.IsForeignKeyViolation(err):
		return handlers.Fail(c, fiber.StatusBadRequest, ErrInvalid.Error())
	default:
		return handlers.Internal(err)
	}
}
