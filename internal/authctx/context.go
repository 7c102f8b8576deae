package authctx

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/crms/internal/roles"
)

// LocalsKey is where the JWT middleware stores the parsed token.
const LocalsKey = "user"

var ErrNoToken = errors.New("invalid token in context")

func claims(c *fiber.Ctx) (jwt.MapClaims, error) {
	token, ok := c.Locals(LocalsKey).(*jwt.Token)
	if !ok || token == nil {
		return nil, ErrNoToken
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return mc, nil
}

// UserID extracts the user UUID from the JWT subject.
func UserID(c *fiber.Ctx) (uuid.UUID, error) {
	mc, err := claims(c)
	if err != nil {
		return uuid.Nil, err
	}
	sub, ok := mc["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}
	return uuid.Parse(sub)
}

// Role returns the normalized role claim, or "" when unauthenticated.
func Role(c *fiber.Ctx) string {
	mc, err := claims(c)
	if err != nil {
		return ""
	}
	role, _ := mc["role"].(string)
	return roles.Normalize(role)
}

func Email(c *fiber.Ctx) string {
	mc, err := claims(c)
	if err != nil {
		return ""
	}
	email, _ := mc["email"].(string)
	return email
}

// DepartmentID returns the department claim when the user belongs to one.
func DepartmentID(c *fiber.Ctx) *uuid.UUID {
	mc, err := claims(c)
	if err != nil {
		return nil
	}
	raw, _ := mc["department_id"].(string)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

// Actor is the authenticated caller as seen by the domain modules.
type Actor struct {
	UserID       uuid.UUID
	Role         string
	DepartmentID *uuid.UUID
}

func CurrentActor(c *fiber.Ctx) (Actor, error) {
	id, err := UserID(c)
	if err != nil {
		return Actor{}, err
	}
	return Actor{UserID: id, Role: Role(c), DepartmentID: DepartmentID(c)}, nil
}

// Is reports whether the actor holds any of the given roles.
func (a Actor) Is(want ...string) bool {
	return roles.Is(a.Role, want...)
}

// InDepartment reports whether the actor may act on records of dept. Actors
// without a department are not restricted.
func (a Actor) InDepartment(dept *uuid.UUID) bool {
	if a.DepartmentID == nil || dept == nil {
		return true
	}
	return *a.DepartmentID == *dept
}
