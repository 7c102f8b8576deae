package repository

import (
	"errors"

	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/crms/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository is the account store used by the auth service.
// Users returned by Find* have Role, Approval and Student (with Profile) loaded.
type UserRepository interface {
	FindUserByEmail(email string) (*models.User, error)
	FindUserByID(id uuid.UUID) (*models.User, error)
	EmailExists(email string) (bool, error)
	StudentNumberExists(number string) (bool, error)
	RoleByName(name string) (*models.Role, error)

	// CreateUser inserts the user and its approval row atomically.
	CreateUser(user *models.User, approval *models.UserApproval) error
	// CreateStudent inserts user, student, profile and approval atomically.
	CreateStudent(user *models.User, student *models.Student, profile *models.StudentProfile, approval *models.UserApproval) error
	// UpdateUser writes the named columns of user.
	UpdateUser(user *models.User, columns ...string) error
	SaveStudentProfile(profile *models.StudentProfile) error

	SaveRefreshToken(token *models.RefreshToken) error
	// FindRefreshToken returns the non-revoked token with the given hash.
	FindRefreshToken(hash string) (*models.RefreshToken, error)
	RevokeRefreshToken(hash string) error
	RevokeUserTokens(userID uuid.UUID) error
}
