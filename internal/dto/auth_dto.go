package dto

import (
	"time"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Email         string     `json:"email" validate:"required,email,max=255"`
	Password      string     `json:"password" validate:"required,min=8,max=72"`
	FirstName     string     `json:"first_name" validate:"required,max=100"`
	MiddleName    string     `json:"middle_name" validate:"max=100"`
	LastName      string     `json:"last_name" validate:"required,max=100"`
	Role          string     `json:"role" validate:"required"`
	DepartmentID  *uuid.UUID `json:"department_id"`
	ContactNumber string     `json:"contact_number" validate:"max=30"`
}

type StudentRegisterRequest struct {
	StudentNumber   string     `json:"student_number" validate:"required,student_number"`
	Email           string     `json:"email" validate:"required,email,max=255"`
	Password        string     `json:"password" validate:"required,min=8,max=72"`
	FirstName       string     `json:"first_name" validate:"required,max=100"`
	MiddleName      string     `json:"middle_name" validate:"max=100"`
	LastName        string     `json:"last_name" validate:"required,max=100"`
	DepartmentID    *uuid.UUID `json:"department_id"`
	ProgramID       *uuid.UUID `json:"program_id"`
	YearLevel       int        `json:"year_level" validate:"omitempty,min=1,max=6"`
	ContactNumber   string     `json:"contact_number" validate:"max=30"`
	BirthDate       string     `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Gender          string     `json:"gender" validate:"max=20"`
	Address         string     `json:"address" validate:"max=500"`
	GuardianName    string     `json:"guardian_name" validate:"max=200"`
	GuardianContact string     `json:"guardian_contact" validate:"max=30"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type UpdateProfileRequest struct {
	FirstName       *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	MiddleName      *string `json:"middle_name" validate:"omitempty,max=100"`
	LastName        *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	ContactNumber   *string `json:"contact_number" validate:"omitempty,max=30"`
	Address         *string `json:"address" validate:"omitempty,max=500"`
	GuardianName    *string `json:"guardian_name" validate:"omitempty,max=200"`
	GuardianContact *string `json:"guardian_contact" validate:"omitempty,max=30"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72,nefield=CurrentPassword"`
}

type AuthResponse struct {
	Success      bool         `json:"success"`
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         UserResponse `json:"user"`
}

type RegisterResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

// UserResponse is the public shape of a user. It never carries the password hash.
type UserResponse struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	FirstName     string     `json:"first_name"`
	MiddleName    string     `json:"middle_name,omitempty"`
	LastName      string     `json:"last_name"`
	Role          string     `json:"role"`
	RoleName      string     `json:"role_name"`
	DepartmentID  *uuid.UUID `json:"department_id"`
	ContactNumber string     `json:"contact_number,omitempty"`
	ProfilePic    string     `json:"profile_pic,omitempty"`
	Status        string     `json:"status"`
	IsActive      bool       `json:"is_active"`
	StudentNumber string     `json:"student_number,omitempty"`
	ProgramID     *uuid.UUID `json:"program_id,omitempty"`
	YearLevel     int        `json:"year_level,omitempty"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type RedirectResponse struct {
	Success bool   `json:"success"`
	Role    string `json:"role"`
	Path    string `json:"path"`
}
