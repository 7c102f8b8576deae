package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account of any role. Role-specific data lives in Student or is
// derived from section assignments (faculty).
type User struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RoleID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"role_id"`
	DepartmentID  *uuid.UUID     `gorm:"type:uuid;index" json:"department_id"`
	Email         string         `gorm:"not null;size:255;uniqueIndex" json:"email"`
	PasswordHash  string         `gorm:"not null" json:"-"`
	FirstName     string         `gorm:"size:100;not null" json:"first_name"`
	MiddleName    string         `gorm:"size:100" json:"middle_name"`
	LastName      string         `gorm:"size:100;not null" json:"last_name"`
	ContactNumber string         `gorm:"size:30" json:"contact_number"`
	ProfilePic    string         `gorm:"size:255" json:"-"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	LastLoginAt   *time.Time     `json:"last_login_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Role     Role          `gorm:"foreignKey:RoleID" json:"-"`
	Approval *UserApproval `gorm:"foreignKey:UserID" json:"-"`
	Student  *Student      `gorm:"foreignKey:UserID" json:"-"`
}

func (u *User) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{u.FirstName, u.MiddleName, u.LastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// IsApproved reports whether the account may sign in. Accounts without an
// approval row predate the approval workflow and are treated as approved.
func (u *User) IsApproved() bool {
	return u.Approval == nil || u.Approval.Status == ApprovalApproved
}

type Role struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"size:50;not null;uniqueIndex" json:"name"`
	DisplayName string    `gorm:"size:100;not null" json:"display_name"`
	Priority    int       `gorm:"default:0" json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Student struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	StudentNumber string     `gorm:"size:50;not null;uniqueIndex" json:"student_number"`
	ProgramID     *uuid.UUID `gorm:"type:uuid;index" json:"program_id"`
	YearLevel     int        `gorm:"default:1" json:"year_level"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	User    *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Profile *StudentProfile `gorm:"foreignKey:StudentID" json:"profile,omitempty"`
}

type StudentProfile struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StudentID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"student_id"`
	BirthDate       *time.Time `gorm:"type:date" json:"birth_date"`
	Gender          string     `gorm:"size:20" json:"gender"`
	Address         string     `gorm:"size:500" json:"address"`
	GuardianName    string     `gorm:"size:200" json:"guardian_name"`
	GuardianContact string     `gorm:"size:30" json:"guardian_contact"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
