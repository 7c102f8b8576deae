package sections

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/crms/internal/models"
)

const (
	EnrollmentEnrolled = "enrolled"
	EnrollmentDropped  = "dropped"
)

// Section is a block of students of one program and year level.
type Section struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProgramID *uuid.UUID     `gorm:"type:uuid;index" json:"program_id"`
	Name      string         `gorm:"size:100;not null" json:"name"`
	YearLevel int            `gorm:"default:1" json:"year_level"`
	TermID    *uuid.UUID     `gorm:"type:uuid;index" json:"term_id"`
	AdviserID *uuid.UUID     `gorm:"type:uuid" json:"adviser_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Program *models.Program `gorm:"foreignKey:ProgramID" json:"program,omitempty"`
}

// SectionCourse is one offering of a course to a section, taught by one
// instructor in one term.
type SectionCourse struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SectionID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_section_course_term" json:"section_id"`
	CourseID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_section_course_term" json:"course_id"`
	TermID       *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_section_course_term" json:"term_id"`
	InstructorID uuid.UUID  `gorm:"type:uuid;not null;index" json:"instructor_id"`
	Schedule     string     `gorm:"size:100" json:"schedule"`
	Room         string     `gorm:"size:50" json:"room"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Section *Section       `gorm:"foreignKey:SectionID" json:"section,omitempty"`
	Course  *models.Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (SectionCourse) TableName() string { return "section_courses" }

// DepartmentID is the department owning the class: the course's, or the
// section program's when the course is shared.
func (sc *SectionCourse) DepartmentID() *uuid.UUID {
	if sc.Course != nil && sc.Course.DepartmentID != nil {
		return sc.Course.DepartmentID
	}
	if sc.Section != nil && sc.Section.Program != nil {
		return &sc.Section.Program.DepartmentID
	}
	return nil
}

// Enrollment links a student user to a section course.
type Enrollment struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SectionCourseID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_pair" json:"section_course_id"`
	StudentID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_pair;index" json:"student_id"`
	Status          string    `gorm:"size:20;not null;default:'enrolled';index" json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// RosterEntry is one enrolled student as shown on a class list.
type RosterEntry struct {
	UserID        uuid.UUID `json:"user_id"`
	StudentNumber string    `json:"student_number"`
	FirstName     string    `json:"first_name"`
	MiddleName    string    `json:"middle_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	Status        string    `json:"status"`
}
