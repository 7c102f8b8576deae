package attendance

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
	StatusExcused = "excused"
)

// Session is one class meeting. A class has at most one session per day.
type Session struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SectionCourseID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_class_day" json:"section_course_id"`
	HeldOn          time.Time  `gorm:"type:date;not null;uniqueIndex:idx_attendance_class_day" json:"held_on"`
	Topic           string     `gorm:"size:255" json:"topic"`
	RecordedBy      *uuid.UUID `gorm:"type:uuid" json:"recorded_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Records []Record `gorm:"foreignKey:SessionID" json:"records,omitempty"`
}

func (Session) TableName() string { return "attendance_sessions" }

type Record struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_session_student" json:"session_id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_session_student;index" json:"student_id"`
	Status    string    `gorm:"size:20;not null;index" json:"status"`
	Remarks   string    `gorm:"size:500" json:"remarks"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Record) TableName() string { return "attendance_records" }
