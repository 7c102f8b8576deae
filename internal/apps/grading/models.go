package grading

import (
	"time"

	"github.com/google/uuid"
)

const (
	KindQuiz       = "quiz"
	KindExam       = "exam"
	KindActivity   = "activity"
	KindProject    = "project"
	KindRecitation = "recitation"

	PeriodMidterm = "midterm"
	PeriodFinal   = "final"
)

var Kinds = []string{KindQuiz, KindExam, KindActivity, KindProject, KindRecitation}

type Assessment struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SectionCourseID uuid.UUID  `gorm:"type:uuid;not null;index" json:"section_course_id"`
	Title           string     `gorm:"size:200;not null" json:"title"`
	Kind            string     `gorm:"size:20;not null" json:"kind"`
	Period          string     `gorm:"size:20;not null;default:'midterm'" json:"period"`
	MaxScore        float64    `gorm:"not null" json:"max_score"`
	HeldOn          *time.Time `gorm:"type:date" json:"held_on"`
	ILOID           *uuid.UUID `gorm:"type:uuid" json:"ilo_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type Score struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AssessmentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_score_pair" json:"assessment_id"`
	StudentID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_score_pair;index" json:"student_id"`
	Score        float64   `gorm:"not null" json:"score"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GradeWeight is the percent share of one assessment kind in a class grade.
type GradeWeight struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SectionCourseID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_weight_kind" json:"section_course_id"`
	Kind            string    `gorm:"size:20;not null;uniqueIndex:idx_weight_kind" json:"kind"`
	Weight          float64   `gorm:"not null" json:"weight"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ILO is an intended learning outcome of a class.
type ILO struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SectionCourseID uuid.UUID `gorm:"type:uuid;not null;index" json:"section_course_id"`
	Code            string    `gorm:"size:20;not null" json:"code"`
	Description     string    `gorm:"type:text;not null" json:"description"`
	Ordinal         int       `gorm:"default:0" json:"ordinal"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (ILO) TableName() string { return "ilos" }
