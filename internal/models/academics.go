package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Department struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code      string         `gorm:"size:20;not null;uniqueIndex" json:"code"`
	Name      string         `gorm:"size:200;not null" json:"name"`
	DeanID    *uuid.UUID     `gorm:"type:uuid" json:"dean_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type Program struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DepartmentID uuid.UUID      `gorm:"type:uuid;not null;index" json:"department_id"`
	Code         string         `gorm:"size:20;not null;uniqueIndex" json:"code"`
	Name         string         `gorm:"size:200;not null" json:"name"`
	ChairID      *uuid.UUID     `gorm:"type:uuid" json:"chair_id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

type Course struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DepartmentID *uuid.UUID     `gorm:"type:uuid;index" json:"department_id"`
	Code         string         `gorm:"size:30;not null;uniqueIndex" json:"code"`
	Title        string         `gorm:"size:200;not null" json:"title"`
	Units        float64        `gorm:"default:3" json:"units"`
	Description  string         `gorm:"type:text" json:"description"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// Term is one semester of a school year, e.g. 2025-2026 / 1st.
type Term struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SchoolYear string     `gorm:"size:20;not null;uniqueIndex:idx_terms_year_sem" json:"school_year"`
	Semester   string     `gorm:"size:20;not null;uniqueIndex:idx_terms_year_sem" json:"semester"`
	StartsOn   *time.Time `gorm:"type:date" json:"starts_on"`
	EndsOn     *time.Time `gorm:"type:date" json:"ends_on"`
	IsCurrent  bool       `gorm:"default:false;index" json:"is_current"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
