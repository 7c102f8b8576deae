package academics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/crms/internal/apps"
	"github.com/ahmetcoskunkizilkaya/crms/internal/authctx"
	"github.com/ahmetcoskunkizilkaya/crms/internal/database"
	"github.com/ahmetcoskunkizilkaya/crms/internal/models"
	"github.com/ahmetcoskunkizilkaya/crms/internal/roles"
)

// --- Requests ---

type DepartmentRequest struct {
	Code   string     `json:"code" validate:"required,max=20"`
	Name   string     `json:"name" validate:"required,max=200"`
	DeanID *uuid.UUID `json:"dean_id"`
}

type ProgramRequest struct {
	DepartmentID uuid.UUID  `json:"department_id" validate:"required"`
	Code         string     `json:"code" validate:"required,max=20"`
	Name         string     `json:"name" validate:"required,max=200"`
	ChairID      *uuid.UUID `json:"chair_id"`
}

type CourseRequest struct {
	DepartmentID *uuid.UUID `json:"department_id"`
	Code         string     `json:"code" validate:"required,max=30"`
	Title        string     `json:"title" validate:"required,max=200"`
	Units        float64    `json:"units" validate:"gte=0,lte=12"`
	Description  string     `json:"description" validate:"max=5000"`
}

type TermRequest struct {
	SchoolYear string `json:"school_year" validate:"required,max=20"`
	Semester   string `json:"semester" validate:"required,oneof=1st 2nd summer"`
	StartsOn   string `json:"starts_on" validate:"omitempty,datetime=2006-01-02"`
	EndsOn     string `json:"ends_on" validate:"omitempty,datetime=2006-01-02"`
	IsCurrent  bool   `json:"is_current"`
}

// --- Service ---

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) first(dst interface{}, id uuid.UUID) error {
	if err := s.db.First(dst, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apps.ErrNotFound
		}
		return err
	}
	return nil
}

// canManageDepartment reports whether actor may edit catalog entries owned
// by dept: admins always, deans and program chairs inside their department.
func canManageDepartment(actor authctx.Actor, dept *uuid.UUID) bool {
	if actor.Is(roles.Admin) {
		return true
	}
	if actor.Is(roles.Dean, roles.ProgramChair) {
		return actor.DepartmentID != nil && dept != nil && *actor.DepartmentID == *dept
	}
	return false
}

// Departments

func (s *Service) ListDepartments() ([]models.Department, error) {
	var out []models.Department
	err := s.db.Order("code").Find(&out).Error
	return out, err
}

func (s *Service) GetDepartment(id uuid.UUID) (*models.Department, error) {
	var d models.Department
	if err := s.first(&d, id); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Service) CreateDepartment(req *DepartmentRequest) (*models.Department, error) {
	d := models.Department{
		Code:   strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:   strings.TrimSpace(req.Name),
		DeanID: req.DeanID,
	}
	if err := s.db.Create(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Service) UpdateDepartment(id uuid.UUID, req *DepartmentRequest) (*models.Department, error) {
	d, err := s.GetDepartment(id)
	if err != nil {
		return nil, err
	}
	d.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	d.Name = strings.TrimSpace(req.Name)
	d.DeanID = req.DeanID
	if err := s.db.Save(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) DeleteDepartment(id uuid.UUID) error {
	used, err := inUse(s.db, "programs", "department_id = ? AND deleted_at IS NULL", id)
	if err != nil {
		return err
	}
	if used {
		return apps.Invalid("department still has programs")
	}
	return deleteByID(s.db, &models.Department{}, id)
}

// Programs

func (s *Service) ListPrograms(departmentID *uuid.UUID) ([]models.Program, error) {
	q := s.db.Order("code")
	if departmentID != nil {
		q = q.Where("department_id = ?", *departmentID)
	}
	var out []models.Program
	err := q.Find(&out).Error
	return out, err
}

func (s *Service) GetProgram(id uuid.UUID) (*models.Program, error) {
	var p models.Program
	if err := s.first(&p, id); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) CreateProgram(actor authctx.Actor, req *ProgramRequest) (*models.Program, error) {
	if !canManageDepartment(actor, &req.DepartmentID) || actor.Is(roles.ProgramChair) {
		return nil, apps.ErrForbidden
	}
	if _, err := s.GetDepartment(req.DepartmentID); err != nil {
		return nil, apps.Invalid("department does not exist")
	}
	p := models.Program{
		DepartmentID: req.DepartmentID,
		Code:         strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:         strings.TrimSpace(req.Name),
		ChairID:      req.ChairID,
	}
	if err := s.db.Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) UpdateProgram(actor authctx.Actor, id uuid.UUID, req *ProgramRequest) (*models.Program, error) {
	p, err := s.GetProgram(id)
	if err != nil {
		return nil, err
	}
	if !canManageDepartment(actor, &p.DepartmentID) || !canManageDepartment(actor, &req.DepartmentID) {
		return nil, apps.ErrForbidden
	}
	p.DepartmentID = req.DepartmentID
	p.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	p.Name = strings.TrimSpace(req.Name)
	p.ChairID = req.ChairID
	if err := s.db.Save(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) DeleteProgram(actor authctx.Actor, id uuid.UUID) error {
	p, err := s.GetProgram(id)
	if err != nil {
		return err
	}
	if !canManageDepartment(actor, &p.DepartmentID) || actor.Is(roles.ProgramChair) {
		return apps.ErrForbidden
	}
	for _, ref := range []struct{ table, where, msg string }{
		{"students", "program_id = ?", "program still has students"},
		{"sections", "program_id = ? AND deleted_at IS NULL", "program still has sections"},
	} {
		used, err := inUse(s.db, ref.table, ref.where, id)
		if err != nil {
			return err
		}
		if used {
			return apps.Invalid(ref.msg)
		}
	}
	return deleteByID(s.db, &models.Program{}, id)
}

// Courses

func (s *Service) ListCourses(departmentID *uuid.UUID, search string, page, pageSize int) ([]models.Course, int64, error) {
	filter := func() *gorm.DB {
		q := s.db.Model(&models.Course{}).Scopes(database.Search(search, "code", "title"))
		if departmentID != nil {
			q = q.Where("department_id = ?", *departmentID)
		}
		return q
	}

	var total int64
	if err := filter().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []models.Course
	err := filter().Scopes(database.Paginate(page, pageSize)).Order("code").Find(&out).Error
	return out, total, err
}

func (s *Service) GetCourse(id uuid.UUID) (*models.Course, error) {
	var c models.Course
	if err := s.first(&c, id); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) CreateCourse(actor authctx.Actor, req *CourseRequest) (*models.Course, error) {
	dept := req.DepartmentID
	if dept == nil && !actor.Is(roles.Admin) {
		dept = actor.DepartmentID
	}
	if !canManageDepartment(actor, dept) {
		return nil, apps.ErrForbidden
	}
	units := req.Units
	if units == 0 {
		units = 3
	}
	c := models.Course{
		DepartmentID: dept,
		Code:         strings.ToUpper(strings.TrimSpace(req.Code)),
		Title:        strings.TrimSpace(req.Title),
		Units:        units,
		Description:  strings.TrimSpace(req.Description),
	}
	if err := s.db.Create(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) UpdateCourse(actor authctx.Actor, id uuid.UUID, req *CourseRequest) (*models.Course, error) {
	c, err := s.GetCourse(id)
	if err != nil {
		return nil, err
	}
	if !canManageDepartment(actor, c.DepartmentID) {
		return nil, apps.ErrForbidden
	}
	if req.DepartmentID != nil {
		if !canManageDepartment(actor, req.DepartmentID) {
			return nil, apps.ErrForbidden
		}
		c.DepartmentID = req.DepartmentID
	}
	c.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	c.Title = strings.TrimSpace(req.Title)
	if req.Units > 0 {
		c.Units = req.Units
	}
	c.Description = strings.TrimSpace(req.Description)
	if err := s.db.Save(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) DeleteCourse(actor authctx.Actor, id uuid.UUID) error {
	c, err := s.GetCourse(id)
	if err != nil {
		return err
	}
	if !canManageDepartment(actor, c.DepartmentID) {
		return apps.ErrForbidden
	}
	used, err := inUse(s.db, "section_courses", "course_id = ?", id)
	if err != nil {
		return err
	}
	if used {
		return apps.Invalid("course is still assigned to a section")
	}
	return deleteByID(s.db, &models.Course{}, id)
}

// Terms

func (s *Service) ListTerms() ([]models.Term, error) {
	var out []models.Term
	err := s.db.Order("school_year DESC, semester DESC").Find(&out).Error
	return out, err
}

func (s *Service) CurrentTerm() (*models.Term, error) {
	var t models.Term
	err := s.db.Where("is_current = ?", true).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apps.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Service) CreateTerm(req *TermRequest) (*models.Term, error) {
	t := models.Term{SchoolYear: strings.TrimSpace(req.SchoolYear), Semester: req.Semester}
	if err := applyTermDates(&t, req); err != nil {
		return nil, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&t).Error; err != nil {
			return err
		}
		if req.IsCurrent {
			return markCurrent(tx, t.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	t.IsCurrent = req.IsCurrent
	return &t, nil
}

func (s *Service) UpdateTerm(id uuid.UUID, req *TermRequest) (*models.Term, error) {
	var t models.Term
	if err := s.first(&t, id); err != nil {
		return nil, err
	}
	t.SchoolYear = strings.TrimSpace(req.SchoolYear)
	t.Semester = req.Semester
	if err := applyTermDates(&t, req); err != nil {
		return nil, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&t).Error; err != nil {
			return err
		}
		if req.IsCurrent && !t.IsCurrent {
			return markCurrent(tx, t.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if req.IsCurrent {
		t.IsCurrent = true
	}
	return &t, nil
}

func (s *Service) SetCurrentTerm(id uuid.UUID) (*models.Term, error) {
	var t models.Term
	if err := s.first(&t, id); err != nil {
		return nil, err
	}
	if err := s.db.Transaction(func(tx *gorm.DB) error { return markCurrent(tx, id) }); err != nil {
		return nil, err
	}
	t.IsCurrent = true
	return &t, nil
}

// DeleteTerm refuses terms that sections or classes still point at.
func (s *Service) DeleteTerm(id uuid.UUID) error {
	for _, ref := range []struct{ table, where string }{
		{"sections", "term_id = ? AND deleted_at IS NULL"},
		{"section_courses", "term_id = ?"},
	} {
		used, err := inUse(s.db, ref.table, ref.where, id)
		if err != nil {
			return err
		}
		if used {
			return apps.Invalid("term is still used by sections")
		}
	}
	return deleteByID(s.db, &models.Term{}, id)
}

func applyTermDates(t *models.Term, req *TermRequest) error {
	parse := func(v string) (*time.Time, error) {
		if v == "" {
			return nil, nil
		}
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, apps.Invalid("dates must be YYYY-MM-DD")
		}
		return &d, nil
	}
	start, err := parse(req.StartsOn)
	if err != nil {
		return err
	}
	end, err := parse(req.EndsOn)
	if err != nil {
		return err
	}
	if start != nil && end != nil && end.Before(*start) {
		return apps.Invalid("ends_on must not be before starts_on")
	}
	t.StartsOn, t.EndsOn = start, end
	return nil
}

func markCurrent(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Model(&models.Term{}).Where("is_current = ? AND id <> ?", true, id).Update("is_current", false).Error; err != nil {
		return fmt.Errorf("failed to clear current term: %w", err)
	}
	return tx.Model(&models.Term{}).Where("id = ?", id).Update("is_current", true).Error
}

func inUse(db *gorm.DB, table, where string, args ...interface{}) (bool, error) {
	var n int64
	if err := db.Table(table).Where(where, args...).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check %s: %w", table, err)
	}
	return n > 0, nil
}

func deleteByID(db *gorm.DB, model interface{}, id uuid.UUID) error {
	result := db.Delete(model, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apps.ErrNotFound
	}
	return nil
}
