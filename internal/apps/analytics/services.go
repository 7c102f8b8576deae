package analytics

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/crms/internal/apps/attendance"
	"github.com/ahmetcoskunkizilkaya/crms/internal/apps/grading"
	"github.com/ahmetcoskunkizilkaya/crms/internal/apps/sections"
	"github.com/ahmetcoskunkizilkaya/crms/internal/authctx"
	"github.com/ahmetcoskunkizilkaya/crms/internal/cache"
	"github.com/ahmetcoskunkizilkaya/crms/internal/models"
	"github.com/ahmetcoskunkizilkaya/crms/internal/roles"
	"github.com/ahmetcoskunkizilkaya/crms/internal/services"
)

// Totals counts catalog and class records.
type Totals struct {
	Departments int64 `json:"departments"`
	Programs    int64 `json:"programs"`
	Courses     int64 `json:"courses"`
	Sections    int64 `json:"sections"`
	Classes     int64 `json:"classes"`
}

type DepartmentStats struct {
	DepartmentID uuid.UUID `json:"department_id"`
	Sections     int64     `json:"sections"`
	Faculty      int64     `json:"faculty"`
	Students     int64     `json:"students"`
	Classes      int       `json:"classes"`
	Attendance   float64   `json:"attendance_rate"`
	PassRate     float64   `json:"pass_rate"`
	AverageGrade float64   `json:"average_grade"`
}

type ClassLine struct {
	SectionCourseID uuid.UUID `json:"section_course_id"`
	CourseCode      string    `json:"course_code"`
	SectionName     string    `json:"section_name"`
	Students        int       `json:"students"`
	Attendance      float64   `json:"attendance_rate"`
	Average         float64   `json:"average_grade"`
	PassRate        float64   `json:"pass_rate"`
}

type StudentLine struct {
	CourseCode  string  `json:"course_code"`
	CourseTitle string  `json:"course_title"`
	Percentage  float64 `json:"percentage"`
	Grade       float64 `json:"grade"`
	Remarks     string  `json:"remarks"`
}

// Dashboard is the role-specific aggregate. Only the blocks relevant to
// the caller's role are filled.
type Dashboard struct {
	Role             string              `json:"role"`
	UsersByRole      map[string]int64    `json:"users_by_role,omitempty"`
	PendingApprovals *int64              `json:"pending_approvals,omitempty"`
	Totals           *Totals             `json:"totals,omitempty"`
	Department       *DepartmentStats    `json:"department,omitempty"`
	Classes          []ClassLine         `json:"classes,omitempty"`
	Attendance       *attendance.Summary `json:"attendance,omitempty"`
	Grades           []StudentLine       `json:"grades,omitempty"`
}

type Service struct {
	db         *gorm.DB
	cache      *cache.Cache
	users      *services.UserService
	classes    *sections.Service
	attendance *attendance.Service
	grading    *grading.Service
}

func NewService(db *gorm.DB, c *cache.Cache, passing grading.PassingGrader) *Service {
	classes := sections.NewService(db)
	return &Service{
		db:         db,
		cache:      c,
		users:      services.NewUserService(db),
		classes:    classes,
		attendance: attendance.NewService(db, classes),
		grading:    grading.NewService(db, classes, passing),
	}
}

// CacheKey scopes a cached dashboard to its viewer.
func CacheKey(actor authctx.Actor) string {
	return fmt.Sprintf("%s%s:%s", cache.AnalyticsPrefix, roles.Normalize(actor.Role), actor.UserID)
}

// Dashboard returns the caller's dashboard, served from cache when fresh.
func (s *Service) Dashboard(ctx context.Context, actor authctx.Actor) (*Dashboard, error) {
	return cache.Remember(ctx, s.cache, CacheKey(actor), func() (*Dashboard, error) {
		return s.build(actor)
	})
}

func (s *Service) build(actor authctx.Actor) (*Dashboard, error) {
	d := &Dashboard{Role: roles.Normalize(actor.Role)}
	var err error
	switch {
	case actor.Is(roles.Admin):
		err = s.fillAdmin(d)
	case actor.Is(roles.Staff):
		d.Totals, err = s.totals()
	case actor.Is(roles.Dean, roles.ProgramChair):
		if actor.DepartmentID != nil {
			d.Department, err = s.department(*actor.DepartmentID)
		}
		if err == nil {
			d.Classes, err = s.taught(actor.UserID)
		}
	case actor.Is(roles.Student):
		err = s.fillStudent(d, actor)
	default:
		d.Classes, err = s.taught(actor.UserID)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) fillAdmin(d *Dashboard) error {
	byRole, err := s.users.CountByRole()
	if err != nil {
		return err
	}
	_, pending, err := s.users.PendingApprovals(1, 1)
	if err != nil {
		return err
	}
	totals, err := s.totals()
	if err != nil {
		return err
	}
	d.UsersByRole, d.PendingApprovals, d.Totals = byRole, &pending, totals
	return nil
}

func (s *Service) totals() (*Totals, error) {
	t := &Totals{}
	counts := []struct {
		model interface{}
		dst   *int64
	}{
		{&models.Department{}, &t.Departments},
		{&models.Program{}, &t.Programs},
		{&models.Course{}, &t.Courses},
		{&sections.Section{}, &t.Sections},
		{&sections.SectionCourse{}, &t.Classes},
	}
	for _, c := range counts {
		if err := s.db.Model(c.model).Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (s *Service) department(dept uuid.UUID) (*DepartmentStats, error) {
	st := &DepartmentStats{DepartmentID: dept}
	programs := s.db.Model(&models.Program{}).Select("id").Where("department_id = ?", dept)

	if err := s.db.Model(&sections.Section{}).Where("program_id IN (?)", programs).Count(&st.Sections).Error; err != nil {
		return nil, err
	}
	err := s.db.Model(&models.User{}).
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("users.department_id = ? AND roles.name = ?", dept, roles.Faculty).
		Count(&st.Faculty).Error
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Student{}).Where("program_id IN (?)", programs).Count(&st.Students).Error; err != nil {
		return nil, err
	}

	var classIDs []uuid.UUID
	err = s.db.Table("section_courses AS sc").
		Joins("JOIN courses c ON c.id = sc.course_id").
		Joins("JOIN sections s ON s.id = sc.section_id").
		Joins("LEFT JOIN programs p ON p.id = s.program_id").
		Where("c.department_id = ? OR (c.department_id IS NULL AND p.department_id = ?)", dept, dept).
		Pluck("sc.id", &classIDs).Error
	if err != nil {
		return nil, err
	}
	st.Classes = len(classIDs)

	rate, err := s.attendance.RateFor(classIDs)
	if err != nil {
		return nil, err
	}
	st.Attendance = rate.Rate

	stats, err := s.grading.Stats(classIDs)
	if err != nil {
		return nil, err
	}
	overall := Combine(stats)
	st.PassRate, st.AverageGrade = overall.PassRate(), overall.Average
	return st, nil
}

// taught builds one line per class the user teaches.
func (s *Service) taught(userID uuid.UUID) ([]ClassLine, error) {
	classes, err := s.classes.MyClasses(authctx.Actor{UserID: userID, Role: roles.Faculty})
	if err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, len(classes))
	for i, sc := range classes {
		ids[i] = sc.ID
	}
	rates, err := s.attendance.PerClass(ids)
	if err != nil {
		return nil, err
	}
	stats, err := s.grading.Stats(ids)
	if err != nil {
		return nil, err
	}

	out := make([]ClassLine, 0, len(classes))
	for _, sc := range classes {
		roster, err := s.classes.Roster(sc.ID)
		if err != nil {
			return nil, err
		}
		line := ClassLine{
			SectionCourseID: sc.ID,
			Students:        len(roster),
			Attendance:      rates[sc.ID].Rate,
			Average:         stats[sc.ID].Average,
			PassRate:        stats[sc.ID].PassRate(),
		}
		if sc.Course != nil {
			line.CourseCode = sc.Course.Code
		}
		if sc.Section != nil {
			line.SectionName = sc.Section.Name
		}
		out = append(out, line)
	}
	return out, nil
}

func (s *Service) fillStudent(d *Dashboard, actor authctx.Actor) error {
	rate, err := s.attendance.StudentRate(actor.UserID)
	if err != nil {
		return err
	}
	grades, err := s.grading.MyGrades(actor)
	if err != nil {
		return err
	}
	d.Attendance = &rate
	for _, g := range grades {
		d.Grades = append(d.Grades, StudentLine{
			CourseCode:  g.CourseCode,
			CourseTitle: g.CourseTitle,
			Percentage:  g.Result.Percentage,
			Grade:       g.Result.Grade,
			Remarks:     g.Result.Remarks,
		})
	}
	return nil
}

// Combine merges per-class stats, weighting averages by graded students.
func Combine(stats map[uuid.UUID]grading.ClassStats) grading.ClassStats {
	var out grading.ClassStats
	var sum float64
	for _, st := range stats {
		out.Graded += st.Graded
		out.Passed += st.Passed
		out.Failed += st.Failed
		sum += st.Average * float64(st.Graded)
	}
	if out.Graded > 0 {
		out.Average = math.Round(sum/float64(out.Graded)*100) / 100
	}
	return out
}
