package sections

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ahmetcoskunkizilkaya/crms/internal/apps"
	"github.com/ahmetcoskunkizilkaya/crms/internal/authctx"
	"github.com/ahmetcoskunkizilkaya/crms/internal/database"
	"github.com/ahmetcoskunkizilkaya/crms/internal/models"
	"github.com/ahmetcoskunkizilkaya/crms/internal/roles"
)

type SectionRequest struct {
	ProgramID *uuid.UUID `json:"program_id"`
	Name      string     `json:"name" validate:"required,max=100"`
	YearLevel int        `json:"year_level" validate:"gte=1,lte=6"`
	TermID    *uuid.UUID `json:"term_id"`
	AdviserID *uuid.UUID `json:"adviser_id"`
}

type ClassRequest struct {
	CourseID     uuid.UUID  `json:"course_id" validate:"required"`
	InstructorID uuid.UUID  `json:"instructor_id" validate:"required"`
	TermID       *uuid.UUID `json:"term_id"`
	Schedule     string     `json:"schedule" validate:"max=100"`
	Room         string     `json:"room" validate:"max=50"`
}

type EnrollRequest struct {
	StudentIDs []uuid.UUID `json:"student_ids" validate:"required,min=1,max=500"`
}

type EnrollResult struct {
	Enrolled int `json:"enrolled"`
	Skipped  int `json:"skipped"`
}

type SectionFilter struct {
	ProgramID *uuid.UUID
	TermID    *uuid.UUID
	Search    string
	Page      int
	PageSize  int
}

// instructorRoles may be assigned as the instructor of a class.
var instructorRoles = []string{roles.Faculty, roles.ProgramChair, roles.Dean}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// canManage reports whether actor administers classes of dept. Registrar
// staff and admins manage every department.
func canManage(actor authctx.Actor, dept *uuid.UUID) bool {
	if actor.Is(roles.Admin, roles.Staff) {
		return true
	}
	if actor.Is(roles.Dean, roles.ProgramChair) {
		return actor.DepartmentID != nil && dept != nil && *actor.DepartmentID == *dept
	}
	return false
}

// --- Class access, shared with attendance and grading ---

// Class loads a section course with its section, program and course.
func (s *Service) Class(id uuid.UUID) (*SectionCourse, error) {
	var sc SectionCourse
	err := s.db.Preload("Section.Program").Preload("Course").First(&sc, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apps.ErrNotFound
		}
		return nil, err
	}
	return &sc, nil
}

func (s *Service) CanManage(actor authctx.Actor, sc *SectionCourse) bool {
	return canManage(actor, sc.DepartmentID())
}

// CanTeach reports whether actor may record attendance and scores for sc.
func (s *Service) CanTeach(actor authctx.Actor, sc *SectionCourse) bool {
	return sc.InstructorID == actor.UserID || s.CanManage(actor, sc)
}

// CanView additionally admits students enrolled in sc.
func (s *Service) CanView(actor authctx.Actor, sc *SectionCourse) (bool, error) {
	if s.CanTeach(actor, sc) {
		return true, nil
	}
	if !actor.Is(roles.Student) {
		return false, nil
	}
	return s.IsEnrolled(sc.ID, actor.UserID)
}

// TeachableClass loads sc and fails with ErrForbidden unless actor teaches it.
func (s *Service) TeachableClass(actor authctx.Actor, id uuid.UUID) (*SectionCourse, error) {
	sc, err := s.Class(id)
	if err != nil {
		return nil, err
	}
	if !s.CanTeach(actor, sc) {
		return nil, apps.ErrForbidden
	}
	return sc, nil
}

func (s *Service) ViewableClass(actor authctx.Actor, id uuid.UUID) (*SectionCourse, error) {
	sc, err := s.Class(id)
	if err != nil {
		return nil, err
	}
	ok, err := s.CanView(actor, sc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apps.ErrForbidden
	}
	return sc, nil
}

func (s *Service) IsEnrolled(classID, studentID uuid.UUID) (bool, error) {
	var n int64
	err := s.db.Model(&Enrollment{}).
		Where("section_course_id = ? AND student_id = ? AND status = ?", classID, studentID, EnrollmentEnrolled).
		Count(&n).Error
	return n > 0, err
}

// Roster lists the enrolled students of a class ordered by surname.
func (s *Service) Roster(classID uuid.UUID) ([]RosterEntry, error) {
	var out []RosterEntry
	err := s.db.Table("enrollments AS e").
		Select("e.student_id AS user_id, st.student_number, u.first_name, u.middle_name, u.last_name, u.email, e.status").
		Joins("JOIN users u ON u.id = e.student_id AND u.deleted_at IS NULL").
		Joins("LEFT JOIN students st ON st.user_id = u.id").
		Where("e.section_course_id = ? AND e.status = ?", classID, EnrollmentEnrolled).
		Order("u.last_name, u.first_name").
		Scan(&out).Error
	return out, err
}

// --- Sections ---

func (s *Service) ListSections(actor authctx.Actor, f SectionFilter) ([]Section, int64, error) {
	filtered := func() *gorm.DB {
		q := s.db.Model(&Section{})
		if f.ProgramID != nil {
			q = q.Where("sections.program_id = ?", *f.ProgramID)
		}
		if f.TermID != nil {
			q = q.Where("sections.term_id = ?", *f.TermID)
		}
		if actor.Is(roles.Dean, roles.ProgramChair) && actor.DepartmentID != nil {
			q = q.Where("sections.program_id IN (?)",
				s.db.Model(&models.Program{}).Select("id").Where("department_id = ?", *actor.DepartmentID))
		}
		return q.Scopes(database.Search(f.Search, "sections.name"))
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []Section
	err := filtered().Preload("Program").
		Order("sections.year_level, sections.name").
		Scopes(database.Paginate(f.Page, f.PageSize)).
		Find(&out).Error
	return out, total, err
}

func (s *Service) GetSection(id uuid.UUID) (*Section, error) {
	var sec Section
	if err := s.db.Preload("Program").First(&sec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apps.ErrNotFound
		}
		return nil, err
	}
	return &sec, nil
}

func (s *Service) programDepartment(programID *uuid.UUID) (*uuid.UUID, error) {
	if programID == nil {
		return nil, nil
	}
	var p models.Program
	if err := s.db.First(&p, "id = ?", *programID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apps.Invalid("program does not exist")
		}
		return nil, err
	}
	return &p.DepartmentID, nil
}

func (s *Service) CreateSection(actor authctx.Actor, req *SectionRequest) (*Section, error) {
	dept, err := s.programDepartment(req.ProgramID)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, dept) {
		return nil, apps.ErrForbidden
	}
	sec := Section{
		ProgramID: req.ProgramID,
		Name:      strings.TrimSpace(req.Name),
		YearLevel: req.YearLevel,
		TermID:    req.TermID,
		AdviserID: req.AdviserID,
	}
	if sec.YearLevel == 0 {
		sec.YearLevel = 1
	}
	if err := s.db.Create(&sec).Error; err != nil {
		return nil, err
	}
	return &sec, nil
}

func (s *Service) UpdateSection(actor authctx.Actor, id uuid.UUID, req *SectionRequest) (*Section, error) {
	sec, err := s.GetSection(id)
	if err != nil {
		return nil, err
	}
	current, err := s.programDepartment(sec.ProgramID)
	if err != nil {
		return nil, err
	}
	next, err := s.programDepartment(req.ProgramID)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, current) || !canManage(actor, next) {
		return nil, apps.ErrForbidden
	}

	updates := map[string]interface{}{
		"program_id": req.ProgramID,
		"name":       strings.TrimSpace(req.Name),
		"year_level": req.YearLevel,
		"term_id":    req.TermID,
		"adviser_id": req.AdviserID,
	}
	if err := s.db.Model(sec).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetSection(id)
}

func (s *Service) DeleteSection(actor authctx.Actor, id uuid.UUID) error {
	sec, err := s.GetSection(id)
	if err != nil {
		return err
	}
	dept, err := s.programDepartment(sec.ProgramID)
	if err != nil {
		return err
	}
	if !canManage(actor, dept) {
		return apps.ErrForbidden
	}
	var classes int64
	if err := s.db.Model(&SectionCourse{}).Where("section_id = ?", id).Count(&classes).Error; err != nil {
		return err
	}
	if classes > 0 {
		return apps.Invalid("remove the section's classes first")
	}
	return s.db.Delete(&Section{}, "id = ?", id).Error
}

// --- Section courses ---

func (s *Service) SectionClasses(sectionID uuid.UUID) ([]SectionCourse, error) {
	var out []SectionCourse
	err := s.db.Preload("Course").Where("section_id = ?", sectionID).Order("created_at").Find(&out).Error
	return out, err
}

func (s *Service) checkInstructor(id uuid.UUID) error {
	var u models.User
	err := s.db.Preload("Role").First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apps.Invalid("instructor does not exist")
	}
	if err != nil {
		return err
	}
	if !u.IsActive || !roles.Is(u.Role.Name, instructorRoles...) {
		return apps.Invalid("instructor must be an active faculty member")
	}
	return nil
}

func (s *Service) AssignCourse(actor authctx.Actor, sectionID uuid.UUID, req *ClassRequest) (*SectionCourse, error) {
	sec, err := s.GetSection(sectionID)
	if err != nil {
		return nil, err
	}
	var course models.Course
	if err := s.db.First(&course, "id = ?", req.CourseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apps.Invalid("course does not exist")
		}
		return nil, err
	}
	sc := SectionCourse{
		SectionID:    sec.ID,
		CourseID:     course.ID,
		InstructorID: req.InstructorID,
		TermID:       req.TermID,
		Schedule:     strings.TrimSpace(req.Schedule),
		Room:         strings.TrimSpace(req.Room),
		Section:      sec,
		Course:       &course,
	}
	if sc.TermID == nil {
		sc.TermID = sec.TermID
	}
	if !s.CanManage(actor, &sc) {
		return nil, apps.ErrForbidden
	}
	if err := s.checkInstructor(req.InstructorID); err != nil {
		return nil, err
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockSection(tx, sec.ID); err != nil {
			return err
		}
		if err := classTaken(tx, sec.ID, course.ID, sc.TermID, uuid.Nil); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(&sc).Error
	})
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *Service) UpdateClass(actor authctx.Actor, id uuid.UUID, req *ClassRequest) (*SectionCourse, error) {
	sc, err := s.Class(id)
	if err != nil {
		return nil, err
	}
	if !s.CanManage(actor, sc) {
		return nil, apps.ErrForbidden
	}
	if req.CourseID != sc.CourseID {
		return nil, apps.Invalid("course of a class cannot be changed")
	}
	if req.InstructorID != sc.InstructorID {
		if err := s.checkInstructor(req.InstructorID); err != nil {
			return nil, err
		}
	}
	updates := map[string]interface{}{
		"instructor_id": req.InstructorID,
		"term_id":       req.TermID,
		"schedule":      strings.TrimSpace(req.Schedule),
		"room":          strings.TrimSpace(req.Room),
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockSection(tx, sc.SectionID); err != nil {
			return err
		}
		if err := classTaken(tx, sc.SectionID, sc.CourseID, req.TermID, id); err != nil {
			return err
		}
		return tx.Model(&SectionCourse{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Class(id)
}

func (s *Service) DeleteClass(actor authctx.Actor, id uuid.UUID) error {
	sc, err := s.Class(id)
	if err != nil {
		return err
	}
	if !s.CanManage(actor, sc) {
		return apps.ErrForbidden
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, stmt := range classChildren {
			if err := tx.Exec(stmt.sql, id).Error; err != nil {
				return fmt.Errorf("failed to delete %s: %w", stmt.name, err)
			}
		}
		return tx.Delete(&SectionCourse{}, "id = ?", id).Error
	})
}

// lockSection serializes class changes within one section.
func lockSection(tx *gorm.DB, id uuid.UUID) error {
	var sec Section
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&sec, "id = ?", id).Error
}

// classTaken fails with ErrConflict when the section already offers course
// in term. A nil term matches other classes without a term, which the
// unique index alone would let through.
func classTaken(tx *gorm.DB, sectionID, courseID uuid.UUID, termID *uuid.UUID, except uuid.UUID) error {
	q := tx.Model(&SectionCourse{}).Where("section_id = ? AND course_id = ? AND id <> ?", sectionID, courseID, except)
	if termID == nil {
		q = q.Where("term_id IS NULL")
	} else {
		q = q.Where("term_id = ?", *termID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return apps.ErrConflict
	}
	return nil
}

// classChildren removes everything recorded against a class, leaves first.
var classChildren = []struct{ name, sql string }{
	{"scores", "DELETE FROM scores WHERE assessment_id IN (SELECT id FROM assessments WHERE section_course_id = ?)"},
	{"assessments", "DELETE FROM assessments WHERE section_course_id = ?"},
	{"grade weights", "DELETE FROM grade_weights WHERE section_course_id = ?"},
	{"ilos", "DELETE FROM ilos WHERE section_course_id = ?"},
	{"attendance records", "DELETE FROM attendance_records WHERE session_id IN (SELECT id FROM attendance_sessions WHERE section_course_id = ?)"},
	{"attendance sessions", "DELETE FROM attendance_sessions WHERE section_course_id = ?"},
	{"enrollments", "DELETE FROM enrollments WHERE section_course_id = ?"},
}

// --- Enrollments ---

// Enroll adds students to a class. Dropped students are re-enrolled and
// students already enrolled are skipped.
func (s *Service) Enroll(actor authctx.Actor, classID uuid.UUID, studentIDs []uuid.UUID) (*EnrollResult, error) {
	sc, err := s.Class(classID)
	if err != nil {
		return nil, err
	}
	if !s.CanManage(actor, sc) {
		return nil, apps.ErrForbidden
	}
	ids := dedupe(studentIDs)
	if len(ids) == 0 {
		return nil, apps.Invalid("student_ids is empty")
	}

	var found int64
	err = s.db.Model(&models.Student{}).
		Joins("JOIN users ON users.id = students.user_id AND users.deleted_at IS NULL").
		Where("students.user_id IN ?", ids).
		Count(&found).Error
	if err != nil {
		return nil, err
	}
	if int(found) != len(ids) {
		return nil, apps.Invalid("every student_id must belong to a registered student")
	}

	result := &EnrollResult{}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing []Enrollment
		if err := tx.Where("section_course_id = ? AND student_id IN ?", classID, ids).Find(&existing).Error; err != nil {
			return err
		}
		byStudent := make(map[uuid.UUID]Enrollment, len(existing))
		for _, e := range existing {
			byStudent[e.StudentID] = e
		}
		for _, id := range ids {
			e, ok := byStudent[id]
			switch {
			case ok && e.Status == EnrollmentEnrolled:
				result.Skipped++
				continue
			case ok:
				if err := tx.Model(&Enrollment{}).Where("id = ?", e.ID).Update("status", EnrollmentEnrolled).Error; err != nil {
					return err
				}
			default:
				if err := tx.Create(&Enrollment{SectionCourseID: classID, StudentID: id, Status: EnrollmentEnrolled}).Error; err != nil {
					return err
				}
			}
			result.Enrolled++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) Drop(actor authctx.Actor, classID, studentID uuid.UUID) error {
	sc, err := s.Class(classID)
	if err != nil {
		return err
	}
	if !s.CanManage(actor, sc) {
		return apps.ErrForbidden
	}
	res := s.db.Model(&Enrollment{}).
		Where("section_course_id = ? AND student_id = ? AND status = ?", classID, studentID, EnrollmentEnrolled).
		Update("status", EnrollmentDropped)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apps.ErrNotFound
	}
	return nil
}

// MyClasses returns the classes a student is enrolled in, or the classes
// any other role teaches.
func (s *Service) MyClasses(actor authctx.Actor) ([]SectionCourse, error) {
	q := s.db.Preload("Section").Preload("Course")
	if actor.Is(roles.Student) {
		q = q.Where("id IN (?)", s.db.Model(&Enrollment{}).Select("section_course_id").
			Where("student_id = ? AND status = ?", actor.UserID, EnrollmentEnrolled))
	} else {
		q = q.Where("instructor_id = ?", actor.UserID)
	}
	var out []SectionCourse
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

// TaughtClassIDs lists the classes an instructor teaches.
func (s *Service) TaughtClassIDs(instructorID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.Model(&SectionCourse{}).Where("instructor_id = ?", instructorID).Pluck("id", &ids).Error
	return ids, err
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
