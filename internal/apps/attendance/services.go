package attendance

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ahmetcoskunkizilkaya/crms/internal/apps"
	"github.com/ahmetcoskunkizilkaya/crms/internal/apps/sections"
	"github.com/ahmetcoskunkizilkaya/crms/internal/authctx"
)

type RecordInput struct {
	StudentID uuid.UUID `json:"student_id" validate:"required"`
	Status    string    `json:"status" validate:"required,oneof=present absent late excused"`
	Remarks   string    `json:"remarks" validate:"max=500"`
}

type SessionRequest struct {
	HeldOn  string        `json:"held_on" validate:"required,datetime=2006-01-02"`
	Topic   string        `json:"topic" validate:"max=255"`
	Records []RecordInput `json:"records" validate:"max=500,dive"`
}

type RecordsRequest struct {
	Records []RecordInput `json:"records" validate:"required,min=1,max=500,dive"`
}

// StudentSummary is one roster line of a class attendance summary.
type StudentSummary struct {
	sections.RosterEntry
	Summary Summary `json:"summary"`
}

// ClassSummary is one class line of a student's own attendance.
type ClassSummary struct {
	SectionCourseID uuid.UUID `json:"section_course_id"`
	CourseCode      string    `json:"course_code"`
	CourseTitle     string    `json:"course_title"`
	Summary         Summary   `json:"summary"`
}

type Service struct {
	db      *gorm.DB
	classes *sections.Service
}

func NewService(db *gorm.DB, classes *sections.Service) *Service {
	return &Service{db: db, classes: classes}
}

// RecordSession creates the session for a day, or updates the existing
// one, and upserts the given records.
func (s *Service) RecordSession(actor authctx.Actor, classID uuid.UUID, req *SessionRequest) (*Session, error) {
	if _, err := s.classes.TeachableClass(actor, classID); err != nil {
		return nil, err
	}
	heldOn, err := time.Parse("2006-01-02", req.HeldOn)
	if err != nil {
		return nil, apps.Invalid("held_on must be YYYY-MM-DD")
	}
	if err := s.checkEnrolled(classID, req.Records); err != nil {
		return nil, err
	}

	var session Session
	err = s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("section_course_id = ? AND held_on = ?", classID, heldOn).First(&session).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			session = Session{
				SectionCourseID: classID,
				HeldOn:          heldOn,
				Topic:           strings.TrimSpace(req.Topic),
				RecordedBy:      &actor.UserID,
			}
			if err := tx.Create(&session).Error; err != nil {
				return fmt.Errorf("failed to create session: %w", err)
			}
		case err != nil:
			return err
		case req.Topic != "":
			session.Topic = strings.TrimSpace(req.Topic)
			if err := tx.Model(&session).Update("topic", session.Topic).Error; err != nil {
				return err
			}
		}
		return upsertRecords(tx, session.ID, req.Records)
	})
	if err != nil {
		return nil, err
	}
	return s.loadSession(session.ID)
}

func (s *Service) ListSessions(actor authctx.Actor, classID uuid.UUID) ([]Session, error) {
	if _, err := s.classes.ViewableClass(actor, classID); err != nil {
		return nil, err
	}
	var out []Session
	err := s.db.Where("section_course_id = ?", classID).Order("held_on DESC").Find(&out).Error
	return out, err
}

// GetSession returns a session with its records. Students see only their
// own record.
func (s *Service) GetSession(actor authctx.Actor, id uuid.UUID) (*Session, error) {
	session, err := s.loadSession(id)
	if err != nil {
		return nil, err
	}
	sc, err := s.classes.ViewableClass(actor, session.SectionCourseID)
	if err != nil {
		return nil, err
	}
	if !s.classes.CanTeach(actor, sc) {
		own := session.Records[:0]
		for _, r := range session.Records {
			if r.StudentID == actor.UserID {
				own = append(own, r)
			}
		}
		session.Records = own
	}
	return session, nil
}

func (s *Service) UpdateRecords(actor authctx.Actor, sessionID uuid.UUID, records []RecordInput) (*Session, error) {
	session, err := s.loadSession(sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.classes.TeachableClass(actor, session.SectionCourseID); err != nil {
		return nil, err
	}
	if err := s.checkEnrolled(session.SectionCourseID, records); err != nil {
		return nil, err
	}
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		return upsertRecords(tx, sessionID, records)
	}); err != nil {
		return nil, err
	}
	return s.loadSession(sessionID)
}

func (s *Service) DeleteSession(actor authctx.Actor, sessionID uuid.UUID) error {
	session, err := s.loadSession(sessionID)
	if err != nil {
		return err
	}
	if _, err := s.classes.TeachableClass(actor, session.SectionCourseID); err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&Record{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Session{}, "id = ?", sessionID).Error
	})
}

// ClassReport summarizes attendance for every enrolled student of a class.
func (s *Service) ClassReport(actor authctx.Actor, classID uuid.UUID) ([]StudentSummary, Summary, error) {
	if _, err := s.classes.TeachableClass(actor, classID); err != nil {
		return nil, Summary{}, err
	}
	roster, err := s.classes.Roster(classID)
	if err != nil {
		return nil, Summary{}, err
	}
	counts, err := s.counts("r.student_id", "ses.section_course_id = ?", classID)
	if err != nil {
		return nil, Summary{}, err
	}

	overall := map[string]int{}
	out := make([]StudentSummary, 0, len(roster))
	for _, entry := range roster {
		c := counts[entry.UserID]
		for status, n := range c {
			overall[status] += n
		}
		out = append(out, StudentSummary{RosterEntry: entry, Summary: Summarize(c)})
	}
	return out, Summarize(overall), nil
}

// MyAttendance summarizes a student's attendance per enrolled class.
func (s *Service) MyAttendance(actor authctx.Actor) ([]ClassSummary, error) {
	classes, err := s.classes.MyClasses(authctx.Actor{UserID: actor.UserID, Role: "student"})
	if err != nil {
		return nil, err
	}
	counts, err := s.counts("ses.section_course_id", "r.student_id = ?", actor.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]ClassSummary, 0, len(classes))
	for _, sc := range classes {
		line := ClassSummary{SectionCourseID: sc.ID, Summary: Summarize(counts[sc.ID])}
		if sc.Course != nil {
			line.CourseCode, line.CourseTitle = sc.Course.Code, sc.Course.Title
		}
		out = append(out, line)
	}
	return out, nil
}

// RateFor summarizes every record of the given classes together.
func (s *Service) RateFor(classIDs []uuid.UUID) (Summary, error) {
	if len(classIDs) == 0 {
		return Summary{}, nil
	}
	counts, err := s.counts("ses.section_course_id", "ses.section_course_id IN ?", classIDs)
	if err != nil {
		return Summary{}, err
	}
	total := map[string]int{}
	for _, c := range counts {
		for status, n := range c {
			total[status] += n
		}
	}
	return Summarize(total), nil
}

// StudentRate summarizes all records of one student.
func (s *Service) StudentRate(studentID uuid.UUID) (Summary, error) {
	counts, err := s.counts("r.student_id", "r.student_id = ?", studentID)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(counts[studentID]), nil
}

// PerClass summarizes each of the given classes separately.
func (s *Service) PerClass(classIDs []uuid.UUID) (map[uuid.UUID]Summary, error) {
	out := make(map[uuid.UUID]Summary, len(classIDs))
	if len(classIDs) == 0 {
		return out, nil
	}
	counts, err := s.counts("ses.section_course_id", "ses.section_course_id IN ?", classIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range classIDs {
		out[id] = Summarize(counts[id])
	}
	return out, nil
}

type statusCount struct {
	Key    uuid.UUID
	Status string
	N      int
}

// counts groups records by key column and status under the given condition.
func (s *Service) counts(key, cond string, args ...interface{}) (map[uuid.UUID]map[string]int, error) {
	var rows []statusCount
	err := s.db.Table("attendance_records AS r").
		Joins("JOIN attendance_sessions ses ON ses.id = r.session_id").
		Where(cond, args...).
		Select(key + " AS key, r.status AS status, COUNT(*) AS n").
		Group(key + ", r.status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]map[string]int)
	for _, row := range rows {
		if out[row.Key] == nil {
			out[row.Key] = make(map[string]int)
		}
		out[row.Key][row.Status] = row.N
	}
	return out, nil
}

func (s *Service) loadSession(id uuid.UUID) (*Session, error) {
	var session Session
	err := s.db.Preload("Records", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at")
	}).First(&session, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apps.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (s *Service) checkEnrolled(classID uuid.UUID, records []RecordInput) error {
	if len(records) == 0 {
		return nil
	}
	roster, err := s.classes.Roster(classID)
	if err != nil {
		return err
	}
	enrolled := make(map[uuid.UUID]bool, len(roster))
	for _, e := range roster {
		enrolled[e.UserID] = true
	}
	for _, r := range records {
		if !enrolled[r.StudentID] {
			return apps.Invalid(fmt.Sprintf("student %s is not enrolled in this class", r.StudentID))
		}
	}
	return nil
}

func upsertRecords(tx *gorm.DB, sessionID uuid.UUID, inputs []RecordInput) error {
	records := buildRecords(sessionID, inputs)
	if len(records) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "student_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "remarks", "updated_at"}),
	}).Create(&records).Error
}

// buildRecords keeps one row per student; the last entry wins.
func buildRecords(sessionID uuid.UUID, inputs []RecordInput) []Record {
	index := make(map[uuid.UUID]int, len(inputs))
	records := make([]Record, 0, len(inputs))
	for _, in := range inputs {
		if i, ok := index[in.StudentID]; ok {
			records[i].Status = in.Status
			records[i].Remarks = strings.TrimSpace(in.Remarks)
			continue
		}
		index[in.StudentID] = len(records)
		records = append(records, Record{
			SessionID: sessionID,
			StudentID: in.StudentID,
			Status:    in.Status,
			Remarks:   strings.TrimSpace(in.Remarks),
		})
	}
	return records
}
