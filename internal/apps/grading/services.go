package grading

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ahmetcoskunkizilkaya/crms/internal/apps"
	"github.com/ahmetcoskunkizilkaya/crms/internal/apps/sections"
	"github.com/ahmetcoskunkizilkaya/crms/internal/authctx"
)

type AssessmentRequest struct {
	Title    string     `json:"title" validate:"required,max=200"`
	Kind     string     `json:"kind" validate:"required,oneof=quiz exam activity project recitation"`
	Period   string     `json:"period" validate:"omitempty,oneof=midterm final"`
	MaxScore float64    `json:"max_score" validate:"required,gt=0,lte=1000"`
	HeldOn   string     `json:"held_on" validate:"omitempty,datetime=2006-01-02"`
	ILOID    *uuid.UUID `json:"ilo_id"`
}

// ScoreInput sets a student's score. A null score clears it.
type ScoreInput struct {
	StudentID uuid.UUID `json:"student_id" validate:"required"`
	Score     *float64  `json:"score" validate:"omitempty,gte=0"`
}

type ScoresRequest struct {
	Scores []ScoreInput `json:"scores" validate:"required,min=1,max=500,dive"`
}

type WeightInput struct {
	Kind   string  `json:"kind" validate:"required,oneof=quiz exam activity project recitation"`
	Weight float64 `json:"weight" validate:"gte=0,lte=100"`
}

type WeightsRequest struct {
	Weights []WeightInput `json:"weights" validate:"max=5,dive"`
}

type ILORequest struct {
	Code        string `json:"code" validate:"required,max=20"`
	Description string `json:"description" validate:"required,max=5000"`
	Ordinal     int    `json:"ordinal" validate:"gte=0"`
}

// StudentGrade is one row of a class record.
type StudentGrade struct {
	sections.RosterEntry
	Scores map[uuid.UUID]float64 `json:"scores"`
	Result Result                `json:"result"`
}

// ClassRecord is the full grade sheet of a class.
type ClassRecord struct {
	Assessments  []Assessment       `json:"assessments"`
	Weights      map[string]float64 `json:"weights"`
	PassingGrade float64            `json:"passing_grade"`
	Students     []StudentGrade     `json:"students"`
}

// MyGrade is one class line of a student's own grades.
type MyGrade struct {
	SectionCourseID uuid.UUID             `json:"section_course_id"`
	CourseCode      string                `json:"course_code"`
	CourseTitle     string                `json:"course_title"`
	Assessments     []Assessment          `json:"assessments"`
	Scores          map[uuid.UUID]float64 `json:"scores"`
	Result          Result                `json:"result"`
}

// ClassStats aggregates computed grades of a class.
type ClassStats struct {
	Graded  int     `json:"graded"`
	Passed  int     `json:"passed"`
	Failed  int     `json:"failed"`
	Average float64 `json:"average"`
}

// PassRate is the percentage of graded students who passed.
func (s ClassStats) PassRate() float64 {
	if s.Graded == 0 {
		return 0
	}
	return round2(float64(s.Passed) / float64(s.Graded) * 100)
}

// PassingGrader supplies the current passing percentage.
type PassingGrader interface {
	PassingGrade() float64
}

type Service struct {
	db      *gorm.DB
	classes *sections.Service
	passing PassingGrader
}

func NewService(db *gorm.DB, classes *sections.Service, passing PassingGrader) *Service {
	return &Service{db: db, classes: classes, passing: passing}
}

// --- Assessments ---

func (s *Service) ListAssessments(actor authctx.Actor, classID uuid.UUID) ([]Assessment, error) {
	if _, err := s.classes.ViewableClass(actor, classID); err != nil {
		return nil, err
	}
	return s.assessments(classID)
}

func (s *Service) assessments(classID uuid.UUID) ([]Assessment, error) {
	var out []Assessment
	err := s.db.Where("section_course_id = ?", classID).Order("period DESC, held_on, created_at").Find(&out).Error
	return out, err
}

func (s *Service) CreateAssessment(actor authctx.Actor, classID uuid.UUID, req *AssessmentRequest) (*Assessment, error) {
	if _, err := s.classes.TeachableClass(actor, classID); err != nil {
		return nil, err
	}
	a := Assessment{SectionCourseID: classID}
	if err := applyAssessment(&a, req); err != nil {
		return nil, err
	}
	if err := s.checkILO(classID, a.ILOID); err != nil {
		return nil, err
	}
	if err := s.db.Create(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Service) UpdateAssessment(actor authctx.Actor, id uuid.UUID, req *AssessmentRequest) (*Assessment, error) {
	a, err := s.teachableAssessment(actor, id)
	if err != nil {
		return nil, err
	}
	if err := applyAssessment(a, req); err != nil {
		return nil, err
	}
	if err := s.checkILO(a.SectionCourseID, a.ILOID); err != nil {
		return nil, err
	}
	var over int64
	if err := s.db.Model(&Score{}).Where("assessment_id = ? AND score > ?", id, a.MaxScore).Count(&over).Error; err != nil {
		return nil, err
	}
	if over > 0 {
		return nil, apps.Invalid("max_score is below recorded scores")
	}
	if err := s.db.Save(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) DeleteAssessment(actor authctx.Actor, id uuid.UUID) error {
	if _, err := s.teachableAssessment(actor, id); err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("assessment_id = ?", id).Delete(&Score{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Assessment{}, "id = ?", id).Error
	})
}

func (s *Service) teachableAssessment(actor authctx.Actor, id uuid.UUID) (*Assessment, error) {
	var a Assessment
	if err := s.db.First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apps.ErrNotFound
		}
		return nil, err
	}
	if _, err := s.classes.TeachableClass(actor, a.SectionCourseID); err != nil {
		return nil, err
	}
	return &a, nil
}

// checkILO requires a linked ILO to belong to the assessment's class.
func (s *Service) checkILO(classID uuid.UUID, iloID *uuid.UUID) error {
	if iloID == nil {
		return nil
	}
	var n int64
	if err := s.db.Model(&ILO{}).Where("id = ? AND section_course_id = ?", *iloID, classID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apps.Invalid("ilo_id must be an outcome of this class")
	}
	return nil
}

func applyAssessment(a *Assessment, req *AssessmentRequest) error {
	a.Title = strings.TrimSpace(req.Title)
	a.Kind = req.Kind
	a.Period = req.Period
	if a.Period == "" {
		a.Period = PeriodMidterm
	}
	a.MaxScore = req.MaxScore
	a.ILOID = req.ILOID
	a.HeldOn = nil
	if req.HeldOn != "" {
		d, err := time.Parse("2006-01-02", req.HeldOn)
		if err != nil {
			return apps.Invalid("held_on must be YYYY-MM-DD")
		}
		a.HeldOn = &d
	}
	return nil
}

// SaveScores records scores for one assessment. Every student must be
// enrolled and every score within 0 and the assessment's max score.
func (s *Service) SaveScores(actor authctx.Actor, assessmentID uuid.UUID, inputs []ScoreInput) ([]Score, error) {
	a, err := s.teachableAssessment(actor, assessmentID)
	if err != nil {
		return nil, err
	}
	roster, err := s.classes.Roster(a.SectionCourseID)
	if err != nil {
		return nil, err
	}
	enrolled := make(map[uuid.UUID]bool, len(roster))
	for _, e := range roster {
		enrolled[e.UserID] = true
	}

	var upserts []Score
	var clears []uuid.UUID
	for _, in := range inputs {
		if !enrolled[in.StudentID] {
			return nil, apps.Invalid(fmt.Sprintf("student %s is not enrolled in this class", in.StudentID))
		}
		if in.Score == nil {
			clears = append(clears, in.StudentID)
			continue
		}
		if *in.Score < 0 || *in.Score > a.MaxScore {
			return nil, apps.Invalid(fmt.Sprintf("score must be between 0 and %g", a.MaxScore))
		}
		upserts = append(upserts, Score{AssessmentID: a.ID, StudentID: in.StudentID, Score: *in.Score})
	}
	upserts = lastScorePerStudent(upserts)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(clears) > 0 {
			if err := tx.Where("assessment_id = ? AND student_id IN ?", a.ID, clears).Delete(&Score{}).Error; err != nil {
				return err
			}
		}
		if len(upserts) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "assessment_id"}, {Name: "student_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "updated_at"}),
		}).Create(&upserts).Error
	})
	if err != nil {
		return nil, err
	}

	var out []Score
	err = s.db.Where("assessment_id = ?", a.ID).Find(&out).Error
	return out, err
}

func lastScorePerStudent(scores []Score) []Score {
	index := make(map[uuid.UUID]int, len(scores))
	out := make([]Score, 0, len(scores))
	for _, sc := range scores {
		if i, ok := index[sc.StudentID]; ok {
			out[i] = sc
			continue
		}
		index[sc.StudentID] = len(out)
		out = append(out, sc)
	}
	return out
}

// --- Weights ---

func (s *Service) Weights(actor authctx.Actor, classID uuid.UUID) ([]GradeWeight, error) {
	if _, err := s.classes.ViewableClass(actor, classID); err != nil {
		return nil, err
	}
	var out []GradeWeight
	err := s.db.Where("section_course_id = ?", classID).Order("kind").Find(&out).Error
	return out, err
}

// ValidateWeights checks that kinds are distinct and weights total 100. An
// empty list is valid and means equal weighting.
func ValidateWeights(inputs []WeightInput) error {
	if len(inputs) == 0 {
		return nil
	}
	seen := map[string]bool{}
	var total float64
	for _, in := range inputs {
		if seen[in.Kind] {
			return apps.Invalid("duplicate weight for " + in.Kind)
		}
		seen[in.Kind] = true
		total += in.Weight
	}
	if math.Abs(total-100) > 0.001 {
		return apps.Invalid(fmt.Sprintf("weights must total 100, got %g", total))
	}
	return nil
}

// ReplaceWeights swaps the class weights for inputs.
func (s *Service) ReplaceWeights(actor authctx.Actor, classID uuid.UUID, inputs []WeightInput) ([]GradeWeight, error) {
	if _, err := s.classes.TeachableClass(actor, classID); err != nil {
		return nil, err
	}
	if err := ValidateWeights(inputs); err != nil {
		return nil, err
	}
	weights := make([]GradeWeight, 0, len(inputs))
	for _, in := range inputs {
		weights = append(weights, GradeWeight{SectionCourseID: classID, Kind: in.Kind, Weight: in.Weight})
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("section_course_id = ?", classID).Delete(&GradeWeight{}).Error; err != nil {
			return err
		}
		if len(weights) == 0 {
			return nil
		}
		return tx.Create(&weights).Error
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(weights, func(i, j int) bool { return weights[i].Kind < weights[j].Kind })
	return weights, nil
}

func (s *Service) weightMap(classID uuid.UUID) (map[string]float64, error) {
	var rows []GradeWeight
	if err := s.db.Where("section_course_id = ?", classID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(rows))
	for _, w := range rows {
		out[w.Kind] = w.Weight
	}
	return out, nil
}

// --- Computed grades ---

// scoreMap returns scores by student then assessment.
func (s *Service) scoreMap(assessments []Assessment, students ...uuid.UUID) (map[uuid.UUID]map[uuid.UUID]float64, error) {
	out := map[uuid.UUID]map[uuid.UUID]float64{}
	if len(assessments) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(assessments))
	for i, a := range assessments {
		ids[i] = a.ID
	}
	q := s.db.Where("assessment_id IN ?", ids)
	if len(students) > 0 {
		q = q.Where("student_id IN ?", students)
	}
	var rows []Score
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, sc := range rows {
		if out[sc.StudentID] == nil {
			out[sc.StudentID] = map[uuid.UUID]float64{}
		}
		out[sc.StudentID][sc.AssessmentID] = sc.Score
	}
	return out, nil
}

// ClassRecord computes the grade of every enrolled student of a class.
func (s *Service) ClassRecord(actor authctx.Actor, classID uuid.UUID) (*ClassRecord, error) {
	if _, err := s.classes.TeachableClass(actor, classID); err != nil {
		return nil, err
	}
	return s.classRecord(classID)
}

func (s *Service) classRecord(classID uuid.UUID) (*ClassRecord, error) {
	assessments, err := s.assessments(classID)
	if err != nil {
		return nil, err
	}
	weights, err := s.weightMap(classID)
	if err != nil {
		return nil, err
	}
	roster, err := s.classes.Roster(classID)
	if err != nil {
		return nil, err
	}
	scores, err := s.scoreMap(assessments)
	if err != nil {
		return nil, err
	}

	passing := s.passing.PassingGrade()
	record := &ClassRecord{
		Assessments:  assessments,
		Weights:      weights,
		PassingGrade: passing,
		Students:     make([]StudentGrade, 0, len(roster)),
	}
	for _, entry := range roster {
		own := scores[entry.UserID]
		if own == nil {
			own = map[uuid.UUID]float64{}
		}
		record.Students = append(record.Students, StudentGrade{
			RosterEntry: entry,
			Scores:      own,
			Result:      Compute(assessments, own, weights, passing),
		})
	}
	return record, nil
}

// MyGrades computes a student's grade in each enrolled class.
func (s *Service) MyGrades(actor authctx.Actor) ([]MyGrade, error) {
	classes, err := s.classes.MyClasses(authctx.Actor{UserID: actor.UserID, Role: "student"})
	if err != nil {
		return nil, err
	}
	passing := s.passing.PassingGrade()
	out := make([]MyGrade, 0, len(classes))
	for _, sc := range classes {
		assessments, err := s.assessments(sc.ID)
		if err != nil {
			return nil, err
		}
		weights, err := s.weightMap(sc.ID)
		if err != nil {
			return nil, err
		}
		scores, err := s.scoreMap(assessments, actor.UserID)
		if err != nil {
			return nil, err
		}
		own := scores[actor.UserID]
		if own == nil {
			own = map[uuid.UUID]float64{}
		}
		line := MyGrade{
			SectionCourseID: sc.ID,
			Assessments:     assessments,
			Scores:          own,
			Result:          Compute(assessments, own, weights, passing),
		}
		if sc.Course != nil {
			line.CourseCode, line.CourseTitle = sc.Course.Code, sc.Course.Title
		}
		out = append(out, line)
	}
	return out, nil
}

// Stats aggregates the computed grades of each class.
func (s *Service) Stats(classIDs []uuid.UUID) (map[uuid.UUID]ClassStats, error) {
	out := make(map[uuid.UUID]ClassStats, len(classIDs))
	for _, id := range classIDs {
		record, err := s.classRecord(id)
		if err != nil {
			return nil, err
		}
		out[id] = Aggregate(record.Students)
	}
	return out, nil
}

// Aggregate summarizes graded rows; rows without a grade are skipped.
func Aggregate(rows []StudentGrade) ClassStats {
	var st ClassStats
	var sum float64
	for _, row := range rows {
		switch row.Result.Remarks {
		case RemarkPassed:
			st.Passed++
		case RemarkFailed:
			st.Failed++
		default:
			continue
		}
		st.Graded++
		sum += row.Result.Percentage
	}
	if st.Graded > 0 {
		st.Average = round2(sum / float64(st.Graded))
	}
	return st
}

// --- ILOs ---

func (s *Service) ListILOs(actor authctx.Actor, classID uuid.UUID) ([]ILO, error) {
	if _, err := s.classes.ViewableClass(actor, classID); err != nil {
		return nil, err
	}
	var out []ILO
	err := s.db.Where("section_course_id = ?", classID).Order("ordinal, code").Find(&out).Error
	return out, err
}

func (s *Service) CreateILO(actor authctx.Actor, classID uuid.UUID, req *ILORequest) (*ILO, error) {
	if _, err := s.classes.TeachableClass(actor, classID); err != nil {
		return nil, err
	}
	ilo := ILO{
		SectionCourseID: classID,
		Code:            strings.ToUpper(strings.TrimSpace(req.Code)),
		Description:     strings.TrimSpace(req.Description),
		Ordinal:         req.Ordinal,
	}
	if err := s.db.Create(&ilo).Error; err != nil {
		return nil, err
	}
	return &ilo, nil
}

func (s *Service) teachableILO(actor authctx.Actor, id uuid.UUID) (*ILO, error) {
	var ilo ILO
	if err := s.db.First(&ilo, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apps.ErrNotFound
		}
		return nil, err
	}
	if _, err := s.classes.TeachableClass(actor, ilo.SectionCourseID); err != nil {
		return nil, err
	}
	return &ilo, nil
}

func (s *Service) UpdateILO(actor authctx.Actor, id uuid.UUID, req *ILORequest) (*ILO, error) {
	ilo, err := s.teachableILO(actor, id)
	if err != nil {
		return nil, err
	}
	ilo.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	ilo.Description = strings.TrimSpace(req.Description)
	ilo.Ordinal = req.Ordinal
	if err := s.db.Save(ilo).Error; err != nil {
		return nil, err
	}
	return ilo, nil
}

func (s *Service) DeleteILO(actor authctx.Actor, id uuid.UUID) error {
	if _, err := s.teachableILO(actor, id); err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Assessment{}).Where("ilo_id = ?", id).Update("ilo_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&ILO{}, "id = ?", id).Error
	})
}
