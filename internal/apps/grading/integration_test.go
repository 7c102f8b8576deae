package grading_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/crms/internal/apps"
	"github.com/ahmetcoskunkizilkaya/crms/internal/apps/grading"
	"github.com/ahmetcoskunkizilkaya/crms/internal/apps/sections"
	"github.com/ahmetcoskunkizilkaya/crms/internal/authctx"
	"github.com/ahmetcoskunkizilkaya/crms/internal/database/dbtest"
	"github.com/ahmetcoskunkizilkaya/crms/internal/roles"
)

type fixedPassing float64

func (p fixedPassing) PassingGrade() float64 { return float64(p) }

func ptr(v float64) *float64 { return &v }

func TestSaveScoresAndClassRecord(t *testing.T) {
	db := dbtest.Open(t, &sections.Section{}, &sections.SectionCourse{}, &sections.Enrollment{},
		&grading.Assessment{}, &grading.Score{}, &grading.GradeWeight{}, &grading.ILO{})
	catalog := dbtest.NewCatalog(t, db, "MA")
	teacher := dbtest.User(t, db, roles.Faculty, "prof@school.edu", &catalog.Department.ID)
	ana := dbtest.Student(t, db, "ana@school.edu", "2024-0001", &catalog.Program.ID)
	ben := dbtest.Student(t, db, "ben@school.edu", "2024-0002", &catalog.Program.ID)

	admin := authctx.Actor{UserID: uuid.New(), Role: roles.Admin}
	classes := sections.NewService(db)
	sec, err := classes.CreateSection(admin, &sections.SectionRequest{ProgramID: &catalog.Program.ID, Name: "BSMA 1-A", YearLevel: 1})
	require.NoError(t, err)
	sc, err := classes.AssignCourse(admin, sec.ID, &sections.ClassRequest{CourseID: catalog.Course.ID, InstructorID: teacher.ID})
	require.NoError(t, err)
	_, err = classes.Enroll(admin, sc.ID, []uuid.UUID{ana.ID, ben.ID})
	require.NoError(t, err)

	svc := grading.NewService(db, classes, fixedPassing(75))
	me := authctx.Actor{UserID: teacher.ID, Role: roles.Faculty}

	quiz, err := svc.CreateAssessment(me, sc.ID, &grading.AssessmentRequest{Title: "Quiz 1", Kind: grading.KindQuiz, MaxScore: 20})
	require.NoError(t, err)
	exam, err := svc.CreateAssessment(me, sc.ID, &grading.AssessmentRequest{Title: "Midterm", Kind: grading.KindExam, MaxScore: 100})
	require.NoError(t, err)
	_, err = svc.ReplaceWeights(me, sc.ID, []grading.WeightInput{
		{Kind: grading.KindQuiz, Weight: 40},
		{Kind: grading.KindExam, Weight: 60},
	})
	require.NoError(t, err)

	_, err = svc.SaveScores(me, quiz.ID, []grading.ScoreInput{
		{StudentID: ana.ID, Score: ptr(10)},
		{StudentID: ben.ID, Score: ptr(5)},
	})
	require.NoError(t, err)
	// second save updates in place and the last entry per student wins
	saved, err := svc.SaveScores(me, quiz.ID, []grading.ScoreInput{
		{StudentID: ana.ID, Score: ptr(12)},
		{StudentID: ana.ID, Score: ptr(20)},
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	_, err = svc.SaveScores(me, exam.ID, []grading.ScoreInput{
		{StudentID: ana.ID, Score: ptr(90)},
		{StudentID: ben.ID, Score: ptr(50)},
	})
	require.NoError(t, err)

	_, err = svc.SaveScores(me, exam.ID, []grading.ScoreInput{{StudentID: ben.ID, Score: ptr(101)}})
	assert.ErrorIs(t, err, apps.ErrInvalid)
	_, err = svc.SaveScores(me, exam.ID, []grading.ScoreInput{{StudentID: teacher.ID, Score: ptr(1)}})
	assert.ErrorIs(t, err, apps.ErrInvalid)

	record, err := svc.ClassRecord(me, sc.ID)
	require.NoError(t, err)
	require.Len(t, record.Students, 2)
	assert.Equal(t, 75.0, record.PassingGrade)
	results := map[uuid.UUID]grading.Result{}
	for _, row := range record.Students {
		results[row.UserID] = row.Result
	}
	// ana: quiz 100%, exam 90% -> 94
	assert.Equal(t, 94.0, results[ana.ID].Percentage)
	assert.Equal(t, 1.25, results[ana.ID].Grade)
	assert.Equal(t, grading.RemarkPassed, results[ana.ID].Remarks)
	// ben: quiz 25%, exam 50% -> 40
	assert.Equal(t, 40.0, results[ben.ID].Percentage)
	assert.Equal(t, grading.RemarkFailed, results[ben.ID].Remarks)

	// clearing a score counts it as zero
	_, err = svc.SaveScores(me, quiz.ID, []grading.ScoreInput{{StudentID: ana.ID}})
	require.NoError(t, err)
	mine, err := svc.MyGrades(authctx.Actor{UserID: ana.ID, Role: roles.Student})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, 54.0, mine[0].Result.Percentage)

	stats, err := svc.Stats([]uuid.UUID{sc.ID})
	require.NoError(t, err)
	assert.Equal(t, grading.ClassStats{Graded: 2, Failed: 2, Average: 47}, stats[sc.ID])

	_, err = svc.UpdateAssessment(me, exam.ID, &grading.AssessmentRequest{Title: "Midterm", Kind: grading.KindExam, MaxScore: 80})
	assert.ErrorIs(t, err, apps.ErrInvalid)
}

func TestAssessmentILOMustBelongToClass(t *testing.T) {
	db := dbtest.Open(t, &sections.Section{}, &sections.SectionCourse{}, &sections.Enrollment{},
		&grading.Assessment{}, &grading.Score{}, &grading.GradeWeight{}, &grading.ILO{})
	catalog := dbtest.NewCatalog(t, db, "PH")
	teacher := dbtest.User(t, db, roles.Faculty, "prof@school.edu", &catalog.Department.ID)

	admin := authctx.Actor{UserID: uuid.New(), Role: roles.Admin}
	classes := sections.NewService(db)
	var ids []uuid.UUID
	for _, name := range []string{"1-A", "1-B"} {
		sec, err := classes.CreateSection(admin, &sections.SectionRequest{ProgramID: &catalog.Program.ID, Name: name, YearLevel: 1})
		require.NoError(t, err)
		sc, err := classes.AssignCourse(admin, sec.ID, &sections.ClassRequest{CourseID: catalog.Course.ID, InstructorID: teacher.ID})
		require.NoError(t, err)
		ids = append(ids, sc.ID)
	}

	svc := grading.NewService(db, classes, fixedPassing(75))
	me := authctx.Actor{UserID: teacher.ID, Role: roles.Faculty}
	own, err := svc.CreateILO(me, ids[0], &grading.ILORequest{Code: "ilo1", Description: "Explain motion"})
	require.NoError(t, err)
	assert.Equal(t, "ILO1", own.Code)
	other, err := svc.CreateILO(me, ids[1], &grading.ILORequest{Code: "ILO1", Description: "Explain motion"})
	require.NoError(t, err)

	a, err := svc.CreateAssessment(me, ids[0], &grading.AssessmentRequest{Title: "Lab", Kind: grading.KindActivity, MaxScore: 10, ILOID: &own.ID})
	require.NoError(t, err)

	_, err = svc.CreateAssessment(me, ids[0], &grading.AssessmentRequest{Title: "Lab 2", Kind: grading.KindActivity, MaxScore: 10, ILOID: &other.ID})
	assert.ErrorIs(t, err, apps.ErrInvalid)
	_, err = svc.UpdateAssessment(me, a.ID, &grading.AssessmentRequest{Title: "Lab", Kind: grading.KindActivity, MaxScore: 10, ILOID: &other.ID})
	assert.ErrorIs(t, err, apps.ErrInvalid)

	missing := uuid.New()
	_, err = svc.CreateAssessment(me, ids[0], &grading.AssessmentRequest{Title: "Lab 3", Kind: grading.KindActivity, MaxScore: 10, ILOID: &missing})
	assert.ErrorIs(t, err, apps.ErrInvalid)
}
