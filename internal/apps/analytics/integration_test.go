package analytics_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/crms/internal/apps/analytics"
	"github.com/ahmetcoskunkizilkaya/crms/internal/apps/attendance"
	"github.com/ahmetcoskunkizilkaya/crms/internal/apps/grading"
	"github.com/ahmetcoskunkizilkaya/crms/internal/apps/sections"
	"github.com/ahmetcoskunkizilkaya/crms/internal/authctx"
	"github.com/ahmetcoskunkizilkaya/crms/internal/cache"
	"github.com/ahmetcoskunkizilkaya/crms/internal/database/dbtest"
	"github.com/ahmetcoskunkizilkaya/crms/internal/models"
	"github.com/ahmetcoskunkizilkaya/crms/internal/roles"
)

type fixedPassing float64

func (p fixedPassing) PassingGrade() float64 { return float64(p) }

func TestDashboardsFromRecordedClasses(t *testing.T) {
	db := dbtest.Open(t,
		&sections.Section{}, &sections.SectionCourse{}, &sections.Enrollment{},
		&attendance.Session{}, &attendance.Record{},
		&grading.Assessment{}, &grading.Score{}, &grading.GradeWeight{}, &grading.ILO{},
	)
	ctx := context.Background()
	admin := authctx.Actor{UserID: uuid.New(), Role: roles.Admin}

	cs := dbtest.NewCatalog(t, db, "CS")
	ee := dbtest.NewCatalog(t, db, "EE")
	shared := models.Course{Code: "GE1", Title: "Purposive Communication", Units: 3}
	require.NoError(t, db.Create(&shared).Error)

	dean := dbtest.User(t, db, roles.Dean, "dean@school.edu", &cs.Department.ID)
	teacher := dbtest.User(t, db, roles.Faculty, "prof@school.edu", &cs.Department.ID)
	eeTeacher := dbtest.User(t, db, roles.Faculty, "volt@school.edu", &ee.Department.ID)
	ana := dbtest.Student(t, db, "ana@school.edu", "2024-0001", &cs.Program.ID)
	pending := dbtest.User(t, db, roles.Staff, "new@school.edu", nil)
	require.NoError(t, db.Create(&models.UserApproval{UserID: pending.ID, Status: models.ApprovalPending}).Error)

	classes := sections.NewService(db)
	csSec, err := classes.CreateSection(admin, &sections.SectionRequest{ProgramID: &cs.Program.ID, Name: "BSCS 1-A", YearLevel: 1})
	require.NoError(t, err)
	eeSec, err := classes.CreateSection(admin, &sections.SectionRequest{ProgramID: &ee.Program.ID, Name: "BSEE 1-A", YearLevel: 1})
	require.NoError(t, err)

	major, err := classes.AssignCourse(admin, csSec.ID, &sections.ClassRequest{CourseID: cs.Course.ID, InstructorID: teacher.ID})
	require.NoError(t, err)
	_, err = classes.AssignCourse(admin, csSec.ID, &sections.ClassRequest{CourseID: shared.ID, InstructorID: teacher.ID})
	require.NoError(t, err)
	_, err = classes.AssignCourse(admin, eeSec.ID, &sections.ClassRequest{CourseID: ee.Course.ID, InstructorID: eeTeacher.ID})
	require.NoError(t, err)
	_, err = classes.Enroll(admin, major.ID, []uuid.UUID{ana.ID})
	require.NoError(t, err)

	att := attendance.NewService(db, classes)
	for day, status := range map[string]string{"2025-08-11": attendance.StatusPresent, "2025-08-12": attendance.StatusAbsent} {
		_, err = att.RecordSession(admin, major.ID, &attendance.SessionRequest{
			HeldOn:  day,
			Records: []attendance.RecordInput{{StudentID: ana.ID, Status: status}},
		})
		require.NoError(t, err)
	}
	grades := grading.NewService(db, classes, fixedPassing(75))
	quiz, err := grades.CreateAssessment(admin, major.ID, &grading.AssessmentRequest{Title: "Quiz", Kind: grading.KindQuiz, MaxScore: 10})
	require.NoError(t, err)
	eight := 8.0
	_, err = grades.SaveScores(admin, quiz.ID, []grading.ScoreInput{{StudentID: ana.ID, Score: &eight}})
	require.NoError(t, err)

	svc := analytics.NewService(db, cache.Disabled(), fixedPassing(75))

	d, err := svc.Dashboard(ctx, authctx.Actor{UserID: dean.ID, Role: roles.Dean, DepartmentID: &cs.Department.ID})
	require.NoError(t, err)
	require.NotNil(t, d.Department)
	assert.Equal(t, analytics.DepartmentStats{
		DepartmentID: cs.Department.ID,
		Sections:     1,
		Faculty:      1,
		Students:     1,
		Classes:      2,
		Attendance:   50,
		PassRate:     100,
		AverageGrade: 80,
	}, *d.Department)
	assert.Empty(t, d.Classes)

	d, err = svc.Dashboard(ctx, authctx.Actor{UserID: teacher.ID, Role: roles.Faculty})
	require.NoError(t, err)
	require.Len(t, d.Classes, 2)
	lines := map[uuid.UUID]analytics.ClassLine{}
	for _, line := range d.Classes {
		lines[line.SectionCourseID] = line
	}
	assert.Equal(t, 1, lines[major.ID].Students)
	assert.Equal(t, 50.0, lines[major.ID].Attendance)
	assert.Equal(t, "BSCS 1-A", lines[major.ID].SectionName)

	d, err = svc.Dashboard(ctx, authctx.Actor{UserID: ana.ID, Role: roles.Student})
	require.NoError(t, err)
	require.NotNil(t, d.Attendance)
	assert.Equal(t, 50.0, d.Attendance.Rate)
	require.Len(t, d.Grades, 1)
	assert.Equal(t, "CS101", d.Grades[0].CourseCode)
	assert.Equal(t, 2.5, d.Grades[0].Grade)

	d, err = svc.Dashboard(ctx, admin)
	require.NoError(t, err)
	require.NotNil(t, d.PendingApprovals)
	assert.EqualValues(t, 1, *d.PendingApprovals)
	assert.EqualValues(t, 2, d.UsersByRole[roles.Faculty])
	assert.Equal(t, analytics.Totals{Departments: 2, Programs: 2, Courses: 3, Sections: 2, Classes: 3}, *d.Totals)
}
