package academics_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/crms/internal/apps"
	"github.com/ahmetcoskunkizilkaya/crms/internal/apps/academics"
	"github.com/ahmetcoskunkizilkaya/crms/internal/apps/attendance"
	"github.com/ahmetcoskunkizilkaya/crms/internal/apps/grading"
	"github.com/ahmetcoskunkizilkaya/crms/internal/apps/sections"
	"github.com/ahmetcoskunkizilkaya/crms/internal/authctx"
	"github.com/ahmetcoskunkizilkaya/crms/internal/database/dbtest"
	"github.com/ahmetcoskunkizilkaya/crms/internal/models"
	"github.com/ahmetcoskunkizilkaya/crms/internal/roles"
)

func TestCatalogDeletesRefuseReferencedRows(t *testing.T) {
	db := dbtest.Open(t,
		&sections.Section{}, &sections.SectionCourse{}, &sections.Enrollment{},
		&attendance.Session{}, &attendance.Record{},
		&grading.Assessment{}, &grading.Score{}, &grading.GradeWeight{}, &grading.ILO{},
	)
	admin := authctx.Actor{UserID: uuid.New(), Role: roles.Admin}
	catalog := dbtest.NewCatalog(t, db, "CS")
	teacher := dbtest.User(t, db, roles.Faculty, "prof@school.edu", &catalog.Department.ID)

	svc := academics.NewService(db)
	term, err := svc.CreateTerm(&academics.TermRequest{SchoolYear: "2025-2026", Semester: "1st"})
	require.NoError(t, err)
	spare, err := svc.CreateTerm(&academics.TermRequest{SchoolYear: "2025-2026", Semester: "2nd"})
	require.NoError(t, err)

	classes := sections.NewService(db)
	sec, err := classes.CreateSection(admin, &sections.SectionRequest{ProgramID: &catalog.Program.ID, Name: "BSCS 1-A", YearLevel: 1, TermID: &term.ID})
	require.NoError(t, err)
	sc, err := classes.AssignCourse(admin, sec.ID, &sections.ClassRequest{CourseID: catalog.Course.ID, InstructorID: teacher.ID})
	require.NoError(t, err)
	require.NotNil(t, sc.TermID)
	assert.Equal(t, term.ID, *sc.TermID)

	assert.ErrorIs(t, svc.DeleteCourse(admin, catalog.Course.ID), apps.ErrInvalid)
	assert.ErrorIs(t, svc.DeleteTerm(term.ID), apps.ErrInvalid)
	assert.ErrorIs(t, svc.DeleteProgram(admin, catalog.Program.ID), apps.ErrInvalid)
	assert.ErrorIs(t, svc.DeleteDepartment(catalog.Department.ID), apps.ErrInvalid)
	require.NoError(t, svc.DeleteTerm(spare.ID))
	assert.ErrorIs(t, svc.DeleteTerm(spare.ID), apps.ErrNotFound)

	require.NoError(t, classes.DeleteClass(admin, sc.ID))
	require.NoError(t, svc.DeleteCourse(admin, catalog.Course.ID))
	// the section still points at the term
	assert.ErrorIs(t, svc.DeleteTerm(term.ID), apps.ErrInvalid)

	require.NoError(t, classes.DeleteSection(admin, sec.ID))
	require.NoError(t, svc.DeleteTerm(term.ID))
	require.NoError(t, svc.DeleteProgram(admin, catalog.Program.ID))
	require.NoError(t, svc.DeleteDepartment(catalog.Department.ID))

	var live int64
	require.NoError(t, db.Model(&models.Department{}).Count(&live).Error)
	assert.Zero(t, live)
}

func TestDeleteProgramRefusedWithStudents(t *testing.T) {
	db := dbtest.Open(t, &sections.Section{}, &sections.SectionCourse{}, &sections.Enrollment{})
	catalog := dbtest.NewCatalog(t, db, "IT")
	dbtest.Student(t, db, "ana@school.edu", "2024-0001", &catalog.Program.ID)

	svc := academics.NewService(db)
	err := svc.DeleteProgram(authctx.Actor{UserID: uuid.New(), Role: roles.Admin}, catalog.Program.ID)
	assert.ErrorIs(t, err, apps.ErrInvalid)
}
