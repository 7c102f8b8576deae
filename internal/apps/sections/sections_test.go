package sections

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ahmetcoskunkizilkaya/crms/internal/authctx"
	"github.com/ahmetcoskunkizilkaya/crms/internal/models"
)

func TestCanManage(t *testing.T) {
	dept, other := uuid.New(), uuid.New()

	assert.True(t, canManage(authctx.Actor{Role: "admin"}, nil))
	assert.True(t, canManage(authctx.Actor{Role: "registrar"}, &other))
	assert.True(t, canManage(authctx.Actor{Role: "dean", DepartmentID: &dept}, &dept))
	assert.False(t, canManage(authctx.Actor{Role: "dean", DepartmentID: &dept}, &other))
	assert.False(t, canManage(authctx.Actor{Role: "program_chair", DepartmentID: &dept}, nil))
	assert.False(t, canManage(authctx.Actor{Role: "faculty", DepartmentID: &dept}, &dept))
	assert.False(t, canManage(authctx.Actor{Role: "student"}, nil))
}

func TestSectionCourseDepartment(t *testing.T) {
	courseDept, programDept := uuid.New(), uuid.New()

	sc := &SectionCourse{}
	assert.Nil(t, sc.DepartmentID())

	sc.Section = &Section{Program: &models.Program{DepartmentID: programDept}}
	assert.Equal(t, programDept, *sc.DepartmentID())

	sc.Course = &models.Course{DepartmentID: &courseDept}
	assert.Equal(t, courseDept, *sc.DepartmentID())
}

func TestCanTeach(t *testing.T) {
	instructor := uuid.New()
	dept := uuid.New()
	sc := &SectionCourse{InstructorID: instructor, Course: &models.Course{DepartmentID: &dept}}
	svc := NewService(nil)

	assert.True(t, svc.CanTeach(authctx.Actor{UserID: instructor, Role: "faculty"}, sc))
	assert.False(t, svc.CanTeach(authctx.Actor{UserID: uuid.New(), Role: "faculty", DepartmentID: &dept}, sc))
	assert.True(t, svc.CanTeach(authctx.Actor{UserID: uuid.New(), Role: "program_chair", DepartmentID: &dept}, sc))

	ok, err := svc.CanView(authctx.Actor{UserID: uuid.New(), Role: "faculty"}, sc)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestDedupe(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	assert.Equal(t, []uuid.UUID{a, b}, dedupe([]uuid.UUID{a, uuid.Nil, b, a}))
	assert.Empty(t, dedupe(nil))
}
