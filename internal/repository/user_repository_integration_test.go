package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/crms/internal/database/dbtest"
	"github.com/ahmetcoskunkizilkaya/crms/internal/models"
	"github.com/ahmetcoskunkizilkaya/crms/internal/roles"
)

func TestGormCreateStudentIsAtomic(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewUserRepository(db)
	role, err := repo.RoleByName(roles.Student)
	require.NoError(t, err)

	newStudent := func(email, number string) error {
		return repo.CreateStudent(
			&models.User{RoleID: role.ID, Email: email, PasswordHash: "x", FirstName: "Ana", LastName: "Cruz", IsActive: true},
			&models.Student{StudentNumber: number, YearLevel: 1},
			&models.StudentProfile{Gender: "F"},
			&models.UserApproval{Status: models.ApprovalPending},
		)
	}
	require.NoError(t, newStudent("ana@school.edu", "2024-0001"))

	// the user row goes in first, so a duplicate number must roll it back
	err = newStudent("other@school.edu", "2024-0001")
	assert.ErrorIs(t, err, ErrDuplicate)
	exists, err := repo.EmailExists("OTHER@school.edu")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, newStudent("ana@school.edu", "2024-0002"), ErrDuplicate)
	taken, err := repo.StudentNumberExists("2024-0002")
	require.NoError(t, err)
	assert.False(t, taken)

	for table, want := range map[string]int64{"users": 1, "students": 1, "student_profiles": 1, "user_approvals": 1} {
		var n int64
		require.NoError(t, db.Table(table).Count(&n).Error)
		assert.Equal(t, want, n, table)
	}

	u, err := repo.FindUserByEmail("Ana@School.edu")
	require.NoError(t, err)
	assert.Equal(t, roles.Student, u.Role.Name)
	require.NotNil(t, u.Student)
	require.NotNil(t, u.Student.Profile)
	assert.Equal(t, "F", u.Student.Profile.Gender)
	require.NotNil(t, u.Approval)
	assert.False(t, u.IsApproved())
}

func TestGormRefreshTokens(t *testing.T) {
	db := dbtest.Open(t)
	u := dbtest.User(t, db, roles.Faculty, "prof@school.edu", nil)
	repo := NewUserRepository(db)

	for _, hash := range []string{"a", "b"} {
		require.NoError(t, repo.SaveRefreshToken(&models.RefreshToken{UserID: u.ID, TokenHash: hash, ExpiresAt: time.Now().Add(time.Hour)}))
	}
	tok, err := repo.FindRefreshToken("a")
	require.NoError(t, err)
	assert.Equal(t, u.ID, tok.UserID)

	require.NoError(t, repo.RevokeRefreshToken("a"))
	_, err = repo.FindRefreshToken("a")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.RevokeUserTokens(u.ID))
	_, err = repo.FindRefreshToken("b")
	assert.ErrorIs(t, err, ErrNotFound)

	u.LastName = "Santos"
	u.FirstName = "ignored"
	require.NoError(t, repo.UpdateUser(&u, "last_name"))
	got, err := repo.FindUserByID(u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Santos", got.LastName)
	assert.Equal(t, "prof", got.FirstName)
}
