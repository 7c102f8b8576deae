package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/crms/internal/models"
)

func TestMemoryCreateStudentRejectsDuplicates(t *testing.T) {
	repo := NewMemoryUserRepository()
	role := repo.AddRole("student", "Student", 10)

	user := &models.User{RoleID: role.ID, Email: "ana@school.edu", FirstName: "Ana", LastName: "Cruz"}
	student := &models.Student{StudentNumber: "2024-0001"}
	require.NoError(t, repo.CreateStudent(user, student, &models.StudentProfile{}, &models.UserApproval{Status: models.ApprovalPending}))

	users, students, profiles := repo.Count()
	assert.Equal(t, 1, users)
	assert.Equal(t, 1, students)
	assert.Equal(t, 1, profiles)

	dup := &models.User{RoleID: role.ID, Email: "ANA@school.edu"}
	err := repo.CreateStudent(dup, &models.Student{StudentNumber: "2024-0002"}, &models.StudentProfile{}, &models.UserApproval{})
	assert.ErrorIs(t, err, ErrDuplicate)

	users, _, _ = repo.Count()
	assert.Equal(t, 1, users)

	exists, err := repo.StudentNumberExists("2024-0001")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryFindUserHydratesRelations(t *testing.T) {
	repo := NewMemoryUserRepository()
	role := repo.AddRole("student", "Student", 10)

	user := &models.User{RoleID: role.ID, Email: "ben@school.edu"}
	require.NoError(t, repo.CreateStudent(user, &models.Student{StudentNumber: "S-100"}, &models.StudentProfile{Gender: "male"}, &models.UserApproval{Status: models.ApprovalPending}))

	found, err := repo.FindUserByEmail("BEN@school.edu")
	require.NoError(t, err)
	assert.Equal(t, "student", found.Role.Name)
	require.NotNil(t, found.Approval)
	assert.Equal(t, models.ApprovalPending, found.Approval.Status)
	require.NotNil(t, found.Student)
	assert.Equal(t, "S-100", found.Student.StudentNumber)
	require.NotNil(t, found.Student.Profile)
	assert.Equal(t, "male", found.Student.Profile.Gender)

	_, err = repo.FindUserByID(uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRefreshTokens(t *testing.T) {
	repo := NewMemoryUserRepository()
	userID := uuid.New()

	require.NoError(t, repo.SaveRefreshToken(&models.RefreshToken{UserID: userID, TokenHash: "a"}))
	require.NoError(t, repo.SaveRefreshToken(&models.RefreshToken{UserID: userID, TokenHash: "b"}))

	_, err := repo.FindRefreshToken("a")
	require.NoError(t, err)

	require.NoError(t, repo.RevokeRefreshToken("a"))
	_, err = repo.FindRefreshToken("a")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.RevokeUserTokens(userID))
	_, err = repo.FindRefreshToken("b")
	assert.ErrorIs(t, err, ErrNotFound)
}
