package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/crms/internal/database/dbtest"
	"github.com/ahmetcoskunkizilkaya/crms/internal/models"
	"github.com/ahmetcoskunkizilkaya/crms/internal/roles"
)

func emails(users []models.User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.Email
	}
	return out
}

func TestUserServiceFiltersAndReview(t *testing.T) {
	db := dbtest.Open(t)
	dept := models.Department{Code: "CS", Name: "Computer Studies"}
	require.NoError(t, db.Create(&dept).Error)

	admin := dbtest.User(t, db, roles.Admin, "admin@school.edu", nil)
	chair := dbtest.User(t, db, roles.ProgramChair, "chair@school.edu", &dept.ID)
	prof := dbtest.User(t, db, roles.Faculty, "prof@school.edu", &dept.ID)
	newbie := dbtest.User(t, db, roles.Faculty, "newbie@school.edu", nil)
	require.NoError(t, db.Create(&models.UserApproval{UserID: newbie.ID, Status: models.ApprovalPending}).Error)
	require.NoError(t, db.Create(&models.RefreshToken{UserID: newbie.ID, TokenHash: "h-newbie", ExpiresAt: time.Now().Add(time.Hour)}).Error)

	svc := NewUserService(db)

	users, total, err := svc.List(UserFilter{Role: "Faculty"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.ElementsMatch(t, []string{"prof@school.edu", "newbie@school.edu"}, emails(users))

	users, total, err = svc.List(UserFilter{Role: "program chair", Status: models.ApprovalApproved})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, []string{"chair@school.edu"}, emails(users))
	assert.Equal(t, roles.ProgramChair, users[0].Role.Name)

	_, total, err = svc.List(UserFilter{Status: models.ApprovalApproved})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	users, total, err = svc.List(UserFilter{Search: "PROF", DepartmentID: &dept.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, prof.ID, users[0].ID)

	users, total, err = svc.List(UserFilter{Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, users, 1)

	pending, total, err := svc.PendingApprovals(1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, newbie.ID, pending[0].ID)

	_, err = svc.Review(admin.ID, admin.ID, models.ApprovalApproved, "")
	assert.ErrorIs(t, err, ErrSelfAction)

	reviewed, err := svc.Review(admin.ID, newbie.ID, models.ApprovalRejected, "not on staff list")
	require.NoError(t, err)
	require.NotNil(t, reviewed.Approval)
	assert.Equal(t, models.ApprovalRejected, reviewed.Approval.Status)
	var token models.RefreshToken
	require.NoError(t, db.Where("token_hash = ?", "h-newbie").First(&token).Error)
	assert.True(t, token.Revoked)

	// a user without an approval row gets one on review
	reviewed, err = svc.Review(admin.ID, prof.ID, models.ApprovalApproved, "")
	require.NoError(t, err)
	require.NotNil(t, reviewed.Approval)
	assert.Equal(t, admin.ID, *reviewed.Approval.ReviewedBy)

	byRole, err := svc.CountByRole()
	require.NoError(t, err)
	assert.EqualValues(t, 2, byRole[roles.Faculty])
	assert.EqualValues(t, 1, byRole[roles.Admin])

	require.NoError(t, svc.Delete(admin.ID, newbie.ID))
	var left int64
	require.NoError(t, db.Model(&models.RefreshToken{}).Where("user_id = ?", newbie.ID).Count(&left).Error)
	assert.Zero(t, left)
	_, err = svc.Get(newbie.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, svc.Delete(admin.ID, newbie.ID), ErrUserNotFound)

	_, err = svc.SetRole(admin.ID, chair.ID, "registrar")
	require.NoError(t, err)
	got, err := svc.Get(chair.ID)
	require.NoError(t, err)
	assert.Equal(t, roles.Staff, got.Role.Name)
}
