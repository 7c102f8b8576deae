package dto

import (
	"github.com/ahmetcoskunkizilkaya/crms/internal/models"
	"github.com/ahmetcoskunkizilkaya/crms/internal/roles"
)

// AvatarURL is the public path of a user's avatar.
func AvatarURL(u *models.User) string {
	if u.ProfilePic == "" {
		return ""
	}
	return "/api/users/" + u.ID.String() + "/avatar"
}

func NewUserResponse(u *models.User) UserResponse {
	status := models.ApprovalApproved
	if u.Approval != nil {
		status = u.Approval.Status
	}

	resp := UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.FullName(),
		FirstName:     u.FirstName,
		MiddleName:    u.MiddleName,
		LastName:      u.LastName,
		Role:          roles.Normalize(u.Role.Name),
		RoleName:      u.Role.DisplayName,
		DepartmentID:  u.DepartmentID,
		ContactNumber: u.ContactNumber,
		ProfilePic:    AvatarURL(u),
		Status:        status,
		IsActive:      u.IsActive,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
	if resp.RoleName == "" {
		resp.RoleName = roles.Default().DisplayName(resp.Role)
	}
	if u.Student != nil {
		resp.StudentNumber = u.Student.StudentNumber
		resp.ProgramID = u.Student.ProgramID
		resp.YearLevel = u.Student.YearLevel
	}
	return resp
}

func NewUserResponses(users []models.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = NewUserResponse(&users[i])
	}
	return out
}
