package dto

type ReviewApprovalRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected pending"`
	Note   string `json:"note" validate:"max=1000"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type SetSettingRequest struct {
	Value  string `json:"value" validate:"required"`
	Type   string `json:"type" validate:"omitempty,oneof=string bool int float json"`
	Public *bool  `json:"public"`
}
