package dto

import "github.com/ahmetcoskunkizilkaya/crms/internal/validation"

// ErrorResponse is the single error envelope returned by every endpoint.
type ErrorResponse struct {
	Success bool                    `json:"success"`
	Error   string                  `json:"error"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type Pager struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
	HasMore  bool  `json:"has_more"`
}

type ListResponse struct {
	Success bool        `json:"success"`
	Items   interface{} `json:"items"`
	Pager   *Pager      `json:"pager,omitempty"`
}

type DataResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
	Cache     string `json:"cache"`
}

func NewPager(page, pageSize int, total int64) *Pager {
	return &Pager{
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		HasMore:  int64(page*pageSize) < total,
	}
}
