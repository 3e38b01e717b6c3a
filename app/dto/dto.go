// Package dto contains Data Transfer Objects for API request and response structures
package dto

// APIResponse represents the standard API response structure
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty" validate:"omitempty"`
	Error   any    `json:"error,omitempty" validate:"omitempty"`
}

// ErrorDetail represents error details in API responses
type ErrorDetail struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty" validate:"omitempty"`
}

// PaginationRequest is bound from ?page=&page_size=
type PaginationRequest struct {
	Page     int `query:"page" validate:"omitempty,min=1" example:"1"`
	PageSize int `query:"page_size" validate:"omitempty,min=1,max=100" example:"20"`
}

// Normalize fills in defaults
func (p *PaginationRequest) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

// Offset of the first row of the page
func (p PaginationRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// PaginationInfo is returned with every list
type PaginationInfo struct {
	Page       int   `json:"page" example:"1"`
	PageSize   int   `json:"page_size" example:"20"`
	Total      int64 `json:"total" example:"42"`
	TotalPages int   `json:"total_pages" example:"3"`
}

// NewPaginationInfo computes the page count of total rows
func NewPaginationInfo(p PaginationRequest, total int64) PaginationInfo {
	pages := 0
	if p.PageSize > 0 {
		pages = int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
	}
	return PaginationInfo{Page: p.Page, PageSize: p.PageSize, Total: total, TotalPages: pages}
}
