package dto

// ── Request DTOs ──────────────────────────────────────────────────────────────

type CreateMaterialRequest struct {
	Name        string  `json:"name"        validate:"required,min=1,max=255"`
	Description *string `json:"description"`
}

type UpdateMaterialRequest struct {
	Name        *string `json:"name"        validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// MaterialFilter holds the query parameters of GET /materials.
// IsActive defaults to "active only" when the parameter is absent.
type MaterialFilter struct {
	Search   string `form:"search"`
	IsActive *bool  `form:"is_active"`
	Limit    int    `form:"limit"`
	Offset   int    `form:"offset"`
}

// ── Response DTOs ─────────────────────────────────────────────────────────────

type MaterialResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	IsActive    bool    `json:"is_active"`
}

type MaterialListResponse struct {
	Items []MaterialResponse `json:"items"`
	Total int64              `json:"total"`
}
