package dto

// ── Request DTOs ──────────────────────────────────────────────────────────────

type CreateBatchRequest struct {
	MaterialID     string `json:"material_id"     validate:"required,uuid"`
	BatchCode      string `json:"batch_code"      validate:"required,min=1,max=100"`
	Quantity       *int   `json:"quantity"        validate:"required,gte=0"`
	ProductionDate string `json:"production_date" validate:"required,datetime=2006-01-02"`
}

type UpdateBatchRequest struct {
	BatchCode      *string `json:"batch_code"      validate:"omitempty,min=1,max=100"`
	Quantity       *int    `json:"quantity"        validate:"omitempty,gte=0"`
	ProductionDate *string `json:"production_date" validate:"omitempty,datetime=2006-01-02"`
	IsActive       *bool   `json:"is_active"`
}

// BatchFilter holds the query parameters of GET /batches.
type BatchFilter struct {
	MaterialID string `form:"material_id" validate:"omitempty,uuid"`
	BatchCode  string `form:"batch_code"`
	DateFrom   string `form:"date_from"   validate:"omitempty,datetime=2006-01-02"`
	DateTo     string `form:"date_to"     validate:"omitempty,datetime=2006-01-02"`
	IsActive   *bool  `form:"is_active"`
	Limit      int    `form:"limit"`
	Offset     int    `form:"offset"`
}

// ── Response DTOs ─────────────────────────────────────────────────────────────

type BatchResponse struct {
	ID             string `json:"id"`
	MaterialID     string `json:"material_id"`
	BatchCode      string `json:"batch_code"`
	Quantity       int    `json:"quantity"`
	ProductionDate string `json:"production_date"`
	IsActive       bool   `json:"is_active"`
}

type BatchListResponse struct {
	Items []BatchResponse `json:"items"`
	Total int64           `json:"total"`
}
