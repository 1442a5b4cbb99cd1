package dto

import "time"

// DateLayout is the wire format for calendar dates (date_ref, production_date).
const DateLayout = "2006-01-02"

// ── Request DTOs ──────────────────────────────────────────────────────────────

// CreateDocumentRequest carries the parsed multipart form for POST /documents.
// Extra stays as raw JSON text: the service is responsible for rejecting
// anything that does not decode to an object.
type CreateDocumentRequest struct {
	Title      string
	CategoryID int
	DateRef    time.Time
	Tags       []string
	Extra      string
	Note       *string
	File       []byte
	FileName   string
	MimeType   string
}

// AddVersionRequest carries the multipart form for POST /documents/:id/versions.
type AddVersionRequest struct {
	Note     *string
	File     []byte
	FileName string
	MimeType string
}

// DocumentFilter holds the query parameters of GET /documents.
type DocumentFilter struct {
	Q          string `form:"q"`
	Status     string `form:"status"    validate:"omitempty,oneof=vigente archivado baja"`
	CategoryID *int   `form:"category_id"`
	DateFrom   string `form:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo     string `form:"date_to"   validate:"omitempty,datetime=2006-01-02"`
	Limit      int    `form:"limit"`
	Offset     int    `form:"offset"`
}

// ── Response DTOs ─────────────────────────────────────────────────────────────

type DocumentResponse struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	CategoryID     int            `json:"category_id"`
	DateRef        string         `json:"date_ref"`
	Tags           []string       `json:"tags"`
	Extra          map[string]any `json:"extra"`
	Note           *string        `json:"note,omitempty"`
	Status         string         `json:"status"`
	CurrentVersion int            `json:"current_version"`
	CreatedAt      string         `json:"created_at"`
}

type DocumentListResponse struct {
	Items []DocumentResponse `json:"items"`
	Total int64              `json:"total"`
}

type VersionResponse struct {
	Version     int     `json:"version"`
	StoragePath string  `json:"storage_path"`
	Checksum    string  `json:"checksum"`
	SizeBytes   int64   `json:"size_bytes"`
	MimeType    string  `json:"mime_type"`
	Note        *string `json:"note,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

type AddVersionResponse struct {
	OK      bool `json:"ok"`
	Version int  `json:"version"`
}

type DownloadLinkResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}
