package model

import (
	"time"

	"github.com/google/uuid"
)

// DocumentVersion is one uploaded file revision tied to a document. Rows are
// append-only: created once, never mutated or deleted. The (document_id,
// version) pair is unique at the database level so that two concurrent
// appends racing on the same document cannot both win — the loser gets a
// constraint violation instead of corrupting the version history.
type DocumentVersion struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	DocumentID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_document_versions_doc_version"`
	Version     int       `gorm:"not null;uniqueIndex:uq_document_versions_doc_version"`
	StoragePath string    `gorm:"size:500;not null"`
	Checksum    string    `gorm:"size:64;not null"` // sha256 hex of the uploaded bytes
	SizeBytes   int64     `gorm:"not null"`
	MimeType    string    `gorm:"size:255;not null"`
	Note        *string   `gorm:"type:text"`
	CreatedAt   time.Time
}

func (DocumentVersion) TableName() string { return "document_versions" }
