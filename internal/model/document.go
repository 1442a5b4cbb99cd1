package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Document status values, enforced by ck_documents_status.
const (
	StatusVigente   = "vigente"
	StatusArchivado = "archivado"
	StatusBaja      = "baja"
)

// Document is a titled record with one or more uploaded file versions.
// The ID is generated in the application (more portable than server-side
// extensions). CurrentVersion always equals the highest version among the
// document's DocumentVersion rows; it starts at 1 and only moves forward
// when a new version is appended.
type Document struct {
	ID             uuid.UUID                  `gorm:"type:uuid;primaryKey"`
	Title          string                     `gorm:"size:255;not null"`
	CategoryID     int                        `gorm:"not null;index"`
	DateRef        time.Time                  `gorm:"type:date;not null;index"`
	Tags           datatypes.JSONSlice[string] `gorm:"not null"`
	Extra          datatypes.JSONMap          `gorm:"not null"`
	Note           *string                    `gorm:"type:text"`
	Status         string                     `gorm:"size:32;not null;default:'vigente';index"`
	CurrentVersion int                        `gorm:"not null;default:1"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Category *Category         `gorm:"foreignKey:CategoryID"`
	Versions []DocumentVersion `gorm:"foreignKey:DocumentID"`
}

func (Document) TableName() string { return "documents" }
