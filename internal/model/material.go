package model

import (
	"time"

	"github.com/google/uuid"
)

// Material is a raw-material inventory record. IsActive=false marks a
// soft-deleted row; the row itself is never removed.
type Material struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"size:255;uniqueIndex;not null"`
	Description *string   `gorm:"type:text"`
	IsActive    bool      `gorm:"not null;default:true;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Batches []Batch `gorm:"foreignKey:MaterialID"`
}

func (Material) TableName() string { return "materials" }
