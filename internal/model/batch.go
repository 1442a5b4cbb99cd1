package model

import (
	"time"

	"github.com/google/uuid"
)

// Batch is a production lot of a material. The (material_id, batch_code)
// pair is unique across all rows, active or not.
type Batch struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	MaterialID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_batches_material_code"`
	BatchCode      string    `gorm:"size:100;not null;uniqueIndex:uq_batches_material_code"`
	Quantity       int       `gorm:"not null"` // >= 0, enforced by ck_batches_quantity
	ProductionDate time.Time `gorm:"type:date;not null;index"`
	IsActive       bool      `gorm:"not null;default:true;index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Material *Material `gorm:"foreignKey:MaterialID"`
}

func (Batch) TableName() string { return "batches" }
