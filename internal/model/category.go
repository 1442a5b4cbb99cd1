package model

// Category classifies documents. Kept deliberately small: an integer id and a
// unique name, seeded at deploy time (see cmd/seedcategories).
type Category struct {
	ID   int    `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"size:120;uniqueIndex;not null"`
}

func (Category) TableName() string { return "categories" }
