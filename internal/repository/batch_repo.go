package repository

import (
	"context"
	"strings"
	"time"

	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/dto"
	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BatchRepository defines CRUD operations for Batch.
type BatchRepository interface {
	Create(ctx context.Context, b *model.Batch) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Batch, error)
	List(ctx context.Context, filter dto.BatchFilter) ([]model.Batch, int64, error)
	Update(ctx context.Context, b *model.Batch) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type batchRepo struct{ db *gorm.DB }

func NewBatchRepository(db *gorm.DB) BatchRepository {
	return &batchRepo{db: db}
}

func (r *batchRepo) Create(ctx context.Context, b *model.Batch) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *batchRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Batch, error) {
	var b model.Batch
	err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *batchRepo) List(ctx context.Context, filter dto.BatchFilter) ([]model.Batch, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Batch{})

	if filter.MaterialID != "" {
		q = q.Where("material_id = ?", filter.MaterialID)
	}
	if filter.BatchCode != "" {
		q = q.Where("lower(batch_code) LIKE ?", "%"+strings.ToLower(filter.BatchCode)+"%")
	}
	if filter.DateFrom != "" {
		if from, err := time.Parse(dto.DateLayout, filter.DateFrom); err == nil {
			q = q.Where("production_date >= ?", from)
		}
	}
	if filter.DateTo != "" {
		if to, err := time.Parse(dto.DateLayout, filter.DateTo); err == nil {
			q = q.Where("production_date <= ?", to)
		}
	}
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []model.Batch
	err := q.Order("production_date desc").
		Limit(filter.Limit).Offset(filter.Offset).
		Find(&list).Error
	return list, total, err
}

func (r *batchRepo) Update(ctx context.Context, b *model.Batch) error {
	return r.db.WithContext(ctx).Save(b).Error
}

func (r *batchRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Batch{}).Where("id = ?", id).Update("is_active", false).Error
}
