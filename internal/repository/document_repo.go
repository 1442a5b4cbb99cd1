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

// DocumentRepository persists documents and their version history. The
// two-row writes (document+v1 at creation, version+pointer at append) run
// inside a single transaction so the relational side is all-or-nothing.
type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document, ver *model.DocumentVersion) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Document, error)
	List(ctx context.Context, filter dto.DocumentFilter) ([]model.Document, int64, error)
	AddVersion(ctx context.Context, ver *model.DocumentVersion) error
	ListVersions(ctx context.Context, documentID uuid.UUID) ([]model.DocumentVersion, error)
	FindVersion(ctx context.Context, documentID uuid.UUID, version *int) (*model.DocumentVersion, error)
}

type documentRepo struct{ db *gorm.DB }

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Create(ctx context.Context, doc *model.Document, ver *model.DocumentVersion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return err
		}
		return tx.Create(ver).Error
	})
}

func (r *documentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	var doc model.Document
	err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) List(ctx context.Context, filter dto.DocumentFilter) ([]model.Document, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Document{})

	if filter.Q != "" {
		q = q.Where("lower(title) LIKE ?", "%"+strings.ToLower(filter.Q)+"%")
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.DateFrom != "" {
		if from, err := time.Parse(dto.DateLayout, filter.DateFrom); err == nil {
			q = q.Where("date_ref >= ?", from)
		}
	}
	if filter.DateTo != "" {
		if to, err := time.Parse(dto.DateLayout, filter.DateTo); err == nil {
			q = q.Where("date_ref <= ?", to)
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var docs []model.Document
	err := q.Order("created_at desc").
		Limit(filter.Limit).Offset(filter.Offset).
		Find(&docs).Error
	return docs, total, err
}

// AddVersion inserts the version row and moves the document's
// current_version pointer in one transaction. A concurrent append that read
// the same base version loses here with a unique violation on
// (document_id, version).
func (r *documentRepo) AddVersion(ctx context.Context, ver *model.DocumentVersion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ver).Error; err != nil {
			return err
		}
		return tx.Model(&model.Document{}).
			Where("id = ?", ver.DocumentID).
			Update("current_version", ver.Version).Error
	})
}

func (r *documentRepo) ListVersions(ctx context.Context, documentID uuid.UUID) ([]model.DocumentVersion, error) {
	var versions []model.DocumentVersion
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("version desc").
		Find(&versions).Error
	return versions, err
}

func (r *documentRepo) FindVersion(ctx context.Context, documentID uuid.UUID, version *int) (*model.DocumentVersion, error) {
	q := r.db.WithContext(ctx).Where("document_id = ?", documentID)
	if version != nil {
		q = q.Where("version = ?", *version)
	}
	var ver model.DocumentVersion
	err := q.Order("version desc").First(&ver).Error
	if err != nil {
		return nil, err
	}
	return &ver, nil
}
