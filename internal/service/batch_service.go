package service

import (
	"context"
	"errors"
	"time"

	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/apierror"
	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/dto"
	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/model"
	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BatchService defines business operations for production batches.
type BatchService interface {
	Create(ctx context.Context, req dto.CreateBatchRequest) (*dto.BatchResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.BatchResponse, error)
	List(ctx context.Context, filter dto.BatchFilter) (*dto.BatchListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateBatchRequest) (*dto.BatchResponse, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type batchService struct {
	repo         repository.BatchRepository
	materialRepo repository.MaterialRepository
}

func NewBatchService(repo repository.BatchRepository, materialRepo repository.MaterialRepository) BatchService {
	return &batchService{repo: repo, materialRepo: materialRepo}
}

func mapBatch(b *model.Batch) *dto.BatchResponse {
	return &dto.BatchResponse{
		ID:             b.ID.String(),
		MaterialID:     b.MaterialID.String(),
		BatchCode:      b.BatchCode,
		Quantity:       b.Quantity,
		ProductionDate: b.ProductionDate.Format(dto.DateLayout),
		IsActive:       b.IsActive,
	}
}

func (s *batchService) Create(ctx context.Context, req dto.CreateBatchRequest) (*dto.BatchResponse, error) {
	materialID, err := uuid.Parse(req.MaterialID)
	if err != nil {
		return nil, apierror.Invalid("material_id inválido")
	}
	if _, err := s.materialRepo.FindByID(ctx, materialID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("Material no encontrado")
		}
		return nil, apierror.Internal("Error consultando material", err)
	}

	productionDate, err := time.Parse(dto.DateLayout, req.ProductionDate)
	if err != nil {
		return nil, apierror.Invalid("production_date inválida (YYYY-MM-DD)")
	}

	b := &model.Batch{
		ID:             uuid.New(),
		MaterialID:     materialID,
		BatchCode:      req.BatchCode,
		Quantity:       *req.Quantity,
		ProductionDate: productionDate,
		IsActive:       true,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apierror.Conflict("Ya existe un batch con ese código para el material")
		}
		if repository.IsForeignKeyViolation(err) {
			return nil, apierror.NotFound("Material no encontrado")
		}
		return nil, apierror.Internal("Error creando batch", err)
	}
	return mapBatch(b), nil
}

func (s *batchService) Get(ctx context.Context, id uuid.UUID) (*dto.BatchResponse, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("Batch no encontrado")
		}
		return nil, apierror.Internal("Error consultando batch", err)
	}
	return mapBatch(b), nil
}

func (s *batchService) List(ctx context.Context, filter dto.BatchFilter) (*dto.BatchListResponse, error) {
	// Same default as materials: only active batches unless asked otherwise.
	if filter.IsActive == nil {
		active := true
		filter.IsActive = &active
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	if filter.Limit > 200 {
		filter.Limit = 200
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apierror.Internal("Error listando batches", err)
	}
	items := make([]dto.BatchResponse, 0, len(list))
	for i := range list {
		items = append(items, *mapBatch(&list[i]))
	}
	return &dto.BatchListResponse{Items: items, Total: total}, nil
}

func (s *batchService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateBatchRequest) (*dto.BatchResponse, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("Batch no encontrado")
		}
		return nil, apierror.Internal("Error consultando batch", err)
	}

	if req.BatchCode != nil {
		b.BatchCode = *req.BatchCode
	}
	if req.Quantity != nil {
		b.Quantity = *req.Quantity
	}
	if req.ProductionDate != nil {
		productionDate, err := time.Parse(dto.DateLayout, *req.ProductionDate)
		if err != nil {
			return nil, apierror.Invalid("production_date inválida (YYYY-MM-DD)")
		}
		b.ProductionDate = productionDate
	}
	if req.IsActive != nil {
		b.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, b); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apierror.Conflict("Ya existe un batch con ese código para el material")
		}
		return nil, apierror.Internal("Error actualizando batch", err)
	}
	return mapBatch(b), nil
}

// SoftDelete marks the batch inactive. Deleting an already-inactive batch
// returns NotFound, matching the material policy.
func (s *batchService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("Batch no encontrado")
		}
		return apierror.Internal("Error consultando batch", err)
	}
	if !b.IsActive {
		return apierror.NotFound("Batch no encontrado")
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return apierror.Internal("Error eliminando batch", err)
	}
	return nil
}
