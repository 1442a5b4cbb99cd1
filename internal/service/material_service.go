package service

import (
	"context"
	"errors"

	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/apierror"
	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/dto"
	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/model"
	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaterialService defines business operations for raw materials.
type MaterialService interface {
	Create(ctx context.Context, req dto.CreateMaterialRequest) (*dto.MaterialResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.MaterialResponse, error)
	List(ctx context.Context, filter dto.MaterialFilter) (*dto.MaterialListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateMaterialRequest) (*dto.MaterialResponse, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type materialService struct {
	repo repository.MaterialRepository
}

func NewMaterialService(repo repository.MaterialRepository) MaterialService {
	return &materialService{repo: repo}
}

func mapMaterial(m *model.Material) *dto.MaterialResponse {
	return &dto.MaterialResponse{
		ID:          m.ID.String(),
		Name:        m.Name,
		Description: m.Description,
		IsActive:    m.IsActive,
	}
}

func (s *materialService) Create(ctx context.Context, req dto.CreateMaterialRequest) (*dto.MaterialResponse, error) {
	m := &model.Material{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apierror.Conflict("Ya existe un material con ese nombre")
		}
		return nil, apierror.Internal("Error creando material", err)
	}
	return mapMaterial(m), nil
}

func (s *materialService) Get(ctx context.Context, id uuid.UUID) (*dto.MaterialResponse, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("Material no encontrado")
		}
		return nil, apierror.Internal("Error consultando material", err)
	}
	return mapMaterial(m), nil
}

func (s *materialService) List(ctx context.Context, filter dto.MaterialFilter) (*dto.MaterialListResponse, error) {
	// Listings show active rows unless the caller asks otherwise; soft-deleted
	// materials only surface with an explicit is_active=false.
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
		return nil, apierror.Internal("Error listando materiales", err)
	}
	items := make([]dto.MaterialResponse, 0, len(list))
	for i := range list {
		items = append(items, *mapMaterial(&list[i]))
	}
	return &dto.MaterialListResponse{Items: items, Total: total}, nil
}

func (s *materialService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateMaterialRequest) (*dto.MaterialResponse, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("Material no encontrado")
		}
		return nil, apierror.Internal("Error consultando material", err)
	}

	// Partial update: only fields present in the request are applied.
	if req.Name != nil {
		m.Name = *req.Name
	}
	if req.Description != nil {
		m.Description = req.Description
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, m); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apierror.Conflict("Ya existe un material con ese nombre")
		}
		return nil, apierror.Internal("Error actualizando material", err)
	}
	return mapMaterial(m), nil
}

// SoftDelete marks the material inactive. A second delete of an
// already-inactive row is a NotFound, not a no-op.
func (s *materialService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("Material no encontrado")
		}
		return apierror.Internal("Error consultando material", err)
	}
	if !m.IsActive {
		return apierror.NotFound("Material no encontrado")
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return apierror.Internal("Error eliminando material", err)
	}
	return nil
}
