package service

import (
	"context"
	"errors"

	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/apierror"
	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/dto"
	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/model"
	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/repository"

	"gorm.io/gorm"
)

// CategoryService exposes the minimal category operations the document
// workflow needs.
type CategoryService interface {
	Create(ctx context.Context, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error)
	List(ctx context.Context) ([]dto.CategoryResponse, error)
}

type categoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

func (s *categoryService) Create(ctx context.Context, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	// Case-insensitive pre-check: the unique index only catches exact
	// duplicates, but "Remitos" and "remitos" are the same category.
	if _, err := s.repo.FindByName(ctx, req.Name); err == nil {
		return nil, apierror.Conflict("Ya existe una categoría con ese nombre")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.Internal("Error consultando categoría", err)
	}

	c := &model.Category{Name: req.Name}
	if err := s.repo.Create(ctx, c); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apierror.Conflict("Ya existe una categoría con ese nombre")
		}
		return nil, apierror.Internal("Error creando categoría", err)
	}
	return &dto.CategoryResponse{ID: c.ID, Name: c.Name}, nil
}

func (s *categoryService) List(ctx context.Context) ([]dto.CategoryResponse, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, apierror.Internal("Error listando categorías", err)
	}
	result := make([]dto.CategoryResponse, 0, len(list))
	for _, c := range list {
		result = append(result, dto.CategoryResponse{ID: c.ID, Name: c.Name})
	}
	return result, nil
}
