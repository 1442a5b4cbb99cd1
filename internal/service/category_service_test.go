package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCategory_DuplicateName(t *testing.T) {
	svc := NewCategoryService(newStubCategoryRepo())

	resp, err := svc.Create(context.Background(), dto.CreateCategoryRequest{Name: "Remitos"})
	require.NoError(t, err)
	assert.Equal(t, "Remitos", resp.Name)
	assert.NotZero(t, resp.ID)

	_, err = svc.Create(context.Background(), dto.CreateCategoryRequest{Name: "remitos"})
	requireStatus(t, err, http.StatusConflict)
}

func TestListCategories(t *testing.T) {
	svc := NewCategoryService(newStubCategoryRepo("Remitos", "Certificados"))

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Certificados", list[0].Name)
}
