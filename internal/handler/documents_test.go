package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/apierror"
	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDocumentService records the parsed requests the handler hands over and
// returns canned responses, so these tests cover multipart parsing and error
// mapping only.
type stubDocumentService struct {
	lastCreate     dto.CreateDocumentRequest
	lastAddVersion dto.AddVersionRequest

	createErr error
	version   int
}

func (s *stubDocumentService) Create(_ context.Context, req dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
	s.lastCreate = req
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &dto.DocumentResponse{
		ID:             uuid.NewString(),
		Title:          req.Title,
		CategoryID:     req.CategoryID,
		DateRef:        req.DateRef.Format(dto.DateLayout),
		Tags:           req.Tags,
		Status:         "vigente",
		CurrentVersion: 1,
	}, nil
}

func (s *stubDocumentService) Get(_ context.Context, _ uuid.UUID) (*dto.DocumentResponse, error) {
	return nil, apierror.NotFound("Documento no encontrado")
}

func (s *stubDocumentService) List(_ context.Context, _ dto.DocumentFilter) (*dto.DocumentListResponse, error) {
	return &dto.DocumentListResponse{Items: []dto.DocumentResponse{}}, nil
}

func (s *stubDocumentService) AddVersion(_ context.Context, _ uuid.UUID, req dto.AddVersionRequest) (int, error) {
	s.lastAddVersion = req
	return s.version, nil
}

func (s *stubDocumentService) ListVersions(_ context.Context, _ uuid.UUID) ([]dto.VersionResponse, error) {
	return []dto.VersionResponse{}, nil
}

func (s *stubDocumentService) DownloadLink(_ context.Context, _ uuid.UUID, _ *int, expireSeconds int) (*dto.DownloadLinkResponse, error) {
	return &dto.DownloadLinkResponse{URL: "https://blobs.local/x", ExpiresIn: expireSeconds}, nil
}

func newTestRouter(svc *stubDocumentService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewDocumentsHandler(svc)
	r.POST("/documents", h.Create)
	r.GET("/documents", h.List)
	r.GET("/documents/:id", h.Get)
	r.POST("/documents/:id/versions", h.AddVersion)
	r.GET("/documents/:id/download", h.DownloadLink)
	return r
}

func multipartBody(t *testing.T, fields map[string]string, fileName string, fileContent []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write(fileContent)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestCreateDocument_MultipartParsing(t *testing.T) {
	svc := &stubDocumentService{}
	r := newTestRouter(svc)

	body, contentType := multipartBody(t, map[string]string{
		"title":       "Certificado de análisis L-2025-104",
		"category_id": "7",
		"date_ref":    "2025-06-10",
		"tags":        "harina, proveedor-x , ",
		"extra":       `{"proveedor":"Molinos X"}`,
		"note":        "primera carga",
	}, "informe mensual.pdf", []byte("contenido pdf"))

	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assert.Equal(t, "Certificado de análisis L-2025-104", svc.lastCreate.Title)
	assert.Equal(t, 7, svc.lastCreate.CategoryID)
	assert.Equal(t, "2025-06-10", svc.lastCreate.DateRef.Format(dto.DateLayout))
	assert.Equal(t, []string{"harina", "proveedor-x"}, svc.lastCreate.Tags)
	assert.Equal(t, []byte("contenido pdf"), svc.lastCreate.File)
	assert.Equal(t, "informe mensual.pdf", svc.lastCreate.FileName)
	require.NotNil(t, svc.lastCreate.Note)
	assert.Equal(t, "primera carga", *svc.lastCreate.Note)
}

func TestCreateDocument_InvalidCategoryID(t *testing.T) {
	r := newTestRouter(&stubDocumentService{})

	body, contentType := multipartBody(t, map[string]string{
		"title":       "x",
		"category_id": "abc",
		"date_ref":    "2025-06-10",
	}, "f.pdf", []byte("x"))

	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateDocument_MissingFile(t *testing.T) {
	r := newTestRouter(&stubDocumentService{})

	body, contentType := multipartBody(t, map[string]string{
		"title":       "x",
		"category_id": "1",
		"date_ref":    "2025-06-10",
	}, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateDocument_ServiceErrorMapped(t *testing.T) {
	svc := &stubDocumentService{createErr: apierror.NotFound("Categoría no encontrada")}
	r := newTestRouter(svc)

	body, contentType := multipartBody(t, map[string]string{
		"title":       "x",
		"category_id": "99",
		"date_ref":    "2025-06-10",
	}, "f.pdf", []byte("x"))

	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp apierror.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Categoría no encontrada", resp.Detail)
}

func TestAddVersion_Multipart(t *testing.T) {
	svc := &stubDocumentService{version: 2}
	r := newTestRouter(svc)

	body, contentType := multipartBody(t, map[string]string{"note": "revisión"}, "informe v2.pdf", []byte("rev dos"))

	req := httptest.NewRequest(http.MethodPost, "/documents/"+uuid.NewString()+"/versions", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp dto.AddVersionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, 2, resp.Version)
	assert.Equal(t, []byte("rev dos"), svc.lastAddVersion.File)
}

func TestDownloadLink_QueryParams(t *testing.T) {
	r := newTestRouter(&stubDocumentService{})

	req := httptest.NewRequest(http.MethodGet, "/documents/"+uuid.NewString()+"/download?expire_seconds=120", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.DownloadLinkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 120, resp.ExpiresIn)

	req = httptest.NewRequest(http.MethodGet, "/documents/"+uuid.NewString()+"/download?version=0", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestListDocuments_RejectsMalformedFilters(t *testing.T) {
	r := newTestRouter(&stubDocumentService{})

	for _, query := range []string{
		"date_from=10-06-2025",
		"date_to=not-a-date",
		"status=borrado",
	} {
		req := httptest.NewRequest(http.MethodGet, "/documents?"+query, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, query)
	}

	req := httptest.NewRequest(http.MethodGet, "/documents?date_from=2025-06-01&date_to=2025-06-30", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetDocument_BadID(t *testing.T) {
	r := newTestRouter(&stubDocumentService{})

	req := httptest.NewRequest(http.MethodGet, "/documents/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
