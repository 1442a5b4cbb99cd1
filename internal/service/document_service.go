package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/apierror"
	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/dto"
	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/infra"
	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/model"
	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/repository"
	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/worker"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DocumentService orchestrates the two-phase document write: blob upload
// first, metadata second. A failed upload aborts the operation before any
// row exists; a failed metadata write triggers a compensating blob delete so
// no orphaned object ever references a non-existent document.
type DocumentService interface {
	Create(ctx context.Context, req dto.CreateDocumentRequest) (*dto.DocumentResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.DocumentResponse, error)
	List(ctx context.Context, filter dto.DocumentFilter) (*dto.DocumentListResponse, error)
	AddVersion(ctx context.Context, id uuid.UUID, req dto.AddVersionRequest) (int, error)
	ListVersions(ctx context.Context, id uuid.UUID) ([]dto.VersionResponse, error)
	DownloadLink(ctx context.Context, id uuid.UUID, version *int, expireSeconds int) (*dto.DownloadLinkResponse, error)
}

type documentService struct {
	repo         repository.DocumentRepository
	categoryRepo repository.CategoryRepository
	storage      infra.ObjectStorage
	dispatcher   *worker.Dispatcher
}

func NewDocumentService(
	repo repository.DocumentRepository,
	categoryRepo repository.CategoryRepository,
	storage infra.ObjectStorage,
	dispatcher *worker.Dispatcher,
) DocumentService {
	return &documentService{
		repo:         repo,
		categoryRepo: categoryRepo,
		storage:      storage,
		dispatcher:   dispatcher,
	}
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// safeFilename strips everything outside [A-Za-z0-9._-] from a client-supplied
// file name, collapsing runs into a single underscore. Empty input (or input
// that sanitizes to nothing) falls back to a generic name.
func safeFilename(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	name = unsafeChars.ReplaceAllString(name, "_")
	if name == "" {
		return "archivo"
	}
	return name
}

func checksumHex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// parseExtra decodes the raw `extra` form field. Anything that is not a JSON
// object (arrays, scalars, garbage) is a validation failure, not a server
// error.
func parseExtra(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var obj map[string]any
	dec := json.NewDecoder(strings.NewReader(raw))
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("extra debe ser un objeto JSON")
	}
	return obj, nil
}

func (s *documentService) ensureStorage() (infra.ObjectStorage, error) {
	if s.storage == nil {
		return nil, apierror.Unavailable("Storage deshabilitado")
	}
	return s.storage, nil
}

func (s *documentService) Create(ctx context.Context, req dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
	store, err := s.ensureStorage()
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Title) == "" {
		return nil, apierror.Invalid("El título es obligatorio")
	}
	extra, err := parseExtra(req.Extra)
	if err != nil {
		return nil, apierror.Invalid("Campo 'extra' debe ser JSON válido (objeto)")
	}
	if len(req.File) == 0 {
		return nil, apierror.Invalid("Archivo vacío")
	}

	// The category is a required reference — resolve it before touching
	// storage so an invalid id costs nothing.
	if _, err := s.categoryRepo.FindByID(ctx, req.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("Categoría no encontrada")
		}
		return nil, apierror.Internal("Error consultando categoría", err)
	}

	id := uuid.New()
	const version = 1
	filename := safeFilename(req.FileName)
	storagePath := fmt.Sprintf("%s/v%d/%s", id, version, filename)
	checksum := checksumHex(req.File)
	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	// Phase 1: blob upload. Nothing to undo if it fails.
	if err := store.Upload(ctx, storagePath, req.File, mimeType); err != nil {
		return nil, uploadError(err)
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	doc := &model.Document{
		ID:             id,
		Title:          req.Title,
		CategoryID:     req.CategoryID,
		DateRef:        req.DateRef,
		Tags:           datatypes.NewJSONSlice(tags),
		Extra:          datatypes.JSONMap(extra),
		Note:           req.Note,
		Status:         model.StatusVigente,
		CurrentVersion: version,
	}
	ver := &model.DocumentVersion{
		ID:          uuid.New(),
		DocumentID:  id,
		Version:     version,
		StoragePath: storagePath,
		Checksum:    checksum,
		SizeBytes:   int64(len(req.File)),
		MimeType:    mimeType,
		Note:        req.Note,
	}

	// Phase 2: both rows in one transaction. On failure the uploaded blob
	// must not outlive the request without a cleanup path.
	if err := s.repo.Create(ctx, doc, ver); err != nil {
		return nil, s.compensate(ctx, storagePath, err, "No se pudo registrar el documento")
	}

	return mapDocument(doc), nil
}

func uploadError(err error) error {
	if errors.Is(err, infra.ErrObjectExists) {
		return apierror.Conflict("Conflicto de versión: el documento fue modificado concurrentemente")
	}
	return apierror.Internal("Error subiendo el archivo a storage", err)
}

// compensate removes a blob whose metadata write failed. Upload is
// if-absent, so the path being removed was created by this request and never
// belongs to a committed version. When the delete
// itself fails the orphan path is handed to the janitor queue and both
// errors are reported to the caller.
func (s *documentService) compensate(ctx context.Context, storagePath string, cause error, detail string) error {
	if rmErr := s.storage.Remove(ctx, storagePath); rmErr != nil {
		if s.dispatcher != nil {
			_ = s.dispatcher.EnqueueBlobCleanup(ctx, storagePath)
		}
		return apierror.Internal(
			fmt.Sprintf("%s (además falló la limpieza del archivo %s: %v)", detail, storagePath, rmErr),
			cause,
		)
	}
	if repository.IsUniqueViolation(cause) {
		return apierror.Conflict("Conflicto de versión: el documento fue modificado concurrentemente")
	}
	if repository.IsForeignKeyViolation(cause) {
		return apierror.NotFound("Categoría no encontrada")
	}
	return apierror.Internal(detail, cause)
}

func (s *documentService) Get(ctx context.Context, id uuid.UUID) (*dto.DocumentResponse, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("Documento no encontrado")
		}
		return nil, apierror.Internal("Error consultando documento", err)
	}
	return mapDocument(doc), nil
}

func (s *documentService) List(ctx context.Context, filter dto.DocumentFilter) (*dto.DocumentListResponse, error) {
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	if filter.Limit > 200 {
		filter.Limit = 200
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	docs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apierror.Internal("Error listando documentos", err)
	}
	items := make([]dto.DocumentResponse, 0, len(docs))
	for i := range docs {
		items = append(items, *mapDocument(&docs[i]))
	}
	return &dto.DocumentListResponse{Items: items, Total: total}, nil
}

func (s *documentService) AddVersion(ctx context.Context, id uuid.UUID, req dto.AddVersionRequest) (int, error) {
	store, err := s.ensureStorage()
	if err != nil {
		return 0, err
	}

	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apierror.NotFound("Documento no encontrado")
		}
		return 0, apierror.Internal("Error consultando documento", err)
	}

	if len(req.File) == 0 {
		return 0, apierror.Invalid("Archivo vacío")
	}

	newVersion := doc.CurrentVersion + 1
	fileName := req.FileName
	if fileName == "" {
		fileName = fmt.Sprintf("v%d", newVersion)
	}
	storagePath := fmt.Sprintf("%s/v%d/%s", id, newVersion, safeFilename(fileName))
	checksum := checksumHex(req.File)
	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	// Upload-if-absent doubles as the first concurrency gate: a taken path
	// means another append already claimed this version number, and its blob
	// must not be overwritten or compensated away.
	if err := store.Upload(ctx, storagePath, req.File, mimeType); err != nil {
		return 0, uploadError(err)
	}

	ver := &model.DocumentVersion{
		ID:          uuid.New(),
		DocumentID:  id,
		Version:     newVersion,
		StoragePath: storagePath,
		Checksum:    checksum,
		SizeBytes:   int64(len(req.File)),
		MimeType:    mimeType,
		Note:        req.Note,
	}

	// Two concurrent appends race on current_version+1: the DB unique
	// constraint on (document_id, version) decides the loser, which gets a
	// conflict instead of a corrupted history.
	if err := s.repo.AddVersion(ctx, ver); err != nil {
		return 0, s.compensate(ctx, storagePath, err, "No se pudo registrar la versión")
	}

	return newVersion, nil
}

func (s *documentService) ListVersions(ctx context.Context, id uuid.UUID) ([]dto.VersionResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("Documento no encontrado")
		}
		return nil, apierror.Internal("Error consultando documento", err)
	}

	versions, err := s.repo.ListVersions(ctx, id)
	if err != nil {
		return nil, apierror.Internal("Error listando versiones", err)
	}
	result := make([]dto.VersionResponse, 0, len(versions))
	for _, v := range versions {
		result = append(result, dto.VersionResponse{
			Version:     v.Version,
			StoragePath: v.StoragePath,
			Checksum:    v.Checksum,
			SizeBytes:   v.SizeBytes,
			MimeType:    v.MimeType,
			Note:        v.Note,
			CreatedAt:   v.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return result, nil
}

func (s *documentService) DownloadLink(ctx context.Context, id uuid.UUID, version *int, expireSeconds int) (*dto.DownloadLinkResponse, error) {
	store, err := s.ensureStorage()
	if err != nil {
		return nil, err
	}

	if expireSeconds < 1 {
		expireSeconds = 3600
	}

	ver, err := s.repo.FindVersion(ctx, id, version)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("Versión no encontrada")
		}
		return nil, apierror.Internal("Error consultando versión", err)
	}

	url, err := store.SignedURL(ctx, ver.StoragePath, time.Duration(expireSeconds)*time.Second)
	if err != nil {
		return nil, apierror.Internal("No se pudo firmar URL", err)
	}

	return &dto.DownloadLinkResponse{URL: url, ExpiresIn: expireSeconds}, nil
}

func mapDocument(d *model.Document) *dto.DocumentResponse {
	return &dto.DocumentResponse{
		ID:             d.ID.String(),
		Title:          d.Title,
		CategoryID:     d.CategoryID,
		DateRef:        d.DateRef.Format(dto.DateLayout),
		Tags:           []string(d.Tags),
		Extra:          map[string]any(d.Extra),
		Note:           d.Note,
		Status:         d.Status,
		CurrentVersion: d.CurrentVersion,
		CreatedAt:      d.CreatedAt.UTC().Format(time.RFC3339),
	}
}
