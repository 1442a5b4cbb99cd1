package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/apierror"
	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/dto"
	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DocumentsHandler struct{ svc service.DocumentService }

func NewDocumentsHandler(svc service.DocumentService) *DocumentsHandler {
	return &DocumentsHandler{svc: svc}
}

// readUpload extracts the "file" part of a multipart form. The bytes are read
// fully into memory; uploads are scanned documents, not bulk data.
func readUpload(c *gin.Context) (data []byte, name, mimeType string, ok bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, apierror.New("Archivo requerido (campo 'file')"))
		return nil, "", "", false
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, apierror.New("No se pudo leer el archivo"))
		return nil, "", "", false
	}
	defer f.Close()
	data, err = io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, apierror.New("No se pudo leer el archivo"))
		return nil, "", "", false
	}
	return data, fh.Filename, fh.Header.Get("Content-Type"), true
}

// splitTags parses the comma-separated "tags" form field, dropping blanks.
func splitTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func optionalForm(c *gin.Context, key string) *string {
	if v, ok := c.GetPostForm(key); ok && v != "" {
		return &v
	}
	return nil
}

func (h *DocumentsHandler) Create(c *gin.Context) {
	categoryID, err := strconv.Atoi(c.PostForm("category_id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, apierror.New("category_id inválido"))
		return
	}
	dateRef, err := time.Parse(dto.DateLayout, c.PostForm("date_ref"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, apierror.New("date_ref inválida (YYYY-MM-DD)"))
		return
	}
	data, name, mimeType, ok := readUpload(c)
	if !ok {
		return
	}

	req := dto.CreateDocumentRequest{
		Title:      c.PostForm("title"),
		CategoryID: categoryID,
		DateRef:    dateRef,
		Tags:       splitTags(c.PostForm("tags")),
		Extra:      c.PostForm("extra"),
		Note:       optionalForm(c, "note"),
		File:       data,
		FileName:   name,
		MimeType:   mimeType,
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *DocumentsHandler) List(c *gin.Context) {
	var filter dto.DocumentFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DocumentsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DocumentsHandler) AddVersion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	data, name, mimeType, ok := readUpload(c)
	if !ok {
		return
	}
	req := dto.AddVersionRequest{
		Note:     optionalForm(c, "note"),
		File:     data,
		FileName: name,
		MimeType: mimeType,
	}
	version, err := h.svc.AddVersion(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.AddVersionResponse{OK: true, Version: version})
}

func (h *DocumentsHandler) ListVersions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.ListVersions(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DocumentsHandler) DownloadLink(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}

	var version *int
	if raw := c.Query("version"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			c.JSON(http.StatusUnprocessableEntity, apierror.New("version inválida"))
			return
		}
		version = &v
	}

	expiresIn := 3600
	if raw := c.Query("expire_seconds"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			c.JSON(http.StatusUnprocessableEntity, apierror.New("expire_seconds inválido"))
			return
		}
		expiresIn = v
	}

	resp, err := h.svc.DownloadLink(c.Request.Context(), id, version, expiresIn)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
