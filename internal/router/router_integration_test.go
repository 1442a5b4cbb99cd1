//go:build integration

package router_test

// End-to-end tests against real Postgres + Redis + MinIO via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v
//
// Covered flows:
//   - full document lifecycle: create → add version → list versions → signed link
//   - DB-level uniqueness: duplicate material name and duplicate batch code
//   - version conflict surfaced as 409

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/config"
	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/infra"
	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcMinio "github.com/testcontainers/testcontainers-go/modules/minio"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

type testEnv struct {
	server *httptest.Server
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx, "postgres:16-alpine",
		tcPostgres.WithDatabase("trazadocs"),
		tcPostgres.WithUsername("traza"),
		tcPostgres.WithPassword("traza"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	redisC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisC.Terminate(ctx) })

	minioC, err := tcMinio.Run(ctx, "minio/minio:RELEASE.2024-01-16T16-07-38Z")
	require.NoError(t, err)
	t.Cleanup(func() { _ = minioC.Terminate(ctx) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	redisURL, err := redisC.ConnectionString(ctx)
	require.NoError(t, err)
	minioEndpoint, err := minioC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:              "test",
		StorageEnabled:   true,
		StorageEndpoint:  minioEndpoint,
		StorageAccessKey: minioC.Username,
		StorageSecretKey: minioC.Password,
		StorageBucket:    "traza-docs-test",
	}

	db, err := infra.NewDatabase(dsn)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(redisURL)
	require.NoError(t, err)

	store, err := infra.NewObjectStorage(cfg)
	require.NoError(t, err)

	engine := router.New(cfg, db, rdb, store)
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	return &testEnv{server: srv}
}

func postJSON(t *testing.T, env *testEnv, path string, payload any) *http.Response {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := env.server.Client().Post(env.server.URL+path, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	return resp
}

func postMultipart(t *testing.T, env *testEnv, path string, fields map[string]string, fileName string, content []byte) *http.Response {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	fw, err := w.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	resp, err := env.server.Client().Post(env.server.URL+path, w.FormDataContentType(), body)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func TestDocumentLifecycle(t *testing.T) {
	env := setupTestEnv(t)

	// Category first — documents require one.
	var category struct {
		ID int `json:"id"`
	}
	resp := postJSON(t, env, "/categories", map[string]string{"name": "Certificados de análisis"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &category)

	// Create the document with its first file.
	var doc struct {
		ID             string   `json:"id"`
		Status         string   `json:"status"`
		CurrentVersion int      `json:"current_version"`
		Tags           []string `json:"tags"`
	}
	resp = postMultipart(t, env, "/documents", map[string]string{
		"title":       "Certificado L-2025-104",
		"category_id": fmt.Sprintf("%d", category.ID),
		"date_ref":    "2025-06-10",
		"tags":        "harina,proveedor-x",
		"extra":       `{"proveedor":"Molinos X"}`,
	}, "certificado.pdf", []byte("primera version"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &doc)
	assert.Equal(t, "vigente", doc.Status)
	assert.Equal(t, 1, doc.CurrentVersion)

	// Append a second version.
	var added struct {
		OK      bool `json:"ok"`
		Version int  `json:"version"`
	}
	resp = postMultipart(t, env, "/documents/"+doc.ID+"/versions",
		map[string]string{"note": "revisión"}, "certificado v2.pdf", []byte("segunda version"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &added)
	assert.True(t, added.OK)
	assert.Equal(t, 2, added.Version)

	// History comes back newest first.
	var versions []struct {
		Version  int    `json:"version"`
		Checksum string `json:"checksum"`
	}
	httpResp, err := env.server.Client().Get(env.server.URL + "/documents/" + doc.ID + "/versions")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, httpResp.StatusCode)
	decode(t, httpResp, &versions)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].Version)
	assert.Equal(t, 1, versions[1].Version)
	assert.Len(t, versions[0].Checksum, 64)

	// Signed download link for the current version.
	var link struct {
		URL       string `json:"url"`
		ExpiresIn int    `json:"expires_in"`
	}
	httpResp, err = env.server.Client().Get(env.server.URL + "/documents/" + doc.ID + "/download?expire_seconds=120")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, httpResp.StatusCode)
	decode(t, httpResp, &link)
	assert.Equal(t, 120, link.ExpiresIn)
	assert.Contains(t, link.URL, "/v2/")

	// Round-trip: the bytes served by the signed URL hash back to the
	// checksum recorded at upload time.
	blobResp, err := http.Get(link.URL)
	require.NoError(t, err)
	defer blobResp.Body.Close()
	require.Equal(t, http.StatusOK, blobResp.StatusCode)
	served, err := io.ReadAll(blobResp.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("segunda version"), served)
	sum := sha256.Sum256(served)
	assert.Equal(t, versions[0].Checksum, hex.EncodeToString(sum[:]))
}

func TestMaterialAndBatchConstraints(t *testing.T) {
	env := setupTestEnv(t)

	var material struct {
		ID string `json:"id"`
	}
	resp := postJSON(t, env, "/materials", map[string]string{"name": "Harina 000"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &material)

	// Duplicate material name hits the DB unique index.
	resp = postJSON(t, env, "/materials", map[string]string{"name": "Harina 000"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, env, "/batches", map[string]any{
		"material_id":     material.ID,
		"batch_code":      "L-2025-104",
		"quantity":        500,
		"production_date": "2025-06-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Same code for the same material → 409 from uq_batches_material_code.
	resp = postJSON(t, env, "/batches", map[string]any{
		"material_id":     material.ID,
		"batch_code":      "L-2025-104",
		"quantity":        10,
		"production_date": "2025-06-02",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Nonexistent material → 404.
	resp = postJSON(t, env, "/batches", map[string]any{
		"material_id":     "00000000-0000-0000-0000-000000000001",
		"batch_code":      "L-1",
		"quantity":        1,
		"production_date": "2025-06-01",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestHealth(t *testing.T) {
	env := setupTestEnv(t)

	resp, err := env.server.Client().Get(env.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
