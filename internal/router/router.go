package router

import (
	"time"

	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/config"
	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/handler"
	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/infra"
	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/middleware"
	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/repository"
	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/service"
	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis/Storage
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, store infra.ObjectStorage) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	documentRepo := repository.NewDocumentRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	batchRepo := repository.NewBatchRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	documentSvc := service.NewDocumentService(documentRepo, categoryRepo, store, dispatcher)
	categorySvc := service.NewCategoryService(categoryRepo)
	materialSvc := service.NewMaterialService(materialRepo)
	batchSvc := service.NewBatchService(batchRepo, materialRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	documentsH := handler.NewDocumentsHandler(documentSvc)
	categoriesH := handler.NewCategoriesHandler(categorySvc)
	materialsH := handler.NewMaterialsHandler(materialSvc)
	batchesH := handler.NewBatchesHandler(batchSvc)

	// ── Routes ───────────────────────────────────────────────────────────────
	r.GET("/", handler.Root())
	r.GET("/health", handler.Health(db, rdb, store != nil))

	docs := r.Group("/documents")
	{
		docs.POST("", documentsH.Create)
		docs.GET("", documentsH.List)
		docs.GET("/:id", documentsH.Get)
		docs.POST("/:id/versions", documentsH.AddVersion)
		docs.GET("/:id/versions", documentsH.ListVersions)
		docs.GET("/:id/download", documentsH.DownloadLink)
	}

	categories := r.Group("/categories")
	{
		categories.POST("", categoriesH.Create)
		categories.GET("", categoriesH.List)
	}

	materials := r.Group("/materials")
	{
		materials.POST("", materialsH.Create)
		materials.GET("", materialsH.List)
		materials.GET("/:id", materialsH.Get)
		materials.PATCH("/:id", materialsH.Update)
		materials.DELETE("/:id", materialsH.Delete)
	}

	batches := r.Group("/batches")
	{
		batches.POST("", batchesH.Create)
		batches.GET("", batchesH.List)
		batches.GET("/:id", batchesH.Get)
		batches.PATCH("/:id", batchesH.Update)
		batches.DELETE("/:id", batchesH.Delete)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
