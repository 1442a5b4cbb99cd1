package infra

import (
	"fmt"

	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and runs the
// idempotent schema sync: AutoMigrate creates any missing tables/columns,
// then SQL patches apply the constraints GORM cannot express (CHECK
// constraints, composite listing index). Safe to run against an
// already-current schema; a failure here is fatal at startup.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations applies AutoMigrate plus schema patches. NewDatabase runs it
// at startup; re-running against a current schema is a no-op.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Category{},
		&model.Document{},
		&model.DocumentVersion{},
		&model.Material{},
		&model.Batch{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}

	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL statements that AutoMigrate cannot
// fully handle on its own. Each statement is guarded by an existence check so
// re-running on an already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"ck_documents_status", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'ck_documents_status') THEN
    ALTER TABLE documents
      ADD CONSTRAINT ck_documents_status
      CHECK (status IN ('vigente','archivado','baja'));
  END IF;
END $$`},
		{"ck_documents_current_version", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'ck_documents_current_version') THEN
    ALTER TABLE documents
      ADD CONSTRAINT ck_documents_current_version
      CHECK (current_version >= 1);
  END IF;
END $$`},
		{"ck_batches_quantity", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'ck_batches_quantity') THEN
    ALTER TABLE batches
      ADD CONSTRAINT ck_batches_quantity
      CHECK (quantity >= 0);
  END IF;
END $$`},
		// Composite index for the common listing query (category + status + date)
		{"ix_documents_cat_status_date", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'ix_documents_cat_status_date') THEN
    CREATE INDEX ix_documents_cat_status_date
        ON documents (category_id, status, date_ref);
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
