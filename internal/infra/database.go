package infra

import (
	"fmt"

	"stocktrack/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that GORM
// cannot express (partial indexes, the sequences upsert table).
//
// TranslateError is on so unique violations surface as gorm.ErrDuplicatedKey;
// the identifier generators rely on that to retry with a fresh sequence.
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

// RunMigrations applies the schema. Also used by integration tests against a
// throwaway database.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.InventoryItem{},
		&model.StockTransaction{},
		&model.Requisition{},
		&model.RequisitionItem{},
		&model.Sequence{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot fully handle.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// Partial index for the low-stock scan: only active items are checked.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_inventory_low_stock') THEN
		    CREATE INDEX idx_inventory_low_stock
		        ON inventory_items (current_quantity)
		        WHERE status = 'active';
		  END IF;
		END $$`,
		// Partial index for the open requisition queue views.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_requisitions_open') THEN
		    CREATE INDEX idx_requisitions_open
		        ON requisitions (created_at)
		        WHERE status IN ('pending', 'approved', 'ordered');
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("schema patch: %w", err)
		}
	}
	return nil
}
