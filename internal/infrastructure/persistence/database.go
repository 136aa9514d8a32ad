package persistence

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mes/backend/internal/domain/document"
	"github.com/mes/backend/internal/domain/stock"
	"github.com/mes/backend/internal/domain/workorder"
)

// NewPostgresDB opens the production database with tracing enabled
func NewPostgresDB(dsn string, maxOpen, maxIdle int) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Use(otelgorm.NewPlugin()); err != nil {
		return nil, fmt.Errorf("register tracing plugin: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// models lists every persisted aggregate and child entity
func models() []interface{} {
	return []interface{}{
		&stock.StockTransaction{},
		&stock.StockLevel{},
		&stock.StockBatch{},
		&document.MovementDocument{},
		&document.DocumentLine{},
		&document.CycleCount{},
		&document.CycleCountLine{},
		&workorder.WorkOrder{},
		&workorder.Material{},
		&workorder.Operation{},
		&workorder.BillOfMaterial{},
		&workorder.BOMLine{},
		&workorder.Routing{},
		&workorder.RoutingStep{},
		&workorder.LaborTimeEntry{},
	}
}

// NewTestDB opens an in-memory sqlite database with the schema migrated.
// Production schema management goes through the migration runner; this is
// for tests only.
func NewTestDB() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	// sqlite has a single writer; one connection keeps concurrent test
	// transactions from tripping over SQLITE_BUSY
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(models()...); err != nil {
		return nil, err
	}
	return db, nil
}
