package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mes/backend/internal/domain/shared"
)

// TransactionRepository persists immutable ledger entries. There is no
// Update or Delete by design.
type TransactionRepository interface {
	Save(ctx context.Context, tx *StockTransaction) error
	SaveAll(ctx context.Context, txs []*StockTransaction) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*StockTransaction, error)
	FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType SourceDocumentType, sourceID uuid.UUID) ([]*StockTransaction, error)
	FindByProduct(ctx context.Context, tenantID, productID uuid.UUID, filter shared.Filter) (shared.Paginated[*StockTransaction], error)
	FindByFilter(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*StockTransaction], error)
	// SumDeltas replays the ledger for one balance key and returns the net
	// quantity. Used by the consistency verifier.
	SumDeltas(ctx context.Context, tenantID, productID, locationID uuid.UUID, batchID *uuid.UUID) (decimal.Decimal, error)
	CountSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int64, error)
}

// LevelRepository persists stock balance rows
type LevelRepository interface {
	Save(ctx context.Context, level *StockLevel) error
	// SaveWithLock persists the level only if its stored version matches the
	// version the caller loaded. Returns a concurrency conflict otherwise.
	SaveWithLock(ctx context.Context, level *StockLevel) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*StockLevel, error)
	FindByKey(ctx context.Context, tenantID, productID, locationID uuid.UUID, batchID *uuid.UUID) (*StockLevel, error)
	// GetOrCreate returns the existing balance row for the key, creating a
	// zero row if none exists yet.
	GetOrCreate(ctx context.Context, tenantID, productID, locationID uuid.UUID, batchID *uuid.UUID, uom string) (*StockLevel, error)
	FindByProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]*StockLevel, error)
	FindByLocation(ctx context.Context, tenantID, locationID uuid.UUID, filter shared.Filter) (shared.Paginated[*StockLevel], error)
	FindByFilter(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*StockLevel], error)
	FindAll(ctx context.Context, tenantID uuid.UUID) ([]*StockLevel, error)
	TotalOnHand(ctx context.Context, tenantID, productID uuid.UUID) (decimal.Decimal, error)
}

// BatchRepository persists stock batches
type BatchRepository interface {
	Save(ctx context.Context, batch *StockBatch) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*StockBatch, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, batchNumber string) (*StockBatch, error)
	FindByProduct(ctx context.Context, tenantID, productID uuid.UUID, filter shared.Filter) (shared.Paginated[*StockBatch], error)
	FindExpiringBefore(ctx context.Context, tenantID uuid.UUID, before time.Time) ([]*StockBatch, error)
	// Delete removes a batch. Implementations must refuse deletion while any
	// balance row for the batch is non-zero.
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
