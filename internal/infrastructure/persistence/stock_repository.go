package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/stock"
)

// GormTransactionRepository persists the stock ledger. Entries are insert
// only; the repository deliberately offers no update or delete.
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates the repository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

func (r *GormTransactionRepository) Save(ctx context.Context, tx *stock.StockTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *GormTransactionRepository) SaveAll(ctx context.Context, txs []*stock.StockTransaction) error {
	if len(txs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(txs).Error
}

func (r *GormTransactionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*stock.StockTransaction, error) {
	var tx stock.StockTransaction
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&tx).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &tx, nil
}

func (r *GormTransactionRepository) FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType stock.SourceDocumentType, sourceID uuid.UUID) ([]*stock.StockTransaction, error) {
	var txs []*stock.StockTransaction
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND source_type = ? AND source_id = ?", tenantID, sourceType, sourceID).
		Order("transaction_time asc").
		Find(&txs).Error
	return txs, err
}

func (r *GormTransactionRepository) FindByProduct(ctx context.Context, tenantID, productID uuid.UUID, filter shared.Filter) (shared.Paginated[*stock.StockTransaction], error) {
	query := r.db.WithContext(ctx).
		Model(&stock.StockTransaction{}).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID)
	return findPage[*stock.StockTransaction](query, filter)
}

func (r *GormTransactionRepository) FindByFilter(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*stock.StockTransaction], error) {
	query := r.db.WithContext(ctx).
		Model(&stock.StockTransaction{}).
		Where("tenant_id = ?", tenantID)
	if v, ok := filter.Filters["type"]; ok {
		query = query.Where("type = ?", v)
	}
	if v, ok := filter.Filters["product_id"]; ok {
		query = query.Where("product_id = ?", v)
	}
	if v, ok := filter.Filters["location_id"]; ok {
		query = query.Where("from_location_id = ? OR to_location_id = ?", v, v)
	}
	if v, ok := filter.Filters["source_type"]; ok {
		query = query.Where("source_type = ?", v)
	}
	return findPage[*stock.StockTransaction](query, filter)
}

// SumDeltas replays the ledger for one balance key. The signed contribution
// of each entry mirrors stock.StockTransaction.Deltas.
func (r *GormTransactionRepository) SumDeltas(ctx context.Context, tenantID, productID, locationID uuid.UUID, batchID *uuid.UUID) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).
		Model(&stock.StockTransaction{}).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Where("from_location_id = ? OR to_location_id = ?", locationID, locationID)
	if batchID != nil {
		query = query.Where("batch_id = ?", *batchID)
	} else {
		query = query.Where("batch_id IS NULL")
	}

	var result struct {
		Total decimal.Decimal
	}
	err := query.Select(`COALESCE(SUM(
		CASE
			WHEN to_location_id = ? AND from_location_id IS NULL THEN quantity
			WHEN type = 'TRANSFER' AND to_location_id = ? THEN quantity
			WHEN from_location_id = ? THEN -quantity
			ELSE 0
		END), 0) AS total`, locationID, locationID, locationID).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

func (r *GormTransactionRepository) CountSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&stock.StockTransaction{}).
		Where("tenant_id = ? AND transaction_time >= ?", tenantID, since).
		Count(&count).Error
	return count, err
}

// GormLevelRepository persists stock balance rows
type GormLevelRepository struct {
	db *gorm.DB
}

// NewGormLevelRepository creates the repository
func NewGormLevelRepository(db *gorm.DB) *GormLevelRepository {
	return &GormLevelRepository{db: db}
}

func (r *GormLevelRepository) Save(ctx context.Context, level *stock.StockLevel) error {
	return r.db.WithContext(ctx).Save(level).Error
}

// SaveWithLock is the compare-and-swap save. The stored row must still carry
// the version the caller loaded; the update bumps it by one. Zero rows
// affected means another writer got there first.
func (r *GormLevelRepository) SaveWithLock(ctx context.Context, level *stock.StockLevel) error {
	loaded := level.GetVersion()
	res := r.db.WithContext(ctx).
		Model(&stock.StockLevel{}).
		Where("id = ? AND version = ?", level.ID, loaded).
		Updates(map[string]interface{}{
			"on_hand":    level.OnHand,
			"reserved":   level.Reserved,
			"version":    loaded + 1,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	level.IncrementVersion()
	return nil
}

func (r *GormLevelRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*stock.StockLevel, error) {
	var level stock.StockLevel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&level).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &level, nil
}

func (r *GormLevelRepository) FindByKey(ctx context.Context, tenantID, productID, locationID uuid.UUID, batchID *uuid.UUID) (*stock.StockLevel, error) {
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ? AND location_id = ?", tenantID, productID, locationID)
	if batchID != nil {
		query = query.Where("batch_id = ?", *batchID)
	} else {
		query = query.Where("batch_id IS NULL")
	}
	var level stock.StockLevel
	if err := query.First(&level).Error; err != nil {
		return nil, notFound(err)
	}
	return &level, nil
}

func (r *GormLevelRepository) GetOrCreate(ctx context.Context, tenantID, productID, locationID uuid.UUID, batchID *uuid.UUID, uom string) (*stock.StockLevel, error) {
	level, err := r.FindByKey(ctx, tenantID, productID, locationID, batchID)
	if err == nil {
		return level, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	level = stock.NewStockLevel(tenantID, productID, locationID, batchID, uom)
	if err := r.db.WithContext(ctx).Create(level).Error; err != nil {
		// Lost a race on the unique key; the winner's row is the truth.
		if existing, ferr := r.FindByKey(ctx, tenantID, productID, locationID, batchID); ferr == nil {
			return existing, nil
		}
		return nil, err
	}
	return level, nil
}

func (r *GormLevelRepository) FindByProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]*stock.StockLevel, error) {
	var levels []*stock.StockLevel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Find(&levels).Error
	return levels, err
}

func (r *GormLevelRepository) FindByLocation(ctx context.Context, tenantID, locationID uuid.UUID, filter shared.Filter) (shared.Paginated[*stock.StockLevel], error) {
	query := r.db.WithContext(ctx).
		Model(&stock.StockLevel{}).
		Where("tenant_id = ? AND location_id = ?", tenantID, locationID)
	return findPage[*stock.StockLevel](query, filter)
}

func (r *GormLevelRepository) FindByFilter(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*stock.StockLevel], error) {
	query := r.db.WithContext(ctx).
		Model(&stock.StockLevel{}).
		Where("tenant_id = ?", tenantID)
	if v, ok := filter.Filters["product_id"]; ok {
		query = query.Where("product_id = ?", v)
	}
	if v, ok := filter.Filters["location_id"]; ok {
		query = query.Where("location_id = ?", v)
	}
	return findPage[*stock.StockLevel](query, filter)
}

func (r *GormLevelRepository) FindAll(ctx context.Context, tenantID uuid.UUID) ([]*stock.StockLevel, error) {
	var levels []*stock.StockLevel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Find(&levels).Error
	return levels, err
}

func (r *GormLevelRepository) TotalOnHand(ctx context.Context, tenantID, productID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&stock.StockLevel{}).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Select("COALESCE(SUM(on_hand), 0) AS total").
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// GormBatchRepository persists stock batches
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates the repository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

func (r *GormBatchRepository) Save(ctx context.Context, batch *stock.StockBatch) error {
	return r.db.WithContext(ctx).Save(batch).Error
}

func (r *GormBatchRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*stock.StockBatch, error) {
	var batch stock.StockBatch
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&batch).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &batch, nil
}

func (r *GormBatchRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, batchNumber string) (*stock.StockBatch, error) {
	var batch stock.StockBatch
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND batch_number = ?", tenantID, batchNumber).
		First(&batch).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &batch, nil
}

func (r *GormBatchRepository) FindByProduct(ctx context.Context, tenantID, productID uuid.UUID, filter shared.Filter) (shared.Paginated[*stock.StockBatch], error) {
	query := r.db.WithContext(ctx).
		Model(&stock.StockBatch{}).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID)
	return findPage[*stock.StockBatch](query, filter)
}

func (r *GormBatchRepository) FindExpiringBefore(ctx context.Context, tenantID uuid.UUID, before time.Time) ([]*stock.StockBatch, error) {
	var batches []*stock.StockBatch
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND expiry_date IS NOT NULL AND expiry_date < ?", tenantID, before).
		Order("expiry_date asc").
		Find(&batches).Error
	return batches, err
}

// Delete removes a batch unless any balance for it is non-zero
func (r *GormBatchRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&stock.StockLevel{}).
		Where("tenant_id = ? AND batch_id = ? AND (on_hand <> 0 OR reserved <> 0)", tenantID, id).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Cannot delete a batch that still carries stock")
	}
	res := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&stock.StockBatch{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
