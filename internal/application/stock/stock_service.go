package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/stock"
)

// StockService answers balance and ledger queries and manages batches
type StockService struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewStockService creates a stock service
func NewStockService(scope TransactionScope, logger *zap.Logger) *StockService {
	return &StockService{scope: scope, logger: logger}
}

// GetLevel returns the balance row for one key
func (s *StockService) GetLevel(ctx context.Context, tenantID, productID, locationID uuid.UUID, batchID *uuid.UUID) (*stock.StockLevel, error) {
	var level *stock.StockLevel
	err := s.scope.Execute(ctx, func(ctx context.Context, repos *Repositories) error {
		var err error
		level, err = repos.Levels.FindByKey(ctx, tenantID, productID, locationID, batchID)
		return err
	})
	return level, err
}

// ListLevels returns balance rows matching the filter
func (s *StockService) ListLevels(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*stock.StockLevel], error) {
	var page shared.Paginated[*stock.StockLevel]
	err := s.scope.Execute(ctx, func(ctx context.Context, repos *Repositories) error {
		var err error
		page, err = repos.Levels.FindByFilter(ctx, tenantID, filter)
		return err
	})
	return page, err
}

// ListTransactions returns ledger entries matching the filter
func (s *StockService) ListTransactions(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*stock.StockTransaction], error) {
	var page shared.Paginated[*stock.StockTransaction]
	err := s.scope.Execute(ctx, func(ctx context.Context, repos *Repositories) error {
		var err error
		page, err = repos.Transactions.FindByFilter(ctx, tenantID, filter)
		return err
	})
	return page, err
}

// ProductHistory returns the ledger for one product
func (s *StockService) ProductHistory(ctx context.Context, tenantID, productID uuid.UUID, filter shared.Filter) (shared.Paginated[*stock.StockTransaction], error) {
	var page shared.Paginated[*stock.StockTransaction]
	err := s.scope.Execute(ctx, func(ctx context.Context, repos *Repositories) error {
		var err error
		page, err = repos.Transactions.FindByProduct(ctx, tenantID, productID, filter)
		return err
	})
	return page, err
}

// CreateBatch registers a new stock batch
func (s *StockService) CreateBatch(ctx context.Context, tenantID, createdBy uuid.UUID, req CreateBatchRequest) (*stock.StockBatch, error) {
	batch, err := stock.NewStockBatch(tenantID, req.ProductID, req.BatchNumber)
	if err != nil {
		return nil, err
	}
	batch.SetCreatedBy(createdBy)
	if err := batch.SetDates(req.ManufactureDate, req.ExpiryDate); err != nil {
		return nil, err
	}
	batch.SupplierRef = req.SupplierRef

	err = s.scope.Execute(ctx, func(ctx context.Context, repos *Repositories) error {
		if existing, err := repos.Batches.FindByNumber(ctx, tenantID, req.BatchNumber); err == nil && existing != nil {
			return shared.ErrAlreadyExists
		}
		return repos.Batches.Save(ctx, batch)
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// SetBatchQuality changes a batch's quality disposition
func (s *StockService) SetBatchQuality(ctx context.Context, tenantID, batchID uuid.UUID, status stock.BatchQualityStatus) (*stock.StockBatch, error) {
	var batch *stock.StockBatch
	err := s.scope.Execute(ctx, func(ctx context.Context, repos *Repositories) error {
		var err error
		batch, err = repos.Batches.FindByID(ctx, tenantID, batchID)
		if err != nil {
			return err
		}
		old := batch.QualityStatus
		if err := batch.SetQualityStatus(status); err != nil {
			return err
		}
		batch.AddDomainEvent(stock.NewBatchQualityChangedEvent(batch, old))
		return repos.Batches.Save(ctx, batch)
	})
	return batch, err
}

// DeleteBatch removes a batch. The repository refuses while any balance for
// the batch is non-zero.
func (s *StockService) DeleteBatch(ctx context.Context, tenantID, batchID uuid.UUID) error {
	return s.scope.Execute(ctx, func(ctx context.Context, repos *Repositories) error {
		return repos.Batches.Delete(ctx, tenantID, batchID)
	})
}

// ListExpiringBatches returns batches expiring before the horizon
func (s *StockService) ListExpiringBatches(ctx context.Context, tenantID uuid.UUID, before time.Time) ([]*stock.StockBatch, error) {
	var batches []*stock.StockBatch
	err := s.scope.Execute(ctx, func(ctx context.Context, repos *Repositories) error {
		var err error
		batches, err = repos.Batches.FindExpiringBefore(ctx, tenantID, before)
		return err
	})
	return batches, err
}

// LevelDiscrepancy reports one balance row that disagrees with the ledger
type LevelDiscrepancy struct {
	ProductID  uuid.UUID `json:"product_id"`
	LocationID uuid.UUID `json:"location_id"`
	BatchID    *uuid.UUID `json:"batch_id,omitempty"`
	Cached     string    `json:"cached"`
	Replayed   string    `json:"replayed"`
}

// VerifyLevels replays the ledger for every balance row and reports rows
// whose cached on-hand disagrees with the replayed sum. An empty result
// means the conservation invariant holds.
func (s *StockService) VerifyLevels(ctx context.Context, tenantID uuid.UUID) ([]LevelDiscrepancy, error) {
	var discrepancies []LevelDiscrepancy
	err := s.scope.Execute(ctx, func(ctx context.Context, repos *Repositories) error {
		levels, err := repos.Levels.FindAll(ctx, tenantID)
		if err != nil {
			return err
		}
		for _, level := range levels {
			replayed, err := repos.Transactions.SumDeltas(ctx, tenantID, level.ProductID, level.LocationID, level.BatchID)
			if err != nil {
				return err
			}
			if !replayed.Equal(level.OnHand) {
				discrepancies = append(discrepancies, LevelDiscrepancy{
					ProductID:  level.ProductID,
					LocationID: level.LocationID,
					BatchID:    level.BatchID,
					Cached:     level.OnHand.String(),
					Replayed:   replayed.String(),
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(discrepancies) > 0 {
		s.logger.Error("stock level verification found discrepancies",
			zap.Int("count", len(discrepancies)))
	}
	return discrepancies, nil
}
