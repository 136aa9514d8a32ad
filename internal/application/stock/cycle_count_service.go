package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mes/backend/internal/domain/document"
	"github.com/mes/backend/internal/domain/shared"
)

// CycleCountService manages cycle counts from scheduling through completion.
// Posting variances is delegated to the PostingService.
type CycleCountService struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewCycleCountService creates a cycle count service
func NewCycleCountService(scope TransactionScope, logger *zap.Logger) *CycleCountService {
	return &CycleCountService{scope: scope, logger: logger}
}

// ScheduleCount schedules a count for a location
func (s *CycleCountService) ScheduleCount(ctx context.Context, tenantID, createdBy uuid.UUID, countNumber string, locationID uuid.UUID, scheduledAt time.Time) (*document.CycleCount, error) {
	count, err := document.NewCycleCount(tenantID, locationID, countNumber, scheduledAt)
	if err != nil {
		return nil, err
	}
	count.SetCreatedBy(createdBy)

	err = s.scope.Execute(ctx, func(ctx context.Context, repos *Repositories) error {
		if existing, err := repos.CycleCounts.FindByNumber(ctx, tenantID, countNumber); err == nil && existing != nil {
			return shared.ErrAlreadyExists
		}
		return repos.CycleCounts.Save(ctx, count)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("cycle count scheduled",
		zap.String("cycle_count_id", count.ID.String()),
		zap.String("location_id", locationID.String()))
	return count, nil
}

// StartCount snapshots the location's balances and opens counting. The
// snapshot and the status change commit together, so the baseline is
// consistent with the ledger at the moment counting began.
func (s *CycleCountService) StartCount(ctx context.Context, tenantID, countID uuid.UUID) (*document.CycleCount, error) {
	var count *document.CycleCount
	err := ExecuteWithRetry(ctx, s.scope, func(ctx context.Context, repos *Repositories) error {
		var err error
		count, err = repos.CycleCounts.FindByID(ctx, tenantID, countID)
		if err != nil {
			return err
		}
		levels, err := repos.Levels.FindByLocation(ctx, tenantID, count.LocationID, shared.Filter{Page: 1, PageSize: 1000})
		if err != nil {
			return err
		}
		if err := count.Start(levels.Items); err != nil {
			return err
		}
		return repos.CycleCounts.SaveWithLock(ctx, count)
	})
	if err != nil {
		return nil, err
	}
	return count, nil
}

// RecordCount records a counted quantity for one line
func (s *CycleCountService) RecordCount(ctx context.Context, tenantID, countID, lineID uuid.UUID, counted decimal.Decimal) (*document.CycleCount, error) {
	var count *document.CycleCount
	err := ExecuteWithRetry(ctx, s.scope, func(ctx context.Context, repos *Repositories) error {
		var err error
		count, err = repos.CycleCounts.FindByID(ctx, tenantID, countID)
		if err != nil {
			return err
		}
		if err := count.RecordCount(lineID, counted); err != nil {
			return err
		}
		return repos.CycleCounts.SaveWithLock(ctx, count)
	})
	if err != nil {
		return nil, err
	}
	return count, nil
}

// CompleteCount closes counting once every line has been counted
func (s *CycleCountService) CompleteCount(ctx context.Context, tenantID, countID uuid.UUID) (*document.CycleCount, error) {
	var count *document.CycleCount
	err := ExecuteWithRetry(ctx, s.scope, func(ctx context.Context, repos *Repositories) error {
		var err error
		count, err = repos.CycleCounts.FindByID(ctx, tenantID, countID)
		if err != nil {
			return err
		}
		if err := count.Complete(); err != nil {
			return err
		}
		return repos.CycleCounts.SaveWithLock(ctx, count)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("cycle count completed", zap.String("cycle_count_id", count.ID.String()))
	return count, nil
}

// CancelCount abandons an unposted count
func (s *CycleCountService) CancelCount(ctx context.Context, tenantID, countID uuid.UUID) (*document.CycleCount, error) {
	var count *document.CycleCount
	err := ExecuteWithRetry(ctx, s.scope, func(ctx context.Context, repos *Repositories) error {
		var err error
		count, err = repos.CycleCounts.FindByID(ctx, tenantID, countID)
		if err != nil {
			return err
		}
		if err := count.Cancel(); err != nil {
			return err
		}
		return repos.CycleCounts.SaveWithLock(ctx, count)
	})
	if err != nil {
		return nil, err
	}
	return count, nil
}

// GetCount loads a cycle count with its lines
func (s *CycleCountService) GetCount(ctx context.Context, tenantID, countID uuid.UUID) (*document.CycleCount, error) {
	var count *document.CycleCount
	err := s.scope.Execute(ctx, func(ctx context.Context, repos *Repositories) error {
		var err error
		count, err = repos.CycleCounts.FindByID(ctx, tenantID, countID)
		return err
	})
	return count, err
}

// ListCounts returns cycle counts matching the filter
func (s *CycleCountService) ListCounts(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*document.CycleCount], error) {
	var page shared.Paginated[*document.CycleCount]
	err := s.scope.Execute(ctx, func(ctx context.Context, repos *Repositories) error {
		var err error
		page, err = repos.CycleCounts.FindByFilter(ctx, tenantID, filter)
		return err
	})
	return page, err
}
