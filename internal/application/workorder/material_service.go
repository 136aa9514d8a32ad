package workorder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appstock "github.com/mes/backend/internal/application/stock"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/stock"
	"github.com/mes/backend/internal/domain/workorder"
)

// MaterialService moves work order material through allocation, issue,
// consumption and return. Issues and returns write ledger entries; the
// material quantities and the stock movement always commit together.
type MaterialService struct {
	scope  appstock.TransactionScope
	logger *zap.Logger
}

// NewMaterialService creates a material service
func NewMaterialService(scope appstock.TransactionScope, logger *zap.Logger) *MaterialService {
	return &MaterialService{scope: scope, logger: logger}
}

// loadActiveOrder loads an order that accepts material activity
func loadActiveOrder(ctx context.Context, repos *appstock.Repositories, tenantID, orderID uuid.UUID) (*workorder.WorkOrder, error) {
	order, err := repos.WorkOrders.FindByID(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != workorder.WorkOrderStatusReleased && order.Status != workorder.WorkOrderStatusInProgress {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			"Material activity requires a released or in-progress order")
	}
	return order, nil
}

// AllocateMaterial reserves available stock at the input location against a
// requirement. The reservation fails with an insufficient stock error when
// availability does not cover the quantity.
func (s *MaterialService) AllocateMaterial(ctx context.Context, tenantID, orderID, productID uuid.UUID, qty decimal.Decimal) (*workorder.WorkOrder, error) {
	var order *workorder.WorkOrder
	err := appstock.ExecuteWithRetry(ctx, s.scope, func(ctx context.Context, repos *appstock.Repositories) error {
		var err error
		order, err = loadActiveOrder(ctx, repos, tenantID, orderID)
		if err != nil {
			return err
		}
		m, err := order.FindMaterial(productID)
		if err != nil {
			return err
		}
		level, err := repos.Levels.GetOrCreate(ctx, tenantID, productID, order.InputLocationID, nil, m.UnitOfMeasure)
		if err != nil {
			return err
		}
		if err := level.Reserve(qty); err != nil {
			return err
		}
		if err := repos.Levels.SaveWithLock(ctx, level); err != nil {
			return err
		}
		if err := m.Allocate(qty); err != nil {
			return err
		}
		return repos.WorkOrders.SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// IssueMaterial issues stock from the input location to the order. The
// requirement must have been allocated first; the reservation held for it is
// released so the issue draws from the quantity this order already earmarked.
func (s *MaterialService) IssueMaterial(ctx context.Context, tenantID, orderID, productID, issuedBy uuid.UUID, qty, unitCost decimal.Decimal, batchID *uuid.UUID) (*workorder.WorkOrder, error) {
	var order *workorder.WorkOrder
	err := appstock.ExecuteWithRetry(ctx, s.scope, func(ctx context.Context, repos *appstock.Repositories) error {
		var err error
		order, err = loadActiveOrder(ctx, repos, tenantID, orderID)
		if err != nil {
			return err
		}
		m, err := order.FindMaterial(productID)
		if err != nil {
			return err
		}
		if m.Status != workorder.MaterialStatusAllocated && m.Status != workorder.MaterialStatusIssued {
			return shared.NewDomainError(shared.CodeInvalidState,
				"Material must be allocated before issue")
		}
		if batchID != nil {
			if batch, err := repos.Batches.FindByID(ctx, tenantID, *batchID); err == nil && !batch.IsIssuable(time.Now()) {
				s.logger.Warn("material issued from a batch that is not cleared for issue",
					zap.String("batch_number", batch.BatchNumber),
					zap.String("quality_status", string(batch.QualityStatus)))
			}
		}

		if m.AllocatedQty.IsPositive() {
			level, err := repos.Levels.GetOrCreate(ctx, tenantID, productID, order.InputLocationID, batchID, m.UnitOfMeasure)
			if err != nil {
				return err
			}
			release := decimal.Min(m.AllocatedQty, qty, level.Reserved)
			if release.IsPositive() {
				if err := level.Release(release); err != nil {
					return err
				}
				if err := repos.Levels.SaveWithLock(ctx, level); err != nil {
					return err
				}
			}
		}

		issue, err := stock.NewStockTransaction(
			tenantID, stock.TransactionTypeIssue, productID, qty, m.UnitOfMeasure, issuedBy)
		if err != nil {
			return err
		}
		if err := issue.WithLocations(&order.InputLocationID, nil); err != nil {
			return err
		}
		issue.WithUnitCost(unitCost).
			WithSource(stock.SourceTypeWorkOrder, order.ID, &m.ID).
			WithReason("Material issue")
		if batchID != nil {
			issue.WithBatch(*batchID)
		}
		if err := repos.Ledger().Append(ctx, []*stock.StockTransaction{issue}, stock.AppendOptions{}); err != nil {
			return err
		}

		if err := m.RecordIssue(qty, unitCost); err != nil {
			return err
		}
		return repos.WorkOrders.SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("material issued",
		zap.String("work_order_id", orderID.String()),
		zap.String("product_id", productID.String()),
		zap.String("quantity", qty.String()))
	return order, nil
}

// ConsumeMaterial records quantity used up at the work center. The stock
// already left the warehouse at issue, so consumption has no ledger effect.
func (s *MaterialService) ConsumeMaterial(ctx context.Context, tenantID, orderID, productID uuid.UUID, qty decimal.Decimal) (*workorder.WorkOrder, error) {
	var order *workorder.WorkOrder
	err := appstock.ExecuteWithRetry(ctx, s.scope, func(ctx context.Context, repos *appstock.Repositories) error {
		var err error
		order, err = loadActiveOrder(ctx, repos, tenantID, orderID)
		if err != nil {
			return err
		}
		m, err := order.FindMaterial(productID)
		if err != nil {
			return err
		}
		if err := m.RecordConsumption(qty); err != nil {
			return err
		}
		return repos.WorkOrders.SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ReturnMaterial sends issued-but-unconsumed quantity back to the input
// location at the averaged issue cost.
func (s *MaterialService) ReturnMaterial(ctx context.Context, tenantID, orderID, productID, returnedBy uuid.UUID, qty decimal.Decimal) (*workorder.WorkOrder, error) {
	var order *workorder.WorkOrder
	err := appstock.ExecuteWithRetry(ctx, s.scope, func(ctx context.Context, repos *appstock.Repositories) error {
		var err error
		order, err = loadActiveOrder(ctx, repos, tenantID, orderID)
		if err != nil {
			return err
		}
		m, err := order.FindMaterial(productID)
		if err != nil {
			return err
		}
		if err := m.RecordReturn(qty); err != nil {
			return err
		}

		ret, err := stock.NewStockTransaction(
			tenantID, stock.TransactionTypeReceipt, productID, qty, m.UnitOfMeasure, returnedBy)
		if err != nil {
			return err
		}
		if err := ret.WithLocations(nil, &order.InputLocationID); err != nil {
			return err
		}
		ret.WithUnitCost(m.UnitCost).
			WithSource(stock.SourceTypeWorkOrder, order.ID, &m.ID).
			WithReason("Material return")
		if err := repos.Ledger().Append(ctx, []*stock.StockTransaction{ret}, stock.AppendOptions{}); err != nil {
			return err
		}
		return repos.WorkOrders.SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
