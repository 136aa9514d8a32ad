package workorder

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appstock "github.com/mes/backend/internal/application/stock"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/stock"
	"github.com/mes/backend/internal/domain/workorder"
)

// WorkOrderService drives the work order lifecycle. Ledger effects of
// completing and cancelling an order run in the same transaction as the
// status change.
type WorkOrderService struct {
	scope  appstock.TransactionScope
	events shared.EventPublisher
	logger *zap.Logger
}

// NewWorkOrderService creates a work order service
func NewWorkOrderService(scope appstock.TransactionScope, events shared.EventPublisher, logger *zap.Logger) *WorkOrderService {
	return &WorkOrderService{scope: scope, events: events, logger: logger}
}

// CreateWorkOrder creates a work order in not-started status
func (s *WorkOrderService) CreateWorkOrder(ctx context.Context, tenantID, createdBy uuid.UUID, req CreateWorkOrderRequest) (*workorder.WorkOrder, error) {
	order, err := workorder.NewWorkOrder(tenantID, req.OrderNumber, req.ProductID, req.Quantity, req.UnitOfMeasure, req.InputLocationID, req.OutputLocationID)
	if err != nil {
		return nil, err
	}
	order.SetCreatedBy(createdBy)
	if req.DueDate != nil {
		order.SetDueDate(*req.DueDate)
	}
	if err := order.SetStandardCost(req.StandardCost); err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(ctx context.Context, repos *appstock.Repositories) error {
		if existing, err := repos.WorkOrders.FindByNumber(ctx, tenantID, req.OrderNumber); err == nil && existing != nil {
			return shared.ErrAlreadyExists
		}
		return repos.WorkOrders.Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("work order created",
		zap.String("work_order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber))
	return order, nil
}

// ReleaseWorkOrder explodes the active bill of material and routing into
// requirements and operations. Availability of each component is checked as
// an advisory: shortages raise events but never block the release.
func (s *WorkOrderService) ReleaseWorkOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*workorder.WorkOrder, error) {
	var order *workorder.WorkOrder
	var shortages []shared.DomainEvent

	err := appstock.ExecuteWithRetry(ctx, s.scope, func(ctx context.Context, repos *appstock.Repositories) error {
		shortages = shortages[:0]
		var err error
		order, err = repos.WorkOrders.FindByID(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		bom, err := repos.BOMs.FindActiveByProduct(ctx, tenantID, order.ProductID)
		if err != nil {
			return shared.NewDomainError(shared.CodeValidationFailed,
				"No active bill of material for the ordered product")
		}
		routing, err := repos.Routings.FindActiveByProduct(ctx, tenantID, order.ProductID)
		if err != nil {
			return shared.NewDomainError(shared.CodeValidationFailed,
				"No active routing for the ordered product")
		}
		if err := order.Release(bom, routing); err != nil {
			return err
		}

		for i := range order.Materials {
			m := &order.Materials[i]
			available, err := repos.Levels.TotalOnHand(ctx, tenantID, m.ProductID)
			if err != nil {
				return err
			}
			if available.LessThan(m.RequiredQty) {
				shortages = append(shortages, stock.NewStockShortageDetectedEvent(
					tenantID, m.ProductID, order.ID, m.RequiredQty, available))
			}
		}
		return repos.WorkOrders.SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, order.GetDomainEvents())
	s.publishEvents(ctx, shortages)
	order.ClearDomainEvents()
	s.logger.Info("work order released",
		zap.String("work_order_id", order.ID.String()),
		zap.Int("shortages", len(shortages)))
	return order, nil
}

// AssignOperation records the planned operator for a pending operation
func (s *WorkOrderService) AssignOperation(ctx context.Context, tenantID, orderID, operationID, operatorID uuid.UUID) (*workorder.WorkOrder, error) {
	var order *workorder.WorkOrder
	err := appstock.ExecuteWithRetry(ctx, s.scope, func(ctx context.Context, repos *appstock.Repositories) error {
		var err error
		order, err = repos.WorkOrders.FindByID(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		if err := order.AssignOperation(operationID, operatorID); err != nil {
			return err
		}
		return repos.WorkOrders.SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// StartOperation starts a routed operation for an operator, enforcing
// sequence. An operator already clocked in elsewhere cannot start another
// operation.
func (s *WorkOrderService) StartOperation(ctx context.Context, tenantID, orderID, operationID, operatorID uuid.UUID) (*workorder.WorkOrder, error) {
	var order *workorder.WorkOrder
	err := appstock.ExecuteWithRetry(ctx, s.scope, func(ctx context.Context, repos *appstock.Repositories) error {
		open, err := repos.Labor.FindOpenByOperator(ctx, tenantID, operatorID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if open != nil {
			return shared.NewDomainError(shared.CodeInvalidState,
				"Operator already has an open labor entry")
		}
		order, err = repos.WorkOrders.FindByID(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		if err := order.StartOperation(operationID, operatorID); err != nil {
			return err
		}
		return repos.WorkOrders.SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CompleteOperation completes a routed operation. Operators still clocked in
// on the operation must clock out first.
func (s *WorkOrderService) CompleteOperation(ctx context.Context, tenantID, orderID, operationID uuid.UUID) (*workorder.WorkOrder, error) {
	var order *workorder.WorkOrder
	err := appstock.ExecuteWithRetry(ctx, s.scope, func(ctx context.Context, repos *appstock.Repositories) error {
		var err error
		order, err = repos.WorkOrders.FindByID(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		entries, err := repos.Labor.FindByOperation(ctx, tenantID, operationID)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if entry.ClockOut == nil {
				return shared.NewDomainError(shared.CodeInvalidState,
					"Operation has open labor entries")
			}
		}
		if err := order.CompleteOperation(operationID); err != nil {
			return err
		}
		return repos.WorkOrders.SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, order.GetDomainEvents())
	order.ClearDomainEvents()
	return order, nil
}

// CompleteWorkOrder finishes production and receives the finished goods into
// the output location at standard cost, in the same transaction.
func (s *WorkOrderService) CompleteWorkOrder(ctx context.Context, tenantID, orderID, completedBy uuid.UUID, finishedQty, scrappedQty decimal.Decimal) (*workorder.WorkOrder, error) {
	var order *workorder.WorkOrder
	err := appstock.ExecuteWithRetry(ctx, s.scope, func(ctx context.Context, repos *appstock.Repositories) error {
		var err error
		order, err = repos.WorkOrders.FindByID(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		entries, err := repos.Labor.FindByWorkOrder(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if entry.ClockOut == nil {
				return shared.NewDomainError(shared.CodeInvalidState,
					"Work order has open labor entries")
			}
		}
		if err := order.Complete(finishedQty, scrappedQty); err != nil {
			return err
		}

		receipt, err := stock.NewStockTransaction(
			tenantID, stock.TransactionTypeReceipt, order.ProductID, order.CompletedQty, order.UnitOfMeasure, completedBy)
		if err != nil {
			return err
		}
		if err := receipt.WithLocations(nil, &order.OutputLocationID); err != nil {
			return err
		}
		receipt.WithUnitCost(order.StandardCost).
			WithSource(stock.SourceTypeWorkOrder, order.ID, nil).
			WithReason("Finished goods receipt")

		if err := repos.Ledger().Append(ctx, []*stock.StockTransaction{receipt}, stock.AppendOptions{}); err != nil {
			return err
		}
		return repos.WorkOrders.SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, order.GetDomainEvents())
	order.ClearDomainEvents()
	s.logger.Info("work order completed",
		zap.String("work_order_id", order.ID.String()),
		zap.String("completed_qty", order.CompletedQty.String()),
		zap.String("scrapped_qty", order.ScrappedQty.String()))
	return order, nil
}

// CancelWorkOrder abandons an order. Allocated-but-unissued material has its
// reservation released and issued-but-unconsumed material goes back to the
// input location at the averaged issue cost, before the order is marked
// cancelled.
func (s *WorkOrderService) CancelWorkOrder(ctx context.Context, tenantID, orderID, cancelledBy uuid.UUID) (*workorder.WorkOrder, error) {
	var order *workorder.WorkOrder
	err := appstock.ExecuteWithRetry(ctx, s.scope, func(ctx context.Context, repos *appstock.Repositories) error {
		var err error
		order, err = repos.WorkOrders.FindByID(ctx, tenantID, orderID)
		if err != nil {
			return err
		}

		var returns []*stock.StockTransaction
		for i := range order.Materials {
			m := &order.Materials[i]
			if m.AllocatedQty.IsPositive() {
				level, err := repos.Levels.FindByKey(ctx, tenantID, m.ProductID, order.InputLocationID, nil)
				if err != nil && !errors.Is(err, shared.ErrNotFound) {
					return err
				}
				if level != nil {
					release := decimal.Min(m.AllocatedQty, level.Reserved)
					if release.IsPositive() {
						if err := level.Release(release); err != nil {
							return err
						}
						if err := repos.Levels.SaveWithLock(ctx, level); err != nil {
							return err
						}
					}
				}
				if err := m.Deallocate(m.AllocatedQty); err != nil {
					return err
				}
			}

			outstanding := m.Outstanding()
			if !outstanding.IsPositive() {
				continue
			}
			ret, err := stock.NewStockTransaction(
				tenantID, stock.TransactionTypeReceipt, m.ProductID, outstanding, m.UnitOfMeasure, cancelledBy)
			if err != nil {
				return err
			}
			if err := ret.WithLocations(nil, &order.InputLocationID); err != nil {
				return err
			}
			ret.WithUnitCost(m.UnitCost).
				WithSource(stock.SourceTypeWorkOrder, order.ID, nil).
				WithReason("Material return on cancellation")
			returns = append(returns, ret)
			if err := m.RecordReturn(outstanding); err != nil {
				return err
			}
		}

		if err := order.Cancel(); err != nil {
			return err
		}
		if len(returns) > 0 {
			if err := repos.Ledger().Append(ctx, returns, stock.AppendOptions{}); err != nil {
				return err
			}
		}
		return repos.WorkOrders.SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, order.GetDomainEvents())
	order.ClearDomainEvents()
	s.logger.Info("work order cancelled", zap.String("work_order_id", order.ID.String()))
	return order, nil
}

// GetWorkOrder loads an order with its materials and operations
func (s *WorkOrderService) GetWorkOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*workorder.WorkOrder, error) {
	var order *workorder.WorkOrder
	err := s.scope.Execute(ctx, func(ctx context.Context, repos *appstock.Repositories) error {
		var err error
		order, err = repos.WorkOrders.FindByID(ctx, tenantID, orderID)
		return err
	})
	return order, err
}

// ListWorkOrders returns orders matching the filter
func (s *WorkOrderService) ListWorkOrders(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*workorder.WorkOrder], error) {
	var page shared.Paginated[*workorder.WorkOrder]
	err := s.scope.Execute(ctx, func(ctx context.Context, repos *appstock.Repositories) error {
		var err error
		page, err = repos.WorkOrders.FindByFilter(ctx, tenantID, filter)
		return err
	})
	return page, err
}

// GetCosting returns the planned-versus-actual cost rollup for an order
func (s *WorkOrderService) GetCosting(ctx context.Context, tenantID, orderID uuid.UUID) (*workorder.CostSummary, error) {
	order, err := s.GetWorkOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	summary := order.CostRollup()
	return &summary, nil
}

func (s *WorkOrderService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events", zap.Error(err))
	}
}
