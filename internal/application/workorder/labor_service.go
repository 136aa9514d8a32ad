package workorder

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appstock "github.com/mes/backend/internal/application/stock"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/workorder"
)

// LaborService tracks operator time against operations. An operator holds at
// most one open entry at a time; the check here is backed by a partial
// unique index on open entries, so two concurrent clock-ins cannot both
// commit.
type LaborService struct {
	scope  appstock.TransactionScope
	logger *zap.Logger
}

// NewLaborService creates a labor service
func NewLaborService(scope appstock.TransactionScope, logger *zap.Logger) *LaborService {
	return &LaborService{scope: scope, logger: logger}
}

// ClockIn opens a labor entry for an operator on an in-progress operation
func (s *LaborService) ClockIn(ctx context.Context, tenantID, orderID, operationID, operatorID uuid.UUID) (*workorder.LaborTimeEntry, error) {
	var entry *workorder.LaborTimeEntry
	err := s.scope.Execute(ctx, func(ctx context.Context, repos *appstock.Repositories) error {
		open, err := repos.Labor.FindOpenByOperator(ctx, tenantID, operatorID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if open != nil {
			return shared.NewDomainError(shared.CodeInvalidState,
				"Operator already has an open labor entry")
		}

		order, err := repos.WorkOrders.FindByID(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		var op *workorder.Operation
		for i := range order.Operations {
			if order.Operations[i].ID == operationID {
				op = &order.Operations[i]
				break
			}
		}
		if op == nil {
			return shared.ErrNotFound
		}
		if op.Status != workorder.OperationStatusInProgress {
			return shared.NewDomainError(shared.CodeInvalidState,
				"Labor can only be booked on an in-progress operation")
		}

		entry, err = workorder.NewLaborTimeEntry(tenantID, orderID, operationID, operatorID, time.Now(), op.LaborRate)
		if err != nil {
			return err
		}
		return repos.Labor.Save(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("operator clocked in",
		zap.String("operator_id", operatorID.String()),
		zap.String("operation_id", operationID.String()))
	return entry, nil
}

// ClockOut closes the operator's open entry and books the worked hours onto
// the operation.
func (s *LaborService) ClockOut(ctx context.Context, tenantID, operatorID uuid.UUID) (*workorder.LaborTimeEntry, error) {
	var entry *workorder.LaborTimeEntry
	err := appstock.ExecuteWithRetry(ctx, s.scope, func(ctx context.Context, repos *appstock.Repositories) error {
		var err error
		entry, err = repos.Labor.FindOpenByOperator(ctx, tenantID, operatorID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError(shared.CodeInvalidState,
					"Operator has no open labor entry")
			}
			return err
		}
		if err := entry.Close(time.Now()); err != nil {
			return err
		}

		order, err := repos.WorkOrders.FindByID(ctx, tenantID, entry.WorkOrderID)
		if err != nil {
			return err
		}
		for i := range order.Operations {
			if order.Operations[i].ID == entry.OperationID {
				if err := order.Operations[i].AddActualHours(entry.Hours); err != nil {
					return err
				}
				break
			}
		}
		if err := repos.WorkOrders.SaveWithLock(ctx, order); err != nil {
			return err
		}
		return repos.Labor.Save(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("operator clocked out",
		zap.String("operator_id", operatorID.String()),
		zap.String("hours", entry.Hours.String()))
	return entry, nil
}

// ListByWorkOrder returns all labor entries for an order
func (s *LaborService) ListByWorkOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]*workorder.LaborTimeEntry, error) {
	var entries []*workorder.LaborTimeEntry
	err := s.scope.Execute(ctx, func(ctx context.Context, repos *appstock.Repositories) error {
		var err error
		entries, err = repos.Labor.FindByWorkOrder(ctx, tenantID, orderID)
		return err
	})
	return entries, err
}
