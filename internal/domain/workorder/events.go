package workorder

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mes/backend/internal/domain/shared"
)

// Event types for the work order domain
const (
	EventTypeWorkOrderReleased  = "workorder.released"
	EventTypeWorkOrderCompleted = "workorder.completed"
	EventTypeWorkOrderCancelled = "workorder.cancelled"
	EventTypeOperationCompleted = "workorder.operation_completed"
)

// WorkOrderReleasedEvent is raised when an order is released to the floor
type WorkOrderReleasedEvent struct {
	shared.BaseDomainEvent
	WorkOrderID   uuid.UUID       `json:"work_order_id"`
	OrderNumber   string          `json:"order_number"`
	ProductID     uuid.UUID       `json:"product_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	MaterialCount int             `json:"material_count"`
}

// NewWorkOrderReleasedEvent creates a released event
func NewWorkOrderReleasedEvent(w *WorkOrder) *WorkOrderReleasedEvent {
	return &WorkOrderReleasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeWorkOrderReleased, "WorkOrder", w.ID, w.TenantID),
		WorkOrderID:   w.ID,
		OrderNumber:   w.OrderNumber,
		ProductID:     w.ProductID,
		Quantity:      w.Quantity,
		MaterialCount: len(w.Materials),
	}
}

// WorkOrderCompletedEvent is raised when an order finishes production
type WorkOrderCompletedEvent struct {
	shared.BaseDomainEvent
	WorkOrderID  uuid.UUID       `json:"work_order_id"`
	OrderNumber  string          `json:"order_number"`
	ProductID    uuid.UUID       `json:"product_id"`
	CompletedQty decimal.Decimal `json:"completed_qty"`
}

// NewWorkOrderCompletedEvent creates a completed event
func NewWorkOrderCompletedEvent(w *WorkOrder) *WorkOrderCompletedEvent {
	return &WorkOrderCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeWorkOrderCompleted, "WorkOrder", w.ID, w.TenantID),
		WorkOrderID:  w.ID,
		OrderNumber:  w.OrderNumber,
		ProductID:    w.ProductID,
		CompletedQty: w.CompletedQty,
	}
}

// WorkOrderCancelledEvent is raised when an order is abandoned
type WorkOrderCancelledEvent struct {
	shared.BaseDomainEvent
	WorkOrderID uuid.UUID `json:"work_order_id"`
	OrderNumber string    `json:"order_number"`
}

// NewWorkOrderCancelledEvent creates a cancelled event
func NewWorkOrderCancelledEvent(w *WorkOrder) *WorkOrderCancelledEvent {
	return &WorkOrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeWorkOrderCancelled, "WorkOrder", w.ID, w.TenantID),
		WorkOrderID: w.ID,
		OrderNumber: w.OrderNumber,
	}
}

// OperationCompletedEvent is raised when a routed operation completes
type OperationCompletedEvent struct {
	shared.BaseDomainEvent
	WorkOrderID uuid.UUID `json:"work_order_id"`
	OperationID uuid.UUID `json:"operation_id"`
	Sequence    int       `json:"sequence"`
}

// NewOperationCompletedEvent creates an operation completed event
func NewOperationCompletedEvent(w *WorkOrder, op *Operation) *OperationCompletedEvent {
	return &OperationCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeOperationCompleted, "WorkOrder", w.ID, w.TenantID),
		WorkOrderID: w.ID,
		OperationID: op.ID,
		Sequence:    op.Sequence,
	}
}
