package workorder

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateWorkOrderRequest creates a work order
type CreateWorkOrderRequest struct {
	OrderNumber      string          `json:"order_number" binding:"required,max=64"`
	ProductID        uuid.UUID       `json:"product_id" binding:"required"`
	Quantity         decimal.Decimal `json:"quantity" binding:"required"`
	UnitOfMeasure    string          `json:"unit_of_measure" binding:"required,max=20"`
	InputLocationID  uuid.UUID       `json:"input_location_id" binding:"required"`
	OutputLocationID uuid.UUID       `json:"output_location_id" binding:"required"`
	StandardCost     decimal.Decimal `json:"standard_cost"`
	DueDate          *time.Time      `json:"due_date"`
}

// CompleteWorkOrderRequest completes a work order
type CompleteWorkOrderRequest struct {
	FinishedQty decimal.Decimal `json:"finished_qty"`
	ScrappedQty decimal.Decimal `json:"scrapped_qty"`
}

// AssignOperationRequest records the planned operator for an operation
type AssignOperationRequest struct {
	OperatorID uuid.UUID `json:"operator_id" binding:"required"`
}

// StartOperationRequest starts an operation. The operator defaults to the
// authenticated user when absent.
type StartOperationRequest struct {
	OperatorID *uuid.UUID `json:"operator_id"`
}

// MaterialQuantityRequest carries a material quantity action
type MaterialQuantityRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
}

// IssueMaterialRequest issues material to a work order
type IssueMaterialRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	BatchID   *uuid.UUID      `json:"batch_id"`
}

// ClockInRequest opens a labor entry
type ClockInRequest struct {
	WorkOrderID uuid.UUID `json:"work_order_id" binding:"required"`
	OperationID uuid.UUID `json:"operation_id" binding:"required"`
}
