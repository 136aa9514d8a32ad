package workorder

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mes/backend/internal/domain/shared"
)

// WorkOrderStatus is the production lifecycle of a work order
type WorkOrderStatus string

const (
	WorkOrderStatusNotStarted WorkOrderStatus = "NOT_STARTED"
	WorkOrderStatusReleased   WorkOrderStatus = "RELEASED"
	WorkOrderStatusInProgress WorkOrderStatus = "IN_PROGRESS"
	WorkOrderStatusCompleted  WorkOrderStatus = "COMPLETED"
	WorkOrderStatusCancelled  WorkOrderStatus = "CANCELLED"
)

// CanTransitionTo checks if a status transition is valid
func (s WorkOrderStatus) CanTransitionTo(target WorkOrderStatus) bool {
	transitions := map[WorkOrderStatus][]WorkOrderStatus{
		WorkOrderStatusNotStarted: {WorkOrderStatusReleased, WorkOrderStatusCancelled},
		WorkOrderStatusReleased:   {WorkOrderStatusInProgress, WorkOrderStatusCancelled},
		WorkOrderStatusInProgress: {WorkOrderStatusCompleted, WorkOrderStatusCancelled},
		WorkOrderStatusCompleted:  {},
		WorkOrderStatusCancelled:  {},
	}
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (s WorkOrderStatus) IsTerminal() bool {
	return s == WorkOrderStatusCompleted || s == WorkOrderStatusCancelled
}

// WorkOrder is an instruction to build a quantity of a product. Releasing
// the order explodes the active bill of material and routing into concrete
// material requirements and operations; completing it receives the finished
// goods into stock at standard cost.
type WorkOrder struct {
	shared.TenantAggregateRoot
	OrderNumber         string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_work_order_tenant_number"`
	ProductID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity            decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CompletedQty        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ScrappedQty         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitOfMeasure       string          `gorm:"type:varchar(20);not null"`
	Status              WorkOrderStatus `gorm:"type:varchar(20);not null;default:'NOT_STARTED';index"`
	DueDate             *time.Time      `gorm:"index"`
	InputLocationID     uuid.UUID       `gorm:"type:uuid;not null"`
	OutputLocationID    uuid.UUID       `gorm:"type:uuid;not null"`
	StandardCost        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PlannedMaterialCost decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PlannedLaborCost    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PlannedOverheadCost decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReleasedAt          *time.Time      `gorm:""`
	StartedAt           *time.Time      `gorm:""`
	CompletedAt         *time.Time      `gorm:""`
	Materials           []Material      `gorm:"foreignKey:WorkOrderID"`
	Operations          []Operation     `gorm:"foreignKey:WorkOrderID"`
}

// TableName returns the table name for GORM
func (WorkOrder) TableName() string {
	return "work_orders"
}

// NewWorkOrder creates a work order in not-started status
func NewWorkOrder(
	tenantID uuid.UUID,
	orderNumber string,
	productID uuid.UUID,
	quantity decimal.Decimal,
	uom string,
	inputLocationID, outputLocationID uuid.UUID,
) (*WorkOrder, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Order number is required")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Product ID is required")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Order quantity must be positive")
	}
	if uom == "" {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Unit of measure is required")
	}
	if inputLocationID == uuid.Nil || outputLocationID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Input and output locations are required")
	}
	return &WorkOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderNumber:         orderNumber,
		ProductID:           productID,
		Quantity:            quantity,
		UnitOfMeasure:       uom,
		Status:              WorkOrderStatusNotStarted,
		InputLocationID:     inputLocationID,
		OutputLocationID:    outputLocationID,
	}, nil
}

// SetDueDate sets the requested completion date
func (w *WorkOrder) SetDueDate(due time.Time) {
	w.DueDate = &due
}

// SetStandardCost sets the standard unit cost used to value finished goods
func (w *WorkOrder) SetStandardCost(cost decimal.Decimal) error {
	if cost.IsNegative() {
		return shared.NewDomainError(shared.CodeValidationFailed, "Standard cost cannot be negative")
	}
	w.StandardCost = cost
	return nil
}

// Release explodes the bill of material and routing into material
// requirements and operations, computes planned costs, and moves the order
// to released. Both definitions must be active for the ordered product.
func (w *WorkOrder) Release(bom *BillOfMaterial, routing *Routing) error {
	if !w.Status.CanTransitionTo(WorkOrderStatusReleased) {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Only not-started orders can be released")
	}
	if bom == nil || bom.Status != CatalogStatusActive {
		return shared.NewDomainError(shared.CodeValidationFailed,
			"An active bill of material is required to release")
	}
	if routing == nil || routing.Status != CatalogStatusActive {
		return shared.NewDomainError(shared.CodeValidationFailed,
			"An active routing is required to release")
	}
	if bom.ProductID != w.ProductID || routing.ProductID != w.ProductID {
		return shared.NewDomainError(shared.CodeValidationFailed,
			"Bill of material and routing must belong to the ordered product")
	}
	if len(bom.Lines) == 0 {
		return shared.NewDomainError(shared.CodeValidationFailed,
			"Bill of material has no components")
	}
	if len(routing.Steps) == 0 {
		return shared.NewDomainError(shared.CodeValidationFailed,
			"Routing has no operations")
	}

	plannedMaterial := decimal.Zero
	for _, line := range bom.Lines {
		required := line.RequiredFor(w.Quantity)
		w.Materials = append(w.Materials, Material{
			BaseEntity:    shared.NewBaseEntity(),
			WorkOrderID:   w.ID,
			ProductID:     line.ComponentID,
			UnitOfMeasure: line.UnitOfMeasure,
			RequiredQty:   required,
			Status:        MaterialStatusRequired,
		})
		plannedMaterial = plannedMaterial.Add(required.Mul(line.StandardCost))
	}

	plannedLabor := decimal.Zero
	plannedOverhead := decimal.Zero
	for _, step := range routing.Steps {
		runHours := step.RunHoursPerUnit.Mul(w.Quantity)
		w.Operations = append(w.Operations, Operation{
			BaseEntity:        shared.NewBaseEntity(),
			WorkOrderID:       w.ID,
			Sequence:          step.Sequence,
			Name:              step.Name,
			WorkCenterID:      step.WorkCenterID,
			Status:            OperationStatusPending,
			PlannedSetupHours: step.SetupHours,
			PlannedRunHours:   runHours,
			LaborRate:         step.LaborRate,
			OverheadRate:      step.OverheadRate,
		})
		hours := step.SetupHours.Add(runHours)
		plannedLabor = plannedLabor.Add(hours.Mul(step.LaborRate))
		plannedOverhead = plannedOverhead.Add(hours.Mul(step.OverheadRate))
	}

	w.PlannedMaterialCost = plannedMaterial
	w.PlannedLaborCost = plannedLabor
	w.PlannedOverheadCost = plannedOverhead

	now := time.Now()
	w.Status = WorkOrderStatusReleased
	w.ReleasedAt = &now
	w.AddDomainEvent(NewWorkOrderReleasedEvent(w))
	return nil
}

// Start moves a released order into progress. Starting the first operation
// does this implicitly.
func (w *WorkOrder) Start() error {
	if !w.Status.CanTransitionTo(WorkOrderStatusInProgress) {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Only released orders can be started")
	}
	now := time.Now()
	w.Status = WorkOrderStatusInProgress
	w.StartedAt = &now
	return nil
}

// findOperation returns the operation with the given ID
func (w *WorkOrder) findOperation(operationID uuid.UUID) (*Operation, error) {
	for i := range w.Operations {
		if w.Operations[i].ID == operationID {
			return &w.Operations[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindMaterial returns the material requirement for a component product
func (w *WorkOrder) FindMaterial(productID uuid.UUID) (*Material, error) {
	for i := range w.Materials {
		if w.Materials[i].ProductID == productID {
			return &w.Materials[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

// AssignOperation records the planned operator for a pending operation
func (w *WorkOrder) AssignOperation(operationID, operatorID uuid.UUID) error {
	op, err := w.findOperation(operationID)
	if err != nil {
		return err
	}
	return op.Assign(operatorID)
}

// StartOperation starts an operation for an operator, enforcing routing
// sequence. All operations with a lower sequence must already be completed.
// Starting the first operation of a released order starts the order itself.
func (w *WorkOrder) StartOperation(operationID, operatorID uuid.UUID) error {
	if w.Status != WorkOrderStatusReleased && w.Status != WorkOrderStatusInProgress {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Operations can only run on released or in-progress orders")
	}
	op, err := w.findOperation(operationID)
	if err != nil {
		return err
	}
	for i := range w.Operations {
		prior := &w.Operations[i]
		if prior.Sequence < op.Sequence && prior.Status != OperationStatusCompleted {
			return shared.NewDomainError(shared.CodeInvalidState,
				"Earlier operations must be completed first")
		}
	}
	if err := op.Start(operatorID); err != nil {
		return err
	}
	if w.Status == WorkOrderStatusReleased {
		if err := w.Start(); err != nil {
			return err
		}
	}
	return nil
}

// CompleteOperation completes an operation
func (w *WorkOrder) CompleteOperation(operationID uuid.UUID) error {
	op, err := w.findOperation(operationID)
	if err != nil {
		return err
	}
	if err := op.Complete(); err != nil {
		return err
	}
	w.AddDomainEvent(NewOperationCompletedEvent(w, op))
	return nil
}

// Complete closes the order, recording good and scrapped quantities. Every
// operation must be completed; the finished quantity defaults to the ordered
// quantity less scrap when zero.
func (w *WorkOrder) Complete(finishedQty, scrappedQty decimal.Decimal) error {
	if !w.Status.CanTransitionTo(WorkOrderStatusCompleted) {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Only in-progress orders can be completed")
	}
	for i := range w.Operations {
		if w.Operations[i].Status != OperationStatusCompleted {
			return shared.NewDomainError(shared.CodeInvalidState,
				"All operations must be completed before the order")
		}
	}
	if finishedQty.IsNegative() {
		return shared.NewDomainError(shared.CodeValidationFailed, "Finished quantity cannot be negative")
	}
	if scrappedQty.IsNegative() {
		return shared.NewDomainError(shared.CodeValidationFailed, "Scrapped quantity cannot be negative")
	}
	if finishedQty.IsZero() {
		finishedQty = w.Quantity.Sub(scrappedQty)
		if finishedQty.IsNegative() {
			return shared.NewDomainError(shared.CodeValidationFailed,
				"Scrapped quantity cannot exceed the ordered quantity")
		}
	}
	now := time.Now()
	w.CompletedQty = finishedQty
	w.ScrappedQty = scrappedQty
	w.Status = WorkOrderStatusCompleted
	w.CompletedAt = &now
	w.AddDomainEvent(NewWorkOrderCompletedEvent(w))
	return nil
}

// Cancel abandons a non-terminal order. Issued-but-unconsumed material is
// returned to stock by the caller before the order is saved.
func (w *WorkOrder) Cancel() error {
	if w.Status.IsTerminal() {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Completed or cancelled orders cannot be cancelled")
	}
	now := time.Now()
	w.Status = WorkOrderStatusCancelled
	w.CompletedAt = &now
	w.AddDomainEvent(NewWorkOrderCancelledEvent(w))
	return nil
}
