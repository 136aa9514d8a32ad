package workorder

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mes/backend/internal/domain/shared"
)

// OperationStatus is the execution lifecycle of a routed operation
type OperationStatus string

const (
	OperationStatusPending    OperationStatus = "PENDING"
	OperationStatusInProgress OperationStatus = "IN_PROGRESS"
	OperationStatusCompleted  OperationStatus = "COMPLETED"
)

// Operation is one routed step of a work order. Planned hours come from the
// routing at release; actual hours accumulate from labor time entries. The
// assigned operator is a planning hint; the operator field records who
// actually started the step.
type Operation struct {
	shared.BaseEntity
	WorkOrderID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Sequence           int             `gorm:"not null"`
	Name               string          `gorm:"type:varchar(128);not null"`
	WorkCenterID       uuid.UUID       `gorm:"type:uuid;not null"`
	AssignedOperatorID *uuid.UUID      `gorm:"type:uuid"`
	OperatorID         *uuid.UUID      `gorm:"type:uuid"`
	Status             OperationStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	PlannedSetupHours  decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0"`
	PlannedRunHours    decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0"`
	ActualSetupHours   decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0"`
	ActualRunHours     decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0"`
	LaborRate          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	OverheadRate       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	StartedAt          *time.Time      `gorm:""`
	CompletedAt        *time.Time      `gorm:""`
}

// TableName returns the table name for GORM
func (Operation) TableName() string {
	return "work_order_operations"
}

// Assign records the operator planned to run a pending operation
func (o *Operation) Assign(operatorID uuid.UUID) error {
	if operatorID == uuid.Nil {
		return shared.NewDomainError(shared.CodeValidationFailed, "Operator ID is required")
	}
	if o.Status != OperationStatusPending {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Only pending operations can be assigned")
	}
	o.AssignedOperatorID = &operatorID
	return nil
}

// Start moves a pending operation into progress and records who ran it
func (o *Operation) Start(operatorID uuid.UUID) error {
	if operatorID == uuid.Nil {
		return shared.NewDomainError(shared.CodeValidationFailed,
			"An operator is required to start an operation")
	}
	if o.Status != OperationStatusPending {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Only pending operations can be started")
	}
	now := time.Now()
	o.Status = OperationStatusInProgress
	o.OperatorID = &operatorID
	o.StartedAt = &now
	return nil
}

// Complete closes an in-progress operation
func (o *Operation) Complete() error {
	if o.Status != OperationStatusInProgress {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Only in-progress operations can be completed")
	}
	now := time.Now()
	o.Status = OperationStatusCompleted
	o.CompletedAt = &now
	return nil
}

// AddActualHours accumulates worked hours, split between setup and run in
// the planned proportion. With no planned hours everything counts as run.
func (o *Operation) AddActualHours(hours decimal.Decimal) error {
	if !hours.IsPositive() {
		return shared.NewDomainError(shared.CodeValidationFailed, "Hours must be positive")
	}
	plannedTotal := o.PlannedSetupHours.Add(o.PlannedRunHours)
	if plannedTotal.IsZero() {
		o.ActualRunHours = o.ActualRunHours.Add(hours)
		return nil
	}
	setupShare := hours.Mul(o.PlannedSetupHours).Div(plannedTotal)
	o.ActualSetupHours = o.ActualSetupHours.Add(setupShare)
	o.ActualRunHours = o.ActualRunHours.Add(hours.Sub(setupShare))
	return nil
}

// ActualHours returns total worked hours
func (o *Operation) ActualHours() decimal.Decimal {
	return o.ActualSetupHours.Add(o.ActualRunHours)
}

// PlannedHours returns total planned hours
func (o *Operation) PlannedHours() decimal.Decimal {
	return o.PlannedSetupHours.Add(o.PlannedRunHours)
}

// ActualLaborCost returns worked hours valued at the labor rate
func (o *Operation) ActualLaborCost() decimal.Decimal {
	return o.ActualHours().Mul(o.LaborRate)
}

// ActualOverheadCost returns worked hours valued at the overhead rate
func (o *Operation) ActualOverheadCost() decimal.Decimal {
	return o.ActualHours().Mul(o.OverheadRate)
}
