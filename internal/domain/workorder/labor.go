package workorder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mes/backend/internal/domain/shared"
)

// LaborTimeEntry records one operator's continuous stretch of work on an
// operation. An entry without a clock-out is open; an operator may hold at
// most one open entry at a time across all work orders.
type LaborTimeEntry struct {
	shared.TenantAggregateRoot
	WorkOrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	OperationID uuid.UUID       `gorm:"type:uuid;not null;index"`
	OperatorID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ClockIn     time.Time       `gorm:"not null"`
	ClockOut    *time.Time      `gorm:""`
	Hours       decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0"`
	HourlyRate  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Notes       string          `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (LaborTimeEntry) TableName() string {
	return "labor_time_entries"
}

// NewLaborTimeEntry opens a labor entry at the given clock-in time
func NewLaborTimeEntry(tenantID, workOrderID, operationID, operatorID uuid.UUID, clockIn time.Time, rate decimal.Decimal) (*LaborTimeEntry, error) {
	if operatorID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Operator ID is required")
	}
	if rate.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Hourly rate cannot be negative")
	}
	return &LaborTimeEntry{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		WorkOrderID:         workOrderID,
		OperationID:         operationID,
		OperatorID:          operatorID,
		ClockIn:             clockIn,
		HourlyRate:          rate,
	}, nil
}

// IsOpen reports whether the entry has not been clocked out
func (e *LaborTimeEntry) IsOpen() bool {
	return e.ClockOut == nil
}

// Close clocks the entry out and computes worked hours
func (e *LaborTimeEntry) Close(at time.Time) error {
	if !e.IsOpen() {
		return shared.NewDomainError(shared.CodeInvalidState, "Entry is already clocked out")
	}
	if !at.After(e.ClockIn) {
		return shared.NewDomainError(shared.CodeValidationFailed, "Clock-out must be after clock-in")
	}
	e.ClockOut = &at
	e.Hours = decimal.NewFromFloat(at.Sub(e.ClockIn).Hours()).Round(4)
	return nil
}

// Cost returns the labor cost of the entry
func (e *LaborTimeEntry) Cost() decimal.Decimal {
	return e.Hours.Mul(e.HourlyRate)
}

// LaborRepository persists labor time entries. Open-entry exclusivity is
// enforced here with a partial unique index on (tenant, operator) where
// clock_out is null, so concurrent clock-ins cannot both succeed.
type LaborRepository interface {
	Save(ctx context.Context, entry *LaborTimeEntry) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*LaborTimeEntry, error)
	// FindOpenByOperator returns the operator's open entry, or
	// shared.ErrNotFound when none is open.
	FindOpenByOperator(ctx context.Context, tenantID, operatorID uuid.UUID) (*LaborTimeEntry, error)
	FindByOperation(ctx context.Context, tenantID, operationID uuid.UUID) ([]*LaborTimeEntry, error)
	FindByWorkOrder(ctx context.Context, tenantID, workOrderID uuid.UUID) ([]*LaborTimeEntry, error)
	FindByFilter(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*LaborTimeEntry], error)
}
