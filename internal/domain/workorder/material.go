package workorder

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mes/backend/internal/domain/shared"
)

// MaterialStatus follows a requirement from planning to consumption
type MaterialStatus string

const (
	MaterialStatusRequired  MaterialStatus = "REQUIRED"
	MaterialStatusAllocated MaterialStatus = "ALLOCATED"
	MaterialStatusIssued    MaterialStatus = "ISSUED"
	MaterialStatusConsumed  MaterialStatus = "CONSUMED"
)

// Material is one component requirement on a work order. Quantities move
// through allocation, issue from stock, consumption at the work center, and
// optionally return of the unconsumed remainder.
type Material struct {
	shared.BaseEntity
	WorkOrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null"`
	UnitOfMeasure string          `gorm:"type:varchar(20);not null"`
	RequiredQty   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AllocatedQty  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	IssuedQty     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ConsumedQty   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReturnedQty   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCost      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status        MaterialStatus  `gorm:"type:varchar(20);not null;default:'REQUIRED'"`
}

// TableName returns the table name for GORM
func (Material) TableName() string {
	return "work_order_materials"
}

// Outstanding returns issued quantity not yet consumed or returned
func (m *Material) Outstanding() decimal.Decimal {
	return m.IssuedQty.Sub(m.ConsumedQty).Sub(m.ReturnedQty)
}

// Allocate earmarks quantity against stock for this requirement
func (m *Material) Allocate(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return shared.NewDomainError(shared.CodeValidationFailed, "Allocation quantity must be positive")
	}
	m.AllocatedQty = m.AllocatedQty.Add(qty)
	if m.Status == MaterialStatusRequired {
		m.Status = MaterialStatusAllocated
	}
	return nil
}

// Deallocate releases earmarked quantity without issuing it
func (m *Material) Deallocate(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return shared.NewDomainError(shared.CodeValidationFailed, "Deallocation quantity must be positive")
	}
	if qty.GreaterThan(m.AllocatedQty) {
		return shared.NewDomainError(shared.CodeValidationFailed,
			"Cannot deallocate more than the allocated quantity")
	}
	m.AllocatedQty = m.AllocatedQty.Sub(qty)
	if m.AllocatedQty.IsZero() && m.Status == MaterialStatusAllocated && m.IssuedQty.IsZero() {
		m.Status = MaterialStatusRequired
	}
	return nil
}

// RecordIssue registers quantity issued from stock at the given unit cost.
// Repeated issues average the cost over the total issued quantity.
func (m *Material) RecordIssue(qty, unitCost decimal.Decimal) error {
	if !qty.IsPositive() {
		return shared.NewDomainError(shared.CodeValidationFailed, "Issue quantity must be positive")
	}
	if unitCost.IsNegative() {
		return shared.NewDomainError(shared.CodeValidationFailed, "Unit cost cannot be negative")
	}
	total := m.IssuedQty.Add(qty)
	m.UnitCost = m.UnitCost.Mul(m.IssuedQty).Add(unitCost.Mul(qty)).Div(total)
	m.IssuedQty = total
	if m.AllocatedQty.GreaterThan(decimal.Zero) {
		released := decimal.Min(m.AllocatedQty, qty)
		m.AllocatedQty = m.AllocatedQty.Sub(released)
	}
	m.Status = MaterialStatusIssued
	return nil
}

// RecordConsumption registers quantity used up at the work center
func (m *Material) RecordConsumption(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return shared.NewDomainError(shared.CodeValidationFailed, "Consumption quantity must be positive")
	}
	if qty.GreaterThan(m.Outstanding()) {
		return shared.NewDomainError(shared.CodeValidationFailed,
			"Cannot consume more than the outstanding issued quantity")
	}
	m.ConsumedQty = m.ConsumedQty.Add(qty)
	if m.Outstanding().IsZero() && m.ConsumedQty.GreaterThanOrEqual(m.RequiredQty) {
		m.Status = MaterialStatusConsumed
	}
	return nil
}

// RecordReturn registers issued-but-unconsumed quantity going back to stock
func (m *Material) RecordReturn(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return shared.NewDomainError(shared.CodeValidationFailed, "Return quantity must be positive")
	}
	if qty.GreaterThan(m.Outstanding()) {
		return shared.NewDomainError(shared.CodeValidationFailed,
			"Cannot return more than the outstanding issued quantity")
	}
	m.ReturnedQty = m.ReturnedQty.Add(qty)
	return nil
}

// ActualCost returns the cost of net consumed material
func (m *Material) ActualCost() decimal.Decimal {
	net := m.IssuedQty.Sub(m.ReturnedQty)
	return net.Mul(m.UnitCost)
}
