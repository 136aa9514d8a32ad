package stock

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mes/backend/internal/domain/shared"
)

// StockLevel is the cached on-hand balance for one product at one location,
// optionally split by batch. It is a projection of the transaction ledger and
// must always equal the sum of the ledger deltas for its key.
type StockLevel struct {
	shared.TenantAggregateRoot
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_level_key"`
	LocationID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_level_key"`
	BatchID       *uuid.UUID      `gorm:"type:uuid;uniqueIndex:idx_stock_level_key"`
	OnHand        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Reserved      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitOfMeasure string          `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for GORM
func (StockLevel) TableName() string {
	return "stock_levels"
}

// NewStockLevel creates a zero balance row for a product/location pair
func NewStockLevel(tenantID, productID, locationID uuid.UUID, batchID *uuid.UUID, uom string) *StockLevel {
	return &StockLevel{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ProductID:           productID,
		LocationID:          locationID,
		BatchID:             batchID,
		OnHand:              decimal.Zero,
		Reserved:            decimal.Zero,
		UnitOfMeasure:       uom,
	}
}

// Available returns the quantity free for new commitments
func (l *StockLevel) Available() decimal.Decimal {
	return l.OnHand.Sub(l.Reserved)
}

// ApplyDelta moves the on-hand balance by a signed amount. Negative deltas
// are refused when they would exceed the available quantity, unless the
// caller explicitly overrides the guard. Adjustments and cycle counts correct
// the balance to observed reality and may dip below the reservation line or
// leave the on-hand balance negative.
func (l *StockLevel) ApplyDelta(delta decimal.Decimal, allowBelowReserved bool) error {
	if delta.IsNegative() && !allowBelowReserved && delta.Neg().GreaterThan(l.Available()) {
		return shared.NewDomainError(shared.CodeInsufficientStock,
			"Insufficient available stock for movement")
	}
	l.OnHand = l.OnHand.Add(delta)
	return nil
}

// Reserve earmarks quantity for a future issue without moving it
func (l *StockLevel) Reserve(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewDomainError(shared.CodeValidationFailed, "Reservation quantity must be positive")
	}
	if quantity.GreaterThan(l.Available()) {
		return shared.NewDomainError(shared.CodeInsufficientStock,
			"Insufficient available stock for reservation")
	}
	l.Reserved = l.Reserved.Add(quantity)
	return nil
}

// Release returns reserved quantity to the available pool
func (l *StockLevel) Release(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewDomainError(shared.CodeValidationFailed, "Release quantity must be positive")
	}
	if quantity.GreaterThan(l.Reserved) {
		return shared.NewDomainError(shared.CodeValidationFailed,
			"Cannot release more than the reserved quantity")
	}
	l.Reserved = l.Reserved.Sub(quantity)
	return nil
}

// IsEmpty reports whether the row carries no balance and no reservation
func (l *StockLevel) IsEmpty() bool {
	return l.OnHand.IsZero() && l.Reserved.IsZero()
}
