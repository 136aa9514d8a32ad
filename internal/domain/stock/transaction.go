package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mes/backend/internal/domain/shared"
)

// TransactionType classifies a ledger entry
type TransactionType string

const (
	TransactionTypeReceipt    TransactionType = "RECEIPT"
	TransactionTypeIssue      TransactionType = "ISSUE"
	TransactionTypeTransfer   TransactionType = "TRANSFER"
	TransactionTypeAdjustment TransactionType = "ADJUSTMENT"
	TransactionTypeCycleCount TransactionType = "CYCLE_COUNT"
)

// SourceDocumentType identifies the document or process that produced an entry
type SourceDocumentType string

const (
	SourceTypeGoodsReceipt  SourceDocumentType = "GOODS_RECEIPT"
	SourceTypeGoodsIssue    SourceDocumentType = "GOODS_ISSUE"
	SourceTypeStockTransfer SourceDocumentType = "STOCK_TRANSFER"
	SourceTypeAdjustment    SourceDocumentType = "STOCK_ADJUSTMENT"
	SourceTypeCycleCount    SourceDocumentType = "CYCLE_COUNT"
	SourceTypeWorkOrder     SourceDocumentType = "WORK_ORDER"
	SourceTypeManual        SourceDocumentType = "MANUAL"
)

// StockTransaction is an immutable ledger entry. Once persisted it is never
// updated or deleted; corrections are made with compensating entries.
type StockTransaction struct {
	shared.TenantAggregateRoot
	Type            TransactionType    `gorm:"type:varchar(20);not null;index"`
	ProductID       uuid.UUID          `gorm:"type:uuid;not null;index"`
	BatchID         *uuid.UUID         `gorm:"type:uuid;index"`
	Quantity        decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	UnitOfMeasure   string             `gorm:"type:varchar(20);not null"`
	UnitCost        decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	FromLocationID  *uuid.UUID         `gorm:"type:uuid;index"`
	ToLocationID    *uuid.UUID         `gorm:"type:uuid;index"`
	SourceType      SourceDocumentType `gorm:"type:varchar(30);not null;index"`
	SourceID        *uuid.UUID         `gorm:"type:uuid;index"`
	SourceLineID    *uuid.UUID         `gorm:"type:uuid"`
	PerformedBy     uuid.UUID          `gorm:"type:uuid;not null"`
	Reason          string             `gorm:"type:varchar(255)"`
	TransactionTime time.Time          `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StockTransaction) TableName() string {
	return "stock_transactions"
}

// NewStockTransaction creates a validated ledger entry. The location shape
// depends on the type: receipts carry only a destination, issues only a
// source, transfers both. Adjustments and cycle counts carry a destination
// and a signed quantity.
func NewStockTransaction(
	tenantID uuid.UUID,
	txType TransactionType,
	productID uuid.UUID,
	quantity decimal.Decimal,
	uom string,
	performedBy uuid.UUID,
) (*StockTransaction, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Product ID is required")
	}
	if uom == "" {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Unit of measure is required")
	}
	if performedBy == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Performing user is required")
	}
	switch txType {
	case TransactionTypeReceipt, TransactionTypeIssue, TransactionTypeTransfer:
		if !quantity.IsPositive() {
			return nil, shared.NewDomainError(shared.CodeValidationFailed, "Quantity must be positive")
		}
	case TransactionTypeAdjustment, TransactionTypeCycleCount:
		if quantity.IsZero() {
			return nil, shared.NewDomainError(shared.CodeValidationFailed, "Quantity must be non-zero")
		}
	default:
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Unknown transaction type")
	}

	return &StockTransaction{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Type:                txType,
		ProductID:           productID,
		Quantity:            quantity,
		UnitOfMeasure:       uom,
		UnitCost:            decimal.Zero,
		SourceType:          SourceTypeManual,
		PerformedBy:         performedBy,
		TransactionTime:     time.Now(),
	}, nil
}

// WithLocations sets the movement endpoints and validates them against the
// transaction type.
func (t *StockTransaction) WithLocations(from, to *uuid.UUID) error {
	switch t.Type {
	case TransactionTypeReceipt:
		if to == nil || from != nil {
			return shared.NewDomainError(shared.CodeValidationFailed, "Receipts require a destination location and no source")
		}
	case TransactionTypeIssue:
		if from == nil || to != nil {
			return shared.NewDomainError(shared.CodeValidationFailed, "Issues require a source location and no destination")
		}
	case TransactionTypeTransfer:
		if from == nil || to == nil {
			return shared.NewDomainError(shared.CodeValidationFailed, "Transfers require both source and destination locations")
		}
		if *from == *to {
			return shared.NewDomainError(shared.CodeValidationFailed, "Transfer source and destination must differ")
		}
	case TransactionTypeAdjustment, TransactionTypeCycleCount:
		if to == nil || from != nil {
			return shared.NewDomainError(shared.CodeValidationFailed, "Adjustments require a single location as destination")
		}
	}
	t.FromLocationID = from
	t.ToLocationID = to
	return nil
}

// WithBatch attaches a batch reference
func (t *StockTransaction) WithBatch(batchID uuid.UUID) *StockTransaction {
	t.BatchID = &batchID
	return t
}

// WithUnitCost sets the valuation cost per unit
func (t *StockTransaction) WithUnitCost(cost decimal.Decimal) *StockTransaction {
	t.UnitCost = cost
	return t
}

// WithSource links the entry back to the document or process that produced it
func (t *StockTransaction) WithSource(sourceType SourceDocumentType, sourceID uuid.UUID, lineID *uuid.UUID) *StockTransaction {
	t.SourceType = sourceType
	t.SourceID = &sourceID
	t.SourceLineID = lineID
	return t
}

// WithReason records a free-text reason, used mainly for adjustments
func (t *StockTransaction) WithReason(reason string) *StockTransaction {
	t.Reason = reason
	return t
}

// LevelDelta describes the effect of an entry on one balance row
type LevelDelta struct {
	LocationID uuid.UUID
	Delta      decimal.Decimal
}

// Deltas returns the signed balance changes this entry implies, one per
// affected location. A transfer yields two deltas that net to zero.
func (t *StockTransaction) Deltas() []LevelDelta {
	switch t.Type {
	case TransactionTypeReceipt:
		return []LevelDelta{{LocationID: *t.ToLocationID, Delta: t.Quantity}}
	case TransactionTypeIssue:
		return []LevelDelta{{LocationID: *t.FromLocationID, Delta: t.Quantity.Neg()}}
	case TransactionTypeTransfer:
		return []LevelDelta{
			{LocationID: *t.FromLocationID, Delta: t.Quantity.Neg()},
			{LocationID: *t.ToLocationID, Delta: t.Quantity},
		}
	case TransactionTypeAdjustment, TransactionTypeCycleCount:
		return []LevelDelta{{LocationID: *t.ToLocationID, Delta: t.Quantity}}
	}
	return nil
}

// TotalCost returns the extended cost of the entry
func (t *StockTransaction) TotalCost() decimal.Decimal {
	return t.Quantity.Abs().Mul(t.UnitCost)
}
