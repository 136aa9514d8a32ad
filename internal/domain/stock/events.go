package stock

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mes/backend/internal/domain/shared"
)

// Event types for the stock domain
const (
	EventTypeStockMovementRecorded = "stock.movement_recorded"
	EventTypeStockBelowThreshold   = "stock.below_threshold"
	EventTypeStockShortageDetected = "stock.shortage_detected"
	EventTypeBatchQualityChanged   = "stock.batch_quality_changed"
)

// StockMovementRecordedEvent is raised after a ledger entry is persisted and
// its balance projection applied.
type StockMovementRecordedEvent struct {
	shared.BaseDomainEvent
	TransactionID   uuid.UUID       `json:"transaction_id"`
	TransactionType TransactionType `json:"transaction_type"`
	ProductID       uuid.UUID       `json:"product_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	FromLocationID  *uuid.UUID      `json:"from_location_id,omitempty"`
	ToLocationID    *uuid.UUID      `json:"to_location_id,omitempty"`
}

// NewStockMovementRecordedEvent creates a movement recorded event
func NewStockMovementRecordedEvent(tx *StockTransaction) *StockMovementRecordedEvent {
	return &StockMovementRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeStockMovementRecorded, "StockTransaction", tx.ID, tx.TenantID),
		TransactionID:   tx.ID,
		TransactionType: tx.Type,
		ProductID:       tx.ProductID,
		Quantity:        tx.Quantity,
		FromLocationID:  tx.FromLocationID,
		ToLocationID:    tx.ToLocationID,
	}
}

// StockBelowThresholdEvent is raised when a movement leaves a balance at or
// below its reorder point.
type StockBelowThresholdEvent struct {
	shared.BaseDomainEvent
	ProductID  uuid.UUID       `json:"product_id"`
	LocationID uuid.UUID       `json:"location_id"`
	OnHand     decimal.Decimal `json:"on_hand"`
	Threshold  decimal.Decimal `json:"threshold"`
}

// NewStockBelowThresholdEvent creates a below-threshold event
func NewStockBelowThresholdEvent(level *StockLevel, threshold decimal.Decimal) *StockBelowThresholdEvent {
	return &StockBelowThresholdEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeStockBelowThreshold, "StockLevel", level.ID, level.TenantID),
		ProductID:  level.ProductID,
		LocationID: level.LocationID,
		OnHand:     level.OnHand,
		Threshold:  threshold,
	}
}

// StockShortageDetectedEvent is raised when an advisory availability check
// finds less stock than a plan requires. It never blocks the operation that
// triggered the check.
type StockShortageDetectedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID       `json:"product_id"`
	Required  decimal.Decimal `json:"required"`
	Available decimal.Decimal `json:"available"`
	SourceID  uuid.UUID       `json:"source_id"`
}

// NewStockShortageDetectedEvent creates a shortage detected event
func NewStockShortageDetectedEvent(tenantID, productID, sourceID uuid.UUID, required, available decimal.Decimal) *StockShortageDetectedEvent {
	return &StockShortageDetectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeStockShortageDetected, "StockLevel", sourceID, tenantID),
		ProductID: productID,
		Required:  required,
		Available: available,
		SourceID:  sourceID,
	}
}

// BatchQualityChangedEvent is raised when a batch changes quality disposition
type BatchQualityChangedEvent struct {
	shared.BaseDomainEvent
	BatchID   uuid.UUID          `json:"batch_id"`
	ProductID uuid.UUID          `json:"product_id"`
	OldStatus BatchQualityStatus `json:"old_status"`
	NewStatus BatchQualityStatus `json:"new_status"`
}

// NewBatchQualityChangedEvent creates a quality changed event
func NewBatchQualityChangedEvent(batch *StockBatch, old BatchQualityStatus) *BatchQualityChangedEvent {
	return &BatchQualityChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeBatchQualityChanged, "StockBatch", batch.ID, batch.TenantID),
		BatchID:   batch.ID,
		ProductID: batch.ProductID,
		OldStatus: old,
		NewStatus: batch.QualityStatus,
	}
}
