package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateDocumentRequest creates a draft movement document
type CreateDocumentRequest struct {
	Type           string           `json:"type" binding:"required,oneof=GOODS_RECEIPT GOODS_ISSUE STOCK_TRANSFER STOCK_ADJUSTMENT"`
	DocumentNumber string           `json:"document_number" binding:"required,max=64"`
	FromLocationID *uuid.UUID       `json:"from_location_id"`
	ToLocationID   *uuid.UUID       `json:"to_location_id"`
	Reference      string           `json:"reference" binding:"max=128"`
	Notes          string           `json:"notes"`
	Lines          []AddLineRequest `json:"lines" binding:"dive"`
}

// AddLineRequest adds a line to a draft document
type AddLineRequest struct {
	ProductID     uuid.UUID       `json:"product_id" binding:"required"`
	BatchID       *uuid.UUID      `json:"batch_id"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	UnitOfMeasure string          `json:"unit_of_measure" binding:"required,max=20"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	Reason        string          `json:"reason" binding:"max=255"`
}

// CreateBatchRequest registers a stock batch
type CreateBatchRequest struct {
	ProductID       uuid.UUID  `json:"product_id" binding:"required"`
	BatchNumber     string     `json:"batch_number" binding:"required,max=64"`
	ManufactureDate *time.Time `json:"manufacture_date"`
	ExpiryDate      *time.Time `json:"expiry_date"`
	SupplierRef     string     `json:"supplier_ref" binding:"max=128"`
}

// PostDocumentRequest carries posting options. The availability override lets
// an issue or transfer exceed the available quantity.
type PostDocumentRequest struct {
	OverrideAvailability bool `json:"override_availability"`
}

// ScheduleCountRequest schedules a cycle count
type ScheduleCountRequest struct {
	CountNumber string    `json:"count_number" binding:"required,max=64"`
	LocationID  uuid.UUID `json:"location_id" binding:"required"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

// RecordCountRequest records a counted quantity for one line
type RecordCountRequest struct {
	LineID     uuid.UUID       `json:"line_id" binding:"required"`
	CountedQty decimal.Decimal `json:"counted_qty" binding:"required"`
}
