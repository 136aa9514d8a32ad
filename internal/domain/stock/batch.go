package stock

import (
	"time"

	"github.com/google/uuid"

	"github.com/mes/backend/internal/domain/shared"
)

// BatchQualityStatus tracks the quality disposition of a batch
type BatchQualityStatus string

const (
	BatchQualityPending    BatchQualityStatus = "PENDING"
	BatchQualityReleased   BatchQualityStatus = "RELEASED"
	BatchQualityQuarantine BatchQualityStatus = "QUARANTINE"
	BatchQualityRejected   BatchQualityStatus = "REJECTED"
)

// StockBatch identifies a production or receiving lot of a product
type StockBatch struct {
	shared.TenantAggregateRoot
	ProductID       uuid.UUID          `gorm:"type:uuid;not null;index"`
	BatchNumber     string             `gorm:"type:varchar(64);not null;uniqueIndex:idx_batch_tenant_number"`
	ManufactureDate *time.Time         `gorm:""`
	ExpiryDate      *time.Time         `gorm:"index"`
	QualityStatus   BatchQualityStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	SupplierRef     string             `gorm:"type:varchar(128)"`
}

// TableName returns the table name for GORM
func (StockBatch) TableName() string {
	return "stock_batches"
}

// NewStockBatch creates a batch in pending quality status
func NewStockBatch(tenantID, productID uuid.UUID, batchNumber string) (*StockBatch, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Product ID is required")
	}
	if batchNumber == "" {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Batch number is required")
	}
	return &StockBatch{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ProductID:           productID,
		BatchNumber:         batchNumber,
		QualityStatus:       BatchQualityPending,
	}, nil
}

// SetDates sets manufacture and expiry dates. Expiry must follow manufacture.
func (b *StockBatch) SetDates(manufacture, expiry *time.Time) error {
	if manufacture != nil && expiry != nil && !expiry.After(*manufacture) {
		return shared.NewDomainError(shared.CodeValidationFailed, "Expiry date must be after manufacture date")
	}
	b.ManufactureDate = manufacture
	b.ExpiryDate = expiry
	return nil
}

// SetQualityStatus moves the batch between quality dispositions. A rejected
// batch is terminal.
func (b *StockBatch) SetQualityStatus(status BatchQualityStatus) error {
	if b.QualityStatus == BatchQualityRejected {
		return shared.NewDomainError(shared.CodeInvalidState, "Rejected batches cannot change quality status")
	}
	switch status {
	case BatchQualityPending, BatchQualityReleased, BatchQualityQuarantine, BatchQualityRejected:
		b.QualityStatus = status
		return nil
	}
	return shared.NewDomainError(shared.CodeValidationFailed, "Unknown quality status")
}

// IsExpired reports whether the batch is past its expiry date
func (b *StockBatch) IsExpired(at time.Time) bool {
	return b.ExpiryDate != nil && at.After(*b.ExpiryDate)
}

// IsIssuable reports whether stock from this batch may be issued
func (b *StockBatch) IsIssuable(at time.Time) bool {
	return b.QualityStatus == BatchQualityReleased && !b.IsExpired(at)
}
