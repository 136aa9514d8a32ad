package document

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/stock"
)

// CycleCountStatus is the counting lifecycle
type CycleCountStatus string

const (
	CycleCountStatusScheduled  CycleCountStatus = "SCHEDULED"
	CycleCountStatusInProgress CycleCountStatus = "IN_PROGRESS"
	CycleCountStatusCompleted  CycleCountStatus = "COMPLETED"
	CycleCountStatusPosted     CycleCountStatus = "POSTED"
	CycleCountStatusCancelled  CycleCountStatus = "CANCELLED"
)

// CycleCount is a physical inventory check of one location. Starting the
// count snapshots the system quantities so counting is measured against a
// fixed baseline even while other movements continue.
type CycleCount struct {
	shared.TenantAggregateRoot
	CountNumber string           `gorm:"type:varchar(64);not null;uniqueIndex:idx_cycle_count_tenant_number"`
	LocationID  uuid.UUID        `gorm:"type:uuid;not null;index"`
	Status      CycleCountStatus `gorm:"type:varchar(20);not null;default:'SCHEDULED';index"`
	ScheduledAt time.Time        `gorm:"not null"`
	StartedAt   *time.Time       `gorm:""`
	CompletedAt *time.Time       `gorm:""`
	PostedAt    *time.Time       `gorm:""`
	PostedBy    *uuid.UUID       `gorm:"type:uuid"`
	Lines       []CycleCountLine `gorm:"foreignKey:CycleCountID"`
}

// CycleCountLine records one product's snapshot and counted quantities
type CycleCountLine struct {
	shared.BaseEntity
	CycleCountID  uuid.UUID        `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID        `gorm:"type:uuid;not null"`
	BatchID       *uuid.UUID       `gorm:"type:uuid"`
	UnitOfMeasure string           `gorm:"type:varchar(20);not null"`
	SnapshotQty   decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	CountedQty    *decimal.Decimal `gorm:"type:decimal(18,4)"`
}

// TableName returns the table name for GORM
func (CycleCount) TableName() string {
	return "cycle_counts"
}

// TableName returns the table name for GORM
func (CycleCountLine) TableName() string {
	return "cycle_count_lines"
}

// NewCycleCount schedules a count for a location
func NewCycleCount(tenantID, locationID uuid.UUID, countNumber string, scheduledAt time.Time) (*CycleCount, error) {
	if countNumber == "" {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Count number is required")
	}
	if locationID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Location ID is required")
	}
	return &CycleCount{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		CountNumber:         countNumber,
		LocationID:          locationID,
		Status:              CycleCountStatusScheduled,
		ScheduledAt:         scheduledAt,
	}, nil
}

// Start moves the count to in progress and records the balance snapshot.
// Each snapshot entry becomes a line to be counted.
func (c *CycleCount) Start(levels []*stock.StockLevel) error {
	if c.Status != CycleCountStatusScheduled {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Only scheduled counts can be started")
	}
	now := time.Now()
	c.Status = CycleCountStatusInProgress
	c.StartedAt = &now
	for _, level := range levels {
		c.Lines = append(c.Lines, CycleCountLine{
			BaseEntity:    shared.NewBaseEntity(),
			CycleCountID:  c.ID,
			ProductID:     level.ProductID,
			BatchID:       level.BatchID,
			UnitOfMeasure: level.UnitOfMeasure,
			SnapshotQty:   level.OnHand,
		})
	}
	return nil
}

// RecordCount sets the physically counted quantity for a line
func (c *CycleCount) RecordCount(lineID uuid.UUID, counted decimal.Decimal) error {
	if c.Status != CycleCountStatusInProgress {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Counts can only be recorded while the count is in progress")
	}
	if counted.IsNegative() {
		return shared.NewDomainError(shared.CodeValidationFailed, "Counted quantity cannot be negative")
	}
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			c.Lines[i].CountedQty = &counted
			return nil
		}
	}
	return shared.ErrNotFound
}

// Complete closes counting. Every line must have a counted quantity.
func (c *CycleCount) Complete() error {
	if c.Status != CycleCountStatusInProgress {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Only in-progress counts can be completed")
	}
	for i := range c.Lines {
		if c.Lines[i].CountedQty == nil {
			return shared.NewDomainError(shared.CodeValidationFailed,
				"All lines must be counted before completing")
		}
	}
	now := time.Now()
	c.Status = CycleCountStatusCompleted
	c.CompletedAt = &now
	return nil
}

// Cancel abandons a count that has not been posted
func (c *CycleCount) Cancel() error {
	switch c.Status {
	case CycleCountStatusScheduled, CycleCountStatusInProgress, CycleCountStatusCompleted:
		c.Status = CycleCountStatusCancelled
		return nil
	}
	return shared.NewDomainError(shared.CodeInvalidState,
		"Posted counts cannot be cancelled")
}

// Variance returns counted minus snapshot for a line, zero when uncounted
func (l *CycleCountLine) Variance() decimal.Decimal {
	if l.CountedQty == nil {
		return decimal.Zero
	}
	return l.CountedQty.Sub(l.SnapshotQty)
}

// MarkPosted transitions a completed count to posted
func (c *CycleCount) MarkPosted(postedBy uuid.UUID) error {
	if c.Status != CycleCountStatusCompleted {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Only completed counts can be posted")
	}
	now := time.Now()
	c.Status = CycleCountStatusPosted
	c.PostedAt = &now
	c.PostedBy = &postedBy
	c.AddDomainEvent(NewCycleCountPostedEvent(c))
	return nil
}

// BuildLedgerEntries derives one variance entry per line whose counted
// quantity differs from the snapshot. Zero-variance lines produce nothing.
func (c *CycleCount) BuildLedgerEntries(postedBy uuid.UUID) ([]*stock.StockTransaction, error) {
	if c.Status != CycleCountStatusCompleted {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			"Only completed counts can be posted")
	}
	entries := make([]*stock.StockTransaction, 0, len(c.Lines))
	for i := range c.Lines {
		line := c.Lines[i]
		variance := line.Variance()
		if variance.IsZero() {
			continue
		}
		tx, err := stock.NewStockTransaction(
			c.TenantID, stock.TransactionTypeCycleCount, line.ProductID, variance, line.UnitOfMeasure, postedBy)
		if err != nil {
			return nil, err
		}
		if err := tx.WithLocations(nil, &c.LocationID); err != nil {
			return nil, err
		}
		tx.WithSource(stock.SourceTypeCycleCount, c.ID, &line.ID).
			WithReason("Cycle count variance")
		if line.BatchID != nil {
			tx.WithBatch(*line.BatchID)
		}
		entries = append(entries, tx)
	}
	return entries, nil
}

// AllowBelowReserved reports that variance corrections may dip into
// reservations, because the count reflects physical reality.
func (c *CycleCount) AllowBelowReserved() bool {
	return true
}
