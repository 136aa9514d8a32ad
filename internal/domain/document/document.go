package document

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/stock"
)

// DocumentType identifies the kind of movement a document records
type DocumentType string

const (
	DocumentTypeGoodsReceipt  DocumentType = "GOODS_RECEIPT"
	DocumentTypeGoodsIssue    DocumentType = "GOODS_ISSUE"
	DocumentTypeStockTransfer DocumentType = "STOCK_TRANSFER"
	DocumentTypeAdjustment    DocumentType = "STOCK_ADJUSTMENT"
)

// DocumentStatus is the posting lifecycle of a movement document
type DocumentStatus string

const (
	DocumentStatusDraft     DocumentStatus = "DRAFT"
	DocumentStatusPosted    DocumentStatus = "POSTED"
	DocumentStatusCancelled DocumentStatus = "CANCELLED"
)

// MovementDocument is a draft-then-post record of a stock movement. While in
// draft the header and lines are freely editable; posting freezes the
// document and writes its ledger entries. A posted document is immutable.
type MovementDocument struct {
	shared.TenantAggregateRoot
	DocumentNumber string         `gorm:"type:varchar(64);not null;uniqueIndex:idx_document_tenant_number"`
	Type           DocumentType   `gorm:"type:varchar(30);not null;index"`
	Status         DocumentStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	FromLocationID *uuid.UUID     `gorm:"type:uuid;index"`
	ToLocationID   *uuid.UUID     `gorm:"type:uuid;index"`
	Reference      string         `gorm:"type:varchar(128)"`
	Notes          string         `gorm:"type:text"`
	PostedAt       *time.Time     `gorm:""`
	PostedBy       *uuid.UUID     `gorm:"type:uuid"`
	Lines          []DocumentLine `gorm:"foreignKey:DocumentID"`
}

// DocumentLine is one product movement within a document. Lines are soft
// deleted so a draft keeps its editing history.
type DocumentLine struct {
	shared.BaseEntity
	DocumentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null"`
	BatchID    *uuid.UUID      `gorm:"type:uuid"`
	Quantity   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitOfMeasure string       `gorm:"type:varchar(20);not null"`
	UnitCost   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Reason     string          `gorm:"type:varchar(255)"`
	DeletedAt  gorm.DeletedAt  `gorm:"index"`
}

// TableName returns the table name for GORM
func (MovementDocument) TableName() string {
	return "movement_documents"
}

// TableName returns the table name for GORM
func (DocumentLine) TableName() string {
	return "movement_document_lines"
}

// NewMovementDocument creates a draft document. Location requirements follow
// the document type and are validated up front so a draft can never reach
// posting with an impossible shape.
func NewMovementDocument(
	tenantID uuid.UUID,
	docType DocumentType,
	documentNumber string,
	from, to *uuid.UUID,
) (*MovementDocument, error) {
	if documentNumber == "" {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Document number is required")
	}
	switch docType {
	case DocumentTypeGoodsReceipt:
		if to == nil || from != nil {
			return nil, shared.NewDomainError(shared.CodeValidationFailed,
				"Goods receipts require a destination location and no source")
		}
	case DocumentTypeGoodsIssue:
		if from == nil || to != nil {
			return nil, shared.NewDomainError(shared.CodeValidationFailed,
				"Goods issues require a source location and no destination")
		}
	case DocumentTypeStockTransfer:
		if from == nil || to == nil {
			return nil, shared.NewDomainError(shared.CodeValidationFailed,
				"Stock transfers require both source and destination locations")
		}
		if *from == *to {
			return nil, shared.NewDomainError(shared.CodeValidationFailed,
				"Transfer source and destination must differ")
		}
	case DocumentTypeAdjustment:
		if to == nil || from != nil {
			return nil, shared.NewDomainError(shared.CodeValidationFailed,
				"Adjustments require a single location")
		}
	default:
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Unknown document type")
	}

	return &MovementDocument{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		DocumentNumber:      documentNumber,
		Type:                docType,
		Status:              DocumentStatusDraft,
		FromLocationID:      from,
		ToLocationID:        to,
	}, nil
}

// IsEditable reports whether the document accepts changes
func (d *MovementDocument) IsEditable() bool {
	return d.Status == DocumentStatusDraft
}

// AddLine appends a line to a draft document. Adjustment lines carry a signed
// quantity; all other document types require a positive one.
func (d *MovementDocument) AddLine(productID uuid.UUID, quantity decimal.Decimal, uom string, unitCost decimal.Decimal, batchID *uuid.UUID, reason string) (*DocumentLine, error) {
	if !d.IsEditable() {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			"Lines can only be changed while the document is in draft")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Product ID is required")
	}
	if uom == "" {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Unit of measure is required")
	}
	if d.Type == DocumentTypeAdjustment {
		if quantity.IsZero() {
			return nil, shared.NewDomainError(shared.CodeValidationFailed, "Adjustment quantity must be non-zero")
		}
	} else if !quantity.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Unit cost cannot be negative")
	}

	line := DocumentLine{
		BaseEntity:    shared.NewBaseEntity(),
		DocumentID:    d.ID,
		ProductID:     productID,
		BatchID:       batchID,
		Quantity:      quantity,
		UnitOfMeasure: uom,
		UnitCost:      unitCost,
		Reason:        reason,
	}
	d.Lines = append(d.Lines, line)
	return &d.Lines[len(d.Lines)-1], nil
}

// RemoveLine soft deletes a line from a draft document
func (d *MovementDocument) RemoveLine(lineID uuid.UUID) error {
	if !d.IsEditable() {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Lines can only be changed while the document is in draft")
	}
	for i := range d.Lines {
		if d.Lines[i].ID == lineID && !d.Lines[i].DeletedAt.Valid {
			d.Lines[i].DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
			return nil
		}
	}
	return shared.ErrNotFound
}

// ActiveLines returns the lines that have not been removed
func (d *MovementDocument) ActiveLines() []DocumentLine {
	active := make([]DocumentLine, 0, len(d.Lines))
	for _, line := range d.Lines {
		if !line.DeletedAt.Valid {
			active = append(active, line)
		}
	}
	return active
}

// MarkPosted transitions the document to posted. Only a draft with at least
// one active line can post; posting twice is an invalid state, which is the
// guard that makes posting idempotent at the database level.
func (d *MovementDocument) MarkPosted(postedBy uuid.UUID) error {
	if d.Status != DocumentStatusDraft {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Only draft documents can be posted")
	}
	if len(d.ActiveLines()) == 0 {
		return shared.NewDomainError(shared.CodeValidationFailed,
			"Cannot post a document without lines")
	}
	now := time.Now()
	d.Status = DocumentStatusPosted
	d.PostedAt = &now
	d.PostedBy = &postedBy
	d.AddDomainEvent(NewDocumentPostedEvent(d))
	return nil
}

// Cancel abandons a draft. Posted documents cannot be cancelled; corrections
// require a compensating document.
func (d *MovementDocument) Cancel() error {
	if d.Status != DocumentStatusDraft {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Only draft documents can be cancelled")
	}
	d.Status = DocumentStatusCancelled
	return nil
}

// transactionType maps the document type to its ledger entry type
func (d *MovementDocument) transactionType() stock.TransactionType {
	switch d.Type {
	case DocumentTypeGoodsReceipt:
		return stock.TransactionTypeReceipt
	case DocumentTypeGoodsIssue:
		return stock.TransactionTypeIssue
	case DocumentTypeStockTransfer:
		return stock.TransactionTypeTransfer
	default:
		return stock.TransactionTypeAdjustment
	}
}

// sourceType maps the document type to its ledger source reference
func (d *MovementDocument) sourceType() stock.SourceDocumentType {
	switch d.Type {
	case DocumentTypeGoodsReceipt:
		return stock.SourceTypeGoodsReceipt
	case DocumentTypeGoodsIssue:
		return stock.SourceTypeGoodsIssue
	case DocumentTypeStockTransfer:
		return stock.SourceTypeStockTransfer
	default:
		return stock.SourceTypeAdjustment
	}
}

// BuildLedgerEntries derives one ledger entry per active line. The document
// must be built before MarkPosted changes its status so validation failures
// leave the draft untouched.
func (d *MovementDocument) BuildLedgerEntries(postedBy uuid.UUID) ([]*stock.StockTransaction, error) {
	lines := d.ActiveLines()
	if len(lines) == 0 {
		return nil, shared.NewDomainError(shared.CodeValidationFailed,
			"Cannot post a document without lines")
	}
	entries := make([]*stock.StockTransaction, 0, len(lines))
	for i := range lines {
		line := lines[i]
		tx, err := stock.NewStockTransaction(
			d.TenantID, d.transactionType(), line.ProductID, line.Quantity, line.UnitOfMeasure, postedBy)
		if err != nil {
			return nil, err
		}
		if err := tx.WithLocations(d.FromLocationID, d.ToLocationID); err != nil {
			return nil, err
		}
		tx.WithUnitCost(line.UnitCost).
			WithSource(d.sourceType(), d.ID, &line.ID).
			WithReason(line.Reason)
		if line.BatchID != nil {
			tx.WithBatch(*line.BatchID)
		}
		entries = append(entries, tx)
	}
	return entries, nil
}

// AllowBelowReserved reports whether posting may dip into reserved stock.
// Adjustments correct the balance to reality, so they may.
func (d *MovementDocument) AllowBelowReserved() bool {
	return d.Type == DocumentTypeAdjustment
}
