package document

import (
	"github.com/google/uuid"

	"github.com/mes/backend/internal/domain/shared"
)

// Event types for the document domain
const (
	EventTypeDocumentPosted   = "document.posted"
	EventTypeCycleCountPosted = "document.cycle_count_posted"
)

// DocumentPostedEvent is raised when a movement document posts successfully
type DocumentPostedEvent struct {
	shared.BaseDomainEvent
	DocumentID     uuid.UUID    `json:"document_id"`
	DocumentNumber string       `json:"document_number"`
	DocumentType   DocumentType `json:"document_type"`
	LineCount      int          `json:"line_count"`
}

// NewDocumentPostedEvent creates a document posted event
func NewDocumentPostedEvent(doc *MovementDocument) *DocumentPostedEvent {
	return &DocumentPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeDocumentPosted, "MovementDocument", doc.ID, doc.TenantID),
		DocumentID:     doc.ID,
		DocumentNumber: doc.DocumentNumber,
		DocumentType:   doc.Type,
		LineCount:      len(doc.ActiveLines()),
	}
}

// CycleCountPostedEvent is raised when a cycle count's variances post
type CycleCountPostedEvent struct {
	shared.BaseDomainEvent
	CycleCountID uuid.UUID `json:"cycle_count_id"`
	CountNumber  string    `json:"count_number"`
	LocationID   uuid.UUID `json:"location_id"`
}

// NewCycleCountPostedEvent creates a cycle count posted event
func NewCycleCountPostedEvent(count *CycleCount) *CycleCountPostedEvent {
	return &CycleCountPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeCycleCountPosted, "CycleCount", count.ID, count.TenantID),
		CycleCountID: count.ID,
		CountNumber:  count.CountNumber,
		LocationID:   count.LocationID,
	}
}
