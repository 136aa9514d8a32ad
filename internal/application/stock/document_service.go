package stock

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mes/backend/internal/domain/document"
	"github.com/mes/backend/internal/domain/shared"
)

// DocumentService manages the draft lifecycle of movement documents.
// Posting is the PostingService's job.
type DocumentService struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewDocumentService creates a document service
func NewDocumentService(scope TransactionScope, logger *zap.Logger) *DocumentService {
	return &DocumentService{scope: scope, logger: logger}
}

// CreateDocument creates a draft movement document with its initial lines
func (s *DocumentService) CreateDocument(ctx context.Context, tenantID, createdBy uuid.UUID, req CreateDocumentRequest) (*document.MovementDocument, error) {
	doc, err := document.NewMovementDocument(tenantID, document.DocumentType(req.Type), req.DocumentNumber, req.FromLocationID, req.ToLocationID)
	if err != nil {
		return nil, err
	}
	doc.SetCreatedBy(createdBy)
	doc.Reference = req.Reference
	doc.Notes = req.Notes
	for _, line := range req.Lines {
		if _, err := doc.AddLine(line.ProductID, line.Quantity, line.UnitOfMeasure, line.UnitCost, line.BatchID, line.Reason); err != nil {
			return nil, err
		}
	}

	err = s.scope.Execute(ctx, func(ctx context.Context, repos *Repositories) error {
		if existing, err := repos.Documents.FindByNumber(ctx, tenantID, doc.DocumentNumber); err == nil && existing != nil {
			return shared.ErrAlreadyExists
		}
		return repos.Documents.Save(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("document created",
		zap.String("document_id", doc.ID.String()),
		zap.String("type", string(doc.Type)))
	return doc, nil
}

// AddLine adds a line to a draft document
func (s *DocumentService) AddLine(ctx context.Context, tenantID, documentID uuid.UUID, req AddLineRequest) (*document.MovementDocument, error) {
	var doc *document.MovementDocument
	err := ExecuteWithRetry(ctx, s.scope, func(ctx context.Context, repos *Repositories) error {
		var err error
		doc, err = repos.Documents.FindByID(ctx, tenantID, documentID)
		if err != nil {
			return err
		}
		if _, err := doc.AddLine(req.ProductID, req.Quantity, req.UnitOfMeasure, req.UnitCost, req.BatchID, req.Reason); err != nil {
			return err
		}
		return repos.Documents.SaveWithLock(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// RemoveLine soft deletes a line from a draft document
func (s *DocumentService) RemoveLine(ctx context.Context, tenantID, documentID, lineID uuid.UUID) (*document.MovementDocument, error) {
	var doc *document.MovementDocument
	err := ExecuteWithRetry(ctx, s.scope, func(ctx context.Context, repos *Repositories) error {
		var err error
		doc, err = repos.Documents.FindByID(ctx, tenantID, documentID)
		if err != nil {
			return err
		}
		if err := doc.RemoveLine(lineID); err != nil {
			return err
		}
		return repos.Documents.SaveWithLock(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// CancelDocument abandons a draft document
func (s *DocumentService) CancelDocument(ctx context.Context, tenantID, documentID uuid.UUID) (*document.MovementDocument, error) {
	var doc *document.MovementDocument
	err := ExecuteWithRetry(ctx, s.scope, func(ctx context.Context, repos *Repositories) error {
		var err error
		doc, err = repos.Documents.FindByID(ctx, tenantID, documentID)
		if err != nil {
			return err
		}
		if err := doc.Cancel(); err != nil {
			return err
		}
		return repos.Documents.SaveWithLock(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("document cancelled", zap.String("document_id", doc.ID.String()))
	return doc, nil
}

// GetDocument loads a document with its lines
func (s *DocumentService) GetDocument(ctx context.Context, tenantID, documentID uuid.UUID) (*document.MovementDocument, error) {
	var doc *document.MovementDocument
	err := s.scope.Execute(ctx, func(ctx context.Context, repos *Repositories) error {
		var err error
		doc, err = repos.Documents.FindByID(ctx, tenantID, documentID)
		return err
	})
	return doc, err
}

// ListDocuments returns documents matching the filter
func (s *DocumentService) ListDocuments(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*document.MovementDocument], error) {
	var page shared.Paginated[*document.MovementDocument]
	err := s.scope.Execute(ctx, func(ctx context.Context, repos *Repositories) error {
		var err error
		page, err = repos.Documents.FindByFilter(ctx, tenantID, filter)
		return err
	})
	return page, err
}
