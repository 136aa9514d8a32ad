package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mes/backend/internal/domain/document"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/stock"
)

// PostingService turns draft documents and completed cycle counts into
// ledger entries. Posting runs as one database transaction: the status
// guard, the ledger append and the balance projections commit together, so a
// concurrent second post of the same document fails on the version check.
type PostingService struct {
	scope       TransactionScope
	events      shared.EventPublisher
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
	logger      *zap.Logger
}

// NewPostingService creates a posting service
func NewPostingService(
	scope TransactionScope,
	events shared.EventPublisher,
	idempotency shared.IdempotencyStore,
	idemConfig shared.IdempotencyConfig,
	logger *zap.Logger,
) *PostingService {
	return &PostingService{
		scope:       scope,
		events:      events,
		idempotency: idempotency,
		idemConfig:  idemConfig,
		logger:      logger,
	}
}

// checkIdempotency short-circuits a request key that was already applied.
// The store is an optimization in front of the status guard, never a
// replacement for it.
func (s *PostingService) checkIdempotency(ctx context.Context, key string) (bool, error) {
	if key == "" || !s.idemConfig.Enabled || s.idempotency == nil {
		return false, nil
	}
	processed, err := s.idempotency.IsProcessed(ctx, key)
	if err != nil {
		s.logger.Warn("idempotency check failed, falling through to status guard",
			zap.Error(err))
		return false, nil
	}
	return processed, nil
}

func (s *PostingService) markIdempotent(ctx context.Context, key string) {
	if key == "" || !s.idemConfig.Enabled || s.idempotency == nil {
		return
	}
	if _, err := s.idempotency.MarkProcessed(ctx, key, s.idemConfig.TTL); err != nil {
		s.logger.Warn("failed to mark idempotency key", zap.Error(err))
	}
}

// post runs the shared posting protocol for anything Postable
func (s *PostingService) post(ctx context.Context, postable document.Postable, postedBy uuid.UUID, override bool, save func(context.Context) error, repos *Repositories) error {
	entries, err := postable.BuildLedgerEntries(postedBy)
	if err != nil {
		return err
	}
	s.batchAdvisories(ctx, repos, entries)
	if err := postable.MarkPosted(postedBy); err != nil {
		return err
	}
	if err := save(ctx); err != nil {
		return err
	}
	opts := stock.AppendOptions{AllowBelowReserved: postable.AllowBelowReserved() || override}
	return repos.Ledger().Append(ctx, entries, opts)
}

// batchAdvisories warns when an entry draws stock from a batch that is
// expired or not quality released. Batch state is advisory metadata and never
// blocks the movement.
func (s *PostingService) batchAdvisories(ctx context.Context, repos *Repositories, entries []*stock.StockTransaction) {
	now := time.Now()
	for _, entry := range entries {
		if entry.BatchID == nil || entry.FromLocationID == nil {
			continue
		}
		batch, err := repos.Batches.FindByID(ctx, entry.TenantID, *entry.BatchID)
		if err != nil {
			continue
		}
		if !batch.IsIssuable(now) {
			s.logger.Warn("stock drawn from a batch that is not cleared for issue",
				zap.String("batch_number", batch.BatchNumber),
				zap.String("quality_status", string(batch.QualityStatus)),
				zap.Bool("expired", batch.IsExpired(now)))
		}
	}
}

// PostDocument posts a draft movement document. The idempotency key is
// optional; when present, a replayed key returns success without touching
// the ledger. The override lets an issue or transfer exceed the available
// quantity.
func (s *PostingService) PostDocument(ctx context.Context, tenantID, documentID, postedBy uuid.UUID, idempotencyKey string, override bool) (*document.MovementDocument, error) {
	processed, err := s.checkIdempotency(ctx, idempotencyKey)
	if err != nil {
		return nil, err
	}
	var doc *document.MovementDocument
	if processed {
		err := s.scope.Execute(ctx, func(ctx context.Context, repos *Repositories) error {
			doc, err = repos.Documents.FindByID(ctx, tenantID, documentID)
			return err
		})
		return doc, err
	}

	err = ExecuteWithRetry(ctx, s.scope, func(ctx context.Context, repos *Repositories) error {
		doc, err = repos.Documents.FindByID(ctx, tenantID, documentID)
		if err != nil {
			return err
		}
		return s.post(ctx, doc, postedBy, override, func(ctx context.Context) error {
			return repos.Documents.SaveWithLock(ctx, doc)
		}, repos)
	})
	if err != nil {
		return nil, err
	}

	s.markIdempotent(ctx, idempotencyKey)
	s.publishEvents(ctx, doc.GetDomainEvents())
	doc.ClearDomainEvents()
	s.logger.Info("document posted",
		zap.String("document_id", doc.ID.String()),
		zap.String("document_number", doc.DocumentNumber),
		zap.String("type", string(doc.Type)))
	return doc, nil
}

// PostCycleCount posts the variances of a completed cycle count
func (s *PostingService) PostCycleCount(ctx context.Context, tenantID, countID, postedBy uuid.UUID, idempotencyKey string) (*document.CycleCount, error) {
	processed, err := s.checkIdempotency(ctx, idempotencyKey)
	if err != nil {
		return nil, err
	}
	var count *document.CycleCount
	if processed {
		err := s.scope.Execute(ctx, func(ctx context.Context, repos *Repositories) error {
			count, err = repos.CycleCounts.FindByID(ctx, tenantID, countID)
			return err
		})
		return count, err
	}

	err = ExecuteWithRetry(ctx, s.scope, func(ctx context.Context, repos *Repositories) error {
		count, err = repos.CycleCounts.FindByID(ctx, tenantID, countID)
		if err != nil {
			return err
		}
		return s.post(ctx, count, postedBy, false, func(ctx context.Context) error {
			return repos.CycleCounts.SaveWithLock(ctx, count)
		}, repos)
	})
	if err != nil {
		return nil, err
	}

	s.markIdempotent(ctx, idempotencyKey)
	s.publishEvents(ctx, count.GetDomainEvents())
	count.ClearDomainEvents()
	s.logger.Info("cycle count posted",
		zap.String("cycle_count_id", count.ID.String()),
		zap.String("count_number", count.CountNumber))
	return count, nil
}

// publishEvents publishes domain events after commit, logging failures
// instead of propagating them.
func (s *PostingService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events", zap.Error(err))
	}
}

// DocumentIdempotencyKey builds the canonical idempotency key for posting a
// document on behalf of a client-supplied request key.
func DocumentIdempotencyKey(tenantID uuid.UUID, requestKey string) string {
	if requestKey == "" {
		return ""
	}
	return fmt.Sprintf("posting:%s:%s", tenantID, requestKey)
}
