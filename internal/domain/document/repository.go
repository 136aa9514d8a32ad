package document

import (
	"context"

	"github.com/google/uuid"

	"github.com/mes/backend/internal/domain/shared"
)

// DocumentRepository persists movement documents and their lines
type DocumentRepository interface {
	Save(ctx context.Context, doc *MovementDocument) error
	// SaveWithLock persists the document only if its stored version matches
	// the loaded version. This is the status guard that prevents double
	// posting under concurrency.
	SaveWithLock(ctx context.Context, doc *MovementDocument) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*MovementDocument, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, documentNumber string) (*MovementDocument, error)
	FindByFilter(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*MovementDocument], error)
}

// CycleCountRepository persists cycle counts and their lines
type CycleCountRepository interface {
	Save(ctx context.Context, count *CycleCount) error
	SaveWithLock(ctx context.Context, count *CycleCount) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*CycleCount, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, countNumber string) (*CycleCount, error)
	FindByFilter(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*CycleCount], error)
}
