package workorder

import (
	"context"

	"github.com/google/uuid"

	"github.com/mes/backend/internal/domain/shared"
)

// WorkOrderRepository persists work orders together with their materials and
// operations.
type WorkOrderRepository interface {
	Save(ctx context.Context, order *WorkOrder) error
	// SaveWithLock persists the order only if its stored version matches the
	// loaded version, together with its children.
	SaveWithLock(ctx context.Context, order *WorkOrder) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*WorkOrder, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*WorkOrder, error)
	FindByFilter(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*WorkOrder], error)
	FindByStatus(ctx context.Context, tenantID uuid.UUID, status WorkOrderStatus, filter shared.Filter) (shared.Paginated[*WorkOrder], error)
}
