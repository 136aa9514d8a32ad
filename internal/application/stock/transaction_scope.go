package stock

import (
	"context"

	"github.com/mes/backend/internal/domain/document"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/stock"
	"github.com/mes/backend/internal/domain/workorder"
)

// Repositories bundles the transaction-scoped repositories handed to a unit
// of work. Everything read or written through them shares one database
// transaction.
type Repositories struct {
	Transactions stock.TransactionRepository
	Levels       stock.LevelRepository
	Batches      stock.BatchRepository
	Documents    document.DocumentRepository
	CycleCounts  document.CycleCountRepository
	WorkOrders   workorder.WorkOrderRepository
	BOMs         workorder.BOMRepository
	Routings     workorder.RoutingRepository
	Labor        workorder.LaborRepository
}

// Ledger builds the append-and-project primitive over the scoped repositories
func (r *Repositories) Ledger() *stock.Ledger {
	return stock.NewLedger(r.Transactions, r.Levels)
}

// TransactionScope runs a function inside a database transaction. The
// function receives repositories bound to that transaction; returning an
// error rolls everything back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error
}

// maxConflictRetries bounds automatic retries of optimistic lock conflicts
const maxConflictRetries = 3

// ExecuteWithRetry runs a unit of work, retrying the whole transaction a
// bounded number of times when it fails with a concurrency conflict. Any
// other error is returned immediately.
func ExecuteWithRetry(ctx context.Context, scope TransactionScope, fn func(ctx context.Context, repos *Repositories) error) error {
	var err error
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		err = scope.Execute(ctx, fn)
		if err == nil || !shared.IsRetryable(err) {
			return err
		}
	}
	return err
}
