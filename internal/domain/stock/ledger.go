package stock

import (
	"context"
)

// AppendOptions tunes how ledger entries are projected onto balances
type AppendOptions struct {
	// AllowBelowReserved lets negative deltas dip into reserved quantity and
	// drive the balance negative. Adjustments and cycle counts set this
	// because they correct the balance to observed reality; issues and
	// transfers set it only on an explicit caller override.
	AllowBelowReserved bool
}

// Ledger is the append-and-project primitive of the stock domain. Every
// quantity change in the system goes through Append: the entry is written to
// the immutable transaction log and its deltas are applied to the cached
// balance rows in the same database transaction.
type Ledger struct {
	transactions TransactionRepository
	levels       LevelRepository
}

// NewLedger creates a ledger over the given repositories. Callers are
// expected to hand in transaction-scoped repositories so that the entry and
// its projections commit or roll back together.
func NewLedger(transactions TransactionRepository, levels LevelRepository) *Ledger {
	return &Ledger{transactions: transactions, levels: levels}
}

// Append validates, persists and projects a batch of entries. Entries are
// applied in order; the first failure aborts the whole batch.
func (l *Ledger) Append(ctx context.Context, entries []*StockTransaction, opts AppendOptions) error {
	for _, entry := range entries {
		for _, d := range entry.Deltas() {
			level, err := l.levels.GetOrCreate(ctx,
				entry.TenantID, entry.ProductID, d.LocationID, entry.BatchID, entry.UnitOfMeasure)
			if err != nil {
				return err
			}
			if err := level.ApplyDelta(d.Delta, opts.AllowBelowReserved); err != nil {
				return err
			}
			if err := l.levels.SaveWithLock(ctx, level); err != nil {
				return err
			}
		}
		if err := l.transactions.Save(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}
