package document

import (
	"github.com/google/uuid"

	"github.com/mes/backend/internal/domain/stock"
)

// Postable is the contract shared by everything that can be posted to the
// stock ledger. Posting is a two-step protocol: BuildLedgerEntries derives
// the entries while the aggregate is still unchanged, MarkPosted freezes it.
// Both run inside one database transaction so a failure in either leaves no
// trace.
type Postable interface {
	GetID() uuid.UUID
	BuildLedgerEntries(postedBy uuid.UUID) ([]*stock.StockTransaction, error)
	MarkPosted(postedBy uuid.UUID) error
	AllowBelowReserved() bool
}

var (
	_ Postable = (*MovementDocument)(nil)
	_ Postable = (*CycleCount)(nil)
)
