package persistence

import (
	"context"

	"gorm.io/gorm"

	appstock "github.com/mes/backend/internal/application/stock"
)

// NewRepositories builds the repository bundle over one database handle
func NewRepositories(db *gorm.DB) *appstock.Repositories {
	return &appstock.Repositories{
		Transactions: NewGormTransactionRepository(db),
		Levels:       NewGormLevelRepository(db),
		Batches:      NewGormBatchRepository(db),
		Documents:    NewGormDocumentRepository(db),
		CycleCounts:  NewGormCycleCountRepository(db),
		WorkOrders:   NewGormWorkOrderRepository(db),
		BOMs:         NewGormBOMRepository(db),
		Routings:     NewGormRoutingRepository(db),
		Labor:        NewGormLaborRepository(db),
	}
}

// GormTransactionScope runs units of work inside a gorm transaction. The
// repositories handed to the callback are bound to that transaction, so all
// reads and writes commit or roll back together.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a transaction scope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute implements appstock.TransactionScope
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(ctx context.Context, repos *appstock.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewRepositories(tx))
	})
}
