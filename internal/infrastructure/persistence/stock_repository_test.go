package persistence_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/stock"
	"github.com/mes/backend/internal/infrastructure/persistence"
)

func TestLevelRepository_SaveWithLockBumpsVersion(t *testing.T) {
	db, err := persistence.NewTestDB()
	require.NoError(t, err)
	repo := persistence.NewGormLevelRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	level, err := repo.GetOrCreate(ctx, tenantID, uuid.New(), uuid.New(), nil, "PCS")
	require.NoError(t, err)
	require.Equal(t, 1, level.GetVersion())

	require.NoError(t, level.ApplyDelta(decimal.NewFromInt(5), false))
	require.NoError(t, repo.SaveWithLock(ctx, level))
	assert.Equal(t, 2, level.GetVersion())

	reloaded, err := repo.FindByID(ctx, tenantID, level.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.GetVersion())
	assert.True(t, reloaded.OnHand.Equal(decimal.NewFromInt(5)))
}

func TestLevelRepository_SaveWithLockRejectsStaleVersion(t *testing.T) {
	db, err := persistence.NewTestDB()
	require.NoError(t, err)
	repo := persistence.NewGormLevelRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	productID := uuid.New()
	locationID := uuid.New()

	level, err := repo.GetOrCreate(ctx, tenantID, productID, locationID, nil, "PCS")
	require.NoError(t, err)

	// two readers load the same row
	stale, err := repo.FindByKey(ctx, tenantID, productID, locationID, nil)
	require.NoError(t, err)

	require.NoError(t, level.ApplyDelta(decimal.NewFromInt(5), false))
	require.NoError(t, repo.SaveWithLock(ctx, level))

	require.NoError(t, stale.ApplyDelta(decimal.NewFromInt(3), false))
	err = repo.SaveWithLock(ctx, stale)
	require.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	// the first writer's change survived
	reloaded, err := repo.FindByKey(ctx, tenantID, productID, locationID, nil)
	require.NoError(t, err)
	assert.True(t, reloaded.OnHand.Equal(decimal.NewFromInt(5)))
}

func TestLevelRepository_SaveWithLockIssuesVersionGuardedUpdate(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn, PreferSimpleProtocol: true}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	repo := persistence.NewGormLevelRepository(db)

	level := stock.NewStockLevel(uuid.New(), uuid.New(), uuid.New(), nil, "PCS")
	mock.ExpectExec(`UPDATE "stock_levels" SET .+ WHERE id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SaveWithLock(context.Background(), level))

	// zero affected rows surfaces as a concurrency conflict
	mock.ExpectExec(`UPDATE "stock_levels" SET .+ WHERE id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.SaveWithLock(context.Background(), level)
	require.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_SumDeltasReplaysLedger(t *testing.T) {
	db, err := persistence.NewTestDB()
	require.NoError(t, err)
	repo := persistence.NewGormTransactionRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	productID := uuid.New()
	userID := uuid.New()
	locA := uuid.New()
	locB := uuid.New()

	receipt, err := stock.NewStockTransaction(tenantID, stock.TransactionTypeReceipt, productID, decimal.NewFromInt(10), "PCS", userID)
	require.NoError(t, err)
	require.NoError(t, receipt.WithLocations(nil, &locA))

	transfer, err := stock.NewStockTransaction(tenantID, stock.TransactionTypeTransfer, productID, decimal.NewFromInt(4), "PCS", userID)
	require.NoError(t, err)
	require.NoError(t, transfer.WithLocations(&locA, &locB))

	issue, err := stock.NewStockTransaction(tenantID, stock.TransactionTypeIssue, productID, decimal.NewFromInt(3), "PCS", userID)
	require.NoError(t, err)
	require.NoError(t, issue.WithLocations(&locA, nil))

	require.NoError(t, repo.SaveAll(ctx, []*stock.StockTransaction{receipt, transfer, issue}))

	sumA, err := repo.SumDeltas(ctx, tenantID, productID, locA, nil)
	require.NoError(t, err)
	assert.True(t, sumA.Equal(decimal.NewFromInt(3)), "10 in, 4 transferred away, 3 issued")

	sumB, err := repo.SumDeltas(ctx, tenantID, productID, locB, nil)
	require.NoError(t, err)
	assert.True(t, sumB.Equal(decimal.NewFromInt(4)))
}
