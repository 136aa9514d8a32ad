package stock

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mes/backend/internal/domain/shared"
)

func TestNewStockTransaction(t *testing.T) {
	tenantID := uuid.New()
	productID := uuid.New()
	userID := uuid.New()

	t.Run("creates a valid receipt", func(t *testing.T) {
		tx, err := NewStockTransaction(tenantID, TransactionTypeReceipt, productID,
			decimal.NewFromInt(10), "PCS", userID)
		require.NoError(t, err)
		assert.Equal(t, TransactionTypeReceipt, tx.Type)
		assert.Equal(t, tenantID, tx.TenantID)
		assert.True(t, tx.Quantity.Equal(decimal.NewFromInt(10)))
	})

	t.Run("rejects non-positive quantity for movements", func(t *testing.T) {
		for _, typ := range []TransactionType{TransactionTypeReceipt, TransactionTypeIssue, TransactionTypeTransfer} {
			_, err := NewStockTransaction(tenantID, typ, productID, decimal.Zero, "PCS", userID)
			require.Error(t, err)
			de := err.(*shared.DomainError)
			assert.Equal(t, shared.CodeValidationFailed, de.Code)
		}
	})

	t.Run("accepts negative quantity for adjustments", func(t *testing.T) {
		tx, err := NewStockTransaction(tenantID, TransactionTypeAdjustment, productID,
			decimal.NewFromInt(-3), "PCS", userID)
		require.NoError(t, err)
		assert.True(t, tx.Quantity.IsNegative())
	})

	t.Run("rejects zero quantity for adjustments", func(t *testing.T) {
		_, err := NewStockTransaction(tenantID, TransactionTypeAdjustment, productID,
			decimal.Zero, "PCS", userID)
		assert.Error(t, err)
	})

	t.Run("rejects missing product", func(t *testing.T) {
		_, err := NewStockTransaction(tenantID, TransactionTypeReceipt, uuid.Nil,
			decimal.NewFromInt(1), "PCS", userID)
		assert.Error(t, err)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := NewStockTransaction(tenantID, TransactionType("BOGUS"), productID,
			decimal.NewFromInt(1), "PCS", userID)
		assert.Error(t, err)
	})
}

func TestStockTransaction_WithLocations(t *testing.T) {
	tenantID := uuid.New()
	productID := uuid.New()
	userID := uuid.New()
	locA := uuid.New()
	locB := uuid.New()

	newTx := func(typ TransactionType, qty int64) *StockTransaction {
		tx, err := NewStockTransaction(tenantID, typ, productID, decimal.NewFromInt(qty), "PCS", userID)
		require.NoError(t, err)
		return tx
	}

	t.Run("receipt requires destination only", func(t *testing.T) {
		tx := newTx(TransactionTypeReceipt, 5)
		require.NoError(t, tx.WithLocations(nil, &locA))
		assert.Error(t, newTx(TransactionTypeReceipt, 5).WithLocations(&locA, &locB))
		assert.Error(t, newTx(TransactionTypeReceipt, 5).WithLocations(nil, nil))
	})

	t.Run("issue requires source only", func(t *testing.T) {
		tx := newTx(TransactionTypeIssue, 5)
		require.NoError(t, tx.WithLocations(&locA, nil))
		assert.Error(t, newTx(TransactionTypeIssue, 5).WithLocations(nil, &locA))
	})

	t.Run("transfer requires distinct endpoints", func(t *testing.T) {
		tx := newTx(TransactionTypeTransfer, 5)
		require.NoError(t, tx.WithLocations(&locA, &locB))
		assert.Error(t, newTx(TransactionTypeTransfer, 5).WithLocations(&locA, &locA))
		assert.Error(t, newTx(TransactionTypeTransfer, 5).WithLocations(&locA, nil))
	})

	t.Run("adjustment uses a single destination", func(t *testing.T) {
		tx := newTx(TransactionTypeAdjustment, -2)
		require.NoError(t, tx.WithLocations(nil, &locA))
		assert.Error(t, newTx(TransactionTypeAdjustment, -2).WithLocations(&locA, &locB))
	})
}

func TestStockTransaction_Deltas(t *testing.T) {
	tenantID := uuid.New()
	productID := uuid.New()
	userID := uuid.New()
	locA := uuid.New()
	locB := uuid.New()

	t.Run("transfer deltas net to zero", func(t *testing.T) {
		tx, err := NewStockTransaction(tenantID, TransactionTypeTransfer, productID,
			decimal.NewFromInt(7), "PCS", userID)
		require.NoError(t, err)
		require.NoError(t, tx.WithLocations(&locA, &locB))

		deltas := tx.Deltas()
		require.Len(t, deltas, 2)
		sum := deltas[0].Delta.Add(deltas[1].Delta)
		assert.True(t, sum.IsZero())
		assert.Equal(t, locA, deltas[0].LocationID)
		assert.True(t, deltas[0].Delta.IsNegative())
		assert.Equal(t, locB, deltas[1].LocationID)
		assert.True(t, deltas[1].Delta.IsPositive())
	})

	t.Run("issue produces a single negative delta", func(t *testing.T) {
		tx, err := NewStockTransaction(tenantID, TransactionTypeIssue, productID,
			decimal.NewFromInt(4), "PCS", userID)
		require.NoError(t, err)
		require.NoError(t, tx.WithLocations(&locA, nil))

		deltas := tx.Deltas()
		require.Len(t, deltas, 1)
		assert.True(t, deltas[0].Delta.Equal(decimal.NewFromInt(-4)))
	})

	t.Run("negative cycle count delta carries its sign", func(t *testing.T) {
		tx, err := NewStockTransaction(tenantID, TransactionTypeCycleCount, productID,
			decimal.NewFromInt(-3), "PCS", userID)
		require.NoError(t, err)
		require.NoError(t, tx.WithLocations(nil, &locA))

		deltas := tx.Deltas()
		require.Len(t, deltas, 1)
		assert.True(t, deltas[0].Delta.Equal(decimal.NewFromInt(-3)))
	})
}

func TestStockTransaction_TotalCost(t *testing.T) {
	tx, err := NewStockTransaction(uuid.New(), TransactionTypeAdjustment, uuid.New(),
		decimal.NewFromInt(-5), "PCS", uuid.New())
	require.NoError(t, err)
	tx.WithUnitCost(decimal.NewFromFloat(2.5))

	assert.True(t, tx.TotalCost().Equal(decimal.NewFromFloat(12.5)))
}
