package document

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/stock"
)

func startedCount(t *testing.T, onHand int64) (*CycleCount, *stock.StockLevel) {
	t.Helper()
	tenantID := uuid.New()
	locationID := uuid.New()
	count, err := NewCycleCount(tenantID, locationID, "CC-001", time.Now())
	require.NoError(t, err)

	level := stock.NewStockLevel(tenantID, uuid.New(), locationID, nil, "PCS")
	level.OnHand = decimal.NewFromInt(onHand)
	require.NoError(t, count.Start([]*stock.StockLevel{level}))
	return count, level
}

func TestCycleCount_Lifecycle(t *testing.T) {
	t.Run("start snapshots current balances", func(t *testing.T) {
		count, level := startedCount(t, 12)
		assert.Equal(t, CycleCountStatusInProgress, count.Status)
		require.Len(t, count.Lines, 1)
		assert.Equal(t, level.ProductID, count.Lines[0].ProductID)
		assert.True(t, count.Lines[0].SnapshotQty.Equal(decimal.NewFromInt(12)))
	})

	t.Run("start twice fails", func(t *testing.T) {
		count, _ := startedCount(t, 12)
		err := count.Start(nil)
		require.Error(t, err)
		de := err.(*shared.DomainError)
		assert.Equal(t, shared.CodeInvalidState, de.Code)
	})

	t.Run("complete requires every line counted", func(t *testing.T) {
		count, _ := startedCount(t, 12)
		assert.Error(t, count.Complete())

		require.NoError(t, count.RecordCount(count.Lines[0].ID, decimal.NewFromInt(12)))
		assert.NoError(t, count.Complete())
		assert.Equal(t, CycleCountStatusCompleted, count.Status)
	})

	t.Run("counted quantity cannot be negative", func(t *testing.T) {
		count, _ := startedCount(t, 12)
		assert.Error(t, count.RecordCount(count.Lines[0].ID, decimal.NewFromInt(-1)))
	})

	t.Run("posted count cannot be cancelled", func(t *testing.T) {
		count, _ := startedCount(t, 12)
		require.NoError(t, count.RecordCount(count.Lines[0].ID, decimal.NewFromInt(12)))
		require.NoError(t, count.Complete())
		require.NoError(t, count.MarkPosted(uuid.New()))
		assert.Error(t, count.Cancel())
	})
}

func TestCycleCount_BuildLedgerEntries(t *testing.T) {
	t.Run("shortfall of three produces a minus three entry", func(t *testing.T) {
		count, level := startedCount(t, 10)
		require.NoError(t, count.RecordCount(count.Lines[0].ID, decimal.NewFromInt(7)))
		require.NoError(t, count.Complete())

		entries, err := count.BuildLedgerEntries(uuid.New())
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, stock.TransactionTypeCycleCount, entries[0].Type)
		assert.True(t, entries[0].Quantity.Equal(decimal.NewFromInt(-3)))
		assert.Equal(t, count.LocationID, *entries[0].ToLocationID)
		assert.Equal(t, level.ProductID, entries[0].ProductID)
	})

	t.Run("zero variance lines produce nothing", func(t *testing.T) {
		count, _ := startedCount(t, 10)
		require.NoError(t, count.RecordCount(count.Lines[0].ID, decimal.NewFromInt(10)))
		require.NoError(t, count.Complete())

		entries, err := count.BuildLedgerEntries(uuid.New())
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("building before completion fails", func(t *testing.T) {
		count, _ := startedCount(t, 10)
		_, err := count.BuildLedgerEntries(uuid.New())
		assert.Error(t, err)
	})
}
