package stock

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mes/backend/internal/domain/shared"
)

func newLevel(t *testing.T, onHand, reserved int64) *StockLevel {
	t.Helper()
	level := NewStockLevel(uuid.New(), uuid.New(), uuid.New(), nil, "PCS")
	level.OnHand = decimal.NewFromInt(onHand)
	level.Reserved = decimal.NewFromInt(reserved)
	return level
}

func TestStockLevel_ApplyDelta(t *testing.T) {
	t.Run("positive delta always applies", func(t *testing.T) {
		level := newLevel(t, 10, 0)
		require.NoError(t, level.ApplyDelta(decimal.NewFromInt(5), false))
		assert.True(t, level.OnHand.Equal(decimal.NewFromInt(15)))
	})

	t.Run("negative delta within availability applies", func(t *testing.T) {
		level := newLevel(t, 10, 3)
		require.NoError(t, level.ApplyDelta(decimal.NewFromInt(-7), false))
		assert.True(t, level.OnHand.Equal(decimal.NewFromInt(3)))
	})

	t.Run("negative delta beyond availability is refused", func(t *testing.T) {
		level := newLevel(t, 10, 3)
		err := level.ApplyDelta(decimal.NewFromInt(-8), false)
		require.Error(t, err)
		de := err.(*shared.DomainError)
		assert.Equal(t, shared.CodeInsufficientStock, de.Code)
		assert.True(t, level.OnHand.Equal(decimal.NewFromInt(10)))
	})

	t.Run("override may dip into reservation", func(t *testing.T) {
		level := newLevel(t, 10, 3)
		require.NoError(t, level.ApplyDelta(decimal.NewFromInt(-9), true))
		assert.True(t, level.OnHand.Equal(decimal.NewFromInt(1)))
	})

	t.Run("override may drive the balance negative", func(t *testing.T) {
		level := newLevel(t, 2, 0)
		require.NoError(t, level.ApplyDelta(decimal.NewFromInt(-5), true))
		assert.True(t, level.OnHand.Equal(decimal.NewFromInt(-3)))
	})
}

func TestStockLevel_ReserveRelease(t *testing.T) {
	t.Run("reserve within availability", func(t *testing.T) {
		level := newLevel(t, 10, 2)
		require.NoError(t, level.Reserve(decimal.NewFromInt(5)))
		assert.True(t, level.Reserved.Equal(decimal.NewFromInt(7)))
		assert.True(t, level.Available().Equal(decimal.NewFromInt(3)))
	})

	t.Run("reserve beyond availability fails", func(t *testing.T) {
		level := newLevel(t, 10, 2)
		err := level.Reserve(decimal.NewFromInt(9))
		require.Error(t, err)
		de := err.(*shared.DomainError)
		assert.Equal(t, shared.CodeInsufficientStock, de.Code)
	})

	t.Run("release returns quantity to available", func(t *testing.T) {
		level := newLevel(t, 10, 6)
		require.NoError(t, level.Release(decimal.NewFromInt(4)))
		assert.True(t, level.Reserved.Equal(decimal.NewFromInt(2)))
	})

	t.Run("release beyond reserved fails", func(t *testing.T) {
		level := newLevel(t, 10, 2)
		assert.Error(t, level.Release(decimal.NewFromInt(3)))
	})
}

func TestStockLevel_IsEmpty(t *testing.T) {
	assert.True(t, newLevel(t, 0, 0).IsEmpty())
	assert.False(t, newLevel(t, 1, 0).IsEmpty())
	assert.False(t, newLevel(t, 0, 1).IsEmpty())
}
