package workorder

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mes/backend/internal/domain/shared"
)

func newMaterial(required int64) *Material {
	return &Material{
		BaseEntity:    shared.NewBaseEntity(),
		WorkOrderID:   uuid.New(),
		ProductID:     uuid.New(),
		UnitOfMeasure: "PCS",
		RequiredQty:   decimal.NewFromInt(required),
		Status:        MaterialStatusRequired,
	}
}

func TestMaterial_Lifecycle(t *testing.T) {
	t.Run("allocation moves status forward", func(t *testing.T) {
		m := newMaterial(10)
		require.NoError(t, m.Allocate(decimal.NewFromInt(10)))
		assert.Equal(t, MaterialStatusAllocated, m.Status)
	})

	t.Run("deallocation reverts an unissued requirement", func(t *testing.T) {
		m := newMaterial(10)
		require.NoError(t, m.Allocate(decimal.NewFromInt(6)))
		require.NoError(t, m.Deallocate(decimal.NewFromInt(6)))
		assert.True(t, m.AllocatedQty.IsZero())
		assert.Equal(t, MaterialStatusRequired, m.Status)

		assert.Error(t, m.Deallocate(decimal.NewFromInt(1)))
	})

	t.Run("issue averages unit cost", func(t *testing.T) {
		m := newMaterial(10)
		require.NoError(t, m.RecordIssue(decimal.NewFromInt(4), decimal.NewFromInt(2)))
		require.NoError(t, m.RecordIssue(decimal.NewFromInt(6), decimal.NewFromInt(3)))
		assert.Equal(t, MaterialStatusIssued, m.Status)
		// (4x2 + 6x3) / 10 = 2.6
		assert.True(t, m.UnitCost.Equal(decimal.NewFromFloat(2.6)), "got %s", m.UnitCost)
	})

	t.Run("consumption bounded by outstanding", func(t *testing.T) {
		m := newMaterial(10)
		require.NoError(t, m.RecordIssue(decimal.NewFromInt(10), decimal.NewFromInt(1)))
		require.NoError(t, m.RecordConsumption(decimal.NewFromInt(7)))
		assert.Error(t, m.RecordConsumption(decimal.NewFromInt(4)))
		require.NoError(t, m.RecordConsumption(decimal.NewFromInt(3)))
		assert.Equal(t, MaterialStatusConsumed, m.Status)
	})

	t.Run("return bounded by outstanding", func(t *testing.T) {
		m := newMaterial(10)
		require.NoError(t, m.RecordIssue(decimal.NewFromInt(10), decimal.NewFromInt(1)))
		require.NoError(t, m.RecordConsumption(decimal.NewFromInt(6)))
		assert.Error(t, m.RecordReturn(decimal.NewFromInt(5)))
		require.NoError(t, m.RecordReturn(decimal.NewFromInt(4)))
		assert.True(t, m.Outstanding().IsZero())
	})

	t.Run("actual cost nets out returns", func(t *testing.T) {
		m := newMaterial(10)
		require.NoError(t, m.RecordIssue(decimal.NewFromInt(10), decimal.NewFromInt(2)))
		require.NoError(t, m.RecordReturn(decimal.NewFromInt(3)))
		// (10 - 3) x 2 = 14
		assert.True(t, m.ActualCost().Equal(decimal.NewFromInt(14)))
	})
}

func TestOperation_Hours(t *testing.T) {
	t.Run("hours split in planned proportion", func(t *testing.T) {
		op := Operation{
			BaseEntity:        shared.NewBaseEntity(),
			PlannedSetupHours: decimal.NewFromInt(1),
			PlannedRunHours:   decimal.NewFromInt(3),
			LaborRate:         decimal.NewFromInt(20),
			OverheadRate:      decimal.NewFromInt(4),
		}
		require.NoError(t, op.AddActualHours(decimal.NewFromInt(8)))
		assert.True(t, op.ActualSetupHours.Equal(decimal.NewFromInt(2)))
		assert.True(t, op.ActualRunHours.Equal(decimal.NewFromInt(6)))
		assert.True(t, op.ActualLaborCost().Equal(decimal.NewFromInt(160)))
		assert.True(t, op.ActualOverheadCost().Equal(decimal.NewFromInt(32)))
	})

	t.Run("no planned hours counts everything as run", func(t *testing.T) {
		op := Operation{BaseEntity: shared.NewBaseEntity()}
		require.NoError(t, op.AddActualHours(decimal.NewFromInt(2)))
		assert.True(t, op.ActualRunHours.Equal(decimal.NewFromInt(2)))
		assert.True(t, op.ActualSetupHours.IsZero())
	})
}

func TestCostRollup(t *testing.T) {
	order := releasedOrder(t, 100)
	m := &order.Materials[0]
	require.NoError(t, m.RecordIssue(decimal.NewFromInt(210), decimal.NewFromInt(3)))

	for i := range order.Operations {
		require.NoError(t, order.StartOperation(order.Operations[i].ID, uuid.New()))
		require.NoError(t, order.Operations[i].AddActualHours(decimal.NewFromInt(10)))
		require.NoError(t, order.CompleteOperation(order.Operations[i].ID))
	}
	require.NoError(t, order.Complete(decimal.NewFromInt(100), decimal.Zero))

	summary := order.CostRollup()
	assert.True(t, summary.ActualMaterialCost.Equal(decimal.NewFromInt(630)))
	// 10h x 20 + 10h x 25 = 450
	assert.True(t, summary.ActualLaborCost.Equal(decimal.NewFromInt(450)))
	// 10h x 5 = 50 (second operation has no overhead rate)
	assert.True(t, summary.ActualOverheadCost.Equal(decimal.NewFromInt(50)))
	assert.True(t, summary.ActualTotalCost.Equal(decimal.NewFromInt(1130)))
	assert.True(t, summary.UnitCost.Equal(decimal.NewFromFloat(11.3)), "got %s", summary.UnitCost)
	assert.True(t, summary.Variance.Equal(summary.ActualTotalCost.Sub(summary.PlannedTotalCost)))
}
