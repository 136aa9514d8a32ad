package workorder_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/workorder"
)

func TestMaterialService_AllocateReservesStock(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	componentID := uuid.New()
	order := env.releasedOrder(t, uuid.New(), componentID, 100)
	env.receiveStock(t, "GR-001", componentID, order.InputLocationID, decimal.NewFromInt(100))

	order, err := env.materials.AllocateMaterial(ctx, env.tenantID, order.ID, componentID, decimal.NewFromInt(60))
	require.NoError(t, err)
	assert.True(t, order.Materials[0].AllocatedQty.Equal(decimal.NewFromInt(60)))

	level, err := env.stocks.GetLevel(ctx, env.tenantID, componentID, order.InputLocationID, nil)
	require.NoError(t, err)
	assert.True(t, level.Reserved.Equal(decimal.NewFromInt(60)))
	assert.True(t, level.Available().Equal(decimal.NewFromInt(40)))
}

func TestMaterialService_AllocateBeyondAvailabilityFails(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	componentID := uuid.New()
	order := env.releasedOrder(t, uuid.New(), componentID, 100)
	env.receiveStock(t, "GR-001", componentID, order.InputLocationID, decimal.NewFromInt(10))

	_, err := env.materials.AllocateMaterial(ctx, env.tenantID, order.ID, componentID, decimal.NewFromInt(25))
	require.Error(t, err)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.CodeInsufficientStock, de.Code)
}

func TestMaterialService_IssueDrawsFromReservation(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	componentID := uuid.New()
	order := env.releasedOrder(t, uuid.New(), componentID, 100)
	env.receiveStock(t, "GR-001", componentID, order.InputLocationID, decimal.NewFromInt(100))

	_, err := env.materials.AllocateMaterial(ctx, env.tenantID, order.ID, componentID, decimal.NewFromInt(60))
	require.NoError(t, err)
	order, err = env.materials.IssueMaterial(ctx, env.tenantID, order.ID, componentID, env.userID,
		decimal.NewFromInt(60), decimal.NewFromInt(3), nil)
	require.NoError(t, err)

	m := order.Materials[0]
	assert.True(t, m.IssuedQty.Equal(decimal.NewFromInt(60)))
	assert.True(t, m.UnitCost.Equal(decimal.NewFromInt(3)))

	level, err := env.stocks.GetLevel(ctx, env.tenantID, componentID, order.InputLocationID, nil)
	require.NoError(t, err)
	assert.True(t, level.OnHand.Equal(decimal.NewFromInt(40)))
	assert.True(t, level.Reserved.IsZero(), "the reservation was released before the issue")

	diffs, err := env.stocks.VerifyLevels(ctx, env.tenantID)
	require.NoError(t, err)
	assert.Empty(t, diffs)
}

func TestMaterialService_IssueRequiresAllocation(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	componentID := uuid.New()
	order := env.releasedOrder(t, uuid.New(), componentID, 100)
	env.receiveStock(t, "GR-001", componentID, order.InputLocationID, decimal.NewFromInt(100))
	require.Equal(t, workorder.MaterialStatusRequired, order.Materials[0].Status)

	_, err := env.materials.IssueMaterial(ctx, env.tenantID, order.ID, componentID, env.userID,
		decimal.NewFromInt(10), decimal.NewFromInt(3), nil)
	require.Error(t, err)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.CodeInvalidState, de.Code)

	// no ledger entry was written for the refused issue
	assert.True(t, env.onHand(t, componentID, order.InputLocationID).Equal(decimal.NewFromInt(100)))
}

func TestMaterialService_IssueAveragesUnitCost(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	componentID := uuid.New()
	order := env.releasedOrder(t, uuid.New(), componentID, 100)
	env.receiveStock(t, "GR-001", componentID, order.InputLocationID, decimal.NewFromInt(100))

	_, err := env.materials.AllocateMaterial(ctx, env.tenantID, order.ID, componentID, decimal.NewFromInt(50))
	require.NoError(t, err)
	_, err = env.materials.IssueMaterial(ctx, env.tenantID, order.ID, componentID, env.userID,
		decimal.NewFromInt(30), decimal.NewFromInt(2), nil)
	require.NoError(t, err)
	order, err = env.materials.IssueMaterial(ctx, env.tenantID, order.ID, componentID, env.userID,
		decimal.NewFromInt(20), decimal.NewFromFloat(3.5), nil)
	require.NoError(t, err)

	// (30x2 + 20x3.5) / 50 = 2.6
	assert.True(t, order.Materials[0].UnitCost.Equal(decimal.NewFromFloat(2.6)))
}

func TestMaterialService_ReturnRestocksInputLocation(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	componentID := uuid.New()
	order := env.releasedOrder(t, uuid.New(), componentID, 100)
	env.receiveStock(t, "GR-001", componentID, order.InputLocationID, decimal.NewFromInt(100))

	_, err := env.materials.AllocateMaterial(ctx, env.tenantID, order.ID, componentID, decimal.NewFromInt(50))
	require.NoError(t, err)
	_, err = env.materials.IssueMaterial(ctx, env.tenantID, order.ID, componentID, env.userID,
		decimal.NewFromInt(50), decimal.NewFromInt(3), nil)
	require.NoError(t, err)
	_, err = env.materials.ConsumeMaterial(ctx, env.tenantID, order.ID, componentID, decimal.NewFromInt(30))
	require.NoError(t, err)

	order, err = env.materials.ReturnMaterial(ctx, env.tenantID, order.ID, componentID, env.userID, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.True(t, order.Materials[0].ReturnedQty.Equal(decimal.NewFromInt(10)))
	assert.True(t, order.Materials[0].Outstanding().Equal(decimal.NewFromInt(10)))

	assert.True(t, env.onHand(t, componentID, order.InputLocationID).Equal(decimal.NewFromInt(60)))
}

func TestMaterialService_ReturnBeyondOutstandingFails(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	componentID := uuid.New()
	order := env.releasedOrder(t, uuid.New(), componentID, 100)
	env.receiveStock(t, "GR-001", componentID, order.InputLocationID, decimal.NewFromInt(100))

	_, err := env.materials.AllocateMaterial(ctx, env.tenantID, order.ID, componentID, decimal.NewFromInt(20))
	require.NoError(t, err)
	_, err = env.materials.IssueMaterial(ctx, env.tenantID, order.ID, componentID, env.userID,
		decimal.NewFromInt(20), decimal.NewFromInt(3), nil)
	require.NoError(t, err)

	_, err = env.materials.ReturnMaterial(ctx, env.tenantID, order.ID, componentID, env.userID, decimal.NewFromInt(25))
	require.Error(t, err)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.CodeValidationFailed, de.Code)
}

func TestMaterialService_RequiresActiveOrder(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	componentID := uuid.New()
	order := env.releasedOrder(t, uuid.New(), componentID, 10)
	order, err := env.orders.CancelWorkOrder(ctx, env.tenantID, order.ID, env.userID)
	require.NoError(t, err)
	require.Equal(t, workorder.WorkOrderStatusCancelled, order.Status)

	_, err = env.materials.ConsumeMaterial(ctx, env.tenantID, order.ID, componentID, decimal.NewFromInt(1))
	require.Error(t, err)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.CodeInvalidState, de.Code)
}

func TestMaterialService_UnknownProductFails(t *testing.T) {
	env := newOrderEnv(t)
	order := env.releasedOrder(t, uuid.New(), uuid.New(), 10)

	_, err := env.materials.AllocateMaterial(context.Background(), env.tenantID, order.ID, uuid.New(), decimal.NewFromInt(1))
	require.ErrorIs(t, err, shared.ErrNotFound)
}
