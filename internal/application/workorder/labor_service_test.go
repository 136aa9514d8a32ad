package workorder_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mes/backend/internal/domain/shared"
)

func TestLaborService_ClockInAndOut(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	order := env.releasedOrder(t, uuid.New(), uuid.New(), 10)
	opID := order.Operations[0].ID
	_, err := env.orders.StartOperation(ctx, env.tenantID, order.ID, opID, env.userID)
	require.NoError(t, err)

	operatorID := uuid.New()
	entry, err := env.labor.ClockIn(ctx, env.tenantID, order.ID, opID, operatorID)
	require.NoError(t, err)
	assert.Nil(t, entry.ClockOut)
	assert.True(t, entry.HourlyRate.Equal(decimal.NewFromInt(30)), "rate copied from the operation")

	closed, err := env.labor.ClockOut(ctx, env.tenantID, operatorID)
	require.NoError(t, err)
	require.NotNil(t, closed.ClockOut)
	assert.False(t, closed.Hours.IsNegative())

	entries, err := env.labor.ListByWorkOrder(ctx, env.tenantID, order.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestLaborService_SecondClockInRejected(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	order := env.releasedOrder(t, uuid.New(), uuid.New(), 10)
	opID := order.Operations[0].ID
	_, err := env.orders.StartOperation(ctx, env.tenantID, order.ID, opID, env.userID)
	require.NoError(t, err)

	operatorID := uuid.New()
	_, err = env.labor.ClockIn(ctx, env.tenantID, order.ID, opID, operatorID)
	require.NoError(t, err)

	_, err = env.labor.ClockIn(ctx, env.tenantID, order.ID, opID, operatorID)
	require.Error(t, err)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.CodeInvalidState, de.Code)
}

func TestLaborService_ClockInRequiresRunningOperation(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	order := env.releasedOrder(t, uuid.New(), uuid.New(), 10)

	// operation never started
	_, err := env.labor.ClockIn(ctx, env.tenantID, order.ID, order.Operations[0].ID, uuid.New())
	require.Error(t, err)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.CodeInvalidState, de.Code)
}

func TestLaborService_OpenEntryBlocksOperationCompletion(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	order := env.releasedOrder(t, uuid.New(), uuid.New(), 10)
	opID := order.Operations[0].ID
	_, err := env.orders.StartOperation(ctx, env.tenantID, order.ID, opID, env.userID)
	require.NoError(t, err)

	operatorID := uuid.New()
	_, err = env.labor.ClockIn(ctx, env.tenantID, order.ID, opID, operatorID)
	require.NoError(t, err)

	_, err = env.orders.CompleteOperation(ctx, env.tenantID, order.ID, opID)
	require.Error(t, err)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.CodeInvalidState, de.Code)

	_, err = env.labor.ClockOut(ctx, env.tenantID, operatorID)
	require.NoError(t, err)
	_, err = env.orders.CompleteOperation(ctx, env.tenantID, order.ID, opID)
	require.NoError(t, err)
}

func TestLaborService_ClockOutWithoutOpenEntry(t *testing.T) {
	env := newOrderEnv(t)

	_, err := env.labor.ClockOut(context.Background(), env.tenantID, uuid.New())
	require.Error(t, err)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.CodeInvalidState, de.Code)
}
