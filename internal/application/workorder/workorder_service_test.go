package workorder_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appstock "github.com/mes/backend/internal/application/stock"
	appworkorder "github.com/mes/backend/internal/application/workorder"
	"github.com/mes/backend/internal/domain/document"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/stock"
	"github.com/mes/backend/internal/domain/workorder"
	"github.com/mes/backend/internal/infrastructure/event"
	"github.com/mes/backend/internal/infrastructure/logger"
	"github.com/mes/backend/internal/infrastructure/persistence"
)

type orderEnv struct {
	scope     *persistence.GormTransactionScope
	orders    *appworkorder.WorkOrderService
	materials *appworkorder.MaterialService
	labor     *appworkorder.LaborService
	documents *appstock.DocumentService
	posting   *appstock.PostingService
	stocks    *appstock.StockService
	bus       *event.InMemoryEventBus
	tenantID  uuid.UUID
	userID    uuid.UUID
}

func newOrderEnv(t *testing.T) *orderEnv {
	t.Helper()
	db, err := persistence.NewTestDB()
	require.NoError(t, err)
	scope := persistence.NewGormTransactionScope(db)
	log := logger.NewNop()
	bus := event.NewInMemoryEventBus(log)

	return &orderEnv{
		scope:     scope,
		orders:    appworkorder.NewWorkOrderService(scope, bus, log),
		materials: appworkorder.NewMaterialService(scope, log),
		labor:     appworkorder.NewLaborService(scope, log),
		documents: appstock.NewDocumentService(scope, log),
		posting:   appstock.NewPostingService(scope, bus, nil, shared.DefaultIdempotencyConfig(), log),
		stocks:    appstock.NewStockService(scope, log),
		bus:       bus,
		tenantID:  uuid.New(),
		userID:    uuid.New(),
	}
}

// seedCatalog saves an active single-component bill of material and a
// two-step routing for the product. The component needs 2 per unit with 5%
// scrap allowance.
func (e *orderEnv) seedCatalog(t *testing.T, productID, componentID uuid.UUID) {
	t.Helper()
	bom := &workorder.BillOfMaterial{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(e.tenantID),
		ProductID:           productID,
		Revision:            "A",
		Status:              workorder.CatalogStatusActive,
		Lines: []workorder.BOMLine{{
			BaseEntity:    shared.NewBaseEntity(),
			ComponentID:   componentID,
			QuantityPer:   decimal.NewFromInt(2),
			ScrapPercent:  decimal.NewFromInt(5),
			UnitOfMeasure: "PCS",
			StandardCost:  decimal.NewFromInt(3),
		}},
	}
	for i := range bom.Lines {
		bom.Lines[i].BOMID = bom.ID
	}
	routing := &workorder.Routing{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(e.tenantID),
		ProductID:           productID,
		Revision:            "A",
		Status:              workorder.CatalogStatusActive,
		Steps: []workorder.RoutingStep{
			{
				BaseEntity:      shared.NewBaseEntity(),
				Sequence:        10,
				Name:            "Assemble",
				WorkCenterID:    uuid.New(),
				SetupHours:      decimal.NewFromFloat(0.5),
				RunHoursPerUnit: decimal.NewFromFloat(0.1),
				LaborRate:       decimal.NewFromInt(30),
				OverheadRate:    decimal.NewFromInt(10),
			},
			{
				BaseEntity:      shared.NewBaseEntity(),
				Sequence:        20,
				Name:            "Inspect",
				WorkCenterID:    uuid.New(),
				SetupHours:      decimal.Zero,
				RunHoursPerUnit: decimal.NewFromFloat(0.01),
				LaborRate:       decimal.NewFromInt(25),
				OverheadRate:    decimal.NewFromInt(5),
			},
		},
	}
	for i := range routing.Steps {
		routing.Steps[i].RoutingID = routing.ID
	}
	err := e.scope.Execute(context.Background(), func(ctx context.Context, repos *appstock.Repositories) error {
		if err := repos.BOMs.Save(ctx, bom); err != nil {
			return err
		}
		return repos.Routings.Save(ctx, routing)
	})
	require.NoError(t, err)
}

func (e *orderEnv) receiveStock(t *testing.T, number string, productID, locationID uuid.UUID, qty decimal.Decimal) {
	t.Helper()
	ctx := context.Background()
	doc, err := e.documents.CreateDocument(ctx, e.tenantID, e.userID, appstock.CreateDocumentRequest{
		Type:           string(document.DocumentTypeGoodsReceipt),
		DocumentNumber: number,
		ToLocationID:   &locationID,
		Lines: []appstock.AddLineRequest{{
			ProductID:     productID,
			Quantity:      qty,
			UnitOfMeasure: "PCS",
		}},
	})
	require.NoError(t, err)
	_, err = e.posting.PostDocument(ctx, e.tenantID, doc.ID, e.userID, "", false)
	require.NoError(t, err)
}

func (e *orderEnv) releasedOrder(t *testing.T, productID, componentID uuid.UUID, qty int64) *workorder.WorkOrder {
	t.Helper()
	ctx := context.Background()
	e.seedCatalog(t, productID, componentID)
	order, err := e.orders.CreateWorkOrder(ctx, e.tenantID, e.userID, appworkorder.CreateWorkOrderRequest{
		OrderNumber:      "WO-001",
		ProductID:        productID,
		Quantity:         decimal.NewFromInt(qty),
		UnitOfMeasure:    "PCS",
		InputLocationID:  uuid.New(),
		OutputLocationID: uuid.New(),
		StandardCost:     decimal.NewFromInt(12),
	})
	require.NoError(t, err)
	order, err = e.orders.ReleaseWorkOrder(ctx, e.tenantID, order.ID)
	require.NoError(t, err)
	return order
}

func (e *orderEnv) onHand(t *testing.T, productID, locationID uuid.UUID) decimal.Decimal {
	t.Helper()
	level, err := e.stocks.GetLevel(context.Background(), e.tenantID, productID, locationID, nil)
	require.NoError(t, err)
	return level.OnHand
}

type capturingHandler struct {
	mu     sync.Mutex
	types  []string
	events []shared.DomainEvent
}

func (h *capturingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return nil
}

func (h *capturingHandler) EventTypes() []string { return h.types }

func (h *capturingHandler) captured() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.events...)
}

func TestWorkOrderService_Release(t *testing.T) {
	env := newOrderEnv(t)
	productID := uuid.New()
	componentID := uuid.New()

	order := env.releasedOrder(t, productID, componentID, 100)
	assert.Equal(t, workorder.WorkOrderStatusReleased, order.Status)

	require.Len(t, order.Materials, 1)
	assert.True(t, order.Materials[0].RequiredQty.Equal(decimal.NewFromInt(210)),
		"2 per unit x 100 units x 1.05 scrap factor")
	require.Len(t, order.Operations, 2)
	assert.Equal(t, workorder.OperationStatusPending, order.Operations[0].Status)
}

func TestWorkOrderService_ReleaseWithoutActiveBOM(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	order, err := env.orders.CreateWorkOrder(ctx, env.tenantID, env.userID, appworkorder.CreateWorkOrderRequest{
		OrderNumber:      "WO-001",
		ProductID:        uuid.New(),
		Quantity:         decimal.NewFromInt(10),
		UnitOfMeasure:    "PCS",
		InputLocationID:  uuid.New(),
		OutputLocationID: uuid.New(),
	})
	require.NoError(t, err)

	_, err = env.orders.ReleaseWorkOrder(ctx, env.tenantID, order.ID)
	require.Error(t, err)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.CodeValidationFailed, de.Code)
}

func TestWorkOrderService_ReleaseRaisesShortageEvents(t *testing.T) {
	env := newOrderEnv(t)
	handler := &capturingHandler{types: []string{stock.EventTypeStockShortageDetected}}
	env.bus.Subscribe(handler)

	// no component stock anywhere, so the release is short by 210
	order := env.releasedOrder(t, uuid.New(), uuid.New(), 100)
	assert.Equal(t, workorder.WorkOrderStatusReleased, order.Status, "shortage never blocks the release")

	events := handler.captured()
	require.Len(t, events, 1)
	shortage, ok := events[0].(*stock.StockShortageDetectedEvent)
	require.True(t, ok)
	assert.True(t, shortage.Required.Equal(decimal.NewFromInt(210)))
	assert.True(t, shortage.Available.IsZero())
}

func TestWorkOrderService_CompleteReceivesFinishedGoods(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	productID := uuid.New()
	order := env.releasedOrder(t, productID, uuid.New(), 100)

	for _, op := range order.Operations {
		_, err := env.orders.StartOperation(ctx, env.tenantID, order.ID, op.ID, env.userID)
		require.NoError(t, err)
		_, err = env.orders.CompleteOperation(ctx, env.tenantID, order.ID, op.ID)
		require.NoError(t, err)
	}

	order, err := env.orders.CompleteWorkOrder(ctx, env.tenantID, order.ID, env.userID, decimal.NewFromInt(98), decimal.NewFromInt(2))
	require.NoError(t, err)
	assert.Equal(t, workorder.WorkOrderStatusCompleted, order.Status)
	assert.True(t, order.CompletedQty.Equal(decimal.NewFromInt(98)))
	assert.True(t, order.ScrappedQty.Equal(decimal.NewFromInt(2)))

	// finished goods were received into the output location at standard cost
	assert.True(t, env.onHand(t, productID, order.OutputLocationID).Equal(decimal.NewFromInt(98)))
	txs, err := env.stocks.ProductHistory(ctx, env.tenantID, productID, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, txs.Items, 1)
	assert.Equal(t, stock.TransactionTypeReceipt, txs.Items[0].Type)
	assert.True(t, txs.Items[0].UnitCost.Equal(decimal.NewFromInt(12)))

	diffs, err := env.stocks.VerifyLevels(ctx, env.tenantID)
	require.NoError(t, err)
	assert.Empty(t, diffs)
}

func TestWorkOrderService_CompleteRequiresAllOperationsDone(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	order := env.releasedOrder(t, uuid.New(), uuid.New(), 10)

	_, err := env.orders.CompleteWorkOrder(ctx, env.tenantID, order.ID, env.userID, decimal.Zero, decimal.Zero)
	require.Error(t, err)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.CodeInvalidState, de.Code)
}

func TestWorkOrderService_CancelReturnsOutstandingMaterial(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	componentID := uuid.New()
	order := env.releasedOrder(t, uuid.New(), componentID, 100)
	inputID := order.InputLocationID

	env.receiveStock(t, "GR-001", componentID, inputID, decimal.NewFromInt(300))
	_, err := env.materials.AllocateMaterial(ctx, env.tenantID, order.ID, componentID, decimal.NewFromInt(50))
	require.NoError(t, err)
	_, err = env.materials.IssueMaterial(ctx, env.tenantID, order.ID, componentID, env.userID,
		decimal.NewFromInt(50), decimal.NewFromInt(3), nil)
	require.NoError(t, err)
	_, err = env.materials.ConsumeMaterial(ctx, env.tenantID, order.ID, componentID, decimal.NewFromInt(30))
	require.NoError(t, err)
	require.True(t, env.onHand(t, componentID, inputID).Equal(decimal.NewFromInt(250)))

	order, err = env.orders.CancelWorkOrder(ctx, env.tenantID, order.ID, env.userID)
	require.NoError(t, err)
	assert.Equal(t, workorder.WorkOrderStatusCancelled, order.Status)

	// the 20 issued-but-unconsumed units came back to the input location
	assert.True(t, env.onHand(t, componentID, inputID).Equal(decimal.NewFromInt(270)))
	assert.True(t, order.Materials[0].ReturnedQty.Equal(decimal.NewFromInt(20)))

	diffs, err := env.stocks.VerifyLevels(ctx, env.tenantID)
	require.NoError(t, err)
	assert.Empty(t, diffs)
}

func TestWorkOrderService_CancelReleasesAllocation(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	componentID := uuid.New()
	order := env.releasedOrder(t, uuid.New(), componentID, 10)
	inputID := order.InputLocationID

	env.receiveStock(t, "GR-001", componentID, inputID, decimal.NewFromInt(100))
	_, err := env.materials.AllocateMaterial(ctx, env.tenantID, order.ID, componentID, decimal.NewFromInt(21))
	require.NoError(t, err)

	level, err := env.stocks.GetLevel(ctx, env.tenantID, componentID, inputID, nil)
	require.NoError(t, err)
	require.True(t, level.Reserved.Equal(decimal.NewFromInt(21)))

	order, err = env.orders.CancelWorkOrder(ctx, env.tenantID, order.ID, env.userID)
	require.NoError(t, err)
	assert.True(t, order.Materials[0].AllocatedQty.IsZero())

	// the reservation came back with the cancel
	level, err = env.stocks.GetLevel(ctx, env.tenantID, componentID, inputID, nil)
	require.NoError(t, err)
	assert.True(t, level.Reserved.IsZero())
	assert.True(t, level.Available().Equal(decimal.NewFromInt(100)))
}

func TestWorkOrderService_StartOperationRejectsBusyOperator(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	operatorID := uuid.New()

	first := env.releasedOrder(t, uuid.New(), uuid.New(), 10)
	_, err := env.orders.StartOperation(ctx, env.tenantID, first.ID, first.Operations[0].ID, operatorID)
	require.NoError(t, err)
	_, err = env.labor.ClockIn(ctx, env.tenantID, first.ID, first.Operations[0].ID, operatorID)
	require.NoError(t, err)

	productID := uuid.New()
	env.seedCatalog(t, productID, uuid.New())
	second, err := env.orders.CreateWorkOrder(ctx, env.tenantID, env.userID, appworkorder.CreateWorkOrderRequest{
		OrderNumber:      "WO-002",
		ProductID:        productID,
		Quantity:         decimal.NewFromInt(5),
		UnitOfMeasure:    "PCS",
		InputLocationID:  uuid.New(),
		OutputLocationID: uuid.New(),
	})
	require.NoError(t, err)
	second, err = env.orders.ReleaseWorkOrder(ctx, env.tenantID, second.ID)
	require.NoError(t, err)

	_, err = env.orders.StartOperation(ctx, env.tenantID, second.ID, second.Operations[0].ID, operatorID)
	require.Error(t, err)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.CodeInvalidState, de.Code)

	// once clocked out the operator may start the next operation
	_, err = env.labor.ClockOut(ctx, env.tenantID, operatorID)
	require.NoError(t, err)
	second, err = env.orders.StartOperation(ctx, env.tenantID, second.ID, second.Operations[0].ID, operatorID)
	require.NoError(t, err)
	require.NotNil(t, second.Operations[0].OperatorID)
	assert.Equal(t, operatorID, *second.Operations[0].OperatorID)
}

func TestWorkOrderService_Costing(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	order := env.releasedOrder(t, uuid.New(), uuid.New(), 100)

	summary, err := env.orders.GetCosting(ctx, env.tenantID, order.ID)
	require.NoError(t, err)
	assert.True(t, summary.PlannedMaterialCost.Equal(decimal.NewFromInt(630)),
		"210 units at standard cost 3")
	assert.True(t, summary.PlannedMaterialCost.GreaterThan(summary.ActualMaterialCost))
}
