package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/domain/workorder"
)

// GormWorkOrderRepository persists work orders with materials and operations
type GormWorkOrderRepository struct {
	db *gorm.DB
}

// NewGormWorkOrderRepository creates the repository
func NewGormWorkOrderRepository(db *gorm.DB) *GormWorkOrderRepository {
	return &GormWorkOrderRepository{db: db}
}

func (r *GormWorkOrderRepository) saveChildren(tx *gorm.DB, order *workorder.WorkOrder) error {
	if err := upsertLines(tx, order.Materials); err != nil {
		return err
	}
	return upsertLines(tx, order.Operations)
}

func (r *GormWorkOrderRepository) Save(ctx context.Context, order *workorder.WorkOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Materials", "Operations").Save(order).Error; err != nil {
			return err
		}
		return r.saveChildren(tx, order)
	})
}

// SaveWithLock guards the header with a version compare-and-swap, then
// upserts the children. Status races, double completes and concurrent
// material postings all surface here as concurrency conflicts.
func (r *GormWorkOrderRepository) SaveWithLock(ctx context.Context, order *workorder.WorkOrder) error {
	loaded := order.GetVersion()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&workorder.WorkOrder{}).
			Where("id = ? AND version = ?", order.ID, loaded).
			Updates(map[string]interface{}{
				"status":                order.Status,
				"completed_qty":         order.CompletedQty,
				"planned_material_cost": order.PlannedMaterialCost,
				"planned_labor_cost":    order.PlannedLaborCost,
				"planned_overhead_cost": order.PlannedOverheadCost,
				"released_at":           order.ReleasedAt,
				"started_at":            order.StartedAt,
				"completed_at":          order.CompletedAt,
				"version":               loaded + 1,
				"updated_at":            time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		order.IncrementVersion()
		return r.saveChildren(tx, order)
	})
}

func (r *GormWorkOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*workorder.WorkOrder, error) {
	var order workorder.WorkOrder
	err := r.db.WithContext(ctx).
		Preload("Materials").
		Preload("Operations", func(db *gorm.DB) *gorm.DB { return db.Order("sequence asc") }).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&order).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (r *GormWorkOrderRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*workorder.WorkOrder, error) {
	var order workorder.WorkOrder
	err := r.db.WithContext(ctx).
		Preload("Materials").
		Preload("Operations", func(db *gorm.DB) *gorm.DB { return db.Order("sequence asc") }).
		Where("tenant_id = ? AND order_number = ?", tenantID, orderNumber).
		First(&order).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (r *GormWorkOrderRepository) FindByFilter(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*workorder.WorkOrder], error) {
	query := r.db.WithContext(ctx).
		Model(&workorder.WorkOrder{}).
		Where("tenant_id = ?", tenantID)
	if v, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", v)
	}
	if v, ok := filter.Filters["product_id"]; ok {
		query = query.Where("product_id = ?", v)
	}
	return findPage[*workorder.WorkOrder](query, filter)
}

func (r *GormWorkOrderRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status workorder.WorkOrderStatus, filter shared.Filter) (shared.Paginated[*workorder.WorkOrder], error) {
	query := r.db.WithContext(ctx).
		Model(&workorder.WorkOrder{}).
		Where("tenant_id = ? AND status = ?", tenantID, status)
	return findPage[*workorder.WorkOrder](query, filter)
}

// GormBOMRepository reads and writes bill of material definitions
type GormBOMRepository struct {
	db *gorm.DB
}

// NewGormBOMRepository creates the repository
func NewGormBOMRepository(db *gorm.DB) *GormBOMRepository {
	return &GormBOMRepository{db: db}
}

func (r *GormBOMRepository) Save(ctx context.Context, bom *workorder.BillOfMaterial) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines").Save(bom).Error; err != nil {
			return err
		}
		return upsertLines(tx, bom.Lines)
	})
}

func (r *GormBOMRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*workorder.BillOfMaterial, error) {
	var bom workorder.BillOfMaterial
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&bom).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &bom, nil
}

func (r *GormBOMRepository) FindActiveByProduct(ctx context.Context, tenantID, productID uuid.UUID) (*workorder.BillOfMaterial, error) {
	var bom workorder.BillOfMaterial
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("tenant_id = ? AND product_id = ? AND status = ?", tenantID, productID, workorder.CatalogStatusActive).
		Order("updated_at desc").
		First(&bom).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &bom, nil
}

// GormRoutingRepository reads and writes routing definitions
type GormRoutingRepository struct {
	db *gorm.DB
}

// NewGormRoutingRepository creates the repository
func NewGormRoutingRepository(db *gorm.DB) *GormRoutingRepository {
	return &GormRoutingRepository{db: db}
}

func (r *GormRoutingRepository) Save(ctx context.Context, routing *workorder.Routing) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Steps").Save(routing).Error; err != nil {
			return err
		}
		return upsertLines(tx, routing.Steps)
	})
}

func (r *GormRoutingRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*workorder.Routing, error) {
	var routing workorder.Routing
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("sequence asc") }).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&routing).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &routing, nil
}

func (r *GormRoutingRepository) FindActiveByProduct(ctx context.Context, tenantID, productID uuid.UUID) (*workorder.Routing, error) {
	var routing workorder.Routing
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("sequence asc") }).
		Where("tenant_id = ? AND product_id = ? AND status = ?", tenantID, productID, workorder.CatalogStatusActive).
		Order("updated_at desc").
		First(&routing).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &routing, nil
}

// GormLaborRepository persists labor time entries. A partial unique index on
// open entries per operator backs the single-open-entry rule.
type GormLaborRepository struct {
	db *gorm.DB
}

// NewGormLaborRepository creates the repository
func NewGormLaborRepository(db *gorm.DB) *GormLaborRepository {
	return &GormLaborRepository{db: db}
}

func (r *GormLaborRepository) Save(ctx context.Context, entry *workorder.LaborTimeEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *GormLaborRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*workorder.LaborTimeEntry, error) {
	var entry workorder.LaborTimeEntry
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&entry).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &entry, nil
}

func (r *GormLaborRepository) FindOpenByOperator(ctx context.Context, tenantID, operatorID uuid.UUID) (*workorder.LaborTimeEntry, error) {
	var entry workorder.LaborTimeEntry
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND operator_id = ? AND clock_out IS NULL", tenantID, operatorID).
		First(&entry).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &entry, nil
}

func (r *GormLaborRepository) FindByOperation(ctx context.Context, tenantID, operationID uuid.UUID) ([]*workorder.LaborTimeEntry, error) {
	var entries []*workorder.LaborTimeEntry
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND operation_id = ?", tenantID, operationID).
		Order("clock_in asc").
		Find(&entries).Error
	return entries, err
}

func (r *GormLaborRepository) FindByWorkOrder(ctx context.Context, tenantID, workOrderID uuid.UUID) ([]*workorder.LaborTimeEntry, error) {
	var entries []*workorder.LaborTimeEntry
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND work_order_id = ?", tenantID, workOrderID).
		Order("clock_in asc").
		Find(&entries).Error
	return entries, err
}

func (r *GormLaborRepository) FindByFilter(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*workorder.LaborTimeEntry], error) {
	query := r.db.WithContext(ctx).
		Model(&workorder.LaborTimeEntry{}).
		Where("tenant_id = ?", tenantID)
	if v, ok := filter.Filters["operator_id"]; ok {
		query = query.Where("operator_id = ?", v)
	}
	return findPage[*workorder.LaborTimeEntry](query, filter)
}
