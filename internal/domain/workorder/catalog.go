package workorder

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mes/backend/internal/domain/shared"
)

// CatalogStatus is the lifecycle of a bill of material or routing definition.
// Only active definitions may be used to release work orders.
type CatalogStatus string

const (
	CatalogStatusDraft    CatalogStatus = "DRAFT"
	CatalogStatusActive   CatalogStatus = "ACTIVE"
	CatalogStatusInactive CatalogStatus = "INACTIVE"
)

// BillOfMaterial lists the components needed to build one unit of a product
type BillOfMaterial struct {
	shared.TenantAggregateRoot
	ProductID uuid.UUID     `gorm:"type:uuid;not null;index"`
	Revision  string        `gorm:"type:varchar(20);not null"`
	Status    CatalogStatus `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	Lines     []BOMLine     `gorm:"foreignKey:BOMID"`
}

// BOMLine is one component requirement per unit of the parent product.
// ScrapPercent inflates the requirement to cover expected process loss.
type BOMLine struct {
	shared.BaseEntity
	BOMID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ComponentID    uuid.UUID       `gorm:"type:uuid;not null"`
	QuantityPer    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ScrapPercent   decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	UnitOfMeasure  string          `gorm:"type:varchar(20);not null"`
	StandardCost   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (BillOfMaterial) TableName() string {
	return "bills_of_material"
}

// TableName returns the table name for GORM
func (BOMLine) TableName() string {
	return "bom_lines"
}

// RequiredFor returns the component quantity needed for an order quantity,
// inflated by the scrap allowance.
func (l *BOMLine) RequiredFor(orderQty decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(l.ScrapPercent.Div(decimal.NewFromInt(100)))
	return l.QuantityPer.Mul(orderQty).Mul(factor)
}

// Routing defines the ordered operations needed to build a product
type Routing struct {
	shared.TenantAggregateRoot
	ProductID uuid.UUID     `gorm:"type:uuid;not null;index"`
	Revision  string        `gorm:"type:varchar(20);not null"`
	Status    CatalogStatus `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	Steps     []RoutingStep `gorm:"foreignKey:RoutingID"`
}

// RoutingStep is one operation in a routing. Run hours scale with the order
// quantity; setup hours are incurred once.
type RoutingStep struct {
	shared.BaseEntity
	RoutingID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Sequence        int             `gorm:"not null"`
	Name            string          `gorm:"type:varchar(128);not null"`
	WorkCenterID    uuid.UUID       `gorm:"type:uuid;not null"`
	SetupHours      decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0"`
	RunHoursPerUnit decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0"`
	LaborRate       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	OverheadRate    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (Routing) TableName() string {
	return "routings"
}

// TableName returns the table name for GORM
func (RoutingStep) TableName() string {
	return "routing_steps"
}

// BOMRepository reads bill of material definitions
type BOMRepository interface {
	Save(ctx context.Context, bom *BillOfMaterial) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*BillOfMaterial, error)
	// FindActiveByProduct returns the active revision for a product, or
	// shared.ErrNotFound when none is active.
	FindActiveByProduct(ctx context.Context, tenantID, productID uuid.UUID) (*BillOfMaterial, error)
}

// RoutingRepository reads routing definitions
type RoutingRepository interface {
	Save(ctx context.Context, routing *Routing) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Routing, error)
	FindActiveByProduct(ctx context.Context, tenantID, productID uuid.UUID) (*Routing, error)
}
