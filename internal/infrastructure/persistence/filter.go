package persistence

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mes/backend/internal/domain/shared"
)

// allowedOrderColumns guards against ordering by arbitrary input
var allowedOrderColumns = map[string]bool{
	"created_at":       true,
	"updated_at":       true,
	"transaction_time": true,
	"scheduled_at":     true,
	"due_date":         true,
	"document_number":  true,
	"order_number":     true,
}

// normalize fills filter defaults
func normalize(f shared.Filter) shared.Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 500 {
		f.PageSize = 20
	}
	if !allowedOrderColumns[f.OrderBy] {
		f.OrderBy = "created_at"
	}
	if f.OrderDir != "asc" {
		f.OrderDir = "desc"
	}
	return f
}

// findPage runs a filtered, paginated query. The caller passes a query
// already scoped to the tenant and any extra conditions.
func findPage[T any](query *gorm.DB, filter shared.Filter) (shared.Paginated[T], error) {
	filter = normalize(filter)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return shared.Paginated[T]{}, err
	}

	var items []T
	err := query.Session(&gorm.Session{}).
		Order(fmt.Sprintf("%s %s", filter.OrderBy, filter.OrderDir)).
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&items).Error
	if err != nil {
		return shared.Paginated[T]{}, err
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// notFound maps gorm's record-not-found to the domain error
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}
