package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mes/backend/internal/domain/document"
	"github.com/mes/backend/internal/domain/shared"
)

// GormDocumentRepository persists movement documents with their lines
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates the repository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// upsertLines writes new and changed lines, soft deletes included
func upsertLines[T any](db *gorm.DB, lines []T) error {
	if len(lines) == 0 {
		return nil
	}
	return db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&lines).Error
}

func (r *GormDocumentRepository) Save(ctx context.Context, doc *document.MovementDocument) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines").Save(doc).Error; err != nil {
			return err
		}
		return upsertLines(tx, doc.Lines)
	})
}

// SaveWithLock guards the header with a version compare-and-swap, then
// upserts the lines. A draft edited concurrently or posted twice fails here
// with a concurrency conflict or leaves the loser seeing a non-draft status.
func (r *GormDocumentRepository) SaveWithLock(ctx context.Context, doc *document.MovementDocument) error {
	loaded := doc.GetVersion()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&document.MovementDocument{}).
			Where("id = ? AND version = ?", doc.ID, loaded).
			Updates(map[string]interface{}{
				"status":     doc.Status,
				"reference":  doc.Reference,
				"notes":      doc.Notes,
				"posted_at":  doc.PostedAt,
				"posted_by":  doc.PostedBy,
				"version":    loaded + 1,
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		doc.IncrementVersion()
		return upsertLines(tx, doc.Lines)
	})
}

func (r *GormDocumentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*document.MovementDocument, error) {
	var doc document.MovementDocument
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&doc).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &doc, nil
}

func (r *GormDocumentRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, documentNumber string) (*document.MovementDocument, error) {
	var doc document.MovementDocument
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("tenant_id = ? AND document_number = ?", tenantID, documentNumber).
		First(&doc).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &doc, nil
}

func (r *GormDocumentRepository) FindByFilter(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*document.MovementDocument], error) {
	query := r.db.WithContext(ctx).
		Model(&document.MovementDocument{}).
		Where("tenant_id = ?", tenantID)
	if v, ok := filter.Filters["type"]; ok {
		query = query.Where("type = ?", v)
	}
	if v, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", v)
	}
	return findPage[*document.MovementDocument](query, filter)
}

// GormCycleCountRepository persists cycle counts with their lines
type GormCycleCountRepository struct {
	db *gorm.DB
}

// NewGormCycleCountRepository creates the repository
func NewGormCycleCountRepository(db *gorm.DB) *GormCycleCountRepository {
	return &GormCycleCountRepository{db: db}
}

func (r *GormCycleCountRepository) Save(ctx context.Context, count *document.CycleCount) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines").Save(count).Error; err != nil {
			return err
		}
		return upsertLines(tx, count.Lines)
	})
}

func (r *GormCycleCountRepository) SaveWithLock(ctx context.Context, count *document.CycleCount) error {
	loaded := count.GetVersion()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&document.CycleCount{}).
			Where("id = ? AND version = ?", count.ID, loaded).
			Updates(map[string]interface{}{
				"status":       count.Status,
				"started_at":   count.StartedAt,
				"completed_at": count.CompletedAt,
				"posted_at":    count.PostedAt,
				"posted_by":    count.PostedBy,
				"version":      loaded + 1,
				"updated_at":   time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		count.IncrementVersion()
		return upsertLines(tx, count.Lines)
	})
}

func (r *GormCycleCountRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*document.CycleCount, error) {
	var count document.CycleCount
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&count).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &count, nil
}

func (r *GormCycleCountRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, countNumber string) (*document.CycleCount, error) {
	var count document.CycleCount
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("tenant_id = ? AND count_number = ?", tenantID, countNumber).
		First(&count).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &count, nil
}

func (r *GormCycleCountRepository) FindByFilter(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*document.CycleCount], error) {
	query := r.db.WithContext(ctx).
		Model(&document.CycleCount{}).
		Where("tenant_id = ?", tenantID)
	if v, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", v)
	}
	if v, ok := filter.Filters["location_id"]; ok {
		query = query.Where("location_id = ?", v)
	}
	return findPage[*document.CycleCount](query, filter)
}
