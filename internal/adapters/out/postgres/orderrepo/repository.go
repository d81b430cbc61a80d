package orderrepo

import (
	"context"
	"time"

	"robodelivery/internal/adapters/out/postgres/dbutil"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/ports"
	"robodelivery/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormOrderRepository implements ports.OrderRepository using GORM.
type GormOrderRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGormOrderRepository binds the repository to db, which may be a transaction.
// Every statement gets its own timeout deadline.
func NewGormOrderRepository(db *gorm.DB, timeout time.Duration) *GormOrderRepository {
	return &GormOrderRepository{db: db, timeout: timeout}
}

// Add inserts the order and its line items.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	ctx, cancel := dbutil.Bound(ctx, r.timeout)
	defer cancel()

	dto := fromDomain(aggregate)
	err := r.db.WithContext(ctx).Create(&dto).Error
	return dbutil.Translate(err, "order", aggregate.ID().String())
}

// Update writes the mutable columns only if the stored version still equals
// aggregate.Version(). A lost race yields a conflict; a missing row NOT_FOUND.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	ctx, cancel := dbutil.Bound(ctx, r.timeout)
	defer cancel()

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("id = ? AND version = ?", dto.ID, dto.Version).
		Updates(mutableColumns(dto))
	if result.Error != nil {
		return dbutil.Translate(result.Error, "order", aggregate.ID().String())
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&OrderDTO{}).Where("id = ?", dto.ID).Count(&count).Error; err != nil {
			return dbutil.Translate(err, "order", aggregate.ID().String())
		}
		if count == 0 {
			return errs.NewObjectNotFoundError("order", aggregate.ID().String())
		}
		return errs.NewConflictError("order", aggregate.ID().String())
	}

	aggregate.IncrementVersion()
	return nil
}

// Get retrieves an order with its line items.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := dbutil.Bound(ctx, r.timeout)
	defer cancel()

	var dto OrderDTO
	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		First(&dto, "id = ?", id.Bytes()).Error
	if err != nil {
		return nil, dbutil.Translate(err, "order", id.String())
	}

	return toDomain(dto)
}

// List returns orders matching filter, newest first unless filter.OldestFirst is set.
// Equal creation times resolve by id in both directions.
func (r *GormOrderRepository) List(ctx context.Context, filter ports.OrderFilter) ([]*order.Order, error) {
	ctx, cancel := dbutil.Bound(ctx, r.timeout)
	defer cancel()

	ordering := "created_at DESC, id"
	if filter.OldestFirst {
		ordering = "created_at ASC, id"
	}
	query := r.db.WithContext(ctx).Preload("Items", orderedItems).Order(ordering)
	if filter.CustomerID != "" {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.VendorID != "" {
		query = query.Where("vendor_id = ?", filter.VendorID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]int, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, int(s))
		}
		query = query.Where("status IN ?", statuses)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var dtos []OrderDTO
	if err := query.Find(&dtos).Error; err != nil {
		return nil, dbutil.Translate(err, "order", "list")
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, nil
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}
