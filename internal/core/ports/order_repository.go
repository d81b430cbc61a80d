package ports

import (
	"context"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
)

// OrderFilter narrows List. Zero fields do not filter.
type OrderFilter struct {
	CustomerID string
	VendorID   string
	Statuses   []order.Status
	Limit      int
	// OldestFirst orders by creation time ascending instead of newest first.
	OldestFirst bool
}

// OrderRepository persists order aggregates with their line items.
// Implementations obtained from a UnitOfWork join its transaction.
type OrderRepository interface {
	Add(ctx context.Context, aggregate *order.Order) error

	// Update writes the aggregate only if the stored version equals aggregate.Version(),
	// then increments the version. A stale aggregate yields errs.ErrConflict.
	Update(ctx context.Context, aggregate *order.Order) error

	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	List(ctx context.Context, filter OrderFilter) ([]*order.Order, error)
}
