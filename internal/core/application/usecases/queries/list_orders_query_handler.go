package queries

import (
	"context"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/ports"
)

// ListOrdersQueryHandler lists orders scoped by the caller's role.
type ListOrdersQueryHandler struct {
	orders ports.OrderRepository
}

// NewListOrdersQueryHandler creates the handler.
func NewListOrdersQueryHandler(orders ports.OrderRepository) ListOrdersQueryHandler {
	return ListOrdersQueryHandler{orders: orders}
}

// Handle returns the visible orders, newest first.
func (h ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]OrderResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	filter := ports.OrderFilter{Statuses: query.Statuses(), Limit: query.Limit()}
	switch p := query.Principal(); p.Role {
	case kernel.RoleCustomer:
		filter.CustomerID = p.ID
	case kernel.RoleVendor:
		filter.VendorID = p.ID
	}

	found, err := h.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]OrderResponse, 0, len(found))
	for _, o := range found {
		resp = append(resp, NewOrderResponse(o))
	}
	return resp, nil
}
