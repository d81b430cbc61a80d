package queries

import (
	"context"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/ports"
	"robodelivery/internal/pkg/errs"
)

// GetOrderQueryHandler reads one order for a principal allowed to see it.
type GetOrderQueryHandler struct {
	orders ports.OrderRepository
}

// NewGetOrderQueryHandler creates the handler.
func NewGetOrderQueryHandler(orders ports.OrderRepository) GetOrderQueryHandler {
	return GetOrderQueryHandler{orders: orders}
}

// Handle returns NOT_FOUND both for a missing order and for one the principal
// may not see.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (OrderResponse, error) {
	if err := query.Validate(); err != nil {
		return OrderResponse{}, err
	}

	o, err := h.orders.Get(ctx, query.OrderID())
	if err != nil {
		return OrderResponse{}, err
	}
	if !canSee(query.Principal(), o) {
		return OrderResponse{}, errs.NewObjectNotFoundError("order", query.OrderID().String())
	}

	return NewOrderResponse(o), nil
}

func canSee(p kernel.Principal, o *order.Order) bool {
	return p.IsFleetAdmin() ||
		p.Is(kernel.RoleCustomer, o.CustomerID()) ||
		p.Is(kernel.RoleVendor, o.VendorID())
}
