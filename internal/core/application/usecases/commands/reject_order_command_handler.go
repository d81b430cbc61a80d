package commands

import (
	"context"
	"time"

	"robodelivery/internal/core/application/notify"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
)

// RejectOrderCommandHandler lets the vendor decline a pending order with a
// reason. The customer is notified with that reason.
//
// Example:
//
//	cmd, _ := NewRejectOrderCommand(vendor, orderID, "out of stock")
//	rejected, err := handler.Handle(ctx, cmd)
type RejectOrderCommandHandler struct {
	uowFactory UoWFactory
	emitter    Emitter
	now        func() time.Time
}

// NewRejectOrderCommandHandler creates the handler.
func NewRejectOrderCommandHandler(uowFactory UoWFactory, emitter Emitter) RejectOrderCommandHandler {
	return RejectOrderCommandHandler{uowFactory: uowFactory, emitter: emitter, now: time.Now}
}

// Handle rejects the order. Only the owning vendor may reject, and only while the order is pending.
func (h RejectOrderCommandHandler) Handle(ctx context.Context, cmd RejectOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := requireRole(cmd.Principal(), "reject order", kernel.RoleVendor); err != nil {
		return nil, err
	}

	rejected, events, err := mutateOrder(ctx, h.uowFactory, cmd.OrderID(),
		func(o *order.Order) error {
			return requireOwningVendor(cmd.Principal(), o, "reject order")
		},
		func(_ UoW, o *order.Order) error {
			return o.Reject(cmd.Reason(), h.now())
		},
	)
	if err != nil {
		return nil, err
	}

	h.emitter.Emit(ctx, notify.OrderChange{Order: rejected, Events: events})
	return rejected, nil
}
