package commands

import (
	"context"
	"time"

	"robodelivery/internal/core/application/notify"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
)

// CancelOrderCommandHandler lets the ordering customer cancel before a robot
// is assigned.
type CancelOrderCommandHandler struct {
	uowFactory UoWFactory
	emitter    Emitter
	now        func() time.Time
}

// NewCancelOrderCommandHandler creates the handler.
func NewCancelOrderCommandHandler(uowFactory UoWFactory, emitter Emitter) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{uowFactory: uowFactory, emitter: emitter, now: time.Now}
}

// Handle cancels the order and notifies its vendor. Orders past
// vendor_approved return errs.ErrInvalidTransition.
func (h CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := requireRole(cmd.Principal(), "cancel order", kernel.RoleCustomer); err != nil {
		return nil, err
	}

	cancelled, events, err := mutateOrder(ctx, h.uowFactory, cmd.OrderID(),
		func(o *order.Order) error {
			return requireOwningCustomer(cmd.Principal(), o, "cancel order")
		},
		func(_ UoW, o *order.Order) error {
			return o.Cancel(h.now())
		},
	)
	if err != nil {
		return nil, err
	}

	h.emitter.Emit(ctx, notify.OrderChange{Order: cancelled, Events: events})
	return cancelled, nil
}
