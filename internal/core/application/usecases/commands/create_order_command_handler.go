package commands

import (
	"context"
	"log/slog"
	"time"

	"robodelivery/internal/core/application/notify"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
)

// CreateOrderCommandHandler persists a new pending order and tells the vendor.
type CreateOrderCommandHandler struct {
	uowFactory UoWFactory
	emitter    Emitter
	logger     *slog.Logger
	now        func() time.Time
}

// NewCreateOrderCommandHandler creates the handler.
func NewCreateOrderCommandHandler(uowFactory UoWFactory, emitter Emitter, logger *slog.Logger) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		emitter:    emitter,
		logger:     logger.With("component", "create_order"),
		now:        time.Now,
	}
}

// Handle validates the line items, stores the order as pending and returns it.
// Only customers may create orders.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := requireRole(cmd.Principal(), "create order", kernel.RoleCustomer); err != nil {
		return nil, err
	}

	created, err := order.NewOrder(
		cmd.OrderID(),
		cmd.Principal().ID,
		cmd.VendorID(),
		cmd.Items(),
		cmd.VendorAddress(),
		cmd.DeliveryAddress(),
		h.now(),
	)
	if err != nil {
		return nil, err
	}

	err = inTx(ctx, h.uowFactory, func(uow UoW) error {
		return uow.OrderRepository().Add(ctx, created)
	})
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "order created",
		"order_id", created.ID().String(), "vendor_id", created.VendorID(), "total", created.Total().String())
	h.emitter.Emit(ctx, notify.OrderChange{Order: created, Events: created.PullEvents()})

	return created, nil
}
