package commands

import (
	"context"
	"log/slog"
	"time"

	"robodelivery/internal/core/application/notify"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
)

type robotAssigner interface {
	Handle(ctx context.Context, cmd AssignRobotCommand) (*order.Order, error)
}

// ApproveOrderCommandHandler moves a pending order to vendor_approved on behalf
// of its vendor. When an assigner is configured it immediately tries to claim a
// robot as the system principal; a failed attempt leaves the order approved for
// the assignment job to retry.
type ApproveOrderCommandHandler struct {
	uowFactory UoWFactory
	emitter    Emitter
	assigner   robotAssigner
	logger     *slog.Logger
	now        func() time.Time
}

// NewApproveOrderCommandHandler creates the handler. assigner may be nil to
// disable assignment on approval.
func NewApproveOrderCommandHandler(
	uowFactory UoWFactory,
	emitter Emitter,
	assigner robotAssigner,
	logger *slog.Logger,
) ApproveOrderCommandHandler {
	return ApproveOrderCommandHandler{
		uowFactory: uowFactory,
		emitter:    emitter,
		assigner:   assigner,
		logger:     logger.With("component", "approve_order"),
		now:        time.Now,
	}
}

// Handle approves the order and returns it. The returned order is already
// robot_assigned when the follow-up assignment succeeded.
//
// Returns:
//   - errs.ErrForbidden when the caller is not the order's vendor
//   - errs.ErrInvalidTransition when the order is not pending
func (h ApproveOrderCommandHandler) Handle(ctx context.Context, cmd ApproveOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := requireRole(cmd.Principal(), "approve order", kernel.RoleVendor); err != nil {
		return nil, err
	}

	approved, events, err := mutateOrder(ctx, h.uowFactory, cmd.OrderID(),
		func(o *order.Order) error {
			return requireOwningVendor(cmd.Principal(), o, "approve order")
		},
		func(_ UoW, o *order.Order) error {
			return o.Approve(h.now())
		},
	)
	if err != nil {
		return nil, err
	}

	h.emitter.Emit(ctx, notify.OrderChange{Order: approved, Events: events})

	if h.assigner == nil {
		return approved, nil
	}

	assignCmd, err := NewAssignRobotCommand(kernel.SystemPrincipal, approved.ID())
	if err != nil {
		return approved, nil
	}
	assigned, err := h.assigner.Handle(ctx, assignCmd)
	if err != nil {
		h.logger.InfoContext(ctx, "robot assignment on approval deferred",
			"order_id", approved.ID().String(), "error", err)
		return approved, nil
	}

	return assigned, nil
}
