package commands

import (
	"context"
	"errors"
	"log/slog"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/ports"
	"robodelivery/internal/pkg/errs"
)

// AssignmentReport summarizes one pass over waiting orders.
type AssignmentReport struct {
	// Assigned orders moved to robot_assigned in this pass.
	Assigned int
	// Waiting orders found no robot with room for them and stay vendor_approved.
	Waiting int
	// Failed orders hit an unexpected error; they are logged and retried next pass.
	Failed int
}

// AssignPendingOrdersCommandHandler is the periodic sweep over vendor_approved
// orders. It hands each one to the single-order assigner, oldest first.
//
// Business rules:
//   - an order no robot can carry is counted as waiting and the sweep moves on,
//     so a heavy order never blocks lighter ones behind it
//   - the sweep stops early only when the fleet has no idle robot at all
//   - orders changed concurrently since the listing are skipped silently
type AssignPendingOrdersCommandHandler struct {
	uowFactory UoWFactory
	registry   ports.RobotRegistry
	assigner   robotAssigner
	logger     *slog.Logger
}

// NewAssignPendingOrdersCommandHandler creates the sweep.
//
// Parameters:
//   - uowFactory: used to list waiting orders
//   - registry: asked whether any robot is idle before giving up on a batch
//   - assigner: assigns one order, normally AssignRobotCommandHandler
//   - logger: base logger, tagged with component=assign_pending_orders
//
// Example:
//
//	pending := commands.NewAssignPendingOrdersCommandHandler(uowFactory, registry, assign, logger)
//	cmd, _ := commands.NewAssignPendingOrdersCommand(50)
//	report, err := pending.Handle(ctx, cmd)
func NewAssignPendingOrdersCommandHandler(
	uowFactory UoWFactory,
	registry ports.RobotRegistry,
	assigner robotAssigner,
	logger *slog.Logger,
) AssignPendingOrdersCommandHandler {
	return AssignPendingOrdersCommandHandler{
		uowFactory: uowFactory,
		registry:   registry,
		assigner:   assigner,
		logger:     logger.With("component", "assign_pending_orders"),
	}
}

// Handle runs one pass over at most cmd.Limit() waiting orders.
//
// Returns the pass report. The error is non-nil only when listing fails or ctx
// is done; per-order failures are counted in the report instead.
func (h AssignPendingOrdersCommandHandler) Handle(ctx context.Context, cmd AssignPendingOrdersCommand) (AssignmentReport, error) {
	if err := cmd.Validate(); err != nil {
		return AssignmentReport{}, err
	}

	waiting, err := h.uowFactory.Create().OrderRepository().List(ctx, ports.OrderFilter{
		Statuses:    []order.Status{order.VendorApproved},
		Limit:       cmd.Limit(),
		OldestFirst: true,
	})
	if err != nil {
		return AssignmentReport{}, err
	}

	var report AssignmentReport
	for i, o := range waiting {
		assignCmd, cmdErr := NewAssignRobotCommand(kernel.SystemPrincipal, o.ID())
		if cmdErr != nil {
			return report, cmdErr
		}

		_, err = h.assigner.Handle(ctx, assignCmd)
		switch {
		case err == nil:
			report.Assigned++
		case errors.Is(err, errs.ErrNoRobotAvailable):
			report.Waiting++
			if !h.anyIdle(ctx, o.VendorAddress().Location()) {
				report.Waiting += len(waiting) - i - 1
				return report, nil
			}
		case errors.Is(err, errs.ErrInvalidTransition), errors.Is(err, errs.ErrConflict):
			// Changed by someone else since it was listed.
		default:
			report.Failed++
			h.logger.ErrorContext(ctx, "failed to assign robot", "order_id", o.ID().String(), "error", err)
		}
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
	}

	return report, nil
}

// anyIdle reports whether some idle, charged robot exists anywhere in the
// fleet. An empty payload fits every robot, so only status and battery count.
// A registry error keeps the sweep going.
func (h AssignPendingOrdersCommandHandler) anyIdle(ctx context.Context, point kernel.Location) bool {
	_, err := h.registry.FindIdleNear(ctx, point, kernel.Payload{})
	if err == nil {
		return true
	}
	if !errors.Is(err, errs.ErrNoRobotAvailable) {
		h.logger.WarnContext(ctx, "failed to check for idle robots", "error", err)
		return true
	}
	return false
}
