package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"robodelivery/internal/core/application/notify"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/ports"
	"robodelivery/internal/pkg/errs"
)

// AssignRobotCommandHandler is the one place that moves an order into
// robot_assigned. Inside the order's unit of work it looks up the nearest
// eligible idle robot and claims it through the registry; the order write is
// conditional on the version read. If the order write or commit fails after a
// successful claim, the robot is released again.
//
// A lost claim fails with errs.ErrNoRobotAvailable at once: the order stays
// vendor_approved and the assignment job retries it on its next run.
type AssignRobotCommandHandler struct {
	uowFactory UoWFactory
	registry   ports.RobotRegistry
	emitter    Emitter
	metrics    claimRecorder
	logger     *slog.Logger
	now        func() time.Time
}

// NewAssignRobotCommandHandler creates the handler. metrics may be nil.
//
// Parameters:
//   - uowFactory: opens the order transaction
//   - registry: robot source of truth, claims run outside the order transaction
//   - emitter: receives the robot_assigned change after commit
//   - metrics: records won and lost claims
//   - logger: base logger, tagged with component=assign_robot
//
// Example:
//
//	assign := commands.NewAssignRobotCommandHandler(uowFactory, registry, dispatcher, meters, logger)
//	o, err := assign.Handle(ctx, cmd)
func NewAssignRobotCommandHandler(
	uowFactory UoWFactory,
	registry ports.RobotRegistry,
	emitter Emitter,
	metrics claimRecorder,
	logger *slog.Logger,
) AssignRobotCommandHandler {
	if metrics == nil {
		metrics = noopClaimRecorder{}
	}
	return AssignRobotCommandHandler{
		uowFactory: uowFactory,
		registry:   registry,
		emitter:    emitter,
		metrics:    metrics,
		logger:     logger.With("component", "assign_robot"),
		now:        time.Now,
	}
}

// Handle claims the nearest robot with free room for the order's weight and
// volume and moves the order to robot_assigned.
//
// Returns:
//   - the assigned order
//   - errs.ErrNoRobotAvailable when no robot qualifies or the claim was lost
//   - a TransitionError when the order is not vendor_approved
//   - a NotAuthorizedError for callers other than the owning vendor or a fleet admin
func (h AssignRobotCommandHandler) Handle(ctx context.Context, cmd AssignRobotCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := requireRole(cmd.Principal(), "assign robot", kernel.RoleVendor, kernel.RoleFleetAdmin); err != nil {
		return nil, err
	}

	var (
		assigned *order.Order
		eta      *time.Duration
	)

	err := retryOnConflict(ctx, func() error {
		var claimed *kernel.UUID

		err := inTx(ctx, h.uowFactory, func(uow UoW) error {
			orderRepo := uow.OrderRepository()

			o, err := orderRepo.Get(ctx, cmd.OrderID())
			if err != nil {
				return err
			}
			if err = requireOwningVendorOrFleetAdmin(cmd.Principal(), o, "assign robot"); err != nil {
				return err
			}
			if _, err = o.Status().AssignRobot(); err != nil {
				return err
			}

			pickup := o.VendorAddress().Location()
			candidate, err := h.registry.FindIdleNear(ctx, pickup, o.Size())
			if err != nil {
				return err
			}

			won, err := h.registry.Claim(ctx, candidate.ID(), o.ID(), o.Size())
			if err != nil {
				return err
			}
			h.metrics.RobotClaim(ctx, won)
			if !won {
				return fmt.Errorf("%w: robot %s was claimed concurrently", errs.ErrNoRobotAvailable, candidate.ID())
			}
			robotID := candidate.ID()
			claimed = &robotID

			if err = o.AssignRobot(robotID, h.now()); err != nil {
				return err
			}
			if err = orderRepo.Update(ctx, o); err != nil {
				return err
			}

			if d, etaErr := candidate.ETA(pickup); etaErr == nil {
				eta = &d
			}
			assigned = o
			return nil
		})
		if err != nil && claimed != nil {
			releaseRobot(ctx, h.registry, h.logger, *claimed, cmd.OrderID())
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "robot assigned",
		"order_id", assigned.ID().String(), "robot_id", assigned.Robot().String())
	h.emitter.Emit(ctx, notify.OrderChange{Order: assigned, Events: assigned.PullEvents(), ETA: eta})

	return assigned, nil
}
