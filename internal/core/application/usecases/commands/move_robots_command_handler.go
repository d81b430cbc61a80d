package commands

import (
	"context"
	"errors"
	"log/slog"

	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/core/ports"
	"robodelivery/internal/pkg/errs"
)

// MoveRobotsCommandHandler moves each busy robot toward the target of the order
// it carries: the vendor until pickup completes, then the customer. It only
// writes locations; status changes stay with the order actions.
type MoveRobotsCommandHandler struct {
	uowFactory UoWFactory
	registry   ports.RobotRegistry
	logger     *slog.Logger
}

// NewMoveRobotsCommandHandler creates the handler.
func NewMoveRobotsCommandHandler(uowFactory UoWFactory, registry ports.RobotRegistry, logger *slog.Logger) MoveRobotsCommandHandler {
	return MoveRobotsCommandHandler{
		uowFactory: uowFactory,
		registry:   registry,
		logger:     logger.With("component", "move_robots"),
	}
}

// Handle returns how many robots changed position.
func (h MoveRobotsCommandHandler) Handle(ctx context.Context, cmd MoveRobotsCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	robots, err := h.registry.List(ctx)
	if err != nil {
		return 0, err
	}

	orderRepo := h.uowFactory.Create().OrderRepository()

	moved := 0
	for _, r := range robots {
		if !r.Status().IsBusy() || r.AssignedOrder() == nil {
			continue
		}

		ok, moveErr := h.moveRobot(ctx, orderRepo, r, cmd)
		if moveErr != nil {
			h.logger.WarnContext(ctx, "failed to move robot", "robot_id", r.ID().String(), "error", moveErr)
			continue
		}
		if ok {
			moved++
		}
	}

	return moved, nil
}

func (h MoveRobotsCommandHandler) moveRobot(
	ctx context.Context,
	orderRepo ports.OrderRepository,
	r *robot.Robot,
	cmd MoveRobotsCommand,
) (bool, error) {
	o, err := orderRepo.Get(ctx, *r.AssignedOrder())
	if errors.Is(err, errs.ErrObjectNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	target, ok := o.Target()
	if !ok || r.Location().IsEqual(target) {
		return false, nil
	}

	stepKm := r.SpeedKmh() * cmd.Tick().Hours()
	next, err := r.Location().MoveToward(target, stepKm)
	if err != nil {
		return false, err
	}

	if err = h.registry.UpdateLocation(ctx, r.ID(), next); err != nil {
		return false, err
	}
	return true, nil
}
