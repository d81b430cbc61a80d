package jobs

import (
	"context"
	"log/slog"
	"time"

	"robodelivery/internal/core/application/usecases/commands"
)

type robotMover interface {
	Handle(ctx context.Context, cmd commands.MoveRobotsCommand) (int, error)
}

// RobotMovementJob simulates robot travel. Each run moves every busy robot by
// the distance it covers in tick.
type RobotMovementJob struct {
	handler robotMover
	tick    time.Duration
	logger  *slog.Logger
}

// NewRobotMovementJob creates the job. tick should match its schedule interval.
func NewRobotMovementJob(handler robotMover, tick time.Duration, logger *slog.Logger) *RobotMovementJob {
	return &RobotMovementJob{
		handler: handler,
		tick:    tick,
		logger:  logger.With("component", "robot_movement_job"),
	}
}

func (j *RobotMovementJob) Name() string { return "robot_movement" }

func (j *RobotMovementJob) Run(ctx context.Context) {
	cmd, err := commands.NewMoveRobotsCommand(j.tick)
	if err != nil {
		j.logger.ErrorContext(ctx, "invalid movement tick", "tick", j.tick, "error", err)
		return
	}

	moved, err := j.handler.Handle(ctx, cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "robot movement job failed", "error", err)
		return
	}
	j.logger.DebugContext(ctx, "robots moved", "count", moved)
}
