package jobs

import (
	"context"
	"errors"
	"log/slog"

	"robodelivery/internal/core/application/usecases/commands"
	"robodelivery/internal/pkg/errs"
)

type pendingOrdersAssigner interface {
	Handle(ctx context.Context, cmd commands.AssignPendingOrdersCommand) (commands.AssignmentReport, error)
}

// RobotAssignmentJob retries robot assignment for approved orders that are
// still waiting for a robot.
type RobotAssignmentJob struct {
	handler pendingOrdersAssigner
	batch   int
	logger  *slog.Logger
}

// NewRobotAssignmentJob sweeps at most batch orders per run.
func NewRobotAssignmentJob(handler pendingOrdersAssigner, batch int, logger *slog.Logger) *RobotAssignmentJob {
	return &RobotAssignmentJob{
		handler: handler,
		batch:   batch,
		logger:  logger.With("component", "robot_assignment_job"),
	}
}

func (j *RobotAssignmentJob) Name() string { return "robot_assignment" }

// Run logs the sweep report. Errors never stop the schedule.
func (j *RobotAssignmentJob) Run(ctx context.Context) {
	cmd, err := commands.NewAssignPendingOrdersCommand(j.batch)
	if err != nil {
		j.logger.ErrorContext(ctx, "invalid assignment batch", "error", err)
		return
	}

	report, err := j.handler.Handle(ctx, cmd)
	if err != nil {
		if !errors.Is(err, errs.ErrNoRobotAvailable) {
			j.logger.ErrorContext(ctx, "robot assignment job failed", "error", err)
		}
		return
	}

	if report.Assigned > 0 || report.Failed > 0 {
		j.logger.InfoContext(ctx, "robot assignment pass finished",
			"assigned", report.Assigned, "waiting", report.Waiting, "failed", report.Failed)
	}
}
