package ports

import (
	"context"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/robot"
)

// RobotRepository persists robot aggregates. Dispatch goes through RobotRegistry.
type RobotRepository interface {
	Add(ctx context.Context, aggregate *robot.Robot) error

	// Update is conditional on aggregate.Version() like OrderRepository.Update.
	Update(ctx context.Context, aggregate *robot.Robot) error

	Get(ctx context.Context, id kernel.UUID) (*robot.Robot, error)

	List(ctx context.Context) ([]*robot.Robot, error)

	ListIdle(ctx context.Context) ([]*robot.Robot, error)
}
