package ports

import (
	"context"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/robot"
)

// RobotRegistry is the single source of truth for robot availability.
// Implementations back it with the real fleet store or an in-memory simulation;
// the choice is made once at startup.
type RobotRegistry interface {
	// FindIdleNear returns the nearest idle robot with free room for need.
	// Ties are broken by lowest robot id. Returns errs.ErrNoRobotAvailable when none qualifies.
	// An empty need matches any idle, charged robot.
	FindIdleNear(ctx context.Context, point kernel.Location, need kernel.Payload) (*robot.Robot, error)

	// Claim atomically moves robotID from idle to assigned for orderID and puts
	// load on board. It returns false when the robot is no longer idle or the
	// load no longer fits. Exactly one of several concurrent claims on the same
	// robot returns true.
	Claim(ctx context.Context, robotID, orderID kernel.UUID, load kernel.Payload) (bool, error)

	// Advance moves a robot bound to orderID to next (picking_up, then delivering).
	// Repeating an already applied step is a no-op.
	Advance(ctx context.Context, robotID, orderID kernel.UUID, next robot.Status) error

	// Release returns the robot to idle and empties it if it is still bound to orderID.
	Release(ctx context.Context, robotID, orderID kernel.UUID) error

	UpdateLocation(ctx context.Context, robotID kernel.UUID, location kernel.Location) error

	UpdateBattery(ctx context.Context, robotID kernel.UUID, battery int) error

	SetAvailability(ctx context.Context, robotID kernel.UUID, status robot.Status) error

	Register(ctx context.Context, aggregate *robot.Robot) error

	Get(ctx context.Context, robotID kernel.UUID) (*robot.Robot, error)

	List(ctx context.Context) ([]*robot.Robot, error)
}
