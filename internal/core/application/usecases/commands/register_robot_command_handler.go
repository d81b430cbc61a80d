package commands

import (
	"context"
	"time"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/core/ports"
)

// RegisterRobotCommandHandler adds robots to the registry on behalf of fleet admins.
type RegisterRobotCommandHandler struct {
	registry        ports.RobotRegistry
	defaultSpeedKmh float64
	now             func() time.Time
}

// NewRegisterRobotCommandHandler creates the handler. defaultSpeedKmh is used
// for commands that leave the speed at zero.
//
// Example:
//
//	register := commands.NewRegisterRobotCommandHandler(registry, cfg.Fleet.DefaultSpeedKmh)
//	r, err := register.Handle(ctx, cmd)
func NewRegisterRobotCommandHandler(registry ports.RobotRegistry, defaultSpeedKmh float64) RegisterRobotCommandHandler {
	return RegisterRobotCommandHandler{registry: registry, defaultSpeedKmh: defaultSpeedKmh, now: time.Now}
}

// Handle builds an idle, empty robot and registers it.
//
// Returns:
//   - the registered robot
//   - a NotAuthorizedError for callers other than fleet admins
//   - aggregate validation errors or a ConflictError for a duplicate id
func (h RegisterRobotCommandHandler) Handle(ctx context.Context, cmd RegisterRobotCommand) (*robot.Robot, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := requireRole(cmd.Principal(), "register robot", kernel.RoleFleetAdmin); err != nil {
		return nil, err
	}

	speed := cmd.SpeedKmh()
	if speed == 0 {
		speed = h.defaultSpeedKmh
	}

	r, err := robot.NewRobot(cmd.RobotID(), cmd.Name(), cmd.Location(), cmd.Battery(), cmd.Capacity(), speed, h.now())
	if err != nil {
		return nil, err
	}
	if err = h.registry.Register(ctx, r); err != nil {
		return nil, err
	}

	return r, nil
}
