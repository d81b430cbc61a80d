package commands

import (
	"errors"
	"strings"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

// ErrRegisterRobotCommandIsNotConstructed is returned when the command did not come from NewRegisterRobotCommand.
var ErrRegisterRobotCommandIsNotConstructed = errors.New(
	"RegisterRobotCommand must be created via NewRegisterRobotCommand constructor",
)

// RegisterRobotCommand adds a robot to the fleet. A zero speed falls back to
// the fleet default.
type RegisterRobotCommand struct {
	principal kernel.Principal
	robotID   kernel.UUID
	name      string
	location  kernel.Location
	battery   int
	capacity  kernel.Payload
	speedKmh  float64

	guard guard.ConstructorGuard
}

// NewRegisterRobotCommand validates the request shape. Battery and capacity
// bounds are enforced by the robot aggregate.
//
// Parameters:
//   - principal: caller, must be a fleet admin when handled
//   - robotID: identifier of the new robot
//   - name: display name, required
//   - location: starting position
//   - battery: charge percentage
//   - capacity: maximum weight and volume the robot carries
//   - speedKmh: cruising speed, 0 for the fleet default
//
// Example:
//
//	capacity, _ := kernel.NewPayload(10, 40)
//	cmd, err := commands.NewRegisterRobotCommand(admin, kernel.NewUUID(), "R1", loc, 90, capacity, 0)
func NewRegisterRobotCommand(
	principal kernel.Principal,
	robotID kernel.UUID,
	name string,
	location kernel.Location,
	battery int,
	capacity kernel.Payload,
	speedKmh float64,
) (RegisterRobotCommand, error) {
	var errList []error
	if err := robotID.Validate(); err != nil {
		errList = append(errList, err)
	}
	if strings.TrimSpace(name) == "" {
		errList = append(errList, errs.NewValueIsRequiredError("name"))
	}
	if err := location.Validate(); err != nil {
		errList = append(errList, err)
	}
	if speedKmh < 0 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("speedKmh", speedKmh, 0, "unbounded"))
	}
	if err := errors.Join(errList...); err != nil {
		return RegisterRobotCommand{}, err
	}

	return RegisterRobotCommand{
		principal: principal,
		robotID:   robotID,
		name:      strings.TrimSpace(name),
		location:  location,
		battery:   battery,
		capacity:  capacity,
		speedKmh:  speedKmh,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c RegisterRobotCommand) Validate() error {
	return c.guard.Validate(ErrRegisterRobotCommandIsNotConstructed)
}

// Field accessors.
func (c RegisterRobotCommand) Principal() kernel.Principal { return c.principal }
func (c RegisterRobotCommand) RobotID() kernel.UUID        { return c.robotID }
func (c RegisterRobotCommand) Name() string                { return c.name }
func (c RegisterRobotCommand) Location() kernel.Location   { return c.location }
func (c RegisterRobotCommand) Battery() int                { return c.battery }
func (c RegisterRobotCommand) Capacity() kernel.Payload    { return c.capacity }
func (c RegisterRobotCommand) SpeedKmh() float64           { return c.speedKmh }
