package commands

import (
	"errors"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

// ErrUpdateRobotTelemetryCommandIsNotConstructed is returned when the command did not come from NewUpdateRobotTelemetryCommand.
var ErrUpdateRobotTelemetryCommandIsNotConstructed = errors.New(
	"UpdateRobotTelemetryCommand must be created via NewUpdateRobotTelemetryCommand constructor",
)

// UpdateRobotTelemetryCommand carries a location fix and, optionally, a battery
// reading from the movement feed. At least one must be present.
type UpdateRobotTelemetryCommand struct {
	principal kernel.Principal
	robotID   kernel.UUID
	location  *kernel.Location
	battery   *int

	guard guard.ConstructorGuard
}

// NewUpdateRobotTelemetryCommand creates a telemetry report. location and
// battery are optional but not both nil.
//
// Example:
//
//	battery := 64
//	cmd, err := NewUpdateRobotTelemetryCommand(admin, robotID, &fix, &battery)
func NewUpdateRobotTelemetryCommand(
	principal kernel.Principal,
	robotID kernel.UUID,
	location *kernel.Location,
	battery *int,
) (UpdateRobotTelemetryCommand, error) {
	if err := robotID.Validate(); err != nil {
		return UpdateRobotTelemetryCommand{}, err
	}
	if location == nil && battery == nil {
		return UpdateRobotTelemetryCommand{}, errs.NewValueIsRequiredError("location or battery")
	}
	if location != nil {
		if err := location.Validate(); err != nil {
			return UpdateRobotTelemetryCommand{}, err
		}
	}
	if battery != nil && (*battery < robot.MinBattery || *battery > robot.MaxBattery) {
		return UpdateRobotTelemetryCommand{}, errs.NewValueIsOutOfRangeError("battery", *battery, robot.MinBattery, robot.MaxBattery)
	}

	return UpdateRobotTelemetryCommand{
		principal: principal,
		robotID:   robotID,
		location:  location,
		battery:   battery,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c UpdateRobotTelemetryCommand) Validate() error {
	return c.guard.Validate(ErrUpdateRobotTelemetryCommandIsNotConstructed)
}

// Field accessors. Location and Battery are nil when not reported.
func (c UpdateRobotTelemetryCommand) Principal() kernel.Principal { return c.principal }
func (c UpdateRobotTelemetryCommand) RobotID() kernel.UUID        { return c.robotID }
func (c UpdateRobotTelemetryCommand) Location() *kernel.Location  { return c.location }
func (c UpdateRobotTelemetryCommand) Battery() *int               { return c.battery }
