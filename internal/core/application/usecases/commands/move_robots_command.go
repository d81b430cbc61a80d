package commands

import (
	"errors"
	"time"

	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

// MoveRobotsCommand advances the simulated position of every busy robot by the
// distance it covers in one tick.
//
// Example:
//
//	cmd, _ := NewMoveRobotsCommand(time.Second)
//	handler := NewMoveRobotsCommandHandler(uowFactory, registry, logger)
//
//	// Run periodically to simulate robot movement
//	ticker := time.NewTicker(time.Second)
//	for range ticker.C {
//	    if _, err := handler.Handle(ctx, cmd); err != nil {
//	        log.Printf("Movement update failed: %v", err)
//	    }
//	}
type MoveRobotsCommand struct {
	tick time.Duration

	guard guard.ConstructorGuard
}

// ErrMoveRobotsCommandIsNotConstructed is returned when the command did not come from NewMoveRobotsCommand.
var ErrMoveRobotsCommandIsNotConstructed = errors.New(
	"MoveRobotsCommand must be created via NewMoveRobotsCommand constructor",
)

// NewMoveRobotsCommand creates a movement step covering tick of travel time. tick must be positive.
func NewMoveRobotsCommand(tick time.Duration) (MoveRobotsCommand, error) {
	if tick <= 0 {
		return MoveRobotsCommand{}, errs.NewValueIsOutOfRangeError("tick", tick, "exclusive 0", "unbounded")
	}

	return MoveRobotsCommand{
		tick:  tick,
		guard: guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c MoveRobotsCommand) Validate() error {
	return c.guard.Validate(ErrMoveRobotsCommandIsNotConstructed)
}

// Tick returns the simulated travel time per step.
func (c MoveRobotsCommand) Tick() time.Duration {
	return c.tick
}
