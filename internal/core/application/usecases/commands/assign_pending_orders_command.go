package commands

import (
	"errors"

	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

// ErrAssignPendingOrdersCommandIsNotConstructed is returned when the command did not come from NewAssignPendingOrdersCommand.
var ErrAssignPendingOrdersCommandIsNotConstructed = errors.New(
	"AssignPendingOrdersCommand must be created via NewAssignPendingOrdersCommand constructor",
)

// AssignPendingOrdersCommand retries robot assignment for approved orders that
// are still waiting, oldest first, up to limit orders per run.
type AssignPendingOrdersCommand struct {
	limit int

	guard guard.ConstructorGuard
}

// NewAssignPendingOrdersCommand creates a sweep over at most limit orders. limit must be positive.
func NewAssignPendingOrdersCommand(limit int) (AssignPendingOrdersCommand, error) {
	if limit <= 0 {
		return AssignPendingOrdersCommand{}, errs.NewValueIsOutOfRangeError("limit", limit, 1, "unbounded")
	}

	return AssignPendingOrdersCommand{limit: limit, guard: guard.NewConstructorGuard()}, nil
}

// Validate ensures the command was created through the constructor.
func (c AssignPendingOrdersCommand) Validate() error {
	return c.guard.Validate(ErrAssignPendingOrdersCommandIsNotConstructed)
}

// Limit returns the batch size.
func (c AssignPendingOrdersCommand) Limit() int {
	return c.limit
}
