package commands

import (
	"errors"
	"strings"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/pkg/errs"
)

// ErrAbortOrderCommandIsNotConstructed is returned when the command did not come from NewAbortOrderCommand.
var ErrAbortOrderCommandIsNotConstructed = errors.New(
	"AbortOrderCommand must be created via NewAbortOrderCommand constructor",
)

// AbortOrderCommand is the operational cancellation of an order a robot is
// already working on.
type AbortOrderCommand struct {
	orderAction
	reason string
}

// NewAbortOrderCommand creates an abort request. The reason is required and is
// shown to the customer.
//
// Example:
//
//	cmd, err := NewAbortOrderCommand(admin, orderID, "robot fault")
//	if err != nil {
//	    return err
//	}
//	aborted, err := handler.Handle(ctx, cmd)
func NewAbortOrderCommand(principal kernel.Principal, orderID kernel.UUID, reason string) (AbortOrderCommand, error) {
	action, err := newOrderAction(principal, orderID)
	if err != nil {
		return AbortOrderCommand{}, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return AbortOrderCommand{}, errs.NewValueIsRequiredError("reason")
	}
	if len(reason) > maxReasonLength {
		return AbortOrderCommand{}, errs.NewValueIsOutOfRangeError("reason length", len(reason), 1, maxReasonLength)
	}

	return AbortOrderCommand{orderAction: action, reason: reason}, nil
}

// Validate ensures the command was created through the constructor.
func (c AbortOrderCommand) Validate() error {
	return c.guard.Validate(ErrAbortOrderCommandIsNotConstructed)
}

// Reason returns the trimmed abort reason.
func (c AbortOrderCommand) Reason() string {
	return c.reason
}
