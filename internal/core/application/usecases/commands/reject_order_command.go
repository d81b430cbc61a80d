package commands

import (
	"errors"
	"strings"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/pkg/errs"
)

// ErrRejectOrderCommandIsNotConstructed is returned when the command did not come from NewRejectOrderCommand.
var ErrRejectOrderCommandIsNotConstructed = errors.New(
	"RejectOrderCommand must be created via NewRejectOrderCommand constructor",
)

const maxReasonLength = 500

// RejectOrderCommand is the vendor declining a pending order.
//
// Example:
//
//	cmd, _ := NewRejectOrderCommand(vendor, orderID, "out of stock")
//	rejected, err := handler.Handle(ctx, cmd)
type RejectOrderCommand struct {
	orderAction
	reason string
}

// NewRejectOrderCommand accepts an optional free-text reason.
func NewRejectOrderCommand(principal kernel.Principal, orderID kernel.UUID, reason string) (RejectOrderCommand, error) {
	action, err := newOrderAction(principal, orderID)
	if err != nil {
		return RejectOrderCommand{}, err
	}

	reason = strings.TrimSpace(reason)
	if len(reason) > maxReasonLength {
		return RejectOrderCommand{}, errs.NewValueIsOutOfRangeError("reason length", len(reason), 0, maxReasonLength)
	}

	return RejectOrderCommand{orderAction: action, reason: reason}, nil
}

// Validate ensures the command was created through the constructor.
func (c RejectOrderCommand) Validate() error {
	return c.guard.Validate(ErrRejectOrderCommandIsNotConstructed)
}

// Reason returns the trimmed reason, possibly empty.
func (c RejectOrderCommand) Reason() string {
	return c.reason
}
