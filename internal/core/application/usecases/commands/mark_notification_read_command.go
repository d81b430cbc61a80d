package commands

import (
	"errors"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

// ErrMarkNotificationReadCommandIsNotConstructed is returned when the command did not come from NewMarkNotificationReadCommand.
var ErrMarkNotificationReadCommandIsNotConstructed = errors.New(
	"MarkNotificationReadCommand must be created via NewMarkNotificationReadCommand constructor",
)

// MarkNotificationReadCommand marks one of the caller's notifications as read.
type MarkNotificationReadCommand struct {
	principal      kernel.Principal
	notificationID kernel.UUID

	guard guard.ConstructorGuard
}

// NewMarkNotificationReadCommand creates the command. The principal must carry an id.
func NewMarkNotificationReadCommand(principal kernel.Principal, notificationID kernel.UUID) (MarkNotificationReadCommand, error) {
	if err := notificationID.Validate(); err != nil {
		return MarkNotificationReadCommand{}, err
	}
	if principal.ID == "" {
		return MarkNotificationReadCommand{}, errs.NewValueIsRequiredError("principal")
	}

	return MarkNotificationReadCommand{
		principal:      principal,
		notificationID: notificationID,
		guard:          guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c MarkNotificationReadCommand) Validate() error {
	return c.guard.Validate(ErrMarkNotificationReadCommandIsNotConstructed)
}

// Principal returns the recipient marking the notification.
func (c MarkNotificationReadCommand) Principal() kernel.Principal { return c.principal }
func (c MarkNotificationReadCommand) NotificationID() kernel.UUID { return c.notificationID }
