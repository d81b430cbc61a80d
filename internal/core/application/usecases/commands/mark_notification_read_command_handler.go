package commands

import (
	"context"

	"robodelivery/internal/core/domain/model/notification"
	"robodelivery/internal/core/ports"
	"robodelivery/internal/pkg/errs"
)

// MarkNotificationReadCommandHandler marks a recipient's notification as read.
type MarkNotificationReadCommandHandler struct {
	repo ports.NotificationRepository
}

// NewMarkNotificationReadCommandHandler creates the handler.
func NewMarkNotificationReadCommandHandler(repo ports.NotificationRepository) MarkNotificationReadCommandHandler {
	return MarkNotificationReadCommandHandler{repo: repo}
}

// Handle flips the read flag. Another principal's notification is reported as
// not found.
func (h MarkNotificationReadCommandHandler) Handle(ctx context.Context, cmd MarkNotificationReadCommand) (*notification.Notification, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	n, err := h.repo.Get(ctx, cmd.NotificationID())
	if err != nil {
		return nil, err
	}
	if n.RecipientID() != cmd.Principal().ID {
		return nil, errs.NewObjectNotFoundError("notification", cmd.NotificationID().String())
	}
	if n.IsRead() {
		return n, nil
	}

	n.MarkRead()
	if err = h.repo.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}
