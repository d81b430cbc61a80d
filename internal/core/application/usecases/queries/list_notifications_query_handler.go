package queries

import (
	"context"

	"robodelivery/internal/core/ports"
)

// ListNotificationsQueryHandler reads a recipient's inbox.
type ListNotificationsQueryHandler struct {
	notifications ports.NotificationRepository
}

// NewListNotificationsQueryHandler creates the handler.
func NewListNotificationsQueryHandler(notifications ports.NotificationRepository) ListNotificationsQueryHandler {
	return ListNotificationsQueryHandler{notifications: notifications}
}

// Handle returns notifications newest first.
func (h ListNotificationsQueryHandler) Handle(
	ctx context.Context,
	query ListNotificationsQuery,
) ([]NotificationResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	found, err := h.notifications.ListByRecipient(ctx, query.Principal().ID, query.UnreadOnly(), query.Limit())
	if err != nil {
		return nil, err
	}

	resp := make([]NotificationResponse, 0, len(found))
	for _, n := range found {
		resp = append(resp, NewNotificationResponse(n))
	}
	return resp, nil
}
