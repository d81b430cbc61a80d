package ports

import (
	"context"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/notification"
)

// NotificationRepository stores notifications outside the order transaction.
// It backs both the inbox queries and the republish job.
type NotificationRepository interface {
	Add(ctx context.Context, n *notification.Notification) error

	// Update persists the read flag and publish bookkeeping.
	Update(ctx context.Context, n *notification.Notification) error

	Get(ctx context.Context, id kernel.UUID) (*notification.Notification, error)

	// ListByRecipient returns newest first.
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]*notification.Notification, error)

	// ListUnpublished returns records never published with fewer than maxAttempts tries, oldest first.
	ListUnpublished(ctx context.Context, maxAttempts, limit int) ([]*notification.Notification, error)
}
