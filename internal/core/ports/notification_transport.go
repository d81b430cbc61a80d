package ports

import (
	"context"
	"time"

	"robodelivery/internal/core/domain/model/notification"
	"robodelivery/internal/core/domain/model/otp"
)

// NotificationTransport pushes a message to a recipient's live channel.
// Delivery is best effort.
type NotificationTransport interface {
	Publish(ctx context.Context, recipientID string, message notification.Envelope) error
}

// CodeSender delivers a one-time code plaintext out-of-band. Implementations
// must not persist the code.
type CodeSender interface {
	SendCode(ctx context.Context, recipientID, subjectID string, purpose otp.Purpose, code string, expiresAt time.Time) error
}
