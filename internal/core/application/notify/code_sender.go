package notify

import (
	"context"
	"time"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/notification"
	"robodelivery/internal/core/domain/model/otp"
	"robodelivery/internal/core/ports"
)

// DeliveryCodeSystemCode tags system payloads that carry a delivery code.
const DeliveryCodeSystemCode = "delivery_code"

// TransportCodeSender pushes a delivery code straight to the customer's live
// channel. The message is never stored.
type TransportCodeSender struct {
	transport ports.NotificationTransport
	now       func() time.Time
}

// NewTransportCodeSender creates a sender. A nil transport drops codes silently.
func NewTransportCodeSender(transport ports.NotificationTransport) *TransportCodeSender {
	if transport == nil {
		transport = NoopTransport{}
	}
	return &TransportCodeSender{transport: transport, now: time.Now}
}

// SendCode publishes the plaintext code to recipientID together with its expiry.
func (s *TransportCodeSender) SendCode(
	ctx context.Context,
	recipientID, subjectID string,
	purpose otp.Purpose,
	code string,
	expiresAt time.Time,
) error {
	n, err := notification.NewNotification(kernel.NewUUID(), recipientID, "Your delivery code",
		"Share this code with nobody but the robot at your door.",
		notification.System{
			Code:    DeliveryCodeSystemCode,
			Message: code,
			Attrs: map[string]string{
				"order_id":   subjectID,
				"purpose":    string(purpose),
				"expires_at": expiresAt.UTC().Format(time.RFC3339),
			},
		}, s.now())
	if err != nil {
		return err
	}
	return s.transport.Publish(ctx, recipientID, n.Envelope())
}
