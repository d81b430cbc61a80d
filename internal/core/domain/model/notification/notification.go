package notification

import (
	"errors"
	"strings"
	"time"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

// ErrNotificationIsNotConstructed is returned when a Notification did not come from NewNotification or RestoreNotification.
var ErrNotificationIsNotConstructed = errors.New("Notification must be created via NewNotification constructor")

// Notification is a message for one recipient. The stored record and the
// transport publish are independent; publishedAt stays nil until a publish succeeds.
type Notification struct {
	id          kernel.UUID
	recipientID string
	title       string
	message     string
	payload     Payload
	read        bool
	createdAt   time.Time
	publishedAt *time.Time
	attempts    int
	guard       guard.ConstructorGuard
}

// NewNotification creates an unread, unpublished notification.
//
// Parameters:
//   - recipientID: the user the notification is for
//   - title, message: human readable text, both required
//   - payload: typed data; its Type becomes the notification type
//
// Example:
//
//	n, err := notification.NewNotification(kernel.NewUUID(), "customer-1",
//		"Order update", "Your order was approved.", notification.OrderUpdate{...}, time.Now())
func NewNotification(id kernel.UUID, recipientID, title, message string, payload Payload, now time.Time) (*Notification, error) {
	return RestoreNotification(Snapshot{
		ID:          id,
		RecipientID: recipientID,
		Title:       title,
		Message:     message,
		Payload:     payload,
		CreatedAt:   now,
	})
}

// Snapshot is the persisted state of a notification.
type Snapshot struct {
	ID          kernel.UUID
	RecipientID string
	Title       string
	Message     string
	Payload     Payload
	Read        bool
	CreatedAt   time.Time
	PublishedAt *time.Time
	Attempts    int
}

// RestoreNotification rebuilds a notification from storage and validates every field.
func RestoreNotification(s Snapshot) (*Notification, error) {
	var errList []error
	if err := s.ID.Validate(); err != nil {
		errList = append(errList, err)
	}
	if strings.TrimSpace(s.RecipientID) == "" {
		errList = append(errList, errs.NewValueIsRequiredError("recipientID"))
	}
	if strings.TrimSpace(s.Title) == "" {
		errList = append(errList, errs.NewValueIsRequiredError("title"))
	}
	if s.Payload == nil {
		errList = append(errList, errs.NewValueIsRequiredError("payload"))
	} else if err := s.Payload.Type().Validate(); err != nil {
		errList = append(errList, err)
	}
	if s.Attempts < 0 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("attempts", s.Attempts, 0, "unbounded"))
	}
	if err := errors.Join(errList...); err != nil {
		return nil, err
	}

	return &Notification{
		id:          s.ID,
		recipientID: s.RecipientID,
		title:       s.Title,
		message:     s.Message,
		payload:     s.Payload,
		read:        s.Read,
		createdAt:   s.CreatedAt,
		publishedAt: s.PublishedAt,
		attempts:    s.Attempts,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the notification was created through a constructor.
func (n *Notification) Validate() error {
	if n == nil {
		return ErrNotificationIsNotConstructed
	}
	return n.guard.Validate(ErrNotificationIsNotConstructed)
}

// ID returns the unique identifier.
func (n *Notification) ID() kernel.UUID {
	return n.id
}

// RecipientID returns the ID of the user the notification is for.
func (n *Notification) RecipientID() string {
	return n.recipientID
}

// Title returns the notification's title.
func (n *Notification) Title() string {
	return n.title
}

// Message returns the notification's message.
func (n *Notification) Message() string {
	return n.message
}

// Type is always the discriminator of the payload.
func (n *Notification) Type() Type {
	return n.payload.Type()
}

// Payload returns the notification's payload.
func (n *Notification) Payload() Payload {
	return n.payload
}

// IsRead reports whether the recipient marked the notification read.
func (n *Notification) IsRead() bool {
	return n.read
}

// CreatedAt returns the notification's creation time.
func (n *Notification) CreatedAt() time.Time {
	return n.createdAt
}

// PublishedAt returns the time of the last successful publish, or nil.
func (n *Notification) PublishedAt() *time.Time {
	return n.publishedAt
}

// PublishAttempts returns the number of failed transport attempts.
func (n *Notification) PublishAttempts() int {
	return n.attempts
}

// MarkRead is idempotent.
func (n *Notification) MarkRead() {
	n.read = true
}

// MarkPublished records a successful transport publish at now.
func (n *Notification) MarkPublished(now time.Time) {
	n.publishedAt = &now
	n.attempts++
}

// RecordPublishFailure counts a failed attempt. The republish job stops after a limit.
func (n *Notification) RecordPublishFailure() {
	n.attempts++
}

// Envelope is the wire form pushed to transports.
type Envelope struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient_id"`
	Type        Type      `json:"type"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Data        Payload   `json:"data"`
	CreatedAt   time.Time `json:"created_at"`
}

// Envelope returns the wire form of the notification.
func (n *Notification) Envelope() Envelope {
	return Envelope{
		ID:          n.id.String(),
		RecipientID: n.recipientID,
		Type:        n.Type(),
		Title:       n.title,
		Message:     n.message,
		Data:        n.payload,
		CreatedAt:   n.createdAt,
	}
}
