// Package notify turns committed order changes into notifications, stores them
// and pushes them to live transports without blocking the caller.
package notify

import (
	"errors"
	"fmt"
	"time"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/notification"
	"robodelivery/internal/core/domain/model/order"
)

// OrderChange is what a command hands over after its transaction commits.
type OrderChange struct {
	Order  *order.Order
	Events []order.Event

	// ETA is set when a robot was just assigned.
	ETA *time.Duration
}

// Compose maps each event to the notifications its parties should receive.
//
// A draft that fails validation is skipped. The rest are still returned and
// the failures come back joined in the error, one per skipped draft.
//
// Example:
//
//	ns, err := notify.Compose(notify.OrderChange{Order: o, Events: o.PullEvents()})
//	if err != nil {
//	    logger.Error("some notifications were skipped", "error", err)
//	}
//	// ns holds every notification that could be built
func Compose(change OrderChange) ([]*notification.Notification, error) {
	var (
		out     []*notification.Notification
		errList []error
	)
	for _, event := range change.Events {
		for _, d := range drafts(change, event) {
			n, err := notification.NewNotification(kernel.NewUUID(), d.recipient, d.title, d.message, d.payload, event.OccurredAt)
			if err != nil {
				errList = append(errList, fmt.Errorf("%s notification %q for order %s: %w",
					event.To, d.title, event.OrderID, err))
				continue
			}
			out = append(out, n)
		}
	}
	return out, errors.Join(errList...)
}

type draft struct {
	recipient string
	title     string
	message   string
	payload   notification.Payload
}

func drafts(change OrderChange, e order.Event) []draft {
	o := change.Order
	orderID := e.OrderID.String()

	customerUpdate := func(title, message string) draft {
		return draft{
			recipient: e.CustomerID,
			title:     title,
			message:   message,
			payload: notification.OrderUpdate{
				OrderID:        orderID,
				PreviousStatus: e.From.String(),
				Status:         e.To.String(),
				Reason:         e.Reason,
			},
		}
	}
	delivery := func(title, message string) draft {
		p := notification.DeliveryUpdate{OrderID: orderID, Status: e.To.String()}
		if e.RobotID != nil {
			p.RobotID = e.RobotID.String()
		}
		return draft{recipient: e.CustomerID, title: title, message: message, payload: p}
	}
	vendor := func(title, message string) draft {
		p := notification.VendorOrder{OrderID: orderID, CustomerID: e.CustomerID, Status: e.To.String()}
		if o != nil {
			p.TotalAmountCents = o.Total().Cents()
			p.ItemCount = len(o.Items())
		}
		if e.RobotID != nil {
			p.RobotID = e.RobotID.String()
		}
		return draft{recipient: e.VendorID, title: title, message: message, payload: p}
	}

	switch e.To {
	case order.Pending:
		return []draft{vendor("New order received", newOrderMessage(o))}
	case order.VendorApproved:
		return []draft{customerUpdate("Order approved", "The vendor accepted your order.")}
	case order.VendorRejected:
		return []draft{customerUpdate("Order rejected", rejectionMessage(e.Reason))}
	case order.Cancelled:
		if e.From.HasRobot() {
			return []draft{
				customerUpdate("Delivery aborted", rejectionMessage(e.Reason)),
				vendor("Delivery aborted", "The robot delivery was stopped. "+rejectionMessage(e.Reason)),
			}
		}
		return []draft{
			customerUpdate("Order cancelled", "Your order was cancelled."),
			vendor("Order cancelled by customer", "The customer cancelled the order before pickup."),
		}
	case order.RobotAssigned:
		d := delivery("Robot assigned", "A robot is heading to the vendor.")
		if change.ETA != nil {
			p := d.payload.(notification.DeliveryUpdate)
			seconds := int64(change.ETA.Seconds())
			p.ETASeconds = &seconds
			d.payload = p
		}
		return []draft{d, vendor("Robot assigned", "A robot is on its way to collect the order.")}
	case order.RobotPickingUp:
		return []draft{delivery("Robot at pickup", "The robot is picking up your order.")}
	case order.RobotDelivering:
		d := delivery("On the way", "Your order is on its way. Have your delivery code ready.")
		if o != nil && o.ConfirmationExpiresAt() != nil {
			p := d.payload.(notification.DeliveryUpdate)
			p.ConfirmationExpiresAt = o.ConfirmationExpiresAt()
			d.payload = p
		}
		return []draft{d}
	case order.Delivered:
		return []draft{
			delivery("Delivered", "Your order was delivered."),
			vendor("Order delivered", "The customer confirmed delivery."),
		}
	default:
		return nil
	}
}

func newOrderMessage(o *order.Order) string {
	if o == nil {
		return "A customer placed a new order."
	}
	items := "items"
	if len(o.Items()) == 1 {
		items = "item"
	}
	return fmt.Sprintf("A customer ordered %d %s for %s.", len(o.Items()), items, o.Total())
}

func rejectionMessage(reason string) string {
	if reason == "" {
		return "No reason was given."
	}
	return fmt.Sprintf("Reason: %s", reason)
}
