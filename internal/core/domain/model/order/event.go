package order

import (
	"time"

	"robodelivery/internal/core/domain/model/kernel"
)

// Event records one status change of an order. Events are buffered on the
// aggregate and drained by the application layer after the write commits.
type Event struct {
	OrderID    kernel.UUID
	CustomerID string
	VendorID   string
	From       Status
	To         Status
	RobotID    *kernel.UUID
	Reason     string
	OccurredAt time.Time
}
