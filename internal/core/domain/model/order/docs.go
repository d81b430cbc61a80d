// Package order provides the Order aggregate: what a customer bought from one
// vendor, where it goes, and where it is in the delivery lifecycle.
//
// The package includes:
//   - Order: the aggregate root with identity, line items, addresses and status
//   - LineItem: an immutable snapshot of catalog price and weight at creation
//   - Status: the lifecycle state machine
//   - Event: a recorded status change, drained after commit for notification
//
// Key business rules:
//   - total_amount is the sum of line totals, computed once and never recomputed
//   - status changes only through the transition methods
//   - robot_id is set exactly while the status is one of the robot_* states
//   - a pending delivery confirmation exists only while a robot carries the order
//   - delivered, vendor_rejected and cancelled are terminal
//   - every mutation bumps updated_at; the version guards concurrent writers
package order
