package order

import (
	"fmt"

	"robodelivery/internal/pkg/errs"
)

// Status represents the lifecycle state of an order.
//
// State transitions:
//
//	pending ──approve──> vendor_approved ──assign──> robot_assigned ──pickup──> robot_picking_up
//	   │  └──reject──> vendor_rejected        │              │                       │
//	   └──cancel──┐                  ┌─cancel─┘              │                   depart
//	              v                  v                       │                       v
//	             cancelled <──────────────abort──────────────┴─────────────── robot_delivering
//	                                                                               │ confirm
//	                                                                               v
//	                                                                           delivered
//
// Every transition not drawn above fails with an InvalidTransition error.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	Unknown Status = iota

	// Pending is the initial status. The vendor has not decided yet.
	Pending

	// VendorApproved means the vendor accepted and the order waits for a robot.
	VendorApproved

	// VendorRejected is terminal.
	VendorRejected

	// RobotAssigned means a robot claimed the order and heads to the vendor.
	RobotAssigned

	// RobotPickingUp means the robot is at the vendor being loaded.
	RobotPickingUp

	// RobotDelivering means the robot left the vendor with the goods.
	RobotDelivering

	// Delivered is terminal and reachable only through OTP confirmation.
	Delivered

	// Cancelled is terminal. Reached by customer cancel or operational abort.
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:         "unknown",
		Pending:         "pending",
		VendorApproved:  "vendor_approved",
		VendorRejected:  "vendor_rejected",
		RobotAssigned:   "robot_assigned",
		RobotPickingUp:  "robot_picking_up",
		RobotDelivering: "robot_delivering",
		Delivered:       "delivered",
		Cancelled:       "cancelled",
	}
}

// ParseStatus converts the persisted or wire name back to a Status.
func ParseStatus(s string) (Status, error) {
	for status, name := range getStatusStrings() {
		if name == s && status != Unknown {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

// Validate checks if the Status value is one of the defined states.
func (s Status) Validate() error {
	if s <= Unknown || s > Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the snake_case name used in storage and on the wire.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == VendorRejected || s == Cancelled
}

// HasRobot reports whether an order in this status must reference a robot.
func (s Status) HasRobot() bool {
	return s == RobotAssigned || s == RobotPickingUp || s == RobotDelivering
}

// ValidateCanHaveRobot checks the robot_id invariant for this status.
func (s Status) ValidateCanHaveRobot(robot bool) error {
	if robot && !s.HasRobot() {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to have a robot", s.String()),
		)
	}

	if !robot && s.HasRobot() {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to have no robot", s.String()),
		)
	}

	return nil
}

// Approve: pending -> vendor_approved.
func (s Status) Approve() (Status, error) {
	return s.transition("approve", VendorApproved, Pending)
}

// Reject: pending -> vendor_rejected.
func (s Status) Reject() (Status, error) {
	return s.transition("reject", VendorRejected, Pending)
}

// Cancel is the customer cancellation: pending|vendor_approved -> cancelled.
// Once a robot is involved only Abort can cancel.
func (s Status) Cancel() (Status, error) {
	return s.transition("cancel", Cancelled, Pending, VendorApproved)
}

// AssignRobot: vendor_approved -> robot_assigned.
func (s Status) AssignRobot() (Status, error) {
	return s.transition("assign robot to", RobotAssigned, VendorApproved)
}

// StartPickup: robot_assigned -> robot_picking_up.
func (s Status) StartPickup() (Status, error) {
	return s.transition("start pickup of", RobotPickingUp, RobotAssigned)
}

// StartDelivery: robot_picking_up -> robot_delivering.
func (s Status) StartDelivery() (Status, error) {
	return s.transition("start delivery of", RobotDelivering, RobotPickingUp)
}

// Deliver: robot_delivering -> delivered.
func (s Status) Deliver() (Status, error) {
	return s.transition("deliver", Delivered, RobotDelivering)
}

// Abort is the operational cancellation: any robot_* state -> cancelled.
func (s Status) Abort() (Status, error) {
	return s.transition("abort", Cancelled, RobotAssigned, RobotPickingUp, RobotDelivering)
}

func (s Status) transition(action string, to Status, from ...Status) (Status, error) {
	for _, allowed := range from {
		if s == allowed {
			return to, nil
		}
	}
	return Unknown, errs.NewTransitionError("order", action, s)
}
