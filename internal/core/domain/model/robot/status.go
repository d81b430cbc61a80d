package robot

import (
	"fmt"

	"robodelivery/internal/pkg/errs"
)

// Status is the operational state of a robot.
type Status int

const (
	Unknown Status = iota
	Idle
	Assigned
	PickingUp
	Delivering
	Maintenance
	Offline
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:     "unknown",
		Idle:        "idle",
		Assigned:    "assigned",
		PickingUp:   "picking_up",
		Delivering:  "delivering",
		Maintenance: "maintenance",
		Offline:     "offline",
	}
}

// ParseStatus converts a stored or requested status name.
func ParseStatus(s string) (Status, error) {
	for status, name := range getStatusStrings() {
		if name == s && status != Unknown {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid robot status", s))
}

// Validate rejects statuses outside the known set.
func (s Status) Validate() error {
	if s <= Unknown || s > Offline {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid robot status", s))
	}
	return nil
}

// String returns the wire name of the status.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsBusy reports whether the robot is bound to an order.
func (s Status) IsBusy() bool {
	return s == Assigned || s == PickingUp || s == Delivering
}

// Next returns the status that follows s on the way to the customer.
func (s Status) Next() (Status, error) {
	switch s {
	case Assigned:
		return PickingUp, nil
	case PickingUp:
		return Delivering, nil
	default:
		return Unknown, errs.NewTransitionError("robot", "advance", s)
	}
}
