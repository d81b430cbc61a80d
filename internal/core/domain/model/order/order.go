package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")

	// ErrNoConfirmationPending is returned when delivery is confirmed without an issued code.
	ErrNoConfirmationPending = errs.NewValueIsInvalidError("no delivery confirmation is pending")
)

// Order is the aggregate root for one customer purchase from one vendor.
//
// Order follows these invariants:
//   - identity, customer, vendor and both addresses are always set
//   - line items are non-empty and immutable; total is their sum
//   - robotID is non-nil exactly when status is robot_assigned, robot_picking_up or robot_delivering
//   - confirmationExpiresAt is set only while a robot carries the order
//   - a failed transition leaves every field unchanged
type Order struct {
	id         kernel.UUID
	customerID string
	vendorID   string

	items []LineItem
	total kernel.Money
	size  kernel.Payload

	vendorAddress   kernel.Address
	deliveryAddress kernel.Address

	status                Status
	robotID               *kernel.UUID
	confirmationExpiresAt *time.Time
	reason                string

	version   int64
	createdAt time.Time
	updatedAt time.Time

	events []Event

	isConstructed bool
}

// NewOrder creates a pending order. The total is computed here once.
//
// Parameters:
//   - id: order identifier
//   - customerID: principal id of the purchasing customer
//   - vendorID: principal id of the fulfilling vendor
//   - items: at least one line item snapshot
//   - vendorAddress: pickup point
//   - deliveryAddress: drop-off point
//   - now: creation time
//
// Example:
//
//	burger, _ := order.NewLineItem("burger", 1299, 1, 0.4, 1.5)
//	fries, _ := order.NewLineItem("fries", 899, 1, 0.2, 0.8)
//	o, err := order.NewOrder(kernel.NewUUID(), "cust-1", "vend-1",
//	    []order.LineItem{burger, fries}, vendorAddr, customerAddr, time.Now())
//	// o.Total().String() == "21.98"
func NewOrder(
	id kernel.UUID,
	customerID, vendorID string,
	items []LineItem,
	vendorAddress, deliveryAddress kernel.Address,
	now time.Time,
) (*Order, error) {
	o := &Order{
		status:        Pending,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setParties(customerID, vendorID),
		o.setItems(items),
		o.setAddresses(vendorAddress, deliveryAddress),
	); err != nil {
		return nil, err
	}

	o.record(Unknown, Pending, nil, now)
	return o, nil
}

// Snapshot carries the persisted state of an order into RestoreOrder.
type Snapshot struct {
	ID                    kernel.UUID
	CustomerID            string
	VendorID              string
	Items                 []LineItem
	TotalAmount           kernel.Money
	VendorAddress         kernel.Address
	DeliveryAddress       kernel.Address
	Status                Status
	RobotID               *kernel.UUID
	ConfirmationExpiresAt *time.Time
	Reason                string
	Version               int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// RestoreOrder rebuilds an order from storage and re-checks every invariant.
// No events are recorded.
func RestoreOrder(s Snapshot) (*Order, error) {
	o := &Order{
		reason:        s.Reason,
		version:       s.Version,
		createdAt:     s.CreatedAt,
		updatedAt:     s.UpdatedAt,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(s.ID),
		o.setParties(s.CustomerID, s.VendorID),
		o.setItems(s.Items),
		o.setAddresses(s.VendorAddress, s.DeliveryAddress),
		o.setStatus(s.Status, s.RobotID, s.ConfirmationExpiresAt),
	); err != nil {
		return nil, err
	}

	if o.total != s.TotalAmount {
		return nil, errs.NewValueIsInvalidErrorWithCause("totalAmount",
			fmt.Errorf("stored total %s does not match line items %s", s.TotalAmount, o.total))
	}
	if s.Version < 1 {
		return nil, errs.NewVersionIsInvalidErrorWithCause("version")
	}

	return o, nil
}

// Snapshot returns the persisted state of the order. Pending events are not part of it.
func (o *Order) Snapshot() Snapshot {
	return Snapshot{
		ID:                    o.id,
		CustomerID:            o.customerID,
		VendorID:              o.vendorID,
		Items:                 o.Items(),
		TotalAmount:           o.total,
		VendorAddress:         o.vendorAddress,
		DeliveryAddress:       o.deliveryAddress,
		Status:                o.status,
		RobotID:               o.Robot(),
		ConfirmationExpiresAt: o.ConfirmationExpiresAt(),
		Reason:                o.reason,
		Version:               o.version,
		CreatedAt:             o.createdAt,
		UpdatedAt:             o.updatedAt,
	}
}

// Validate ensures the Order instance was properly constructed.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}

	return nil
}

// IsEqual compares orders by identity.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the unique identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// CustomerID returns the ID of the customer who placed the order.
func (o *Order) CustomerID() string {
	return o.customerID
}

// VendorID returns the ID of the vendor fulfilling the order.
func (o *Order) VendorID() string {
	return o.vendorID
}

// Items returns a copy of the line items.
func (o *Order) Items() []LineItem {
	items := make([]LineItem, len(o.items))
	copy(items, o.items)
	return items
}

// Total returns the sum of the line totals.
func (o *Order) Total() kernel.Money {
	return o.total
}

// WeightKg is the total payload weight a robot must carry.
func (o *Order) WeightKg() float64 {
	return o.size.WeightKg()
}

// VolumeL is the total payload volume in litres.
func (o *Order) VolumeL() float64 {
	return o.size.VolumeL()
}

// Size is the payload a robot must have free room for to take this order.
func (o *Order) Size() kernel.Payload {
	return o.size
}

// VendorAddress returns the order's vendor address.
func (o *Order) VendorAddress() kernel.Address {
	return o.vendorAddress
}

// DeliveryAddress returns the order's delivery address.
func (o *Order) DeliveryAddress() kernel.Address {
	return o.deliveryAddress
}

// Status returns the order's status.
func (o *Order) Status() Status {
	return o.status
}

// Robot returns the carrying robot, nil outside the robot_* states.
func (o *Order) Robot() *kernel.UUID {
	if o.robotID == nil {
		return nil
	}
	id := *o.robotID
	return &id
}

// ConfirmationExpiresAt is non-nil while a delivery code is outstanding.
func (o *Order) ConfirmationExpiresAt() *time.Time {
	if o.confirmationExpiresAt == nil {
		return nil
	}
	t := *o.confirmationExpiresAt
	return &t
}

// Reason is the vendor rejection or abort reason, if any.
func (o *Order) Reason() string {
	return o.reason
}

// Version returns the optimistic locking version.
func (o *Order) Version() int64 {
	return o.version
}

// IncrementVersion is called by repositories after a conditional write succeeded.
func (o *Order) IncrementVersion() {
	o.version++
}

// CreatedAt returns the order's creation time.
func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

// UpdatedAt returns the time of the last change.
func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

// Target returns where the carrying robot should head in the current status:
// the vendor until pickup completes, then the customer.
func (o *Order) Target() (kernel.Location, bool) {
	switch o.status {
	case RobotAssigned, RobotPickingUp:
		return o.vendorAddress.Location(), true
	case RobotDelivering:
		return o.deliveryAddress.Location(), true
	default:
		return kernel.Location{}, false
	}
}

// PullEvents returns the events recorded since the last call and clears the buffer.
func (o *Order) PullEvents() []Event {
	events := o.events
	o.events = nil
	return events
}

// Approve moves a pending order to vendor_approved.
func (o *Order) Approve(now time.Time) error {
	next, err := o.status.Approve()
	if err != nil {
		return err
	}

	o.apply(next, now)
	return nil
}

// Reject moves a pending order to vendor_rejected.
func (o *Order) Reject(reason string, now time.Time) error {
	next, err := o.status.Reject()
	if err != nil {
		return err
	}

	o.reason = strings.TrimSpace(reason)
	o.apply(next, now)
	return nil
}

// Cancel is the customer cancellation from pending or vendor_approved.
func (o *Order) Cancel(now time.Time) error {
	next, err := o.status.Cancel()
	if err != nil {
		return err
	}

	o.apply(next, now)
	return nil
}

// AssignRobot records the robot that claimed this order.
//
// Returns an InvalidTransition error unless the order is vendor_approved.
func (o *Order) AssignRobot(robotID kernel.UUID, now time.Time) error {
	if err := robotID.Validate(); err != nil {
		return err
	}

	next, err := o.status.AssignRobot()
	if err != nil {
		return err
	}

	o.robotID = &robotID
	o.apply(next, now)
	return nil
}

// Advance moves a robot-carried order one step: robot_assigned to
// robot_picking_up, or robot_picking_up to robot_delivering.
func (o *Order) Advance(next Status, now time.Time) error {
	var (
		to  Status
		err error
	)

	switch next {
	case RobotPickingUp:
		to, err = o.status.StartPickup()
	case RobotDelivering:
		to, err = o.status.StartDelivery()
	default:
		return errs.NewTransitionError("order", "advance to "+next.String(), o.status)
	}
	if err != nil {
		return err
	}

	o.apply(to, now)
	return nil
}

// AwaitConfirmation records that a delivery code expiring at expiresAt was issued.
// Only valid while a robot carries the order.
func (o *Order) AwaitConfirmation(expiresAt, now time.Time) error {
	if o.status != RobotPickingUp && o.status != RobotDelivering {
		return errs.NewTransitionError("order", "await confirmation of", o.status)
	}
	if !expiresAt.After(now) {
		return errs.NewValueIsInvalidErrorWithCause("expiresAt", fmt.Errorf("%s is not after %s", expiresAt, now))
	}

	o.confirmationExpiresAt = &expiresAt
	o.updatedAt = now
	return nil
}

// IsAwaitingConfirmation reports whether a delivery code is outstanding.
func (o *Order) IsAwaitingConfirmation() bool {
	return o.confirmationExpiresAt != nil
}

// Deliver completes the order after the delivery code was verified.
// It returns the robot that must be released.
func (o *Order) Deliver(now time.Time) (kernel.UUID, error) {
	next, err := o.status.Deliver()
	if err != nil {
		return kernel.UUID{}, err
	}
	if o.confirmationExpiresAt == nil {
		return kernel.UUID{}, ErrNoConfirmationPending
	}

	robotID := *o.robotID
	o.apply(next, now)
	return robotID, nil
}

// Abort is the operational cancellation of a robot-carried order.
// It returns the robot that must be released.
func (o *Order) Abort(reason string, now time.Time) (kernel.UUID, error) {
	next, err := o.status.Abort()
	if err != nil {
		return kernel.UUID{}, err
	}

	robotID := *o.robotID
	o.reason = strings.TrimSpace(reason)
	o.apply(next, now)
	return robotID, nil
}

func (o *Order) apply(next Status, now time.Time) {
	from := o.status
	robotID := o.Robot()
	o.status = next
	if !next.HasRobot() {
		o.robotID = nil
		o.confirmationExpiresAt = nil
	}
	o.updatedAt = now
	o.record(from, next, robotID, now)
}

func (o *Order) record(from, to Status, robotID *kernel.UUID, now time.Time) {
	o.events = append(o.events, Event{
		OrderID:    o.id,
		CustomerID: o.customerID,
		VendorID:   o.vendorID,
		From:       from,
		To:         to,
		RobotID:    robotID,
		Reason:     o.reason,
		OccurredAt: now,
	})
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	o.id = id
	return nil
}

func (o *Order) setParties(customerID, vendorID string) error {
	var errList []error
	if strings.TrimSpace(customerID) == "" {
		errList = append(errList, errs.NewValueIsRequiredError("customerID"))
	}
	if strings.TrimSpace(vendorID) == "" {
		errList = append(errList, errs.NewValueIsRequiredError("vendorID"))
	}
	if err := errors.Join(errList...); err != nil {
		return err
	}

	o.customerID = customerID
	o.vendorID = vendorID
	return nil
}

func (o *Order) setItems(items []LineItem) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}

	var (
		total kernel.Money
		size  kernel.Payload
	)
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return errs.NewValueIsInvalidErrorWithCause(fmt.Sprintf("items[%d]", i), err)
		}
		total = total.Add(item.LineTotal())
		size = size.Add(item.Size())
	}

	o.items = make([]LineItem, len(items))
	copy(o.items, items)
	o.total = total
	o.size = size
	return nil
}

func (o *Order) setAddresses(vendorAddress, deliveryAddress kernel.Address) error {
	var errList []error
	if err := vendorAddress.Validate(); err != nil {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("vendorAddress", err))
	}
	if err := deliveryAddress.Validate(); err != nil {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("deliveryAddress", err))
	}
	if err := errors.Join(errList...); err != nil {
		return err
	}

	o.vendorAddress = vendorAddress
	o.deliveryAddress = deliveryAddress
	return nil
}

func (o *Order) setStatus(status Status, robotID *kernel.UUID, confirmationExpiresAt *time.Time) error {
	if err := status.Validate(); err != nil {
		return err
	}
	if err := status.ValidateCanHaveRobot(robotID != nil); err != nil {
		return err
	}
	if robotID != nil {
		if err := robotID.Validate(); err != nil {
			return err
		}
	}
	if confirmationExpiresAt != nil && status != RobotPickingUp && status != RobotDelivering {
		return errs.NewValueIsInvalidErrorWithCause("confirmationExpiresAt",
			fmt.Errorf("%s cannot await delivery confirmation", status))
	}

	o.status = status
	o.robotID = robotID
	o.confirmationExpiresAt = confirmationExpiresAt
	return nil
}
