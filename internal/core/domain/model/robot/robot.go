package robot

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

const (
	// MinBattery is the lowest valid charge percentage.
	MinBattery = 0
	// MaxBattery is a fully charged robot.
	MaxBattery = 100
)

// Domain errors for robot operations.
var (
	// ErrNameIsRequired is returned when a robot is registered without a display name.
	ErrNameIsRequired = errs.NewValueIsRequiredError("name")
	// ErrRobotIsNotConstructed is returned when using a Robot that did not come from NewRobot or RestoreRobot.
	ErrRobotIsNotConstructed = errors.New("Robot must be created via NewRobot constructor")
)

// Robot is the aggregate root for a single fleet robot.
//
// Key responsibilities:
//   - Tracking position, charge and cruising speed
//   - Holding the capacity envelope and the payload currently on board
//   - Moving through assigned -> picking_up -> delivering for exactly one order
//   - Switching between idle, maintenance and offline while unassigned
//
// Business rules:
//   - assignedOrderID is set exactly when the status is assigned, picking_up or delivering
//   - the load on board never exceeds capacity and is empty while the robot is unassigned
//   - a rejected operation leaves every field unchanged
//
// Example usage:
//
//	capacity := kernel.MustNewPayload(10, 40)
//	r, err := robot.NewRobot(kernel.NewUUID(), "R1", kernel.MustNewLocation(40.75, -73.99), 90, capacity, 6, time.Now())
//	if err != nil {
//	    // handle validation error
//	}
//	if r.IsAvailable(o.Size(), 20) {
//	    _ = r.Claim(o.ID(), o.Size(), time.Now())
//	}
type Robot struct {
	// id uniquely identifies the robot across the fleet
	id kernel.UUID
	// name is the operator-facing label
	name string
	// status is the operational state
	status Status
	// location is the last reported position
	location kernel.Location

	// battery is the charge percentage in [0, 100]
	battery int
	// capacity is the most the robot can carry at once
	capacity kernel.Payload
	// load is what the robot carries for its current order
	load kernel.Payload
	// speedKmh is used for movement simulation and ETA estimates
	speedKmh float64

	// assignedOrderID is the order the robot currently serves
	assignedOrderID *kernel.UUID

	version   int64
	updatedAt time.Time

	guard guard.ConstructorGuard
}

// NewRobot registers an idle, empty robot.
//
// Parameters:
//   - id: robot identifier
//   - name: display name, required
//   - location: current position
//   - battery: charge percentage in [0, 100]
//   - capacity: maximum payload, positive on both weight and volume
//   - speedKmh: cruising speed, positive
//   - now: registration time
//
// Returns every validation failure joined into one error.
func NewRobot(
	id kernel.UUID,
	name string,
	location kernel.Location,
	battery int,
	capacity kernel.Payload,
	speedKmh float64,
	now time.Time,
) (*Robot, error) {
	r := &Robot{
		status:    Idle,
		version:   1,
		updatedAt: now,
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		r.setID(id),
		r.setName(name),
		r.setLocation(location),
		r.setBattery(battery),
		r.setCapacity(capacity),
		r.setSpeed(speedKmh),
	); err != nil {
		return nil, err
	}

	return r, nil
}

// Snapshot carries the persisted state of a robot into RestoreRobot.
type Snapshot struct {
	ID              kernel.UUID
	Name            string
	Status          Status
	Location        kernel.Location
	Battery         int
	Capacity        kernel.Payload
	Load            kernel.Payload
	SpeedKmh        float64
	AssignedOrderID *kernel.UUID
	Version         int64
	UpdatedAt       time.Time
}

// RestoreRobot rebuilds a robot from storage. It applies the same validation
// as NewRobot plus the status/assignment and load/capacity invariants, so a
// corrupt row surfaces as an error instead of an inconsistent aggregate.
func RestoreRobot(s Snapshot) (*Robot, error) {
	r := &Robot{
		version:   s.Version,
		updatedAt: s.UpdatedAt,
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		r.setID(s.ID),
		r.setName(s.Name),
		r.setLocation(s.Location),
		r.setBattery(s.Battery),
		r.setCapacity(s.Capacity),
		r.setSpeed(s.SpeedKmh),
		r.setAssignment(s.Status, s.AssignedOrderID),
	); err != nil {
		return nil, err
	}
	if err := r.setLoad(s.Load); err != nil {
		return nil, err
	}

	return r, nil
}

// Snapshot returns the current state, used by in-memory registries to copy robots.
func (r *Robot) Snapshot() Snapshot {
	return Snapshot{
		ID:              r.id,
		Name:            r.name,
		Status:          r.status,
		Location:        r.location,
		Battery:         r.battery,
		Capacity:        r.capacity,
		Load:            r.load,
		SpeedKmh:        r.speedKmh,
		AssignedOrderID: r.AssignedOrder(),
		Version:         r.version,
		UpdatedAt:       r.updatedAt,
	}
}

// IsEqual compares robots by identity.
func (r *Robot) IsEqual(other *Robot) bool {
	if other == nil {
		return false
	}
	return r.id.IsEqual(other.id)
}

// Validate returns ErrRobotIsNotConstructed for nil or zero-value robots.
func (r *Robot) Validate() error {
	if r == nil {
		return ErrRobotIsNotConstructed
	}
	return r.guard.Validate(ErrRobotIsNotConstructed)
}

// ID returns the unique identifier.
func (r *Robot) ID() kernel.UUID {
	return r.id
}

// Name returns the robot's name.
func (r *Robot) Name() string {
	return r.name
}

// Status returns the robot's status.
func (r *Robot) Status() Status {
	return r.status
}

// Location returns the robot's location.
func (r *Robot) Location() kernel.Location {
	return r.location
}

// Battery returns the battery charge in percent.
func (r *Robot) Battery() int {
	return r.battery
}

// Capacity is the most the robot can carry at once.
func (r *Robot) Capacity() kernel.Payload {
	return r.capacity
}

// Load is the payload on board for the current order; empty while unassigned.
func (r *Robot) Load() kernel.Payload {
	return r.load
}

// FreeCapacity is capacity minus load.
func (r *Robot) FreeCapacity() kernel.Payload {
	return r.capacity.Sub(r.load)
}

// SpeedKmh returns the cruise speed in km/h.
func (r *Robot) SpeedKmh() float64 {
	return r.speedKmh
}

// AssignedOrder returns a copy of the order id the robot serves, or nil.
func (r *Robot) AssignedOrder() *kernel.UUID {
	if r.assignedOrderID == nil {
		return nil
	}
	id := *r.assignedOrderID
	return &id
}

// Version returns the optimistic locking version.
func (r *Robot) Version() int64 {
	return r.version
}

// IncrementVersion is called by stores after a successful conditional write.
func (r *Robot) IncrementVersion() {
	r.version++
}

// UpdatedAt returns the time of the last change.
func (r *Robot) UpdatedAt() time.Time {
	return r.updatedAt
}

// IsAvailable reports whether the robot can be claimed for an order of the
// given size: it must be idle, charged to at least minBattery and have free
// room for the payload on both weight and volume.
func (r *Robot) IsAvailable(need kernel.Payload, minBattery int) bool {
	return r.status == Idle && r.battery >= minBattery && need.FitsIn(r.FreeCapacity())
}

// ETA estimates travel time to target at the robot's speed.
//
// Example:
//
//	eta, _ := r.ETA(o.VendorAddress().Location())
//	// eta is rounded to whole seconds
func (r *Robot) ETA(target kernel.Location) (time.Duration, error) {
	distance, err := r.location.DistanceKm(target)
	if err != nil {
		return 0, err
	}
	hours := distance / r.speedKmh
	return time.Duration(hours * float64(time.Hour)).Round(time.Second), nil
}

// Claim binds an idle robot to orderID and puts load on board.
//
// Returns a ConflictError if the robot is not idle, so callers can treat a lost
// race the same way as a stale read, and a ValueIsOutOfRangeError when load does
// not fit in the free capacity.
func (r *Robot) Claim(orderID kernel.UUID, load kernel.Payload, now time.Time) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	if r.status != Idle {
		return errs.NewConflictErrorWithCause("robot", r.id.String(),
			fmt.Errorf("robot is %s", r.status))
	}
	if free := r.FreeCapacity(); !load.FitsIn(free) {
		return errs.NewValueIsOutOfRangeError("load", load.String(), "empty", free.String())
	}

	r.status = Assigned
	r.assignedOrderID = &orderID
	r.load = r.load.Add(load)
	r.updatedAt = now
	return nil
}

// Advance moves the robot to next, which must directly follow the current status.
//
// Example:
//
//	_ = r.Advance(robot.PickingUp, now)  // from assigned
//	_ = r.Advance(robot.Delivering, now) // from picking_up
func (r *Robot) Advance(next Status, now time.Time) error {
	expected, err := r.status.Next()
	if err != nil {
		return err
	}
	if next != expected {
		return errs.NewTransitionError("robot", "advance to "+next.String()+" a", r.status)
	}

	r.status = next
	r.updatedAt = now
	return nil
}

// Release returns the robot to idle and empties it. It is conditional on the
// robot still carrying orderID; releasing an already idle robot is a no-op.
func (r *Robot) Release(orderID kernel.UUID, now time.Time) error {
	if r.status == Idle && r.assignedOrderID == nil {
		return nil
	}
	if r.assignedOrderID == nil || !r.assignedOrderID.IsEqual(orderID) {
		return errs.NewConflictErrorWithCause("robot", r.id.String(),
			fmt.Errorf("robot is not assigned to order %s", orderID))
	}

	r.status = Idle
	r.assignedOrderID = nil
	r.load = kernel.Payload{}
	r.updatedAt = now
	return nil
}

// SetAvailability switches an unassigned robot between idle, maintenance and offline.
func (r *Robot) SetAvailability(status Status, now time.Time) error {
	if status != Idle && status != Maintenance && status != Offline {
		return errs.NewValueIsInvalidErrorWithCause("status",
			fmt.Errorf("%s is not an availability status", status))
	}
	if r.status.IsBusy() {
		return errs.NewTransitionError("robot", "set "+status.String()+" on", r.status)
	}

	r.status = status
	r.updatedAt = now
	return nil
}

// UpdateLocation records a position report. It is independent of the status
// machine and accepted in every state.
func (r *Robot) UpdateLocation(location kernel.Location, now time.Time) error {
	if err := r.setLocation(location); err != nil {
		return err
	}
	r.updatedAt = now
	return nil
}

// UpdateBattery records a charge report in [0, 100].
func (r *Robot) UpdateBattery(battery int, now time.Time) error {
	if err := r.setBattery(battery); err != nil {
		return err
	}
	r.updatedAt = now
	return nil
}

func (r *Robot) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	r.id = id
	return nil
}

func (r *Robot) setName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameIsRequired
	}
	r.name = name
	return nil
}

func (r *Robot) setLocation(location kernel.Location) error {
	if err := location.Validate(); err != nil {
		return err
	}
	r.location = location
	return nil
}

func (r *Robot) setBattery(battery int) error {
	if battery < MinBattery || battery > MaxBattery {
		return errs.NewValueIsOutOfRangeError("battery", battery, MinBattery, MaxBattery)
	}
	r.battery = battery
	return nil
}

func (r *Robot) setCapacity(capacity kernel.Payload) error {
	var errList []error
	if capacity.WeightKg() <= 0 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("capacityKg", capacity.WeightKg(), "exclusive 0", "unbounded"))
	}
	if capacity.VolumeL() <= 0 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("capacityL", capacity.VolumeL(), "exclusive 0", "unbounded"))
	}
	if err := errors.Join(errList...); err != nil {
		return err
	}
	r.capacity = capacity
	return nil
}

// setLoad runs after setCapacity and setAssignment.
func (r *Robot) setLoad(load kernel.Payload) error {
	if !r.status.IsBusy() && !load.IsZero() {
		return errs.NewValueIsInvalidErrorWithCause("load",
			fmt.Errorf("robot in status %s carries %s", r.status, load))
	}
	if !load.FitsIn(r.capacity) {
		return errs.NewValueIsOutOfRangeError("load", load.String(), "empty", r.capacity.String())
	}
	r.load = load
	return nil
}

func (r *Robot) setSpeed(speedKmh float64) error {
	if math.IsNaN(speedKmh) || speedKmh <= 0 {
		return errs.NewValueIsOutOfRangeError("speedKmh", speedKmh, "exclusive 0", "unbounded")
	}
	r.speedKmh = speedKmh
	return nil
}

func (r *Robot) setAssignment(status Status, orderID *kernel.UUID) error {
	if err := status.Validate(); err != nil {
		return err
	}
	if status.IsBusy() != (orderID != nil) {
		return errs.NewValueIsInvalidErrorWithCause("assignedOrderID",
			fmt.Errorf("robot in status %s has assigned order: %t", status, orderID != nil))
	}
	if orderID != nil {
		if err := orderID.Validate(); err != nil {
			return err
		}
	}
	r.status = status
	r.assignedOrderID = orderID
	return nil
}
