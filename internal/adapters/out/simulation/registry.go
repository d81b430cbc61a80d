// Package simulation keeps the fleet in process memory. It is selected at
// startup when no fleet backend is available and behaves like the real
// registry: claims are exclusive and every mutation goes through the robot
// aggregate.
package simulation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/core/domain/services"
	"robodelivery/internal/pkg/errs"
)

// Registry is an in-memory ports.RobotRegistry.
//
// Key responsibilities:
//   - Holding one robot aggregate per id behind a single RWMutex
//   - Selecting robots through services.RobotDispatcher, the same rules the fleet store applies
//   - Handing out copies so callers never alias stored robots
//
// Example usage:
//
//	registry := simulation.NewRegistry(cfg.Dispatch.MinBattery)
//	_ = registry.Register(ctx, r)
//	best, err := registry.FindIdleNear(ctx, pickup, o.Size())
type Registry struct {
	mu         sync.RWMutex
	robots     map[string]*robot.Robot
	dispatcher services.RobotDispatcher
	now        func() time.Time
}

// NewRegistry creates an empty fleet. Robots below minBattery percent are never selected.
func NewRegistry(minBattery int) *Registry {
	return &Registry{
		robots:     make(map[string]*robot.Robot),
		dispatcher: services.NewRobotDispatcher(minBattery),
		now:        time.Now,
	}
}

// FindIdleNear returns a copy of the nearest idle robot with free room for need.
//
// Returns an error wrapping errs.ErrNoRobotAvailable when no robot qualifies.
func (r *Registry) FindIdleNear(_ context.Context, point kernel.Location, need kernel.Payload) (*robot.Robot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fleet := make([]*robot.Robot, 0, len(r.robots))
	for _, rb := range r.robots {
		fleet = append(fleet, rb)
	}

	candidate, err := r.dispatcher.Nearest(point, need, fleet)
	if err != nil {
		return nil, err
	}
	return clone(candidate.Robot)
}

// Claim binds an idle robot to orderID and puts load on board.
//
// Returns false, nil when the robot is no longer idle or the load no longer fits,
// so a lost race reads the same as a stale FindIdleNear result.
func (r *Registry) Claim(_ context.Context, robotID, orderID kernel.UUID, load kernel.Payload) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rb, err := r.get(robotID)
	if err != nil {
		return false, err
	}
	if rb.Status() != robot.Idle || !load.FitsIn(rb.FreeCapacity()) {
		return false, nil
	}
	if err = rb.Claim(orderID, load, r.now()); err != nil {
		return false, err
	}
	rb.IncrementVersion()
	return true, nil
}

// Advance moves a robot bound to orderID to next. Repeating the current step is a no-op;
// a robot bound to another order returns a ConflictError.
func (r *Registry) Advance(_ context.Context, robotID, orderID kernel.UUID, next robot.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rb, err := r.get(robotID)
	if err != nil {
		return err
	}
	if assigned := rb.AssignedOrder(); assigned == nil || !assigned.IsEqual(orderID) {
		return errs.NewConflictErrorWithCause("robot", robotID.String(),
			fmt.Errorf("robot is not assigned to order %s", orderID))
	}
	if rb.Status() == next {
		return nil
	}
	if err = rb.Advance(next, r.now()); err != nil {
		return err
	}
	rb.IncrementVersion()
	return nil
}

// Release returns the robot to idle and empties it while it still serves orderID.
func (r *Registry) Release(_ context.Context, robotID, orderID kernel.UUID) error {
	return r.mutate(robotID, func(rb *robot.Robot, now time.Time) error {
		return rb.Release(orderID, now)
	})
}

// UpdateLocation records a position report in any status.
func (r *Registry) UpdateLocation(_ context.Context, robotID kernel.UUID, location kernel.Location) error {
	return r.mutate(robotID, func(rb *robot.Robot, now time.Time) error {
		return rb.UpdateLocation(location, now)
	})
}

// UpdateBattery records a charge report in [0, 100].
func (r *Registry) UpdateBattery(_ context.Context, robotID kernel.UUID, battery int) error {
	return r.mutate(robotID, func(rb *robot.Robot, now time.Time) error {
		return rb.UpdateBattery(battery, now)
	})
}

// SetAvailability switches an unassigned robot between idle, maintenance and offline.
func (r *Registry) SetAvailability(_ context.Context, robotID kernel.UUID, status robot.Status) error {
	return r.mutate(robotID, func(rb *robot.Robot, now time.Time) error {
		return rb.SetAvailability(status, now)
	})
}

// Register stores a copy of aggregate. A second registration of the same id conflicts.
func (r *Registry) Register(_ context.Context, aggregate *robot.Robot) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	stored, err := clone(aggregate)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := aggregate.ID().String()
	if _, exists := r.robots[key]; exists {
		return errs.NewConflictErrorWithCause("robot", key, fmt.Errorf("robot is already registered"))
	}
	r.robots[key] = stored
	return nil
}

// Get returns a copy of the robot or an ObjectNotFoundError.
func (r *Registry) Get(_ context.Context, robotID kernel.UUID) (*robot.Robot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rb, err := r.get(robotID)
	if err != nil {
		return nil, err
	}
	return clone(rb)
}

// List returns copies ordered by id.
func (r *Registry) List(_ context.Context) ([]*robot.Robot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*robot.Robot, 0, len(r.robots))
	for _, rb := range r.robots {
		c, err := clone(rb)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID().Compare(out[j].ID()) < 0
	})
	return out, nil
}

func (r *Registry) mutate(robotID kernel.UUID, fn func(rb *robot.Robot, now time.Time) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rb, err := r.get(robotID)
	if err != nil {
		return err
	}

	// Work on a copy so a rejected change leaves the stored robot untouched.
	next, err := clone(rb)
	if err != nil {
		return err
	}
	if err = fn(next, r.now()); err != nil {
		return err
	}
	next.IncrementVersion()
	r.robots[robotID.String()] = next
	return nil
}

func (r *Registry) get(robotID kernel.UUID) (*robot.Robot, error) {
	rb, ok := r.robots[robotID.String()]
	if !ok {
		return nil, errs.NewObjectNotFoundError("robot", robotID.String())
	}
	return rb, nil
}

func clone(rb *robot.Robot) (*robot.Robot, error) {
	return robot.RestoreRobot(rb.Snapshot())
}
