package robotrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/core/domain/services"
	"robodelivery/internal/pkg/errs"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/gorm"
)

const maxMutationRetries = 3

// FleetRegistry is the database-backed ports.RobotRegistry. Each call runs on
// its own connection, outside any order transaction.
//
// Key responsibilities:
//   - Selecting robots with services.RobotDispatcher over the idle rows
//   - Claiming with a single conditional UPDATE so concurrent claims have one winner
//   - Applying every other change through the robot aggregate with version-checked writes
//
// Example usage:
//
//	registry := robotrepo.NewFleetRegistry(db, cfg.Database.QueryTimeout, cfg.Dispatch.MinBattery)
//	best, err := registry.FindIdleNear(ctx, pickup, o.Size())
//	ok, err := registry.Claim(ctx, best.ID(), o.ID(), o.Size())
type FleetRegistry struct {
	repo       *GormRobotRepository
	dispatcher services.RobotDispatcher
	now        func() time.Time
}

// NewFleetRegistry creates a registry over db. Queries are bounded by timeout and
// robots below minBattery percent are never selected.
func NewFleetRegistry(db *gorm.DB, timeout time.Duration, minBattery int) *FleetRegistry {
	return &FleetRegistry{
		repo:       NewGormRobotRepository(db, timeout),
		dispatcher: services.NewRobotDispatcher(minBattery),
		now:        time.Now,
	}
}

// FindIdleNear returns the nearest idle robot with free room for need.
//
// Returns an error wrapping errs.ErrNoRobotAvailable when no robot qualifies.
func (f *FleetRegistry) FindIdleNear(ctx context.Context, point kernel.Location, need kernel.Payload) (*robot.Robot, error) {
	idle, err := f.repo.ListIdle(ctx)
	if err != nil {
		return nil, err
	}

	candidate, err := f.dispatcher.Nearest(point, need, idle)
	if err != nil {
		return nil, err
	}
	return candidate.Robot, nil
}

// Claim binds robotID to orderID and puts load on board.
//
// Returns false, nil when another order got the robot first, it left idle or
// the load no longer fits. A missing robot is an ObjectNotFoundError.
func (f *FleetRegistry) Claim(ctx context.Context, robotID, orderID kernel.UUID, load kernel.Payload) (bool, error) {
	if err := errors.Join(robotID.Validate(), orderID.Validate()); err != nil {
		return false, err
	}

	claimed, err := f.repo.claim(ctx, robotID, orderID, load, f.now())
	if err != nil {
		if errs.CodeOf(err) == errs.CodeConflict {
			// The unique index on assigned_order_id rejected a second robot for the order.
			return false, nil
		}
		return false, err
	}
	if !claimed {
		if _, getErr := f.repo.Get(ctx, robotID); getErr != nil {
			return false, getErr
		}
	}
	return claimed, nil
}

// Advance moves a robot bound to orderID to next. Repeating the current step is a no-op.
func (f *FleetRegistry) Advance(ctx context.Context, robotID, orderID kernel.UUID, next robot.Status) error {
	return f.mutate(ctx, robotID, func(r *robot.Robot, now time.Time) (bool, error) {
		if assigned := r.AssignedOrder(); assigned == nil || !assigned.IsEqual(orderID) {
			return false, errs.NewConflictErrorWithCause("robot", robotID.String(),
				fmt.Errorf("robot is not assigned to order %s", orderID))
		}
		if r.Status() == next {
			return false, nil
		}
		return true, r.Advance(next, now)
	})
}

// Release returns the robot to idle and clears its load while it still serves orderID.
func (f *FleetRegistry) Release(ctx context.Context, robotID, orderID kernel.UUID) error {
	return f.mutate(ctx, robotID, func(r *robot.Robot, now time.Time) (bool, error) {
		if r.Status() == robot.Idle && r.AssignedOrder() == nil {
			return false, nil
		}
		return true, r.Release(orderID, now)
	})
}

// UpdateLocation records a position report in any status.
func (f *FleetRegistry) UpdateLocation(ctx context.Context, robotID kernel.UUID, location kernel.Location) error {
	return f.mutate(ctx, robotID, func(r *robot.Robot, now time.Time) (bool, error) {
		return true, r.UpdateLocation(location, now)
	})
}

// UpdateBattery records a charge report in [0, 100].
func (f *FleetRegistry) UpdateBattery(ctx context.Context, robotID kernel.UUID, battery int) error {
	return f.mutate(ctx, robotID, func(r *robot.Robot, now time.Time) (bool, error) {
		return true, r.UpdateBattery(battery, now)
	})
}

// SetAvailability switches an unassigned robot between idle, maintenance and offline.
func (f *FleetRegistry) SetAvailability(ctx context.Context, robotID kernel.UUID, status robot.Status) error {
	return f.mutate(ctx, robotID, func(r *robot.Robot, now time.Time) (bool, error) {
		return true, r.SetAvailability(status, now)
	})
}

// Register inserts a new robot.
func (f *FleetRegistry) Register(ctx context.Context, aggregate *robot.Robot) error {
	return f.repo.Add(ctx, aggregate)
}

// Get loads one robot or returns errs.ErrObjectNotFound.
func (f *FleetRegistry) Get(ctx context.Context, robotID kernel.UUID) (*robot.Robot, error) {
	return f.repo.Get(ctx, robotID)
}

// List returns every robot ordered by id.
func (f *FleetRegistry) List(ctx context.Context) ([]*robot.Robot, error) {
	return f.repo.List(ctx)
}

// mutate applies fn to a fresh read and writes it back conditionally, rereading
// when a concurrent writer bumped the version. fn reports whether anything changed.
func (f *FleetRegistry) mutate(
	ctx context.Context,
	robotID kernel.UUID,
	fn func(r *robot.Robot, now time.Time) (bool, error),
) error {
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxMutationRetries), ctx)

	return backoff.Retry(func() error {
		r, err := f.repo.Get(ctx, robotID)
		if err != nil {
			return backoff.Permanent(err)
		}

		changed, err := fn(r, f.now())
		if err != nil {
			return backoff.Permanent(err)
		}
		if !changed {
			return nil
		}

		err = f.repo.Update(ctx, r)
		if err == nil || errors.Is(err, errs.ErrConflict) {
			return err
		}
		return backoff.Permanent(err)
	}, b)
}
