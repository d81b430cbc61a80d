package simulation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"robodelivery/internal/adapters/out/simulation"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var vendorPoint = kernel.MustNewLocation(40.7505, -73.9934)

func register(t *testing.T, reg *simulation.Registry, name string, loc kernel.Location, battery int) *robot.Robot {
	t.Helper()
	r, err := robot.NewRobot(kernel.NewUUID(), name, loc, battery, kernel.MustNewPayload(10, 40), 6, time.Now())
	require.NoError(t, err)
	require.NoError(t, reg.Register(context.Background(), r))
	return r
}

func TestRegistry_FindIdleNear(t *testing.T) {
	ctx := context.Background()
	reg := simulation.NewRegistry(20)

	far := register(t, reg, "far", kernel.MustNewLocation(40.80, -73.95), 90)
	near := register(t, reg, "near", vendorPoint, 90)
	register(t, reg, "flat", vendorPoint, 5)

	found, err := reg.FindIdleNear(ctx, vendorPoint, kernel.MustNewPayload(1, 2))
	require.NoError(t, err)
	assert.True(t, found.ID().IsEqual(near.ID()))

	claimed, err := reg.Claim(ctx, near.ID(), kernel.NewUUID(), kernel.MustNewPayload(1, 2))
	require.NoError(t, err)
	require.True(t, claimed)

	found, err = reg.FindIdleNear(ctx, vendorPoint, kernel.MustNewPayload(1, 2))
	require.NoError(t, err)
	assert.True(t, found.ID().IsEqual(far.ID()))

	_, err = reg.FindIdleNear(ctx, vendorPoint, kernel.MustNewPayload(50, 2))
	require.ErrorIs(t, err, errs.ErrNoRobotAvailable)
}

func TestRegistry_ConcurrentClaimsHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	reg := simulation.NewRegistry(20)
	r := register(t, reg, "r1", vendorPoint, 90)

	const callers = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := reg.Claim(ctx, r.ID(), kernel.NewUUID(), kernel.Payload{})
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	stored, err := reg.Get(ctx, r.ID())
	require.NoError(t, err)
	assert.Equal(t, robot.Assigned, stored.Status())
}

func TestRegistry_AdvanceAndRelease(t *testing.T) {
	ctx := context.Background()
	reg := simulation.NewRegistry(20)
	r := register(t, reg, "r1", vendorPoint, 90)
	orderID := kernel.NewUUID()

	ok, err := reg.Claim(ctx, r.ID(), orderID, kernel.MustNewPayload(3, 12))
	require.NoError(t, err)
	require.True(t, ok)

	require.ErrorIs(t, reg.Advance(ctx, r.ID(), orderID, robot.Delivering), errs.ErrInvalidTransition)
	require.NoError(t, reg.Advance(ctx, r.ID(), orderID, robot.PickingUp))
	require.NoError(t, reg.Advance(ctx, r.ID(), orderID, robot.PickingUp), "repeating a step is a no-op")
	require.ErrorIs(t, reg.Advance(ctx, r.ID(), kernel.NewUUID(), robot.Delivering), errs.ErrConflict)
	require.NoError(t, reg.Advance(ctx, r.ID(), orderID, robot.Delivering))

	loaded, err := reg.Get(ctx, r.ID())
	require.NoError(t, err)
	assert.InDelta(t, 3.0, loaded.Load().WeightKg(), 1e-9)
	assert.InDelta(t, 12.0, loaded.Load().VolumeL(), 1e-9)

	require.ErrorIs(t, reg.Release(ctx, r.ID(), kernel.NewUUID()), errs.ErrConflict)
	require.NoError(t, reg.Release(ctx, r.ID(), orderID))
	require.NoError(t, reg.Release(ctx, r.ID(), orderID), "releasing an idle robot is a no-op")

	stored, err := reg.Get(ctx, r.ID())
	require.NoError(t, err)
	assert.Equal(t, robot.Idle, stored.Status())
	assert.Nil(t, stored.AssignedOrder())
	assert.True(t, stored.Load().IsZero())
}

func TestRegistry_ClaimRejectsOversizedLoad(t *testing.T) {
	ctx := context.Background()
	reg := simulation.NewRegistry(20)
	r := register(t, reg, "r1", vendorPoint, 90)

	ok, err := reg.Claim(ctx, r.ID(), kernel.NewUUID(), kernel.MustNewPayload(2, 41))
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := reg.Get(ctx, r.ID())
	require.NoError(t, err)
	assert.Equal(t, robot.Idle, stored.Status())
	assert.True(t, stored.Load().IsZero())
}

func TestRegistry_RejectedChangeLeavesRobotUntouched(t *testing.T) {
	ctx := context.Background()
	reg := simulation.NewRegistry(20)
	r := register(t, reg, "r1", vendorPoint, 90)

	require.Error(t, reg.UpdateBattery(ctx, r.ID(), 140))
	require.NoError(t, reg.SetAvailability(ctx, r.ID(), robot.Maintenance))

	stored, err := reg.Get(ctx, r.ID())
	require.NoError(t, err)
	assert.Equal(t, 90, stored.Battery())
	assert.Equal(t, robot.Maintenance, stored.Status())

	ok, err := reg.Claim(ctx, r.ID(), kernel.NewUUID(), kernel.Payload{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistry_RegisterAndList(t *testing.T) {
	ctx := context.Background()
	reg := simulation.NewRegistry(20)
	a := register(t, reg, "a", vendorPoint, 90)
	register(t, reg, "b", vendorPoint, 90)

	require.ErrorIs(t, reg.Register(ctx, a), errs.ErrConflict)

	all, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Negative(t, all[0].ID().Compare(all[1].ID()))

	_, err = reg.Get(ctx, kernel.NewUUID())
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}
