package commands_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"robodelivery/internal/core/application/notify"
	appotp "robodelivery/internal/core/application/otp"
	"robodelivery/internal/core/application/usecases/commands"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/otp"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder_ComputesTotalAndNotifiesVendor(t *testing.T) {
	h := newHarness(t, false)

	created := h.createOrder(t)

	assert.Equal(t, "21.98", created.Total().String())
	assert.Equal(t, order.Pending, created.Status())
	assert.Equal(t, customer.ID, created.CustomerID())

	change := h.emitter.last()
	require.Len(t, change.Events, 1)
	assert.Equal(t, order.Pending, change.Events[0].To)
}

func TestCreateOrder_OnlyCustomers(t *testing.T) {
	h := newHarness(t, false)
	vendorAddr, err := kernel.NewAddress("1 Vendor St", "New York", "NY", "10001", vendorPoint)
	require.NoError(t, err)
	item, err := order.NewLineItem("burger", 1299, 1, 0.4, 1.5)
	require.NoError(t, err)

	cmd, err := commands.NewCreateOrderCommand(vendor, kernel.NewUUID(), vendor.ID,
		[]order.LineItem{item}, vendorAddr, vendorAddr)
	require.NoError(t, err)

	_, err = h.create.Handle(t.Context(), cmd)
	require.ErrorIs(t, err, errs.ErrNotAuthorized)
}

func TestApproveOrder_NoRobotKeepsOrderApproved(t *testing.T) {
	h := newHarness(t, true)
	created := h.createOrder(t)

	approved := h.approveOrder(t, created.ID())
	assert.Equal(t, order.VendorApproved, approved.Status())

	cmd, err := commands.NewAssignRobotCommand(vendor, created.ID())
	require.NoError(t, err)
	_, err = h.assign.Handle(t.Context(), cmd)
	require.ErrorIs(t, err, errs.ErrNoRobotAvailable)
	assert.Equal(t, errs.CodeNoRobotAvailable, errs.CodeOf(err))

	stored := h.store.order(t, created.ID())
	assert.Equal(t, order.VendorApproved, stored.Status())
	assert.Nil(t, stored.Robot())
}

func TestApproveOrder_AutoAssignsNearestRobot(t *testing.T) {
	h := newHarness(t, true)
	r1 := h.registerRobot(t, "R1", vendorPoint)
	h.registerRobot(t, "R2", kernel.MustNewLocation(40.80, -73.95))
	created := h.createOrder(t)

	assigned := h.approveOrder(t, created.ID())

	assert.Equal(t, order.RobotAssigned, assigned.Status())
	require.NotNil(t, assigned.Robot())
	assert.True(t, assigned.Robot().IsEqual(r1.ID()))

	stored := h.robot(t, r1.ID())
	assert.Equal(t, robot.Assigned, stored.Status())
	require.NotNil(t, stored.AssignedOrder())
	assert.True(t, stored.AssignedOrder().IsEqual(created.ID()))

	change := h.emitter.last()
	require.NotNil(t, change.ETA)
	assert.Zero(t, *change.ETA)
}

func TestAssignRobot_ConcurrentAssignsClaimOneRobot(t *testing.T) {
	t.Run("same order, two idle robots", func(t *testing.T) {
		h := newHarness(t, false)
		r1 := h.registerRobot(t, "R1", vendorPoint)
		r2 := h.registerRobot(t, "R2", vendorPoint)
		created := h.createOrder(t)
		h.approveOrder(t, created.ID())

		errList := h.assignConcurrently(t, created.ID(), created.ID())

		assert.Equal(t, 1, countNil(errList))
		busy := h.busyRobots(t, r1.ID(), r2.ID())
		require.Len(t, busy, 1)

		stored := h.store.order(t, created.ID())
		assert.Equal(t, order.RobotAssigned, stored.Status())
		require.NotNil(t, stored.Robot())
		assert.True(t, busy[0].ID().IsEqual(*stored.Robot()))
		assert.True(t, busy[0].AssignedOrder().IsEqual(created.ID()))
	})

	t.Run("two orders, one idle robot", func(t *testing.T) {
		h := newHarness(t, false)
		r1 := h.registerRobot(t, "R1", vendorPoint)
		first := h.createOrder(t)
		second := h.createOrder(t)
		h.approveOrder(t, first.ID())
		h.approveOrder(t, second.ID())

		errList := h.assignConcurrently(t, first.ID(), second.ID())

		assert.Equal(t, 1, countNil(errList))
		for _, err := range errList {
			if err != nil {
				require.ErrorIs(t, err, errs.ErrNoRobotAvailable)
			}
		}
		require.Len(t, h.busyRobots(t, r1.ID()), 1)

		statuses := []order.Status{
			h.store.order(t, first.ID()).Status(),
			h.store.order(t, second.ID()).Status(),
		}
		assert.ElementsMatch(t, []order.Status{order.RobotAssigned, order.VendorApproved}, statuses)
	})
}

func TestAssignRobot_ReleasesRobotWhenOrderWriteFails(t *testing.T) {
	h := newHarness(t, false)
	r1 := h.registerRobot(t, "R1", vendorPoint)
	created := h.createOrder(t)
	h.approveOrder(t, created.ID())

	writeErr := errors.New("order write failed")
	h.store.failUpdates(writeErr)

	cmd, err := commands.NewAssignRobotCommand(vendor, created.ID())
	require.NoError(t, err)
	_, err = h.assign.Handle(t.Context(), cmd)
	require.ErrorIs(t, err, writeErr)

	released := h.robot(t, r1.ID())
	assert.Equal(t, robot.Idle, released.Status())
	assert.Nil(t, released.AssignedOrder())
	assert.True(t, released.Load().IsZero())

	h.store.failUpdates(nil)
	stored := h.store.order(t, created.ID())
	assert.Equal(t, order.VendorApproved, stored.Status())
	assert.Nil(t, stored.Robot())
}

func TestApproveOrder_OnlyOwningVendor(t *testing.T) {
	h := newHarness(t, false)
	created := h.createOrder(t)

	other := kernel.Principal{ID: "vend-2", Role: kernel.RoleVendor}
	cmd, err := commands.NewApproveOrderCommand(other, created.ID())
	require.NoError(t, err)

	_, err = h.approve.Handle(t.Context(), cmd)
	require.ErrorIs(t, err, errs.ErrNotAuthorized)
	assert.Equal(t, order.Pending, h.store.order(t, created.ID()).Status())
}

func TestRejectOrder(t *testing.T) {
	h := newHarness(t, false)
	created := h.createOrder(t)

	cmd, err := commands.NewRejectOrderCommand(vendor, created.ID(), "  out of stock ")
	require.NoError(t, err)
	rejected, err := h.reject.Handle(t.Context(), cmd)

	require.NoError(t, err)
	assert.Equal(t, order.VendorRejected, rejected.Status())
	assert.Equal(t, "out of stock", rejected.Reason())
}

func TestCancelOrder_TwiceIsInvalidTransition(t *testing.T) {
	h := newHarness(t, false)
	created := h.createOrder(t)

	cmd, err := commands.NewCancelOrderCommand(customer, created.ID())
	require.NoError(t, err)

	cancelled, err := h.cancel.Handle(t.Context(), cmd)
	require.NoError(t, err)
	assert.Equal(t, order.Cancelled, cancelled.Status())

	_, err = h.cancel.Handle(t.Context(), cmd)
	require.ErrorIs(t, err, errs.ErrInvalidTransition)
	assert.Equal(t, errs.CodeInvalidTransition, errs.CodeOf(err))
}

func TestCancelOrder_NotOnceRobotIsAssigned(t *testing.T) {
	h := newHarness(t, true)
	h.registerRobot(t, "R1", vendorPoint)
	created := h.createOrder(t)
	h.approveOrder(t, created.ID())

	cmd, err := commands.NewCancelOrderCommand(customer, created.ID())
	require.NoError(t, err)

	_, err = h.cancel.Handle(t.Context(), cmd)
	require.ErrorIs(t, err, errs.ErrInvalidTransition)
	assert.Equal(t, order.RobotAssigned, h.store.order(t, created.ID()).Status())
}

func TestDelivery_ConfirmWithCode(t *testing.T) {
	h := newHarness(t, true)
	r1 := h.registerRobot(t, "R1", vendorPoint)
	created := h.createOrder(t)
	h.approveOrder(t, created.ID())

	pickingUp := h.advanceOrder(t, created.ID(), order.RobotPickingUp)
	assert.Equal(t, order.RobotPickingUp, pickingUp.Status())
	assert.False(t, pickingUp.IsAwaitingConfirmation())
	assert.Equal(t, robot.PickingUp, h.robot(t, r1.ID()).Status())

	delivering := h.advanceOrder(t, created.ID(), order.RobotDelivering)
	assert.Equal(t, order.RobotDelivering, delivering.Status())
	require.True(t, delivering.IsAwaitingConfirmation())
	assert.Equal(t, robot.Delivering, h.robot(t, r1.ID()).Status())

	code := h.sender.last()
	require.Len(t, code, 6)

	wrong := "000000"
	if code == wrong {
		wrong = "999999"
	}
	badCmd, err := commands.NewConfirmDeliveryCommand(customer, created.ID(), wrong)
	require.NoError(t, err)
	_, err = h.confirm.Handle(t.Context(), badCmd)
	require.ErrorIs(t, err, errs.ErrOTPInvalid)
	assert.Equal(t, errs.CodeOTPInvalid, errs.CodeOf(err))
	assert.Equal(t, order.RobotDelivering, h.store.order(t, created.ID()).Status())

	goodCmd, err := commands.NewConfirmDeliveryCommand(customer, created.ID(), code)
	require.NoError(t, err)
	delivered, err := h.confirm.Handle(t.Context(), goodCmd)
	require.NoError(t, err)

	assert.Equal(t, order.Delivered, delivered.Status())
	assert.Nil(t, delivered.Robot())
	released := h.robot(t, r1.ID())
	assert.Equal(t, robot.Idle, released.Status())
	assert.Nil(t, released.AssignedOrder())

	notifications, err := notify.Compose(h.emitter.last())
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	assert.Equal(t, customer.ID, notifications[0].RecipientID())
	assert.Equal(t, vendor.ID, notifications[1].RecipientID())

	_, err = h.confirm.Handle(t.Context(), goodCmd)
	require.ErrorIs(t, err, errs.ErrInvalidTransition)
}

func TestDelivery_ResendInvalidatesPreviousCode(t *testing.T) {
	h := newHarness(t, true)
	h.registerRobot(t, "R1", vendorPoint)
	created := h.createOrder(t)
	h.approveOrder(t, created.ID())
	h.advanceOrder(t, created.ID(), order.RobotPickingUp)
	h.advanceOrder(t, created.ID(), order.RobotDelivering)
	first := h.sender.last()

	resendCmd, err := commands.NewResendDeliveryOTPCommand(customer, created.ID())
	require.NoError(t, err)
	_, err = h.resend.Handle(t.Context(), resendCmd)
	require.NoError(t, err)
	second := h.sender.last()

	if first != second {
		oldCmd, cmdErr := commands.NewConfirmDeliveryCommand(customer, created.ID(), first)
		require.NoError(t, cmdErr)
		_, err = h.confirm.Handle(t.Context(), oldCmd)
		require.ErrorIs(t, err, errs.ErrOTPInvalid)
	}

	newCmd, err := commands.NewConfirmDeliveryCommand(customer, created.ID(), second)
	require.NoError(t, err)
	delivered, err := h.confirm.Handle(t.Context(), newCmd)
	require.NoError(t, err)
	assert.Equal(t, order.Delivered, delivered.Status())
}

func TestResendDeliveryOTP_RequiresPendingConfirmation(t *testing.T) {
	h := newHarness(t, false)
	created := h.createOrder(t)

	cmd, err := commands.NewResendDeliveryOTPCommand(customer, created.ID())
	require.NoError(t, err)

	_, err = h.resend.Handle(t.Context(), cmd)
	require.ErrorIs(t, err, errs.ErrInvalidTransition)
}

func TestAdvanceRobot_RejectsSkippingPickup(t *testing.T) {
	h := newHarness(t, true)
	r1 := h.registerRobot(t, "R1", vendorPoint)
	created := h.createOrder(t)
	h.approveOrder(t, created.ID())

	cmd, err := commands.NewAdvanceRobotCommand(vendor, created.ID(), order.RobotDelivering)
	require.NoError(t, err)

	_, err = h.advance.Handle(t.Context(), cmd)
	require.ErrorIs(t, err, errs.ErrInvalidTransition)
	assert.Equal(t, order.RobotAssigned, h.store.order(t, created.ID()).Status())
	assert.Equal(t, robot.Assigned, h.robot(t, r1.ID()).Status())
}

func TestAdvanceRobot_IssuerFailureLeavesOrderAndRobotInPlace(t *testing.T) {
	h := newHarness(t, true)
	r1 := h.registerRobot(t, "R1", vendorPoint)
	created := h.createOrder(t)
	h.approveOrder(t, created.ID())
	h.advanceOrder(t, created.ID(), order.RobotPickingUp)

	issuer := &MockOTPIssuer{}
	issuer.On("Issue", mock.Anything, mock.Anything, created.ID().String(), otp.PurposeDeliveryConfirmation, mock.Anything).
		Return(appotp.Issued{}, errors.New("hasher unavailable"))
	advance := commands.NewAdvanceRobotCommandHandler(h.store, h.registry, issuer, h.sender,
		commands.DefaultDeliveryCodePolicy(), h.emitter, discardLogger())

	cmd, err := commands.NewAdvanceRobotCommand(vendor, created.ID(), order.RobotDelivering)
	require.NoError(t, err)
	_, err = advance.Handle(t.Context(), cmd)
	require.Error(t, err)
	issuer.AssertExpectations(t)

	stored := h.store.order(t, created.ID())
	assert.Equal(t, order.RobotPickingUp, stored.Status())
	assert.False(t, stored.IsAwaitingConfirmation())
	assert.Equal(t, robot.PickingUp, h.robot(t, r1.ID()).Status())

	delivering := h.advanceOrder(t, created.ID(), order.RobotDelivering)
	assert.Equal(t, order.RobotDelivering, delivering.Status())
	assert.Equal(t, robot.Delivering, h.robot(t, r1.ID()).Status())
}

func TestNewAdvanceRobotCommand_OnlyRobotLegs(t *testing.T) {
	_, err := commands.NewAdvanceRobotCommand(vendor, kernel.NewUUID(), order.Delivered)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestAbortOrder_ReleasesRobot(t *testing.T) {
	h := newHarness(t, true)
	r1 := h.registerRobot(t, "R1", vendorPoint)
	created := h.createOrder(t)
	h.approveOrder(t, created.ID())
	h.advanceOrder(t, created.ID(), order.RobotPickingUp)

	byCustomer, err := commands.NewAbortOrderCommand(customer, created.ID(), "changed my mind")
	require.NoError(t, err)
	_, err = h.abort.Handle(t.Context(), byCustomer)
	require.ErrorIs(t, err, errs.ErrNotAuthorized)

	cmd, err := commands.NewAbortOrderCommand(admin, created.ID(), "robot fault")
	require.NoError(t, err)
	aborted, err := h.abort.Handle(t.Context(), cmd)
	require.NoError(t, err)

	assert.Equal(t, order.Cancelled, aborted.Status())
	assert.Nil(t, aborted.Robot())
	assert.Equal(t, robot.Idle, h.robot(t, r1.ID()).Status())
}

func TestAssignPendingOrders_StopsWhenFleetIsExhausted(t *testing.T) {
	h := newHarness(t, false)
	h.registerRobot(t, "R1", vendorPoint)
	first := h.createOrder(t)
	second := h.createOrder(t)
	h.approveOrder(t, first.ID())
	h.approveOrder(t, second.ID())

	cmd, err := commands.NewAssignPendingOrdersCommand(10)
	require.NoError(t, err)

	report, err := h.pending.Handle(t.Context(), cmd)
	require.NoError(t, err)
	assert.Equal(t, commands.AssignmentReport{Assigned: 1, Waiting: 1}, report)
	assert.Equal(t, order.RobotAssigned, h.store.order(t, first.ID()).Status(), "oldest order goes first")
	assert.Equal(t, order.VendorApproved, h.store.order(t, second.ID()).Status())
}

func TestAssignPendingOrders_HeavyOrderDoesNotBlockLighterOnes(t *testing.T) {
	h := newHarness(t, false)
	r1 := h.registerRobotWith(t, "R1", vendorPoint, kernel.MustNewPayload(10, 40))

	crate, err := order.NewLineItem("water-crate", 1999, 5, 10, 12)
	require.NoError(t, err)
	heavy := h.createOrderWith(t, crate)
	require.InDelta(t, 50.0, heavy.WeightKg(), 1e-9)
	light := h.createOrder(t)
	h.approveOrder(t, heavy.ID())
	h.approveOrder(t, light.ID())

	cmd, err := commands.NewAssignPendingOrdersCommand(10)
	require.NoError(t, err)

	report, err := h.pending.Handle(t.Context(), cmd)
	require.NoError(t, err)
	assert.Equal(t, commands.AssignmentReport{Assigned: 1, Waiting: 1}, report)

	assert.Equal(t, order.VendorApproved, h.store.order(t, heavy.ID()).Status())
	stored := h.store.order(t, light.ID())
	assert.Equal(t, order.RobotAssigned, stored.Status())
	require.NotNil(t, stored.Robot())
	assert.True(t, r1.ID().IsEqual(*stored.Robot()))
	assert.InDelta(t, 0.6, h.robot(t, r1.ID()).Load().WeightKg(), 1e-9)
}

func TestMoveRobots_HeadsTowardTarget(t *testing.T) {
	h := newHarness(t, true)
	start := kernel.MustNewLocation(40.7600, -73.9800)
	r1 := h.registerRobot(t, "R1", start)
	created := h.createOrder(t)
	h.approveOrder(t, created.ID())

	before, err := start.DistanceKm(vendorPoint)
	require.NoError(t, err)

	cmd, err := commands.NewMoveRobotsCommand(time.Minute)
	require.NoError(t, err)
	moved, err := h.move.Handle(t.Context(), cmd)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	after, err := h.robot(t, r1.ID()).Location().DistanceKm(vendorPoint)
	require.NoError(t, err)
	assert.Less(t, after, before)
}
