package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"robodelivery/internal/core/application/usecases/commands"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/ports"
	"robodelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter ports.OrderFilter) ([]*order.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

type MockUoW struct {
	mock.Mock
}

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockUoW) RobotRepository() ports.RobotRepository {
	args := m.Called()
	return args.Get(0).(ports.RobotRepository)
}

func (m *MockUoW) OTPRepository() ports.OTPRepository {
	args := m.Called()
	return args.Get(0).(ports.OTPRepository)
}

type MockUoWFactory struct {
	mock.Mock
}

func (m *MockUoWFactory) Create() commands.UoW {
	args := m.Called()
	return args.Get(0).(commands.UoW)
}

func newPendingOrder(t *testing.T, id kernel.UUID) *order.Order {
	t.Helper()
	addr, err := kernel.NewAddress("1 Vendor St", "New York", "NY", "10001", vendorPoint)
	require.NoError(t, err)
	item, err := order.NewLineItem("burger", 1299, 1, 0.4, 1.5)
	require.NoError(t, err)
	o, err := order.NewOrder(id, customer.ID, vendor.ID, []order.LineItem{item}, addr, addr, time.Now())
	require.NoError(t, err)
	o.PullEvents()
	return o
}

func TestCancelOrderCommandHandler_RetriesOnConflict(t *testing.T) {
	ctx := t.Context()
	id := kernel.NewUUID()
	stale := newPendingOrder(t, id)
	fresh := newPendingOrder(t, id)

	orderRepo := new(MockOrderRepository)
	uow := new(MockUoW)
	factory := new(MockUoWFactory)

	mock.InOrder(
		factory.On("Create").Return(uow).Once(),
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		orderRepo.On("Get", ctx, id).Return(stale, nil).Once(),
		orderRepo.On("Update", ctx, stale).Return(errs.NewConflictError("order", id.String())).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),

		factory.On("Create").Return(uow).Once(),
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		orderRepo.On("Get", ctx, id).Return(fresh, nil).Once(),
		orderRepo.On("Update", ctx, fresh).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	emitter := &recordingEmitter{}
	cmd, err := commands.NewCancelOrderCommand(customer, id)
	require.NoError(t, err)

	cancelled, err := commands.NewCancelOrderCommandHandler(factory, emitter).Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Same(t, fresh, cancelled)
	assert.Equal(t, order.Cancelled, cancelled.Status())

	change := emitter.last()
	require.Len(t, change.Events, 1)
	assert.Equal(t, order.Cancelled, change.Events[0].To)

	factory.AssertExpectations(t)
	uow.AssertExpectations(t)
	orderRepo.AssertExpectations(t)
}

func TestCancelOrderCommandHandler_DoesNotRetryOtherErrors(t *testing.T) {
	ctx := t.Context()
	id := kernel.NewUUID()
	o := newPendingOrder(t, id)

	orderRepo := new(MockOrderRepository)
	uow := new(MockUoW)
	factory := new(MockUoWFactory)

	mock.InOrder(
		factory.On("Create").Return(uow).Once(),
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		orderRepo.On("Get", ctx, id).Return(o, nil).Once(),
		orderRepo.On("Update", ctx, o).Return(errors.New("database error")).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	emitter := &recordingEmitter{}
	cmd, err := commands.NewCancelOrderCommand(customer, id)
	require.NoError(t, err)

	_, err = commands.NewCancelOrderCommandHandler(factory, emitter).Handle(ctx, cmd)

	require.EqualError(t, err, "database error")
	assert.Empty(t, emitter.changes)

	factory.AssertExpectations(t)
	uow.AssertExpectations(t)
	orderRepo.AssertExpectations(t)
}

func TestCancelOrderCommandHandler_BeginError(t *testing.T) {
	ctx := t.Context()
	uow := new(MockUoW)
	factory := new(MockUoWFactory)

	mock.InOrder(
		factory.On("Create").Return(uow).Once(),
		uow.On("Begin", ctx).Return(errors.New("begin error")).Once(),
	)

	cmd, err := commands.NewCancelOrderCommand(customer, kernel.NewUUID())
	require.NoError(t, err)

	_, err = commands.NewCancelOrderCommandHandler(factory, &recordingEmitter{}).Handle(ctx, cmd)
	require.EqualError(t, err, "begin error")
}

func TestCancelOrderCommandHandler_NotConstructed(t *testing.T) {
	_, err := commands.NewCancelOrderCommandHandler(new(MockUoWFactory), &recordingEmitter{}).
		Handle(t.Context(), commands.CancelOrderCommand{})
	require.ErrorIs(t, err, commands.ErrCancelOrderCommandIsNotConstructed)
}
