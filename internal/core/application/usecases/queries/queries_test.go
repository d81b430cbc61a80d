package queries_test

import (
	"context"
	"testing"
	"time"

	"robodelivery/internal/adapters/out/simulation"
	"robodelivery/internal/core/application/usecases/queries"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/notification"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/core/ports"
	"robodelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	customer = kernel.Principal{ID: "cust-1", Role: kernel.RoleCustomer}
	vendor   = kernel.Principal{ID: "vend-1", Role: kernel.RoleVendor}
	admin    = kernel.Principal{ID: "ops-1", Role: kernel.RoleFleetAdmin}
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
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

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Add(ctx context.Context, n *notification.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockNotificationRepository) Update(ctx context.Context, n *notification.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockNotificationRepository) Get(ctx context.Context, id kernel.UUID) (*notification.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Notification), args.Error(1)
}

func (m *MockNotificationRepository) ListByRecipient(
	ctx context.Context, recipientID string, unreadOnly bool, limit int,
) ([]*notification.Notification, error) {
	args := m.Called(ctx, recipientID, unreadOnly, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*notification.Notification), args.Error(1)
}

func (m *MockNotificationRepository) ListUnpublished(
	ctx context.Context, maxAttempts, limit int,
) ([]*notification.Notification, error) {
	args := m.Called(ctx, maxAttempts, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*notification.Notification), args.Error(1)
}

func newOrder(t *testing.T) *order.Order {
	t.Helper()
	vendorAddr, err := kernel.NewAddress("1 Vendor St", "New York", "NY", "10001", kernel.MustNewLocation(40.7505, -73.9934))
	require.NoError(t, err)
	customerAddr, err := kernel.NewAddress("5 Customer Ave", "New York", "NY", "10018", kernel.MustNewLocation(40.7549, -73.9840))
	require.NoError(t, err)
	burger, err := order.NewLineItem("burger", 1299, 1, 0.4, 1.5)
	require.NoError(t, err)
	fries, err := order.NewLineItem("fries", 899, 1, 0.2, 0.8)
	require.NoError(t, err)

	o, err := order.NewOrder(kernel.NewUUID(), customer.ID, vendor.ID,
		[]order.LineItem{burger, fries}, vendorAddr, customerAddr, time.Now())
	require.NoError(t, err)
	return o
}

func TestGetOrderQueryHandler_VisibleToParties(t *testing.T) {
	ctx := t.Context()
	o := newOrder(t)

	repo := new(MockOrderRepository)
	repo.On("Get", ctx, o.ID()).Return(o, nil)
	handler := queries.NewGetOrderQueryHandler(repo)

	for _, p := range []kernel.Principal{customer, vendor, admin} {
		query, err := queries.NewGetOrderQuery(p, o.ID())
		require.NoError(t, err)

		resp, err := handler.Handle(ctx, query)
		require.NoError(t, err, p.ID)
		assert.Equal(t, o.ID().String(), resp.ID)
		assert.Equal(t, "21.98", resp.TotalAmount)
		assert.Equal(t, int64(2198), resp.TotalAmountCents)
		assert.InDelta(t, 0.6, resp.TotalWeightKg, 1e-9)
		assert.Equal(t, "pending", resp.Status)
		assert.Nil(t, resp.RobotID)
		assert.Len(t, resp.Items, 2)
	}
}

func TestGetOrderQueryHandler_HidesOrderFromOthers(t *testing.T) {
	ctx := t.Context()
	o := newOrder(t)

	repo := new(MockOrderRepository)
	repo.On("Get", ctx, o.ID()).Return(o, nil)
	handler := queries.NewGetOrderQueryHandler(repo)

	others := []kernel.Principal{
		{ID: "cust-2", Role: kernel.RoleCustomer},
		{ID: "vend-2", Role: kernel.RoleVendor},
		{ID: vendor.ID, Role: kernel.RoleCustomer},
	}
	for _, p := range others {
		query, err := queries.NewGetOrderQuery(p, o.ID())
		require.NoError(t, err)

		_, err = handler.Handle(ctx, query)
		require.ErrorIs(t, err, errs.ErrObjectNotFound, p.ID)
		assert.Equal(t, errs.CodeNotFound, errs.CodeOf(err))
	}
}

func TestGetOrderQueryHandler_Missing(t *testing.T) {
	ctx := t.Context()
	id := kernel.NewUUID()

	repo := new(MockOrderRepository)
	repo.On("Get", ctx, id).Return(nil, errs.NewObjectNotFoundError("order", id.String()))

	query, err := queries.NewGetOrderQuery(admin, id)
	require.NoError(t, err)

	_, err = queries.NewGetOrderQueryHandler(repo).Handle(ctx, query)
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestGetOrderQuery_NotConstructed(t *testing.T) {
	_, err := queries.NewGetOrderQueryHandler(new(MockOrderRepository)).Handle(t.Context(), queries.GetOrderQuery{})
	require.ErrorIs(t, err, queries.ErrGetOrderQueryIsNotConstructed)
}

func TestListOrdersQueryHandler_ScopesByRole(t *testing.T) {
	ctx := t.Context()
	o := newOrder(t)
	statuses := []order.Status{order.Pending}

	tests := []struct {
		principal kernel.Principal
		filter    ports.OrderFilter
	}{
		{customer, ports.OrderFilter{CustomerID: customer.ID, Statuses: statuses, Limit: 10}},
		{vendor, ports.OrderFilter{VendorID: vendor.ID, Statuses: statuses, Limit: 10}},
		{admin, ports.OrderFilter{Statuses: statuses, Limit: 10}},
	}

	for _, tt := range tests {
		t.Run(string(tt.principal.Role), func(t *testing.T) {
			repo := new(MockOrderRepository)
			repo.On("List", ctx, tt.filter).Return([]*order.Order{o}, nil).Once()

			query, err := queries.NewListOrdersQuery(tt.principal, statuses, 10)
			require.NoError(t, err)

			resp, err := queries.NewListOrdersQueryHandler(repo).Handle(ctx, query)
			require.NoError(t, err)
			require.Len(t, resp, 1)
			assert.Equal(t, o.ID().String(), resp[0].ID)
			repo.AssertExpectations(t)
		})
	}
}

func TestNewListOrdersQuery_ClampsLimit(t *testing.T) {
	query, err := queries.NewListOrdersQuery(customer, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 50, query.Limit())

	query, err = queries.NewListOrdersQuery(customer, nil, 10_000)
	require.NoError(t, err)
	assert.Equal(t, 200, query.Limit())

	_, err = queries.NewListOrdersQuery(customer, []order.Status{order.Status(99)}, 10)
	require.Error(t, err)
}

func TestListRobotsQueryHandler(t *testing.T) {
	ctx := t.Context()
	registry := simulation.NewRegistry(20)

	r, err := robot.NewRobot(kernel.NewUUID(), "R1", kernel.MustNewLocation(40.75, -73.99), 80, kernel.MustNewPayload(10, 40), 6, time.Now())
	require.NoError(t, err)
	require.NoError(t, registry.Register(ctx, r))

	handler := queries.NewListRobotsQueryHandler(registry)

	query, err := queries.NewListRobotsQuery(admin)
	require.NoError(t, err)
	resp, err := handler.Handle(ctx, query)
	require.NoError(t, err)
	require.Len(t, resp, 1)
	assert.Equal(t, "R1", resp[0].Name)
	assert.Equal(t, "idle", resp[0].Status)
	assert.Nil(t, resp[0].AssignedOrderID)

	query, err = queries.NewListRobotsQuery(vendor)
	require.NoError(t, err)
	_, err = handler.Handle(ctx, query)
	require.ErrorIs(t, err, errs.ErrNotAuthorized)
}

func TestListNotificationsQueryHandler_ReadsOwnInbox(t *testing.T) {
	ctx := t.Context()
	n, err := notification.NewNotification(kernel.NewUUID(), customer.ID, "Order approved", "Your order was approved",
		notification.OrderUpdate{OrderID: "o-1", PreviousStatus: "pending", Status: "vendor_approved"}, time.Now())
	require.NoError(t, err)

	repo := new(MockNotificationRepository)
	repo.On("ListByRecipient", ctx, customer.ID, true, 50).Return([]*notification.Notification{n}, nil).Once()

	query, err := queries.NewListNotificationsQuery(customer, true, 0)
	require.NoError(t, err)

	resp, err := queries.NewListNotificationsQueryHandler(repo).Handle(ctx, query)
	require.NoError(t, err)
	require.Len(t, resp, 1)
	assert.Equal(t, notification.TypeOrderUpdate, resp[0].Type)
	assert.False(t, resp[0].IsRead)
	repo.AssertExpectations(t)
}
