package commands_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"robodelivery/internal/adapters/out/simulation"
	"robodelivery/internal/core/application/notify"
	appotp "robodelivery/internal/core/application/otp"
	"robodelivery/internal/core/application/usecases/commands"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/otp"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/core/ports"
	"robodelivery/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memoryStore is a transactional in-memory stand-in for the database.
// A unit of work stages a copy on Begin and swaps it in on Commit.
type memoryStore struct {
	mu     sync.Mutex
	orders map[string]order.Snapshot
	codes  map[string]otpRow

	// updateErr, when set, fails every order Update.
	updateErr error
}

type otpRow struct {
	id        kernel.UUID
	subjectID string
	purpose   otp.Purpose
	hash      []byte
	expiresAt time.Time
	used      bool
	createdAt time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{orders: map[string]order.Snapshot{}, codes: map[string]otpRow{}}
}

func (s *memoryStore) Create() commands.UoW {
	return &memoryUoW{store: s}
}

func (s *memoryStore) failUpdates(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateErr = err
}

func (s *memoryStore) order(t *testing.T, id kernel.UUID) *order.Order {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.orders[id.String()]
	require.True(t, ok)
	o, err := order.RestoreOrder(snap)
	require.NoError(t, err)
	return o
}

type memoryState struct {
	orders map[string]order.Snapshot
	codes  map[string]otpRow
}

type memoryUoW struct {
	store  *memoryStore
	base   map[string]order.Snapshot
	staged *memoryState
	mu     sync.Mutex
}

func (u *memoryUoW) Begin(context.Context) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	staged := &memoryState{orders: map[string]order.Snapshot{}, codes: map[string]otpRow{}}
	base := make(map[string]order.Snapshot, len(u.store.orders))
	for k, v := range u.store.orders {
		staged.orders[k] = v
		base[k] = v
	}
	for k, v := range u.store.codes {
		staged.codes[k] = v
	}
	u.staged = staged
	u.base = base
	return nil
}

// Commit applies the orders this unit of work changed. An order another unit
// of work committed in the meantime fails the whole commit with a conflict.
func (u *memoryUoW) Commit(context.Context) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	if u.staged == nil {
		return nil
	}
	defer func() { u.staged, u.base = nil, nil }()

	changed := make(map[string]order.Snapshot)
	for k, v := range u.staged.orders {
		before, existed := u.base[k]
		if existed && before.Version == v.Version {
			continue
		}
		if current, ok := u.store.orders[k]; ok && (!existed || current.Version != before.Version) {
			return errs.NewConflictError("order", k)
		}
		changed[k] = v
	}

	for k, v := range changed {
		u.store.orders[k] = v
	}
	for k, v := range u.staged.codes {
		u.store.codes[k] = v
	}
	return nil
}

func (u *memoryUoW) Rollback(context.Context) error {
	u.staged, u.base = nil, nil
	return nil
}

func (u *memoryUoW) state() *memoryState {
	if u.staged != nil {
		return u.staged
	}
	return &memoryState{orders: u.store.orders, codes: u.store.codes}
}

func (u *memoryUoW) OrderRepository() ports.OrderRepository { return &memoryOrderRepo{uow: u} }
func (u *memoryUoW) RobotRepository() ports.RobotRepository { return nil }
func (u *memoryUoW) OTPRepository() ports.OTPRepository     { return &memoryOTPRepo{uow: u} }

type memoryOrderRepo struct{ uow *memoryUoW }

func (r *memoryOrderRepo) lock() func() {
	if r.uow.staged == nil {
		r.uow.store.mu.Lock()
		return r.uow.store.mu.Unlock
	}
	r.uow.mu.Lock()
	return r.uow.mu.Unlock
}

func (r *memoryOrderRepo) Add(_ context.Context, o *order.Order) error {
	defer r.lock()()
	st := r.uow.state()
	if _, ok := st.orders[o.ID().String()]; ok {
		return errs.NewConflictError("order", o.ID().String())
	}
	st.orders[o.ID().String()] = o.Snapshot()
	return nil
}

func (r *memoryOrderRepo) Update(_ context.Context, o *order.Order) error {
	r.uow.store.mu.Lock()
	updateErr := r.uow.store.updateErr
	r.uow.store.mu.Unlock()
	if updateErr != nil {
		return updateErr
	}

	defer r.lock()()
	st := r.uow.state()
	current, ok := st.orders[o.ID().String()]
	if !ok {
		return errs.NewObjectNotFoundError("order", o.ID().String())
	}
	if current.Version != o.Version() {
		return errs.NewConflictError("order", o.ID().String())
	}
	o.IncrementVersion()
	st.orders[o.ID().String()] = o.Snapshot()
	return nil
}

func (r *memoryOrderRepo) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	defer r.lock()()
	snap, ok := r.uow.state().orders[id.String()]
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return order.RestoreOrder(snap)
}

func (r *memoryOrderRepo) List(_ context.Context, filter ports.OrderFilter) ([]*order.Order, error) {
	defer r.lock()()
	var out []*order.Order
	for _, snap := range r.uow.state().orders {
		if filter.CustomerID != "" && snap.CustomerID != filter.CustomerID {
			continue
		}
		if filter.VendorID != "" && snap.VendorID != filter.VendorID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, snap.Status) {
			continue
		}
		o, err := order.RestoreOrder(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			older := out[i].CreatedAt().Before(out[j].CreatedAt())
			return older == filter.OldestFirst
		}
		return out[i].ID().Compare(out[j].ID()) < 0
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func containsStatus(statuses []order.Status, s order.Status) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

type memoryOTPRepo struct{ uow *memoryUoW }

func (r *memoryOTPRepo) Add(_ context.Context, c *otp.Code) error {
	r.uow.state().codes[c.ID().String()] = otpRow{
		id: c.ID(), subjectID: c.SubjectID(), purpose: c.Purpose(), hash: c.Hash(),
		expiresAt: c.ExpiresAt(), used: c.IsUsed(), createdAt: c.CreatedAt(),
	}
	return nil
}

func (r *memoryOTPRepo) InvalidateActive(_ context.Context, subjectID string, purpose otp.Purpose) error {
	codes := r.uow.state().codes
	for k, row := range codes {
		if row.subjectID == subjectID && row.purpose == purpose && !row.used {
			row.used = true
			codes[k] = row
		}
	}
	return nil
}

func (r *memoryOTPRepo) GetActive(_ context.Context, subjectID string, purpose otp.Purpose, now time.Time) (*otp.Code, error) {
	var newest *otpRow
	for _, row := range r.uow.state().codes {
		if row.subjectID != subjectID || row.purpose != purpose || row.used || !now.Before(row.expiresAt) {
			continue
		}
		if newest == nil || row.createdAt.After(newest.createdAt) {
			row := row
			newest = &row
		}
	}
	if newest == nil {
		return nil, errs.NewObjectNotFoundError("otp", subjectID)
	}
	return otp.RestoreCode(newest.id, newest.subjectID, newest.purpose, newest.hash, newest.expiresAt, newest.used, newest.createdAt)
}

func (r *memoryOTPRepo) MarkUsed(_ context.Context, id kernel.UUID) (bool, error) {
	codes := r.uow.state().codes
	row, ok := codes[id.String()]
	if !ok || row.used {
		return false, nil
	}
	row.used = true
	codes[id.String()] = row
	return true, nil
}

type MockOTPIssuer struct {
	mock.Mock
}

func (m *MockOTPIssuer) Issue(
	ctx context.Context,
	repo ports.OTPRepository,
	subjectID string,
	purpose otp.Purpose,
	ttl time.Duration,
) (appotp.Issued, error) {
	args := m.Called(ctx, repo, subjectID, purpose, ttl)
	return args.Get(0).(appotp.Issued), args.Error(1)
}

func (m *MockOTPIssuer) Verify(
	ctx context.Context,
	repo ports.OTPRepository,
	subjectID string,
	purpose otp.Purpose,
	candidate string,
) (bool, error) {
	args := m.Called(ctx, repo, subjectID, purpose, candidate)
	return args.Bool(0), args.Error(1)
}

type recordingEmitter struct {
	mu      sync.Mutex
	changes []notify.OrderChange
}

func (e *recordingEmitter) Emit(_ context.Context, change notify.OrderChange) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.changes = append(e.changes, change)
}

func (e *recordingEmitter) last() notify.OrderChange {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.changes[len(e.changes)-1]
}

type recordingCodeSender struct {
	mu    sync.Mutex
	codes []string
}

func (s *recordingCodeSender) SendCode(_ context.Context, _, _ string, _ otp.Purpose, code string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes = append(s.codes, code)
	return nil
}

func (s *recordingCodeSender) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[len(s.codes)-1]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	customer = kernel.Principal{ID: "cust-1", Role: kernel.RoleCustomer}
	vendor   = kernel.Principal{ID: "vend-1", Role: kernel.RoleVendor}
	admin    = kernel.Principal{ID: "ops-1", Role: kernel.RoleFleetAdmin}

	vendorPoint   = kernel.MustNewLocation(40.7505, -73.9934)
	customerPoint = kernel.MustNewLocation(40.7549, -73.9840)
)

// harness wires every handler against the in-memory store and registry.
type harness struct {
	store    *memoryStore
	registry *simulation.Registry
	emitter  *recordingEmitter
	sender   *recordingCodeSender

	create   commands.CreateOrderCommandHandler
	approve  commands.ApproveOrderCommandHandler
	reject   commands.RejectOrderCommandHandler
	cancel   commands.CancelOrderCommandHandler
	assign   commands.AssignRobotCommandHandler
	advance  commands.AdvanceRobotCommandHandler
	confirm  commands.ConfirmDeliveryCommandHandler
	resend   commands.ResendDeliveryOTPCommandHandler
	abort    commands.AbortOrderCommandHandler
	pending  commands.AssignPendingOrdersCommandHandler
	move     commands.MoveRobotsCommandHandler
	register commands.RegisterRobotCommandHandler
}

func newHarness(t *testing.T, autoAssign bool) *harness {
	t.Helper()
	logger := discardLogger()
	store := newMemoryStore()
	registry := simulation.NewRegistry(20)
	emitter := &recordingEmitter{}
	sender := &recordingCodeSender{}

	issuer, err := appotp.NewIssuer(appotp.NewBcryptHasher(bcrypt.MinCost), appotp.DefaultDigits, logger)
	require.NoError(t, err)
	policy := commands.DefaultDeliveryCodePolicy()

	h := &harness{store: store, registry: registry, emitter: emitter, sender: sender}
	h.assign = commands.NewAssignRobotCommandHandler(store, registry, emitter, nil, logger)
	if autoAssign {
		h.approve = commands.NewApproveOrderCommandHandler(store, emitter, h.assign, logger)
	} else {
		h.approve = commands.NewApproveOrderCommandHandler(store, emitter, nil, logger)
	}
	h.create = commands.NewCreateOrderCommandHandler(store, emitter, logger)
	h.reject = commands.NewRejectOrderCommandHandler(store, emitter)
	h.cancel = commands.NewCancelOrderCommandHandler(store, emitter)
	h.advance = commands.NewAdvanceRobotCommandHandler(store, registry, issuer, sender, policy, emitter, logger)
	h.confirm = commands.NewConfirmDeliveryCommandHandler(store, registry, issuer, emitter, logger)
	h.resend = commands.NewResendDeliveryOTPCommandHandler(store, issuer, sender, policy, logger)
	h.abort = commands.NewAbortOrderCommandHandler(store, registry, emitter, logger)
	h.pending = commands.NewAssignPendingOrdersCommandHandler(store, registry, h.assign, logger)
	h.move = commands.NewMoveRobotsCommandHandler(store, registry, logger)
	h.register = commands.NewRegisterRobotCommandHandler(registry, 6)
	return h
}

// createOrder places a 0.6 kg burger and fries order.
func (h *harness) createOrder(t *testing.T) *order.Order {
	t.Helper()
	burger, err := order.NewLineItem("burger", 1299, 1, 0.4, 1.5)
	require.NoError(t, err)
	fries, err := order.NewLineItem("fries", 899, 1, 0.2, 0.8)
	require.NoError(t, err)
	return h.createOrderWith(t, burger, fries)
}

func (h *harness) createOrderWith(t *testing.T, items ...order.LineItem) *order.Order {
	t.Helper()
	vendorAddr, err := kernel.NewAddress("1 Vendor St", "New York", "NY", "10001", vendorPoint)
	require.NoError(t, err)
	customerAddr, err := kernel.NewAddress("5 Customer Ave", "New York", "NY", "10018", customerPoint)
	require.NoError(t, err)

	cmd, err := commands.NewCreateOrderCommand(customer, kernel.NewUUID(), vendor.ID,
		items, vendorAddr, customerAddr)
	require.NoError(t, err)

	created, err := h.create.Handle(t.Context(), cmd)
	require.NoError(t, err)
	return created
}

// registerRobot adds a 10 kg / 40 L robot.
func (h *harness) registerRobot(t *testing.T, name string, loc kernel.Location) *robot.Robot {
	t.Helper()
	return h.registerRobotWith(t, name, loc, kernel.MustNewPayload(10, 40))
}

func (h *harness) registerRobotWith(t *testing.T, name string, loc kernel.Location, capacity kernel.Payload) *robot.Robot {
	t.Helper()
	cmd, err := commands.NewRegisterRobotCommand(admin, kernel.NewUUID(), name, loc, 90, capacity, 0)
	require.NoError(t, err)
	r, err := h.register.Handle(t.Context(), cmd)
	require.NoError(t, err)
	return r
}

func (h *harness) approveOrder(t *testing.T, id kernel.UUID) *order.Order {
	t.Helper()
	cmd, err := commands.NewApproveOrderCommand(vendor, id)
	require.NoError(t, err)
	o, err := h.approve.Handle(t.Context(), cmd)
	require.NoError(t, err)
	return o
}

func (h *harness) advanceOrder(t *testing.T, id kernel.UUID, next order.Status) *order.Order {
	t.Helper()
	cmd, err := commands.NewAdvanceRobotCommand(vendor, id, next)
	require.NoError(t, err)
	o, err := h.advance.Handle(t.Context(), cmd)
	require.NoError(t, err)
	return o
}

func (h *harness) robot(t *testing.T, id kernel.UUID) *robot.Robot {
	t.Helper()
	r, err := h.registry.Get(context.Background(), id)
	require.NoError(t, err)
	return r
}

// assignConcurrently runs one assign per order id at the same time and returns their errors.
func (h *harness) assignConcurrently(t *testing.T, orderIDs ...kernel.UUID) []error {
	t.Helper()
	errList := make([]error, len(orderIDs))
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i, id := range orderIDs {
		cmd, err := commands.NewAssignRobotCommand(vendor, id)
		require.NoError(t, err)

		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errList[i] = h.assign.Handle(context.Background(), cmd)
		}()
	}
	close(start)
	wg.Wait()
	return errList
}

// busyRobots returns the robots among ids that are not idle.
func (h *harness) busyRobots(t *testing.T, ids ...kernel.UUID) []*robot.Robot {
	t.Helper()
	var busy []*robot.Robot
	for _, id := range ids {
		if r := h.robot(t, id); r.Status() != robot.Idle {
			busy = append(busy, r)
		}
	}
	return busy
}

func countNil(errList []error) int {
	n := 0
	for _, err := range errList {
		if err == nil {
			n++
		}
	}
	return n
}
