package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"robodelivery/internal/core/domain/model/notification"
	"robodelivery/internal/core/ports"
)

const (
	DefaultWorkers        = 2
	DefaultBufferSize     = 1024
	DefaultStoreTimeout   = 3 * time.Second
	DefaultPublishTimeout = 2 * time.Second
)

type recorder interface {
	OrderTransition(ctx context.Context, from, to string)
	NotificationPublish(ctx context.Context, ok bool)
}

type noopRecorder struct{}

func (noopRecorder) OrderTransition(context.Context, string, string) {}
func (noopRecorder) NotificationPublish(context.Context, bool)       {}

// Config sizes the worker pool. Zero fields take the package defaults.
type Config struct {
	Workers        int
	BufferSize     int
	StoreTimeout   time.Duration
	PublishTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = DefaultStoreTimeout
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = DefaultPublishTimeout
	}
	return c
}

// Dispatcher is the outbox between commands and transports. Emit never blocks:
// when the queue is full the change is dropped and logged. Records that were
// stored but not published are picked up again by RepublishPending.
type Dispatcher struct {
	repo      ports.NotificationRepository
	transport ports.NotificationTransport
	cfg       Config
	logger    *slog.Logger
	metrics   recorder
	now       func() time.Time

	queue  chan *notification.Notification
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithMetrics records transitions and publish outcomes.
func WithMetrics(m recorder) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// NewDispatcher creates the dispatcher without starting it. A nil transport
// stores notifications without publishing them.
//
// Example:
//
//	d := notify.NewDispatcher(notificationRepo, notify.Fanout{hub, kafkaPublisher},
//		notify.Config{Workers: 4}, logger)
//	d.Start(ctx)
//	defer d.Close()
func NewDispatcher(
	repo ports.NotificationRepository,
	transport ports.NotificationTransport,
	cfg Config,
	logger *slog.Logger,
	opts ...Option,
) *Dispatcher {
	cfg = cfg.withDefaults()
	if transport == nil {
		transport = NoopTransport{}
	}

	d := &Dispatcher{
		repo:      repo,
		transport: transport,
		cfg:       cfg,
		logger:    logger.With("component", "notification_dispatcher"),
		metrics:   noopRecorder{},
		now:       time.Now,
		queue:     make(chan *notification.Notification, cfg.BufferSize),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches the worker goroutines. They run until Stop.
func (d *Dispatcher) Start() {
	for range d.cfg.Workers {
		d.wg.Add(1)
		go d.work()
	}
	d.logger.Info("notification dispatcher started", "workers", d.cfg.Workers, "buffer", d.cfg.BufferSize)
}

// Stop rejects new changes, drains the queue and waits for the workers.
// Calling it more than once is safe.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info("notification dispatcher stopped")
}

// Emit composes notifications for a committed change and enqueues them.
// It never fails the caller. A notification that cannot be built is logged and
// skipped; the others for the same change are still delivered.
func (d *Dispatcher) Emit(ctx context.Context, change OrderChange) {
	for _, e := range change.Events {
		d.metrics.OrderTransition(ctx, e.From.String(), e.To.String())
	}

	notifications, err := Compose(change)
	if err != nil {
		d.logger.ErrorContext(ctx, "skipped notifications that failed to compose",
			"composed", len(notifications), "error", err)
	}
	for _, n := range notifications {
		d.enqueue(ctx, n)
	}
}

// Send enqueues an already built notification.
func (d *Dispatcher) Send(ctx context.Context, n *notification.Notification) {
	d.enqueue(ctx, n)
}

func (d *Dispatcher) enqueue(ctx context.Context, n *notification.Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.WarnContext(ctx, "dispatcher stopped, notification dropped",
			"notification_id", n.ID().String(), "recipient_id", n.RecipientID())
		return
	}

	select {
	case d.queue <- n:
	default:
		d.logger.WarnContext(ctx, "notification queue full, dropped",
			"notification_id", n.ID().String(), "recipient_id", n.RecipientID(), "type", string(n.Type()))
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for n := range d.queue {
		d.deliver(context.Background(), n)
	}
}

// deliver stores and publishes independently; a failure of one does not skip the other.
func (d *Dispatcher) deliver(ctx context.Context, n *notification.Notification) {
	stored := d.store(ctx, n)
	err := d.publish(ctx, n)
	if !stored {
		return
	}
	d.record(ctx, n, err)
}

func (d *Dispatcher) store(ctx context.Context, n *notification.Notification) bool {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
	defer cancel()

	if err := d.repo.Add(ctx, n); err != nil {
		d.logger.ErrorContext(ctx, "failed to store notification",
			"notification_id", n.ID().String(), "recipient_id", n.RecipientID(), "error", err)
		return false
	}
	return true
}

func (d *Dispatcher) publish(ctx context.Context, n *notification.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.PublishTimeout)
	defer cancel()

	err := d.transport.Publish(ctx, n.RecipientID(), n.Envelope())
	d.metrics.NotificationPublish(ctx, err == nil)
	if err != nil {
		d.logger.WarnContext(ctx, "failed to publish notification",
			"notification_id", n.ID().String(), "recipient_id", n.RecipientID(), "error", err)
	}
	return err
}

func (d *Dispatcher) record(ctx context.Context, n *notification.Notification, publishErr error) {
	if publishErr != nil {
		n.RecordPublishFailure()
	} else {
		n.MarkPublished(d.now())
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
	defer cancel()

	if err := d.repo.Update(ctx, n); err != nil {
		d.logger.ErrorContext(ctx, "failed to record publish outcome",
			"notification_id", n.ID().String(), "error", err)
	}
}

// RepublishPending retries stored notifications that never reached a transport.
// It returns how many were published in this pass.
func (d *Dispatcher) RepublishPending(ctx context.Context, maxAttempts, limit int) (int, error) {
	pending, err := d.repo.ListUnpublished(ctx, maxAttempts, limit)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, n := range pending {
		if ctx.Err() != nil {
			return published, ctx.Err()
		}
		publishErr := d.publish(ctx, n)
		if publishErr == nil {
			published++
		}
		d.record(ctx, n, publishErr)
	}
	return published, nil
}

// NoopTransport accepts every message and delivers none. It stands in when no
// live transport is configured.
type NoopTransport struct{}

func (NoopTransport) Publish(context.Context, string, notification.Envelope) error { return nil }

// Fanout publishes to every transport and joins their errors.
type Fanout []ports.NotificationTransport

// Publish sends to every transport even when an earlier one fails.
func (f Fanout) Publish(ctx context.Context, recipientID string, message notification.Envelope) error {
	var errList []error
	for _, t := range f {
		if err := t.Publish(ctx, recipientID, message); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}
