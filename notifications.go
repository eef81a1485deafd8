package gqlauth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NotificationType enumerates lifecycle events that notify the user.
type NotificationType string

const (
	NotificationRegistered         NotificationType = "account.registered"
	NotificationVerified           NotificationType = "account.verified"
	NotificationArchived           NotificationType = "account.archived"
	NotificationPasswordChanged    NotificationType = "account.password.changed"
	NotificationPasswordResetStart NotificationType = "account.password.reset_requested"
	NotificationActivationResent   NotificationType = "account.activation.resent"
)

// Notification is a typed lifecycle event handed to the dispatcher. Context
// carries template data such as one-time token links.
type Notification struct {
	Type       NotificationType
	UserRef    uuid.UUID
	Email      string
	Context    map[string]any
	OccurredAt time.Time
}

// Dispatcher delivers lifecycle notifications, typically as email. The
// triggering operation never observes delivery failures; implementations
// log and move on.
type Dispatcher interface {
	Dispatch(ctx context.Context, notification Notification) error
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(ctx context.Context, notification Notification) error

// Dispatch implements Dispatcher.
func (f DispatcherFunc) Dispatch(ctx context.Context, notification Notification) error {
	if f == nil {
		return nil
	}
	return f(ctx, notification)
}

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(context.Context, Notification) error {
	return nil
}

func normalizeDispatcher(d Dispatcher) Dispatcher {
	if d == nil {
		return noopDispatcher{}
	}
	return d
}

// AsyncDispatcher decouples notification delivery from the request path. A
// single worker drains a buffered queue; enqueueing never blocks and sink
// failures are logged, never surfaced to the operation that emitted the
// event.
type AsyncDispatcher struct {
	sink   Dispatcher
	queue  chan Notification
	logger Logger
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// AsyncDispatcherOption customizes the dispatcher.
type AsyncDispatcherOption func(*AsyncDispatcher)

// WithDispatcherLogger overrides the logger used for delivery failures.
func WithDispatcherLogger(logger Logger) AsyncDispatcherOption {
	return func(d *AsyncDispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithDispatcherQueueSize sets the queue depth before events are dropped.
func WithDispatcherQueueSize(size int) AsyncDispatcherOption {
	return func(d *AsyncDispatcher) {
		if size > 0 {
			d.queue = make(chan Notification, size)
		}
	}
}

// NewAsyncDispatcher starts a background worker delivering to sink.
func NewAsyncDispatcher(sink Dispatcher, opts ...AsyncDispatcherOption) *AsyncDispatcher {
	d := &AsyncDispatcher{
		sink:   normalizeDispatcher(sink),
		queue:  make(chan Notification, 64),
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	d.wg.Add(1)
	go d.run()

	return d
}

// Dispatch enqueues the notification and returns immediately. A full queue
// drops the event with a warning rather than blocking the request; so does
// a dispatcher that was already closed.
func (d *AsyncDispatcher) Dispatch(_ context.Context, notification Notification) error {
	if notification.OccurredAt.IsZero() {
		notification.OccurredAt = time.Now()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		d.logger.Warn("dispatcher closed, dropping event %s for user %s", notification.Type, notification.UserRef)
		return nil
	}

	select {
	case d.queue <- notification:
	default:
		d.logger.Warn("notification queue full, dropping event %s for user %s", notification.Type, notification.UserRef)
	}

	return nil
}

// Close stops accepting events and waits for the queue to drain. Events
// dispatched after Close are dropped, never delivered.
func (d *AsyncDispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *AsyncDispatcher) run() {
	defer d.wg.Done()

	for notification := range d.queue {
		// detached from the originating request on purpose
		if err := d.sink.Dispatch(context.Background(), notification); err != nil {
			d.logger.Warn("notification dispatch error: %v", err)
		}
	}
}
