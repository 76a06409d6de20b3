package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/assistencia-service/internal/events"
)

// ErrQueueFull is returned by Send when the buffer has no room left.
var ErrQueueFull = errors.New("notification queue full")

// NotificationWorker forwards events to an external sink off the request
// path. Send only enqueues; Run drains the queue until its context ends.
type NotificationWorker struct {
	sink     events.Sink
	queue    chan events.Event
	logger   *zap.Logger
	attempts int
	backoff  time.Duration
	done     chan struct{}
	once     sync.Once
}

// NewNotificationWorker builds a worker with a queue of the given size.
func NewNotificationWorker(sink events.Sink, buffer int, logger *zap.Logger) *NotificationWorker {
	if buffer <= 0 {
		buffer = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{
		sink:     sink,
		queue:    make(chan events.Event, buffer),
		logger:   logger,
		attempts: 3,
		backoff:  200 * time.Millisecond,
		done:     make(chan struct{}),
	}
}

// Send enqueues event without blocking.
func (w *NotificationWorker) Send(_ context.Context, event events.Event) error {
	select {
	case w.queue <- event:
		return nil
	default:
		w.logger.Warn("notification dropped",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
		return ErrQueueFull
	}
}

// Run forwards queued events until ctx is cancelled, then flushes what is
// already buffered.
func (w *NotificationWorker) Run(ctx context.Context) {
	defer w.once.Do(func() { close(w.done) })
	for {
		select {
		case event := <-w.queue:
			w.deliver(ctx, event)
		case <-ctx.Done():
			w.flush()
			return
		}
	}
}

// Wait blocks until Run has returned.
func (w *NotificationWorker) Wait() {
	<-w.done
}

func (w *NotificationWorker) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case event := <-w.queue:
			w.deliver(ctx, event)
		default:
			return
		}
	}
}

func (w *NotificationWorker) deliver(ctx context.Context, event events.Event) {
	var err error
	for attempt := 1; attempt <= w.attempts; attempt++ {
		if err = w.sink.Send(ctx, event); err == nil {
			return
		}
		if attempt == w.attempts {
			break
		}
		select {
		case <-time.After(w.backoff * time.Duration(attempt)):
		case <-ctx.Done():
			attempt = w.attempts
		}
	}
	w.logger.Error("notification not delivered",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Error(err))
}
