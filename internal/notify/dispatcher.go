// Package notify moves committed-state notifications off the request path.
// Services hand events to a Dispatcher after their transaction commits; a
// single goroutine publishes them.  Nothing here can fail or slow down the
// operation that produced the event.
package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/service-marketplace/internal/metrics"
	"github.com/iliyamo/service-marketplace/internal/queue"
)

// Publisher is the outbound transport, normally *queue.Publisher.
type Publisher interface {
	Publish(ctx context.Context, ev queue.NotificationEvent) error
}

// Dispatcher buffers events in memory and publishes them one at a time.
// Events still buffered when the process dies are lost.
type Dispatcher struct {
	pub            Publisher
	log            *zap.Logger
	events         chan queue.NotificationEvent
	publishTimeout time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

// NewDispatcher creates a dispatcher with room for buffer pending events.
func NewDispatcher(pub Publisher, buffer int, log *zap.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	return &Dispatcher{
		pub:            pub,
		log:            log.Named("notify"),
		events:         make(chan queue.NotificationEvent, buffer),
		publishTimeout: 5 * time.Second,
		done:           make(chan struct{}),
	}
}

// Enqueue hands ev to the dispatcher without blocking.  It reports false
// when the buffer is full or the dispatcher is closed and the event was
// dropped.
func (d *Dispatcher) Enqueue(ev queue.NotificationEvent) bool {
	select {
	case <-d.done:
		d.drop(ev, "dispatcher closed")
		return false
	default:
	}
	select {
	case d.events <- ev:
		metrics.NotificationsEnqueued.Inc()
		return true
	default:
		d.drop(ev, "buffer full")
		return false
	}
}

func (d *Dispatcher) drop(ev queue.NotificationEvent, reason string) {
	metrics.NotificationsDropped.Inc()
	d.log.Warn("notification dropped",
		zap.String("reason", reason),
		zap.String("event_id", ev.ID),
		zap.String("kind", ev.Kind),
		zap.Uint64("seller_id", ev.SellerID))
}

// Run publishes events until Close is called or ctx is done, then drains
// whatever is still buffered.  Publish failures are logged and the event
// is discarded.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case ev := <-d.events:
			d.publish(ctx, ev)
		case <-d.done:
			d.drain(ctx)
			return nil
		case <-ctx.Done():
			d.drain(context.Background())
			return nil
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case ev := <-d.events:
			d.publish(ctx, ev)
		default:
			return
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, ev queue.NotificationEvent) {
	pctx, cancel := context.WithTimeout(ctx, d.publishTimeout)
	defer cancel()
	if err := d.pub.Publish(pctx, ev); err != nil {
		metrics.NotificationsPublished.WithLabelValues("error").Inc()
		d.log.Warn("notification publish failed",
			zap.String("event_id", ev.ID),
			zap.String("kind", ev.Kind),
			zap.Error(err))
		return
	}
	metrics.NotificationsPublished.WithLabelValues("ok").Inc()
}

// Close stops accepting events.  Run returns after draining the buffer.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() { close(d.done) })
}
