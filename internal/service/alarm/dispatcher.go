// Package alarm moves alarm side effects off the capture path.
package alarm

import (
	"context"
	"sync"
	"sync/atomic"

	"guardcam/internal/dto"
	"guardcam/internal/logger"
)

// Handler reacts to one alarm event. Handlers run one at a time, in
// registration order, on the dispatcher goroutine.
type Handler interface {
	HandleAlarm(ctx context.Context, event dto.AlarmEvent) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event dto.AlarmEvent) error

func (f HandlerFunc) HandleAlarm(ctx context.Context, event dto.AlarmEvent) error {
	return f(ctx, event)
}

// Dispatcher queues alarm events and fans them out to handlers. Emit never
// blocks; a full queue drops the event.
type Dispatcher struct {
	handlers []Handler
	queue    chan dto.AlarmEvent
	logger   *logger.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	emitted   atomic.Int64
	dropped   atomic.Int64
	delivered atomic.Int64
}

func NewDispatcher(queueSize int, logger *logger.Logger, handlers ...Handler) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		handlers: handlers,
		queue:    make(chan dto.AlarmEvent, queueSize),
		logger:   logger,
	}
}

// Start launches the consumer goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go d.consume(ctx)
	d.logger.Info("🚨 Alarm dispatcher started with %d handler(s), queue size %d", len(d.handlers), cap(d.queue))
}

// Emit queues an event. It returns false when the event was dropped.
func (d *Dispatcher) Emit(event dto.AlarmEvent) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.dropped.Add(1)
		return false
	}

	select {
	case d.queue <- event:
		d.emitted.Add(1)
		return true
	default:
		d.dropped.Add(1)
		d.logger.Warning("⚠️  Alarm queue full - dropping event %s for frame %d", event.ID, event.Frame)
		return false
	}
}

// Close stops accepting events and waits until the queued ones are handled.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info("🛑 Alarm dispatcher stopped: %d emitted, %d delivered, %d dropped",
		d.emitted.Load(), d.delivered.Load(), d.dropped.Load())
}

// Dropped is the number of events rejected by Emit.
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

func (d *Dispatcher) consume(ctx context.Context) {
	defer d.wg.Done()

	for event := range d.queue {
		for _, h := range d.handlers {
			if err := h.HandleAlarm(ctx, event); err != nil {
				d.logger.Error("Alarm handler failed for event %s: %v", event.ID, err)
			}
		}
		d.delivered.Add(1)
	}
}
