// Package sink delivers sheet records to the external tabular store in the
// background so that a slow or failing store never affects the API response.
package sink

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/i474232898/solar-power-monitor/internal/solar"
)

// Writer appends a single record to the store and returns its reply.
type Writer interface {
	Write(ctx context.Context, rec solar.SheetRecord) (string, error)
}

// Gate decides whether records may be written right now.
type Gate interface {
	Allow(ctx context.Context) bool
}

// AlwaysOpen is a Gate that allows every write.
type AlwaysOpen struct{}

func (AlwaysOpen) Allow(context.Context) bool { return true }

// Config tunes the dispatcher.
type Config struct {
	QueueSize    int
	WriteTimeout time.Duration
	Logger       *slog.Logger
}

// Dispatcher queues records and writes them one at a time on a single worker.
// Outcomes are only logged; nothing is retried.
type Dispatcher struct {
	writer  Writer
	gate    Gate
	queue   chan solar.SheetRecord
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
	done    chan struct{}
}

// New creates a Dispatcher. A nil gate allows every write.
func New(writer Writer, gate Gate, cfg Config) *Dispatcher {
	if gate == nil {
		gate = AlwaysOpen{}
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		writer:  writer,
		gate:    gate,
		queue:   make(chan solar.SheetRecord, cfg.QueueSize),
		timeout: cfg.WriteTimeout,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Start launches the worker. Calling Start more than once has no effect.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	go d.run()
}

// Submit enqueues rec without blocking. When the queue is full or the
// dispatcher is closed the record is dropped and logged.
func (d *Dispatcher) Submit(rec solar.SheetRecord) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("sink closed; dropping record", "location", rec.Location, "id", rec.ID)
		return
	}

	select {
	case d.queue <- rec:
	default:
		d.logger.Error("sink queue full; dropping record", "location", rec.Location, "id", rec.ID)
	}
}

// Close stops accepting records and waits for queued ones to be written
// or for ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		return nil
	}

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for rec := range d.queue {
		d.deliver(rec)
	}
}

func (d *Dispatcher) deliver(rec solar.SheetRecord) {
	if !d.allow() {
		d.logger.Info("outside daylight hours; record not saved", "location", rec.Location, "id", rec.ID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	d.logger.Debug("saving record", "location", rec.Location, "id", rec.ID)

	reply, err := d.writer.Write(ctx, rec)
	if err != nil {
		if !errors.Is(err, solar.ErrSinkWriteFailure) {
			err = solar.WriteFailed("sink", err)
		}
		d.logger.Error("failed to save record",
			"location", rec.Location,
			"id", rec.ID,
			"record", rec,
			"error", err,
		)
		return
	}

	d.logger.Info("record saved", "location", rec.Location, "id", rec.ID, "response", reply)
}

// allow checks the gate under its own deadline so a slow lookup never eats
// into the write's budget.
func (d *Dispatcher) allow() bool {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	return d.gate.Allow(ctx)
}
