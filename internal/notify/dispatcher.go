package notify

import (
	"context"
	"fmt"
	"log/slog"
	"ouvidoria/backend/internal/config"
	"ouvidoria/backend/internal/metrics"
	"sync"
	"time"
)

// Dispatcher runs a Notifier in the background. Each announcement gets its own
// goroutine and a context detached from the caller, bounded by a timeout, so
// a cancelled request neither aborts nor waits for delivery.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

type Option func(d *Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

// NewDispatcher constructs a Dispatcher around n.
func NewDispatcher(n Notifier, opts ...Option) *Dispatcher {
	d := &Dispatcher{notifier: n, timeout: config.DefaultNotifyTimeout, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	if d.notifier == nil {
		d.notifier = Nop{}
	}
	return d
}

// Dispatch announces a complaint without blocking. The outcome is logged.
// Once Wait has been called, announcements are dropped with a warning.
func (d *Dispatcher) Dispatch(ctx context.Context, protocol, category string) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Warn("complaint notification skipped, dispatcher closed", "protocol", protocol, "category", category)
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()

		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		err := d.deliver(nctx, protocol, category)
		d.metrics.ObserveNotification(err)
		if err != nil {
			d.logger.Error("complaint notification failed", "protocol", protocol, "category", category, "error", err)
			return
		}
		d.logger.Info("complaint notification sent", "protocol", protocol, "category", category)
	}()
}

func (d *Dispatcher) deliver(ctx context.Context, protocol, category string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	return d.notifier.Notify(ctx, protocol, category)
}

// Wait stops accepting announcements and blocks until every dispatched one
// has finished.
func (d *Dispatcher) Wait() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}
