// Package engine ties the registry, the codecs and the transmit scheduler
// to a transport and runs them one tick at a time.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roffe/canmux"
	"github.com/roffe/canmux/pkg/codec"
	"github.com/roffe/canmux/pkg/metrics"
	"github.com/roffe/canmux/pkg/registry"
	"github.com/roffe/canmux/pkg/scheduler"
	"github.com/roffe/canmux/pkg/signal"
)

// Engine is the signal multiplexer. Tick must be called from one goroutine.
type Engine struct {
	transport canmux.Transport
	bus       signal.Bus
	registry  *registry.Registry
	scheduler *scheduler.Scheduler

	logger    *slog.Logger
	metrics   *metrics.Metrics
	tickBound uint32
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics records engine statistics. Registration is left to the
// caller.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithTickBound sets the value at which the tick counter wraps. It must be
// a multiple of every transmit period.
func WithTickBound(n uint32) Option {
	return func(e *Engine) {
		e.tickBound = n
	}
}

// New builds an engine over the message tables and programs the
// transport's acceptance filters with every registered identifier.
func New(transport canmux.Transport, bus signal.Bus, opts ...Option) (*Engine, error) {
	if transport == nil {
		return nil, errors.New("engine: nil transport")
	}
	if bus == nil {
		return nil, errors.New("engine: nil bus")
	}
	e := &Engine{
		transport: transport,
		bus:       bus,
	}
	for _, o := range opts {
		o(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}

	reg, err := registry.New(codec.Inbound()...)
	if err != nil {
		return nil, err
	}
	e.registry = reg

	banks, err := canmux.PackFilterBanks(reg.FilterIDs())
	if err != nil {
		return nil, err
	}
	for i, ids := range banks {
		if err := transport.ConfigureFilters(i, ids); err != nil {
			return nil, fmt.Errorf("filter bank %d: %w", i, err)
		}
	}

	var sopts []scheduler.Option
	if e.tickBound != 0 {
		sopts = append(sopts, scheduler.WithTickBound(e.tickBound))
	}
	e.scheduler = scheduler.New(sopts...)
	for _, bucket := range codec.Outbound() {
		tasks := make([]scheduler.Task, len(bucket.Encoders))
		for i, enc := range bucket.Encoders {
			tasks[i] = e.sendTask(enc)
		}
		if err := e.scheduler.Add(bucket.Period, tasks...); err != nil {
			return nil, err
		}
	}

	e.logger.Debug("engine ready",
		"inbound", len(reg.Entries()),
		"filter_banks", len(banks),
		"periods", e.scheduler.Periods(),
	)
	return e, nil
}

func (e *Engine) sendTask(enc codec.Encoder) scheduler.Task {
	label := metrics.IDLabel(enc.ID, enc.Extended)
	return func() error {
		if err := e.transport.Send(enc.Encode(e.bus)); err != nil {
			e.metrics.FrameDropped(label)
			return fmt.Errorf("send %s: %w", label, err)
		}
		e.metrics.FrameSent(label)
		return nil
	}
}

// Tick drains the transport, dispatches every registered frame, supervises
// timeouts and runs the transmit buckets due on this tick. Only send
// failures are returned; the frames concerned are dropped.
func (e *Engine) Tick() error {
	start := time.Now()
	for {
		f, ok := e.transport.Receive()
		if !ok {
			break
		}
		e.dispatch(f)
	}
	for _, entry := range e.registry.Supervise(e.bus) {
		e.metrics.Timeout(metrics.IDLabel(entry.ID, entry.Extended))
		e.logger.Debug("message timeout", "id", entry.String())
	}
	err := e.scheduler.Tick()
	e.metrics.Tick(time.Since(start))
	return err
}

func (e *Engine) dispatch(f canmux.CANFrame) {
	e.metrics.FrameReceived()
	entry, ok := e.registry.Lookup(f.Identifier, f.Extended)
	if !ok {
		e.metrics.FrameUnregistered()
		return
	}
	e.registry.Reset(entry)
	if err := entry.Handler.Decode(f, e.bus); err != nil {
		e.metrics.LengthMismatch(metrics.IDLabel(entry.ID, entry.Extended))
		e.logger.Debug("frame rejected", "id", entry.String(), "len", f.DLC, "error", err)
	}
}

// Run calls Tick every period until ctx is done. Tick errors are logged at
// debug level since a congested bus would otherwise flood the log.
func (e *Engine) Run(ctx context.Context, period time.Duration) error {
	if period <= 0 {
		return fmt.Errorf("engine: invalid tick period %s", period)
	}
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if err := e.Tick(); err != nil {
				e.logger.Debug("tick", "tick", e.scheduler.Ticks(), "error", err)
			}
		}
	}
}

func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

func (e *Engine) Bus() signal.Bus {
	return e.bus
}

// Ticks returns the scheduler counter value for the next tick.
func (e *Engine) Ticks() uint32 {
	return e.scheduler.Ticks()
}
