// Package replay feeds a recorded candump log through an engine without a
// bus, one tick per tick period of log time.
package replay

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/roffe/canmux"
	"github.com/roffe/canmux/pkg/candump"
	"github.com/roffe/canmux/pkg/engine"
	"github.com/roffe/canmux/pkg/metrics"
	"github.com/roffe/canmux/pkg/signal"
	"go.uber.org/ratelimit"
)

const txBuffer = 64

// Options configures a replay. Bus is required.
type Options struct {
	Bus     signal.Bus
	Tick    time.Duration // log time per tick, 1ms when zero
	Tail    time.Duration // keep ticking this long after the last record
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Realtime paces ticks to wall clock time instead of running flat out.
	Realtime bool

	// Fed is called with the number of records delivered on a tick.
	Fed func(n int)
	// Sent is called for every frame the engine transmits.
	Sent func(tick uint64, f canmux.CANFrame)
}

// Result summarises a finished replay.
type Result struct {
	Ticks    uint64
	Received int
	Sent     int
}

// Play replays records in order. A record is delivered on the first tick
// whose log time is not before the record's timestamp.
func Play(ctx context.Context, records []candump.Record, opts Options) (Result, error) {
	var res Result
	if opts.Bus == nil {
		return res, errors.New("replay: nil bus")
	}
	if opts.Tick <= 0 {
		opts.Tick = time.Millisecond
	}
	if len(records) == 0 {
		return res, nil
	}

	rx := make(chan canmux.CANFrame, len(records))
	tx := make(chan canmux.CANFrame, txBuffer)
	tr := canmux.NewChannelTransport(rx, tx, nil)

	eopts := []engine.Option{engine.WithMetrics(opts.Metrics)}
	if opts.Logger != nil {
		eopts = append(eopts, engine.WithLogger(opts.Logger))
	}
	eng, err := engine.New(tr, opts.Bus, eopts...)
	if err != nil {
		return res, err
	}

	start := records[0].Time
	last := uint64((records[len(records)-1].Time.Sub(start) + opts.Tail) / opts.Tick)

	var rl ratelimit.Limiter = ratelimit.NewUnlimited()
	if opts.Realtime {
		rl = ratelimit.New(1, ratelimit.Per(opts.Tick), ratelimit.WithoutSlack)
	}

	i := 0
	for tick := uint64(0); tick <= last; tick++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		rl.Take()
		due := start.Add(time.Duration(tick) * opts.Tick)
		n := 0
		for i < len(records) && !records[i].Time.After(due) {
			f := records[i].Frame
			f.FrameType = canmux.Incoming
			rx <- f
			i++
			n++
		}
		if n > 0 {
			res.Received += n
			if opts.Fed != nil {
				opts.Fed(n)
			}
		}
		tickErr := eng.Tick()
		res.Ticks++
	drain:
		for {
			select {
			case f := <-tx:
				res.Sent++
				if opts.Sent != nil {
					opts.Sent(tick, f)
				}
			default:
				break drain
			}
		}
		if tickErr != nil {
			return res, tickErr
		}
	}
	return res, nil
}
