// Package scheduler runs groups of tasks at integer multiples of a base
// tick.
package scheduler

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	ErrPeriod = errors.New("invalid period")
	ErrBound  = errors.New("invalid tick bound")
)

// Task is one unit of periodic work.
type Task func() error

type binding struct {
	period uint32
	tasks  []Task
}

// Scheduler holds the tick counter and the period bindings. It is not safe
// for concurrent use.
type Scheduler struct {
	tick     uint32
	lcm      uint32
	bound    uint32
	wrap     uint32
	bindings []binding
}

type Option func(*Scheduler)

// WithTickBound makes the counter wrap to zero at n instead of at the
// largest multiple of the periods' LCM that fits in a uint32. n must be a
// multiple of every period.
func WithTickBound(n uint32) Option {
	return func(s *Scheduler) {
		s.bound = n
	}
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{lcm: 1}
	for _, o := range opts {
		o(s)
	}
	s.wrap = s.wrapFor(s.lcm)
	return s
}

// Add binds tasks to a period in ticks. Tasks sharing a period run in the
// order they were added. Adding after ticking has started keeps the phase
// of the periods already bound; the counter is folded into the new wrap.
func (s *Scheduler) Add(period uint32, tasks ...Task) error {
	if period == 0 {
		return fmt.Errorf("%w: 0", ErrPeriod)
	}
	l, ok := lcm(s.lcm, period)
	if !ok {
		return fmt.Errorf("%w: LCM with %d overflows", ErrPeriod, period)
	}
	if s.bound != 0 && s.bound%l != 0 {
		return fmt.Errorf("%w: %d is not a multiple of %d", ErrBound, s.bound, l)
	}
	s.lcm = l
	s.wrap = s.wrapFor(l)
	s.tick %= s.wrap

	i := sort.Search(len(s.bindings), func(i int) bool { return s.bindings[i].period >= period })
	if i < len(s.bindings) && s.bindings[i].period == period {
		s.bindings[i].tasks = append(s.bindings[i].tasks, tasks...)
		return nil
	}
	s.bindings = append(s.bindings, binding{})
	copy(s.bindings[i+1:], s.bindings[i:])
	s.bindings[i] = binding{period: period, tasks: append([]Task(nil), tasks...)}
	return nil
}

func (s *Scheduler) wrapFor(l uint32) uint32 {
	if s.bound != 0 {
		return s.bound
	}
	return math.MaxUint32 / l * l
}

// Tick runs every binding whose period divides the current tick, fastest
// period first, then advances the counter. The first call is tick 0. Every
// due task runs; their errors are joined.
func (s *Scheduler) Tick() error {
	var errs []error
	for _, b := range s.bindings {
		if s.tick%b.period != 0 {
			continue
		}
		for _, task := range b.tasks {
			if err := task(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	s.tick++
	if s.tick >= s.wrap {
		s.tick = 0
	}
	return errors.Join(errs...)
}

// Ticks returns the value of the counter for the next Tick.
func (s *Scheduler) Ticks() uint32 {
	return s.tick
}

// Periods returns the bound periods in execution order.
func (s *Scheduler) Periods() []uint32 {
	out := make([]uint32, len(s.bindings))
	for i, b := range s.bindings {
		out[i] = b.period
	}
	return out
}

// Wrap returns the counter value at which the counter returns to zero.
func (s *Scheduler) Wrap() uint32 {
	return s.wrap
}

func gcd(a, b uint32) uint32 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b uint32) (uint32, bool) {
	l := uint64(a) / uint64(gcd(a, b)) * uint64(b)
	if l > math.MaxUint32 {
		return 0, false
	}
	return uint32(l), true
}
