// Package metrics exposes engine counters to Prometheus. A nil *Metrics
// records nothing.
package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks engine traffic and supervision statistics.
type Metrics struct {
	mu sync.Mutex

	framesReceived     prometheus.Counter
	framesUnregistered prometheus.Counter
	lengthMismatch     *prometheus.CounterVec
	timeouts           *prometheus.CounterVec
	framesSent         *prometheus.CounterVec
	framesDropped      *prometheus.CounterVec
	ticks              prometheus.Counter
	tickDuration       prometheus.Histogram

	registerer prometheus.Registerer
	registered bool
}

func newCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "canmux",
		Subsystem: "engine",
		Name:      name,
		Help:      help,
	})
}

func newCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "canmux",
			Subsystem: "engine",
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// New creates the collectors. A nil registerer selects the default one.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &Metrics{
		registerer:         registerer,
		framesReceived:     newCounter("frames_received_total", "Frames drained from the transport"),
		framesUnregistered: newCounter("frames_unregistered_total", "Frames discarded because no registry entry matched"),
		lengthMismatch:     newCounterVec("length_mismatch_total", "Registered frames rejected for their data length", []string{"id"}),
		timeouts:           newCounterVec("timeouts_total", "Message timeouts fired by the supervisor", []string{"id"}),
		framesSent:         newCounterVec("frames_sent_total", "Frames accepted by the transport", []string{"id"}),
		framesDropped:      newCounterVec("frames_dropped_total", "Frames the transport refused", []string{"id"}),
		ticks:              newCounter("ticks_total", "Engine ticks executed"),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "canmux",
			Subsystem: "engine",
			Name:      "tick_duration_seconds",
			Help:      "Wall time spent in one engine tick",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005},
		}),
	}
}

// Register registers the collectors. Safe to call multiple times.
func (m *Metrics) Register() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	collectors := []prometheus.Collector{
		m.framesReceived,
		m.framesUnregistered,
		m.lengthMismatch,
		m.timeouts,
		m.framesSent,
		m.framesDropped,
		m.ticks,
		m.tickDuration,
	}

	for _, c := range collectors {
		if err := m.registerer.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}

	m.registered = true
	return nil
}

// IDLabel formats a CAN identifier the way the id label expects.
func IDLabel(id uint32, extended bool) string {
	if extended {
		return fmt.Sprintf("0x%08X", id)
	}
	return fmt.Sprintf("0x%03X", id)
}

func (m *Metrics) FrameReceived() {
	if m == nil {
		return
	}
	m.framesReceived.Inc()
}

func (m *Metrics) FrameUnregistered() {
	if m == nil {
		return
	}
	m.framesUnregistered.Inc()
}

func (m *Metrics) LengthMismatch(id string) {
	if m == nil {
		return
	}
	m.lengthMismatch.WithLabelValues(id).Inc()
}

func (m *Metrics) Timeout(id string) {
	if m == nil {
		return
	}
	m.timeouts.WithLabelValues(id).Inc()
}

func (m *Metrics) FrameSent(id string) {
	if m == nil {
		return
	}
	m.framesSent.WithLabelValues(id).Inc()
}

func (m *Metrics) FrameDropped(id string) {
	if m == nil {
		return
	}
	m.framesDropped.WithLabelValues(id).Inc()
}

// Tick records one engine tick and its duration.
func (m *Metrics) Tick(d time.Duration) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.tickDuration.Observe(d.Seconds())
}
