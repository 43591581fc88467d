// ABOUTME: Prometheus metrics over bridge pump, engine and link counters
// ABOUTME: Values are read from live snapshots at scrape time
package metrics

import (
	"log"
	"net/http"

	"github.com/Resonate-Protocol/audiobridge/pkg/adm"
	"github.com/Resonate-Protocol/audiobridge/pkg/bridge"
	"github.com/Resonate-Protocol/audiobridge/pkg/engine"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "audiobridge"

// Bridge is the part of *bridge.Bridge the collectors read
type Bridge interface {
	Status() bridge.Status
	Stats() engine.Stats
}

// LinkStats reports remote link counters
type LinkStats struct {
	Sent     int64
	Received int64
	Dropped  int64
	Buffered int
}

// Metrics owns a registry populated with the bridge's collectors
type Metrics struct {
	registry *prometheus.Registry
}

// New registers collectors for b. link may be nil when there is no
// remote peer.
func New(b Bridge, link func() LinkStats) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	for _, d := range adm.Directions {
		registerDirection(factory, b, d)
	}

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "volume_percent",
		Help:      "Playout volume (0-100)",
	}, func() float64 { return float64(b.Status().Volume) })

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "muted",
		Help:      "1 when playout is muted",
	}, func() float64 { return boolValue(b.Status().Muted) })

	engineCounter(factory, "engine_delivered_total", "Recording buffers handed to the sink",
		func(s engine.Stats) int64 { return s.Delivered }, b)
	engineCounter(factory, "engine_refills_total", "Playout buffers requested from the source",
		func(s engine.Stats) int64 { return s.Refills }, b)
	engineCounter(factory, "engine_underruns_total", "Playout refills the source could not fill",
		func(s engine.Stats) int64 { return s.Underruns }, b)
	engineCounter(factory, "engine_source_errors_total", "Playout source read failures",
		func(s engine.Stats) int64 { return s.SourceErrors }, b)

	if link != nil {
		registerLink(factory, link)
	}

	return &Metrics{registry: reg}
}

func registerDirection(factory promauto.Factory, b Bridge, d adm.Direction) {
	labels := prometheus.Labels{"direction": d.String()}
	status := func() bridge.DirectionStatus { return b.Status().Direction(d) }

	counter := func(name, help string, value func(bridge.DirectionStatus) int64) {
		factory.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, func() float64 { return float64(value(status())) })
	}
	gauge := func(name, help string, value func(bridge.DirectionStatus) float64) {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, func() float64 { return value(status()) })
	}

	counter("pump_bytes_total", "Bytes moved between the device and the buffer",
		func(s bridge.DirectionStatus) int64 { return s.Pump.Bytes })
	counter("pump_bursts_total", "Full-buffer notifications or playout refills",
		func(s bridge.DirectionStatus) int64 { return s.Pump.Bursts })
	counter("pump_contended_total", "Pump calls rejected because another caller held the buffer",
		func(s bridge.DirectionStatus) int64 { return s.Pump.Contended })
	counter("dropped_bursts_total", "Device bursts lost to pump errors",
		func(s bridge.DirectionStatus) int64 { return s.Dropped })

	gauge("initialized", "1 when the direction is initialized",
		func(s bridge.DirectionStatus) float64 { return boolValue(s.Initialized) })
	gauge("active", "1 when the direction is started",
		func(s bridge.DirectionStatus) float64 { return boolValue(s.Active) })
	gauge("warning", "1 while the device reports a warning",
		func(s bridge.DirectionStatus) float64 { return boolValue(s.Warning) })
	gauge("error", "1 while the device reports an error",
		func(s bridge.DirectionStatus) float64 { return boolValue(s.Error) })
	gauge("delay_seconds", "Device latency estimate",
		func(s bridge.DirectionStatus) float64 { return s.Delay.Seconds() })
}

func engineCounter(factory promauto.Factory, name, help string, value func(engine.Stats) int64, b Bridge) {
	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, func() float64 { return float64(value(b.Stats())) })
}

func registerLink(factory promauto.Factory, link func() LinkStats) {
	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "link_sent_total",
		Help:      "Recorded chunks sent to the peer",
	}, func() float64 { return float64(link().Sent) })
	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "link_received_total",
		Help:      "Playout chunks received from the peer",
	}, func() float64 { return float64(link().Received) })
	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "link_dropped_total",
		Help:      "Chunks lost to full queues or codec errors",
	}, func() float64 { return float64(link().Dropped) })
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "link_buffered_bytes",
		Help:      "Playout bytes waiting in the jitter buffer",
	}, func() float64 { return float64(link().Buffered) })
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Serve exposes /metrics on addr until the listener fails
func (m *Metrics) Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	log.Printf("Metrics listening on %s/metrics", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("Metrics server error: %v", err)
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
