// Package metrics holds the receiver's Prometheus series.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayusman/mudra/internal/gesture"
)

const namespace = "mudra"

// Metrics is the set of series exported on /metrics.
type Metrics struct {
	reg *prometheus.Registry

	// FramesReceived counts link messages, sentinel included.
	FramesReceived prometheus.Counter

	// FramesDropped counts frames overwritten before classification.
	FramesDropped prometheus.Counter

	// DecodeFailures counts messages that decoded as an empty frame for any
	// reason other than the no-data sentinel.
	DecodeFailures prometheus.Counter

	GestureEvents    *prometheus.CounterVec
	ClassifyDuration prometheus.Histogram
	Peers            prometheus.Gauge
	Subscribers      prometheus.Gauge
	PluginRuns       *prometheus.CounterVec
}

// New registers every series on a fresh registry, along with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		FramesReceived: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "link_frames_received_total",
			Help:      "Total number of messages received on the link",
		}),
		FramesDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "link_frames_dropped_total",
			Help:      "Total number of frames replaced before they were classified",
		}),
		DecodeFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wire_decode_failures_total",
			Help:      "Total number of link messages that failed to decode",
		}),
		GestureEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gesture_events_total",
			Help:      "Total number of gesture events by gesture and type",
		}, []string{"gesture", "type"}),
		ClassifyDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classify_duration_seconds",
			Help:      "Time spent running every classifier over one frame",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		}),
		Peers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "link_peers",
			Help:      "Current number of connected senders",
		}),
		Subscribers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "event_subscribers",
			Help:      "Current number of event feed subscribers",
		}),
		PluginRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plugin_runs_total",
			Help:      "Total number of plugin actions run by result",
		}, []string{"plugin", "result"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// CountGesture increments the event counter for one emitted event.
func (m *Metrics) CountGesture(k gesture.Kind, t gesture.EventType) {
	m.GestureEvents.WithLabelValues(string(k), t.String()).Inc()
}

// ObserveClassify records how long one dispatch took.
func (m *Metrics) ObserveClassify(d time.Duration) {
	m.ClassifyDuration.Observe(d.Seconds())
}

// CountPluginRun records the outcome of one plugin action.
func (m *Metrics) CountPluginRun(plugin string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.PluginRuns.WithLabelValues(plugin, result).Inc()
}
