package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"drawlots/backend/events"
)

// Metrics holds the storage and HTTP collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	reads          *prometheus.CounterVec
	writes         prometheus.Counter
	backupFailures prometheus.Counter
	usingFallback  prometheus.Gauge
	requests       *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drawlots_history_reads_total",
			Help: "History document reads, by whether stored content had to be replaced by an empty history.",
		}, []string{"recovered"}),
		writes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "drawlots_history_writes_total",
			Help: "Successful history document writes.",
		}),
		backupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "drawlots_history_backup_failures_total",
			Help: "Writes that could not back up the previous document.",
		}),
		usingFallback: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "drawlots_storage_using_fallback",
			Help: "1 when the active data directory is the system fallback.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drawlots_http_requests_total",
			Help: "HTTP requests handled by the API.",
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.reads, m.writes, m.backupFailures, m.usingFallback, m.requests,
	)
	return m
}

// Subscribe updates the storage collectors from bus events.
func (m *Metrics) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventLocationResolved, func(e events.Event) {
		if ev, ok := e.(events.LocationEvent); ok {
			if ev.Location.UsingFallback {
				m.usingFallback.Set(1)
			} else {
				m.usingFallback.Set(0)
			}
		}
	})
	bus.Subscribe(events.EventHistoryRead, func(e events.Event) {
		if ev, ok := e.(events.HistoryEvent); ok {
			m.reads.WithLabelValues(strconv.FormatBool(ev.Recovered)).Inc()
		}
	})
	bus.Subscribe(events.EventHistoryWritten, func(events.Event) {
		m.writes.Inc()
	})
	bus.Subscribe(events.EventBackupFailed, func(events.Event) {
		m.backupFailures.Inc()
	})
}

// ObserveRequest counts one handled HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
