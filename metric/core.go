package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the registry's core metrics
type Metrics struct {
	// Store operation metrics
	PublishesTotal        prometheus.Counter
	PublishConflictsTotal prometheus.Counter
	GetsTotal             prometheus.Counter
	GetNotFoundTotal      prometheus.Counter
	ListsTotal            prometheus.Counter
	NodeTypes             prometheus.Gauge

	// HTTP metrics
	HTTPRequestDuration *prometheus.HistogramVec

	// Event fan-out metrics
	EventsPublished  *prometheus.CounterVec
	WatchClients     prometheus.Gauge
	HealthStatus     *prometheus.GaugeVec
	AnnouncerConnect prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all registry metrics
func NewMetrics() *Metrics {
	return &Metrics{
		PublishesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "nodereg",
				Subsystem: "store",
				Name:      "publishes_total",
				Help:      "Total number of successful node type publishes",
			},
		),

		PublishConflictsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "nodereg",
				Subsystem: "store",
				Name:      "publish_conflicts_total",
				Help:      "Total number of publishes rejected because the key already existed",
			},
		),

		GetsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "nodereg",
				Subsystem: "store",
				Name:      "gets_total",
				Help:      "Total number of node type lookups",
			},
		),

		GetNotFoundTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "nodereg",
				Subsystem: "store",
				Name:      "get_not_found_total",
				Help:      "Total number of lookups that matched no stored node type",
			},
		),

		ListsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "nodereg",
				Subsystem: "store",
				Name:      "lists_total",
				Help:      "Total number of list operations",
			},
		),

		NodeTypes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "nodereg",
				Subsystem: "store",
				Name:      "node_types",
				Help:      "Number of node types currently stored",
			},
		),

		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "nodereg",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),

		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nodereg",
				Subsystem: "events",
				Name:      "published_total",
				Help:      "Total number of publish events fanned out",
			},
			[]string{"sink"},
		),

		WatchClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "nodereg",
				Subsystem: "events",
				Name:      "watch_clients",
				Help:      "Number of connected WebSocket watch clients",
			},
		),

		HealthStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "nodereg",
				Subsystem: "health",
				Name:      "status",
				Help:      "Health check status (0=unhealthy, 1=healthy)",
			},
			[]string{"component"},
		),

		AnnouncerConnect: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "nodereg",
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS announcer connection status (0=disconnected, 1=connected)",
			},
		),
	}
}

// RecordPublish increments the successful publish counter and the store gauge
func (c *Metrics) RecordPublish(storeSize int) {
	c.PublishesTotal.Inc()
	c.NodeTypes.Set(float64(storeSize))
}

// RecordPublishConflict increments the conflict counter
func (c *Metrics) RecordPublishConflict() {
	c.PublishConflictsTotal.Inc()
}

// RecordGet increments the lookup counter, tracking misses separately
func (c *Metrics) RecordGet(found bool) {
	c.GetsTotal.Inc()
	if !found {
		c.GetNotFoundTotal.Inc()
	}
}

// RecordList increments the list counter
func (c *Metrics) RecordList() {
	c.ListsTotal.Inc()
}

// RecordHTTPRequest records the duration of a handled HTTP request
func (c *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	c.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// RecordEventPublished increments the fan-out counter for a sink ("nats", "websocket")
func (c *Metrics) RecordEventPublished(sink string) {
	c.EventsPublished.WithLabelValues(sink).Inc()
}

// RecordHealthStatus updates a component's health gauge
func (c *Metrics) RecordHealthStatus(component string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	c.HealthStatus.WithLabelValues(component).Set(value)
}

// RecordAnnouncerStatus updates the NATS announcer connection gauge
func (c *Metrics) RecordAnnouncerStatus(connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	c.AnnouncerConnect.Set(value)
}
