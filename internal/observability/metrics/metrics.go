package metrics

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "provisora"

const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// Metrics exposes application-level instruments.
type Metrics struct {
	provisionWrites     *prometheus.CounterVec
	costEntryWrites     *prometheus.CounterVec
	aggregationDuration *prometheus.HistogramVec
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

// New registers the instruments on prometheus.DefaultRegisterer.
func New() (*Metrics, error) {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(registerer prometheus.Registerer) (*Metrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		provisionWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provision_writes_total",
			Help:      "Provision create and update attempts by outcome.",
		}, []string{"operation", "outcome"}),
		costEntryWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cost_entry_writes_total",
			Help:      "Direct cost entry writes by outcome.",
		}, []string{"operation", "outcome"}),
		aggregationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_duration_seconds",
			Help:      "Time spent building reports.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"report"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	collectors := []prometheus.Collector{
		m.provisionWrites,
		m.costEntryWrites,
		m.aggregationDuration,
		m.httpRequests,
		m.httpDuration,
	}
	for i, collector := range collectors {
		if err := registerer.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return nil, err
			}
			collectors[i] = already.ExistingCollector
		}
	}
	m.provisionWrites = collectors[0].(*prometheus.CounterVec)
	m.costEntryWrites = collectors[1].(*prometheus.CounterVec)
	m.aggregationDuration = collectors[2].(*prometheus.HistogramVec)
	m.httpRequests = collectors[3].(*prometheus.CounterVec)
	m.httpDuration = collectors[4].(*prometheus.HistogramVec)

	return m, nil
}

// RecordProvisionWrite counts a provision create or update attempt.
func (m *Metrics) RecordProvisionWrite(operation, outcome string) {
	if m == nil {
		return
	}
	m.provisionWrites.WithLabelValues(normalize(operation), normalize(outcome)).Inc()
}

func (m *Metrics) RecordCostEntryWrite(operation, outcome string) {
	if m == nil {
		return
	}
	m.costEntryWrites.WithLabelValues(normalize(operation), normalize(outcome)).Inc()
}

// ObserveAggregation records how long a report took to build.
func (m *Metrics) ObserveAggregation(report string, start time.Time) {
	if m == nil {
		return
	}
	m.aggregationDuration.WithLabelValues(normalize(report)).Observe(time.Since(start).Seconds())
}

// GinMiddleware records request counts and latency per route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func normalize(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return value
}
