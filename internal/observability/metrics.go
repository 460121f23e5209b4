// Package observability exposes Prometheus metrics for the HTTP API and the
// background job pool.
package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/JoaquinRodriguez332/gesticom/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they need.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	jobsTotal       *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gesticom_http_requests_total",
		Help: "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gesticom_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
	jobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gesticom_jobs_total",
		Help: "Background jobs by type and outcome.",
	}, []string{"type", "outcome"})
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gesticom_job_duration_seconds",
		Help:    "Background job run time by type.",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})
	registry.MustRegister(
		requests, duration, jobs, jobDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		jobsTotal:       jobs,
		jobDuration:     jobDuration,
	}
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) }
	}
	return gin.WrapH(m.handler)
}

// Middleware records one sample per request, labelled with the route
// pattern so ids in the path do not explode cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// InstrumentJobs wraps every handler so each run is counted and timed.
func (m *Metrics) InstrumentJobs(h worker.Handlers) worker.Handlers {
	if m == nil {
		return h
	}
	out := make(worker.Handlers, len(h))
	for jobType, fn := range h {
		out[jobType] = m.trackJob(jobType, fn)
	}
	return out
}

func (m *Metrics) trackJob(jobType string, next worker.HandlerFunc) worker.HandlerFunc {
	return func(ctx context.Context, payload json.RawMessage) error {
		start := time.Now()
		err := next(ctx, payload)
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		m.jobsTotal.WithLabelValues(jobType, outcome).Inc()
		m.jobDuration.WithLabelValues(jobType).Observe(time.Since(start).Seconds())
		return err
	}
}
