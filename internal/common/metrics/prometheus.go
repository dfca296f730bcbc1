// Package metrics 提供 Prometheus 指标收集
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标收集器
type Metrics struct {
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge
	webhooksTotal        *prometheus.CounterVec
	scansTotal           *prometheus.CounterVec
	claimsTotal          *prometheus.CounterVec
	payoutJobsTotal      *prometheus.CounterVec
	transfersTotal       *prometheus.CounterVec
	transferAmount       *prometheus.CounterVec
}

var defaultMetrics *Metrics

// Init 初始化指标收集器
func Init(namespace string) *Metrics {
	if namespace == "" {
		namespace = "tapify"
	}

	m := &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		webhooksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhooks_total",
				Help:      "Total number of inbound webhook deliveries",
			},
			[]string{"source", "topic", "outcome"},
		),
		scansTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scans_total",
				Help:      "Total number of display scans",
			},
			[]string{"outcome"},
		),
		claimsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "claims_total",
				Help:      "Total number of display claim attempts",
			},
			[]string{"outcome"},
		),
		payoutJobsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payout_jobs_total",
				Help:      "Total number of payout jobs by status transition",
			},
			[]string{"status"},
		),
		transfersTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transfers_total",
				Help:      "Total number of payment rail transfer requests",
			},
			[]string{"party", "outcome"},
		),
		transferAmount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transfer_amount_total",
				Help:      "Cumulative transfer amount by party",
			},
			[]string{"party"},
		),
	}

	defaultMetrics = m
	return m
}

// Get 获取默认指标收集器
func Get() *Metrics {
	if defaultMetrics == nil {
		defaultMetrics = Init("")
	}
	return defaultMetrics
}

// Handler 返回 Prometheus HTTP Handler
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// Middleware HTTP 指标中间件
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		m.httpRequestsInFlight.Inc()
		c.Next()
		m.httpRequestsInFlight.Dec()

		status := strconv.Itoa(c.Writer.Status())
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordWebhook 记录 Webhook 投递
func (m *Metrics) RecordWebhook(source, topic, outcome string) {
	m.webhooksTotal.WithLabelValues(source, topic, outcome).Inc()
}

// RecordScan 记录扫码
func (m *Metrics) RecordScan(outcome string) {
	m.scansTotal.WithLabelValues(outcome).Inc()
}

// RecordClaim 记录认领
func (m *Metrics) RecordClaim(outcome string) {
	m.claimsTotal.WithLabelValues(outcome).Inc()
}

// RecordPayoutJob 记录分成任务状态变化
func (m *Metrics) RecordPayoutJob(status string) {
	m.payoutJobsTotal.WithLabelValues(status).Inc()
}

// RecordTransfer 记录转账请求
func (m *Metrics) RecordTransfer(party, outcome string, amount float64) {
	m.transfersTotal.WithLabelValues(party, outcome).Inc()
	if outcome == "success" {
		m.transferAmount.WithLabelValues(party).Add(amount)
	}
}
