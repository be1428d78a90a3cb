package monitor

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics 记录钱包后端调用的次数与耗时
type ClientMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewClientMetrics creates the client side collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	m := &ClientMetrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_client_requests_total",
				Help: "Total number of wallet backend requests by operation and outcome.",
			},
			[]string{"op", "outcome"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wallet_client_request_duration_seconds",
				Help:    "Wallet backend request latency distributions.",
				Buckets: []float64{0.1, 0.3, 0.5, 1.0, 2.0, 5.0, 15.0},
			},
			[]string{"op"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.RequestsTotal, m.RequestDuration)
	}
	return m
}

// Observe records one finished request. Safe on a nil receiver.
func (m *ClientMetrics) Observe(op, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(op, outcome).Inc()
	m.RequestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ServerMetrics are the mock backend's HTTP collectors.
type ServerMetrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

func NewServerMetrics(reg prometheus.Registerer) *ServerMetrics {
	m := &ServerMetrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency distributions.",
				Buckets: []float64{0.1, 0.3, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"method", "path"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.HTTPRequestsTotal, m.HTTPRequestDuration)
	}
	return m
}

// Middleware returns a gin middleware for monitoring
func (m *ServerMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		if path == "" { // 忽略 404 等未匹配路由
			return
		}
		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
