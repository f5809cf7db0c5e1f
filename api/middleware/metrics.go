package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/atomic"
)

// Metrics 基础监控指标
type Metrics struct {
	requests   *atomic.Int64
	failures   *atomic.Int64 // 5xx
	rejected   *atomic.Int64 // 4xx
	inflight   *atomic.Int64
	durationMs *atomic.Int64
}

// NewMetrics 创建指标收集器
func NewMetrics() *Metrics {
	return &Metrics{
		requests:   atomic.NewInt64(0),
		failures:   atomic.NewInt64(0),
		rejected:   atomic.NewInt64(0),
		inflight:   atomic.NewInt64(0),
		durationMs: atomic.NewInt64(0),
	}
}

// Middleware 记录请求数与耗时
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		m.inflight.Inc()
		defer m.inflight.Dec()

		c.Next()

		m.durationMs.Add(time.Since(startTime).Milliseconds())
		m.requests.Inc()
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			m.failures.Inc()
		case status >= http.StatusBadRequest:
			m.rejected.Inc()
		}
	}
}

// Snapshot 获取当前指标
func (m *Metrics) Snapshot() map[string]interface{} {
	count := m.requests.Load()
	duration := m.durationMs.Load()
	avg := 0.0
	if count > 0 {
		avg = float64(duration) / float64(count)
	}
	return map[string]interface{}{
		"request_count":       count,
		"request_duration_ms": duration,
		"avg_duration_ms":     avg,
		"client_errors":       m.rejected.Load(),
		"server_errors":       m.failures.Load(),
		"inflight":            m.inflight.Load(),
	}
}

// Reset 重置指标
func (m *Metrics) Reset() {
	m.requests.Store(0)
	m.failures.Store(0)
	m.rejected.Store(0)
	m.durationMs.Store(0)
}
