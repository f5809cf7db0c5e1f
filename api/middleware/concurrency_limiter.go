package middleware

import (
	"net/http"

	"github.com/anoixa/mozaiek/api/common"
	"github.com/gin-gonic/gin"
	"go.uber.org/atomic"
	"golang.org/x/sync/semaphore"
)

const defaultMaxInflight = 64

// ConcurrencyLimiter 限制同时处理的请求数, 图片解码会占用大量内存
type ConcurrencyLimiter struct {
	sem      *semaphore.Weighted
	rejected atomic.Int64
}

// NewConcurrencyLimiter maxConcurrency <= 0 时使用默认值
func NewConcurrencyLimiter(maxConcurrency int64) *ConcurrencyLimiter {
	if maxConcurrency <= 0 {
		maxConcurrency = defaultMaxInflight
	}
	return &ConcurrencyLimiter{
		sem: semaphore.NewWeighted(maxConcurrency),
	}
}

// Middleware 满载时立即返回 503, 不排队
func (cl *ConcurrencyLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cl.sem.TryAcquire(1) {
			cl.rejected.Inc()
			c.Header("Retry-After", "1")
			common.RespondErrorAbort(c, http.StatusServiceUnavailable, "Server is busy, please try again later")
			return
		}
		defer cl.sem.Release(1)

		c.Next()
	}
}

// Rejected 因满载被拒绝的请求数
func (cl *ConcurrencyLimiter) Rejected() int64 {
	return cl.rejected.Load()
}
