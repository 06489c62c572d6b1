package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"go-contacts-api/internal/core/limiter"
	resp "go-contacts-api/internal/transport/http/response"
)

const msgTooManyRequests = "too many requests, please try again later"

// RateLimit 全局令牌桶限速
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	lim := rate.NewLimiter(rps, burst)
	return func(c *gin.Context) {
		if lim.Allow() {
			c.Next()
			return
		}
		resp.Abort(c, http.StatusTooManyRequests, msgTooManyRequests)
	}
}

// RateLimitPerIP 每 IP 限速；limiter 出错时放行（只记日志）
func RateLimitPerIP(lim limiter.Limiter, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		ok, err := lim.Allow(c.Request.Context(), ip)
		if err != nil {
			l.Warn("rate limiter unavailable, allowing request", zap.String("ip", ip), zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			resp.Abort(c, http.StatusTooManyRequests, msgTooManyRequests)
			return
		}
		c.Next()
	}
}
