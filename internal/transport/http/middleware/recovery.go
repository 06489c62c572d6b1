package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	resp "go-contacts-api/internal/transport/http/response"
)

// Recovery 捕获 panic，记录堆栈，对外只返回 500
func Recovery(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				l.Error("panic recovered",
					zap.String("rid", c.GetString(KeyRequestID)),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
				)
				resp.Abort(c, http.StatusInternalServerError, "internal error")
			}
		}()
		c.Next()
	}
}
