package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-contacts-api/internal/core/database"
	resp "go-contacts-api/internal/transport/http/response"
)

// Health 存活探针，不碰下游
func Health(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) }

// Root 欢迎信息
func Root(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, resp.OK(gin.H{"message": "Welcome to " + name}))
	}
}

// HealthChecker 就绪探针：对数据库做一次 SELECT 1
func HealthChecker(db *gorm.DB, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := database.Ping(ctx, db); err != nil {
			l.Error("healthchecker: database ping failed", zap.Error(err))
			resp.Abort(c, http.StatusInternalServerError, "database is not configured correctly")
			return
		}
		c.JSON(http.StatusOK, resp.OK(gin.H{"message": "database is reachable"}))
	}
}
