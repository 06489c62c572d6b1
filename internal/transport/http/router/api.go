package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"go-contacts-api/internal/core/server"
	httpez "go-contacts-api/internal/transport/http/ez"
	"go-contacts-api/internal/transport/http/handler"
	mdw "go-contacts-api/internal/transport/http/middleware"
)

// commonMiddlewares 两个引擎共用的中间件链
func commonMiddlewares(d Deps) []gin.HandlerFunc {
	h := d.Config.App.HTTP
	rl := d.Config.RateLimit
	return []gin.HandlerFunc{
		mdw.RequestID(),
		mdw.RateLimit(rate.Limit(rl.GlobalRPS), rl.GlobalBurst),
		mdw.ConcurrencyLimit(rl.Concurrency),
		mdw.MaxBodyBytes(h.MaxBodyMB << 20),
		mdw.Timeout(time.Duration(h.RequestTimeoutSec) * time.Second),
		mdw.Recovery(d.Log),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
	}
}

func NewAPIEngine(d Deps) *gin.Engine {
	httpez.RegisterValidators()

	r := server.NewRouter(d.Log, d.Config.App.CORSOrigins)
	r.Use(commonMiddlewares(d)...)

	// 健康检查 / 指标
	r.GET("/health", handler.Health)
	r.GET("/metrics", mdw.MetricsHandler())
	r.GET("/", handler.Root(d.Config.App.Name))

	// 前缀
	api := r.Group("/api")
	api.GET("/healthchecker", handler.HealthChecker(d.DB, d.Log))

	var mods Modules
	mods.Register(authModule{d}, contactModule{d}, userModule{d})
	mods.MountAPI(api)

	return r
}
