package router

import (
	"github.com/gin-gonic/gin"

	"go-contacts-api/internal/core/server"
	"go-contacts-api/internal/domain"
	httpez "go-contacts-api/internal/transport/http/ez"
	"go-contacts-api/internal/transport/http/handler"
	mdw "go-contacts-api/internal/transport/http/middleware"
)

func NewAdminEngine(d Deps) *gin.Engine {
	httpez.RegisterValidators()

	r := server.NewRouter(d.Log, nil)
	r.Use(commonMiddlewares(d)...)

	// 健康检查
	r.GET("/health", handler.Health)

	// 管理端 v1（统一要求 admin 角色）
	admin := r.Group("/admin/v1")
	admin.Use(
		mdw.AuthJWT(d.Tokens, d.loadUser(), d.Log),
		mdw.RequireRoles(domain.RoleAdmin),
	)

	var mods Modules
	mods.Register(adminUsersModule{d})
	mods.MountAdmin(admin)

	return r
}
