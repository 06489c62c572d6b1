package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"go-contacts-api/internal/domain"
	"go-contacts-api/internal/repo"
	"go-contacts-api/internal/service"
	httpez "go-contacts-api/internal/transport/http/ez"
)

// adminUsersModule 管理端用户接口；角色只能在这里修改
type adminUsersModule struct{ d Deps }

func (m adminUsersModule) svc(tx *gorm.DB) *service.UserService {
	return service.NewUserService(repo.NewUserRepo(tx), m.d.Uploader, m.d.Log)
}

func (m adminUsersModule) MountAdmin(admin *gin.RouterGroup) {
	ez := httpez.New(admin, m.d.DB, m.d.Log)

	// --- GET /admin/v1/users  用户列表 ---
	type listQ struct {
		Offset int    `form:"offset" binding:"gte=0"`
		Limit  int    `form:"limit"  binding:"omitempty,gte=1,lte=100"`
		Q      string `form:"q"` // 按 email/username 模糊搜
	}
	httpez.RegisterAction(ez, httpez.Action[listQ, *service.UserPage]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindQuery,
		Auth:   true,
		Roles:  []domain.Role{domain.RoleAdmin},
		Handler: func(c *gin.Context, tx *gorm.DB, in *listQ) (*service.UserPage, error) {
			if in.Limit == 0 {
				in.Limit = 20
			}
			return m.svc(tx).List(c.Request.Context(), in.Q, in.Offset, in.Limit)
		},
	})

	// --- PATCH /admin/v1/users/:id/role  修改角色 ---
	type roleIn struct {
		Role domain.Role `json:"role" binding:"required,oneof=user moderator admin"`
	}
	httpez.RegisterAction(ez, httpez.Action[roleIn, *domain.User]{
		Method: http.MethodPatch,
		Path:   "/users/:id/role",
		Binder: httpez.BindJSON,
		Auth:   true,
		Roles:  []domain.Role{domain.RoleAdmin},
		UseTx:  true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *roleIn) (*domain.User, error) {
			id, err := httpez.ParamUint(c, "id")
			if err != nil {
				return nil, err
			}
			return m.svc(tx).SetRole(c.Request.Context(), id, in.Role)
		},
	})
}
