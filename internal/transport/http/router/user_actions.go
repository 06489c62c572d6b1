package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"go-contacts-api/internal/domain"
	"go-contacts-api/internal/repo"
	"go-contacts-api/internal/service"
	httpez "go-contacts-api/internal/transport/http/ez"
	mdw "go-contacts-api/internal/transport/http/middleware"
)

// userModule /users/me（限流）与 /users/avatar（角色限制）
type userModule struct{ d Deps }

func (userModule) Priority() int { return 30 }

func (m userModule) MountAPI(api *gin.RouterGroup) {
	g := api.Group("/users", mdw.AuthJWT(m.d.Tokens, m.d.loadUser(), m.d.Log))
	ez := httpez.New(g, m.d.DB, m.d.Log)

	httpez.RegisterAction(ez, httpez.Action[struct{}, *domain.User]{
		Method:      http.MethodGet,
		Path:        "/me",
		Binder:      httpez.BindNone,
		Auth:        true,
		Middlewares: []gin.HandlerFunc{mdw.RateLimitPerIP(m.d.MeLimiter, m.d.Log)},
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (*domain.User, error) {
			return httpez.MustUser(c), nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, *domain.User]{
		Method: http.MethodPatch,
		Path:   "/avatar",
		Binder: httpez.BindNone,
		Auth:   true,
		Roles:  m.d.avatarRoles(),
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (*domain.User, error) {
			fh, err := c.FormFile("file")
			if err != nil {
				return nil, domain.Validation("file is required")
			}
			if limit := m.d.Config.Storage.MaxAvatarMB << 20; limit > 0 && fh.Size > limit {
				return nil, domain.Validation("avatar file is too large")
			}
			f, err := fh.Open()
			if err != nil {
				return nil, domain.BadRequest("could not read uploaded file")
			}
			defer f.Close()

			svc := service.NewUserService(repo.NewUserRepo(tx), m.d.Uploader, m.d.Log)
			return svc.UpdateAvatar(c.Request.Context(), httpez.MustUser(c), f)
		},
	})
}
