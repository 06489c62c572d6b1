package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"go-contacts-api/internal/domain"
	"go-contacts-api/internal/repo"
	"go-contacts-api/internal/service"
	httpez "go-contacts-api/internal/transport/http/ez"
	"go-contacts-api/internal/transport/http/handler"
)

type messageOut struct {
	Message string `json:"message"`
}

// authModule 公共接口：注册 / 登录 / 刷新 / 邮件确认 / 重置密码
type authModule struct{ d Deps }

func (authModule) Priority() int { return 10 }

func (m authModule) svc(tx *gorm.DB) *service.AuthService {
	return service.NewAuthService(repo.NewUserRepo(tx), m.d.Tokens, m.d.Hasher, m.d.Mailer, m.d.Log)
}

func (m authModule) MountAPI(api *gin.RouterGroup) {
	ez := httpez.New(api.Group("/auth"), m.d.DB, m.d.Log)

	type registerIn struct {
		Username string      `json:"username" binding:"required,min=2,max=100"`
		Email    string      `json:"email"    binding:"required,email,max=191"`
		Password string      `json:"password" binding:"required,min=6,maxbytes=72"`
		Role     domain.Role `json:"role"     binding:"omitempty,oneof=user moderator admin"`
	}
	httpez.RegisterAction(ez, httpez.Action[registerIn, *domain.User]{
		Method: http.MethodPost,
		Path:   "/register",
		Binder: httpez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, tx *gorm.DB, in *registerIn) (*domain.User, error) {
			role := in.Role
			if role == "" {
				role = domain.RoleUser
			}
			return m.svc(tx).Register(c.Request.Context(), in.Username, in.Email, in.Password, role, m.d.baseURL(c))
		},
	})

	type loginIn struct {
		Email    string `json:"email"    binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	httpez.RegisterAction(ez, httpez.Action[loginIn, *service.TokenPair]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, tx *gorm.DB, in *loginIn) (*service.TokenPair, error) {
			return m.svc(tx).Login(c.Request.Context(), in.Email, in.Password)
		},
	})

	type refreshIn struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	httpez.RegisterAction(ez, httpez.Action[refreshIn, *service.TokenPair]{
		Method: http.MethodPost,
		Path:   "/refresh-token",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, tx *gorm.DB, in *refreshIn) (*service.TokenPair, error) {
			return m.svc(tx).Refresh(c.Request.Context(), in.RefreshToken)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, messageOut]{
		Method: http.MethodGet,
		Path:   "/confirmed_email/:token",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (messageOut, error) {
			if err := m.svc(tx).ConfirmEmail(c.Request.Context(), c.Param("token")); err != nil {
				return messageOut{}, err
			}
			return messageOut{Message: service.MsgEmailConfirmed}, nil
		},
	})

	type emailIn struct {
		Email string `json:"email" binding:"required,email"`
	}
	httpez.RegisterAction(ez, httpez.Action[emailIn, messageOut]{
		Method: http.MethodPost,
		Path:   "/request_email",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, tx *gorm.DB, in *emailIn) (messageOut, error) {
			msg, err := m.svc(tx).RequestConfirmation(c.Request.Context(), in.Email, m.d.baseURL(c))
			return messageOut{Message: msg}, err
		},
	})

	httpez.RegisterAction(ez, httpez.Action[emailIn, messageOut]{
		Method: http.MethodPost,
		Path:   "/reset_password",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, tx *gorm.DB, in *emailIn) (messageOut, error) {
			if err := m.svc(tx).RequestPasswordReset(c.Request.Context(), in.Email, m.d.baseURL(c)); err != nil {
				return messageOut{}, err
			}
			return messageOut{Message: service.MsgCheckResetEmail}, nil
		},
	})

	// 邮件链接落地页；表单 POST 到下面的 change_password
	ez.Group().GET("/reset_password_form", handler.ResetPasswordForm)

	type changeIn struct {
		Token       string `json:"token"        form:"token"        binding:"required"`
		NewPassword string `json:"new_password" form:"new_password" binding:"required,min=6,maxbytes=72"`
	}
	httpez.RegisterAction(ez, httpez.Action[changeIn, messageOut]{
		Method: http.MethodPost,
		Path:   "/change_password",
		Binder: httpez.BindAuto,
		UseTx:  true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *changeIn) (messageOut, error) {
			if err := m.svc(tx).ChangePassword(c.Request.Context(), in.Token, in.NewPassword); err != nil {
				return messageOut{}, err
			}
			return messageOut{Message: service.MsgPasswordChanged}, nil
		},
	})
}
