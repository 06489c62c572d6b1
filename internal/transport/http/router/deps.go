package router

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"go-contacts-api/internal/core/auth"
	"go-contacts-api/internal/core/config"
	"go-contacts-api/internal/core/limiter"
	"go-contacts-api/internal/core/storage"
	"go-contacts-api/internal/domain"
	"go-contacts-api/internal/repo"
	"go-contacts-api/internal/service"
	mdw "go-contacts-api/internal/transport/http/middleware"
	"go-contacts-api/pkg/utils"
)

// Deps 是两个引擎共用的依赖，由 main 组装一次
type Deps struct {
	Config    *config.Config
	Log       *zap.Logger
	DB        *gorm.DB
	Tokens    *auth.JWTer
	Hasher    *utils.Hasher
	Mailer    service.Mailer
	Uploader  storage.Uploader
	MeLimiter limiter.Limiter
}

// 合并查询的上限；与发起者的取消无关
const userLookupTimeout = 5 * time.Second

// loadUser 同一 email 的并发查询合并为一次；每个请求拿到自己的副本。
// 共享查询不随第一个调用方取消，否则它断开会让同批请求一起失败。
func (d Deps) loadUser() mdw.UserLoader {
	var sf singleflight.Group
	return func(ctx context.Context, email string) (*domain.User, error) {
		v, err, _ := sf.Do(email, func() (any, error) {
			shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), userLookupTimeout)
			defer cancel()
			return repo.NewUserRepo(d.DB).FindByEmail(shared, email)
		})
		if err != nil {
			return nil, err
		}
		u, _ := v.(*domain.User)
		if u == nil {
			return nil, nil
		}
		cp := *u
		return &cp, nil
	}
}

func (d Deps) avatarRoles() []domain.Role {
	out := make([]domain.Role, 0, len(d.Config.Auth.AvatarRoles))
	for _, r := range d.Config.Auth.AvatarRoles {
		out = append(out, domain.Role(r))
	}
	return out
}

// baseURL 邮件里的链接前缀：优先配置，否则按请求推断，结尾带 "/"
func (d Deps) baseURL(c *gin.Context) string {
	if b := d.Config.App.BaseURL; b != "" {
		return strings.TrimRight(b, "/") + "/"
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if p := c.GetHeader("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return scheme + "://" + c.Request.Host + "/"
}
