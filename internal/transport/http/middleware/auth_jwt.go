package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-contacts-api/internal/core/auth"
	"go-contacts-api/internal/domain"
	resp "go-contacts-api/internal/transport/http/response"
)

const (
	KeyUser   = "user"
	KeyUserID = "userId"
	KeyRole   = "role"
)

const msgCouldNotValidate = "could not validate credentials"

// UserLoader 按 email（token subject）取用户，不存在时返回 nil, nil
type UserLoader func(ctx context.Context, email string) (*domain.User, error)

// AuthJWT 校验 access token 并把当前用户写入 gin.Context
func AuthJWT(j *auth.JWTer, load UserLoader, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if len(ah) < 7 || !strings.EqualFold(ah[:7], "Bearer ") {
			c.Header("WWW-Authenticate", "Bearer")
			resp.Abort(c, http.StatusUnauthorized, "not authenticated")
			return
		}
		email, err := j.Verify(strings.TrimSpace(ah[7:]), auth.KindAccess)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			resp.Abort(c, http.StatusUnauthorized, msgCouldNotValidate)
			return
		}
		u, err := load(c.Request.Context(), email)
		if err != nil {
			l.Error("load current user", zap.String("email", email), zap.Error(err))
			resp.Abort(c, http.StatusInternalServerError, "internal error")
			return
		}
		if u == nil {
			c.Header("WWW-Authenticate", "Bearer")
			resp.Abort(c, http.StatusUnauthorized, msgCouldNotValidate)
			return
		}
		c.Set(KeyUser, u)
		c.Set(KeyUserID, u.ID)
		c.Set(KeyRole, string(u.Role))
		c.Next()
	}
}

// RequireRoles 角色闸门：当前用户角色必须在 allowed 中
func RequireRoles(allowed ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !HasRole(c, allowed...) {
			resp.Abort(c, http.StatusForbidden, "not enough permissions")
			return
		}
		c.Next()
	}
}

// HasRole 空 allowed 表示不限角色
func HasRole(c *gin.Context, allowed ...domain.Role) bool {
	if len(allowed) == 0 {
		return true
	}
	return domain.Role(c.GetString(KeyRole)).In(allowed...)
}

// CurrentUser 取 AuthJWT 写入的用户
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(KeyUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*domain.User)
	return u, ok && u != nil
}
