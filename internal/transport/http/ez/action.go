package ez

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-contacts-api/internal/domain"
	mdw "go-contacts-api/internal/transport/http/middleware"
	resp "go-contacts-api/internal/transport/http/response"
)

// EZ 一个路由分组 + 共享的 DB / logger
type EZ struct {
	g   *gin.RouterGroup
	db  *gorm.DB
	log *zap.Logger
}

func New(g *gin.RouterGroup, db *gorm.DB, l *zap.Logger) EZ { return EZ{g: g, db: db, log: l} }

// Group 底层路由分组，挂非 JSON 的 handler 用
func (e EZ) Group() *gin.RouterGroup { return e.g }

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindAuto  Binder = "auto"  // 按 Content-Type 选 JSON 或表单
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param / c.FormFile 取
)

// 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method      string            // "GET" | "POST" | "PUT" | "PATCH" | "DELETE"
	Path        string            // 例："/auth/login"、"/contacts/:id"
	Binder      Binder            // 绑定方式
	Status      int               // 成功状态码，默认 200；204 不写 body
	Auth        bool              // 是否要求登录（AuthJWT 已写入当前用户）
	Roles       []domain.Role     // 限定角色（可选）
	UseTx       bool              // 是否包事务（gorm.Transaction）
	Middlewares []gin.HandlerFunc // 路由级中间件，例如限流
	Handler     func(c *gin.Context, tx *gorm.DB, in *I) (O, error)
}

// RegisterAction 在当前 EZ 下注册动作接口
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		// 1) 鉴权/角色
		if a.Auth {
			if _, ok := mdw.CurrentUser(c); !ok {
				resp.Abort(c, http.StatusUnauthorized, "not authenticated")
				return
			}
			if !mdw.HasRole(c, a.Roles...) {
				resp.Abort(c, http.StatusForbidden, "not enough permissions")
				return
			}
		}

		// 2) 绑定入参
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		case BindAuto:
			bindErr = c.ShouldBind(&in)
		default: // BindNone: 不绑定
		}
		if bindErr != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(bindErr, &tooLarge) {
				resp.Abort(c, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			resp.Abort(c, http.StatusUnprocessableEntity, BindMessage(bindErr))
			return
		}

		// 3) 执行（可选事务）
		ctx := c.Request.Context()
		var out O
		var err error
		if a.UseTx {
			err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				o, herr := a.Handler(c, tx, &in)
				out = o
				return herr
			})
		} else {
			out, err = a.Handler(c, e.db.WithContext(ctx), &in)
		}

		// 4) 统一错误映射
		if err != nil {
			e.fail(c, err)
			return
		}
		status := a.Status
		if status == 0 {
			status = http.StatusOK
		}
		resp.JSON(c, status, out)
	}

	handlers := append(append([]gin.HandlerFunc{}, a.Middlewares...), h)
	e.g.Handle(strings.ToUpper(a.Method), a.Path, handlers...)
}

func (e EZ) fail(c *gin.Context, err error) {
	var de *domain.Error
	switch {
	case errors.As(err, &de):
		if de.Code >= http.StatusInternalServerError {
			e.log.Error("request failed",
				zap.String("rid", c.GetString(mdw.KeyRequestID)),
				zap.String("path", c.FullPath()),
				zap.String("msg", de.Msg),
				zap.Error(de.Err),
			)
		}
		msg := de.Msg
		if msg == "" {
			msg = http.StatusText(de.Code)
		}
		resp.Abort(c, de.Code, msg)
	case errors.Is(err, context.DeadlineExceeded):
		resp.Abort(c, http.StatusGatewayTimeout, "timeout")
	default:
		e.log.Error("request failed",
			zap.String("rid", c.GetString(mdw.KeyRequestID)),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		resp.Abort(c, http.StatusInternalServerError, "internal error")
	}
}

// ParamUint 读取正整数路径参数，例如 /contacts/:id
func ParamUint(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, domain.Validation(name + " must be a positive integer")
	}
	return uint(v), nil
}

// MustUser 取当前用户；只在 Auth=true 的动作里调用
func MustUser(c *gin.Context) *domain.User {
	u, _ := mdw.CurrentUser(c)
	return u
}
