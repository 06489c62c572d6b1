package ez

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-contacts-api/internal/core/database"
	"go-contacts-api/internal/domain"
	mdw "go-contacts-api/internal/transport/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
}

type birthdayIn struct {
	Name     string      `json:"name" binding:"required,min=2"`
	Birthday domain.Date `json:"birthday" binding:"required,pastdate"`
}

type result struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func newEngine(t *testing.T, register func(e EZ)) *gin.Engine {
	t.Helper()
	db, err := database.NewGorm(database.Opts{Driver: "sqlite", DSN: "file::memory:", MaxOpenConns: 1, LogLevel: "silent"})
	require.NoError(t, err)
	r := gin.New()
	register(New(r.Group(""), db, zap.NewNop()))
	return r
}

func post(r *gin.Engine, path, body string) (*httptest.ResponseRecorder, result) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out result
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestRegisterAction_Binding(t *testing.T) {
	r := newEngine(t, func(e EZ) {
		RegisterAction(e, Action[birthdayIn, string]{
			Method: http.MethodPost,
			Path:   "/people",
			Binder: BindJSON,
			Status: http.StatusCreated,
			Handler: func(_ *gin.Context, _ *gorm.DB, in *birthdayIn) (string, error) {
				return in.Birthday.String(), nil
			},
		})
	})

	tomorrow := time.Now().AddDate(0, 0, 1).Format(domain.DateLayout)
	cases := []struct {
		name, body string
		status     int
		msg        string
	}{
		{"ok", `{"name":"Ann","birthday":"1990-02-03"}`, http.StatusCreated, "ok"},
		{"future", `{"name":"Ann","birthday":"` + tomorrow + `"}`, http.StatusUnprocessableEntity, "birthday must not be in the future"},
		{"missing", `{"name":"Ann"}`, http.StatusUnprocessableEntity, "birthday is required"},
		{"short", `{"name":"A","birthday":"1990-02-03"}`, http.StatusUnprocessableEntity, "name must be at least 2 characters"},
		{"malformed", `{"name":`, http.StatusUnprocessableEntity, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, out := post(r, "/people", tc.body)
			assert.Equal(t, tc.status, w.Code)
			if tc.status != http.StatusCreated {
				assert.Equal(t, tc.status, out.Code)
			}
			if tc.msg != "" && tc.status != http.StatusCreated {
				assert.Equal(t, tc.msg, out.Msg)
			}
		})
	}
}

type secretIn struct {
	Secret string `json:"secret" form:"secret" binding:"required,min=6,maxbytes=12"`
}

func TestRegisterAction_MaxBytesAndForm(t *testing.T) {
	r := newEngine(t, func(e EZ) {
		RegisterAction(e, Action[secretIn, int]{
			Method: http.MethodPost,
			Path:   "/secret",
			Binder: BindAuto,
			Handler: func(_ *gin.Context, _ *gorm.DB, in *secretIn) (int, error) {
				return len(in.Secret), nil
			},
		})
	})

	// 6 runes, 12 bytes
	w, _ := post(r, "/secret", `{"secret":"жжжжжж"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	// 7 runes, 14 bytes
	w, out := post(r, "/secret", `{"secret":"жжжжжжж"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "secret must be at most 12 bytes", out.Msg)

	req := httptest.NewRequest(http.MethodPost, "/secret", strings.NewReader("secret=hunter22"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	fw := httptest.NewRecorder()
	r.ServeHTTP(fw, req)
	assert.Equal(t, http.StatusOK, fw.Code)
	assert.Contains(t, fw.Body.String(), `"data":8`)
}

func TestRegisterAction_ErrorMapping(t *testing.T) {
	errs := map[string]error{
		"notfound": domain.NotFound("contact not found"),
		"conflict": domain.Conflict("taken"),
		"upstream": domain.BadGateway("avatar upload failed", errors.New("s3 down")),
		"plain":    errors.New("boom"),
	}
	r := newEngine(t, func(e EZ) {
		for name, err := range errs {
			RegisterAction(e, Action[struct{}, any]{
				Method: http.MethodPost,
				Path:   "/" + name,
				Binder: BindNone,
				Handler: func(*gin.Context, *gorm.DB, *struct{}) (any, error) {
					return nil, err
				},
			})
		}
	})

	cases := map[string]result{
		"notfound": {http.StatusNotFound, "contact not found"},
		"conflict": {http.StatusConflict, "taken"},
		"upstream": {http.StatusBadGateway, "avatar upload failed"},
		"plain":    {http.StatusInternalServerError, "internal error"},
	}
	for name, want := range cases {
		w, out := post(r, "/"+name, "")
		assert.Equal(t, want.Code, w.Code, name)
		assert.Equal(t, want, out, name)
	}
}

func TestRegisterAction_AuthAndRoles(t *testing.T) {
	setUser := func(role domain.Role) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Set(mdw.KeyUser, &domain.User{ID: 1, Role: role})
			c.Set(mdw.KeyRole, string(role))
		}
	}
	action := Action[struct{}, string]{
		Method: http.MethodPost,
		Path:   "/",
		Binder: BindNone,
		Auth:   true,
		Roles:  []domain.Role{domain.RoleAdmin},
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (string, error) {
			return string(MustUser(c).Role), nil
		},
	}

	anon := newEngine(t, func(e EZ) { RegisterAction(e, action) })
	w, _ := post(anon, "/", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	for role, status := range map[domain.Role]int{
		domain.RoleUser:  http.StatusForbidden,
		domain.RoleAdmin: http.StatusOK,
	} {
		a := action
		a.Middlewares = []gin.HandlerFunc{setUser(role)}
		r := newEngine(t, func(e EZ) { RegisterAction(e, a) })
		w, _ := post(r, "/", "")
		assert.Equal(t, status, w.Code, role)
	}
}

func TestRegisterAction_NoContent(t *testing.T) {
	r := newEngine(t, func(e EZ) {
		RegisterAction(e, Action[struct{}, any]{
			Method: http.MethodPost,
			Path:   "/gone",
			Binder: BindNone,
			Status: http.StatusNoContent,
			Handler: func(*gin.Context, *gorm.DB, *struct{}) (any, error) {
				return nil, nil
			},
		})
	})
	w, _ := post(r, "/gone", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestParamUint(t *testing.T) {
	for raw, ok := range map[string]bool{"1": true, "42": true, "0": false, "-3": false, "x": false} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Params = gin.Params{{Key: "id", Value: raw}}
		_, err := ParamUint(c, "id")
		assert.Equal(t, ok, err == nil, raw)
	}
}
