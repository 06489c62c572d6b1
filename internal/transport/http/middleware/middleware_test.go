package middleware

import (
	"context"
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

	"go-contacts-api/internal/core/auth"
	"go-contacts-api/internal/core/limiter"
	"go-contacts-api/internal/domain"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func withRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(KeyRole, string(role))
		c.Next()
	}
}

func TestRequireRoles(t *testing.T) {
	cases := []struct {
		role domain.Role
		want int
	}{
		{domain.RoleUser, http.StatusForbidden},
		{domain.RoleModerator, http.StatusOK},
		{domain.RoleAdmin, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			r := gin.New()
			r.GET("/", withRole(tc.role), RequireRoles(domain.RoleModerator, domain.RoleAdmin), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
			w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func TestRateLimitPerIP(t *testing.T) {
	r := gin.New()
	r.GET("/", RateLimitPerIP(limiter.NewLocal(2, time.Minute), zap.NewNop()), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "198.51.100.7:5555"
	assert.Equal(t, http.StatusOK, serve(r, other).Code, "limits are per client")
}

func TestRateLimitPerIP_FailsOpen(t *testing.T) {
	r := gin.New()
	r.GET("/", RateLimitPerIP(brokenLimiter{}, zap.NewNop()), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}

func TestAuthJWT(t *testing.T) {
	j, err := auth.NewJWTer(auth.Options{Secret: "s", AccessTTL: time.Minute, RefreshTTL: time.Hour, EmailTTL: time.Hour})
	require.NoError(t, err)
	ann := &domain.User{ID: 7, Email: "ann@example.com", Role: domain.RoleModerator}
	load := func(_ context.Context, email string) (*domain.User, error) {
		if email == ann.Email {
			return ann, nil
		}
		return nil, nil
	}

	r := gin.New()
	r.GET("/", AuthJWT(j, load, zap.NewNop()), func(c *gin.Context) {
		u, ok := CurrentUser(c)
		require.True(t, ok)
		c.String(http.StatusOK, "%d:%s", u.ID, c.GetString(KeyRole))
	})

	call := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		return serve(r, req)
	}

	access, err := j.Issue(ann.Email, auth.KindAccess)
	require.NoError(t, err)
	w := call("Bearer " + access)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7:moderator", w.Body.String())

	refresh, err := j.Issue(ann.Email, auth.KindRefresh)
	require.NoError(t, err)
	ghost, err := j.Issue("ghost@example.com", auth.KindAccess)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing": "",
		"scheme":  "Basic " + access,
		"refresh": "Bearer " + refresh,
		"unknown": "Bearer " + ghost,
		"garbage": "Bearer not.a.jwt",
	} {
		w := call(header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
		assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"), name)
	}
}

func TestMaxBodyBytes_RejectsDeclaredLength(t *testing.T) {
	r := gin.New()
	r.POST("/", MaxBodyBytes(8), func(c *gin.Context) { c.Status(http.StatusOK) })
	w := serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.GET("/", RequestID(), func(c *gin.Context) { c.String(http.StatusOK, c.GetString(KeyRequestID)) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(KeyRequestID))
	assert.Equal(t, w.Header().Get(KeyRequestID), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(KeyRequestID, "abc")
	assert.Equal(t, "abc", serve(r, req).Header().Get(KeyRequestID))
}

func TestRequestID_RejectsOversizedHeader(t *testing.T) {
	r := gin.New()
	r.GET("/", RequestID(), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(KeyRequestID, strings.Repeat("a", 200))
	got := serve(r, req).Header().Get(KeyRequestID)
	assert.Len(t, got, 36)
}
