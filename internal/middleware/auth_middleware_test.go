package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/hugo617/healthcare-admin-sub002/internal/models"
	"github.com/hugo617/healthcare-admin-sub002/pkg/config"
	apperrors "github.com/hugo617/healthcare-admin-sub002/pkg/errors"
	"github.com/hugo617/healthcare-admin-sub002/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPrincipalLoader struct {
	user *models.User
	err  error
}

func (s *stubPrincipalLoader) LoadPrincipal(claims *jwt.JWTClaims) (*models.User, error) {
	return s.user, s.err
}

type stubPermissionChecker struct {
	granted map[string]bool
	err     error
}

func (s *stubPermissionChecker) HasPermission(user *models.User, code string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if user.IsSuperAdmin {
		return true, nil
	}
	return s.granted[code], nil
}

type stubTenantResolver struct {
	tenant *models.Tenant
}

func (s *stubTenantResolver) ResolveRecord(signal string) (*models.Tenant, error) {
	if s.tenant == nil {
		return nil, apperrors.ErrTenantNotFound
	}
	return s.tenant, nil
}

var testGate = config.GateConfig{
	PublicPrefixes:    []string{"/api/v1/auth/login", "/api/v1/auth/session", "/api/v1/health"},
	ProtectedPrefixes: []string{"/api/v1"},
	AdminPrefixes:     []string{"/api/v1/tenants", "/api/v1/permissions"},
	LoginURL:          "/login",
	ForbiddenURL:      "/403.html",
}

func activeUser(isSuperAdmin bool) *models.User {
	user := &models.User{
		TenantID:     7,
		RoleID:       3,
		Username:     "zhangsan",
		Email:        "zhangsan@example.com",
		Status:       models.UserStatusActive,
		IsSuperAdmin: isSuperAdmin,
	}
	user.ID = 42
	return user
}

func newGateEngine(t *testing.T, m *AuthMiddleware) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextTenantSignal, "default")
		c.Set(ContextTenantMethod, TenantMethodDefault)
	})
	r.Use(m.Gate())
	r.GET("/api/v1/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/users", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/tenants", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/other", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func signedToken(t *testing.T, manager *jwt.JWTManager, isSuperAdmin bool) string {
	t.Helper()
	token, err := manager.GenerateToken(42, 7, 3, "zhangsan", "zhangsan@example.com", isSuperAdmin)
	require.NoError(t, err)
	return token
}

func TestGatePublicPathSkipsAuth(t *testing.T) {
	manager := jwt.NewJWTManager("test-secret-key", time.Hour)
	m := NewAuthMiddlewareWith(&stubPrincipalLoader{}, &stubPermissionChecker{}, &stubTenantResolver{}, manager, testGate)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	newGateEngine(t, m).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGateUnclassifiedPathPassesThrough(t *testing.T) {
	manager := jwt.NewJWTManager("test-secret-key", time.Hour)
	m := NewAuthMiddlewareWith(&stubPrincipalLoader{}, &stubPermissionChecker{}, &stubTenantResolver{}, manager, testGate)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/other", nil)
	newGateEngine(t, m).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGateProtectedWithoutTokenRedirectsToLogin(t *testing.T) {
	manager := jwt.NewJWTManager("test-secret-key", time.Hour)
	m := NewAuthMiddlewareWith(&stubPrincipalLoader{}, &stubPermissionChecker{}, &stubTenantResolver{}, manager, testGate)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users?page=2", nil)
	newGateEngine(t, m).ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	location := w.Header().Get("Location")
	assert.Contains(t, location, "/login?callback=")
	assert.Contains(t, location, url.QueryEscape("/api/v1/users?page=2"))
}

func TestGateExpiredTokenRedirectsToLogin(t *testing.T) {
	manager := jwt.NewJWTManager("test-secret-key", -time.Minute)
	m := NewAuthMiddlewareWith(&stubPrincipalLoader{user: activeUser(false)}, &stubPermissionChecker{}, &stubTenantResolver{}, manager, testGate)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: signedToken(t, manager, false)})
	newGateEngine(t, m).ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/login?callback=")
}

func TestGateUnknownPrincipalRedirectsToLogin(t *testing.T) {
	manager := jwt.NewJWTManager("test-secret-key", time.Hour)
	m := NewAuthMiddlewareWith(&stubPrincipalLoader{err: apperrors.ErrUnknownPrincipal}, &stubPermissionChecker{}, &stubTenantResolver{}, manager, testGate)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: signedToken(t, manager, false)})
	newGateEngine(t, m).ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/login?callback=")
}

func TestGateDisabledPrincipalRedirectsToLogin(t *testing.T) {
	// 令牌结构有效且未过期，但账号已被锁定：认证必须失败
	manager := jwt.NewJWTManager("test-secret-key", time.Hour)
	m := NewAuthMiddlewareWith(&stubPrincipalLoader{err: apperrors.ErrDisabledPrincipal}, &stubPermissionChecker{}, &stubTenantResolver{}, manager, testGate)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: signedToken(t, manager, false)})
	newGateEngine(t, m).ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/login?callback=")
}

func TestGatePersistenceFailureIsServerError(t *testing.T) {
	manager := jwt.NewJWTManager("test-secret-key", time.Hour)
	m := NewAuthMiddlewareWith(&stubPrincipalLoader{err: errors.New("connection refused")}, &stubPermissionChecker{}, &stubTenantResolver{}, manager, testGate)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: signedToken(t, manager, false)})
	newGateEngine(t, m).ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGateAdminPathRejectsNonSuperAdmin(t *testing.T) {
	manager := jwt.NewJWTManager("test-secret-key", time.Hour)
	m := NewAuthMiddlewareWith(&stubPrincipalLoader{user: activeUser(false)}, &stubPermissionChecker{}, &stubTenantResolver{}, manager, testGate)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tenants", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: signedToken(t, manager, false)})
	newGateEngine(t, m).ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/403.html", w.Header().Get("Location"))
}

func TestGateAdminPathAllowsSuperAdmin(t *testing.T) {
	manager := jwt.NewJWTManager("test-secret-key", time.Hour)
	tenant := &models.Tenant{Name: "默认租户", Code: "default", Status: models.TenantStatusActive}
	tenant.ID = 1
	m := NewAuthMiddlewareWith(&stubPrincipalLoader{user: activeUser(true)}, &stubPermissionChecker{}, &stubTenantResolver{tenant: tenant}, manager, testGate)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tenants", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: signedToken(t, manager, true)})
	newGateEngine(t, m).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGateForwardsDerivedIdentityHeaders(t *testing.T) {
	manager := jwt.NewJWTManager("test-secret-key", time.Hour)
	tenant := &models.Tenant{Name: "默认租户", Code: "default", Status: models.TenantStatusActive}
	tenant.ID = 1
	m := NewAuthMiddlewareWith(&stubPrincipalLoader{user: activeUser(false)}, &stubPermissionChecker{}, &stubTenantResolver{tenant: tenant}, manager, testGate)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextTenantSignal, "default")
		c.Set(ContextTenantMethod, TenantMethodDefault)
	})
	r.Use(m.Gate())
	var forwarded http.Header
	r.GET("/api/v1/users", func(c *gin.Context) {
		forwarded = c.Request.Header.Clone()
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: signedToken(t, manager, false)})
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "default", forwarded.Get(ForwardTenantCodeHeader))
	assert.Equal(t, "42", forwarded.Get(ForwardPrincipalIDHeader))
	assert.Equal(t, "zhangsan@example.com", forwarded.Get(ForwardPrincipalEmailHeader))
	assert.Equal(t, "7", forwarded.Get(ForwardPrincipalTenantHeader))
}

func TestRequirePermission(t *testing.T) {
	manager := jwt.NewJWTManager("test-secret-key", time.Hour)
	checker := &stubPermissionChecker{granted: map[string]bool{"account.user.list": true}}
	m := NewAuthMiddlewareWith(&stubPrincipalLoader{user: activeUser(false)}, checker, &stubTenantResolver{}, manager, testGate)

	newEngine := func(code string) *gin.Engine {
		gin.SetMode(gin.TestMode)
		r := gin.New()
		r.GET("/api/v1/users", m.RequireLogin(), m.RequirePermission(code), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		return r
	}

	t.Run("有权限放行", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: signedToken(t, manager, false)})
		newEngine("account.user.list").ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("无权限跳禁止页", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: signedToken(t, manager, false)})
		newEngine("account.user.delete").ServeHTTP(w, req)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/403.html", w.Header().Get("Location"))
	})
}

func TestGateDelegatedAdminReadReachesHandler(t *testing.T) {
	// 管理员前缀只罩管理台页面时，持有admin.*授权的普通用户可以走到委托读取路由
	gate := config.GateConfig{
		PublicPrefixes:    []string{"/api/v1/health"},
		ProtectedPrefixes: []string{"/api/v1"},
		AdminPrefixes:     []string{"/admin"},
		LoginURL:          "/login",
		ForbiddenURL:      "/403.html",
	}
	manager := jwt.NewJWTManager("test-secret-key", time.Hour)
	checker := &stubPermissionChecker{granted: map[string]bool{"admin.tenant.read": true}}
	m := NewAuthMiddlewareWith(&stubPrincipalLoader{user: activeUser(false)}, checker, &stubTenantResolver{}, manager, gate)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextTenantSignal, "default")
		c.Set(ContextTenantMethod, TenantMethodDefault)
	})
	r.Use(m.Gate())
	r.GET("/api/v1/tenants/:id", m.RequireLogin(), m.RequirePermission("admin.tenant.read"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.PUT("/api/v1/tenants/:id", m.RequireLogin(), m.RequirePermission("admin.tenant.update"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	t.Run("授权读取放行", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tenants/1", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: signedToken(t, manager, false)})
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("未授权更新跳禁止页", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/v1/tenants/1", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: signedToken(t, manager, false)})
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/403.html", w.Header().Get("Location"))
	})
}

func TestRequirePermissionPersistenceFailureIsServerError(t *testing.T) {
	manager := jwt.NewJWTManager("test-secret-key", time.Hour)
	checker := &stubPermissionChecker{err: errors.New("connection refused")}
	m := NewAuthMiddlewareWith(&stubPrincipalLoader{user: activeUser(false)}, checker, &stubTenantResolver{}, manager, testGate)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/v1/users", m.RequireLogin(), m.RequirePermission("account.user.list"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: signedToken(t, manager, false)})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequireSuperAdmin(t *testing.T) {
	manager := jwt.NewJWTManager("test-secret-key", time.Hour)

	t.Run("超级管理员放行", func(t *testing.T) {
		m := NewAuthMiddlewareWith(&stubPrincipalLoader{user: activeUser(true)}, &stubPermissionChecker{}, &stubTenantResolver{}, manager, testGate)
		gin.SetMode(gin.TestMode)
		r := gin.New()
		r.GET("/x", m.RequireLogin(), m.RequireSuperAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: signedToken(t, manager, true)})
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("普通用户跳禁止页", func(t *testing.T) {
		m := NewAuthMiddlewareWith(&stubPrincipalLoader{user: activeUser(false)}, &stubPermissionChecker{}, &stubTenantResolver{}, manager, testGate)
		gin.SetMode(gin.TestMode)
		r := gin.New()
		r.GET("/x", m.RequireLogin(), m.RequireSuperAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: signedToken(t, manager, false)})
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/403.html", w.Header().Get("Location"))
	})
}
