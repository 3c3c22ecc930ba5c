package middleware

import (
	"net/http"
	"testing"
	"time"

	"github.com/hugo617/healthcare-admin-sub002/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTenantJWTPriority(t *testing.T) {
	manager := jwt.NewJWTManager("test-secret-key", time.Hour)
	token, err := manager.GenerateToken(1, 9, 1, "zhangsan", "zhangsan@example.com", false)
	require.NoError(t, err)

	c, req := newTestContext(t, "http://acme.app.example.com/api/v1/users")
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: token})
	req.Header.Set(TenantIDHeader, "5")
	req.Host = "acme.app.example.com"

	resolution := ResolveTenant(c, manager, "default")
	assert.Equal(t, "9", resolution.TenantID)
	assert.Equal(t, TenantMethodJWT, resolution.Method)
}

func TestResolveTenantInvalidJWTIsNotASignal(t *testing.T) {
	manager := jwt.NewJWTManager("test-secret-key", time.Hour)

	c, req := newTestContext(t, "/api/v1/users")
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: "garbage"})
	req.Header.Set(TenantIDHeader, "5")

	resolution := ResolveTenant(c, manager, "default")
	assert.Equal(t, "5", resolution.TenantID)
	assert.Equal(t, TenantMethodHeader, resolution.Method)
}

func TestResolveTenantHeaderPrecedence(t *testing.T) {
	manager := jwt.NewJWTManager("test-secret-key", time.Hour)

	t.Run("ID头优先于Code头", func(t *testing.T) {
		c, req := newTestContext(t, "/api/v1/users")
		req.Header.Set(TenantIDHeader, "5")
		req.Header.Set(TenantCodeHeader, "acme")

		resolution := ResolveTenant(c, manager, "default")
		assert.Equal(t, "5", resolution.TenantID)
		assert.Equal(t, TenantMethodHeader, resolution.Method)
	})

	t.Run("仅Code头", func(t *testing.T) {
		c, req := newTestContext(t, "/api/v1/users")
		req.Header.Set(TenantCodeHeader, "acme")

		resolution := ResolveTenant(c, manager, "default")
		assert.Equal(t, "acme", resolution.TenantID)
		assert.Equal(t, TenantMethodHeader, resolution.Method)
	})
}

func TestResolveTenantSubdomain(t *testing.T) {
	manager := jwt.NewJWTManager("test-secret-key", time.Hour)

	tests := []struct {
		name       string
		host       string
		wantID     string
		wantMethod string
	}{
		{"三级域名取最左标签", "acme.app.example.com", "acme", TenantMethodSubdomain},
		{"端口号被剥离", "acme.example.com:8080", "acme", TenantMethodSubdomain},
		{"标签统一小写", "ACME.example.com", "acme", TenantMethodSubdomain},
		{"www保留标签", "www.example.com", "default", TenantMethodDefault},
		{"app保留标签", "app.example.com", "default", TenantMethodDefault},
		{"二级域名无子域", "example.com", "default", TenantMethodDefault},
		{"IP地址不算", "192.168.1.10", "default", TenantMethodDefault},
		{"带端口的IP不算", "192.168.1.10:8080", "default", TenantMethodDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, req := newTestContext(t, "/api/v1/users")
			req.Host = tt.host

			resolution := ResolveTenant(c, manager, "default")
			assert.Equal(t, tt.wantID, resolution.TenantID)
			assert.Equal(t, tt.wantMethod, resolution.Method)
		})
	}
}

func TestResolveTenantQueryFallback(t *testing.T) {
	manager := jwt.NewJWTManager("test-secret-key", time.Hour)

	c, req := newTestContext(t, "/api/v1/users?tenant=acme")
	req.Host = "example.com"

	resolution := ResolveTenant(c, manager, "default")
	assert.Equal(t, "acme", resolution.TenantID)
	assert.Equal(t, TenantMethodQuery, resolution.Method)
}

func TestResolveTenantDefaultOnlyWhenNoSignal(t *testing.T) {
	manager := jwt.NewJWTManager("test-secret-key", time.Hour)

	c, req := newTestContext(t, "/api/v1/users")
	req.Host = "example.com"

	resolution := ResolveTenant(c, manager, "default")
	assert.Equal(t, "default", resolution.TenantID)
	assert.Equal(t, TenantMethodDefault, resolution.Method)
}

func TestSubdomainLabel(t *testing.T) {
	label, ok := subdomainLabel("clinic-a.portal.example.com")
	require.True(t, ok)
	assert.Equal(t, "clinic-a", label)

	_, ok = subdomainLabel("localhost:8080")
	assert.False(t, ok)
}
