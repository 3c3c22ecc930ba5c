package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T, target string) (*gin.Context, *http.Request) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c.Request = req
	return c, req
}

func TestLocateCookieTokenPrecedence(t *testing.T) {
	tests := []struct {
		name       string
		cookies    map[string]string
		wantToken  string
		wantClient string
	}{
		{
			name:       "统一Cookie优先于所有旧Cookie",
			cookies:    map[string]string{"auth_token": "t-unified", "admin_token": "t-admin", "h5_token": "t-h5", "token": "t-generic"},
			wantToken:  "t-unified",
			wantClient: "",
		},
		{
			name:       "管理台旧Cookie优先于H5旧Cookie",
			cookies:    map[string]string{"admin_token": "t-admin", "h5_token": "t-h5", "token": "t-generic"},
			wantToken:  "t-admin",
			wantClient: ClientTypeAdmin,
		},
		{
			name:       "H5旧Cookie优先于通用旧Cookie",
			cookies:    map[string]string{"h5_token": "t-h5", "token": "t-generic"},
			wantToken:  "t-h5",
			wantClient: ClientTypeH5,
		},
		{
			name:       "通用旧Cookie兜底",
			cookies:    map[string]string{"token": "t-generic"},
			wantToken:  "t-generic",
			wantClient: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, req := newTestContext(t, "/api/v1/auth/me")
			for name, value := range tt.cookies {
				req.AddCookie(&http.Cookie{Name: name, Value: value})
			}

			token, clientType, ok := LocateCookieToken(c)
			require.True(t, ok)
			assert.Equal(t, tt.wantToken, token)
			assert.Equal(t, tt.wantClient, clientType)
		})
	}
}

func TestLocateCookieTokenSkipsEmptyValues(t *testing.T) {
	c, req := newTestContext(t, "/api/v1/auth/me")
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: ""})
	req.AddCookie(&http.Cookie{Name: "admin_token", Value: "t-admin"})

	token, clientType, ok := LocateCookieToken(c)
	require.True(t, ok)
	assert.Equal(t, "t-admin", token)
	assert.Equal(t, ClientTypeAdmin, clientType)
}

func TestLocateCookieTokenUsesClientHint(t *testing.T) {
	c, req := newTestContext(t, "/api/v1/auth/me")
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: "t-unified"})
	req.Header.Set(ClientTypeHeader, ClientTypeH5)

	token, clientType, ok := LocateCookieToken(c)
	require.True(t, ok)
	assert.Equal(t, "t-unified", token)
	assert.Equal(t, ClientTypeH5, clientType)
}

func TestLocateCookieTokenMissing(t *testing.T) {
	c, _ := newTestContext(t, "/api/v1/auth/me")

	_, _, ok := LocateCookieToken(c)
	assert.False(t, ok)
}

func TestLocateBearerToken(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantToken string
		wantOK    bool
	}{
		{"标准Bearer", "Bearer abc123", "abc123", true},
		{"缺少头", "", "", false},
		{"非Bearer方案", "Basic abc123", "", false},
		{"Bearer后为空", "Bearer ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, req := newTestContext(t, "/api/v1/auth/me")
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			token, ok := LocateBearerToken(c)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantToken, token)
		})
	}
}

func TestCurrentTokenFallbackOrder(t *testing.T) {
	t.Run("Cookie优先于Authorization头", func(t *testing.T) {
		c, req := newTestContext(t, "/api/v1/auth/session?token=t-query")
		req.AddCookie(&http.Cookie{Name: "token", Value: "t-cookie"})
		req.Header.Set("Authorization", "Bearer t-bearer")

		token, _, ok := CurrentToken(c)
		require.True(t, ok)
		assert.Equal(t, "t-cookie", token)
	})

	t.Run("Authorization头优先于query参数", func(t *testing.T) {
		c, req := newTestContext(t, "/api/v1/auth/session?token=t-query")
		req.Header.Set("Authorization", "Bearer t-bearer")

		token, _, ok := CurrentToken(c)
		require.True(t, ok)
		assert.Equal(t, "t-bearer", token)
	})

	t.Run("query参数兜底", func(t *testing.T) {
		c, _ := newTestContext(t, "/api/v1/auth/session?token=t-query")

		token, _, ok := CurrentToken(c)
		require.True(t, ok)
		assert.Equal(t, "t-query", token)
	})

	t.Run("三者皆无则未登录", func(t *testing.T) {
		c, _ := newTestContext(t, "/api/v1/auth/session")

		_, _, ok := CurrentToken(c)
		assert.False(t, ok)
	})
}

func TestAllTokenCookieNames(t *testing.T) {
	names := AllTokenCookieNames()
	assert.Equal(t, []string{"auth_token", "admin_token", "h5_token", "token"}, names)
}
