package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// 客户端类型：两套前端使用不同的Cookie约定
const (
	ClientTypeAdmin = "admin" // 浏览器管理台
	ClientTypeH5    = "h5"    // 移动端H5
)

// tokenSource Cookie来源描述符
type tokenSource struct {
	CookieName string
	ClientType string // 为空表示由请求提示决定
}

// Cookie查找顺序，首个命中生效。
// 系统从两套独立Cookie的子系统演化而来，这个顺序一旦变动，
// 其中一类客户端已签发的会话会静默失效，不得调整。
var cookieSources = []tokenSource{
	{CookieName: "auth_token", ClientType: ""},               // 统一Cookie
	{CookieName: "admin_token", ClientType: ClientTypeAdmin}, // 管理台旧Cookie
	{CookieName: "h5_token", ClientType: ClientTypeH5},       // H5旧Cookie
	{CookieName: "token", ClientType: ""},                    // 通用旧Cookie
}

// UnifiedCookieName 统一Cookie名，登录时与旧名并行下发
const UnifiedCookieName = "auth_token"

// ClientTypeHeader 前端声明客户端类型的请求头
const ClientTypeHeader = "X-Client-Type"

// AllTokenCookieNames 所有已知的令牌Cookie名
// 注销时无论实际用哪个认证，全部清除，保证两套前端迁移期间客户端状态干净
func AllTokenCookieNames() []string {
	names := make([]string, 0, len(cookieSources))
	for _, source := range cookieSources {
		names = append(names, source.CookieName)
	}
	return names
}

// LocateCookieToken 按固定优先级从Cookie定位令牌
func LocateCookieToken(c *gin.Context) (token string, clientType string, ok bool) {
	hint := clientHint(c)
	for _, source := range cookieSources {
		value, err := c.Cookie(source.CookieName)
		if err != nil || value == "" {
			continue
		}
		clientType = source.ClientType
		if clientType == "" {
			clientType = hint
		}
		return value, clientType, true
	}
	return "", "", false
}

// LocateBearerToken 从Authorization头提取Bearer令牌
// 与Cookie互相独立，头存在与否不影响Cookie查找
func LocateBearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(authHeader[7:])
	if token == "" {
		return "", false
	}
	return token, true
}

// CurrentToken 请求级"当前用户"快捷提取：
// Cookie会话 → Authorization头 → query参数兜底，三者都尝试过才算未登录
func CurrentToken(c *gin.Context) (token string, clientType string, ok bool) {
	if token, clientType, ok = LocateCookieToken(c); ok {
		return token, clientType, true
	}
	if token, ok = LocateBearerToken(c); ok {
		return token, clientHint(c), true
	}
	if token = c.Query("token"); token != "" {
		return token, clientHint(c), true
	}
	return "", "", false
}

// clientHint 读取客户端类型提示头
func clientHint(c *gin.Context) string {
	switch c.GetHeader(ClientTypeHeader) {
	case ClientTypeH5:
		return ClientTypeH5
	case ClientTypeAdmin:
		return ClientTypeAdmin
	default:
		return ""
	}
}
