package middleware

import (
	"net"
	"strconv"
	"strings"

	"github.com/hugo617/healthcare-admin-sub002/pkg/config"
	"github.com/hugo617/healthcare-admin-sub002/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// 租户解析方式，按优先级排列
const (
	TenantMethodJWT       = "jwt"       // 已验证令牌里的租户声明
	TenantMethodHeader    = "header"    // 上游网关写入的显式租户头
	TenantMethodSubdomain = "subdomain" // 主机名最左侧标签
	TenantMethodQuery     = "query"     // tenant查询参数
	TenantMethodDefault   = "default"   // 系统默认租户兜底
)

// 租户信号请求头
const (
	TenantIDHeader   = "X-Tenant-Id"
	TenantCodeHeader = "X-Tenant-Code"
)

// 子域名保留标签，不作为租户代码
var reservedSubdomains = map[string]bool{
	"www": true,
	"app": true,
}

// 上下文键
const (
	ContextTenantSignal = "tenant_signal"
	ContextTenantMethod = "tenant_method"
)

// TenantResolution 租户解析结果：恰好一个(租户标识, 解析方式)对
type TenantResolution struct {
	TenantID string `json:"tenant_id"`
	Method   string `json:"method"`
}

// ResolveTenant 按固定优先级从请求推导租户标识
// 解析永不硬失败：所有信号缺失时退回默认租户，
// 必须绑定特定租户的端点需自行检查 Method != default
func ResolveTenant(c *gin.Context, manager *jwt.JWTManager, defaultCode string) TenantResolution {
	// 1. 已验证令牌里的租户声明（未验证的令牌不算信号）
	if token, _, ok := CurrentToken(c); ok {
		if claims, err := manager.VerifyToken(token); err == nil && claims.TenantID > 0 {
			return TenantResolution{
				TenantID: strconv.FormatUint(uint64(claims.TenantID), 10),
				Method:   TenantMethodJWT,
			}
		}
	}

	// 2. 显式租户头
	if id := c.GetHeader(TenantIDHeader); id != "" {
		return TenantResolution{TenantID: id, Method: TenantMethodHeader}
	}
	if code := c.GetHeader(TenantCodeHeader); code != "" {
		return TenantResolution{TenantID: code, Method: TenantMethodHeader}
	}

	// 3. 子域名
	if label, ok := subdomainLabel(c.Request.Host); ok {
		return TenantResolution{TenantID: label, Method: TenantMethodSubdomain}
	}

	// 4. 查询参数（默认租户下的列表/导出类接口使用）
	if tenant := c.Query("tenant"); tenant != "" {
		return TenantResolution{TenantID: tenant, Method: TenantMethodQuery}
	}

	// 5. 系统默认租户
	return TenantResolution{TenantID: defaultCode, Method: TenantMethodDefault}
}

// subdomainLabel 取主机名最左侧标签作为租户代码
// 保留标签(www/app)、IP地址、不足三级的域名都不算
func subdomainLabel(host string) (string, bool) {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if net.ParseIP(host) != nil {
		return "", false
	}

	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return "", false
	}

	label := strings.ToLower(parts[0])
	if label == "" || reservedSubdomains[label] {
		return "", false
	}
	return label, true
}

// TenantMiddleware 租户解析中间件
// 每个请求解析一次租户信号并写入上下文，公共端点只带租户上下文前行
func TenantMiddleware() gin.HandlerFunc {
	cfg := config.GetConfig()
	manager := jwt.GetJWTManager()

	return func(c *gin.Context) {
		resolution := ResolveTenant(c, manager, cfg.Tenant.DefaultCode)
		c.Set(ContextTenantSignal, resolution.TenantID)
		c.Set(ContextTenantMethod, resolution.Method)
		c.Next()
	}
}

// TenantSignalFromContext 读取本请求的租户解析结果
func TenantSignalFromContext(c *gin.Context) TenantResolution {
	signal, _ := c.Get(ContextTenantSignal)
	method, _ := c.Get(ContextTenantMethod)

	resolution := TenantResolution{}
	if s, ok := signal.(string); ok {
		resolution.TenantID = s
	}
	if m, ok := method.(string); ok {
		resolution.Method = m
	}
	return resolution
}
