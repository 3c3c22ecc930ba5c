package middleware

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/hugo617/healthcare-admin-sub002/internal/models"
	"github.com/hugo617/healthcare-admin-sub002/internal/services"
	"github.com/hugo617/healthcare-admin-sub002/pkg/config"
	apperrors "github.com/hugo617/healthcare-admin-sub002/pkg/errors"
	"github.com/hugo617/healthcare-admin-sub002/pkg/jwt"
	"github.com/hugo617/healthcare-admin-sub002/pkg/logger"
	"github.com/hugo617/healthcare-admin-sub002/pkg/response"

	"github.com/gin-gonic/gin"
)

// 下游透传的派生标识头：后续处理器无需重复解析租户与身份
const (
	ForwardTenantCodeHeader      = "X-Forwarded-Tenant-Code"
	ForwardPrincipalIDHeader     = "X-Forwarded-Principal-Id"
	ForwardPrincipalEmailHeader  = "X-Forwarded-Principal-Email"
	ForwardPrincipalTenantHeader = "X-Forwarded-Principal-Tenant-Id"
)

type principalLoader interface {
	LoadPrincipal(claims *jwt.JWTClaims) (*models.User, error)
}

type permissionChecker interface {
	HasPermission(user *models.User, code string) (bool, error)
}

type tenantRecordResolver interface {
	ResolveRecord(signal string) (*models.Tenant, error)
}

// AuthMiddleware 请求门卫
// 每个请求的状态机：未解析 → 租户已解析 → (已认证|匿名) → (已授权|拒绝|跳转)
type AuthMiddleware struct {
	users      principalLoader
	authz      permissionChecker
	tenants    tenantRecordResolver
	jwtManager *jwt.JWTManager
	gate       config.GateConfig
}

func NewAuthMiddleware() *AuthMiddleware {
	return &AuthMiddleware{
		users:      services.NewUserService(),
		authz:      services.NewAuthzService(),
		tenants:    services.NewTenantService(),
		jwtManager: jwt.GetJWTManager(), // 使用全局JWT管理器
		gate:       config.GetConfig().Gate,
	}
}

// NewAuthMiddlewareWith 注入依赖（测试用）
func NewAuthMiddlewareWith(users principalLoader, authz permissionChecker, tenants tenantRecordResolver, manager *jwt.JWTManager, gate config.GateConfig) *AuthMiddleware {
	return &AuthMiddleware{
		users:      users,
		authz:      authz,
		tenants:    tenants,
		jwtManager: manager,
		gate:       gate,
	}
}

// authenticate 从请求提取并验证令牌，解析为完整主体
// 令牌错误与主体错误都以类型化错误返回，在门卫内部就地消化为匿名/跳转，
// 原始验证异常绝不向业务逻辑传播
func (m *AuthMiddleware) authenticate(c *gin.Context) (*models.User, *jwt.JWTClaims, string, error) {
	token, clientType, ok := CurrentToken(c)
	if !ok {
		return nil, nil, "", apperrors.ErrMalformedToken
	}

	claims, err := m.jwtManager.VerifyToken(token)
	if err != nil {
		return nil, nil, "", err
	}

	user, err := m.users.LoadPrincipal(claims)
	if err != nil {
		return nil, nil, "", err
	}

	return user, claims, clientType, nil
}

// isAuthError 认证类错误（降级为匿名），区别于持久层故障（当次请求按500处理）
func isAuthError(err error) bool {
	return apperrors.Is(err, apperrors.ErrMalformedToken) ||
		apperrors.Is(err, apperrors.ErrExpiredToken) ||
		apperrors.Is(err, apperrors.ErrUnknownPrincipal) ||
		apperrors.Is(err, apperrors.ErrDisabledPrincipal)
}

// attachPrincipal 将认证结果写入请求上下文
func (m *AuthMiddleware) attachPrincipal(c *gin.Context, user *models.User, claims *jwt.JWTClaims, clientType string) {
	c.Set("user", user)
	c.Set("user_id", user.ID)
	c.Set("username", user.Username)
	c.Set("email", user.Email)
	c.Set("tenant_id", user.TenantID)
	c.Set("role_id", user.RoleID)
	c.Set("is_super_admin", user.IsSuperAdmin)
	c.Set("client_type", clientType)
	c.Set("claims", claims)
}

// forwardContext 将派生标识写入透传头
func (m *AuthMiddleware) forwardContext(c *gin.Context, user *models.User) {
	resolution := TenantSignalFromContext(c)
	tenant, err := m.tenants.ResolveRecord(resolution.TenantID)
	if err == nil && tenant != nil {
		c.Request.Header.Set(ForwardTenantCodeHeader, tenant.Code)
	}
	c.Request.Header.Set(ForwardPrincipalIDHeader, fmt.Sprintf("%d", user.ID))
	c.Request.Header.Set(ForwardPrincipalEmailHeader, user.Email)
	c.Request.Header.Set(ForwardPrincipalTenantHeader, fmt.Sprintf("%d", user.TenantID))
}

// redirectToLogin 未认证时跳转登录页，callback参数保留原始路径
// 管理台是浏览器驱动，跳转而非裸401
func (m *AuthMiddleware) redirectToLogin(c *gin.Context) {
	callback := url.QueryEscape(c.Request.URL.RequestURI())
	response.Redirect(c, fmt.Sprintf("%s?callback=%s", m.gate.LoginURL, callback))
	c.Abort()
}

// redirectToForbidden 已认证但权限不足：跳静态禁止页而非登录页
func (m *AuthMiddleware) redirectToForbidden(c *gin.Context) {
	response.Redirect(c, m.gate.ForbiddenURL)
	c.Abort()
}

func matchPrefix(prefixes []string, path string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Gate 路由级门卫中间件
// 公共前缀跳过认证只带租户上下文；受保护前缀要求有效主体；
// 管理员前缀额外要求超级管理员
func (m *AuthMiddleware) Gate() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		// 公共路径：跳过认证
		if matchPrefix(m.gate.PublicPrefixes, path) {
			c.Next()
			return
		}

		adminOnly := matchPrefix(m.gate.AdminPrefixes, path)
		protected := adminOnly || matchPrefix(m.gate.ProtectedPrefixes, path)
		if !protected {
			c.Next()
			return
		}

		user, claims, clientType, err := m.authenticate(c)
		if err != nil {
			if isAuthError(err) {
				m.redirectToLogin(c)
				return
			}
			// 持久层故障：记录安全上下文后按500处理，不泄露令牌内容
			resolution := TenantSignalFromContext(c)
			logger.GetLogger().WithField("route", path).
				WithField("tenant_signal", resolution.TenantID).
				Errorf("主体加载失败: %v", err)
			response.ServerErrorStatus(c, "服务器内部错误")
			c.Abort()
			return
		}

		// 管理员专属路径：主体已认证但非超级管理员时跳禁止页
		if adminOnly && !user.IsSuperAdmin {
			logger.WithSecurityContext(user.ID, user.TenantID, path).
				Warn("非超级管理员访问管理员专属路径被拒绝")
			m.redirectToForbidden(c)
			return
		}

		m.attachPrincipal(c, user, claims, clientType)
		m.forwardContext(c, user)
		c.Next()
	}
}

// RequireLogin 要求已登录主体（API组内使用）
// 门卫已附加主体时直接放行，避免重复认证查询
func (m *AuthMiddleware) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get("user"); exists {
			c.Next()
			return
		}

		user, claims, clientType, err := m.authenticate(c)
		if err != nil {
			if isAuthError(err) {
				m.redirectToLogin(c)
				return
			}
			response.ServerErrorStatus(c, "服务器内部错误")
			c.Abort()
			return
		}

		m.attachPrincipal(c, user, claims, clientType)
		c.Next()
	}
}

// RequirePermission 要求特定权限
// 判定为false不是错误：由这里把false转成跳转禁止页
func (m *AuthMiddleware) RequirePermission(permissionCode string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userValue, exists := c.Get("user")
		if !exists {
			m.redirectToLogin(c)
			return
		}
		user := userValue.(*models.User)

		hasPermission, err := m.authz.HasPermission(user, permissionCode)
		if err != nil {
			logger.WithSecurityContext(user.ID, user.TenantID, c.Request.URL.Path).
				Errorf("权限检查失败: %v", err)
			response.ServerErrorStatus(c, "权限检查失败")
			c.Abort()
			return
		}

		if !hasPermission {
			logger.WithSecurityContext(user.ID, user.TenantID, c.Request.URL.Path).
				Warnf("权限不足: %s", permissionCode)
			m.redirectToForbidden(c)
			return
		}

		c.Next()
	}
}

// RequireSuperAdmin 要求超级管理员
func (m *AuthMiddleware) RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userValue, exists := c.Get("user")
		if !exists {
			m.redirectToLogin(c)
			return
		}

		if !userValue.(*models.User).IsSuperAdmin {
			m.redirectToForbidden(c)
			return
		}

		c.Next()
	}
}

// CombineMiddleware 组合中间件（登录 + 权限）
func (m *AuthMiddleware) CombineMiddleware(permissionCode string) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.RequireLogin(),
		m.RequirePermission(permissionCode),
	}
}
