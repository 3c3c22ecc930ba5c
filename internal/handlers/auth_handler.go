package handlers

import (
	"strconv"
	"time"

	"github.com/hugo617/healthcare-admin-sub002/internal/middleware"
	"github.com/hugo617/healthcare-admin-sub002/internal/models"
	"github.com/hugo617/healthcare-admin-sub002/internal/services"
	"github.com/hugo617/healthcare-admin-sub002/pkg/config"
	"github.com/hugo617/healthcare-admin-sub002/pkg/jwt"
	"github.com/hugo617/healthcare-admin-sub002/pkg/logger"
	"github.com/hugo617/healthcare-admin-sub002/pkg/response"
	"github.com/hugo617/healthcare-admin-sub002/pkg/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthHandler struct {
	userService  *services.UserService
	authzService *services.AuthzService
	sessionStore *session.SessionStore
	jwtManager   *jwt.JWTManager
}

func NewAuthHandler(userService *services.UserService, authzService *services.AuthzService, sessionStore *session.SessionStore) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		authzService: authzService,
		sessionStore: sessionStore,
		jwtManager:   jwt.GetJWTManager(), // 使用全局JWT管理器
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string   `json:"token"`
	ExpiresAt int64    `json:"expires_at"`
	User      UserInfo `json:"user"`
}

// UserInfo 会话中的用户信息
// TenantID序列化为字符串，避免前端大整数精度问题
type UserInfo struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	TenantID     string `json:"tenant_id"`
	TenantCode   string `json:"tenant_code"`
	RoleID       uint   `json:"role_id"`
	IsSuperAdmin bool   `json:"is_super_admin"`
}

func newUserInfo(user *models.User) UserInfo {
	info := UserInfo{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		Name:         user.Name,
		TenantID:     strconv.FormatUint(uint64(user.TenantID), 10),
		RoleID:       user.RoleID,
		IsSuperAdmin: user.IsSuperAdmin,
	}
	if user.Tenant != nil {
		info.TenantCode = user.Tenant.Code
	}
	return info
}

// Login 管理台登录
func (h *AuthHandler) Login(c *gin.Context) {
	h.login(c, middleware.ClientTypeAdmin)
}

// H5Login 移动端H5登录
func (h *AuthHandler) H5Login(c *gin.Context) {
	h.login(c, middleware.ClientTypeH5)
}

// 各客户端旧Cookie名
var legacyCookieByClient = map[string]string{
	middleware.ClientTypeAdmin: "admin_token",
	middleware.ClientTypeH5:    "h5_token",
}

func (h *AuthHandler) login(c *gin.Context, clientType string) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	// 根据用户名获取用户
	user, err := h.userService.GetByUsername(req.Username)
	if err != nil {
		response.Unauthorized(c, "用户名或密码错误")
		return
	}

	// 检查用户状态：禁用/锁定的账号直接拒绝
	if !user.IsActive() {
		response.Unauthorized(c, "用户已被禁用")
		return
	}

	// 验证密码
	if !user.CheckPassword(req.Password) {
		response.Unauthorized(c, "用户名或密码错误")
		return
	}

	// 生成Token
	token, err := h.jwtManager.GenerateToken(
		user.ID,
		user.TenantID,
		user.RoleID,
		user.Username,
		user.Email,
		user.IsSuperAdmin,
	)
	if err != nil {
		response.ServerError(c, "生成Token失败")
		return
	}

	// 下发Cookie：统一名与该客户端旧名并行，迁移期两套前端都能读到
	h.setTokenCookies(c, token, clientType)

	// 登记会话（吊销钩子，核心认证不依赖）
	record := &session.SessionRecord{
		SessionID:  uuid.NewString(),
		UserID:     user.ID,
		TenantID:   user.TenantID,
		Username:   user.Username,
		ClientType: clientType,
		LoginAt:    time.Now().Unix(),
	}
	if err := h.sessionStore.Record(record, h.jwtManager.GetTokenDuration()); err != nil {
		logger.WithSecurityContext(user.ID, user.TenantID, c.Request.URL.Path).
			Warnf("会话登记失败: %v", err)
	}

	// 更新最后登录时间
	if err := h.userService.UpdateLastLogin(user.ID); err != nil {
		// 记录日志但不影响登录流程
		logger.GetLogger().Warnf("更新最后登录时间失败: %v", err)
	}

	// 计算过期时间
	expiresAt := time.Now().Add(h.jwtManager.GetTokenDuration()).Unix()

	response.Success(c, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      newUserInfo(user),
	})
}

func (h *AuthHandler) setTokenCookies(c *gin.Context, token string, clientType string) {
	cfg := config.GetConfig()
	maxAge := int(h.jwtManager.GetTokenDuration().Seconds())

	c.SetCookie(middleware.UnifiedCookieName, token, maxAge, "/", cfg.JWT.CookieDomain, cfg.JWT.CookieSecure, true)
	if legacy, ok := legacyCookieByClient[clientType]; ok {
		c.SetCookie(legacy, token, maxAge, "/", cfg.JWT.CookieDomain, cfg.JWT.CookieSecure, true)
	}
}

// Session 会话查询
// Cookie会话 → Authorization头 → 兜底提取，三者依次尝试；
// 无可用会话返回 {user: null} 而非错误
func (h *AuthHandler) Session(c *gin.Context) {
	token, _, ok := middleware.CurrentToken(c)
	if !ok {
		response.Success(c, gin.H{"user": nil})
		return
	}

	claims, err := h.jwtManager.VerifyToken(token)
	if err != nil {
		response.Success(c, gin.H{"user": nil})
		return
	}

	user, err := h.userService.LoadPrincipal(claims)
	if err != nil {
		response.Success(c, gin.H{"user": nil})
		return
	}

	response.Success(c, gin.H{"user": newUserInfo(user)})
}

// Me 获取当前用户完整信息（需登录）
func (h *AuthHandler) Me(c *gin.Context) {
	userValue, exists := c.Get("user")
	if !exists {
		response.Unauthorized(c, "请先登录")
		return
	}

	user := userValue.(*models.User)
	response.Success(c, newUserInfo(user))
}

type CheckPermissionsRequest struct {
	Codes      []string `json:"codes" binding:"required,min=1"`
	ResourceID *uint    `json:"resource_id"`
}

// CheckPermissions 批量权限检查
// 返回 code→bool 映射及汇总 {total, granted, denied, granted_rate}
func (h *AuthHandler) CheckPermissions(c *gin.Context) {
	userValue, exists := c.Get("user")
	if !exists {
		response.Unauthorized(c, "请先登录")
		return
	}
	user := userValue.(*models.User)

	var req CheckPermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	result, err := h.authzService.CheckPermissions(user, req.Codes)
	if err != nil {
		logger.WithSecurityContext(user.ID, user.TenantID, c.Request.URL.Path).
			Errorf("批量权限检查失败: %v", err)
		response.ServerError(c, "权限检查失败")
		return
	}

	response.Success(c, result)
}

// Logout 用户登出
// 无论实际通过哪个Cookie认证，清除所有已知Cookie名，
// 保证两套前端迁移期间客户端状态干净；令牌无效也算登出成功
func (h *AuthHandler) Logout(c *gin.Context) {
	cfg := config.GetConfig()
	for _, name := range middleware.AllTokenCookieNames() {
		c.SetCookie(name, "", -1, "/", cfg.JWT.CookieDomain, cfg.JWT.CookieSecure, true)
	}

	// 能识别出主体时顺带移除会话登记
	if token, _, ok := middleware.CurrentToken(c); ok {
		if claims, err := h.jwtManager.VerifyToken(token); err == nil {
			if err := h.sessionStore.RemoveByUser(claims.UserID); err != nil {
				logger.GetLogger().Warnf("移除会话登记失败: %v", err)
			}
		}
	}

	response.SuccessWithMessage(c, "登出成功", nil)
}

// RefreshToken 刷新Token
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token, clientType, ok := middleware.CurrentToken(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}

	newToken, err := h.jwtManager.RefreshToken(token)
	if err != nil {
		response.Unauthorized(c, "Token无效或已过期")
		return
	}

	h.setTokenCookies(c, newToken, clientType)

	expiresAt := time.Now().Add(h.jwtManager.GetTokenDuration()).Unix()
	response.Success(c, gin.H{
		"token":      newToken,
		"expires_at": expiresAt,
	})
}
