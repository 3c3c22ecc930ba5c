package router

import (
	"time"

	"github.com/hugo617/healthcare-admin-sub002/internal/database"
	"github.com/hugo617/healthcare-admin-sub002/internal/handlers"
	"github.com/hugo617/healthcare-admin-sub002/internal/middleware"
	"github.com/hugo617/healthcare-admin-sub002/internal/services"
	"github.com/hugo617/healthcare-admin-sub002/pkg/response"

	"github.com/gin-gonic/gin"
)

// SetupRouter 设置路由
func SetupRouter() *gin.Engine {
	router := gin.New()

	// 中间件
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.SetupCORS())
	router.Use(middleware.TenantMiddleware())

	// 注册路由
	registerRoutes(router)
	return router
}

// 注册所有路由
func registerRoutes(router *gin.Engine) {

	auth := middleware.NewAuthMiddleware()

	// 请求门卫：按前缀分类公开/受保护/管理员专属路径
	router.Use(auth.Gate())

	// API路由组
	api := router.Group("/api/v1")
	{
		// 健康检查接口
		api.GET("/health", healthCheck)
		api.GET("/ping", ping)

		// 认证路由
		authHandler := handlers.NewAuthHandler(
			services.NewUserService(),
			services.NewAuthzService(),
			database.GetSessionStore(),
		)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)        // 管理台登录
			authGroup.POST("/h5/login", authHandler.H5Login)   // H5登录
			authGroup.POST("/logout", authHandler.Logout)      // 登出：清除所有已知Cookie
			authGroup.GET("/session", authHandler.Session)     // 会话查询：{user} 或 {user: null}
			authGroup.POST("/refresh", authHandler.RefreshToken)

			// 需登录的认证接口
			authGroup.GET("/me", auth.RequireLogin(), authHandler.Me)
			authGroup.POST("/check-permissions", auth.RequireLogin(), authHandler.CheckPermissions)
		}

		// 租户路由
		tenantHandler := handlers.NewTenantHandler(services.NewTenantService())

		// 当前请求的租户解析结果（只需登录）
		api.GET("/auth/tenant", auth.RequireLogin(), tenantHandler.Current)

		tenants := api.Group("/tenants")
		{
			// 增删与状态流转仅超级管理员，详情/更新可经admin.tenant.*授权委托
			tenants.POST("", auth.RequireLogin(), auth.RequireSuperAdmin(), tenantHandler.Create)
			tenants.GET("", auth.RequireLogin(), auth.RequireSuperAdmin(), tenantHandler.GetAll)
			tenants.GET("/:id", auth.RequireLogin(), auth.RequirePermission("admin.tenant.read"), tenantHandler.GetByID)
			tenants.PUT("/:id", auth.RequireLogin(), auth.RequirePermission("admin.tenant.update"), tenantHandler.Update)
			tenants.DELETE("/:id", auth.RequireLogin(), auth.RequireSuperAdmin(), tenantHandler.Delete)

			tenants.POST("/:id/activate", auth.RequireLogin(), auth.RequireSuperAdmin(), tenantHandler.Activate)
			tenants.POST("/:id/deactivate", auth.RequireLogin(), auth.RequireSuperAdmin(), tenantHandler.Deactivate)
			tenants.POST("/:id/suspend", auth.RequireLogin(), auth.RequireSuperAdmin(), tenantHandler.Suspend)
		}

		// 用户路由
		userHandler := handlers.NewUserHandler()
		users := api.Group("/users")
		{
			users.POST("", auth.RequireLogin(), auth.RequirePermission("account.user.create"), userHandler.Create)
			users.GET("", auth.RequireLogin(), auth.RequirePermission("account.user.list"), userHandler.GetAll)
			users.GET("/:id", auth.RequireLogin(), auth.RequirePermission("account.user.read"), userHandler.GetByID)
			users.PUT("/:id", auth.RequireLogin(), auth.RequirePermission("account.user.update"), userHandler.Update)
			users.DELETE("/:id", auth.RequireLogin(), auth.RequirePermission("account.user.delete"), userHandler.Delete)

			users.POST("/:id/activate", auth.RequireLogin(), auth.RequirePermission("account.user.update"), userHandler.Activate)
			users.POST("/:id/deactivate", auth.RequireLogin(), auth.RequirePermission("account.user.update"), userHandler.Deactivate)
			users.POST("/:id/lock", auth.RequireLogin(), auth.RequirePermission("account.user.update"), userHandler.Lock)
		}

		// 角色路由
		roleHandler := handlers.NewRoleHandler(services.NewRoleService())
		roles := api.Group("/roles")
		{
			roles.POST("", auth.RequireLogin(), auth.RequirePermission("account.role.create"), roleHandler.Create)
			roles.GET("", auth.RequireLogin(), auth.RequirePermission("account.role.list"), roleHandler.GetByTenant)
			roles.GET("/:id", auth.RequireLogin(), auth.RequirePermission("account.role.read"), roleHandler.GetByID)
			roles.PUT("/:id", auth.RequireLogin(), auth.RequirePermission("account.role.update"), roleHandler.Update)
			roles.DELETE("/:id", auth.RequireLogin(), auth.RequirePermission("account.role.delete"), roleHandler.Delete)

			roles.POST("/:id/permissions", auth.RequireLogin(), auth.RequirePermission("account.role.assign"), roleHandler.AssignPermissions)
			roles.GET("/:id/permissions", auth.RequireLogin(), auth.RequirePermission("account.role.read"), roleHandler.GetPermissions)
		}

		// 权限路由（权限表为全局数据，写入口仅超级管理员，读取可经admin.permission.*授权委托）
		permissionHandler := handlers.NewPermissionHandler(services.NewPermissionService())
		permissions := api.Group("/permissions")
		{
			permissions.GET("/tree", auth.RequireLogin(), permissionHandler.GetTree)
			permissions.GET("", auth.RequireLogin(), auth.RequirePermission("admin.permission.list"), permissionHandler.GetAll)
			permissions.GET("/:id", auth.RequireLogin(), auth.RequirePermission("admin.permission.read"), permissionHandler.GetByID)
			permissions.POST("", auth.RequireLogin(), auth.RequireSuperAdmin(), permissionHandler.Create)
			permissions.PUT("/:id", auth.RequireLogin(), auth.RequireSuperAdmin(), permissionHandler.Update)
			permissions.DELETE("/:id", auth.RequireLogin(), auth.RequireSuperAdmin(), permissionHandler.Delete)
		}

		// 权限模板路由
		templateHandler := handlers.NewPermissionTemplateHandler(services.NewPermissionTemplateService())
		templates := api.Group("/permission-templates")
		{
			templates.POST("", auth.RequireLogin(), auth.RequirePermission("admin.template.create"), templateHandler.Create)
			templates.GET("", auth.RequireLogin(), auth.RequirePermission("admin.template.list"), templateHandler.GetAll)
			templates.GET("/:id", auth.RequireLogin(), auth.RequirePermission("admin.template.read"), templateHandler.GetByID)
			templates.PUT("/:id", auth.RequireLogin(), auth.RequirePermission("admin.template.update"), templateHandler.Update)
			templates.DELETE("/:id", auth.RequireLogin(), auth.RequirePermission("admin.template.delete"), templateHandler.Delete)
			templates.POST("/:id/apply", auth.RequireLogin(), auth.RequirePermission("account.role.assign"), templateHandler.ApplyToRole)
		}
	}
}

func healthCheck(c *gin.Context) {
	data := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now(),
		"service":   "healthcare-admin",
		"version":   "1.0.0",
	}
	response.Success(c, data)
}

func ping(c *gin.Context) {
	response.SuccessWithMessage(c, "pong", nil)
}
