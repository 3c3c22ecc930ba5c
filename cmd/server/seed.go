package main

import (
	"fmt"
	"os"

	"github.com/hugo617/healthcare-admin-sub002/internal/database"
	"github.com/hugo617/healthcare-admin-sub002/internal/models"
	"github.com/hugo617/healthcare-admin-sub002/pkg/logger"

	"gorm.io/gorm"
)

// seedData 初始化种子数据
func seedData() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting seed data initialization...")

	db := database.GetDB()

	// 1. 创建默认租户
	if err := createDefaultTenant(db); err != nil {
		return fmt.Errorf("创建默认租户失败: %v", err)
	}

	// 2. 初始化权限森林
	if err := initializePermissions(db); err != nil {
		return fmt.Errorf("初始化权限失败: %v", err)
	}

	// 3. 创建系统角色并授权
	if err := createSystemRoles(db); err != nil {
		return fmt.Errorf("创建系统角色失败: %v", err)
	}

	// 4. 创建系统权限模板
	if err := createSystemTemplate(db); err != nil {
		return fmt.Errorf("创建系统权限模板失败: %v", err)
	}

	// 5. 创建默认超级管理员
	if err := createDefaultAdmin(db); err != nil {
		return fmt.Errorf("创建默认管理员失败: %v", err)
	}

	appLogger.Info("Seed data initialization completed successfully")
	return nil
}

// createDefaultTenant 创建默认租户
func createDefaultTenant(db *gorm.DB) error {
	var count int64
	db.Model(&models.Tenant{}).Where("code = ?", models.DefaultTenantCode).Count(&count)
	if count > 0 {
		logger.GetLogger().Info("默认租户已存在，跳过创建")
		return nil
	}

	tenant := &models.Tenant{
		Name:   "默认租户",
		Code:   models.DefaultTenantCode,
		Status: models.TenantStatusActive,
	}

	if err := db.Create(tenant).Error; err != nil {
		return err
	}

	logger.GetLogger().Info("默认租户创建成功")
	return nil
}

// seedPermission 权限种子定义
type seedPermission struct {
	Code         string
	Name         string
	Type         string
	Path         string
	APIPath      string
	Method       string
	ResourceType string
	SortOrder    int
	Children     []seedPermission
}

// 权限森林：每个顶级模块一棵树
var permissionForest = []seedPermission{
	{
		Code: "account", Name: "账户管理", Type: models.PermissionTypeMenu, Path: "/account", SortOrder: 1,
		Children: []seedPermission{
			{
				Code: "account.user", Name: "用户管理", Type: models.PermissionTypePage, Path: "/account/users", SortOrder: 1,
				Children: []seedPermission{
					{Code: "account.user.list", Name: "用户列表", Type: models.PermissionTypeAPI, APIPath: "/api/v1/users", Method: "GET", SortOrder: 1},
					{Code: "account.user.read", Name: "查看用户", Type: models.PermissionTypeAPI, APIPath: "/api/v1/users/:id", Method: "GET", SortOrder: 2},
					{Code: "account.user.create", Name: "创建用户", Type: models.PermissionTypeButton, SortOrder: 3},
					{Code: "account.user.update", Name: "更新用户", Type: models.PermissionTypeButton, SortOrder: 4},
					{Code: "account.user.delete", Name: "删除用户", Type: models.PermissionTypeButton, SortOrder: 5},
				},
			},
			{
				Code: "account.role", Name: "角色管理", Type: models.PermissionTypePage, Path: "/account/roles", SortOrder: 2,
				Children: []seedPermission{
					{Code: "account.role.list", Name: "角色列表", Type: models.PermissionTypeAPI, APIPath: "/api/v1/roles", Method: "GET", SortOrder: 1},
					{Code: "account.role.read", Name: "查看角色", Type: models.PermissionTypeAPI, APIPath: "/api/v1/roles/:id", Method: "GET", SortOrder: 2},
					{Code: "account.role.create", Name: "创建角色", Type: models.PermissionTypeButton, SortOrder: 3},
					{Code: "account.role.update", Name: "更新角色", Type: models.PermissionTypeButton, SortOrder: 4},
					{Code: "account.role.delete", Name: "删除角色", Type: models.PermissionTypeButton, SortOrder: 5},
					{Code: "account.role.assign", Name: "分配权限", Type: models.PermissionTypeButton, SortOrder: 6},
				},
			},
		},
	},
	{
		Code: "admin", Name: "平台管理", Type: models.PermissionTypeMenu, Path: "/admin", SortOrder: 2,
		Children: []seedPermission{
			{
				Code: "admin.tenant", Name: "租户管理", Type: models.PermissionTypePage, Path: "/admin/tenants", SortOrder: 1,
				Children: []seedPermission{
					{Code: "admin.tenant.list", Name: "租户列表", Type: models.PermissionTypeAPI, APIPath: "/api/v1/tenants", Method: "GET", SortOrder: 1},
					{Code: "admin.tenant.read", Name: "查看租户", Type: models.PermissionTypeAPI, APIPath: "/api/v1/tenants/:id", Method: "GET", SortOrder: 2},
					{Code: "admin.tenant.update", Name: "更新租户", Type: models.PermissionTypeButton, SortOrder: 3},
					{Code: "admin.tenant.data", Name: "租户数据", Type: models.PermissionTypeData, ResourceType: "tenant", SortOrder: 4},
				},
			},
			{
				Code: "admin.permission", Name: "权限管理", Type: models.PermissionTypePage, Path: "/admin/permissions", SortOrder: 2,
				Children: []seedPermission{
					{Code: "admin.permission.list", Name: "权限列表", Type: models.PermissionTypeAPI, APIPath: "/api/v1/permissions", Method: "GET", SortOrder: 1},
					{Code: "admin.permission.read", Name: "查看权限", Type: models.PermissionTypeAPI, APIPath: "/api/v1/permissions/:id", Method: "GET", SortOrder: 2},
				},
			},
			{
				Code: "admin.template", Name: "权限模板", Type: models.PermissionTypePage, Path: "/admin/templates", SortOrder: 3,
				Children: []seedPermission{
					{Code: "admin.template.list", Name: "模板列表", Type: models.PermissionTypeAPI, APIPath: "/api/v1/permission-templates", Method: "GET", SortOrder: 1},
					{Code: "admin.template.read", Name: "查看模板", Type: models.PermissionTypeAPI, APIPath: "/api/v1/permission-templates/:id", Method: "GET", SortOrder: 2},
					{Code: "admin.template.create", Name: "创建模板", Type: models.PermissionTypeButton, SortOrder: 3},
					{Code: "admin.template.update", Name: "更新模板", Type: models.PermissionTypeButton, SortOrder: 4},
					{Code: "admin.template.delete", Name: "删除模板", Type: models.PermissionTypeButton, SortOrder: 5},
				},
			},
		},
	},
	{
		Code: "h5", Name: "移动端", Type: models.PermissionTypeMenu, Path: "/h5", SortOrder: 3,
		Children: []seedPermission{
			{
				Code: "h5.profile", Name: "个人中心", Type: models.PermissionTypePage, Path: "/h5/profile", SortOrder: 1,
				Children: []seedPermission{
					{Code: "h5.profile.read", Name: "查看资料", Type: models.PermissionTypeAPI, APIPath: "/api/v1/auth/me", Method: "GET", SortOrder: 1},
					{Code: "h5.profile.update", Name: "更新资料", Type: models.PermissionTypeButton, SortOrder: 2},
				},
			},
		},
	},
}

// initializePermissions 初始化权限森林（幂等，按代码去重）
func initializePermissions(db *gorm.DB) error {
	var create func(defs []seedPermission, parentID *uint) error
	create = func(defs []seedPermission, parentID *uint) error {
		for _, def := range defs {
			var permission models.Permission
			err := db.Where("code = ?", def.Code).First(&permission).Error
			if err == gorm.ErrRecordNotFound {
				permission = models.Permission{
					Code:         def.Code,
					Name:         def.Name,
					Type:         def.Type,
					ParentID:     parentID,
					SortOrder:    def.SortOrder,
					Path:         def.Path,
					APIPath:      def.APIPath,
					Method:       def.Method,
					ResourceType: def.ResourceType,
					IsSystem:     true,
					Status:       models.PermissionStatusActive,
				}
				if err := db.Create(&permission).Error; err != nil {
					return err
				}
			} else if err != nil {
				return err
			}

			if len(def.Children) > 0 {
				if err := create(def.Children, &permission.ID); err != nil {
					return err
				}
			}
		}
		return nil
	}

	return create(permissionForest, nil)
}

// 各系统角色的授权范围（前缀匹配权限代码）
// 租户管理员额外拿到本租户记录的委托读取/更新，写操作仍只走超级管理员
var rolePermissionScopes = map[string][]string{
	models.RoleTenantAdmin: {"account.", "h5.", "admin.tenant.read", "admin.tenant.update"},
	models.RoleTenantUser:  {"account.user.list", "account.user.read", "h5."},
}

// createSystemRoles 创建系统角色并授权
// 超级管理员角色不授权：其权限通过求值器的短路旁路实现
func createSystemRoles(db *gorm.DB) error {
	definitions := []models.Role{
		{Code: models.RoleSuperAdmin, Name: "超级管理员", IsSuper: true, IsSystem: true, Status: models.RoleStatusActive},
		{Code: models.RoleTenantAdmin, Name: "租户管理员", IsSystem: true, Status: models.RoleStatusActive},
		{Code: models.RoleTenantUser, Name: "租户普通用户", IsSystem: true, Status: models.RoleStatusActive},
	}

	for _, def := range definitions {
		var role models.Role
		err := db.Where("tenant_id = 0 AND code = ?", def.Code).First(&role).Error
		if err == gorm.ErrRecordNotFound {
			role = def
			if err := db.Create(&role).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		scopes, ok := rolePermissionScopes[role.Code]
		if !ok {
			continue
		}
		if err := grantByScopes(db, role.ID, scopes); err != nil {
			return err
		}
	}

	return nil
}

// grantByScopes 按代码前缀为角色写入系统级授权行（tenant_id=0，对所有租户生效）
func grantByScopes(db *gorm.DB, roleID uint, scopes []string) error {
	var permissions []models.Permission
	if err := db.Find(&permissions).Error; err != nil {
		return err
	}

	for _, permission := range permissions {
		if !matchScope(permission.Code, scopes) {
			continue
		}

		var count int64
		db.Model(&models.RolePermission{}).
			Where("role_id = ? AND permission_id = ? AND tenant_id = 0", roleID, permission.ID).
			Count(&count)
		if count > 0 {
			continue
		}

		row := models.RolePermission{RoleID: roleID, PermissionID: permission.ID, TenantID: 0}
		if err := db.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func matchScope(code string, scopes []string) bool {
	for _, scope := range scopes {
		if code == scope {
			return true
		}
		if len(scope) > 0 && scope[len(scope)-1] == '.' && len(code) > len(scope) && code[:len(scope)] == scope {
			return true
		}
	}
	return false
}

// createSystemTemplate 创建系统权限模板（租户管理员权限包）
func createSystemTemplate(db *gorm.DB) error {
	var count int64
	db.Model(&models.PermissionTemplate{}).Where("code = ?", "tenant_admin_bundle").Count(&count)
	if count > 0 {
		return nil
	}

	var permissions []models.Permission
	if err := db.Find(&permissions).Error; err != nil {
		return err
	}

	bundle := make([]models.Permission, 0, len(permissions))
	for _, permission := range permissions {
		if matchScope(permission.Code, rolePermissionScopes[models.RoleTenantAdmin]) {
			bundle = append(bundle, permission)
		}
	}

	template := &models.PermissionTemplate{
		Code:        "tenant_admin_bundle",
		Name:        "租户管理员权限包",
		Description: "新租户管理员角色的默认授权集合",
		IsSystem:    true,
		Permissions: bundle,
	}

	if err := db.Create(template).Error; err != nil {
		return err
	}

	logger.GetLogger().Info("系统权限模板创建成功")
	return nil
}

// createDefaultAdmin 创建默认超级管理员
func createDefaultAdmin(db *gorm.DB) error {
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count > 0 {
		logger.GetLogger().Info("默认管理员已存在，跳过创建")
		return nil
	}

	var tenant models.Tenant
	if err := db.Where("code = ?", models.DefaultTenantCode).First(&tenant).Error; err != nil {
		return err
	}

	var role models.Role
	if err := db.Where("tenant_id = 0 AND code = ?", models.RoleSuperAdmin).First(&role).Error; err != nil {
		return err
	}

	password := os.Getenv("ADMIN_INITIAL_PASSWORD")
	if password == "" {
		password = "admin123"
	}

	admin := &models.User{
		TenantID:     tenant.ID,
		RoleID:       role.ID,
		Username:     "admin",
		Email:        "admin@example.com",
		Name:         "系统管理员",
		Status:       models.UserStatusActive,
		IsSuperAdmin: true,
	}
	if err := admin.SetPassword(password); err != nil {
		return err
	}

	if err := db.Create(admin).Error; err != nil {
		return err
	}

	logger.GetLogger().Info("默认管理员创建成功")
	return nil
}
