package services

import (
	"fmt"
	"unicode/utf8"

	"github.com/hugo617/healthcare-admin-sub002/internal/database"
	"github.com/hugo617/healthcare-admin-sub002/internal/models"
	apperrors "github.com/hugo617/healthcare-admin-sub002/pkg/errors"

	"gorm.io/gorm"
)

type RoleService struct {
	db *gorm.DB
}

func NewRoleService() *RoleService {
	return &RoleService{
		db: database.GetDB(),
	}
}

// NewRoleServiceWithDB 注入数据库实例（测试用）
func NewRoleServiceWithDB(db *gorm.DB) *RoleService {
	return &RoleService{db: db}
}

// ========== 基础CRUD方法 ==========

// Create 创建角色
func (s *RoleService) Create(tenantID uint, code, name, description string) (*models.Role, error) {
	// 验证参数
	if err := s.ValidateCreateParams(code, name); err != nil {
		return nil, err
	}

	// 检查角色代码是否重复（在同一租户内）
	var count int64
	s.db.Model(&models.Role{}).Where("tenant_id = ? AND code = ?", tenantID, code).Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("角色代码已存在")
	}

	role := &models.Role{
		TenantID:    tenantID,
		Code:        code,
		Name:        name,
		Description: description,
		Status:      models.RoleStatusActive,
		IsSuper:     false,
		IsSystem:    false,
	}

	err := s.db.Create(role).Error
	return role, err
}

// GetByID 根据ID获取角色
func (s *RoleService) GetByID(id uint) (*models.Role, error) {
	var role models.Role
	err := s.db.Preload("Tenant").Preload("Permissions").First(&role, id).Error
	return &role, err
}

// GetByTenant 根据租户获取角色列表（含系统级角色）
func (s *RoleService) GetByTenant(tenantID uint) ([]*models.Role, error) {
	var roles []*models.Role
	err := s.db.Where("tenant_id = ? OR tenant_id = 0", tenantID).Preload("Permissions").Find(&roles).Error
	return roles, err
}

// Update 更新角色
func (s *RoleService) Update(id uint, name, description, status string) (*models.Role, error) {
	// 验证参数
	if err := s.ValidateUpdateParams(name, status); err != nil {
		return nil, err
	}

	var role models.Role
	err := s.db.First(&role, id).Error
	if err != nil {
		return nil, err
	}

	// 系统角色不能修改
	if role.IsSystem {
		return nil, apperrors.ErrImmutableSystemEntity
	}

	role.Name = name
	role.Description = description
	role.Status = status

	err = s.db.Save(&role).Error
	return &role, err
}

// Delete 删除角色
func (s *RoleService) Delete(id uint) error {
	var role models.Role
	err := s.db.First(&role, id).Error
	if err != nil {
		return err
	}

	// 系统角色不能删除
	if role.IsSystem {
		return apperrors.ErrImmutableSystemEntity
	}

	// 仍被用户引用的角色不能删除
	var userCount int64
	s.db.Model(&models.User{}).Where("role_id = ?", id).Count(&userCount)
	if userCount > 0 {
		return fmt.Errorf("角色仍被用户使用，不允许删除")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", id).Delete(&models.RolePermission{}).Error; err != nil {
			return err
		}
		return tx.Delete(&role).Error
	})
}

// ========== 权限管理方法 ==========

// AssignPermissions 为角色分配权限（整体替换，授权行按角色所属租户打租户范围）
func (s *RoleService) AssignPermissions(roleID uint, permissionIDs []uint) error {
	var role models.Role
	err := s.db.First(&role, roleID).Error
	if err != nil {
		return err
	}

	if role.IsSystem {
		return apperrors.ErrImmutableSystemEntity
	}

	// 校验权限存在
	var permCount int64
	s.db.Model(&models.Permission{}).Where("id IN ?", permissionIDs).Count(&permCount)
	if int(permCount) != len(permissionIDs) {
		return fmt.Errorf("存在无效的权限ID")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		// 清除现有授权，重新写入
		if err := tx.Where("role_id = ?", roleID).Delete(&models.RolePermission{}).Error; err != nil {
			return err
		}
		for _, permissionID := range permissionIDs {
			row := models.RolePermission{
				RoleID:       roleID,
				PermissionID: permissionID,
				TenantID:     role.TenantID,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetRolePermissions 获取角色的权限
func (s *RoleService) GetRolePermissions(roleID uint) ([]models.Permission, error) {
	var role models.Role
	err := s.db.Preload("Permissions").First(&role, roleID).Error
	if err != nil {
		return nil, err
	}
	return role.Permissions, nil
}

// ========== 验证方法 ==========

// ValidateCode 验证角色代码
func (s *RoleService) ValidateCode(code string) bool {
	if len(code) < 2 || len(code) > 50 {
		return false
	}
	// 只允许字母、数字和下划线
	for _, r := range code {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_') {
			return false
		}
	}
	return true
}

// ValidateName 验证角色名称
func (s *RoleService) ValidateName(name string) bool {
	runeCount := utf8.RuneCountInString(name)
	return runeCount >= 2 && runeCount <= 50
}

// ValidateStatus 验证角色状态
func (s *RoleService) ValidateStatus(status string) bool {
	return status == models.RoleStatusActive || status == models.RoleStatusInactive
}

// ValidateCreateParams 验证创建角色的参数
func (s *RoleService) ValidateCreateParams(code, name string) error {
	if !s.ValidateCode(code) {
		return fmt.Errorf("角色代码长度必须在2-50个字符之间，且只能包含字母、数字和下划线")
	}
	if !s.ValidateName(name) {
		return fmt.Errorf("角色名称长度必须在2-50个字符之间")
	}
	return nil
}

// ValidateUpdateParams 验证更新角色的参数
func (s *RoleService) ValidateUpdateParams(name, status string) error {
	if !s.ValidateName(name) {
		return fmt.Errorf("角色名称长度必须在2-50个字符之间")
	}
	if !s.ValidateStatus(status) {
		return fmt.Errorf("无效的角色状态")
	}
	return nil
}
