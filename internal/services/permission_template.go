package services

import (
	"fmt"

	"github.com/hugo617/healthcare-admin-sub002/internal/database"
	"github.com/hugo617/healthcare-admin-sub002/internal/models"
	apperrors "github.com/hugo617/healthcare-admin-sub002/pkg/errors"

	"gorm.io/gorm"
)

// PermissionTemplateService 权限模板服务
type PermissionTemplateService struct {
	db *gorm.DB
}

func NewPermissionTemplateService() *PermissionTemplateService {
	return &PermissionTemplateService{
		db: database.GetDB(),
	}
}

// NewPermissionTemplateServiceWithDB 注入数据库实例（测试用）
func NewPermissionTemplateServiceWithDB(db *gorm.DB) *PermissionTemplateService {
	return &PermissionTemplateService{db: db}
}

// Create 创建权限模板
func (s *PermissionTemplateService) Create(code, name, description string, permissionIDs []uint) (*models.PermissionTemplate, error) {
	if code == "" || name == "" {
		return nil, fmt.Errorf("模板代码和名称不能为空")
	}

	var count int64
	s.db.Model(&models.PermissionTemplate{}).Where("code = ?", code).Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("模板代码已存在")
	}

	var permissions []models.Permission
	if len(permissionIDs) > 0 {
		if err := s.db.Where("id IN ?", permissionIDs).Find(&permissions).Error; err != nil {
			return nil, err
		}
		if len(permissions) != len(permissionIDs) {
			return nil, fmt.Errorf("存在无效的权限ID")
		}
	}

	template := &models.PermissionTemplate{
		Code:        code,
		Name:        name,
		Description: description,
		IsSystem:    false,
		Permissions: permissions,
	}

	err := s.db.Create(template).Error
	return template, err
}

// GetByID 根据ID获取模板
func (s *PermissionTemplateService) GetByID(id uint) (*models.PermissionTemplate, error) {
	var template models.PermissionTemplate
	err := s.db.Preload("Permissions").First(&template, id).Error
	return &template, err
}

// GetAll 获取所有模板
func (s *PermissionTemplateService) GetAll() ([]*models.PermissionTemplate, error) {
	var templates []*models.PermissionTemplate
	err := s.db.Preload("Permissions").Find(&templates).Error
	return templates, err
}

// Update 更新模板
// 系统模板不可修改
func (s *PermissionTemplateService) Update(id uint, name, description string, permissionIDs []uint) (*models.PermissionTemplate, error) {
	var template models.PermissionTemplate
	err := s.db.First(&template, id).Error
	if err != nil {
		return nil, err
	}

	if template.IsSystem {
		return nil, apperrors.ErrImmutableSystemEntity
	}

	if name != "" {
		template.Name = name
	}
	template.Description = description

	if err := s.db.Save(&template).Error; err != nil {
		return nil, err
	}

	if permissionIDs != nil {
		var permissions []models.Permission
		if err := s.db.Where("id IN ?", permissionIDs).Find(&permissions).Error; err != nil {
			return nil, err
		}
		if len(permissions) != len(permissionIDs) {
			return nil, fmt.Errorf("存在无效的权限ID")
		}
		if err := s.db.Model(&template).Association("Permissions").Replace(permissions); err != nil {
			return nil, err
		}
	}

	return s.GetByID(id)
}

// Delete 删除模板
// 系统模板不可删除
func (s *PermissionTemplateService) Delete(id uint) error {
	var template models.PermissionTemplate
	err := s.db.First(&template, id).Error
	if err != nil {
		return err
	}

	if template.IsSystem {
		return apperrors.ErrImmutableSystemEntity
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("permission_template_id = ?", id).Delete(&models.TemplatePermission{}).Error; err != nil {
			return err
		}
		return tx.Delete(&template).Error
	})
}

// ApplyToRole 将模板权限整体套用到角色（替换角色现有授权）
func (s *PermissionTemplateService) ApplyToRole(templateID, roleID uint) error {
	template, err := s.GetByID(templateID)
	if err != nil {
		return err
	}

	permissionIDs := make([]uint, 0, len(template.Permissions))
	for _, p := range template.Permissions {
		permissionIDs = append(permissionIDs, p.ID)
	}

	roleService := &RoleService{db: s.db}
	return roleService.AssignPermissions(roleID, permissionIDs)
}
