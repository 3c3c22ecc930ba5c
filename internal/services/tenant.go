package services

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/hugo617/healthcare-admin-sub002/internal/database"
	"github.com/hugo617/healthcare-admin-sub002/internal/models"
	apperrors "github.com/hugo617/healthcare-admin-sub002/pkg/errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TenantService struct {
	db *gorm.DB
}

// TenantStats 租户统计信息
type TenantStats struct {
	Total     int64 `json:"total"`
	Active    int64 `json:"active"`
	Inactive  int64 `json:"inactive"`
	Suspended int64 `json:"suspended"`
}

func NewTenantService() *TenantService {
	return &TenantService{
		db: database.GetDB(),
	}
}

// NewTenantServiceWithDB 注入数据库实例（测试用）
func NewTenantServiceWithDB(db *gorm.DB) *TenantService {
	return &TenantService{db: db}
}

// ========== 基础CRUD方法 ==========

// Create 创建租户
func (s *TenantService) Create(name, code string, settings map[string]interface{}) (*models.Tenant, error) {
	// 验证参数
	if err := s.ValidateCreateParams(name, code); err != nil {
		return nil, err
	}

	// 检查代码是否重复
	var count int64
	s.db.Model(&models.Tenant{}).Where("code = ?", code).Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("租户代码已存在")
	}

	tenant := &models.Tenant{
		Name:     name,
		Code:     code,
		Status:   models.TenantStatusActive,
		Settings: datatypes.JSONMap(settings),
	}

	err := s.db.Create(tenant).Error
	return tenant, err
}

// GetByID 根据ID获取租户
func (s *TenantService) GetByID(id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.First(&tenant, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.ErrTenantNotFound
	}
	return &tenant, err
}

// GetByCode 根据代码获取租户
func (s *TenantService) GetByCode(code string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.Where("code = ?", code).First(&tenant).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.ErrTenantNotFound
	}
	return &tenant, err
}

// GetDefault 获取默认租户（种子数据保证存在）
func (s *TenantService) GetDefault() (*models.Tenant, error) {
	return s.GetByCode(models.DefaultTenantCode)
}

// ResolveRecord 将租户解析信号映射为租户记录
// 信号可能是租户代码（子域名、x-tenant-code）或数字ID（jwt、x-tenant-id）；
// 解析本身永不硬失败，找不到就退回默认租户
func (s *TenantService) ResolveRecord(signal string) (*models.Tenant, error) {
	if signal != "" {
		if tenant, err := s.GetByCode(signal); err == nil {
			return tenant, nil
		}
		if id, err := strconv.ParseUint(signal, 10, 32); err == nil {
			if tenant, err := s.GetByID(uint(id)); err == nil {
				return tenant, nil
			}
		}
	}
	return s.GetDefault()
}

// GetWithFiltersAndPage 组合查询（分页版本）
func (s *TenantService) GetWithFiltersAndPage(status, keyword string, page, pageSize int) ([]*models.Tenant, int64, error) {
	var tenants []*models.Tenant
	var total int64

	query := s.db.Model(&models.Tenant{})

	// 添加过滤条件
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if keyword != "" {
		searchPattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where("name LIKE ? OR code LIKE ?", searchPattern, searchPattern)
	}

	// 计算总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页查询
	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Find(&tenants).Error
	if err != nil {
		return nil, 0, err
	}

	return tenants, total, nil
}

// Update 更新租户
// 默认租户状态不可变更
func (s *TenantService) Update(id uint, name, status string, settings map[string]interface{}) (*models.Tenant, error) {
	tenant, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if tenant.IsDefault() && status != "" && status != tenant.Status {
		return nil, apperrors.ErrDefaultTenantProtection
	}

	if name != "" {
		if !s.ValidateName(name) {
			return nil, fmt.Errorf("租户名称长度必须在2-100个字符之间")
		}
		tenant.Name = name
	}
	if status != "" {
		if !s.ValidateStatus(status) {
			return nil, fmt.Errorf("无效的租户状态")
		}
		tenant.Status = status
	}
	if settings != nil {
		tenant.Settings = datatypes.JSONMap(settings)
	}

	err = s.db.Save(tenant).Error
	return tenant, err
}

// Delete 删除租户（软删除）
// 默认租户受保护，不可删除
func (s *TenantService) Delete(id uint) error {
	tenant, err := s.GetByID(id)
	if err != nil {
		return err
	}

	if tenant.IsDefault() {
		return apperrors.ErrDefaultTenantProtection
	}

	return s.db.Delete(tenant).Error
}

// Activate 激活租户
func (s *TenantService) Activate(id uint) (*models.Tenant, error) {
	return s.setStatus(id, models.TenantStatusActive)
}

// Deactivate 停用租户
func (s *TenantService) Deactivate(id uint) (*models.Tenant, error) {
	return s.setStatus(id, models.TenantStatusInactive)
}

// Suspend 暂停租户
func (s *TenantService) Suspend(id uint) (*models.Tenant, error) {
	return s.setStatus(id, models.TenantStatusSuspended)
}

func (s *TenantService) setStatus(id uint, status string) (*models.Tenant, error) {
	tenant, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if tenant.IsDefault() {
		return nil, apperrors.ErrDefaultTenantProtection
	}

	tenant.Status = status
	err = s.db.Save(tenant).Error
	return tenant, err
}

// GetStats 租户统计
func (s *TenantService) GetStats() (*TenantStats, error) {
	stats := &TenantStats{}

	if err := s.db.Model(&models.Tenant{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	s.db.Model(&models.Tenant{}).Where("status = ?", models.TenantStatusActive).Count(&stats.Active)
	s.db.Model(&models.Tenant{}).Where("status = ?", models.TenantStatusInactive).Count(&stats.Inactive)
	s.db.Model(&models.Tenant{}).Where("status = ?", models.TenantStatusSuspended).Count(&stats.Suspended)

	return stats, nil
}

// ========== 验证方法 ==========

// ValidateCode 验证租户代码：用于子域名，限制为小写字母、数字和连字符
func (s *TenantService) ValidateCode(code string) bool {
	if len(code) < 2 || len(code) > 50 {
		return false
	}
	for _, r := range code {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return false
		}
	}
	return true
}

// ValidateName 验证租户名称
func (s *TenantService) ValidateName(name string) bool {
	runeCount := utf8.RuneCountInString(name)
	return runeCount >= 2 && runeCount <= 100
}

// ValidateStatus 验证租户状态
func (s *TenantService) ValidateStatus(status string) bool {
	switch status {
	case models.TenantStatusActive, models.TenantStatusInactive, models.TenantStatusSuspended:
		return true
	default:
		return false
	}
}

// ValidateCreateParams 验证创建租户的参数
func (s *TenantService) ValidateCreateParams(name, code string) error {
	if !s.ValidateName(name) {
		return fmt.Errorf("租户名称长度必须在2-100个字符之间")
	}
	if !s.ValidateCode(code) {
		return fmt.Errorf("租户代码长度必须在2-50个字符之间，且只能包含小写字母、数字和连字符")
	}
	return nil
}
