package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/hugo617/healthcare-admin-sub002/internal/database"
	"github.com/hugo617/healthcare-admin-sub002/internal/models"
	apperrors "github.com/hugo617/healthcare-admin-sub002/pkg/errors"
	"github.com/hugo617/healthcare-admin-sub002/pkg/jwt"

	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService() *UserService {
	return &UserService{
		db: database.GetDB(),
	}
}

// NewUserServiceWithDB 注入数据库实例（测试用）
func NewUserServiceWithDB(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// ========== 基础CRUD方法 ==========

// Create 创建用户
func (s *UserService) Create(tenantID, roleID uint, username, email, password, name string, phone *string) (*models.User, error) {
	// 验证参数
	if err := s.ValidateCreateParams(username, email, password, name); err != nil {
		return nil, err
	}

	// 检查租户是否存在
	var tenantCount int64
	s.db.Model(&models.Tenant{}).Where("id = ?", tenantID).Count(&tenantCount)
	if tenantCount == 0 {
		return nil, apperrors.ErrTenantNotFound
	}

	// 检查角色是否存在（本租户角色或系统级角色）
	var roleCount int64
	s.db.Model(&models.Role{}).Where("id = ? AND (tenant_id = ? OR tenant_id = 0)", roleID, tenantID).Count(&roleCount)
	if roleCount == 0 {
		return nil, fmt.Errorf("角色不存在")
	}

	// 检查用户名是否重复
	var usernameCount int64
	s.db.Model(&models.User{}).Where("username = ?", username).Count(&usernameCount)
	if usernameCount > 0 {
		return nil, fmt.Errorf("用户名已存在")
	}

	// 检查邮箱是否重复
	var emailCount int64
	s.db.Model(&models.User{}).Where("email = ?", email).Count(&emailCount)
	if emailCount > 0 {
		return nil, fmt.Errorf("邮箱已存在")
	}

	user := &models.User{
		TenantID:     tenantID,
		RoleID:       roleID,
		Username:     username,
		Email:        email,
		Name:         name,
		Phone:        phone,
		Status:       models.UserStatusActive,
		IsSuperAdmin: false,
	}

	// 设置密码
	if err := user.SetPassword(password); err != nil {
		return nil, fmt.Errorf("密码加密失败: %v", err)
	}

	err := s.db.Create(user).Error
	return user, err
}

// GetByID 根据ID获取用户
func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Tenant").Preload("Role").First(&user, id).Error
	return &user, err
}

// GetByUsername 根据用户名获取用户
func (s *UserService) GetByUsername(username string) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Tenant").Preload("Role").Where("username = ?", username).First(&user).Error
	return &user, err
}

// GetByEmail 根据邮箱获取用户
func (s *UserService) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Tenant").Preload("Role").Where("email = ?", email).First(&user).Error
	return &user, err
}

// LoadPrincipal 将已验证的令牌声明解析为完整主体（用户+角色+租户）
// 签名有效与否不影响状态判断：已禁用/锁定账号的历史令牌必须不能通过认证
func (s *UserService) LoadPrincipal(claims *jwt.JWTClaims) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Tenant").Preload("Role").First(&user, claims.UserID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.ErrUnknownPrincipal
	}
	if err != nil {
		return nil, err
	}

	if err := vetPrincipal(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

// vetPrincipal 主体状态门槛：非激活状态一律按禁用主体处理
func vetPrincipal(user *models.User) error {
	if !user.IsActive() {
		return apperrors.ErrDisabledPrincipal
	}
	return nil
}

// GetWithFiltersAndPage 组合查询（分页版本）
func (s *UserService) GetWithFiltersAndPage(tenantID *uint, status, keyword string, page, pageSize int) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	query := s.db.Model(&models.User{})

	// 添加过滤条件
	if tenantID != nil {
		query = query.Where("tenant_id = ?", *tenantID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if keyword != "" {
		searchPattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where("username LIKE ? OR email LIKE ? OR name LIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	// 计算总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页查询
	offset := (page - 1) * pageSize
	err := query.Preload("Tenant").Preload("Role").Offset(offset).Limit(pageSize).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// Update 更新用户基本信息
func (s *UserService) Update(id uint, name string, phone, avatar *string) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}

	if name != "" {
		user.Name = name
	}
	if phone != nil {
		user.Phone = phone
	}
	if avatar != nil {
		user.Avatar = avatar
	}

	err = s.db.Save(&user).Error
	return &user, err
}

// UpdateLastLogin 更新最后登录时间
func (s *UserService) UpdateLastLogin(id uint) error {
	now := time.Now()
	return s.db.Model(&models.User{}).Where("id = ?", id).Update("last_login_at", &now).Error
}

// Activate 激活用户
func (s *UserService) Activate(id uint) error {
	return s.setStatus(id, models.UserStatusActive)
}

// Deactivate 停用用户
func (s *UserService) Deactivate(id uint) error {
	return s.setStatus(id, models.UserStatusInactive)
}

// Lock 锁定用户
func (s *UserService) Lock(id uint) error {
	return s.setStatus(id, models.UserStatusLocked)
}

func (s *UserService) setStatus(id uint, status string) error {
	return s.db.Model(&models.User{}).Where("id = ?", id).Update("status", status).Error
}

// Delete 删除用户（软删除）
func (s *UserService) Delete(id uint) error {
	var user models.User
	err := s.db.First(&user, id).Error
	if err != nil {
		return err
	}
	return s.db.Delete(&user).Error
}

// ========== 验证相关方法 ==========

// ValidateUsername 验证用户名
func (s *UserService) ValidateUsername(username string) bool {
	if len(username) < 3 || len(username) > 50 {
		return false
	}
	// 检查是否只包含字母、数字和下划线
	for _, r := range username {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_') {
			return false
		}
	}
	return true
}

// ValidateEmail 验证邮箱
func (s *UserService) ValidateEmail(email string) bool {
	return strings.Contains(email, "@") && strings.Contains(email, ".") && len(email) >= 5 && len(email) <= 100
}

// ValidatePassword 验证密码
func (s *UserService) ValidatePassword(password string) error {
	if len(password) < 6 {
		return fmt.Errorf("密码长度不能少于6位")
	}
	if len(password) > 50 {
		return fmt.Errorf("密码长度不能超过50位")
	}
	return nil
}

// ValidateCreateParams 验证创建用户的参数
func (s *UserService) ValidateCreateParams(username, email, password, name string) error {
	if !s.ValidateUsername(username) {
		return fmt.Errorf("用户名长度必须在3-50个字符之间，且只能包含字母、数字和下划线")
	}
	if !s.ValidateEmail(email) {
		return fmt.Errorf("邮箱格式错误")
	}
	if err := s.ValidatePassword(password); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("姓名不能为空")
	}
	return nil
}
