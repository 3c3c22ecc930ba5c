package services

import (
	"github.com/hugo617/healthcare-admin-sub002/internal/database"
	"github.com/hugo617/healthcare-admin-sub002/internal/models"

	"gorm.io/gorm"
)

// Evaluator 单个主体的权限求值器
// 超级管理员旁路集中在这里，所有授权入口共用同一实现；
// 判定结果是布尔值，未通过不是错误
type Evaluator struct {
	isSuperAdmin bool
	codes        map[string]struct{}
}

// NewEvaluator 构造权限求值器
func NewEvaluator(isSuperAdmin bool, codes []string) *Evaluator {
	codeSet := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		codeSet[code] = struct{}{}
	}
	return &Evaluator{
		isSuperAdmin: isSuperAdmin,
		codes:        codeSet,
	}
}

// Has 是否持有单个权限
func (e *Evaluator) Has(code string) bool {
	if e.isSuperAdmin {
		return true
	}
	_, ok := e.codes[code]
	return ok
}

// HasAny 是否持有任意一个权限
func (e *Evaluator) HasAny(codes []string) bool {
	if e.isSuperAdmin {
		return true
	}
	for _, code := range codes {
		if _, ok := e.codes[code]; ok {
			return true
		}
	}
	return false
}

// HasAll 是否持有全部权限
func (e *Evaluator) HasAll(codes []string) bool {
	if e.isSuperAdmin {
		return true
	}
	for _, code := range codes {
		if _, ok := e.codes[code]; !ok {
			return false
		}
	}
	return true
}

// AuthzService 授权服务：从持久层组装主体的权限求值器
type AuthzService struct {
	db *gorm.DB
}

func NewAuthzService() *AuthzService {
	return &AuthzService{
		db: database.GetDB(),
	}
}

// NewAuthzServiceWithDB 注入数据库实例（测试用）
func NewAuthzServiceWithDB(db *gorm.DB) *AuthzService {
	return &AuthzService{db: db}
}

// EvaluatorFor 构建主体的权限求值器
// 超级管理员直接短路，不做任何成员关系查询；
// 其余主体取其角色经role_permissions可达的权限代码集合，
// 授权行按租户过滤：仅本租户行或系统级行（tenant_id=0）计入
func (s *AuthzService) EvaluatorFor(user *models.User) (*Evaluator, error) {
	if user.IsSuperAdmin {
		return NewEvaluator(true, nil), nil
	}

	var codes []string
	err := s.db.Model(&models.RolePermission{}).
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Joins("JOIN roles ON roles.id = role_permissions.role_id").
		Where("role_permissions.role_id = ?", user.RoleID).
		Where("role_permissions.tenant_id = 0 OR role_permissions.tenant_id = ?", user.TenantID).
		Where("roles.status = ?", models.RoleStatusActive).
		Where("permissions.status = ?", models.PermissionStatusActive).
		Where("permissions.deleted_at IS NULL").
		Pluck("permissions.code", &codes).Error
	if err != nil {
		return nil, err
	}

	return NewEvaluator(false, codes), nil
}

// HasPermission 检查主体是否持有指定权限
func (s *AuthzService) HasPermission(user *models.User, code string) (bool, error) {
	evaluator, err := s.EvaluatorFor(user)
	if err != nil {
		return false, err
	}
	return evaluator.Has(code), nil
}

// CheckResult 批量权限检查结果
type CheckResult struct {
	Results map[string]bool `json:"results"`
	Summary CheckSummary    `json:"summary"`
}

// CheckSummary 批量检查汇总
type CheckSummary struct {
	Total       int     `json:"total"`
	Granted     int     `json:"granted"`
	Denied      int     `json:"denied"`
	GrantedRate float64 `json:"granted_rate"`
}

// CheckPermissions 批量权限检查：返回逐项结果与汇总
func (s *AuthzService) CheckPermissions(user *models.User, codes []string) (*CheckResult, error) {
	evaluator, err := s.EvaluatorFor(user)
	if err != nil {
		return nil, err
	}

	result := &CheckResult{
		Results: make(map[string]bool, len(codes)),
	}
	for _, code := range codes {
		granted := evaluator.Has(code)
		result.Results[code] = granted
		if granted {
			result.Summary.Granted++
		} else {
			result.Summary.Denied++
		}
	}
	result.Summary.Total = len(codes)
	if result.Summary.Total > 0 {
		result.Summary.GrantedRate = float64(result.Summary.Granted) / float64(result.Summary.Total)
	}

	return result, nil
}
