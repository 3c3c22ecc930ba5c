package services

import (
	"fmt"
	"sort"

	"github.com/hugo617/healthcare-admin-sub002/internal/database"
	"github.com/hugo617/healthcare-admin-sub002/internal/models"
	apperrors "github.com/hugo617/healthcare-admin-sub002/pkg/errors"

	"gorm.io/gorm"
)

type PermissionService struct {
	db *gorm.DB
}

func NewPermissionService() *PermissionService {
	return &PermissionService{
		db: database.GetDB(),
	}
}

// NewPermissionServiceWithDB 注入数据库实例（测试用）
func NewPermissionServiceWithDB(db *gorm.DB) *PermissionService {
	return &PermissionService{db: db}
}

// PermissionNode 权限树节点
type PermissionNode struct {
	models.Permission
	RoleUsageCount int64             `json:"role_usage_count"` // 引用该权限的去重角色数
	Children       []*PermissionNode `json:"children"`
}

// 树深度上限：无环不变量在写入时保证，读取侧仍做兜底防护
const maxTreeDepth = 32

// BuildPermissionForest 由扁平权限表构建权限森林
// 一次遍历按ParentID建好子节点索引，再从根节点有界下钻，
// 避免逐层查询的N+1扇出；访问集合防御意外的环
func BuildPermissionForest(permissions []*models.Permission, usage map[uint]int64) []*PermissionNode {
	// 按父节点分组（根节点归到0组）
	childIndex := make(map[uint][]*models.Permission)
	for _, p := range permissions {
		parent := uint(0)
		if p.ParentID != nil {
			parent = *p.ParentID
		}
		childIndex[parent] = append(childIndex[parent], p)
	}

	// 同级排序：sort_order升序，其次名称升序
	for _, siblings := range childIndex {
		sort.SliceStable(siblings, func(i, j int) bool {
			if siblings[i].SortOrder != siblings[j].SortOrder {
				return siblings[i].SortOrder < siblings[j].SortOrder
			}
			return siblings[i].Name < siblings[j].Name
		})
	}

	visited := make(map[uint]bool)

	var build func(parentID uint, depth int) []*PermissionNode
	build = func(parentID uint, depth int) []*PermissionNode {
		if depth > maxTreeDepth {
			return nil
		}
		rows := childIndex[parentID]
		nodes := make([]*PermissionNode, 0, len(rows))
		for _, row := range rows {
			if visited[row.ID] {
				continue
			}
			visited[row.ID] = true
			node := &PermissionNode{
				Permission:     *row,
				RoleUsageCount: usage[row.ID],
			}
			node.Children = build(row.ID, depth+1)
			nodes = append(nodes, node)
		}
		return nodes
	}

	return build(0, 1)
}

// roleUsage 统计每个权限被多少个不同角色引用
func (s *PermissionService) roleUsage() (map[uint]int64, error) {
	type usageRow struct {
		PermissionID uint
		Count        int64
	}
	var rows []usageRow
	err := s.db.Model(&models.RolePermission{}).
		Select("permission_id, COUNT(DISTINCT role_id) AS count").
		Group("permission_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	usage := make(map[uint]int64, len(rows))
	for _, row := range rows {
		usage[row.PermissionID] = row.Count
	}
	return usage, nil
}

// GetTree 获取完整权限森林，节点带角色引用计数
func (s *PermissionService) GetTree() ([]*PermissionNode, error) {
	var permissions []*models.Permission
	err := s.db.Order("sort_order ASC, name ASC").Find(&permissions).Error
	if err != nil {
		return nil, err
	}

	usage, err := s.roleUsage()
	if err != nil {
		return nil, err
	}

	return BuildPermissionForest(permissions, usage), nil
}

// ========== 基础CRUD方法 ==========

// Create 创建权限
func (s *PermissionService) Create(code, name, description, permType string, parentID *uint, sortOrder int, path, apiPath, method, resourceType string) (*models.Permission, error) {
	if !models.IsValidPermissionType(permType) {
		return nil, fmt.Errorf("无效的权限类型")
	}
	if code == "" || name == "" {
		return nil, fmt.Errorf("权限代码和名称不能为空")
	}

	// 检查代码是否重复
	var count int64
	s.db.Model(&models.Permission{}).Where("code = ?", code).Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("权限代码已存在")
	}

	// 检查父节点是否存在
	if parentID != nil {
		var parentCount int64
		s.db.Model(&models.Permission{}).Where("id = ?", *parentID).Count(&parentCount)
		if parentCount == 0 {
			return nil, fmt.Errorf("父权限不存在")
		}
	}

	permission := &models.Permission{
		Code:         code,
		Name:         name,
		Description:  description,
		Type:         permType,
		ParentID:     parentID,
		SortOrder:    sortOrder,
		Path:         path,
		APIPath:      apiPath,
		Method:       method,
		ResourceType: resourceType,
		Status:       models.PermissionStatusActive,
	}

	err := s.db.Create(permission).Error
	return permission, err
}

// GetByID 根据ID获取权限
func (s *PermissionService) GetByID(id uint) (*models.Permission, error) {
	var permission models.Permission
	err := s.db.First(&permission, id).Error
	return &permission, err
}

// GetWithPage 分页获取权限
func (s *PermissionService) GetWithPage(permType string, page, pageSize int) ([]*models.Permission, int64, error) {
	var permissions []*models.Permission
	var total int64

	query := s.db.Model(&models.Permission{})

	// 按类型筛选
	if permType != "" {
		query = query.Where("type = ?", permType)
	}

	// 计算总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页查询
	offset := (page - 1) * pageSize
	err := query.Order("sort_order ASC, name ASC").Offset(offset).Limit(pageSize).Find(&permissions).Error
	if err != nil {
		return nil, 0, err
	}

	return permissions, total, nil
}

// validateParentChain 校验父链无环：从新父节点向上走，不允许回到自身
func (s *PermissionService) validateParentChain(id uint, parentID *uint) error {
	current := parentID
	for depth := 0; current != nil && depth < maxTreeDepth; depth++ {
		if *current == id {
			return apperrors.ErrPermissionParentCycle
		}
		var parent models.Permission
		if err := s.db.Select("id", "parent_id").First(&parent, *current).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("父权限不存在")
			}
			return err
		}
		current = parent.ParentID
	}
	if current != nil {
		return apperrors.ErrPermissionParentCycle
	}
	return nil
}

// Update 更新权限
// 系统权限只允许修改描述和排序
func (s *PermissionService) Update(id uint, name, description string, parentID *uint, sortOrder int, status string) (*models.Permission, error) {
	var permission models.Permission
	err := s.db.First(&permission, id).Error
	if err != nil {
		return nil, err
	}

	if permission.IsSystem {
		if name != "" && name != permission.Name {
			return nil, apperrors.ErrImmutableSystemEntity
		}
		if parentID != nil {
			return nil, apperrors.ErrImmutableSystemEntity
		}
		if status != "" && status != permission.Status {
			return nil, apperrors.ErrImmutableSystemEntity
		}
		permission.Description = description
		permission.SortOrder = sortOrder
		err = s.db.Save(&permission).Error
		return &permission, err
	}

	if parentID != nil {
		if err := s.validateParentChain(id, parentID); err != nil {
			return nil, err
		}
		permission.ParentID = parentID
	}
	if name != "" {
		permission.Name = name
	}
	if status != "" {
		permission.Status = status
	}
	permission.Description = description
	permission.SortOrder = sortOrder

	err = s.db.Save(&permission).Error
	return &permission, err
}

// Delete 删除权限
// 系统权限不可删除；存在子节点时拒绝删除
func (s *PermissionService) Delete(id uint) error {
	var permission models.Permission
	err := s.db.First(&permission, id).Error
	if err != nil {
		return err
	}

	if permission.IsSystem {
		return apperrors.ErrImmutableSystemEntity
	}

	var childCount int64
	s.db.Model(&models.Permission{}).Where("parent_id = ?", id).Count(&childCount)
	if childCount > 0 {
		return fmt.Errorf("存在子权限，不允许删除")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		// 同步清理角色授权
		if err := tx.Where("permission_id = ?", id).Delete(&models.RolePermission{}).Error; err != nil {
			return err
		}
		return tx.Delete(&permission).Error
	})
}
