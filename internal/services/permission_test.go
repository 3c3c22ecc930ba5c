package services

import (
	"testing"

	"github.com/hugo617/healthcare-admin-sub002/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func permRow(id uint, parentID *uint, code, name string, sortOrder int) *models.Permission {
	p := &models.Permission{
		Code:      code,
		Name:      name,
		Type:      models.PermissionTypeMenu,
		ParentID:  parentID,
		SortOrder: sortOrder,
		Status:    models.PermissionStatusActive,
	}
	p.ID = id
	return p
}

func uintPtr(v uint) *uint { return &v }

// flattenForest 深度优先展平权限森林
func flattenForest(nodes []*PermissionNode) []*PermissionNode {
	var flat []*PermissionNode
	for _, node := range nodes {
		flat = append(flat, node)
		flat = append(flat, flattenForest(node.Children)...)
	}
	return flat
}

func TestBuildPermissionForestStructure(t *testing.T) {
	permissions := []*models.Permission{
		permRow(1, nil, "account", "账户管理", 1),
		permRow(2, uintPtr(1), "account.user", "用户管理", 1),
		permRow(3, uintPtr(2), "account.user.list", "用户列表", 1),
		permRow(4, uintPtr(2), "account.user.create", "创建用户", 2),
		permRow(5, nil, "admin", "平台管理", 2),
		permRow(6, uintPtr(5), "admin.tenant", "租户管理", 1),
	}
	usage := map[uint]int64{3: 2, 4: 1}

	forest := BuildPermissionForest(permissions, usage)

	require.Len(t, forest, 2)
	assert.Equal(t, "account", forest[0].Code)
	assert.Equal(t, "admin", forest[1].Code)

	require.Len(t, forest[0].Children, 1)
	userNode := forest[0].Children[0]
	assert.Equal(t, "account.user", userNode.Code)
	require.Len(t, userNode.Children, 2)
	assert.Equal(t, "account.user.list", userNode.Children[0].Code)
	assert.Equal(t, "account.user.create", userNode.Children[1].Code)

	// 每个权限在森林中恰好出现一次
	flat := flattenForest(forest)
	assert.Len(t, flat, len(permissions))
	seen := make(map[uint]bool)
	for _, node := range flat {
		assert.False(t, seen[node.ID], "权限 %d 重复出现", node.ID)
		seen[node.ID] = true
	}
}

func TestBuildPermissionForestRoleUsage(t *testing.T) {
	permissions := []*models.Permission{
		permRow(1, nil, "account", "账户管理", 1),
		permRow(2, uintPtr(1), "account.user.list", "用户列表", 1),
	}
	usage := map[uint]int64{2: 3}

	forest := BuildPermissionForest(permissions, usage)

	require.Len(t, forest, 1)
	assert.Equal(t, int64(0), forest[0].RoleUsageCount)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, int64(3), forest[0].Children[0].RoleUsageCount)
}

func TestBuildPermissionForestSiblingOrder(t *testing.T) {
	permissions := []*models.Permission{
		permRow(1, nil, "c", "模块C", 2),
		permRow(2, nil, "a", "模块A", 1),
		permRow(3, nil, "b", "模块B", 2),
	}

	forest := BuildPermissionForest(permissions, nil)

	require.Len(t, forest, 3)
	// sort_order升序，相同时按名称升序
	assert.Equal(t, "a", forest[0].Code)
	assert.Equal(t, "b", forest[1].Code)
	assert.Equal(t, "c", forest[2].Code)
}

func TestBuildPermissionForestCycleDefense(t *testing.T) {
	// 两节点互为父子：写入侧不变量被绕过时读取侧不应死循环
	permissions := []*models.Permission{
		permRow(1, uintPtr(2), "x", "节点X", 1),
		permRow(2, uintPtr(1), "y", "节点Y", 1),
		permRow(3, nil, "root", "正常根", 1),
	}

	forest := BuildPermissionForest(permissions, nil)

	flat := flattenForest(forest)
	seen := make(map[uint]bool)
	for _, node := range flat {
		assert.False(t, seen[node.ID])
		seen[node.ID] = true
	}
	// 正常根节点不受环影响
	found := false
	for _, node := range forest {
		if node.Code == "root" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestBuildPermissionForestEmpty(t *testing.T) {
	forest := BuildPermissionForest(nil, nil)
	assert.Empty(t, forest)
}

func TestBuildPermissionForestOrphanParent(t *testing.T) {
	// 父节点不存在的行不会出现在任何根下
	permissions := []*models.Permission{
		permRow(1, nil, "root", "根", 1),
		permRow(2, uintPtr(99), "orphan", "孤儿", 1),
	}

	forest := BuildPermissionForest(permissions, nil)

	require.Len(t, forest, 1)
	assert.Equal(t, "root", forest[0].Code)
	assert.Empty(t, forest[0].Children)
}
