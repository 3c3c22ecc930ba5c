package models

// Permission 权限模型
// 通过ParentID构成权限森林（每个顶级模块一棵树），父链在写入时保证无环
type Permission struct {
	BaseModel
	Code         string `gorm:"uniqueIndex;size:100;not null" json:"code"` // 权限代码，点分命名，如 "account.user.read"
	Name         string `gorm:"size:100;not null" json:"name"`             // 权限名称
	Description  string `gorm:"size:255" json:"description"`               // 权限描述
	Type         string `gorm:"size:20;not null" json:"type"`              // 节点类型：menu, page, button, api, data
	ParentID     *uint  `gorm:"index" json:"parent_id"`                    // 父节点，NULL表示根节点
	SortOrder    int    `gorm:"default:0" json:"sort_order"`               // 同级排序
	IsSystem     bool   `gorm:"default:false" json:"is_system"`            // 系统权限：仅描述与排序可改，不可删除
	Path         string `gorm:"size:255" json:"path"`                      // 前端路径（menu/page节点）
	APIPath      string `gorm:"size:255" json:"api_path"`                  // API路径（api节点）
	Method       string `gorm:"size:10" json:"method"`                     // HTTP方法（api节点）
	ResourceType string `gorm:"size:50" json:"resource_type"`              // 资源类型（data节点）
	Status       string `gorm:"size:20;default:'active'" json:"status"`    // 状态：active, inactive
}

// TableName 表名
func (p *Permission) TableName() string {
	return "permissions"
}

// 权限节点类型常量
const (
	PermissionTypeMenu   = "menu"
	PermissionTypePage   = "page"
	PermissionTypeButton = "button"
	PermissionTypeAPI    = "api"
	PermissionTypeData   = "data"
)

// 权限状态常量
const (
	PermissionStatusActive   = "active"
	PermissionStatusInactive = "inactive"
)

// IsValidPermissionType 校验节点类型
func IsValidPermissionType(t string) bool {
	switch t {
	case PermissionTypeMenu, PermissionTypePage, PermissionTypeButton, PermissionTypeAPI, PermissionTypeData:
		return true
	default:
		return false
	}
}
