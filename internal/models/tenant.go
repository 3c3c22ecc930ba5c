package models

import "gorm.io/datatypes"

// Tenant 租户模型 - 贫血模型，只包含数据结构
type Tenant struct {
	BaseModel
	Name     string            `json:"name" gorm:"not null;size:100"`
	Code     string            `json:"code" gorm:"unique;not null;size:50;index"` // 短代码，唯一，用于子域名
	Status   string            `json:"status" gorm:"default:'active';size:20"`
	Settings datatypes.JSONMap `json:"settings" gorm:"type:jsonb"` // 自由格式配置
}

// TableName 表名
func (t *Tenant) TableName() string {
	return "tenants"
}

// 租户状态常量
const (
	TenantStatusActive    = "active"
	TenantStatusInactive  = "inactive"
	TenantStatusSuspended = "suspended"
)

// DefaultTenantCode 保留租户代码：不可删除，状态不可变更
const DefaultTenantCode = "default"

// IsDefault 是否为保留的默认租户
func (t *Tenant) IsDefault() bool {
	return t.Code == DefaultTenantCode
}
