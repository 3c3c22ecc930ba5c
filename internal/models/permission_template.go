package models

import "time"

// PermissionTemplate 权限模板：可复用的权限集合，用于批量授权
type PermissionTemplate struct {
	BaseModel
	Name        string `gorm:"size:100;not null" json:"name"`
	Code        string `gorm:"uniqueIndex;size:100;not null" json:"code"`
	Description string `gorm:"size:255" json:"description"`
	IsSystem    bool   `gorm:"default:false" json:"is_system"` // 系统模板不可修改、不可删除

	Permissions []Permission `gorm:"many2many:template_permissions;" json:"permissions,omitempty"`
}

// TableName 表名
func (t *PermissionTemplate) TableName() string {
	return "permission_templates"
}

// TemplatePermission 模板权限关联表
type TemplatePermission struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	PermissionTemplateID uint      `gorm:"not null;index" json:"permission_template_id"`
	PermissionID         uint      `gorm:"not null;index" json:"permission_id"`
	CreatedAt            time.Time `json:"created_at"`
}
