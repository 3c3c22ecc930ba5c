package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User 用户模型：一个用户同一时刻只属于一个租户和一个角色
type User struct {
	BaseModel
	TenantID     uint       `json:"tenant_id" gorm:"not null;index"`
	RoleID       uint       `json:"role_id" gorm:"not null;index"`
	Username     string     `json:"username" gorm:"unique;not null;size:50;index"`
	Email        string     `json:"email" gorm:"unique;not null;size:100;index"`
	PasswordHash string     `json:"-" gorm:"not null;size:255"`
	Name         string     `json:"name" gorm:"not null;size:100"`
	Phone        *string    `json:"phone" gorm:"size:20"`
	Avatar       *string    `json:"avatar" gorm:"size:255"`
	Status       string     `json:"status" gorm:"default:'active';size:20"`
	IsSuperAdmin bool       `json:"is_super_admin" gorm:"default:false"`
	LastLoginAt  *time.Time `json:"last_login_at"`

	// 关联关系
	Tenant *Tenant `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	Role   *Role   `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

// TableName 表名
func (u *User) TableName() string {
	return "users"
}

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
	UserStatusLocked   = "locked"
)

// SetPassword 设置密码 - 数据操作方法
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword 验证密码 - 数据操作方法
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// IsActive 禁用/锁定的用户即使持有结构上有效的令牌也不能通过认证
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
