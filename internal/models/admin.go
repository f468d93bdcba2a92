package models

import (
	"time"

	"gorm.io/gorm"
)

// Admin 后台管理员
type Admin struct {
	ID           uint           `gorm:"primarykey" json:"id"`                          // 主键
	Username     string         `gorm:"uniqueIndex;not null" json:"username"`          // 登录名
	PasswordHash string         `gorm:"not null" json:"-"`                             // 密码哈希
	IsSuper      bool           `gorm:"not null;default:false" json:"is_super"`        // 超级管理员
	TokenVersion uint64         `gorm:"not null;default:0" json:"-"`                   // Token 版本（登出全部设备时递增）
	TokenInvalidBefore *time.Time `json:"-"`                                           // 此时间前签发的 Token 一律失效
	LastLoginAt  *time.Time     `json:"last_login_at,omitempty"`                       // 最后登录时间
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                       // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                // 软删除时间
}

// TableName 指定表名
func (Admin) TableName() string {
	return "admins"
}
