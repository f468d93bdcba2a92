package models

import (
	"time"

	"gorm.io/gorm"
)

// User 销售代理账号
type User struct {
	ID                  uint           `gorm:"primarykey" json:"id"`                           // 主键
	Email               string         `gorm:"uniqueIndex;not null" json:"email"`              // 登录邮箱
	PasswordHash        string         `gorm:"not null" json:"-"`                              // 密码哈希
	DisplayName         string         `gorm:"type:varchar(100)" json:"display_name"`          // 显示名称
	Status              string         `gorm:"type:varchar(20);not null;index" json:"status"`  // 账号状态
	CompensationGroupID *uint          `gorm:"index" json:"compensation_group_id,omitempty"`   // 所属分成组ID
	PaymentMethod       string         `gorm:"type:varchar(50)" json:"payment_method"`         // 收款方式
	PaymentAddress      string         `gorm:"type:varchar(255)" json:"payment_address"`       // 收款地址
	TokenVersion        uint64         `gorm:"not null;default:0" json:"-"`                    // Token 版本
	TokenInvalidBefore  *time.Time     `json:"-"`                                              // 此时间前签发的 Token 一律失效
	LastLoginAt         *time.Time     `json:"last_login_at,omitempty"`                        // 最后登录时间
	CreatedAt           time.Time      `gorm:"index" json:"created_at"`                        // 创建时间
	UpdatedAt           time.Time      `gorm:"index" json:"updated_at"`                        // 更新时间
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`                                 // 软删除时间

	CompensationGroup *CompensationGroup `gorm:"foreignKey:CompensationGroupID" json:"compensation_group,omitempty"` // 分成组
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
