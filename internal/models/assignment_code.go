package models

import (
	"time"

	"gorm.io/gorm"
)

// AssignmentCode 归属码：批次粒度一次性使用，认领成功后立即失效
type AssignmentCode struct {
	ID                  uint           `gorm:"primarykey" json:"id"`                           // 主键
	Code                string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"` // 归属码
	CompensationGroupID uint           `gorm:"index" json:"compensation_group_id"`             // 分成组ID
	Status              string         `gorm:"type:varchar(20);not null;index" json:"status"`  // 状态（open/used/expired）
	UsedByUserID        *uint          `gorm:"index" json:"used_by_user_id,omitempty"`         // 认领代理ID
	UsedAt              *time.Time     `json:"used_at,omitempty"`                              // 认领时间
	CreatedAt           time.Time      `gorm:"index" json:"created_at"`                        // 创建时间
	UpdatedAt           time.Time      `gorm:"index" json:"updated_at"`                        // 更新时间
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`                                 // 软删除时间
}

// TableName 指定表名
func (AssignmentCode) TableName() string {
	return "assignment_codes"
}
