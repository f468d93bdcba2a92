package models

import (
	"time"

	"gorm.io/gorm"
)

// Payout 结算批次：一次性支付代理若干笔已审批佣金
type Payout struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                // 主键
	UserID         uint           `gorm:"not null;index" json:"user_id"`                       // 代理ID
	Amount         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount"` // 支付总额
	Currency       string         `gorm:"type:varchar(10);not null" json:"currency"`           // 币种
	ConversionKeys StringArray    `gorm:"type:json" json:"conversion_keys"`                    // 本批次结算的转化业务键
	DatePaid       time.Time      `gorm:"not null;index" json:"date_paid"`                     // 支付日期
	PaymentMethod  string         `gorm:"type:varchar(50)" json:"payment_method"`              // 收款方式快照
	PaymentAddress string         `gorm:"type:varchar(255)" json:"payment_address"`            // 收款地址快照
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                             // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                             // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                      // 软删除时间

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"` // 代理
}

// TableName 指定表名
func (Payout) TableName() string {
	return "payouts"
}
