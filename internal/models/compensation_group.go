package models

import (
	"time"

	"gorm.io/gorm"
)

// CompensationGroup 分成组：一组代理共享的推广链接与留存激励条款
type CompensationGroup struct {
	ID        uint           `gorm:"primarykey" json:"id"`                          // 主键
	Name      string         `gorm:"type:varchar(100);not null" json:"name"`        // 分成组名称
	Enabled   bool           `gorm:"not null;default:true" json:"enabled"`          // 是否启用
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                       // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                // 软删除时间

	Versions []CompensationGroupVersion `gorm:"foreignKey:GroupID" json:"versions,omitempty"` // 版本快照（仅追加）
}

// TableName 指定表名
func (CompensationGroup) TableName() string {
	return "compensation_groups"
}

// CompensationGroupVersion 分成组版本快照
type CompensationGroupVersion struct {
	ID          uint      `gorm:"primarykey" json:"id"`               // 主键
	GroupID     uint      `gorm:"not null;index" json:"group_id"`     // 分成组ID
	EffectiveAt time.Time `gorm:"not null;index" json:"effective_at"` // 生效时间
	CreatedAt   time.Time `gorm:"index" json:"created_at"`            // 创建时间

	Links      []AffiliateLink      `gorm:"foreignKey:GroupVersionID" json:"links,omitempty"`      // 推广链接
	Incentives []RetentionIncentive `gorm:"foreignKey:GroupVersionID" json:"incentives,omitempty"` // 留存激励
}

// TableName 指定表名
func (CompensationGroupVersion) TableName() string {
	return "compensation_group_versions"
}

// AffiliateLink 分成组内已激活的推广链接条款
type AffiliateLink struct {
	ID             uint   `gorm:"primarykey" json:"id"`                               // 主键
	GroupVersionID uint   `gorm:"not null;index" json:"group_version_id"`             // 分成组版本ID
	ClientID       uint   `gorm:"not null;index" json:"client_id"`                    // 客户ID
	LinkType       string `gorm:"type:varchar(20);index" json:"link_type"`            // 链接类型（sports/casino/空=两者）
	Commission     Money  `gorm:"type:decimal(20,2);not null;default:0" json:"commission"` // 支付给代理的佣金
	MinBetSize     Money  `gorm:"type:decimal(20,2);not null;default:0" json:"min_bet_size"` // 最低投注额
	CPA            Money  `gorm:"type:decimal(20,2);not null;default:0" json:"cpa"`   // 每次转化收入（来自合作条款）
	MonthlyLimit   *int   `json:"monthly_limit,omitempty"`                            // 月度转化上限
	Enabled        bool   `gorm:"not null;default:true" json:"enabled"`               // 是否启用
}

// TableName 指定表名
func (AffiliateLink) TableName() string {
	return "affiliate_links"
}

// RetentionIncentive 留存激励条款：固定奖励金额 + 月度上限
type RetentionIncentive struct {
	ID             uint `gorm:"primarykey" json:"id"`                   // 主键
	GroupVersionID uint `gorm:"not null;index" json:"group_version_id"` // 分成组版本ID
	ClientID       uint `gorm:"not null;index" json:"client_id"`        // 客户ID
	Amount         Money `gorm:"type:decimal(20,2);not null;default:0" json:"amount"` // 固定奖励金额
	MonthlyLimit   int  `gorm:"not null;default:0" json:"monthly_limit"` // 月度上限
}

// TableName 指定表名
func (RetentionIncentive) TableName() string {
	return "retention_incentives"
}
