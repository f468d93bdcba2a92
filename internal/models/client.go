package models

import (
	"time"

	"gorm.io/gorm"
)

// Client 体育博彩客户（sportsbook）
type Client struct {
	ID        uint           `gorm:"primarykey" json:"id"`                          // 主键
	Name      string         `gorm:"type:varchar(100);not null;index" json:"name"`  // 客户名称
	Status    string         `gorm:"type:varchar(20);not null;index" json:"status"` // 客户状态
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                       // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                // 软删除时间

	Versions []ClientVersion `gorm:"foreignKey:ClientID" json:"versions,omitempty"` // 版本快照（仅追加）
}

// TableName 指定表名
func (Client) TableName() string {
	return "clients"
}

// Enabled 客户是否可用于导入匹配
func (c Client) Enabled() bool {
	return c.Status == "enabled"
}

// ClientVersion 客户条款版本快照，按生效时间仅追加
type ClientVersion struct {
	ID          uint      `gorm:"primarykey" json:"id"`                    // 主键
	ClientID    uint      `gorm:"not null;index" json:"client_id"`         // 客户ID
	EffectiveAt time.Time `gorm:"not null;index" json:"effective_at"`      // 生效时间
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                 // 创建时间

	Deals []AffiliateDeal `gorm:"foreignKey:ClientVersionID" json:"deals,omitempty"` // 合作条款（顺序有业务含义）
}

// TableName 指定表名
func (ClientVersion) TableName() string {
	return "client_versions"
}

// AffiliateDeal 客户提供的合作条款（激活进分成组之前的商业条件）
type AffiliateDeal struct {
	ID                       uint   `gorm:"primarykey" json:"id"`                                      // 主键
	ClientVersionID          uint   `gorm:"not null;index" json:"client_version_id"`                   // 客户版本ID
	LinkType                 string `gorm:"type:varchar(20);index" json:"link_type"`                   // 链接类型（sports/casino/空=两者）
	CPA                      Money  `gorm:"type:decimal(20,2);not null;default:0" json:"cpa"`          // 每次转化收入
	Currency                 string `gorm:"type:varchar(10);not null" json:"currency"`                 // 币种
	TargetBetSize            *Money `gorm:"type:decimal(20,2)" json:"target_bet_size,omitempty"`       // 目标投注额
	TargetMonthlyConversions *int   `json:"target_monthly_conversions,omitempty"`                      // 目标月转化数
	Enabled                  bool   `gorm:"not null;default:true" json:"enabled"`                      // 是否启用
	SortOrder                int    `gorm:"not null;default:0;index" json:"sort_order"`                // 存储顺序（匹配时有意义）
}

// TableName 指定表名
func (AffiliateDeal) TableName() string {
	return "affiliate_deals"
}

// MatchesLinkType 条款是否适用于给定链接类型；空类型条款适用于所有类型
func (d AffiliateDeal) MatchesLinkType(linkType string) bool {
	return d.LinkType == "" || d.LinkType == linkType
}
