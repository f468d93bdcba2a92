package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ErrConversionUnattributed 转化记录既无代理也无归属码（程序错误，不可恢复）
var ErrConversionUnattributed = errors.New("conversion requires exactly one of user id or assignment code")

// AffiliateLinkSnapshot 转化记录持有的推广链接快照（非外键引用，写入后不随条款变化）
type AffiliateLinkSnapshot struct {
	ClientID   uint   `json:"client_id"`
	ClientName string `json:"client_name"`
	LinkType   string `json:"link_type"`
	Commission Money  `json:"commission"`
	MinBetSize Money  `json:"min_bet_size"`
	CPA        Money  `json:"cpa"`
	Currency   string `json:"currency"`
}

// Value 实现 driver.Valuer 接口
func (s AffiliateLinkSnapshot) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan 实现 sql.Scanner 接口
func (s *AffiliateLinkSnapshot) Scan(value interface{}) error {
	if value == nil {
		*s = AffiliateLinkSnapshot{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if str, ok := value.(string); ok {
			bytes = []byte(str)
		} else {
			return nil
		}
	}
	return json.Unmarshal(bytes, s)
}

// Conversion 转化记录：已归属到代理（或待归属码）的佣金事实，不可原地修改
type Conversion struct {
	ID                  uint                  `gorm:"primarykey" json:"id"`                                      // 主键
	ConversionKey       string                `gorm:"type:varchar(255);uniqueIndex;not null" json:"conversion_key"` // 确定性业务键，天然去重
	Type                string                `gorm:"type:varchar(30);not null;index" json:"type"`               // 转化类型
	Status              string                `gorm:"type:varchar(30);not null;index" json:"status"`             // 状态
	DateOccurred        time.Time             `gorm:"not null;index" json:"date_occurred"`                       // 转化发生日期
	LoggedAt            time.Time             `gorm:"not null;index" json:"logged_at"`                           // 记录入库时间
	UserID              *uint                 `gorm:"index" json:"user_id,omitempty"`                            // 代理ID（与归属码二选一）
	AssignmentCode      string                `gorm:"type:varchar(64);index" json:"assignment_code,omitempty"`   // 归属码（与代理ID二选一）
	CompensationGroupID uint                  `gorm:"index" json:"compensation_group_id"`                        // 分成组ID
	ClientID            uint                  `gorm:"not null;index" json:"client_id"`                           // 客户ID（冗余自快照，用于查询）
	LinkType            string                `gorm:"type:varchar(20);index" json:"link_type"`                   // 链接类型（冗余自快照，用于查询）
	Link                AffiliateLinkSnapshot `gorm:"type:json" json:"link"`                                     // 推广链接快照
	Customer            string                `gorm:"type:varchar(100);not null" json:"customer"`                // 客户（终端玩家）名称
	Amount              Money                 `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`       // 投注额
	Currency            string                `gorm:"type:varchar(10);not null" json:"currency"`                 // 币种
	AttachmentURLs      StringArray           `gorm:"type:json" json:"attachment_urls"`                          // 附件链接
	Messages            StringArray           `gorm:"type:json" json:"messages"`                                 // 备注
	CreatedAt           time.Time             `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt           time.Time             `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt           gorm.DeletedAt        `gorm:"index" json:"-"`                                            // 软删除时间
}

// TableName 指定表名
func (Conversion) TableName() string {
	return "conversions"
}

// NewConversionInput 转化记录构造参数
type NewConversionInput struct {
	Type                string
	DateOccurred        time.Time
	LoggedAt            time.Time
	UserID              *uint
	AssignmentCode      string
	CompensationGroupID uint
	Link                AffiliateLinkSnapshot
	Customer            string
	Amount              Money
	Currency            string
}

// NewConversion 构造转化记录；代理ID与归属码必须恰好提供其一
func NewConversion(input NewConversionInput) (*Conversion, error) {
	hasUser := input.UserID != nil && *input.UserID != 0
	hasCode := strings.TrimSpace(input.AssignmentCode) != ""
	if hasUser == hasCode {
		return nil, ErrConversionUnattributed
	}

	loggedAt := input.LoggedAt
	if loggedAt.IsZero() {
		loggedAt = time.Now()
	}
	currency := strings.TrimSpace(input.Currency)
	if currency == "" {
		currency = input.Link.Currency
	}

	conversion := &Conversion{
		Type:                input.Type,
		Status:              "pending",
		DateOccurred:        input.DateOccurred,
		LoggedAt:            loggedAt,
		CompensationGroupID: input.CompensationGroupID,
		ClientID:            input.Link.ClientID,
		LinkType:            input.Link.LinkType,
		Link:                input.Link,
		Customer:            strings.TrimSpace(input.Customer),
		Amount:              input.Amount,
		Currency:            currency,
		AttachmentURLs:      StringArray{},
		Messages:            StringArray{},
	}
	if hasUser {
		conversion.UserID = input.UserID
	} else {
		conversion.AssignmentCode = normalizeAssignmentCode(input.AssignmentCode)
	}
	conversion.ConversionKey = conversion.computeKey()
	return conversion, nil
}

// computeKey 生成确定性业务键：{日期}_{归属码或代理}_{客户ID}_{终端客户}
func (c *Conversion) computeKey() string {
	attribution := c.AssignmentCode
	if c.UserID != nil && *c.UserID != 0 {
		attribution = "u" + strconv.FormatUint(uint64(*c.UserID), 10)
	}
	customer := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(c.Customer), " ", "-"))
	return fmt.Sprintf("%s_%s_%d_%s",
		c.DateOccurred.Format("2006-01-02"), attribution, c.Link.ClientID, customer)
}

// WithStatus 返回切换状态后的新副本；业务键不变
func (c Conversion) WithStatus(status string) Conversion {
	c.Status = status
	return c
}

// WithMessage 返回追加备注后的新副本
func (c Conversion) WithMessage(message string) Conversion {
	messages := make(StringArray, 0, len(c.Messages)+1)
	messages = append(messages, c.Messages...)
	messages = append(messages, message)
	c.Messages = messages
	return c
}

// WithAttachmentURLs 返回追加附件链接后的新副本
func (c Conversion) WithAttachmentURLs(urls ...string) Conversion {
	merged := make(StringArray, 0, len(c.AttachmentURLs)+len(urls))
	merged = append(merged, c.AttachmentURLs...)
	merged = append(merged, urls...)
	c.AttachmentURLs = merged
	return c
}

// WithUser 返回归属到指定代理的新副本（认领流程使用）；业务键随归属方式变化
func (c Conversion) WithUser(userID uint) Conversion {
	c.UserID = &userID
	c.AssignmentCode = ""
	c.ConversionKey = c.computeKey()
	return c
}

func normalizeAssignmentCode(code string) string {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	return strings.ReplaceAll(normalized, " ", "-")
}

// NormalizeAssignmentCode 归属码标准化：去空格、转大写、空格转连字符
func NormalizeAssignmentCode(code string) string {
	return normalizeAssignmentCode(code)
}
