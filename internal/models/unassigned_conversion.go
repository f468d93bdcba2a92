package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ErrUnassignedMissingCode 待归属转化缺少归属码（程序错误，不可恢复）
var ErrUnassignedMissingCode = errors.New("unassigned conversion requires an assignment code")

// UnassignedConversion 待归属转化：代理未知时先以归属码记录，被认领后移入 conversions
type UnassignedConversion struct {
	ID                  uint                  `gorm:"primarykey" json:"id"`                                         // 主键
	ConversionKey       string                `gorm:"type:varchar(255);uniqueIndex;not null" json:"conversion_key"` // 确定性业务键
	Type                string                `gorm:"type:varchar(30);not null;index" json:"type"`                  // 转化类型
	Status              string                `gorm:"type:varchar(30);not null;index" json:"status"`                // 状态
	DateOccurred        time.Time             `gorm:"not null;index" json:"date_occurred"`                          // 转化发生日期
	LoggedAt            time.Time             `gorm:"not null;index" json:"logged_at"`                              // 记录入库时间
	AssignmentCode      string                `gorm:"type:varchar(64);not null;index" json:"assignment_code"`       // 归属码
	CompensationGroupID uint                  `gorm:"index" json:"compensation_group_id"`                           // 分成组ID
	ClientID            uint                  `gorm:"not null;index" json:"client_id"`                              // 客户ID（冗余自快照，用于查询）
	LinkType            string                `gorm:"type:varchar(20);index" json:"link_type"`                      // 链接类型（冗余自快照，用于查询）
	Link                AffiliateLinkSnapshot `gorm:"type:json" json:"link"`                                        // 推广链接快照
	Customer            string                `gorm:"type:varchar(100);not null" json:"customer"`                   // 客户（终端玩家）名称
	Amount              Money                 `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`          // 投注额
	Currency            string                `gorm:"type:varchar(10);not null" json:"currency"`                    // 币种
	AttachmentURLs      StringArray           `gorm:"type:json" json:"attachment_urls"`                             // 附件链接
	Messages            StringArray           `gorm:"type:json" json:"messages"`                                    // 备注
	CreatedAt           time.Time             `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt           time.Time             `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt           gorm.DeletedAt        `gorm:"index" json:"-"`                                               // 软删除时间
}

// TableName 指定表名
func (UnassignedConversion) TableName() string {
	return "unassigned_conversions"
}

// NewUnassignedConversion 从转化构造参数创建待归属转化；必须携带归属码
func NewUnassignedConversion(input NewConversionInput) (*UnassignedConversion, error) {
	if strings.TrimSpace(input.AssignmentCode) == "" {
		return nil, ErrUnassignedMissingCode
	}
	input.UserID = nil
	conversion, err := NewConversion(input)
	if err != nil {
		return nil, err
	}
	return &UnassignedConversion{
		ConversionKey:       conversion.ConversionKey,
		Type:                conversion.Type,
		Status:              conversion.Status,
		DateOccurred:        conversion.DateOccurred,
		LoggedAt:            conversion.LoggedAt,
		AssignmentCode:      conversion.AssignmentCode,
		CompensationGroupID: conversion.CompensationGroupID,
		ClientID:            conversion.ClientID,
		LinkType:            conversion.LinkType,
		Link:                conversion.Link,
		Customer:            conversion.Customer,
		Amount:              conversion.Amount,
		Currency:            conversion.Currency,
		AttachmentURLs:      conversion.AttachmentURLs,
		Messages:            conversion.Messages,
	}, nil
}

// ToConversion 认领时将待归属转化落为指定代理的正式转化；其余字段全部保留
func (u UnassignedConversion) ToConversion(userID uint) Conversion {
	conversion := Conversion{
		Type:                u.Type,
		Status:              u.Status,
		DateOccurred:        u.DateOccurred,
		LoggedAt:            u.LoggedAt,
		UserID:              &userID,
		CompensationGroupID: u.CompensationGroupID,
		ClientID:            u.ClientID,
		LinkType:            u.LinkType,
		Link:                u.Link,
		Customer:            u.Customer,
		Amount:              u.Amount,
		Currency:            u.Currency,
		AttachmentURLs:      u.AttachmentURLs,
		Messages:            u.Messages,
	}
	conversion.ConversionKey = conversion.computeKey()
	return conversion
}
