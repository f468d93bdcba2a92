package repository

import "time"

// ClientListFilter 查询客户列表的过滤条件
type ClientListFilter struct {
	Page     int
	PageSize int
	Status   string
	Search   string
}

// ConversionListFilter 查询转化列表的过滤条件
type ConversionListFilter struct {
	Page         int
	PageSize     int
	UserID       uint
	ClientID     uint
	GroupID      uint
	Status       string
	Type         string
	OccurredFrom *time.Time
	OccurredTo   *time.Time
}

// UnassignedListFilter 查询待归属转化的过滤条件
type UnassignedListFilter struct {
	Page           int
	PageSize       int
	AssignmentCode string
	ClientID       uint
}

// UserListFilter 查询代理列表的过滤条件
type UserListFilter struct {
	Page     int
	PageSize int
	Status   string
	GroupID  uint
	Search   string
}

// PayoutListFilter 查询结算批次的过滤条件
type PayoutListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	PaidFrom *time.Time
	PaidTo   *time.Time
}
