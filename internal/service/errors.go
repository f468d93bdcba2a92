package service

import "errors"

// 服务层通用错误
var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrValidation         = errors.New("validation failed")
	ErrWeakPassword       = errors.New("password does not meet policy")
	ErrTooManyLoginAttempts = errors.New("too many login attempts")
)

// 转化与认领相关错误
var (
	ErrAssignmentCodeUsed     = errors.New("assignment code already used")
	ErrAssignmentCodeNotFound = errors.New("assignment code not found")
	ErrDuplicateConversion    = errors.New("conversion already recorded")
	ErrIllegalStatusChange    = errors.New("illegal conversion status change")
	ErrEmptyBatch             = errors.New("conversion batch is empty")
	ErrCapExceeded            = errors.New("monthly cap exceeded")
)
