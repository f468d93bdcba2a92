package constants

// 转化记录状态常量
const (
	ConversionStatusPending        = "pending"
	ConversionStatusApprovedUnpaid = "approved_unpaid"
	ConversionStatusApprovedPaid   = "approved_paid"
	ConversionStatusRejected       = "rejected"
)

// 转化类型常量
const (
	ConversionTypeFreeBet            = "free_bet"
	ConversionTypeBetMatch           = "bet_match"
	ConversionTypeRetentionIncentive = "retention_incentive"
)

// 推广链接类型常量（空串表示同时适用体育与娱乐场）
const (
	LinkTypeSports = "sports"
	LinkTypeCasino = "casino"
	LinkTypeBoth   = ""
)

// 客户状态常量
const (
	ClientStatusEnabled  = "enabled"
	ClientStatusDisabled = "disabled"
)

// 代理账号状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 归属码状态常量
const (
	AssignmentCodeStatusOpen    = "open"
	AssignmentCodeStatusUsed    = "used"
	AssignmentCodeStatusExpired = "expired"
)

// 报表时间窗常量
const (
	TimeframeLastWeek        = "last_week"
	TimeframeLastMonth       = "last_month"
	TimeframeLastThreeMonths = "last_three_months"
	TimeframeLastSixMonths   = "last_six_months"
	TimeframeLastYear        = "last_year"
)

// 异步任务常量
const (
	QueueDefault = "default"

	TaskImportReport         = "conversion:import_report"
	TaskAssignmentCodeExpire = "assignment_code:expire"
)

// 默认币种
const DefaultCurrency = "CAD"
