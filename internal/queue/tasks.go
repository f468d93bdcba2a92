package queue

import (
	"encoding/json"

	"github.com/firesales-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskImportReport CSV 报表导入任务
	TaskImportReport = constants.TaskImportReport
	// TaskAssignmentCodeExpire 归属码过期清理任务
	TaskAssignmentCodeExpire = constants.TaskAssignmentCodeExpire
)

// ImportReportPayload 报表导入任务载荷
type ImportReportPayload struct {
	FilePath       string `json:"file_path"`
	AssignmentCode string `json:"assignment_code"`
}

// AssignmentCodeExpirePayload 归属码过期任务载荷
type AssignmentCodeExpirePayload struct {
	MaxAgeHours int `json:"max_age_hours"`
}

// NewImportReportTask 创建报表导入任务
func NewImportReportTask(payload ImportReportPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskImportReport, body), nil
}

// NewAssignmentCodeExpireTask 创建归属码过期任务
func NewAssignmentCodeExpireTask(payload AssignmentCodeExpirePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAssignmentCodeExpire, body), nil
}
