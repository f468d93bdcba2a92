package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/firesales-next/internal/logger"
	"github.com/firesales-next/internal/provider"
	"github.com/firesales-next/internal/queue"
	"github.com/firesales-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskImportReport, c.handleImportReport)
	mux.HandleFunc(queue.TaskAssignmentCodeExpire, c.handleAssignmentCodeExpire)
}

func (c *Consumer) handleImportReport(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_import_report_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ImportReportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_import_report_unmarshal_failed", "error", err)
		return err
	}
	path := strings.TrimSpace(payload.FilePath)
	if path == "" {
		logger.Debugw("worker_import_report_skip_empty_path")
		return nil
	}
	if c.ImportService == nil {
		logger.Warnw("worker_import_report_skip_import_service_nil", "path", path)
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warnw("worker_import_report_file_missing", "path", path)
			return nil
		}
		logger.Warnw("worker_import_report_open_failed", "path", path, "error", err)
		return err
	}
	defer file.Close()

	summary, err := c.ImportService.ImportReport(file, payload.AssignmentCode, nil)
	if err != nil {
		if errors.Is(err, service.ErrEmptyBatch) {
			logger.Debugw("worker_import_report_skip_empty_batch", "path", path)
			return nil
		}
		logger.Warnw("worker_import_report_failed", "path", path, "error", err)
		return err
	}
	logger.Infow("worker_import_report_done",
		"path", path,
		"total", summary.Total,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
	)
	return nil
}

func (c *Consumer) handleAssignmentCodeExpire(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_code_expire_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.AssignmentCodeExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_code_expire_unmarshal_failed", "error", err)
		return err
	}
	if c.ConversionService == nil {
		logger.Warnw("worker_code_expire_skip_conversion_service_nil")
		return nil
	}
	maxAge := time.Duration(payload.MaxAgeHours) * time.Hour
	if maxAge <= 0 {
		maxAge = defaultAssignmentCodeMaxAge
	}
	expired, err := c.ConversionService.ExpireAssignmentCodes(time.Now().Add(-maxAge))
	if err != nil {
		logger.Warnw("worker_code_expire_failed", "error", err)
		return err
	}
	if expired > 0 {
		logger.Infow("worker_code_expire_done", "count", expired)
	}
	return nil
}
