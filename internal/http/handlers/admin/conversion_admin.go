package admin

import (
	"strconv"
	"time"

	"github.com/firesales-next/internal/http/response"
	"github.com/firesales-next/internal/queue"
	"github.com/firesales-next/internal/repository"
	"github.com/firesales-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAdminConversions 获取转化列表 (Admin)
func (h *Handler) GetAdminConversions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)
	clientID, _ := strconv.ParseUint(c.Query("client_id"), 10, 64)
	groupID, _ := strconv.ParseUint(c.Query("group_id"), 10, 64)

	filter := repository.ConversionListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uint(userID),
		ClientID: uint(clientID),
		GroupID:  uint(groupID),
		Status:   c.Query("status"),
		Type:     c.Query("type"),
	}
	if raw := c.Query("from"); raw != "" {
		if from, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.OccurredFrom = &from
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.OccurredTo = &to
		}
	}

	conversions, total, err := h.ConversionService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "conversion fetch failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, conversions, pagination)
}

// GetAdminConversion 按业务键获取转化详情 (Admin)
func (h *Handler) GetAdminConversion(c *gin.Context) {
	key := c.Param("key")
	conversion, err := h.ConversionService.GetByKey(key)
	if err != nil {
		respondWithMappedError(c, err, conversionCommonErrorRules, response.CodeInternal, "conversion fetch failed")
		return
	}
	response.Success(c, conversion)
}

// ChangeStatusRequest 状态流转请求
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ChangeAdminConversionStatus 流转转化状态 (Admin)
func (h *Handler) ChangeAdminConversionStatus(c *gin.Context) {
	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	conversion, err := h.ConversionService.ChangeStatus(c.Param("key"), req.Status)
	if err != nil {
		respondWithMappedError(c, err, conversionCommonErrorRules, response.CodeInternal, "status change failed")
		return
	}
	response.Success(c, conversion)
}

// AddMessageRequest 追加备注请求
type AddMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// AddAdminConversionMessage 给转化追加备注 (Admin)
func (h *Handler) AddAdminConversionMessage(c *gin.Context) {
	var req AddMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	conversion, err := h.ConversionService.AddMessage(c.Param("key"), req.Message)
	if err != nil {
		respondWithMappedError(c, err, conversionCommonErrorRules, response.CodeInternal, "message add failed")
		return
	}
	response.Success(c, conversion)
}

// GetAdminUnassignedConversions 获取待认领转化列表 (Admin)
func (h *Handler) GetAdminUnassignedConversions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	clientID, _ := strconv.ParseUint(c.Query("client_id"), 10, 64)

	rows, total, err := h.ConversionService.ListUnassigned(repository.UnassignedListFilter{
		Page:           page,
		PageSize:       pageSize,
		AssignmentCode: c.Query("assignment_code"),
		ClientID:       uint(clientID),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "unassigned fetch failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, rows, pagination)
}

// ImportAdminReport 上传 CSV 报表并导入为待认领转化 (Admin)。
// async=1 时只落盘并入队，由 worker 消费；否则同步解析入库。
func (h *Handler) ImportAdminReport(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, response.CodeBadRequest, "report file required", err)
		return
	}
	defaultCode := c.PostForm("assignment_code")

	if c.PostForm("async") == "1" && h.QueueClient.Enabled() {
		savedPath, err := h.UploadService.SaveReportFile(file)
		if err != nil {
			respondError(c, response.CodeInternal, "report save failed", err)
			return
		}
		if err := h.QueueClient.EnqueueImportReport(queue.ImportReportPayload{
			FilePath:       savedPath,
			AssignmentCode: defaultCode,
		}); err != nil {
			respondError(c, response.CodeInternal, "report enqueue failed", err)
			return
		}
		response.SuccessWithMsg(c, "report queued", gin.H{"file_path": savedPath})
		return
	}

	attachments, err := h.saveImportAttachments(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "attachment save failed", err)
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, response.CodeInternal, "report open failed", err)
		return
	}
	defer src.Close()

	summary, err := h.ImportService.ImportReport(src, defaultCode, attachments)
	if err != nil {
		respondWithMappedError(c, err, conversionCommonErrorRules, response.CodeInternal, "report import failed")
		return
	}
	response.Success(c, summary)
}

// saveImportAttachments 保存随报表上传的凭证附件。
// 文件名须符合 conv{行号}_attach{序号} 约定，返回按行号归组的链接。
func (h *Handler) saveImportAttachments(c *gin.Context) (map[int][]string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}
	files := form.File["attachments"]
	if len(files) == 0 {
		return nil, nil
	}

	matched := service.MatchAttachmentsToRows(files)
	urls := make(map[int][]string, len(matched))
	for row, rowFiles := range matched {
		for _, file := range rowFiles {
			url, err := h.UploadService.SaveAttachment(file)
			if err != nil {
				return nil, err
			}
			urls[row] = append(urls[row], url)
		}
	}
	return urls, nil
}

// UploadAdminConversionAttachments 上传转化凭证附件并挂到转化记录 (Admin)
func (h *Handler) UploadAdminConversionAttachments(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		respondError(c, response.CodeBadRequest, "attachment files required", nil)
		return
	}

	urls := make([]string, 0, len(files))
	for _, file := range files {
		url, err := h.UploadService.SaveAttachment(file)
		if err != nil {
			respondError(c, response.CodeBadRequest, "attachment save failed", err)
			return
		}
		urls = append(urls, url)
	}

	conversion, err := h.ConversionService.AddAttachmentURLs(c.Param("key"), urls...)
	if err != nil {
		respondWithMappedError(c, err, conversionCommonErrorRules, response.CodeInternal, "attachment attach failed")
		return
	}
	response.Success(c, conversion)
}
