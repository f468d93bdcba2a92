package admin

import (
	"errors"
	"strconv"
	"time"

	"github.com/firesales-next/internal/http/response"
	"github.com/firesales-next/internal/repository"
	"github.com/firesales-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAdminPayouts 获取结算批次列表 (Admin)
func (h *Handler) GetAdminPayouts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)

	filter := repository.PayoutListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uint(userID),
	}
	if raw := c.Query("from"); raw != "" {
		if from, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.PaidFrom = &from
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.PaidTo = &to
		}
	}

	payouts, total, err := h.PayoutService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "payout fetch failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, payouts, pagination)
}

// GetAdminPayout 获取结算批次详情 (Admin)
func (h *Handler) GetAdminPayout(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", nil)
		return
	}

	payout, err := h.PayoutService.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "payout not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "payout fetch failed", err)
		return
	}
	response.Success(c, payout)
}

// SettleAgentRequest 结算请求
type SettleAgentRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// SettleAdminAgent 结算代理名下全部已审批未支付佣金 (Admin)
func (h *Handler) SettleAdminAgent(c *gin.Context) {
	var req SettleAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	payout, err := h.PayoutService.SettleUser(req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "agent not found", nil)
		case errors.Is(err, service.ErrEmptyBatch):
			respondError(c, response.CodeBadRequest, "nothing to settle", nil)
		default:
			respondError(c, response.CodeInternal, "settle failed", err)
		}
		return
	}
	response.Success(c, payout)
}
