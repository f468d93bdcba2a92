package agent

import (
	"strconv"
	"time"

	"github.com/firesales-next/internal/http/response"
	"github.com/firesales-next/internal/models"
	"github.com/firesales-next/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// SubmitConversionRequest 单条转化提交体
type SubmitConversionRequest struct {
	Type         string `json:"type" binding:"required"`
	DateOccurred string `json:"date_occurred" binding:"required"`
	ClientID     uint   `json:"client_id" binding:"required"`
	ClientName   string `json:"client_name"`
	LinkType     string `json:"link_type"`
	Commission   string `json:"commission" binding:"required"`
	CPA          string `json:"cpa" binding:"required"`
	MinBetSize   string `json:"min_bet_size"`
	Customer     string `json:"customer" binding:"required"`
	Amount       string `json:"amount" binding:"required"`
	Currency     string `json:"currency"`
}

func (r SubmitConversionRequest) toInput() (models.NewConversionInput, error) {
	dateOccurred, err := time.Parse("2006-01-02", r.DateOccurred)
	if err != nil {
		return models.NewConversionInput{}, err
	}
	commission, err := decimal.NewFromString(r.Commission)
	if err != nil {
		return models.NewConversionInput{}, err
	}
	cpa, err := decimal.NewFromString(r.CPA)
	if err != nil {
		return models.NewConversionInput{}, err
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return models.NewConversionInput{}, err
	}
	minBetSize := decimal.Zero
	if r.MinBetSize != "" {
		minBetSize, err = decimal.NewFromString(r.MinBetSize)
		if err != nil {
			return models.NewConversionInput{}, err
		}
	}
	return models.NewConversionInput{
		Type:         r.Type,
		DateOccurred: dateOccurred,
		Link: models.AffiliateLinkSnapshot{
			ClientID:   r.ClientID,
			ClientName: r.ClientName,
			LinkType:   r.LinkType,
			Commission: models.NewMoneyFromDecimal(commission),
			MinBetSize: models.NewMoneyFromDecimal(minBetSize),
			CPA:        models.NewMoneyFromDecimal(cpa),
			Currency:   r.Currency,
		},
		Customer: r.Customer,
		Amount:   models.NewMoneyFromDecimal(amount),
		Currency: r.Currency,
	}, nil
}

// SubmitBatchRequest 批量提交请求
type SubmitBatchRequest struct {
	Conversions []SubmitConversionRequest `json:"conversions" binding:"required"`
}

// SubmitAgentConversions 代理批量提交转化，整批校验月度上限
func (h *Handler) SubmitAgentConversions(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	user, err := h.UserService.GetByID(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "agent fetch failed", err)
		return
	}
	if user.CompensationGroupID == nil {
		respondError(c, response.CodeBadRequest, "agent has no compensation group", nil)
		return
	}

	var req SubmitBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	inputs := make([]models.NewConversionInput, 0, len(req.Conversions))
	for _, conversionReq := range req.Conversions {
		input, err := conversionReq.toInput()
		if err != nil {
			respondError(c, response.CodeBadRequest, "conversion row invalid", err)
			return
		}
		inputs = append(inputs, input)
	}

	created, err := h.ConversionService.BulkSubmit(userID, *user.CompensationGroupID, inputs)
	if err != nil {
		respondWithMappedError(c, err, submitErrorRules, response.CodeInternal, "submit failed")
		return
	}
	response.Success(c, created)
}

// GetAgentConversions 查询当前代理的转化列表
func (h *Handler) GetAgentConversions(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	conversions, total, err := h.ConversionService.List(repository.ConversionListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Status:   c.Query("status"),
		Type:     c.Query("type"),
	})
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

// ClaimRequest 认领请求
type ClaimRequest struct {
	AssignmentCode string `json:"assignment_code" binding:"required"`
}

// ClaimAgentConversions 用归属码认领整批待认领转化
func (h *Handler) ClaimAgentConversions(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	claimed, err := h.ConversionService.Claim(req.AssignmentCode, userID)
	if err != nil {
		respondWithMappedError(c, err, claimErrorRules, response.CodeInternal, "claim failed")
		return
	}
	response.Success(c, gin.H{
		"claimed":     claimed,
		"claim_count": len(claimed),
	})
}

// CheckAgentAssignmentCode 查询归属码是否仍可认领
func (h *Handler) CheckAgentAssignmentCode(c *gin.Context) {
	code := c.Param("code")
	valid, err := h.ConversionService.IsAssignmentCodeValid(code)
	if err != nil {
		respondError(c, response.CodeInternal, "assignment code check failed", err)
		return
	}
	response.Success(c, gin.H{"valid": valid})
}

// GetAgentDashboard 当前代理的时间范围报表
func (h *Handler) GetAgentDashboard(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	timeframe := c.DefaultQuery("timeframe", "last_month")

	report, err := h.ReportService.AgentDashboard(userID, timeframe, time.Now())
	if err != nil {
		respondError(c, response.CodeBadRequest, "unknown timeframe", nil)
		return
	}
	response.Success(c, report)
}

// GetAgentPayouts 查询当前代理的结算批次
func (h *Handler) GetAgentPayouts(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	payouts, total, err := h.PayoutService.List(repository.PayoutListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
	})
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
