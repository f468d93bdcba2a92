package admin

import (
	"errors"
	"strconv"
	"time"

	"github.com/firesales-next/internal/http/response"
	"github.com/firesales-next/internal/models"
	"github.com/firesales-next/internal/repository"
	"github.com/firesales-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// DealRequest 合作条款请求体
type DealRequest struct {
	LinkType                 string   `json:"link_type"`
	CPA                      string   `json:"cpa" binding:"required"`
	Currency                 string   `json:"currency"`
	TargetBetSize            *string  `json:"target_bet_size"`
	TargetMonthlyConversions *int     `json:"target_monthly_conversions"`
	Enabled                  *bool    `json:"enabled"`
}

func (r DealRequest) toModel() (models.AffiliateDeal, error) {
	cpa, err := decimal.NewFromString(r.CPA)
	if err != nil {
		return models.AffiliateDeal{}, err
	}
	deal := models.AffiliateDeal{
		LinkType: r.LinkType,
		CPA:      models.NewMoneyFromDecimal(cpa),
		Currency: r.Currency,
		Enabled:  true,
	}
	if r.Enabled != nil {
		deal.Enabled = *r.Enabled
	}
	if r.TargetBetSize != nil {
		target, err := decimal.NewFromString(*r.TargetBetSize)
		if err != nil {
			return models.AffiliateDeal{}, err
		}
		money := models.NewMoneyFromDecimal(target)
		deal.TargetBetSize = &money
	}
	deal.TargetMonthlyConversions = r.TargetMonthlyConversions
	return deal, nil
}

// CreateClientRequest 创建客户请求
type CreateClientRequest struct {
	Name  string        `json:"name" binding:"required"`
	Deals []DealRequest `json:"deals"`
}

// GetAdminClients 获取客户列表 (Admin)
func (h *Handler) GetAdminClients(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	clients, total, err := h.ClientService.List(repository.ClientListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
		Search:   c.Query("search"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "client fetch failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, clients, pagination)
}

// GetAdminClient 获取客户详情 (Admin)
func (h *Handler) GetAdminClient(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", nil)
		return
	}

	client, err := h.ClientService.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "client not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "client fetch failed", err)
		return
	}
	response.Success(c, client)
}

// CreateAdminClient 创建客户 (Admin)
func (h *Handler) CreateAdminClient(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	deals := make([]models.AffiliateDeal, 0, len(req.Deals))
	for _, dealReq := range req.Deals {
		deal, err := dealReq.toModel()
		if err != nil {
			respondError(c, response.CodeBadRequest, "deal amount invalid", err)
			return
		}
		deals = append(deals, deal)
	}

	client, err := h.ClientService.Create(req.Name, deals)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			respondError(c, response.CodeBadRequest, "invalid input", nil)
			return
		}
		respondError(c, response.CodeInternal, "client create failed", err)
		return
	}
	response.Success(c, client)
}

// UpdateClientStatusRequest 启停客户请求
type UpdateClientStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateAdminClientStatus 启用或停用客户 (Admin)
func (h *Handler) UpdateAdminClientStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", nil)
		return
	}
	var req UpdateClientStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.ClientService.SetStatus(uint(id), req.Status); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "client not found", nil)
		case errors.Is(err, service.ErrValidation):
			respondError(c, response.CodeBadRequest, "invalid status", nil)
		default:
			respondError(c, response.CodeInternal, "client update failed", err)
		}
		return
	}
	response.SuccessWithMsg(c, "status updated", nil)
}

// AppendClientVersionRequest 追加条款快照请求
type AppendClientVersionRequest struct {
	EffectiveAt *time.Time    `json:"effective_at"`
	Deals       []DealRequest `json:"deals" binding:"required"`
}

// AppendAdminClientVersion 追加客户条款快照 (Admin)
func (h *Handler) AppendAdminClientVersion(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", nil)
		return
	}
	var req AppendClientVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	deals := make([]models.AffiliateDeal, 0, len(req.Deals))
	for _, dealReq := range req.Deals {
		deal, err := dealReq.toModel()
		if err != nil {
			respondError(c, response.CodeBadRequest, "deal amount invalid", err)
			return
		}
		deals = append(deals, deal)
	}

	effectiveAt := time.Now()
	if req.EffectiveAt != nil {
		effectiveAt = *req.EffectiveAt
	}

	version, err := h.ClientService.AppendVersion(uint(id), deals, effectiveAt)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "client not found", nil)
		case errors.Is(err, service.ErrValidation):
			respondError(c, response.CodeBadRequest, "invalid input", nil)
		default:
			respondError(c, response.CodeInternal, "client version append failed", err)
		}
		return
	}
	response.Success(c, version)
}

// GetAdminClientVersionAt 查询某时刻生效的条款快照 (Admin)
func (h *Handler) GetAdminClientVersionAt(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", nil)
		return
	}

	at := time.Now()
	if raw := c.Query("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "invalid timestamp", nil)
			return
		}
		at = parsed
	}

	version, err := h.ClientService.VersionAt(uint(id), at)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "no version effective at that time", nil)
			return
		}
		respondError(c, response.CodeInternal, "client version fetch failed", err)
		return
	}
	response.Success(c, version)
}
