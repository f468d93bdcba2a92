package admin

import (
	"errors"
	"strconv"
	"time"

	"github.com/firesales-next/internal/http/response"
	"github.com/firesales-next/internal/models"
	"github.com/firesales-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AffiliateLinkRequest 推广链接请求体
type AffiliateLinkRequest struct {
	ClientID     uint   `json:"client_id" binding:"required"`
	LinkType     string `json:"link_type"`
	Commission   string `json:"commission" binding:"required"`
	MinBetSize   string `json:"min_bet_size"`
	CPA          string `json:"cpa" binding:"required"`
	MonthlyLimit *int   `json:"monthly_limit"`
	Enabled      *bool  `json:"enabled"`
}

func (r AffiliateLinkRequest) toModel() (models.AffiliateLink, error) {
	commission, err := decimal.NewFromString(r.Commission)
	if err != nil {
		return models.AffiliateLink{}, err
	}
	cpa, err := decimal.NewFromString(r.CPA)
	if err != nil {
		return models.AffiliateLink{}, err
	}
	minBetSize := decimal.Zero
	if r.MinBetSize != "" {
		minBetSize, err = decimal.NewFromString(r.MinBetSize)
		if err != nil {
			return models.AffiliateLink{}, err
		}
	}
	link := models.AffiliateLink{
		ClientID:     r.ClientID,
		LinkType:     r.LinkType,
		Commission:   models.NewMoneyFromDecimal(commission),
		MinBetSize:   models.NewMoneyFromDecimal(minBetSize),
		CPA:          models.NewMoneyFromDecimal(cpa),
		MonthlyLimit: r.MonthlyLimit,
		Enabled:      true,
	}
	if r.Enabled != nil {
		link.Enabled = *r.Enabled
	}
	return link, nil
}

// RetentionIncentiveRequest 留存激励请求体
type RetentionIncentiveRequest struct {
	ClientID     uint   `json:"client_id" binding:"required"`
	Amount       string `json:"amount" binding:"required"`
	MonthlyLimit int    `json:"monthly_limit" binding:"required"`
}

func (r RetentionIncentiveRequest) toModel() (models.RetentionIncentive, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return models.RetentionIncentive{}, err
	}
	return models.RetentionIncentive{
		ClientID:     r.ClientID,
		Amount:       models.NewMoneyFromDecimal(amount),
		MonthlyLimit: r.MonthlyLimit,
	}, nil
}

// GetAdminGroups 获取分成组列表 (Admin)
func (h *Handler) GetAdminGroups(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	groups, total, err := h.GroupService.List(page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "group fetch failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, groups, pagination)
}

// CreateGroupRequest 创建分成组请求
type CreateGroupRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateAdminGroup 创建分成组 (Admin)
func (h *Handler) CreateAdminGroup(c *gin.Context) {
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	group, err := h.GroupService.Create(req.Name)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			respondError(c, response.CodeBadRequest, "invalid input", nil)
			return
		}
		respondError(c, response.CodeInternal, "group create failed", err)
		return
	}
	response.Success(c, group)
}

// AppendGroupVersionRequest 追加分成组配置快照请求
type AppendGroupVersionRequest struct {
	EffectiveAt *time.Time                  `json:"effective_at"`
	Links       []AffiliateLinkRequest      `json:"links"`
	Incentives  []RetentionIncentiveRequest `json:"incentives"`
}

// AppendAdminGroupVersion 追加分成组配置快照 (Admin)
func (h *Handler) AppendAdminGroupVersion(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", nil)
		return
	}
	var req AppendGroupVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	links := make([]models.AffiliateLink, 0, len(req.Links))
	for _, linkReq := range req.Links {
		link, err := linkReq.toModel()
		if err != nil {
			respondError(c, response.CodeBadRequest, "link amount invalid", err)
			return
		}
		links = append(links, link)
	}
	incentives := make([]models.RetentionIncentive, 0, len(req.Incentives))
	for _, incentiveReq := range req.Incentives {
		incentive, err := incentiveReq.toModel()
		if err != nil {
			respondError(c, response.CodeBadRequest, "incentive amount invalid", err)
			return
		}
		incentives = append(incentives, incentive)
	}

	effectiveAt := time.Now()
	if req.EffectiveAt != nil {
		effectiveAt = *req.EffectiveAt
	}

	version, err := h.GroupService.AppendVersion(uint(id), links, incentives, effectiveAt)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "group not found", nil)
		case errors.Is(err, service.ErrValidation):
			respondError(c, response.CodeBadRequest, "invalid input", nil)
		default:
			respondError(c, response.CodeInternal, "group version append failed", err)
		}
		return
	}
	response.Success(c, version)
}

// GetAdminGroupVersionAt 查询某时刻生效的分成组配置 (Admin)
func (h *Handler) GetAdminGroupVersionAt(c *gin.Context) {
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

	version, err := h.GroupService.VersionAt(uint(id), at)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "no version effective at that time", nil)
			return
		}
		respondError(c, response.CodeInternal, "group version fetch failed", err)
		return
	}
	response.Success(c, version)
}

// IssueAssignmentCodeRequest 签发归属码请求
type IssueAssignmentCodeRequest struct {
	CompensationGroupID uint `json:"compensation_group_id" binding:"required"`
}

// IssueAdminAssignmentCode 为分成组签发归属码 (Admin)
func (h *Handler) IssueAdminAssignmentCode(c *gin.Context) {
	var req IssueAssignmentCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	code, err := h.ConversionService.IssueAssignmentCode(req.CompensationGroupID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "group not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "assignment code issue failed", err)
		return
	}
	response.Success(c, code)
}
