package admin

import (
	"errors"
	"strconv"
	"time"

	"github.com/firesales-next/internal/constants"
	"github.com/firesales-next/internal/http/response"
	"github.com/firesales-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAdminBusinessDashboard 经营报表：整体指标与分段走势 (Admin)
func (h *Handler) GetAdminBusinessDashboard(c *gin.Context) {
	timeframe := c.DefaultQuery("timeframe", constants.TimeframeLastMonth)

	report, err := h.ReportService.BusinessDashboard(timeframe, time.Now())
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			respondError(c, response.CodeBadRequest, "unknown timeframe", nil)
			return
		}
		respondError(c, response.CodeInternal, "dashboard build failed", err)
		return
	}
	response.Success(c, report)
}

// GetAdminClientDashboard 单客户报表 (Admin)
func (h *Handler) GetAdminClientDashboard(c *gin.Context) {
	clientID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", nil)
		return
	}
	timeframe := c.DefaultQuery("timeframe", constants.TimeframeLastMonth)

	report, err := h.ReportService.ClientDashboard(uint(clientID), timeframe, time.Now())
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			respondError(c, response.CodeBadRequest, "unknown timeframe", nil)
			return
		}
		respondError(c, response.CodeInternal, "dashboard build failed", err)
		return
	}
	response.Success(c, report)
}

// GetAdminAgentDashboard 单代理报表 (Admin)
func (h *Handler) GetAdminAgentDashboard(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", nil)
		return
	}
	timeframe := c.DefaultQuery("timeframe", constants.TimeframeLastMonth)

	report, err := h.ReportService.AgentDashboard(uint(userID), timeframe, time.Now())
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			respondError(c, response.CodeBadRequest, "unknown timeframe", nil)
			return
		}
		respondError(c, response.CodeInternal, "dashboard build failed", err)
		return
	}
	response.Success(c, report)
}
