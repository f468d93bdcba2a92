package admin

import (
	"errors"
	"strconv"

	"github.com/firesales-next/internal/http/response"
	"github.com/firesales-next/internal/repository"
	"github.com/firesales-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAdminAgents 获取代理列表 (Admin)
func (h *Handler) GetAdminAgents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	groupID, _ := strconv.ParseUint(c.Query("group_id"), 10, 64)

	users, total, err := h.UserService.List(repository.UserListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
		GroupID:  uint(groupID),
		Search:   c.Query("search"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "agent fetch failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, users, pagination)
}

// CreateAgentRequest 创建代理请求
type CreateAgentRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

// CreateAdminAgent 创建代理账号 (Admin)
func (h *Handler) CreateAdminAgent(c *gin.Context) {
	var req CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	user, err := h.UserService.Create(req.Email, req.Password, req.DisplayName)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			respondError(c, response.CodeBadRequest, "email invalid or taken", nil)
			return
		}
		respondError(c, response.CodeInternal, "agent create failed", err)
		return
	}
	response.Success(c, user)
}

// AssignGroupRequest 划入分成组请求
type AssignGroupRequest struct {
	CompensationGroupID uint `json:"compensation_group_id" binding:"required"`
}

// AssignAdminAgentGroup 把代理划入分成组 (Admin)
func (h *Handler) AssignAdminAgentGroup(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", nil)
		return
	}
	var req AssignGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.UserService.AssignCompensationGroup(uint(id), req.CompensationGroupID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "agent or group not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "agent group assign failed", err)
		return
	}
	response.SuccessWithMsg(c, "group assigned", nil)
}

// UpdateAgentStatusRequest 启停代理请求
type UpdateAgentStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateAdminAgentStatus 启用或停用代理 (Admin)
func (h *Handler) UpdateAdminAgentStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", nil)
		return
	}
	var req UpdateAgentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.UserService.SetStatus(uint(id), req.Status); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "agent not found", nil)
		case errors.Is(err, service.ErrValidation):
			respondError(c, response.CodeBadRequest, "invalid status", nil)
		default:
			respondError(c, response.CodeInternal, "agent update failed", err)
		}
		return
	}
	response.SuccessWithMsg(c, "status updated", nil)
}
