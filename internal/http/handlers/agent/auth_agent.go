package agent

import (
	"errors"

	"github.com/firesales-next/internal/http/response"
	"github.com/firesales-next/internal/service"

	"github.com/gin-gonic/gin"
)

// LoginRequest 代理登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 代理登录响应
type LoginResponse struct {
	Token     string                 `json:"token"`
	User      map[string]interface{} `json:"user"`
	ExpiresAt string                 `json:"expires_at"`
}

// AgentLogin 代理登录
func (h *Handler) AgentLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	user, token, expiresAt, err := h.AgentAuthService.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, response.CodeUnauthorized, "invalid credentials", nil)
		case errors.Is(err, service.ErrAccountDisabled):
			respondError(c, response.CodeForbidden, "account disabled", nil)
		case errors.Is(err, service.ErrTooManyLoginAttempts):
			respondError(c, response.CodeTooManyRequests, "too many attempts, try later", nil)
		case errors.Is(err, service.ErrValidation):
			respondError(c, response.CodeBadRequest, "email invalid", nil)
		default:
			respondError(c, response.CodeInternal, "login failed", err)
		}
		return
	}

	response.Success(c, LoginResponse{
		Token: token,
		User: map[string]interface{}{
			"id":           user.ID,
			"email":        user.Email,
			"display_name": user.DisplayName,
		},
		ExpiresAt: expiresAt.Format("2006-01-02 15:04:05"),
	})
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// AgentChangePassword 代理修改密码
func (h *Handler) AgentChangePassword(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.AgentAuthService.ChangePassword(userID, req.OldPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPassword):
			respondError(c, response.CodeBadRequest, "old password incorrect", nil)
		case errors.Is(err, service.ErrWeakPassword):
			respondError(c, response.CodeBadRequest, "password does not meet policy", nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "agent not found", nil)
		default:
			respondError(c, response.CodeInternal, "change password failed", err)
		}
		return
	}
	response.SuccessWithMsg(c, "password changed", nil)
}

// GetAgentProfile 获取当前代理信息
func (h *Handler) GetAgentProfile(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	user, err := h.UserService.GetByID(userID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "agent not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "profile fetch failed", err)
		return
	}
	response.Success(c, user)
}

// UpdatePaymentInfoRequest 更新收款信息请求
type UpdatePaymentInfoRequest struct {
	PaymentMethod  string `json:"payment_method" binding:"required"`
	PaymentAddress string `json:"payment_address" binding:"required"`
}

// UpdateAgentPaymentInfo 更新当前代理收款信息
func (h *Handler) UpdateAgentPaymentInfo(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req UpdatePaymentInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.UserService.UpdatePaymentInfo(userID, req.PaymentMethod, req.PaymentAddress); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "agent not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "payment info update failed", err)
		return
	}
	response.SuccessWithMsg(c, "payment info updated", nil)
}
