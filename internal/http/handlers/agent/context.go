package agent

import (
	"errors"

	handlershared "github.com/firesales-next/internal/http/handlers/shared"
	"github.com/firesales-next/internal/http/response"
	"github.com/firesales-next/internal/service"

	"github.com/gin-gonic/gin"
)

func getContextUintWithKeys(c *gin.Context, key, invalidMsg, typeInvalidMsg string) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, key, invalidMsg, typeInvalidMsg)
}

func getUserID(c *gin.Context) (uint, bool) {
	return getContextUintWithKeys(c, "user_id", "user id invalid", "user id type invalid")
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func normalizePagination(page, pageSize int) (int, int) {
	return handlershared.NormalizePagination(page, pageSize)
}

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var claimErrorRules = []mappedHandlerError{
	{target: service.ErrAssignmentCodeNotFound, code: response.CodeNotFound, msg: "assignment code not found"},
	{target: service.ErrAssignmentCodeUsed, code: response.CodeConflict, msg: "assignment code already used"},
	{target: service.ErrEmptyBatch, code: response.CodeBadRequest, msg: "no conversions under this code"},
	{target: service.ErrCapExceeded, code: response.CodeBadRequest, msg: "monthly cap exceeded"},
	{target: service.ErrDuplicateConversion, code: response.CodeConflict, msg: "conversion already recorded"},
}

var submitErrorRules = []mappedHandlerError{
	{target: service.ErrEmptyBatch, code: response.CodeBadRequest, msg: "batch is empty"},
	{target: service.ErrCapExceeded, code: response.CodeBadRequest, msg: "monthly cap exceeded"},
	{target: service.ErrDuplicateConversion, code: response.CodeConflict, msg: "conversion already recorded"},
	{target: service.ErrValidation, code: response.CodeBadRequest, msg: "invalid input"},
}
