package handler

import (
	"errors"
	"net/http"

	"github.com/blues/fss/internal/ledger"
	"github.com/blues/fss/internal/settlement"
	"github.com/blues/fss/internal/signing"
	"github.com/gin-gonic/gin"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// FailWithError 按错误类型映射HTTP状态码
func FailWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrRecordNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrStoreUninitialized):
		ErrorResponse(c, http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, ledger.ErrAlreadyVoted), errors.Is(err, ledger.ErrRecordClaimed), errors.Is(err, ledger.ErrUpdateConflict):
		ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, signing.ErrSignerUnavailable):
		ErrorResponse(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, signing.ErrSigningRejected):
		ErrorResponse(c, http.StatusForbidden, err.Error())
	case errors.Is(err, settlement.ErrTransactionFailed):
		ErrorResponse(c, http.StatusBadGateway, err.Error())
	default:
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
	}
}
