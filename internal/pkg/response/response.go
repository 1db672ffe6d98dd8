package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/lk2023060901/zhi-text-evaluator/internal/pkg/errors"
)

// ErrorBody 错误响应结构
type ErrorBody struct {
	Error string `json:"error"`          // 面向用户的错误信息
	Code  int    `json:"code,omitempty"` // 业务错误码
}

// OK 200 响应，直接输出数据本身
func OK(c *gin.Context, data interface{}) {
	if data == nil {
		data = struct{}{}
	}
	c.JSON(http.StatusOK, data)
}

// Error 指定 HTTP 状态码的错误响应
func Error(c *gin.Context, httpStatus int, message string) {
	c.AbortWithStatusJSON(httpStatus, ErrorBody{Error: message})
}

// BadRequest 400 错误
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// InternalError 500 错误
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// HandleError 统一错误处理（使用 AppError）
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	code := apperrors.ExtractCode(err)
	c.AbortWithStatusJSON(apperrors.GetHTTPStatus(code), ErrorBody{
		Error: apperrors.UserMessage(err),
		Code:  code,
	})
}

// ErrorWithCode 使用错误码的错误响应
func ErrorWithCode(c *gin.Context, code int, details ...string) {
	c.AbortWithStatusJSON(apperrors.GetHTTPStatus(code), ErrorBody{
		Error: apperrors.FormatError(code, details...),
		Code:  code,
	})
}
