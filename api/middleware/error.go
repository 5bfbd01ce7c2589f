package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rish560/bytejoule.ai-dashboard/api/model"
)

// 错误分类常量，写入错误日志的error_type字段
const (
	ErrorTypeValidation   = "VALIDATION_ERROR"   // 输入验证错误
	ErrorTypeUnauthorized = "UNAUTHORIZED_ERROR" // 未授权错误
	ErrorTypeForbidden    = "FORBIDDEN_ERROR"    // 禁止访问错误
	ErrorTypeNotFound     = "NOT_FOUND_ERROR"    // 资源不存在错误
	ErrorTypeInternal     = "INTERNAL_ERROR"     // 内部服务器错误
	ErrorTypeBusiness     = "BUSINESS_ERROR"     // 业务逻辑错误
)

// AppError 带HTTP状态码的应用错误
// 处理器通过c.Error交给错误中间件统一转换为响应
type AppError struct {
	Type    string // 错误分类
	Message string // 返回给客户端的错误消息
	Details string // 详细错误信息，仅用于日志
	Code    int    // HTTP状态码
}

// Error 实现error接口
func (e AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// NewValidationError 创建输入验证错误
func NewValidationError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusBadRequest,
	}
}

// NewUnauthorizedError 创建未授权错误
func NewUnauthorizedError(message string) AppError {
	return AppError{
		Type:    ErrorTypeUnauthorized,
		Message: message,
		Code:    http.StatusUnauthorized,
	}
}

// NewForbiddenError 创建禁止访问错误
func NewForbiddenError(message string) AppError {
	return AppError{
		Type:    ErrorTypeForbidden,
		Message: message,
		Code:    http.StatusForbidden,
	}
}

// NewNotFoundError 创建资源不存在错误
func NewNotFoundError(message string) AppError {
	return AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
		Code:    http.StatusNotFound,
	}
}

// NewInternalError 创建内部服务器错误
func NewInternalError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusInternalServerError,
	}
}

// NewBusinessError 创建业务逻辑错误
func NewBusinessError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeBusiness,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusBadRequest,
	}
}

// ErrorMiddleware 统一错误处理中间件
// 捕获panic并把c.Errors中的错误转换为带trace_id的JSON响应
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				stack := string(debug.Stack())

				log.WithFields(logrus.Fields{
					"error": err,
					"stack": stack,
					"path":  c.Request.URL.Path,
				}).Error("Panic recovered in API request")

				errorResponse := model.NewErrorResponse(
					http.StatusInternalServerError,
					"An unexpected error occurred",
				)

				// 调试模式下返回panic详情
				if gin.Mode() == gin.DebugMode {
					errorResponse.Message = fmt.Sprintf("Panic: %v", err)
				}

				if traceID, exists := c.Get("TraceID"); exists {
					errorResponse.TraceID = traceID.(string)
				}

				c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse)
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		// 只处理最后一个错误
		err := c.Errors.Last().Err

		traceID := ""
		if traceIDValue, exists := c.Get("TraceID"); exists {
			traceID = traceIDValue.(string)
		}

		switch e := err.(type) {
		case AppError:
			respondAppError(c, e, traceID)
		case *AppError:
			respondAppError(c, *e, traceID)
		default:
			// 未分类错误一律按内部错误处理
			log.WithFields(logrus.Fields{
				"trace_id": traceID,
				"path":     c.Request.URL.Path,
			}).Error(err.Error())

			errResp := model.NewErrorResponse(
				http.StatusInternalServerError,
				"Internal server error",
			)
			errResp.TraceID = traceID

			if gin.Mode() == gin.DebugMode {
				errResp.Message = err.Error()
			}

			c.JSON(http.StatusInternalServerError, errResp)
		}

		c.Abort()
	}
}

// respondAppError 记录应用错误并按其状态码返回响应
func respondAppError(c *gin.Context, e AppError, traceID string) {
	log.WithFields(logrus.Fields{
		"error_type": e.Type,
		"trace_id":   traceID,
		"path":       c.Request.URL.Path,
	}).Error(e.Message)

	errResp := model.NewErrorResponse(e.Code, e.Message)
	errResp.TraceID = traceID

	c.JSON(e.Code, errResp)
}

// HandleError 处理器中登记错误的辅助函数
func HandleError(c *gin.Context, err error) {
	_ = c.Error(err)
}
