package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rish560/bytejoule.ai-dashboard/api/middleware"
	"github.com/rish560/bytejoule.ai-dashboard/api/model"
	"github.com/rish560/bytejoule.ai-dashboard/internal/services"
)

// SchemaHandler 处理独立模式推断的API请求
type SchemaHandler struct {
	analysisService *services.AnalysisService // 文档分析服务
	logger          *logrus.Logger            // 日志记录器
}

// NewSchemaHandler 创建新的模式处理器
func NewSchemaHandler(analysisService *services.AnalysisService) *SchemaHandler {
	return &SchemaHandler{
		analysisService: analysisService,
		logger:          middleware.GetLogger(),
	}
}

// InferSchema 从原始文本或提示文本推断结构模式
// 既无文本也无提示时返回带error_info的降级模式，HTTP状态码仍为200
// POST /api/schema
func (h *SchemaHandler) InferSchema(c *gin.Context) {
	var req model.SchemaInferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid schema inference request")
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"无效的请求参数",
		))
		return
	}

	schema, err := h.analysisService.InferSchemaFromText(c.Request.Context(), req.Text, req.FileName, req.Prompt)
	if err != nil {
		h.logger.WithError(err).Error("Failed to infer schema")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"模式推断失败",
		))
		return
	}

	h.logger.WithFields(logrus.Fields{
		"schema_name": schema.Name,
		"field_count": len(schema.Fields),
	}).Info("Schema inferred")

	c.JSON(http.StatusOK, model.NewSuccessResponse(schema))
}
