package handler

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rish560/bytejoule.ai-dashboard/api/middleware"
	"github.com/rish560/bytejoule.ai-dashboard/api/model"
	"github.com/rish560/bytejoule.ai-dashboard/internal/export"
	"github.com/rish560/bytejoule.ai-dashboard/internal/models"
	"github.com/rish560/bytejoule.ai-dashboard/internal/services"
	"github.com/rish560/bytejoule.ai-dashboard/pkg/storage"
)

// AnalysisHandler 处理文档分析相关的API请求
type AnalysisHandler struct {
	analysisService *services.AnalysisService // 文档分析服务
	fileStorage     storage.Storage           // 文件存储服务
	logger          *logrus.Logger            // 日志记录器
}

// NewAnalysisHandler 创建新的分析处理器
func NewAnalysisHandler(analysisService *services.AnalysisService, fileStorage storage.Storage) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
		fileStorage:     fileStorage,
		logger:          middleware.GetLogger(),
	}
}

// UploadDocument 处理文档上传分析请求
// POST /api/documents
func (h *AnalysisHandler) UploadDocument(c *gin.Context) {
	// 绑定请求参数
	var req model.AnalysisUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid document upload request")
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"无效的请求参数",
		))
		return
	}

	// 检查文件类型
	filename := req.File.Filename
	if !isValidFileType(filepath.Ext(filename)) {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"不支持的文件类型，仅支持 .pdf, .md, .markdown, .txt",
		))
		return
	}

	// 打开上传的文件
	file, err := req.File.Open()
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":    err.Error(),
			"filename": filename,
		}).Error("Failed to open uploaded file")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"无法打开上传的文件",
		))
		return
	}
	defer file.Close()

	// 保存文件到存储
	fileInfo, err := h.fileStorage.Save(file, filename)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":    err.Error(),
			"filename": filename,
		}).Error("Failed to save file")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"保存文件失败",
		))
		return
	}

	// 创建分析记录
	analysisID, err := h.analysisService.UploadDocument(c.Request.Context(), fileInfo)
	if err != nil {
		h.logger.WithError(err).Error("Failed to create analysis record")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"创建分析记录失败",
		))
		return
	}

	// 记录标签
	if req.Tags != "" {
		if err := h.analysisService.UpdateAnalysisTags(c.Request.Context(), analysisID, req.Tags); err != nil {
			h.logger.WithError(err).Warn("Failed to set analysis tags")
		}
	}

	h.logger.WithFields(logrus.Fields{
		"analysis_id": analysisID,
		"filename":    fileInfo.Name,
		"size":        fileInfo.Size,
	}).Info("File uploaded, starting analysis")

	// 后台执行分析，降级处理在服务层完成
	go func() {
		ctx := context.Background()
		if err := h.analysisService.AnalyzeDocument(ctx, analysisID, fileInfo.Path); err != nil {
			h.logger.WithFields(logrus.Fields{
				"error":       err.Error(),
				"analysis_id": analysisID,
			}).Error("Failed to analyze document")
		}
	}()

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.AnalysisUploadResponse{
		AnalysisID: analysisID,
		FileName:   filename,
		Status:     string(models.StatusProcessing),
	}))
}

// GetAnalysis 获取分析记录详情
// GET /api/documents/:id
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	var req model.AnalysisIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的分析记录ID"))
		return
	}

	info, err := h.analysisService.GetAnalysisInfo(c.Request.Context(), req.ID)
	if err != nil {
		h.logger.WithError(err).WithField("analysis_id", req.ID).Warn("Failed to get analysis info")
		c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到分析记录"))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(info))
}

// GetAnalysisStatus 获取分析处理状态
// GET /api/documents/:id/status
func (h *AnalysisHandler) GetAnalysisStatus(c *gin.Context) {
	var req model.AnalysisIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的分析记录ID"))
		return
	}

	record, err := h.analysisService.GetStatusManager().GetAnalysis(c.Request.Context(), req.ID)
	if err != nil {
		h.logger.WithError(err).WithField("analysis_id", req.ID).Warn("Failed to get analysis status")
		c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到分析记录"))
		return
	}

	resp := model.AnalysisStatusResponse{
		AnalysisID:   record.ID,
		Status:       string(record.Status),
		FileName:     record.FileName,
		Progress:     record.Progress,
		DocumentType: record.DocumentType,
		Error:        record.Error,
		FailureCause: record.FailureCause,
		CreatedAt:    record.UploadedAt.Format(time.RFC3339),
		UpdatedAt:    record.UpdatedAt.Format(time.RFC3339),
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// ListAnalyses 获取分析记录列表
// GET /api/documents
func (h *AnalysisHandler) ListAnalyses(c *gin.Context) {
	var req model.AnalysisListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的查询参数"))
		return
	}

	// 构建过滤条件
	filters := make(map[string]interface{})
	if req.Status != "" {
		filters["status"] = req.Status
	}
	if req.DocumentType != "" {
		filters["document_type"] = req.DocumentType
	}
	if req.Tags != "" {
		filters["tags"] = req.Tags
	}
	if req.FileName != "" {
		filters["file_name"] = req.FileName
	}
	if req.StartTime != nil {
		filters["start_time"] = req.StartTime.Format(time.RFC3339)
	}
	if req.EndTime != nil {
		filters["end_time"] = req.EndTime.Format(time.RFC3339)
	}

	offset := (req.GetPage() - 1) * req.GetPageSize()
	records, total, err := h.analysisService.ListAnalyses(c.Request.Context(), offset, req.GetPageSize(), filters)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list analyses")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取分析记录列表失败",
		))
		return
	}

	resp := model.AnalysisListResponse{
		Total:    total,
		Page:     req.GetPage(),
		PageSize: req.GetPageSize(),
		Analyses: model.ConvertToAnalysisInfo(records),
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// DeleteAnalysis 删除分析记录
// DELETE /api/documents/:id
func (h *AnalysisHandler) DeleteAnalysis(c *gin.Context) {
	var req model.AnalysisIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的分析记录ID"))
		return
	}

	if err := h.analysisService.DeleteAnalysis(c.Request.Context(), req.ID); err != nil {
		h.logger.WithError(err).WithField("analysis_id", req.ID).Error("Failed to delete analysis")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"删除分析记录失败",
		))
		return
	}

	h.logger.WithField("analysis_id", req.ID).Info("Analysis deleted successfully")

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.AnalysisDeleteResponse{
		Success:    true,
		AnalysisID: req.ID,
	}))
}

// GetResult 获取字段提取结果
// GET /api/documents/:id/result
func (h *AnalysisHandler) GetResult(c *gin.Context) {
	var req model.AnalysisIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的分析记录ID"))
		return
	}

	result, err := h.analysisService.GetResult(c.Request.Context(), req.ID)
	if err != nil {
		h.respondResultError(c, req.ID, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(result))
}

// GetSchema 获取推断出的结构模式
// GET /api/documents/:id/schema
func (h *AnalysisHandler) GetSchema(c *gin.Context) {
	var req model.AnalysisIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的分析记录ID"))
		return
	}

	schema, err := h.analysisService.GetSchema(c.Request.Context(), req.ID)
	if err != nil {
		h.respondResultError(c, req.ID, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(schema))
}

// ExportResult 导出字段提取结果
// GET /api/documents/:id/export?format=json|csv
func (h *AnalysisHandler) ExportResult(c *gin.Context) {
	var req model.AnalysisIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的分析记录ID"))
		return
	}

	var exportReq model.AnalysisExportRequest
	if err := c.ShouldBindQuery(&exportReq); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的查询参数"))
		return
	}

	format, err := export.ParseFormat(exportReq.Format)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"不支持的导出格式，仅支持 json 和 csv",
		))
		return
	}

	data, fileName, err := h.analysisService.ExportResult(c.Request.Context(), req.ID, format)
	if err != nil {
		h.respondResultError(c, req.ID, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Data(http.StatusOK, format.ContentType(), data)
}

// UpdateTags 更新分析记录标签
// PUT /api/documents/:id/tags
func (h *AnalysisHandler) UpdateTags(c *gin.Context) {
	var req model.AnalysisIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的分析记录ID"))
		return
	}

	var tagsReq model.AnalysisTagsRequest
	if err := c.ShouldBindJSON(&tagsReq); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的请求参数"))
		return
	}

	if err := h.analysisService.UpdateAnalysisTags(c.Request.Context(), req.ID, tagsReq.Tags); err != nil {
		if errors.Is(err, models.ErrAnalysisNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到分析记录"))
			return
		}
		h.logger.WithError(err).WithField("analysis_id", req.ID).Error("Failed to update analysis tags")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"更新标签失败",
		))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(gin.H{
		"analysis_id": req.ID,
		"tags":        tagsReq.Tags,
	}))
}

// respondResultError 结果类接口的统一错误响应
func (h *AnalysisHandler) respondResultError(c *gin.Context, id string, err error) {
	switch {
	case errors.Is(err, models.ErrAnalysisNotFound):
		c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到分析记录"))
	case errors.Is(err, services.ErrAnalysisNotReady):
		c.JSON(http.StatusConflict, model.NewErrorResponse(http.StatusConflict, "分析尚未完成"))
	default:
		h.logger.WithError(err).WithField("analysis_id", id).Error("Failed to get analysis result")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"获取分析结果失败",
		))
	}
}

// isValidFileType 检查文件类型是否有效
func isValidFileType(ext string) bool {
	validTypes := map[string]bool{
		".pdf":      true,
		".md":       true,
		".markdown": true,
		".txt":      true,
	}
	return validTypes[ext]
}
