package model

import (
	"time"

	"github.com/rish560/bytejoule.ai-dashboard/internal/models"
)

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`               // 响应状态码，0表示成功
	Message string      `json:"message"`            // 响应消息
	Data    interface{} `json:"data,omitempty"`     // 响应数据，可能为空
	TraceID string      `json:"trace_id,omitempty"` // 调用链追踪ID
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) *Response {
	return &Response{
		Code:    code,
		Message: message,
	}
}

// AnalysisUploadResponse 文档上传分析响应
type AnalysisUploadResponse struct {
	AnalysisID string `json:"analysis_id"` // 分析记录ID
	FileName   string `json:"filename"`    // 文件名
	Status     string `json:"status"`      // 处理状态: uploaded、processing、completed、failed
}

// AnalysisStatusResponse 分析状态查询响应
type AnalysisStatusResponse struct {
	AnalysisID   string `json:"analysis_id"`             // 分析记录ID
	Status       string `json:"status"`                  // 处理状态
	FileName     string `json:"filename"`                // 文件名
	Progress     int    `json:"progress"`                // 处理进度(0-100)
	DocumentType string `json:"document_type,omitempty"` // 文档类别（完成后）
	Error        string `json:"error,omitempty"`         // 错误信息（如果有）
	FailureCause string `json:"failure_cause,omitempty"` // 失败原因分类（失败后）
	CreatedAt    string `json:"created_at"`              // 创建时间
	UpdatedAt    string `json:"updated_at"`              // 更新时间
}

// AnalysisInfo 分析记录信息
type AnalysisInfo struct {
	AnalysisID   string    `json:"analysis_id"`             // 分析记录ID
	FileName     string    `json:"filename"`                // 文件名
	FileType     string    `json:"file_type"`               // 文件类型
	FileSize     int64     `json:"file_size"`               // 文件大小（字节）
	Status       string    `json:"status"`                  // 处理状态
	DocumentType string    `json:"document_type,omitempty"` // 文档类别
	PageCount    int       `json:"page_count,omitempty"`    // 页数
	Progress     int       `json:"progress"`                // 处理进度
	Tags         string    `json:"tags,omitempty"`          // 标签
	UploadedAt   time.Time `json:"uploaded_at"`             // 上传时间
}

// AnalysisListResponse 分析记录列表响应
type AnalysisListResponse struct {
	Total    int64          `json:"total"`     // 总数量
	Page     int            `json:"page"`      // 当前页码
	PageSize int            `json:"page_size"` // 每页大小
	Analyses []AnalysisInfo `json:"analyses"`  // 分析记录列表
}

// AnalysisDeleteResponse 分析记录删除响应
type AnalysisDeleteResponse struct {
	Success    bool   `json:"success"`     // 是否成功
	AnalysisID string `json:"analysis_id"` // 分析记录ID
}

// ConvertToAnalysisInfo 将数据库记录转换为列表响应条目
func ConvertToAnalysisInfo(records []*models.Analysis) []AnalysisInfo {
	if len(records) == 0 {
		return []AnalysisInfo{}
	}

	infos := make([]AnalysisInfo, len(records))
	for i, record := range records {
		infos[i] = AnalysisInfo{
			AnalysisID:   record.ID,
			FileName:     record.FileName,
			FileType:     record.FileType,
			FileSize:     record.FileSize,
			Status:       string(record.Status),
			DocumentType: record.DocumentType,
			PageCount:    record.PageCount,
			Progress:     record.Progress,
			Tags:         record.Tags,
			UploadedAt:   record.UploadedAt,
		}
	}
	return infos
}
