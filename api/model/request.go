package model

import (
	"mime/multipart"
	"time"
)

// 分页请求参数
type PaginationRequest struct {
	Page     int `form:"page" json:"page" binding:"omitempty,min=1"`           // 当前页码，从1开始
	PageSize int `form:"page_size" json:"page_size" binding:"omitempty,min=1"` // 每页记录数
}

// GetPage 获取页码，默认为1
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页记录数，默认为10，最大为100
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 10
	}
	if p.PageSize > 100 {
		return 100
	}
	return p.PageSize
}

// AnalysisUploadRequest 文档上传分析请求
type AnalysisUploadRequest struct {
	File *multipart.FileHeader `form:"file" binding:"required"`              // 文件对象
	Tags string                `form:"tags" json:"tags" binding:"omitempty"` // 文档标签，逗号分隔
}

// AnalysisIDRequest 按ID查询分析记录请求
type AnalysisIDRequest struct {
	ID string `uri:"id" binding:"required"` // 分析记录ID
}

// AnalysisListRequest 分析记录列表请求
type AnalysisListRequest struct {
	PaginationRequest
	StartTime    *time.Time `form:"start_time" json:"start_time" binding:"omitempty"`       // 开始时间
	EndTime      *time.Time `form:"end_time" json:"end_time" binding:"omitempty"`           // 结束时间
	Status       string     `form:"status" json:"status" binding:"omitempty,analysisstatus"` // 处理状态
	DocumentType string     `form:"document_type" json:"document_type" binding:"omitempty"` // 文档类别
	Tags         string     `form:"tags" json:"tags" binding:"omitempty"`                   // 标签过滤
	FileName     string     `form:"file_name" json:"file_name" binding:"omitempty"`         // 文件名模糊匹配
}

// AnalysisExportRequest 分析结果导出请求
type AnalysisExportRequest struct {
	Format string `form:"format" json:"format" binding:"omitempty,exportformat"` // 导出格式: json或csv，默认json
}

// AnalysisTagsRequest 更新分析记录标签请求
type AnalysisTagsRequest struct {
	Tags string `json:"tags"` // 新的标签，逗号分隔
}

// SchemaInferRequest 模式推断请求
// Text和Prompt至少提供一个，两者都缺失时返回降级模式
type SchemaInferRequest struct {
	Text     string `json:"text" binding:"omitempty"`      // 原始文档文本
	FileName string `json:"file_name" binding:"omitempty"` // 来源文件名（可选，影响模式命名）
	Prompt   string `json:"prompt" binding:"omitempty"`    // 自然语言结构描述
}
