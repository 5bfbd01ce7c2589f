package models

import "errors"

var (
	// ErrAnalysisNotFound 分析记录不存在错误
	ErrAnalysisNotFound = errors.New("analysis not found")

	// ErrSchemaNotFound 模式记录不存在错误
	ErrSchemaNotFound = errors.New("schema not found")

	// ErrInvalidAnalysisStatus 无效的分析状态错误
	ErrInvalidAnalysisStatus = errors.New("invalid analysis status")
)
