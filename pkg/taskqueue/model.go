package taskqueue

import (
	"encoding/json"
	"time"
)

// TaskType 任务类型
type TaskType string

const (
	// TaskDocumentParse 文档文本提取任务
	TaskDocumentParse TaskType = "document_parse"
	// TaskDocumentAnalyze 文档分析任务（分类+字段提取）
	TaskDocumentAnalyze TaskType = "document_analyze"
	// TaskSchemaInfer 结构模式推断任务
	TaskSchemaInfer TaskType = "schema_infer"
	// TaskAnalyzeComplete 完整分析流程任务（提取文本+分析+模式）
	TaskAnalyzeComplete TaskType = "analyze_complete"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	// StatusPending 等待处理
	StatusPending TaskStatus = "pending"
	// StatusProcessing 处理中
	StatusProcessing TaskStatus = "processing"
	// StatusCompleted 已完成
	StatusCompleted TaskStatus = "completed"
	// StatusFailed 处理失败
	StatusFailed TaskStatus = "failed"
)

// Task 任务基础结构
type Task struct {
	ID          string          `json:"id"`           // 任务唯一标识符
	Type        TaskType        `json:"type"`         // 任务类型
	AnalysisID  string          `json:"analysis_id"`  // 关联的分析记录ID
	Status      TaskStatus      `json:"status"`       // 任务状态
	Payload     json.RawMessage `json:"payload"`      // 任务载荷数据，不同任务类型对应不同结构
	Result      json.RawMessage `json:"result"`       // 任务结果数据，不同任务类型对应不同结构
	Error       string          `json:"error"`        // 错误信息（如果处理失败）
	CreatedAt   time.Time       `json:"created_at"`   // 创建时间
	UpdatedAt   time.Time       `json:"updated_at"`   // 更新时间
	StartedAt   *time.Time      `json:"started_at"`   // 开始处理时间
	CompletedAt *time.Time      `json:"completed_at"` // 完成时间
	Attempts    int             `json:"attempts"`     // 尝试次数
	MaxRetries  int             `json:"max_retries"`  // 最大重试次数
}

// DocumentParsePayload 文档文本提取任务载荷
type DocumentParsePayload struct {
	FilePath string            `json:"file_path"` // 文件存储路径
	FileName string            `json:"file_name"` // 文件名
	FileType string            `json:"file_type"` // 文件类型
	Metadata map[string]string `json:"metadata"`  // 元数据
}

// DocumentParseResult 文档文本提取任务结果
type DocumentParseResult struct {
	Content string `json:"content"` // 提取出的文本内容
	Pages   int    `json:"pages"`   // 文档页数（如果适用）
	Words   int    `json:"words"`   // 单词数
	Chars   int    `json:"chars"`   // 字符数
	Error   string `json:"error"`   // 错误信息（如果有）
}

// DocumentAnalyzePayload 文档分析任务载荷
type DocumentAnalyzePayload struct {
	AnalysisID string `json:"analysis_id"` // 分析记录ID
	Content    string `json:"content"`     // 文档文本内容
	FileName   string `json:"file_name"`   // 文件名
	FileSize   int64  `json:"file_size"`   // 文件大小（字节）
	PageCount  int    `json:"page_count"`  // 页数
}

// FieldInfo 提取出的单个字段
type FieldInfo struct {
	Name  string `json:"name"`  // 字段名称
	Value string `json:"value"` // 字段值
}

// DocumentAnalyzeResult 文档分析任务结果
type DocumentAnalyzeResult struct {
	AnalysisID   string      `json:"analysis_id"`   // 分析记录ID
	DocumentType string      `json:"document_type"` // 分类结果类别
	Fields       []FieldInfo `json:"fields"`        // 有序字段列表
	FieldCount   int         `json:"field_count"`   // 字段数量
	Error        string      `json:"error"`         // 错误信息（如果有）
}

// SchemaInferPayload 模式推断任务载荷
type SchemaInferPayload struct {
	AnalysisID string `json:"analysis_id"` // 分析记录ID（可选）
	Content    string `json:"content"`     // 文档文本内容（可选）
	FileName   string `json:"file_name"`   // 文件名（可选）
	Prompt     string `json:"prompt"`      // 自然语言提示文本（可选）
}

// SchemaInferResult 模式推断任务结果
type SchemaInferResult struct {
	AnalysisID string          `json:"analysis_id"` // 分析记录ID
	SchemaName string          `json:"schema_name"` // 模式名称
	Schema     json.RawMessage `json:"schema"`      // 模式定义
	FieldCount int             `json:"field_count"` // 顶层字段数量
	Error      string          `json:"error"`       // 错误信息（如果有）
}

// AnalyzeCompletePayload 完整分析流程任务载荷
type AnalyzeCompletePayload struct {
	AnalysisID string            `json:"analysis_id"` // 分析记录ID
	FilePath   string            `json:"file_path"`   // 文件路径
	FileName   string            `json:"file_name"`   // 文件名
	FileType   string            `json:"file_type"`   // 文件类型
	FileSize   int64             `json:"file_size"`   // 文件大小（字节）
	Metadata   map[string]string `json:"metadata"`    // 元数据
}

// AnalyzeCompleteResult 完整分析流程结果
type AnalyzeCompleteResult struct {
	AnalysisID   string          `json:"analysis_id"`   // 分析记录ID
	DocumentType string          `json:"document_type"` // 分类结果类别
	Fields       []FieldInfo     `json:"fields"`        // 有序字段列表
	Schema       json.RawMessage `json:"schema"`        // 推断出的模式定义
	Pages        int             `json:"pages"`         // 文档页数
	ParseStatus  string          `json:"parse_status"`  // 文本提取状态
	Error        string          `json:"error"`         // 错误信息（如果有）
}

// TaskCallback 任务回调信息
type TaskCallback struct {
	TaskID     string          `json:"task_id"`     // 任务ID
	AnalysisID string          `json:"analysis_id"` // 分析记录ID
	Status     TaskStatus      `json:"status"`      // 任务状态
	Type       TaskType        `json:"type"`        // 任务类型
	Result     json.RawMessage `json:"result"`      // 任务结果
	Error      string          `json:"error"`       // 错误信息
	Timestamp  time.Time       `json:"timestamp"`   // 回调时间戳
}
