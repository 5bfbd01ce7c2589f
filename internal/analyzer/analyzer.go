package analyzer

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// Engine 文档内容分析引擎
// 两条独立流水线：分类+字段提取产出ExtractionResult，
// 检测器集合产出Schema。全部为纯函数计算，不持有跨调用状态
type Engine struct {
	cfg        Config
	classifier *Classifier
	extractors map[DocumentCategory]extractorFunc
	detectors  []Detector
}

// NewEngine 创建分析引擎
func NewEngine(cfg Config) *Engine {
	if cfg.MaxInputBytes <= 0 {
		cfg.MaxInputBytes = DefaultConfig().MaxInputBytes
	}
	if len(cfg.ClassifierRules) == 0 {
		cfg.ClassifierRules = DefaultConfig().ClassifierRules
	}
	if len(cfg.StopWords) == 0 {
		cfg.StopWords = DefaultConfig().StopWords
	}

	return &Engine{
		cfg:        cfg,
		classifier: NewClassifier(cfg.ClassifierRules),
		extractors: extractors(),
		detectors:  newDetectors(cfg),
	}
}

// Classify 对文本分类
func (e *Engine) Classify(text string) DocumentCategory {
	return e.classifier.Classify(e.bound(text))
}

// Extract 运行分类器和对应类别的字段提取器
// 相同输入的重复调用产生字节一致的字段顺序和内容
func (e *Engine) Extract(input Input) ExtractionResult {
	text := e.bound(input.Text)
	category := e.classifier.Classify(text)
	lines := splitLines(text)

	extract := e.extractors[category]
	fields := extract(text, lines, e.cfg)

	return ExtractionResult{
		FileName:     input.FileName,
		FileSize:     FormatFileSize(input.FileSize),
		PageCount:    input.PageCount,
		DocumentType: category,
		Fields:       fields,
		FullText:     text,
	}
}

// InferSchema 运行检测器集合推断文档结构模式
// 文档文本为空时退回使用提示文本；全部检测器未命中时输出兜底字段
func (e *Engine) InferSchema(input Input) Schema {
	text := e.bound(input.Text)
	if text == "" {
		text = e.bound(input.Prompt)
	}
	if text == "" && input.FileName == "" {
		// 既没有文档也没有提示文本
		return FallbackSchema(CauseNoInput)
	}

	lines := splitLines(text)

	var fields []SchemaField
	for _, det := range e.detectors {
		if field, ok := det.Detect(text, lines); ok {
			fields = append(fields, field)
		}
	}
	if len(fields) == 0 {
		fields = []SchemaField{fallbackField()}
	}

	previewLen := e.cfg.PreviewLength
	if previewLen <= 0 {
		previewLen = DefaultConfig().PreviewLength
	}

	return Schema{
		Name:              schemaName(input),
		SourceDescription: sourceDescription(input),
		ContentPreview:    truncate(text, previewLen),
		Fields:            fields,
	}
}

// bound 限制输入文本长度，避免病态输入导致的正则回溯开销
// 截断点回退到rune边界，不在多字节字符中间切断
func (e *Engine) bound(text string) string {
	if e.cfg.MaxInputBytes <= 0 || len(text) <= e.cfg.MaxInputBytes {
		return text
	}

	cut := e.cfg.MaxInputBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// schemaName 根据输入来源生成确定性的模式名称
func schemaName(input Input) string {
	if input.FileName != "" {
		base := strings.TrimSuffix(filepath.Base(input.FileName), filepath.Ext(input.FileName))
		if name := normalizeFieldName(base); name != "" {
			return name + "_schema"
		}
	}
	if strings.TrimSpace(input.Text) == "" && strings.TrimSpace(input.Prompt) != "" {
		return "prompt_schema"
	}
	return "document_schema"
}

// sourceDescription 生成模式来源描述
func sourceDescription(input Input) string {
	if input.FileName != "" {
		return fmt.Sprintf("Inferred from document %s", filepath.Base(input.FileName))
	}
	if strings.TrimSpace(input.Text) == "" && strings.TrimSpace(input.Prompt) != "" {
		return "Inferred from natural language prompt"
	}
	return "Inferred from document text"
}

// FormatFileSize 按仪表盘展示习惯格式化文件大小
func FormatFileSize(size int64) string {
	if size <= 0 {
		return ""
	}
	return fmt.Sprintf("%.1f KB", float64(size)/1024)
}

// FailureCause 分析失败原因
type FailureCause string

const (
	// CauseInvalidSignature 文件签名无效，不是合法的PDF文档
	CauseInvalidSignature FailureCause = "invalid_signature"
	// CauseBackendUnavailable 文本解析后端不可用
	CauseBackendUnavailable FailureCause = "backend_unavailable"
	// CauseEmptyDocument 文档中没有可提取的文本
	CauseEmptyDocument FailureCause = "empty_document"
	// CauseNoInput 既没有文档文本也没有提示文本
	CauseNoInput FailureCause = "no_input"
	// CauseUnknown 其他未知原因
	CauseUnknown FailureCause = "unknown"
)

// failureMessages 已知失败原因对应的提示消息
var failureMessages = map[FailureCause]struct {
	message    string
	suggestion string
}{
	CauseInvalidSignature: {
		message:    "The file does not appear to be a valid PDF document",
		suggestion: "Upload a file with a valid PDF signature",
	},
	CauseBackendUnavailable: {
		message:    "The document processing backend is unavailable",
		suggestion: "Retry the analysis once the processing service is back",
	},
	CauseEmptyDocument: {
		message:    "No extractable text was found in the document",
		suggestion: "Upload a document that contains selectable text",
	},
	CauseNoInput: {
		message:    "No document text or prompt was provided",
		suggestion: "Upload a document or describe the expected structure",
	},
}

// FallbackExtraction 文本获取失败时的降级提取结果
// 固定返回Status、File Type和Upload Date三个字段
func FallbackExtraction(fileName string, uploadedAt time.Time) ExtractionResult {
	fileType := strings.TrimPrefix(filepath.Ext(fileName), ".")
	if fileType == "" {
		fileType = "unknown"
	}

	fields := []Field{
		{Name: "Status", Value: "Error during extraction"},
		{Name: "File Type", Value: fileType},
		{Name: "Upload Date", Value: uploadedAt.Format("2006-01-02")},
	}

	return ExtractionResult{
		FileName:     fileName,
		DocumentType: CategoryGeneral,
		Fields:       fields,
	}
}

// FallbackSchema 模式生成失败时的降级模式
// 包含error_info字段和raw_content占位字段
func FallbackSchema(cause FailureCause) Schema {
	info, ok := failureMessages[cause]
	if !ok {
		cause = CauseUnknown
		info.message = "Schema generation failed for an unknown reason"
		info.suggestion = "Retry the analysis or contact support"
	}

	return Schema{
		Name:              "fallback_schema",
		SourceDescription: "Generated after a schema inference failure",
		Fields: []SchemaField{
			{
				Name:        "error_info",
				Type:        TypeObject,
				Description: "Details about the schema generation failure",
				SubFields: []SchemaField{
					{Name: "error_type", Type: TypeString, Description: "Failure classification", Examples: []string{string(cause)}},
					{Name: "error_message", Type: TypeString, Description: "Human readable failure message", Examples: []string{info.message}},
					{Name: "suggested_action", Type: TypeString, Description: "Suggested next step", Examples: []string{info.suggestion}},
				},
			},
			{
				Name:        "raw_content",
				Type:        TypeString,
				Description: "Placeholder for the unprocessed document content",
			},
		},
	}
}
