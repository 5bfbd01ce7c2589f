package document

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// 文本获取阶段的类型化错误
// 上层根据错误类型选择对应的降级策略
var (
	// ErrInvalidSignature 文件头与声明的格式不符
	ErrInvalidSignature = errors.New("document: invalid file signature")
	// ErrEmptyDocument 文档中没有可提取的文本
	ErrEmptyDocument = errors.New("document: no extractable text")
	// ErrUnsupportedType 不支持的文档类型
	ErrUnsupportedType = errors.New("document: unsupported document type")
	// ErrUnreadableDocument 文档内容无法读取或解码
	ErrUnreadableDocument = errors.New("document: unreadable content")
)

// Extracted 文本获取结果
type Extracted struct {
	Text      string // 提取出的UTF-8文本
	PageCount int    // 页数，非分页格式为0
}

// Parser 文档解析器接口
// 负责将不同格式的文档解析为纯文本
type Parser interface {
	// Parse 解析文档，返回提取结果
	Parse(filePath string) (Extracted, error)

	// ParseReader 从Reader解析文档，返回提取结果
	// filename用于确定文档类型
	ParseReader(r io.Reader, filename string) (Extracted, error)
}

// ContentType 表示文档的内容类型
type ContentType string

const (
	// PDF 文档类型
	PDF ContentType = "pdf"
	// Markdown 文档类型
	Markdown ContentType = "markdown"
	// PlainText 纯文本类型
	PlainText ContentType = "plaintext"
	// Unknown 未知类型
	Unknown ContentType = "unknown"
)

// ParserFactory 解析器工厂函数，根据文件类型创建对应的解析器
func ParserFactory(filePath string) (Parser, error) {
	contentType := DetectContentType(filePath)

	switch contentType {
	case PDF:
		return NewPDFParser(), nil
	case Markdown:
		return NewMarkdownParser(), nil
	case PlainText:
		return NewPlainTextParser(), nil
	default:
		return nil, ErrUnsupportedType
	}
}

// DetectContentType 根据文件扩展名检测内容类型
func DetectContentType(filePath string) ContentType {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".pdf":
		return PDF
	case ".md", ".markdown":
		return Markdown
	case ".txt":
		return PlainText
	default:
		return Unknown
	}
}
