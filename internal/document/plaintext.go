package document

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// PlainTextParser 纯文本解析器
type PlainTextParser struct{}

// NewPlainTextParser 创建一个新的纯文本解析器
func NewPlainTextParser() Parser {
	return &PlainTextParser{}
}

// Parse 解析纯文本文件
func (p *PlainTextParser) Parse(filePath string) (Extracted, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return Extracted{}, fmt.Errorf("failed to open text file: %v", err)
	}
	defer file.Close()

	return p.ParseReader(file, filePath)
}

// ParseReader 从Reader解析纯文本内容
func (p *PlainTextParser) ParseReader(r io.Reader, filename string) (Extracted, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Extracted{}, fmt.Errorf("failed to read text content: %v", err)
	}

	if !utf8.Valid(content) {
		return Extracted{}, ErrUnreadableDocument
	}

	text := strings.TrimSpace(string(content))
	if text == "" {
		return Extracted{}, ErrEmptyDocument
	}

	return Extracted{Text: text}, nil
}
