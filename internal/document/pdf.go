package document

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfSignature 合法PDF文件的头部魔数
var pdfSignature = []byte("%PDF-")

// PDFParser PDF文档解析器
type PDFParser struct{}

// NewPDFParser 创建一个新的PDF解析器
func NewPDFParser() Parser {
	return &PDFParser{}
}

// Parse 解析PDF文件并提取其文本内容
// 先校验文件签名，再用pdfcpu逐页提取文本并按页码顺序拼接
func (p *PDFParser) Parse(filePath string) (Extracted, error) {
	if err := checkPDFSignature(filePath); err != nil {
		return Extracted{}, err
	}

	conf := model.NewDefaultConfiguration()

	pageCount, err := api.PageCountFile(filePath)
	if err != nil {
		return Extracted{}, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}

	// 提取文本到临时目录，pdfcpu按页输出txt文件
	tmpDir, err := os.MkdirTemp("", "pdf_extract_")
	if err != nil {
		return Extracted{}, fmt.Errorf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := api.ExtractContentFile(filePath, tmpDir, nil, conf); err != nil {
		return Extracted{}, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return Extracted{}, fmt.Errorf("failed to read extracted text dir: %v", err)
	}

	// 按文件名排序（页码顺序）
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var allText strings.Builder
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(tmpDir, e.Name()))
		if err != nil {
			continue
		}
		if allText.Len() > 0 {
			allText.WriteString("\n\n")
		}
		allText.Write(data)
	}

	text := strings.TrimSpace(allText.String())
	if text == "" {
		return Extracted{}, ErrEmptyDocument
	}

	return Extracted{Text: text, PageCount: pageCount}, nil
}

// ParseReader 从Reader解析PDF内容
// pdfcpu的内容提取以文件为单位，先落盘到临时文件再解析
func (p *PDFParser) ParseReader(r io.Reader, filename string) (Extracted, error) {
	tmpFile, err := os.CreateTemp("", "pdf_upload_*.pdf")
	if err != nil {
		return Extracted{}, fmt.Errorf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := io.Copy(tmpFile, r); err != nil {
		tmpFile.Close()
		return Extracted{}, fmt.Errorf("failed to buffer pdf content: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		return Extracted{}, fmt.Errorf("failed to flush pdf content: %v", err)
	}

	return p.Parse(tmpFile.Name())
}

// checkPDFSignature 校验文件头部的PDF魔数
func checkPDFSignature(filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open pdf file: %v", err)
	}
	defer file.Close()

	header := make([]byte, len(pdfSignature))
	if _, err := io.ReadFull(file, header); err != nil {
		return ErrInvalidSignature
	}
	if !bytes.Equal(header, pdfSignature) {
		return ErrInvalidSignature
	}
	return nil
}
