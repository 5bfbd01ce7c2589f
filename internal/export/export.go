package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rish560/bytejoule.ai-dashboard/internal/analyzer"
)

// 导出文件的默认文件名，用于Content-Disposition
const (
	JSONFileName = "extracted_data.json"
	CSVFileName  = "extracted_data.csv"
)

// Format 导出格式
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ErrUnsupportedFormat 不支持的导出格式
var ErrUnsupportedFormat = fmt.Errorf("unsupported export format")

// ParseFormat 解析导出格式参数
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, s)
	}
}

// FileName 返回格式对应的下载文件名
func (f Format) FileName() string {
	if f == FormatCSV {
		return CSVFileName
	}
	return JSONFileName
}

// ContentType 返回格式对应的MIME类型
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/json"
}

// JSON 将提取结果序列化为JSON
// 结果结构原样输出，不做裁剪和变形
func JSON(result analyzer.ExtractionResult) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}

// CSV 将提取结果序列化为CSV
// 一行表头为字段名，一行数据为带引号的字段值，均按字段插入顺序排列
func CSV(result analyzer.ExtractionResult) ([]byte, error) {
	var buf bytes.Buffer

	names := make([]string, 0, len(result.Fields))
	values := make([]string, 0, len(result.Fields))
	for _, f := range result.Fields {
		names = append(names, f.Name)
		values = append(values, quoteCSV(f.Value))
	}

	buf.WriteString(strings.Join(names, ","))
	buf.WriteByte('\n')
	buf.WriteString(strings.Join(values, ","))
	buf.WriteByte('\n')

	return buf.Bytes(), nil
}

// Marshal 按指定格式序列化提取结果
func Marshal(result analyzer.ExtractionResult, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return JSON(result)
	case FormatCSV:
		return CSV(result)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// quoteCSV 为字段值加引号，内部引号按CSV规则成对转义
func quoteCSV(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
