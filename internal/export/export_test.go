package export

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rish560/bytejoule.ai-dashboard/internal/analyzer"
)

func sampleResult() analyzer.ExtractionResult {
	return analyzer.ExtractionResult{
		FileName:     "invoice.pdf",
		FileSize:     "2.0 KB",
		PageCount:    1,
		DocumentType: analyzer.CategoryInvoice,
		Fields: []analyzer.Field{
			{Name: "Invoice Number", Value: "INV-2023-001"},
			{Name: "Total Amount", Value: "$1,250.00"},
			{Name: "Vendor", Value: `Acme "West" Inc`},
		},
		FullText: "Invoice #INV-2023-001",
	}
}

// TestJSONExport 测试JSON导出结果与提取结果结构一致
func TestJSONExport(t *testing.T) {
	result := sampleResult()

	data, err := JSON(result)
	require.NoError(t, err)

	var decoded analyzer.ExtractionResult
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, result, decoded, "JSON export should round-trip the result unchanged")
}

// TestCSVExport 测试CSV导出的表头、引号和字段顺序
func TestCSVExport(t *testing.T) {
	data, err := CSV(sampleResult())
	require.NoError(t, err)

	expected := "Invoice Number,Total Amount,Vendor\n" +
		`"INV-2023-001","$1,250.00","Acme ""West"" Inc"` + "\n"
	assert.Equal(t, expected, string(data))
}

// TestCSVExportEmptyFields 测试无字段时导出两行空内容
func TestCSVExportEmptyFields(t *testing.T) {
	data, err := CSV(analyzer.ExtractionResult{})
	require.NoError(t, err)
	assert.Equal(t, "\n\n", string(data))
}

// TestParseFormat 测试格式参数解析
func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"csv", FormatCSV, false},
		{"CSV", FormatCSV, false},
		{"", FormatJSON, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnsupportedFormat, "input %q", tt.input)
			continue
		}
		assert.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

// TestFormatMetadata 测试导出格式对应的文件名和MIME类型
func TestFormatMetadata(t *testing.T) {
	assert.Equal(t, "extracted_data.json", FormatJSON.FileName())
	assert.Equal(t, "extracted_data.csv", FormatCSV.FileName())
	assert.Equal(t, "application/json", FormatJSON.ContentType())
	assert.Equal(t, "text/csv", FormatCSV.ContentType())
}

// TestMarshal 测试按格式分发
func TestMarshal(t *testing.T) {
	result := sampleResult()

	jsonData, err := Marshal(result, FormatJSON)
	require.NoError(t, err)
	assert.True(t, json.Valid(jsonData))

	csvData, err := Marshal(result, FormatCSV)
	require.NoError(t, err)
	assert.Contains(t, string(csvData), "Invoice Number")

	_, err = Marshal(result, Format("xml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
