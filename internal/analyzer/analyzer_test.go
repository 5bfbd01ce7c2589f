package analyzer

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEngineExtract 测试提取流水线的元信息填充
func TestEngineExtract(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	result := engine.Extract(Input{
		Text:      "Invoice #99\nTotal: $10.00",
		FileName:  "inv.pdf",
		FileSize:  2048,
		PageCount: 3,
	})

	assert.Equal(t, "inv.pdf", result.FileName)
	assert.Equal(t, "2.0 KB", result.FileSize)
	assert.Equal(t, 3, result.PageCount)
	assert.Equal(t, CategoryInvoice, result.DocumentType)
	assert.NotEmpty(t, result.Fields)
	assert.Equal(t, "Invoice #99\nTotal: $10.00", result.FullText)
}

// TestEngineDeterminism 测试相同输入产生字节一致的结果
func TestEngineDeterminism(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	input := Input{
		Text:     "Name: John Smith\nAge: 34\nInvoice #A-1\nTotal: $250.00\nSigned on January 5, 2024 by Acme Corp",
		FileName: "mixed.pdf",
	}

	first := engine.Extract(input)
	schema := engine.InferSchema(input)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, engine.Extract(input))
		require.Equal(t, schema, engine.InferSchema(input))
	}
}

// TestEngineInferSchema 测试模式推断的检测器组合
func TestEngineInferSchema(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	schema := engine.InferSchema(Input{
		Text:     "Name: John Smith\nAge: 34\nActive: true",
		FileName: "profile.txt",
	})

	assert.Equal(t, "profile_schema", schema.Name)
	assert.Equal(t, "Inferred from document profile.txt", schema.SourceDescription)
	assert.Contains(t, schema.ContentPreview, "Name: John Smith")
	require.NotEmpty(t, schema.Fields)

	// 检测器按固定顺序运行，key_value排在最前
	assert.Equal(t, "key_value_data", schema.Fields[0].Name)

	kv, ok := schema.Field("key_value_data")
	require.True(t, ok)
	age, ok := kv.SubField("age")
	require.True(t, ok)
	assert.Equal(t, TypeInteger, age.Type)
}

// TestEngineInferSchemaFallback 测试所有检测器未命中时的兜底字段
func TestEngineInferSchemaFallback(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	// 纯空白文本不会命中任何检测器，但仍走正常推断路径
	schema := engine.InferSchema(Input{Text: "   \n\t  ", FileName: "blank.txt"})

	require.Len(t, schema.Fields, 1)
	content := schema.Fields[0]
	assert.Equal(t, "document_content", content.Name)
	assert.Equal(t, TypeObject, content.Type)

	var names []string
	for _, sub := range content.SubFields {
		names = append(names, sub.Name)
	}
	assert.Equal(t, []string{"full_text", "line_count", "word_count", "content_sections"}, names)
}

// TestEngineInferSchemaFromPrompt 测试文档为空时退回提示文本
func TestEngineInferSchemaFromPrompt(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	schema := engine.InferSchema(Input{Prompt: "customer records with a name and a signup date"})

	assert.Equal(t, "prompt_schema", schema.Name)
	assert.Equal(t, "Inferred from natural language prompt", schema.SourceDescription)
	require.NotEmpty(t, schema.Fields)
}

// TestEngineInferSchemaNoInput 测试完全无输入时的错误模式
func TestEngineInferSchemaNoInput(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	schema := engine.InferSchema(Input{})

	assert.Equal(t, "fallback_schema", schema.Name)
	info, ok := schema.Field("error_info")
	require.True(t, ok)

	errType, ok := info.SubField("error_type")
	require.True(t, ok)
	assert.Equal(t, []string{"no_input"}, errType.Examples)
}

// TestEngineInputBound 测试超长输入被截断
func TestEngineInputBound(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxInputBytes = 16
	engine := NewEngine(cfg)

	result := engine.Extract(Input{Text: strings.Repeat("a", 100)})
	assert.Len(t, result.FullText, 16)
}

// TestEngineInputBoundRuneBoundary 测试截断点不会落在多字节字符中间
func TestEngineInputBoundRuneBoundary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxInputBytes = 16

	engine := NewEngine(cfg)

	// 15个单字节字符后接一个三字节汉字，字节上限落在汉字内部
	result := engine.Extract(Input{Text: strings.Repeat("a", 15) + "文档分析"})
	assert.True(t, utf8.ValidString(result.FullText))
	assert.Equal(t, strings.Repeat("a", 15), result.FullText)
}

// TestEngineZeroConfig 测试零值配置会回填默认值
func TestEngineZeroConfig(t *testing.T) {
	engine := NewEngine(Config{})

	assert.Equal(t, CategoryInvoice, engine.Classify("invoice #1"))

	result := engine.Extract(Input{Text: "invoice #1"})
	assert.Equal(t, CategoryInvoice, result.DocumentType)
}

// TestSchemaName 测试模式名称的确定性生成
func TestSchemaName(t *testing.T) {
	cases := []struct {
		name  string
		input Input
		want  string
	}{
		{"from file name", Input{FileName: "report.pdf", Text: "x"}, "report_schema"},
		{"file name normalized", Input{FileName: "My Report 2024.pdf", Text: "x"}, "my_report_2024_schema"},
		{"from prompt", Input{Prompt: "a list of orders"}, "prompt_schema"},
		{"plain text", Input{Text: "some content"}, "document_schema"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, schemaName(tc.input))
		})
	}
}

// TestContentPreviewTruncated 测试内容预览按配置长度截断
func TestContentPreviewTruncated(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	schema := engine.InferSchema(Input{Text: strings.Repeat("word ", 100)})
	assert.True(t, strings.HasSuffix(schema.ContentPreview, "..."))
	assert.LessOrEqual(t, len(schema.ContentPreview), DefaultConfig().PreviewLength+3)
}

// TestFallbackSchema 测试各失败原因的降级模式
func TestFallbackSchema(t *testing.T) {
	causes := []FailureCause{
		CauseInvalidSignature,
		CauseBackendUnavailable,
		CauseEmptyDocument,
		CauseNoInput,
	}

	for _, cause := range causes {
		t.Run(string(cause), func(t *testing.T) {
			schema := FallbackSchema(cause)

			require.Len(t, schema.Fields, 2)

			info, ok := schema.Field("error_info")
			require.True(t, ok)
			assert.Equal(t, TypeObject, info.Type)

			errType, ok := info.SubField("error_type")
			require.True(t, ok)
			assert.Equal(t, []string{string(cause)}, errType.Examples)

			msg, ok := info.SubField("error_message")
			require.True(t, ok)
			assert.NotEmpty(t, msg.Examples)

			action, ok := info.SubField("suggested_action")
			require.True(t, ok)
			assert.NotEmpty(t, action.Examples)

			raw, ok := schema.Field("raw_content")
			require.True(t, ok)
			assert.Equal(t, TypeString, raw.Type)
		})
	}
}

// TestFallbackSchemaUnknownCause 测试未知失败原因归一化为unknown
func TestFallbackSchemaUnknownCause(t *testing.T) {
	schema := FallbackSchema(FailureCause("weird"))

	info, ok := schema.Field("error_info")
	require.True(t, ok)
	errType, ok := info.SubField("error_type")
	require.True(t, ok)
	assert.Equal(t, []string{string(CauseUnknown)}, errType.Examples)
}
