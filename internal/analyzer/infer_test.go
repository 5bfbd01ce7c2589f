package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestInferValueType 测试值类型推断的优先级顺序
func TestInferValueType(t *testing.T) {
	cases := []struct {
		value string
		want  FieldType
	}{
		{"34", TypeInteger},
		{"0", TypeInteger},
		{"3.14", TypeNumber},
		{".5", TypeNumber},
		{"true", TypeBoolean},
		{"FALSE", TypeBoolean},
		{"2023-01-02", TypeDate},
		{"2023-01-02T15:04:05", TypeDate},
		{"john@example.com", TypeEmail},
		{"https://example.com/docs", TypeURL},
		{"http://example.com", TypeURL},
		{"John Smith", TypeString},
		{"", TypeString},
	}

	for _, tc := range cases {
		t.Run(tc.value, func(t *testing.T) {
			assert.Equal(t, tc.want, InferValueType(tc.value))
		})
	}
}

// TestInferValueTypePriority 测试高优先级类型先于低优先级命中
func TestInferValueTypePriority(t *testing.T) {
	// 纯数字串是integer而非number
	assert.Equal(t, TypeInteger, InferValueType("123"))

	// 前后空白不影响推断
	assert.Equal(t, TypeBoolean, InferValueType("  true  "))
}
