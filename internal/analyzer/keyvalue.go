package analyzer

import (
	"fmt"
	"regexp"
	"strings"
)

// 键值对分隔模式，按固定优先级测试
// 同时匹配多种分隔符的行由该顺序决定归属，这是刻意保留的行为
var keyValuePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^([^:]+):\s*(.+)$`),         // key: value
	regexp.MustCompile(`^(.+?)\s+[-–—]\s+(.+)$`),    // key - value
	regexp.MustCompile(`^(.+?)\s*=\s*(.+)$`),        // key = value
	regexp.MustCompile(`^(.+?)\s*\|\s*(.+)$`),       // key | value
}

// fieldNamePattern 字段名归一化使用的非字母数字序列
var fieldNamePattern = regexp.MustCompile(`[^a-z0-9]+`)

// KeyValueDetector 键值对检测器
// 逐行匹配四种分隔样式，命中的键值对汇总成一个key_value_data字段
type KeyValueDetector struct {
	maxKeyLength int // 键长度上限
}

// Name 实现Detector接口
func (d *KeyValueDetector) Name() string { return "key_value" }

// Detect 检测文本中的键值对
func (d *KeyValueDetector) Detect(text string, lines []string) (SchemaField, bool) {
	maxKey := d.maxKeyLength
	if maxKey <= 0 {
		maxKey = 49
	}

	var subFields []SchemaField
	for _, line := range lines {
		for _, pattern := range keyValuePatterns {
			m := pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}

			key := strings.TrimSpace(m[1])
			value := strings.TrimSpace(m[2])
			if len(key) < 1 || len(key) > maxKey || value == "" {
				break // 行已匹配但不合格，不再尝试后续模式
			}

			subFields = append(subFields, SchemaField{
				Name:        normalizeFieldName(key),
				Type:        InferValueType(value),
				Description: fmt.Sprintf("Value for %q", key),
				Examples:    []string{value},
			})
			break // 第一个匹配的模式生效
		}
	}

	if len(subFields) == 0 {
		return SchemaField{}, false
	}

	return SchemaField{
		Name:        "key_value_data",
		Type:        TypeObject,
		Description: "Key/value pairs detected in the document",
		SubFields:   subFields,
	}, true
}

// normalizeFieldName 将键名归一化为字段名
// 小写后把非字母数字序列替换为下划线
func normalizeFieldName(key string) string {
	name := fieldNamePattern.ReplaceAllString(strings.ToLower(key), "_")
	return strings.Trim(name, "_")
}
