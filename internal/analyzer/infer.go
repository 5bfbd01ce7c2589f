package analyzer

import (
	"regexp"
	"strings"
)

// 值类型推断使用的正则，按优先级排列
var (
	integerPattern = regexp.MustCompile(`^\d+$`)
	numberPattern  = regexp.MustCompile(`^\d*\.?\d+$`)
	booleanPattern = regexp.MustCompile(`^(?i:true|false)$`)
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
)

// InferValueType 推断字符串值的基本类型
// 按固定优先级测试: integer > number > boolean > date > email > url > string
func InferValueType(value string) FieldType {
	value = strings.TrimSpace(value)

	switch {
	case integerPattern.MatchString(value):
		return TypeInteger
	case numberPattern.MatchString(value):
		return TypeNumber
	case booleanPattern.MatchString(value):
		return TypeBoolean
	case isoDatePattern.MatchString(value):
		return TypeDate
	case strings.Contains(value, "@"):
		return TypeEmail
	case strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://"):
		return TypeURL
	default:
		return TypeString
	}
}
