package analyzer

import (
	"fmt"
	"regexp"
)

// 数值类别模式，每个类别独立命中
var numericCategories = []struct {
	name    string
	desc    string
	pattern *regexp.Regexp
}{
	{"currency", "Monetary amounts", regexp.MustCompile(`\$\d+(?:,\d{3})*(?:\.\d+)?`)},
	{"percentage", "Percentage values", regexp.MustCompile(`\b\d+(?:\.\d+)?%`)},
	{"weight", "Weight measurements", regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:kg|lbs?|g|oz|tons?)\b`)},
	{"distance", "Distance measurements", regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:cm|m|km|ft|in|miles?)\b`)},
	{"time_duration", "Time durations", regexp.MustCompile(`(?i)\b\d+\s*(?:hours?|minutes?|mins?|seconds?|secs?|days?|weeks?|months?|years?)\b`)},
}

// NumericDetector 数值检测器
// 五个独立类别（货币、百分比、重量、距离、时长），各自有命中才输出
type NumericDetector struct{}

// Name 实现Detector接口
func (d *NumericDetector) Name() string { return "numeric" }

// Detect 检测文本中的数值
func (d *NumericDetector) Detect(text string, lines []string) (SchemaField, bool) {
	var subFields []SchemaField
	for _, nc := range numericCategories {
		matches := dedupe(nc.pattern.FindAllString(text, -1))
		if len(matches) == 0 {
			continue
		}
		subFields = append(subFields, SchemaField{
			Name:        nc.name,
			Type:        TypeArray,
			Description: fmt.Sprintf("%s found in the document", nc.desc),
			Examples:    matches,
		})
	}

	if len(subFields) == 0 {
		return SchemaField{}, false
	}

	return SchemaField{
		Name:        "numeric_data",
		Type:        TypeObject,
		Description: "Numeric values detected in the document",
		SubFields:   subFields,
	}, true
}
