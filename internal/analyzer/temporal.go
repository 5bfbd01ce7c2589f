package analyzer

import (
	"regexp"
	"strconv"
)

// 日期检测使用的四种固定格式
var datePatterns = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"MM/DD/YYYY", regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)},
	{"MM-DD-YYYY", regexp.MustCompile(`\b\d{1,2}-\d{1,2}-\d{4}\b`)},
	{"YYYY-MM-DD", regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)},
	{"Month DD, YYYY", regexp.MustCompile(`(?i)\b(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2},?\s+\d{4}\b`)},
}

// DateDetector 日期检测器
// 匹配四种固定日期格式并去重，命中时输出temporal_data字段
type DateDetector struct{}

// Name 实现Detector接口
func (d *DateDetector) Name() string { return "temporal" }

// Detect 检测文本中的日期
func (d *DateDetector) Detect(text string, lines []string) (SchemaField, bool) {
	var (
		matches []string
		formats []string
	)
	for _, dp := range datePatterns {
		found := dp.pattern.FindAllString(text, -1)
		if len(found) > 0 {
			formats = append(formats, dp.name)
		}
		matches = append(matches, found...)
	}
	matches = dedupe(matches)

	if len(matches) == 0 {
		return SchemaField{}, false
	}

	return SchemaField{
		Name:        "temporal_data",
		Type:        TypeObject,
		Description: "Dates and temporal references detected in the document",
		SubFields: []SchemaField{
			{Name: "dates", Type: TypeArray, Description: "Distinct date values found in the text", Examples: matches},
			{Name: "date_count", Type: TypeNumber, Description: "Number of distinct dates", Examples: []string{strconv.Itoa(len(matches))}},
			{Name: "formats_detected", Type: TypeArray, Description: "Date formats present in the text", Examples: formats},
		},
	}, true
}
