package analyzer

import (
	"regexp"
	"strings"
)

// 实体识别模式
var (
	capitalizedPattern = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)
	orgSuffixPattern   = regexp.MustCompile(`\b[A-Z][A-Za-z]*(?:\s+[A-Z][A-Za-z]*)*\s+(?:Inc|Corp|LLC|Ltd|Company|Corporation|Group|Services|Solutions)\b`)
)

// EntityDetector 命名实体检测器
// 基于大写模式的启发式识别：人名取不超过3个词的大写序列，
// 机构名取带企业后缀的序列
type EntityDetector struct {
	maxCount int // 每类结果数量上限
}

// Name 实现Detector接口
func (d *EntityDetector) Name() string { return "entity" }

// Detect 检测文本中的命名实体
func (d *EntityDetector) Detect(text string, lines []string) (SchemaField, bool) {
	maxCount := d.maxCount
	if maxCount <= 0 {
		maxCount = 10
	}

	capitalized := dedupe(capitalizedPattern.FindAllString(text, -1))
	organizations := dedupe(orgSuffixPattern.FindAllString(text, -1))

	if len(capitalized) == 0 && len(organizations) == 0 {
		return SchemaField{}, false
	}

	var people []string
	for _, m := range capitalized {
		if len(strings.Fields(m)) <= 3 {
			people = append(people, m)
		}
	}

	var subFields []SchemaField
	if len(people) > 0 {
		subFields = append(subFields, SchemaField{
			Name:        "people",
			Type:        TypeArray,
			Description: "Capitalized sequences that look like person names",
			Examples:    limit(people, maxCount),
		})
	}
	if len(organizations) > 0 {
		subFields = append(subFields, SchemaField{
			Name:        "organizations",
			Type:        TypeArray,
			Description: "Sequences with a company suffix",
			Examples:    limit(organizations, maxCount),
		})
	}
	if len(capitalized) > 0 {
		subFields = append(subFields, SchemaField{
			Name:        "other",
			Type:        TypeArray,
			Description: "All capitalized sequences found in the text",
			Examples:    limit(capitalized, maxCount),
		})
	}

	return SchemaField{
		Name:        "named_entities",
		Type:        TypeObject,
		Description: "Named entities detected by capitalization heuristics",
		SubFields:   subFields,
	}, true
}
