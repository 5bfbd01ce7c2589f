package analyzer

import "fmt"

// CategoryDetector 高频词检测器
// 统计长度大于3且非停用词的单词词频，只保留出现一次以上的词，
// 按频次降序取前10个
type CategoryDetector struct {
	stopWords map[string]struct{} // 注入的停用词集合
}

// Name 实现Detector接口
func (d *CategoryDetector) Name() string { return "category" }

// Detect 检测文本中的高频词
func (d *CategoryDetector) Detect(text string, lines []string) (SchemaField, bool) {
	ranked := rankTerms(text, d.stopWords, 2)
	if len(ranked) == 0 {
		return SchemaField{}, false
	}

	if len(ranked) > 10 {
		ranked = ranked[:10]
	}

	examples := make([]string, 0, len(ranked))
	for _, tc := range ranked {
		examples = append(examples, fmt.Sprintf("%s (%dx)", tc.word, tc.count))
	}

	return SchemaField{
		Name:        "frequent_terms",
		Type:        TypeArray,
		Description: "Most frequent significant terms in the document",
		Examples:    examples,
	}, true
}
