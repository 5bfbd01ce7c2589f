package analyzer

import (
	"regexp"
	"sort"
	"strings"
)

// 提取器和检测器共享的文本模式
var (
	emailPattern     = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern     = regexp.MustCompile(`(?:\+\d{1,3}[\s.-]?)?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}`)
	urlPattern       = regexp.MustCompile(`https?://[^\s<>"]+`)
	slashDatePattern = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`)
	isoDateToken     = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	wordPattern      = regexp.MustCompile(`[a-zA-Z]+`)
	underscoreRun    = regexp.MustCompile(`_{3,}`)
)

// splitLines 将文本拆分为去除首尾空白的非空行
func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// rawLines 将文本拆分为保留空行的原始行
// 结构检测和分节扫描需要空行作为边界
func rawLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

// countWords 统计按空白分隔的单词数量
func countWords(text string) int {
	return len(strings.Fields(text))
}

// countSentences 统计句子数量
// 按 . ! ? 分割并去除空片段
func countSentences(text string) int {
	count := 0
	for _, part := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		if strings.TrimSpace(part) != "" {
			count++
		}
	}
	return count
}

// dedupe 去重并保留首次出现顺序
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}

// limit 截取切片前n个元素
func limit(values []string, n int) []string {
	if len(values) <= n {
		return values
	}
	return values[:n]
}

// termCount 词频统计结果
type termCount struct {
	word  string
	count int
	first int // 首次出现位置，用于并列时保持确定性排序
}

// rankTerms 对文本做词频排名
// 只统计长度大于3且不在停用词集合中的小写单词，
// 按频次降序排列，并列时按首次出现顺序
func rankTerms(text string, stopWords map[string]struct{}, minCount int) []termCount {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	counts := make(map[string]*termCount)
	order := make([]*termCount, 0)
	for i, w := range words {
		if len(w) <= 3 {
			continue
		}
		if _, stopped := stopWords[w]; stopped {
			continue
		}
		if tc, ok := counts[w]; ok {
			tc.count++
			continue
		}
		tc := &termCount{word: w, count: 1, first: i}
		counts[w] = tc
		order = append(order, tc)
	}

	ranked := make([]termCount, 0, len(order))
	for _, tc := range order {
		if tc.count >= minCount {
			ranked = append(ranked, *tc)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].first < ranked[j].first
	})

	return ranked
}

// findDateTokens 查找文本中日期样式的片段
// 覆盖 DD/DD/YY(YY) 和 YYYY-MM-DD 两种形式
func findDateTokens(text string) []string {
	tokens := slashDatePattern.FindAllString(text, -1)
	tokens = append(tokens, isoDateToken.FindAllString(text, -1)...)
	return dedupe(tokens)
}

// truncate 截断字符串并追加省略号
func truncate(text string, max int) string {
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
