package analyzer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// 各类别提取器使用的正则
var (
	invoiceNumberPattern = regexp.MustCompile(`(?i)invoice\s*#?\s*:?\s*([A-Z0-9-]+)`)
	amountPattern        = regexp.MustCompile(`\$?\d+(?:,\d{3})*(?:\.\d+)?`)
	yearsExpPattern      = regexp.MustCompile(`(?i)(\d+)\s*years?\s*(?:of\s*)?experience`)
	skillsHeaderPattern  = regexp.MustCompile(`(?i)^skills?\b`)
	headerLinePattern    = regexp.MustCompile(`^[A-Za-z][A-Za-z ]{0,29}:?\s*$`)
	partiesPattern       = regexp.MustCompile(`(?i)between\s+([^,\n]+)\s+and\s+([^,\n]+)`)
	contractDatePattern  = regexp.MustCompile(`(?i)dated?\s+([A-Za-z]+ \d{1,2},? \d{4})`)
	contractTermPattern  = regexp.MustCompile(`(?i)term of (\d+) (years?|months?)`)
	periodPattern        = regexp.MustCompile(`(?i)for the (?:year|quarter|month) ended? [A-Za-z]+ \d{1,2},? \d{4}`)
	revenuePattern       = regexp.MustCompile(`(?i)revenues?\s*:?\s*\$?([\d,]+(?:\.\d+)?)`)
	netIncomePattern     = regexp.MustCompile(`(?i)net income\s*:?\s*\$?([\d,]+(?:\.\d+)?)`)
	authorsPattern       = regexp.MustCompile(`(?i)authors?\s*:?\s*([^.\n]+)`)
	abstractPattern      = regexp.MustCompile(`(?i)abstract\s*:?\s*`)
	citationPattern      = regexp.MustCompile(`\[\d+\]`)
)

// extractorFunc 单个类别的字段提取函数
// 不匹配的模式只会缺省对应字段，不会返回错误
type extractorFunc func(text string, lines []string, cfg Config) []Field

// extractors 类别到提取器的映射
func extractors() map[DocumentCategory]extractorFunc {
	return map[DocumentCategory]extractorFunc{
		CategoryInvoice:   extractInvoice,
		CategoryResume:    extractResume,
		CategoryContract:  extractContract,
		CategoryFinancial: extractFinancial,
		CategoryResearch:  extractResearch,
		CategoryForm:      extractForm,
		CategoryGeneral:   extractGeneral,
	}
}

// appendField 追加非空字段，保持插入顺序
func appendField(fields []Field, name, value string) []Field {
	if value == "" {
		return fields
	}
	return append(fields, Field{Name: name, Value: value})
}

// extractInvoice 发票字段提取
// 注意Total Amount取全文数字的最大值，可能选中无关的大数（如页码），
// 这是源行为的已知启发式局限，按原样保留
func extractInvoice(text string, lines []string, cfg Config) []Field {
	fields := []Field{{Name: "Document Type", Value: string(CategoryInvoice)}}

	if m := invoiceNumberPattern.FindStringSubmatch(text); m != nil {
		fields = appendField(fields, "Invoice Number", m[1])
	}
	if m := slashDatePattern.FindString(text); m != "" {
		fields = appendField(fields, "Date", m)
	}
	if total, ok := maxAmount(text); ok {
		fields = appendField(fields, "Total Amount", fmt.Sprintf("$%.2f", total))
	}
	if len(lines) > 0 {
		fields = appendField(fields, "Company", lines[0])
	}

	return appendField(fields, "Word Count", strconv.Itoa(countWords(text)))
}

// maxAmount 找出文本中数字样式片段的最大值
func maxAmount(text string) (float64, bool) {
	matches := amountPattern.FindAllString(text, -1)
	var max float64
	found := false
	for _, m := range matches {
		m = strings.TrimPrefix(m, "$")
		m = strings.ReplaceAll(m, ",", "")
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		if !found || v > max {
			max = v
			found = true
		}
	}
	return max, found
}

// extractResume 简历字段提取
func extractResume(text string, lines []string, cfg Config) []Field {
	fields := []Field{{Name: "Document Type", Value: string(CategoryResume)}}

	if len(lines) > 0 {
		fields = appendField(fields, "Candidate Name", lines[0])
	}
	if m := emailPattern.FindString(text); m != "" {
		fields = appendField(fields, "Email", m)
	}
	if m := phonePattern.FindString(text); m != "" {
		fields = appendField(fields, "Phone", strings.TrimSpace(m))
	}
	if m := yearsExpPattern.FindStringSubmatch(text); m != nil {
		fields = appendField(fields, "Years of Experience", m[1])
	}
	if skills := extractSkills(text); skills != "" {
		fields = appendField(fields, "Key Skills", skills)
	}

	return appendField(fields, "Word Count", strconv.Itoa(countWords(text)))
}

// extractSkills 提取skills标题之后的技能列表
// 收集到下一个空行或标题行为止，取前5个非空条目
func extractSkills(text string) string {
	lines := rawLines(text)

	var collected []string
	collecting := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if !collecting {
			if skillsHeaderPattern.MatchString(trimmed) {
				collecting = true
				// 标题行冒号之后可能直接跟着内容
				if idx := strings.Index(trimmed, ":"); idx >= 0 && idx < len(trimmed)-1 {
					collected = append(collected, trimmed[idx+1:])
				}
			}
			continue
		}

		if trimmed == "" || headerLinePattern.MatchString(trimmed) {
			break
		}
		collected = append(collected, trimmed)
	}

	if len(collected) == 0 {
		return ""
	}

	var tokens []string
	for _, chunk := range collected {
		for _, tok := range strings.FieldsFunc(chunk, func(r rune) bool {
			return r == ',' || r == '\n'
		}) {
			tok = strings.TrimSpace(tok)
			if tok != "" {
				tokens = append(tokens, tok)
			}
		}
	}

	return strings.Join(limit(tokens, 5), ", ")
}

// extractContract 合同字段提取
// 双方分组中第一个分组是贪婪匹配：段落含多个" and "时在最后一个处切分
func extractContract(text string, lines []string, cfg Config) []Field {
	fields := []Field{{Name: "Document Type", Value: string(CategoryContract)}}

	if m := partiesPattern.FindStringSubmatch(text); m != nil {
		fields = appendField(fields, "Party 1", strings.TrimSpace(m[1]))
		fields = appendField(fields, "Party 2", strings.TrimSpace(m[2]))
	}
	if m := contractDatePattern.FindStringSubmatch(text); m != nil {
		fields = appendField(fields, "Contract Date", m[1])
	}
	if m := contractTermPattern.FindStringSubmatch(text); m != nil {
		fields = appendField(fields, "Contract Term", m[1]+" "+strings.ToLower(m[2]))
	}

	return appendField(fields, "Word Count", strconv.Itoa(countWords(text)))
}

// extractFinancial 财务报表字段提取
func extractFinancial(text string, lines []string, cfg Config) []Field {
	fields := []Field{{Name: "Document Type", Value: string(CategoryFinancial)}}

	if m := periodPattern.FindString(text); m != "" {
		fields = appendField(fields, "Period", m)
	}
	if m := revenuePattern.FindStringSubmatch(text); m != nil {
		fields = appendField(fields, "Revenue", "$"+m[1])
	}
	if m := netIncomePattern.FindStringSubmatch(text); m != nil {
		fields = appendField(fields, "Net Income", "$"+m[1])
	}

	return appendField(fields, "Word Count", strconv.Itoa(countWords(text)))
}

// extractResearch 研究论文字段提取
func extractResearch(text string, lines []string, cfg Config) []Field {
	fields := []Field{{Name: "Document Type", Value: string(CategoryResearch)}}

	for _, line := range lines {
		if len(line) > 20 && !strings.Contains(strings.ToLower(line), "university") {
			fields = appendField(fields, "Paper Title", line)
			break
		}
	}
	if m := authorsPattern.FindStringSubmatch(text); m != nil {
		fields = appendField(fields, "Authors", strings.TrimSpace(m[1]))
	}
	if loc := abstractPattern.FindStringIndex(text); loc != nil {
		abstract := strings.TrimSpace(text[loc[1]:])
		if abstract != "" {
			fields = appendField(fields, "Abstract Preview", truncate(abstract, 200))
		}
	}
	if refs := citationPattern.FindAllString(text, -1); len(refs) > 0 {
		fields = appendField(fields, "Reference Count", strconv.Itoa(len(refs)))
	}

	return appendField(fields, "Word Count", strconv.Itoa(countWords(text)))
}

// extractForm 表单字段提取
func extractForm(text string, lines []string, cfg Config) []Field {
	fields := []Field{{Name: "Document Type", Value: string(CategoryForm)}}

	blanks := underscoreRun.FindAllString(text, -1)
	fields = appendField(fields, "Blank Fields", strconv.Itoa(len(blanks)))

	if len(lines) > 0 {
		fields = appendField(fields, "Form Title", lines[0])
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "signature") {
		fields = appendField(fields, "Requires Signature", "Yes")
	}
	if strings.Contains(lower, "date") {
		fields = appendField(fields, "Requires Date", "Yes")
	}

	return appendField(fields, "Word Count", strconv.Itoa(countWords(text)))
}

// extractGeneral 通用文档字段提取（默认回退类别）
func extractGeneral(text string, lines []string, cfg Config) []Field {
	fields := []Field{{Name: "Document Type", Value: string(CategoryGeneral)}}

	if len(lines) > 0 {
		fields = appendField(fields, "Document Title", lines[0])
	}
	if dates := limit(findDateTokens(text), 3); len(dates) > 0 {
		fields = appendField(fields, "Dates Found", strings.Join(dates, ", "))
	}
	if emails := limit(dedupe(emailPattern.FindAllString(text, -1)), 2); len(emails) > 0 {
		fields = appendField(fields, "Email Addresses", strings.Join(emails, ", "))
	}
	if phones := limit(dedupe(phonePattern.FindAllString(text, -1)), 2); len(phones) > 0 {
		fields = appendField(fields, "Phone Numbers", strings.Join(phones, ", "))
	}

	fields = appendField(fields, "Word Count", strconv.Itoa(countWords(text)))
	fields = appendField(fields, "Sentence Count", strconv.Itoa(countSentences(text)))

	ranked := rankTerms(text, stopWordSet(cfg.StopWords), 1)
	if len(ranked) > 0 {
		terms := make([]string, 0, 5)
		for _, tc := range ranked {
			terms = append(terms, tc.word)
			if len(terms) == 5 {
				break
			}
		}
		fields = appendField(fields, "Key Terms", strings.Join(terms, ", "))
	}

	return fields
}
