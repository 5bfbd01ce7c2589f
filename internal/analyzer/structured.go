package analyzer

import (
	"fmt"
	"regexp"
	"strings"
)

// 结构化内容识别模式
var (
	columnSplitPattern = regexp.MustCompile(`\t+|\s{3,}`)
	bulletPattern      = regexp.MustCompile(`^[-•*]\s+`)
	numberedPattern    = regexp.MustCompile(`^\d+\.\s+`)
)

// sectionKind 扫描状态机的分节类型
type sectionKind int

const (
	noSection sectionKind = iota // 无活动分节
	tableSection                 // 正在累积表格行
	listSection                  // 正在累积列表项
)

// section 已收集的结构化分节
type section struct {
	kind  sectionKind
	items []string
}

// StructuredDataDetector 结构化数据检测器
// 用显式状态机扫描行，把连续的表格行和列表项收集为分节
type StructuredDataDetector struct{}

// Name 实现Detector接口
func (d *StructuredDataDetector) Name() string { return "structured_data" }

// Detect 检测表格和列表分节
func (d *StructuredDataDetector) Detect(text string, lines []string) (SchemaField, bool) {
	var (
		sections []section
		state    = noSection
		current  section
	)

	// 关闭当前分节并记录
	closeSection := func() {
		if state != noSection && len(current.items) > 0 {
			sections = append(sections, current)
		}
		state = noSection
		current = section{}
	}

	for _, line := range rawLines(text) {
		trimmed := strings.TrimSpace(line)
		kind, item := classifyLine(trimmed)

		if kind != state {
			closeSection()
		}
		if kind == noSection {
			continue
		}
		if state == noSection {
			state = kind
			current = section{kind: kind}
		}
		current.items = append(current.items, item)
	}
	closeSection()

	if len(sections) == 0 {
		return SchemaField{}, false
	}

	var (
		subFields []SchemaField
		tableNum  int
		listNum   int
	)
	for _, sec := range sections {
		var name, tag string
		if sec.kind == tableSection {
			tableNum++
			name = fmt.Sprintf("table_section_%d", tableNum)
			tag = "table"
		} else {
			listNum++
			name = fmt.Sprintf("list_section_%d", listNum)
			tag = "list"
		}
		subFields = append(subFields, SchemaField{
			Name:        name,
			Type:        TypeArray,
			Description: fmt.Sprintf("Detected %s with %d rows", tag, len(sec.items)),
			Examples:    sec.items,
		})
	}

	return SchemaField{
		Name:        "structured_data",
		Type:        TypeObject,
		Description: "Table and list structures detected in the document",
		SubFields:   subFields,
	}, true
}

// classifyLine 对单行做结构分类
// 表格判定优先于列表：按制表符或3个以上空格切分出超过2个非空列即为表格行
func classifyLine(line string) (sectionKind, string) {
	if line == "" {
		return noSection, ""
	}

	cols := 0
	for _, c := range columnSplitPattern.Split(line, -1) {
		if strings.TrimSpace(c) != "" {
			cols++
		}
	}
	if cols > 2 {
		return tableSection, line
	}

	if bulletPattern.MatchString(line) || numberedPattern.MatchString(line) {
		return listSection, line
	}

	return noSection, ""
}
