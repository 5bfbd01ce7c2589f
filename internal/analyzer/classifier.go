package analyzer

import (
	"regexp"
	"strings"
)

// Classifier 文档分类器
// 按固定优先级的关键词规则给文本分配一个类别
type Classifier struct {
	rules []compiledRule
}

// compiledRule 预编译的分类规则
type compiledRule struct {
	category DocumentCategory
	keywords []string
	pattern  *regexp.Regexp
}

// NewClassifier 根据规则创建分类器
// 规则顺序即匹配优先级，第一个命中的类别生效
func NewClassifier(rules []CategoryRule) *Classifier {
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		cr := compiledRule{
			category: rule.Category,
			keywords: make([]string, 0, len(rule.Keywords)),
		}
		for _, kw := range rule.Keywords {
			cr.keywords = append(cr.keywords, strings.ToLower(kw))
		}
		if rule.Pattern != "" {
			cr.pattern = regexp.MustCompile(rule.Pattern)
		}
		compiled = append(compiled, cr)
	}
	return &Classifier{rules: compiled}
}

// Classify 对文本进行分类
// 所有规则都未命中时返回General
func (c *Classifier) Classify(text string) DocumentCategory {
	lower := strings.ToLower(text)

	for _, rule := range c.rules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
		if rule.pattern != nil && rule.pattern.MatchString(text) {
			return rule.category
		}
	}

	return CategoryGeneral
}
