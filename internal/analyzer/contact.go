package analyzer

import (
	"regexp"
	"strings"
)

// nanpPhonePattern 北美编号计划样式的电话号码，可选+1前缀
var nanpPhonePattern = regexp.MustCompile(`(?:\+1[\s.-]?)?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}\b`)

// ContactDetector 联系方式检测器
// 收集去重后的邮箱、电话和URL；只有邮箱或电话非空时才算命中，
// URL单独出现不触发，但命中时会一并输出
type ContactDetector struct{}

// Name 实现Detector接口
func (d *ContactDetector) Name() string { return "contact" }

// Detect 检测文本中的联系方式
func (d *ContactDetector) Detect(text string, lines []string) (SchemaField, bool) {
	emails := dedupe(emailPattern.FindAllString(text, -1))

	var phones []string
	for _, m := range nanpPhonePattern.FindAllString(text, -1) {
		phones = append(phones, strings.TrimSpace(m))
	}
	phones = dedupe(phones)

	urls := dedupe(urlPattern.FindAllString(text, -1))

	if len(emails) == 0 && len(phones) == 0 {
		return SchemaField{}, false
	}

	var subFields []SchemaField
	if len(emails) > 0 {
		subFields = append(subFields, SchemaField{
			Name:        "emails",
			Type:        TypeArray,
			Description: "Email addresses found in the document",
			Examples:    emails,
		})
	}
	if len(phones) > 0 {
		subFields = append(subFields, SchemaField{
			Name:        "phone_numbers",
			Type:        TypeArray,
			Description: "Phone numbers found in the document",
			Examples:    phones,
		})
	}
	if len(urls) > 0 {
		subFields = append(subFields, SchemaField{
			Name:        "urls",
			Type:        TypeArray,
			Description: "URLs found in the document",
			Examples:    urls,
		})
	}

	return SchemaField{
		Name:        "contact_information",
		Type:        TypeObject,
		Description: "Contact details detected in the document",
		SubFields:   subFields,
	}, true
}
