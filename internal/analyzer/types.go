package analyzer

// DocumentCategory 文档分类类别
// 每次分析只会命中一个类别，按固定优先级匹配
type DocumentCategory string

const (
	// CategoryInvoice 发票类文档
	CategoryInvoice DocumentCategory = "Invoice"
	// CategoryResume 简历类文档
	CategoryResume DocumentCategory = "Resume"
	// CategoryContract 合同类文档
	CategoryContract DocumentCategory = "Contract"
	// CategoryFinancial 财务报表类文档
	CategoryFinancial DocumentCategory = "Financial"
	// CategoryResearch 研究论文类文档
	CategoryResearch DocumentCategory = "Research"
	// CategoryForm 表单类文档
	CategoryForm DocumentCategory = "Form"
	// CategoryGeneral 通用类文档（默认回退类别）
	CategoryGeneral DocumentCategory = "General"
)

// FieldType 字段类型标签
// 模式字段使用 object/array/string/number/boolean，
// 值类型推断还会产生 integer/date/email/url
type FieldType string

const (
	TypeObject  FieldType = "object"
	TypeArray   FieldType = "array"
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeInteger FieldType = "integer"
	TypeDate    FieldType = "date"
	TypeEmail   FieldType = "email"
	TypeURL     FieldType = "url"
)

// Field 提取结果中的单个字段
// 使用有序切片而非map，字段顺序就是检测顺序
type Field struct {
	Name  string `json:"name"`  // 字段名称
	Value string `json:"value"` // 字段值，不会为空字符串
}

// ExtractionResult 文档字段提取结果
// 由分类器选择提取器变体后产生
type ExtractionResult struct {
	FileName     string           `json:"file_name"`     // 源文件名
	FileSize     string           `json:"file_size"`     // 格式化后的文件大小，如 "12.5 KB"
	PageCount    int              `json:"page_count"`    // 页数
	DocumentType DocumentCategory `json:"document_type"` // 文档类别
	Fields       []Field          `json:"fields"`        // 有序字段列表
	FullText     string           `json:"full_text"`     // 完整文本内容
}

// Get 按名称查找字段值
// 返回值和是否存在的标志
func (r ExtractionResult) Get(name string) (string, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// SchemaField 推断出的结构化模式字段
// 子字段最多嵌套一层
type SchemaField struct {
	Name        string        `json:"name"`                 // 字段名称
	Type        FieldType     `json:"type"`                 // 字段类型标签
	Description string        `json:"description"`          // 字段描述
	SubFields   []SchemaField `json:"sub_fields,omitempty"` // 有序子字段列表（可选）
	Examples    []string      `json:"examples,omitempty"`   // 示例值列表（可选）
}

// Schema 文档结构模式
// 描述文档文本中推断出的潜在结构
type Schema struct {
	Name              string        `json:"name"`               // 模式名称
	SourceDescription string        `json:"source_description"` // 来源描述
	ContentPreview    string        `json:"content_preview"`    // 内容预览
	Fields            []SchemaField `json:"fields"`             // 有序模式字段列表
}

// Field 按名称查找模式字段
func (s Schema) Field(name string) (SchemaField, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return SchemaField{}, false
}

// SubField 按名称查找子字段
func (f SchemaField) SubField(name string) (SchemaField, bool) {
	for _, sub := range f.SubFields {
		if sub.Name == name {
			return sub, true
		}
	}
	return SchemaField{}, false
}

// Input 分析引擎的输入
// Text为空时模式推断会退回使用Prompt文本
type Input struct {
	Text      string // 已解码的UTF-8文档文本
	FileName  string // 源文件名（可选）
	FileSize  int64  // 文件大小（字节，可选）
	PageCount int    // 页数（可选）
	Prompt    string // 自然语言提示文本（可选，仅模式推断使用）
}
