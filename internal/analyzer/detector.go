package analyzer

// Detector 模式检测器接口
// 对原始文本做一次纯函数检查，可选地贡献一个模式字段
type Detector interface {
	// Name 检测器名称，用于日志
	Name() string

	// Detect 检查文本并返回模式字段
	// 第二个返回值表示检测器是否命中
	Detect(text string, lines []string) (SchemaField, bool)
}

// newDetectors 按固定顺序构造检测器集合
// 顺序: KeyValue → StructuredData → Date → Numeric → Contact → Category → Entity
func newDetectors(cfg Config) []Detector {
	return []Detector{
		&KeyValueDetector{maxKeyLength: cfg.MaxKeyLength},
		&StructuredDataDetector{},
		&DateDetector{},
		&NumericDetector{},
		&ContactDetector{},
		&CategoryDetector{stopWords: stopWordSet(cfg.StopWords)},
		&EntityDetector{maxCount: cfg.MaxEntityCount},
	}
}

// fallbackField 所有检测器都未命中时的兜底模式字段
// 子字段描述文档的预期结构，不携带解析后的值
func fallbackField() SchemaField {
	return SchemaField{
		Name:        "document_content",
		Type:        TypeObject,
		Description: "Generic document content structure",
		SubFields: []SchemaField{
			{Name: "full_text", Type: TypeString, Description: "Complete text content of the document"},
			{Name: "line_count", Type: TypeNumber, Description: "Number of lines in the document"},
			{Name: "word_count", Type: TypeNumber, Description: "Number of words in the document"},
			{Name: "content_sections", Type: TypeArray, Description: "Logical sections of the document content"},
		},
	}
}
