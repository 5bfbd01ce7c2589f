package analyzer

// Config 分析引擎配置
// 关键词集合和停用词作为显式配置注入，便于测试替换
type Config struct {
	ClassifierRules []CategoryRule // 分类规则，按优先级排列
	StopWords       []string       // 词频分析使用的停用词
	MaxInputBytes   int            // 输入文本长度上限（字节），超出部分截断
	MaxKeyLength    int            // 键值对检测的键长度上限
	PreviewLength   int            // 模式内容预览长度（字符）
	MaxEntityCount  int            // 实体检测每类结果数量上限
}

// CategoryRule 单个类别的分类规则
// 文本命中任意关键词即归入该类别
type CategoryRule struct {
	Category DocumentCategory // 目标类别
	Keywords []string         // 关键词集合（逻辑或）
	Pattern  string           // 附加正则模式（可选，如表单的下划线空白栏）
}

// DefaultConfig 返回默认引擎配置
// 分类优先级: Invoice > Resume > Contract > Financial > Research > Form
func DefaultConfig() Config {
	return Config{
		ClassifierRules: []CategoryRule{
			{Category: CategoryInvoice, Keywords: []string{"invoice", "bill", "amount due", "total:"}},
			{Category: CategoryResume, Keywords: []string{"experience", "education", "skills", "resume"}},
			{Category: CategoryContract, Keywords: []string{"agreement", "contract", "terms and conditions"}},
			{Category: CategoryFinancial, Keywords: []string{"balance sheet", "income statement", "revenue"}},
			{Category: CategoryResearch, Keywords: []string{"abstract", "references", "methodology"}},
			{Category: CategoryForm, Keywords: []string{"form", "signature"}, Pattern: `_{3,}`},
		},
		StopWords: []string{
			"the", "and", "that", "have", "for", "not", "with", "you",
			"this", "but", "his", "from", "they", "she", "her", "been",
			"than", "its", "are", "was", "were", "will",
		},
		MaxInputBytes:  1 << 20, // 1MiB，限制正则回溯开销
		MaxKeyLength:   49,
		PreviewLength:  150,
		MaxEntityCount: 10,
	}
}

// stopWordSet 将停用词列表转换为查找集合
func stopWordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
