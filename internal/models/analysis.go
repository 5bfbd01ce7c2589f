package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AnalysisStatus 分析任务处理状态类型
type AnalysisStatus string

const (
	// StatusUploaded 文档已上传，等待分析
	StatusUploaded AnalysisStatus = "uploaded"
	// StatusProcessing 分析处理中
	StatusProcessing AnalysisStatus = "processing"
	// StatusCompleted 分析完成
	StatusCompleted AnalysisStatus = "completed"
	// StatusFailed 分析失败
	StatusFailed AnalysisStatus = "failed"
)

// Analysis 文档分析记录数据模型
// 保存单个文档从上传到产出字段和模式的完整状态
type Analysis struct {
	ID            string         `gorm:"primaryKey"`         // 分析记录ID，主键
	FileName      string         `gorm:"not null"`           // 文件名
	FileType      string         `gorm:"not null"`           // 文件类型
	FilePath      string         `gorm:"not null"`           // 文件存储路径
	FileSize      int64          `gorm:"not null"`           // 文件大小（字节）
	PageCount     int            `gorm:"default:0"`          // 页数（仅PDF）
	Status        AnalysisStatus `gorm:"not null;index"`     // 处理状态
	DocumentType  string         `gorm:"size:20;index"`      // 分类结果类别
	Fields        datatypes.JSON `gorm:"type:json"`          // 提取出的有序字段列表，JSON格式
	Schema        datatypes.JSON `gorm:"type:json"`          // 推断出的结构模式，JSON格式
	FullText      string         `gorm:"type:text"`          // 提取出的文档文本
	UploadedAt    time.Time      `gorm:"not null;index"`     // 上传时间
	ProcessedAt   *time.Time     `gorm:"index"`              // 分析完成时间
	UpdatedAt     time.Time      `gorm:"not null;index"`     // 更新时间
	Progress      int            `gorm:"not null;default:0"` // 处理进度（0-100）
	Error         string         `gorm:"type:text"`          // 错误信息
	FailureCause  string         `gorm:"size:30"`            // 失败原因分类
	Tags          string         `gorm:"type:varchar(255)"`  // 标签，逗号分隔
	Metadata      datatypes.JSON `gorm:"type:json"`          // 元数据，JSON格式
	CurrentTaskID string         `gorm:"size:50;index"`      // 当前关联的任务ID
	RetryCount    int            `gorm:"default:0"`          // 重试次数
}

// BeforeCreate GORM的钩子函数，创建记录前自动设置时间
func (a *Analysis) BeforeCreate(tx *gorm.DB) (err error) {
	// 如果上传时间为零值，设置为当前时间
	if a.UploadedAt.IsZero() {
		a.UploadedAt = time.Now()
	}
	// 设置更新时间
	a.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate GORM的钩子函数，更新记录前自动设置更新时间
func (a *Analysis) BeforeUpdate(tx *gorm.DB) (err error) {
	a.UpdatedAt = time.Now()
	return nil
}

// TableName 明确指定表名
func (Analysis) TableName() string {
	return "analyses"
}

// SchemaRecord 独立保存的结构模式模型
// 提示文本生成的模式没有对应的文档分析记录，需要独立存储
type SchemaRecord struct {
	ID         string         `gorm:"primaryKey"`     // 模式记录ID，主键
	Name       string         `gorm:"not null;index"` // 模式名称
	Source     string         `gorm:"size:20"`        // 来源类型：document或prompt
	AnalysisID string         `gorm:"size:50;index"`  // 关联的分析记录ID（可选）
	Prompt     string         `gorm:"type:text"`      // 生成模式的提示文本（可选）
	Definition datatypes.JSON `gorm:"type:json"`      // 模式定义，JSON格式
	CreatedAt  time.Time      `gorm:"not null"`       // 创建时间
	UpdatedAt  time.Time      `gorm:"not null"`       // 更新时间
}

// BeforeCreate GORM的钩子函数，创建记录前自动设置时间
func (s *SchemaRecord) BeforeCreate(tx *gorm.DB) (err error) {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

// BeforeUpdate GORM的钩子函数，更新记录前自动设置更新时间
func (s *SchemaRecord) BeforeUpdate(tx *gorm.DB) (err error) {
	s.UpdatedAt = time.Now()
	return nil
}

// TableName 明确指定表名
func (SchemaRecord) TableName() string {
	return "schema_records"
}
