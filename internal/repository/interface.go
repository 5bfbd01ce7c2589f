package repository

import (
	"context"

	"github.com/rish560/bytejoule.ai-dashboard/internal/models"
	"github.com/rish560/bytejoule.ai-dashboard/pkg/taskqueue"
)

// AnalysisRepository 分析记录仓储接口
// 负责分析记录元数据和结果的存储和检索
type AnalysisRepository interface {
	// Create 创建分析记录
	Create(analysis *models.Analysis) error

	// Update 更新分析记录
	Update(analysis *models.Analysis) error

	// GetByID 根据ID获取分析记录
	GetByID(id string) (*models.Analysis, error)

	// List 列出分析记录列表，支持分页和筛选
	List(offset, limit int, filters map[string]interface{}) ([]*models.Analysis, int64, error)

	// Delete 删除分析记录
	Delete(id string) error

	// UpdateStatus 更新分析状态
	UpdateStatus(id string, status models.AnalysisStatus, errorMsg string) error

	// UpdateProgress 更新分析处理进度
	UpdateProgress(id string, progress int) error

	// SaveResult 保存分析结果（类别、字段和模式）
	SaveResult(id string, documentType string, fields, schema []byte) error

	// CreateTask 创建任务并关联到分析记录
	CreateTask(ctx context.Context, taskType taskqueue.TaskType, analysisID string, payload interface{}) (string, error)

	// GetTaskByID 根据ID获取任务
	GetTaskByID(ctx context.Context, taskID string) (*taskqueue.Task, error)

	// GetAnalysisTasks 获取分析记录相关的所有任务
	GetAnalysisTasks(ctx context.Context, analysisID string) ([]*taskqueue.Task, error)

	// UpdateTaskStatus 更新任务状态并同步分析状态
	UpdateTaskStatus(ctx context.Context, taskID string, status taskqueue.TaskStatus, result interface{}, errorMsg string) error

	// DeleteTask 删除任务
	DeleteTask(ctx context.Context, taskID string) error

	// WithContext 创建带有上下文的仓储
	WithContext(ctx context.Context) AnalysisRepository
}

// SchemaRepository 模式记录仓储接口
// 独立于分析记录存储推断出的结构模式
type SchemaRepository interface {
	// Create 创建模式记录
	Create(record *models.SchemaRecord) error

	// GetByID 根据ID获取模式记录
	GetByID(id string) (*models.SchemaRecord, error)

	// GetByAnalysisID 获取分析记录关联的模式
	GetByAnalysisID(analysisID string) (*models.SchemaRecord, error)

	// List 列出模式记录
	List(offset, limit int) ([]*models.SchemaRecord, int64, error)

	// Delete 删除模式记录
	Delete(id string) error
}
