package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rish560/bytejoule.ai-dashboard/internal/database"
	"github.com/rish560/bytejoule.ai-dashboard/internal/models"
	"github.com/rish560/bytejoule.ai-dashboard/pkg/taskqueue"
)

// analysisRepository 分析记录仓储实现
type analysisRepository struct {
	db        *gorm.DB        // 数据库连接
	taskQueue taskqueue.Queue // 任务队列
	ctx       context.Context // 上下文，可用于事务或超时控制
}

// NewAnalysisRepository 创建分析记录仓储实例
func NewAnalysisRepository() AnalysisRepository {
	return &analysisRepository{
		db:  database.MustDB(),
		ctx: context.Background(),
	}
}

// NewAnalysisRepositoryWithDB 使用指定的数据库连接创建分析记录仓储实例
func NewAnalysisRepositoryWithDB(db *gorm.DB) AnalysisRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &analysisRepository{
		db:  db,
		ctx: context.Background(),
	}
}

// NewAnalysisRepositoryWithQueue 使用指定的数据库连接和任务队列创建分析记录仓储实例
func NewAnalysisRepositoryWithQueue(db *gorm.DB, queue taskqueue.Queue) AnalysisRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &analysisRepository{
		db:        db,
		taskQueue: queue,
		ctx:       context.Background(),
	}
}

// Create 创建分析记录
func (r *analysisRepository) Create(analysis *models.Analysis) error {
	if analysis.ID == "" {
		return errors.New("analysis ID cannot be empty")
	}

	return r.db.Create(analysis).Error
}

// Update 更新分析记录
func (r *analysisRepository) Update(analysis *models.Analysis) error {
	if analysis.ID == "" {
		return errors.New("analysis ID cannot be empty")
	}

	return r.db.Save(analysis).Error
}

// GetByID 根据ID获取分析记录
func (r *analysisRepository) GetByID(id string) (*models.Analysis, error) {
	var analysis models.Analysis
	err := r.db.Where("id = ?", id).First(&analysis).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrAnalysisNotFound
		}
		return nil, err
	}
	return &analysis, nil
}

// List 列出分析记录列表，支持分页和筛选
func (r *analysisRepository) List(offset, limit int, filters map[string]interface{}) ([]*models.Analysis, int64, error) {
	var analyses []*models.Analysis
	var total int64

	// 创建查询构造器
	query := r.db.Model(&models.Analysis{})

	// 应用筛选条件
	if filters != nil {
		// 状态过滤
		if status, ok := filters["status"]; ok {
			// 处理不同类型的status
			switch s := status.(type) {
			case models.AnalysisStatus:
				query = query.Where("status = ?", string(s))
			case string:
				if s != "" {
					query = query.Where("status = ?", s)
				}
			default:
				statusStr := fmt.Sprintf("%v", status)
				if statusStr != "" {
					query = query.Where("status = ?", statusStr)
				}
			}
		}

		// 文档类别过滤
		if docType, ok := filters["document_type"].(string); ok && docType != "" {
			query = query.Where("document_type = ?", docType)
		}

		// 标签过滤
		if tags, ok := filters["tags"].(string); ok && tags != "" {
			// 使用LIKE查询匹配包含指定标签的记录
			query = query.Where("tags LIKE ?", "%"+tags+"%")
		}

		// 时间范围过滤
		if startTime, ok := filters["start_time"].(string); ok && startTime != "" {
			query = query.Where("uploaded_at >= ?", startTime)
		}

		if endTime, ok := filters["end_time"].(string); ok && endTime != "" {
			query = query.Where("uploaded_at <= ?", endTime)
		}

		// 文件名过滤
		if fileName, ok := filters["file_name"].(string); ok && fileName != "" {
			query = query.Where("file_name LIKE ?", "%"+fileName+"%")
		}
	}

	// 获取总数
	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	// 应用排序、分页并执行查询
	err = query.Order("uploaded_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&analyses).Error

	if err != nil {
		return nil, 0, err
	}

	return analyses, total, nil
}

// Delete 删除分析记录
func (r *analysisRepository) Delete(id string) error {
	// 开启事务
	return r.db.Transaction(func(tx *gorm.DB) error {
		// 1. 删除关联的模式记录
		if err := tx.Where("analysis_id = ?", id).Delete(&models.SchemaRecord{}).Error; err != nil {
			return err
		}

		// 2. 删除分析记录
		if err := tx.Where("id = ?", id).Delete(&models.Analysis{}).Error; err != nil {
			return err
		}

		// 3. 如果任务队列已初始化，尝试获取并删除相关任务
		if r.taskQueue != nil {
			ctx := r.getContext()
			tasks, err := r.taskQueue.GetTasksByAnalysis(ctx, id)
			if err == nil && len(tasks) > 0 {
				for _, task := range tasks {
					// 忽略错误，因为任务可能已经被删除
					_ = r.taskQueue.DeleteTask(ctx, task.ID)
				}
			}
		}

		return nil
	})
}

// UpdateStatus 更新分析状态
func (r *analysisRepository) UpdateStatus(id string, status models.AnalysisStatus, errorMsg string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}

	// 如果有错误消息，更新错误字段
	if errorMsg != "" {
		updates["error"] = errorMsg
	}

	// 如果状态是已完成或失败，设置处理完成时间
	if status == models.StatusCompleted || status == models.StatusFailed {
		now := time.Now()
		updates["processed_at"] = &now
	}

	return r.db.Model(&models.Analysis{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// UpdateProgress 更新分析处理进度
func (r *analysisRepository) UpdateProgress(id string, progress int) error {
	// 确保进度在0-100范围内
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	return r.db.Model(&models.Analysis{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"progress":   progress,
			"updated_at": time.Now(),
		}).Error
}

// SaveResult 保存分析结果
// 同时写入类别、字段列表和模式定义，并将进度置为100
func (r *analysisRepository) SaveResult(id string, documentType string, fields, schema []byte) error {
	updates := map[string]interface{}{
		"document_type": documentType,
		"progress":      100,
		"updated_at":    time.Now(),
	}
	if len(fields) > 0 {
		updates["fields"] = fields
	}
	if len(schema) > 0 {
		updates["schema"] = schema
	}

	return r.db.Model(&models.Analysis{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// WithContext 创建带有上下文的仓储
func (r *analysisRepository) WithContext(ctx context.Context) AnalysisRepository {
	return &analysisRepository{
		db:        r.db.WithContext(ctx),
		taskQueue: r.taskQueue,
		ctx:       ctx,
	}
}

// getContext 获取仓储的上下文，如果未设置则使用背景上下文
func (r *analysisRepository) getContext() context.Context {
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

// GetAnalysisTasks 获取分析记录相关的所有任务
func (r *analysisRepository) GetAnalysisTasks(ctx context.Context, analysisID string) ([]*taskqueue.Task, error) {
	if r.taskQueue == nil {
		return nil, errors.New("task queue not initialized")
	}

	return r.taskQueue.GetTasksByAnalysis(ctx, analysisID)
}

// GetTaskByID 根据ID获取任务
func (r *analysisRepository) GetTaskByID(ctx context.Context, taskID string) (*taskqueue.Task, error) {
	if r.taskQueue == nil {
		return nil, errors.New("task queue not initialized")
	}

	return r.taskQueue.GetTask(ctx, taskID)
}

// CreateTask 创建任务并关联到分析记录
func (r *analysisRepository) CreateTask(ctx context.Context, taskType taskqueue.TaskType, analysisID string, payload interface{}) (string, error) {
	if r.taskQueue == nil {
		return "", errors.New("task queue not initialized")
	}

	// 检查分析记录是否存在
	_, err := r.GetByID(analysisID)
	if err != nil {
		return "", err
	}

	// 将任务加入队列
	taskID, err := r.taskQueue.Enqueue(ctx, taskType, analysisID, payload)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}

	// 更新分析状态为处理中
	err = r.UpdateStatus(analysisID, models.StatusProcessing, "")
	if err != nil {
		// 记录错误但继续，因为任务已创建
		fmt.Printf("Failed to update analysis status: %v\n", err)
	}

	return taskID, nil
}

// UpdateTaskStatus 更新任务状态
func (r *analysisRepository) UpdateTaskStatus(ctx context.Context, taskID string, status taskqueue.TaskStatus, result interface{}, errorMsg string) error {
	if r.taskQueue == nil {
		return errors.New("task queue not initialized")
	}

	// 获取任务信息
	task, err := r.taskQueue.GetTask(ctx, taskID)
	if err != nil {
		return err
	}

	// 更新任务状态
	if err := r.taskQueue.UpdateTaskStatus(ctx, taskID, status, result, errorMsg); err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}

	// 通知任务状态更新
	if err := r.taskQueue.NotifyTaskUpdate(ctx, taskID); err != nil {
		// 记录错误但继续，通知失败不是致命错误
		fmt.Printf("Failed to notify task update: %v\n", err)
	}

	// 根据任务状态同步分析状态
	if task.AnalysisID != "" {
		var analysisStatus models.AnalysisStatus
		var analysisError string

		switch status {
		case taskqueue.StatusCompleted:
			analysisStatus = models.StatusCompleted
		case taskqueue.StatusFailed:
			analysisStatus = models.StatusFailed
			analysisError = errorMsg
		case taskqueue.StatusProcessing:
			analysisStatus = models.StatusProcessing
		default:
			// 对于其他状态，不更新分析状态
			return nil
		}

		err = r.UpdateStatus(task.AnalysisID, analysisStatus, analysisError)
		if err != nil {
			return fmt.Errorf("failed to update analysis status: %w", err)
		}
	}

	return nil
}

// DeleteTask 删除任务
func (r *analysisRepository) DeleteTask(ctx context.Context, taskID string) error {
	if r.taskQueue == nil {
		return errors.New("task queue not initialized")
	}

	return r.taskQueue.DeleteTask(ctx, taskID)
}
