package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rish560/bytejoule.ai-dashboard/internal/models"
	"github.com/rish560/bytejoule.ai-dashboard/internal/repository"
)

// AnalysisStatusManager 分析状态管理器
// 负责管理分析记录处理的生命周期状态
type AnalysisStatusManager struct {
	repo   repository.AnalysisRepository // 分析记录仓储接口
	logger *logrus.Logger                // 日志记录器
	mu     sync.Mutex                    // 互斥锁，保证状态转换的原子性
}

// NewAnalysisStatusManager 创建分析状态管理器
func NewAnalysisStatusManager(repo repository.AnalysisRepository, logger *logrus.Logger) *AnalysisStatusManager {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.InfoLevel)
	}

	return &AnalysisStatusManager{
		repo:   repo,
		logger: logger,
	}
}

// MarkAsUploaded 将记录标记为已上传状态
func (m *AnalysisStatusManager) MarkAsUploaded(ctx context.Context, id string, fileName string, filePath string, fileSize int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"analysis_id": id,
		"filename":    fileName,
	}).Info("Marking analysis as uploaded")

	// 创建新的分析记录
	analysis := &models.Analysis{
		ID:         id,
		FileName:   fileName,
		FileType:   getFileType(fileName),
		FilePath:   filePath,
		FileSize:   fileSize,
		Status:     models.StatusUploaded,
		UploadedAt: time.Now(),
		UpdatedAt:  time.Now(),
		Progress:   0,
	}

	// 保存到仓储
	return m.repo.Create(analysis)
}

// MarkAsProcessing 将记录标记为处理中状态
func (m *AnalysisStatusManager) MarkAsProcessing(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 获取当前记录
	analysis, err := m.repo.GetByID(id)
	if err != nil {
		return fmt.Errorf("failed to get analysis: %w", err)
	}

	// 检查状态转换的有效性，失败记录允许重试
	if analysis.Status != models.StatusUploaded && analysis.Status != models.StatusFailed {
		return fmt.Errorf("invalid state transition: analysis %s is in %s state, expected %s",
			id, analysis.Status, models.StatusUploaded)
	}

	m.logger.WithField("analysis_id", id).Info("Marking analysis as processing")

	// 更新状态
	return m.repo.UpdateStatus(id, models.StatusProcessing, "")
}

// MarkAsCompleted 将记录标记为处理完成状态
func (m *AnalysisStatusManager) MarkAsCompleted(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 获取当前记录
	analysis, err := m.repo.GetByID(id)
	if err != nil {
		return fmt.Errorf("failed to get analysis: %w", err)
	}

	// 检查状态转换的有效性
	if analysis.Status != models.StatusProcessing && analysis.Status != models.StatusUploaded {
		return fmt.Errorf("invalid state transition: analysis %s is in %s state, expected %s or %s",
			id, analysis.Status, models.StatusProcessing, models.StatusUploaded)
	}

	m.logger.WithField("analysis_id", id).Info("Marking analysis as completed")

	// 更新状态
	if err := m.repo.UpdateStatus(id, models.StatusCompleted, ""); err != nil {
		return err
	}

	return m.repo.UpdateProgress(id, 100)
}

// MarkAsFailed 将记录标记为处理失败状态
// failureCause为分类后的失败原因，便于前端和导出区分降级类型
func (m *AnalysisStatusManager) MarkAsFailed(ctx context.Context, id string, errorMsg string, failureCause string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 获取当前记录
	analysis, err := m.repo.GetByID(id)
	if err != nil {
		return fmt.Errorf("failed to get analysis: %w", err)
	}

	m.logger.WithFields(logrus.Fields{
		"analysis_id":   id,
		"error":         errorMsg,
		"failure_cause": failureCause,
	}).Error("Marking analysis as failed")

	if failureCause != "" {
		analysis.FailureCause = failureCause
		if err := m.repo.Update(analysis); err != nil {
			m.logger.WithError(err).Warn("Failed to persist failure cause")
		}
	}

	// 更新状态
	return m.repo.UpdateStatus(id, models.StatusFailed, errorMsg)
}

// UpdateProgress 更新分析处理进度
func (m *AnalysisStatusManager) UpdateProgress(ctx context.Context, id string, progress int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 获取当前记录
	analysis, err := m.repo.GetByID(id)
	if err != nil {
		return fmt.Errorf("failed to get analysis: %w", err)
	}

	// 只有处理中的记录才能更新进度
	if analysis.Status != models.StatusProcessing {
		return fmt.Errorf("cannot update progress: analysis %s is not in processing state", id)
	}

	m.logger.WithFields(logrus.Fields{
		"analysis_id": id,
		"progress":    progress,
	}).Debug("Updating analysis progress")

	// 更新进度
	return m.repo.UpdateProgress(id, progress)
}

// GetStatus 获取分析当前状态
func (m *AnalysisStatusManager) GetStatus(ctx context.Context, id string) (models.AnalysisStatus, error) {
	analysis, err := m.repo.GetByID(id)
	if err != nil {
		return "", fmt.Errorf("failed to get analysis status: %w", err)
	}
	return analysis.Status, nil
}

// GetAnalysis 获取完整的分析记录
func (m *AnalysisStatusManager) GetAnalysis(ctx context.Context, id string) (*models.Analysis, error) {
	return m.repo.GetByID(id)
}

// ListAnalyses 获取分析记录列表
func (m *AnalysisStatusManager) ListAnalyses(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Analysis, int64, error) {
	return m.repo.List(offset, limit, filters)
}

// DeleteAnalysis 删除分析记录
func (m *AnalysisStatusManager) DeleteAnalysis(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.WithField("analysis_id", id).Info("Deleting analysis record")
	return m.repo.Delete(id)
}

// ValidateStateTransition 验证状态转换的有效性
func (m *AnalysisStatusManager) ValidateStateTransition(from, to models.AnalysisStatus) error {
	// 定义有效的状态转换
	validTransitions := map[models.AnalysisStatus][]models.AnalysisStatus{
		models.StatusUploaded: {
			models.StatusProcessing,
			models.StatusCompleted, // 小文件可能直接完成
			models.StatusFailed,    // 上传后可能立即失败
		},
		models.StatusProcessing: {
			models.StatusCompleted,
			models.StatusFailed,
		},
		// 终态
		models.StatusCompleted: {},
		models.StatusFailed:    {models.StatusProcessing}, // 允许重试
	}

	// 检查是否是有效转换
	allowed := false
	for _, validTo := range validTransitions[from] {
		if validTo == to {
			allowed = true
			break
		}
	}

	if !allowed {
		return errors.New("invalid state transition")
	}

	return nil
}

// getFileType 根据文件名获取文件类型
func getFileType(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return strings.TrimPrefix(ext, ".")
}
