package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rish560/bytejoule.ai-dashboard/internal/models"
	"github.com/rish560/bytejoule.ai-dashboard/internal/repository"
)

// setupStatusManager 构建带内存数据库的状态管理器
func setupStatusManager(t *testing.T) *AnalysisStatusManager {
	t.Helper()

	dbName := fmt.Sprintf("file:status_test_%d?mode=memory", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err, "Failed to open in-memory database")

	err = db.AutoMigrate(&models.Analysis{}, &models.SchemaRecord{})
	require.NoError(t, err, "Failed to run migrations")

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	return NewAnalysisStatusManager(repository.NewAnalysisRepositoryWithDB(db), logger)
}

// TestStatusLifecycle 测试完整的状态流转
func TestStatusLifecycle(t *testing.T) {
	manager := setupStatusManager(t)
	ctx := context.Background()
	id := "lifecycle-test"

	// 已上传
	err := manager.MarkAsUploaded(ctx, id, "report.pdf", "2023/01/15/report.pdf", 2048)
	require.NoError(t, err)

	status, err := manager.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUploaded, status)

	record, err := manager.GetAnalysis(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "pdf", record.FileType)
	assert.Equal(t, int64(2048), record.FileSize)

	// 处理中
	require.NoError(t, manager.MarkAsProcessing(ctx, id))
	status, _ = manager.GetStatus(ctx, id)
	assert.Equal(t, models.StatusProcessing, status)

	// 进度更新
	require.NoError(t, manager.UpdateProgress(ctx, id, 40))
	record, _ = manager.GetAnalysis(ctx, id)
	assert.Equal(t, 40, record.Progress)

	// 已完成
	require.NoError(t, manager.MarkAsCompleted(ctx, id))
	record, _ = manager.GetAnalysis(ctx, id)
	assert.Equal(t, models.StatusCompleted, record.Status)
	assert.Equal(t, 100, record.Progress)
	assert.NotNil(t, record.ProcessedAt)
}

// TestMarkAsFailedWithCause 测试失败标记携带失败原因
func TestMarkAsFailedWithCause(t *testing.T) {
	manager := setupStatusManager(t)
	ctx := context.Background()
	id := "failed-test"

	require.NoError(t, manager.MarkAsUploaded(ctx, id, "broken.pdf", "2023/01/15/broken.pdf", 100))
	require.NoError(t, manager.MarkAsProcessing(ctx, id))

	err := manager.MarkAsFailed(ctx, id, "invalid file signature", "invalid_signature")
	require.NoError(t, err)

	record, err := manager.GetAnalysis(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, record.Status)
	assert.Equal(t, "invalid file signature", record.Error)
	assert.Equal(t, "invalid_signature", record.FailureCause)
	assert.NotNil(t, record.ProcessedAt)
}

// TestRetryAfterFailure 测试失败记录允许重新进入处理状态
func TestRetryAfterFailure(t *testing.T) {
	manager := setupStatusManager(t)
	ctx := context.Background()
	id := "retry-test"

	require.NoError(t, manager.MarkAsUploaded(ctx, id, "doc.txt", "2023/01/15/doc.txt", 100))
	require.NoError(t, manager.MarkAsProcessing(ctx, id))
	require.NoError(t, manager.MarkAsFailed(ctx, id, "transient error", "backend_unavailable"))

	// 失败后允许重试
	err := manager.MarkAsProcessing(ctx, id)
	require.NoError(t, err, "Failed analysis should be retryable")

	status, _ := manager.GetStatus(ctx, id)
	assert.Equal(t, models.StatusProcessing, status)
}

// TestInvalidTransitions 测试非法状态转换被拒绝
func TestInvalidTransitions(t *testing.T) {
	manager := setupStatusManager(t)
	ctx := context.Background()
	id := "invalid-test"

	require.NoError(t, manager.MarkAsUploaded(ctx, id, "doc.txt", "2023/01/15/doc.txt", 100))
	require.NoError(t, manager.MarkAsProcessing(ctx, id))
	require.NoError(t, manager.MarkAsCompleted(ctx, id))

	// 已完成的记录不能回到处理中
	err := manager.MarkAsProcessing(ctx, id)
	assert.Error(t, err, "Completed analysis should not return to processing")

	// 只有处理中的记录才能更新进度
	err = manager.UpdateProgress(ctx, id, 50)
	assert.Error(t, err, "Progress update should require processing state")
}

// TestValidateStateTransition 测试状态转换规则表
func TestValidateStateTransition(t *testing.T) {
	manager := setupStatusManager(t)

	tests := []struct {
		name    string
		from    models.AnalysisStatus
		to      models.AnalysisStatus
		allowed bool
	}{
		{"uploaded to processing", models.StatusUploaded, models.StatusProcessing, true},
		{"uploaded to completed", models.StatusUploaded, models.StatusCompleted, true},
		{"uploaded to failed", models.StatusUploaded, models.StatusFailed, true},
		{"processing to completed", models.StatusProcessing, models.StatusCompleted, true},
		{"processing to failed", models.StatusProcessing, models.StatusFailed, true},
		{"failed to processing (retry)", models.StatusFailed, models.StatusProcessing, true},
		{"completed to processing", models.StatusCompleted, models.StatusProcessing, false},
		{"completed to failed", models.StatusCompleted, models.StatusFailed, false},
		{"failed to completed", models.StatusFailed, models.StatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := manager.ValidateStateTransition(tt.from, tt.to)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

// TestGetFileType 测试文件类型解析
func TestGetFileType(t *testing.T) {
	assert.Equal(t, "pdf", getFileType("report.PDF"))
	assert.Equal(t, "md", getFileType("notes.md"))
	assert.Equal(t, "txt", getFileType("2023/01/15/data.txt"))
	assert.Equal(t, "", getFileType("noextension"))
}
