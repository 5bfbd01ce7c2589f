package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rish560/bytejoule.ai-dashboard/internal/analyzer"
	"github.com/rish560/bytejoule.ai-dashboard/internal/cache"
	"github.com/rish560/bytejoule.ai-dashboard/internal/document"
	"github.com/rish560/bytejoule.ai-dashboard/internal/export"
	"github.com/rish560/bytejoule.ai-dashboard/internal/models"
	"github.com/rish560/bytejoule.ai-dashboard/internal/repository"
	"github.com/rish560/bytejoule.ai-dashboard/pkg/storage"
	"github.com/rish560/bytejoule.ai-dashboard/pkg/taskqueue"
)

// ErrAnalysisNotReady 分析尚未完成，结果还不可用
var ErrAnalysisNotReady = errors.New("analysis not completed yet")

// AnalysisService 文档分析服务
// 负责协调文件存储、文本获取、内容分析和结果持久化
type AnalysisService struct {
	storage       storage.Storage               // 文件存储服务
	engine        *analyzer.Engine              // 内容分析引擎
	repo          repository.AnalysisRepository // 分析记录仓储
	schemaRepo    repository.SchemaRepository   // 模式记录仓储
	resultCache   cache.Cache                   // 分析结果缓存
	statusManager *AnalysisStatusManager        // 状态管理器
	taskQueue     taskqueue.Queue               // 任务队列
	asyncEnabled  bool                          // 是否启用异步处理
	cacheTTL      time.Duration                 // 缓存过期时间
	timeout       time.Duration                 // 处理超时时间
	logger        *logrus.Logger                // 日志记录器
}

// AnalysisOption 分析服务配置选项
type AnalysisOption func(*AnalysisService)

// NewAnalysisService 创建一个新的分析服务
func NewAnalysisService(
	storage storage.Storage,
	engine *analyzer.Engine,
	opts ...AnalysisOption,
) *AnalysisService {
	// 创建服务实例
	srv := &AnalysisService{
		storage:      storage,
		engine:       engine,
		cacheTTL:     time.Hour * 24,  // 默认缓存一天
		timeout:      time.Minute * 5, // 默认超时时间
		logger:       logrus.New(),    // 默认日志记录器
		asyncEnabled: false,           // 默认不启用异步处理
	}

	// 应用配置选项
	for _, opt := range opts {
		opt(srv)
	}

	return srv
}

// WithTimeout 设置处理超时时间
func WithTimeout(timeout time.Duration) AnalysisOption {
	return func(s *AnalysisService) {
		s.timeout = timeout
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) AnalysisOption {
	return func(s *AnalysisService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAnalysisRepository 设置分析记录仓储
func WithAnalysisRepository(repo repository.AnalysisRepository) AnalysisOption {
	return func(s *AnalysisService) {
		s.repo = repo
	}
}

// WithSchemaRepository 设置模式记录仓储
func WithSchemaRepository(repo repository.SchemaRepository) AnalysisOption {
	return func(s *AnalysisService) {
		s.schemaRepo = repo
	}
}

// WithCache 设置分析结果缓存
func WithCache(c cache.Cache) AnalysisOption {
	return func(s *AnalysisService) {
		s.resultCache = c
	}
}

// WithCacheTTL 设置缓存过期时间
func WithCacheTTL(ttl time.Duration) AnalysisOption {
	return func(s *AnalysisService) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithStatusManager 设置状态管理器
func WithStatusManager(manager *AnalysisStatusManager) AnalysisOption {
	return func(s *AnalysisService) {
		s.statusManager = manager
	}
}

// WithTaskQueue 设置任务队列
func WithTaskQueue(queue taskqueue.Queue) AnalysisOption {
	return func(s *AnalysisService) {
		s.taskQueue = queue
		s.asyncEnabled = queue != nil
	}
}

// WithAsyncProcessing 设置是否启用异步处理
func WithAsyncProcessing(enabled bool) AnalysisOption {
	return func(s *AnalysisService) {
		s.asyncEnabled = enabled
	}
}

// Init 初始化分析服务
// 确保必要的依赖都已设置
func (s *AnalysisService) Init() error {
	// 如果没有设置仓储，创建默认仓储
	if s.repo == nil {
		s.repo = repository.NewAnalysisRepository()
	}

	if s.schemaRepo == nil {
		s.schemaRepo = repository.NewSchemaRepository()
	}

	// 如果没有设置状态管理器，创建默认状态管理器
	if s.statusManager == nil {
		s.statusManager = NewAnalysisStatusManager(s.repo, s.logger)
	}

	// 如果没有设置引擎，使用默认配置创建
	if s.engine == nil {
		s.engine = analyzer.NewEngine(analyzer.DefaultConfig())
	}

	return nil
}

// UploadDocument 保存上传的文档并创建分析记录
// 返回新建分析记录的ID
func (s *AnalysisService) UploadDocument(ctx context.Context, fileInfo storage.FileInfo) (string, error) {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return "", err
	}

	id := fileInfo.ID
	if id == "" {
		id = uuid.New().String()
	}

	if err := s.statusManager.MarkAsUploaded(ctx, id, fileInfo.Name, fileInfo.Path, fileInfo.Size); err != nil {
		return "", fmt.Errorf("failed to create analysis record: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"analysis_id": id,
		"filename":    fileInfo.Name,
		"size":        fileInfo.Size,
	}).Info("Document uploaded")

	return id, nil
}

// AnalyzeDocument 分析文档(文本获取、分类、字段提取、模式推断、入库)
func (s *AnalysisService) AnalyzeDocument(ctx context.Context, id string, filePath string) error {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"analysis_id": id,
		"file_path":   filePath,
	}).Info("Starting document analysis")

	// 检查输入参数
	if id == "" {
		return errors.New("analysis ID cannot be empty")
	}
	if filePath == "" {
		return errors.New("filePath cannot be empty")
	}

	// 如果启用异步处理并且任务队列已配置，使用任务队列处理
	if s.asyncEnabled && s.taskQueue != nil {
		return s.analyzeDocumentAsync(ctx, id, filePath)
	}

	// 否则，使用同步方式处理
	return s.analyzeDocumentSync(ctx, id, filePath)
}

// analyzeDocumentSync 同步分析文档
// 直接在当前进程中完成文本获取和分析
func (s *AnalysisService) analyzeDocumentSync(ctx context.Context, id string, filePath string) error {
	// 设置上下文超时
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// 更新状态为处理中
	if err := s.statusManager.MarkAsProcessing(ctx, id); err != nil {
		s.logger.WithError(err).Error("Failed to mark analysis as processing")
		// 继续处理，不中断
	}

	// 获取文档文本
	extracted, err := s.acquireText(id, filePath)
	if err != nil {
		// 文本获取失败不向上层抛错：落库降级结果，记录失败原因
		return s.degradeAnalysis(ctx, id, filePath, err)
	}

	if err := s.statusManager.UpdateProgress(ctx, id, 40); err != nil {
		s.logger.WithError(err).Warn("Failed to update analysis progress")
	}

	// 构建引擎输入
	record, err := s.statusManager.GetAnalysis(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get analysis record: %w", err)
	}

	input := analyzer.Input{
		Text:      extracted.Text,
		FileName:  record.FileName,
		FileSize:  record.FileSize,
		PageCount: extracted.PageCount,
	}

	// 分类+字段提取
	result := s.engine.Extract(input)

	if err := s.statusManager.UpdateProgress(ctx, id, 70); err != nil {
		s.logger.WithError(err).Warn("Failed to update analysis progress")
	}

	// 结构模式推断
	schema := s.engine.InferSchema(input)

	// 持久化分析结果
	if err := s.persistResult(ctx, record, result, schema, extracted.PageCount); err != nil {
		s.failAnalysis(ctx, id, fmt.Sprintf("failed to persist analysis result: %v", err), "")
		return fmt.Errorf("failed to persist analysis result: %w", err)
	}

	// 分析完成，更新状态
	if err := s.statusManager.MarkAsCompleted(ctx, id); err != nil {
		s.logger.WithError(err).Error("Failed to mark analysis as completed")
		// 虽然状态更新失败，但分析处理成功，所以不返回错误
	}

	s.logger.WithFields(logrus.Fields{
		"analysis_id":   id,
		"document_type": result.DocumentType,
		"field_count":   len(result.Fields),
		"schema_fields": len(schema.Fields),
	}).Info("Document analysis completed successfully")

	return nil
}

// acquireText 从存储获取文件并提取文本
func (s *AnalysisService) acquireText(id string, filePath string) (document.Extracted, error) {
	s.logger.WithField("file_path", filePath).Debug("Acquiring document text")

	// 尝试按ID获取文件
	reader, err := s.storage.Get(id)
	if err != nil {
		s.logger.WithError(err).Debug("Failed to get file by analysis ID, trying with path")
		// 尝试将整个路径作为ID
		reader, err = s.storage.Get(filePath)
		if err != nil {
			return document.Extracted{}, fmt.Errorf("failed to get file from storage: %w", err)
		}
	}
	defer reader.Close()

	// 创建解析器
	parser, err := document.ParserFactory(filePath)
	if err != nil {
		return document.Extracted{}, err
	}

	// 直接从reader提取文本
	return parser.ParseReader(reader, filePath)
}

// degradeAnalysis 文本获取失败时的降级处理
// 保存降级提取结果和降级模式，标记记录失败，但不向调用方抛错
func (s *AnalysisService) degradeAnalysis(ctx context.Context, id string, filePath string, cause error) error {
	failureCause := mapFailureCause(cause)

	s.logger.WithFields(logrus.Fields{
		"analysis_id":   id,
		"file_path":     filePath,
		"failure_cause": failureCause,
		"error":         cause.Error(),
	}).Warn("Text acquisition failed, producing fallback result")

	record, err := s.statusManager.GetAnalysis(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get analysis record: %w", err)
	}

	result := analyzer.FallbackExtraction(record.FileName, record.UploadedAt)
	schema := analyzer.FallbackSchema(failureCause)

	if err := s.persistResult(ctx, record, result, schema, 0); err != nil {
		s.logger.WithError(err).Error("Failed to persist fallback result")
	}

	s.failAnalysis(ctx, id, cause.Error(), string(failureCause))
	return nil
}

// mapFailureCause 将文本获取错误归类为分析失败原因
func mapFailureCause(err error) analyzer.FailureCause {
	switch {
	case errors.Is(err, document.ErrInvalidSignature):
		return analyzer.CauseInvalidSignature
	case errors.Is(err, document.ErrEmptyDocument):
		return analyzer.CauseEmptyDocument
	case errors.Is(err, document.ErrUnreadableDocument),
		errors.Is(err, document.ErrUnsupportedType):
		return analyzer.CauseBackendUnavailable
	default:
		return analyzer.CauseUnknown
	}
}

// persistResult 持久化分析结果、模式和全文，并刷新缓存
func (s *AnalysisService) persistResult(ctx context.Context, record *models.Analysis, result analyzer.ExtractionResult, schema analyzer.Schema, pageCount int) error {
	fieldsJSON, err := json.Marshal(result.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal fields: %w", err)
	}

	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	// 写入分析记录
	if err := s.repo.SaveResult(record.ID, string(result.DocumentType), fieldsJSON, schemaJSON); err != nil {
		return fmt.Errorf("failed to save analysis result: %w", err)
	}

	// 全文和页数单独更新
	record.FullText = result.FullText
	record.PageCount = pageCount
	record.DocumentType = string(result.DocumentType)
	if err := s.repo.Update(record); err != nil {
		s.logger.WithError(err).Warn("Failed to update analysis full text")
	}

	// 保存模式记录
	if s.schemaRepo != nil {
		schemaRecord := &models.SchemaRecord{
			ID:         uuid.New().String(),
			Name:       schema.Name,
			Source:     "document",
			AnalysisID: record.ID,
			Definition: schemaJSON,
		}
		if err := s.schemaRepo.Create(schemaRecord); err != nil {
			s.logger.WithError(err).Warn("Failed to save schema record")
		}
	}

	// 刷新结果缓存
	s.cacheResult(record.ID, result)

	return nil
}

// cacheResult 将提取结果写入缓存
func (s *AnalysisService) cacheResult(id string, result analyzer.ExtractionResult) {
	if s.resultCache == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to marshal result for caching")
		return
	}

	if err := s.resultCache.Set(cache.AnalysisResultKey(id), string(data), s.cacheTTL); err != nil {
		s.logger.WithError(err).Warn("Failed to cache analysis result")
	}
}

// GetResult 获取分析提取结果
// 优先读取缓存，缓存未命中时从数据库重建
func (s *AnalysisService) GetResult(ctx context.Context, id string) (analyzer.ExtractionResult, error) {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return analyzer.ExtractionResult{}, err
	}

	// 尝试从缓存获取
	if s.resultCache != nil {
		if data, found, err := s.resultCache.Get(cache.AnalysisResultKey(id)); err == nil && found {
			var result analyzer.ExtractionResult
			if err := json.Unmarshal([]byte(data), &result); err == nil {
				return result, nil
			}
			s.logger.Warn("Failed to unmarshal cached result, falling back to database")
		}
	}

	// 从数据库获取记录
	record, err := s.statusManager.GetAnalysis(ctx, id)
	if err != nil {
		return analyzer.ExtractionResult{}, err
	}

	result, err := s.buildResult(record)
	if err != nil {
		return analyzer.ExtractionResult{}, err
	}

	// 回填缓存
	s.cacheResult(id, result)
	return result, nil
}

// buildResult 从数据库记录重建提取结果
func (s *AnalysisService) buildResult(record *models.Analysis) (analyzer.ExtractionResult, error) {
	switch record.Status {
	case models.StatusFailed:
		// 失败记录返回降级结果，降级生成是确定性的
		return analyzer.FallbackExtraction(record.FileName, record.UploadedAt), nil
	case models.StatusCompleted:
		// 继续重建
	default:
		return analyzer.ExtractionResult{}, ErrAnalysisNotReady
	}

	var fields []analyzer.Field
	if len(record.Fields) > 0 {
		if err := json.Unmarshal(record.Fields, &fields); err != nil {
			return analyzer.ExtractionResult{}, fmt.Errorf("failed to unmarshal stored fields: %w", err)
		}
	}

	return analyzer.ExtractionResult{
		FileName:     record.FileName,
		FileSize:     analyzer.FormatFileSize(record.FileSize),
		PageCount:    record.PageCount,
		DocumentType: analyzer.DocumentCategory(record.DocumentType),
		Fields:       fields,
		FullText:     record.FullText,
	}, nil
}

// GetSchema 获取推断出的结构模式
func (s *AnalysisService) GetSchema(ctx context.Context, id string) (analyzer.Schema, error) {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return analyzer.Schema{}, err
	}

	record, err := s.statusManager.GetAnalysis(ctx, id)
	if err != nil {
		return analyzer.Schema{}, err
	}

	if record.Status == models.StatusFailed {
		return analyzer.FallbackSchema(analyzer.FailureCause(record.FailureCause)), nil
	}
	if record.Status != models.StatusCompleted {
		return analyzer.Schema{}, ErrAnalysisNotReady
	}

	var schema analyzer.Schema
	if len(record.Schema) > 0 {
		if err := json.Unmarshal(record.Schema, &schema); err != nil {
			return analyzer.Schema{}, fmt.Errorf("failed to unmarshal stored schema: %w", err)
		}
		return schema, nil
	}

	// 老记录可能只有独立模式记录
	schemaRecord, err := s.schemaRepo.GetByAnalysisID(id)
	if err != nil {
		return analyzer.Schema{}, err
	}
	if err := json.Unmarshal(schemaRecord.Definition, &schema); err != nil {
		return analyzer.Schema{}, fmt.Errorf("failed to unmarshal schema record: %w", err)
	}
	return schema, nil
}

// InferSchemaFromText 从原始文本或提示文本推断结构模式
// 不依赖已上传的文档，模式单独入库
func (s *AnalysisService) InferSchemaFromText(ctx context.Context, text string, fileName string, prompt string) (analyzer.Schema, error) {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return analyzer.Schema{}, err
	}

	schema := s.engine.InferSchema(analyzer.Input{
		Text:     text,
		FileName: fileName,
		Prompt:   prompt,
	})

	// 保存模式记录
	source := "document"
	if text == "" && prompt != "" {
		source = "prompt"
	}

	definition, err := json.Marshal(schema)
	if err != nil {
		return analyzer.Schema{}, fmt.Errorf("failed to marshal schema: %w", err)
	}

	schemaRecord := &models.SchemaRecord{
		ID:         uuid.New().String(),
		Name:       schema.Name,
		Source:     source,
		Prompt:     prompt,
		Definition: definition,
	}
	if err := s.schemaRepo.Create(schemaRecord); err != nil {
		s.logger.WithError(err).Warn("Failed to save schema record")
	}

	return schema, nil
}

// ExportResult 按指定格式导出分析结果
// 返回序列化数据和建议的下载文件名
func (s *AnalysisService) ExportResult(ctx context.Context, id string, format export.Format) ([]byte, string, error) {
	result, err := s.GetResult(ctx, id)
	if err != nil {
		return nil, "", err
	}

	data, err := export.Marshal(result, format)
	if err != nil {
		return nil, "", err
	}

	return data, format.FileName(), nil
}

// DeleteAnalysis 删除分析记录及其相关数据
func (s *AnalysisService) DeleteAnalysis(ctx context.Context, id string) error {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return err
	}

	s.logger.WithField("analysis_id", id).Info("Deleting analysis")

	// 1. 从存储中删除文件
	if err := s.storage.Delete(id); err != nil {
		// 文件可能已被删除，记录错误但不中断流程
		s.logger.WithError(err).Warn("Failed to delete file from storage")
	}

	// 2. 删除结果缓存
	if s.resultCache != nil {
		if err := s.resultCache.Delete(cache.AnalysisResultKey(id)); err != nil {
			s.logger.WithError(err).Warn("Failed to delete cached result")
		}
	}

	// 3. 删除分析记录（连带模式记录和队列任务）
	if err := s.statusManager.DeleteAnalysis(ctx, id); err != nil {
		s.logger.WithError(err).Error("Failed to delete analysis record")
		return fmt.Errorf("failed to delete analysis record: %w", err)
	}

	s.logger.WithField("analysis_id", id).Info("Analysis deleted successfully")
	return nil
}

// GetAnalysisInfo 获取分析记录信息
func (s *AnalysisService) GetAnalysisInfo(ctx context.Context, id string) (map[string]interface{}, error) {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return nil, err
	}

	// 获取分析记录
	record, err := s.statusManager.GetAnalysis(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	// 构建记录信息
	info := map[string]interface{}{
		"analysis_id": record.ID,
		"filename":    record.FileName,
		"file_type":   record.FileType,
		"status":      record.Status,
		"created_at":  record.UploadedAt.Format(time.RFC3339),
		"updated_at":  record.UpdatedAt.Format(time.RFC3339),
		"size":        record.FileSize,
		"progress":    record.Progress,
	}

	if record.DocumentType != "" {
		info["document_type"] = record.DocumentType
	}

	if record.PageCount > 0 {
		info["page_count"] = record.PageCount
	}

	// 如果有错误信息，添加到返回结果
	if record.Error != "" {
		info["error"] = record.Error
	}

	if record.FailureCause != "" {
		info["failure_cause"] = record.FailureCause
	}

	// 如果有处理完成时间，添加到返回结果
	if record.ProcessedAt != nil {
		info["processed_at"] = record.ProcessedAt.Format(time.RFC3339)
	}

	// 如果有标签，添加到返回结果
	if record.Tags != "" {
		info["tags"] = record.Tags
	}

	// 如果启用了异步处理，尝试获取相关任务信息
	if s.asyncEnabled && s.taskQueue != nil {
		tasks, err := s.repo.GetAnalysisTasks(ctx, id)
		if err == nil && len(tasks) > 0 {
			// 添加最近的任务信息
			latestTask := tasks[0]
			for _, task := range tasks {
				if task.UpdatedAt.After(latestTask.UpdatedAt) {
					latestTask = task
				}
			}

			info["task_id"] = latestTask.ID
			info["task_status"] = latestTask.Status
			info["task_created_at"] = latestTask.CreatedAt.Format(time.RFC3339)
			info["task_updated_at"] = latestTask.UpdatedAt.Format(time.RFC3339)

			if latestTask.StartedAt != nil {
				info["task_started_at"] = latestTask.StartedAt.Format(time.RFC3339)
			}
			if latestTask.CompletedAt != nil {
				info["task_completed_at"] = latestTask.CompletedAt.Format(time.RFC3339)
			}
			if latestTask.Error != "" {
				info["task_error"] = latestTask.Error
			}
		}
	}

	return info, nil
}

// GetAnalysisStatus 获取分析处理状态
func (s *AnalysisService) GetAnalysisStatus(ctx context.Context, id string) (models.AnalysisStatus, error) {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return "", err
	}

	return s.statusManager.GetStatus(ctx, id)
}

// ListAnalyses 获取分析记录列表
func (s *AnalysisService) ListAnalyses(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Analysis, int64, error) {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return nil, 0, err
	}

	// 使用状态管理器获取记录列表
	return s.statusManager.ListAnalyses(ctx, offset, limit, filters)
}

// UpdateAnalysisTags 更新分析记录标签
func (s *AnalysisService) UpdateAnalysisTags(ctx context.Context, id string, tags string) error {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return err
	}

	// 获取记录
	record, err := s.statusManager.GetAnalysis(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get analysis: %w", err)
	}

	// 更新标签
	record.Tags = tags

	// 保存更新
	return s.repo.Update(record)
}

// failAnalysis 将分析标记为失败状态
func (s *AnalysisService) failAnalysis(ctx context.Context, id string, errorMsg string, failureCause string) {
	if s.statusManager == nil {
		s.logger.Error("Cannot mark analysis as failed: status manager not initialized")
		return
	}

	if err := s.statusManager.MarkAsFailed(ctx, id, errorMsg, failureCause); err != nil {
		s.logger.WithFields(logrus.Fields{
			"analysis_id": id,
			"error":       err,
		}).Error("Failed to mark analysis as failed")
	}
}

// GetStatusManager 返回分析状态管理器实例
func (s *AnalysisService) GetStatusManager() *AnalysisStatusManager {
	return s.statusManager
}

// GetTaskQueue 返回任务队列实例
func (s *AnalysisService) GetTaskQueue() taskqueue.Queue {
	return s.taskQueue
}

// GetEngine 返回内容分析引擎实例
func (s *AnalysisService) GetEngine() *analyzer.Engine {
	return s.engine
}

// fileTypeOf 根据路径提取文件类型
func fileTypeOf(filePath string) string {
	ext := filepath.Ext(filePath)
	if ext != "" && ext[0] == '.' {
		ext = ext[1:]
	}
	return ext
}
