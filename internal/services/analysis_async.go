package services

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rish560/bytejoule.ai-dashboard/internal/analyzer"
	"github.com/rish560/bytejoule.ai-dashboard/internal/database"
	"github.com/rish560/bytejoule.ai-dashboard/internal/models"
	"github.com/rish560/bytejoule.ai-dashboard/internal/repository"
	"github.com/rish560/bytejoule.ai-dashboard/pkg/taskqueue"
)

// EnableAsyncProcessing 启用异步处理
func (s *AnalysisService) EnableAsyncProcessing(queue taskqueue.Queue) {
	s.asyncEnabled = true
	s.taskQueue = queue

	// 确保重要依赖已设置
	if s.statusManager == nil {
		s.logger.Warn("Status manager not set, creating default one")
		if s.repo == nil {
			s.repo = repository.NewAnalysisRepository()
		}
		s.statusManager = NewAnalysisStatusManager(s.repo, s.logger)
	}

	// 使用已有的数据库连接和新的队列创建仓储
	s.repo = repository.NewAnalysisRepositoryWithQueue(database.DB, queue)

	// 注册任务回调处理器，把任务结果同步到分析记录
	s.registerTaskHandlers()

	s.logger.Info("Async analysis processing enabled")
}

// DisableAsyncProcessing 禁用异步处理
func (s *AnalysisService) DisableAsyncProcessing() {
	s.asyncEnabled = false
	s.logger.Info("Async analysis processing disabled")
}

// analyzeDocumentAsync 异步分析文档
// 将任务加入队列并立即返回
func (s *AnalysisService) analyzeDocumentAsync(ctx context.Context, id string, filePath string) error {
	s.logger.WithFields(logrus.Fields{
		"analysis_id": id,
		"file_path":   filePath,
	}).Info("Enqueuing document for async analysis")

	if !s.asyncEnabled || s.taskQueue == nil {
		return fmt.Errorf("async processing not enabled or task queue not configured")
	}

	// 更新状态为处理中
	if err := s.statusManager.MarkAsProcessing(ctx, id); err != nil {
		s.logger.WithError(err).Error("Failed to mark analysis as processing")
		return fmt.Errorf("failed to update analysis status: %w", err)
	}

	// 创建完整分析流程任务载荷
	fileName := filepath.Base(filePath)
	payload := taskqueue.AnalyzeCompletePayload{
		AnalysisID: id,
		FilePath:   filePath,
		FileName:   fileName,
		FileType:   fileTypeOf(fileName),
		Metadata: map[string]string{
			"source":     "api",
			"created_by": "analysis_service",
		},
	}

	// 创建任务
	taskID, err := s.repo.CreateTask(ctx, taskqueue.TaskAnalyzeComplete, id, payload)
	if err != nil {
		s.failAnalysis(ctx, id, fmt.Sprintf("failed to create analysis task: %v", err), "")
		return fmt.Errorf("failed to create analysis task: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"analysis_id": id,
		"task_id":     taskID,
	}).Info("Analysis task created successfully")

	return nil
}

// registerTaskHandlers 注册任务回调处理器
// 回调负责把任务结果同步到分析记录状态
func (s *AnalysisService) registerTaskHandlers() {
	if s.taskQueue == nil {
		s.logger.Warn("Task queue not available, cannot register handlers")
		return
	}

	// 获取共享回调处理器
	processor := taskqueue.GetSharedCallbackProcessor(s.taskQueue, s.logger)

	// 完整分析流程任务的回调
	processor.RegisterHandler(taskqueue.TaskAnalyzeComplete, func(ctx context.Context, task *taskqueue.Task, result json.RawMessage) error {
		var completeResult taskqueue.AnalyzeCompleteResult
		if err := json.Unmarshal(result, &completeResult); err != nil {
			s.logger.WithError(err).Error("Failed to unmarshal analyze complete result")
			return fmt.Errorf("failed to unmarshal analyze complete result: %w", err)
		}

		s.logger.WithFields(logrus.Fields{
			"task_id":       task.ID,
			"analysis_id":   task.AnalysisID,
			"document_type": completeResult.DocumentType,
			"field_count":   len(completeResult.Fields),
			"parse_status":  completeResult.ParseStatus,
		}).Info("Analysis pipeline completed")

		// 文本获取失败的任务已由执行端落库降级结果，这里不再覆盖状态
		if completeResult.ParseStatus == "failed" {
			s.logger.WithFields(logrus.Fields{
				"analysis_id": task.AnalysisID,
				"error":       completeResult.Error,
			}).Warn("Analysis completed with fallback result")
			return nil
		}

		if completeResult.Error != "" {
			s.logger.WithField("error", completeResult.Error).Error("Analysis failed with error")
			if err := s.statusManager.MarkAsFailed(ctx, task.AnalysisID, completeResult.Error, ""); err != nil {
				s.logger.WithError(err).Error("Failed to mark analysis as failed")
			}
			return fmt.Errorf("analysis failed: %s", completeResult.Error)
		}

		return nil
	})

	// 文本提取任务的回调，仅更新进度
	processor.RegisterHandler(taskqueue.TaskDocumentParse, func(ctx context.Context, task *taskqueue.Task, result json.RawMessage) error {
		var parseResult taskqueue.DocumentParseResult
		if err := json.Unmarshal(result, &parseResult); err != nil {
			return fmt.Errorf("failed to unmarshal document parse result: %w", err)
		}

		if err := s.statusManager.UpdateProgress(ctx, task.AnalysisID, 40); err != nil {
			s.logger.WithError(err).Warn("Failed to update analysis progress")
		}

		return nil
	})

	// 文档分析任务的回调
	processor.RegisterHandler(taskqueue.TaskDocumentAnalyze, func(ctx context.Context, task *taskqueue.Task, result json.RawMessage) error {
		var analyzeResult taskqueue.DocumentAnalyzeResult
		if err := json.Unmarshal(result, &analyzeResult); err != nil {
			return fmt.Errorf("failed to unmarshal document analyze result: %w", err)
		}

		if err := s.statusManager.UpdateProgress(ctx, task.AnalysisID, 80); err != nil {
			s.logger.WithError(err).Warn("Failed to update analysis progress")
		}

		return nil
	})

	s.logger.Info("Registered analysis task handlers")
}

// WaitForTaskResult 等待任务完成并返回结果
func (s *AnalysisService) WaitForTaskResult(ctx context.Context, taskID string, timeout time.Duration) (*taskqueue.Task, error) {
	if !s.asyncEnabled || s.taskQueue == nil {
		return nil, fmt.Errorf("async processing not enabled or task queue not configured")
	}

	// 设置超时上下文
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// 等待任务完成
	task, err := s.taskQueue.WaitForTask(ctx, taskID, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for task: %w", err)
	}

	// 检查任务状态
	if task.Status == taskqueue.StatusFailed {
		return task, fmt.Errorf("task failed: %s", task.Error)
	}

	return task, nil
}

// GetAnalysisTasks 获取分析记录相关的任务列表
func (s *AnalysisService) GetAnalysisTasks(ctx context.Context, id string) ([]*taskqueue.Task, error) {
	if !s.asyncEnabled || s.taskQueue == nil {
		return nil, fmt.Errorf("async processing not enabled or task queue not configured")
	}

	return s.taskQueue.GetTasksByAnalysis(ctx, id)
}

// WaitForAnalysis 等待分析处理完成
func (s *AnalysisService) WaitForAnalysis(ctx context.Context, id string, timeout time.Duration) error {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return err
	}

	if !s.asyncEnabled || s.taskQueue == nil {
		// 如果未启用异步处理，直接检查状态
		status, err := s.statusManager.GetStatus(ctx, id)
		if err != nil {
			return err
		}
		if status == models.StatusFailed {
			return fmt.Errorf("analysis failed")
		}
		if status != models.StatusCompleted {
			return fmt.Errorf("analysis not processed")
		}
		return nil
	}

	// 设置上下文超时
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// 获取相关任务
	tasks, err := s.repo.GetAnalysisTasks(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get analysis tasks: %w", err)
	}

	if len(tasks) == 0 {
		return fmt.Errorf("no analysis tasks found for %s", id)
	}

	// 找到最新的完整分析任务
	var latestTask *taskqueue.Task
	for _, task := range tasks {
		if task.Type == taskqueue.TaskAnalyzeComplete {
			if latestTask == nil || task.CreatedAt.After(latestTask.CreatedAt) {
				latestTask = task
			}
		}
	}

	if latestTask == nil {
		return fmt.Errorf("no complete analysis task found for %s", id)
	}

	// 等待任务完成
	if _, err := s.taskQueue.WaitForTask(ctx, latestTask.ID, timeout); err != nil {
		return fmt.Errorf("failed to wait for analysis: %w", err)
	}

	return nil
}

// AnalysisTaskHandler 分析任务执行器
// 实现taskqueue.Handler接口，在工作者进程中执行排队的分析任务
type AnalysisTaskHandler struct {
	service *AnalysisService
	logger  *logrus.Logger
}

// NewAnalysisTaskHandler 创建分析任务执行器
func NewAnalysisTaskHandler(service *AnalysisService, logger *logrus.Logger) *AnalysisTaskHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &AnalysisTaskHandler{
		service: service,
		logger:  logger,
	}
}

// GetTaskTypes 返回此执行器支持的任务类型
func (h *AnalysisTaskHandler) GetTaskTypes() []taskqueue.TaskType {
	return []taskqueue.TaskType{
		taskqueue.TaskDocumentParse,
		taskqueue.TaskDocumentAnalyze,
		taskqueue.TaskSchemaInfer,
		taskqueue.TaskAnalyzeComplete,
	}
}

// ProcessTask 执行任务
func (h *AnalysisTaskHandler) ProcessTask(ctx context.Context, task *taskqueue.Task) error {
	h.logger.WithFields(logrus.Fields{
		"task_id":     task.ID,
		"task_type":   task.Type,
		"analysis_id": task.AnalysisID,
	}).Info("Processing analysis task")

	switch task.Type {
	case taskqueue.TaskDocumentParse:
		return h.processDocumentParse(ctx, task)
	case taskqueue.TaskDocumentAnalyze:
		return h.processDocumentAnalyze(ctx, task)
	case taskqueue.TaskSchemaInfer:
		return h.processSchemaInfer(ctx, task)
	case taskqueue.TaskAnalyzeComplete:
		return h.processAnalyzeComplete(ctx, task)
	default:
		return fmt.Errorf("unsupported task type: %s", task.Type)
	}
}

// processDocumentParse 执行文本提取任务
func (h *AnalysisTaskHandler) processDocumentParse(ctx context.Context, task *taskqueue.Task) error {
	var payload taskqueue.DocumentParsePayload
	if err := taskqueue.UnmarshalPayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal parse payload: %w", err)
	}

	extracted, err := h.service.acquireText(task.AnalysisID, payload.FilePath)
	if err != nil {
		return fmt.Errorf("failed to acquire document text: %w", err)
	}

	result := taskqueue.DocumentParseResult{
		Content: extracted.Text,
		Pages:   extracted.PageCount,
		Words:   len(splitWords(extracted.Text)),
		Chars:   len(extracted.Text),
	}

	return h.service.taskQueue.UpdateTaskStatus(ctx, task.ID, taskqueue.StatusCompleted, result, "")
}

// processDocumentAnalyze 执行文档分析任务
func (h *AnalysisTaskHandler) processDocumentAnalyze(ctx context.Context, task *taskqueue.Task) error {
	var payload taskqueue.DocumentAnalyzePayload
	if err := taskqueue.UnmarshalPayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal analyze payload: %w", err)
	}

	extraction := h.service.engine.Extract(analyzer.Input{
		Text:      payload.Content,
		FileName:  payload.FileName,
		FileSize:  payload.FileSize,
		PageCount: payload.PageCount,
	})

	fields := make([]taskqueue.FieldInfo, 0, len(extraction.Fields))
	for _, f := range extraction.Fields {
		fields = append(fields, taskqueue.FieldInfo{Name: f.Name, Value: f.Value})
	}

	result := taskqueue.DocumentAnalyzeResult{
		AnalysisID:   payload.AnalysisID,
		DocumentType: string(extraction.DocumentType),
		Fields:       fields,
		FieldCount:   len(fields),
	}

	return h.service.taskQueue.UpdateTaskStatus(ctx, task.ID, taskqueue.StatusCompleted, result, "")
}

// processSchemaInfer 执行模式推断任务
func (h *AnalysisTaskHandler) processSchemaInfer(ctx context.Context, task *taskqueue.Task) error {
	var payload taskqueue.SchemaInferPayload
	if err := taskqueue.UnmarshalPayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal schema infer payload: %w", err)
	}

	schema, err := h.service.InferSchemaFromText(ctx, payload.Content, payload.FileName, payload.Prompt)
	if err != nil {
		return fmt.Errorf("failed to infer schema: %w", err)
	}

	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	result := taskqueue.SchemaInferResult{
		AnalysisID: payload.AnalysisID,
		SchemaName: schema.Name,
		Schema:     schemaJSON,
		FieldCount: len(schema.Fields),
	}

	return h.service.taskQueue.UpdateTaskStatus(ctx, task.ID, taskqueue.StatusCompleted, result, "")
}

// processAnalyzeComplete 执行完整分析流程任务
// 文本获取失败时落库降级结果，任务本身仍然算执行成功
func (h *AnalysisTaskHandler) processAnalyzeComplete(ctx context.Context, task *taskqueue.Task) error {
	var payload taskqueue.AnalyzeCompletePayload
	if err := taskqueue.UnmarshalPayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal analyze complete payload: %w", err)
	}

	id := task.AnalysisID
	if id == "" {
		id = payload.AnalysisID
	}

	// 获取文档文本
	extracted, err := h.service.acquireText(id, payload.FilePath)
	if err != nil {
		// 降级处理
		if derr := h.service.degradeAnalysis(ctx, id, payload.FilePath, err); derr != nil {
			return derr
		}

		result := taskqueue.AnalyzeCompleteResult{
			AnalysisID:  id,
			ParseStatus: "failed",
			Error:       err.Error(),
		}
		return h.service.taskQueue.UpdateTaskStatus(ctx, task.ID, taskqueue.StatusCompleted, result, "")
	}

	record, err := h.service.statusManager.GetAnalysis(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get analysis record: %w", err)
	}

	input := analyzer.Input{
		Text:      extracted.Text,
		FileName:  record.FileName,
		FileSize:  record.FileSize,
		PageCount: extracted.PageCount,
	}

	// 分类+字段提取+模式推断
	extraction := h.service.engine.Extract(input)
	schema := h.service.engine.InferSchema(input)

	// 持久化
	if err := h.service.persistResult(ctx, record, extraction, schema, extracted.PageCount); err != nil {
		h.service.failAnalysis(ctx, id, err.Error(), "")
		return err
	}

	if err := h.service.statusManager.MarkAsCompleted(ctx, id); err != nil {
		h.logger.WithError(err).Error("Failed to mark analysis as completed")
	}

	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	fields := make([]taskqueue.FieldInfo, 0, len(extraction.Fields))
	for _, f := range extraction.Fields {
		fields = append(fields, taskqueue.FieldInfo{Name: f.Name, Value: f.Value})
	}

	result := taskqueue.AnalyzeCompleteResult{
		AnalysisID:   id,
		DocumentType: string(extraction.DocumentType),
		Fields:       fields,
		Schema:       schemaJSON,
		Pages:        extracted.PageCount,
		ParseStatus:  "completed",
	}

	return h.service.taskQueue.UpdateTaskStatus(ctx, task.ID, taskqueue.StatusCompleted, result, "")
}

// splitWords 统计文本中的单词数
func splitWords(text string) []string {
	return strings.Fields(text)
}
