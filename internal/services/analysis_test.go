package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rish560/bytejoule.ai-dashboard/internal/analyzer"
	"github.com/rish560/bytejoule.ai-dashboard/internal/cache"
	"github.com/rish560/bytejoule.ai-dashboard/internal/export"
	"github.com/rish560/bytejoule.ai-dashboard/internal/models"
	"github.com/rish560/bytejoule.ai-dashboard/internal/repository"
	"github.com/rish560/bytejoule.ai-dashboard/pkg/storage"
)

// setupAnalysisService 构建一个依赖齐全的测试服务
func setupAnalysisService(t *testing.T) (*AnalysisService, storage.Storage) {
	t.Helper()

	// 内存数据库
	dbName := fmt.Sprintf("file:analysis_test_%d?mode=memory", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err, "Failed to open in-memory database")

	err = db.AutoMigrate(&models.Analysis{}, &models.SchemaRecord{})
	require.NoError(t, err, "Failed to run migrations")

	// 本地文件存储
	tempDir := t.TempDir()
	localStorage, err := storage.NewLocalStorage(storage.LocalConfig{Path: tempDir})
	require.NoError(t, err, "Failed to create local storage")

	// 内存缓存
	memCache, err := cache.NewMemoryCache(cache.DefaultConfig())
	require.NoError(t, err, "Failed to create memory cache")

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)

	repo := repository.NewAnalysisRepositoryWithDB(db)
	schemaRepo := repository.NewSchemaRepositoryWithDB(db)

	service := NewAnalysisService(
		localStorage,
		analyzer.NewEngine(analyzer.DefaultConfig()),
		WithLogger(logger),
		WithAnalysisRepository(repo),
		WithSchemaRepository(schemaRepo),
		WithCache(memCache),
		WithStatusManager(NewAnalysisStatusManager(repo, logger)),
	)
	require.NoError(t, service.Init())

	return service, localStorage
}

// uploadTestFile 上传测试文件并创建分析记录
func uploadTestFile(t *testing.T, service *AnalysisService, store storage.Storage, fileName string, content string) (string, storage.FileInfo) {
	t.Helper()

	fileInfo, err := store.Save(strings.NewReader(content), fileName)
	require.NoError(t, err, "Failed to save test file")

	id, err := service.UploadDocument(context.Background(), fileInfo)
	require.NoError(t, err, "Failed to create analysis record")

	return id, fileInfo
}

const invoiceText = `Invoice #INV-2023-001
Invoice Date: 01/15/2023
Bill To: Acme Corporation
Subtotal: $1,000.00
Tax: $250.00
Total: $1,250.00`

// TestAnalyzeDocumentSync 测试同步分析的完整流程
func TestAnalyzeDocumentSync(t *testing.T) {
	service, store := setupAnalysisService(t)
	ctx := context.Background()

	id, fileInfo := uploadTestFile(t, service, store, "invoice.txt", invoiceText)

	err := service.AnalyzeDocument(ctx, id, fileInfo.Path)
	require.NoError(t, err, "Analysis should succeed")

	// 状态应为已完成
	status, err := service.GetAnalysisStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, status, "Analysis should be completed")

	// 提取结果
	result, err := service.GetResult(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, analyzer.CategoryInvoice, result.DocumentType, "Document should be classified as invoice")
	assert.NotEmpty(t, result.Fields, "Extraction should produce fields")
	assert.Equal(t, "invoice.txt", result.FileName)

	// 结构模式
	schema, err := service.GetSchema(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "invoice_schema", schema.Name, "Schema name should derive from file name")
	assert.NotEmpty(t, schema.Fields, "Schema should have fields")
}

// TestAnalyzeDocumentResultCached 测试分析结果写入缓存
func TestAnalyzeDocumentResultCached(t *testing.T) {
	service, store := setupAnalysisService(t)
	ctx := context.Background()

	id, fileInfo := uploadTestFile(t, service, store, "invoice.txt", invoiceText)

	err := service.AnalyzeDocument(ctx, id, fileInfo.Path)
	require.NoError(t, err)

	// 缓存应命中
	_, found, err := service.resultCache.Get(cache.AnalysisResultKey(id))
	require.NoError(t, err)
	assert.True(t, found, "Analysis result should be cached")

	// 缓存和数据库重建的结果应一致
	cached, err := service.GetResult(ctx, id)
	require.NoError(t, err)

	require.NoError(t, service.resultCache.Delete(cache.AnalysisResultKey(id)))
	rebuilt, err := service.GetResult(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, cached.DocumentType, rebuilt.DocumentType)
	assert.Equal(t, cached.Fields, rebuilt.Fields)
}

// TestAnalyzeDocumentInvalidSignature 测试PDF签名无效时的降级行为
func TestAnalyzeDocumentInvalidSignature(t *testing.T) {
	service, store := setupAnalysisService(t)
	ctx := context.Background()

	// 保存一个伪装成PDF的文本文件
	id, fileInfo := uploadTestFile(t, service, store, "broken.pdf", "this is not a pdf document")

	err := service.AnalyzeDocument(ctx, id, fileInfo.Path)
	require.NoError(t, err, "Degraded analysis should not surface the acquisition error")

	// 记录应标记为失败并带有失败原因
	record, err := service.GetStatusManager().GetAnalysis(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, record.Status)
	assert.Equal(t, string(analyzer.CauseInvalidSignature), record.FailureCause)

	// 提取结果应为固定的降级字段
	result, err := service.GetResult(ctx, id)
	require.NoError(t, err)
	require.Len(t, result.Fields, 3)
	assert.Equal(t, "Status", result.Fields[0].Name)
	assert.Equal(t, "Error during extraction", result.Fields[0].Value)
	assert.Equal(t, "File Type", result.Fields[1].Name)
	assert.Equal(t, "pdf", result.Fields[1].Value)
	assert.Equal(t, "Upload Date", result.Fields[2].Name)

	// 模式应为降级模式并带有失败分类
	schema, err := service.GetSchema(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "fallback_schema", schema.Name)

	errorInfo, ok := schema.Field("error_info")
	require.True(t, ok, "Fallback schema should carry error_info")
	errorType, ok := errorInfo.SubField("error_type")
	require.True(t, ok)
	assert.Equal(t, []string{string(analyzer.CauseInvalidSignature)}, errorType.Examples)
}

// TestAnalyzeDocumentEmptyDocument 测试空文档的降级行为
func TestAnalyzeDocumentEmptyDocument(t *testing.T) {
	service, store := setupAnalysisService(t)
	ctx := context.Background()

	id, fileInfo := uploadTestFile(t, service, store, "empty.txt", "   \n  \n")

	err := service.AnalyzeDocument(ctx, id, fileInfo.Path)
	require.NoError(t, err)

	record, err := service.GetStatusManager().GetAnalysis(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, record.Status)
	assert.Equal(t, string(analyzer.CauseEmptyDocument), record.FailureCause)
}

// TestGetResultNotReady 测试未完成的分析无法获取结果
func TestGetResultNotReady(t *testing.T) {
	service, store := setupAnalysisService(t)
	ctx := context.Background()

	id, _ := uploadTestFile(t, service, store, "pending.txt", "some text")

	_, err := service.GetResult(ctx, id)
	assert.ErrorIs(t, err, ErrAnalysisNotReady)

	_, err = service.GetSchema(ctx, id)
	assert.ErrorIs(t, err, ErrAnalysisNotReady)
}

// TestInferSchemaFromPrompt 测试从提示文本推断模式
func TestInferSchemaFromPrompt(t *testing.T) {
	service, _ := setupAnalysisService(t)
	ctx := context.Background()

	schema, err := service.InferSchemaFromText(ctx, "", "", "customer name, email address and age")
	require.NoError(t, err)
	assert.Equal(t, "prompt_schema", schema.Name)
	assert.NotEmpty(t, schema.Fields)

	// 模式记录应入库，来源为prompt
	records, total, err := service.schemaRepo.List(0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "prompt", records[0].Source)
	assert.Equal(t, "customer name, email address and age", records[0].Prompt)
}

// TestInferSchemaFromTextNoInput 测试既无文本也无提示时的降级模式
func TestInferSchemaFromTextNoInput(t *testing.T) {
	service, _ := setupAnalysisService(t)

	schema, err := service.InferSchemaFromText(context.Background(), "", "", "")
	require.NoError(t, err, "No input should degrade, not error")
	assert.Equal(t, "fallback_schema", schema.Name)

	errorInfo, ok := schema.Field("error_info")
	require.True(t, ok)
	errorType, ok := errorInfo.SubField("error_type")
	require.True(t, ok)
	assert.Equal(t, []string{string(analyzer.CauseNoInput)}, errorType.Examples)
}

// TestExportResult 测试分析结果导出
func TestExportResult(t *testing.T) {
	service, store := setupAnalysisService(t)
	ctx := context.Background()

	id, fileInfo := uploadTestFile(t, service, store, "invoice.txt", invoiceText)
	require.NoError(t, service.AnalyzeDocument(ctx, id, fileInfo.Path))

	// JSON导出
	jsonData, fileName, err := service.ExportResult(ctx, id, export.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "extracted_data.json", fileName)
	assert.Contains(t, string(jsonData), "Invoice")

	// CSV导出
	csvData, fileName, err := service.ExportResult(ctx, id, export.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "extracted_data.csv", fileName)

	lines := strings.Split(strings.TrimRight(string(csvData), "\n"), "\n")
	require.Len(t, lines, 2, "CSV should have a header row and a data row")
}

// TestListAnalyses 测试分析记录列表
func TestListAnalyses(t *testing.T) {
	service, store := setupAnalysisService(t)
	ctx := context.Background()

	uploadTestFile(t, service, store, "doc1.txt", "first document")
	uploadTestFile(t, service, store, "doc2.txt", "second document")

	analyses, total, err := service.ListAnalyses(ctx, 0, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, analyses, 2)
}

// TestDeleteAnalysis 测试删除分析记录
func TestDeleteAnalysis(t *testing.T) {
	service, store := setupAnalysisService(t)
	ctx := context.Background()

	id, fileInfo := uploadTestFile(t, service, store, "invoice.txt", invoiceText)
	require.NoError(t, service.AnalyzeDocument(ctx, id, fileInfo.Path))

	err := service.DeleteAnalysis(ctx, id)
	require.NoError(t, err)

	// 记录应已删除
	_, err = service.GetAnalysisStatus(ctx, id)
	assert.Error(t, err, "Deleted analysis should not be retrievable")

	// 缓存应清空
	_, found, err := service.resultCache.Get(cache.AnalysisResultKey(id))
	require.NoError(t, err)
	assert.False(t, found, "Cached result should be removed")
}

// TestUpdateAnalysisTags 测试更新标签
func TestUpdateAnalysisTags(t *testing.T) {
	service, store := setupAnalysisService(t)
	ctx := context.Background()

	id, _ := uploadTestFile(t, service, store, "doc.txt", "tagged document")

	err := service.UpdateAnalysisTags(ctx, id, "billing,urgent")
	require.NoError(t, err)

	record, err := service.GetStatusManager().GetAnalysis(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "billing,urgent", record.Tags)
}

// TestGetAnalysisInfo 测试分析记录信息
func TestGetAnalysisInfo(t *testing.T) {
	service, store := setupAnalysisService(t)
	ctx := context.Background()

	id, fileInfo := uploadTestFile(t, service, store, "invoice.txt", invoiceText)
	require.NoError(t, service.AnalyzeDocument(ctx, id, fileInfo.Path))

	info, err := service.GetAnalysisInfo(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, info["analysis_id"])
	assert.Equal(t, "invoice.txt", info["filename"])
	assert.Equal(t, models.StatusCompleted, info["status"])
	assert.Equal(t, "Invoice", info["document_type"])
	assert.Equal(t, 100, info["progress"])
}
