package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rish560/bytejoule.ai-dashboard/api/handler"
	"github.com/rish560/bytejoule.ai-dashboard/api/model"
	"github.com/rish560/bytejoule.ai-dashboard/internal/analyzer"
	"github.com/rish560/bytejoule.ai-dashboard/internal/cache"
	"github.com/rish560/bytejoule.ai-dashboard/internal/models"
	"github.com/rish560/bytejoule.ai-dashboard/internal/repository"
	"github.com/rish560/bytejoule.ai-dashboard/internal/services"
	"github.com/rish560/bytejoule.ai-dashboard/pkg/storage"
)

// analysisTestEnv API测试环境
type analysisTestEnv struct {
	Router  *gin.Engine
	Service *services.AnalysisService
	Storage storage.Storage
}

// setupAnalysisTestEnv 创建API测试环境
func setupAnalysisTestEnv(t *testing.T) *analysisTestEnv {
	gin.SetMode(gin.TestMode)

	// 内存数据库
	dbName := fmt.Sprintf("file:api_test_%d?mode=memory", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Analysis{}, &models.SchemaRecord{}))

	// 本地文件存储
	fileStorage, err := storage.NewLocalStorage(storage.LocalConfig{
		Path: t.TempDir(),
	})
	require.NoError(t, err)

	// 内存缓存
	cacheService, err := cache.NewCache(cache.Config{
		Type:            "memory",
		DefaultTTL:      time.Hour,
		CleanupInterval: time.Minute,
	})
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	repo := repository.NewAnalysisRepositoryWithDB(db)
	analysisService := services.NewAnalysisService(
		fileStorage,
		analyzer.NewEngine(analyzer.DefaultConfig()),
		services.WithLogger(logger),
		services.WithAnalysisRepository(repo),
		services.WithSchemaRepository(repository.NewSchemaRepositoryWithDB(db)),
		services.WithCache(cacheService),
		services.WithStatusManager(services.NewAnalysisStatusManager(repo, logger)),
	)
	require.NoError(t, analysisService.Init())

	router := SetupRouter(
		handler.NewAnalysisHandler(analysisService, fileStorage),
		handler.NewSchemaHandler(analysisService),
		nil, // 同步模式下不注册任务路由
	)

	return &analysisTestEnv{
		Router:  router,
		Service: analysisService,
		Storage: fileStorage,
	}
}

// uploadDocument 通过API上传文档并返回分析ID
func (env *analysisTestEnv) uploadDocument(t *testing.T, fileName string, content string) string {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, "Upload should succeed: %s", w.Body.String())

	var resp model.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)

	id, ok := data["analysis_id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, id)
	return id
}

// waitForAnalysis 轮询等待后台分析结束
func (env *analysisTestEnv) waitForAnalysis(t *testing.T, id string) models.AnalysisStatus {
	t.Helper()

	var status models.AnalysisStatus
	require.Eventually(t, func() bool {
		req := httptest.NewRequest(http.MethodGet, "/api/documents/"+id+"/status", nil)
		w := httptest.NewRecorder()
		env.Router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			return false
		}

		var resp model.Response
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			return false
		}
		data := resp.Data.(map[string]interface{})
		status = models.AnalysisStatus(data["status"].(string))
		return status == models.StatusCompleted || status == models.StatusFailed
	}, 5*time.Second, 20*time.Millisecond, "Analysis should finish")

	return status
}

const apiInvoiceText = `Invoice #INV-2023-042
Invoice Date: 03/20/2023
Bill To: Globex Corp
Subtotal: $800.00
Tax: $200.00
Total: $1,000.00`

// TestUploadAndAnalyzeDocument 测试上传分析的完整API流程
func TestUploadAndAnalyzeDocument(t *testing.T) {
	env := setupAnalysisTestEnv(t)

	id := env.uploadDocument(t, "invoice.txt", apiInvoiceText)
	status := env.waitForAnalysis(t, id)
	assert.Equal(t, models.StatusCompleted, status)

	// 获取提取结果
	req := httptest.NewRequest(http.MethodGet, "/api/documents/"+id+"/result", nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Invoice", data["document_type"])
	assert.NotEmpty(t, data["fields"])

	// 获取结构模式
	req = httptest.NewRequest(http.MethodGet, "/api/documents/"+id+"/schema", nil)
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	resp = model.Response{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data = resp.Data.(map[string]interface{})
	assert.Equal(t, "invoice_schema", data["name"])
}

// TestUploadInvalidFileType 测试不支持的文件类型被拒绝
func TestUploadInvalidFileType(t *testing.T) {
	env := setupAnalysisTestEnv(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "malware.exe")
	require.NoError(t, err)
	_, err = part.Write([]byte("binary content"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestUploadDegradedAnalysis 测试签名无效文档的降级API行为
func TestUploadDegradedAnalysis(t *testing.T) {
	env := setupAnalysisTestEnv(t)

	// 伪装成PDF的纯文本文件
	id := env.uploadDocument(t, "fake.pdf", "definitely not a pdf")
	status := env.waitForAnalysis(t, id)
	assert.Equal(t, models.StatusFailed, status)

	// 结果接口仍返回200和降级字段
	req := httptest.NewRequest(http.MethodGet, "/api/documents/"+id+"/result", nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	fields := data["fields"].([]interface{})
	require.Len(t, fields, 3)
	first := fields[0].(map[string]interface{})
	assert.Equal(t, "Status", first["name"])
	assert.Equal(t, "Error during extraction", first["value"])

	// 模式接口返回降级模式
	req = httptest.NewRequest(http.MethodGet, "/api/documents/"+id+"/schema", nil)
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	resp = model.Response{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data = resp.Data.(map[string]interface{})
	assert.Equal(t, "fallback_schema", data["name"])

	// 状态接口携带失败原因
	req = httptest.NewRequest(http.MethodGet, "/api/documents/"+id+"/status", nil)
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	resp = model.Response{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data = resp.Data.(map[string]interface{})
	assert.Equal(t, "invalid_signature", data["failure_cause"])
}

// TestGetResultNotFound 测试不存在的分析记录返回404
func TestGetResultNotFound(t *testing.T) {
	env := setupAnalysisTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/no-such-id/result", nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestListDocuments 测试分析记录列表API
func TestListDocuments(t *testing.T) {
	env := setupAnalysisTestEnv(t)

	id1 := env.uploadDocument(t, "doc1.txt", "first document content")
	id2 := env.uploadDocument(t, "doc2.txt", "second document content")
	env.waitForAnalysis(t, id1)
	env.waitForAnalysis(t, id2)

	req := httptest.NewRequest(http.MethodGet, "/api/documents?page=1&page_size=10", nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(2), data["total"])
	analyses := data["analyses"].([]interface{})
	assert.Len(t, analyses, 2)
}

// TestExportDocument 测试结果导出API
func TestExportDocument(t *testing.T) {
	env := setupAnalysisTestEnv(t)

	id := env.uploadDocument(t, "invoice.txt", apiInvoiceText)
	env.waitForAnalysis(t, id)

	// CSV导出
	req := httptest.NewRequest(http.MethodGet, "/api/documents/"+id+"/export?format=csv", nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "extracted_data.csv")
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")

	// JSON导出（默认格式）
	req = httptest.NewRequest(http.MethodGet, "/api/documents/"+id+"/export", nil)
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "extracted_data.json")

	// 不支持的格式
	req = httptest.NewRequest(http.MethodGet, "/api/documents/"+id+"/export?format=xml", nil)
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestDeleteDocument 测试删除分析记录API
func TestDeleteDocument(t *testing.T) {
	env := setupAnalysisTestEnv(t)

	id := env.uploadDocument(t, "doc.txt", "document to delete")
	env.waitForAnalysis(t, id)

	req := httptest.NewRequest(http.MethodDelete, "/api/documents/"+id, nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// 删除后状态查询应返回404
	req = httptest.NewRequest(http.MethodGet, "/api/documents/"+id+"/status", nil)
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestUpdateDocumentTags 测试更新标签API
func TestUpdateDocumentTags(t *testing.T) {
	env := setupAnalysisTestEnv(t)

	id := env.uploadDocument(t, "doc.txt", "tagged document")
	env.waitForAnalysis(t, id)

	payload, _ := json.Marshal(model.AnalysisTagsRequest{Tags: "finance,q1"})
	req := httptest.NewRequest(http.MethodPut, "/api/documents/"+id+"/tags", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// 详情接口应包含标签
	req = httptest.NewRequest(http.MethodGet, "/api/documents/"+id, nil)
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "finance,q1", data["tags"])
}

// TestHealthCheck 测试健康检查API
func TestHealthCheck(t *testing.T) {
	env := setupAnalysisTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}
