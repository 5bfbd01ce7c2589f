package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rish560/bytejoule.ai-dashboard/api/model"
)

// inferSchema 调用模式推断API并返回响应数据
func (env *analysisTestEnv) inferSchema(t *testing.T, req model.SchemaInferRequest) (int, map[string]interface{}) {
	t.Helper()

	payload, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq := httptest.NewRequest(http.MethodPost, "/api/schema", bytes.NewReader(payload))
	httpReq.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, httpReq)

	var resp model.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, _ := resp.Data.(map[string]interface{})
	return w.Code, data
}

// TestInferSchemaFromText 测试从原始文本推断模式
func TestInferSchemaFromText(t *testing.T) {
	env := setupAnalysisTestEnv(t)

	code, data := env.inferSchema(t, model.SchemaInferRequest{
		Text:     "Name: Alice\nEmail: alice@example.com\nAge: 30",
		FileName: "profile.txt",
	})

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "profile_schema", data["name"])
	assert.NotEmpty(t, data["fields"])
}

// TestInferSchemaFromPromptOnly 测试仅提供提示文本的模式推断
func TestInferSchemaFromPromptOnly(t *testing.T) {
	env := setupAnalysisTestEnv(t)

	code, data := env.inferSchema(t, model.SchemaInferRequest{
		Prompt: "a customer record with name, email address and signup date",
	})

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "prompt_schema", data["name"])
	assert.NotEmpty(t, data["fields"])
}

// TestInferSchemaNoInput 测试无输入时返回降级模式而非错误
func TestInferSchemaNoInput(t *testing.T) {
	env := setupAnalysisTestEnv(t)

	code, data := env.inferSchema(t, model.SchemaInferRequest{})

	// 无输入时仍返回200，降级模式携带错误信息字段
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "fallback_schema", data["name"])

	fields := data["fields"].([]interface{})
	require.NotEmpty(t, fields)
	first := fields[0].(map[string]interface{})
	assert.Equal(t, "error_info", first["name"])
}

// TestInferSchemaInvalidBody 测试非法请求体返回400
func TestInferSchemaInvalidBody(t *testing.T) {
	env := setupAnalysisTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/schema", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
