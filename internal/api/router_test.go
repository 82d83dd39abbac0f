package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgesyte/forgesyte/internal/builtins"
	"github.com/forgesyte/forgesyte/internal/execution"
	"github.com/forgesyte/forgesyte/internal/jobs"
	"github.com/forgesyte/forgesyte/internal/pipeline"
	"github.com/forgesyte/forgesyte/internal/registry"
	"github.com/forgesyte/forgesyte/internal/workerhealth"
)

func testDeps(t *testing.T) Dependencies {
	t.Helper()

	reg := registry.New()
	builtins.Load(reg)

	store := jobs.NewStore(10)
	runner := execution.NewToolRunner(reg)
	analysis := execution.NewAnalysisExecutionService(execution.NewJobExecutionService(store, runner))
	pool := jobs.NewPool(store, 2, func(pluginName, toolName string, args map[string]interface{}) (map[string]interface{}, string, error) {
		result, err := runner.ExecuteTool(pluginName, toolName, args, "application/octet-stream")
		return result, "", err
	})

	return Dependencies{
		Registry:       reg,
		JobPool:        pool,
		Analysis:       analysis,
		PipelineEngine: pipeline.NewEngine(reg),
		WorkerHealth:   workerhealth.NewTracker(),
		ServerName:     "forgesyte",
		ServerVersion:  "test",
	}
}

func TestHealth_ReportsLoadedPluginCount(t *testing.T) {
	router := NewRouter(testDeps(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 2, body["plugins_loaded"])
}

func TestWorkerHealth_UnaliveUntilPipelineRuns(t *testing.T) {
	router := NewRouter(testDeps(t))

	req := httptest.NewRequest(http.MethodGet, "/worker/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["alive"])
}

func TestVideoPipeline_ChainsToolsLinearly(t *testing.T) {
	router := NewRouter(testDeps(t))

	reqBody := `{"plugin_id":"passthrough","tools":["echo","echo"],"payload":{"x":1}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/video/pipeline", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	steps, ok := body["steps"].([]interface{})
	require.True(t, ok)
	assert.Len(t, steps, 2)
	assert.Equal(t, "passthrough", body["plugin_id"])
}

func TestVideoPipeline_RejectsEmptyToolList(t *testing.T) {
	router := NewRouter(testDeps(t))

	req := httptest.NewRequest(http.MethodPost, "/v1/video/pipeline", strings.NewReader(`{"plugin_id":"passthrough","tools":[]}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListPipelines_EmptyWhenNoneLoaded(t *testing.T) {
	deps := testDeps(t)
	deps.PipelineReg = pipeline.NewRegistry()
	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/v1/pipelines", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body["pipelines"])
}

func TestRunPipelineByID_UnknownIDIsNotFound(t *testing.T) {
	deps := testDeps(t)
	deps.PipelineReg = pipeline.NewRegistry()
	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodPost, "/v1/pipelines/does-not-exist/run", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunPipelineByID_RunsLoadedPipeline(t *testing.T) {
	deps := testDeps(t)
	reg := pipeline.NewRegistry()

	descriptor := `{
		"id": "greet",
		"name": "greet",
		"nodes": [{"id":"n1","plugin_id":"passthrough","tool_id":"echo"}],
		"edges": [],
		"entry_nodes": ["n1"],
		"output_nodes": ["n1"]
	}`
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "greet.json"), []byte(descriptor), 0o644))
	require.Empty(t, reg.LoadDir(dir))

	deps.PipelineReg = reg
	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodPost, "/v1/pipelines/greet/run", strings.NewReader(`{"msg":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "greet", body["pipeline_id"])
	result, ok := body["result"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "hi", result["msg"])
}

func TestAnalyze_RequiresAuthWhenKeyTableConfigured(t *testing.T) {
	deps := testDeps(t)
	deps.KeyTable = map[string][]string{"somehash": {"analyze"}}
	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", strings.NewReader(""))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
