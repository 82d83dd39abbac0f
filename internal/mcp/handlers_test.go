package mcp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgesyte/forgesyte/internal/execution"
	"github.com/forgesyte/forgesyte/internal/imagefetch"
	"github.com/forgesyte/forgesyte/internal/jobs"
	"github.com/forgesyte/forgesyte/internal/registry"
)

type recordingHandler struct {
	received map[string]interface{}
}

func (h *recordingHandler) RunTool(tool string, args map[string]interface{}) (map[string]interface{}, error) {
	h.received = args
	return map[string]interface{}{"ok": true}, nil
}

func (h *recordingHandler) Metadata() registry.Metadata {
	return registry.Metadata{Name: "ocr", Description: "ocr plugin", DefaultTool: "default"}
}

func TestToolsCall_FetchesURLAndPassesRawBytes(t *testing.T) {
	pngBytes := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngBytes)
	}))
	defer upstream.Close()

	reg := registry.New()
	handler := &recordingHandler{}
	reg.Register("ocr", "ocr plugin", "1.0", handler)

	runner := execution.NewToolRunner(reg)
	jobStore := jobs.NewStore(10)
	analysis := execution.NewAnalysisExecutionService(execution.NewJobExecutionService(jobStore, runner))
	fetcher := imagefetch.NewFetcher(1, 2)
	manifest := NewManifestCache(reg, 60, "forgesyte", "1.0")

	h := NewHandlers(reg, analysis, jobStore, fetcher, manifest, "forgesyte", "1.0")
	s := NewServer()
	h.Register(s)

	paramsJSON, _ := json.Marshal(map[string]interface{}{
		"name":      "ocr",
		"arguments": map[string]interface{}{"image": upstream.URL},
	})
	req := &Request{JSONRPC: "2.0", Method: "tools/call", Params: paramsJSON, Id: float64(1)}
	resp := s.HandleRequest(req)

	require.Nil(t, resp.Error)
	require.NotNil(t, handler.received)
	assert.Equal(t, pngBytes, handler.received["_image_bytes"])

	resultMap, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	content := resultMap["content"].([]map[string]interface{})
	require.Len(t, content, 1)
	assert.Equal(t, "text", content[0]["type"])
}

func TestToolsCall_UnknownToolIsInvalidParams(t *testing.T) {
	reg := registry.New()
	runner := execution.NewToolRunner(reg)
	jobStore := jobs.NewStore(10)
	analysis := execution.NewAnalysisExecutionService(execution.NewJobExecutionService(jobStore, runner))
	fetcher := imagefetch.NewFetcher(1, 2)
	manifest := NewManifestCache(reg, 60, "forgesyte", "1.0")

	h := NewHandlers(reg, analysis, jobStore, fetcher, manifest, "forgesyte", "1.0")
	s := NewServer()
	h.Register(s)

	paramsJSON, _ := json.Marshal(map[string]interface{}{"name": "nope", "arguments": map[string]interface{}{}})
	resp := s.HandleRequest(&Request{JSONRPC: "2.0", Method: "tools/call", Params: paramsJSON, Id: float64(1)})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)
}

func TestToolsList_OneEntryPerAvailablePlugin(t *testing.T) {
	reg := registry.New()
	reg.Register("ocr", "ocr plugin", "1.0", &recordingHandler{})

	jobStore := jobs.NewStore(10)
	analysis := execution.NewAnalysisExecutionService(execution.NewJobExecutionService(jobStore, execution.NewToolRunner(reg)))
	h := NewHandlers(reg, analysis, jobStore, imagefetch.NewFetcher(1, 2), NewManifestCache(reg, 60, "forgesyte", "1.0"), "forgesyte", "1.0")
	s := NewServer()
	h.Register(s)

	resp := s.HandleRequest(&Request{JSONRPC: "2.0", Method: "tools/list", Id: float64(1)})
	require.Nil(t, resp.Error)
	result := resp.Result.(map[string]interface{})
	tools := result["tools"].([]map[string]interface{})
	require.Len(t, tools, 1)
	assert.Equal(t, "ocr", tools[0]["name"])
}
