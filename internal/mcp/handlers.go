package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/forgesyte/forgesyte/internal/execution"
	"github.com/forgesyte/forgesyte/internal/imagefetch"
	"github.com/forgesyte/forgesyte/internal/jobs"
	"github.com/forgesyte/forgesyte/internal/registry"
)

// Handlers holds the dependencies the MCP method table (§4.6.5) needs and
// registers them onto a Server.
type Handlers struct {
	reg      *registry.Registry
	analysis *execution.AnalysisExecutionService
	jobStore *jobs.Store
	fetcher  *imagefetch.Fetcher
	manifest *ManifestCache

	serverName    string
	serverVersion string
}

// NewHandlers constructs a Handlers. tools/call hands every invocation to
// the execution chain (analysis) rather than calling a plugin directly;
// jobStore is the same store analysis's JobExecutionService writes to, so
// resources/list and resources/read see every job regardless of which
// external interface created it.
func NewHandlers(reg *registry.Registry, analysis *execution.AnalysisExecutionService, jobStore *jobs.Store, fetcher *imagefetch.Fetcher, manifest *ManifestCache, serverName, serverVersion string) *Handlers {
	return &Handlers{
		reg: reg, analysis: analysis, jobStore: jobStore, fetcher: fetcher, manifest: manifest,
		serverName: serverName, serverVersion: serverVersion,
	}
}

// Register adds every mandatory method to s.
func (h *Handlers) Register(s *Server) {
	s.RegisterMethod("initialize", h.initialize)
	s.RegisterMethod("ping", h.ping)
	s.RegisterMethod("tools/list", h.toolsList)
	s.RegisterMethod("tools/call", h.toolsCall)
	s.RegisterMethod("resources/list", h.resourcesList)
	s.RegisterMethod("resources/read", h.resourcesRead)
}

func (h *Handlers) initialize(_ map[string]interface{}) (interface{}, error) {
	return map[string]interface{}{
		"protocolVersion": "2.0",
		"capabilities":    map[string]interface{}{"tools": map[string]interface{}{}},
		"serverInfo": map[string]interface{}{
			"name":    h.serverName,
			"version": h.serverVersion,
		},
	}, nil
}

func (h *Handlers) ping(_ map[string]interface{}) (interface{}, error) {
	return map[string]interface{}{"status": "pong"}, nil
}

func (h *Handlers) toolsList(_ map[string]interface{}) (interface{}, error) {
	var tools []map[string]interface{}
	for _, name := range h.reg.ListAvailable() {
		handler, ok := h.reg.Get(name)
		if !ok {
			continue
		}
		meta := handler.Metadata()
		tools = append(tools, map[string]interface{}{
			"name":        name,
			"description": meta.Description,
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image":   map[string]interface{}{"type": "string"},
					"options": map[string]interface{}{"type": "object"},
				},
				"required": []string{"image"},
			},
		})
	}
	return map[string]interface{}{"tools": tools}, nil
}

func (h *Handlers) toolsCall(params map[string]interface{}) (interface{}, error) {
	name, ok := params["name"].(string)
	if !ok || name == "" {
		return nil, invalidParams("'name' is required")
	}

	if _, ok := h.reg.Get(name); !ok {
		return nil, invalidParams("unknown tool %q", name)
	}

	arguments, _ := params["arguments"].(map[string]interface{})
	if arguments == nil {
		arguments = map[string]interface{}{}
	}

	imageBytes, mimeType, err := h.resolveImage(arguments)
	if err != nil {
		return nil, invalidParams("%s", err.Error())
	}

	toolArgs := map[string]interface{}{"_image_bytes": imageBytes}
	for k, v := range arguments {
		if k == "image" {
			continue
		}
		toolArgs[k] = v
	}

	toolName, _ := arguments["tool"].(string)
	_ = mimeType // the execution chain's job record does not carry mime type separately

	job, err := h.analysis.SubmitAnalysis(name, toolName, toolArgs)
	if err != nil {
		return nil, &RPCError{Code: CodeInternalError, Message: err.Error()}
	}
	if job.Status == jobs.StatusError {
		return nil, &RPCError{Code: CodeInternalError, Message: job.Error}
	}

	text, err := json.Marshal(job.Result)
	if err != nil {
		return nil, &RPCError{Code: CodeInternalError, Message: err.Error()}
	}

	return map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": string(text)},
		},
	}, nil
}

// resolveImage fetches or decodes arguments.image to raw bytes, never
// handing a plugin the URL string itself.
func (h *Handlers) resolveImage(arguments map[string]interface{}) ([]byte, string, error) {
	image, ok := arguments["image"].(string)
	if !ok || image == "" {
		return nil, "", fmt.Errorf("'arguments.image' is required")
	}

	mimeType := "application/octet-stream"
	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		bytes, err := h.fetcher.FetchURL(image)
		if err != nil {
			return nil, "", err
		}
		return bytes, mimeType, nil
	}

	bytes, err := imagefetch.DecodeBase64(image)
	if err != nil {
		return nil, "", err
	}
	return bytes, mimeType, nil
}

func (h *Handlers) resourcesList(_ map[string]interface{}) (interface{}, error) {
	recent := h.jobStore.List("", "", 10)

	var resources []map[string]interface{}
	for _, j := range recent {
		id := j.ID
		shortID := id
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}
		resources = append(resources, map[string]interface{}{
			"uri":         "forgesyte://job/" + id,
			"name":        "Job " + shortID,
			"mimeType":    "application/json",
			"description": fmt.Sprintf("%s analysis job (%s)", j.Plugin, j.Status),
		})
	}

	return map[string]interface{}{"resources": resources, "nextCursor": nil}, nil
}

func (h *Handlers) resourcesRead(params map[string]interface{}) (interface{}, error) {
	uri, ok := params["uri"].(string)
	if !ok || uri == "" {
		return nil, invalidParams("'uri' is required")
	}

	const prefix = "forgesyte://job/"
	if !strings.HasPrefix(uri, prefix) {
		return nil, invalidParams("unknown resource scheme in %q", uri)
	}
	id := strings.TrimPrefix(uri, prefix)

	job, ok := h.jobStore.Get(id)
	if !ok {
		return nil, invalidParams("unknown job %q", id)
	}

	text, err := json.Marshal(job)
	if err != nil {
		return nil, &RPCError{Code: CodeInternalError, Message: err.Error()}
	}

	return map[string]interface{}{
		"contents": []map[string]interface{}{
			{"uri": uri, "mimeType": "application/json", "text": string(text)},
		},
	}, nil
}
