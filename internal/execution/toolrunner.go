// Package execution implements the three strictly layered components of
// the execution chain: ToolRunner (the only call site that may invoke a
// plugin handler), JobExecutionService, and AnalysisExecutionService.
package execution

import (
	"fmt"
	"time"

	"github.com/forgesyte/forgesyte/internal/apperrors"
	"github.com/forgesyte/forgesyte/internal/registry"
)

// ToolRunner is the only component in the process permitted to invoke a
// plugin's tool handler. Any other path to a handler is a bug.
type ToolRunner struct {
	reg *registry.Registry
}

// NewToolRunner constructs a ToolRunner bound to reg.
func NewToolRunner(reg *registry.Registry) *ToolRunner {
	return &ToolRunner{reg: reg}
}

// ExecuteTool validates the input envelope, invokes the named plugin's
// tool handler via Invoke (the single call site), validates the returned
// mapping, and returns it.
func (t *ToolRunner) ExecuteTool(pluginName, toolName string, arguments map[string]interface{}, mimeType string) (map[string]interface{}, error) {
	if err := validateInput(arguments, mimeType); err != nil {
		return nil, apperrors.InputValidation(err.Error())
	}

	result, err := Invoke(t.reg, pluginName, toolName, arguments)
	if err != nil {
		return nil, err
	}

	if err := validateOutput(result); err != nil {
		return nil, apperrors.OutputValidation(err.Error())
	}

	return result, nil
}

// Invoke is the single low-level call site for registry.Handler.RunTool.
// Every path that runs a plugin's tool — the REST/MCP/job envelope in
// ExecuteTool above and the DAG pipeline engine, which carries arbitrary
// JSON payloads with no artifact envelope to validate — routes through
// this function, so a plugin handler is only ever invoked from here.
func Invoke(reg *registry.Registry, pluginName, toolName string, arguments map[string]interface{}) (map[string]interface{}, error) {
	handler, ok := reg.Get(pluginName)
	if !ok {
		return nil, apperrors.PluginNotFound(pluginName)
	}

	meta := handler.Metadata()
	tool := toolName
	if tool == "" {
		tool = meta.DefaultTool
		if tool == "" {
			return nil, apperrors.Validation("tool_name", "")
		}
	}

	reg.MarkRunning(pluginName, time.Now())
	start := time.Now()

	result, err := handler.RunTool(tool, arguments)

	duration := time.Since(start).Milliseconds()
	reg.RecordExecution(pluginName, duration, err != nil)

	if err != nil {
		reg.MarkFailed(pluginName, err.Error())
		return nil, apperrors.PluginExecution(pluginName, err)
	}
	reg.MarkInitialized(pluginName)

	return result, nil
}

func validateInput(arguments map[string]interface{}, mimeType string) error {
	if arguments == nil {
		return fmt.Errorf("arguments must not be nil")
	}
	artifact, ok := arguments["_image_bytes"]
	if !ok {
		return fmt.Errorf("arguments must contain an artifact")
	}
	bytesVal, ok := artifact.([]byte)
	if !ok || len(bytesVal) == 0 {
		return fmt.Errorf("artifact must be a non-empty byte slice")
	}
	if mimeType != "" && !recognizedMimeType(mimeType) {
		return fmt.Errorf("unrecognized mime type %q", mimeType)
	}
	return nil
}

func recognizedMimeType(mimeType string) bool {
	switch mimeType {
	case "image/jpeg", "image/png", "image/webp", "image/gif", "video/mp4", "application/octet-stream":
		return true
	default:
		return false
	}
}

func validateOutput(result map[string]interface{}) error {
	if result == nil {
		return fmt.Errorf("tool handler returned a nil result")
	}
	return nil
}
