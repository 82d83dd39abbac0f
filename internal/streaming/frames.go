package streaming

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/forgesyte/forgesyte/internal/apperrors"
	"github.com/forgesyte/forgesyte/internal/execution"
	"github.com/forgesyte/forgesyte/internal/imagefetch"
	"github.com/forgesyte/forgesyte/internal/logger"
)

// ClientEnvelope is one client->server message on the streaming channel.
// Recognized Type values: "frame", "subscribe", "switch_plugin", "ping".
type ClientEnvelope struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

// FrameProcessor decodes and analyzes streamed frames synchronously on
// the receiving worker, routing through the same ToolRunner as REST jobs
// rather than any shortcut around it.
type FrameProcessor struct {
	hub     *Hub
	runner  *execution.ToolRunner
	fetcher *imagefetch.Fetcher
}

// NewFrameProcessor constructs a FrameProcessor.
func NewFrameProcessor(hub *Hub, runner *execution.ToolRunner, fetcher *imagefetch.Fetcher) *FrameProcessor {
	return &FrameProcessor{hub: hub, runner: runner, fetcher: fetcher}
}

// HandleMessage dispatches one decoded client envelope for clientID,
// whose currently selected plugin is pluginName.
func (fp *FrameProcessor) HandleMessage(clientID, pluginName string, raw []byte) (newPlugin string) {
	var env ClientEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		fp.hub.SendError(clientID, "malformed message", "")
		return pluginName
	}

	switch env.Type {
	case "ping":
		fp.hub.SendPersonal(clientID, marshalEnvelope("pong", nil))
	case "subscribe":
		topic, _ := env.Payload["topic"].(string)
		if topic != "" {
			fp.hub.Subscribe(clientID, topic)
		}
	case "switch_plugin":
		if name, ok := env.Payload["plugin"].(string); ok && name != "" {
			fp.hub.SendPersonal(clientID, marshalEnvelope("plugin_switched", map[string]interface{}{"plugin": name}))
			return name
		}
	case "frame":
		fp.processFrame(clientID, pluginName, env.Payload)
	default:
		fp.hub.SendError(clientID, "unrecognized message type", "")
	}
	return pluginName
}

func (fp *FrameProcessor) processFrame(clientID, pluginName string, payload map[string]interface{}) {
	frameID, _ := payload["frame_id"].(string)

	imageBytes, mimeType, err := fp.resolveFrame(payload)
	if err != nil {
		fp.hub.SendError(clientID, err.Error(), frameID)
		return
	}

	toolName, _ := payload["tool"].(string)
	args := map[string]interface{}{"_image_bytes": imageBytes}

	start := time.Now()
	result, err := fp.runner.ExecuteTool(pluginName, toolName, args, mimeType)
	duration := time.Since(start).Milliseconds()

	if err != nil {
		logger.Streaming().Warn().Str("client_id", clientID).Str("plugin", pluginName).Err(err).Msg("frame analysis failed")
		fp.hub.SendError(clientID, err.Error(), frameID)
		return
	}

	fp.hub.SendFrameResult(clientID, frameID, pluginName, result, duration)
}

func (fp *FrameProcessor) resolveFrame(payload map[string]interface{}) ([]byte, string, error) {
	data, ok := payload["data"].(string)
	if !ok || data == "" {
		return nil, "", apperrors.Validation("data", "frame payload must carry image data")
	}

	mimeType := "application/octet-stream"
	if strings.HasPrefix(data, "http://") || strings.HasPrefix(data, "https://") {
		bytes, err := fp.fetcher.FetchURL(data)
		return bytes, mimeType, err
	}

	bytes, err := imagefetch.DecodeBase64(data)
	return bytes, mimeType, err
}
