package streaming

import "encoding/json"

// Envelope is the JSON shape the server sends on the streaming channel:
// {type, payload, timestamp}. The payload is nested under the "payload"
// key, not merged into the top level; client messages use the same
// nesting (see ClientEnvelope).
type Envelope struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp int64       `json:"timestamp,omitempty"`
}

// ResultPayload is the payload of a "result" envelope.
type ResultPayload struct {
	FrameID           string                 `json:"frame_id,omitempty"`
	Plugin            string                 `json:"plugin"`
	Result            map[string]interface{} `json:"result"`
	ProcessingTimeMs  int64                  `json:"processing_time_ms"`
}

// ErrorPayload is the payload of an "error" envelope.
type ErrorPayload struct {
	Error   string `json:"error"`
	FrameID string `json:"frame_id,omitempty"`
}

// ProgressPayload is the payload of a job progress broadcast.
type ProgressPayload struct {
	JobID          string  `json:"job_id"`
	CurrentFrame   int     `json:"current_frame"`
	TotalFrames    int     `json:"total_frames"`
	Percent        float64 `json:"percent"`
	CurrentTool    string  `json:"current_tool,omitempty"`
	ToolsTotal     int     `json:"tools_total,omitempty"`
	ToolsCompleted int     `json:"tools_completed,omitempty"`
}

func marshalEnvelope(msgType string, payload interface{}) []byte {
	data, _ := json.Marshal(Envelope{Type: msgType, Payload: payload, Timestamp: nowFunc().Unix()})
	return data
}

// SendFrameResult sends a "result" envelope carrying the plugin's output
// for one streamed frame.
func (h *Hub) SendFrameResult(clientID, frameID, pluginName string, result map[string]interface{}, processingMs int64) {
	h.SendPersonal(clientID, marshalEnvelope("result", ResultPayload{
		FrameID:          frameID,
		Plugin:           pluginName,
		Result:           result,
		ProcessingTimeMs: processingMs,
	}))
}

// SendError sends an "error" envelope.
func (h *Hub) SendError(clientID, errorText, frameID string) {
	h.SendPersonal(clientID, marshalEnvelope("error", ErrorPayload{Error: errorText, FrameID: frameID}))
}

// BroadcastProgress sends a "progress" envelope to every subscriber of
// job:<jobID>.
func (h *Hub) BroadcastProgress(jobID string, currentFrame, totalFrames int, currentTool string, toolsTotal, toolsCompleted int) {
	percent := 0.0
	if totalFrames > 0 {
		percent = float64(currentFrame) / float64(totalFrames) * 100
	}
	h.Broadcast(marshalEnvelope("progress", ProgressPayload{
		JobID:          jobID,
		CurrentFrame:   currentFrame,
		TotalFrames:    totalFrames,
		Percent:        percent,
		CurrentTool:    currentTool,
		ToolsTotal:     toolsTotal,
		ToolsCompleted: toolsCompleted,
	}), JobTopic(jobID))
}
