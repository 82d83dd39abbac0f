package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/forgesyte/forgesyte/internal/apperrors"
	"github.com/forgesyte/forgesyte/internal/events"
	"github.com/forgesyte/forgesyte/internal/execution"
	"github.com/forgesyte/forgesyte/internal/logger"
	"github.com/forgesyte/forgesyte/internal/registry"
)

// Engine executes validated DAGs of plugin-tool invocations.
type Engine struct {
	reg *registry.Registry
	pub *events.Publisher
}

// NewEngine constructs an Engine bound to reg.
func NewEngine(reg *registry.Registry) *Engine {
	return &Engine{reg: reg}
}

// SetPublisher attaches an event publisher so run start/completion/failure
// are broadcast on NATS alongside the structured log lines. A nil or never
// attached publisher leaves publishing as a no-op.
func (e *Engine) SetPublisher(pub *events.Publisher) {
	e.pub = pub
}

// Run executes p against the initial payload, merging each node's output
// into successor payloads in topological order. Any node failure aborts
// the run immediately: no partial result is ever returned.
func (e *Engine) Run(p *Pipeline, initialPayload map[string]interface{}) (map[string]interface{}, error) {
	if errs := Validate(p); len(errs) > 0 {
		return nil, apperrors.Validation("pipeline", fmt.Sprintf("invalid pipeline: %v", errs))
	}

	runID := uuid.NewString()
	order := TopologicalOrder(p)
	log := logger.Pipeline()
	runStart := time.Now()

	log.Info().
		Str("event_type", "pipeline_started").
		Str("pipeline_type", "dag").
		Str("pipeline_id", p.ID).
		Str("run_id", runID).
		Strs("entry_nodes", p.EntryNodes).
		Strs("output_nodes", p.OutputNodes).
		Int("node_count", len(p.Nodes)).
		Msg("pipeline execution started")

	if e.pub != nil {
		if err := e.pub.PublishPipelineStarted(p.ID, runID, len(p.Nodes)); err != nil {
			log.Warn().Err(err).Str("run_id", runID).Msg("failed to publish pipeline_started event")
		}
	}

	outputs := make(map[string]map[string]interface{}, len(p.Nodes))
	result := shallowCopy(initialPayload)

	for step, nodeID := range order {
		node, _ := p.nodeByID(nodeID)
		predIDs := p.predecessors(nodeID)

		payload := shallowCopy(initialPayload)
		for _, edge := range edgesInto(p, nodeID) {
			if out, ok := outputs[edge.From]; ok {
				for k, v := range out {
					payload[k] = v
				}
			}
		}

		log.Info().
			Str("event_type", "pipeline_node_started").
			Str("pipeline_id", p.ID).
			Str("run_id", runID).
			Str("node_id", nodeID).
			Str("plugin_id", node.PluginID).
			Str("tool_id", node.ToolID).
			Int("step_index", step).
			Strs("predecessor_node_ids", predIDs).
			Msg("pipeline node started")

		nodeStart := time.Now()
		out, err := e.invokeNode(node, payload)
		duration := time.Since(nodeStart).Milliseconds()

		if err != nil {
			log.Error().
				Str("event_type", "pipeline_node_failed").
				Str("pipeline_id", p.ID).
				Str("run_id", runID).
				Str("node_id", nodeID).
				Int64("duration_ms", duration).
				Str("error_type", fmt.Sprintf("%T", err)).
				Str("error_message", err.Error()).
				Msg("pipeline node failed")

			log.Error().
				Str("event_type", "pipeline_failed").
				Str("pipeline_type", "dag").
				Str("pipeline_id", p.ID).
				Str("run_id", runID).
				Int64("duration_ms", time.Since(runStart).Milliseconds()).
				Str("error_type", fmt.Sprintf("%T", err)).
				Str("error_message", err.Error()).
				Msg("pipeline execution failed")

			if e.pub != nil {
				if perr := e.pub.PublishPipelineFailed(p.ID, runID, nodeID, err.Error()); perr != nil {
					log.Warn().Err(perr).Str("run_id", runID).Msg("failed to publish pipeline_failed event")
				}
			}

			return nil, err
		}

		if out == nil {
			out = map[string]interface{}{}
		}
		outputs[nodeID] = out

		outputKeys := make([]string, 0, len(out))
		for k := range out {
			outputKeys = append(outputKeys, k)
		}

		log.Info().
			Str("event_type", "pipeline_node_completed").
			Str("pipeline_id", p.ID).
			Str("run_id", runID).
			Str("node_id", nodeID).
			Int64("duration_ms", duration).
			Strs("output_keys", outputKeys).
			Msg("pipeline node completed")

		for k, v := range out {
			result[k] = v
		}
	}

	log.Info().
		Str("event_type", "pipeline_completed").
		Str("pipeline_type", "dag").
		Str("pipeline_id", p.ID).
		Str("run_id", runID).
		Int64("duration_ms", time.Since(runStart).Milliseconds()).
		Int("node_count", len(p.Nodes)).
		Msg("pipeline execution completed")

	if e.pub != nil {
		if err := e.pub.PublishPipelineCompleted(p.ID, runID, time.Since(runStart).Milliseconds()); err != nil {
			log.Warn().Err(err).Str("run_id", runID).Msg("failed to publish pipeline_completed event")
		}
	}

	return result, nil
}

// invokeNode routes through execution.Invoke rather than calling
// handler.RunTool itself, so the DAG engine shares its one call site onto
// a plugin's tool handler with ToolRunner instead of duplicating the
// registry lookup and state bookkeeping around a second one. DAG payloads
// carry arbitrary JSON with no artifact envelope, so this skips
// ExecuteTool's `_image_bytes`-specific input validation rather than
// calling ExecuteTool itself.
func (e *Engine) invokeNode(node Node, payload map[string]interface{}) (map[string]interface{}, error) {
	return execution.Invoke(e.reg, node.PluginID, node.ToolID, payload)
}

// edgesInto returns the edges targeting nodeID in edge-definition order,
// so predecessor-output merges apply last-wins in that same order.
func edgesInto(p *Pipeline, nodeID string) []Edge {
	var in []Edge
	for _, e := range p.Edges {
		if e.To == nodeID {
			in = append(in, e)
		}
	}
	return in
}

func shallowCopy(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
