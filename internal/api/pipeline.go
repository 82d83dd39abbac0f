package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forgesyte/forgesyte/internal/apperrors"
	"github.com/forgesyte/forgesyte/internal/pipeline"
)

type pipelineRunRequest struct {
	PluginID string                 `json:"plugin_id" binding:"required"`
	Tools    []string               `json:"tools" binding:"required"`
	Payload  map[string]interface{} `json:"payload"`
}

// runPipeline implements POST /v1/video/pipeline (§6.1): a linear,
// single-plugin sequence of tools chained over one payload, each tool's
// result feeding the next as input. It is built as a sequence of
// degenerate single-node DAGs run through the same pipeline.Engine the
// multi-node DAG surface uses, rather than a parallel execution path.
func (h *handlers) runPipeline(c *gin.Context) {
	if h.deps.PipelineEngine == nil {
		apperrors.AbortWithError(c, apperrors.ServiceUnavailable("pipeline engine"))
		return
	}

	var req pipelineRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.AbortWithError(c, apperrors.BadRequest(err.Error()))
		return
	}
	if len(req.Tools) == 0 {
		apperrors.AbortWithError(c, apperrors.BadRequest("tools must be a non-empty list"))
		return
	}

	payload := req.Payload
	if payload == nil {
		payload = map[string]interface{}{}
	}

	if h.deps.WorkerHealth != nil {
		h.deps.WorkerHealth.Touch()
	}

	steps := make([]map[string]interface{}, 0, len(req.Tools))
	current := payload
	for i, tool := range req.Tools {
		node := pipeline.Node{ID: fmt.Sprintf("step-%d", i), PluginID: req.PluginID, ToolID: tool}
		step := &pipeline.Pipeline{
			ID:          "video-pipeline-step",
			Nodes:       []pipeline.Node{node},
			EntryNodes:  []string{node.ID},
			OutputNodes: []string{node.ID},
		}

		result, err := h.deps.PipelineEngine.Run(step, current)
		if err != nil {
			if appErr, ok := err.(*apperrors.AppError); ok {
				apperrors.AbortWithError(c, appErr)
				return
			}
			apperrors.AbortWithError(c, apperrors.InternalServer(err.Error()))
			return
		}

		steps = append(steps, result)
		current = result
	}

	var last map[string]interface{}
	if len(steps) > 0 {
		last = steps[len(steps)-1]
	}

	c.JSON(http.StatusOK, gin.H{
		"result":    last,
		"steps":     steps,
		"plugin_id": req.PluginID,
		"tools":     req.Tools,
	})
}
