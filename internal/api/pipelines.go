package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forgesyte/forgesyte/internal/apperrors"
)

// listPipelines implements GET /v1/pipelines: every pipeline descriptor
// loaded from FORGESYTE_PLUGINS_DIR at startup (§6.3).
func (h *handlers) listPipelines(c *gin.Context) {
	if h.deps.PipelineReg == nil {
		apperrors.AbortWithError(c, apperrors.ServiceUnavailable("pipeline registry"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"pipelines": h.deps.PipelineReg.List()})
}

// runPipelineByID implements POST /v1/pipelines/{id}/run: looks up a
// pipeline by id and runs it through the shared DAG engine (§4.5). An
// absent id is a "not found" response, not an error, per the pipeline
// registry's own lookup semantics.
func (h *handlers) runPipelineByID(c *gin.Context) {
	if h.deps.PipelineReg == nil || h.deps.PipelineEngine == nil {
		apperrors.AbortWithError(c, apperrors.ServiceUnavailable("pipeline engine"))
		return
	}

	id := c.Param("id")
	p, ok := h.deps.PipelineReg.Get(id)
	if !ok {
		apperrors.AbortWithError(c, apperrors.NotFound("pipeline "+id))
		return
	}

	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil && err.Error() != "EOF" {
		apperrors.AbortWithError(c, apperrors.BadRequest(err.Error()))
		return
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}

	if h.deps.WorkerHealth != nil {
		h.deps.WorkerHealth.Touch()
	}

	result, err := h.deps.PipelineEngine.Run(p, payload)
	if err != nil {
		if appErr, ok := err.(*apperrors.AppError); ok {
			apperrors.AbortWithError(c, appErr)
			return
		}
		apperrors.AbortWithError(c, apperrors.InternalServer(err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{"pipeline_id": id, "result": result})
}
