package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/forgesyte/forgesyte/internal/apperrors"
	"github.com/forgesyte/forgesyte/internal/jobs"
)

// analyze implements POST /v1/analyze.
func (h *handlers) analyze(c *gin.Context) {
	if h.deps.JobPool == nil {
		apperrors.AbortWithError(c, apperrors.ServiceUnavailable("worker pool"))
		return
	}

	pluginName := c.DefaultQuery("plugin", "ocr")

	var uploaded []byte
	if file, _, err := c.Request.FormFile("file"); err == nil {
		defer file.Close()
		if data, readErr := io.ReadAll(file); readErr == nil {
			uploaded = data
		}
	}

	var rawBody []byte
	if len(uploaded) == 0 {
		if data, err := io.ReadAll(c.Request.Body); err == nil {
			rawBody = data
		}
	}

	imageBytes, err := h.deps.Fetcher.Resolve(uploaded, c.Query("image_url"), "", rawBody)
	if err != nil {
		apperrors.AbortWithError(c, apperrors.Validation("image", err.Error()))
		return
	}

	var options map[string]interface{}
	if raw := c.Query("options"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &options); err != nil {
			apperrors.AbortWithError(c, apperrors.BadRequest("invalid options JSON: "+err.Error()))
			return
		}
	}

	jobID, err := h.deps.JobPool.SubmitJob(imageBytes, pluginName, options, c.Query("device"), nil)
	if err != nil {
		apperrors.AbortWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{"job_id": jobID, "status": "queued", "plugin": pluginName})
}

// getJob implements GET /v1/jobs/{id}.
func (h *handlers) getJob(c *gin.Context) {
	id := c.Param("id")
	job, ok := h.deps.JobPool.GetJob(id)
	if !ok {
		apperrors.AbortWithError(c, apperrors.JobNotFound(id))
		return
	}
	c.JSON(http.StatusOK, job)
}

// listJobs implements GET /v1/jobs.
func (h *handlers) listJobs(c *gin.Context) {
	status := jobs.Status(c.Query("status"))
	plugin := c.Query("plugin")

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	list := h.deps.JobPool.ListJobs(status, plugin, limit)
	c.JSON(http.StatusOK, gin.H{"jobs": list, "count": len(list)})
}

// cancelJob implements DELETE /v1/jobs/{id}.
func (h *handlers) cancelJob(c *gin.Context) {
	id := c.Param("id")
	if !h.deps.JobPool.CancelJob(id) {
		apperrors.AbortWithError(c, apperrors.JobCancellation(id, "job is not QUEUED"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled", "job_id": id})
}
