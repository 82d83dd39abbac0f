package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// health implements GET /health.
func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"plugins_loaded": len(h.deps.Registry.ListAll()),
		"version":        h.deps.ServerVersion,
	})
}

// workerHealth implements GET /worker/health. The video pipeline path
// touches the tracker on every run; alive is false until the first run.
func (h *handlers) workerHealth(c *gin.Context) {
	if h.deps.WorkerHealth == nil {
		c.JSON(http.StatusOK, gin.H{"alive": false, "last_heartbeat": float64(0)})
		return
	}
	alive, lastHeartbeat := h.deps.WorkerHealth.Snapshot()
	c.JSON(http.StatusOK, gin.H{"alive": alive, "last_heartbeat": lastHeartbeat})
}

// mcpManifest implements GET /.well-known/mcp-manifest.
func (h *handlers) mcpManifest(c *gin.Context) {
	if h.deps.Manifest == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "manifest unavailable"})
		return
	}
	c.JSON(http.StatusOK, h.deps.Manifest.Get())
}

// geminiExtension implements GET /gemini-extension, a companion discovery
// descriptor for Gemini-style tool extensions built from the same manifest.
func (h *handlers) geminiExtension(c *gin.Context) {
	var tools []string
	if h.deps.Manifest != nil {
		for _, t := range h.deps.Manifest.Get().Tools {
			tools = append(tools, t.ID)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"schema_version":         "v1",
		"name_for_model":         h.deps.ServerName,
		"name_for_human":         h.deps.ServerName,
		"description_for_model":  "Submits binary artifacts (images, frames, video) to ForgeSyte's analysis plugins and returns canonical results.",
		"description_for_human":  "ForgeSyte artifact analysis",
		"auth": gin.H{
			"type": "user_http",
		},
		"api": gin.H{
			"type":             "openapi",
			"mcp_endpoint":     "/v1/mcp",
			"manifest_endpoint": "/.well-known/mcp-manifest",
		},
		"tools": tools,
	})
}
