package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forgesyte/forgesyte/internal/mcp"
)

// mcp implements POST /v1/mcp: the JSON-RPC 2.0 endpoint (§4.6). A single
// request yields 200 (success or error) or 204 for a notification; a
// batch yields 200 with an array of responses, empty if every member was
// a notification; malformed JSON yields 400.
func (h *handlers) mcp(c *gin.Context) {
	if h.deps.MCPServer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "mcp transport unavailable"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	single, batch, err := mcp.ParseMessage(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed JSON-RPC message: " + err.Error()})
		return
	}

	if batch != nil {
		c.JSON(http.StatusOK, h.deps.MCPServer.HandleBatch(batch))
		return
	}

	resp := h.deps.MCPServer.HandleRequest(single)
	if resp == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, resp)
}
