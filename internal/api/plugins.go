package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forgesyte/forgesyte/internal/apperrors"
	"github.com/forgesyte/forgesyte/internal/logger"
)

// listPlugins implements GET /v1/plugins.
func (h *handlers) listPlugins(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plugins": h.deps.Registry.ListAll()})
}

// getPlugin implements GET /v1/plugins/{name}.
func (h *handlers) getPlugin(c *gin.Context) {
	name := c.Param("name")
	status, ok := h.deps.Registry.Status(name)
	if !ok {
		apperrors.AbortWithError(c, apperrors.PluginNotFound(name))
		return
	}
	c.JSON(http.StatusOK, status)
}

// pluginManifest implements GET /v1/plugins/{id}/manifest.
func (h *handlers) pluginManifest(c *gin.Context) {
	name := c.Param("name")
	if _, ok := h.deps.Registry.Get(name); !ok {
		apperrors.AbortWithError(c, apperrors.PluginNotFound(name))
		return
	}
	if h.deps.Manifest == nil {
		apperrors.AbortWithError(c, apperrors.ServiceUnavailable("manifest cache"))
		return
	}

	for _, tool := range h.deps.Manifest.Get().Tools {
		if tool.Title == name {
			c.JSON(http.StatusOK, tool)
			return
		}
	}
	apperrors.AbortWithError(c, apperrors.NotFound("plugin manifest for "+name))
}

// reloadPlugin implements POST /v1/plugins/{name}/reload (admin).
func (h *handlers) reloadPlugin(c *gin.Context) {
	name := c.Param("name")
	if err := h.deps.Registry.Reload(name); err != nil {
		apperrors.AbortWithError(c, apperrors.Wrap(apperrors.ErrCodeInternalServer, "plugin reload failed", err))
		return
	}
	h.bumpManifest(c)
	c.JSON(http.StatusOK, gin.H{"status": "reloaded", "plugin": name})
}

// reloadAllPlugins implements POST /v1/plugins/reload-all (admin).
func (h *handlers) reloadAllPlugins(c *gin.Context) {
	failed := h.deps.Registry.ReloadAll()
	h.bumpManifest(c)
	c.JSON(http.StatusOK, gin.H{"status": "reloaded", "failed": failed})
}

// bumpManifest invalidates the local manifest cache and, when a Redis
// cache is configured, broadcasts the invalidation so every other
// ForgeSyte process sharing it drops its own local cache too.
func (h *handlers) bumpManifest(c *gin.Context) {
	if h.deps.Manifest != nil {
		h.deps.Manifest.Invalidate()
	}
	if h.deps.Cache != nil && h.deps.Cache.IsEnabled() {
		if err := h.deps.Cache.PublishManifestBump(c.Request.Context()); err != nil {
			logger.HTTP().Warn().Err(err).Msg("failed to publish manifest bump")
		}
	}
}
