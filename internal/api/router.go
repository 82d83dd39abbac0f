// Package api wires the registry, worker pool, execution chain, DAG
// pipeline engine, MCP transport, and streaming hub onto the HTTP REST
// surface (§6.1).
package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/forgesyte/forgesyte/internal/apperrors"
	"github.com/forgesyte/forgesyte/internal/cache"
	"github.com/forgesyte/forgesyte/internal/execution"
	"github.com/forgesyte/forgesyte/internal/imagefetch"
	"github.com/forgesyte/forgesyte/internal/jobs"
	"github.com/forgesyte/forgesyte/internal/mcp"
	"github.com/forgesyte/forgesyte/internal/middleware"
	"github.com/forgesyte/forgesyte/internal/pipeline"
	"github.com/forgesyte/forgesyte/internal/registry"
	"github.com/forgesyte/forgesyte/internal/streaming"
	"github.com/forgesyte/forgesyte/internal/workerhealth"
)

// Dependencies holds every component the router binds onto routes.
// Nil fields are tolerated for optional components a given deployment has
// not wired (e.g. a test server without a streaming hub or cache); the
// handlers that check for those return ServiceUnavailable (or skip the
// cache). Registry and Fetcher are not nil-checked, and JobPool is checked
// only by POST /v1/analyze, so those must be set.
type Dependencies struct {
	Registry       *registry.Registry
	JobPool        *jobs.Pool
	Analysis       *execution.AnalysisExecutionService
	PipelineReg    *pipeline.Registry
	PipelineEngine *pipeline.Engine
	MCPServer      *mcp.Server
	Manifest       *mcp.ManifestCache
	Hub            *streaming.Hub
	Frames         *streaming.FrameProcessor
	Fetcher        *imagefetch.Fetcher
	WorkerHealth   *workerhealth.Tracker
	Cache          *cache.Cache
	RateLimiter    *middleware.RateLimiter

	KeyTable    middleware.KeyTable
	CORSOrigins []string

	ServerName    string
	ServerVersion string
}

type handlers struct {
	deps Dependencies
}

// NewRouter assembles the full middleware chain and route table.
func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(apperrors.Recovery())
	r.Use(middleware.StructuredLogger())
	r.Use(middleware.TimeoutWithDuration(30 * time.Second))
	r.Use(middleware.AllowedHTTPMethods())
	r.Use(middleware.CORS(deps.CORSOrigins))
	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.Middleware())
	}
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.DefaultSizeLimiter())
	r.Use(apperrors.ErrorHandler())

	h := &handlers{deps: deps}

	r.GET("/health", h.health)
	r.GET("/worker/health", h.workerHealth)
	r.GET("/.well-known/mcp-manifest", h.mcpManifest)
	r.GET("/gemini-extension", h.geminiExtension)

	// /ws/jobs/{job_id} sits outside the /v1 prefix (§6.2) but still
	// requires the same key and "stream" permission as /v1/stream.
	r.GET("/ws/jobs/:job_id",
		middleware.Authenticate(deps.KeyTable),
		middleware.RequirePermission(middleware.PermissionStream),
		h.streamJob)

	v1 := r.Group("/v1")
	v1.Use(middleware.Authenticate(deps.KeyTable))
	{
		v1.POST("/analyze", middleware.RequirePermission(middleware.PermissionAnalyze), h.analyze)
		v1.GET("/jobs/:id", jobCacheMiddleware(deps.Cache), h.getJob)
		v1.GET("/jobs", h.listJobs)
		v1.DELETE("/jobs/:id", h.cancelJob)

		v1.GET("/plugins", jobCacheMiddleware(deps.Cache), h.listPlugins)
		v1.GET("/plugins/:name", h.getPlugin)
		v1.GET("/plugins/:name/manifest", h.pluginManifest)
		v1.POST("/plugins/:name/reload", middleware.RequirePermission(middleware.PermissionAdmin), h.reloadPlugin)
		v1.POST("/plugins/reload-all", middleware.RequirePermission(middleware.PermissionAdmin), h.reloadAllPlugins)

		v1.POST("/mcp", h.mcp)
		v1.POST("/video/pipeline", h.runPipeline)
		v1.GET("/pipelines", h.listPipelines)
		v1.POST("/pipelines/:id/run", h.runPipelineByID)

		v1.GET("/stream", middleware.RequirePermission(middleware.PermissionStream), h.stream)
	}

	return r
}

// jobCacheMiddleware caches GET responses for read-heavy job/plugin status
// endpoints when a Redis-backed cache is wired; it is a no-op otherwise.
func jobCacheMiddleware(c *cache.Cache) gin.HandlerFunc {
	if c == nil {
		return func(ctx *gin.Context) { ctx.Next() }
	}
	return cache.CacheMiddleware(c, 10*time.Second)
}
