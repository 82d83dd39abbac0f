package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/forgesyte/forgesyte/internal/api"
	"github.com/forgesyte/forgesyte/internal/builtins"
	"github.com/forgesyte/forgesyte/internal/cache"
	"github.com/forgesyte/forgesyte/internal/config"
	"github.com/forgesyte/forgesyte/internal/events"
	"github.com/forgesyte/forgesyte/internal/execution"
	"github.com/forgesyte/forgesyte/internal/imagefetch"
	"github.com/forgesyte/forgesyte/internal/jobs"
	"github.com/forgesyte/forgesyte/internal/logger"
	"github.com/forgesyte/forgesyte/internal/mcp"
	"github.com/forgesyte/forgesyte/internal/middleware"
	"github.com/forgesyte/forgesyte/internal/pipeline"
	"github.com/forgesyte/forgesyte/internal/pluginconfig"
	"github.com/forgesyte/forgesyte/internal/registry"
	"github.com/forgesyte/forgesyte/internal/streaming"
	"github.com/forgesyte/forgesyte/internal/workerhealth"
)

const (
	serverName    = "forgesyte"
	serverVersion = "1.0.0"
)

func main() {
	cfg := config.Load()

	logger.Initialize(cfg.LogLevel, cfg.LogPretty)
	log := logger.GetLogger()

	log.Info().Msg("starting forgesyte server")

	reg := registry.Get()
	builtins.Load(reg)
	if cfg.StrictRegistryAudit {
		if missing := reg.Audit([]string{"ocr", "passthrough"}); len(missing) > 0 {
			log.Fatal().Strs("missing", missing).Msg("registry audit failed")
		}
	}

	pluginConfigs, configErrs := pluginconfig.LoadDir(cfg.PluginsDir)
	for _, e := range configErrs {
		log.Warn().Err(e).Msg("failed to load plugin config")
	}
	for name := range pluginConfigs {
		log.Info().Str("plugin", name).Msg("loaded plugin config descriptor")
	}

	store := jobs.NewStore(cfg.JobCap)
	runner := execution.NewToolRunner(reg)
	jobService := execution.NewJobExecutionService(store, runner)
	analysisService := execution.NewAnalysisExecutionService(jobService)

	pool := jobs.NewPool(store, cfg.WorkerCount, func(pluginName, toolName string, args map[string]interface{}) (map[string]interface{}, string, error) {
		result, err := runner.ExecuteTool(pluginName, toolName, args, "application/octet-stream")
		return result, "", err
	})

	pipelineReg := pipeline.NewRegistry()
	if errs := pipelineReg.LoadDir(cfg.PluginsDir); len(errs) > 0 {
		for _, e := range errs {
			log.Warn().Err(e).Msg("failed to load pipeline descriptor")
		}
	}
	pipelineEngine := pipeline.NewEngine(reg)

	fetcher := imagefetch.NewFetcher(cfg.MaxRetries, cfg.FetchTimeoutSeconds)

	manifest := mcp.NewManifestCache(reg, cfg.ManifestTTLSeconds, serverName, serverVersion)
	reg.OnMutation(manifest.Invalidate)
	mcpServer := mcp.NewServer()
	mcpHandlers := mcp.NewHandlers(reg, analysisService, store, fetcher, manifest, serverName, serverVersion)
	mcpHandlers.Register(mcpServer)

	hub := streaming.NewHub()
	frames := streaming.NewFrameProcessor(hub, runner, fetcher)

	workerHealth := workerhealth.NewTracker()

	redisCache, err := cache.NewCache(cache.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Enabled:  cfg.CacheEnabled,
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to redis cache, continuing without it")
		redisCache, _ = cache.NewCache(cache.Config{Enabled: false})
	} else if cfg.CacheEnabled {
		log.Info().Msg("redis cache enabled")
		redisCache.SubscribeManifestBump(context.Background(), manifest.Invalidate)
	}

	natsURL := ""
	if cfg.EventsEnabled {
		natsURL = cfg.NATSURL
	}
	eventPublisher, err := events.NewPublisher(events.Config{URL: natsURL})
	if err != nil {
		log.Warn().Err(err).Msg("event publisher initialization failed, continuing without it")
	}
	if cfg.EventsEnabled && eventPublisher.IsEnabled() {
		log.Info().Msg("nats event publisher enabled")
	}
	pool.SetPublisher(eventPublisher)
	pipelineEngine.SetPublisher(eventPublisher)

	keyTable := middleware.NewKeyTable(cfg.AdminKey, cfg.UserKey)

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		log.Info().Float64("rps", cfg.RateLimitRPS).Int("burst", cfg.RateLimitBurst).Msg("rate limiting enabled")
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.NewRouter(api.Dependencies{
		Registry:       reg,
		JobPool:        pool,
		Analysis:       analysisService,
		PipelineReg:    pipelineReg,
		PipelineEngine: pipelineEngine,
		MCPServer:      mcpServer,
		Manifest:       manifest,
		Hub:            hub,
		Frames:         frames,
		Fetcher:        fetcher,
		WorkerHealth:   workerHealth,
		Cache:          redisCache,
		RateLimiter:    rateLimiter,
		KeyTable:       keyTable,
		CORSOrigins:    cfg.CORSOrigins,
		ServerName:     serverName,
		ServerVersion:  serverVersion,
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,

		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutdown signal received")

	shutdownTimeout := 30 * time.Second
	if raw := os.Getenv("SHUTDOWN_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			shutdownTimeout = d
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("http server forced to shutdown")
	} else {
		log.Info().Msg("http server stopped gracefully")
	}

	hub.Close()

	if eventPublisher != nil {
		if err := eventPublisher.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing event publisher")
		}
	}
	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing redis cache")
		}
	}

	log.Info().Msg("shutdown complete")
}
