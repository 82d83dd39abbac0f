package mcp

import (
	"sync"
	"time"

	"github.com/forgesyte/forgesyte/internal/logger"
	"github.com/forgesyte/forgesyte/internal/registry"
)

// ToolDescriptor is one entry in the Manifest's tool catalog.
type ToolDescriptor struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	Inputs              []string `json:"inputs"`
	Outputs             []string `json:"outputs"`
	InvocationEndpoint  string   `json:"invocation_endpoint"`
	RequiredPermissions []string `json:"required_permissions"`
}

// Manifest is the serializable discovery snapshot for external clients.
type Manifest struct {
	Name            string           `json:"name"`
	Version         string           `json:"version"`
	ProtocolVersion string           `json:"protocol_version"`
	Tools           []ToolDescriptor `json:"tools"`
}

// ManifestCache generates and caches a Manifest with a fixed TTL,
// regenerating only when the cache has expired or was explicitly
// invalidated.
type ManifestCache struct {
	mu        sync.RWMutex
	reg       *registry.Registry
	ttl       time.Duration
	cached    *Manifest
	cachedAt  time.Time
	serverName string
	version    string
}

// NewManifestCache constructs a ManifestCache with the given TTL (default
// 60s — this deliberately diverges from a 300s default some deployments
// assume).
func NewManifestCache(reg *registry.Registry, ttlSeconds int, serverName, version string) *ManifestCache {
	if ttlSeconds <= 0 {
		ttlSeconds = 60
	}
	return &ManifestCache{
		reg:        reg,
		ttl:        time.Duration(ttlSeconds) * time.Second,
		serverName: serverName,
		version:    version,
	}
}

// Get returns the cached Manifest if still fresh, otherwise regenerates
// it.
func (c *ManifestCache) Get() *Manifest {
	c.mu.RLock()
	if c.cached != nil && time.Since(c.cachedAt) < c.ttl {
		m := c.cached
		c.mu.RUnlock()
		return m
	}
	c.mu.RUnlock()

	return c.regenerate()
}

// Invalidate drops the cached Manifest, forcing regeneration on the next
// Get. Call this on any registry mutation that could change the
// manifest: plugin add, remove, or a state change into/out of the
// available set.
func (c *ManifestCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = nil
}

func (c *ManifestCache) regenerate() *Manifest {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && time.Since(c.cachedAt) < c.ttl {
		return c.cached
	}

	log := logger.MCP()
	var tools []ToolDescriptor
	for _, status := range c.reg.ListAll() {
		if !status.State.Available() {
			continue
		}
		handler, ok := c.reg.Get(status.Name)
		if !ok {
			continue
		}
		meta := handler.Metadata()
		if meta.Name == "" {
			log.Error().Str("plugin", status.Name).Msg("skipping plugin with invalid metadata")
			continue
		}
		tools = append(tools, ToolDescriptor{
			ID:                  "forgesyte:" + meta.Name,
			Title:               meta.Name,
			Description:         meta.Description,
			Inputs:              meta.InputTypes,
			Outputs:             meta.OutputTypes,
			InvocationEndpoint:  "/v1/analyze",
			RequiredPermissions: meta.RequiredPermissions,
		})
	}

	c.cached = &Manifest{
		Name:            c.serverName,
		Version:         c.version,
		ProtocolVersion: "2.0",
		Tools:           tools,
	}
	c.cachedAt = time.Now()
	return c.cached
}
