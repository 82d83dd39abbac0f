// Package cache provides Redis-based caching for the ForgeSyte API.
//
// This file defines cache key naming conventions used across the
// plugin manifest cache and job lookups.
//
// Key Naming Convention:
//   - Format: {prefix}:{identifier}
//   - Example: manifest:global -> the generated tools/plugin manifest
//   - Example: job:abc123 -> a single job's result document
package cache

import "fmt"

// Key prefixes for different resource types.
const (
	PrefixManifest = "manifest"
	PrefixJob      = "job"
	PrefixPlugin   = "plugin"
)

// ManifestKey is the cache key for the generated tool manifest.
func ManifestKey() string {
	return fmt.Sprintf("%s:global", PrefixManifest)
}

// JobKey is the cache key for a single job's result document.
func JobKey(jobID string) string {
	return fmt.Sprintf("%s:%s", PrefixJob, jobID)
}

// PluginStatusKey is the cache key for a plugin's status snapshot.
func PluginStatusKey(name string) string {
	return fmt.Sprintf("%s:%s:status", PrefixPlugin, name)
}

// JobPattern matches every cached job key, for bulk invalidation.
func JobPattern() string {
	return fmt.Sprintf("%s:*", PrefixJob)
}
