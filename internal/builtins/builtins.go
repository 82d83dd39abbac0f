// Package builtins registers the small set of in-process example plugins
// ForgeSyte ships with. Plugin discovery from disk is out of scope (the
// registry only ever accepts already-instantiated handlers); these are the
// instances a default deployment has something to dispatch to.
package builtins

import "github.com/forgesyte/forgesyte/internal/registry"

// Load registers every built-in plugin factory onto reg.
func Load(reg *registry.Registry) {
	reg.LoadFromFactory(NewOCRPlugin)
	reg.LoadFromFactory(NewPassthroughPlugin)
}
