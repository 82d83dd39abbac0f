package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/forgesyte/forgesyte/internal/logger"
)

// Registry holds pipeline descriptors loaded from a directory of JSON
// files at startup. Lookup by id returns absent (not an error) if
// missing.
type Registry struct {
	mu        sync.RWMutex
	pipelines map[string]*Pipeline
}

// NewRegistry constructs an empty pipeline Registry.
func NewRegistry() *Registry {
	return &Registry{pipelines: make(map[string]*Pipeline)}
}

// LoadDir loads every *.json file in dir as a Pipeline descriptor.
// Descriptors that fail to parse or fail structural validation are
// rejected and not registered; LoadDir continues with the remaining
// files and returns the accumulated errors.
func (r *Registry) LoadDir(dir string) []error {
	log := logger.Pipeline()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return []error{fmt.Errorf("reading pipeline directory %q: %w", dir, err)}
	}

	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("reading %q: %w", path, err))
			continue
		}

		var p Pipeline
		if err := json.Unmarshal(data, &p); err != nil {
			errs = append(errs, fmt.Errorf("parsing %q: %w", path, err))
			continue
		}

		if violations := Validate(&p); len(violations) > 0 {
			errs = append(errs, fmt.Errorf("invalid pipeline descriptor %q: %v", path, violations))
			continue
		}

		r.mu.Lock()
		r.pipelines[p.ID] = &p
		r.mu.Unlock()
		log.Info().Str("pipeline_id", p.ID).Str("file", path).Msg("pipeline descriptor loaded")
	}

	return errs
}

// Get returns the pipeline for id, or false if absent.
func (r *Registry) Get(id string) (*Pipeline, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.pipelines[id]
	return p, ok
}

// List returns every registered pipeline.
func (r *Registry) List() []*Pipeline {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Pipeline, 0, len(r.pipelines))
	for _, p := range r.pipelines {
		out = append(out, p)
	}
	return out
}
