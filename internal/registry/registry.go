// Package registry holds every discovered plugin for the lifetime of the
// process and serves look-ups for execution.
//
// There is exactly one Registry instance per process. Callers obtain it
// through Get, which lazily constructs the singleton on first use; a
// direct call to New is only valid in tests, which need independent
// instances.
package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/forgesyte/forgesyte/internal/lifecycle"
	"github.com/forgesyte/forgesyte/internal/logger"
)

const durationRingSize = 10

// entry is the registry's internal per-plugin record.
type entry struct {
	name        string
	description string
	version     string
	state       lifecycle.State
	lastError   string
	handler     Handler
	factory     func() Handler // nil unless loaded via LoadFromFactory

	loadedAt time.Time
	usedAt   time.Time

	successes int
	errors    int

	durations []int64 // milliseconds, bounded FIFO
	durHead   int
	durCount  int
}

// Status is a point-in-time snapshot of one plugin's state and metrics.
type Status struct {
	Name              string
	Description       string
	Version           string
	State             lifecycle.State
	LastError         string
	LoadedAt          time.Time
	LastUsedAt        time.Time
	Successes         int
	Errors            int
	LastDurationMs    int64
	AvgDurationMs     float64
	UptimeSeconds     float64
}

// Registry is the plugin lifecycle and metrics store (component A+B).
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	onMutate func()
}

var (
	singleton     *Registry
	singletonOnce sync.Once
)

// Get returns the single process-wide Registry, constructing it on first
// call.
func Get() *Registry {
	singletonOnce.Do(func() {
		singleton = New()
	})
	return singleton
}

// New constructs an independent Registry. Production code should use Get;
// New exists for tests that need isolated state.
func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// OnMutation registers fn to run after any mutation that adds a plugin or
// changes its lifecycle state — anything that could change what
// ListAvailable produces. A manifest cache subscribes here so it never
// serves a plugin list that's stale against a plugin going down or coming
// back up; the TTL on the cache itself is just a backstop. Only one
// subscriber is supported, set once at startup.
func (r *Registry) OnMutation(fn func()) {
	r.mu.Lock()
	r.onMutate = fn
	r.mu.Unlock()
}

func (r *Registry) notifyMutation() {
	r.mu.RLock()
	fn := r.onMutate
	r.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// Register transitions name to LOADED and stores instance. Re-registration
// of an existing name overwrites its record.
func (r *Registry) Register(name, description, version string, instance Handler) {
	r.mu.Lock()
	r.entries[name] = &entry{
		name:        name,
		description: description,
		version:     version,
		state:       lifecycle.Loaded,
		handler:     instance,
		loadedAt:    time.Now(),
		durations:   make([]int64, durationRingSize),
	}
	r.mu.Unlock()

	logger.Registry().Info().Str("plugin", name).Str("version", version).Msg("plugin registered")
	r.notifyMutation()
}

// LoadFromFactory instantiates a plugin via factory, registers it directly
// in the INITIALIZED state (no separate LOADED record is stored), and
// retains factory so a later Reload can produce a
// fresh instance without losing the plugin's accumulated metrics history.
func (r *Registry) LoadFromFactory(factory func() Handler) {
	instance := factory()
	meta := instance.Metadata()

	r.mu.Lock()
	r.entries[meta.Name] = &entry{
		name:        meta.Name,
		description: meta.Description,
		version:     meta.Version,
		state:       lifecycle.Initialized,
		handler:     instance,
		factory:     factory,
		loadedAt:    time.Now(),
		durations:   make([]int64, durationRingSize),
	}
	r.mu.Unlock()

	logger.Registry().Info().Str("plugin", meta.Name).Str("version", meta.Version).Msg("plugin loaded")
	r.notifyMutation()
}

// Reload re-instantiates name from its stored factory, replacing the
// handler in place while preserving its success/error counters and
// duration history. Fails if name is unknown or was never loaded via a
// factory (e.g. registered directly by a test).
func (r *Registry) Reload(name string) error {
	r.mu.Lock()
	e, ok := r.entries[name]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("plugin %q not registered", name)
	}
	factory := e.factory
	r.mu.Unlock()

	if factory == nil {
		return fmt.Errorf("plugin %q has no reload factory", name)
	}

	instance := factory()

	r.mu.Lock()
	e, ok = r.entries[name]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("plugin %q not registered", name)
	}
	e.handler = instance
	e.state = lifecycle.Initialized
	e.lastError = ""
	r.mu.Unlock()

	logger.Registry().Info().Str("plugin", name).Msg("plugin reloaded")
	r.notifyMutation()
	return nil
}

// ReloadAll reloads every plugin that has a stored factory, returning the
// names that could not be reloaded (no factory, or now missing).
func (r *Registry) ReloadAll() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)

	var failed []string
	for _, name := range names {
		if err := r.Reload(name); err != nil {
			failed = append(failed, name)
		}
	}
	return failed
}

// MarkInitialized transitions name to INITIALIZED.
func (r *Registry) MarkInitialized(name string) error {
	return r.transition(name, lifecycle.Initialized, "")
}

// MarkRunning transitions name to RUNNING.
func (r *Registry) MarkRunning(name string, _ time.Time) error {
	return r.transition(name, lifecycle.Running, "")
}

// MarkFailed transitions name to FAILED, recording reason. All other
// fields are preserved.
func (r *Registry) MarkFailed(name, reason string) error {
	return r.transition(name, lifecycle.Failed, reason)
}

// MarkUnavailable transitions name to UNAVAILABLE, recording reason. All
// other fields are preserved.
func (r *Registry) MarkUnavailable(name, reason string) error {
	return r.transition(name, lifecycle.Unavailable, reason)
}

func (r *Registry) transition(name string, state lifecycle.State, reason string) error {
	r.mu.Lock()
	e, ok := r.entries[name]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("plugin %q not registered", name)
	}
	e.state = state
	if reason != "" {
		e.lastError = reason
	}
	r.mu.Unlock()

	logger.Registry().Info().Str("plugin", name).Str("state", string(state)).Msg("plugin state transition")
	r.notifyMutation()
	return nil
}

// RecordExecution appends durationMs to the bounded ring, bumps the
// success or error counter, and updates the last-used timestamp.
func (r *Registry) RecordExecution(name string, durationMs int64, hadError bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok {
		return
	}
	e.usedAt = time.Now()
	if hadError {
		e.errors++
	} else {
		e.successes++
	}
	e.durations[e.durHead] = durationMs
	e.durHead = (e.durHead + 1) % durationRingSize
	if e.durCount < durationRingSize {
		e.durCount++
	}
}

// Get returns the handler instance for name, or false if absent.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.handler, true
}

// Status returns a snapshot record for name, including derived
// uptimeSeconds and avgDurationMs.
func (r *Registry) Status(name string) (Status, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return Status{}, false
	}
	return snapshot(e), true
}

// ListAll returns a snapshot of every registered plugin, sorted by name.
func (r *Registry) ListAll() []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Status, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, snapshot(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ListAvailable returns the names of plugins currently in
// {LOADED, INITIALIZED, RUNNING}, sorted.
func (r *Registry) ListAvailable() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.entries))
	for name, e := range r.entries {
		if e.state.Available() {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func snapshot(e *entry) Status {
	var last int64
	var sum int64
	if e.durCount > 0 {
		idx := (e.durHead - 1 + durationRingSize) % durationRingSize
		last = e.durations[idx]
		for i := 0; i < e.durCount; i++ {
			sum += e.durations[i]
		}
	}
	avg := 0.0
	if e.durCount > 0 {
		avg = float64(sum) / float64(e.durCount)
	}
	uptime := 0.0
	if !e.loadedAt.IsZero() {
		uptime = time.Since(e.loadedAt).Seconds()
	}
	return Status{
		Name:           e.name,
		Description:    e.description,
		Version:        e.version,
		State:          e.state,
		LastError:      e.lastError,
		LoadedAt:       e.loadedAt,
		LastUsedAt:     e.usedAt,
		Successes:      e.successes,
		Errors:         e.errors,
		LastDurationMs: last,
		AvgDurationMs:  avg,
		UptimeSeconds:  uptime,
	}
}

// Audit asserts the self-consistency invariants from the startup
// self-audit: the registry is non-empty iff at least one name was
// supplied, every supplied name is present, and every present plugin has
// a valid lifecycle state. It returns the violations found, if any; the
// caller decides whether to treat them as fatal (strict mode) or merely
// log them.
func (r *Registry) Audit(expectedNames []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var violations []string

	if len(expectedNames) > 0 && len(r.entries) == 0 {
		violations = append(violations, "registry is empty but plugins were supplied")
	}
	if len(expectedNames) == 0 && len(r.entries) > 0 {
		violations = append(violations, "registry is non-empty but no plugins were supplied")
	}
	for _, name := range expectedNames {
		if _, ok := r.entries[name]; !ok {
			violations = append(violations, fmt.Sprintf("plugin %q missing from registry", name))
		}
	}
	for name, e := range r.entries {
		if !e.state.Valid() {
			violations = append(violations, fmt.Sprintf("plugin %q has invalid lifecycle state %q", name, e.state))
		}
	}
	return violations
}
