package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgesyte/forgesyte/internal/lifecycle"
)

type fakeHandler struct {
	meta    Metadata
	calls   int
	failNth int
}

func (f *fakeHandler) Metadata() Metadata { return f.meta }

func (f *fakeHandler) RunTool(tool string, args map[string]interface{}) (map[string]interface{}, error) {
	f.calls++
	if f.failNth > 0 && f.calls == f.failNth {
		return nil, assertErr{}
	}
	return map[string]interface{}{"ok": true}, nil
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := New()
	h := &fakeHandler{meta: Metadata{Name: "ocr"}}
	r.Register("ocr", "optical character recognition", "1.0.0", h)

	got, ok := r.Get("ocr")
	require.True(t, ok)
	assert.Equal(t, h, got)

	status, ok := r.Status("ocr")
	require.True(t, ok)
	assert.Equal(t, lifecycle.Loaded, status.State)
}

func TestRegistry_TransitionsAndMetrics(t *testing.T) {
	r := New()
	r.Register("ocr", "", "1.0.0", &fakeHandler{})

	require.NoError(t, r.MarkInitialized("ocr"))
	require.NoError(t, r.MarkRunning("ocr", time.Now()))
	r.RecordExecution("ocr", 42, false)
	r.RecordExecution("ocr", 58, true)

	status, _ := r.Status("ocr")
	assert.Equal(t, lifecycle.Running, status.State)
	assert.Equal(t, 1, status.Successes)
	assert.Equal(t, 1, status.Errors)
	assert.Equal(t, int64(58), status.LastDurationMs)
	assert.InDelta(t, 50.0, status.AvgDurationMs, 0.01)
}

func TestRegistry_ListAvailableExcludesFailedAndUnavailable(t *testing.T) {
	r := New()
	r.Register("a", "", "", &fakeHandler{})
	r.Register("b", "", "", &fakeHandler{})
	r.Register("c", "", "", &fakeHandler{})

	require.NoError(t, r.MarkFailed("b", "init error"))
	require.NoError(t, r.MarkUnavailable("c", "dependency missing"))

	assert.Equal(t, []string{"a"}, r.ListAvailable())
}

func TestRegistry_Audit_DetectsMissingPlugin(t *testing.T) {
	r := New()
	r.Register("a", "", "", &fakeHandler{})

	violations := r.Audit([]string{"a", "b"})
	assert.Len(t, violations, 1)
	assert.Contains(t, violations[0], `"b"`)
}

func TestRegistry_Audit_EmptyRegistryWithExpectedNamesIsViolation(t *testing.T) {
	r := New()
	violations := r.Audit([]string{"a"})
	require.Len(t, violations, 2)
	assert.Contains(t, violations[0], "registry is empty")
}

func TestRegistry_LoadFromFactoryAndReload(t *testing.T) {
	r := New()
	calls := 0
	factory := func() Handler {
		calls++
		return &fakeHandler{meta: Metadata{Name: "detector", Version: "1.0.0"}}
	}

	r.LoadFromFactory(factory)
	assert.Equal(t, 1, calls)

	status, ok := r.Status("detector")
	require.True(t, ok)
	assert.Equal(t, lifecycle.Initialized, status.State)

	require.NoError(t, r.MarkFailed("detector", "transient crash"))
	require.NoError(t, r.Reload("detector"))
	assert.Equal(t, 2, calls)

	status, _ = r.Status("detector")
	assert.Equal(t, lifecycle.Initialized, status.State)
	assert.Empty(t, status.LastError)
}

func TestRegistry_ReloadWithoutFactoryFails(t *testing.T) {
	r := New()
	r.Register("ocr", "", "", &fakeHandler{})
	err := r.Reload("ocr")
	assert.Error(t, err)
}
