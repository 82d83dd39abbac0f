package execution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgesyte/forgesyte/internal/jobs"
	"github.com/forgesyte/forgesyte/internal/registry"
)

func newAnalysisService(reg *registry.Registry) *AnalysisExecutionService {
	store := jobs.NewStore(10)
	return NewAnalysisExecutionService(NewJobExecutionService(store, NewToolRunner(reg)))
}

// TestAnalysisExecutionService_CancelQueuedJob is the S1 seed scenario:
// submit against yolo_football then immediately cancel.
func TestAnalysisExecutionService_CancelQueuedJob(t *testing.T) {
	reg := registry.New()
	reg.Register("yolo_football", "", "1.0", &stubHandler{result: map[string]interface{}{"ok": true}})
	svc := newAnalysisService(reg)

	id, err := svc.SubmitAnalysisAsync("yolo_football", "detect", map[string]interface{}{"_image_bytes": []byte("test")})
	require.NoError(t, err)

	cancelled := svc.CancelJob(id)
	require.True(t, cancelled)

	job, ok := svc.GetJob(id)
	require.True(t, ok)
	assert.Equal(t, jobs.StatusError, job.Status)
	assert.Contains(t, job.Error, "Cancelled")
}

func TestAnalysisExecutionService_SubmitAnalysis_Synchronous(t *testing.T) {
	reg := registry.New()
	reg.Register("ocr", "", "1.0", &stubHandler{result: map[string]interface{}{"text": "hello"}, defTool: "read"})
	svc := newAnalysisService(reg)

	job, err := svc.SubmitAnalysis("ocr", "", map[string]interface{}{"_image_bytes": []byte("test")})
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusDone, job.Status)
	assert.Equal(t, "hello", job.Result["text"])
}

func TestAnalysisExecutionService_SubmitAnalysis_RejectsEmptyPlugin(t *testing.T) {
	reg := registry.New()
	svc := newAnalysisService(reg)

	_, err := svc.SubmitAnalysis("", "", map[string]interface{}{"_image_bytes": []byte("test")})
	require.Error(t, err)
}

func TestAnalysisExecutionService_ListJobs_ReflectsSubmissions(t *testing.T) {
	reg := registry.New()
	reg.Register("ocr", "", "1.0", &stubHandler{result: map[string]interface{}{}, defTool: "read"})
	svc := newAnalysisService(reg)

	_, err := svc.SubmitAnalysisAsync("ocr", "read", map[string]interface{}{"_image_bytes": []byte("test")})
	require.NoError(t, err)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		jobs := svc.ListJobs("", "", 10)
		if len(jobs) == 1 && jobs[0].Status != "QUEUED" {
			break
		}
		time.Sleep(time.Millisecond)
	}

	list := svc.ListJobs("", "ocr", 10)
	require.Len(t, list, 1)
}
