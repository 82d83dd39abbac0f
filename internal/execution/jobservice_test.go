package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgesyte/forgesyte/internal/jobs"
	"github.com/forgesyte/forgesyte/internal/registry"
)

func TestJobExecutionService_RunJob_CompletesWithProcessingTime(t *testing.T) {
	reg := registry.New()
	reg.Register("yolo_football", "", "1.0", &stubHandler{result: map[string]interface{}{"detections": []interface{}{}}, defTool: "detect"})

	store := jobs.NewStore(10)
	svc := NewJobExecutionService(store, NewToolRunner(reg))

	id := svc.CreateJob("yolo_football", "", map[string]interface{}{"_image_bytes": []byte("test")})
	require.NoError(t, svc.RunJob(id))

	job, ok := svc.GetJob(id)
	require.True(t, ok)
	assert.Equal(t, jobs.StatusDone, job.Status)
	assert.Contains(t, job.Result, "processing_time_ms")
}

func TestJobExecutionService_RunJob_RejectsNonQueued(t *testing.T) {
	reg := registry.New()
	reg.Register("yolo_football", "", "1.0", &stubHandler{result: map[string]interface{}{}})
	store := jobs.NewStore(10)
	svc := NewJobExecutionService(store, NewToolRunner(reg))

	id := svc.CreateJob("yolo_football", "detect", map[string]interface{}{"_image_bytes": []byte("test")})
	require.NoError(t, svc.RunJob(id))

	err := svc.RunJob(id)
	require.Error(t, err)
}

func TestJobExecutionService_RunJob_PluginFailureSetsError(t *testing.T) {
	reg := registry.New()
	reg.Register("yolo_football", "", "1.0", &stubHandler{result: nil})
	store := jobs.NewStore(10)
	svc := NewJobExecutionService(store, NewToolRunner(reg))

	id := svc.CreateJob("yolo_football", "detect", map[string]interface{}{"_image_bytes": []byte("test")})
	err := svc.RunJob(id)
	require.Error(t, err)

	job, _ := svc.GetJob(id)
	assert.Equal(t, jobs.StatusError, job.Status)
	assert.NotEmpty(t, job.Error)
}

func TestJobExecutionService_CancelJob_OnlyQueued(t *testing.T) {
	reg := registry.New()
	reg.Register("yolo_football", "", "1.0", &stubHandler{result: map[string]interface{}{}})
	store := jobs.NewStore(10)
	svc := NewJobExecutionService(store, NewToolRunner(reg))

	id := svc.CreateJob("yolo_football", "detect", map[string]interface{}{"_image_bytes": []byte("test")})
	require.True(t, svc.CancelJob(id))

	job, _ := svc.GetJob(id)
	assert.Equal(t, jobs.StatusError, job.Status)
	assert.Contains(t, job.Error, "Cancelled")

	assert.False(t, svc.CancelJob(id))
}
