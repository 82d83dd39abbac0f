package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobCreatedEvent_JSONMarshaling(t *testing.T) {
	event := &JobCreatedEvent{
		EventID:   uuid.New().String(),
		Timestamp: time.Now(),
		JobID:     "job123",
		Plugin:    "object-detector",
		Tool:      "detect",
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded JobCreatedEvent
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, event.JobID, decoded.JobID)
	assert.Equal(t, event.Plugin, decoded.Plugin)
}

func TestPipelineFailedEvent_JSONMarshaling(t *testing.T) {
	event := &PipelineFailedEvent{
		EventID:      uuid.New().String(),
		Timestamp:    time.Now(),
		PipelineID:   "pipe-1",
		RunID:        "run-1",
		FailedNodeID: "node-2",
		Error:        "plugin execution failed",
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded PipelineFailedEvent
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, event.FailedNodeID, decoded.FailedNodeID)
	assert.Equal(t, event.Error, decoded.Error)
}

func TestPublisher_DisabledModeIsNoOp(t *testing.T) {
	p, err := NewPublisher(Config{})
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())

	assert.NoError(t, p.PublishJobCreated("job1", "plugin1", "tool1"))
	assert.NoError(t, p.PublishJobDone("job1", "plugin1", 42))
	assert.NoError(t, p.PublishJobError("job1", "plugin1", "boom"))
	assert.NoError(t, p.PublishPipelineStarted("pipe1", "run1", 3))
	assert.NoError(t, p.PublishPipelineCompleted("pipe1", "run1", 100))
	assert.NoError(t, p.PublishPipelineFailed("pipe1", "run1", "node1", "boom"))
	assert.NoError(t, p.Close())
}

func TestSubjects_AreUniqueAndNamespaced(t *testing.T) {
	subjects := []string{
		SubjectJobCreated, SubjectJobDone, SubjectJobError,
		SubjectPipelineStarted, SubjectPipelineCompleted, SubjectPipelineFailed,
	}
	seen := make(map[string]bool)
	for _, s := range subjects {
		assert.False(t, seen[s], "duplicate subject: %s", s)
		seen[s] = true
		assert.Contains(t, s, "forgesyte.")
	}
}
