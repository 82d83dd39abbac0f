package events

// NATS subject constants for ForgeSyte lifecycle events.
// Format: forgesyte.<domain>.<action>

const (
	SubjectJobCreated  = "forgesyte.job.created"
	SubjectJobDone     = "forgesyte.job.done"
	SubjectJobError    = "forgesyte.job.error"

	SubjectPipelineStarted   = "forgesyte.pipeline.started"
	SubjectPipelineCompleted = "forgesyte.pipeline.completed"
	SubjectPipelineFailed    = "forgesyte.pipeline.failed"
)
