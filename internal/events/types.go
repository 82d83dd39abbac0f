// Package events provides optional NATS event publishing for ForgeSyte.
//
// Events let external observers (dashboards, audit logs, downstream
// pipelines) follow job and pipeline lifecycle transitions without
// polling the REST API. Publishing is entirely optional: when NATS is
// not configured, the execution chain and DAG engine call the same
// Publisher interface against a no-op implementation.
package events

import "time"

// JobCreatedEvent is published when a job is accepted into the store.
type JobCreatedEvent struct {
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
	JobID     string    `json:"job_id"`
	Plugin    string    `json:"plugin"`
	Tool      string    `json:"tool,omitempty"`
}

// JobDoneEvent is published when a job completes successfully.
type JobDoneEvent struct {
	EventID          string    `json:"event_id"`
	Timestamp        time.Time `json:"timestamp"`
	JobID            string    `json:"job_id"`
	Plugin           string    `json:"plugin"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
}

// JobErrorEvent is published when a job terminates in the ERROR state.
type JobErrorEvent struct {
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
	JobID     string    `json:"job_id"`
	Plugin    string    `json:"plugin"`
	Error     string    `json:"error"`
}

// PipelineStartedEvent is published when a DAG run begins.
type PipelineStartedEvent struct {
	EventID    string    `json:"event_id"`
	Timestamp  time.Time `json:"timestamp"`
	PipelineID string    `json:"pipeline_id"`
	RunID      string    `json:"run_id"`
	NodeCount  int       `json:"node_count"`
}

// PipelineCompletedEvent is published when a DAG run finishes without error.
type PipelineCompletedEvent struct {
	EventID    string    `json:"event_id"`
	Timestamp  time.Time `json:"timestamp"`
	PipelineID string    `json:"pipeline_id"`
	RunID      string    `json:"run_id"`
	DurationMs int64     `json:"duration_ms"`
}

// PipelineFailedEvent is published when a DAG run aborts on a node error.
type PipelineFailedEvent struct {
	EventID      string    `json:"event_id"`
	Timestamp    time.Time `json:"timestamp"`
	PipelineID   string    `json:"pipeline_id"`
	RunID        string    `json:"run_id"`
	FailedNodeID string    `json:"failed_node_id"`
	Error        string    `json:"error"`
}
