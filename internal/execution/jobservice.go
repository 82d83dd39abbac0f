package execution

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/forgesyte/forgesyte/internal/apperrors"
	"github.com/forgesyte/forgesyte/internal/jobs"
)

// JobExecutionService wraps a job store and a ToolRunner, enforcing the
// QUEUED-only RunJob transition and injecting processing_time_ms into the
// result mapping.
type JobExecutionService struct {
	mu      sync.Mutex
	store   *jobs.Store
	runner  *ToolRunner
	mime    string
}

// NewJobExecutionService constructs a JobExecutionService.
func NewJobExecutionService(store *jobs.Store, runner *ToolRunner) *JobExecutionService {
	return &JobExecutionService{store: store, runner: runner, mime: "application/octet-stream"}
}

// CreateJob creates a QUEUED job record and returns its id.
func (s *JobExecutionService) CreateJob(pluginName, toolName string, args map[string]interface{}) string {
	id := uuid.NewString()
	job := &jobs.Job{
		ID:      id,
		Status:  jobs.StatusQueued,
		Plugin:  pluginName,
		Tool:    toolName,
		Args:    args,
		Created: time.Now(),
	}
	_ = s.store.Create(job)
	return id
}

// RunJob transitions jobId from QUEUED to RUNNING, executes the tool, and
// transitions to DONE or ERROR. It fails if jobId is not currently QUEUED.
func (s *JobExecutionService) RunJob(jobID string) error {
	s.mu.Lock()
	job, ok := s.store.Get(jobID)
	if !ok {
		s.mu.Unlock()
		return apperrors.JobNotFound(jobID)
	}
	if job.Status != jobs.StatusQueued {
		s.mu.Unlock()
		return apperrors.JobCancellation(jobID, "job is not QUEUED")
	}
	s.store.Update(jobID, func(j *jobs.Job) {
		j.Status = jobs.StatusRunning
		j.Started = time.Now()
	})
	s.mu.Unlock()

	start := time.Now()
	result, err := s.runner.ExecuteTool(job.Plugin, job.Tool, job.Args, s.mime)
	durationMs := time.Since(start).Milliseconds()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.store.Update(jobID, func(j *jobs.Job) {
			j.Status = jobs.StatusError
			j.Error = err.Error()
			j.Completed = time.Now()
		})
		return err
	}

	if result == nil {
		result = map[string]interface{}{}
	}
	result["processing_time_ms"] = durationMs

	s.store.Update(jobID, func(j *jobs.Job) {
		j.Status = jobs.StatusDone
		j.Result = result
		j.Progress = 1.0
		j.Completed = time.Now()
	})
	return nil
}

// CancelJob succeeds only against a QUEUED job.
func (s *JobExecutionService) CancelJob(jobID string) bool {
	cancelled := false
	s.store.Update(jobID, func(j *jobs.Job) {
		if j.Status != jobs.StatusQueued {
			return
		}
		j.Status = jobs.StatusError
		j.Error = "Cancelled by user"
		j.Completed = time.Now()
		cancelled = true
	})
	return cancelled
}

// ListJobs delegates to the backing store.
func (s *JobExecutionService) ListJobs(status jobs.Status, plugin string, limit int) []*jobs.Job {
	return s.store.List(status, plugin, limit)
}

// GetJob delegates to the backing store.
func (s *JobExecutionService) GetJob(jobID string) (*jobs.Job, bool) {
	return s.store.Get(jobID)
}
