package execution

import (
	"fmt"

	"github.com/forgesyte/forgesyte/internal/apperrors"
	"github.com/forgesyte/forgesyte/internal/jobs"
)

// AnalysisExecutionService is the outermost, API-facing layer of the
// execution chain. It performs only shape validation and delegates
// everything else to JobExecutionService.
type AnalysisExecutionService struct {
	jobs *JobExecutionService
}

// NewAnalysisExecutionService constructs an AnalysisExecutionService.
func NewAnalysisExecutionService(js *JobExecutionService) *AnalysisExecutionService {
	return &AnalysisExecutionService{jobs: js}
}

func validateShape(pluginName, toolName string, args map[string]interface{}) error {
	if pluginName == "" {
		return fmt.Errorf("plugin name must be a non-empty string")
	}
	if toolName == "" {
		return fmt.Errorf("tool name must be a non-empty string when supplied")
	}
	if args == nil {
		return fmt.Errorf("args must be a mapping")
	}
	return nil
}

// SubmitAnalysis creates a job and awaits its completion before returning
// the record plus result or error (synchronous mode).
func (s *AnalysisExecutionService) SubmitAnalysis(pluginName, toolName string, args map[string]interface{}) (*jobs.Job, error) {
	if toolName != "" {
		if err := validateShape(pluginName, toolName, args); err != nil {
			return nil, apperrors.Validation("request", err.Error())
		}
	} else if pluginName == "" || args == nil {
		return nil, apperrors.Validation("request", "plugin name and args are required")
	}

	id := s.jobs.CreateJob(pluginName, toolName, args)
	if err := s.jobs.RunJob(id); err != nil {
		job, _ := s.jobs.GetJob(id)
		return job, err
	}
	job, _ := s.jobs.GetJob(id)
	return job, nil
}

// SubmitAnalysisAsync creates a job and returns its id immediately,
// running it in the background (deferred mode).
func (s *AnalysisExecutionService) SubmitAnalysisAsync(pluginName, toolName string, args map[string]interface{}) (string, error) {
	if pluginName == "" || args == nil {
		return "", apperrors.Validation("request", "plugin name and args are required")
	}

	id := s.jobs.CreateJob(pluginName, toolName, args)
	go func() {
		_ = s.jobs.RunJob(id)
	}()
	return id, nil
}

// GetJob is a thin wrapper over the job execution service.
func (s *AnalysisExecutionService) GetJob(jobID string) (*jobs.Job, bool) {
	return s.jobs.GetJob(jobID)
}

// ListJobs is a thin wrapper over the job execution service.
func (s *AnalysisExecutionService) ListJobs(status jobs.Status, plugin string, limit int) []*jobs.Job {
	return s.jobs.ListJobs(status, plugin, limit)
}

// CancelJob is a thin wrapper over the job execution service.
func (s *AnalysisExecutionService) CancelJob(jobID string) bool {
	return s.jobs.CancelJob(jobID)
}
