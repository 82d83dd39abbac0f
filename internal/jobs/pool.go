package jobs

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/forgesyte/forgesyte/internal/events"
	"github.com/forgesyte/forgesyte/internal/logger"
	"github.com/forgesyte/forgesyte/internal/normalize"
	"github.com/forgesyte/forgesyte/internal/registry"
)

const defaultWorkers = 4

// Runner invokes a plugin's tool and returns its raw result mapping. The
// worker pool is its only caller in this package; the execution chain
// (internal/execution) supplies the implementation that actually routes
// through the registry's single call site.
type Runner func(pluginName, toolName string, args map[string]interface{}) (map[string]interface{}, string, error)

// Pool is a fixed-size worker pool that processes queued jobs in the
// background. SubmitJob returns immediately with an opaque job id; the
// actual plugin invocation happens on one of the pool's worker slots.
type Pool struct {
	store *Store
	run   Runner
	slots chan struct{}
	log   zerolog.Logger
	pub   *events.Publisher
}

// NewPool constructs a Pool of the given size (default 4) backed by store,
// using run to perform the actual tool invocation.
func NewPool(store *Store, workers int, run Runner) *Pool {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Pool{
		store: store,
		run:   run,
		slots: make(chan struct{}, workers),
		log:   *logger.Jobs(),
	}
}

// SetPublisher attaches an event publisher so job lifecycle transitions are
// broadcast on NATS alongside job store state. A nil or never attached
// publisher leaves publishing as a no-op.
func (p *Pool) SetPublisher(pub *events.Publisher) {
	p.pub = pub
}

// SubmitJob writes a QUEUED record and schedules background processing,
// returning immediately with the new job's id.
func (p *Pool) SubmitJob(imageBytes []byte, pluginName string, options map[string]interface{}, device string, completion func(*Job)) (string, error) {
	if len(imageBytes) == 0 {
		return "", fmt.Errorf("image bytes must not be empty")
	}
	if pluginName == "" {
		return "", fmt.Errorf("plugin name must not be empty")
	}

	id := uuid.NewString()
	args := map[string]interface{}{}
	for k, v := range options {
		args[k] = v
	}
	args["_image_bytes"] = imageBytes

	job := &Job{
		ID:               id,
		Status:           StatusQueued,
		Plugin:           pluginName,
		Args:             args,
		Created:          time.Now(),
		RequestedDevice:  device,
		CompletionHandle: completion,
	}
	if err := p.store.Create(job); err != nil {
		return "", err
	}

	if p.pub != nil {
		if err := p.pub.PublishJobCreated(id, pluginName, job.Tool); err != nil {
			p.log.Warn().Str("job_id", id).Err(err).Msg("failed to publish job_created event")
		}
	}

	go p.process(id)
	return id, nil
}

func (p *Pool) process(id string) {
	p.slots <- struct{}{}
	defer func() { <-p.slots }()

	started := false
	p.store.Update(id, func(j *Job) {
		if j.Status != StatusQueued {
			return
		}
		j.Status = StatusRunning
		j.Started = time.Now()
		j.Progress = 0.1
		started = true
	})
	if !started {
		return
	}

	job, ok := p.store.Get(id)
	if !ok {
		return
	}

	if _, found := registry.Get().Get(job.Plugin); !found {
		p.finish(id, nil, fmt.Sprintf("Plugin '%s' not found", job.Plugin), job.ActualDevice)
		return
	}

	result, device, err := p.run(job.Plugin, job.Tool, job.Args)
	if err != nil {
		p.finish(id, nil, err.Error(), device)
		return
	}

	canonical, nerr := normalize.Normalize(result)
	if nerr != nil {
		p.log.Warn().Str("job_id", id).Err(nerr).Msg("result normalization failed, using raw result")
		canonical = result
	}

	p.finish(id, canonical, "", device)
}

func (p *Pool) finish(id string, result map[string]interface{}, errText, device string) {
	updated := p.store.Update(id, func(j *Job) {
		j.Completed = time.Now()
		j.ActualDevice = device
		if errText != "" {
			j.Status = StatusError
			j.Error = errText
		} else {
			j.Status = StatusDone
			j.Result = result
			j.Progress = 1.0
		}
	})
	if updated == nil {
		return
	}

	if p.pub != nil {
		if updated.Status == StatusDone {
			if err := p.pub.PublishJobDone(updated.ID, updated.Plugin, updated.Completed.Sub(updated.Started).Milliseconds()); err != nil {
				p.log.Warn().Str("job_id", updated.ID).Err(err).Msg("failed to publish job_done event")
			}
		} else if updated.Status == StatusError {
			if err := p.pub.PublishJobError(updated.ID, updated.Plugin, updated.Error); err != nil {
				p.log.Warn().Str("job_id", updated.ID).Err(err).Msg("failed to publish job_error event")
			}
		}
	}

	p.deliver(updated)
}

func (p *Pool) deliver(job *Job) {
	if job.CompletionHandle == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Str("job_id", job.ID).Interface("panic", r).Msg("completion handle panicked")
		}
	}()
	job.CompletionHandle(job)
}

// CancelJob sets a QUEUED job's status to ERROR with a "Cancelled" prefix
// and returns true. Running or terminal jobs are never interrupted.
func (p *Pool) CancelJob(id string) bool {
	cancelled := false
	p.store.Update(id, func(j *Job) {
		if j.Status != StatusQueued {
			return
		}
		j.Status = StatusError
		j.Error = "Cancelled by user"
		j.Completed = time.Now()
		cancelled = true
	})
	return cancelled
}

// GetJob returns the job record for id.
func (p *Pool) GetJob(id string) (*Job, bool) { return p.store.Get(id) }

// GetResult returns the result mapping for id, failing if the job has not
// reached DONE.
func (p *Pool) GetResult(id string) (map[string]interface{}, error) {
	job, ok := p.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("job %q not found", id)
	}
	if job.Status != StatusDone {
		return nil, fmt.Errorf("job %q has not completed (status=%s)", id, job.Status)
	}
	return job.Result, nil
}

// ListJobs delegates to the backing store.
func (p *Pool) ListJobs(status Status, plugin string, limit int) []*Job {
	return p.store.List(status, plugin, limit)
}
