package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/forgesyte/forgesyte/internal/logger"
)

// Config holds NATS connection settings for the event publisher.
type Config struct {
	URL      string
	User     string
	Password string
}

// Publisher publishes job and pipeline lifecycle events to NATS. When URL
// is empty or the connection fails at startup, it degrades to a disabled,
// no-op publisher rather than failing server startup.
type Publisher struct {
	conn    *nats.Conn
	enabled bool
}

// NewPublisher connects to NATS per cfg, or returns a disabled publisher
// if cfg.URL is empty or the connection attempt fails.
func NewPublisher(cfg Config) (*Publisher, error) {
	log := logger.Events()

	if cfg.URL == "" {
		log.Warn().Msg("NATS_URL not configured, event publishing disabled")
		return &Publisher{enabled: false}, nil
	}

	opts := []nats.Option{
		nats.Name("forgesyte-api"),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(10),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS publisher disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS publisher reconnected")
		}),
	}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		log.Warn().Err(err).Str("url", cfg.URL).Msg("failed to connect to NATS, event publishing disabled")
		return &Publisher{enabled: false}, nil
	}

	log.Info().Str("url", conn.ConnectedUrl()).Msg("event publisher connected to NATS")
	return &Publisher{conn: conn, enabled: true}, nil
}

// IsEnabled reports whether this publisher is actually connected to NATS.
func (p *Publisher) IsEnabled() bool {
	return p.enabled
}

// Close closes the NATS connection, if any.
func (p *Publisher) Close() error {
	if p.enabled && p.conn != nil {
		p.conn.Close()
	}
	return nil
}

// Publish marshals payload and publishes it to subject. A disabled
// publisher is a silent no-op so callers never need to branch on
// whether NATS is configured.
func (p *Publisher) Publish(subject string, payload interface{}) error {
	if !p.enabled {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.conn.Publish(subject, data)
}

// PublishJobCreated publishes SubjectJobCreated for a newly accepted job.
func (p *Publisher) PublishJobCreated(jobID, plugin, tool string) error {
	return p.Publish(SubjectJobCreated, &JobCreatedEvent{
		EventID:   uuid.New().String(),
		Timestamp: time.Now(),
		JobID:     jobID,
		Plugin:    plugin,
		Tool:      tool,
	})
}

// PublishJobDone publishes SubjectJobDone for a job that finished DONE.
func (p *Publisher) PublishJobDone(jobID, plugin string, processingTimeMs int64) error {
	return p.Publish(SubjectJobDone, &JobDoneEvent{
		EventID:          uuid.New().String(),
		Timestamp:        time.Now(),
		JobID:            jobID,
		Plugin:           plugin,
		ProcessingTimeMs: processingTimeMs,
	})
}

// PublishJobError publishes SubjectJobError for a job that finished ERROR.
func (p *Publisher) PublishJobError(jobID, plugin, errText string) error {
	return p.Publish(SubjectJobError, &JobErrorEvent{
		EventID:   uuid.New().String(),
		Timestamp: time.Now(),
		JobID:     jobID,
		Plugin:    plugin,
		Error:     errText,
	})
}

// PublishPipelineStarted publishes SubjectPipelineStarted for a DAG run.
func (p *Publisher) PublishPipelineStarted(pipelineID, runID string, nodeCount int) error {
	return p.Publish(SubjectPipelineStarted, &PipelineStartedEvent{
		EventID:    uuid.New().String(),
		Timestamp:  time.Now(),
		PipelineID: pipelineID,
		RunID:      runID,
		NodeCount:  nodeCount,
	})
}

// PublishPipelineCompleted publishes SubjectPipelineCompleted for a DAG run.
func (p *Publisher) PublishPipelineCompleted(pipelineID, runID string, durationMs int64) error {
	return p.Publish(SubjectPipelineCompleted, &PipelineCompletedEvent{
		EventID:    uuid.New().String(),
		Timestamp:  time.Now(),
		PipelineID: pipelineID,
		RunID:      runID,
		DurationMs: durationMs,
	})
}

// PublishPipelineFailed publishes SubjectPipelineFailed for an aborted DAG run.
func (p *Publisher) PublishPipelineFailed(pipelineID, runID, failedNodeID, errText string) error {
	return p.Publish(SubjectPipelineFailed, &PipelineFailedEvent{
		EventID:      uuid.New().String(),
		Timestamp:    time.Now(),
		PipelineID:   pipelineID,
		RunID:        runID,
		FailedNodeID: failedNodeID,
		Error:        errText,
	})
}
