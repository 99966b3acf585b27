package screening

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/database/redis"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
	types "github.com/turtacn/KeyIP-Substructure/pkg/types/substructure"
)

func jobKey(id string) string { return "job:" + id }

// SubmitJob validates a screen and queues it for the worker.
func (s *serviceImpl) SubmitJob(ctx context.Context, req *types.JobRequest) (*types.JobResult, error) {
	if s.publisher == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "job queue is not configured")
	}
	if err := s.requireStorage(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, errors.InvalidParam("request is required")
	}
	if err := s.check(req); err != nil {
		return nil, err
	}
	if _, err := compilePattern(req.Screen.Pattern); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetLibrary(ctx, req.LibraryID); err != nil {
		return nil, err
	}

	job := &types.JobResult{
		JobID:       uuid.NewString(),
		LibraryID:   req.LibraryID,
		Status:      types.JobQueued,
		SubmittedAt: time.Now().UTC(),
	}
	env, err := kafka.NewEventEnvelope(kafka.EventScreeningRequested, EventSource, &types.JobMessage{
		JobID:     job.JobID,
		LibraryID: req.LibraryID,
		Screen:    req.Screen,
	})
	if err != nil {
		return nil, err
	}
	if err := s.publisher.Publish(ctx, s.cfg.RequestTopic, []byte(job.JobID), env); err != nil {
		prometheus.RecordError(s.metrics, "screening", string(errors.GetCode(err)))
		return nil, err
	}
	s.storeJob(ctx, job)
	s.metrics.ScreeningJobsTotal.WithLabelValues(string(types.JobQueued)).Inc()
	s.logger.Info("Screening job queued",
		logging.String("job_id", job.JobID),
		logging.String("library_id", job.LibraryID),
		logging.String("topic", s.cfg.RequestTopic))
	return job, nil
}

// JobStatus reads the last stored state of a job.
func (s *serviceImpl) JobStatus(ctx context.Context, jobID string) (*types.JobResult, error) {
	if s.cache == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "job store is not configured")
	}
	var job types.JobResult
	if err := s.cache.Get(ctx, jobKey(jobID), &job); err != nil {
		if err == redis.ErrCacheMiss {
			return nil, errors.New(errors.ErrCodeJobNotFound, "screening job not found").WithDetail("job_id=" + jobID)
		}
		return nil, err
	}
	return &job, nil
}

// HandleScreeningRequest runs one queued screen. Duplicate deliveries of a
// job already in progress are dropped. Screens rejected for their content
// are reported as failed jobs; infrastructure errors are returned so the
// consumer retries the message.
func (s *serviceImpl) HandleScreeningRequest(ctx context.Context, msg *kafka.Message) error {
	env, err := kafka.DecodeEnvelope(msg)
	if err != nil {
		return err
	}
	if env.EventType != kafka.EventScreeningRequested {
		s.logger.Debug("Ignoring event", logging.String("event_type", env.EventType))
		return nil
	}
	var jm types.JobMessage
	if err := env.DecodePayload(&jm); err != nil {
		return err
	}
	if jm.JobID == "" || jm.LibraryID == "" {
		return errors.New(errors.ErrCodeJobPayloadFailed, "screening request lacks job or library id")
	}
	log := s.logger.With(logging.String("job_id", jm.JobID), logging.String("library_id", jm.LibraryID))

	if s.leaser != nil {
		release, err := s.leaser.Acquire(ctx, jobKey(jm.JobID), s.cfg.JobLeaseTTL)
		if err != nil {
			if errors.IsCode(err, errors.ErrCodeConflict) {
				log.Info("Screening job already running elsewhere")
				return nil
			}
			return err
		}
		defer func() {
			if err := release(context.Background()); err != nil {
				log.Warn("Failed to release job lease", logging.Err(err))
			}
		}()
	}

	active := s.metrics.ScreeningActiveJobs.WithLabelValues(s.cfg.WorkerID)
	active.Inc()
	defer active.Dec()

	start := time.Now()
	job := &types.JobResult{
		JobID:       jm.JobID,
		LibraryID:   jm.LibraryID,
		Status:      types.JobRunning,
		SubmittedAt: env.Timestamp,
	}
	s.storeJob(ctx, job)

	res, err := s.ScreenLibrary(ctx, jm.LibraryID, &jm.Screen)
	if err != nil && (ctx.Err() != nil || retryable(err)) {
		prometheus.RecordScreeningJob(s.metrics, "retry", time.Since(start))
		log.Warn("Screening job will be retried", logging.Err(err))
		return err
	}

	done := time.Now().UTC()
	job.CompletedAt = &done
	eventType := kafka.EventScreeningCompleted
	if err != nil {
		job.Status = types.JobFailed
		job.ErrorCode = string(errors.GetCode(err))
		job.Error = err.Error()
		eventType = kafka.EventScreeningFailed
		log.Warn("Screening job failed", logging.Err(err))
	} else {
		job.Status = types.JobCompleted
		job.Result = res
		log.Info("Screening job completed",
			logging.Int("hits", len(res.Hits)),
			logging.Duration("elapsed", time.Since(start)))
	}
	prometheus.RecordScreeningJob(s.metrics, string(job.Status), time.Since(start))
	s.storeJob(ctx, job)

	if s.publisher == nil {
		return nil
	}
	out, err := kafka.NewEventEnvelope(eventType, EventSource, job)
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, s.cfg.ResultTopic, []byte(job.JobID), out)
}

func (s *serviceImpl) storeJob(ctx context.Context, job *types.JobResult) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, jobKey(job.JobID), job, s.cfg.JobResultTTL); err != nil {
		s.logger.Warn("Failed to store job state", logging.String("job_id", job.JobID), logging.Err(err))
	}
}

// retryable reports infrastructure failures worth another delivery.
func retryable(err error) bool {
	switch errors.GetCode(err) {
	case errors.ErrCodeDatabaseError,
		errors.ErrCodeCacheError,
		errors.ErrCodeServiceUnavailable,
		errors.ErrCodeTimeout,
		errors.ErrCodeExternalService,
		errors.ErrCodeMoleculeStorageFailed:
		return true
	}
	return false
}

//Personal.AI order the ending
