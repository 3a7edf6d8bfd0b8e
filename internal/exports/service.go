package exports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heimdex/heimdex-studio/internal/export"
	"github.com/heimdex/heimdex-studio/internal/render"
)

type Service struct {
	repo    Repository
	client  render.Client
	logger  *slog.Logger
	timeout time.Duration

	wg sync.WaitGroup

	mu       sync.Mutex
	onFinish []func(*Job)
}

func NewService(repo Repository, client render.Client, timeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Service{repo: repo, client: client, logger: logger, timeout: timeout}
}

// OnFinish registers fn to run after every job reaches a terminal status.
func (s *Service) OnFinish(fn func(*Job)) {
	s.mu.Lock()
	s.onFinish = append(s.onFinish, fn)
	s.mu.Unlock()
}

// Submit records a pending job and sends payload to the render service in
// the background. The request runs on its own context: cancelling ctx does
// not abort it.
func (s *Service) Submit(ctx context.Context, payload export.RenderPayload) (*Job, error) {
	now := time.Now().UTC().Truncate(time.Second)
	job := &Job{
		ID:           uuid.NewString(),
		ProjectID:    payload.ProjectID,
		Status:       StatusPending,
		OutputFormat: payload.OutputFormat,
		Quality:      payload.Quality,
		Resolution:   payload.Resolution,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create export job: %w", err)
	}

	s.logger.Info("export submitted", "job_id", job.ID, "project_id", job.ProjectID, "format", job.OutputFormat)

	s.wg.Add(1)
	go s.run(job.ID, payload)

	return job, nil
}

func (s *Service) run(jobID string, payload export.RenderPayload) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	status, location, errMsg := StatusCompleted, "", ""
	result, err := s.client.SubmitExport(ctx, payload)
	if err != nil {
		status, errMsg = StatusFailed, describe(err)
		s.logger.Error("export failed", "job_id", jobID, "project_id", payload.ProjectID, "error", err)
	} else {
		location = result.OutputLocation
		s.logger.Info("export completed", "job_id", jobID, "output_location", location)
	}

	if err := s.repo.FinishJob(context.Background(), jobID, status, location, errMsg); err != nil {
		s.logger.Error("failed to record export outcome", "job_id", jobID, "error", err)
		return
	}

	job, err := s.repo.GetJob(context.Background(), jobID)
	if err != nil || job == nil {
		return
	}
	s.mu.Lock()
	hooks := append([]func(*Job){}, s.onFinish...)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn(job)
	}
}

func describe(err error) string {
	var renderErr *render.Error
	switch {
	case errors.As(err, &renderErr) && renderErr.Temporary():
		return fmt.Sprintf("render service unavailable (HTTP %d)", renderErr.StatusCode)
	case errors.As(err, &renderErr):
		return fmt.Sprintf("render service rejected the export (HTTP %d): %s", renderErr.StatusCode, renderErr.Body)
	case errors.Is(err, context.DeadlineExceeded):
		return "render service timed out"
	default:
		return err.Error()
	}
}

// Get returns nil, nil for an unknown id.
func (s *Service) Get(ctx context.Context, id string) (*Job, error) {
	return s.repo.GetJob(ctx, id)
}

func (s *Service) List(ctx context.Context, projectID string, limit int) ([]*Job, error) {
	return s.repo.ListJobs(ctx, projectID, limit)
}

// Latest returns the most recent job across all projects, or nil.
func (s *Service) Latest(ctx context.Context) (*Job, error) {
	jobs, err := s.repo.ListJobs(ctx, "", 1)
	if err != nil || len(jobs) == 0 {
		return nil, err
	}
	return jobs[0], nil
}

// Wait blocks until every in-flight submission has recorded its outcome.
func (s *Service) Wait() {
	s.wg.Wait()
}
