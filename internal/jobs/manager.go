package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banksythequantLab/songtov/internal/db/models"
	"github.com/banksythequantLab/songtov/internal/logger"
)

// Runner drives one job's pipeline to a terminal state. It must return
// once the job is terminal or the context is cancelled.
type Runner interface {
	Run(ctx context.Context, jobID string)
}

// Recorder archives a terminal job snapshot.
type Recorder interface {
	RecordTerminal(ctx context.Context, job *models.Job) error
}

// ProgressSnapshot is the small read served to frequent pollers.
type ProgressSnapshot struct {
	OverallProgress float64          `json:"overall_progress"`
	Status          models.JobStatus `json:"status"`
	CurrentStage    string           `json:"current_stage,omitempty"`
}

// DefaultStallTimeout is how long a job may go without a store update
// before the watchdog fails it.
const DefaultStallTimeout = 30 * time.Minute

// Manager is the public entry point of the job engine. It creates jobs,
// launches one pipeline goroutine per job, and exposes status, progress,
// cancellation, and listing over the store.
type Manager struct {
	store        *Store
	runner       Runner
	recorder     Recorder
	stallTimeout time.Duration

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithRecorder attaches a terminal-snapshot archive
func WithRecorder(r Recorder) ManagerOption {
	return func(m *Manager) { m.recorder = r }
}

// WithStallTimeout overrides the watchdog stall window
func WithStallTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) { m.stallTimeout = d }
}

// NewManager creates a manager over the given store and runner
func NewManager(store *Store, runner Runner, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:        store,
		runner:       runner,
		stallTimeout: DefaultStallTimeout,
		cancels:      make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create validates the request, allocates a queued job, and starts its
// pipeline in the background. It returns the job identifier immediately.
// On validation failure no job is created.
func (m *Manager) Create(_ context.Context, req *models.CreateJobRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", &ValidationError{Err: err}
	}

	job := models.NewJob(uuid.NewString(), req.ToInput())
	if err := m.store.Create(job); err != nil {
		return "", err
	}

	// The pipeline outlives the create request, so it gets its own
	// context, cancelled only via Cancel or the watchdog.
	runCtx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.cancels[job.ID] = cancel
	m.mu.Unlock()

	logger.InfoWithFields("Job created", map[string]interface{}{
		"job_id": job.ID,
		"source": job.Input.Source,
	})

	go m.run(runCtx, job.ID)

	return job.ID, nil
}

func (m *Manager) run(ctx context.Context, jobID string) {
	defer m.clearCancel(jobID)

	m.runner.Run(ctx, jobID)

	job, err := m.store.Get(jobID)
	if err != nil {
		logger.Errorf("Job %s disappeared during run: %v", jobID, err)
		return
	}

	logger.InfoWithFields("Job finished", map[string]interface{}{
		"job_id":   job.ID,
		"status":   job.Status.String(),
		"progress": job.OverallProgress,
	})

	if m.recorder != nil && job.Terminal() {
		if err := m.recorder.RecordTerminal(context.Background(), job); err != nil {
			logger.Errorf("Failed to archive job %s: %v", jobID, err)
		}
	}
}

func (m *Manager) clearCancel(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cancel, ok := m.cancels[jobID]; ok {
		cancel()
		delete(m.cancels, jobID)
	}
}

// GetStatus returns an immutable snapshot of the job's full state.
func (m *Manager) GetStatus(jobID string) (*models.Job, error) {
	return m.store.Get(jobID)
}

// GetProgress returns the cheap polling view of the job.
func (m *Manager) GetProgress(jobID string) (*ProgressSnapshot, error) {
	job, err := m.store.Get(jobID)
	if err != nil {
		return nil, err
	}
	return &ProgressSnapshot{
		OverallProgress: job.OverallProgress,
		Status:          job.Status,
		CurrentStage:    job.CurrentStage,
	}, nil
}

// List returns job snapshots filtered by status with pagination.
func (m *Manager) List(status models.JobStatus, limit, offset int) []*models.Job {
	return m.store.List(status, limit, offset)
}

// Cancel requests cooperative cancellation. In-flight work finishes its
// current attempt; no new stage or scene task starts afterwards. Returns
// ErrJobTerminal if the job already reached a terminal state.
func (m *Manager) Cancel(jobID string) error {
	job, err := m.store.Get(jobID)
	if err != nil {
		return err
	}
	if job.Terminal() {
		return ErrJobTerminal
	}

	m.mu.Lock()
	cancel, ok := m.cancels[jobID]
	m.mu.Unlock()
	if !ok {
		// The pipeline goroutine finished between the snapshot read and
		// the lookup.
		return ErrJobTerminal
	}

	logger.Infof("Cancellation requested for job %s", jobID)
	cancel()
	return nil
}

// StartWatchdog launches the stall watchdog. A job with no store update
// within the stall timeout is failed with a StallTimeoutError and its
// pipeline context cancelled. The watchdog stops when ctx is done.
func (m *Manager) StartWatchdog(ctx context.Context) {
	interval := m.stallTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.failStalledJobs()
			}
		}
	}()
}

func (m *Manager) failStalledJobs() {
	for _, job := range m.store.List("", 0, 0) {
		if job.Terminal() || time.Since(job.UpdatedAt) < m.stallTimeout {
			continue
		}

		stallErr := &StallTimeoutError{Timeout: m.stallTimeout}
		_, err := m.store.Update(job.ID, func(j *models.Job) error {
			if j.Terminal() {
				return nil
			}
			if j.CurrentStage != "" {
				j.SetStageStatus(j.CurrentStage, models.StageStatusFailed)
			}
			j.Error = stallErr.Error()
			j.MarkTerminal(models.JobStatusFailed)
			return nil
		})
		if err != nil && !errors.Is(err, ErrJobNotFound) {
			logger.Errorf("Watchdog failed to update job %s: %v", job.ID, err)
			continue
		}

		logger.Warnf("Watchdog failed stalled job %s after %s without progress", job.ID, m.stallTimeout)
		m.clearCancel(job.ID)
	}
}
