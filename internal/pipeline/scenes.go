package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banksythequantLab/songtov/internal/db/models"
	"github.com/banksythequantLab/songtov/internal/jobs"
	"github.com/banksythequantLab/songtov/internal/logger"
	"github.com/banksythequantLab/songtov/internal/media"
)

// Scene fan-out defaults. The pool is deliberately small and fixed: scene
// counts vary per job but the image service does not get more than
// poolSize in-flight requests from any one job.
const (
	defaultScenePoolSize = 3
	defaultSceneAttempts = 3
	defaultSceneBackoff  = 2 * time.Second
)

// SceneBatchExecutor runs the per-scene synthesis tasks for one job with
// bounded concurrency. A scene failure is recorded on its own result slot
// and never cancels or blocks the other scenes. Every task completion
// (success or exhausted failure) goes through the store, so progress moves
// scene by scene.
type SceneBatchExecutor struct {
	store       *jobs.Store
	synthesizer media.ImageSynthesizer
	poolSize    int
	maxAttempts int
	backoff     time.Duration
}

func newSceneBatchExecutor(store *jobs.Store, synthesizer media.ImageSynthesizer, cfg *sceneConfig) *SceneBatchExecutor {
	return &SceneBatchExecutor{
		store:       store,
		synthesizer: synthesizer,
		poolSize:    cfg.poolSize,
		maxAttempts: cfg.maxAttempts,
		backoff:     cfg.backoff,
	}
}

// Run executes one task per scene and waits for all launched tasks to
// reach a terminal per-scene outcome. It returns the number of scenes that
// succeeded. On cancellation it stops launching new tasks, waits for the
// in-flight ones, and returns the context error.
func (e *SceneBatchExecutor) Run(ctx context.Context, jobID string, scenes []models.SceneResult, params media.GenerationParams) (int, error) {
	g := new(errgroup.Group)
	g.SetLimit(e.poolSize)

	for _, scene := range scenes {
		if ctx.Err() != nil {
			// Unstarted scenes stay pending; they were not attempted.
			break
		}
		scene := scene
		g.Go(func() error {
			e.runTask(ctx, jobID, scene, params)
			return nil
		})
	}

	// Task errors never propagate; Wait only synchronizes.
	_ = g.Wait()

	if ctx.Err() != nil {
		return 0, ctx.Err()
	}

	snap, err := e.store.Get(jobID)
	if err != nil {
		return 0, err
	}
	succeeded, failed := models.CountSceneOutcomes(snap.SceneResults)
	logger.InfoWithFields("Scene batch finished", map[string]interface{}{
		"job_id":    jobID,
		"succeeded": succeeded,
		"failed":    failed,
		"total":     len(snap.SceneResults),
	})
	return succeeded, nil
}

// runTask drives one scene through its attempt budget and writes the
// terminal outcome to the job. Cancellation between attempts leaves the
// scene pending rather than charging it a failure it never earned.
func (e *SceneBatchExecutor) runTask(ctx context.Context, jobID string, scene models.SceneResult, params media.GenerationParams) {
	var lastErr error

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return
		}

		imagePath, err := e.synthesizer.Synthesize(ctx, scene.Description, params)
		if err == nil {
			e.writeOutcome(jobID, scene.SceneIndex, func(r *models.SceneResult) {
				r.Outcome = models.SceneOutcomeSucceeded
				r.ImageArtifact = imagePath
			})
			return
		}
		lastErr = err
		logger.Warnf("Scene %d of job %s attempt %d/%d failed: %v", scene.SceneIndex, jobID, attempt, e.maxAttempts, err)

		if attempt < e.maxAttempts {
			select {
			case <-ctx.Done():
				return
			case <-time.After(e.backoff):
			}
		}
	}

	e.writeOutcome(jobID, scene.SceneIndex, func(r *models.SceneResult) {
		r.Outcome = models.SceneOutcomeFailed
		r.FailureReason = lastErr.Error()
	})
}

func (e *SceneBatchExecutor) writeOutcome(jobID string, index int, set func(*models.SceneResult)) {
	_, err := e.store.Update(jobID, func(j *models.Job) error {
		if index >= len(j.SceneResults) {
			return nil
		}
		set(&j.SceneResults[index])
		return nil
	})
	if err != nil {
		logger.Errorf("Could not record scene %d outcome for job %s: %v", index, jobID, err)
	}
}
