// Package pipeline drives a job through its ordered stages, delegating the
// scene fan-out to the batch executor and recording every transition on
// the job store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/banksythequantLab/songtov/internal/db/models"
	"github.com/banksythequantLab/songtov/internal/jobs"
	"github.com/banksythequantLab/songtov/internal/logger"
	"github.com/banksythequantLab/songtov/internal/media"
)

// Collaborators bundles the external services the pipeline calls.
type Collaborators struct {
	Audio       media.AudioAcquirer
	Transcriber media.Transcriber
	Planner     media.ScenePlanner
	Synthesizer media.ImageSynthesizer
	Renderer    media.Renderer
}

// Pipeline executes the fixed stage list for one job at a time. A single
// Pipeline is shared by all jobs; per-job state lives on the store.
type Pipeline struct {
	store  *jobs.Store
	c      Collaborators
	scenes *SceneBatchExecutor
}

// Option configures a Pipeline
type Option func(*sceneConfig)

type sceneConfig struct {
	poolSize    int
	maxAttempts int
	backoff     time.Duration
}

// WithScenePoolSize bounds concurrent scene synthesis per job
func WithScenePoolSize(n int) Option {
	return func(c *sceneConfig) {
		if n > 0 {
			c.poolSize = n
		}
	}
}

// WithSceneRetry sets the per-scene attempt budget and the fixed backoff
// between attempts
func WithSceneRetry(maxAttempts int, backoff time.Duration) Option {
	return func(c *sceneConfig) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
		c.backoff = backoff
	}
}

// New creates a pipeline over the given store and collaborators.
func New(store *jobs.Store, c Collaborators, opts ...Option) *Pipeline {
	cfg := &sceneConfig{
		poolSize:    defaultScenePoolSize,
		maxAttempts: defaultSceneAttempts,
		backoff:     defaultSceneBackoff,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Pipeline{
		store:  store,
		c:      c,
		scenes: newSceneBatchExecutor(store, c.Synthesizer, cfg),
	}
}

// errJobTerminal aborts a mutation because the job is already terminal,
// e.g. the watchdog failed it while a stage was blocked on a collaborator.
var errJobTerminal = errors.New("job reached a terminal state")

type stage struct {
	name string
	run  func(ctx context.Context, job *models.Job) (func(*models.Job), error)
}

func (p *Pipeline) stageList() []stage {
	return []stage{
		{models.StageAcquireAudio, p.acquireAudio},
		{models.StageTranscribe, p.transcribe},
		{models.StagePlanScenes, p.planScenes},
		{models.StageGenerateScenes, p.generateScenes},
		{models.StageRenderVideo, p.renderVideo},
	}
}

// Run executes the stages in order until completion, a fatal stage
// failure, or cancellation. It always leaves the job terminal unless the
// job vanished from the store.
func (p *Pipeline) Run(ctx context.Context, jobID string) {
	_, err := p.store.Update(jobID, func(j *models.Job) error {
		if j.Terminal() {
			return errJobTerminal
		}
		j.Status = models.JobStatusRunning
		return nil
	})
	if err != nil {
		logger.Warnf("Pipeline for job %s not started: %v", jobID, err)
		return
	}

	stages := p.stageList()
	for i, st := range stages {
		if ctx.Err() != nil {
			p.markCancelled(jobID)
			return
		}

		snap, err := p.store.Update(jobID, func(j *models.Job) error {
			if j.Terminal() {
				return errJobTerminal
			}
			j.SetStageStatus(st.name, models.StageStatusRunning)
			j.CurrentStage = st.name
			return nil
		})
		if err != nil {
			logger.Warnf("Pipeline for job %s stopped before stage %s: %v", jobID, st.name, err)
			return
		}

		logger.InfoWithFields("Stage started", map[string]interface{}{
			"job_id": jobID,
			"stage":  st.name,
		})

		apply, err := st.run(ctx, snap)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				p.markCancelled(jobID)
				return
			}
			p.failStage(jobID, st.name, err)
			return
		}

		final := i == len(stages)-1
		_, err = p.store.Update(jobID, func(j *models.Job) error {
			if j.Terminal() {
				return errJobTerminal
			}
			if apply != nil {
				apply(j)
			}
			j.SetStageStatus(st.name, models.StageStatusSucceeded)
			if final {
				// Completion happens in the same mutation as the last
				// stage's success so progress reaches 100 exactly when
				// the status flips to completed.
				j.MarkTerminal(models.JobStatusCompleted)
			}
			return nil
		})
		if err != nil {
			logger.Warnf("Pipeline for job %s stopped after stage %s: %v", jobID, st.name, err)
			return
		}

		logger.InfoWithFields("Stage succeeded", map[string]interface{}{
			"job_id": jobID,
			"stage":  st.name,
		})
	}
}

// failStage records a fatal stage failure and terminates the job. No stage
// after the first hard failure runs.
func (p *Pipeline) failStage(jobID, stageName string, cause error) {
	stageErr := &jobs.StageError{Stage: stageName, Err: cause}
	_, err := p.store.Update(jobID, func(j *models.Job) error {
		if j.Terminal() {
			return errJobTerminal
		}
		j.SetStageStatus(stageName, models.StageStatusFailed)
		j.Error = stageErr.Error()
		j.MarkTerminal(models.JobStatusFailed)
		return nil
	})
	if err != nil {
		logger.Warnf("Could not record failure of job %s: %v", jobID, err)
		return
	}
	logger.ErrorWithFields("Stage failed", map[string]interface{}{
		"job_id": jobID,
		"stage":  stageName,
		"error":  cause.Error(),
	})
}

func (p *Pipeline) markCancelled(jobID string) {
	_, err := p.store.Update(jobID, func(j *models.Job) error {
		if j.Terminal() {
			return errJobTerminal
		}
		j.MarkTerminal(models.JobStatusCancelled)
		return nil
	})
	if err != nil {
		logger.Warnf("Could not record cancellation of job %s: %v", jobID, err)
	}
}

func (p *Pipeline) acquireAudio(ctx context.Context, job *models.Job) (func(*models.Job), error) {
	res, err := p.c.Audio.Fetch(ctx, job.Input.Source)
	if err != nil {
		return nil, err
	}
	return func(j *models.Job) {
		j.AudioArtifact = res.Path
		j.Song = models.SongMetadata{
			Title:           res.Title,
			Artist:          res.Artist,
			DurationSeconds: res.DurationSeconds,
		}
	}, nil
}

func (p *Pipeline) transcribe(ctx context.Context, job *models.Job) (func(*models.Job), error) {
	lyrics, err := p.c.Transcriber.Transcribe(ctx, job.AudioArtifact)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(lyrics) == "" {
		return nil, fmt.Errorf("no lyrics recognized in audio track")
	}
	return func(j *models.Job) {
		j.Lyrics = lyrics
	}, nil
}

func (p *Pipeline) planScenes(ctx context.Context, job *models.Job) (func(*models.Job), error) {
	descriptions, err := p.c.Planner.Plan(ctx, job.Lyrics, job.Input.Style, job.Input.SceneCount)
	if err != nil {
		return nil, err
	}
	if len(descriptions) == 0 {
		return nil, fmt.Errorf("planner returned no scenes")
	}
	return func(j *models.Job) {
		j.SceneResults = models.NewSceneResults(descriptions)
	}, nil
}

// generateScenes fans out to the batch executor. Individual scene failures
// are recorded per scene and never fail the stage; the stage fails only
// when zero scenes succeed.
func (p *Pipeline) generateScenes(ctx context.Context, job *models.Job) (func(*models.Job), error) {
	params := media.GenerationParams{
		Model:       job.Input.Model,
		AspectRatio: job.Input.AspectRatio,
		Style:       job.Input.Style,
	}

	succeeded, err := p.scenes.Run(ctx, job.ID, job.SceneResults, params)
	if err != nil {
		return nil, err
	}
	if succeeded == 0 {
		return nil, &jobs.AllScenesFailedError{Total: len(job.SceneResults)}
	}
	return nil, nil
}

// renderVideo consumes only the succeeded scenes, in original index order.
// Failed scenes are skipped, shortening the video.
func (p *Pipeline) renderVideo(ctx context.Context, job *models.Job) (func(*models.Job), error) {
	snap, err := p.store.Get(job.ID)
	if err != nil {
		return nil, err
	}

	clips := make([]media.SceneClip, 0, len(snap.SceneResults))
	for _, scene := range snap.SceneResults {
		switch scene.Outcome {
		case models.SceneOutcomeSucceeded:
			clips = append(clips, media.SceneClip{
				ImagePath:  scene.ImageArtifact,
				Duration:   snap.Input.SceneDuration,
				MotionType: snap.Input.MotionType,
			})
		case models.SceneOutcomeFailed, models.SceneOutcomePending:
		}
	}
	if len(clips) == 0 {
		return nil, &jobs.AllScenesFailedError{Total: len(snap.SceneResults)}
	}

	videoPath, err := p.c.Renderer.Render(ctx, media.RenderRequest{
		Clips:              clips,
		AudioPath:          snap.AudioArtifact,
		TransitionType:     snap.Input.TransitionType,
		TransitionDuration: snap.Input.TransitionDuration,
		OutputName:         snap.ID,
	})
	if err != nil {
		return nil, err
	}
	return func(j *models.Job) {
		j.ResultArtifact = videoPath
	}, nil
}
