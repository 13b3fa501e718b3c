// Package media defines the collaborator contracts the pipeline consumes:
// audio acquisition, transcription, scene planning, image synthesis, and
// rendering. Production implementations live in the subpackages; tests use
// in-package fakes.
package media

import "context"

// AudioResult is the artifact and coarse metadata returned by an acquirer.
type AudioResult struct {
	Path            string
	Title           string
	Artist          string
	DurationSeconds float64
}

// AudioAcquirer fetches a source reference (URL or local file) into a
// local audio artifact.
type AudioAcquirer interface {
	Fetch(ctx context.Context, sourceRef string) (*AudioResult, error)
}

// Transcriber extracts time-ordered lyric text from an audio artifact.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// ScenePlanner turns lyric text and a style into an ordered list of scene
// descriptions. sceneCount is the requested number of scenes.
type ScenePlanner interface {
	Plan(ctx context.Context, lyrics, style string, sceneCount int) ([]string, error)
}

// GenerationParams are the shared image-generation settings for a job.
type GenerationParams struct {
	Model       string
	AspectRatio string
	Style       string
}

// ImageSynthesizer renders one scene description to an image artifact.
type ImageSynthesizer interface {
	Synthesize(ctx context.Context, description string, params GenerationParams) (string, error)
}

// SceneClip is one rendered scene's input to the final video.
type SceneClip struct {
	ImagePath  string
	Duration   float64
	MotionType string
}

// RenderRequest carries everything the renderer needs to produce the
// final video artifact.
type RenderRequest struct {
	Clips              []SceneClip
	AudioPath          string
	TransitionType     string
	TransitionDuration float64
	OutputName         string
}

// Renderer assembles ordered scene clips and an audio track into the
// final video artifact and returns its path.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) (string, error)
}
