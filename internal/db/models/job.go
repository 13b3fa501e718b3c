// Package models defines the job, stage, and scene data model shared by the
// store, the pipeline, and the API layer.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// JobStatus represents the current state of a job in the system
type JobStatus string

// Job status constants
const (
	// JobStatusQueued indicates the job has been created but its pipeline has not started
	JobStatusQueued JobStatus = "queued"
	// JobStatusRunning indicates the pipeline is executing
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job finished and a video artifact exists
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job stopped on a fatal error
	JobStatusFailed JobStatus = "failed"
	// JobStatusCancelled indicates the job was cancelled by the caller
	JobStatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether no further status transition can occur.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of the job status
func (s JobStatus) String() string {
	return string(s)
}

// ParseJobStatus converts a string representation of a job status to JobStatus type
func ParseJobStatus(str string) (JobStatus, error) {
	switch JobStatus(str) {
	case JobStatusQueued, JobStatusRunning, JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return JobStatus(str), nil
	default:
		return "", fmt.Errorf("invalid job status: %s", str)
	}
}

// UnmarshalJSON implements json.Unmarshaler for JobStatus
func (s *JobStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	status, err := ParseJobStatus(str)
	if err != nil {
		return err
	}

	*s = status
	return nil
}

// StageStatus represents the state of a single pipeline stage
type StageStatus string

// Stage status constants
const (
	// StageStatusPending indicates the stage has not been reached yet
	StageStatusPending StageStatus = "pending"
	// StageStatusRunning indicates the stage is executing
	StageStatusRunning StageStatus = "running"
	// StageStatusSucceeded indicates the stage finished and stored its output
	StageStatusSucceeded StageStatus = "succeeded"
	// StageStatusFailed indicates the stage's collaborator failed
	StageStatusFailed StageStatus = "failed"
)

// Pipeline stage names, in execution order
const (
	StageAcquireAudio   = "acquire_audio"
	StageTranscribe     = "transcribe"
	StagePlanScenes     = "plan_scenes"
	StageGenerateScenes = "generate_scenes"
	StageRenderVideo    = "render_video"
)

// StageOrder lists the pipeline stages in execution order.
func StageOrder() []string {
	return []string{
		StageAcquireAudio,
		StageTranscribe,
		StagePlanScenes,
		StageGenerateScenes,
		StageRenderVideo,
	}
}

// StageState is one entry of a job's ordered stage list.
type StageState struct {
	Name   string      `json:"name"`
	Status StageStatus `json:"status"`
}

// JobInput holds the source reference and generation settings a job was
// created with. It is immutable after creation.
type JobInput struct {
	Source             string  `json:"source"`
	Model              string  `json:"model"`
	AspectRatio        string  `json:"aspect_ratio"`
	Style              string  `json:"style"`
	SceneCount         int     `json:"scene_count"`
	SceneDuration      float64 `json:"scene_duration"`
	MotionType         string  `json:"motion_type"`
	TransitionType     string  `json:"transition_type"`
	TransitionDuration float64 `json:"transition_duration"`
}

// SongMetadata is the coarse metadata reported by the audio acquirer.
type SongMetadata struct {
	Title           string  `json:"title,omitempty"`
	Artist          string  `json:"artist,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
}

// Job represents one end-to-end request to turn a source track into a video.
//
// All mutable fields are written only through the store's Update contract;
// OverallProgress is derived from StageStatuses and SceneResults and is
// never set directly by stage code.
type Job struct {
	ID     string   `json:"id"`
	Input  JobInput `json:"input"`
	Status JobStatus `json:"status"`

	StageStatuses []StageState  `json:"stage_statuses"`
	CurrentStage  string        `json:"current_stage,omitempty"`
	SceneResults  []SceneResult `json:"scene_results,omitempty"`

	OverallProgress float64 `json:"overall_progress"`

	Song          SongMetadata `json:"song"`
	AudioArtifact string       `json:"audio_artifact,omitempty"`
	Lyrics        string       `json:"lyrics,omitempty"`

	ResultArtifact string `json:"result_artifact,omitempty"`
	Error          string `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewJob creates a queued job with every stage pending.
func NewJob(id string, input JobInput) *Job {
	now := time.Now().UTC()
	stages := make([]StageState, 0, len(StageOrder()))
	for _, name := range StageOrder() {
		stages = append(stages, StageState{Name: name, Status: StageStatusPending})
	}
	return &Job{
		ID:            id,
		Input:         input,
		Status:        JobStatusQueued,
		StageStatuses: stages,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// StageStatus returns the status of the named stage.
func (j *Job) StageStatus(name string) (StageStatus, bool) {
	for _, st := range j.StageStatuses {
		if st.Name == name {
			return st.Status, true
		}
	}
	return "", false
}

// SetStageStatus updates the status of the named stage in place.
func (j *Job) SetStageStatus(name string, status StageStatus) {
	for i := range j.StageStatuses {
		if j.StageStatuses[i].Name == name {
			j.StageStatuses[i].Status = status
			return
		}
	}
}

// Terminal reports whether the job has reached a terminal status.
func (j *Job) Terminal() bool {
	return j.Status.Terminal()
}

// MarkTerminal sets a terminal status, the completion timestamp, and clears
// the current stage. It is a no-op if the job is already terminal.
func (j *Job) MarkTerminal(status JobStatus) {
	if j.Terminal() {
		return
	}
	now := time.Now().UTC()
	j.Status = status
	j.CurrentStage = ""
	j.CompletedAt = &now
}

// Clone returns a deep copy of the job, safe to hand to readers.
func (j *Job) Clone() *Job {
	c := *j
	c.StageStatuses = append([]StageState(nil), j.StageStatuses...)
	c.SceneResults = append([]SceneResult(nil), j.SceneResults...)
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
