package models

import (
	"encoding/json"
	"time"
)

// JobRecord is the flat archive row written for a job that reached a
// terminal state. Snapshot carries the full serialized Job so the archive
// can answer the same questions the in-memory store does.
type JobRecord struct {
	ID              string          `json:"id" gorm:"primaryKey"`
	Source          string          `json:"source" gorm:"not null;index"`
	Title           string          `json:"title,omitempty"`
	Artist          string          `json:"artist,omitempty"`
	Status          string          `json:"status" gorm:"not null;index"`
	OverallProgress float64         `json:"overall_progress"`
	ScenesPlanned   int             `json:"scenes_planned"`
	ScenesSucceeded int             `json:"scenes_succeeded"`
	ScenesFailed    int             `json:"scenes_failed"`
	ResultArtifact  string          `json:"result_artifact,omitempty"`
	Error           string          `json:"error,omitempty" gorm:"type:text"`
	Snapshot        json.RawMessage `json:"snapshot" gorm:"type:jsonb"`
	CreatedAt       time.Time       `json:"created_at" gorm:"index"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
}

// NewJobRecord flattens a terminal job snapshot into an archive row.
func NewJobRecord(job *Job) (*JobRecord, error) {
	snapshot, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}

	succeeded, failed := CountSceneOutcomes(job.SceneResults)
	return &JobRecord{
		ID:              job.ID,
		Source:          job.Input.Source,
		Title:           job.Song.Title,
		Artist:          job.Song.Artist,
		Status:          job.Status.String(),
		OverallProgress: job.OverallProgress,
		ScenesPlanned:   len(job.SceneResults),
		ScenesSucceeded: succeeded,
		ScenesFailed:    failed,
		ResultArtifact:  job.ResultArtifact,
		Error:           job.Error,
		Snapshot:        snapshot,
		CreatedAt:       job.CreatedAt,
		CompletedAt:     job.CompletedAt,
	}, nil
}
