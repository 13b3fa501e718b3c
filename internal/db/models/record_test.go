package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobRecord(t *testing.T) {
	job := NewJob("job-1", JobInput{Source: "https://example.com/song"})
	job.Song = SongMetadata{Title: "Midnight", Artist: "Nightdrive", DurationSeconds: 201}
	job.SceneResults = NewSceneResults([]string{"a", "b", "c"})
	job.SceneResults[0].Outcome = SceneOutcomeSucceeded
	job.SceneResults[1].Outcome = SceneOutcomeSucceeded
	job.SceneResults[2].Outcome = SceneOutcomeFailed
	job.ResultArtifact = "/out/videos/job-1.mp4"
	job.OverallProgress = 100
	job.Status = JobStatusRunning
	job.MarkTerminal(JobStatusCompleted)

	record, err := NewJobRecord(job)
	require.NoError(t, err)

	assert.Equal(t, job.ID, record.ID)
	assert.Equal(t, job.Input.Source, record.Source)
	assert.Equal(t, "Midnight", record.Title)
	assert.Equal(t, "Nightdrive", record.Artist)
	assert.Equal(t, "completed", record.Status)
	assert.Equal(t, 100.0, record.OverallProgress)
	assert.Equal(t, 3, record.ScenesPlanned)
	assert.Equal(t, 2, record.ScenesSucceeded)
	assert.Equal(t, 1, record.ScenesFailed)
	assert.Equal(t, job.ResultArtifact, record.ResultArtifact)
	assert.Equal(t, job.CompletedAt, record.CompletedAt)

	// The snapshot round-trips back into the full job.
	var restored Job
	require.NoError(t, json.Unmarshal(record.Snapshot, &restored))
	assert.Equal(t, job.ID, restored.ID)
	assert.Equal(t, job.Status, restored.Status)
	assert.Len(t, restored.SceneResults, 3)
}
