package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatus(t *testing.T) {
	tests := []struct {
		name          string
		status        JobStatus
		stringValue   string
		jsonValue     string
		validForParse bool
		terminal      bool
	}{
		{
			name:          "Queued status",
			status:        JobStatusQueued,
			stringValue:   "queued",
			jsonValue:     `"queued"`,
			validForParse: true,
			terminal:      false,
		},
		{
			name:          "Running status",
			status:        JobStatusRunning,
			stringValue:   "running",
			jsonValue:     `"running"`,
			validForParse: true,
			terminal:      false,
		},
		{
			name:          "Completed status",
			status:        JobStatusCompleted,
			stringValue:   "completed",
			jsonValue:     `"completed"`,
			validForParse: true,
			terminal:      true,
		},
		{
			name:          "Failed status",
			status:        JobStatusFailed,
			stringValue:   "failed",
			jsonValue:     `"failed"`,
			validForParse: true,
			terminal:      true,
		},
		{
			name:          "Cancelled status",
			status:        JobStatusCancelled,
			stringValue:   "cancelled",
			jsonValue:     `"cancelled"`,
			validForParse: true,
			terminal:      true,
		},
		{
			name:          "Invalid status",
			stringValue:   "invalid_status",
			jsonValue:     `"invalid_status"`,
			validForParse: false,
		},
		{
			name:          "Invalid JSON",
			jsonValue:     `invalid`,
			validForParse: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.status != "" {
				assert.Equal(t, tt.stringValue, tt.status.String(), "String() method failed")
				assert.Equal(t, tt.terminal, tt.status.Terminal(), "Terminal() method failed")
			}

			parsedStatus, err := ParseJobStatus(tt.stringValue)
			if tt.validForParse {
				assert.NoError(t, err, "ParseJobStatus should not return error")
				assert.Equal(t, tt.status, parsedStatus, "ParseJobStatus returned wrong status")
			} else {
				assert.Error(t, err, "ParseJobStatus should return error for invalid status")
			}

			var unmarshaled JobStatus
			err = json.Unmarshal([]byte(tt.jsonValue), &unmarshaled)
			if tt.validForParse {
				assert.NoError(t, err, "Unmarshal should not return error")
				assert.Equal(t, tt.status, unmarshaled, "Unmarshal returned wrong status")
			} else {
				assert.Error(t, err, "Unmarshal should return error for invalid status")
			}
		})
	}
}

func TestNewJob(t *testing.T) {
	input := JobInput{Source: "https://example.com/watch?v=abc", SceneCount: 8}
	job := NewJob("job-1", input)

	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, JobStatusQueued, job.Status)
	assert.Equal(t, input, job.Input)
	assert.Zero(t, job.OverallProgress)
	assert.Nil(t, job.CompletedAt)
	assert.False(t, job.Terminal())

	require.Len(t, job.StageStatuses, len(StageOrder()))
	for i, name := range StageOrder() {
		assert.Equal(t, name, job.StageStatuses[i].Name, "stages must keep execution order")
		assert.Equal(t, StageStatusPending, job.StageStatuses[i].Status)
	}
}

func TestJobStageStatus(t *testing.T) {
	job := NewJob("job-1", JobInput{Source: "track.mp3"})

	status, ok := job.StageStatus(StageTranscribe)
	require.True(t, ok)
	assert.Equal(t, StageStatusPending, status)

	job.SetStageStatus(StageTranscribe, StageStatusRunning)
	status, ok = job.StageStatus(StageTranscribe)
	require.True(t, ok)
	assert.Equal(t, StageStatusRunning, status)

	// Unknown stages are reported as absent and ignored on write.
	_, ok = job.StageStatus("upload_to_cdn")
	assert.False(t, ok)
	job.SetStageStatus("upload_to_cdn", StageStatusFailed)
	assert.Len(t, job.StageStatuses, len(StageOrder()))
}

func TestJobMarkTerminal(t *testing.T) {
	job := NewJob("job-1", JobInput{Source: "track.mp3"})
	job.Status = JobStatusRunning
	job.CurrentStage = StageRenderVideo

	job.MarkTerminal(JobStatusFailed)
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Empty(t, job.CurrentStage)
	require.NotNil(t, job.CompletedAt)

	// A second terminal transition is a no-op.
	first := *job.CompletedAt
	job.MarkTerminal(JobStatusCompleted)
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, first, *job.CompletedAt)
}

func TestJobClone(t *testing.T) {
	job := NewJob("job-1", JobInput{Source: "track.mp3"})
	job.SceneResults = NewSceneResults([]string{"a", "b"})
	job.MarkTerminal(JobStatusCompleted)

	clone := job.Clone()
	require.Equal(t, job, clone)

	clone.SetStageStatus(StageAcquireAudio, StageStatusSucceeded)
	clone.SceneResults[0].Outcome = SceneOutcomeSucceeded
	*clone.CompletedAt = clone.CompletedAt.Add(1)

	status, _ := job.StageStatus(StageAcquireAudio)
	assert.Equal(t, StageStatusPending, status, "clone must not share stage slice")
	assert.Equal(t, SceneOutcomePending, job.SceneResults[0].Outcome, "clone must not share scene slice")
	assert.NotEqual(t, *job.CompletedAt, *clone.CompletedAt, "clone must not share timestamp pointer")
}
