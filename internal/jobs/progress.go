package jobs

import "github.com/banksythequantLab/songtov/internal/db/models"

// Stage weights sum to 100. The fan-out stage carries half the bar because
// it is the only stage with observable sub-progress; the split is a policy
// constant, not derived from measured stage cost.
var stageWeights = map[string]float64{
	models.StageAcquireAudio:   10,
	models.StageTranscribe:     15,
	models.StagePlanScenes:     5,
	models.StageGenerateScenes: 50,
	models.StageRenderVideo:    20,
}

// ComputeProgress derives the overall percentage from the job's stage
// statuses and scene results. It is pure: the same job state always yields
// the same value, and it never writes to the job.
//
// Succeeded stages contribute their full weight. The scene stage, while
// running, contributes proportionally to the count of scenes in a terminal
// outcome. Every other running or pending stage contributes nothing.
func ComputeProgress(job *models.Job) float64 {
	if job.Status == models.JobStatusCompleted {
		return 100
	}

	var progress float64
	for _, st := range job.StageStatuses {
		weight := stageWeights[st.Name]
		switch {
		case st.Status == models.StageStatusSucceeded:
			progress += weight
		case st.Name == models.StageGenerateScenes && st.Status == models.StageStatusRunning:
			total := len(job.SceneResults)
			if total == 0 {
				continue
			}
			terminal := 0
			for _, r := range job.SceneResults {
				if r.Outcome.Terminal() {
					terminal++
				}
			}
			progress += weight * float64(terminal) / float64(total)
		}
	}

	if progress > 100 {
		progress = 100
	}
	return progress
}
