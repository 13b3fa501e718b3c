package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/banksythequantLab/songtov/internal/db/models"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage song-to-video jobs",
}

var (
	submitModel      string
	submitAspect     string
	submitStyle      string
	submitSceneCount int
	submitTransition string
	submitWait       bool
)

var submitCmd = &cobra.Command{
	Use:   "submit <source>",
	Short: "Submit a new job for a song URL or local audio file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &models.CreateJobRequest{
			Source:         args[0],
			Model:          submitModel,
			AspectRatio:    submitAspect,
			Style:          submitStyle,
			SceneCount:     submitSceneCount,
			TransitionType: submitTransition,
		}

		jobID, err := apiClient().CreateJob(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Printf("Job created: %s\n", jobID)

		if !submitWait {
			return nil
		}
		return watchJob(cmd, jobID)
	},
}

func watchJob(cmd *cobra.Command, jobID string) error {
	api := apiClient()
	for {
		select {
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		case <-time.After(2 * time.Second):
		}

		progress, err := api.GetProgress(cmd.Context(), jobID)
		if err != nil {
			return err
		}

		stage := progress.CurrentStage
		if stage == "" {
			stage = "-"
		}
		fmt.Printf("\r%-10s %-16s %5.1f%%", progress.Status, stage, progress.OverallProgress)

		if progress.Status.Terminal() {
			fmt.Println()
			job, err := api.GetJob(cmd.Context(), jobID)
			if err != nil {
				return err
			}
			if job.Status == models.JobStatusCompleted {
				fmt.Printf("Video: %s\n", job.ResultArtifact)
				return nil
			}
			if job.Error != "" {
				return fmt.Errorf("job %s: %s", job.Status, job.Error)
			}
			return fmt.Errorf("job %s", job.Status)
		}
	}
}

var getCmd = &cobra.Command{
	Use:   "get <job-id>",
	Short: "Show the full snapshot of a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		job, err := apiClient().GetJob(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendRows([]table.Row{
			{"ID", job.ID},
			{"Status", job.Status},
			{"Progress", fmt.Sprintf("%.1f%%", job.OverallProgress)},
			{"Source", job.Input.Source},
			{"Title", job.Song.Title},
			{"Artist", job.Song.Artist},
		})
		if job.Error != "" {
			t.AppendRow(table.Row{"Error", job.Error})
		}
		if job.ResultArtifact != "" {
			t.AppendRow(table.Row{"Video", job.ResultArtifact})
		}
		t.Render()

		st := table.NewWriter()
		st.SetOutputMirror(os.Stdout)
		st.AppendHeader(table.Row{"Stage", "Status"})
		for _, stage := range job.StageStatuses {
			st.AppendRow(table.Row{stage.Name, stage.Status})
		}
		st.Render()

		if len(job.SceneResults) > 0 {
			sc := table.NewWriter()
			sc.SetOutputMirror(os.Stdout)
			sc.AppendHeader(table.Row{"#", "Outcome", "Detail"})
			for _, scene := range job.SceneResults {
				detail := scene.ImageArtifact
				if scene.Outcome == models.SceneOutcomeFailed {
					detail = scene.FailureReason
				}
				sc.AppendRow(table.Row{scene.SceneIndex, scene.Outcome, detail})
			}
			sc.Render()
		}
		return nil
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress <job-id>",
	Short: "Show a job's progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		progress, err := apiClient().GetProgress(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		stage := progress.CurrentStage
		if stage == "" {
			stage = "-"
		}
		fmt.Printf("%s %s %.1f%%\n", progress.Status, stage, progress.OverallProgress)
		return nil
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Cancel a running job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := apiClient().CancelJob(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Cancellation requested")
		return nil
	},
}

var (
	listStatus string
	listLimit  int
	listOffset int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		jobsList, err := apiClient().ListJobs(cmd.Context(), listStatus, listLimit, listOffset)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Status", "Progress", "Title", "Created"})
		for _, job := range jobsList {
			t.AppendRow(table.Row{
				job.ID,
				job.Status,
				fmt.Sprintf("%.1f%%", job.OverallProgress),
				job.Song.Title,
				job.CreatedAt.Format(time.RFC3339),
			})
		}
		t.Render()
		return nil
	},
}

func init() {
	submitCmd.Flags().StringVar(&submitModel, "model", "", "image generation model")
	submitCmd.Flags().StringVar(&submitAspect, "aspect-ratio", "", "video aspect ratio, e.g. 16:9")
	submitCmd.Flags().StringVar(&submitStyle, "style", "", "visual style, e.g. cinematic")
	submitCmd.Flags().IntVar(&submitSceneCount, "scenes", 0, "number of scenes")
	submitCmd.Flags().StringVar(&submitTransition, "transition", "", "transition type between scenes")
	submitCmd.Flags().BoolVar(&submitWait, "wait", false, "poll progress until the job finishes")

	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by job status")
	listCmd.Flags().IntVar(&listLimit, "limit", 10, "maximum jobs to return")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "offset into the job list")

	jobsCmd.AddCommand(submitCmd, getCmd, progressCmd, cancelCmd, listCmd)
}
