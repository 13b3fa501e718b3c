// Package commands implements the songtov CLI.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/banksythequantLab/songtov/internal/api/v1/client"
)

var apiURL string

var rootCmd = &cobra.Command{
	Use:           "songtov",
	Short:         "songtov turns a song into a music video",
	Long:          "songtov submits song-to-video jobs to a songtov server and tracks their progress.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "base URL of the songtov API server")
	rootCmd.AddCommand(jobsCmd)
}

func apiClient() *client.Client {
	return client.New(apiURL)
}
