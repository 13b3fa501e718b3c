package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/banksythequantLab/songtov/config"
	"github.com/banksythequantLab/songtov/internal/app"
	"github.com/banksythequantLab/songtov/internal/constants"
	"github.com/banksythequantLab/songtov/internal/db"
	"github.com/banksythequantLab/songtov/internal/db/repos"
	"github.com/banksythequantLab/songtov/internal/jobs"
	"github.com/banksythequantLab/songtov/internal/logger"
	"github.com/banksythequantLab/songtov/internal/media"
	"github.com/banksythequantLab/songtov/internal/media/audio"
	"github.com/banksythequantLab/songtov/internal/media/director"
	"github.com/banksythequantLab/songtov/internal/media/render"
	"github.com/banksythequantLab/songtov/internal/media/synth"
	"github.com/banksythequantLab/songtov/internal/media/transcribe"
	"github.com/banksythequantLab/songtov/internal/pipeline"
)

func main() {
	// A missing .env is fine; the environment may be set externally.
	_ = godotenv.Load()

	logger.InitializeAndConfigure()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outputDir := config.GetEnv(constants.EnvOutputDir, "outputs")

	collaborators := pipeline.Collaborators{
		Audio: audio.NewAcquirer(
			config.GetEnv(constants.EnvYtdlpBin, "yt-dlp"),
			config.GetEnv(constants.EnvFFprobeBin, "ffprobe"),
			outputDir,
		),
		Transcriber: transcribe.NewClient(
			config.GetEnv(constants.EnvTranscriberURL, "http://localhost:9000"),
		),
		Planner: newPlanner(ctx),
		Synthesizer: synth.NewClient(
			config.GetEnv(constants.EnvComfyUIURL, "http://127.0.0.1:8188"),
			outputDir,
		),
		Renderer: render.NewRenderer(
			config.GetEnv(constants.EnvFFmpegBin, "ffmpeg"),
			outputDir,
		),
	}

	store := jobs.NewStore()

	var pipelineOpts []pipeline.Option
	if poolStr := config.GetEnv(constants.EnvScenePoolSize, ""); poolStr != "" {
		poolSize, err := strconv.Atoi(poolStr)
		if err != nil {
			logger.Fatalf("Invalid %s: %v", constants.EnvScenePoolSize, err)
		}
		pipelineOpts = append(pipelineOpts, pipeline.WithScenePoolSize(poolSize))
	}
	pipe := pipeline.New(store, collaborators, pipelineOpts...)

	managerOpts := []jobs.ManagerOption{}
	if dsn := config.GetEnv(constants.EnvDatabaseURL, ""); dsn != "" {
		gdb, err := db.Connect(dsn)
		if err != nil {
			logger.Fatalf("Database connection failed: %v", err)
		}
		managerOpts = append(managerOpts, jobs.WithRecorder(repos.NewJobRecordRepository(gdb)))
		logger.Info("Job archive enabled")
	}
	if timeoutStr := config.GetEnv(constants.EnvJobStallTimeout, ""); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			logger.Fatalf("Invalid %s: %v", constants.EnvJobStallTimeout, err)
		}
		managerOpts = append(managerOpts, jobs.WithStallTimeout(timeout))
	}

	manager := jobs.NewManager(store, pipe, managerOpts...)
	manager.StartWatchdog(ctx)

	fiberApp := app.NewApp(manager)

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down...")
		if err := fiberApp.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Errorf("Shutdown error: %v", err)
		}
	}()

	port := config.GetEnv(constants.EnvPort, "8080")
	logger.Infof("Listening on :%s", port)
	if err := fiberApp.Listen(":" + port); err != nil {
		logger.Fatalf("Server error: %v", err)
	}
}

// newPlanner returns the Gemini planner when an API key is configured and
// the lyric splitter otherwise.
func newPlanner(ctx context.Context) media.ScenePlanner {
	apiKey := os.Getenv(constants.EnvGeminiAPIKey)
	if apiKey == "" {
		logger.Warn("No Gemini API key configured, falling back to lyric-split scene planning")
		return director.LyricSplitter{}
	}

	planner, err := director.NewPlanner(ctx, apiKey, os.Getenv(constants.EnvGeminiModel))
	if err != nil {
		logger.Fatalf("Scene planner setup failed: %v", err)
	}
	return planner
}
