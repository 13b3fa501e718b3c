// Package constants centralizes the environment variable names the service
// reads at startup.
package constants

const (
	// EnvPort is the port the API server listens on
	EnvPort = "PORT"
	// EnvDatabaseURL is the postgres DSN for the terminal job archive.
	// When unset the archive is disabled and jobs live only in memory.
	EnvDatabaseURL = "DATABASE_URL"
	// EnvGeminiAPIKey is the API key for the Gemini scene planner
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	// EnvGeminiModel is the Gemini model used for scene planning
	EnvGeminiModel = "GEMINI_MODEL"
	// EnvComfyUIURL is the base URL of the ComfyUI image server
	EnvComfyUIURL = "COMFYUI_URL"
	// EnvTranscriberURL is the base URL of the whisper transcription server
	EnvTranscriberURL = "TRANSCRIBER_URL"
	// EnvOutputDir is the directory artifacts are written under
	EnvOutputDir = "OUTPUT_DIR"
	// EnvYtdlpBin is the yt-dlp binary used for audio acquisition
	EnvYtdlpBin = "YTDLP_BIN"
	// EnvFFmpegBin is the ffmpeg binary used for rendering
	EnvFFmpegBin = "FFMPEG_BIN"
	// EnvFFprobeBin is the ffprobe binary used for audio metadata
	EnvFFprobeBin = "FFPROBE_BIN"
	// EnvScenePoolSize bounds concurrent scene synthesis per job
	EnvScenePoolSize = "SCENE_POOL_SIZE"
	// EnvJobStallTimeout is how long a job may go without an update
	// before the watchdog fails it, as a Go duration string
	EnvJobStallTimeout = "JOB_STALL_TIMEOUT"
)
