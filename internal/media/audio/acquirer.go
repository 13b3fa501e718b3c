// Package audio acquires the source track: remote URLs are downloaded with
// yt-dlp, local files are used in place. Coarse metadata comes from the
// downloader's JSON output or from ffprobe.
package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/banksythequantLab/songtov/internal/logger"
	"github.com/banksythequantLab/songtov/internal/media"
)

// Acquirer implements media.AudioAcquirer over yt-dlp and ffprobe.
type Acquirer struct {
	ytdlpBin   string
	ffprobeBin string
	outputDir  string
}

// NewAcquirer creates an acquirer writing downloads under outputDir/audio.
func NewAcquirer(ytdlpBin, ffprobeBin, outputDir string) *Acquirer {
	if ytdlpBin == "" {
		ytdlpBin = "yt-dlp"
	}
	if ffprobeBin == "" {
		ffprobeBin = "ffprobe"
	}
	return &Acquirer{
		ytdlpBin:   ytdlpBin,
		ffprobeBin: ffprobeBin,
		outputDir:  outputDir,
	}
}

// Fetch resolves a source reference into a local audio artifact.
func (a *Acquirer) Fetch(ctx context.Context, sourceRef string) (*media.AudioResult, error) {
	if strings.HasPrefix(sourceRef, "http://") || strings.HasPrefix(sourceRef, "https://") {
		return a.download(ctx, sourceRef)
	}
	return a.fromLocalFile(ctx, sourceRef)
}

// trackInfo is the subset of yt-dlp's --print-json output we keep.
type trackInfo struct {
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Uploader string  `json:"uploader"`
	Duration float64 `json:"duration"`
}

func (a *Acquirer) download(ctx context.Context, url string) (*media.AudioResult, error) {
	dir := filepath.Join(a.outputDir, "audio")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating audio dir: %w", err)
	}

	id := uuid.NewString()
	audioPath := filepath.Join(dir, id+".mp3")
	template := filepath.Join(dir, id+".%(ext)s")

	cmd := exec.CommandContext(ctx, a.ytdlpBin,
		"--no-playlist",
		"-x", "--audio-format", "mp3",
		"--print-json",
		"-o", template,
		url,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Infof("Downloading audio from %s", url)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("yt-dlp failed: %w: %s", err, tail(stderr.String()))
	}

	var info trackInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		logger.Warnf("Could not parse yt-dlp metadata for %s: %v", url, err)
	}

	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("downloaded audio not found at %s: %w", audioPath, err)
	}

	artist := info.Artist
	if artist == "" {
		artist = info.Uploader
	}
	duration := info.Duration
	if duration == 0 {
		duration, _ = a.probeDuration(ctx, audioPath)
	}

	return &media.AudioResult{
		Path:            audioPath,
		Title:           info.Title,
		Artist:          artist,
		DurationSeconds: duration,
	}, nil
}

func (a *Acquirer) fromLocalFile(ctx context.Context, path string) (*media.AudioResult, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audio file not accessible: %w", err)
	}

	duration, err := a.probeDuration(ctx, path)
	if err != nil {
		logger.Warnf("Could not probe duration of %s: %v", path, err)
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &media.AudioResult{
		Path:            path,
		Title:           title,
		DurationSeconds: duration,
	}, nil
}

func (a *Acquirer) probeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, a.ffprobeBin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing ffprobe duration: %w", err)
	}
	return duration, nil
}

// tail returns the last few lines of tool output for error messages.
func tail(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	return strings.Join(lines, " | ")
}
