// Package render assembles the final video with ffmpeg: one motion clip
// per scene image, a transition-aware concat, then the audio mux.
package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/banksythequantLab/songtov/internal/logger"
	"github.com/banksythequantLab/songtov/internal/media"
)

const (
	frameRate   = 25
	frameWidth  = 1280
	frameHeight = 720
)

// Renderer implements media.Renderer over the ffmpeg binary.
type Renderer struct {
	ffmpegBin string
	outputDir string
}

// NewRenderer creates a renderer writing videos under outputDir/videos.
func NewRenderer(ffmpegBin, outputDir string) *Renderer {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	return &Renderer{ffmpegBin: ffmpegBin, outputDir: outputDir}
}

// Render produces the final video artifact from the ordered clips.
func (r *Renderer) Render(ctx context.Context, req media.RenderRequest) (string, error) {
	if len(req.Clips) == 0 {
		return "", fmt.Errorf("no clips to render")
	}

	workDir := filepath.Join(r.outputDir, "render", req.OutputName)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", fmt.Errorf("creating render dir: %w", err)
	}

	clipPaths := make([]string, len(req.Clips))
	for i, clip := range req.Clips {
		path := filepath.Join(workDir, fmt.Sprintf("clip_%03d.mp4", i))
		if err := r.renderMotionClip(ctx, clip, path); err != nil {
			return "", fmt.Errorf("rendering clip %d: %w", i, err)
		}
		clipPaths[i] = path
	}

	silent := filepath.Join(workDir, "silent.mp4")
	if err := r.combineClips(ctx, clipPaths, req, silent); err != nil {
		return "", fmt.Errorf("combining clips: %w", err)
	}

	videoDir := filepath.Join(r.outputDir, "videos")
	if err := os.MkdirAll(videoDir, 0o755); err != nil {
		return "", fmt.Errorf("creating videos dir: %w", err)
	}
	finalPath := filepath.Join(videoDir, req.OutputName+".mp4")
	if err := r.muxAudio(ctx, silent, req.AudioPath, finalPath); err != nil {
		return "", fmt.Errorf("muxing audio: %w", err)
	}

	logger.Infof("Rendered video %s from %d clips", finalPath, len(req.Clips))
	return finalPath, nil
}

// renderMotionClip turns a still image into a moving clip of the scene's
// duration.
func (r *Renderer) renderMotionClip(ctx context.Context, clip media.SceneClip, outPath string) error {
	args := []string{
		"-y",
		"-loop", "1",
		"-i", clip.ImagePath,
		"-vf", motionFilter(clip.MotionType, clip.Duration),
		"-t", fmt.Sprintf("%.2f", clip.Duration),
		"-r", fmt.Sprintf("%d", frameRate),
		"-pix_fmt", "yuv420p",
		"-an",
		outPath,
	}
	return r.run(ctx, args)
}

// motionFilter builds the zoompan filter graph for the given motion type.
// Filter expressions follow ffmpeg's zoompan syntax.
func motionFilter(motionType string, duration float64) string {
	frames := int(duration * frameRate)
	size := fmt.Sprintf("%dx%d", frameWidth, frameHeight)

	switch motionType {
	case "pan":
		return fmt.Sprintf(
			"scale=%d:-1,zoompan=z=1.1:x='(iw-iw/zoom)*t/%.2f':y='(ih-ih/zoom)/2':d=%d:s=%s",
			frameWidth*2, duration, frames, size)
	case "ken_burns":
		return fmt.Sprintf(
			"scale=%d:-1,zoompan=z='min(zoom+0.0010,1.3)':x='(iw-iw/zoom)*t/%.2f':y='(ih-ih/zoom)*t/%.2f':d=%d:s=%s",
			frameWidth*2, duration, duration, frames, size)
	case "static":
		return fmt.Sprintf(
			"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
			frameWidth, frameHeight, frameWidth, frameHeight)
	default: // zoom
		return fmt.Sprintf(
			"scale=%d:-1,zoompan=z='min(zoom+0.0015,1.2)':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=%d:s=%s",
			frameWidth*2, frames, size)
	}
}

// xfadeNames maps transition types to ffmpeg xfade transition names.
var xfadeNames = map[string]string{
	"fade":     "fade",
	"dissolve": "dissolve",
	"wipe":     "wipeleft",
	"slide":    "slideleft",
}

func (r *Renderer) combineClips(ctx context.Context, clipPaths []string, req media.RenderRequest, outPath string) error {
	transition, ok := xfadeNames[req.TransitionType]
	if !ok || len(clipPaths) < 2 || req.TransitionDuration <= 0 {
		return r.concatClips(ctx, clipPaths, outPath)
	}

	args := []string{"-y"}
	for _, p := range clipPaths {
		args = append(args, "-i", p)
	}

	// Chain xfades: each transition overlaps the previous output with the
	// next input, so every offset shrinks by one transition duration.
	var filter strings.Builder
	prev := "[0:v]"
	offset := req.Clips[0].Duration - req.TransitionDuration
	for i := 1; i < len(clipPaths); i++ {
		label := fmt.Sprintf("[x%d]", i)
		if i == len(clipPaths)-1 {
			label = "[v]"
		}
		fmt.Fprintf(&filter, "%s[%d:v]xfade=transition=%s:duration=%.2f:offset=%.2f%s;",
			prev, i, transition, req.TransitionDuration, offset, label)
		prev = label
		offset += req.Clips[i].Duration - req.TransitionDuration
	}

	args = append(args,
		"-filter_complex", strings.TrimSuffix(filter.String(), ";"),
		"-map", "[v]",
		"-pix_fmt", "yuv420p",
		outPath,
	)
	return r.run(ctx, args)
}

// concatClips joins clips without transitions via the concat demuxer.
func (r *Renderer) concatClips(ctx context.Context, clipPaths []string, outPath string) error {
	listPath := filepath.Join(filepath.Dir(outPath), "clips.txt")
	var list strings.Builder
	for _, p := range clipPaths {
		fmt.Fprintf(&list, "file '%s'\n", p)
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return fmt.Errorf("writing concat list: %w", err)
	}

	return r.run(ctx, []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outPath,
	})
}

func (r *Renderer) muxAudio(ctx context.Context, videoPath, audioPath, outPath string) error {
	return r.run(ctx, []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		outPath,
	})
}

func (r *Renderer) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, r.ffmpegBin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Debugf("Running %s %s", r.ffmpegBin, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, lastLines(stderr.String()))
	}
	return nil
}

func lastLines(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	return strings.Join(lines, " | ")
}
