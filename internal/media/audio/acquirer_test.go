package audio

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAcquirerDefaultsBinaries(t *testing.T) {
	a := NewAcquirer("", "", "/out")
	assert.Equal(t, "yt-dlp", a.ytdlpBin)
	assert.Equal(t, "ffprobe", a.ffprobeBin)

	a = NewAcquirer("/opt/yt-dlp", "/opt/ffprobe", "/out")
	assert.Equal(t, "/opt/yt-dlp", a.ytdlpBin)
	assert.Equal(t, "/opt/ffprobe", a.ffprobeBin)
}

func TestFetchLocalFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake ffprobe script requires a unix shell")
	}

	dir := t.TempDir()
	audioPath := filepath.Join(dir, "midnight.mp3")
	require.NoError(t, os.WriteFile(audioPath, []byte("fake audio"), 0o644))

	ffprobe := filepath.Join(dir, "ffprobe")
	require.NoError(t, os.WriteFile(ffprobe, []byte("#!/bin/sh\necho 201.5\n"), 0o755))

	a := NewAcquirer("yt-dlp", ffprobe, dir)
	res, err := a.Fetch(context.Background(), audioPath)
	require.NoError(t, err)

	assert.Equal(t, audioPath, res.Path)
	assert.Equal(t, "midnight", res.Title)
	assert.Equal(t, 201.5, res.DurationSeconds)
}

func TestFetchLocalFileMissing(t *testing.T) {
	a := NewAcquirer("", "", t.TempDir())
	_, err := a.Fetch(context.Background(), "/nonexistent/track.mp3")
	assert.Error(t, err)
}

func TestTail(t *testing.T) {
	assert.Equal(t, "c | d | e", tail("a\nb\nc\nd\ne\n"))
	assert.Equal(t, "only", tail("only"))
}
