package director

import (
	"context"
	"fmt"
	"strings"
)

// LyricSplitter is the deterministic fallback planner: it divides the
// lyric lines into evenly sized groups and renders each group as a plain
// scene prompt. It never fails on non-empty lyrics.
type LyricSplitter struct{}

// Plan implements media.ScenePlanner.
func (LyricSplitter) Plan(_ context.Context, lyrics, style string, sceneCount int) ([]string, error) {
	lines := splitLines(lyrics)
	if len(lines) == 0 {
		return nil, fmt.Errorf("no lyric lines to plan scenes from")
	}
	if sceneCount > len(lines) {
		sceneCount = len(lines)
	}

	descriptions := make([]string, 0, sceneCount)
	perScene := len(lines) / sceneCount
	remainder := len(lines) % sceneCount

	start := 0
	for i := 0; i < sceneCount; i++ {
		size := perScene
		if i < remainder {
			size++
		}
		group := strings.Join(lines[start:start+size], " / ")
		start += size
		descriptions = append(descriptions, fmt.Sprintf("A %s scene evoking the lyric: %q", style, group))
	}
	return descriptions, nil
}

func splitLines(lyrics string) []string {
	raw := strings.Split(lyrics, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
