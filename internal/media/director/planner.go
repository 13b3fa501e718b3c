// Package director plans the visual beats of the video: given lyric text
// and a style it produces an ordered list of scene descriptions. The
// production planner asks Gemini for a JSON array; a deterministic lyric
// splitter covers keyless deployments and the planner's failure fallback.
package director

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is the Gemini model used when none is configured
const DefaultModel = "gemini-1.5-flash"

// Planner implements media.ScenePlanner over Gemini.
type Planner struct {
	client *genai.Client
	model  string
}

// NewPlanner creates a Gemini-backed scene planner.
func NewPlanner(ctx context.Context, apiKey, model string) (*Planner, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Planner{client: client, model: model}, nil
}

// Plan asks the model for sceneCount scene descriptions.
func (p *Planner) Plan(ctx context.Context, lyrics, style string, sceneCount int) ([]string, error) {
	model := p.client.GenerativeModel(p.model)
	model.SetTemperature(0.4)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(buildPrompt(lyrics, style, sceneCount)))
	if err != nil {
		return nil, fmt.Errorf("scene planning failed: %w", err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return nil, err
	}

	descriptions, err := parseSceneList(cleanJSONBlock(text))
	if err != nil {
		return nil, fmt.Errorf("parsing planned scenes: %w", err)
	}
	if len(descriptions) > sceneCount {
		descriptions = descriptions[:sceneCount]
	}
	return descriptions, nil
}

// Close releases the underlying client.
func (p *Planner) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

func buildPrompt(lyrics, style string, sceneCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a music video director planning a %s music video.\n", style)
	fmt.Fprintf(&b, "Break the song below into exactly %d visual scenes that follow the song's emotional arc.\n", sceneCount)
	b.WriteString("Each scene is one vivid, self-contained image prompt: subject, setting, lighting, mood. No camera jargon, no numbering.\n")
	b.WriteString("Respond with a JSON array of strings, one per scene, in order.\n\nLyrics:\n")
	b.WriteString(lyrics)
	return b.String()
}

// parseSceneList accepts either a bare array of strings or an array of
// {"description": ...} objects, which some models produce despite the
// instructions.
func parseSceneList(text string) ([]string, error) {
	var plain []string
	if err := json.Unmarshal([]byte(text), &plain); err == nil {
		return normalize(plain), nil
	}

	var wrapped []struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(text), &wrapped); err == nil {
		descriptions := make([]string, 0, len(wrapped))
		for _, w := range wrapped {
			descriptions = append(descriptions, w.Description)
		}
		return normalize(descriptions), nil
	}

	return nil, fmt.Errorf("response is not a JSON scene array")
}

func normalize(descriptions []string) []string {
	out := descriptions[:0]
	for _, d := range descriptions {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}

func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return strings.Join(parts, ""), nil
}

func cleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
