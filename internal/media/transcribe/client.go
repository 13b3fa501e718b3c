// Package transcribe extracts lyric text from an audio artifact via a
// whisper-compatible transcription server.
package transcribe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client implements media.Transcriber against an OpenAI-compatible
// transcription endpoint (whisper-server, faster-whisper-server, etc).
type Client struct {
	http  *resty.Client
	model string
}

// NewClient creates a transcription client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(10 * time.Minute),
		model: "whisper-1",
	}
}

// Transcribe uploads the audio file and returns the recognized text.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetFile("file", audioPath).
		SetFormData(map[string]string{
			"model":           c.model,
			"response_format": "text",
		}).
		Post("/v1/audio/transcriptions")
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("transcriber returned %s: %s", resp.Status(), strings.TrimSpace(string(resp.Body())))
	}
	return strings.TrimSpace(string(resp.Body())), nil
}
