package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banksythequantLab/songtov/internal/media"
)

func TestAspectDimensions(t *testing.T) {
	tests := []struct {
		aspect string
		width  int
		height int
	}{
		{"16:9", 1024, 576},
		{"9:16", 576, 1024},
		{"1:1", 768, 768},
		{"4:3", 800, 600},
		{"", 1024, 576},
		{"21:9", 1024, 576},
	}

	for _, tt := range tests {
		t.Run(tt.aspect, func(t *testing.T) {
			w, h := aspectDimensions(tt.aspect)
			assert.Equal(t, tt.width, w)
			assert.Equal(t, tt.height, h)
		})
	}
}

func TestBuildWorkflow(t *testing.T) {
	params := media.GenerationParams{Model: "sdxl_turbo", AspectRatio: "9:16", Style: "cinematic"}
	workflow := buildWorkflow("a neon street at night", params)

	loader := workflow["1"].(map[string]any)
	assert.Equal(t, "CheckpointLoaderSimple", loader["class_type"])
	assert.Equal(t, "sdxl_turbo.safetensors", loader["inputs"].(map[string]any)["ckpt_name"])

	positive := workflow["2"].(map[string]any)["inputs"].(map[string]any)
	assert.Equal(t, "cinematic style, a neon street at night", positive["text"])

	negative := workflow["3"].(map[string]any)["inputs"].(map[string]any)
	assert.Contains(t, negative["text"], "watermark")

	latent := workflow["4"].(map[string]any)["inputs"].(map[string]any)
	assert.Equal(t, 576, latent["width"])
	assert.Equal(t, 1024, latent["height"])

	// The workflow must serialize cleanly for the wire.
	_, err := json.Marshal(workflow)
	require.NoError(t, err)
}

func TestBuildWorkflowWithoutStyle(t *testing.T) {
	workflow := buildWorkflow("rain on a window", media.GenerationParams{Model: "sdxl_turbo"})
	positive := workflow["2"].(map[string]any)["inputs"].(map[string]any)
	assert.Equal(t, "rain on a window", positive["text"])
}

func TestClientSynthesize(t *testing.T) {
	var historyCalls atomic.Int32
	imageBytes := []byte("not-really-a-png")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/prompt":
			var body struct {
				Prompt   map[string]any `json:"prompt"`
				ClientID string         `json:"client_id"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.NotEmpty(t, body.ClientID)
			assert.Contains(t, body.Prompt, "5")
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"prompt_id":"p1"}`)

		case r.Method == http.MethodGet && r.URL.Path == "/history/p1":
			// First poll: not ready yet. Second poll: outputs present.
			if historyCalls.Add(1) == 1 {
				fmt.Fprint(w, `{}`)
				return
			}
			fmt.Fprint(w, `{"p1":{"outputs":{"7":{"images":[{"filename":"songtov_00001.png","subfolder":"","type":"output"}]}}}}`)

		case r.Method == http.MethodGet && r.URL.Path == "/view":
			assert.Equal(t, "songtov_00001.png", r.URL.Query().Get("filename"))
			_, _ = w.Write(imageBytes)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, t.TempDir())
	client.pollInterval = 5 * time.Millisecond

	path, err := client.Synthesize(context.Background(), "a neon street", media.GenerationParams{Model: "sdxl_turbo"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, historyCalls.Load(), int32(2))

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, imageBytes, written)
	assert.Equal(t, ".png", path[len(path)-4:])
}

func TestClientSynthesizeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL, t.TempDir())
	_, err := client.Synthesize(context.Background(), "a neon street", media.GenerationParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestClientSynthesizeCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/prompt" {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"prompt_id":"p1"}`)
			return
		}
		// Never report outputs, so the client keeps polling.
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, t.TempDir())
	client.pollInterval = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Synthesize(ctx, "a neon street", media.GenerationParams{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
