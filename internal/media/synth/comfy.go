// Package synth renders scene images through a ComfyUI server: queue a
// workflow on POST /prompt, poll GET /history/{id} until the outputs
// appear, then download the image from GET /view.
package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/banksythequantLab/songtov/internal/logger"
	"github.com/banksythequantLab/songtov/internal/media"
)

const (
	defaultPollInterval = time.Second
	defaultWaitTimeout  = 5 * time.Minute
)

// Client implements media.ImageSynthesizer against ComfyUI.
type Client struct {
	http         *resty.Client
	clientID     string
	outputDir    string
	pollInterval time.Duration
	waitTimeout  time.Duration
}

// NewClient creates a ComfyUI client writing images under outputDir/scenes.
func NewClient(baseURL, outputDir string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(30 * time.Second),
		clientID:     uuid.NewString(),
		outputDir:    outputDir,
		pollInterval: defaultPollInterval,
		waitTimeout:  defaultWaitTimeout,
	}
}

// Synthesize queues one scene, waits for it, and downloads the image.
func (c *Client) Synthesize(ctx context.Context, description string, params media.GenerationParams) (string, error) {
	promptID, err := c.queuePrompt(ctx, buildWorkflow(description, params))
	if err != nil {
		return "", err
	}

	output, err := c.waitForPrompt(ctx, promptID)
	if err != nil {
		return "", err
	}

	return c.downloadImage(ctx, output)
}

type queueResponse struct {
	PromptID string `json:"prompt_id"`
}

func (c *Client) queuePrompt(ctx context.Context, workflow map[string]any) (string, error) {
	var out queueResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"prompt":    workflow,
			"client_id": c.clientID,
		}).
		SetResult(&out).
		Post("/prompt")
	if err != nil {
		return "", fmt.Errorf("queueing prompt: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("image server returned %s: %s", resp.Status(), strings.TrimSpace(string(resp.Body())))
	}
	if out.PromptID == "" {
		return "", fmt.Errorf("image server returned no prompt id")
	}
	return out.PromptID, nil
}

// historyImage identifies one output image in a prompt's history entry.
type historyImage struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

// waitForPrompt polls the history endpoint until the prompt has outputs.
func (c *Client) waitForPrompt(ctx context.Context, promptID string) (*historyImage, error) {
	deadline := time.Now().Add(c.waitTimeout)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("image generation timed out after %s", c.waitTimeout)
		}

		img, done, err := c.checkHistory(ctx, promptID)
		if err != nil {
			logger.Debugf("History poll for prompt %s: %v", promptID, err)
			continue
		}
		if done {
			return img, nil
		}
	}
}

func (c *Client) checkHistory(ctx context.Context, promptID string) (*historyImage, bool, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/history/" + promptID)
	if err != nil {
		return nil, false, err
	}
	if resp.IsError() {
		return nil, false, fmt.Errorf("history returned %s", resp.Status())
	}

	var history map[string]struct {
		Outputs map[string]struct {
			Images []historyImage `json:"images"`
		} `json:"outputs"`
	}
	if err := json.Unmarshal(resp.Body(), &history); err != nil {
		return nil, false, fmt.Errorf("parsing history: %w", err)
	}

	entry, ok := history[promptID]
	if !ok {
		return nil, false, nil
	}
	for _, node := range entry.Outputs {
		if len(node.Images) > 0 {
			return &node.Images[0], true, nil
		}
	}
	return nil, false, nil
}

func (c *Client) downloadImage(ctx context.Context, img *historyImage) (string, error) {
	dir := filepath.Join(c.outputDir, "scenes")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating scenes dir: %w", err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"filename":  img.Filename,
			"subfolder": img.Subfolder,
			"type":      img.Type,
		}).
		Get("/view")
	if err != nil {
		return "", fmt.Errorf("downloading image: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("image download returned %s", resp.Status())
	}

	path := filepath.Join(dir, uuid.NewString()+filepath.Ext(img.Filename))
	if filepath.Ext(path) == "" {
		path += ".png"
	}
	if err := os.WriteFile(path, resp.Body(), 0o644); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}
	return path, nil
}

// aspectDimensions maps an aspect ratio to latent dimensions.
func aspectDimensions(aspectRatio string) (width, height int) {
	switch aspectRatio {
	case "9:16":
		return 576, 1024
	case "1:1":
		return 768, 768
	case "4:3":
		return 800, 600
	default: // 16:9
		return 1024, 576
	}
}

// buildWorkflow assembles a minimal text-to-image graph for the given
// scene. Node keys follow ComfyUI's API format.
func buildWorkflow(description string, params media.GenerationParams) map[string]any {
	width, height := aspectDimensions(params.AspectRatio)
	prompt := description
	if params.Style != "" {
		prompt = params.Style + " style, " + description
	}

	return map[string]any{
		"1": map[string]any{
			"class_type": "CheckpointLoaderSimple",
			"inputs": map[string]any{
				"ckpt_name": params.Model + ".safetensors",
			},
		},
		"2": map[string]any{
			"class_type": "CLIPTextEncode",
			"inputs": map[string]any{
				"text": prompt,
				"clip": []any{"1", 1},
			},
		},
		"3": map[string]any{
			"class_type": "CLIPTextEncode",
			"inputs": map[string]any{
				"text": "blurry, distorted, low quality, watermark, text",
				"clip": []any{"1", 1},
			},
		},
		"4": map[string]any{
			"class_type": "EmptyLatentImage",
			"inputs": map[string]any{
				"width":      width,
				"height":     height,
				"batch_size": 1,
			},
		},
		"5": map[string]any{
			"class_type": "KSampler",
			"inputs": map[string]any{
				"model":        []any{"1", 0},
				"positive":     []any{"2", 0},
				"negative":     []any{"3", 0},
				"latent_image": []any{"4", 0},
				"seed":         time.Now().UnixNano() % 1_000_000_000,
				"steps":        8,
				"cfg":          2.0,
				"sampler_name": "euler_ancestral",
				"scheduler":    "normal",
				"denoise":      1.0,
			},
		},
		"6": map[string]any{
			"class_type": "VAEDecode",
			"inputs": map[string]any{
				"samples": []any{"5", 0},
				"vae":     []any{"1", 2},
			},
		},
		"7": map[string]any{
			"class_type": "SaveImage",
			"inputs": map[string]any{
				"images":          []any{"6", 0},
				"filename_prefix": "songtov",
			},
		},
	}
}
