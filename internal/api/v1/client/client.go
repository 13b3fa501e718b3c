// Package client is the Go client of the v1 API, used by the CLI.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/banksythequantLab/songtov/internal/db/models"
	"github.com/banksythequantLab/songtov/internal/jobs"
)

// Client talks to a running songtov API server.
type Client struct {
	http *resty.Client
}

// New creates a client for the given base URL, e.g. http://localhost:8080.
func New(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/") + "/api/v1").
			SetTimeout(30 * time.Second),
	}
}

// envelope mirrors the server's response envelope with a raw data payload.
type envelope struct {
	Slug  string          `json:"slug"`
	Error string          `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// CreateJob submits a new job and returns its identifier.
func (c *Client) CreateJob(ctx context.Context, req *models.CreateJobRequest) (string, error) {
	data, err := c.do(ctx, c.http.R().SetBody(req), "POST", "/jobs")
	if err != nil {
		return "", err
	}

	var out struct {
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("parsing create response: %w", err)
	}
	return out.JobID, nil
}

// GetJob fetches the full snapshot of a job.
func (c *Client) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	data, err := c.do(ctx, c.http.R(), "GET", "/jobs/"+jobID)
	if err != nil {
		return nil, err
	}

	var job models.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("parsing job: %w", err)
	}
	return &job, nil
}

// GetProgress fetches the cheap polling view of a job.
func (c *Client) GetProgress(ctx context.Context, jobID string) (*jobs.ProgressSnapshot, error) {
	data, err := c.do(ctx, c.http.R(), "GET", "/jobs/"+jobID+"/progress")
	if err != nil {
		return nil, err
	}

	var progress jobs.ProgressSnapshot
	if err := json.Unmarshal(data, &progress); err != nil {
		return nil, fmt.Errorf("parsing progress: %w", err)
	}
	return &progress, nil
}

// ListJobs fetches job snapshots, optionally filtered by status.
func (c *Client) ListJobs(ctx context.Context, status string, limit, offset int) ([]models.Job, error) {
	r := c.http.R().
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetQueryParam("offset", strconv.Itoa(offset))
	if status != "" {
		r.SetQueryParam("status", status)
	}

	data, err := c.do(ctx, r, "GET", "/jobs")
	if err != nil {
		return nil, err
	}

	var list []models.Job
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parsing job list: %w", err)
	}
	return list, nil
}

// CancelJob requests cancellation of a job.
func (c *Client) CancelJob(ctx context.Context, jobID string) error {
	_, err := c.do(ctx, c.http.R(), "POST", "/jobs/"+jobID+"/cancel")
	return err
}

func (c *Client) do(ctx context.Context, r *resty.Request, method, path string) (json.RawMessage, error) {
	var env envelope
	resp, err := r.SetContext(ctx).SetResult(&env).SetError(&env).Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		msg := env.Error
		if msg == "" {
			msg = resp.Status()
		}
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode(), msg)
	}
	return env.Data, nil
}
