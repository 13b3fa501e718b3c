// Package handlers contains the HTTP handlers of the v1 API.
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/banksythequantLab/songtov/internal/db/models"
	"github.com/banksythequantLab/songtov/internal/jobs"
)

// JobHandler handles HTTP requests for job operations
type JobHandler struct {
	manager *jobs.Manager
}

// NewJobHandler creates a new job handler instance
func NewJobHandler(m *jobs.Manager) *JobHandler {
	return &JobHandler{manager: m}
}

// CreateJob handles the request to create a new job
func (h *JobHandler) CreateJob(c *fiber.Ctx) error {
	var req models.CreateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput(err.Error()))
	}

	jobID, err := h.manager.Create(c.Context(), &req)
	if err != nil {
		var verr *jobs.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).
				JSON(errInvalidInput(verr.Error()))
		}
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(err.Error()))
	}

	return c.Status(fiber.StatusCreated).
		JSON(Response{
			Slug: SuccessSlug,
			Data: fiber.Map{"job_id": jobID},
		})
}

// GetJob handles the request to get a job's full snapshot
func (h *JobHandler) GetJob(c *fiber.Ctx) error {
	jobID := c.Params("id")
	if jobID == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput("invalid job id"))
	}

	job, err := h.manager.GetStatus(jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			return c.Status(fiber.StatusNotFound).
				JSON(errNotFound(err.Error()))
		}
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(err.Error()))
	}

	return c.JSON(Response{
		Slug: SuccessSlug,
		Data: job,
	})
}

// GetJobProgress handles the cheap polling read of a job
func (h *JobHandler) GetJobProgress(c *fiber.Ctx) error {
	jobID := c.Params("id")
	if jobID == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput("invalid job id"))
	}

	progress, err := h.manager.GetProgress(jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			return c.Status(fiber.StatusNotFound).
				JSON(errNotFound(err.Error()))
		}
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(err.Error()))
	}

	return c.JSON(Response{
		Slug: SuccessSlug,
		Data: progress,
	})
}

// ListJobs handles the request to list jobs
func (h *JobHandler) ListJobs(c *fiber.Ctx) error {
	var (
		limit  = c.QueryInt("limit", 10)
		offset = c.QueryInt("offset", 0)
		status models.JobStatus
	)

	if statusStr := c.Query("status"); statusStr != "" {
		parsed, err := models.ParseJobStatus(statusStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).
				JSON(errInvalidInput("invalid job status"))
		}
		status = parsed
	}

	return c.JSON(Response{
		Slug: SuccessSlug,
		Data: h.manager.List(status, limit, offset),
	})
}

// CancelJob handles the request to cancel a job
func (h *JobHandler) CancelJob(c *fiber.Ctx) error {
	jobID := c.Params("id")
	if jobID == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput("invalid job id"))
	}

	err := h.manager.Cancel(jobID)
	switch {
	case err == nil:
		return c.JSON(Response{
			Slug: SuccessSlug,
			Data: fiber.Map{"ok": true},
		})
	case errors.Is(err, jobs.ErrJobNotFound):
		return c.Status(fiber.StatusNotFound).
			JSON(errNotFound(err.Error()))
	case errors.Is(err, jobs.ErrJobTerminal):
		return c.Status(fiber.StatusConflict).
			JSON(errConflict(err.Error()))
	default:
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(err.Error()))
	}
}
