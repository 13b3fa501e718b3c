// Package routes wires the v1 API routes to their handlers.
package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/banksythequantLab/songtov/internal/api/v1/handlers"
)

// SetupRoutes configures all the v1 routes
func SetupRoutes(router fiber.Router, jobHandler *handlers.JobHandler) {
	jobsGroup := router.Group("/jobs")
	jobsGroup.Post("/", jobHandler.CreateJob)
	jobsGroup.Get("/", jobHandler.ListJobs)
	jobsGroup.Get("/:id", jobHandler.GetJob)
	jobsGroup.Get("/:id/progress", jobHandler.GetJobProgress)
	jobsGroup.Post("/:id/cancel", jobHandler.CancelJob)
}

// Register registers the v1 routes under /api/v1
func Register(app *fiber.App, jobHandler *handlers.JobHandler) {
	v1Group := app.Group("/api/v1")
	SetupRoutes(v1Group, jobHandler)
}
