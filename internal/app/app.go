// Package app assembles the fiber application.
package app

import (
	"github.com/gofiber/fiber/v2"

	"github.com/banksythequantLab/songtov/internal/api/v1/handlers"
	"github.com/banksythequantLab/songtov/internal/api/v1/middleware"
	v1 "github.com/banksythequantLab/songtov/internal/api/v1/routes"
	"github.com/banksythequantLab/songtov/internal/jobs"
)

// NewApp builds the fiber app with middleware and the v1 routes.
func NewApp(manager *jobs.Manager) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})

	app.Use(middleware.Logger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	v1.Register(app, handlers.NewJobHandler(manager))

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
