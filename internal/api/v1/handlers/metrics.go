package handlers

import (
	"sgti/internal/config"
	"sgti/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// PerformanceMetrics exposes the in-process request counters.
func PerformanceMetrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Performance metrics",
		"success": true,
		"status":  200,
		"data":    middleware.Metrics.Snapshot(),
	})
}

// HealthMetrics pings the backing stores and reports per-component state.
// A degraded dependency answers 503 so load balancers can react.
func HealthMetrics(c *fiber.Ctx) error {
	components := fiber.Map{}
	healthy := true

	if config.DB == nil {
		components["database"] = "down"
		healthy = false
	} else if err := config.DB.Ping(); err != nil {
		components["database"] = "down"
		healthy = false
	} else {
		components["database"] = "up"
	}

	if config.RedisClient == nil {
		components["redis"] = "down"
		healthy = false
	} else if err := config.RedisClient.Ping(config.Ctx).Err(); err != nil {
		components["redis"] = "down"
		healthy = false
	} else {
		components["redis"] = "up"
	}

	status := "healthy"
	code := 200
	if !healthy {
		status = "degraded"
		code = 503
	}

	return c.Status(code).JSON(fiber.Map{
		"message": "Health check",
		"success": healthy,
		"status":  code,
		"data": fiber.Map{
			"status":         status,
			"components":     components,
			"uptime_seconds": middleware.Metrics.Snapshot().UptimeSeconds,
		},
	})
}
