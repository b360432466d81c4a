package handlers

import (
	"time"

	"sgti/internal/analytics"
	"sgti/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// userNow returns the current time in the user's configured timezone so
// day-boundary buckets line up with the user's calendar.
func userNow(userID string) time.Time {
	now := time.Now()
	settings, err := getOrCreateSettings(userID)
	if err != nil {
		return now
	}
	loc, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		return now
	}
	return now.In(loc)
}

func GetReport(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	periodDays := c.QueryInt("period_days", 30)
	if periodDays < 1 {
		periodDays = 1
	}
	if periodDays > 365 {
		periodDays = 365
	}

	tasks, err := fetchUserTasks(userID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching tasks for report", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error generating report",
			"success": false,
			"status":  500,
		})
	}

	report := analytics.GenerateFullReport(tasks, userNow(userID), periodDays)
	return c.JSON(fiber.Map{
		"message": "Report generated",
		"success": true,
		"status":  200,
		"data":    report,
	})
}

func GetInsights(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	periodDays := c.QueryInt("period_days", 30)
	if periodDays < 1 {
		periodDays = 1
	}
	if periodDays > 365 {
		periodDays = 365
	}

	tasks, err := fetchUserTasks(userID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching tasks for insights", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error generating insights",
			"success": false,
			"status":  500,
		})
	}

	report := analytics.GenerateFullReport(tasks, userNow(userID), periodDays)
	return c.JSON(fiber.Map{
		"message": "Insights generated",
		"success": true,
		"status":  200,
		"data": fiber.Map{
			"insights": analytics.GenerateInsights(report),
		},
	})
}

func GetNotifications(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	hoursAhead := c.QueryInt("hours_ahead", 24)
	if hoursAhead < 1 {
		hoursAhead = 1
	}
	if hoursAhead > 168 {
		hoursAhead = 168
	}

	tasks, err := fetchUserTasks(userID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching tasks for notifications", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error generating notifications",
			"success": false,
			"status":  500,
		})
	}

	now := userNow(userID)
	notifications := analytics.BucketNotifications(tasks, now, hoursAhead)
	summary := analytics.Summarize(notifications)

	return c.JSON(fiber.Map{
		"message": "Notifications generated",
		"success": true,
		"status":  200,
		"data": fiber.Map{
			"notifications": notifications,
			"summary":       summary,
			"message":       analytics.FormatMessage(notifications, now),
		},
	})
}
