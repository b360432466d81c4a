package handlers

import (
	"database/sql"
	"strings"
	"time"

	"sgti/internal/config"
	"sgti/internal/models"
	"sgti/pkg/crypto"
	"sgti/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const settingsColumns = `id, user_id, llm_provider, openai_api_key, llama_endpoint,
	timezone, default_task_duration, enable_auto_subtasks, enable_auto_priority,
	enable_auto_tags, created_at, updated_at`

func scanSettings(row rowScanner) (models.UserSettings, error) {
	var s models.UserSettings
	err := row.Scan(&s.ID, &s.UserID, &s.LLMProvider, &s.OpenAIAPIKey, &s.LlamaEndpoint,
		&s.Timezone, &s.DefaultTaskDuration, &s.EnableAutoSubtasks, &s.EnableAutoPriority,
		&s.EnableAutoTags, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// getOrCreateSettings returns the user's settings row, creating the defaults
// on first access.
func getOrCreateSettings(userID string) (models.UserSettings, error) {
	row := config.DB.QueryRow(
		"SELECT "+settingsColumns+" FROM user_settings WHERE user_id = $1", userID)
	settings, err := scanSettings(row)
	if err == nil {
		return settings, nil
	}
	if err != sql.ErrNoRows {
		return models.UserSettings{}, err
	}

	row = config.DB.QueryRow(
		`INSERT INTO user_settings (id, user_id) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET updated_at = user_settings.updated_at
		 RETURNING `+settingsColumns,
		uuid.New().String(), userID)
	return scanSettings(row)
}

func settingsResponse(s models.UserSettings) fiber.Map {
	return fiber.Map{
		"id":                    s.ID,
		"user_id":               s.UserID,
		"llm_provider":          s.LLMProvider,
		"has_api_key":           s.OpenAIAPIKey != nil && *s.OpenAIAPIKey != "",
		"llama_endpoint":        s.LlamaEndpoint,
		"timezone":              s.Timezone,
		"default_task_duration": s.DefaultTaskDuration,
		"enable_auto_subtasks":  s.EnableAutoSubtasks,
		"enable_auto_priority":  s.EnableAutoPriority,
		"enable_auto_tags":      s.EnableAutoTags,
		"created_at":            s.CreatedAt,
		"updated_at":            s.UpdatedAt,
	}
}

func GetSettings(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	settings, err := getOrCreateSettings(userID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching settings", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching settings",
			"success": false,
			"status":  500,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Settings found",
		"success": true,
		"status":  200,
		"data":    settingsResponse(settings),
	})
}

func UpdateSettings(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	type SettingsRequest struct {
		LLMProvider         *string `json:"llm_provider"`
		OpenAIAPIKey        *string `json:"openai_api_key"`
		LlamaEndpoint       *string `json:"llama_endpoint"`
		Timezone            *string `json:"timezone"`
		DefaultTaskDuration *int    `json:"default_task_duration"`
		EnableAutoSubtasks  *bool   `json:"enable_auto_subtasks"`
		EnableAutoPriority  *bool   `json:"enable_auto_priority"`
		EnableAutoTags      *bool   `json:"enable_auto_tags"`
	}
	var req SettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	settings, err := getOrCreateSettings(userID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching settings", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching settings",
			"success": false,
			"status":  500,
		})
	}

	if req.LLMProvider != nil {
		provider := strings.ToLower(strings.TrimSpace(*req.LLMProvider))
		if provider != "gpt4" && provider != "llama" {
			return c.Status(400).JSON(fiber.Map{
				"message": "Invalid llm_provider, expected 'gpt4' or 'llama'",
				"success": false,
				"status":  400,
			})
		}
		settings.LLMProvider = provider
	}
	// An omitted or empty key leaves the stored one untouched
	if req.OpenAIAPIKey != nil && strings.TrimSpace(*req.OpenAIAPIKey) != "" {
		encrypted, err := crypto.Encrypt(strings.TrimSpace(*req.OpenAIAPIKey), config.EncryptionKey)
		if err != nil {
			logger.ErrorLogger.Error("Error encrypting API key", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error updating settings",
				"success": false,
				"status":  500,
			})
		}
		settings.OpenAIAPIKey = &encrypted
	}
	if req.LlamaEndpoint != nil {
		settings.LlamaEndpoint = strings.TrimSpace(*req.LlamaEndpoint)
	}
	if req.Timezone != nil {
		tz := strings.TrimSpace(*req.Timezone)
		if _, err := time.LoadLocation(tz); err != nil {
			return c.Status(400).JSON(fiber.Map{
				"message": "Invalid timezone",
				"success": false,
				"status":  400,
			})
		}
		settings.Timezone = tz
	}
	if req.DefaultTaskDuration != nil {
		if *req.DefaultTaskDuration < 1 {
			return c.Status(400).JSON(fiber.Map{
				"message": "default_task_duration must be positive",
				"success": false,
				"status":  400,
			})
		}
		settings.DefaultTaskDuration = *req.DefaultTaskDuration
	}
	if req.EnableAutoSubtasks != nil {
		settings.EnableAutoSubtasks = *req.EnableAutoSubtasks
	}
	if req.EnableAutoPriority != nil {
		settings.EnableAutoPriority = *req.EnableAutoPriority
	}
	if req.EnableAutoTags != nil {
		settings.EnableAutoTags = *req.EnableAutoTags
	}

	err = config.DB.QueryRow(
		`UPDATE user_settings SET llm_provider = $1, openai_api_key = $2,
			llama_endpoint = $3, timezone = $4, default_task_duration = $5,
			enable_auto_subtasks = $6, enable_auto_priority = $7, enable_auto_tags = $8,
			updated_at = CURRENT_TIMESTAMP
		 WHERE user_id = $9
		 RETURNING updated_at`,
		settings.LLMProvider, settings.OpenAIAPIKey, settings.LlamaEndpoint,
		settings.Timezone, settings.DefaultTaskDuration, settings.EnableAutoSubtasks,
		settings.EnableAutoPriority, settings.EnableAutoTags, userID,
	).Scan(&settings.UpdatedAt)
	if err != nil {
		logger.ErrorLogger.Error("Error updating settings", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error updating settings",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Settings updated", zap.String("user_id", userID))
	return c.JSON(fiber.Map{
		"message": "Settings updated successfully",
		"success": true,
		"status":  200,
		"data":    settingsResponse(settings),
	})
}
