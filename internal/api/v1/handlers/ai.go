package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sgti/internal/ai"
	"sgti/internal/config"
	"sgti/internal/models"
	ws "sgti/internal/websocket"
	"sgti/pkg/crypto"
	"sgti/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Assistant keeps per-user chat history for the conversational endpoints.
var Assistant = ai.NewAssistant()

var errNoProvider = fmt.Errorf("no language-model provider configured")

// providerForUser builds a provider from the user's settings. OpenAI needs a
// stored API key; llama needs a configured endpoint.
func providerForUser(userID string) (ai.Provider, error) {
	settings, err := getOrCreateSettings(userID)
	if err != nil {
		return nil, err
	}

	if settings.LLMProvider == "llama" {
		if settings.LlamaEndpoint == "" {
			return nil, errNoProvider
		}
		return &ai.OpenAIProvider{
			Model:    "llama3",
			Endpoint: strings.TrimRight(settings.LlamaEndpoint, "/") + "/v1/chat/completions",
			Client:   &http.Client{Timeout: 30 * time.Second},
		}, nil
	}

	if settings.OpenAIAPIKey == nil || *settings.OpenAIAPIKey == "" {
		return nil, errNoProvider
	}
	apiKey, err := crypto.Decrypt(*settings.OpenAIAPIKey, config.EncryptionKey)
	if err != nil {
		logger.ErrorLogger.Error("Error decrypting API key", zap.Error(err))
		return nil, err
	}
	return ai.NewOpenAIProvider(apiKey), nil
}

// parseWithProvider runs the natural-language parser with the user's
// configured provider. Callers fall back to keyword parsing on error.
func parseWithProvider(c *fiber.Ctx, userID, input string) (ai.ParsedTask, json.RawMessage, bool, error) {
	provider, err := providerForUser(userID)
	if err != nil {
		return ai.ParsedTask{}, nil, false, err
	}
	return ai.ParseTask(c.Context(), config.DB, provider, input)
}

func ParseTaskText(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	type ParseRequest struct {
		Text string `json:"text" validate:"required"`
	}
	var req ParseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}
	if err := config.Validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	providerName := "gpt4"
	cached := false
	parsed, _, cacheHit, err := parseWithProvider(c, userID, req.Text)
	if err != nil {
		logger.ErrorLogger.Error("Task parsing degraded to fallback", zap.Error(err))
		parsed = ai.FallbackParse(req.Text, time.Now())
		providerName = "fallback"
	} else {
		cached = cacheHit
	}

	return c.JSON(fiber.Map{
		"message": "Task parsed successfully",
		"success": true,
		"status":  200,
		"data": fiber.Map{
			"parsed_task": parsed,
			"cached":      cached,
			"provider":    providerName,
		},
	})
}

func SuggestSubtasksHandler(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	type SubtasksRequest struct {
		TaskID      *string `json:"task_id"`
		Title       string  `json:"title"`
		Description string  `json:"description"`
	}
	var req SubtasksRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	title, description := req.Title, req.Description
	if req.TaskID != nil {
		task, err := fetchOwnedTask(*req.TaskID, userID)
		if err != nil {
			return c.Status(404).JSON(fiber.Map{
				"message": "Task not found",
				"success": false,
				"status":  404,
			})
		}
		title = task.Title
		if task.Description != nil {
			description = *task.Description
		}
	}
	if strings.TrimSpace(title) == "" {
		return c.Status(400).JSON(fiber.Map{
			"message": "Either task_id or title is required",
			"success": false,
			"status":  400,
		})
	}

	provider, err := providerForUser(userID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Configure sua chave de API nas configurações para usar este recurso",
			"success": false,
			"status":  400,
		})
	}

	subtasks, providerName := ai.SuggestSubtasks(c.Context(), config.DB, provider, title, description)
	return c.JSON(fiber.Map{
		"message": "Subtasks suggested",
		"success": true,
		"status":  200,
		"data": fiber.Map{
			"subtasks": subtasks,
			"provider": providerName,
		},
	})
}

func AnalyzeSentimentHandler(c *fiber.Ctx) error {
	type SentimentRequest struct {
		Text string `json:"text" validate:"required"`
	}
	var req SentimentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}
	if err := config.Validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Sentiment analyzed",
		"success": true,
		"status":  200,
		"data":    ai.AnalyzeSentiment(req.Text),
	})
}

func EstimateDurationHandler(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	type DurationRequest struct {
		Title       string `json:"title" validate:"required"`
		Description string `json:"description"`
	}
	var req DurationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}
	if err := config.Validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	historical, err := fetchUserTasks(userID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching tasks for estimation", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error estimating duration",
			"success": false,
			"status":  500,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Duration estimated",
		"success": true,
		"status":  200,
		"data": fiber.Map{
			"estimated_duration": ai.EstimateDuration(req.Title, req.Description, historical),
			"unit":               "minutes",
		},
	})
}

func SuggestSchedulingHandler(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	type SchedulingRequest struct {
		TaskID string `json:"task_id" validate:"required"`
	}
	var req SchedulingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}
	if err := config.Validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	task, err := fetchOwnedTask(req.TaskID, userID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{
			"message": "Task not found",
			"success": false,
			"status":  404,
		})
	}

	provider, err := providerForUser(userID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Configure sua chave de API nas configurações para usar este recurso",
			"success": false,
			"status":  400,
		})
	}

	existing, err := fetchUserTasks(userID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching tasks for scheduling", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error suggesting schedule",
			"success": false,
			"status":  500,
		})
	}

	suggestion, err := ai.SuggestScheduling(c.Context(), provider, task, existing)
	if err != nil {
		logger.ErrorLogger.Error("Scheduling suggestion failed", zap.Error(err))
		return c.Status(502).JSON(fiber.Map{
			"message": "Error suggesting schedule",
			"success": false,
			"status":  502,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Schedule suggested",
		"success": true,
		"status":  200,
		"data":    suggestion,
	})
}

func DetectDependenciesHandler(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	type DependenciesRequest struct {
		TaskID string `json:"task_id" validate:"required"`
	}
	var req DependenciesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}
	if err := config.Validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	task, err := fetchOwnedTask(req.TaskID, userID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{
			"message": "Task not found",
			"success": false,
			"status":  404,
		})
	}

	all, err := fetchUserTasks(userID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching tasks for dependencies", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error detecting dependencies",
			"success": false,
			"status":  500,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Dependencies detected",
		"success": true,
		"status":  200,
		"data": fiber.Map{
			"dependencies": ai.DetectDependencies(task, all),
		},
	})
}

func GenerateSummaryHandler(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	type SummaryRequest struct {
		Period string `json:"period"`
	}
	var req SummaryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	period := req.Period
	if period == "" {
		period = "daily"
	}
	if period != "daily" && period != "weekly" && period != "monthly" {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid period, expected daily, weekly or monthly",
			"success": false,
			"status":  400,
		})
	}

	tasks, err := fetchUserTasks(userID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching tasks for summary", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error generating summary",
			"success": false,
			"status":  500,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Summary generated",
		"success": true,
		"status":  200,
		"data":    ai.GenerateSummary(tasks, period, time.Now()),
	})
}

func Chat(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	type ChatRequest struct {
		Message string `json:"message" validate:"required"`
	}
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}
	if err := config.Validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	tasks, err := fetchUserTasks(userID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching tasks for chat", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error processing message",
			"success": false,
			"status":  500,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Message processed",
		"success": true,
		"status":  200,
		"data":    Assistant.ProcessMessage(userID, req.Message, tasks),
	})
}

// ExecuteChatAction runs the second leg of the confirm/execute protocol: the
// action the user approved through the buttons of a previous chat turn.
func ExecuteChatAction(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	type ActionRequest struct {
		Action string                 `json:"action" validate:"required"`
		Data   map[string]interface{} `json:"data"`
	}
	var req ActionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}
	if err := config.Validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	switch req.Action {
	case "cancel":
		return c.JSON(fiber.Map{
			"message": "Ação cancelada.",
			"success": true,
			"status":  200,
		})
	case "create":
		return executeChatCreate(c, userID, req.Data)
	case "complete":
		return executeChatStatus(c, userID, req.Data, models.StatusDone, "Tarefa '%s' concluída!")
	case "update_status":
		status, _ := req.Data["status"].(string)
		canonical, ok := models.CanonicalStatus(status)
		if !ok {
			return c.Status(400).JSON(fiber.Map{
				"message": "Invalid status",
				"success": false,
				"status":  400,
			})
		}
		return executeChatStatus(c, userID, req.Data, canonical, "Tarefa '%s' atualizada!")
	case "delete":
		return executeChatDelete(c, userID, req.Data)
	}

	return c.Status(400).JSON(fiber.Map{
		"message": "Unknown action",
		"success": false,
		"status":  400,
	})
}

func executeChatCreate(c *fiber.Ctx, userID string, data map[string]interface{}) error {
	title, _ := data["title"].(string)
	if title == "" {
		title, _ = data["text"].(string)
	}
	if strings.TrimSpace(title) == "" {
		return c.Status(400).JSON(fiber.Map{
			"message": "Task title is required",
			"success": false,
			"status":  400,
		})
	}

	task := models.Task{
		ID:       uuid.New().String(),
		UserID:   userID,
		Title:    strings.TrimSpace(title),
		Status:   models.StatusTodo,
		Priority: models.PriorityMedium,
		Tags:     pq.StringArray{},
	}
	if priority, ok := data["priority"].(string); ok {
		if canonical, ok := models.CanonicalPriority(priority); ok {
			task.Priority = canonical
		}
	}
	if dueRaw, ok := data["due_date"].(string); ok && dueRaw != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"} {
			if due, err := time.Parse(layout, dueRaw); err == nil {
				task.DueDate = &due
				break
			}
		}
	}

	if err := insertTask(&task); err != nil {
		logger.ErrorLogger.Error("Error creating task from chat", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error creating task",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Task created from chat",
		zap.String("user_id", userID), zap.String("task_id", task.ID))
	broadcastTask(userID, ws.EventTaskCreated, task)

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Tarefa '%s' criada com sucesso!", task.Title),
		"success": true,
		"status":  200,
		"data":    task,
	})
}

func executeChatStatus(c *fiber.Ctx, userID string, data map[string]interface{}, status, messageFormat string) error {
	taskID, _ := data["task_id"].(string)
	if taskID == "" {
		return c.Status(400).JSON(fiber.Map{
			"message": "task_id is required",
			"success": false,
			"status":  400,
		})
	}

	task, err := fetchOwnedTask(taskID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(404).JSON(fiber.Map{
				"message": "Task not found",
				"success": false,
				"status":  404,
			})
		}
		logger.ErrorLogger.Error("Error fetching task for chat action", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error updating task",
			"success": false,
			"status":  500,
		})
	}

	task.Status = status
	if models.IsStatusDone(status) {
		now := time.Now()
		task.CompletedAt = &now
	} else {
		task.CompletedAt = nil
	}

	err = config.DB.QueryRow(
		`UPDATE tasks SET status = $1, completed_at = $2, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $3 AND user_id = $4
		 RETURNING updated_at`,
		task.Status, task.CompletedAt, task.ID, userID,
	).Scan(&task.UpdatedAt)
	if err != nil {
		logger.ErrorLogger.Error("Error updating task from chat", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error updating task",
			"success": false,
			"status":  500,
		})
	}

	invalidateTask(task.ID)
	cacheTask(task)

	logger.AuditLogger.Info("Task status changed from chat",
		zap.String("user_id", userID), zap.String("task_id", task.ID), zap.String("new_status", status))
	broadcastTask(userID, ws.EventTaskUpdated, task)

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf(messageFormat, task.Title),
		"success": true,
		"status":  200,
		"data":    task,
	})
}

func executeChatDelete(c *fiber.Ctx, userID string, data map[string]interface{}) error {
	taskID, _ := data["task_id"].(string)
	if taskID == "" {
		return c.Status(400).JSON(fiber.Map{
			"message": "task_id is required",
			"success": false,
			"status":  400,
		})
	}

	task, err := fetchOwnedTask(taskID, userID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{
			"message": "Task not found",
			"success": false,
			"status":  404,
		})
	}

	if _, err := config.DB.Exec(
		"DELETE FROM tasks WHERE id = $1 AND user_id = $2", taskID, userID); err != nil {
		logger.ErrorLogger.Error("Error deleting task from chat", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error deleting task",
			"success": false,
			"status":  500,
		})
	}

	invalidateTask(taskID)

	logger.AuditLogger.Info("Task deleted from chat",
		zap.String("user_id", userID), zap.String("task_id", taskID))
	broadcastTask(userID, ws.EventTaskDeleted, fiber.Map{"id": taskID})

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Tarefa '%s' excluída.", task.Title),
		"success": true,
		"status":  200,
	})
}

func GetChatHistory(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	return c.JSON(fiber.Map{
		"message": "Chat history found",
		"success": true,
		"status":  200,
		"data": fiber.Map{
			"history": Assistant.History(userID),
		},
	})
}

func ClearChatHistory(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	Assistant.ClearHistory(userID)
	return c.JSON(fiber.Map{
		"message": "Chat history cleared",
		"success": true,
		"status":  200,
	})
}

// AgentStatus reports whether the AI layer is usable for the caller and
// which provider their settings select.
func AgentStatus(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	settings, err := getOrCreateSettings(userID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching settings", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching agent status",
			"success": false,
			"status":  500,
		})
	}

	hasKey := settings.OpenAIAPIKey != nil && *settings.OpenAIAPIKey != ""
	configured := settings.LLMProvider == "llama" || hasKey

	return c.JSON(fiber.Map{
		"message": "Agent status",
		"success": true,
		"status":  200,
		"data": fiber.Map{
			"status":              "operational",
			"provider":            settings.LLMProvider,
			"provider_configured": configured,
			"has_api_key":         hasKey,
			"history_size":        len(Assistant.History(userID)),
			"capabilities": []string{
				"create_task", "complete_task", "delete_task",
				"update_status", "list_tasks", "summary",
			},
		},
	})
}
