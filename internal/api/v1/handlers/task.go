package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"sgti/internal/ai"
	"sgti/internal/config"
	"sgti/internal/models"
	ws "sgti/internal/websocket"
	"sgti/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Hub is wired in from main so every mutating handler can fan events out to
// the owner's live connections.
var Hub *ws.Hub

const taskColumns = `id, user_id, project_id, parent_task_id, title, description,
	status, priority, due_date, estimated_duration, actual_duration, completed_at,
	tags, metadata, natural_language_input, gpt_response, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var t models.Task
	err := row.Scan(
		&t.ID, &t.UserID, &t.ProjectID, &t.ParentTaskID, &t.Title, &t.Description,
		&t.Status, &t.Priority, &t.DueDate, &t.EstimatedDuration, &t.ActualDuration,
		&t.CompletedAt, &t.Tags, &t.Metadata, &t.NaturalLanguageInput, &t.GPTResponse,
		&t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// fetchUserTasks loads every task owned by the user, newest first. Shared by
// the analytics, notification and assistant endpoints.
func fetchUserTasks(userID string) ([]models.Task, error) {
	rows, err := config.DB.Query(
		"SELECT "+taskColumns+" FROM tasks WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// fetchOwnedTask loads one task and enforces ownership. A task that exists
// but belongs to someone else is indistinguishable from a missing one.
func fetchOwnedTask(taskID, userID string) (models.Task, error) {
	row := config.DB.QueryRow(
		"SELECT "+taskColumns+" FROM tasks WHERE id = $1 AND user_id = $2", taskID, userID)
	return scanTask(row)
}

func broadcastTask(userID, event string, data interface{}) {
	if Hub != nil {
		Hub.BroadcastToUser(userID, event, data)
	}
}

func cacheTask(task models.Task) {
	if config.RedisClient == nil {
		return
	}
	taskJSON, err := json.Marshal(task)
	if err != nil {
		return
	}
	if err := config.RedisClient.SetEX(config.Ctx, "task:"+task.ID, taskJSON, time.Hour).Err(); err != nil {
		logger.ErrorLogger.Error("Error caching task in Redis", zap.Error(err))
	}
}

func invalidateTask(taskID string) {
	if config.RedisClient == nil {
		return
	}
	if err := config.RedisClient.Del(config.Ctx, "task:"+taskID).Err(); err != nil {
		logger.ErrorLogger.Error("Error deleting task from Redis", zap.Error(err))
	}
}

// TaskRequest covers both creation modes: structured fields, or a single
// natural_language_input sentence that the parser expands.
type TaskRequest struct {
	Title                *string                `json:"title"`
	Description          *string                `json:"description"`
	Status               *string                `json:"status"`
	Priority             *string                `json:"priority"`
	DueDate              *time.Time             `json:"due_date"`
	EstimatedDuration    *int                   `json:"estimated_duration"`
	Tags                 []string               `json:"tags"`
	ProjectID            *string                `json:"project_id"`
	ParentTaskID         *string                `json:"parent_task_id"`
	Metadata             map[string]interface{} `json:"metadata"`
	NaturalLanguageInput *string                `json:"natural_language_input"`
}

func projectOwnedByUser(projectID, userID string) (bool, error) {
	var exists bool
	err := config.DB.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM projects WHERE id = $1 AND user_id = $2)",
		projectID, userID).Scan(&exists)
	return exists, err
}

func insertTask(task *models.Task) error {
	metadata := task.Metadata
	if metadata == nil {
		metadata = json.RawMessage("{}")
	}
	return config.DB.QueryRow(
		`INSERT INTO tasks (id, user_id, project_id, parent_task_id, title, description,
			status, priority, due_date, estimated_duration, completed_at, tags, metadata,
			natural_language_input, gpt_response)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING created_at, updated_at`,
		task.ID, task.UserID, task.ProjectID, task.ParentTaskID, task.Title, task.Description,
		task.Status, task.Priority, task.DueDate, task.EstimatedDuration, task.CompletedAt,
		task.Tags, metadata, task.NaturalLanguageInput, task.GPTResponse,
	).Scan(&task.CreatedAt, &task.UpdatedAt)
}

func CreateTask(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var req TaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in create task", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	task := models.Task{
		ID:       uuid.New().String(),
		UserID:   userID,
		Status:   models.StatusTodo,
		Priority: models.PriorityMedium,
		Tags:     pq.StringArray{},
	}

	if req.NaturalLanguageInput != nil && strings.TrimSpace(*req.NaturalLanguageInput) != "" {
		input := strings.TrimSpace(*req.NaturalLanguageInput)
		task.NaturalLanguageInput = &input

		parsed, raw, cacheHit, err := parseWithProvider(c, userID, input)
		if err != nil {
			// Provider trouble never blocks creation
			logger.ErrorLogger.Error("Task parsing degraded to fallback", zap.Error(err))
			parsed = ai.FallbackParse(input, time.Now())
		} else if cacheHit {
			logger.SystemLogger.Info("Task parse served from cache", zap.String("user_id", userID))
		}

		task.Title = parsed.Title
		task.Description = parsed.Description
		task.Priority = parsed.Priority
		task.DueDate = parsed.DueDate
		task.EstimatedDuration = parsed.EstimatedDuration
		task.Tags = pq.StringArray(parsed.Tags)
		task.GPTResponse = raw
	} else {
		if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
			return c.Status(400).JSON(fiber.Map{
				"message": "Either title or natural_language_input is required",
				"success": false,
				"status":  400,
			})
		}
		title := strings.TrimSpace(*req.Title)
		task.Title = title
		task.Description = req.Description
		task.DueDate = req.DueDate
		task.EstimatedDuration = req.EstimatedDuration
		if req.Tags != nil {
			task.Tags = pq.StringArray(req.Tags)
		}
	}

	// Explicit fields win over parsed ones in both modes
	if req.Status != nil {
		canonical, ok := models.CanonicalStatus(*req.Status)
		if !ok {
			return c.Status(400).JSON(fiber.Map{
				"message": "Invalid status",
				"success": false,
				"status":  400,
			})
		}
		task.Status = canonical
	}
	if req.Priority != nil {
		canonical, ok := models.CanonicalPriority(*req.Priority)
		if !ok {
			return c.Status(400).JSON(fiber.Map{
				"message": "Invalid priority",
				"success": false,
				"status":  400,
			})
		}
		task.Priority = canonical
	}
	if models.IsStatusDone(task.Status) {
		now := time.Now()
		task.CompletedAt = &now
	}

	if req.ProjectID != nil {
		owned, err := projectOwnedByUser(*req.ProjectID, userID)
		if err != nil || !owned {
			return c.Status(404).JSON(fiber.Map{
				"message": "Project not found",
				"success": false,
				"status":  404,
			})
		}
		task.ProjectID = req.ProjectID
	}
	if req.ParentTaskID != nil {
		if _, err := fetchOwnedTask(*req.ParentTaskID, userID); err != nil {
			return c.Status(404).JSON(fiber.Map{
				"message": "Parent task not found",
				"success": false,
				"status":  404,
			})
		}
		task.ParentTaskID = req.ParentTaskID
	}
	if req.Metadata != nil {
		metadata, err := json.Marshal(req.Metadata)
		if err == nil {
			task.Metadata = metadata
		}
	}

	if err := insertTask(&task); err != nil {
		logger.ErrorLogger.Error("Error creating task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error creating task",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Task created",
		zap.String("user_id", userID), zap.String("task_id", task.ID))
	broadcastTask(userID, ws.EventTaskCreated, task)

	return c.Status(201).JSON(fiber.Map{
		"message": "Task created successfully",
		"success": true,
		"status":  201,
		"data":    task,
	})
}

var taskSortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"due_date":   "due_date",
	"priority":   "priority",
	"title":      "title",
	"status":     "status",
}

func ListTasks(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	where := []string{"user_id = $1"}
	args := []interface{}{userID}

	if status := c.Query("status"); status != "" {
		aliases := models.StatusAliases(status)
		if aliases == nil {
			return c.Status(400).JSON(fiber.Map{
				"message": "Invalid status filter",
				"success": false,
				"status":  400,
			})
		}
		args = append(args, pq.Array(aliases))
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if projectID := c.Query("project_id"); projectID != "" {
		args = append(args, projectID)
		where = append(where, fmt.Sprintf("project_id = $%d", len(args)))
	}
	if q := c.Query("q"); q != "" {
		args = append(args, "%"+q+"%")
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	if err := config.DB.QueryRow(
		"SELECT COUNT(*) FROM tasks WHERE "+whereClause, args...).Scan(&total); err != nil {
		logger.ErrorLogger.Error("Error counting tasks", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching tasks",
			"success": false,
			"status":  500,
		})
	}

	sortBy, ok := taskSortColumns[c.Query("sort_by", "created_at")]
	if !ok {
		sortBy = "created_at"
	}
	order := "DESC"
	if strings.EqualFold(c.Query("sort_order"), "asc") {
		order = "ASC"
	}

	limit := c.QueryInt("limit", 20)
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf("SELECT %s FROM tasks WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		taskColumns, whereClause, sortBy, order, len(args)-1, len(args))
	rows, err := config.DB.Query(query, args...)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching tasks", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching tasks",
			"success": false,
			"status":  500,
		})
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			logger.ErrorLogger.Error("Error scanning task", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error fetching tasks",
				"success": false,
				"status":  500,
			})
		}
		tasks = append(tasks, t)
	}

	return c.JSON(fiber.Map{
		"message": "Tasks found",
		"success": true,
		"status":  200,
		"data": fiber.Map{
			"tasks": tasks,
			"total": total,
		},
	})
}

func GetTask(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	taskID := c.Params("id")

	// Redis first; ownership is still checked on a hit
	if config.RedisClient != nil {
		cached, err := config.RedisClient.Get(config.Ctx, "task:"+taskID).Result()
		if err == nil {
			var task models.Task
			if err := json.Unmarshal([]byte(cached), &task); err == nil && task.UserID == userID {
				logger.SystemLogger.Info("Task served from Redis", zap.String("task_id", taskID))
				return c.JSON(fiber.Map{
					"message": "Task found",
					"success": true,
					"status":  200,
					"data":    task,
				})
			}
		}
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
		logger.ErrorLogger.Error("Error fetching task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching task",
			"success": false,
			"status":  500,
		})
	}

	cacheTask(task)
	return c.JSON(fiber.Map{
		"message": "Task found",
		"success": true,
		"status":  200,
		"data":    task,
	})
}

func UpdateTask(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	taskID := c.Params("id")

	task, err := fetchOwnedTask(taskID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(404).JSON(fiber.Map{
				"message": "Task not found",
				"success": false,
				"status":  404,
			})
		}
		logger.ErrorLogger.Error("Error fetching task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching task",
			"success": false,
			"status":  500,
		})
	}

	var req TaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return c.Status(400).JSON(fiber.Map{
				"message": "Title cannot be empty",
				"success": false,
				"status":  400,
			})
		}
		task.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		task.Description = req.Description
	}
	if req.Priority != nil {
		canonical, ok := models.CanonicalPriority(*req.Priority)
		if !ok {
			return c.Status(400).JSON(fiber.Map{
				"message": "Invalid priority",
				"success": false,
				"status":  400,
			})
		}
		task.Priority = canonical
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.EstimatedDuration != nil {
		task.EstimatedDuration = req.EstimatedDuration
	}
	if req.Tags != nil {
		task.Tags = pq.StringArray(req.Tags)
	}
	if req.Metadata != nil {
		if metadata, err := json.Marshal(req.Metadata); err == nil {
			task.Metadata = metadata
		}
	}
	if req.ProjectID != nil {
		owned, err := projectOwnedByUser(*req.ProjectID, userID)
		if err != nil || !owned {
			return c.Status(404).JSON(fiber.Map{
				"message": "Project not found",
				"success": false,
				"status":  404,
			})
		}
		task.ProjectID = req.ProjectID
	}

	if req.Status != nil {
		canonical, ok := models.CanonicalStatus(*req.Status)
		if !ok {
			return c.Status(400).JSON(fiber.Map{
				"message": "Invalid status",
				"success": false,
				"status":  400,
			})
		}
		wasDone := models.IsStatusDone(task.Status)
		task.Status = canonical
		// Entering the done class stamps completion, leaving it clears the stamp
		if models.IsStatusDone(canonical) && !wasDone {
			now := time.Now()
			task.CompletedAt = &now
		} else if !models.IsStatusDone(canonical) {
			task.CompletedAt = nil
		}
	}

	err = config.DB.QueryRow(
		`UPDATE tasks SET title = $1, description = $2, status = $3, priority = $4,
			due_date = $5, estimated_duration = $6, completed_at = $7, tags = $8,
			metadata = $9, project_id = $10, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $11 AND user_id = $12
		 RETURNING updated_at`,
		task.Title, task.Description, task.Status, task.Priority, task.DueDate,
		task.EstimatedDuration, task.CompletedAt, task.Tags, task.Metadata,
		task.ProjectID, task.ID, userID,
	).Scan(&task.UpdatedAt)
	if err != nil {
		logger.ErrorLogger.Error("Error updating task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error updating task",
			"success": false,
			"status":  500,
		})
	}

	invalidateTask(task.ID)
	cacheTask(task)

	logger.AuditLogger.Info("Task updated",
		zap.String("user_id", userID), zap.String("task_id", task.ID))
	broadcastTask(userID, ws.EventTaskUpdated, task)

	return c.JSON(fiber.Map{
		"message": "Task updated successfully",
		"success": true,
		"status":  200,
		"data":    task,
	})
}

func DeleteTask(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	taskID := c.Params("id")

	result, err := config.DB.Exec("DELETE FROM tasks WHERE id = $1 AND user_id = $2", taskID, userID)
	if err != nil {
		logger.ErrorLogger.Error("Error deleting task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error deleting task",
			"success": false,
			"status":  500,
		})
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return c.Status(404).JSON(fiber.Map{
			"message": "Task not found",
			"success": false,
			"status":  404,
		})
	}

	invalidateTask(taskID)

	logger.AuditLogger.Info("Task deleted",
		zap.String("user_id", userID), zap.String("task_id", taskID))
	broadcastTask(userID, ws.EventTaskDeleted, fiber.Map{"id": taskID})

	return c.JSON(fiber.Map{
		"message": "Task deleted successfully",
		"success": true,
		"status":  200,
	})
}

func ListSubtasks(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	taskID := c.Params("id")

	if _, err := fetchOwnedTask(taskID, userID); err != nil {
		return c.Status(404).JSON(fiber.Map{
			"message": "Task not found",
			"success": false,
			"status":  404,
		})
	}

	rows, err := config.DB.Query(
		"SELECT "+taskColumns+" FROM tasks WHERE parent_task_id = $1 ORDER BY created_at", taskID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching subtasks", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching subtasks",
			"success": false,
			"status":  500,
		})
	}
	defer rows.Close()

	subtasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			logger.ErrorLogger.Error("Error scanning subtask", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error fetching subtasks",
				"success": false,
				"status":  500,
			})
		}
		subtasks = append(subtasks, t)
	}

	return c.JSON(fiber.Map{
		"message": "Subtasks found",
		"success": true,
		"status":  200,
		"data":    subtasks,
	})
}

func CreateSubtask(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	parentID := c.Params("id")

	parent, err := fetchOwnedTask(parentID, userID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{
			"message": "Task not found",
			"success": false,
			"status":  404,
		})
	}

	type SubtaskRequest struct {
		Title             string  `json:"title" validate:"required"`
		Description       *string `json:"description"`
		Priority          *string `json:"priority"`
		ProjectID         *string `json:"project_id"`
		EstimatedDuration *int    `json:"estimated_duration"`
	}
	var req SubtaskRequest
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

	// Only ownership is inherited from the parent; everything else comes
	// from the request, with priority defaulting to medium.
	subtask := models.Task{
		ID:                uuid.New().String(),
		UserID:            userID,
		ParentTaskID:      &parent.ID,
		Title:             strings.TrimSpace(req.Title),
		Description:       req.Description,
		Status:            models.StatusTodo,
		Priority:          models.PriorityMedium,
		EstimatedDuration: req.EstimatedDuration,
		Tags:              pq.StringArray{},
	}
	if req.ProjectID != nil {
		owned, err := projectOwnedByUser(*req.ProjectID, userID)
		if err != nil {
			logger.ErrorLogger.Error("Error checking project ownership", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error creating subtask",
				"success": false,
				"status":  500,
			})
		}
		if !owned {
			return c.Status(404).JSON(fiber.Map{
				"message": "Project not found",
				"success": false,
				"status":  404,
			})
		}
		subtask.ProjectID = req.ProjectID
	}
	if req.Priority != nil {
		canonical, ok := models.CanonicalPriority(*req.Priority)
		if !ok {
			return c.Status(400).JSON(fiber.Map{
				"message": "Invalid priority",
				"success": false,
				"status":  400,
			})
		}
		subtask.Priority = canonical
	}

	if err := insertTask(&subtask); err != nil {
		logger.ErrorLogger.Error("Error creating subtask", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error creating subtask",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Subtask created",
		zap.String("user_id", userID), zap.String("parent_task_id", parentID))
	broadcastTask(userID, ws.EventTaskCreated, subtask)

	return c.Status(201).JSON(fiber.Map{
		"message": "Subtask created successfully",
		"success": true,
		"status":  201,
		"data":    subtask,
	})
}
