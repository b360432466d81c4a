package handlers

import (
	"database/sql"
	"strings"

	"sgti/internal/config"
	"sgti/internal/models"
	"sgti/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Icon        *string `json:"icon"`
}

func CreateProject(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var req ProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return c.Status(400).JSON(fiber.Map{
			"message": "Name is required",
			"success": false,
			"status":  400,
		})
	}

	project := models.Project{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        strings.TrimSpace(*req.Name),
		Description: req.Description,
		Color:       req.Color,
		Icon:        req.Icon,
	}
	err := config.DB.QueryRow(
		`INSERT INTO projects (id, user_id, name, description, color, icon)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		project.ID, project.UserID, project.Name, project.Description, project.Color, project.Icon,
	).Scan(&project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		logger.ErrorLogger.Error("Error creating project", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error creating project",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Project created",
		zap.String("user_id", userID), zap.String("project_id", project.ID))
	return c.Status(201).JSON(fiber.Map{
		"message": "Project created successfully",
		"success": true,
		"status":  201,
		"data":    project,
	})
}

func ListProjects(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	rows, err := config.DB.Query(
		`SELECT id, user_id, name, description, color, icon, created_at, updated_at
		 FROM projects WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching projects", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching projects",
			"success": false,
			"status":  500,
		})
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.Color, &p.Icon,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			logger.ErrorLogger.Error("Error scanning project", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error fetching projects",
				"success": false,
				"status":  500,
			})
		}
		projects = append(projects, p)
	}

	return c.JSON(fiber.Map{
		"message": "Projects found",
		"success": true,
		"status":  200,
		"data":    projects,
	})
}

func GetProject(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	projectID := c.Params("id")

	var p models.Project
	err := config.DB.QueryRow(
		`SELECT id, user_id, name, description, color, icon, created_at, updated_at
		 FROM projects WHERE id = $1 AND user_id = $2`, projectID, userID,
	).Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.Color, &p.Icon, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(404).JSON(fiber.Map{
				"message": "Project not found",
				"success": false,
				"status":  404,
			})
		}
		logger.ErrorLogger.Error("Error fetching project", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching project",
			"success": false,
			"status":  500,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Project found",
		"success": true,
		"status":  200,
		"data":    p,
	})
}

func UpdateProject(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	projectID := c.Params("id")

	var req ProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return c.Status(400).JSON(fiber.Map{
			"message": "Name cannot be empty",
			"success": false,
			"status":  400,
		})
	}

	var p models.Project
	err := config.DB.QueryRow(
		`UPDATE projects SET
			name = COALESCE($1, name),
			description = COALESCE($2, description),
			color = COALESCE($3, color),
			icon = COALESCE($4, icon),
			updated_at = CURRENT_TIMESTAMP
		 WHERE id = $5 AND user_id = $6
		 RETURNING id, user_id, name, description, color, icon, created_at, updated_at`,
		req.Name, req.Description, req.Color, req.Icon, projectID, userID,
	).Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.Color, &p.Icon, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(404).JSON(fiber.Map{
				"message": "Project not found",
				"success": false,
				"status":  404,
			})
		}
		logger.ErrorLogger.Error("Error updating project", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error updating project",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Project updated",
		zap.String("user_id", userID), zap.String("project_id", projectID))
	return c.JSON(fiber.Map{
		"message": "Project updated successfully",
		"success": true,
		"status":  200,
		"data":    p,
	})
}

// DeleteProject removes the project; tasks keep existing with project_id
// cleared by the schema's ON DELETE SET NULL.
func DeleteProject(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	projectID := c.Params("id")

	result, err := config.DB.Exec(
		"DELETE FROM projects WHERE id = $1 AND user_id = $2", projectID, userID)
	if err != nil {
		logger.ErrorLogger.Error("Error deleting project", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error deleting project",
			"success": false,
			"status":  500,
		})
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return c.Status(404).JSON(fiber.Map{
			"message": "Project not found",
			"success": false,
			"status":  404,
		})
	}

	logger.AuditLogger.Info("Project deleted",
		zap.String("user_id", userID), zap.String("project_id", projectID))
	return c.JSON(fiber.Map{
		"message": "Project deleted successfully",
		"success": true,
		"status":  200,
	})
}
