package handlers

import (
	"database/sql"
	"time"

	"sgti/internal/config"
	"sgti/internal/middleware"
	"sgti/internal/models"
	"sgti/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 30 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

func createToken(userID, email, tokenType string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"type":  tokenType,
		"exp":   time.Now().Add(ttl).Unix(),
	})
	return token.SignedString(config.SecretKey)
}

func issueTokenPair(c *fiber.Ctx, userID, email string) error {
	accessToken, err := createToken(userID, email, "access", accessTokenTTL)
	if err != nil {
		logger.ErrorLogger.Error("Error generating access token", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error generating token",
			"success": false,
			"status":  500,
		})
	}
	refreshToken, err := createToken(userID, email, "refresh", refreshTokenTTL)
	if err != nil {
		logger.ErrorLogger.Error("Error generating refresh token", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error generating token",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Token pair issued", zap.String("user_id", userID))
	return c.JSON(fiber.Map{
		"message": "Login success",
		"success": true,
		"status":  200,
		"data": fiber.Map{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
			"token_type":    "bearer",
		},
	})
}

func Register(c *fiber.Ctx) error {
	type RegisterRequest struct {
		Email    string  `json:"email" validate:"required,email"`
		Password string  `json:"password" validate:"required,min=6"`
		FullName *string `json:"full_name"`
	}

	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in register", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	if err := config.Validate.Struct(req); err != nil {
		logger.AuditLogger.Warn("Validation error during register", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.ErrorLogger.Error("Error hashing password", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error hashing password",
			"success": false,
			"status":  500,
		})
	}

	user := models.User{
		ID:       uuid.New().String(),
		Email:    req.Email,
		FullName: req.FullName,
		IsActive: true,
	}
	err = config.DB.QueryRow(
		`INSERT INTO users (id, email, hashed_password, full_name)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		user.ID, user.Email, string(hashedPassword), user.FullName,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		// Unique violation on email maps to a conflict
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			logger.SecurityLogger.Warn("Duplicate email", zap.String("email", req.Email))
			return c.Status(409).JSON(fiber.Map{
				"message": "Email already registered",
				"success": false,
				"status":  409,
			})
		}
		logger.ErrorLogger.Error("Error creating user", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error creating user",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("User registered successfully", zap.String("user_id", user.ID))
	return c.Status(201).JSON(fiber.Map{
		"message": "User created successfully",
		"success": true,
		"status":  201,
		"data":    user,
	})
}

func Login(c *fiber.Ctx) error {
	type LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in login", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	if err := config.Validate.Struct(req); err != nil {
		logger.AuditLogger.Warn("Validation error during login", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	// Unknown email, wrong password and inactive account all answer with the
	// same generic message.
	var user models.User
	var hashedPassword string
	err := config.DB.QueryRow(
		"SELECT id, email, hashed_password, is_active FROM users WHERE email = $1",
		req.Email).Scan(&user.ID, &user.Email, &hashedPassword, &user.IsActive)
	if err != nil {
		logger.SecurityLogger.Warn("Login for unknown email", zap.String("email", req.Email))
		return c.Status(401).JSON(fiber.Map{
			"message": "Invalid credentials",
			"success": false,
			"status":  401,
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(req.Password)); err != nil {
		logger.SecurityLogger.Warn("Invalid password", zap.String("email", req.Email))
		return c.Status(401).JSON(fiber.Map{
			"message": "Invalid credentials",
			"success": false,
			"status":  401,
		})
	}

	if !user.IsActive {
		logger.SecurityLogger.Warn("Login for inactive user", zap.String("user_id", user.ID))
		return c.Status(401).JSON(fiber.Map{
			"message": "Invalid credentials",
			"success": false,
			"status":  401,
		})
	}

	return issueTokenPair(c, user.ID, user.Email)
}

func Refresh(c *fiber.Ctx) error {
	type RefreshRequest struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	var req RefreshRequest
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

	claims, err := middleware.ParseToken(req.RefreshToken, "refresh")
	if err != nil {
		logger.SecurityLogger.Warn("Invalid refresh token", zap.Error(err))
		return c.Status(401).JSON(fiber.Map{
			"message": "Invalid refresh token",
			"success": false,
			"status":  401,
		})
	}

	userID := claims["sub"].(string)
	var email string
	var isActive bool
	err = config.DB.QueryRow("SELECT email, is_active FROM users WHERE id = $1", userID).Scan(&email, &isActive)
	if err == sql.ErrNoRows || (err == nil && !isActive) {
		logger.SecurityLogger.Warn("Refresh for missing or inactive user", zap.String("user_id", userID))
		return c.Status(401).JSON(fiber.Map{
			"message": "Invalid refresh token",
			"success": false,
			"status":  401,
		})
	}
	if err != nil {
		logger.ErrorLogger.Error("Error fetching user during refresh", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error refreshing token",
			"success": false,
			"status":  500,
		})
	}

	return issueTokenPair(c, userID, email)
}

func Me(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var user models.User
	err := config.DB.QueryRow(
		"SELECT id, email, full_name, is_active, created_at, updated_at FROM users WHERE id = $1",
		userID).Scan(&user.ID, &user.Email, &user.FullName, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		logger.SecurityLogger.Warn("User not found", zap.String("user_id", userID))
		return c.Status(404).JSON(fiber.Map{
			"message": "User not found",
			"success": false,
			"status":  404,
		})
	}

	return c.JSON(fiber.Map{
		"message": "User found",
		"success": true,
		"status":  200,
		"data":    user,
	})
}
