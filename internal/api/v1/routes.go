package v1

import (
	"sgti/internal/api/v1/handlers"
	"sgti/internal/middleware"
	ws "sgti/internal/websocket"
	"sgti/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

func RegisterRoutes(app *fiber.App, hub *ws.Hub) {
	handlers.Hub = hub

	api := app.Group("/api")

	// Auth
	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", handlers.Register)
	authRoutes.Post("/login", handlers.Login)
	authRoutes.Post("/refresh", handlers.Refresh)
	authRoutes.Get("/me", middleware.UseToken, handlers.Me)

	// Tasks
	taskRoutes := api.Group("/tasks", middleware.UseToken)
	taskRoutes.Post("/", handlers.CreateTask)
	taskRoutes.Get("/", handlers.ListTasks)
	taskRoutes.Get("/:id", handlers.GetTask)
	taskRoutes.Put("/:id", handlers.UpdateTask)
	taskRoutes.Delete("/:id", handlers.DeleteTask)
	taskRoutes.Get("/:id/subtasks", handlers.ListSubtasks)
	taskRoutes.Post("/:id/subtasks", handlers.CreateSubtask)

	// Projects
	projectRoutes := api.Group("/projects", middleware.UseToken)
	projectRoutes.Post("/", handlers.CreateProject)
	projectRoutes.Get("/", handlers.ListProjects)
	projectRoutes.Get("/:id", handlers.GetProject)
	projectRoutes.Put("/:id", handlers.UpdateProject)
	projectRoutes.Delete("/:id", handlers.DeleteProject)

	// AI assistance
	aiRoutes := api.Group("/ai", middleware.UseToken)
	aiRoutes.Post("/tasks/parse", handlers.ParseTaskText)
	aiRoutes.Post("/subtasks/suggest", handlers.SuggestSubtasksHandler)
	aiRoutes.Post("/sentiment/analyze", handlers.AnalyzeSentimentHandler)
	aiRoutes.Post("/duration/estimate", handlers.EstimateDurationHandler)
	aiRoutes.Post("/scheduling/suggest", handlers.SuggestSchedulingHandler)
	aiRoutes.Post("/dependencies/detect", handlers.DetectDependenciesHandler)
	aiRoutes.Post("/summary/generate", handlers.GenerateSummaryHandler)
	aiRoutes.Post("/chat", handlers.Chat)
	aiRoutes.Post("/chat/action", handlers.ExecuteChatAction)
	aiRoutes.Get("/chat/history", handlers.GetChatHistory)
	aiRoutes.Delete("/chat/history", handlers.ClearChatHistory)
	aiRoutes.Get("/agent/status", handlers.AgentStatus)

	// Analytics
	analyticsRoutes := api.Group("/analytics", middleware.UseToken)
	analyticsRoutes.Get("/report", handlers.GetReport)
	analyticsRoutes.Get("/insights", handlers.GetInsights)
	analyticsRoutes.Get("/notifications", handlers.GetNotifications)

	// Settings
	settingsRoutes := api.Group("/settings", middleware.UseToken)
	settingsRoutes.Get("/", handlers.GetSettings)
	settingsRoutes.Put("/", handlers.UpdateSettings)

	// Operational metrics, outside /api and unauthenticated
	app.Get("/metrics/performance", handlers.PerformanceMetrics)
	app.Get("/metrics/health", handlers.HealthMetrics)

	registerWebSocket(app, hub)
}

// registerWebSocket mounts the push channel. The browser WebSocket API cannot
// set headers, so the access token rides in the query string.
func registerWebSocket(app *fiber.App, hub *ws.Hub) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		claims, err := middleware.ParseToken(c.Query("token"), "access")
		if err != nil {
			logger.SecurityLogger.Warn("WebSocket auth failed", zap.Error(err))
			return c.Status(401).JSON(fiber.Map{
				"message": "Invalid token",
				"success": false,
				"status":  401,
			})
		}
		c.Locals("userID", claims["sub"].(string))
		return c.Next()
	})

	app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		userID := conn.Locals("userID").(string)
		client := &ws.Client{
			UserID: userID,
			Conn:   conn,
			Send:   make(chan []byte, 16),
		}
		hub.Register <- client
		logger.SystemLogger.Info("WebSocket connected", zap.String("user_id", userID))

		go client.WritePump()

		// Inbound frames are ignored; the read loop only detects disconnect
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		hub.Unregister <- client
		logger.SystemLogger.Info("WebSocket disconnected", zap.String("user_id", userID))
	}))
}
