package main

import (
	"log"

	"sgti/configs"
	v1 "sgti/internal/api/v1"
	"sgti/internal/config"
	"sgti/internal/middleware"
	"sgti/internal/repository"
	ws "sgti/internal/websocket"
	"sgti/pkg/database"
	"sgti/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func main() {
	logger.InitLoggers()
	defer logger.SyncLoggers()

	cfg := configs.LoadConfig()
	config.SecretKey = []byte(cfg.JWTSecret)
	config.EncryptionKey = cfg.EncryptionKey

	config.DB = database.ConnectDB(cfg)
	defer config.DB.Close()
	repository.CreateTableIfNotExists(config.DB)

	config.RedisClient = database.ConnectRedis(cfg)
	defer config.RedisClient.Close()

	app := fiber.New()
	app.Use(middleware.ErrorHandler())
	app.Use(middleware.CollectMetrics())
	app.Use(cors.New())
	app.Use(limiter.New(limiter.Config{
		Max: 100,
	}))

	hub := ws.NewHub()
	go hub.Run()

	v1.RegisterRoutes(app, hub)

	logger.SystemLogger.Info("Server starting")
	log.Fatal(app.Listen(cfg.ListenAddr))
}
