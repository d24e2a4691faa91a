package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sladrus/messenger-server2/internal/config"
	"github.com/Sladrus/messenger-server2/internal/database"
	"github.com/Sladrus/messenger-server2/internal/handler"
	"github.com/Sladrus/messenger-server2/internal/middleware"
	"github.com/Sladrus/messenger-server2/internal/report"
	"github.com/Sladrus/messenger-server2/internal/repository"
	"github.com/Sladrus/messenger-server2/internal/service"
	"github.com/Sladrus/messenger-server2/internal/telegram"
	"github.com/Sladrus/messenger-server2/internal/view"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogging(cfg)

	// Database
	ctx := context.Background()
	client, err := database.Connect(ctx, cfg.MongoURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	db := client.Database(cfg.MongoDB)
	if err := database.Bootstrap(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap database")
	}

	// Repositories
	convRepo := repository.NewConversationRepository(db)
	stageRepo := repository.NewStageRepository(db)
	tagRepo := repository.NewTagRepository(db)
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	taskTypeRepo := repository.NewTaskTypeRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	historyRepo := repository.NewStageHistoryRepository(db)

	store := &repository.ViewStore{
		Convs:     convRepo,
		Stages:    stageRepo,
		Users:     userRepo,
		Tags:      tagRepo,
		Tasks:     taskRepo,
		TaskTypes: taskTypeRepo,
		Messages:  messageRepo,
	}
	mat := view.NewMaterializer(store)

	// Services
	wsHub := service.NewWSHub()
	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret)
	convSvc := service.NewConversationService(convRepo, stageRepo, tagRepo, messageRepo, historyRepo, mat, wsHub)
	stageSvc := service.NewStageService(stageRepo, convRepo, wsHub)
	taskSvc := service.NewTaskService(taskRepo, taskTypeRepo, stageRepo, convRepo, convSvc)
	reportSvc := service.NewReportService(
		stageRepo, historyRepo, convRepo, userRepo, tagRepo, mat,
		cfg.ReportLocation(),
		report.CRConfig{Initial: cfg.CRInitialStage, Success: cfg.CRSuccessStage},
	)

	// Telegram bot
	bot, err := telegram.NewBot(cfg.BotToken, convSvc)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start telegram bot")
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
		BodyLimit:    1 * 1024 * 1024, // 1MB
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger(log.Logger))
	app.Use(middleware.CORS())

	// Health
	healthH := handler.NewHealthHandler(client)
	app.Get("/health", healthH.Health)
	app.Get("/ready", healthH.Ready)

	api := app.Group("/api")

	// Auth (public)
	authH := handler.NewAuthHandler(authSvc)
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RegisterLimiter(), authH.Register)
	auth.Post("/login", middleware.LoginLimiter(), authH.Login)

	// JWT-protected routes
	protected := api.Group("", middleware.Auth(cfg.JWTSecret))

	convH := handler.NewConversationHandler(convSvc)
	convs := protected.Group("/conversations")
	convs.Get("/", convH.List)
	convs.Get("/search", convH.Search)
	convs.Get("/:id", convH.Get)
	convs.Put("/:id/stage", convH.UpdateStage)
	convs.Put("/:id/user", convH.UpdateUser)
	convs.Put("/:id/tags", convH.ReplaceTags)
	convs.Post("/:id/tags", convH.CreateTag)
	convs.Post("/:id/read", convH.MarkRead)
	convs.Post("/:id/messages", convH.SendMessage)
	convs.Post("/:id/link", convH.ExportInviteLink)

	reportH := handler.NewReportHandler(reportSvc)
	history := protected.Group("/history")
	history.Post("/periods", reportH.ByPeriods)
	history.Post("/users", reportH.ByUsers)
	history.Post("/tags", reportH.ByTags)

	stageH := handler.NewStageHandler(stageSvc)
	stages := protected.Group("/stages")
	stages.Get("/", stageH.List)
	stages.Post("/", stageH.Create)
	stages.Delete("/:id", stageH.Delete)

	tagH := handler.NewTagHandler(tagRepo)
	protected.Get("/tags", tagH.List)

	userH := handler.NewUserHandler(userRepo)
	users := protected.Group("/users")
	users.Get("/", userH.List)
	users.Get("/:id", userH.Get)

	taskH := handler.NewTaskHandler(taskSvc)
	tasks := protected.Group("/tasks")
	tasks.Post("/", taskH.Create)
	tasks.Post("/:id/complete", taskH.Complete)
	tasks.Get("/types", taskH.ListTypes)
	tasks.Post("/types", taskH.CreateType)

	// WebSocket
	wsH := handler.NewWSHandler(wsHub, authSvc)
	app.Get("/ws", wsH.Upgrade)

	go wsHub.Run()
	bot.Start()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Messenger backend running")

	<-quit
	log.Info().Msg("Shutting down...")
	bot.Stop()
	_ = app.ShutdownWithTimeout(5 * time.Second)
	wsHub.Shutdown()
	log.Info().Msg("Server stopped")
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
