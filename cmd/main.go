package main

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskboard/pkg/auth"
	"taskboard/pkg/cache"
	"taskboard/pkg/config"
	"taskboard/pkg/db"
	"taskboard/pkg/handlers"
	"taskboard/pkg/notify"
	"taskboard/pkg/scheduler"
	"taskboard/pkg/storage"
	"taskboard/pkg/tasks"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
	defer func() {
		_ = logger.Sync()
	}()

	cfg := config.Load()

	store, err := db.NewStore(cfg)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	if err := store.Migrate(); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	attachments, err := storage.NewDiskStore(cfg.AttachmentDir)
	if err != nil {
		logger.Fatal("failed to prepare attachment dir", zap.Error(err))
	}

	taskRepo := db.NewTaskRepository(store)
	subRepo := db.NewSubTaskRepository(store)
	userRepo := db.NewUserRepository(store)

	taskCache := cache.NewTaskCache(store.Rdb, cfg.CacheTTL)
	dispatcher := notify.NewRedisPublisher(store.Rdb, cfg.NotifyChannel)
	mailer := notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPass)

	taskService := tasks.NewService(taskRepo, subRepo, taskCache, dispatcher, attachments)
	authService := auth.NewService(userRepo, cfg.JwtSecret, cfg.JwtTTL)

	reminder := scheduler.NewReminder(taskRepo, userRepo, taskCache, dispatcher, mailer, cfg.ReminderSpec)
	if err := reminder.Start(); err != nil {
		logger.Fatal("failed to start reminder scheduler", zap.Error(err))
	}
	defer reminder.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	handlers.RegisterRoutes(r,
		handlers.NewAuthHandler(authService),
		handlers.NewTaskHandler(taskService),
		handlers.NewSubTaskHandler(taskService),
		userRepo, cfg.JwtSecret, cfg.AttachmentDir)

	addr := ":" + cfg.AppPort
	logger.Info("starting server", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.Fatal("could not start server", zap.Error(err))
	}
}
