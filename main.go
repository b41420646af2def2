package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"skillbridge/internal/api"
	"skillbridge/internal/audit"
	"skillbridge/internal/badge"
	"skillbridge/internal/branch"
	"skillbridge/internal/config"
	"skillbridge/internal/contract"
	"skillbridge/internal/database"
	"skillbridge/internal/logger"
	"skillbridge/internal/membership"
	"skillbridge/internal/middleware"
	"skillbridge/internal/network"
	"skillbridge/internal/notifications"
	"skillbridge/internal/partnership"
	"skillbridge/internal/project"
	"skillbridge/internal/telemetry"
	"skillbridge/internal/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.NewConfig()

	tel, err := telemetry.New(cfg.Telemetry)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			log.Printf("Failed to shut down telemetry: %v", err)
		}
	}()

	logg := logger.New(*cfg)

	if err := database.Migrate(cfg.Database); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	notifier := notifications.NewNotifier(logg, notifications.LogSink{Logger: logg})
	auditor := audit.NewAuditor(logg, db)

	memberships := membership.NewManager(logg, db, notifier)
	contracts := contract.NewManager(logg, db)
	branches := branch.NewManager(logg, db, notifier)
	partnerships := partnership.NewManager(logg, db, notifier)
	networks := network.NewManager(logg, db, redisClient, cfg.Redis.NetworkCacheTTL)
	projects := project.NewManager(logg, db)
	badges := badge.NewManager(logg, db, &contracts, notifier)

	handler := api.NewHandler(logg, db, validator.New(), auditor, api.Handlers{
		Memberships:  memberships,
		Contracts:    contracts,
		Branches:     branches,
		Partnerships: partnerships,
		Networks:     networks,
		Projects:     projects,
		Badges:       badges,
	})

	app := fiber.New(fiber.Config{
		AppName:      "skillbridge",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})
	app.Use(middleware.Logger(logg))
	handler.RegisterRoutes(app)

	go func() {
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		if err := app.Listen(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		logg.Error("Failed to shut down server", "error", err)
	}
}
