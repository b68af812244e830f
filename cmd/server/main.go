package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hioscollector/hioscollector/api/router"
	"github.com/hioscollector/hioscollector/internal/config"
	"github.com/hioscollector/hioscollector/internal/database"
	"github.com/hioscollector/hioscollector/internal/service"
	"github.com/hioscollector/hioscollector/pkg/logger"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	logger.Infof("starting HiOS Collector, listening on %s", cfg.GetServerAddr())

	if err := database.InitSQLite(cfg.Database.SQLite); err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	defer database.Close()

	collectorService := service.NewCollectorService(cfg)
	defer collectorService.Stop()

	backupService := service.NewBackupService(cfg, collectorService)

	// Re-apply the log level when the config file changes on disk.
	config.Watch(func(newCfg *config.Config) {
		logger.SetLevel(newCfg.Log.Level)
		logger.Infof("config reloaded, log level now %s", newCfg.Log.Level)
	})

	r := router.SetupRouter(cfg.Server.Mode, collectorService, backupService)

	server := &http.Server{
		Addr:           cfg.GetServerAddr(),
		Handler:        r,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
	} else {
		logger.Info("server shutdown complete")
	}
}
