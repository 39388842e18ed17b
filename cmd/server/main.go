package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow-api/internal/app"
	"github.com/yukikurage/taskflow-api/internal/auth"
	"github.com/yukikurage/taskflow-api/internal/config"
	"github.com/yukikurage/taskflow-api/internal/database"
	"github.com/yukikurage/taskflow-api/internal/handlers"
	"github.com/yukikurage/taskflow-api/internal/logger"
	"github.com/yukikurage/taskflow-api/internal/middleware"
	"github.com/yukikurage/taskflow-api/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.Setup(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Open(cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	tokens, err := auth.NewTokenService(cfg.SecretKey, cfg.AccessTokenLifetime())
	if err != nil {
		return fmt.Errorf("failed to configure tokens: %w", err)
	}

	store, err := middleware.NewSessionStore(middleware.SessionOptions{
		Secret:    cfg.SessionSecret,
		BrokerURL: cfg.BrokerURL,
		Secure:    cfg.IsProduction(),
	})
	if err != nil {
		return err
	}

	// Initialize AI service
	var ai services.TaskGenerator
	if cfg.OpenAIAPIKey != "" {
		ai = services.NewAIService(cfg.OpenAIAPIKey)
	}

	authService := services.NewAuthService(rt.Users, tokens, log)
	projectService := services.NewProjectService(rt.Projects, rt.Tasks)
	taskService := services.NewTaskService(rt.Tasks, rt.Projects, rt.Users, rt.Queue, ai, log)

	health := handlers.NewHealthHandler(
		handlers.PingFunc(func(ctx context.Context) error { return database.Ping(ctx, rt.DB) }),
		cfg.DatabaseURL,
		rt.Queue,
		cfg.BrokerURL,
		log,
	)

	router := handlers.NewRouter(handlers.RouterConfig{
		AppName:        cfg.AppName,
		Log:            log,
		CORSOrigins:    cfg.CORSOrigins,
		SessionStore:   store,
		AuthService:    authService,
		ProjectService: projectService,
		TaskService:    taskService,
		Health:         health,
	})

	var bg *app.Background
	if cfg.RunWorker {
		if bg, err = rt.StartBackground(ctx); err != nil {
			return fmt.Errorf("failed to start background jobs: %w", err)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", srv.Addr, "run_worker", cfg.RunWorker)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}
	if bg != nil {
		if err := bg.Stop(shutdownCtx); err != nil {
			log.Error("background shutdown failed", "error", err)
		}
	}
	log.Info("server stopped")
	return nil
}
