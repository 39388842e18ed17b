// Command worker consumes notification triggers from the broker and runs the
// daily overdue digest. Use it with RUN_WORKER=false on the API servers.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/yukikurage/taskflow-api/internal/app"
	"github.com/yukikurage/taskflow-api/internal/config"
	"github.com/yukikurage/taskflow-api/internal/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("worker exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.Setup(cfg.LogLevel)
	if strings.HasPrefix(cfg.BrokerURL, "memory://") {
		log.Warn("worker is using an in-process broker; triggers from API processes will not reach it")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Open(cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	bg, err := rt.StartBackground(ctx)
	if err != nil {
		return err
	}
	log.Info("worker running", "concurrency", cfg.WorkerCount, "digest_schedule", cfg.DigestSchedule)

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return bg.Stop(shutdownCtx)
}
