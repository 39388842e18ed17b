// Package app assembles the long-lived components shared by the API server
// and the standalone worker.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/yukikurage/taskflow-api/internal/config"
	"github.com/yukikurage/taskflow-api/internal/database"
	"github.com/yukikurage/taskflow-api/internal/logger"
	"github.com/yukikurage/taskflow-api/internal/mail"
	"github.com/yukikurage/taskflow-api/internal/notify"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"github.com/yukikurage/taskflow-api/internal/scheduler"
	"gorm.io/gorm"
)

// Runtime holds the database, broker, mailer and repositories.
type Runtime struct {
	Config *config.Config
	Log    *slog.Logger

	DB     *gorm.DB
	Queue  notify.Queue
	Mailer mail.Mailer

	Users    repository.UserRepository
	Projects repository.ProjectRepository
	Tasks    repository.TaskRepository
}

// Open connects to the database, runs migrations and opens the broker.
func Open(cfg *config.Config, log *slog.Logger) (*Runtime, error) {
	db, err := database.Connect(cfg.DatabaseURL, logger.GormLevel(cfg.LogLevel), log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(db, log); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	queue, err := notify.Open(cfg.BrokerURL, cfg.BrokerQueue, cfg.QueueSize, log)
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("failed to open broker: %w", err)
	}

	mailer, err := mail.New(mail.SMTPConfig{
		Host:        cfg.SMTPHost,
		Port:        cfg.SMTPPort,
		Username:    cfg.SMTPUser,
		Password:    cfg.SMTPPassword,
		TLS:         cfg.SMTPTLS,
		FromAddress: cfg.EmailsFromAddr,
		FromName:    cfg.EmailsFromName,
	}, log)
	if err != nil {
		queue.Close()
		closeDB(db)
		return nil, fmt.Errorf("failed to configure mailer: %w", err)
	}

	return &Runtime{
		Config:   cfg,
		Log:      log,
		DB:       db,
		Queue:    queue,
		Mailer:   mailer,
		Users:    repository.NewUserRepository(db),
		Projects: repository.NewProjectRepository(db),
		Tasks:    repository.NewTaskRepository(db),
	}, nil
}

// Close releases the broker and the database pool.
func (r *Runtime) Close() error {
	var errs []error
	if err := r.Queue.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close broker: %w", err))
	}
	if sqlDB, err := r.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Background is the notification worker plus the digest scheduler.
type Background struct {
	scheduler *scheduler.DigestScheduler
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	log       *slog.Logger
}

// StartBackground launches the worker pool and the daily digest schedule.
func (r *Runtime) StartBackground(ctx context.Context) (*Background, error) {
	notifier := notify.NewNotifier(r.Tasks, r.Projects, r.Users, r.Mailer, r.Log)
	digest := notify.NewDigest(r.Users, r.Tasks, r.Projects, r.Mailer, r.Log)

	sched, err := scheduler.NewDigestScheduler(r.Config.DigestSchedule, r.Config.DigestLocation(), digest, r.Log)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	bg := &Background{scheduler: sched, cancel: cancel, log: r.Log}

	worker := notify.NewWorker(r.Queue, notifier, r.Log, r.Config.WorkerCount)
	bg.wg.Add(1)
	go func() {
		defer bg.wg.Done()
		worker.Run(ctx)
	}()
	sched.Start()

	return bg, nil
}

// Stop halts the scheduler and waits for in-flight triggers to finish.
func (b *Background) Stop(ctx context.Context) error {
	err := b.scheduler.Stop(ctx)
	b.cancel()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return errors.Join(err, ctx.Err())
	}
	b.log.Info("background jobs stopped")
	return err
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
