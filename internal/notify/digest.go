package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yukikurage/taskflow-api/internal/mail"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/repository"
)

// DigestReport summarises one digest run.
type DigestReport struct {
	Users  int
	Sent   int
	Failed int
}

// Digest emails every active user the open tasks assigned to them that were
// due before today (UTC).
type Digest struct {
	users    repository.UserRepository
	tasks    repository.TaskRepository
	projects repository.ProjectRepository
	mailer   mail.Mailer
	log      *slog.Logger
	now      func() time.Time
}

// NewDigest creates a Digest.
func NewDigest(
	users repository.UserRepository,
	tasks repository.TaskRepository,
	projects repository.ProjectRepository,
	mailer mail.Mailer,
	log *slog.Logger,
) *Digest {
	return &Digest{
		users:    users,
		tasks:    tasks,
		projects: projects,
		mailer:   mailer,
		log:      log,
		now:      time.Now,
	}
}

// WithClock returns a copy of d that reads the current time from now.
func (d *Digest) WithClock(now func() time.Time) *Digest {
	clone := *d
	clone.now = now
	return &clone
}

// Run sends the digests. A failure for one user is logged and counted but
// does not stop the others.
func (d *Digest) Run(ctx context.Context) (DigestReport, error) {
	var report DigestReport

	users, err := d.users.ListActive(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list active users: %w", err)
	}

	cutoff := StartOfDay(d.now())
	projectNames := map[uint64]string{}

	for _, user := range users {
		report.Users++
		if user.Email == "" {
			continue
		}

		sent := false
		job := Safe(d.log, "overdue digest", func(ctx context.Context) error {
			var err error
			sent, err = d.sendDigest(ctx, &user, cutoff, projectNames)
			return err
		})

		switch {
		case !job(ctx):
			report.Failed++
		case sent:
			report.Sent++
		}
	}

	d.log.InfoContext(ctx, "overdue digest finished",
		"users", report.Users,
		"sent", report.Sent,
		"failed", report.Failed,
		"cutoff", cutoff)
	return report, nil
}

func (d *Digest) sendDigest(ctx context.Context, user *models.User, cutoff time.Time, projectNames map[uint64]string) (bool, error) {
	tasks, err := d.tasks.ListOverdueAssigned(ctx, user.ID, cutoff)
	if err != nil {
		return false, fmt.Errorf("failed to list overdue tasks for user %d: %w", user.ID, err)
	}
	if len(tasks) == 0 {
		return false, nil
	}

	rows := make([]mail.DigestRow, 0, len(tasks))
	for _, task := range tasks {
		name, ok := projectNames[task.ProjectID]
		if !ok {
			project, err := d.projects.FindByID(ctx, task.ProjectID)
			if err != nil {
				return false, fmt.Errorf("failed to load project %d: %w", task.ProjectID, err)
			}
			name = project.Name
			projectNames[task.ProjectID] = name
		}
		rows = append(rows, mail.DigestRow{
			Title:       task.Title,
			ProjectName: name,
			DueDate:     *task.DueDate,
			Priority:    string(task.Priority),
		})
	}

	msg, err := mail.RenderDigest(user.Email, rows)
	if err != nil {
		return false, err
	}
	if err := d.mailer.Send(ctx, msg); err != nil {
		return false, err
	}
	return true, nil
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
