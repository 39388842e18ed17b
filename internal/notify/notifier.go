package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yukikurage/taskflow-api/internal/mail"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"gorm.io/gorm"
)

// Notifier turns triggers into emails to the task's assignee.
type Notifier struct {
	tasks    repository.TaskRepository
	projects repository.ProjectRepository
	users    repository.UserRepository
	mailer   mail.Mailer
	log      *slog.Logger
}

// NewNotifier creates a Notifier.
func NewNotifier(
	tasks repository.TaskRepository,
	projects repository.ProjectRepository,
	users repository.UserRepository,
	mailer mail.Mailer,
	log *slog.Logger,
) *Notifier {
	return &Notifier{
		tasks:    tasks,
		projects: projects,
		users:    users,
		mailer:   mailer,
		log:      log,
	}
}

// Handle sends the email for t. Triggers whose task, project or assignee no
// longer exist are skipped without error.
func (n *Notifier) Handle(ctx context.Context, t Trigger) error {
	target, err := n.resolve(ctx, t.TaskID)
	if err != nil {
		return err
	}
	if target == nil {
		n.log.DebugContext(ctx, "notification skipped", "kind", t.Kind, "task_id", t.TaskID)
		return nil
	}

	var msg mail.Message
	switch t.Kind {
	case KindAssigned:
		msg, err = mail.RenderAssigned(target.assignee.Email, mail.AssignedData{
			TaskTitle:   target.task.Title,
			ProjectName: target.project.Name,
			DueDate:     target.task.DueDate,
		})
	case KindStatusChanged:
		msg, err = mail.RenderStatusChanged(target.assignee.Email, mail.StatusChangedData{
			TaskTitle:   target.task.Title,
			ProjectName: target.project.Name,
			OldStatus:   string(t.OldStatus),
			NewStatus:   string(t.NewStatus),
		})
	default:
		return fmt.Errorf("unknown trigger kind %q", t.Kind)
	}
	if err != nil {
		return err
	}

	if err := n.mailer.Send(ctx, msg); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification sent",
		"kind", t.Kind,
		"task_id", t.TaskID,
		"user_id", target.assignee.ID)
	return nil
}

type target struct {
	task     *models.Task
	project  *models.Project
	assignee *models.User
}

// resolve loads the rows a notification needs. A nil target means there is
// nobody to notify.
func (n *Notifier) resolve(ctx context.Context, taskID uint64) (*target, error) {
	task, err := n.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, ignoreNotFound(err)
	}
	if task.AssignedUserID == nil {
		return nil, nil
	}

	assignee, err := n.users.FindByID(ctx, *task.AssignedUserID)
	if err != nil {
		return nil, ignoreNotFound(err)
	}
	if assignee.Email == "" {
		return nil, nil
	}

	project, err := n.projects.FindByID(ctx, task.ProjectID)
	if err != nil {
		return nil, ignoreNotFound(err)
	}

	return &target{task: task, project: project, assignee: assignee}, nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
