package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/notify"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"gorm.io/gorm"
)

// stampResolution is the coarsest timestamp precision among supported databases.
const stampResolution = time.Millisecond

// TaskService handles task business logic. Tasks are visible only through the
// project that owns them; assignment never grants access.
type TaskService struct {
	tasks    repository.TaskRepository
	projects repository.ProjectRepository
	users    repository.UserRepository
	sink     notify.Sink
	ai       TaskGenerator
	log      *slog.Logger
	now      func() time.Time
}

// NewTaskService creates a new TaskService. ai may be nil.
func NewTaskService(
	tasks repository.TaskRepository,
	projects repository.ProjectRepository,
	users repository.UserRepository,
	sink notify.Sink,
	ai TaskGenerator,
	log *slog.Logger,
) *TaskService {
	return &TaskService{
		tasks:    tasks,
		projects: projects,
		users:    users,
		sink:     sink,
		ai:       ai,
		log:      log,
		now:      time.Now,
	}
}

// WithClock returns a copy of s that stamps updates from now.
func (s *TaskService) WithClock(now func() time.Time) *TaskService {
	clone := *s
	clone.now = now
	return &clone
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Status    *models.TaskStatus
	Priority  *models.TaskPriority
	DueDate   *time.Time
	ProjectID *uint64
	SortBy    string
	Order     string
	Offset    int
	Limit     int
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title          string
	Description    *string
	Status         models.TaskStatus
	Priority       models.TaskPriority
	DueDate        *time.Time
	ProjectID      uint64
	AssignedUserID *uint64
}

// UpdateTaskInput represents a partial task update. Nil pointers leave a
// field unchanged; the Clear flags set a nullable field to null.
type UpdateTaskInput struct {
	Title            *string
	Description      *string
	ClearDescription bool
	Status           *models.TaskStatus
	Priority         *models.TaskPriority
	DueDate          *time.Time
	ClearDueDate     bool
	ProjectID        *uint64
	AssignedUserID   *uint64
	ClearAssignee    bool
}

// ListTasks returns the caller's tasks and the total matching count
func (s *TaskService) ListTasks(ctx context.Context, ownerID uint64, input ListTasksInput) ([]models.Task, int64, error) {
	verr := &apierrors.ValidationError{}
	if input.Status != nil && !input.Status.Valid() {
		verr.Add("status", "must be one of [TODO IN_PROGRESS DONE]")
	}
	if input.Priority != nil && !input.Priority.Valid() {
		verr.Add("priority", "must be one of [LOW MEDIUM HIGH]")
	}
	if err := verr.OrNil(); err != nil {
		return nil, 0, err
	}

	filter := repository.TaskFilter{
		Status:     input.Status,
		Priority:   input.Priority,
		DueDate:    input.DueDate,
		ProjectID:  input.ProjectID,
		Descending: strings.EqualFold(input.Order, "desc"),
		Offset:     input.Offset,
		Limit:      input.Limit,
	}
	switch repository.SortField(input.SortBy) {
	case repository.SortPriority:
		filter.SortBy = repository.SortPriority
	case repository.SortDueDate:
		filter.SortBy = repository.SortDueDate
	}

	tasks, total, err := s.tasks.ListOwned(ctx, ownerID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// GetTask returns an owned task
func (s *TaskService) GetTask(ctx context.Context, ownerID, taskID uint64) (*models.Task, error) {
	task, err := s.tasks.FindOwned(ctx, ownerID, taskID)
	if err != nil {
		return nil, taskLookupError(err)
	}
	return task, nil
}

// CreateTask creates a task in an owned project
func (s *TaskService) CreateTask(ctx context.Context, ownerID uint64, input CreateTaskInput) (*models.Task, error) {
	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}

	verr := &apierrors.ValidationError{}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		verr.Add("title", "must not be empty")
	} else if len(title) > maxNameLength {
		verr.Add("title", fmt.Sprintf("must be at most %d characters", maxNameLength))
	}
	if !input.Status.Valid() {
		verr.Add("status", "must be one of [TODO IN_PROGRESS DONE]")
	}
	if !input.Priority.Valid() {
		verr.Add("priority", "must be one of [LOW MEDIUM HIGH]")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if _, err := s.projects.FindOwned(ctx, ownerID, input.ProjectID); err != nil {
		return nil, projectLookupError(err)
	}

	if input.AssignedUserID != nil {
		if err := s.ensureUserExists(ctx, *input.AssignedUserID); err != nil {
			return nil, err
		}
	}

	stamp := s.stamp(time.Time{})
	task := &models.Task{
		Title:          title,
		Description:    input.Description,
		Status:         input.Status,
		Priority:       input.Priority,
		DueDate:        utcPtr(input.DueDate),
		ProjectID:      input.ProjectID,
		AssignedUserID: input.AssignedUserID,
		CreatedAt:      stamp,
		UpdatedAt:      stamp,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if task.AssignedUserID != nil {
		s.dispatch(ctx, notify.Assigned(task.ID))
	}
	return task, nil
}

// UpdateTask applies a partial update to an owned task and emits the
// notification triggers the change calls for.
func (s *TaskService) UpdateTask(ctx context.Context, ownerID, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	if err := validateTaskUpdate(&input); err != nil {
		return nil, err
	}

	var (
		oldStatus   models.TaskStatus
		oldAssignee *uint64
	)
	task, err := s.tasks.UpdateOwned(ctx, ownerID, taskID, func(tx repository.TxLookups, task *models.Task) error {
		oldStatus = task.Status
		oldAssignee = task.AssignedUserID

		if input.ProjectID != nil && *input.ProjectID != task.ProjectID {
			owned, err := tx.ProjectOwned(ownerID, *input.ProjectID)
			if err != nil {
				return err
			}
			if !owned {
				return ErrProjectNotFound
			}
			task.ProjectID = *input.ProjectID
		}

		if input.AssignedUserID != nil && !sameUser(input.AssignedUserID, task.AssignedUserID) {
			exists, err := tx.UserExists(*input.AssignedUserID)
			if err != nil {
				return err
			}
			if !exists {
				return apierrors.NewValidationError("assigned_user_id", "user does not exist")
			}
		}

		applyTaskUpdate(task, input)
		task.UpdatedAt = s.stamp(task.UpdatedAt)
		return nil
	})
	if err != nil {
		return nil, taskLookupError(err)
	}

	if task.Status != oldStatus {
		s.dispatch(ctx, notify.StatusChanged(task.ID, oldStatus, task.Status))
	}
	if task.AssignedUserID != nil && !sameUser(task.AssignedUserID, oldAssignee) {
		s.dispatch(ctx, notify.Assigned(task.ID))
	}
	return task, nil
}

// DeleteTask deletes an owned task and returns it
func (s *TaskService) DeleteTask(ctx context.Context, ownerID, taskID uint64) (*models.Task, error) {
	task, err := s.tasks.DeleteOwned(ctx, ownerID, taskID)
	if err != nil {
		return nil, taskLookupError(err)
	}
	return task, nil
}

// SuggestTasks asks the AI service for task suggestions for an owned project.
// Nothing is persisted.
func (s *TaskService) SuggestTasks(ctx context.Context, ownerID, projectID uint64, text string) ([]GeneratedTask, error) {
	if _, err := s.projects.FindOwned(ctx, ownerID, projectID); err != nil {
		return nil, projectLookupError(err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, apierrors.NewValidationError("text", "must not be empty")
	}
	return generateTasks(ctx, s.ai, text, s.now())
}

func validateTaskUpdate(input *UpdateTaskInput) error {
	verr := &apierrors.ValidationError{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		switch {
		case title == "":
			verr.Add("title", "must not be empty")
		case len(title) > maxNameLength:
			verr.Add("title", fmt.Sprintf("must be at most %d characters", maxNameLength))
		default:
			input.Title = &title
		}
	}
	if input.Status != nil && !input.Status.Valid() {
		verr.Add("status", "must be one of [TODO IN_PROGRESS DONE]")
	}
	if input.Priority != nil && !input.Priority.Valid() {
		verr.Add("priority", "must be one of [LOW MEDIUM HIGH]")
	}
	return verr.OrNil()
}

func applyTaskUpdate(task *models.Task, input UpdateTaskInput) {
	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.ClearDescription {
		task.Description = nil
	} else if input.Description != nil {
		task.Description = input.Description
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = utcPtr(input.DueDate)
	}
	if input.ClearAssignee {
		task.AssignedUserID = nil
	} else if input.AssignedUserID != nil {
		id := *input.AssignedUserID
		task.AssignedUserID = &id
	}
}

// stamp returns the current time, moved past prev when the clock has not advanced.
func (s *TaskService) stamp(prev time.Time) time.Time {
	now := s.now().UTC().Truncate(stampResolution)
	if !now.After(prev) {
		now = prev.UTC().Truncate(stampResolution).Add(stampResolution)
	}
	return now
}

// dispatch hands a trigger to the sink. Failures are logged and never reach the caller.
func (s *TaskService) dispatch(ctx context.Context, t notify.Trigger) {
	if s.sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.ErrorContext(ctx, "dispatch failure",
				"trigger_id", t.ID,
				"kind", t.Kind,
				"task_id", t.TaskID,
				"panic", fmt.Sprint(r))
		}
	}()

	if err := s.sink.Enqueue(ctx, t); err != nil {
		s.log.ErrorContext(ctx, "dispatch failure",
			"trigger_id", t.ID,
			"kind", t.Kind,
			"task_id", t.TaskID,
			"error", err)
	}
}

func (s *TaskService) ensureUserExists(ctx context.Context, userID uint64) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierrors.NewValidationError("assigned_user_id", "user does not exist")
		}
		return fmt.Errorf("failed to verify assignee: %w", err)
	}
	return nil
}

func taskLookupError(err error) error {
	var verr *apierrors.ValidationError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrTaskNotFound
	case errors.Is(err, ErrProjectNotFound), errors.As(err, &verr):
		return err
	default:
		return fmt.Errorf("failed to access task: %w", err)
	}
}

func sameUser(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
