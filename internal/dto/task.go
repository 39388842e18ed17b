package dto

import (
	"time"

	"github.com/yukikurage/taskflow-api/internal/models"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID             uint64              `json:"id"`
	Title          string              `json:"title"`
	Description    *string             `json:"description"`
	Status         models.TaskStatus   `json:"status"`
	Priority       models.TaskPriority `json:"priority"`
	DueDate        *time.Time          `json:"due_date"`
	ProjectID      uint64              `json:"project_id"`
	AssignedUserID *uint64             `json:"assigned_user_id"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// CreateTaskRequest is the body of a task create call
type CreateTaskRequest struct {
	Title          string              `json:"title" binding:"required,max=255"`
	Description    *string             `json:"description"`
	Status         models.TaskStatus   `json:"status" binding:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	Priority       models.TaskPriority `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH"`
	DueDate        *DueDate            `json:"due_date"`
	ProjectID      uint64              `json:"project_id" binding:"required"`
	AssignedUserID *uint64             `json:"assigned_user_id"`
}

// UpdateTaskRequest is a partial task update
type UpdateTaskRequest struct {
	Title          Field[string]              `json:"title"`
	Description    Field[string]              `json:"description"`
	Status         Field[models.TaskStatus]   `json:"status"`
	Priority       Field[models.TaskPriority] `json:"priority"`
	DueDate        Field[DueDate]             `json:"due_date"`
	ProjectID      Field[uint64]              `json:"project_id"`
	AssignedUserID Field[uint64]              `json:"assigned_user_id"`
}

// SuggestTasksRequest asks for AI task suggestions
type SuggestTasksRequest struct {
	Text string `json:"text" binding:"required"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		Status:         task.Status,
		Priority:       task.Priority,
		DueDate:        utcTime(task.DueDate),
		ProjectID:      task.ProjectID,
		AssignedUserID: task.AssignedUserID,
		CreatedAt:      task.CreatedAt.UTC(),
		UpdatedAt:      task.UpdatedAt.UTC(),
	}
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	out := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		out[i] = ToTaskDTO(t)
	}
	return out
}

func utcTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
