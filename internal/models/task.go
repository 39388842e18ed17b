package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

// Valid reports whether s is one of the persisted statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
)

// Valid reports whether p is one of the persisted priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Task belongs to one project and may be assigned to one user. The assignment only
// routes notifications; it never grants access.
type Task struct {
	ID             uint64       `gorm:"primarykey" json:"id"`
	Title          string       `gorm:"type:varchar(255);index;not null" json:"title"`
	Description    *string      `gorm:"type:text" json:"description"`
	Status         TaskStatus   `gorm:"type:varchar(20);not null;default:'TODO';index" json:"status"`
	Priority       TaskPriority `gorm:"type:varchar(20);not null;default:'MEDIUM';index" json:"priority"`
	DueDate        *time.Time   `gorm:"index" json:"due_date"`
	ProjectID      uint64       `gorm:"not null;index" json:"project_id"`
	AssignedUserID *uint64      `gorm:"index" json:"assigned_user_id"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `gorm:"autoUpdateTime:false" json:"updated_at"`
}
