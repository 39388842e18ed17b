package dto

import (
	"time"

	"github.com/yukikurage/taskflow-api/internal/models"
)

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	OwnerID     uint64    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectWithTasksDTO is a project with its tasks embedded
type ProjectWithTasksDTO struct {
	ProjectDTO
	Tasks []TaskDTO `json:"tasks"`
}

// CreateProjectRequest is the body of a project create call
type CreateProjectRequest struct {
	Name        string  `json:"name" binding:"required,max=255"`
	Description *string `json:"description"`
}

// UpdateProjectRequest is a partial project update
type UpdateProjectRequest struct {
	Name        Field[string] `json:"name"`
	Description Field[string] `json:"description"`
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	return ProjectDTO{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		OwnerID:     project.OwnerID,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
}

// ToProjectDTOs converts a slice of projects
func ToProjectDTOs(projects []models.Project) []ProjectDTO {
	out := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		out[i] = ToProjectDTO(p)
	}
	return out
}

// ToProjectWithTasksDTO converts a project and its tasks
func ToProjectWithTasksDTO(project models.Project, tasks []models.Task) ProjectWithTasksDTO {
	return ProjectWithTasksDTO{
		ProjectDTO: ToProjectDTO(project),
		Tasks:      ToTaskDTOs(tasks),
	}
}
