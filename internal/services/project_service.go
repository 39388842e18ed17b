package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"gorm.io/gorm"
)

const maxNameLength = 255

// ProjectService handles project business logic. Every method is scoped to
// the projects the caller owns.
type ProjectService struct {
	projects repository.ProjectRepository
	tasks    repository.TaskRepository
}

// NewProjectService creates a new ProjectService
func NewProjectService(projects repository.ProjectRepository, tasks repository.TaskRepository) *ProjectService {
	return &ProjectService{
		projects: projects,
		tasks:    tasks,
	}
}

// CreateProjectInput represents input for creating a project
type CreateProjectInput struct {
	Name        string
	Description *string
}

// UpdateProjectInput represents a partial project update
type UpdateProjectInput struct {
	Name             *string
	Description      *string
	ClearDescription bool
}

// ProjectWithTasks is a project together with all of its tasks
type ProjectWithTasks struct {
	Project *models.Project
	Tasks   []models.Task
}

// ListProjects returns the caller's projects ordered by id
func (s *ProjectService) ListProjects(ctx context.Context, ownerID uint64, offset, limit int) ([]models.Project, error) {
	projects, err := s.projects.ListOwned(ctx, ownerID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// GetProject returns an owned project with its tasks
func (s *ProjectService) GetProject(ctx context.Context, ownerID, projectID uint64) (*ProjectWithTasks, error) {
	project, err := s.projects.FindOwned(ctx, ownerID, projectID)
	if err != nil {
		return nil, projectLookupError(err)
	}

	tasks, err := s.tasks.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project tasks: %w", err)
	}

	return &ProjectWithTasks{Project: project, Tasks: tasks}, nil
}

// CreateProject creates a project owned by ownerID
func (s *ProjectService) CreateProject(ctx context.Context, ownerID uint64, input CreateProjectInput) (*models.Project, error) {
	name, err := validateName("name", input.Name)
	if err != nil {
		return nil, err
	}

	project := &models.Project{
		Name:        name,
		Description: input.Description,
		OwnerID:     ownerID,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

// UpdateProject applies a partial update to an owned project
func (s *ProjectService) UpdateProject(ctx context.Context, ownerID, projectID uint64, input UpdateProjectInput) (*models.Project, error) {
	var name string
	if input.Name != nil {
		var err error
		if name, err = validateName("name", *input.Name); err != nil {
			return nil, err
		}
	}

	project, err := s.projects.UpdateOwned(ctx, ownerID, projectID, func(p *models.Project) error {
		if input.Name != nil {
			p.Name = name
		}
		if input.ClearDescription {
			p.Description = nil
		} else if input.Description != nil {
			p.Description = input.Description
		}
		return nil
	})
	if err != nil {
		return nil, projectLookupError(err)
	}
	return project, nil
}

// DeleteProject deletes an owned project and all of its tasks
func (s *ProjectService) DeleteProject(ctx context.Context, ownerID, projectID uint64) (*models.Project, error) {
	project, err := s.projects.DeleteOwned(ctx, ownerID, projectID)
	if err != nil {
		return nil, projectLookupError(err)
	}
	return project, nil
}

func projectLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrProjectNotFound
	}
	return fmt.Errorf("failed to access project: %w", err)
}

// validateName trims a required name and checks its length
func validateName(field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", apierrors.NewValidationError(field, "must not be empty")
	}
	if len(trimmed) > maxNameLength {
		return "", apierrors.NewValidationError(field, fmt.Sprintf("must be at most %d characters", maxNameLength))
	}
	return trimmed, nil
}
