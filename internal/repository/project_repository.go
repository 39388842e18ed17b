package repository

import (
	"context"

	"github.com/yukikurage/taskflow-api/internal/database"
	"github.com/yukikurage/taskflow-api/internal/models"
	"gorm.io/gorm"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a new project
func (r *GormProjectRepository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

// FindOwned finds a project owned by ownerID
func (r *GormProjectRepository) FindOwned(ctx context.Context, ownerID, projectID uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).
		Scopes(database.OwnedProjects(ownerID)).
		First(&project, projectID).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// ListOwned lists projects owned by ownerID
func (r *GormProjectRepository) ListOwned(ctx context.Context, ownerID uint64, offset, limit int) ([]models.Project, error) {
	projects := []models.Project{}
	if err := r.db.WithContext(ctx).
		Scopes(database.OwnedProjects(ownerID), database.Paginate(offset, limit)).
		Order("projects.id ASC").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// UpdateOwned fetches, mutates and saves a project in one transaction
func (r *GormProjectRepository) UpdateOwned(ctx context.Context, ownerID, projectID uint64, apply func(project *models.Project) error) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(database.OwnedProjects(ownerID)).First(&project, projectID).Error; err != nil {
			return err
		}

		if err := apply(&project); err != nil {
			return err
		}

		if err := tx.Save(&project).Error; err != nil {
			return err
		}

		return tx.First(&project, project.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// DeleteOwned deletes a project and all of its tasks in a transaction
func (r *GormProjectRepository) DeleteOwned(ctx context.Context, ownerID, projectID uint64) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(database.OwnedProjects(ownerID)).First(&project, projectID).Error; err != nil {
			return err
		}

		// Delete all tasks in the project
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		// Delete project
		return tx.Delete(&models.Project{}, project.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// FindByID finds a project by ID
func (r *GormProjectRepository) FindByID(ctx context.Context, id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}
