package repository

import (
	"context"
	"time"

	"github.com/yukikurage/taskflow-api/internal/database"
	"github.com/yukikurage/taskflow-api/internal/models"
	"gorm.io/gorm"
)

const priorityRank = "CASE tasks.priority WHEN 'LOW' THEN 1 WHEN 'MEDIUM' THEN 2 WHEN 'HIGH' THEN 3 ELSE 0 END"

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindOwned finds a task visible to ownerID
func (r *GormTaskRepository) FindOwned(ctx context.Context, ownerID, taskID uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).
		Scopes(database.OwnedTasks(ownerID)).
		First(&task, taskID).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListOwned retrieves tasks with filtering and pagination
func (r *GormTaskRepository) ListOwned(ctx context.Context, ownerID uint64, filter TaskFilter) ([]models.Task, int64, error) {
	base := func() *gorm.DB {
		query := r.db.WithContext(ctx).
			Model(&models.Task{}).
			Scopes(database.OwnedTasks(ownerID))

		if filter.Status != nil {
			query = query.Where("tasks.status = ?", *filter.Status)
		}
		if filter.Priority != nil {
			query = query.Where("tasks.priority = ?", *filter.Priority)
		}
		if filter.DueDate != nil {
			query = query.Where("tasks.due_date = ?", filter.DueDate.UTC())
		}
		if filter.ProjectID != nil {
			query = query.Where("tasks.project_id = ?", *filter.ProjectID)
		}
		return query
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}

	listQuery := base()
	switch filter.SortBy {
	case SortPriority:
		listQuery = listQuery.Order(priorityRank + " " + direction)
	case SortDueDate:
		listQuery = listQuery.
			Order("CASE WHEN tasks.due_date IS NULL THEN 1 ELSE 0 END").
			Order("tasks.due_date " + direction)
	}
	listQuery = listQuery.Order("tasks.id ASC")

	if filter.Limit > 0 {
		listQuery = listQuery.Scopes(database.Paginate(filter.Offset, filter.Limit))
	}

	tasks := []models.Task{}
	if err := listQuery.Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// ListByProject retrieves the tasks of one project
func (r *GormTaskRepository) ListByProject(ctx context.Context, projectID uint64) ([]models.Task, error) {
	tasks := []models.Task{}
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// UpdateOwned fetches, mutates and saves a task in one transaction
func (r *GormTaskRepository) UpdateOwned(ctx context.Context, ownerID, taskID uint64, apply func(tx TxLookups, task *models.Task) error) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(database.OwnedTasks(ownerID)).First(&task, taskID).Error; err != nil {
			return err
		}

		if err := apply(gormTxLookups{tx: tx}, &task); err != nil {
			return err
		}

		if err := tx.Save(&task).Error; err != nil {
			return err
		}

		return tx.First(&task, task.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteOwned deletes a task visible to ownerID
func (r *GormTaskRepository) DeleteOwned(ctx context.Context, ownerID, taskID uint64) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(database.OwnedTasks(ownerID)).First(&task, taskID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Task{}, task.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// FindByID finds a task by ID
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListOverdueAssigned lists open tasks assigned to userID that were due before cutoff
func (r *GormTaskRepository) ListOverdueAssigned(ctx context.Context, userID uint64, cutoff time.Time) ([]models.Task, error) {
	tasks := []models.Task{}
	if err := r.db.WithContext(ctx).
		Where("assigned_user_id = ?", userID).
		Where("due_date IS NOT NULL AND due_date < ?", cutoff.UTC()).
		Where("status <> ?", models.TaskStatusDone).
		Order("due_date ASC").
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

type gormTxLookups struct {
	tx *gorm.DB
}

func (l gormTxLookups) ProjectOwned(ownerID, projectID uint64) (bool, error) {
	var count int64
	err := l.tx.Model(&models.Project{}).
		Scopes(database.OwnedProjects(ownerID)).
		Where("projects.id = ?", projectID).
		Count(&count).Error
	return count > 0, err
}

func (l gormTxLookups) UserExists(userID uint64) (bool, error) {
	var count int64
	err := l.tx.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error
	return count > 0, err
}
