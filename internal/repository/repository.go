package repository

import (
	"context"
	"time"

	"github.com/yukikurage/taskflow-api/internal/models"
)

// TaskRepository defines the interface for task data access. Methods taking an
// ownerID only ever see tasks whose parent project is owned by that user.
type TaskRepository interface {
	// Create inserts a task
	Create(ctx context.Context, task *models.Task) error

	// FindOwned finds a task through its project's owner
	FindOwned(ctx context.Context, ownerID, taskID uint64) (*models.Task, error)

	// ListOwned retrieves owned tasks with filtering, sorting and pagination
	ListOwned(ctx context.Context, ownerID uint64, filter TaskFilter) ([]models.Task, int64, error)

	// ListByProject retrieves all tasks of a project ordered by id
	ListByProject(ctx context.Context, projectID uint64) ([]models.Task, error)

	// UpdateOwned runs fetch, apply, save and reload in one transaction.
	// apply receives the stored row and mutates it in place.
	UpdateOwned(ctx context.Context, ownerID, taskID uint64, apply func(tx TxLookups, task *models.Task) error) (*models.Task, error)

	// DeleteOwned removes an owned task and returns the deleted row
	DeleteOwned(ctx context.Context, ownerID, taskID uint64) (*models.Task, error)

	// FindByID finds a task without ownership scoping. Only background jobs use it.
	FindByID(ctx context.Context, id uint64) (*models.Task, error)

	// ListOverdueAssigned lists tasks assigned to userID, due before cutoff and not done
	ListOverdueAssigned(ctx context.Context, userID uint64, cutoff time.Time) ([]models.Task, error)
}

// TxLookups exposes the ownership checks an update needs inside its transaction.
type TxLookups interface {
	ProjectOwned(ownerID, projectID uint64) (bool, error)
	UserExists(userID uint64) (bool, error)
}

// SortField names a supported task sort key
type SortField string

const (
	SortNone     SortField = ""
	SortPriority SortField = "priority"
	SortDueDate  SortField = "due_date"
)

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	Status     *models.TaskStatus
	Priority   *models.TaskPriority
	DueDate    *time.Time
	ProjectID  *uint64
	SortBy     SortField
	Descending bool
	Offset     int
	Limit      int
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create inserts a project
	Create(ctx context.Context, project *models.Project) error

	// FindOwned finds a project by id among the projects of ownerID
	FindOwned(ctx context.Context, ownerID, projectID uint64) (*models.Project, error)

	// ListOwned lists the projects of ownerID ordered by id
	ListOwned(ctx context.Context, ownerID uint64, offset, limit int) ([]models.Project, error)

	// UpdateOwned runs fetch, apply, save and reload in one transaction
	UpdateOwned(ctx context.Context, ownerID, projectID uint64, apply func(project *models.Project) error) (*models.Project, error)

	// DeleteOwned removes an owned project together with all of its tasks
	DeleteOwned(ctx context.Context, ownerID, projectID uint64) (*models.Project, error)

	// FindByID finds a project without ownership scoping. Only background jobs use it.
	FindByID(ctx context.Context, id uint64) (*models.Project, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create inserts a user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// Update saves a user
	Update(ctx context.Context, user *models.User) error

	// ListActive lists all active users ordered by id
	ListActive(ctx context.Context) ([]models.User, error)
}
