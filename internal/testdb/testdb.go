// Package testdb provides a throwaway in-memory database for package tests.
package testdb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskflow-api/internal/database"
	applog "github.com/yukikurage/taskflow-api/internal/logger"
	"github.com/yukikurage/taskflow-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New opens a migrated in-memory sqlite database that is closed when the test ends.
// The pool is pinned to one connection so every query sees the same memory database.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.Migrate(db, applog.Discard()))
	return db
}

// CreateUser inserts an active user.
func CreateUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "hashedpassword",
		FullName:     email,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// Deactivate flips a user's active flag off. gorm skips zero values on create,
// so inactive users have to be produced with an explicit update.
func Deactivate(t *testing.T, db *gorm.DB, user *models.User) {
	t.Helper()
	require.NoError(t, db.Model(user).Update("is_active", false).Error)
	user.IsActive = false
}

// CreateProject inserts a project owned by ownerID.
func CreateProject(t *testing.T, db *gorm.DB, name string, ownerID uint64) *models.Project {
	t.Helper()
	project := &models.Project{
		Name:    name,
		OwnerID: ownerID,
	}
	require.NoError(t, db.Create(project).Error)
	return project
}

// CreateTask inserts a TODO/MEDIUM task under projectID; opts adjust it before insert.
func CreateTask(t *testing.T, db *gorm.DB, title string, projectID uint64, opts ...func(*models.Task)) *models.Task {
	t.Helper()
	task := &models.Task{
		Title:     title,
		Status:    models.TaskStatusTodo,
		Priority:  models.TaskPriorityMedium,
		ProjectID: projectID,
	}
	for _, opt := range opts {
		opt(task)
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = time.Now().UTC()
	}
	require.NoError(t, db.Create(task).Error)
	return task
}
