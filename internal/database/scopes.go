package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/taskflow-api/internal/models"
)

// Paginate applies offset/limit to a query
func Paginate(offset, limit int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(offset).Limit(limit)
	}
}

// OwnedProjects restricts a projects query to rows owned by ownerID.
func OwnedProjects(ownerID uint64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("projects.owner_id = ?", ownerID)
	}
}

// OwnedTasks restricts a tasks query to rows whose parent project is owned by ownerID.
// Task assignment plays no part here.
func OwnedTasks(ownerID uint64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		owned := db.Session(&gorm.Session{NewDB: true}).
			Model(&models.Project{}).
			Select("projects.id").
			Where("projects.owner_id = ?", ownerID)
		return db.Where("tasks.project_id IN (?)", owned)
	}
}
