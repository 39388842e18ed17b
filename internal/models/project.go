package models

import "time"

// Project is owned by exactly one user; OwnerID is the authorization anchor for
// the project and, transitively, for all of its tasks.
type Project struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"type:varchar(255);index;not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	OwnerID     uint64    `gorm:"not null;index" json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
