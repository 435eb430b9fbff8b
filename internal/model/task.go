package model

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	HouseholdID uuid.UUID  `gorm:"type:uuid;not null;index" json:"household_id"`
	CategoryID  *uuid.UUID `gorm:"type:uuid;index" json:"category_id"`
	Title       string     `gorm:"not null" json:"title"`
	Memo        *string    `json:"memo"`
	URL         *string    `gorm:"column:url" json:"url"`
	DueDate     *time.Time `gorm:"type:date" json:"due_date"`
	IsDone      bool       `gorm:"not null;default:false" json:"is_done"`
	SortOrder   int        `gorm:"not null;default:0" json:"sort_order"`
	CreatedBy   *uuid.UUID `gorm:"type:uuid" json:"created_by"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type TaskAssignee struct {
	TaskID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"task_id"`
	ProfileID uuid.UUID `gorm:"type:uuid;primaryKey" json:"profile_id"`
}

type TaskImage struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TaskID      uuid.UUID `gorm:"type:uuid;not null;index" json:"task_id"`
	StoragePath string    `gorm:"not null" json:"storage_path"`
	CreatedAt   time.Time `json:"created_at"`
}
