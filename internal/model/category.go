package model

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	HouseholdID uuid.UUID `gorm:"type:uuid;not null;index" json:"household_id"`
	Name        string    `gorm:"not null" json:"name"`
	Color       string    `gorm:"not null;default:'#6366F1'" json:"color"`
	Icon        *string   `json:"icon"`
	SortOrder   int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DefaultCategories are created for every new household.
var DefaultCategories = []Category{
	{Name: "Shopping", Color: "#F59E0B"},
	{Name: "Chores", Color: "#10B981"},
	{Name: "Errands", Color: "#6366F1"},
	{Name: "Other", Color: "#6B7280"},
}
