package model

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the household member behind an authenticated identity.
type Profile struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	HouseholdID    *uuid.UUID `gorm:"type:uuid;index" json:"household_id"`
	Nickname       string     `gorm:"not null;default:''" json:"nickname"`
	AvatarURL      *string    `json:"avatar_url"`
	Email          string     `gorm:"uniqueIndex;not null" json:"email"`
	HashedPassword string     `gorm:"not null" json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Unassigned reports whether the profile has not joined a household yet.
func (p *Profile) Unassigned() bool {
	return p.HouseholdID == nil
}
