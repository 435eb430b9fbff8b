package model

import (
	"time"

	"github.com/google/uuid"
)

// PushSubscription is a browser push endpoint registered by a profile.
// Endpoint is the natural key.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey" json:"endpoint"`
	P256dh    string    `gorm:"not null" json:"p256dh"`
	Auth      string    `gorm:"not null" json:"auth"`
	ProfileID uuid.UUID `gorm:"type:uuid;not null;index" json:"profile_id"`
	CreatedAt time.Time `json:"created_at"`
}
