package model

import (
	"time"

	"github.com/google/uuid"
)

const DefaultHouseholdName = "Our home"

type Household struct {
	ID                  uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name                string     `gorm:"not null" json:"name"`
	InviteCode          *string    `gorm:"uniqueIndex" json:"invite_code"`
	InviteCodeExpiresAt *time.Time `json:"invite_code_expires_at"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// InviteCodeValid reports whether code matches the household's current invite
// code and that code has not expired at now.
func (h *Household) InviteCodeValid(code string, now time.Time) bool {
	if h.InviteCode == nil || h.InviteCodeExpiresAt == nil {
		return false
	}
	return *h.InviteCode == code && now.Before(*h.InviteCodeExpiresAt)
}
