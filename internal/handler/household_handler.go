package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"famtasks/internal/model"
	"famtasks/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type HouseholdStore interface {
	Provision(ctx context.Context, household *model.Household, ownerID uuid.UUID, inviteTTL time.Duration) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Household, error)
	FindByInviteCode(ctx context.Context, code string, now time.Time) (*model.Household, error)
	RotateInviteCode(ctx context.Context, id uuid.UUID, ttl time.Duration) (string, time.Time, error)
	Rename(ctx context.Context, id uuid.UUID, name string) error
}

type MemberStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	SetHousehold(ctx context.Context, id uuid.UUID, householdID *uuid.UUID) error
	ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]model.Profile, error)
}

type HouseholdHandler struct {
	households HouseholdStore
	members    MemberStore
	inviteTTL  time.Duration
}

func NewHouseholdHandler(households HouseholdStore, members MemberStore, inviteTTL time.Duration) *HouseholdHandler {
	return &HouseholdHandler{households: households, members: members, inviteTTL: inviteTTL}
}

type CreateHouseholdRequest struct {
	Name string `json:"name" binding:"max=50"`
}

type JoinHouseholdRequest struct {
	Code string `json:"code" binding:"required"`
}

type RenameHouseholdRequest struct {
	Name string `json:"name" binding:"required,min=1,max=50"`
}

type InviteCodeResponse struct {
	Code      string    `json:"invite_code"`
	ExpiresAt time.Time `json:"invite_code_expires_at"`
}

// Create creates a household for an unassigned caller, seeded with the
// default categories and a fresh invite code.
func (h *HouseholdHandler) Create(c *gin.Context) {
	profile, ok := h.unassignedProfile(c)
	if !ok {
		return
	}

	var req CreateHouseholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = model.DefaultHouseholdName
	}

	household := &model.Household{ID: uuid.New(), Name: name}
	if err := h.households.Provision(c.Request.Context(), household, profile.ID, h.inviteTTL); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create household"})
		return
	}

	log.WithFields(log.Fields{"household_id": household.ID, "profile_id": profile.ID}).Info("🏠 household created")
	c.JSON(http.StatusCreated, household)
}

// Join moves an unassigned caller into the household holding the invite code.
func (h *HouseholdHandler) Join(c *gin.Context) {
	profile, ok := h.unassignedProfile(c)
	if !ok {
		return
	}

	var req JoinHouseholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	household, err := h.households.FindByInviteCode(c.Request.Context(), req.Code, time.Now())
	if errors.Is(err, repository.ErrInviteCodeInvalid) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid or expired invite code"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up invite code"})
		return
	}

	if err := h.members.SetHousehold(c.Request.Context(), profile.ID, &household.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join household"})
		return
	}

	log.WithFields(log.Fields{"household_id": household.ID, "profile_id": profile.ID}).Info("🤝 profile joined household")
	c.JSON(http.StatusOK, household)
}

func (h *HouseholdHandler) Current(c *gin.Context) {
	householdID, ok := currentHouseholdID(c)
	if !ok {
		return
	}

	household, err := h.households.GetByID(c.Request.Context(), householdID)
	if errors.Is(err, repository.ErrHouseholdNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Household not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve household"})
		return
	}

	c.JSON(http.StatusOK, household)
}

func (h *HouseholdHandler) Rename(c *gin.Context) {
	householdID, ok := currentHouseholdID(c)
	if !ok {
		return
	}

	var req RenameHouseholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.households.Rename(c.Request.Context(), householdID, strings.TrimSpace(req.Name)); err != nil {
		if errors.Is(err, repository.ErrHouseholdNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Household not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rename household"})
		return
	}

	h.Current(c)
}

func (h *HouseholdHandler) Members(c *gin.Context) {
	householdID, ok := currentHouseholdID(c)
	if !ok {
		return
	}

	members, err := h.members.ListByHousehold(c.Request.Context(), householdID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve members"})
		return
	}

	c.JSON(http.StatusOK, members)
}

// RotateInviteCode issues a new invite code; the previous one stops working.
func (h *HouseholdHandler) RotateInviteCode(c *gin.Context) {
	householdID, ok := currentHouseholdID(c)
	if !ok {
		return
	}

	code, expires, err := h.households.RotateInviteCode(c.Request.Context(), householdID, h.inviteTTL)
	if errors.Is(err, repository.ErrHouseholdNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Household not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate invite code"})
		return
	}

	c.JSON(http.StatusOK, InviteCodeResponse{Code: code, ExpiresAt: expires})
}

func (h *HouseholdHandler) unassignedProfile(c *gin.Context) (*model.Profile, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return nil, false
	}

	profile, err := h.members.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve profile"})
		return nil, false
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return nil, false
	}
	if !profile.Unassigned() {
		c.JSON(http.StatusConflict, gin.H{"error": "Already a member of a household"})
		return nil, false
	}
	return profile, true
}
