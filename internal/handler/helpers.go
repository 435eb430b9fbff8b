package handler

import (
	"net/http"

	"famtasks/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// currentUserID answers 401 itself when the request carries no identity.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return uuid.Nil, false
	}
	return userID, true
}

// currentHouseholdID is set by middleware.RequireHousehold.
func currentHouseholdID(c *gin.Context) (uuid.UUID, bool) {
	householdID, ok := middleware.CurrentHouseholdID(c)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "Household required"})
		return uuid.Nil, false
	}
	return householdID, true
}

func pathID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + what + " ID format"})
		return uuid.Nil, false
	}
	return id, true
}
