package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"famtasks/internal/auth"
	"famtasks/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	UserIDKey      = "userID"
	ProfileKey     = "profile"
	HouseholdIDKey = "householdID"
)

type TokenParser interface {
	ParseToken(tokenStr string) (uuid.UUID, error)
}

type ProfileGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
}

// JWTAuthMiddleware authenticates the request and stores the profile ID under
// UserIDKey. A `token` query parameter is accepted when no Authorization
// header is sent, because EventSource cannot set headers.
func JWTAuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			return
		}

		userID, err := tokens.ParseToken(tokenStr)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidClaims) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID in token"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// OptionalJWTAuth stores the profile ID when a valid token is present and
// lets the request through either way.
func OptionalJWTAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			if userID, err := tokens.ParseToken(strings.TrimPrefix(header, "Bearer ")); err == nil {
				c.Set(UserIDKey, userID)
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if token := c.Query("token"); token != "" {
			return token, true
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
		return "", false
	}
	return parts[1], true
}

// RequireHousehold loads the caller's profile and rejects callers that have
// not joined a household yet, so clients can route them to create or join.
func RequireHousehold(profiles ProfileGetter) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		profile, err := profiles.GetByID(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve profile"})
			return
		}
		if profile == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Profile not found"})
			return
		}
		if profile.Unassigned() {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Household required"})
			return
		}
		c.Set(ProfileKey, profile)
		c.Set(HouseholdIDKey, *profile.HouseholdID)
		c.Next()
	}
}

func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func CurrentHouseholdID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(HouseholdIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
